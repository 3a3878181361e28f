package service

import (
	"strings"

	"github.com/sirupsen/logrus"
	"golang.org/x/text/unicode/norm"

	"github.com/yourusername/keiba-stats/internal/models"
)

// DataNormalizer normalizes pasted text and racecourse names to canonical form
type DataNormalizer struct {
	trackNameMap map[string]string // Maps racecourse name variants to canonical names
	logger       logrus.FieldLogger
}

// NewDataNormalizer creates a new data normalizer
func NewDataNormalizer(logger logrus.FieldLogger) *DataNormalizer {
	return &DataNormalizer{
		trackNameMap: buildTrackNameMap(),
		logger:       logger,
	}
}

// NormalizeText folds full-width digits, letters and dashes to their ASCII forms ("１２R" to
// "12R"). It must not be applied to race-card text: compatibility folding also turns the
// circled rank glyphs into plain digits.
func (n *DataNormalizer) NormalizeText(text string) string {
	return norm.NFKC.String(strings.ReplaceAll(text, "\r\n", "\n"))
}

// NormalizeRacetrack converts a racecourse name variant to its canonical short name
func (n *DataNormalizer) NormalizeRacetrack(track string) string {
	trimmed := strings.TrimSpace(norm.NFKC.String(track))
	if trimmed == "" {
		return ""
	}

	if canonical, ok := n.trackNameMap[strings.ToUpper(trimmed)]; ok {
		return canonical
	}

	trimmed = strings.TrimSuffix(trimmed, "競馬場")
	if canonical, ok := n.trackNameMap[trimmed]; ok {
		return canonical
	}

	n.logger.WithField("racetrack", track).Debug("Unrecognised racetrack name kept as entered")
	return trimmed
}

// SameRacetrack reports whether two names refer to the same racecourse
func (n *DataNormalizer) SameRacetrack(a, b string) bool {
	return n.NormalizeRacetrack(a) == n.NormalizeRacetrack(b)
}

// NormalizeRace trims free-text fields and canonicalises the racetrack, in place
func (n *DataNormalizer) NormalizeRace(race *models.Race) {
	if race == nil {
		return
	}
	race.Racetrack = n.NormalizeRacetrack(race.Racetrack)
	race.Number = strings.ToUpper(norm.NFKC.String(strings.TrimSpace(race.Number)))
	race.Name = strings.TrimSpace(race.Name)
	for i := range race.Results {
		race.Results[i].Name = sanitizeName(race.Results[i].Name)
	}
}

// sanitizeName removes surrounding and repeated inner whitespace
func sanitizeName(name string) string {
	return strings.Join(strings.Fields(name), " ")
}

// buildTrackNameMap returns mapping of racecourse name variations to canonical names
func buildTrackNameMap() map[string]string {
	return map[string]string{
		"東京": "東京", "TOKYO": "東京",
		"京都": "京都", "KYOTO": "京都",
		"中山": "中山", "NAKAYAMA": "中山",
		"阪神": "阪神", "HANSHIN": "阪神",
		"中京": "中京", "CHUKYO": "中京",
		"新潟": "新潟", "NIIGATA": "新潟",
		"札幌": "札幌", "SAPPORO": "札幌",
		"函館": "函館", "HAKODATE": "函館",
		"福島": "福島", "FUKUSHIMA": "福島",
		"小倉": "小倉", "KOKURA": "小倉",
	}
}
