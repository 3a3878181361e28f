package parser

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/yourusername/keiba-stats/internal/models"
)

// LineKind classifies a payout text line
type LineKind int

// Line kinds
const (
	KindOther LineKind = iota
	KindRaceLabel
	KindTicketHeader
	KindComment
	KindCombination
	KindAmount
	KindTicketRank
)

// Comment prefixes carrying race metadata alongside payouts
var (
	runnersPrefixes   = []string{"# 出走馬:", "# runners:"}
	scratchedPrefixes = []string{"# 取消馬:", "# scratched:"}
	fieldSizePrefixes = []string{"# 登録頭数:", "# field size:"}
)

var (
	combinationPattern = regexp.MustCompile(`^(\d+)(?:\s*[-－→]\s*|\s+)(\d+)(?:(?:\s*[-－→]\s*|\s+)(\d+))?$`)
	singleNumberLine   = regexp.MustCompile(`^\d+$`)
	amountPattern      = regexp.MustCompile(`^\d[\d,]*円?$`)
	ticketRankPattern  = regexp.MustCompile(`(\d+)人気`)
)

// ClassifyLine returns the most specific kind for a trimmed line. Single numbers are
// reported as combinations when they fit a horse number and as amounts otherwise.
func ClassifyLine(line string) LineKind {
	switch {
	case raceLabelPattern.MatchString(line):
		return KindRaceLabel
	case isTicketHeader(line):
		return KindTicketHeader
	case strings.HasPrefix(line, "#"):
		return KindComment
	case ticketRankPattern.MatchString(line):
		return KindTicketRank
	}
	if _, ok := parseCombination(line, 0); ok {
		return KindCombination
	}
	if _, ok := parseAmount(line); ok {
		return KindAmount
	}
	return KindOther
}

func isTicketHeader(line string) bool {
	_, ok := models.TicketTypeFromLabel(line)
	return ok
}

// startsBlock reports whether a line of this kind ends the block being read
func (k LineKind) startsBlock() bool {
	return k == KindRaceLabel || k == KindTicketHeader
}

// parseCombination reads 1..3 horse numbers. arity 0 accepts any length.
func parseCombination(line string, arity int) ([]int, bool) {
	var fields []string
	if singleNumberLine.MatchString(line) {
		fields = []string{line}
	} else if m := combinationPattern.FindStringSubmatch(line); m != nil {
		for _, f := range m[1:] {
			if f != "" {
				fields = append(fields, f)
			}
		}
	} else {
		return nil, false
	}
	if arity > 0 && len(fields) != arity {
		return nil, false
	}

	combo := make([]int, len(fields))
	for i, f := range fields {
		n, err := strconv.Atoi(f)
		if err != nil || n < 1 || n > maxHorseNumber {
			return nil, false
		}
		combo[i] = n
	}
	return combo, true
}

// parseAmount reads "1,520円" style amounts
func parseAmount(line string) (int, bool) {
	if !amountPattern.MatchString(line) {
		return 0, false
	}
	cleaned := strings.NewReplacer(",", "", "円", "").Replace(line)
	d, err := decimal.NewFromString(cleaned)
	if err != nil || d.IsNegative() {
		return 0, false
	}
	return int(d.IntPart()), true
}

// parseTicketRank reads "3人気"
func parseTicketRank(line string) (*int, bool) {
	m := ticketRankPattern.FindStringSubmatch(line)
	if m == nil {
		return nil, false
	}
	n, err := strconv.Atoi(m[1])
	if err != nil {
		return nil, false
	}
	return &n, true
}

// parseNumberList reads "1, 3, 5" into horse numbers, skipping anything non-numeric
func parseNumberList(text string) []int {
	var out []int
	for _, part := range strings.Split(text, ",") {
		if n, err := strconv.Atoi(strings.TrimSpace(part)); err == nil {
			out = append(out, n)
		}
	}
	return out
}

func trimPrefixAny(line string, prefixes []string) (string, bool) {
	for _, p := range prefixes {
		if strings.HasPrefix(line, p) {
			return strings.TrimSpace(strings.TrimPrefix(line, p)), true
		}
	}
	return "", false
}
