package stats

import (
	"strings"

	"github.com/yourusername/keiba-stats/internal/models"
)

// Filter selects the subset of races a table is computed over. Empty fields match
// everything. Racetrack, Surface, Distance, Going and Weather must match exactly, except
// that a trailing "m" on Distance is ignored since races store digits only; RaceName
// and HorseName are case-insensitive substrings; DateFrom and DateTo are inclusive
// YYYY-MM-DD bounds.
type Filter struct {
	Racetrack string `json:"racetrack,omitempty" mapstructure:"racetrack"`
	Surface   string `json:"trackType,omitempty" mapstructure:"surface"`
	Distance  string `json:"distance,omitempty" mapstructure:"distance"`
	Going     string `json:"trackCondition,omitempty" mapstructure:"going"`
	Weather   string `json:"weather,omitempty" mapstructure:"weather"`
	RaceName  string `json:"raceSearch,omitempty" mapstructure:"race_name"`
	HorseName string `json:"horseSearch,omitempty" mapstructure:"horse_name"`
	DateFrom  string `json:"dateFrom,omitempty" mapstructure:"date_from"`
	DateTo    string `json:"dateTo,omitempty" mapstructure:"date_to"`
}

// IsZero reports whether the filter matches every race
func (f Filter) IsZero() bool {
	return f == Filter{}
}

// Match reports whether a race passes the filter
func (f Filter) Match(race *models.Race) bool {
	if f.Racetrack != "" && race.Racetrack != f.Racetrack {
		return false
	}
	if f.Surface != "" && race.Surface != f.Surface {
		return false
	}
	if d := strings.TrimSuffix(f.Distance, "m"); d != "" && race.Distance != d {
		return false
	}
	if f.Going != "" && race.Going != f.Going {
		return false
	}
	if f.Weather != "" && race.Weather != f.Weather {
		return false
	}
	if f.RaceName != "" && !containsFold(race.Name, f.RaceName) {
		return false
	}
	if f.HorseName != "" {
		found := false
		for _, res := range race.Results {
			if containsFold(res.Name, f.HorseName) {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	// dates are zero-padded so lexical order is calendar order
	if f.DateFrom != "" && race.Date < f.DateFrom {
		return false
	}
	if f.DateTo != "" && race.Date > f.DateTo {
		return false
	}
	return true
}

// Apply returns the races passing the filter, preserving order
func (f Filter) Apply(races []*models.Race) []*models.Race {
	if f.IsZero() {
		return races
	}
	out := make([]*models.Race, 0, len(races))
	for _, r := range races {
		if f.Match(r) {
			out = append(out, r)
		}
	}
	return out
}

func containsFold(s, substr string) bool {
	return strings.Contains(strings.ToLower(s), strings.ToLower(substr))
}
