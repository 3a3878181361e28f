package stats

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/yourusername/keiba-stats/internal/models"
)

func TestFilterMatch(t *testing.T) {
	race := newRace("2025-01-05", placing{1, 1}, placing{2, 2}, placing{3, 3})
	race.Name = "Nakayama Kimpai"
	race.Results[1].Name = "Equinox"

	tests := []struct {
		name     string
		filter   Filter
		expected bool
	}{
		{name: "zero filter", filter: Filter{}, expected: true},
		{name: "racetrack match", filter: Filter{Racetrack: "中山"}, expected: true},
		{name: "racetrack mismatch", filter: Filter{Racetrack: "東京"}, expected: false},
		{name: "surface mismatch", filter: Filter{Surface: "ダ"}, expected: false},
		{name: "distance match", filter: Filter{Distance: "1600"}, expected: true},
		{name: "distance is exact", filter: Filter{Distance: "160"}, expected: false},
		{name: "distance with metre suffix", filter: Filter{Distance: "1600m"}, expected: true},
		{name: "going mismatch", filter: Filter{Going: "重"}, expected: false},
		{name: "weather match", filter: Filter{Weather: "晴"}, expected: true},
		{name: "race name substring ignores case", filter: Filter{RaceName: "kimpai"}, expected: true},
		{name: "race name mismatch", filter: Filter{RaceName: "arima"}, expected: false},
		{name: "horse name substring", filter: Filter{HorseName: "quin"}, expected: true},
		{name: "horse name mismatch", filter: Filter{HorseName: "deep"}, expected: false},
		{name: "date range inclusive", filter: Filter{DateFrom: "2025-01-05", DateTo: "2025-01-05"}, expected: true},
		{name: "before range", filter: Filter{DateFrom: "2025-01-06"}, expected: false},
		{name: "after range", filter: Filter{DateTo: "2025-01-04"}, expected: false},
		{name: "all criteria", filter: Filter{Racetrack: "中山", Surface: "芝", Going: "良", HorseName: "equinox", DateTo: "2025-12-31"}, expected: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, tt.filter.Match(race))
		})
	}
}

func TestFilterApply(t *testing.T) {
	races := []*models.Race{
		newRace("2025-01-05", placing{1, 1}),
		newRace("2025-02-05", placing{1, 1}),
		newRace("2025-03-05", placing{1, 1}),
	}

	got := Filter{DateFrom: "2025-02-01"}.Apply(races)
	assert.Len(t, got, 2)
	assert.Equal(t, "2025-02-05", got[0].Date)

	assert.Len(t, Filter{}.Apply(races), 3)
	assert.Empty(t, Filter{Racetrack: "京都"}.Apply(races))
}
