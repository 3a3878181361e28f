package stats

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yourusername/keiba-stats/internal/metrics"
	"github.com/yourusername/keiba-stats/internal/models"
)

func sampleRaces() []*models.Race {
	return []*models.Race{
		withPayout(newRace("2025-01-05", placing{7, 1}, placing{3, 2}, placing{5, 3}),
			models.TicketTrio, models.Payout{Combination: []int{3, 5, 7}, Pattern: []int{1, 2, 3}, TicketPopularity: models.IntPtr(1), Amount: 450}),
		withPayout(newRace("2025-01-06", placing{2, 2}, placing{4, 1}, placing{6, 5}),
			models.TicketTrio, models.Payout{Combination: []int{2, 4, 6}, TicketPopularity: models.IntPtr(8), Amount: 3200}),
	}
}

func TestEngineComputeRankTable(t *testing.T) {
	log, _ := newTestStatsLogger()
	engine := NewEngine(Options{}, nil, log)

	table, err := engine.Compute(sampleRaces(), models.TicketWin)
	require.NoError(t, err)
	assert.Equal(t, FamilyRank, table.Family)
	assert.Equal(t, 2, table.TotalRaces)
	assert.Len(t, table.Ranks, DefaultMaxRank)
	assert.Nil(t, table.Patterns)
	assert.Equal(t, DefaultMaxRank, table.Rows())
}

func TestEngineComputePatternTable(t *testing.T) {
	log, hook := newTestStatsLogger()
	engine := NewEngine(Options{}, nil, log)
	before := testutil.ToFloat64(metrics.StatsComputationsTotal.WithLabelValues("trio", "pattern"))

	table, err := engine.Compute(sampleRaces(), models.TicketTrio)
	require.NoError(t, err)
	assert.Equal(t, FamilyPattern, table.Family)
	require.NotNil(t, table.Patterns)
	require.NotNil(t, table.TicketPopularity)
	assert.Equal(t, 2, table.Patterns.Total)
	assert.Equal(t, 2, table.TicketPopularity.Total)

	stat, ok := table.Patterns.Lookup("1-2-5")
	require.True(t, ok)
	assert.InDelta(t, 1600.0, stat.ExpectedValue, 1e-9)

	assert.Equal(t, before+1, testutil.ToFloat64(metrics.StatsComputationsTotal.WithLabelValues("trio", "pattern")))
	entry := hook.LastEntry()
	require.NotNil(t, entry)
	assert.Equal(t, logrus.DebugLevel, entry.Level)
	assert.Equal(t, "trio", entry.Data["ticket"])
	assert.Equal(t, false, entry.Data["cached"])
}

func TestEngineComputeUsesCache(t *testing.T) {
	log, hook := newTestStatsLogger()
	cache := NewTableCache(time.Hour, 2*time.Hour)
	defer cache.Clear()
	engine := NewEngine(Options{}, cache, log)
	before := testutil.ToFloat64(metrics.StatsComputationsTotal.WithLabelValues("place", "rank"))

	first, err := engine.Compute(sampleRaces(), models.TicketPlace)
	require.NoError(t, err)
	second, err := engine.Compute(sampleRaces(), models.TicketPlace)
	require.NoError(t, err)

	assert.Same(t, first, second)
	assert.Equal(t, before+1, testutil.ToFloat64(metrics.StatsComputationsTotal.WithLabelValues("place", "rank")))
	assert.Equal(t, true, hook.LastEntry().Data["cached"])

	hits, misses, ratio := cache.Stats()
	assert.Equal(t, uint64(1), hits)
	assert.Equal(t, uint64(1), misses)
	assert.InDelta(t, 0.5, ratio, 1e-9)
	assert.Equal(t, 1, cache.ItemCount())

	// a different race set misses
	races := sampleRaces()
	races[0].Results[0].Popularity = models.IntPtr(4)
	_, err = engine.Compute(races, models.TicketPlace)
	require.NoError(t, err)
	assert.Equal(t, 2, cache.ItemCount())
}

func TestEngineComputeAll(t *testing.T) {
	log, _ := newTestStatsLogger()
	engine := NewEngine(Options{}, nil, log)

	tables, err := engine.ComputeAll(sampleRaces(), models.TicketTypes())
	require.NoError(t, err)
	require.Len(t, tables, 7)
	for i, ticket := range models.TicketTypes() {
		assert.Equal(t, ticket, tables[i].Ticket)
	}

	_, err = engine.ComputeAll(sampleRaces(), []models.TicketType{models.TicketBracketQuinella})
	assert.ErrorIs(t, err, ErrUnsupportedTicket)
}

func TestEngineCompareAndRolling(t *testing.T) {
	log, _ := newTestStatsLogger()
	engine := NewEngine(Options{RecentRaces: 1, RollingWindowDays: 7, RollingStepDays: 7, RollingMinRaces: 2}, nil, log)

	cmp, err := engine.Compare(sampleRaces(), models.TicketWin, 0)
	require.NoError(t, err)
	assert.Equal(t, 1, cmp.RecentCount)

	tp, err := engine.CompareTicketPopularity(sampleRaces(), models.TicketTrio, 2)
	require.NoError(t, err)
	assert.Len(t, tp.Rows, 2)

	windows, err := engine.Rolling(sampleRaces(), models.TicketTrio)
	require.NoError(t, err)
	require.Len(t, windows, 1)
	assert.Equal(t, 2, windows[0].RaceCount)
}

func TestNewEngineDefaults(t *testing.T) {
	log, _ := newTestStatsLogger()
	engine := NewEngine(Options{}, nil, log)
	assert.Equal(t, DefaultOptions(), engine.Options())
}

func TestEngineWithoutLogger(t *testing.T) {
	opts := Options{RecentRaces: 1, RollingWindowDays: 7, RollingStepDays: 7, RollingMinRaces: 2}
	engine := NewEngine(opts, NewTableCache(time.Minute, time.Minute), nil)
	races := sampleRaces()

	tests := []struct {
		name string
		run  func() error
	}{
		{name: "compute", run: func() error {
			_, err := engine.Compute(races, models.TicketWin)
			return err
		}},
		{name: "compute cached", run: func() error {
			_, err := engine.Compute(races, models.TicketWin)
			return err
		}},
		{name: "compute all", run: func() error {
			_, err := engine.ComputeAll(races, []models.TicketType{models.TicketPlace, models.TicketTrio})
			return err
		}},
		{name: "compare", run: func() error {
			_, err := engine.Compare(races, models.TicketWin, 0)
			return err
		}},
		{name: "rolling", run: func() error {
			_, err := engine.Rolling(races, models.TicketTrio)
			return err
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.NotPanics(t, func() {
				assert.NoError(t, tt.run())
			})
		})
	}
}

func TestFingerprint(t *testing.T) {
	a := sampleRaces()
	b := sampleRaces()
	assert.Equal(t, Fingerprint(a), Fingerprint(b))
	assert.NotEmpty(t, Fingerprint(a))

	b[1].Payouts[models.TicketTrio][0].Amount = 3300
	assert.NotEqual(t, Fingerprint(a), Fingerprint(b))
}

func TestCacheKeyString(t *testing.T) {
	key := CacheKey{Fingerprint: "abc", Ticket: models.TicketTrio, Family: FamilyPattern}
	assert.Equal(t, "abc:trio:pattern", key.String())
}
