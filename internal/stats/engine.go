package stats

import (
	"fmt"
	"io"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/sourcegraph/conc/iter"

	"github.com/yourusername/keiba-stats/internal/logger"
	"github.com/yourusername/keiba-stats/internal/metrics"
	"github.com/yourusername/keiba-stats/internal/models"
)

// Options tunes the engine
type Options struct {
	MaxRank           int
	TrendThreshold    float64
	RecentRaces       int
	RollingWindowDays int
	RollingStepDays   int
	RollingMinRaces   int
}

// DefaultOptions returns the engine defaults
func DefaultOptions() Options {
	return Options{
		MaxRank:           DefaultMaxRank,
		TrendThreshold:    DefaultTrendThreshold,
		RecentRaces:       100,
		RollingWindowDays: 30,
		RollingStepDays:   7,
		RollingMinRaces:   DefaultRollingMinRaces,
	}
}

// Engine computes statistics tables with caching, logging and metrics
type Engine struct {
	opts   Options
	cache  *TableCache
	logger *logger.StatsLogger
}

// NewEngine creates a new statistics engine. cache may be nil to disable memoisation and
// a nil log discards table logs.
func NewEngine(opts Options, cache *TableCache, log *logger.StatsLogger) *Engine {
	if log == nil {
		discard := logrus.New()
		discard.SetOutput(io.Discard)
		log = logger.NewStatsLogger(discard)
	}
	defaults := DefaultOptions()
	if opts.MaxRank <= 0 {
		opts.MaxRank = defaults.MaxRank
	}
	if opts.TrendThreshold <= 0 {
		opts.TrendThreshold = defaults.TrendThreshold
	}
	if opts.RecentRaces <= 0 {
		opts.RecentRaces = defaults.RecentRaces
	}
	if opts.RollingWindowDays <= 0 {
		opts.RollingWindowDays = defaults.RollingWindowDays
	}
	if opts.RollingStepDays <= 0 {
		opts.RollingStepDays = defaults.RollingStepDays
	}
	if opts.RollingMinRaces <= 0 {
		opts.RollingMinRaces = defaults.RollingMinRaces
	}
	return &Engine{opts: opts, cache: cache, logger: log}
}

// Options returns the effective engine options
func (e *Engine) Options() Options {
	return e.opts
}

// Compute returns the statistics table for a ticket type: ranks for win and place,
// patterns plus ticket popularity for combination tickets
func (e *Engine) Compute(races []*models.Race, ticket models.TicketType) (*Table, error) {
	d, err := descriptorFor(ticket, "")
	if err != nil {
		return nil, err
	}
	family := FamilyPattern
	if d.RankIndexed() {
		family = FamilyRank
	}

	start := time.Now()
	key := CacheKey{Ticket: d.Type, Family: family}
	if e.cache != nil {
		key.Fingerprint = Fingerprint(races)
		if table, ok := e.cache.Get(key); ok {
			e.logger.LogTableComputed(string(d.Type), string(family), len(races), table.Rows(), true, msSince(start))
			return table, nil
		}
	}

	table := &Table{Ticket: d.Type, Family: family, TotalRaces: len(races)}
	if d.RankIndexed() {
		if table.Ranks, err = RankStatsUpTo(races, d.Type, e.opts.MaxRank); err != nil {
			return nil, err
		}
	} else {
		if table.Patterns, err = PatternStats(races, d.Type); err != nil {
			return nil, err
		}
		if table.TicketPopularity, err = TicketPopularityStats(races, d.Type); err != nil {
			return nil, err
		}
	}

	e.record(d.Type, family, len(races), table.Rows(), start)
	if e.cache != nil {
		e.cache.Set(key, table)
	}
	return table, nil
}

// ComputeAll computes tables for each requested ticket type concurrently. Tables are
// returned in the order of tickets.
func (e *Engine) ComputeAll(races []*models.Race, tickets []models.TicketType) ([]*Table, error) {
	tables, err := iter.MapErr(tickets, func(t *models.TicketType) (*Table, error) {
		table, err := e.Compute(races, *t)
		if err != nil {
			return nil, fmt.Errorf("computing %s: %w", *t, err)
		}
		return table, nil
	})
	if err != nil {
		return nil, err
	}
	return tables, nil
}

// Compare compares the most recent races against the whole set. recentCount <= 0 uses
// the configured default.
func (e *Engine) Compare(races []*models.Race, ticket models.TicketType, recentCount int) (*Comparison, error) {
	if recentCount <= 0 {
		recentCount = e.opts.RecentRaces
	}
	start := time.Now()
	cmp, err := CompareRecent(races, ticket, recentCount, e.opts.TrendThreshold)
	if err != nil {
		return nil, err
	}
	e.record(ticket, FamilyComparison, len(races), len(cmp.Rows), start)
	return cmp, nil
}

// CompareTicketPopularity is Compare over ticket-popularity statistics
func (e *Engine) CompareTicketPopularity(races []*models.Race, ticket models.TicketType, recentCount int) (*Comparison, error) {
	if recentCount <= 0 {
		recentCount = e.opts.RecentRaces
	}
	start := time.Now()
	cmp, err := CompareRecentTicketPopularity(races, ticket, recentCount, e.opts.TrendThreshold)
	if err != nil {
		return nil, err
	}
	e.record(ticket, FamilyComparison, len(races), len(cmp.Rows), start)
	return cmp, nil
}

// Rolling computes ticket-popularity windows using the configured window, step and
// minimum race count
func (e *Engine) Rolling(races []*models.Race, ticket models.TicketType) ([]Window, error) {
	start := time.Now()
	windows, err := RollingTicketPopularity(races, ticket, e.opts.RollingWindowDays, e.opts.RollingStepDays, e.opts.RollingMinRaces)
	if err != nil {
		return nil, err
	}
	e.record(ticket, FamilyRolling, len(races), len(windows), start)
	return windows, nil
}

func (e *Engine) record(ticket models.TicketType, family Family, races, rows int, start time.Time) {
	elapsed := time.Since(start)
	metrics.RecordStatsComputation(string(ticket), string(family), elapsed.Seconds())
	e.logger.LogTableComputed(string(ticket), string(family), races, rows, false, float64(elapsed.Microseconds())/1000)
}

func msSince(start time.Time) float64 {
	return float64(time.Since(start).Microseconds()) / 1000
}
