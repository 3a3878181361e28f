package stats

import (
	"fmt"
	"math"
	"strconv"

	"github.com/yourusername/keiba-stats/internal/models"
)

// Trend classifies how a key's expected value moved in the recent period
type Trend string

// Trends
const (
	TrendImproving Trend = "improving"
	TrendDeclining Trend = "declining"
	TrendStable    Trend = "stable"
)

// ClassifyTrend maps an expected-value delta to a trend. Deltas whose absolute value is
// below threshold are stable.
func ClassifyTrend(delta, threshold float64) Trend {
	if threshold <= 0 {
		threshold = DefaultTrendThreshold
	}
	switch {
	case math.Abs(delta) < threshold:
		return TrendStable
	case delta > 0:
		return TrendImproving
	default:
		return TrendDeclining
	}
}

// PeriodFigures are one period's figures for a key. Count is hits, occurrences or wins
// depending on the family; Rate is the matching win rate or percentage.
type PeriodFigures struct {
	ExpectedValue float64 `json:"expectedValue"`
	Count         int     `json:"count"`
	Rate          float64 `json:"rate"`
	AveragePayout float64 `json:"averagePayout"`
}

// ComparisonRow compares the recent period against the whole period for one key
type ComparisonRow struct {
	Key          string        `json:"key"`
	AllPeriod    PeriodFigures `json:"allPeriod"`
	Recent       PeriodFigures `json:"recent"`
	Delta        float64       `json:"delta"`
	DeltaPercent float64       `json:"deltaPercent"`
	Trend        Trend         `json:"trend"`
}

// Comparison is the result of a recent-versus-all analysis
type Comparison struct {
	Ticket      models.TicketType `json:"ticket"`
	Family      Family            `json:"family"`
	Rows        []ComparisonRow   `json:"rows"`
	TotalRaces  int               `json:"totalRaces"`
	RecentCount int               `json:"recentRaceCount"`
	RecentStart string            `json:"recentStart"`
	RecentEnd   string            `json:"recentEnd"`
}

// keyedFigures is one period's table flattened to comparable rows in display order
type keyedFigures struct {
	keys    []string
	figures map[string]PeriodFigures
}

func (k *keyedFigures) add(key string, f PeriodFigures) {
	if k.figures == nil {
		k.figures = make(map[string]PeriodFigures)
	}
	k.keys = append(k.keys, key)
	k.figures[key] = f
}

// CompareRecent compares the last recentCount races by date against the whole race set,
// using the rank family for win and place and the pattern family otherwise. Only keys
// observed in both periods are reported.
func CompareRecent(races []*models.Race, ticket models.TicketType, recentCount int, threshold float64) (*Comparison, error) {
	d, err := descriptorFor(ticket, "")
	if err != nil {
		return nil, err
	}
	if d.RankIndexed() {
		return compare(races, d.Type, FamilyRank, recentCount, threshold, rankFigures)
	}
	return compare(races, d.Type, FamilyPattern, recentCount, threshold, patternFigures)
}

// CompareRecentTicketPopularity compares ticket-rank statistics of the last recentCount
// races against the whole race set
func CompareRecentTicketPopularity(races []*models.Race, ticket models.TicketType, recentCount int, threshold float64) (*Comparison, error) {
	if _, err := descriptorFor(ticket, FamilyTicketPopularity); err != nil {
		return nil, err
	}
	return compare(races, ticket, FamilyTicketPopularity, recentCount, threshold, ticketPopularityFigures)
}

type figuresFunc func(races []*models.Race, ticket models.TicketType) (keyedFigures, error)

func compare(races []*models.Race, ticket models.TicketType, family Family, recentCount int, threshold float64, figures figuresFunc) (*Comparison, error) {
	if len(races) == 0 {
		return nil, ErrNoRaces
	}
	if recentCount <= 0 {
		return nil, fmt.Errorf("%w: recent race count must be positive, got %d", ErrInsufficientData, recentCount)
	}
	if len(races) < recentCount {
		return nil, fmt.Errorf("%w: %d races available, %d required", ErrInsufficientData, len(races), recentCount)
	}

	sorted := models.SortByDate(races)
	recent := sorted[len(sorted)-recentCount:]

	all, err := figures(sorted, ticket)
	if err != nil {
		return nil, err
	}
	rec, err := figures(recent, ticket)
	if err != nil {
		return nil, err
	}

	cmp := &Comparison{
		Ticket:      ticket,
		Family:      family,
		Rows:        make([]ComparisonRow, 0),
		TotalRaces:  len(sorted),
		RecentCount: recentCount,
		RecentStart: recent[0].Date,
		RecentEnd:   recent[len(recent)-1].Date,
	}
	for _, key := range all.keys {
		a := all.figures[key]
		r, ok := rec.figures[key]
		if !ok {
			continue
		}
		delta := r.ExpectedValue - a.ExpectedValue
		row := ComparisonRow{
			Key:       key,
			AllPeriod: a,
			Recent:    r,
			Delta:     delta,
			Trend:     ClassifyTrend(delta, threshold),
		}
		if a.ExpectedValue > 0 {
			row.DeltaPercent = delta / a.ExpectedValue * 100
		}
		cmp.Rows = append(cmp.Rows, row)
	}
	return cmp, nil
}

// rankFigures keeps ranks whose period contained at least one eligible race
func rankFigures(races []*models.Race, ticket models.TicketType) (keyedFigures, error) {
	var out keyedFigures
	rows, err := RankStats(races, ticket)
	if err != nil {
		return out, err
	}
	for _, row := range rows {
		if row.Total == 0 {
			continue
		}
		out.add(strconv.Itoa(row.Rank), PeriodFigures{
			ExpectedValue: row.ExpectedValue,
			Count:         row.Hits,
			Rate:          row.WinRate,
			AveragePayout: row.AveragePayout,
		})
	}
	return out, nil
}

// patternFigures keeps patterns that actually occurred in the period
func patternFigures(races []*models.Race, ticket models.TicketType) (keyedFigures, error) {
	var out keyedFigures
	table, err := PatternStats(races, ticket)
	if err != nil {
		return out, err
	}
	for _, p := range table.Patterns {
		if p.Count == 0 {
			continue
		}
		out.add(p.Pattern, PeriodFigures{
			ExpectedValue: p.ExpectedValue,
			Count:         p.Count,
			Rate:          p.Percentage,
			AveragePayout: p.AveragePayout,
		})
	}
	return out, nil
}

// ticketPopularityFigures keeps ticket ranks with at least one win in the period
func ticketPopularityFigures(races []*models.Race, ticket models.TicketType) (keyedFigures, error) {
	var out keyedFigures
	table, err := TicketPopularityStats(races, ticket)
	if err != nil {
		return out, err
	}
	for _, s := range table.Visible() {
		out.add(strconv.Itoa(s.Popularity), PeriodFigures{
			ExpectedValue: s.ExpectedValue,
			Count:         s.Wins,
			Rate:          s.WinRate,
			AveragePayout: s.AveragePayout,
		})
	}
	return out, nil
}
