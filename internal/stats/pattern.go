package stats

import (
	"sort"

	"github.com/yourusername/keiba-stats/internal/models"
	"github.com/yourusername/keiba-stats/internal/parser"
)

// PatternStat is the record of one canonical popularity pattern such as "1-3"
type PatternStat struct {
	Pattern       string  `json:"pattern"`
	Count         int     `json:"count"`
	Percentage    float64 `json:"percentage"`
	PayoutCount   int     `json:"payoutCount"`
	AveragePayout float64 `json:"averagePayout"`
	MinPayout     int     `json:"minPayout"`
	MaxPayout     int     `json:"maxPayout"`
	ExpectedValue float64 `json:"expectedValue"`
	Theoretical   bool    `json:"theoretical"`
}

// PatternTable holds pattern statistics for a combination ticket type.
// Total is the number of realised pattern occurrences across all races.
type PatternTable struct {
	Ticket   models.TicketType `json:"ticket"`
	Total    int               `json:"total"`
	Patterns []PatternStat     `json:"patterns"`
}

// Lookup returns the statistics for a pattern key
func (t *PatternTable) Lookup(key string) (PatternStat, bool) {
	for _, p := range t.Patterns {
		if p.Pattern == key {
			return p, true
		}
	}
	return PatternStat{}, false
}

type patternAccumulator struct {
	count   int
	payouts payoutSample
}

// PatternStats tabulates realised popularity patterns and their observed payouts.
//
// Quinella-place counts every pair among the placed finishers, so a race with three known
// placers contributes three occurrences; its expected value is scaled by the descriptor's
// multiplier to compensate. Patterns seen only in payouts are kept with a zero count.
func PatternStats(races []*models.Race, ticket models.TicketType) (*PatternTable, error) {
	d, err := descriptorFor(ticket, FamilyPattern)
	if err != nil {
		return nil, err
	}

	acc := make(map[string]*patternAccumulator)
	get := func(key string) *patternAccumulator {
		a, ok := acc[key]
		if !ok {
			a = &patternAccumulator{}
			acc[key] = a
		}
		return a
	}

	for _, race := range races {
		for _, pattern := range RealizedPatterns(race, d) {
			get(models.PatternKey(pattern)).count++
		}
		for _, p := range race.Payouts[d.Type] {
			if key := models.PatternKey(payoutPattern(race, p, d)); key != "" {
				a := get(key)
				a.payouts = append(a.payouts, p.Amount)
			}
		}
	}

	table := &PatternTable{Ticket: d.Type, Patterns: make([]PatternStat, 0, len(acc))}
	for _, a := range acc {
		table.Total += a.count
	}
	for key, a := range acc {
		sum := a.payouts.summarize()
		pct := rate(a.count, table.Total)
		table.Patterns = append(table.Patterns, PatternStat{
			Pattern:       key,
			Count:         a.count,
			Percentage:    pct,
			PayoutCount:   sum.Count,
			AveragePayout: sum.Average,
			MinPayout:     sum.Min,
			MaxPayout:     sum.Max,
			ExpectedValue: pct * d.Multiplier / 100 * sum.Average,
			Theoretical:   sum.Theoretical,
		})
	}
	sort.Slice(table.Patterns, func(i, j int) bool {
		a, b := table.Patterns[i], table.Patterns[j]
		if a.ExpectedValue != b.ExpectedValue {
			return a.ExpectedValue > b.ExpectedValue
		}
		if a.Count != b.Count {
			return a.Count > b.Count
		}
		return a.Pattern < b.Pattern
	})
	return table, nil
}

// RealizedPatterns derives the popularity patterns a race actually produced for a ticket
// type. A pattern is only derived when every required finisher has a known rank.
func RealizedPatterns(race *models.Race, d models.TicketDescriptor) [][]int {
	switch d.Extraction {
	case models.ExtractPairsOfTop3:
		if len(race.Results) < 3 {
			return nil
		}
		ranks := make([]int, 0, 3)
		for _, res := range race.Results {
			if res.Position <= 3 && res.Popularity != nil {
				ranks = append(ranks, *res.Popularity)
			}
		}
		if len(ranks) < 3 {
			return nil
		}
		var pairs [][]int
		for i := 0; i < len(ranks); i++ {
			for j := i + 1; j < len(ranks); j++ {
				pair := []int{ranks[i], ranks[j]}
				sort.Ints(pair)
				pairs = append(pairs, pair)
			}
		}
		return pairs
	default:
		ordered := finishers(race)
		if len(ordered) < d.Arity {
			return nil
		}
		pattern := make([]int, d.Arity)
		for i := 0; i < d.Arity; i++ {
			if ordered[i].Popularity == nil {
				return nil
			}
			pattern[i] = *ordered[i].Popularity
		}
		if !d.Ordered {
			sort.Ints(pattern)
		}
		return [][]int{pattern}
	}
}

// finishers returns the race's results in finishing order
func finishers(race *models.Race) []models.Result {
	ordered := append([]models.Result(nil), race.Results...)
	sort.SliceStable(ordered, func(i, j int) bool {
		return ordered[i].Position < ordered[j].Position
	})
	return ordered
}

// payoutPattern prefers the pattern stored at parse time and resolves it from the horse
// numbers when absent
func payoutPattern(race *models.Race, p models.Payout, d models.TicketDescriptor) []int {
	if len(p.Pattern) == d.Arity {
		return p.Pattern
	}
	if len(p.Combination) != d.Arity {
		return nil
	}
	return parser.ResolvePattern(race, p.Combination, d.Ordered)
}
