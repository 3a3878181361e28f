package calculator

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/yourusername/keiba-stats/internal/logger"
	"github.com/yourusername/keiba-stats/internal/models"
	"github.com/yourusername/keiba-stats/internal/stats"
)

// DefaultWarnThreshold is the generated-combination count above which a query warns
const DefaultWarnThreshold = 100

// ErrNoTable is returned when a query is run without a statistics table
var ErrNoTable = errors.New("no statistics table to query")

// QueryRow is the looked-up statistics for one generated combination
type QueryRow struct {
	Key           string  `json:"key"`
	Label         string  `json:"label"`
	ExpectedValue float64 `json:"expectedValue"`
	Rate          float64 `json:"winRate"`
	AveragePayout float64 `json:"averagePayout"`
	Total         int     `json:"total"`
	PayoutCount   int     `json:"payoutCount"`
	MinPayout     int     `json:"minPayout"`
	MaxPayout     int     `json:"maxPayout"`
	Theoretical   bool    `json:"theoretical"`
}

// QueryResult holds the rows found for a query. Generated counts every combination the
// legs expanded to, including those without data.
type QueryResult struct {
	Ticket    models.TicketType `json:"ticket"`
	Rows      []QueryRow        `json:"rows"`
	Warnings  []string          `json:"warnings,omitempty"`
	Generated int               `json:"generated"`
}

// Calculator expands rank selections and looks them up in a computed table
type Calculator struct {
	warnThreshold int
	logger        *logger.StatsLogger
}

// NewCalculator creates a calculator. A non-positive threshold uses the default.
func NewCalculator(warnThreshold int, log *logger.StatsLogger) *Calculator {
	if warnThreshold <= 0 {
		warnThreshold = DefaultWarnThreshold
	}
	return &Calculator{warnThreshold: warnThreshold, logger: log}
}

// Query parses one comma-separated rank list per leg, generates the ticket's combinations
// and returns those with observed data in table. Exceeding the warning threshold adds a
// warning but every combination is still looked up.
func (c *Calculator) Query(table *stats.Table, legInputs []string) (*QueryResult, error) {
	if table == nil {
		return nil, ErrNoTable
	}
	d, err := models.Descriptor(table.Ticket)
	if err != nil {
		return nil, err
	}

	legs := make([][]int, len(legInputs))
	for i, input := range legInputs {
		legs[i] = ParseRanks(input)
		if len(legs[i]) == 0 {
			return nil, fmt.Errorf("%w: leg %d %q", ErrEmptyLeg, i+1, input)
		}
	}
	combos, err := Generate(d.Type, legs)
	if err != nil {
		return nil, err
	}

	result := &QueryResult{Ticket: d.Type, Rows: make([]QueryRow, 0), Generated: len(combos)}
	if len(combos) > c.warnThreshold {
		result.Warnings = append(result.Warnings,
			fmt.Sprintf("generated %d combinations, more than the %d threshold", len(combos), c.warnThreshold))
		if c.logger != nil {
			c.logger.LogCombinationWarning(string(d.Type), len(combos), c.warnThreshold)
		}
	}

	for _, combo := range combos {
		row, ok := lookup(table, d, combo)
		if ok {
			result.Rows = append(result.Rows, row)
		}
	}
	return result, nil
}

func lookup(table *stats.Table, d models.TicketDescriptor, combo []int) (QueryRow, bool) {
	key := models.PatternKey(combo)
	row := QueryRow{Key: key, Label: label(combo, d.Ordered)}

	if d.RankIndexed() {
		rank := combo[0]
		if rank < 1 || rank > len(table.Ranks) {
			return row, false
		}
		s := table.Ranks[rank-1]
		if s.Total == 0 {
			return row, false
		}
		row.ExpectedValue = s.ExpectedValue
		row.Rate = s.WinRate
		row.AveragePayout = s.AveragePayout
		row.Total = s.Total
		row.PayoutCount = s.PayoutCount
		row.MinPayout = s.MinPayout
		row.MaxPayout = s.MaxPayout
		row.Theoretical = s.Theoretical
		return row, true
	}

	if table.Patterns == nil {
		return row, false
	}
	s, ok := table.Patterns.Lookup(key)
	if !ok {
		return row, false
	}
	row.ExpectedValue = s.ExpectedValue
	row.Rate = s.Percentage
	row.AveragePayout = s.AveragePayout
	row.Total = s.Count
	row.PayoutCount = s.PayoutCount
	row.MinPayout = s.MinPayout
	row.MaxPayout = s.MaxPayout
	row.Theoretical = s.Theoretical
	return row, true
}

// label renders "1-2番人気" for unordered and "1→2番人気" for ordered combinations
func label(combo []int, ordered bool) string {
	parts := make([]string, len(combo))
	for i, r := range combo {
		parts[i] = strconv.Itoa(r)
	}
	sep := "-"
	if ordered {
		sep = "→"
	}
	return strings.Join(parts, sep) + "番人気"
}
