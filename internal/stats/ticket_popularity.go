package stats

import (
	"github.com/yourusername/keiba-stats/internal/models"
)

// TicketPopularityStat is the record of one published ticket rank
type TicketPopularityStat struct {
	Popularity    int     `json:"popularity"`
	Total         int     `json:"total"`
	Wins          int     `json:"wins"`
	PayoutCount   int     `json:"payoutCount"`
	MinPayout     int     `json:"minPayout"`
	MaxPayout     int     `json:"maxPayout"`
	WinRate       float64 `json:"winRate"`
	AveragePayout float64 `json:"averagePayout"`
	ExpectedValue float64 `json:"expectedValue"`
	Theoretical   bool    `json:"theoretical"`
}

// TicketPopularityTable holds one row per ticket rank 1..Limit.
// Total is the number of payouts that carried a ticket rank within the limit.
type TicketPopularityTable struct {
	Ticket models.TicketType      `json:"ticket"`
	Limit  int                    `json:"limit"`
	Total  int                    `json:"total"`
	Stats  []TicketPopularityStat `json:"stats"`
}

// Visible returns only the rows with at least one observed win
func (t *TicketPopularityTable) Visible() []TicketPopularityStat {
	visible := make([]TicketPopularityStat, 0)
	for _, s := range t.Stats {
		if s.Wins > 0 {
			visible = append(visible, s)
		}
	}
	return visible
}

// Lookup returns the row for a ticket rank
func (t *TicketPopularityTable) Lookup(popularity int) (TicketPopularityStat, bool) {
	if popularity < 1 || popularity > len(t.Stats) {
		return TicketPopularityStat{}, false
	}
	return t.Stats[popularity-1], true
}

// TicketPopularityStats aggregates payouts by the ticket's own published rank among the
// winning combinations of its race
func TicketPopularityStats(races []*models.Race, ticket models.TicketType) (*TicketPopularityTable, error) {
	d, err := descriptorFor(ticket, FamilyTicketPopularity)
	if err != nil {
		return nil, err
	}

	limit := d.TicketRankLimit
	samples := make([]payoutSample, limit+1)
	total := 0
	for _, race := range races {
		for _, p := range race.Payouts[d.Type] {
			if p.TicketPopularity == nil {
				continue
			}
			pop := *p.TicketPopularity
			if pop < 1 || pop > limit {
				continue
			}
			samples[pop] = append(samples[pop], p.Amount)
			total++
		}
	}

	table := &TicketPopularityTable{
		Ticket: d.Type,
		Limit:  limit,
		Total:  total,
		Stats:  make([]TicketPopularityStat, limit),
	}
	for i := range table.Stats {
		pop := i + 1
		row := TicketPopularityStat{Popularity: pop, Total: total, Wins: len(samples[pop])}
		row.PayoutCount = row.Wins
		if total > 0 {
			sum := samples[pop].summarize()
			row.WinRate = rate(row.Wins, total)
			row.AveragePayout = sum.Average
			row.MinPayout = sum.Min
			row.MaxPayout = sum.Max
			row.Theoretical = sum.Theoretical
			row.ExpectedValue = row.WinRate * row.AveragePayout / 100
		}
		table.Stats[i] = row
	}
	return table, nil
}
