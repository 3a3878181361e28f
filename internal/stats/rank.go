package stats

import (
	"github.com/yourusername/keiba-stats/internal/models"
	"github.com/yourusername/keiba-stats/internal/parser"
)

// RankStat is the win or place record of one market rank
type RankStat struct {
	Rank          int     `json:"rank"`
	Total         int     `json:"total"`
	Hits          int     `json:"hits"`
	Payouts       []int   `json:"payouts"`
	PayoutCount   int     `json:"payoutCount"`
	MinPayout     int     `json:"minPayout"`
	MaxPayout     int     `json:"maxPayout"`
	WinRate       float64 `json:"winRate"`
	AveragePayout float64 `json:"averagePayout"`
	ExpectedValue float64 `json:"expectedValue"`
	Theoretical   bool    `json:"theoretical"`
}

// RankStats tabulates ranks 1..16 for win or place
func RankStats(races []*models.Race, ticket models.TicketType) ([]RankStat, error) {
	return RankStatsUpTo(races, ticket, DefaultMaxRank)
}

// RankStatsUpTo tabulates ranks 1..maxRank for win or place.
//
// Win counts every race in Total and a hit for the rank of each first-placed result.
// Place counts only races with at least three results in Total and a hit for every rank
// that finished in the first three positions.
func RankStatsUpTo(races []*models.Race, ticket models.TicketType, maxRank int) ([]RankStat, error) {
	d, err := descriptorFor(ticket, FamilyRank)
	if err != nil {
		return nil, err
	}
	if maxRank <= 0 {
		maxRank = DefaultMaxRank
	}

	rows := make([]RankStat, maxRank)
	samples := make([]payoutSample, maxRank+1)
	for i := range rows {
		rows[i].Rank = i + 1
	}
	inRange := func(rank int) bool { return rank >= 1 && rank <= maxRank }

	for _, race := range races {
		switch d.Type {
		case models.TicketWin:
			for i := range rows {
				rows[i].Total++
			}
			for _, res := range race.Results {
				if res.Position == 1 && res.Popularity != nil && inRange(*res.Popularity) {
					rows[*res.Popularity-1].Hits++
				}
			}
		case models.TicketPlace:
			if len(race.Results) >= 3 {
				for i := range rows {
					rows[i].Total++
				}
				for _, rank := range placedRanks(race) {
					if inRange(rank) {
						rows[rank-1].Hits++
					}
				}
			}
		}

		for _, p := range race.Payouts[d.Type] {
			if rank := payoutRank(race, p); inRange(rank) {
				samples[rank] = append(samples[rank], p.Amount)
			}
		}
	}

	for i := range rows {
		row := &rows[i]
		sample := samples[row.Rank]
		row.Payouts = append([]int{}, sample...)
		row.PayoutCount = len(sample)
		if row.Total == 0 {
			continue
		}
		sum := sample.summarize()
		row.WinRate = rate(row.Hits, row.Total)
		row.AveragePayout = sum.Average
		row.MinPayout = sum.Min
		row.MaxPayout = sum.Max
		row.Theoretical = sum.Theoretical
		row.ExpectedValue = row.WinRate * row.AveragePayout / 100
	}
	return rows, nil
}

// placedRanks returns the distinct known ranks among results at positions 1 to 3
func placedRanks(race *models.Race) []int {
	seen := make(map[int]bool, 3)
	ranks := make([]int, 0, 3)
	for _, res := range race.Results {
		if res.Position > 3 || res.Popularity == nil || seen[*res.Popularity] {
			continue
		}
		seen[*res.Popularity] = true
		ranks = append(ranks, *res.Popularity)
	}
	return ranks
}

// payoutRank returns the market rank a single-horse payout is tagged with: its stored
// pattern, else the rank resolved from the horse number, else its ticket popularity.
func payoutRank(race *models.Race, p models.Payout) int {
	if len(p.Pattern) == 1 {
		return p.Pattern[0]
	}
	if pattern := parser.ResolvePattern(race, p.Combination, true); len(pattern) == 1 {
		return pattern[0]
	}
	if p.TicketPopularity != nil {
		return *p.TicketPopularity
	}
	return 0
}
