package stats

import (
	"github.com/sirupsen/logrus"
	logtest "github.com/sirupsen/logrus/hooks/test"

	"github.com/yourusername/keiba-stats/internal/logger"
	"github.com/yourusername/keiba-stats/internal/models"
)

const testDate = "2025-01-05"

// placing is a finisher given by horse number and market rank; rank 0 means unknown
type placing struct {
	number, rank int
}

// newRace builds a race whose placings finish in the given order
func newRace(date string, placings ...placing) *models.Race {
	race := &models.Race{
		Racetrack: "中山",
		Date:      date,
		Number:    "1R",
		Name:      "未勝利",
		Surface:   "芝",
		Distance:  "1600",
		Going:     "良",
		Weather:   "晴",
	}
	for i, p := range placings {
		res := models.Result{Position: i + 1, Number: p.number, Name: "テストホース"}
		if p.rank > 0 {
			res.Popularity = models.IntPtr(p.rank)
		}
		race.Results = append(race.Results, res)
	}
	return race
}

// withPayout appends a payout and returns the race for chaining
func withPayout(race *models.Race, ticket models.TicketType, p models.Payout) *models.Race {
	race.SetPayouts(ticket, append(race.Payouts[ticket], p))
	return race
}

func newTestStatsLogger() (*logger.StatsLogger, *logtest.Hook) {
	base, hook := logtest.NewNullLogger()
	base.SetLevel(logrus.DebugLevel)
	return logger.NewStatsLogger(base), hook
}
