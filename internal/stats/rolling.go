package stats

import (
	"fmt"
	"time"

	"github.com/yourusername/keiba-stats/internal/models"
)

// Window is the ticket-popularity table of one calendar window.
// End is exclusive.
type Window struct {
	Start     string                 `json:"startDate"`
	End       string                 `json:"endDate"`
	RaceCount int                    `json:"raceCount"`
	Stats     *TicketPopularityTable `json:"stats"`
}

// RollingTicketPopularity recomputes ticket-popularity statistics over calendar windows of
// windowDays, advancing stepDays from the earliest race date. Windows holding fewer than
// minRaces races are skipped; it is an error when no window qualifies.
func RollingTicketPopularity(races []*models.Race, ticket models.TicketType, windowDays, stepDays, minRaces int) ([]Window, error) {
	if _, err := descriptorFor(ticket, FamilyTicketPopularity); err != nil {
		return nil, err
	}
	if windowDays <= 0 || stepDays <= 0 {
		return nil, fmt.Errorf("window and step must be positive, got %d and %d days", windowDays, stepDays)
	}
	if minRaces <= 0 {
		minRaces = DefaultRollingMinRaces
	}

	type dated struct {
		race *models.Race
		at   time.Time
	}
	var series []dated
	for _, r := range models.SortByDate(races) {
		at, err := r.DateTime()
		if err != nil {
			continue
		}
		series = append(series, dated{race: r, at: at})
	}
	if len(series) == 0 {
		return nil, ErrNoRaces
	}

	last := series[len(series)-1].at
	var windows []Window
	for start := series[0].at; !start.After(last); start = start.AddDate(0, 0, stepDays) {
		end := start.AddDate(0, 0, windowDays)
		var inWindow []*models.Race
		for _, d := range series {
			if !d.at.Before(start) && d.at.Before(end) {
				inWindow = append(inWindow, d.race)
			}
		}
		if len(inWindow) < minRaces {
			continue
		}
		table, err := TicketPopularityStats(inWindow, ticket)
		if err != nil {
			return nil, err
		}
		windows = append(windows, Window{
			Start:     start.Format(models.DateLayout),
			End:       end.Format(models.DateLayout),
			RaceCount: len(inWindow),
			Stats:     table,
		})
	}
	if len(windows) == 0 {
		return nil, fmt.Errorf("%w: no %d-day window holds %d races", ErrInsufficientData, windowDays, minRaces)
	}
	return windows, nil
}
