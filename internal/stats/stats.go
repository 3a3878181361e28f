// Package stats aggregates win rates, average payouts and expected values over race sets.
//
// Every function takes an explicit race list and returns fresh tables. Input races are
// never mutated.
package stats

import (
	"errors"
	"fmt"

	"github.com/yourusername/keiba-stats/internal/models"
)

// Family identifies which kind of table a computation produces
type Family string

// Statistic families
const (
	FamilyRank             Family = "rank"
	FamilyPattern          Family = "pattern"
	FamilyTicketPopularity Family = "ticket_popularity"
	FamilyComparison       Family = "comparison"
	FamilyRolling          Family = "rolling"
)

const (
	// DefaultMaxRank is the highest market rank tabulated for win and place.
	DefaultMaxRank = 16
	// DefaultTrendThreshold is the absolute expected-value delta below which a trend is stable.
	DefaultTrendThreshold = 5.0
	// DefaultRollingMinRaces is the smallest race count a rolling window must hold to be reported.
	DefaultRollingMinRaces = 5
	// theoreticalPayout is the break-even average used when no payout was observed.
	theoreticalPayout = 100.0
)

var (
	// ErrUnsupportedTicket is returned when a ticket type has no table of the requested family.
	ErrUnsupportedTicket = errors.New("ticket type not supported for this statistic")
	// ErrNoRaces is returned by time-windowed computations over an empty race set.
	ErrNoRaces = errors.New("no races to analyse")
	// ErrInsufficientData is returned when a race set is too small for the requested window.
	ErrInsufficientData = errors.New("insufficient data")
)

// Table is the full set of statistics computed for one ticket type
type Table struct {
	Ticket           models.TicketType      `json:"ticket"`
	Family           Family                 `json:"family"`
	TotalRaces       int                    `json:"totalRaces"`
	Ranks            []RankStat             `json:"ranks,omitempty"`
	Patterns         *PatternTable          `json:"patterns,omitempty"`
	TicketPopularity *TicketPopularityTable `json:"ticketPopularity,omitempty"`
}

// Rows returns the number of presentable rows in the table
func (t *Table) Rows() int {
	switch {
	case t.Ranks != nil:
		return len(t.Ranks)
	case t.Patterns != nil:
		return len(t.Patterns.Patterns)
	default:
		return 0
	}
}

func descriptorFor(ticket models.TicketType, family Family) (models.TicketDescriptor, error) {
	d, err := models.Descriptor(ticket)
	if err != nil {
		return d, err
	}
	if !d.Modeled {
		return d, fmt.Errorf("%w: %s", ErrUnsupportedTicket, ticket)
	}
	switch family {
	case FamilyRank:
		if !d.RankIndexed() {
			return d, fmt.Errorf("%w: %s has no %s table", ErrUnsupportedTicket, ticket, family)
		}
	case FamilyPattern, FamilyTicketPopularity:
		if d.RankIndexed() {
			return d, fmt.Errorf("%w: %s has no %s table", ErrUnsupportedTicket, ticket, family)
		}
	}
	return d, nil
}
