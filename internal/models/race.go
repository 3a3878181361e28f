package models

import (
	"sort"
	"strconv"
	"strings"
	"time"
)

// DateLayout is the calendar date format used for race dates
const DateLayout = "2006-01-02"

// Race represents one race of a meeting together with its placed finishers and payouts
type Race struct {
	Racetrack    string                  `json:"racetrack" validate:"required"`
	Date         string                  `json:"date" validate:"required,datetime=2006-01-02"`
	Number       string                  `json:"number" validate:"required"`
	Name         string                  `json:"name"`
	Condition    string                  `json:"condition"`
	TrackWeather string                  `json:"trackWeather"`
	Surface      string                  `json:"trackType"`
	Distance     string                  `json:"distance"`
	Going        string                  `json:"trackCondition"`
	Weather      string                  `json:"weather"`
	FieldSize    *int                    `json:"horseCount,omitempty" validate:"omitempty,gt=0,lte=18"`
	Results      []Result                `json:"results" validate:"dive"`
	Payouts      map[TicketType][]Payout `json:"payouts,omitempty" validate:"omitempty,dive,dive"`
	Runners      []int                   `json:"runners,omitempty"`
	Scratched    []int                   `json:"canceledHorses,omitempty"`
}

// Result is a placed finisher
type Result struct {
	Position   int    `json:"position" validate:"gte=1,lte=3"`
	Number     int    `json:"number" validate:"gte=1,lte=18"`
	Name       string `json:"name"`
	Popularity *int   `json:"popularity"`
	Tied       bool   `json:"isTied"`
}

// Payout is one announced winning combination of a ticket type
type Payout struct {
	Combination      []int `json:"combination" validate:"required,min=1,max=3"`
	Pattern          []int `json:"popularityPattern,omitempty"`
	TicketPopularity *int  `json:"ticketPopularity"`
	Amount           int   `json:"payout" validate:"gte=0"`
}

// RaceNumber returns the numeric part of the race label ("11R" -> 11), or 0
func (r *Race) RaceNumber() int {
	n, err := strconv.Atoi(strings.TrimSuffix(strings.TrimSpace(r.Number), "R"))
	if err != nil {
		return 0
	}
	return n
}

// DateTime parses the race date
func (r *Race) DateTime() (time.Time, error) {
	return time.Parse(DateLayout, r.Date)
}

// ResultAt returns the first result at the given finishing position
func (r *Race) ResultAt(position int) *Result {
	for i := range r.Results {
		if r.Results[i].Position == position {
			return &r.Results[i]
		}
	}
	return nil
}

// FindByNumber returns the result for a horse number
func (r *Race) FindByNumber(number int) *Result {
	for i := range r.Results {
		if r.Results[i].Number == number {
			return &r.Results[i]
		}
	}
	return nil
}

// HasPayouts reports whether any payout block was attached
func (r *Race) HasPayouts() bool {
	for _, p := range r.Payouts {
		if len(p) > 0 {
			return true
		}
	}
	return false
}

// SetPayouts replaces the payouts for a ticket type
func (r *Race) SetPayouts(t TicketType, payouts []Payout) {
	if r.Payouts == nil {
		r.Payouts = make(map[TicketType][]Payout)
	}
	r.Payouts[t] = payouts
}

// Label returns "<number> <name>" for messages
func (r *Race) Label() string {
	if r.Name == "" {
		return r.Number
	}
	return r.Number + " " + r.Name
}

// Clone returns a deep copy of the race
func (r *Race) Clone() *Race {
	c := *r
	c.FieldSize = cloneIntPtr(r.FieldSize)
	c.Results = make([]Result, len(r.Results))
	for i, res := range r.Results {
		res.Popularity = cloneIntPtr(res.Popularity)
		c.Results[i] = res
	}
	if r.Payouts != nil {
		c.Payouts = make(map[TicketType][]Payout, len(r.Payouts))
		for t, list := range r.Payouts {
			copied := make([]Payout, len(list))
			for i, p := range list {
				copied[i] = p.Clone()
			}
			c.Payouts[t] = copied
		}
	}
	c.Runners = append([]int(nil), r.Runners...)
	c.Scratched = append([]int(nil), r.Scratched...)
	return &c
}

// CloneRaces deep-copies a race list
func CloneRaces(races []*Race) []*Race {
	out := make([]*Race, len(races))
	for i, r := range races {
		out[i] = r.Clone()
	}
	return out
}

// SortByDate orders races by date then race number, returning a new slice
func SortByDate(races []*Race) []*Race {
	sorted := append([]*Race(nil), races...)
	sort.SliceStable(sorted, func(i, j int) bool {
		if sorted[i].Date != sorted[j].Date {
			return sorted[i].Date < sorted[j].Date
		}
		return sorted[i].RaceNumber() < sorted[j].RaceNumber()
	})
	return sorted
}

// Clone returns a deep copy of the payout
func (p Payout) Clone() Payout {
	p.Combination = append([]int(nil), p.Combination...)
	if p.Pattern != nil {
		p.Pattern = append([]int(nil), p.Pattern...)
	}
	p.TicketPopularity = cloneIntPtr(p.TicketPopularity)
	return p
}

// PatternKey renders the popularity pattern as "a-b[-c]", empty when unknown
func (p Payout) PatternKey() string {
	return PatternKey(p.Pattern)
}

// PatternKey renders a list of ranks as the canonical "a-b-c" key
func PatternKey(ranks []int) string {
	if len(ranks) == 0 {
		return ""
	}
	parts := make([]string, len(ranks))
	for i, r := range ranks {
		parts[i] = strconv.Itoa(r)
	}
	return strings.Join(parts, "-")
}

// IntPtr returns a pointer to v
func IntPtr(v int) *int {
	return &v
}

func cloneIntPtr(p *int) *int {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}
