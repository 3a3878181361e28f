package models

import "fmt"

// TicketType identifies a betting-ticket market
type TicketType string

// Ticket types
const (
	TicketWin             TicketType = "win"
	TicketPlace           TicketType = "place"
	TicketBracketQuinella TicketType = "bracket_quinella"
	TicketQuinella        TicketType = "quinella"
	TicketExacta          TicketType = "exacta"
	TicketQuinellaPlace   TicketType = "quinella_place"
	TicketTrio            TicketType = "trio"
	TicketTrifecta        TicketType = "trifecta"
)

// Extraction selects how realised popularity patterns are derived from a race's finishers
type Extraction int

const (
	// ExtractTopN takes the first Arity finishers in finishing order.
	ExtractTopN Extraction = iota
	// ExtractPairsOfTop3 takes every unordered pair among the placed finishers.
	ExtractPairsOfTop3
)

// TicketDescriptor captures everything the parsers and the statistics engine need to know
// about a ticket type.
type TicketDescriptor struct {
	Type            TicketType
	Label           string
	Arity           int
	Ordered         bool
	Multiplier      float64
	Extraction      Extraction
	TicketRankLimit int
	Modeled         bool
}

// RankIndexed reports whether statistics are keyed by a single market rank
func (d TicketDescriptor) RankIndexed() bool {
	return d.Arity == 1
}

var descriptors = []TicketDescriptor{
	{Type: TicketWin, Label: "単勝", Arity: 1, Multiplier: 1, Extraction: ExtractTopN, Modeled: true},
	{Type: TicketPlace, Label: "複勝", Arity: 1, Multiplier: 1, Extraction: ExtractTopN, Modeled: true},
	{Type: TicketBracketQuinella, Label: "枠連", Arity: 2, Multiplier: 1, Extraction: ExtractTopN},
	{Type: TicketQuinella, Label: "馬連", Arity: 2, Multiplier: 1, Extraction: ExtractTopN, TicketRankLimit: 300, Modeled: true},
	{Type: TicketExacta, Label: "馬単", Arity: 2, Ordered: true, Multiplier: 1, Extraction: ExtractTopN, TicketRankLimit: 300, Modeled: true},
	{Type: TicketQuinellaPlace, Label: "ワイド", Arity: 2, Multiplier: 3, Extraction: ExtractPairsOfTop3, TicketRankLimit: 300, Modeled: true},
	{Type: TicketTrio, Label: "3連複", Arity: 3, Multiplier: 1, Extraction: ExtractTopN, TicketRankLimit: 1000, Modeled: true},
	{Type: TicketTrifecta, Label: "3連単", Arity: 3, Ordered: true, Multiplier: 1, Extraction: ExtractTopN, TicketRankLimit: 2000, Modeled: true},
}

// Descriptor returns the descriptor for a ticket type
func Descriptor(t TicketType) (TicketDescriptor, error) {
	for _, d := range descriptors {
		if d.Type == t {
			return d, nil
		}
	}
	return TicketDescriptor{}, fmt.Errorf("%w: %q", ErrUnknownTicketType, t)
}

// MustDescriptor is Descriptor for compile-time known ticket types
func MustDescriptor(t TicketType) TicketDescriptor {
	d, err := Descriptor(t)
	if err != nil {
		panic(err)
	}
	return d
}

// TicketTypes returns the seven statistically modeled ticket types in display order
func TicketTypes() []TicketType {
	types := make([]TicketType, 0, len(descriptors))
	for _, d := range descriptors {
		if d.Modeled {
			types = append(types, d.Type)
		}
	}
	return types
}

// TicketTypeFromLabel maps a payout header line such as "馬連" to its ticket type
func TicketTypeFromLabel(label string) (TicketType, bool) {
	for _, d := range descriptors {
		if d.Label == label {
			return d.Type, true
		}
	}
	return "", false
}

// ParseTicketType accepts either the internal name or the Japanese label
func ParseTicketType(s string) (TicketType, error) {
	if t, ok := TicketTypeFromLabel(s); ok {
		return t, nil
	}
	d, err := Descriptor(TicketType(s))
	if err != nil {
		return "", err
	}
	return d.Type, nil
}
