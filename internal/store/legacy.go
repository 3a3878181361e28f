package store

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/yourusername/keiba-stats/internal/models"
	"github.com/yourusername/keiba-stats/internal/parser"
)

// legacyTickets maps the payout keys written by the browser version of the app
var legacyTickets = map[string]models.TicketType{
	"tansho":     models.TicketWin,
	"fukusho":    models.TicketPlace,
	"wakuren":    models.TicketBracketQuinella,
	"umaren":     models.TicketQuinella,
	"umatan":     models.TicketExacta,
	"wide":       models.TicketQuinellaPlace,
	"sanrenpuku": models.TicketTrio,
	"sanrentan":  models.TicketTrifecta,
}

// storedRace decodes a race whose payouts may use either the current layout or the
// legacy one with romanised ticket keys
type storedRace struct {
	models.Race
	Payouts map[string]json.RawMessage `json:"payouts,omitempty"`
}

type storedPayout struct {
	Combination      []int             `json:"combination"`
	HorseNumber      *int              `json:"horseNumber"`
	Popularity       *int              `json:"popularity"`
	Pattern          popularityPattern `json:"popularityPattern"`
	TicketPopularity *int              `json:"ticketPopularity"`
	Amount           int               `json:"payout"`
}

// popularityPattern accepts a rank array or a hyphen joined string
type popularityPattern []int

func (p *popularityPattern) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if string(data) == "null" {
		*p = nil
		return nil
	}
	if !bytes.HasPrefix(data, []byte(`"`)) {
		var ranks []int
		if err := json.Unmarshal(data, &ranks); err != nil {
			return err
		}
		*p = ranks
		return nil
	}

	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	s = strings.TrimSpace(s)
	if s == "" {
		*p = nil
		return nil
	}
	parts := strings.Split(s, "-")
	ranks := make([]int, len(parts))
	for i, part := range parts {
		n, err := strconv.Atoi(strings.TrimSpace(part))
		if err != nil {
			return fmt.Errorf("invalid popularity pattern %q", s)
		}
		ranks[i] = n
	}
	*p = ranks
	return nil
}

func (sr *storedRace) toRace() (*models.Race, error) {
	race := sr.Race
	race.Payouts = nil
	for key, raw := range sr.Payouts {
		ticket, err := storedTicket(key)
		if err != nil {
			return nil, fmt.Errorf("race %s: %w", race.Label(), err)
		}
		entries, err := decodePayoutEntries(raw)
		if err != nil {
			return nil, fmt.Errorf("race %s %s payouts: %w", race.Label(), key, err)
		}
		if entries == nil {
			continue
		}
		desc, err := models.Descriptor(ticket)
		if err != nil {
			return nil, err
		}

		payouts := make([]models.Payout, 0, len(entries))
		for _, e := range entries {
			payout := e.toPayout()
			if payout.Pattern == nil && ticket != models.TicketBracketQuinella {
				payout.Pattern = parser.ResolvePattern(&race, payout.Combination, desc.Ordered)
			}
			payouts = append(payouts, payout)
		}
		race.SetPayouts(ticket, payouts)
	}
	return &race, nil
}

func storedTicket(key string) (models.TicketType, error) {
	if t, ok := legacyTickets[key]; ok {
		return t, nil
	}
	d, err := models.Descriptor(models.TicketType(key))
	if err != nil {
		return "", err
	}
	return d.Type, nil
}

// decodePayoutEntries reads a payout list, or the single object the legacy format used
// for win tickets
func decodePayoutEntries(raw json.RawMessage) ([]storedPayout, error) {
	raw = bytes.TrimSpace(raw)
	switch {
	case len(raw) == 0 || string(raw) == "null":
		return nil, nil
	case bytes.HasPrefix(raw, []byte("{")):
		var single storedPayout
		if err := json.Unmarshal(raw, &single); err != nil {
			return nil, err
		}
		return []storedPayout{single}, nil
	default:
		var entries []storedPayout
		if err := json.Unmarshal(raw, &entries); err != nil {
			return nil, err
		}
		return entries, nil
	}
}

// toPayout fills the combination from horseNumber and the ticket rank from popularity
// when only the legacy single-horse fields are present
func (sp storedPayout) toPayout() models.Payout {
	payout := models.Payout{
		Combination:      sp.Combination,
		TicketPopularity: sp.TicketPopularity,
		Amount:           sp.Amount,
	}
	if len(sp.Pattern) > 0 {
		payout.Pattern = []int(sp.Pattern)
	}
	if len(payout.Combination) == 0 && sp.HorseNumber != nil {
		payout.Combination = []int{*sp.HorseNumber}
	}
	if payout.TicketPopularity == nil && sp.Popularity != nil {
		payout.TicketPopularity = models.IntPtr(*sp.Popularity)
	}
	return payout
}
