package service

import (
	"errors"
	"fmt"
	"slices"
	"sort"
	"strconv"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/yourusername/keiba-stats/internal/metrics"
	"github.com/yourusername/keiba-stats/internal/models"
	"github.com/yourusername/keiba-stats/internal/parser"
)

// Conflict types
const (
	ConflictIdentity = "identity mismatch"
	ConflictWin      = "win mismatch"
	ConflictQuinella = "quinella mismatch"
	ConflictExacta   = "exacta mismatch"
	ConflictTrio     = "trio mismatch"
	ConflictTrifecta = "trifecta mismatch"
)

var (
	// ErrNoPayoutText indicates the payout text to reconcile is empty
	ErrNoPayoutText = errors.New("payout data is empty")

	// ErrNoExistingRaces indicates there is no stored race to reconcile against
	ErrNoExistingRaces = errors.New("no existing race data")

	// ErrUnconfirmedConflicts indicates a commit was attempted over conflicts without confirmation
	ErrUnconfirmedConflicts = errors.New("payout update has unconfirmed conflicts")
)

// Conflict is one disagreement between a re-parsed payout and the stored result
type Conflict struct {
	Race     string            `json:"race"`
	Name     string            `json:"name,omitempty"`
	Ticket   models.TicketType `json:"ticket,omitempty"`
	Type     string            `json:"type"`
	Detail   string            `json:"detail"`
	Expected string            `json:"expected,omitempty"`
	Actual   string            `json:"actual,omitempty"`
}

// ReconcileResult holds updated clones of the stored races plus everything the caller must
// review before committing them.
type ReconcileResult struct {
	UpdatedRaces []*models.Race
	Warnings     []string
	Conflicts    []Conflict
}

// HasConflicts reports whether the update needs explicit confirmation
func (r *ReconcileResult) HasConflicts() bool {
	return len(r.Conflicts) > 0
}

// Reconciler re-parses payout text for stored races and checks it against their results
type Reconciler struct {
	payouts    *parser.PayoutParser
	normalizer *DataNormalizer
	logger     logrus.FieldLogger
}

// NewReconciler creates a reconciler. Payout text is NFKC-normalised the same way ingestion
// does before it is parsed.
func NewReconciler(payouts *parser.PayoutParser, normalizer *DataNormalizer, logger logrus.FieldLogger) *Reconciler {
	return &Reconciler{payouts: payouts, normalizer: normalizer, logger: logger}
}

// Reconcile parses payoutText against clones of existing and reports warnings and conflicts.
// The meeting of the first stored race is the declared meeting for the whole batch.
// existing is never modified.
func (r *Reconciler) Reconcile(payoutText string, existing []*models.Race) (*ReconcileResult, error) {
	if len(existing) == 0 {
		return nil, ErrNoExistingRaces
	}
	return r.ReconcileMeeting(payoutText, existing[0].Racetrack, existing[0].Date, existing)
}

// ReconcileMeeting is Reconcile with an explicitly declared racetrack and date
func (r *Reconciler) ReconcileMeeting(payoutText, racetrack, date string, existing []*models.Race) (*ReconcileResult, error) {
	if strings.TrimSpace(payoutText) == "" {
		return nil, ErrNoPayoutText
	}
	if len(existing) == 0 {
		return nil, ErrNoExistingRaces
	}

	updated := models.CloneRaces(existing)
	parsed := models.CloneRaces(existing)
	for _, race := range parsed {
		race.Payouts = nil
		race.FieldSize = nil
		race.Runners = nil
		race.Scratched = nil
	}
	parseResult := r.payouts.Parse(r.normalizer.NormalizeText(payoutText), parsed)

	result := &ReconcileResult{UpdatedRaces: updated}
	result.Warnings = append(result.Warnings, parseResult.Warnings...)

	for i, fresh := range parsed {
		original := existing[i]
		if !fresh.HasPayouts() {
			result.Warnings = append(result.Warnings, fmt.Sprintf("%s: no payout found", fresh.Label()))
			continue
		}

		if original.Racetrack != racetrack || original.Date != date || fresh.Number != original.Number {
			result.Conflicts = append(result.Conflicts, Conflict{
				Race:   fresh.Number,
				Name:   fresh.Name,
				Type:   ConflictIdentity,
				Detail: fmt.Sprintf("race belongs to %s %s, not %s %s", original.Racetrack, original.Date, racetrack, date),
			})
			continue
		}

		for _, c := range CheckPayoutConsistency(fresh, original) {
			c.Race = fresh.Number
			c.Name = fresh.Name
			result.Conflicts = append(result.Conflicts, c)
			metrics.RecordReconcileConflict(string(c.Ticket))
		}

		target := updated[i]
		target.Payouts = fresh.Payouts
		if len(fresh.Runners) > 0 {
			target.Runners = fresh.Runners
		}
		if fresh.FieldSize != nil {
			target.FieldSize = fresh.FieldSize
		}
		if len(fresh.Scratched) > 0 {
			target.Scratched = fresh.Scratched
		}
	}

	r.logger.WithFields(logrus.Fields{
		"racetrack": racetrack,
		"date":      date,
		"races":     len(existing),
		"warnings":  len(result.Warnings),
		"conflicts": len(result.Conflicts),
	}).Info("Payout reconciliation complete")

	return result, nil
}

// Commit returns the updated races when there is nothing to confirm or the caller confirmed
// the conflicts.
func (r *Reconciler) Commit(result *ReconcileResult, confirmed bool) ([]*models.Race, error) {
	if result == nil {
		return nil, ErrNoExistingRaces
	}
	if result.HasConflicts() && !confirmed {
		return nil, fmt.Errorf("%w: %d conflict(s)", ErrUnconfirmedConflicts, len(result.Conflicts))
	}
	return result.UpdatedRaces, nil
}

// consistencyCheck describes how one ticket type's combinations must match the finishers
type consistencyCheck struct {
	ticket    models.TicketType
	conflict  string
	positions int
	ordered   bool
}

var consistencyChecks = []consistencyCheck{
	{ticket: models.TicketQuinella, conflict: ConflictQuinella, positions: 2},
	{ticket: models.TicketExacta, conflict: ConflictExacta, positions: 2, ordered: true},
	{ticket: models.TicketTrio, conflict: ConflictTrio, positions: 3},
	{ticket: models.TicketTrifecta, conflict: ConflictTrifecta, positions: 3, ordered: true},
}

// CheckPayoutConsistency compares the payouts parsed onto fresh with the finishers recorded
// on original. Race and Name are left for the caller to fill.
func CheckPayoutConsistency(fresh, original *models.Race) []Conflict {
	var conflicts []Conflict

	if winners := numbersAt(original, 1); len(winners) > 0 {
		for _, p := range fresh.Payouts[models.TicketWin] {
			if len(p.Combination) == 0 || slices.Contains(winners, p.Combination[0]) {
				continue
			}
			conflicts = append(conflicts, Conflict{
				Ticket:   models.TicketWin,
				Type:     ConflictWin,
				Detail:   fmt.Sprintf("win horse %d is not the winner %s", p.Combination[0], joinInts(winners, "・")),
				Expected: joinInts(winners, "・"),
				Actual:   strconv.Itoa(p.Combination[0]),
			})
		}
	}

	for _, check := range consistencyChecks {
		payouts := fresh.Payouts[check.ticket]
		if len(payouts) == 0 {
			continue
		}
		expected, ok := finishingOrder(original, check.positions)
		if !ok {
			continue
		}
		sep := "-"
		if check.ordered {
			sep = "→"
		} else {
			sort.Ints(expected)
		}

		for _, p := range payouts {
			actual := append([]int(nil), p.Combination...)
			if !check.ordered {
				sort.Ints(actual)
			}
			if slices.Equal(actual, expected) {
				continue
			}
			conflicts = append(conflicts, Conflict{
				Ticket:   check.ticket,
				Type:     check.conflict,
				Detail:   fmt.Sprintf("%s %s does not match finishers %s", check.ticket, joinInts(actual, sep), joinInts(expected, sep)),
				Expected: joinInts(expected, sep),
				Actual:   joinInts(actual, sep),
			})
		}
	}
	return conflicts
}

// finishingOrder returns the first recorded horse at each of positions 1..n
func finishingOrder(race *models.Race, n int) ([]int, bool) {
	order := make([]int, 0, n)
	for pos := 1; pos <= n; pos++ {
		res := race.ResultAt(pos)
		if res == nil {
			return nil, false
		}
		order = append(order, res.Number)
	}
	return order, true
}

func numbersAt(race *models.Race, position int) []int {
	var out []int
	for _, res := range race.Results {
		if res.Position == position {
			out = append(out, res.Number)
		}
	}
	return out
}

func joinInts(values []int, sep string) string {
	parts := make([]string, len(values))
	for i, v := range values {
		parts[i] = strconv.Itoa(v)
	}
	return strings.Join(parts, sep)
}
