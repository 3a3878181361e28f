package parser

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/yourusername/keiba-stats/internal/models"
)

// PayoutResult summarises a payout parse
type PayoutResult struct {
	Blocks       map[models.TicketType]int
	FailedBlocks map[models.TicketType]int
	Failed       int
	Warnings     []string
}

// PayoutParser reads payout announcement text and attaches payouts to races
type PayoutParser struct {
	logger logrus.FieldLogger
}

// NewPayoutParser creates a payout parser
func NewPayoutParser(logger logrus.FieldLogger) *PayoutParser {
	return &PayoutParser{logger: logger}
}

// blockState is the state of the per-ticket block reader
type blockState int

const (
	stateExpectCombination blockState = iota
	stateExpectAmount
	stateExpectRank
	stateDone
)

func (s blockState) String() string {
	switch s {
	case stateExpectCombination:
		return "expect-combination"
	case stateExpectAmount:
		return "expect-amount"
	case stateExpectRank:
		return "expect-rank"
	default:
		return "done"
	}
}

// payoutBlock is the raw material of one ticket block before it is zipped into payouts
type payoutBlock struct {
	combos  [][]int
	amounts []int
	ranks   []*int
	next    int
}

// readBlock walks lines from start through the block state machine. It stops at the first
// line that does not fit the current state once that state can no longer advance, which is
// always a block boundary or a line the outer loop will skip.
func readBlock(lines []string, start, arity int) payoutBlock {
	b := payoutBlock{next: start}
	state := stateExpectCombination
	for state != stateDone && b.next < len(lines) {
		line := lines[b.next]
		kind := ClassifyLine(line)
		if kind.startsBlock() {
			break
		}
		switch state {
		case stateExpectCombination:
			if kind == KindCombination {
				if combo, ok := parseCombination(line, arity); ok {
					b.combos = append(b.combos, combo)
					b.next++
					continue
				}
			}
			state = stateExpectAmount
		case stateExpectAmount:
			// a bare number small enough to be a horse number classifies as a combination
			if len(b.amounts) < len(b.combos) && (kind == KindAmount || kind == KindCombination) {
				if amount, ok := parseAmount(line); ok {
					b.amounts = append(b.amounts, amount)
					b.next++
					continue
				}
			}
			state = stateExpectRank
		case stateExpectRank:
			if len(b.ranks) < len(b.combos) && kind == KindTicketRank {
				if rank, ok := parseTicketRank(line); ok {
					b.ranks = append(b.ranks, rank)
					b.next++
					continue
				}
			}
			state = stateDone
		}
	}
	return b
}

// Parse attaches payouts found in text to the matching races, in place. A malformed block
// never stops the parse: it is logged and reading resumes at the next race label or ticket
// header.
func (p *PayoutParser) Parse(text string, races []*models.Race) PayoutResult {
	result := PayoutResult{
		Blocks:       make(map[models.TicketType]int),
		FailedBlocks: make(map[models.TicketType]int),
	}
	if strings.TrimSpace(text) == "" {
		p.logger.Debug("No payout data supplied")
		return result
	}

	var lines []string
	for _, l := range strings.Split(text, "\n") {
		if l = strings.TrimSpace(l); l != "" {
			lines = append(lines, l)
		}
	}

	currentRace := 0
	for i := 0; i < len(lines); {
		line := lines[i]

		switch ClassifyLine(line) {
		case KindRaceLabel:
			currentRace, _ = strconv.Atoi(raceLabelPattern.FindStringSubmatch(line)[1])
			i++
			continue
		case KindComment:
			p.applyComment(line, findRace(races, currentRace))
			i++
			continue
		case KindTicketHeader:
		default:
			i++
			continue
		}

		ticket, _ := models.TicketTypeFromLabel(line)
		race := findRace(races, currentRace)
		if race == nil {
			result.Warnings = append(result.Warnings, fmt.Sprintf("%s payout for unknown race %dR skipped", line, currentRace))
			i = skipToBoundary(lines, i+1)
			continue
		}

		next, err := p.parseBlock(lines, i+1, ticket, race, &result)
		if err != nil {
			result.Failed++
			result.FailedBlocks[ticket]++
			result.Warnings = append(result.Warnings, fmt.Sprintf("%s %s: %v", race.Number, line, err))
			p.logger.WithFields(logrus.Fields{
				"race":   race.Number,
				"ticket": ticket,
				"error":  err,
			}).Warn("Payout block could not be parsed, resuming at next block")
			next = skipToBoundary(lines, i+1)
		}
		i = next
	}

	p.logger.WithFields(logrus.Fields{
		"blocks":   len(result.Blocks),
		"failed":   result.Failed,
		"warnings": len(result.Warnings),
	}).Info("Payout data parsed")
	return result
}

// parseBlock reads one ticket block and stores it on the race. Panics from malformed input
// are converted to errors so the caller can resume.
func (p *PayoutParser) parseBlock(lines []string, start int, ticket models.TicketType, race *models.Race, result *PayoutResult) (next int, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("recovered from malformed block: %v", r)
		}
	}()

	desc, err := models.Descriptor(ticket)
	if err != nil {
		return start, err
	}

	block := readBlock(lines, start, desc.Arity)
	if len(block.combos) == 0 {
		return start, fmt.Errorf("no %d-horse combination found", desc.Arity)
	}
	if len(block.amounts) != len(block.combos) || (len(block.ranks) > 0 && len(block.ranks) != len(block.combos)) {
		result.Warnings = append(result.Warnings, fmt.Sprintf(
			"%s %s: %d combinations, %d amounts, %d popularity lines; missing values default to 0/none",
			race.Number, desc.Label, len(block.combos), len(block.amounts), len(block.ranks)))
	}

	payouts := make([]models.Payout, len(block.combos))
	for i, combo := range block.combos {
		payout := models.Payout{Combination: combo}
		if i < len(block.amounts) {
			payout.Amount = block.amounts[i]
		}
		if i < len(block.ranks) {
			payout.TicketPopularity = block.ranks[i]
		}
		if desc.Type != models.TicketBracketQuinella {
			payout.Pattern = ResolvePattern(race, combo, desc.Ordered)
		}
		payouts[i] = payout
	}
	race.SetPayouts(ticket, payouts)
	result.Blocks[ticket]++

	p.logger.WithFields(logrus.Fields{
		"race":         race.Number,
		"ticket":       ticket,
		"combinations": len(payouts),
	}).Debug("Payout block parsed")
	return block.next, nil
}

func (p *PayoutParser) applyComment(line string, race *models.Race) {
	if race == nil {
		return
	}
	if v, ok := trimPrefixAny(line, runnersPrefixes); ok {
		race.Runners = parseNumberList(v)
		return
	}
	if v, ok := trimPrefixAny(line, scratchedPrefixes); ok {
		race.Scratched = parseNumberList(v)
		return
	}
	if v, ok := trimPrefixAny(line, fieldSizePrefixes); ok {
		if n, err := strconv.Atoi(strings.TrimSuffix(v, "頭")); err == nil && n > 0 {
			race.FieldSize = models.IntPtr(n)
		}
	}
}

// ResolvePattern maps horse numbers to the market ranks recorded in the race's results.
// It returns nil if any horse is not among the results or has no known rank. Unordered
// ticket patterns are sorted ascending.
func ResolvePattern(race *models.Race, combination []int, ordered bool) []int {
	if race == nil || len(combination) == 0 {
		return nil
	}
	pattern := make([]int, len(combination))
	for i, number := range combination {
		res := race.FindByNumber(number)
		if res == nil || res.Popularity == nil {
			return nil
		}
		pattern[i] = *res.Popularity
	}
	if !ordered {
		sort.Ints(pattern)
	}
	return pattern
}

func findRace(races []*models.Race, number int) *models.Race {
	if number <= 0 {
		return nil
	}
	for _, r := range races {
		if r.RaceNumber() == number {
			return r
		}
	}
	return nil
}

func skipToBoundary(lines []string, start int) int {
	for i := start; i < len(lines); i++ {
		if ClassifyLine(lines[i]).startsBlock() {
			return i
		}
	}
	return len(lines)
}
