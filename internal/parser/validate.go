package parser

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/yourusername/keiba-stats/internal/models"
)

// ValidateRaces runs the post-parse consistency checks and returns every finding as a
// warning. It never fails.
func ValidateRaces(races []*models.Race) []string {
	var warnings []string

	labels := make([]string, len(races))
	for i, r := range races {
		labels[i] = r.Number
	}
	if dups := duplicatesOf(labels); len(dups) > 0 {
		warnings = append(warnings, fmt.Sprintf("duplicate race numbers: %s", strings.Join(dups, ", ")))
	}

	for _, race := range races {
		warnings = append(warnings, ValidateRace(race)...)
	}
	return warnings
}

// ValidateRace checks one race's results for internal consistency
func ValidateRace(race *models.Race) []string {
	var warnings []string
	label := race.Label()

	numbers := make([]string, 0, len(race.Results))
	ranks := make([]string, 0, len(race.Results))
	maxNumber, maxRank, unknownRanks := 0, 0, 0
	positions := map[int]bool{}
	for _, res := range race.Results {
		numbers = append(numbers, strconv.Itoa(res.Number))
		positions[res.Position] = true
		if res.Number > maxNumber {
			maxNumber = res.Number
		}
		if res.Popularity == nil {
			unknownRanks++
			continue
		}
		ranks = append(ranks, strconv.Itoa(*res.Popularity))
		if *res.Popularity > maxRank {
			maxRank = *res.Popularity
		}
	}

	if dups := duplicatesOf(numbers); len(dups) > 0 {
		warnings = append(warnings, fmt.Sprintf("%s: horse number appears more than once (%s)", label, strings.Join(dups, ", ")))
	}
	if dups := duplicatesOf(ranks); len(dups) > 0 {
		warnings = append(warnings, fmt.Sprintf("%s: popularity appears more than once (%s), possibly a dead heat", label, strings.Join(dups, ", ")))
	}
	for pos := 1; pos <= placedPositions; pos++ {
		if !positions[pos] {
			warnings = append(warnings, fmt.Sprintf("%s: no result for position %d", label, pos))
		}
	}
	if unknownRanks > 0 {
		warnings = append(warnings, fmt.Sprintf("%s: %d horse(s) without popularity", label, unknownRanks))
	}
	if race.FieldSize != nil {
		if maxNumber > *race.FieldSize {
			warnings = append(warnings, fmt.Sprintf("%s: horse number %d exceeds field size %d", label, maxNumber, *race.FieldSize))
		}
		if maxRank > *race.FieldSize {
			warnings = append(warnings, fmt.Sprintf("%s: popularity %d exceeds field size %d", label, maxRank, *race.FieldSize))
		}
	}
	return warnings
}

// duplicatesOf returns each value that occurs more than once, in first-seen order
func duplicatesOf(values []string) []string {
	seen := make(map[string]int, len(values))
	var dups []string
	for _, v := range values {
		seen[v]++
		if seen[v] == 2 {
			dups = append(dups, v)
		}
	}
	return dups
}
