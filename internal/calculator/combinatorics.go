// Package calculator answers ad-hoc "always bet rank X with rank Y" queries by expanding
// rank selections into ticket combinations and looking them up in computed statistics.
package calculator

import (
	"errors"
	"fmt"
	"slices"
	"sort"
	"strconv"
	"strings"
	"unicode"

	"github.com/yourusername/keiba-stats/internal/models"
)

// MaxRank is the highest market rank a selection may name
const MaxRank = 16

var (
	// ErrLegCount is returned when the number of legs differs from the ticket's arity.
	ErrLegCount = errors.New("leg count does not match ticket arity")
	// ErrEmptyLeg is returned when a leg holds no valid rank.
	ErrEmptyLeg = errors.New("leg has no valid rank (1-16)")
)

// ParseRanks parses a rank list separated by commas or whitespace, such as "1, 3" or
// "1 3". Entries that are not integers in 1..16 are dropped and duplicates keep their
// first position.
func ParseRanks(input string) []int {
	ranks := make([]int, 0)
	seen := make(map[int]bool)
	fields := strings.FieldsFunc(input, func(r rune) bool {
		return r == ',' || unicode.IsSpace(r)
	})
	for _, field := range fields {
		rank, err := strconv.Atoi(field)
		if err != nil || rank < 1 || rank > MaxRank || seen[rank] {
			continue
		}
		seen[rank] = true
		ranks = append(ranks, rank)
	}
	return ranks
}

// Generate expands one rank list per leg into the ticket's combinations. Tuples that name
// the same rank twice are excluded. Unordered tickets yield ascending tuples deduplicated
// by key; ordered tickets keep leg order.
func Generate(ticket models.TicketType, legs [][]int) ([][]int, error) {
	d, err := models.Descriptor(ticket)
	if err != nil {
		return nil, err
	}
	if len(legs) != d.Arity {
		return nil, fmt.Errorf("%w: %s takes %d legs, got %d", ErrLegCount, ticket, d.Arity, len(legs))
	}

	var out [][]int
	seen := make(map[string]bool)
	tuple := make([]int, 0, d.Arity)

	var walk func(leg int)
	walk = func(leg int) {
		if leg == len(legs) {
			combo := append([]int(nil), tuple...)
			if !d.Ordered {
				sort.Ints(combo)
			}
			key := models.PatternKey(combo)
			if seen[key] {
				return
			}
			seen[key] = true
			out = append(out, combo)
			return
		}
		for _, rank := range legs[leg] {
			if slices.Contains(tuple, rank) {
				continue
			}
			tuple = append(tuple, rank)
			walk(leg + 1)
			tuple = tuple[:len(tuple)-1]
		}
	}
	walk(0)
	return out, nil
}

// Keys renders generated combinations as pattern keys
func Keys(combos [][]int) []string {
	keys := make([]string, len(combos))
	for i, c := range combos {
		keys[i] = models.PatternKey(c)
	}
	return keys
}
