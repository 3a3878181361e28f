package parser

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// JRATracks lists the ten JRA racecourses recognised in meeting headers
var JRATracks = []string{"東京", "京都", "中山", "阪神", "中京", "新潟", "札幌", "函館", "福島", "小倉"}

var (
	meetingHeaderPattern = regexp.MustCompile(`\d+回(` + strings.Join(JRATracks, "|") + `)\d+日目`)
	raceLabelPattern     = regexp.MustCompile(`^(\d+)R$`)
	headcountPattern     = regexp.MustCompile(`(\d+)頭`)
	combinedCountPattern = regexp.MustCompile(`(\d+R).*?(\d+)頭`)
)

// FieldSizeResult is the outcome of scanning a program listing
type FieldSizeResult struct {
	Sizes     map[string]int
	Racetrack string
	Unmatched []string
}

// ParseFieldSizes scans free-form program text for starter counts. Patterns are tried in
// priority order per line: meeting header, bare race label, headcount for the current race,
// then a combined "NR ... N頭" line. Reconciling the detected racetrack with the declared one
// is left to the caller.
func ParseFieldSizes(text string) FieldSizeResult {
	result := FieldSizeResult{Sizes: make(map[string]int)}
	if strings.TrimSpace(text) == "" {
		return result
	}

	currentRace := 0
	for i, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}

		if m := meetingHeaderPattern.FindStringSubmatch(line); m != nil {
			result.Racetrack = m[1]
			currentRace = 0
			continue
		}

		if m := raceLabelPattern.FindStringSubmatch(line); m != nil {
			currentRace, _ = strconv.Atoi(m[1])
			continue
		}

		if m := headcountPattern.FindStringSubmatch(line); m != nil && currentRace > 0 {
			count, _ := strconv.Atoi(m[1])
			result.Sizes[fmt.Sprintf("%dR", currentRace)] = count
			continue
		}

		if m := combinedCountPattern.FindStringSubmatch(line); m != nil {
			count, _ := strconv.Atoi(m[2])
			result.Sizes[m[1]] = count
			continue
		}

		result.Unmatched = append(result.Unmatched, fmt.Sprintf("line %d: %s", i+1, line))
	}
	return result
}
