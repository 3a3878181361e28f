// Package parser turns race-card, field-size and payout announcement text into race records.
package parser

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrEmptyInput indicates the race-card text is empty or has no data lines
	ErrEmptyInput = errors.New("race data is empty")

	// ErrMissingMeeting indicates the racetrack or date was not supplied
	ErrMissingMeeting = errors.New("racetrack and date are required")

	// ErrInvalidDate indicates the meeting date is malformed or before the floor year
	ErrInvalidDate = errors.New("invalid race date")

	// ErrNoRaces indicates no race could be extracted from the input
	ErrNoRaces = errors.New("no races could be parsed")
)

// ParseError aggregates every per-line problem found while parsing a race card
type ParseError struct {
	Err        error
	LineErrors []string
}

func (e *ParseError) Error() string {
	if len(e.LineErrors) == 0 {
		return e.Err.Error() + ": check the input format"
	}
	return fmt.Sprintf("%s:\n%s", e.Err.Error(), strings.Join(e.LineErrors, "\n"))
}

// Unwrap returns the sentinel error
func (e *ParseError) Unwrap() error {
	return e.Err
}
