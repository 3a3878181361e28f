package parser

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/yourusername/keiba-stats/internal/models"
)

const (
	minRaceColumns  = 4
	firstHorseIndex = 4
	placedPositions = 3
)

// Options tunes the race-card parser
type Options struct {
	FloorYear      int
	MaxHorseNumber int
	Now            func() time.Time
}

// DefaultOptions returns the JRA defaults: meetings since 1954, at most 18 runners
func DefaultOptions() Options {
	return Options{
		FloorYear:      1954,
		MaxHorseNumber: 18,
		Now:            time.Now,
	}
}

// RaceCardResult is the outcome of a successful race-card parse
type RaceCardResult struct {
	Races      []*models.Race
	LineErrors []string
	Warnings   []string
}

// RaceCardParser parses the tab-delimited race/result table
type RaceCardParser struct {
	logger logrus.FieldLogger
	opts   Options
}

// NewRaceCardParser creates a race-card parser
func NewRaceCardParser(logger logrus.FieldLogger, opts Options) *RaceCardParser {
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.MaxHorseNumber <= 0 {
		opts.MaxHorseNumber = DefaultOptions().MaxHorseNumber
	}
	return &RaceCardParser{logger: logger, opts: opts}
}

// Parse converts raw race-card text into races. fieldSizes maps race labels ("1R") to
// starter counts and may be nil. Malformed lines are collected and reported; the call only
// fails when the input is unusable or no race at all could be extracted.
func (p *RaceCardParser) Parse(raw, racetrack, date string, fieldSizes map[string]int) (*RaceCardResult, error) {
	if strings.TrimSpace(raw) == "" {
		return nil, ErrEmptyInput
	}
	if racetrack == "" || date == "" {
		return nil, ErrMissingMeeting
	}

	result := &RaceCardResult{}
	dateWarnings, err := p.validateDate(date)
	if err != nil {
		return nil, err
	}
	result.Warnings = append(result.Warnings, dateWarnings...)

	lines := strings.Split(strings.ReplaceAll(raw, "\r\n", "\n"), "\n")
	if len(lines) < 2 {
		return nil, fmt.Errorf("%w: a header line and at least one tab-separated data line are required", ErrEmptyInput)
	}

	for i := 1; i < len(lines); i++ {
		line := strings.TrimSpace(lines[i])
		if line == "" {
			continue
		}
		race, lineErrs := p.parseLine(line, i+1, racetrack, date, fieldSizes)
		result.LineErrors = append(result.LineErrors, lineErrs...)
		if race != nil {
			result.Races = append(result.Races, race)
		}
	}

	if len(result.Races) == 0 {
		return nil, &ParseError{Err: ErrNoRaces, LineErrors: result.LineErrors}
	}

	result.Warnings = append(result.Warnings, result.LineErrors...)
	result.Warnings = append(result.Warnings, ValidateRaces(result.Races)...)
	if len(result.Warnings) > 0 {
		p.logger.WithFields(logrus.Fields{
			"racetrack": racetrack,
			"date":      date,
			"warnings":  len(result.Warnings),
		}).Warn("Race card parsed with warnings")
	}
	p.logger.WithFields(logrus.Fields{
		"racetrack": racetrack,
		"date":      date,
		"races":     len(result.Races),
	}).Info("Race card parsed")

	return result, nil
}

func (p *RaceCardParser) parseLine(line string, lineNo int, racetrack, date string, fieldSizes map[string]int) (*models.Race, []string) {
	parts := strings.Split(line, "\t")
	if len(parts) < minRaceColumns {
		return nil, []string{fmt.Sprintf("line %d: missing columns (at least %d required)", lineNo, minRaceColumns)}
	}

	race := &models.Race{
		Racetrack:    racetrack,
		Date:         date,
		Number:       strings.TrimSpace(parts[0]),
		Name:         strings.TrimSpace(parts[1]),
		Condition:    strings.TrimSpace(parts[2]),
		TrackWeather: strings.TrimSpace(parts[3]),
		Results:      []models.Result{},
	}
	race.Surface = ExtractSurface(race.Condition)
	race.Distance = ExtractDistance(race.Condition)
	race.Going = ExtractGoing(race.TrackWeather)
	race.Weather = ExtractWeather(race.TrackWeather)
	if size, ok := fieldSizes[race.Number]; ok && size > 0 {
		race.FieldSize = models.IntPtr(size)
	}

	var errs []string
	for pos := 1; pos <= placedPositions; pos++ {
		numIdx := firstHorseIndex + (pos-1)*2
		infoIdx := numIdx + 1
		if infoIdx >= len(parts) {
			break
		}
		results, posErrs := p.parsePosition(pos, parts[numIdx], parts[infoIdx], lineNo)
		errs = append(errs, posErrs...)
		race.Results = append(race.Results, results...)
	}

	if len(race.Results) == 0 {
		errs = append(errs, fmt.Sprintf("line %d: no results could be parsed (%s)", lineNo, race.Label()))
	}
	return race, errs
}

// parsePosition expands one (number, info) column pair. Dead heats list several values
// joined by "・" and produce one tied result per value.
func (p *RaceCardParser) parsePosition(pos int, numField, infoField string, lineNo int) ([]models.Result, []string) {
	nums := splitDeadHeat(numField)
	infos := splitDeadHeat(infoField)
	count := len(nums)
	if len(infos) > count {
		count = len(infos)
	}

	var (
		results []models.Result
		errs    []string
	)
	for j := 0; j < count; j++ {
		numStr := pick(nums, j)
		info := pick(infos, j)
		if numStr == "" || info == "" {
			continue
		}

		number, err := strconv.Atoi(numStr)
		if err != nil || number < 1 || number > p.opts.MaxHorseNumber {
			errs = append(errs, fmt.Sprintf("line %d position %d: invalid horse number (%s)", lineNo, pos, numStr))
			continue
		}

		name, rank := ParseHorseInfo(info)
		if rank != nil && (*rank < 1 || *rank > p.opts.MaxHorseNumber) {
			errs = append(errs, fmt.Sprintf("line %d position %d: invalid popularity (%d)", lineNo, pos, *rank))
		}

		results = append(results, models.Result{
			Position:   pos,
			Number:     number,
			Name:       name,
			Popularity: rank,
			Tied:       count > 1,
		})
	}
	return results, errs
}

func (p *RaceCardParser) validateDate(date string) ([]string, error) {
	d, err := time.Parse(models.DateLayout, date)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", ErrInvalidDate, date)
	}
	if d.Year() < p.opts.FloorYear {
		return nil, fmt.Errorf("%w: meetings are only recorded from %d", ErrInvalidDate, p.opts.FloorYear)
	}

	now := p.opts.Now()
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	var warnings []string
	if d.After(today) {
		days := int(d.Sub(today).Hours() / 24)
		warnings = append(warnings, fmt.Sprintf("date %s is %d day(s) in the future", date, days))
	}
	if d.Before(today.AddDate(-1, 0, 0)) {
		warnings = append(warnings, fmt.Sprintf("date %s is more than %d year(s) old", date, today.Year()-d.Year()))
	}
	return warnings, nil
}

func splitDeadHeat(field string) []string {
	var out []string
	for _, s := range strings.Split(field, separatorDot) {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}

func pick(values []string, i int) string {
	if i < len(values) {
		return values[i]
	}
	if len(values) > 0 {
		return values[0]
	}
	return ""
}
