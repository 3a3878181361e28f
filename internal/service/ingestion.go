package service

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/yourusername/keiba-stats/internal/logger"
	"github.com/yourusername/keiba-stats/internal/metrics"
	"github.com/yourusername/keiba-stats/internal/models"
	"github.com/yourusername/keiba-stats/internal/parser"
)

// IngestRequest is the pasted input for one meeting
type IngestRequest struct {
	Racetrack   string
	Date        string
	RaceCard    string
	ProgramText string
	PayoutText  string
}

// IngestionReport describes the dataset built from one request
type IngestionReport struct {
	Dataset           *models.Dataset
	FieldSizes        map[string]int
	DetectedRacetrack string
	LineErrors        []string
	Warnings          []string
	PayoutBlocks      int
	FailedBlocks      int
	Duration          time.Duration
}

// Ingestor runs the field-size, race-card and payout parsers over one meeting
type Ingestor struct {
	raceCards  *parser.RaceCardParser
	payouts    *parser.PayoutParser
	validator  *DataValidator
	normalizer *DataNormalizer
	metrics    *IngestionMetrics
	logger     *logger.IngestionLogger
}

// NewIngestor creates a new ingestor
func NewIngestor(
	raceCards *parser.RaceCardParser,
	payouts *parser.PayoutParser,
	validator *DataValidator,
	normalizer *DataNormalizer,
	log *logger.IngestionLogger,
) *Ingestor {
	return &Ingestor{
		raceCards:  raceCards,
		payouts:    payouts,
		validator:  validator,
		normalizer: normalizer,
		metrics:    NewIngestionMetrics(),
		logger:     log,
	}
}

// Ingest parses one meeting into a dataset. Only fatal race-card errors and structurally
// invalid datasets fail; everything else is reported as a warning.
func (s *Ingestor) Ingest(req IngestRequest) (*IngestionReport, error) {
	start := time.Now()
	racetrack := s.normalizer.NormalizeRacetrack(req.Racetrack)
	report := &IngestionReport{}

	if strings.TrimSpace(req.ProgramText) != "" {
		sizes := parser.ParseFieldSizes(s.normalizer.NormalizeText(req.ProgramText))
		report.FieldSizes = sizes.Sizes
		report.DetectedRacetrack = sizes.Racetrack
		if sizes.Racetrack != "" && !s.normalizer.SameRacetrack(sizes.Racetrack, racetrack) {
			report.Warnings = append(report.Warnings, fmt.Sprintf(
				"program listing is for %s but the meeting was declared as %s", sizes.Racetrack, racetrack))
			s.logger.LogRacetrackMismatch(racetrack, sizes.Racetrack)
		}
	}

	card, err := s.raceCards.Parse(req.RaceCard, racetrack, req.Date, report.FieldSizes)
	if err != nil {
		s.metrics.RecordError()
		var pe *parser.ParseError
		if errors.As(err, &pe) {
			metrics.RecordRaceLines(0, len(pe.LineErrors))
		}
		return nil, fmt.Errorf("failed to parse race card: %w", err)
	}
	metrics.RecordRaceLines(len(card.Races), len(card.LineErrors))
	report.LineErrors = card.LineErrors
	report.Warnings = append(report.Warnings, card.Warnings...)
	s.logger.LogRaceCardParsed(racetrack, req.Date, len(card.Races), len(card.LineErrors), len(card.Warnings))

	for _, race := range card.Races {
		s.normalizer.NormalizeRace(race)
	}

	if strings.TrimSpace(req.PayoutText) != "" {
		payouts := s.payouts.Parse(s.normalizer.NormalizeText(req.PayoutText), card.Races)
		for ticket, n := range payouts.Blocks {
			report.PayoutBlocks += n
			for i := 0; i < n; i++ {
				metrics.RecordPayoutBlock(string(ticket), "parsed")
			}
		}
		for ticket, n := range payouts.FailedBlocks {
			for i := 0; i < n; i++ {
				metrics.RecordPayoutBlock(string(ticket), "failed")
			}
		}
		report.FailedBlocks = payouts.Failed
		report.Warnings = append(report.Warnings, payouts.Warnings...)
		s.logger.LogPayoutsParsed(racetrack, req.Date, report.PayoutBlocks, payouts.Failed, len(payouts.Warnings))
	}

	ds := models.NewDataset(racetrack, req.Date, card.Races)
	if err := s.validator.ValidateDataset(ds); err != nil {
		s.metrics.RecordError()
		return nil, err
	}
	report.Dataset = ds
	report.Duration = time.Since(start)
	s.metrics.RecordMeeting(report)

	return report, nil
}

// GetMetrics returns current ingestion metrics
func (s *Ingestor) GetMetrics() *IngestionMetrics {
	return s.metrics
}

// ResetMetrics resets ingestion metrics
func (s *Ingestor) ResetMetrics() {
	s.metrics.Reset()
}
