package logger

import (
	"github.com/sirupsen/logrus"
)

// IngestionLogger provides dedicated logging for race-card and payout ingestion.
type IngestionLogger struct {
	*logrus.Entry
}

// NewIngestionLogger creates a new ingestion logger.
func NewIngestionLogger(baseLogger *logrus.Logger) *IngestionLogger {
	return &IngestionLogger{
		Entry: baseLogger.WithField("component", "ingestion"),
	}
}

// LogRaceCardParsed logs the outcome of a race-card parse.
func (il *IngestionLogger) LogRaceCardParsed(racetrack, date string, races, lineErrors, warnings int) {
	entry := il.WithFields(logrus.Fields{
		"racetrack":   racetrack,
		"date":        date,
		"races":       races,
		"line_errors": lineErrors,
		"warnings":    warnings,
	})
	if lineErrors > 0 {
		entry.Warn("Race card ingested with skipped lines")
		return
	}
	entry.Info("Race card ingested")
}

// LogPayoutsParsed logs the outcome of a payout parse.
func (il *IngestionLogger) LogPayoutsParsed(racetrack, date string, blocks, failed, warnings int) {
	il.WithFields(logrus.Fields{
		"racetrack": racetrack,
		"date":      date,
		"blocks":    blocks,
		"failed":    failed,
		"warnings":  warnings,
	}).Info("Payouts ingested")
}

// LogRacetrackMismatch logs a program listing whose meeting header names another racecourse.
func (il *IngestionLogger) LogRacetrackMismatch(declared, detected string) {
	il.WithFields(logrus.Fields{
		"declared": declared,
		"detected": detected,
	}).Warn("Field-size listing belongs to a different racetrack")
}

// LogReconcileConflict logs one payout/result disagreement.
func (il *IngestionLogger) LogReconcileConflict(race, ticket, detail string) {
	il.WithFields(logrus.Fields{
		"race":   race,
		"ticket": ticket,
		"detail": detail,
	}).Warn("Payout conflicts with recorded result")
}
