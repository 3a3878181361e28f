package logger

import (
	"time"

	"github.com/sirupsen/logrus"
)

// AuditLogger provides an audit trail of stored dataset changes.
type AuditLogger struct {
	*logrus.Entry
}

// NewAuditLogger creates a new audit logger.
func NewAuditLogger(baseLogger *logrus.Logger) *AuditLogger {
	return &AuditLogger{
		Entry: baseLogger.WithField("component", "audit"),
	}
}

// LogDatasetSaved logs a dataset write.
func (al *AuditLogger) LogDatasetSaved(datasetID, racetrack, date, operation string, races int, timestamp time.Time) {
	al.WithFields(logrus.Fields{
		"dataset_id": datasetID,
		"racetrack":  racetrack,
		"date":       date,
		"operation":  operation,
		"races":      races,
		"timestamp":  timestamp.Unix(),
	}).Info("Dataset saved")
}

// LogDatasetDeleted logs a dataset removal.
func (al *AuditLogger) LogDatasetDeleted(datasetID, racetrack, date string) {
	al.WithFields(logrus.Fields{
		"dataset_id": datasetID,
		"racetrack":  racetrack,
		"date":       date,
	}).Info("Dataset deleted")
}

// LogPayoutsCommitted logs reconciled payouts being written over existing races.
func (al *AuditLogger) LogPayoutsCommitted(racetrack, date string, races, conflicts int, confirmed bool) {
	al.WithFields(logrus.Fields{
		"racetrack": racetrack,
		"date":      date,
		"races":     races,
		"conflicts": conflicts,
		"confirmed": confirmed,
	}).Info("Payout update committed")
}
