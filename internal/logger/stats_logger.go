package logger

import (
	"github.com/sirupsen/logrus"
)

// StatsLogger provides dedicated logging for statistics computation.
type StatsLogger struct {
	*logrus.Entry
}

// NewStatsLogger creates a new stats logger.
func NewStatsLogger(baseLogger *logrus.Logger) *StatsLogger {
	return &StatsLogger{
		Entry: baseLogger.WithField("component", "stats"),
	}
}

// LogTableComputed logs a computed statistics table.
func (sl *StatsLogger) LogTableComputed(ticket, family string, races, rows int, cached bool, durationMs float64) {
	sl.WithFields(logrus.Fields{
		"ticket":      ticket,
		"family":      family,
		"races":       races,
		"rows":        rows,
		"cached":      cached,
		"duration_ms": durationMs,
	}).Debug("Statistics table computed")
}

// LogCombinationWarning logs a calculator query that generated many combinations.
func (sl *StatsLogger) LogCombinationWarning(ticket string, generated, threshold int) {
	sl.WithFields(logrus.Fields{
		"ticket":    ticket,
		"generated": generated,
		"threshold": threshold,
	}).Warn("Combination count exceeds warning threshold")
}
