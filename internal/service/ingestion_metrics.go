package service

import (
	"fmt"
	"sync"
	"time"
)

// IngestionMetrics tracks statistics about ingestion runs
type IngestionMetrics struct {
	mu           sync.RWMutex
	StartTime    time.Time
	Duration     time.Duration
	Meetings     int
	TotalRaces   int
	LineErrors   int
	PayoutBlocks int
	FailedBlocks int
	Warnings     int
	Errors       int
}

// NewIngestionMetrics creates a new metrics tracker
func NewIngestionMetrics() *IngestionMetrics {
	return &IngestionMetrics{
		StartTime: time.Now(),
	}
}

// Reset resets all metrics
func (m *IngestionMetrics) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.StartTime = time.Now()
	m.Duration = 0
	m.Meetings = 0
	m.TotalRaces = 0
	m.LineErrors = 0
	m.PayoutBlocks = 0
	m.FailedBlocks = 0
	m.Warnings = 0
	m.Errors = 0
}

// RecordMeeting adds one successfully ingested meeting
func (m *IngestionMetrics) RecordMeeting(report *IngestionReport) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.Meetings++
	m.TotalRaces += len(report.Dataset.Races)
	m.LineErrors += len(report.LineErrors)
	m.PayoutBlocks += report.PayoutBlocks
	m.FailedBlocks += report.FailedBlocks
	m.Warnings += len(report.Warnings)
	m.Duration += report.Duration
}

// RecordError increments error count
func (m *IngestionMetrics) RecordError() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Errors++
}

// String returns a formatted string representation of metrics
func (m *IngestionMetrics) String() string {
	m.mu.RLock()
	defer m.mu.RUnlock()

	blockSuccess := float64(0)
	if total := m.PayoutBlocks + m.FailedBlocks; total > 0 {
		blockSuccess = float64(m.PayoutBlocks) / float64(total) * 100
	}

	return fmt.Sprintf(
		"IngestionMetrics{Meetings=%d, Races=%d, LineErrors=%d, PayoutBlocks=%d (%.1f%%), Warnings=%d, Errors=%d, Duration=%v}",
		m.Meetings,
		m.TotalRaces,
		m.LineErrors,
		m.PayoutBlocks,
		blockSuccess,
		m.Warnings,
		m.Errors,
		m.Duration,
	)
}
