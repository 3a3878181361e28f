// Package metrics provides the centralized Prometheus metrics registry for keiba-stats.
package metrics

import (
	"net/http"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "keiba_stats"

// Global registry instance
var (
	registry *prometheus.Registry
	once     sync.Once
)

// Ingestion counter vectors
var (
	RaceLinesParsedTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "race_lines_parsed_total",
		Help:      "Total number of race-card lines parsed by outcome",
	}, []string{"status"})
	PayoutBlocksParsedTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "payout_blocks_parsed_total",
		Help:      "Total number of payout blocks parsed by ticket type and outcome",
	}, []string{"ticket", "status"})
	ReconcileConflictsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "reconcile_conflicts_total",
		Help:      "Total number of payout/result conflicts found during reconciliation",
	}, []string{"ticket"})
	DatasetsStoredTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "datasets_stored_total",
		Help:      "Total number of meeting datasets written to the store by operation",
	}, []string{"operation"})
)

// Gauge metrics
var (
	StoredRaces = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "stored_races",
		Help:      "Number of races currently held in the store",
	})
)

// InitRegistry initializes the global Prometheus registry.
func InitRegistry() *prometheus.Registry {
	once.Do(func() {
		registry = prometheus.NewRegistry()

		registry.MustRegister(RaceLinesParsedTotal)
		registry.MustRegister(PayoutBlocksParsedTotal)
		registry.MustRegister(ReconcileConflictsTotal)
		registry.MustRegister(DatasetsStoredTotal)

		registry.MustRegister(StoredRaces)

		// Register stats metrics
		registry.MustRegister(StatsComputationsTotal)
		registry.MustRegister(StatsComputeDuration)
		registry.MustRegister(StatsCacheHitRatio)
	})
	return registry
}

// GetRegistry returns the global Prometheus registry.
func GetRegistry() *prometheus.Registry {
	if registry == nil {
		return InitRegistry()
	}
	return registry
}

// Handler returns the Prometheus HTTP handler.
func Handler() http.Handler {
	return promhttp.HandlerFor(GetRegistry(), promhttp.HandlerOpts{})
}

// RecordRaceLines records the outcome of a race-card parse.
func RecordRaceLines(parsed, failed int) {
	RaceLinesParsedTotal.WithLabelValues("parsed").Add(float64(parsed))
	RaceLinesParsedTotal.WithLabelValues("failed").Add(float64(failed))
}

// RecordPayoutBlock records one payout block.
// status should be one of: "parsed", "failed"
func RecordPayoutBlock(ticket, status string) {
	PayoutBlocksParsedTotal.WithLabelValues(ticket, status).Inc()
}

// RecordReconcileConflict records a conflict found for a ticket type.
func RecordReconcileConflict(ticket string) {
	ReconcileConflictsTotal.WithLabelValues(ticket).Inc()
}

// RecordDatasetStored records a store write.
// operation should be one of: "create", "update", "import", "delete"
func RecordDatasetStored(operation string) {
	DatasetsStoredTotal.WithLabelValues(operation).Inc()
}

// UpdateStoredRaces updates the stored races gauge.
func UpdateStoredRaces(count int) {
	StoredRaces.Set(float64(count))
}
