package metrics

import "github.com/prometheus/client_golang/prometheus"

// Stats counter vectors
var (
	StatsComputationsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "stats_computations_total",
		Help:      "Total number of statistics tables computed by ticket type and family",
	}, []string{"ticket", "family"})
)

// Stats histogram metrics
var (
	StatsComputeDuration = prometheus.NewHistogram(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "stats_compute_duration_seconds",
		Help:      "Duration of statistics table computation in seconds",
		Buckets:   []float64{0.0005, 0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1},
	})
)

// Stats gauge metrics
var (
	StatsCacheHitRatio = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "stats_cache_hit_ratio",
		Help:      "Hit ratio of the statistics table cache",
	})
)

// RecordStatsComputation records one computed table.
// family should be one of: "rank", "pattern", "ticket_popularity", "comparison", "rolling"
func RecordStatsComputation(ticket, family string, durationSeconds float64) {
	StatsComputationsTotal.WithLabelValues(ticket, family).Inc()
	StatsComputeDuration.Observe(durationSeconds)
}

// UpdateCacheHitRatio updates the cache hit ratio gauge.
func UpdateCacheHitRatio(ratio float64) {
	StatsCacheHitRatio.Set(ratio)
}
