// internal/metrics/metrics.go

package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the engine's prometheus instruments.
type Metrics struct {
	BatchRuns      prometheus.Counter
	BatchDuration  prometheus.Histogram
	OrgsScored     prometheus.Counter
	OrgFailures    prometheus.Counter
	TrendsFiltered prometheus.Counter
	TrendsTagged   prometheus.Counter
}

// New registers the engine metrics with the given registerer.
func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)

	return &Metrics{
		BatchRuns: factory.NewCounter(prometheus.CounterOpts{
			Name: "civicpulse_batch_runs_total",
			Help: "Completed relevance refresh runs.",
		}),
		BatchDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "civicpulse_batch_duration_seconds",
			Help:    "Wall-clock duration of relevance refresh runs.",
			Buckets: prometheus.ExponentialBuckets(0.1, 2, 12),
		}),
		OrgsScored: factory.NewCounter(prometheus.CounterOpts{
			Name: "civicpulse_orgs_scored_total",
			Help: "Organizations successfully scored across all runs.",
		}),
		OrgFailures: factory.NewCounter(prometheus.CounterOpts{
			Name: "civicpulse_org_failures_total",
			Help: "Organizations whose scoring failed and was isolated.",
		}),
		TrendsFiltered: factory.NewCounter(prometheus.CounterOpts{
			Name: "civicpulse_trends_filtered_total",
			Help: "Trends excluded from slates and written to the filter log.",
		}),
		TrendsTagged: factory.NewCounter(prometheus.CounterOpts{
			Name: "civicpulse_trends_tagged_total",
			Help: "Trends classified during the shared tagging pass.",
		}),
	}
}
