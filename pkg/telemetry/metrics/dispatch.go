package metrics

import (
	"time"

	"mercury-hq/courier/pkg/config"

	"github.com/prometheus/client_golang/prometheus"
)

// DispatchMetrics tracks composite dispatch outcomes.
//
// Metrics:
//   - courier_dispatch_total: dispatches by merge policy and outcome
//   - courier_dispatch_duration_seconds: wall time per dispatch by policy
type DispatchMetrics struct {
	total    *prometheus.CounterVec
	duration *prometheus.HistogramVec
}

// NewDispatchMetrics creates and registers dispatch metrics with registry.
func NewDispatchMetrics(cfg config.MetricsConfig, registry *prometheus.Registry) *DispatchMetrics {
	dm := &DispatchMetrics{
		total: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: cfg.Namespace,
				Subsystem: cfg.Subsystem,
				Name:      "dispatch_total",
				Help:      "Total composite dispatches by merge policy and outcome",
			},
			[]string{"policy", "outcome"},
		),

		duration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: cfg.Namespace,
				Subsystem: cfg.Subsystem,
				Name:      "dispatch_duration_seconds",
				Help:      "Composite dispatch wall time in seconds",
				Buckets:   cfg.LatencyBuckets,
			},
			[]string{"policy"},
		),
	}

	registry.MustRegister(dm.total, dm.duration)

	return dm
}

// Observe records one completed dispatch.
func (dm *DispatchMetrics) Observe(policy, outcome string, elapsed time.Duration) {
	dm.total.WithLabelValues(policy, outcome).Inc()
	dm.duration.WithLabelValues(policy).Observe(elapsed.Seconds())
}
