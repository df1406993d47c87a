package metrics

import (
	"mercury-hq/courier/pkg/config"
	"mercury-hq/courier/pkg/providers"

	"github.com/prometheus/client_golang/prometheus"
)

// ProviderMetrics tracks per-provider call metrics.
//
// Metrics:
//   - courier_provider_requests_total: calls per provider and status kind
//   - courier_provider_latency_seconds: call latency per provider
//   - courier_provider_errors_total: failed calls per provider and error kind
type ProviderMetrics struct {
	requests *prometheus.CounterVec
	latency  *prometheus.HistogramVec
	errors   *prometheus.CounterVec
}

// NewProviderMetrics creates and registers provider metrics with registry.
func NewProviderMetrics(cfg config.MetricsConfig, registry *prometheus.Registry) *ProviderMetrics {
	pm := &ProviderMetrics{
		requests: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: cfg.Namespace,
				Subsystem: cfg.Subsystem,
				Name:      "provider_requests_total",
				Help:      "Total provider calls by status kind",
			},
			[]string{"provider", "status"},
		),

		latency: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: cfg.Namespace,
				Subsystem: cfg.Subsystem,
				Name:      "provider_latency_seconds",
				Help:      "Provider call latency in seconds",
				Buckets:   cfg.LatencyBuckets,
			},
			[]string{"provider"},
		),

		errors: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: cfg.Namespace,
				Subsystem: cfg.Subsystem,
				Name:      "provider_errors_total",
				Help:      "Total failed provider calls by error kind",
			},
			[]string{"provider", "kind"},
		),
	}

	registry.MustRegister(pm.requests, pm.latency, pm.errors)

	return pm
}

// RecordCall records one provider call event.
func (pm *ProviderMetrics) RecordCall(event providers.CallEvent) {
	pm.requests.WithLabelValues(event.ProviderID, event.StatusKind).Inc()
	pm.latency.WithLabelValues(event.ProviderID).Observe(float64(event.LatencyMs) / 1000.0)

	if event.StatusKind != providers.StatusKindOK {
		pm.errors.WithLabelValues(event.ProviderID, event.StatusKind).Inc()
	}
}
