package metrics

import (
	"time"

	"mercury-hq/courier/pkg/config"
	"mercury-hq/courier/pkg/providers"

	"github.com/prometheus/client_golang/prometheus"
)

// Collector owns all Prometheus metrics for the dispatch subsystem. It
// implements providers.EventSink so provider clients can feed it directly.
type Collector struct {
	config   config.MetricsConfig
	registry *prometheus.Registry

	provider *ProviderMetrics
	dispatch *DispatchMetrics
}

// NewCollector creates a metrics collector backed by registry. If registry
// is nil a fresh one is created, keeping courier metrics separate from any
// process-global collectors.
func NewCollector(cfg config.MetricsConfig, registry *prometheus.Registry) *Collector {
	if registry == nil {
		registry = prometheus.NewRegistry()
	}

	if cfg.Namespace == "" {
		cfg.Namespace = "courier"
	}
	if len(cfg.LatencyBuckets) == 0 {
		// LLM upstream calls routinely run from sub-second to tens of seconds.
		cfg.LatencyBuckets = []float64{0.1, 0.25, 0.5, 1.0, 2.0, 5.0, 10.0, 30.0, 60.0}
	}

	return &Collector{
		config:   cfg,
		registry: registry,
		provider: NewProviderMetrics(cfg, registry),
		dispatch: NewDispatchMetrics(cfg, registry),
	}
}

// RecordCall implements providers.EventSink. One event is recorded per
// provider call, successful or not.
func (c *Collector) RecordCall(event providers.CallEvent) {
	if !c.config.Enabled {
		return
	}

	c.provider.RecordCall(event)
}

// ObserveDispatch records the outcome and duration of one composite
// dispatch.
func (c *Collector) ObserveDispatch(policy, outcome string, elapsed time.Duration) {
	if !c.config.Enabled {
		return
	}

	c.dispatch.Observe(policy, outcome, elapsed)
}

// RegisterPoolGauge exposes a provider pool's in-use slot count as a gauge.
// fn is called at scrape time.
func (c *Collector) RegisterPoolGauge(provider string, fn func() float64) {
	if !c.config.Enabled {
		return
	}

	c.registry.MustRegister(prometheus.NewGaugeFunc(
		prometheus.GaugeOpts{
			Namespace:   c.config.Namespace,
			Subsystem:   c.config.Subsystem,
			Name:        "pool_in_use",
			Help:        "Transport pool slots currently held",
			ConstLabels: prometheus.Labels{"provider": provider},
		},
		fn,
	))
}

// Registry returns the Prometheus registry used by this collector.
func (c *Collector) Registry() *prometheus.Registry {
	return c.registry
}
