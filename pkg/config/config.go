package config

import "time"

// Config is the root configuration structure for Courier.
// It contains the provider definitions, composite dispatch settings, and
// telemetry settings consumed by the dispatch core. Everything else
// (listen addresses, container wiring, .env handling) belongs to the host
// service and is deliberately absent here.
type Config struct {
	// Providers contains configuration for all upstream provider endpoints.
	// Keys are provider names (e.g., "openai", "anthropic", "local-vllm").
	Providers map[string]ProviderConfig `yaml:"providers"`

	// Dispatch contains configuration for composite fan-out calls.
	Dispatch DispatchConfig `yaml:"dispatch"`

	// Telemetry contains configuration for logging and metrics.
	Telemetry TelemetryConfig `yaml:"telemetry"`
}

// ProviderConfig contains configuration for a single upstream provider.
type ProviderConfig struct {
	// Type is the wire shape spoken by the provider ("openai", "anthropic",
	// "generic"). If empty, it is inferred from the provider name.
	Type string `yaml:"type"`

	// BaseURL is the base URL for the provider's API endpoint.
	// Example: "https://api.openai.com/v1"
	BaseURL string `yaml:"base_url"`

	// APIKey is the authentication key. May reference an environment
	// variable via the COURIER_PROVIDER_<NAME>_API_KEY override.
	APIKey string `yaml:"api_key"`

	// Timeout is the hard per-request deadline measured from request
	// initiation. Default: 60s
	Timeout time.Duration `yaml:"timeout"`

	// ProxyURL is an optional explicit forward proxy for this provider's
	// outbound connections. When set, it must carry an http:// or https://
	// scheme and it disables HTTP_PROXY/HTTPS_PROXY discovery for this
	// provider entirely. When empty, the process environment is consulted
	// once at client construction.
	ProxyURL string `yaml:"proxy_url"`

	// MaxConcurrent bounds the number of in-flight requests to this
	// provider. Requests beyond the bound wait for a slot.
	// Default: 100
	MaxConcurrent int `yaml:"max_concurrent"`

	// MaxIdleConns is the maximum number of idle connections in the pool.
	// Default: 100
	MaxIdleConns int `yaml:"max_idle_conns"`

	// MaxIdleConnsPerHost is the maximum idle connections per host.
	// Default: 10
	MaxIdleConnsPerHost int `yaml:"max_idle_conns_per_host"`

	// IdleConnTimeout is how long an idle connection remains in the pool.
	// Default: 90s
	IdleConnTimeout time.Duration `yaml:"idle_conn_timeout"`

	// HealthSchedule is an optional cron expression controlling periodic
	// health probes (e.g., "*/30 * * * * *" with seconds enabled).
	// Empty disables probing for this provider.
	HealthSchedule string `yaml:"health_schedule"`
}

// DispatchConfig contains configuration for the composite dispatcher.
type DispatchConfig struct {
	// MergePolicy selects how multiple provider results become one
	// composite result: "first_success", "all_required", or "best_effort".
	// Default: "first_success"
	MergePolicy string `yaml:"merge_policy"`

	// Deadline bounds an entire composite call. Zero means no
	// dispatcher-imposed deadline (per-provider timeouts still apply).
	Deadline time.Duration `yaml:"deadline"`

	// Targets lists the provider names to fan out to, in registration
	// order. The order is significant: composite results are reported in
	// this order regardless of completion order. Empty means the caller
	// supplies targets per call.
	Targets []string `yaml:"targets"`

	// SkipUnhealthy excludes providers currently marked unhealthy from
	// fan-out. Default: false
	SkipUnhealthy bool `yaml:"skip_unhealthy"`
}

// TelemetryConfig contains configuration for observability.
type TelemetryConfig struct {
	// Logging contains structured logging configuration.
	Logging LoggingConfig `yaml:"logging"`

	// Metrics contains Prometheus metrics configuration.
	Metrics MetricsConfig `yaml:"metrics"`

	// Tracing contains distributed tracing configuration.
	Tracing TracingConfig `yaml:"tracing"`
}

// LoggingConfig contains structured logging configuration.
type LoggingConfig struct {
	// Level is the minimum log level ("debug", "info", "warn", "error").
	// Default: "info"
	Level string `yaml:"level"`

	// Format is the output format ("json", "text").
	// Default: "json"
	Format string `yaml:"format"`

	// RedactSecrets masks API keys and bearer tokens in log fields.
	// Default: true
	RedactSecrets bool `yaml:"redact_secrets"`

	// AddSource includes file and line number in logs.
	AddSource bool `yaml:"add_source"`
}

// TracingConfig contains OpenTelemetry tracing configuration.
type TracingConfig struct {
	// Enabled controls whether spans are recorded and exported.
	// Default: false
	Enabled bool `yaml:"enabled"`

	// ServiceName identifies this process in exported traces.
	// Default: "courier"
	ServiceName string `yaml:"service_name"`

	// Endpoint is the OTLP gRPC collector endpoint (host:port).
	Endpoint string `yaml:"endpoint"`

	// Insecure disables TLS on the collector connection.
	Insecure bool `yaml:"insecure"`

	// Sampler is the sampling strategy ("always", "never", "ratio").
	// Default: "always"
	Sampler string `yaml:"sampler"`

	// SampleRatio is the fraction of traces sampled under the "ratio"
	// strategy, between 0.0 and 1.0.
	SampleRatio float64 `yaml:"sample_ratio"`

	// Timeout bounds span export batches. Default: 10s
	Timeout time.Duration `yaml:"timeout"`
}

// MetricsConfig contains Prometheus metrics configuration.
type MetricsConfig struct {
	// Enabled controls whether metrics are collected.
	// Default: true
	Enabled bool `yaml:"enabled"`

	// Namespace is the Prometheus metric namespace.
	// Default: "courier"
	Namespace string `yaml:"namespace"`

	// Subsystem is the Prometheus metric subsystem. Default: ""
	Subsystem string `yaml:"subsystem"`

	// LatencyBuckets overrides the histogram buckets for provider latency,
	// in seconds. The default is tuned for LLM completion calls.
	LatencyBuckets []float64 `yaml:"latency_buckets"`
}
