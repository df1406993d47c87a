package config

import "time"

// Default values for configuration fields.
const (
	// Provider defaults
	DefaultProviderTimeout     = 60 * time.Second
	DefaultMaxConcurrent       = 100
	DefaultMaxIdleConns        = 100
	DefaultMaxIdleConnsPerHost = 10
	DefaultIdleConnTimeout     = 90 * time.Second

	// Dispatch defaults
	DefaultMergePolicy = "first_success"

	// Telemetry defaults
	DefaultLoggingLevel       = "info"
	DefaultLoggingFormat      = "json"
	DefaultMetricsNamespace   = "courier"
	DefaultTracingServiceName = "courier"
	DefaultTracingSampler     = "always"
	DefaultTracingTimeout     = 10 * time.Second
)

// NewDefaultConfig returns a configuration pre-populated with default values
// for fields whose zero value differs from the default (booleans). YAML
// unmarshaling overlays the file contents on top of this, so absent fields
// keep their defaults.
func NewDefaultConfig() *Config {
	return &Config{
		Providers: make(map[string]ProviderConfig),
		Telemetry: TelemetryConfig{
			Logging: LoggingConfig{
				RedactSecrets: true,
			},
			Metrics: MetricsConfig{
				Enabled: true,
			},
		},
	}
}

// ApplyDefaults fills in default values for any configuration fields that
// were not explicitly set. It modifies the configuration in place.
func ApplyDefaults(cfg *Config) {
	for name, p := range cfg.Providers {
		if p.Timeout == 0 {
			p.Timeout = DefaultProviderTimeout
		}
		if p.MaxConcurrent == 0 {
			p.MaxConcurrent = DefaultMaxConcurrent
		}
		if p.MaxIdleConns == 0 {
			p.MaxIdleConns = DefaultMaxIdleConns
		}
		if p.MaxIdleConnsPerHost == 0 {
			p.MaxIdleConnsPerHost = DefaultMaxIdleConnsPerHost
		}
		if p.IdleConnTimeout == 0 {
			p.IdleConnTimeout = DefaultIdleConnTimeout
		}
		cfg.Providers[name] = p
	}

	if cfg.Dispatch.MergePolicy == "" {
		cfg.Dispatch.MergePolicy = DefaultMergePolicy
	}

	if cfg.Telemetry.Logging.Level == "" {
		cfg.Telemetry.Logging.Level = DefaultLoggingLevel
	}
	if cfg.Telemetry.Logging.Format == "" {
		cfg.Telemetry.Logging.Format = DefaultLoggingFormat
	}
	if cfg.Telemetry.Metrics.Namespace == "" {
		cfg.Telemetry.Metrics.Namespace = DefaultMetricsNamespace
	}
	if cfg.Telemetry.Tracing.ServiceName == "" {
		cfg.Telemetry.Tracing.ServiceName = DefaultTracingServiceName
	}
	if cfg.Telemetry.Tracing.Sampler == "" {
		cfg.Telemetry.Tracing.Sampler = DefaultTracingSampler
	}
	if cfg.Telemetry.Tracing.Timeout == 0 {
		cfg.Telemetry.Tracing.Timeout = DefaultTracingTimeout
	}
}
