package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// LoadConfig loads configuration from a YAML file at the specified path.
// It applies default values, validates the configuration, and returns any
// errors. Environment variables are not consulted; use
// LoadConfigWithEnvOverrides for that behavior.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read configuration file %q: %w", path, err)
	}

	return ParseConfig(data)
}

// ParseConfig parses YAML configuration bytes, applies defaults, and
// validates the result.
func ParseConfig(data []byte) (*Config, error) {
	cfg := NewDefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse configuration: %w", err)
	}

	ApplyDefaults(cfg)

	if err := Validate(cfg); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return cfg, nil
}

// LoadConfigWithEnvOverrides loads configuration from a YAML file and applies
// environment variable overrides. Environment variables follow the naming
// convention COURIER_SECTION_FIELD (e.g., COURIER_DISPATCH_MERGE_POLICY) and
// always take precedence over file-based configuration.
//
// The loading sequence is:
//  1. Load YAML from file
//  2. Apply default values
//  3. Apply environment variable overrides
//  4. Validate final configuration
func LoadConfigWithEnvOverrides(path string) (*Config, error) {
	cfg, err := LoadConfig(path)
	if err != nil {
		return nil, err
	}

	applyEnvOverrides(cfg)

	if err := Validate(cfg); err != nil {
		return nil, fmt.Errorf("configuration validation failed after environment overrides: %w", err)
	}

	return cfg, nil
}

// applyEnvOverrides applies environment variable overrides to the
// configuration. Provider overrides use the provider name uppercased with
// dashes replaced by underscores: COURIER_PROVIDER_<NAME>_<FIELD>.
func applyEnvOverrides(cfg *Config) {
	for name := range cfg.Providers {
		applyProviderEnvOverrides(cfg, name)
	}

	// Dispatch overrides
	if val := os.Getenv("COURIER_DISPATCH_MERGE_POLICY"); val != "" {
		cfg.Dispatch.MergePolicy = val
	}
	if val := os.Getenv("COURIER_DISPATCH_DEADLINE"); val != "" {
		if d, err := time.ParseDuration(val); err == nil {
			cfg.Dispatch.Deadline = d
		}
	}
	if val := os.Getenv("COURIER_DISPATCH_TARGETS"); val != "" {
		cfg.Dispatch.Targets = splitAndTrim(val)
	}
	if val := os.Getenv("COURIER_DISPATCH_SKIP_UNHEALTHY"); val != "" {
		if b, err := strconv.ParseBool(val); err == nil {
			cfg.Dispatch.SkipUnhealthy = b
		}
	}

	// Telemetry overrides
	if val := os.Getenv("COURIER_LOGGING_LEVEL"); val != "" {
		cfg.Telemetry.Logging.Level = val
	}
	if val := os.Getenv("COURIER_LOGGING_FORMAT"); val != "" {
		cfg.Telemetry.Logging.Format = val
	}
	if val := os.Getenv("COURIER_METRICS_ENABLED"); val != "" {
		if b, err := strconv.ParseBool(val); err == nil {
			cfg.Telemetry.Metrics.Enabled = b
		}
	}
}

// applyProviderEnvOverrides applies environment overrides for a single
// provider's fields.
func applyProviderEnvOverrides(cfg *Config, name string) {
	p := cfg.Providers[name]
	prefix := "COURIER_PROVIDER_" + envKey(name) + "_"

	if val := os.Getenv(prefix + "API_KEY"); val != "" {
		p.APIKey = val
	}
	if val := os.Getenv(prefix + "BASE_URL"); val != "" {
		p.BaseURL = val
	}
	if val := os.Getenv(prefix + "PROXY_URL"); val != "" {
		p.ProxyURL = val
	}
	if val := os.Getenv(prefix + "TIMEOUT"); val != "" {
		if d, err := time.ParseDuration(val); err == nil {
			p.Timeout = d
		}
	}
	if val := os.Getenv(prefix + "MAX_CONCURRENT"); val != "" {
		if i, err := strconv.Atoi(val); err == nil {
			p.MaxConcurrent = i
		}
	}

	cfg.Providers[name] = p
}

// envKey converts a provider name to its environment variable segment.
func envKey(name string) string {
	return strings.ToUpper(strings.ReplaceAll(name, "-", "_"))
}

// splitAndTrim splits a comma-separated list and trims whitespace.
func splitAndTrim(s string) []string {
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if t := strings.TrimSpace(p); t != "" {
			out = append(out, t)
		}
	}
	return out
}
