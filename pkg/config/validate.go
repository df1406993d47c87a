package config

import (
	"fmt"
	"net/url"
	"strings"
)

// FieldError represents a validation error for a specific configuration field.
type FieldError struct {
	// Field is the dotted path to the configuration field
	// (e.g., "providers.openai.base_url").
	Field string

	// Message is a human-readable error message.
	Message string
}

// Error returns the error message for this field error.
func (e FieldError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// ValidationError represents one or more validation errors in a configuration.
// It implements the error interface and provides access to all field errors.
type ValidationError struct {
	// Errors contains all validation errors found in the configuration.
	Errors []FieldError
}

// Error returns a formatted string containing all validation errors.
func (e ValidationError) Error() string {
	if len(e.Errors) == 0 {
		return "configuration validation failed"
	}
	if len(e.Errors) == 1 {
		return fmt.Sprintf("configuration validation failed: %s", e.Errors[0].Error())
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("configuration validation failed with %d errors:\n", len(e.Errors)))
	for _, err := range e.Errors {
		sb.WriteString(fmt.Sprintf("  - %s\n", err.Error()))
	}
	return sb.String()
}

// validMergePolicies lists the recognized merge policy names.
var validMergePolicies = map[string]bool{
	"first_success": true,
	"all_required":  true,
	"best_effort":   true,
}

// Validate validates the entire configuration and returns a ValidationError
// if any validation rules fail. All validation errors are collected and
// returned together.
func Validate(cfg *Config) error {
	var errs []FieldError

	errs = append(errs, validateProviders(cfg.Providers)...)
	errs = append(errs, validateDispatch(&cfg.Dispatch, cfg.Providers)...)
	errs = append(errs, validateTelemetry(&cfg.Telemetry)...)

	if len(errs) > 0 {
		return ValidationError{Errors: errs}
	}

	return nil
}

// validateProviders validates all provider configurations.
func validateProviders(providers map[string]ProviderConfig) []FieldError {
	var errs []FieldError

	for name, p := range providers {
		field := func(f string) string { return fmt.Sprintf("providers.%s.%s", name, f) }

		// OpenAI and Anthropic have canonical endpoints; only
		// generic-shaped providers must name theirs.
		if p.BaseURL == "" {
			if effectiveType(name, p.Type) == "generic" {
				errs = append(errs, FieldError{
					Field:   field("base_url"),
					Message: "base URL is required for generic providers",
				})
			}
		} else if u, err := url.Parse(p.BaseURL); err != nil || (u.Scheme != "http" && u.Scheme != "https") {
			errs = append(errs, FieldError{
				Field:   field("base_url"),
				Message: fmt.Sprintf("invalid base URL %q (must be http or https)", p.BaseURL),
			})
		}

		if p.ProxyURL != "" && !strings.HasPrefix(p.ProxyURL, "http://") && !strings.HasPrefix(p.ProxyURL, "https://") {
			errs = append(errs, FieldError{
				Field:   field("proxy_url"),
				Message: fmt.Sprintf("invalid proxy URL %q (must start with http:// or https://)", p.ProxyURL),
			})
		}

		if p.Timeout < 0 {
			errs = append(errs, FieldError{
				Field:   field("timeout"),
				Message: "timeout cannot be negative",
			})
		}

		if p.MaxConcurrent < 0 {
			errs = append(errs, FieldError{
				Field:   field("max_concurrent"),
				Message: "max_concurrent cannot be negative",
			})
		}

		if p.Type != "" && p.Type != "openai" && p.Type != "anthropic" && p.Type != "generic" {
			errs = append(errs, FieldError{
				Field:   field("type"),
				Message: fmt.Sprintf("unsupported provider type %q (supported: openai, anthropic, generic)", p.Type),
			})
		}
	}

	return errs
}

// effectiveType mirrors the factory's type inference: names containing
// "openai" or "anthropic"/"claude" map to those wire shapes, everything
// else is generic.
func effectiveType(name, explicit string) string {
	if explicit != "" {
		return explicit
	}
	lower := strings.ToLower(name)
	switch {
	case strings.Contains(lower, "openai"):
		return "openai"
	case strings.Contains(lower, "anthropic"), strings.Contains(lower, "claude"):
		return "anthropic"
	default:
		return "generic"
	}
}

// validateDispatch validates the dispatch configuration.
func validateDispatch(d *DispatchConfig, providers map[string]ProviderConfig) []FieldError {
	var errs []FieldError

	if d.MergePolicy != "" && !validMergePolicies[d.MergePolicy] {
		errs = append(errs, FieldError{
			Field:   "dispatch.merge_policy",
			Message: fmt.Sprintf("unknown merge policy %q (supported: first_success, all_required, best_effort)", d.MergePolicy),
		})
	}

	if d.Deadline < 0 {
		errs = append(errs, FieldError{
			Field:   "dispatch.deadline",
			Message: "deadline cannot be negative",
		})
	}

	for _, target := range d.Targets {
		if _, ok := providers[target]; !ok {
			errs = append(errs, FieldError{
				Field:   "dispatch.targets",
				Message: fmt.Sprintf("target %q does not match any configured provider", target),
			})
		}
	}

	return errs
}

// validateTelemetry validates the telemetry configuration.
func validateTelemetry(t *TelemetryConfig) []FieldError {
	var errs []FieldError

	switch t.Logging.Level {
	case "", "debug", "info", "warn", "error":
	default:
		errs = append(errs, FieldError{
			Field:   "telemetry.logging.level",
			Message: fmt.Sprintf("invalid log level %q (supported: debug, info, warn, error)", t.Logging.Level),
		})
	}

	switch t.Logging.Format {
	case "", "json", "text":
	default:
		errs = append(errs, FieldError{
			Field:   "telemetry.logging.format",
			Message: fmt.Sprintf("invalid log format %q (supported: json, text)", t.Logging.Format),
		})
	}

	for i, b := range t.Metrics.LatencyBuckets {
		if i > 0 && b <= t.Metrics.LatencyBuckets[i-1] {
			errs = append(errs, FieldError{
				Field:   "telemetry.metrics.latency_buckets",
				Message: "latency buckets must be strictly increasing",
			})
			break
		}
	}

	switch t.Tracing.Sampler {
	case "", "always", "never", "ratio":
	default:
		errs = append(errs, FieldError{
			Field:   "telemetry.tracing.sampler",
			Message: fmt.Sprintf("invalid sampler %q (supported: always, never, ratio)", t.Tracing.Sampler),
		})
	}

	if t.Tracing.SampleRatio < 0.0 || t.Tracing.SampleRatio > 1.0 {
		errs = append(errs, FieldError{
			Field:   "telemetry.tracing.sample_ratio",
			Message: "sample ratio must be between 0.0 and 1.0",
		})
	}

	if t.Tracing.Enabled && t.Tracing.Endpoint == "" {
		errs = append(errs, FieldError{
			Field:   "telemetry.tracing.endpoint",
			Message: "endpoint is required when tracing is enabled",
		})
	}

	return errs
}
