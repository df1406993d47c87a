package tracing

import (
	"fmt"

	sdktrace "go.opentelemetry.io/otel/sdk/trace"
)

// Sampling strategy names accepted in configuration.
const (
	// SamplerAlways samples every trace.
	SamplerAlways = "always"

	// SamplerNever samples no traces.
	SamplerNever = "never"

	// SamplerRatio samples a fraction of traces by trace-ID hash, so the
	// decision is consistent across services sharing a trace.
	SamplerRatio = "ratio"
)

// createSampler builds the configured sampler. Every strategy is wrapped
// in ParentBased so a parent span's sampling decision is respected.
func createSampler(strategy string, ratio float64) (sdktrace.Sampler, error) {
	var base sdktrace.Sampler

	switch strategy {
	case SamplerAlways, "":
		base = sdktrace.AlwaysSample()

	case SamplerNever:
		base = sdktrace.NeverSample()

	case SamplerRatio:
		if ratio < 0.0 || ratio > 1.0 {
			return nil, fmt.Errorf("sample ratio must be between 0.0 and 1.0, got %f", ratio)
		}
		base = sdktrace.TraceIDRatioBased(ratio)

	default:
		return nil, fmt.Errorf("unknown sampler strategy %q (valid: always, never, ratio)", strategy)
	}

	return sdktrace.ParentBased(base), nil
}
