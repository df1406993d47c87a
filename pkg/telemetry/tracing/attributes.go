package tracing

import (
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// Attribute keys used on courier spans. Domain-specific keys live in the
// "courier.*" namespace; error keys follow OpenTelemetry conventions.
const (
	AttrProvider   = "courier.provider"
	AttrModel      = "courier.model"
	AttrDispatchID = "courier.dispatch_id"
	AttrPolicy     = "courier.policy"
	AttrOutcome    = "courier.outcome"
	AttrProxy      = "courier.proxy"
	AttrTargets    = "courier.targets"

	AttrTokensPrompt     = "courier.tokens.prompt"
	AttrTokensCompletion = "courier.tokens.completion"
	AttrTokensTotal      = "courier.tokens.total"

	AttrStatusKind = "courier.status_kind"
)

// DispatchAttributes returns the span attributes for a composite dispatch.
func DispatchAttributes(dispatchID, policy string, targets []string) []attribute.KeyValue {
	return []attribute.KeyValue{
		attribute.String(AttrDispatchID, dispatchID),
		attribute.String(AttrPolicy, policy),
		attribute.StringSlice(AttrTargets, targets),
	}
}

// SetProviderAttributes sets provider call attributes on a span.
func SetProviderAttributes(span trace.Span, provider, model string) {
	span.SetAttributes(
		attribute.String(AttrProvider, provider),
		attribute.String(AttrModel, model),
	)
}

// SetOutcomeAttribute records the dispatch outcome on a span.
func SetOutcomeAttribute(span trace.Span, outcome string) {
	span.SetAttributes(attribute.String(AttrOutcome, outcome))
}

// SetStatusKindAttribute records the normalized error kind of a provider
// call on a span.
func SetStatusKindAttribute(span trace.Span, kind string) {
	span.SetAttributes(attribute.String(AttrStatusKind, kind))
}

// SetTokenAttributes records token usage on a span.
func SetTokenAttributes(span trace.Span, promptTokens, completionTokens int) {
	span.SetAttributes(
		attribute.Int(AttrTokensPrompt, promptTokens),
		attribute.Int(AttrTokensCompletion, completionTokens),
		attribute.Int(AttrTokensTotal, promptTokens+completionTokens),
	)
}
