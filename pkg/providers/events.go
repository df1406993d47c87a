package providers

import (
	"context"
	"log/slog"
)

// CallEvent is the structured diagnostic event emitted once per provider
// call. The core does not prescribe a sink; the host service supplies one
// (logging, metrics, both) at construction time.
type CallEvent struct {
	// DispatchID identifies the composite call this provider call belongs
	// to, empty for direct calls.
	DispatchID string

	// ProviderID is the provider's configured name.
	ProviderID string

	// ProxyUsed is the proxy host applied to the connection, "" for none.
	ProxyUsed string

	// LatencyMs is the call latency in milliseconds.
	LatencyMs int64

	// StatusKind is one of the StatusKind constants.
	StatusKind string
}

// EventSink receives per-call diagnostic events. Implementations must be
// safe for concurrent use; RecordCall is invoked from request goroutines
// and must not block.
type EventSink interface {
	RecordCall(event CallEvent)
}

// SlogSink emits call events as debug-level structured log entries.
type SlogSink struct {
	logger *slog.Logger
}

// NewSlogSink creates an event sink backed by the given logger.
// A nil logger falls back to slog.Default().
func NewSlogSink(logger *slog.Logger) *SlogSink {
	if logger == nil {
		logger = slog.Default()
	}
	return &SlogSink{logger: logger}
}

// RecordCall logs the event.
func (s *SlogSink) RecordCall(event CallEvent) {
	s.logger.Debug("provider call",
		"dispatch_id", event.DispatchID,
		"provider", event.ProviderID,
		"proxy", event.ProxyUsed,
		"latency_ms", event.LatencyMs,
		"status", event.StatusKind,
	)
}

// MultiSink fans events out to several sinks.
type MultiSink []EventSink

// RecordCall forwards the event to every sink.
func (m MultiSink) RecordCall(event CallEvent) {
	for _, s := range m {
		s.RecordCall(event)
	}
}

// dispatchIDKey is the context key carrying the composite dispatch ID.
type dispatchIDKey struct{}

// WithDispatchID returns a context carrying the composite dispatch ID so
// provider calls can stamp it onto their events.
func WithDispatchID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, dispatchIDKey{}, id)
}

// DispatchIDFromContext extracts the dispatch ID, or "" when absent.
func DispatchIDFromContext(ctx context.Context) string {
	id, _ := ctx.Value(dispatchIDKey{}).(string)
	return id
}
