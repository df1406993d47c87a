// Package tracing provides OpenTelemetry tracing for courier.
//
// A Tracer is built from config.TracingConfig. When tracing is disabled
// the Tracer is a noop, so the dispatcher and provider instrumentation
// can call it unconditionally. When enabled, spans are exported over
// OTLP gRPC with batched export and configurable sampling.
//
// The dispatcher opens one span per composite dispatch and one child
// span per provider call, carrying the dispatch ID, merge policy,
// provider name, and normalized error kind as attributes.
package tracing
