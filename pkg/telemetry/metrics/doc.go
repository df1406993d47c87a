// Package metrics exposes Prometheus metrics for provider calls and
// composite dispatches.
//
// The Collector implements providers.EventSink, so wiring it into a
// provider client is a one-liner; dispatch outcomes are recorded by the
// dispatcher through ObserveDispatch. All metrics live in a dedicated
// registry served by Handler.
package metrics
