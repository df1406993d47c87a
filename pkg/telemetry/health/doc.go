// Package health exposes liveness and readiness probes for courier.
//
// A Checker aggregates named component checks; the provider manager's
// ReadinessCheck is the usual registration, so /ready answers 503 while
// no provider is healthy. Routes mounts the standard /health, /ready,
// and /version endpoints on an http.ServeMux.
package health
