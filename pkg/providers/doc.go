// Package providers contains the client-side core of the dispatch layer:
// proxy resolution, the bounded transport pool, the base HTTP client with
// deadline enforcement and error classification, and the Provider interface
// implemented by the wire-shape adapters in the subpackages.
//
// # Proxy resolution
//
// Each client resolves its proxy exactly once, at construction. An explicit
// proxy URL must use an http:// or https:// scheme — anything else fails
// construction with ErrInvalidProxyConfig — and pins the client to that
// proxy, disabling HTTP_PROXY/HTTPS_PROXY discovery so a proxy is never
// applied from both sources. Without an explicit value, the environment is
// read once and NO_PROXY exclusions apply per destination.
//
// # Pooling
//
// A TransportPool bounds concurrent in-flight requests per client (default
// 100) on top of the usual keep-alive connection reuse. Slots are released
// on every exit path, including timeout and cancellation, and the pool
// survives until the owning client is closed.
//
// # Error taxonomy
//
// Provider failures normalize to typed errors: AuthError (401/403),
// RateLimitError (429), TimeoutError (per-provider deadline), UpstreamError
// (other non-2xx, classified), and ParseError (malformed response bodies).
// StatusKindOf maps any of these to a stable label for events and metrics.
// The core never retries; retry policy belongs to callers.
package providers
