package providers

import "context"

// Provider is the interface implemented by all upstream adapters. Each
// adapter speaks one wire shape (OpenAI, Anthropic, OpenAI-compatible) and
// normalizes its responses and errors into the common types.
//
// All methods accept a context.Context for cancellation and deadline
// control. Implementations must respect cancellation and return promptly
// when the context is done, releasing their pool slot on every exit path.
type Provider interface {
	// SendCompletion sends one completion request and returns the
	// normalized response. Failures come back as errors from the package
	// taxonomy (AuthError, RateLimitError, TimeoutError, UpstreamError,
	// ParseError); nothing is retried.
	SendCompletion(ctx context.Context, req *CompletionRequest) (*CompletionResponse, error)

	// StreamCompletion sends a streaming completion request and returns a
	// channel of incremental chunks. The channel closes when the stream
	// ends; a mid-stream failure is delivered as a final chunk with Error
	// set. Cancelling the context closes the stream.
	StreamCompletion(ctx context.Context, req *CompletionRequest) (<-chan *StreamChunk, error)

	// HealthCheck performs a lightweight reachability probe.
	HealthCheck(ctx context.Context) error

	// Name returns the provider's configured name.
	Name() string

	// Type returns the provider's wire-shape type.
	Type() string

	// Config returns the provider's configuration.
	Config() ClientConfig

	// IsHealthy returns the current health status, updated by calls and
	// probes. Dispatchers may use it to exclude failing providers.
	IsHealthy() bool

	// Health returns detailed health information.
	Health() ProviderHealth

	// Pool returns the client's transport pool.
	Pool() *TransportPool

	// Close releases the provider's pooled connections. Callers drain
	// in-flight requests first; Close is idempotent.
	Close() error
}
