package providers

import (
	"encoding/json"
	"time"
)

// Message represents a single message in a conversation.
// It is provider-agnostic and is transformed to provider-specific formats
// by each adapter.
type Message struct {
	// Role identifies the message sender (system, user, assistant)
	Role string `json:"role"`

	// Content is the message text content
	Content string `json:"content"`

	// Name is an optional name for the message sender
	Name string `json:"name,omitempty"`
}

// CompletionRequest is the request envelope for one logical chat/completion
// call. It is passed by value through the dispatch layer and never mutated
// after creation; adapters build their own wire representation from it.
type CompletionRequest struct {
	// Model is the model identifier (e.g., "gpt-4o", "claude-sonnet-4-5")
	Model string `json:"model"`

	// Messages is the conversation history
	Messages []Message `json:"messages"`

	// Temperature controls randomness (0.0 to 2.0)
	Temperature float64 `json:"temperature,omitempty"`

	// MaxTokens is the maximum number of tokens to generate
	MaxTokens int `json:"max_tokens,omitempty"`

	// TopP controls nucleus sampling (0.0 to 1.0)
	TopP float64 `json:"top_p,omitempty"`

	// Stream indicates whether to stream the response
	Stream bool `json:"stream,omitempty"`

	// Stop sequences that will halt generation
	Stop []string `json:"stop,omitempty"`

	// User is an optional end-user identifier for abuse monitoring
	User string `json:"user,omitempty"`
}

// CompletionResponse is the normalized response from a provider call.
type CompletionResponse struct {
	// ID is the unique response identifier assigned by the provider
	ID string `json:"id"`

	// Model is the model that generated the response
	Model string `json:"model"`

	// Content is the generated text content
	Content string `json:"content"`

	// FinishReason indicates why generation stopped
	// (stop, length, content_filter)
	FinishReason string `json:"finish_reason"`

	// Usage contains token consumption information
	Usage TokenUsage `json:"usage"`

	// Created is the Unix timestamp when the response was created
	Created int64 `json:"created"`

	// Raw is the provider's original response document, kept verbatim so
	// composite merging can hand callers the upstream bodies untouched.
	Raw json.RawMessage `json:"-"`
}

// TokenUsage tracks token consumption for a request.
type TokenUsage struct {
	// PromptTokens is the number of tokens in the prompt
	PromptTokens int `json:"prompt_tokens"`

	// CompletionTokens is the number of tokens in the completion
	CompletionTokens int `json:"completion_tokens"`

	// TotalTokens is the total number of tokens used
	TotalTokens int `json:"total_tokens"`
}

// StreamChunk represents a single chunk in a streaming response.
type StreamChunk struct {
	// ID is the response identifier (same across all chunks)
	ID string `json:"id"`

	// Model is the model generating the response
	Model string `json:"model"`

	// Delta is the incremental content in this chunk
	Delta string `json:"delta"`

	// FinishReason is set in the final chunk to indicate why generation stopped
	FinishReason string `json:"finish_reason,omitempty"`

	// Usage is included in the final chunk if the provider reports it
	Usage *TokenUsage `json:"usage,omitempty"`

	// Error is set if an error occurred during streaming
	Error error `json:"-"`
}

// ClientConfig contains configuration for a single provider client.
// It is immutable after construction and owned exclusively by one client.
type ClientConfig struct {
	// Name is the provider identifier (e.g., "openai", "local-vllm")
	Name string

	// Type is the wire shape spoken by the provider (openai, anthropic, generic)
	Type string

	// BaseURL is the API endpoint base URL
	BaseURL string

	// APIKey is the authentication key
	APIKey string

	// Timeout is the hard per-request deadline measured from request initiation
	Timeout time.Duration

	// ProxyURL is an optional explicit forward proxy. When set it must use
	// an http:// or https:// scheme and it disables environment proxy
	// discovery for this client entirely.
	ProxyURL string

	// MaxConcurrent bounds in-flight requests through this client's pool
	MaxConcurrent int

	// MaxIdleConns is the maximum number of idle connections in the pool
	MaxIdleConns int

	// MaxIdleConnsPerHost is the maximum idle connections per host
	MaxIdleConnsPerHost int

	// IdleConnTimeout is how long an idle connection remains in the pool
	IdleConnTimeout time.Duration
}

// ProviderHealth tracks the health status of a provider.
type ProviderHealth struct {
	// IsHealthy indicates whether the provider is currently healthy
	IsHealthy bool

	// LastCheck is the timestamp of the last health observation
	LastCheck time.Time

	// LastError is the most recent error encountered (nil if healthy)
	LastError error

	// ConsecutiveFailures counts sequential failures
	ConsecutiveFailures int

	// TotalRequests is the total number of requests sent to this provider
	TotalRequests int64

	// FailedRequests is the total number of failed requests
	FailedRequests int64
}

// Message role constants
const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Finish reason constants
const (
	FinishReasonStop          = "stop"
	FinishReasonLength        = "length"
	FinishReasonContentFilter = "content_filter"
)
