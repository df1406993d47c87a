package providers

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// Sentinel errors usable with errors.Is().
var (
	// ErrInvalidProxyConfig is returned when an explicit proxy URL does not
	// carry a recognized scheme. This is fatal at client construction; a
	// malformed value is never silently ignored.
	ErrInvalidProxyConfig = errors.New("invalid proxy configuration")

	// ErrTimeout is returned when a provider call exceeds its deadline.
	ErrTimeout = errors.New("provider request timeout")
)

// Status kind constants used for classification, events, and metrics.
const (
	StatusKindOK           = "ok"
	StatusKindAuth         = "auth"
	StatusKindRateLimit    = "rate_limit"
	StatusKindBadRequest   = "malformed_request"
	StatusKindServerError  = "server_error"
	StatusKindTimeout      = "timeout"
	StatusKindCancelled    = "cancelled"
	StatusKindParseFailure = "parse_failure"
	StatusKindUnknown      = "unknown"
)

// InvalidProxyConfigError is returned when an explicit proxy URL is
// malformed (unrecognized scheme or unparseable).
type InvalidProxyConfigError struct {
	// ProxyURL is the rejected proxy value
	ProxyURL string

	// Reason describes why the value was rejected
	Reason string
}

// Error implements the error interface.
func (e *InvalidProxyConfigError) Error() string {
	return fmt.Sprintf("invalid proxy URL %q: %s", e.ProxyURL, e.Reason)
}

// Is implements error matching for errors.Is().
func (e *InvalidProxyConfigError) Is(target error) bool {
	return target == ErrInvalidProxyConfig
}

// AuthError represents an authentication failure (HTTP 401 or 403).
type AuthError struct {
	// Provider is the name of the provider that rejected authentication
	Provider string

	// Message is the error message from the provider
	Message string
}

// Error implements the error interface.
func (e *AuthError) Error() string {
	return fmt.Sprintf("provider %q authentication failed: %s", e.Provider, e.Message)
}

// RateLimitError represents a rate limit exceeded error (HTTP 429).
type RateLimitError struct {
	// Provider is the name of the provider that rate limited the request
	Provider string

	// RetryAfter is the duration to wait before retrying (if provided)
	RetryAfter time.Duration

	// Message is the error message from the provider
	Message string
}

// Error implements the error interface.
func (e *RateLimitError) Error() string {
	if e.RetryAfter > 0 {
		return fmt.Sprintf("provider %q rate limit exceeded (retry after %s): %s",
			e.Provider, e.RetryAfter, e.Message)
	}
	return fmt.Sprintf("provider %q rate limit exceeded: %s", e.Provider, e.Message)
}

// TimeoutError represents a request that exceeded the per-provider deadline.
// The in-flight connection is aborted when this is returned.
type TimeoutError struct {
	// Provider is the name of the provider where the timeout occurred
	Provider string

	// Timeout is the configured deadline
	Timeout time.Duration
}

// Error implements the error interface.
func (e *TimeoutError) Error() string {
	return fmt.Sprintf("provider %q request timeout after %s", e.Provider, e.Timeout)
}

// Is implements error matching for errors.Is().
func (e *TimeoutError) Is(target error) bool {
	return target == ErrTimeout
}

// UpstreamError represents a non-2xx provider response that is neither an
// authentication nor a rate-limit failure. Kind classifies the failure.
type UpstreamError struct {
	// Provider is the name of the provider that returned the error
	Provider string

	// StatusCode is the HTTP status code
	StatusCode int

	// Kind is the classified failure kind (malformed_request, server_error, unknown)
	Kind string

	// Message is the error message extracted from the response body
	Message string
}

// Error implements the error interface.
func (e *UpstreamError) Error() string {
	return fmt.Sprintf("provider %q error (status %d, %s): %s",
		e.Provider, e.StatusCode, e.Kind, e.Message)
}

// ParseError represents a response parsing failure.
type ParseError struct {
	// Provider is the name of the provider that returned the malformed response
	Provider string

	// RawResponse is the raw response body that failed to parse
	RawResponse string

	// Cause is the underlying parse error
	Cause error
}

// Error implements the error interface.
func (e *ParseError) Error() string {
	return fmt.Sprintf("provider %q response parse error: %v", e.Provider, e.Cause)
}

// Unwrap returns the underlying error for error chain support.
func (e *ParseError) Unwrap() error {
	return e.Cause
}

// ConfigError represents an invalid client configuration.
type ConfigError struct {
	// Provider is the name of the provider with invalid configuration
	Provider string

	// Field is the configuration field that is invalid
	Field string

	// Message describes the configuration error
	Message string
}

// Error implements the error interface.
func (e *ConfigError) Error() string {
	return fmt.Sprintf("provider %q configuration error for field %q: %s",
		e.Provider, e.Field, e.Message)
}

// ValidationError represents a request validation failure before sending.
type ValidationError struct {
	// Field is the name of the invalid field
	Field string

	// Message describes what is invalid about the field
	Message string
}

// Error implements the error interface.
func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation error for field %q: %s", e.Field, e.Message)
}

// StreamError represents an error that occurred during streaming.
type StreamError struct {
	// Provider is the name of the provider where the error occurred
	Provider string

	// Message is the error message
	Message string

	// Cause is the underlying error
	Cause error
}

// Error implements the error interface.
func (e *StreamError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("provider %q stream error: %s: %v", e.Provider, e.Message, e.Cause)
	}
	return fmt.Sprintf("provider %q stream error: %s", e.Provider, e.Message)
}

// Unwrap returns the underlying error for error chain support.
func (e *StreamError) Unwrap() error {
	return e.Cause
}

// StatusKindOf classifies an error from a provider call into one of the
// StatusKind constants. A nil error is StatusKindOK.
func StatusKindOf(err error) string {
	switch {
	case err == nil:
		return StatusKindOK
	case errors.Is(err, ErrTimeout), errors.Is(err, context.DeadlineExceeded):
		return StatusKindTimeout
	case errors.Is(err, context.Canceled):
		return StatusKindCancelled
	}

	var authErr *AuthError
	var rateErr *RateLimitError
	var upstreamErr *UpstreamError
	var parseErr *ParseError

	switch {
	case errors.As(err, &authErr):
		return StatusKindAuth
	case errors.As(err, &rateErr):
		return StatusKindRateLimit
	case errors.As(err, &upstreamErr):
		return upstreamErr.Kind
	case errors.As(err, &parseErr):
		return StatusKindParseFailure
	default:
		return StatusKindUnknown
	}
}
