package providers

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"sync"
	"time"
)

// ErrorMessageParser extracts a human-readable message from a provider's
// error response body. Each wire-shape adapter supplies its own so that
// heterogeneous upstream error shapes normalize to one taxonomy.
type ErrorMessageParser func(statusCode int, body []byte) string

// RawErrorMessage is the fallback parser: the body verbatim.
func RawErrorMessage(_ int, body []byte) string {
	return string(body)
}

// HTTPClient is the base implementation for HTTP-based provider adapters.
// It owns the transport pool, the resolved proxy, per-request deadline
// enforcement, and error classification. Concrete adapters (OpenAI,
// Anthropic, generic) embed it and add their wire shape.
//
// The client performs no retries: a failed call is reported once, and
// retry policy belongs to the caller above the dispatcher.
type HTTPClient struct {
	config   ClientConfig
	resolved ResolvedProxy
	pool     *TransportPool
	client   *http.Client
	sink     EventSink

	health   ProviderHealth
	healthMu sync.RWMutex
}

// NewHTTPClient creates a base client for one provider endpoint.
// The proxy decision is made here, once: an explicit proxy is validated
// and pins the client to it, otherwise the environment is consulted.
// sink may be nil, in which case no events are emitted.
func NewHTTPClient(config ClientConfig, sink EventSink) (*HTTPClient, error) {
	if config.Name == "" {
		return nil, &ConfigError{Provider: "unknown", Field: "name", Message: "provider name is required"}
	}
	if config.BaseURL == "" {
		return nil, &ConfigError{Provider: config.Name, Field: "base_url", Message: "base URL is required"}
	}
	if config.Timeout <= 0 {
		config.Timeout = 60 * time.Second
	}

	resolved, err := ResolveProxy(config.ProxyURL)
	if err != nil {
		return nil, err
	}

	pool := NewTransportPool(config, resolved)

	c := &HTTPClient{
		config:   config,
		resolved: resolved,
		pool:     pool,
		client:   &http.Client{Transport: pool.Transport()},
		sink:     sink,
		health: ProviderHealth{
			IsHealthy: true, // Start optimistic
			LastCheck: time.Now(),
		},
	}

	slog.Debug("provider client created",
		"provider", config.Name,
		"base_url", config.BaseURL,
		"proxy", resolved.ProxyHost(),
		"proxy_source", resolved.Source.String(),
		"timeout", config.Timeout,
	)

	return c, nil
}

// Name returns the provider's configured name.
func (c *HTTPClient) Name() string {
	return c.config.Name
}

// Type returns the provider's type.
func (c *HTTPClient) Type() string {
	return c.config.Type
}

// Config returns the provider's configuration.
func (c *HTTPClient) Config() ClientConfig {
	return c.config
}

// Resolved returns the proxy decision made at construction.
func (c *HTTPClient) Resolved() ResolvedProxy {
	return c.resolved
}

// Pool returns the client's transport pool.
func (c *HTTPClient) Pool() *TransportPool {
	return c.pool
}

// IsHealthy returns the current health status.
func (c *HTTPClient) IsHealthy() bool {
	c.healthMu.RLock()
	defer c.healthMu.RUnlock()
	return c.health.IsHealthy
}

// Health returns detailed health information.
func (c *HTTPClient) Health() ProviderHealth {
	c.healthMu.RLock()
	defer c.healthMu.RUnlock()
	return c.health
}

// updateHealth records the outcome of a call or probe.
// Three consecutive failures mark the provider unhealthy.
func (c *HTTPClient) updateHealth(success bool, err error) {
	c.healthMu.Lock()
	defer c.healthMu.Unlock()

	c.health.LastCheck = time.Now()
	c.health.TotalRequests++

	if success {
		c.health.IsHealthy = true
		c.health.ConsecutiveFailures = 0
		c.health.LastError = nil
		return
	}

	c.health.FailedRequests++
	c.health.ConsecutiveFailures++
	c.health.LastError = err

	if c.health.ConsecutiveFailures >= 3 && c.health.IsHealthy {
		c.health.IsHealthy = false
		slog.Warn("provider marked unhealthy",
			"provider", c.config.Name,
			"consecutive_failures", c.health.ConsecutiveFailures,
			"error", err,
		)
	}
}

// emit sends a call event to the sink, if any.
func (c *HTTPClient) emit(ctx context.Context, latency time.Duration, err error) {
	if c.sink == nil {
		return
	}
	c.sink.RecordCall(CallEvent{
		DispatchID: DispatchIDFromContext(ctx),
		ProviderID: c.config.Name,
		ProxyUsed:  c.resolved.ProxyHost(),
		LatencyMs:  latency.Milliseconds(),
		StatusKind: StatusKindOf(err),
	})
}

// Do performs one HTTP request against the provider.
//
// A pool slot is held for the lifetime of the call: on error paths it is
// released before returning, and on success it is released when the
// response body is closed, so streaming reads stay within the bound.
// The configured timeout is enforced as a hard deadline from request
// initiation; expiry aborts the in-flight connection.
//
// Non-2xx responses are classified into the error taxonomy using parser to
// extract the upstream message. Do never retries.
func (c *HTTPClient) Do(ctx context.Context, method, url string, body []byte, headers map[string]string, parser ErrorMessageParser) (*http.Response, error) {
	if parser == nil {
		parser = RawErrorMessage
	}

	start := time.Now()

	// The deadline starts at request initiation and covers slot
	// acquisition too: a saturated pool must not stall the call past the
	// configured timeout.
	reqCtx, cancel := context.WithTimeout(ctx, c.config.Timeout)

	release, err := c.pool.Acquire(reqCtx)
	if err != nil {
		cancel()
		err = c.wrapContextErr(ctx, err)
		c.emit(ctx, time.Since(start), err)
		return nil, err
	}

	// finish tears down the per-request resources exactly once, on
	// whichever exit path runs first.
	var finishOnce sync.Once
	finish := func() {
		finishOnce.Do(func() {
			cancel()
			release()
		})
	}

	var bodyReader io.Reader
	if body != nil {
		bodyReader = bytes.NewReader(body)
	}

	req, err := http.NewRequestWithContext(reqCtx, method, url, bodyReader)
	if err != nil {
		finish()
		err = fmt.Errorf("failed to create request: %w", err)
		c.emit(ctx, time.Since(start), err)
		return nil, err
	}

	for key, value := range headers {
		req.Header.Set(key, value)
	}
	if req.Header.Get("Content-Type") == "" && body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.client.Do(req)
	latency := time.Since(start)

	if err != nil {
		finish()
		err = c.classifyTransportErr(ctx, err)
		c.updateHealth(false, err)
		c.emit(ctx, latency, err)
		return nil, err
	}

	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		c.updateHealth(true, nil)
		c.emit(ctx, latency, nil)
		// The slot and the deadline stay alive until the body is consumed.
		resp.Body = &finishingBody{ReadCloser: resp.Body, finish: finish}
		return resp, nil
	}

	errorBody, _ := io.ReadAll(io.LimitReader(resp.Body, 64*1024))
	resp.Body.Close()
	finish()

	callErr := c.classifyStatus(resp, errorBody, parser)
	c.updateHealth(false, callErr)
	c.emit(ctx, latency, callErr)
	return nil, callErr
}

// wrapContextErr maps a context error to the taxonomy: the client's own
// deadline becomes a TimeoutError, a caller cancellation passes through.
func (c *HTTPClient) wrapContextErr(ctx context.Context, err error) error {
	if errors.Is(err, context.DeadlineExceeded) && ctx.Err() == nil {
		return &TimeoutError{Provider: c.config.Name, Timeout: c.config.Timeout}
	}
	return err
}

// classifyTransportErr maps transport-level failures (connect errors,
// aborted requests, deadline expiry) to the taxonomy.
func (c *HTTPClient) classifyTransportErr(ctx context.Context, err error) error {
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		if ctx.Err() == context.DeadlineExceeded {
			// The caller's own deadline expired, not the per-provider one.
			return ctx.Err()
		}
		return &TimeoutError{Provider: c.config.Name, Timeout: c.config.Timeout}
	case errors.Is(err, context.Canceled):
		return context.Canceled
	default:
		return fmt.Errorf("provider %q request failed: %w", c.config.Name, err)
	}
}

// classifyStatus maps a non-2xx response to the error taxonomy.
func (c *HTTPClient) classifyStatus(resp *http.Response, body []byte, parser ErrorMessageParser) error {
	message := parser(resp.StatusCode, body)

	switch resp.StatusCode {
	case http.StatusUnauthorized, http.StatusForbidden:
		return &AuthError{Provider: c.config.Name, Message: message}

	case http.StatusTooManyRequests:
		return &RateLimitError{
			Provider:   c.config.Name,
			RetryAfter: parseRetryAfter(resp.Header.Get("Retry-After")),
			Message:    message,
		}

	case http.StatusBadRequest, http.StatusNotFound, http.StatusConflict, http.StatusUnprocessableEntity:
		return &UpstreamError{
			Provider:   c.config.Name,
			StatusCode: resp.StatusCode,
			Kind:       StatusKindBadRequest,
			Message:    message,
		}
	}

	if resp.StatusCode >= 500 {
		return &UpstreamError{
			Provider:   c.config.Name,
			StatusCode: resp.StatusCode,
			Kind:       StatusKindServerError,
			Message:    message,
		}
	}

	return &UpstreamError{
		Provider:   c.config.Name,
		StatusCode: resp.StatusCode,
		Kind:       StatusKindUnknown,
		Message:    message,
	}
}

// DoJSON performs a JSON POST and decodes the response into respBody
// (when non-nil). It returns the raw response document so callers can keep
// the upstream body verbatim.
func (c *HTTPClient) DoJSON(ctx context.Context, url string, reqBody interface{}, respBody interface{}, headers map[string]string, parser ErrorMessageParser) (json.RawMessage, error) {
	var bodyBytes []byte
	var err error
	if reqBody != nil {
		bodyBytes, err = json.Marshal(reqBody)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal request: %w", err)
		}
	}

	resp, err := c.Do(ctx, http.MethodPost, url, bodyBytes, headers, parser)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &ParseError{
			Provider: c.config.Name,
			Cause:    fmt.Errorf("failed to read response: %w", err),
		}
	}

	if respBody != nil && len(raw) > 0 {
		if err := json.Unmarshal(raw, respBody); err != nil {
			return nil, &ParseError{
				Provider:    c.config.Name,
				RawResponse: string(raw),
				Cause:       fmt.Errorf("failed to unmarshal response: %w", err),
			}
		}
	}

	return raw, nil
}

// HealthCheck performs a lightweight reachability probe. Any HTTP response
// from the endpoint counts as reachable; only transport failures and
// timeouts mark the probe failed.
func (c *HTTPClient) HealthCheck(ctx context.Context) error {
	reqCtx, cancel := context.WithTimeout(ctx, c.config.Timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(reqCtx, http.MethodGet, c.config.BaseURL, nil)
	if err != nil {
		return fmt.Errorf("failed to create health check request: %w", err)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		err = c.classifyTransportErr(ctx, err)
		c.updateHealth(false, err)
		return err
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4*1024))

	c.updateHealth(true, nil)
	return nil
}

// Close closes the client's pool. After Close the client must not be used.
// Closing twice is safe.
func (c *HTTPClient) Close() error {
	c.pool.Close()
	slog.Debug("provider client closed", "provider", c.config.Name)
	return nil
}

// finishingBody ties slot release and deadline cancellation to the
// response body lifetime.
type finishingBody struct {
	io.ReadCloser
	finish func()
}

// Close closes the underlying body, then releases the request resources.
func (b *finishingBody) Close() error {
	err := b.ReadCloser.Close()
	b.finish()
	return err
}

// parseRetryAfter parses the Retry-After header value.
// It supports both delay-seconds and HTTP-date formats.
func parseRetryAfter(header string) time.Duration {
	if header == "" {
		return 0
	}

	var seconds int
	if _, err := fmt.Sscanf(header, "%d", &seconds); err == nil {
		return time.Duration(seconds) * time.Second
	}

	if t, err := http.ParseTime(header); err == nil {
		return time.Until(t)
	}

	return 0
}
