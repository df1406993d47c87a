// Package upstream provides a mock OpenAI-compatible server for testing
// provider adapters and the composite dispatcher.
package upstream

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"time"

	"mercury-hq/courier/pkg/providers"
)

// MockServer is a configurable fake provider endpoint. It serves canned
// responses per path, including SSE streams, delays, and error bodies.
type MockServer struct {
	server    *httptest.Server
	responses map[string]MockResponse

	mu           sync.Mutex
	requestCount int
	lastRequest  *RecordedRequest
}

// MockResponse configures the response for one endpoint.
type MockResponse struct {
	StatusCode   int
	Body         interface{}
	Delay        time.Duration
	Headers      map[string]string
	StreamChunks []string // raw SSE data payloads, [DONE] appended automatically
}

// RecordedRequest captures the last request the server received.
type RecordedRequest struct {
	Method string
	Path   string
	Header http.Header
	Body   []byte
}

// NewMockServer starts a mock server. Callers must Close it.
func NewMockServer() *MockServer {
	ms := &MockServer{
		responses: make(map[string]MockResponse),
	}
	ms.server = httptest.NewServer(http.HandlerFunc(ms.handler))
	return ms
}

// URL returns the server's base URL.
func (ms *MockServer) URL() string {
	return ms.server.URL
}

// Close shuts the server down.
func (ms *MockServer) Close() {
	ms.server.Close()
}

// SetResponse configures the response served for path.
func (ms *MockServer) SetResponse(path string, response MockResponse) {
	ms.mu.Lock()
	defer ms.mu.Unlock()
	ms.responses[path] = response
}

// RequestCount returns how many requests the server has received.
func (ms *MockServer) RequestCount() int {
	ms.mu.Lock()
	defer ms.mu.Unlock()
	return ms.requestCount
}

// LastRequest returns the most recently received request, or nil.
func (ms *MockServer) LastRequest() *RecordedRequest {
	ms.mu.Lock()
	defer ms.mu.Unlock()
	return ms.lastRequest
}

func (ms *MockServer) handler(w http.ResponseWriter, r *http.Request) {
	body, _ := io.ReadAll(r.Body)

	ms.mu.Lock()
	ms.requestCount++
	ms.lastRequest = &RecordedRequest{
		Method: r.Method,
		Path:   r.URL.Path,
		Header: r.Header.Clone(),
		Body:   body,
	}
	response, ok := ms.responses[r.URL.Path]
	ms.mu.Unlock()

	if !ok {
		http.NotFound(w, r)
		return
	}

	if response.Delay > 0 {
		select {
		case <-time.After(response.Delay):
		case <-r.Context().Done():
			return
		}
	}

	for key, value := range response.Headers {
		w.Header().Set(key, value)
	}

	if len(response.StreamChunks) > 0 {
		ms.handleStream(w, response)
		return
	}

	w.WriteHeader(response.StatusCode)

	switch v := response.Body.(type) {
	case nil:
	case string:
		_, _ = w.Write([]byte(v))
	case []byte:
		_, _ = w.Write(v)
	default:
		_ = json.NewEncoder(w).Encode(response.Body)
	}
}

func (ms *MockServer) handleStream(w http.ResponseWriter, response MockResponse) {
	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")

	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "streaming not supported", http.StatusInternalServerError)
		return
	}

	for _, chunk := range response.StreamChunks {
		fmt.Fprintf(w, "data: %s\n\n", chunk)
		flusher.Flush()
		time.Sleep(time.Millisecond)
	}

	fmt.Fprintf(w, "data: [DONE]\n\n")
	flusher.Flush()
}

// TestConfig returns a provider client config pointed at baseURL with
// test-friendly defaults.
func TestConfig(name, providerType, baseURL string) providers.ClientConfig {
	return providers.ClientConfig{
		Name:          name,
		Type:          providerType,
		BaseURL:       baseURL,
		APIKey:        "test-key",
		Timeout:       5 * time.Second,
		MaxConcurrent: 10,
	}
}

// OpenAIResponse builds an OpenAI-shaped chat completion body.
func OpenAIResponse(content, model string) map[string]interface{} {
	return map[string]interface{}{
		"id":      "chatcmpl-123",
		"object":  "chat.completion",
		"created": time.Now().Unix(),
		"model":   model,
		"choices": []map[string]interface{}{
			{
				"index": 0,
				"message": map[string]interface{}{
					"role":    "assistant",
					"content": content,
				},
				"finish_reason": "stop",
			},
		},
		"usage": map[string]interface{}{
			"prompt_tokens":     10,
			"completion_tokens": 20,
			"total_tokens":      30,
		},
	}
}

// OpenAIStreamChunk builds one OpenAI-shaped SSE chunk payload.
func OpenAIStreamChunk(delta, finishReason string) string {
	chunk := map[string]interface{}{
		"id":      "chatcmpl-123",
		"object":  "chat.completion.chunk",
		"created": time.Now().Unix(),
		"model":   "gpt-4o",
		"choices": []map[string]interface{}{
			{
				"index": 0,
				"delta": map[string]interface{}{
					"content": delta,
				},
				"finish_reason": finishReason,
			},
		},
	}

	b, _ := json.Marshal(chunk)
	return string(b)
}

// AnthropicResponse builds an Anthropic-shaped messages body.
func AnthropicResponse(content, model string) map[string]interface{} {
	return map[string]interface{}{
		"id":   "msg_123",
		"type": "message",
		"role": "assistant",
		"content": []map[string]interface{}{
			{
				"type": "text",
				"text": content,
			},
		},
		"model":       model,
		"stop_reason": "end_turn",
		"usage": map[string]interface{}{
			"input_tokens":  10,
			"output_tokens": 20,
		},
	}
}

// ErrorResponse builds an OpenAI-shaped error body for statusCode.
func ErrorResponse(statusCode int, message string) MockResponse {
	return MockResponse{
		StatusCode: statusCode,
		Body: map[string]interface{}{
			"error": map[string]interface{}{
				"message": message,
				"type":    "invalid_request_error",
			},
		},
	}
}

// AuthError builds a 401 response.
func AuthError() MockResponse {
	return ErrorResponse(http.StatusUnauthorized, "Invalid API key")
}

// RateLimitError builds a 429 response with a Retry-After header.
func RateLimitError(retryAfter int) MockResponse {
	response := ErrorResponse(http.StatusTooManyRequests, "Rate limit exceeded")
	response.Headers = map[string]string{
		"Retry-After": fmt.Sprintf("%d", retryAfter),
	}
	return response
}

// ServerError builds a 500 response.
func ServerError() MockResponse {
	return ErrorResponse(http.StatusInternalServerError, "Internal server error")
}

// SlowResponse builds a success response delayed by delay.
func SlowResponse(delay time.Duration, content, model string) MockResponse {
	return MockResponse{
		StatusCode: http.StatusOK,
		Body:       OpenAIResponse(content, model),
		Delay:      delay,
	}
}
