package openai

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"

	"mercury-hq/courier/internal/upstream"
	"mercury-hq/courier/pkg/providers"
)

func TestNewProvider_Validation(t *testing.T) {
	_, err := NewProvider(providers.ClientConfig{Name: "openai"}, nil)
	if err == nil {
		t.Fatal("expected error for missing API key")
	}
	var cfgErr *providers.ConfigError
	if !errors.As(err, &cfgErr) {
		t.Fatalf("expected ConfigError, got %T", err)
	}
	if cfgErr.Field != "api_key" {
		t.Errorf("expected api_key field, got %q", cfgErr.Field)
	}
}

func TestNewProvider_DefaultBaseURL(t *testing.T) {
	p, err := NewProvider(providers.ClientConfig{Name: "openai", APIKey: "sk-test"}, nil)
	if err != nil {
		t.Fatalf("NewProvider failed: %v", err)
	}
	defer p.Close()

	if p.Config().BaseURL != DefaultBaseURL {
		t.Errorf("expected default base URL, got %q", p.Config().BaseURL)
	}
}

func TestSendCompletion(t *testing.T) {
	mock := upstream.NewMockServer()
	defer mock.Close()

	mock.SetResponse("/v1/chat/completions", upstream.MockResponse{
		StatusCode: 200,
		Body:       upstream.OpenAIResponse("Hello, world!", "gpt-4o"),
	})

	p, err := NewProvider(upstream.TestConfig("openai", "openai", mock.URL()+"/v1"), nil)
	if err != nil {
		t.Fatalf("NewProvider failed: %v", err)
	}
	defer p.Close()

	resp, err := p.SendCompletion(context.Background(), &providers.CompletionRequest{
		Model: "gpt-4o",
		Messages: []providers.Message{
			{Role: providers.RoleUser, Content: "Hello"},
		},
	})
	if err != nil {
		t.Fatalf("SendCompletion failed: %v", err)
	}

	if resp.Content != "Hello, world!" {
		t.Errorf("unexpected content %q", resp.Content)
	}
	if resp.Model != "gpt-4o" {
		t.Errorf("unexpected model %q", resp.Model)
	}
	if resp.FinishReason != providers.FinishReasonStop {
		t.Errorf("unexpected finish reason %q", resp.FinishReason)
	}
	if resp.Usage.TotalTokens != 30 {
		t.Errorf("unexpected total tokens %d", resp.Usage.TotalTokens)
	}
	if len(resp.Raw) == 0 {
		t.Error("expected raw upstream body preserved")
	}

	last := mock.LastRequest()
	if last == nil {
		t.Fatal("no request recorded")
	}
	if got := last.Header.Get("Authorization"); got != "Bearer test-key" {
		t.Errorf("unexpected Authorization header %q", got)
	}
	if got := last.Header.Get("Content-Type"); got != "application/json" {
		t.Errorf("unexpected Content-Type %q", got)
	}

	var wire chatRequest
	if err := json.Unmarshal(last.Body, &wire); err != nil {
		t.Fatalf("request body not valid JSON: %v", err)
	}
	if wire.Stream {
		t.Error("buffered completion must not set stream")
	}
	if wire.N != 1 {
		t.Errorf("expected n=1, got %d", wire.N)
	}
}

func TestSendCompletion_RequestValidation(t *testing.T) {
	p, err := NewProvider(providers.ClientConfig{Name: "openai", APIKey: "sk-test"}, nil)
	if err != nil {
		t.Fatalf("NewProvider failed: %v", err)
	}
	defer p.Close()

	tests := []struct {
		name string
		req  *providers.CompletionRequest
	}{
		{"nil request", nil},
		{"missing model", &providers.CompletionRequest{
			Messages: []providers.Message{{Role: providers.RoleUser, Content: "hi"}},
		}},
		{"no messages", &providers.CompletionRequest{Model: "gpt-4o"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := p.SendCompletion(context.Background(), tt.req)
			var valErr *providers.ValidationError
			if !errors.As(err, &valErr) {
				t.Errorf("expected ValidationError, got %v", err)
			}
		})
	}
}

func TestSendCompletion_AuthError(t *testing.T) {
	mock := upstream.NewMockServer()
	defer mock.Close()

	mock.SetResponse("/v1/chat/completions", upstream.AuthError())

	p, err := NewProvider(upstream.TestConfig("openai", "openai", mock.URL()+"/v1"), nil)
	if err != nil {
		t.Fatalf("NewProvider failed: %v", err)
	}
	defer p.Close()

	_, err = p.SendCompletion(context.Background(), &providers.CompletionRequest{
		Model:    "gpt-4o",
		Messages: []providers.Message{{Role: providers.RoleUser, Content: "hi"}},
	})

	var authErr *providers.AuthError
	if !errors.As(err, &authErr) {
		t.Fatalf("expected AuthError, got %v", err)
	}
	if !strings.Contains(authErr.Message, "Invalid API key") {
		t.Errorf("upstream message not extracted from error envelope: %q", authErr.Message)
	}
}

func TestSendCompletion_EmptyChoices(t *testing.T) {
	mock := upstream.NewMockServer()
	defer mock.Close()

	mock.SetResponse("/v1/chat/completions", upstream.MockResponse{
		StatusCode: 200,
		Body:       map[string]interface{}{"id": "chatcmpl-1", "choices": []interface{}{}},
	})

	p, err := NewProvider(upstream.TestConfig("openai", "openai", mock.URL()+"/v1"), nil)
	if err != nil {
		t.Fatalf("NewProvider failed: %v", err)
	}
	defer p.Close()

	_, err = p.SendCompletion(context.Background(), &providers.CompletionRequest{
		Model:    "gpt-4o",
		Messages: []providers.Message{{Role: providers.RoleUser, Content: "hi"}},
	})

	var parseErr *providers.ParseError
	if !errors.As(err, &parseErr) {
		t.Fatalf("expected ParseError, got %v", err)
	}
}

func TestStreamCompletion(t *testing.T) {
	mock := upstream.NewMockServer()
	defer mock.Close()

	mock.SetResponse("/v1/chat/completions", upstream.MockResponse{
		StatusCode: 200,
		StreamChunks: []string{
			upstream.OpenAIStreamChunk("Hello", ""),
			upstream.OpenAIStreamChunk(", ", ""),
			upstream.OpenAIStreamChunk("world", ""),
			upstream.OpenAIStreamChunk("!", "stop"),
		},
	})

	p, err := NewProvider(upstream.TestConfig("openai", "openai", mock.URL()+"/v1"), nil)
	if err != nil {
		t.Fatalf("NewProvider failed: %v", err)
	}
	defer p.Close()

	chunks, err := p.StreamCompletion(context.Background(), &providers.CompletionRequest{
		Model:    "gpt-4o",
		Messages: []providers.Message{{Role: providers.RoleUser, Content: "Hello"}},
		Stream:   true,
	})
	if err != nil {
		t.Fatalf("StreamCompletion failed: %v", err)
	}

	var content strings.Builder
	var finishReason string
	for chunk := range chunks {
		if chunk.Error != nil {
			t.Fatalf("stream error: %v", chunk.Error)
		}
		content.WriteString(chunk.Delta)
		if chunk.FinishReason != "" {
			finishReason = chunk.FinishReason
		}
	}

	if content.String() != "Hello, world!" {
		t.Errorf("unexpected assembled content %q", content.String())
	}
	if finishReason != providers.FinishReasonStop {
		t.Errorf("unexpected finish reason %q", finishReason)
	}

	// The slot held for the stream must be returned once it drains.
	deadline := time.Now().Add(time.Second)
	for p.Pool().InUse() != 0 {
		if time.Now().After(deadline) {
			t.Fatalf("pool slot not released after stream drained: %d in use", p.Pool().InUse())
		}
		time.Sleep(5 * time.Millisecond)
	}
}

func TestStreamCompletion_SkipsMalformedChunks(t *testing.T) {
	mock := upstream.NewMockServer()
	defer mock.Close()

	mock.SetResponse("/v1/chat/completions", upstream.MockResponse{
		StatusCode: 200,
		StreamChunks: []string{
			upstream.OpenAIStreamChunk("good", ""),
			`{"this is not valid json`,
			upstream.OpenAIStreamChunk(" data", "stop"),
		},
	})

	p, err := NewProvider(upstream.TestConfig("openai", "openai", mock.URL()+"/v1"), nil)
	if err != nil {
		t.Fatalf("NewProvider failed: %v", err)
	}
	defer p.Close()

	chunks, err := p.StreamCompletion(context.Background(), &providers.CompletionRequest{
		Model:    "gpt-4o",
		Messages: []providers.Message{{Role: providers.RoleUser, Content: "hi"}},
	})
	if err != nil {
		t.Fatalf("StreamCompletion failed: %v", err)
	}

	var content strings.Builder
	for chunk := range chunks {
		if chunk.Error != nil {
			t.Fatalf("malformed chunk must be skipped, not surfaced: %v", chunk.Error)
		}
		content.WriteString(chunk.Delta)
	}

	if content.String() != "good data" {
		t.Errorf("unexpected assembled content %q", content.String())
	}
}

func TestStreamCompletion_UpstreamError(t *testing.T) {
	mock := upstream.NewMockServer()
	defer mock.Close()

	mock.SetResponse("/v1/chat/completions", upstream.ServerError())

	p, err := NewProvider(upstream.TestConfig("openai", "openai", mock.URL()+"/v1"), nil)
	if err != nil {
		t.Fatalf("NewProvider failed: %v", err)
	}
	defer p.Close()

	_, err = p.StreamCompletion(context.Background(), &providers.CompletionRequest{
		Model:    "gpt-4o",
		Messages: []providers.Message{{Role: providers.RoleUser, Content: "hi"}},
	})

	var upErr *providers.UpstreamError
	if !errors.As(err, &upErr) {
		t.Fatalf("expected UpstreamError before any chunk, got %v", err)
	}
	if upErr.Kind != providers.StatusKindServerError {
		t.Errorf("unexpected kind %q", upErr.Kind)
	}
}
