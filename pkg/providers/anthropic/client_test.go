package anthropic

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"mercury-hq/courier/internal/upstream"
	"mercury-hq/courier/pkg/providers"
)

func TestSendCompletion(t *testing.T) {
	mock := upstream.NewMockServer()
	defer mock.Close()

	mock.SetResponse("/v1/messages", upstream.MockResponse{
		StatusCode: 200,
		Body:       upstream.AnthropicResponse("Hello from Claude", "claude-sonnet-4-5"),
	})

	p, err := NewProvider(upstream.TestConfig("anthropic", "anthropic", mock.URL()), nil)
	if err != nil {
		t.Fatalf("NewProvider failed: %v", err)
	}
	defer p.Close()

	resp, err := p.SendCompletion(context.Background(), &providers.CompletionRequest{
		Model: "claude-sonnet-4-5",
		Messages: []providers.Message{
			{Role: providers.RoleSystem, Content: "Be brief."},
			{Role: providers.RoleUser, Content: "Hello"},
		},
	})
	if err != nil {
		t.Fatalf("SendCompletion failed: %v", err)
	}

	if resp.Content != "Hello from Claude" {
		t.Errorf("unexpected content %q", resp.Content)
	}
	if resp.FinishReason != providers.FinishReasonStop {
		t.Errorf("unexpected finish reason %q", resp.FinishReason)
	}
	if resp.Usage.TotalTokens != 30 {
		t.Errorf("unexpected total tokens %d", resp.Usage.TotalTokens)
	}

	last := mock.LastRequest()
	if last == nil {
		t.Fatal("no request recorded")
	}
	if got := last.Header.Get("x-api-key"); got != "test-key" {
		t.Errorf("unexpected x-api-key header %q", got)
	}
	if got := last.Header.Get("anthropic-version"); got != APIVersion {
		t.Errorf("unexpected anthropic-version header %q", got)
	}

	var wire messagesRequest
	if err := json.Unmarshal(last.Body, &wire); err != nil {
		t.Fatalf("request body not valid JSON: %v", err)
	}
	if wire.System != "Be brief." {
		t.Errorf("system message not lifted to dedicated field: %q", wire.System)
	}
	if len(wire.Messages) != 1 || wire.Messages[0].Role != providers.RoleUser {
		t.Errorf("unexpected wire messages %+v", wire.Messages)
	}
	if wire.MaxTokens != DefaultMaxTokens {
		t.Errorf("expected default max_tokens %d, got %d", DefaultMaxTokens, wire.MaxTokens)
	}
}

func TestTransformRequest_AlternationRules(t *testing.T) {
	tests := []struct {
		name     string
		messages []providers.Message
		wantErr  bool
	}{
		{
			"valid alternation",
			[]providers.Message{
				{Role: providers.RoleUser, Content: "a"},
				{Role: providers.RoleAssistant, Content: "b"},
				{Role: providers.RoleUser, Content: "c"},
			},
			false,
		},
		{
			"assistant first",
			[]providers.Message{
				{Role: providers.RoleAssistant, Content: "a"},
				{Role: providers.RoleUser, Content: "b"},
			},
			true,
		},
		{
			"consecutive user messages",
			[]providers.Message{
				{Role: providers.RoleUser, Content: "a"},
				{Role: providers.RoleUser, Content: "b"},
			},
			true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := transformRequest(&providers.CompletionRequest{
				Model:    "claude-sonnet-4-5",
				Messages: tt.messages,
			})
			if (err != nil) != tt.wantErr {
				t.Errorf("transformRequest error = %v, wantErr %v", err, tt.wantErr)
			}
			if tt.wantErr {
				var valErr *providers.ValidationError
				if !errors.As(err, &valErr) {
					t.Errorf("expected ValidationError, got %T", err)
				}
			}
		})
	}
}

func TestSendCompletion_ErrorEnvelope(t *testing.T) {
	mock := upstream.NewMockServer()
	defer mock.Close()

	mock.SetResponse("/v1/messages", upstream.MockResponse{
		StatusCode: 401,
		Body: map[string]interface{}{
			"type": "error",
			"error": map[string]interface{}{
				"type":    "authentication_error",
				"message": "invalid x-api-key",
			},
		},
	})

	p, err := NewProvider(upstream.TestConfig("anthropic", "anthropic", mock.URL()), nil)
	if err != nil {
		t.Fatalf("NewProvider failed: %v", err)
	}
	defer p.Close()

	_, err = p.SendCompletion(context.Background(), &providers.CompletionRequest{
		Model:    "claude-sonnet-4-5",
		Messages: []providers.Message{{Role: providers.RoleUser, Content: "hi"}},
	})

	var authErr *providers.AuthError
	if !errors.As(err, &authErr) {
		t.Fatalf("expected AuthError, got %v", err)
	}
	if authErr.Message != "invalid x-api-key" {
		t.Errorf("message not extracted from error envelope: %q", authErr.Message)
	}
}

func TestStreamCompletion(t *testing.T) {
	mock := upstream.NewMockServer()
	defer mock.Close()

	events := []string{
		`{"type":"message_start","message":{"id":"msg_1","model":"claude-sonnet-4-5"}}`,
		`{"type":"content_block_start","index":0}`,
		`{"type":"content_block_delta","index":0,"delta":{"type":"text_delta","text":"Hello"}}`,
		`{"type":"content_block_delta","index":0,"delta":{"type":"text_delta","text":" there"}}`,
		`{"type":"content_block_stop","index":0}`,
		`{"type":"message_delta","delta":{"stop_reason":"end_turn"},"usage":{"input_tokens":10,"output_tokens":5}}`,
		`{"type":"message_stop"}`,
	}

	mock.SetResponse("/v1/messages", upstream.MockResponse{
		StatusCode:   200,
		StreamChunks: events,
	})

	p, err := NewProvider(upstream.TestConfig("anthropic", "anthropic", mock.URL()), nil)
	if err != nil {
		t.Fatalf("NewProvider failed: %v", err)
	}
	defer p.Close()

	chunks, err := p.StreamCompletion(context.Background(), &providers.CompletionRequest{
		Model:    "claude-sonnet-4-5",
		Messages: []providers.Message{{Role: providers.RoleUser, Content: "hi"}},
		Stream:   true,
	})
	if err != nil {
		t.Fatalf("StreamCompletion failed: %v", err)
	}

	var content strings.Builder
	var finishReason string
	var usage *providers.TokenUsage
	for chunk := range chunks {
		if chunk.Error != nil {
			t.Fatalf("stream error: %v", chunk.Error)
		}
		if chunk.ID != "msg_1" {
			t.Errorf("chunk missing message identity, got id %q", chunk.ID)
		}
		content.WriteString(chunk.Delta)
		if chunk.FinishReason != "" {
			finishReason = chunk.FinishReason
		}
		if chunk.Usage != nil {
			usage = chunk.Usage
		}
	}

	if content.String() != "Hello there" {
		t.Errorf("unexpected assembled content %q", content.String())
	}
	if finishReason != providers.FinishReasonStop {
		t.Errorf("unexpected finish reason %q", finishReason)
	}
	if usage == nil || usage.TotalTokens != 15 {
		t.Errorf("unexpected usage %+v", usage)
	}
}
