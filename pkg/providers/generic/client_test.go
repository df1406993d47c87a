package generic

import (
	"context"
	"errors"
	"testing"

	"mercury-hq/courier/internal/upstream"
	"mercury-hq/courier/pkg/providers"
)

func TestNewProvider_RequiresBaseURL(t *testing.T) {
	_, err := NewProvider(providers.ClientConfig{Name: "local-vllm"}, nil)
	var cfgErr *providers.ConfigError
	if !errors.As(err, &cfgErr) {
		t.Fatalf("expected ConfigError, got %v", err)
	}
	if cfgErr.Field != "base_url" {
		t.Errorf("expected base_url field, got %q", cfgErr.Field)
	}
}

func TestSendCompletion_NoAPIKeyRequired(t *testing.T) {
	mock := upstream.NewMockServer()
	defer mock.Close()

	mock.SetResponse("/v1/chat/completions", upstream.MockResponse{
		StatusCode: 200,
		Body:       upstream.OpenAIResponse("local response", "llama-3.1-8b"),
	})

	config := upstream.TestConfig("local-vllm", "generic", mock.URL()+"/v1")
	config.APIKey = ""

	p, err := NewProvider(config, nil)
	if err != nil {
		t.Fatalf("NewProvider failed: %v", err)
	}
	defer p.Close()

	resp, err := p.SendCompletion(context.Background(), &providers.CompletionRequest{
		Model:    "llama-3.1-8b",
		Messages: []providers.Message{{Role: providers.RoleUser, Content: "hi"}},
	})
	if err != nil {
		t.Fatalf("SendCompletion failed: %v", err)
	}
	if resp.Content != "local response" {
		t.Errorf("unexpected content %q", resp.Content)
	}

	last := mock.LastRequest()
	if last == nil {
		t.Fatal("no request recorded")
	}
	if got := last.Header.Get("Authorization"); got != "Bearer "+PlaceholderAPIKey {
		t.Errorf("expected placeholder bearer token, got %q", got)
	}
}
