package anthropic

import (
	"context"
	"fmt"
	"log/slog"

	"mercury-hq/courier/pkg/providers"
)

// Provider is the Anthropic provider adapter. It implements the
// providers.Provider interface for Anthropic's messages API.
type Provider struct {
	*providers.HTTPClient
}

const (
	// DefaultBaseURL is the Anthropic API endpoint used when none is
	// configured.
	DefaultBaseURL = "https://api.anthropic.com"

	// APIVersion is the anthropic-version header value sent on every call.
	APIVersion = "2023-06-01"
)

// NewProvider creates a new Anthropic provider instance.
func NewProvider(config providers.ClientConfig, sink providers.EventSink) (*Provider, error) {
	if config.Name == "" {
		return nil, &providers.ConfigError{
			Provider: "anthropic",
			Field:    "name",
			Message:  "provider name is required",
		}
	}

	if config.BaseURL == "" {
		config.BaseURL = DefaultBaseURL
	}

	if config.APIKey == "" {
		return nil, &providers.ConfigError{
			Provider: config.Name,
			Field:    "api_key",
			Message:  "API key is required for Anthropic",
		}
	}

	if config.MaxIdleConns == 0 {
		config.MaxIdleConns = 100
	}
	if config.MaxIdleConnsPerHost == 0 {
		config.MaxIdleConnsPerHost = 10
	}

	client, err := providers.NewHTTPClient(config, sink)
	if err != nil {
		return nil, err
	}

	p := &Provider{HTTPClient: client}

	slog.Info("Anthropic provider initialized",
		"provider", config.Name,
		"base_url", config.BaseURL,
	)

	return p, nil
}

// SendCompletion sends a completion request to Anthropic.
func (p *Provider) SendCompletion(ctx context.Context, req *providers.CompletionRequest) (*providers.CompletionResponse, error) {
	if err := validateRequest(req); err != nil {
		return nil, err
	}

	wireReq, err := transformRequest(req)
	if err != nil {
		return nil, err
	}
	wireReq.Stream = false

	url := fmt.Sprintf("%s/v1/messages", p.Config().BaseURL)

	var wireResp messagesResponse
	raw, err := p.DoJSON(ctx, url, wireReq, &wireResp, p.headers(), parseErrorMessage)
	if err != nil {
		return nil, err
	}

	resp, err := transformResponse(&wireResp)
	if err != nil {
		return nil, &providers.ParseError{
			Provider:    p.Name(),
			RawResponse: string(raw),
			Cause:       err,
		}
	}
	resp.Raw = raw

	slog.Debug("completion request succeeded",
		"provider", p.Name(),
		"model", resp.Model,
		"tokens", resp.Usage.TotalTokens,
	)

	return resp, nil
}

// StreamCompletion sends a streaming completion request to Anthropic.
func (p *Provider) StreamCompletion(ctx context.Context, req *providers.CompletionRequest) (<-chan *providers.StreamChunk, error) {
	if err := validateRequest(req); err != nil {
		return nil, err
	}

	wireReq, err := transformRequest(req)
	if err != nil {
		return nil, err
	}
	wireReq.Stream = true

	url := fmt.Sprintf("%s/v1/messages", p.Config().BaseURL)
	headers := p.headers()
	headers["Accept"] = "text/event-stream"

	stream, err := newStreamReader(ctx, p.HTTPClient, url, wireReq, headers)
	if err != nil {
		return nil, err
	}

	chunks := make(chan *providers.StreamChunk, 100)

	go func() {
		defer close(chunks)
		defer stream.Close()

		for {
			chunk, err := stream.Read(ctx)
			if err != nil {
				if chunk := streamFailureChunk(err); chunk != nil {
					select {
					case chunks <- chunk:
					case <-ctx.Done():
					}
				}
				return
			}

			select {
			case chunks <- chunk:
			case <-ctx.Done():
				return
			}
		}
	}()

	return chunks, nil
}

// headers returns the authentication headers for Anthropic requests.
// Anthropic uses x-api-key rather than a Bearer token.
func (p *Provider) headers() map[string]string {
	return map[string]string{
		"x-api-key":         p.Config().APIKey,
		"anthropic-version": APIVersion,
		"Content-Type":      "application/json",
	}
}

// validateRequest validates the completion request before sending.
func validateRequest(req *providers.CompletionRequest) error {
	if req == nil {
		return &providers.ValidationError{
			Field:   "request",
			Message: "request cannot be nil",
		}
	}
	if req.Model == "" {
		return &providers.ValidationError{
			Field:   "model",
			Message: "model is required",
		}
	}
	if len(req.Messages) == 0 {
		return &providers.ValidationError{
			Field:   "messages",
			Message: "at least one message is required",
		}
	}
	return nil
}
