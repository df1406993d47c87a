package openai

import (
	"context"
	"fmt"
	"log/slog"

	"mercury-hq/courier/pkg/providers"
)

// Provider is the OpenAI provider adapter. It implements the
// providers.Provider interface for OpenAI's chat completions API.
type Provider struct {
	*providers.HTTPClient
}

// DefaultBaseURL is the OpenAI API endpoint used when none is configured.
const DefaultBaseURL = "https://api.openai.com/v1"

// NewProvider creates a new OpenAI provider instance.
func NewProvider(config providers.ClientConfig, sink providers.EventSink) (*Provider, error) {
	if config.Name == "" {
		return nil, &providers.ConfigError{
			Provider: "openai",
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
			Message:  "API key is required for OpenAI",
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

	slog.Info("OpenAI provider initialized",
		"provider", config.Name,
		"base_url", config.BaseURL,
	)

	return p, nil
}

// SendCompletion sends a completion request to OpenAI.
func (p *Provider) SendCompletion(ctx context.Context, req *providers.CompletionRequest) (*providers.CompletionResponse, error) {
	if err := validateRequest(req); err != nil {
		return nil, err
	}

	wireReq := transformRequest(req)
	wireReq.Stream = false

	url := fmt.Sprintf("%s/chat/completions", p.Config().BaseURL)

	var wireResp chatResponse
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

// StreamCompletion sends a streaming completion request to OpenAI.
// It returns a buffered channel of chunks; the channel closes when the
// stream ends or the context is cancelled.
func (p *Provider) StreamCompletion(ctx context.Context, req *providers.CompletionRequest) (<-chan *providers.StreamChunk, error) {
	if err := validateRequest(req); err != nil {
		return nil, err
	}

	wireReq := transformRequest(req)
	wireReq.Stream = true

	url := fmt.Sprintf("%s/chat/completions", p.Config().BaseURL)
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

			if chunk.FinishReason != "" {
				return
			}
		}
	}()

	return chunks, nil
}

// headers returns the authentication headers for OpenAI requests.
func (p *Provider) headers() map[string]string {
	return map[string]string{
		"Authorization": "Bearer " + p.Config().APIKey,
		"Content-Type":  "application/json",
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
