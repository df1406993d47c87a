// Package generic implements the provider adapter for self-hosted
// OpenAI-compatible endpoints (vLLM, llama.cpp, LM Studio, Ollama's
// compatibility layer, and similar).
//
// The wire shape is OpenAI's, so the adapter delegates to the openai
// package. The differences are configuration posture: the base URL is
// mandatory because there is no canonical endpoint, and the API key is
// optional because local servers usually ignore authentication.
package generic

import (
	"log/slog"

	"mercury-hq/courier/pkg/providers"
	"mercury-hq/courier/pkg/providers/openai"
)

// PlaceholderAPIKey is sent when no key is configured. Local servers
// ignore the Authorization header but some reject an empty one.
const PlaceholderAPIKey = "not-required"

// Provider is the adapter for OpenAI-compatible endpoints.
type Provider struct {
	*openai.Provider
}

// NewProvider creates a new generic provider instance.
func NewProvider(config providers.ClientConfig, sink providers.EventSink) (*Provider, error) {
	if config.Name == "" {
		return nil, &providers.ConfigError{
			Provider: "generic",
			Field:    "name",
			Message:  "provider name is required",
		}
	}

	if config.BaseURL == "" {
		return nil, &providers.ConfigError{
			Provider: config.Name,
			Field:    "base_url",
			Message:  "base URL is required for generic providers",
		}
	}

	if config.APIKey == "" {
		config.APIKey = PlaceholderAPIKey
	}

	inner, err := openai.NewProvider(config, sink)
	if err != nil {
		return nil, err
	}

	slog.Info("generic provider initialized",
		"provider", config.Name,
		"base_url", config.BaseURL,
	)

	return &Provider{Provider: inner}, nil
}
