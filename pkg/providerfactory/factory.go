// Package providerfactory constructs provider clients from configuration
// and manages their collective lifecycle.
package providerfactory

import (
	"fmt"
	"log/slog"
	"strings"

	"mercury-hq/courier/pkg/config"
	"mercury-hq/courier/pkg/providers"
	"mercury-hq/courier/pkg/providers/anthropic"
	"mercury-hq/courier/pkg/providers/generic"
	"mercury-hq/courier/pkg/providers/openai"
)

// NewProvider creates a provider instance for one named configuration.
//
// Supported provider types:
//   - "openai": OpenAI API
//   - "anthropic": Anthropic messages API
//   - "generic": OpenAI-compatible endpoints (vLLM, Ollama, LM Studio, ...)
//
// When cfg.Type is empty it is inferred from the provider name: names
// containing "openai" or "anthropic" map to those types, everything else
// is generic.
func NewProvider(name string, cfg config.ProviderConfig, sink providers.EventSink) (providers.Provider, error) {
	providerType := cfg.Type
	if providerType == "" {
		providerType = InferProviderType(name)
	}

	clientConfig := providers.ClientConfig{
		Name:                name,
		Type:                providerType,
		BaseURL:             cfg.BaseURL,
		APIKey:              cfg.APIKey,
		Timeout:             cfg.Timeout,
		ProxyURL:            cfg.ProxyURL,
		MaxConcurrent:       cfg.MaxConcurrent,
		MaxIdleConns:        cfg.MaxIdleConns,
		MaxIdleConnsPerHost: cfg.MaxIdleConnsPerHost,
		IdleConnTimeout:     cfg.IdleConnTimeout,
	}

	slog.Debug("creating provider",
		"name", name,
		"type", providerType,
		"base_url", cfg.BaseURL,
	)

	var provider providers.Provider
	var err error

	switch providerType {
	case "openai":
		provider, err = openai.NewProvider(clientConfig, sink)

	case "anthropic":
		provider, err = anthropic.NewProvider(clientConfig, sink)

	case "generic":
		provider, err = generic.NewProvider(clientConfig, sink)

	default:
		return nil, &providers.ConfigError{
			Provider: name,
			Field:    "type",
			Message:  fmt.Sprintf("unsupported provider type: %q (supported: openai, anthropic, generic)", providerType),
		}
	}

	if err != nil {
		return nil, fmt.Errorf("failed to create provider %q: %w", name, err)
	}

	return provider, nil
}

// InferProviderType guesses the wire shape from a provider name.
func InferProviderType(name string) string {
	lower := strings.ToLower(name)
	switch {
	case strings.Contains(lower, "openai"):
		return "openai"
	case strings.Contains(lower, "anthropic"), strings.Contains(lower, "claude"):
		return "anthropic"
	default:
		return "generic"
	}
}
