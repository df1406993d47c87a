package providerfactory

import (
	"errors"
	"testing"

	"mercury-hq/courier/pkg/config"
	"mercury-hq/courier/pkg/providers"
)

func TestInferProviderType(t *testing.T) {
	tests := []struct {
		name string
		want string
	}{
		{"openai", "openai"},
		{"openai-backup", "openai"},
		{"anthropic", "anthropic"},
		{"claude-proxy", "anthropic"},
		{"local-vllm", "generic"},
		{"ollama", "generic"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := InferProviderType(tt.name); got != tt.want {
				t.Errorf("InferProviderType(%q) = %q, want %q", tt.name, got, tt.want)
			}
		})
	}
}

func TestNewProvider_TypeSelection(t *testing.T) {
	tests := []struct {
		name     string
		cfg      config.ProviderConfig
		wantType string
	}{
		{
			name:     "openai",
			cfg:      config.ProviderConfig{APIKey: "sk-test"},
			wantType: "openai",
		},
		{
			name:     "anthropic",
			cfg:      config.ProviderConfig{APIKey: "sk-ant-test"},
			wantType: "anthropic",
		},
		{
			name:     "local-vllm",
			cfg:      config.ProviderConfig{BaseURL: "http://localhost:8000/v1"},
			wantType: "generic",
		},
		{
			name:     "explicit-type",
			cfg:      config.ProviderConfig{Type: "openai", APIKey: "sk-test"},
			wantType: "openai",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			provider, err := NewProvider(tt.name, tt.cfg, nil)
			if err != nil {
				t.Fatalf("NewProvider failed: %v", err)
			}
			defer provider.Close()

			if provider.Type() != tt.wantType {
				t.Errorf("expected type %q, got %q", tt.wantType, provider.Type())
			}
			if provider.Name() != tt.name {
				t.Errorf("expected name %q, got %q", tt.name, provider.Name())
			}
		})
	}
}

func TestNewProvider_UnsupportedType(t *testing.T) {
	_, err := NewProvider("weird", config.ProviderConfig{Type: "grpc"}, nil)
	var cfgErr *providers.ConfigError
	if !errors.As(err, &cfgErr) {
		t.Fatalf("expected ConfigError, got %v", err)
	}
	if cfgErr.Field != "type" {
		t.Errorf("expected type field, got %q", cfgErr.Field)
	}
}

func TestNewProvider_InvalidProxyFailsConstruction(t *testing.T) {
	_, err := NewProvider("openai", config.ProviderConfig{
		APIKey:   "sk-test",
		ProxyURL: "socks5://127.0.0.1:1080",
	}, nil)
	if !errors.Is(err, providers.ErrInvalidProxyConfig) {
		t.Fatalf("expected ErrInvalidProxyConfig, got %v", err)
	}
}
