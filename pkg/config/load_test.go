package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

const sampleConfig = `
providers:
  openai:
    type: openai
    base_url: https://api.openai.com/v1
    api_key: sk-test
    timeout: 30s
  local:
    type: generic
    base_url: http://localhost:11434/v1
    proxy_url: http://proxy.internal:3128
    max_concurrent: 25

dispatch:
  merge_policy: best_effort
  deadline: 2m
  targets: [openai, local]

telemetry:
  logging:
    level: debug
    format: text
`

func writeConfigFile(t *testing.T, content string) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "courier.yaml")
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("failed to write config file: %v", err)
	}
	return path
}

func TestLoadConfig(t *testing.T) {
	path := writeConfigFile(t, sampleConfig)

	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig failed: %v", err)
	}

	openai, ok := cfg.Providers["openai"]
	if !ok {
		t.Fatal("expected openai provider to be configured")
	}
	if openai.Timeout != 30*time.Second {
		t.Errorf("expected timeout 30s, got %s", openai.Timeout)
	}
	if openai.APIKey != "sk-test" {
		t.Errorf("unexpected api key %q", openai.APIKey)
	}

	local := cfg.Providers["local"]
	if local.ProxyURL != "http://proxy.internal:3128" {
		t.Errorf("unexpected proxy URL %q", local.ProxyURL)
	}
	if local.MaxConcurrent != 25 {
		t.Errorf("expected max_concurrent 25, got %d", local.MaxConcurrent)
	}

	if cfg.Dispatch.MergePolicy != "best_effort" {
		t.Errorf("unexpected merge policy %q", cfg.Dispatch.MergePolicy)
	}
	if cfg.Dispatch.Deadline != 2*time.Minute {
		t.Errorf("unexpected deadline %s", cfg.Dispatch.Deadline)
	}
	if len(cfg.Dispatch.Targets) != 2 || cfg.Dispatch.Targets[0] != "openai" {
		t.Errorf("unexpected targets %v", cfg.Dispatch.Targets)
	}
}

func TestLoadConfig_Defaults(t *testing.T) {
	path := writeConfigFile(t, `
providers:
  openai:
    base_url: https://api.openai.com/v1
    api_key: sk-test
`)

	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig failed: %v", err)
	}

	p := cfg.Providers["openai"]
	if p.Timeout != DefaultProviderTimeout {
		t.Errorf("expected default timeout %s, got %s", DefaultProviderTimeout, p.Timeout)
	}
	if p.MaxConcurrent != DefaultMaxConcurrent {
		t.Errorf("expected default max_concurrent %d, got %d", DefaultMaxConcurrent, p.MaxConcurrent)
	}
	if p.MaxIdleConns != DefaultMaxIdleConns {
		t.Errorf("expected default max_idle_conns %d, got %d", DefaultMaxIdleConns, p.MaxIdleConns)
	}

	if cfg.Dispatch.MergePolicy != DefaultMergePolicy {
		t.Errorf("expected default merge policy %q, got %q", DefaultMergePolicy, cfg.Dispatch.MergePolicy)
	}
	if cfg.Telemetry.Logging.Level != DefaultLoggingLevel {
		t.Errorf("expected default log level %q, got %q", DefaultLoggingLevel, cfg.Telemetry.Logging.Level)
	}
	if !cfg.Telemetry.Logging.RedactSecrets {
		t.Error("expected secret redaction enabled by default")
	}
	if !cfg.Telemetry.Metrics.Enabled {
		t.Error("expected metrics enabled by default")
	}
	if cfg.Telemetry.Tracing.Enabled {
		t.Error("expected tracing disabled by default")
	}
	if cfg.Telemetry.Tracing.Sampler != DefaultTracingSampler {
		t.Errorf("expected default sampler %q, got %q", DefaultTracingSampler, cfg.Telemetry.Tracing.Sampler)
	}
}

func TestLoadConfig_FileNotFound(t *testing.T) {
	_, err := LoadConfig(filepath.Join(t.TempDir(), "missing.yaml"))
	if err == nil {
		t.Fatal("expected error for missing file")
	}
}

func TestLoadConfig_InvalidYAML(t *testing.T) {
	path := writeConfigFile(t, "providers: [not a map")

	_, err := LoadConfig(path)
	if err == nil {
		t.Fatal("expected error for invalid YAML")
	}
}

func TestLoadConfigWithEnvOverrides(t *testing.T) {
	path := writeConfigFile(t, sampleConfig)

	t.Setenv("COURIER_PROVIDER_OPENAI_API_KEY", "sk-from-env")
	t.Setenv("COURIER_PROVIDER_OPENAI_TIMEOUT", "45s")
	t.Setenv("COURIER_DISPATCH_MERGE_POLICY", "all_required")
	t.Setenv("COURIER_DISPATCH_TARGETS", "openai, local")
	t.Setenv("COURIER_LOGGING_LEVEL", "warn")

	cfg, err := LoadConfigWithEnvOverrides(path)
	if err != nil {
		t.Fatalf("LoadConfigWithEnvOverrides failed: %v", err)
	}

	if got := cfg.Providers["openai"].APIKey; got != "sk-from-env" {
		t.Errorf("expected api key from env, got %q", got)
	}
	if got := cfg.Providers["openai"].Timeout; got != 45*time.Second {
		t.Errorf("expected timeout 45s from env, got %s", got)
	}
	if cfg.Dispatch.MergePolicy != "all_required" {
		t.Errorf("expected merge policy from env, got %q", cfg.Dispatch.MergePolicy)
	}
	if len(cfg.Dispatch.Targets) != 2 || cfg.Dispatch.Targets[1] != "local" {
		t.Errorf("unexpected targets from env: %v", cfg.Dispatch.Targets)
	}
	if cfg.Telemetry.Logging.Level != "warn" {
		t.Errorf("expected log level from env, got %q", cfg.Telemetry.Logging.Level)
	}
}

func TestLoadConfigWithEnvOverrides_DashedProviderName(t *testing.T) {
	path := writeConfigFile(t, `
providers:
  local-vllm:
    base_url: http://localhost:8000/v1
`)

	t.Setenv("COURIER_PROVIDER_LOCAL_VLLM_API_KEY", "token-abc")

	cfg, err := LoadConfigWithEnvOverrides(path)
	if err != nil {
		t.Fatalf("LoadConfigWithEnvOverrides failed: %v", err)
	}

	if got := cfg.Providers["local-vllm"].APIKey; got != "token-abc" {
		t.Errorf("expected api key from env for dashed name, got %q", got)
	}
}

func TestLoadConfigWithEnvOverrides_InvalidOverride(t *testing.T) {
	path := writeConfigFile(t, sampleConfig)

	t.Setenv("COURIER_DISPATCH_MERGE_POLICY", "quorum")

	_, err := LoadConfigWithEnvOverrides(path)
	if err == nil {
		t.Fatal("expected validation error for unknown merge policy from env")
	}
}
