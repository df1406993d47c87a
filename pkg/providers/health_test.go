package providers

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"
)

func TestProber_ProbesOnSchedule(t *testing.T) {
	var probes atomic.Int64
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		probes.Add(1)
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	client, err := NewHTTPClient(ClientConfig{
		Name:    "probed",
		BaseURL: server.URL,
		Timeout: time.Second,
	}, nil)
	if err != nil {
		t.Fatalf("NewHTTPClient failed: %v", err)
	}
	defer client.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	prober := NewProber(nil)
	if err := prober.Add(ctx, &probeTarget{client}, "* * * * * *"); err != nil {
		t.Fatalf("Add failed: %v", err)
	}
	prober.Start(ctx)
	defer prober.Stop()

	deadline := time.Now().Add(3 * time.Second)
	for probes.Load() == 0 {
		if time.Now().After(deadline) {
			t.Fatal("no probe fired within 3s on a per-second schedule")
		}
		time.Sleep(50 * time.Millisecond)
	}
}

func TestProber_EmptyScheduleIsNoop(t *testing.T) {
	client, err := NewHTTPClient(ClientConfig{
		Name:    "unprobed",
		BaseURL: "http://localhost:1",
		Timeout: time.Second,
	}, nil)
	if err != nil {
		t.Fatalf("NewHTTPClient failed: %v", err)
	}
	defer client.Close()

	prober := NewProber(nil)
	if err := prober.Add(context.Background(), &probeTarget{client}, ""); err != nil {
		t.Errorf("empty schedule must be a no-op, got %v", err)
	}
}

func TestProber_RejectsInvalidSchedule(t *testing.T) {
	client, err := NewHTTPClient(ClientConfig{
		Name:    "bad-schedule",
		BaseURL: "http://localhost:1",
		Timeout: time.Second,
	}, nil)
	if err != nil {
		t.Fatalf("NewHTTPClient failed: %v", err)
	}
	defer client.Close()

	prober := NewProber(nil)
	if err := prober.Add(context.Background(), &probeTarget{client}, "not a cron line"); err == nil {
		t.Error("expected error for invalid schedule")
	}
}

// probeTarget adapts a bare HTTPClient to the Provider interface for
// prober tests; completions are never exercised here.
type probeTarget struct {
	*HTTPClient
}

func (p *probeTarget) SendCompletion(ctx context.Context, req *CompletionRequest) (*CompletionResponse, error) {
	return nil, &ValidationError{Field: "request", Message: "not implemented"}
}

func (p *probeTarget) StreamCompletion(ctx context.Context, req *CompletionRequest) (<-chan *StreamChunk, error) {
	return nil, &ValidationError{Field: "request", Message: "not implemented"}
}
