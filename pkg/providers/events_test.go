package providers

import (
	"bytes"
	"context"
	"log/slog"
	"strings"
	"testing"
)

func TestSlogSink(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))

	sink := NewSlogSink(logger)
	sink.RecordCall(CallEvent{
		DispatchID: "d-1",
		ProviderID: "openai",
		ProxyUsed:  "proxy.internal:3128",
		LatencyMs:  42,
		StatusKind: StatusKindOK,
	})

	out := buf.String()
	for _, want := range []string{`"provider":"openai"`, `"dispatch_id":"d-1"`, `"latency_ms":42`} {
		if !strings.Contains(out, want) {
			t.Errorf("log output missing %s: %s", want, out)
		}
	}
}

func TestMultiSink(t *testing.T) {
	var a, b []CallEvent
	sink := MultiSink{
		sinkFunc(func(e CallEvent) { a = append(a, e) }),
		sinkFunc(func(e CallEvent) { b = append(b, e) }),
	}

	sink.RecordCall(CallEvent{ProviderID: "p"})

	if len(a) != 1 || len(b) != 1 {
		t.Errorf("expected both sinks to receive the event, got %d/%d", len(a), len(b))
	}
}

type sinkFunc func(CallEvent)

func (f sinkFunc) RecordCall(e CallEvent) { f(e) }

func TestDispatchIDContext(t *testing.T) {
	ctx := context.Background()
	if got := DispatchIDFromContext(ctx); got != "" {
		t.Errorf("expected empty dispatch ID, got %q", got)
	}

	ctx = WithDispatchID(ctx, "d-42")
	if got := DispatchIDFromContext(ctx); got != "d-42" {
		t.Errorf("expected d-42, got %q", got)
	}
}
