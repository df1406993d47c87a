package providers

import (
	"context"
	"sync"
	"testing"
	"time"
)

func newTestPool(maxConcurrent int) *TransportPool {
	return NewTransportPool(ClientConfig{
		Name:          "test",
		BaseURL:       "http://localhost",
		MaxConcurrent: maxConcurrent,
	}, ResolvedProxy{})
}

func TestTransportPool_AcquireRelease(t *testing.T) {
	pool := newTestPool(2)
	ctx := context.Background()

	release1, err := pool.Acquire(ctx)
	if err != nil {
		t.Fatalf("Acquire failed: %v", err)
	}
	release2, err := pool.Acquire(ctx)
	if err != nil {
		t.Fatalf("Acquire failed: %v", err)
	}

	if got := pool.InUse(); got != 2 {
		t.Errorf("expected 2 slots in use, got %d", got)
	}

	// Pool is full: the next acquire must block until a slot frees.
	blockedCtx, cancel := context.WithTimeout(ctx, 50*time.Millisecond)
	defer cancel()
	if _, err := pool.Acquire(blockedCtx); err == nil {
		t.Error("expected Acquire to fail on a full pool with expired context")
	}

	release1()
	release3, err := pool.Acquire(ctx)
	if err != nil {
		t.Fatalf("Acquire after release failed: %v", err)
	}

	release2()
	release3()
	if got := pool.InUse(); got != 0 {
		t.Errorf("expected 0 slots in use after releases, got %d", got)
	}
}

func TestTransportPool_ReleaseIdempotent(t *testing.T) {
	pool := newTestPool(1)

	release, err := pool.Acquire(context.Background())
	if err != nil {
		t.Fatalf("Acquire failed: %v", err)
	}

	release()
	release()
	release()

	if got := pool.InUse(); got != 0 {
		t.Errorf("expected 0 in use after repeated release, got %d", got)
	}

	// The slot must be reusable exactly once, not tripled.
	r1, err := pool.Acquire(context.Background())
	if err != nil {
		t.Fatalf("Acquire failed: %v", err)
	}
	defer r1()

	blockedCtx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	if _, err := pool.Acquire(blockedCtx); err == nil {
		t.Error("expected pool to be full again after single re-acquire")
	}
}

func TestTransportPool_NoLeakUnderConcurrency(t *testing.T) {
	pool := newTestPool(8)
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 100; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			release, err := pool.Acquire(ctx)
			if err != nil {
				t.Errorf("Acquire failed: %v", err)
				return
			}
			defer release()
			time.Sleep(time.Millisecond)
		}()
	}
	wg.Wait()

	if got := pool.InUse(); got != 0 {
		t.Errorf("slot leak: %d slots still held after all work completed", got)
	}

	// Verify the full capacity is available again.
	releases := make([]func(), 0, pool.Cap())
	for i := 0; i < pool.Cap(); i++ {
		release, err := pool.Acquire(ctx)
		if err != nil {
			t.Fatalf("Acquire %d failed after batch: %v", i, err)
		}
		releases = append(releases, release)
	}
	for _, release := range releases {
		release()
	}
}

func TestTransportPool_DefaultBound(t *testing.T) {
	pool := newTestPool(0)
	if pool.Cap() != DefaultMaxConcurrent {
		t.Errorf("expected default bound %d, got %d", DefaultMaxConcurrent, pool.Cap())
	}
}

func TestTransportPool_CloseIdempotent(t *testing.T) {
	pool := newTestPool(4)

	pool.Close()
	pool.Close()

	if !pool.Closed() {
		t.Error("expected pool to report closed")
	}
}

func TestTransportPool_AcquireCancelled(t *testing.T) {
	pool := newTestPool(1)

	release, err := pool.Acquire(context.Background())
	if err != nil {
		t.Fatalf("Acquire failed: %v", err)
	}
	defer release()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := pool.Acquire(ctx); err != context.Canceled {
		t.Errorf("expected context.Canceled, got %v", err)
	}
	if got := pool.InUse(); got != 1 {
		t.Errorf("cancelled acquire must not consume a slot, in use: %d", got)
	}
}
