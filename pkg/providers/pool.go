package providers

import (
	"context"
	"net/http"
	"sync"
	"sync/atomic"
)

// DefaultMaxConcurrent bounds in-flight requests per client when the
// configuration does not say otherwise.
const DefaultMaxConcurrent = 100

// TransportPool owns the reusable HTTP transport for one client instance
// and bounds the number of concurrent in-flight requests through it.
//
// The pool outlives every request issued through it: Close is called by the
// owning client only after in-flight work has drained, and calling it more
// than once is safe.
type TransportPool struct {
	transport *http.Transport
	slots     chan struct{}
	inUse     atomic.Int64
	closeOnce sync.Once
	closed    atomic.Bool
}

// NewTransportPool creates a pool with keep-alive connection reuse and the
// client's resolved proxy installed at the connection-establishment layer.
func NewTransportPool(cfg ClientConfig, proxy ResolvedProxy) *TransportPool {
	maxConcurrent := cfg.MaxConcurrent
	if maxConcurrent <= 0 {
		maxConcurrent = DefaultMaxConcurrent
	}

	transport := &http.Transport{
		Proxy:               proxy.ProxyFunc(),
		MaxIdleConns:        cfg.MaxIdleConns,
		MaxIdleConnsPerHost: cfg.MaxIdleConnsPerHost,
		IdleConnTimeout:     cfg.IdleConnTimeout,
		DisableCompression:  false,
		ForceAttemptHTTP2:   true,
	}

	return &TransportPool{
		transport: transport,
		slots:     make(chan struct{}, maxConcurrent),
	}
}

// Acquire claims a request slot, blocking until one is free or ctx is done.
// The returned release function is idempotent and must be called on every
// exit path; callers defer it immediately so success, error, timeout, and
// cancellation all return the slot.
func (p *TransportPool) Acquire(ctx context.Context) (func(), error) {
	select {
	case p.slots <- struct{}{}:
	case <-ctx.Done():
		return nil, ctx.Err()
	}

	p.inUse.Add(1)

	var once sync.Once
	release := func() {
		once.Do(func() {
			p.inUse.Add(-1)
			<-p.slots
		})
	}
	return release, nil
}

// Transport returns the pooled transport for building an http.Client.
func (p *TransportPool) Transport() http.RoundTripper {
	return p.transport
}

// InUse returns the number of currently held slots.
func (p *TransportPool) InUse() int64 {
	return p.inUse.Load()
}

// Cap returns the configured concurrent-request bound.
func (p *TransportPool) Cap() int {
	return cap(p.slots)
}

// Close releases idle connections. It is idempotent; connections are not
// reused after closing.
func (p *TransportPool) Close() {
	p.closeOnce.Do(func() {
		p.closed.Store(true)
		p.transport.CloseIdleConnections()
	})
}

// Closed reports whether Close has been called.
func (p *TransportPool) Closed() bool {
	return p.closed.Load()
}
