package providerfactory

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"sync"

	"mercury-hq/courier/pkg/config"
	"mercury-hq/courier/pkg/providers"
)

// PoolGaugeRegistrar receives a callback exposing a provider pool's in-use
// count. The metrics collector implements this.
type PoolGaugeRegistrar interface {
	RegisterPoolGauge(provider string, fn func() float64)
}

// Manager owns a set of provider instances built from one configuration.
//
// Registration order is fixed at construction and significant: the
// dispatcher reports composite results in this order. Providers named in
// dispatch targets come first, in target order; the rest follow sorted by
// name so the order is deterministic across runs.
//
// Manager is safe for concurrent use.
type Manager struct {
	mu        sync.RWMutex
	providers map[string]providers.Provider
	order     []string
	prober    *providers.Prober
	closeOnce sync.Once
}

// NewManager builds all providers from cfg. Construction is atomic: if any
// provider fails to build, the ones already built are closed and the error
// is returned.
//
// sink may be nil. gauges may be nil; when set, each provider's pool usage
// is registered as a gauge.
func NewManager(cfg *config.Config, sink providers.EventSink, gauges PoolGaugeRegistrar) (*Manager, error) {
	m := &Manager{
		providers: make(map[string]providers.Provider, len(cfg.Providers)),
		prober:    providers.NewProber(slog.Default()),
	}

	for _, name := range registrationOrder(cfg) {
		provider, err := NewProvider(name, cfg.Providers[name], sink)
		if err != nil {
			m.closeAll()
			return nil, err
		}

		m.providers[name] = provider
		m.order = append(m.order, name)

		if gauges != nil {
			pool := provider.Pool()
			gauges.RegisterPoolGauge(name, func() float64 {
				return float64(pool.InUse())
			})
		}
	}

	slog.Info("providers initialized",
		"count", len(m.order),
		"order", m.order,
	)

	return m, nil
}

// registrationOrder derives the deterministic provider order from cfg:
// dispatch targets first, then remaining providers sorted by name.
func registrationOrder(cfg *config.Config) []string {
	order := make([]string, 0, len(cfg.Providers))
	seen := make(map[string]bool, len(cfg.Providers))

	for _, name := range cfg.Dispatch.Targets {
		if _, ok := cfg.Providers[name]; ok && !seen[name] {
			order = append(order, name)
			seen[name] = true
		}
	}

	rest := make([]string, 0, len(cfg.Providers))
	for name := range cfg.Providers {
		if !seen[name] {
			rest = append(rest, name)
		}
	}
	sort.Strings(rest)

	return append(order, rest...)
}

// StartProbing schedules health probes for every provider with a
// health_schedule and starts the prober. Providers without a schedule are
// skipped. Probing stops when ctx is cancelled or the manager closes.
func (m *Manager) StartProbing(ctx context.Context, cfg *config.Config) error {
	m.mu.RLock()
	defer m.mu.RUnlock()

	for _, name := range m.order {
		schedule := cfg.Providers[name].HealthSchedule
		if err := m.prober.Add(ctx, m.providers[name], schedule); err != nil {
			return err
		}
	}

	m.prober.Start(ctx)
	return nil
}

// Get returns a provider by name.
func (m *Manager) Get(name string) (providers.Provider, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	provider, ok := m.providers[name]
	if !ok {
		return nil, fmt.Errorf("provider %q not found", name)
	}
	return provider, nil
}

// Names returns all provider names in registration order.
func (m *Manager) Names() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()

	names := make([]string, len(m.order))
	copy(names, m.order)
	return names
}

// Resolve maps target names to providers, preserving the given order.
// An unknown target fails the whole resolution.
func (m *Manager) Resolve(targets []string) ([]providers.Provider, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	resolved := make([]providers.Provider, 0, len(targets))
	for _, name := range targets {
		provider, ok := m.providers[name]
		if !ok {
			return nil, fmt.Errorf("provider %q not found", name)
		}
		resolved = append(resolved, provider)
	}
	return resolved, nil
}

// All returns every provider in registration order.
func (m *Manager) All() []providers.Provider {
	m.mu.RLock()
	defer m.mu.RUnlock()

	all := make([]providers.Provider, 0, len(m.order))
	for _, name := range m.order {
		all = append(all, m.providers[name])
	}
	return all
}

// Count returns the number of managed providers.
func (m *Manager) Count() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.order)
}

// HealthSummary reports per-provider health.
func (m *Manager) HealthSummary() HealthSummary {
	m.mu.RLock()
	defer m.mu.RUnlock()

	summary := HealthSummary{
		Total:   len(m.order),
		Details: make(map[string]providers.ProviderHealth, len(m.order)),
	}

	for name, provider := range m.providers {
		health := provider.Health()
		summary.Details[name] = health
		if health.IsHealthy {
			summary.Healthy++
		}
	}
	summary.Unhealthy = summary.Total - summary.Healthy

	return summary
}

// ReadinessCheck returns a check function suitable for registration with
// the health checker: it fails while no provider is healthy, so the
// readiness endpoint answers 503 until at least one upstream is usable.
func (m *Manager) ReadinessCheck() func(ctx context.Context) error {
	return func(ctx context.Context) error {
		summary := m.HealthSummary()
		if summary.Total == 0 {
			return errors.New("no providers configured")
		}
		if summary.Healthy == 0 {
			return fmt.Errorf("no healthy providers (%d configured)", summary.Total)
		}
		return nil
	}
}

// Close stops probing and closes all providers. Safe to call repeatedly.
func (m *Manager) Close() error {
	m.closeOnce.Do(func() {
		m.prober.Stop()
		m.mu.Lock()
		m.closeAll()
		m.mu.Unlock()
		slog.Info("provider manager closed")
	})
	return nil
}

// closeAll closes every provider. Callers hold the lock (or own the
// manager exclusively during construction).
func (m *Manager) closeAll() {
	for name, provider := range m.providers {
		if err := provider.Close(); err != nil {
			slog.Error("error closing provider", "provider", name, "error", err)
		}
	}
	m.providers = make(map[string]providers.Provider)
	m.order = nil
}

// HealthSummary is an overview of provider health across the manager.
type HealthSummary struct {
	// Total is the total number of providers
	Total int

	// Healthy is the number of healthy providers
	Healthy int

	// Unhealthy is the number of unhealthy providers
	Unhealthy int

	// Details contains per-provider health information
	Details map[string]providers.ProviderHealth
}
