package providers

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/robfig/cron/v3"
)

// Prober runs scheduled health probes against registered providers.
// Schedules use cron syntax with an optional seconds field, so sub-minute
// probing intervals work (e.g., "*/30 * * * * *" every 30 seconds).
//
// Probing is optional: providers registered with an empty schedule are
// skipped, and a Prober with no entries does nothing.
type Prober struct {
	cron    *cron.Cron
	logger  *slog.Logger
	mu      sync.Mutex
	running bool
}

// NewProber creates a health prober.
func NewProber(logger *slog.Logger) *Prober {
	if logger == nil {
		logger = slog.Default()
	}
	return &Prober{
		cron:   cron.New(cron.WithSeconds()),
		logger: logger.With("component", "providers.prober"),
	}
}

// Add registers a provider for probing on the given cron schedule.
// An empty schedule is a no-op.
func (p *Prober) Add(ctx context.Context, provider Provider, schedule string) error {
	if schedule == "" {
		return nil
	}

	_, err := p.cron.AddFunc(schedule, func() {
		p.probe(ctx, provider)
	})
	if err != nil {
		return fmt.Errorf("invalid health schedule %q for provider %q: %w",
			schedule, provider.Name(), err)
	}

	p.logger.Info("health probe scheduled",
		"provider", provider.Name(),
		"schedule", schedule,
	)
	return nil
}

// probe runs one health check and logs transitions.
func (p *Prober) probe(ctx context.Context, provider Provider) {
	wasHealthy := provider.IsHealthy()

	if err := provider.HealthCheck(ctx); err != nil {
		p.logger.Debug("health probe failed",
			"provider", provider.Name(),
			"error", err,
		)
		if wasHealthy && !provider.IsHealthy() {
			p.logger.Warn("provider became unhealthy", "provider", provider.Name())
		}
		return
	}

	if !wasHealthy {
		p.logger.Info("provider recovered", "provider", provider.Name())
	}
}

// Start begins running scheduled probes. It returns immediately; probes
// run on the cron scheduler's goroutine. The prober stops when ctx is
// cancelled or Stop is called.
func (p *Prober) Start(ctx context.Context) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.running {
		return
	}
	p.cron.Start()
	p.running = true

	go func() {
		<-ctx.Done()
		p.Stop()
	}()
}

// Stop stops the scheduler and waits for any running probes to complete.
// It is safe to call more than once.
func (p *Prober) Stop() {
	p.mu.Lock()
	defer p.mu.Unlock()

	if !p.running {
		return
	}
	stopCtx := p.cron.Stop()
	<-stopCtx.Done()
	p.running = false
	p.logger.Info("health prober stopped")
}
