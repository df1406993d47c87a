package dispatch

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"mercury-hq/courier/pkg/config"
	"mercury-hq/courier/pkg/providers"
	"mercury-hq/courier/pkg/telemetry/tracing"

	"github.com/google/uuid"
)

// Observer receives the outcome of each composite dispatch. The metrics
// collector implements this; a nil observer disables reporting.
type Observer interface {
	ObserveDispatch(policy, outcome string, elapsed time.Duration)
}

// Dispatch outcome values reported to the Observer.
const (
	OutcomeSuccess = "success"
	OutcomePartial = "partial"
	OutcomeFailure = "failure"
)

// Dispatcher fans one logical completion request out to multiple providers
// and merges their results according to a configured policy.
//
// Per-provider failures are always captured as data in the composite
// result; whether they fail the composite call is the policy's decision.
// The dispatcher performs no retries.
type Dispatcher struct {
	policy        MergePolicy
	deadline      time.Duration
	skipUnhealthy bool
	observer      Observer
	tracer        *tracing.Tracer
	logger        *slog.Logger
}

// NewDispatcher creates a dispatcher from configuration. observer,
// tracer, and logger may be nil; a nil tracer disables span recording.
func NewDispatcher(cfg config.DispatchConfig, observer Observer, tracer *tracing.Tracer, logger *slog.Logger) (*Dispatcher, error) {
	policy, err := ParseMergePolicy(cfg.MergePolicy)
	if err != nil {
		return nil, err
	}

	if tracer == nil {
		// A disabled tracer never fails to construct.
		tracer, _ = tracing.New(config.TracingConfig{})
	}
	if logger == nil {
		logger = slog.Default()
	}

	return &Dispatcher{
		policy:        policy,
		deadline:      cfg.Deadline,
		skipUnhealthy: cfg.SkipUnhealthy,
		observer:      observer,
		tracer:        tracer,
		logger:        logger.With("component", "dispatch"),
	}, nil
}

// Policy returns the configured merge policy.
func (d *Dispatcher) Policy() MergePolicy {
	return d.policy
}

// Dispatch sends req to every target concurrently and merges the results.
//
// The Results sequence of the returned CompositeResult is ordered by the
// targets' registration order regardless of completion order. A configured
// deadline bounds the whole composite call; on expiry outstanding provider
// calls are cancelled and the result carries the DeadlineExceeded marker.
//
// An empty target set (including one emptied by the skip_unhealthy filter)
// fails with ErrNoProviderConfigured.
func (d *Dispatcher) Dispatch(ctx context.Context, req *providers.CompletionRequest, targets []providers.Provider) (*CompositeResult, error) {
	start := time.Now()

	if d.skipUnhealthy {
		targets = healthyOnly(targets)
	}
	if len(targets) == 0 {
		d.observe(OutcomeFailure, time.Since(start))
		return nil, ErrNoProviderConfigured
	}

	dispatchID := uuid.NewString()
	ctx = providers.WithDispatchID(ctx, dispatchID)

	ctx, span := d.tracer.Start(ctx, "courier.dispatch")
	defer span.End()
	span.SetAttributes(tracing.DispatchAttributes(dispatchID, d.policy.String(), providerNames(targets))...)

	dispatchCtx := ctx
	if d.deadline > 0 {
		var cancel context.CancelFunc
		dispatchCtx, cancel = context.WithTimeout(ctx, d.deadline)
		defer cancel()
	}

	// fanCtx lets FirstSuccess cancel the losers without tearing down the
	// composite deadline bookkeeping.
	fanCtx, cancelFan := context.WithCancel(dispatchCtx)
	defer cancelFan()

	d.logger.Debug("dispatch started",
		"dispatch_id", dispatchID,
		"policy", d.policy.String(),
		"targets", providerNames(targets),
	)

	results := make([]Result, len(targets))

	var mu sync.Mutex
	winner := -1

	var wg sync.WaitGroup
	for i, target := range targets {
		wg.Add(1)
		go func(i int, target providers.Provider) {
			defer wg.Done()

			callCtx, callSpan := d.tracer.Start(fanCtx, "courier.provider.call")
			tracing.SetProviderAttributes(callSpan, target.Name(), req.Model)

			callStart := time.Now()
			resp, err := target.SendCompletion(callCtx, req)
			latency := time.Since(callStart)

			if err != nil {
				tracing.SetStatusKindAttribute(callSpan, providers.StatusKindOf(err))
				tracing.SetError(callSpan, err)
				callSpan.End()

				results[i] = Result{
					ProviderID: target.Name(),
					Status:     StatusError,
					Err:        err,
					Latency:    latency,
				}
				return
			}

			tracing.SetTokenAttributes(callSpan, resp.Usage.PromptTokens, resp.Usage.CompletionTokens)
			tracing.SetError(callSpan, nil)
			callSpan.End()

			results[i] = Result{
				ProviderID: target.Name(),
				Status:     StatusOK,
				Response:   resp,
				Body:       resp.Raw,
				Latency:    latency,
			}

			if d.policy == FirstSuccess {
				mu.Lock()
				if winner == -1 {
					winner = i
					cancelFan()
				}
				mu.Unlock()
			}
		}(i, target)
	}

	// All goroutines must finish before returning so cancelled losers have
	// provably released their pool slots.
	wg.Wait()

	composite := &CompositeResult{
		DispatchID:       dispatchID,
		Results:          results,
		DeadlineExceeded: dispatchCtx.Err() == context.DeadlineExceeded,
		Elapsed:          time.Since(start),
	}

	err := d.merge(composite, winner)

	outcome := classifyOutcome(composite, err)
	d.observe(outcome, composite.Elapsed)

	tracing.SetOutcomeAttribute(span, outcome)
	tracing.SetError(span, err)

	d.logger.Info("dispatch finished",
		"dispatch_id", dispatchID,
		"policy", d.policy.String(),
		"outcome", outcome,
		"deadline_exceeded", composite.DeadlineExceeded,
		"elapsed_ms", composite.Elapsed.Milliseconds(),
	)

	return composite, err
}

// merge applies the merge policy to the collected results, filling
// MergedBody or producing the composite-level error.
func (d *Dispatcher) merge(composite *CompositeResult, winner int) error {
	switch d.policy {
	case FirstSuccess:
		if winner >= 0 {
			composite.MergedBody = composite.Results[winner].Body
			return nil
		}
		return &PartialFailureError{FailedProviders: failedProviders(composite.Results)}

	case AllRequired:
		if failed := failedProviders(composite.Results); len(failed) > 0 {
			return &PartialFailureError{FailedProviders: failed}
		}
		merged, err := mergeBodies(composite.Results)
		if err != nil {
			return err
		}
		composite.MergedBody = merged
		return nil

	default: // BestEffort
		merged, err := mergeBodies(composite.Results)
		if err != nil {
			return err
		}
		composite.MergedBody = merged
		return nil
	}
}

// observe reports the dispatch outcome to the observer, if any.
func (d *Dispatcher) observe(outcome string, elapsed time.Duration) {
	if d.observer != nil {
		d.observer.ObserveDispatch(d.policy.String(), outcome, elapsed)
	}
}

// classifyOutcome maps a finished dispatch to an Observer outcome value.
func classifyOutcome(composite *CompositeResult, err error) string {
	if err != nil {
		return OutcomeFailure
	}
	for _, r := range composite.Results {
		if !r.OK() {
			return OutcomePartial
		}
	}
	return OutcomeSuccess
}

// healthyOnly filters out providers currently marked unhealthy.
func healthyOnly(targets []providers.Provider) []providers.Provider {
	healthy := make([]providers.Provider, 0, len(targets))
	for _, t := range targets {
		if t.IsHealthy() {
			healthy = append(healthy, t)
		}
	}
	return healthy
}

// providerNames lists target names for logging.
func providerNames(targets []providers.Provider) []string {
	names := make([]string, len(targets))
	for i, t := range targets {
		names[i] = t.Name()
	}
	return names
}
