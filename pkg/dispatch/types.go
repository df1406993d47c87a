package dispatch

import (
	"encoding/json"
	"fmt"
	"time"

	"mercury-hq/courier/pkg/providers"
)

// MergePolicy selects how multiple provider results become one composite
// result.
type MergePolicy int

const (
	// FirstSuccess returns the first successful result and cancels the
	// remaining in-flight calls.
	FirstSuccess MergePolicy = iota

	// AllRequired waits for all targets; any failure fails the composite
	// call with a PartialFailureError.
	AllRequired

	// BestEffort waits for all targets and merges the successful bodies;
	// failures are recorded as data without failing the call.
	BestEffort
)

// String returns the policy's configuration name.
func (p MergePolicy) String() string {
	switch p {
	case FirstSuccess:
		return "first_success"
	case AllRequired:
		return "all_required"
	case BestEffort:
		return "best_effort"
	default:
		return fmt.Sprintf("unknown(%d)", int(p))
	}
}

// ParseMergePolicy parses a configuration string into a MergePolicy.
func ParseMergePolicy(s string) (MergePolicy, error) {
	switch s {
	case "first_success", "":
		return FirstSuccess, nil
	case "all_required":
		return AllRequired, nil
	case "best_effort":
		return BestEffort, nil
	default:
		return FirstSuccess, fmt.Errorf("unknown merge policy %q (supported: first_success, all_required, best_effort)", s)
	}
}

// Result status values.
const (
	StatusOK    = "ok"
	StatusError = "error"
)

// Result is the outcome of one provider call within a composite dispatch.
// Failures are data here, never panics or lost errors: Err carries the
// classified failure and Status marks the entry.
type Result struct {
	// ProviderID is the provider's configured name.
	ProviderID string `json:"provider_id"`

	// Status is StatusOK or StatusError.
	Status string `json:"status"`

	// Response is the normalized response, nil on failure.
	Response *providers.CompletionResponse `json:"response,omitempty"`

	// Body is the provider's raw response document, nil on failure.
	Body json.RawMessage `json:"body,omitempty"`

	// Err is the classified failure, nil on success.
	Err error `json:"-"`

	// Latency is the wall time of this provider call.
	Latency time.Duration `json:"latency"`
}

// OK reports whether this result is a success.
func (r Result) OK() bool {
	return r.Status == StatusOK
}

// ErrorKind returns the classified kind of this result's failure, or
// StatusKindOK for successes.
func (r Result) ErrorKind() string {
	return providers.StatusKindOf(r.Err)
}

// CompositeResult is the aggregate outcome of one composite dispatch.
// Results are ordered by provider registration order regardless of
// completion order.
type CompositeResult struct {
	// DispatchID identifies this composite call in events and logs.
	DispatchID string `json:"dispatch_id"`

	// Results holds one entry per dispatched provider, in registration
	// order.
	Results []Result `json:"results"`

	// MergedBody is the policy-derived composite document. For
	// FirstSuccess it is the winner's body verbatim; for AllRequired and
	// BestEffort it is an ordered JSON array of tagged successful bodies.
	MergedBody json.RawMessage `json:"merged_body,omitempty"`

	// DeadlineExceeded marks that the composite deadline expired before
	// all providers finished.
	DeadlineExceeded bool `json:"deadline_exceeded,omitempty"`

	// Elapsed is the wall time of the whole dispatch.
	Elapsed time.Duration `json:"elapsed"`
}

// Successes returns the successful results in registration order.
func (cr *CompositeResult) Successes() []Result {
	out := make([]Result, 0, len(cr.Results))
	for _, r := range cr.Results {
		if r.OK() {
			out = append(out, r)
		}
	}
	return out
}
