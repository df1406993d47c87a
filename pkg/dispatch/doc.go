// Package dispatch implements composite fan-out: one logical completion
// request sent to multiple providers concurrently, merged into one result.
//
// Three merge policies are supported. FirstSuccess returns the first
// successful body and cancels the rest; AllRequired demands every target
// succeed and fails with a PartialFailureError otherwise; BestEffort keeps
// whatever succeeded and records failures as data. Under every policy the
// composite result lists one entry per target in registration order, so
// callers and tests see deterministic output regardless of completion
// timing.
package dispatch
