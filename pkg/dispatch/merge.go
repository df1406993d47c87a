package dispatch

import (
	"encoding/json"
	"fmt"
)

// mergedEntry tags one successful body with the provider that produced it,
// so a composite document stays attributable after aggregation.
type mergedEntry struct {
	Provider string          `json:"provider"`
	Body     json.RawMessage `json:"body"`
}

// mergeBodies builds the composite document for AllRequired and BestEffort:
// an ordered JSON array of tagged successful bodies, in registration order.
func mergeBodies(results []Result) (json.RawMessage, error) {
	entries := make([]mergedEntry, 0, len(results))
	for _, r := range results {
		if !r.OK() {
			continue
		}
		entries = append(entries, mergedEntry{
			Provider: r.ProviderID,
			Body:     r.Body,
		})
	}

	merged, err := json.Marshal(entries)
	if err != nil {
		return nil, fmt.Errorf("failed to merge bodies: %w", err)
	}
	return merged, nil
}

// failedProviders lists the failed provider names in registration order.
func failedProviders(results []Result) []string {
	failed := make([]string, 0, len(results))
	for _, r := range results {
		if !r.OK() {
			failed = append(failed, r.ProviderID)
		}
	}
	return failed
}
