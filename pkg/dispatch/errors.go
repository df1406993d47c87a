package dispatch

import (
	"errors"
	"fmt"
	"strings"
)

// Sentinel errors usable with errors.Is().
var (
	// ErrNoProviderConfigured is returned when a composite call has no
	// targets. An empty target set is a caller programming error, never an
	// empty success.
	ErrNoProviderConfigured = errors.New("no provider configured for dispatch")

	// ErrPartialFailure is returned when the merge policy cannot tolerate
	// the set of failed providers.
	ErrPartialFailure = errors.New("partial failure across providers")
)

// PartialFailureError reports which providers failed a composite call.
// Under AllRequired any failure produces it; under FirstSuccess it is
// produced only when no provider succeeded.
type PartialFailureError struct {
	// FailedProviders lists the failed provider names in registration order.
	FailedProviders []string
}

// Error implements the error interface.
func (e *PartialFailureError) Error() string {
	return fmt.Sprintf("providers failed: [%s]", strings.Join(e.FailedProviders, ", "))
}

// Is implements error matching for errors.Is().
func (e *PartialFailureError) Is(target error) bool {
	return target == ErrPartialFailure
}
