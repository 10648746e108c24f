package provider

import "fmt"

// ValidationError is returned before any network call when the search
// criteria are missing a required parameter.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid search criteria: %s: %s", e.Field, e.Reason)
}

// SourceTimeoutError indicates a single sub-request exceeded its deadline.
// Sibling sub-requests are unaffected.
type SourceTimeoutError struct {
	Scope string
}

func (e *SourceTimeoutError) Error() string {
	return fmt.Sprintf("provider request timed out (scope: %s)", e.Scope)
}

// SourceUnavailableError indicates a non-2xx response or transport failure
// for a single sub-request.
type SourceUnavailableError struct {
	Scope      string
	StatusCode int
	Err        error
}

func (e *SourceUnavailableError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("provider unavailable (scope: %s): %v", e.Scope, e.Err)
	}
	return fmt.Sprintf("provider unavailable (scope: %s): status %d", e.Scope, e.StatusCode)
}

func (e *SourceUnavailableError) Unwrap() error {
	return e.Err
}

// QuotaExceededError indicates the provider request quota is exhausted.
// The sub-request is skipped without touching the network.
type QuotaExceededError struct {
	Scope string
}

func (e *QuotaExceededError) Error() string {
	return fmt.Sprintf("provider quota exceeded (scope: %s)", e.Scope)
}
