/*
errors.go - Centralized error types for the shift engine

PURPOSE:
  All error types in one place for consistency and discoverability.
  Callers classify with errors.Is against the sentinels; the HTTP layer
  maps the taxonomy to status codes.

ERROR CATEGORIES:
  1. Domain errors  - NotFound, Conflict, Validation, PermissionDenied.
     Returned to the caller for direct display, never retried.
  2. Transient errors - store/channel unreachable. Retried internally
     with bounded backoff; after exhaustion surfaced as a recoverable
     sync-failed condition, not a crash.

USAGE:
    if errors.Is(err, shift.ErrConflict) {
        // employee already has an open shift
    }

SEE ALSO:
  - service.go:  Produces domain errors
  - notifier.go: Retries transient errors
  - api/handlers.go: Maps errors to HTTP statuses
*/
package shift

import (
	"errors"
	"fmt"
	"time"
)

// =============================================================================
// SENTINEL ERRORS - Use with errors.Is()
// =============================================================================

var (
	// ErrNotFound is returned when a referenced entry or employee is absent.
	// Repeated deletes surface this to expose UI desync; it is deliberate
	// that delete is not idempotent.
	ErrNotFound = errors.New("not found")

	// ErrConflict is returned when starting a shift would give an employee
	// a second open entry (the single-active-shift rule).
	ErrConflict = errors.New("employee already has an open shift")

	// ErrValidation is returned for end-before-start, negative revenue and
	// malformed input.
	ErrValidation = errors.New("validation failed")

	// ErrPermissionDenied is returned when a non-admin edits another
	// employee's entry or restricted fields of their own.
	ErrPermissionDenied = errors.New("permission denied")

	// ErrTransient is returned when the ledger or notification channel is
	// unreachable. Safe to retry.
	ErrTransient = errors.New("transient store error")
)

// =============================================================================
// STRUCTURED ERRORS - Carry additional context
// =============================================================================

// OpenShiftConflictError reports which entry blocks a new shift.
type OpenShiftConflictError struct {
	EmployeeID EmployeeID
	OpenEntry  EntryID
}

func (e *OpenShiftConflictError) Error() string {
	return fmt.Sprintf("employee %s already has open shift %s", e.EmployeeID, e.OpenEntry)
}

func (e *OpenShiftConflictError) Unwrap() error { return ErrConflict }

// FieldValidationError reports which field failed validation and why.
type FieldValidationError struct {
	Field  string
	Reason string
}

func (e *FieldValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

func (e *FieldValidationError) Unwrap() error { return ErrValidation }

// EndBeforeStartError reports a rejected close time. Policy is to reject,
// not clamp, so operator mistakes surface immediately.
type EndBeforeStartError struct {
	Start time.Time
	End   time.Time
}

func (e *EndBeforeStartError) Error() string {
	return fmt.Sprintf("end time %s precedes start time %s",
		e.End.Format(time.RFC3339), e.Start.Format(time.RFC3339))
}

func (e *EndBeforeStartError) Unwrap() error { return ErrValidation }

// =============================================================================
// ERROR HELPERS
// =============================================================================

// IsRetryable returns true if the error might succeed on retry.
func IsRetryable(err error) bool {
	return errors.Is(err, ErrTransient)
}

// IsClientError returns true if the error is due to invalid client input
// or state, i.e. should be shown to the caller rather than retried.
func IsClientError(err error) bool {
	return errors.Is(err, ErrValidation) ||
		errors.Is(err, ErrConflict) ||
		errors.Is(err, ErrNotFound) ||
		errors.Is(err, ErrPermissionDenied)
}
