/*
lifecycle.go - Shift state transitions and field validation

PURPOSE:
  A shift has exactly two states: Open (no end time) and Closed. This
  file defines the inputs for each transition and validates them once,
  centrally, before anything reaches the ledger.

TRANSITIONS:
  Start:    none -> Open     (rejects a second open shift per employee)
  End:      Open -> Closed   (rejects end before start)
  ForceEnd: Open -> Closed   (admin, current time, idempotent)
  Edit:     no state change  (admin may correct any field)
  Delete:   removes the row  (admin, permanent)

PARTIAL UPDATES:
  Edits are modeled as an explicit EntryPatch of optional fields, not an
  ad hoc merge. Validation happens in one place (EntryPatch.Validate and
  ValidateTimes) so the ledger implementations stay dumb.

SEE ALSO:
  - service.go: Applies permission rules and drives the transitions
  - store.go:   Persists the results
*/
package shift

import (
	"time"

	"github.com/shopspring/decimal"
)

// =============================================================================
// TRANSITION INPUTS
// =============================================================================

// StartInput opens a shift. Zero At means "now"; zero Revenue is the
// provisional value finalized at close.
type StartInput struct {
	EmployeeID EmployeeID
	At         time.Time
	Revenue    decimal.Decimal
}

func (in StartInput) Validate() error {
	if in.EmployeeID == "" {
		return &FieldValidationError{Field: "employee_id", Reason: "required"}
	}
	if in.Revenue.IsNegative() {
		return &FieldValidationError{Field: "revenue", Reason: "must not be negative"}
	}
	return nil
}

// EndInput closes the caller's open shift. Zero At means "now". Revenue
// replaces the provisional value recorded at start.
type EndInput struct {
	At      time.Time
	Revenue decimal.Decimal
}

func (in EndInput) Validate() error {
	if in.Revenue.IsNegative() {
		return &FieldValidationError{Field: "revenue", Reason: "must not be negative"}
	}
	return nil
}

// =============================================================================
// ENTRY PATCH - Tagged optional-field set for edits
// =============================================================================

// EntryPatch is a partial update. Nil fields are untouched. ClearEnd
// reopens a closed entry (EndTime set and ClearEnd set together is
// rejected).
type EntryPatch struct {
	EmployeeID *EmployeeID
	StartTime  *time.Time
	EndTime    *time.Time
	ClearEnd   bool
	Revenue    *decimal.Decimal
}

// Empty reports whether the patch changes nothing.
func (p EntryPatch) Empty() bool {
	return p.EmployeeID == nil && p.StartTime == nil && p.EndTime == nil &&
		!p.ClearEnd && p.Revenue == nil
}

// Validate checks the patch in isolation and against the entry it will
// be applied to. Resulting state must satisfy the revenue and time
// ordering invariants.
func (p EntryPatch) Validate(current TimeEntry) error {
	if p.EndTime != nil && p.ClearEnd {
		return &FieldValidationError{Field: "end_time", Reason: "cannot set and clear in one update"}
	}
	if p.EmployeeID != nil && *p.EmployeeID == "" {
		return &FieldValidationError{Field: "employee_id", Reason: "required"}
	}
	if p.Revenue != nil && p.Revenue.IsNegative() {
		return &FieldValidationError{Field: "revenue", Reason: "must not be negative"}
	}

	start := current.StartTime
	if p.StartTime != nil {
		start = *p.StartTime
	}
	end := current.EndTime
	if p.EndTime != nil {
		end = p.EndTime
	}
	if p.ClearEnd {
		end = nil
	}
	if end != nil {
		return ValidateTimes(start, *end)
	}
	return nil
}

// Apply returns the entry with the patch merged in. Callers validate
// first; Apply itself never fails.
func (p EntryPatch) Apply(entry TimeEntry) TimeEntry {
	if p.EmployeeID != nil {
		entry.EmployeeID = *p.EmployeeID
	}
	if p.StartTime != nil {
		entry.StartTime = *p.StartTime
	}
	if p.EndTime != nil {
		t := *p.EndTime
		entry.EndTime = &t
	}
	if p.ClearEnd {
		entry.EndTime = nil
	}
	if p.Revenue != nil {
		entry.Revenue = *p.Revenue
	}
	return entry
}

// =============================================================================
// TIME ORDERING
// =============================================================================

// ValidateTimes rejects a close time that precedes the start. Writes
// reject rather than clamp; only derived duration clamps (see
// TimeEntry.Duration), so bad historical rows cannot produce negative
// hours but fresh operator errors are surfaced.
func ValidateTimes(start, end time.Time) error {
	if end.Before(start) {
		return &EndBeforeStartError{Start: start, End: end}
	}
	return nil
}
