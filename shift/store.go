package shift

import (
	"context"
	"time"
)

// =============================================================================
// LEDGER STORE - Durable time-entry persistence
// =============================================================================

// Window is a half-open interval [Start, End) in absolute time.
type Window struct {
	Start time.Time
	End   time.Time
}

// Contains reports whether t falls inside the window.
func (w Window) Contains(t time.Time) bool {
	return !t.Before(w.Start) && t.Before(w.End)
}

// Store is the durable shift ledger. It is the single source of truth
// and the only shared mutable resource; all invariant enforcement that
// must survive concurrent writers lives behind this interface.
//
// INVARIANTS ENFORCED AT THIS BOUNDARY:
//   - Single active shift: CreateEntry fails with ErrConflict when the
//     employee already has an entry with no end time. Implementations
//     must enforce this atomically (a conditional write or uniqueness
//     constraint), not with a read-then-insert check.
//   - Non-negative revenue: writes that would violate it fail with
//     ErrValidation.
type Store interface {
	// CreateEntry opens a new shift and returns its assigned id.
	CreateEntry(ctx context.Context, entry TimeEntry) (EntryID, error)

	// GetEntry returns a single entry. ErrNotFound if absent.
	GetEntry(ctx context.Context, id EntryID) (TimeEntry, error)

	// OpenEntry returns the employee's open shift, or ErrNotFound when
	// none is in progress.
	OpenEntry(ctx context.Context, employeeID EmployeeID) (TimeEntry, error)

	// UpdateEntry applies a validated patch. ErrNotFound if absent.
	UpdateEntry(ctx context.Context, id EntryID, patch EntryPatch) error

	// DeleteEntry removes an entry permanently. ErrNotFound if absent;
	// a repeat delete of a gone id is an error, not a no-op.
	DeleteEntry(ctx context.Context, id EntryID) error

	// ListEntries returns entries whose StartTime falls in the window,
	// optionally restricted to a set of employees. Unordered; the
	// caller sorts. An empty employee set means all employees.
	ListEntries(ctx context.Context, window Window, employeeIDs ...EmployeeID) ([]TimeEntry, error)

	// ListOpenEntries returns every in-progress shift regardless of
	// start time, for the live activity counter.
	ListOpenEntries(ctx context.Context) ([]TimeEntry, error)
}

// =============================================================================
// PROFILE STORE - External collaborator boundary (read-only)
// =============================================================================

// ProfileStore exposes employee identities for joins and permission
// checks. The shift engine never writes profiles.
type ProfileStore interface {
	ListProfiles(ctx context.Context) ([]Profile, error)
	GetProfile(ctx context.Context, id EmployeeID) (Profile, error)
}
