/*
Package shift contains the core shift tracking engine.

PURPOSE:
  This package owns the shift lifecycle and the statistics derived from
  it: when a shift may open or close, how duration and revenue are
  attributed, and how raw time entries are filtered, grouped and ranked
  into per-employee and salon-wide aggregates.

KEY CONCEPTS IN THIS FILE (types.go):
  - TimeEntry: One work session (start, optional end, revenue)
  - Profile:   Employee identity, read-only to this package
  - Session:   The acting caller (employee id + role)
  - ChangeEvent: A committed ledger mutation, fanned out to subscribers

DESIGN PRINCIPLES:
  1. Precision: Revenue uses decimal.Decimal, never floats
  2. Type Safety: Strong typing for IDs prevents mixing entry/employee IDs
  3. Single Source of Truth: Aggregates are always recomputed from the
     ledger, never cached alongside it

STATES:
  A TimeEntry is Open while EndTime is nil and Closed once it is set.
  Closed entries stay editable (admin corrections), but there is no
  state beyond Closed.

SEE ALSO:
  - lifecycle.go: Transition rules (Start/End/ForceEnd/Edit/Delete)
  - query.go:     Window presets and filter resolution
  - stats.go:     Aggregation and ranking
  - store.go:     Ledger persistence interface
*/
package shift

import (
	"time"

	"github.com/shopspring/decimal"
)

// =============================================================================
// IDENTIFIERS
// =============================================================================

type EntryID string
type EmployeeID string

// =============================================================================
// TIME ENTRY - One work session
// =============================================================================

// TimeEntry is one shift. EndTime == nil means the shift is still open
// and the employee is considered live.
type TimeEntry struct {
	ID         EntryID
	EmployeeID EmployeeID
	StartTime  time.Time
	EndTime    *time.Time
	Revenue    decimal.Decimal

	CreatedAt time.Time
}

// Open reports whether the shift is still in progress.
func (e TimeEntry) Open() bool { return e.EndTime == nil }

// Duration returns the worked duration as of eval. Open entries count up
// to eval; a closed entry whose end precedes its start clamps to zero.
func (e TimeEntry) Duration(eval time.Time) time.Duration {
	end := eval
	if e.EndTime != nil {
		end = *e.EndTime
	}
	d := end.Sub(e.StartTime)
	if d < 0 {
		return 0
	}
	return d
}

// Hours returns Duration in fractional hours.
func (e TimeEntry) Hours(eval time.Time) float64 {
	return e.Duration(eval).Hours()
}

// =============================================================================
// PROFILE - External employee identity (read-only here)
// =============================================================================

type Role string

const (
	RoleEmployee Role = "employee"
	RoleAdmin    Role = "admin"
)

// Profile is owned by the identity system; this package only joins
// against it for display names and the admin/employee distinction.
type Profile struct {
	ID          EmployeeID
	DisplayName string
	AvatarURL   string
	Role        Role
}

// Session identifies the acting caller for permission checks.
type Session struct {
	EmployeeID EmployeeID
	Role       Role
}

func (s Session) Admin() bool { return s.Role == RoleAdmin }

// =============================================================================
// CHANGE EVENTS - Committed ledger mutations
// =============================================================================

type ChangeOp string

const (
	OpInsert ChangeOp = "insert"
	OpUpdate ChangeOp = "update"
	OpDelete ChangeOp = "delete"
)

// ChangeEvent describes one committed mutation. Subscribers treat any
// event as "something changed" and recompute; no diffing is attempted.
type ChangeEvent struct {
	Op         ChangeOp
	EntryID    EntryID
	EmployeeID EmployeeID
	At         time.Time
}
