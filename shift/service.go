/*
service.go - The shift service

PURPOSE:
  One explicit service object owns the shift state: it is constructed
  with its dependencies (ledger store, profile store, event bus, clock)
  and every exposed operation goes through it. Handlers receive the
  service by parameter; there are no package-level singletons.

OPERATIONS:
  StartShift / EndShift            employee, own shift only
  ForceEndShift / BatchForceEnd    admin, idempotent per entry
  CreateEntry / EditEntry / DeleteEntry  admin corrections
  QueryAggregates / ListEntries / Snapshot  reads

PERMISSIONS:
  Binary admin/employee distinction. An employee touches only their own
  still-open shift, and only through the End path; everything else is
  admin-only and fails with ErrPermissionDenied.

EVENTS:
  After every committed mutation the service publishes a ChangeEvent so
  live subscribers recompute. Publication is non-blocking; command
  handling never waits on delivery.

RETRIES:
  Read paths retry transient store errors a small fixed number of times
  with constant backoff. Domain errors are never retried.

SEE ALSO:
  - lifecycle.go: Validation applied here
  - notifier.go:  Consumes the events this service publishes
*/
package shift

import (
	"context"
	"errors"
	"sort"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/google/uuid"
)

// readRetryAttempts bounds transient-error retries on read paths.
const readRetryAttempts = 3

const readRetryInterval = 200 * time.Millisecond

// Service coordinates the shift lifecycle against the ledger.
type Service struct {
	store    Store
	profiles ProfileStore
	bus      *Bus
	resolver *Resolver

	// Now is the evaluation clock, replaceable in tests.
	Now func() time.Time
}

// NewService wires the service with its collaborators.
func NewService(store Store, profiles ProfileStore, bus *Bus, resolver *Resolver) *Service {
	return &Service{
		store:    store,
		profiles: profiles,
		bus:      bus,
		resolver: resolver,
		Now:      time.Now,
	}
}

// Resolver exposes the fixed calendar reference for query building.
func (s *Service) Resolver() *Resolver { return s.resolver }

// =============================================================================
// COMMANDS - Shift lifecycle
// =============================================================================

// StartShift opens a shift for the acting employee. A second concurrent
// start for the same employee loses with ErrConflict; the ledger
// enforces that atomically, there is no pre-read check here.
func (s *Service) StartShift(ctx context.Context, sess Session, in StartInput) (TimeEntry, error) {
	in.EmployeeID = sess.EmployeeID
	if err := in.Validate(); err != nil {
		return TimeEntry{}, err
	}

	now := s.Now()
	entry := TimeEntry{
		ID:         EntryID(uuid.NewString()),
		EmployeeID: in.EmployeeID,
		StartTime:  in.At,
		Revenue:    in.Revenue,
		CreatedAt:  now,
	}
	if entry.StartTime.IsZero() {
		entry.StartTime = now
	}

	id, err := s.store.CreateEntry(ctx, entry)
	if err != nil {
		return TimeEntry{}, err
	}
	entry.ID = id

	s.publish(OpInsert, entry)
	return entry, nil
}

// ActiveShift returns the caller's open shift, ErrNotFound when none.
func (s *Service) ActiveShift(ctx context.Context, sess Session) (TimeEntry, error) {
	return s.store.OpenEntry(ctx, sess.EmployeeID)
}

// EndShift closes the caller's open shift, finalizing revenue. The
// recorded revenue replaces the provisional value from StartShift.
func (s *Service) EndShift(ctx context.Context, sess Session, in EndInput) (TimeEntry, error) {
	if err := in.Validate(); err != nil {
		return TimeEntry{}, err
	}

	entry, err := s.store.OpenEntry(ctx, sess.EmployeeID)
	if err != nil {
		return TimeEntry{}, err
	}

	end := in.At
	if end.IsZero() {
		end = s.Now()
	}
	if err := ValidateTimes(entry.StartTime, end); err != nil {
		return TimeEntry{}, err
	}

	patch := EntryPatch{EndTime: &end, Revenue: &in.Revenue}
	if err := s.store.UpdateEntry(ctx, entry.ID, patch); err != nil {
		return TimeEntry{}, err
	}
	entry = patch.Apply(entry)

	s.publish(OpUpdate, entry)
	return entry, nil
}

// ForceEndShift closes another employee's open shift at the current
// time, leaving revenue untouched. Idempotent: an already-closed entry
// is a no-op, not an error, so batch operations may retarget a mixed
// selection. The boolean reports whether this call closed the entry.
func (s *Service) ForceEndShift(ctx context.Context, sess Session, id EntryID) (TimeEntry, bool, error) {
	if !sess.Admin() {
		return TimeEntry{}, false, ErrPermissionDenied
	}

	entry, err := s.store.GetEntry(ctx, id)
	if err != nil {
		return TimeEntry{}, false, err
	}
	if !entry.Open() {
		return entry, false, nil
	}

	end := s.Now()
	patch := EntryPatch{EndTime: &end}
	if err := s.store.UpdateEntry(ctx, id, patch); err != nil {
		return TimeEntry{}, false, err
	}
	entry = patch.Apply(entry)

	s.publish(OpUpdate, entry)
	return entry, true, nil
}

// BatchForceEnd force-ends a selection of entries. Already-closed and
// since-deleted entries are skipped; the count of entries actually
// closed is returned. The first unexpected error aborts the batch.
func (s *Service) BatchForceEnd(ctx context.Context, sess Session, ids []EntryID) (int, error) {
	if !sess.Admin() {
		return 0, ErrPermissionDenied
	}

	closed := 0
	for _, id := range ids {
		_, didClose, err := s.ForceEndShift(ctx, sess, id)
		if errors.Is(err, ErrNotFound) {
			continue
		}
		if err != nil {
			return closed, err
		}
		if didClose {
			closed++
		}
	}
	return closed, nil
}

// =============================================================================
// COMMANDS - Admin corrections
// =============================================================================

// CreateEntry records a manual entry on behalf of any employee,
// typically an already-closed historical shift. Creating an open entry
// is subject to the single-active-shift rule like any other start.
func (s *Service) CreateEntry(ctx context.Context, sess Session, entry TimeEntry) (TimeEntry, error) {
	if !sess.Admin() {
		return TimeEntry{}, ErrPermissionDenied
	}
	if entry.EmployeeID == "" {
		return TimeEntry{}, &FieldValidationError{Field: "employee_id", Reason: "required"}
	}
	if entry.StartTime.IsZero() {
		return TimeEntry{}, &FieldValidationError{Field: "start_time", Reason: "required"}
	}
	if entry.Revenue.IsNegative() {
		return TimeEntry{}, &FieldValidationError{Field: "revenue", Reason: "must not be negative"}
	}
	if entry.EndTime != nil {
		if err := ValidateTimes(entry.StartTime, *entry.EndTime); err != nil {
			return TimeEntry{}, err
		}
	}

	entry.ID = EntryID(uuid.NewString())
	entry.CreatedAt = s.Now()

	id, err := s.store.CreateEntry(ctx, entry)
	if err != nil {
		return TimeEntry{}, err
	}
	entry.ID = id

	s.publish(OpInsert, entry)
	return entry, nil
}

// EditEntry applies an admin patch to any field, subject to the time
// ordering and revenue invariants. Non-admins are rejected outright;
// an employee corrects their own open shift through EndShift only.
func (s *Service) EditEntry(ctx context.Context, sess Session, id EntryID, patch EntryPatch) (TimeEntry, error) {
	if !sess.Admin() {
		return TimeEntry{}, ErrPermissionDenied
	}
	if patch.Empty() {
		return TimeEntry{}, &FieldValidationError{Field: "patch", Reason: "no fields to update"}
	}

	entry, err := s.store.GetEntry(ctx, id)
	if err != nil {
		return TimeEntry{}, err
	}
	if err := patch.Validate(entry); err != nil {
		return TimeEntry{}, err
	}

	if err := s.store.UpdateEntry(ctx, id, patch); err != nil {
		return TimeEntry{}, err
	}
	entry = patch.Apply(entry)

	s.publish(OpUpdate, entry)
	return entry, nil
}

// DeleteEntry removes an entry permanently. Deleting an id that is
// already gone surfaces ErrNotFound to expose stale selections.
func (s *Service) DeleteEntry(ctx context.Context, sess Session, id EntryID) error {
	if !sess.Admin() {
		return ErrPermissionDenied
	}

	entry, err := s.store.GetEntry(ctx, id)
	if err != nil {
		return err
	}
	if err := s.store.DeleteEntry(ctx, id); err != nil {
		return err
	}

	s.publish(OpDelete, entry)
	return nil
}

// =============================================================================
// READS
// =============================================================================

// QueryAggregates resolves nothing: it takes an already-resolved Query
// and returns the ranked report. Transient store errors are retried.
func (s *Service) QueryAggregates(ctx context.Context, q Query) (Report, error) {
	var entries []TimeEntry
	var profiles []Profile

	err := s.retryRead(ctx, func() error {
		var err error
		entries, err = s.store.ListEntries(ctx, q.Window, q.Employees...)
		if err != nil {
			return err
		}
		profiles, err = s.profiles.ListProfiles(ctx)
		return err
	})
	if err != nil {
		return Report{}, err
	}

	return Aggregate(q, entries, profiles, s.Now(), s.resolver), nil
}

// ListEntries returns the raw entries matching a query, newest first.
// This backs the activity log, where individual shifts are inspected
// rather than aggregated.
func (s *Service) ListEntries(ctx context.Context, q Query) ([]TimeEntry, error) {
	var entries []TimeEntry
	var profiles []Profile

	err := s.retryRead(ctx, func() error {
		var err error
		entries, err = s.store.ListEntries(ctx, q.Window, q.Employees...)
		if err != nil {
			return err
		}
		profiles, err = s.profiles.ListProfiles(ctx)
		return err
	})
	if err != nil {
		return nil, err
	}

	names := make(map[EmployeeID]string, len(profiles))
	for _, p := range profiles {
		names[p.ID] = p.DisplayName
	}

	matched := entries[:0]
	for _, e := range entries {
		if q.Matches(e, names[e.EmployeeID]) {
			matched = append(matched, e)
		}
	}
	sort.SliceStable(matched, func(i, j int) bool {
		return matched[i].StartTime.After(matched[j].StartTime)
	})
	return matched, nil
}

// Snapshot is the lightweight live ticker: how many employees are on
// shift right now, and the caller's hours this month (open shift
// counted up to now).
type Snapshot struct {
	ActiveShifts int
	MonthHours   float64
}

func (s *Service) Snapshot(ctx context.Context, sess Session) (Snapshot, error) {
	var open []TimeEntry
	err := s.retryRead(ctx, func() error {
		var err error
		open, err = s.store.ListOpenEntries(ctx)
		return err
	})
	if err != nil {
		return Snapshot{}, err
	}

	snap := Snapshot{ActiveShifts: len(open)}

	now := s.Now()
	window, err := s.resolver.Resolve(PresetThisMonth, now, 0, 0)
	if err != nil {
		return Snapshot{}, err
	}

	var mine []TimeEntry
	err = s.retryRead(ctx, func() error {
		var err error
		mine, err = s.store.ListEntries(ctx, window, sess.EmployeeID)
		return err
	})
	if err != nil {
		return Snapshot{}, err
	}
	for _, e := range mine {
		snap.MonthHours += e.Hours(now)
	}
	return snap, nil
}

// Profiles passes the read-only profile list through for display.
func (s *Service) Profiles(ctx context.Context) ([]Profile, error) {
	return s.profiles.ListProfiles(ctx)
}

// =============================================================================
// INTERNALS
// =============================================================================

func (s *Service) publish(op ChangeOp, entry TimeEntry) {
	if s.bus == nil {
		return
	}
	s.bus.Publish(ChangeEvent{
		Op:         op,
		EntryID:    entry.ID,
		EmployeeID: entry.EmployeeID,
		At:         s.Now(),
	})
}

// retryRead runs fn, retrying transient errors with constant backoff.
// Domain errors abort immediately.
func (s *Service) retryRead(ctx context.Context, fn func() error) error {
	policy := backoff.WithContext(
		backoff.WithMaxRetries(backoff.NewConstantBackOff(readRetryInterval), readRetryAttempts-1),
		ctx,
	)
	return backoff.Retry(func() error {
		err := fn()
		if err != nil && !IsRetryable(err) {
			return backoff.Permanent(err)
		}
		return err
	}, policy)
}
