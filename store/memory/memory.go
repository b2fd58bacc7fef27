// Package memory provides an in-memory Store for testing and development.
package memory

import (
	"context"
	"sync"

	"github.com/czprofess-design/MieHair/shift"
)

// =============================================================================
// MEMORY STORE - In-memory implementation (for testing/dev)
// =============================================================================

// Memory implements shift.Store and shift.ProfileStore. It enforces the
// same single-open-shift rule as the SQLite store so engine tests
// exercise identical semantics.
type Memory struct {
	mu       sync.RWMutex
	entries  map[shift.EntryID]shift.TimeEntry
	profiles map[shift.EmployeeID]shift.Profile

	// FailReads simulates an unreachable ledger for retry tests.
	FailReads bool
}

func New() *Memory {
	return &Memory{
		entries:  make(map[shift.EntryID]shift.TimeEntry),
		profiles: make(map[shift.EmployeeID]shift.Profile),
	}
}

func (m *Memory) CreateEntry(_ context.Context, entry shift.TimeEntry) (shift.EntryID, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if entry.Open() {
		for _, existing := range m.entries {
			if existing.EmployeeID == entry.EmployeeID && existing.Open() {
				return "", &shift.OpenShiftConflictError{
					EmployeeID: entry.EmployeeID,
					OpenEntry:  existing.ID,
				}
			}
		}
	}
	if entry.Revenue.IsNegative() {
		return "", &shift.FieldValidationError{Field: "revenue", Reason: "must not be negative"}
	}

	m.entries[entry.ID] = entry
	return entry.ID, nil
}

func (m *Memory) GetEntry(_ context.Context, id shift.EntryID) (shift.TimeEntry, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	entry, ok := m.entries[id]
	if !ok {
		return shift.TimeEntry{}, shift.ErrNotFound
	}
	return entry, nil
}

func (m *Memory) OpenEntry(_ context.Context, employeeID shift.EmployeeID) (shift.TimeEntry, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	for _, entry := range m.entries {
		if entry.EmployeeID == employeeID && entry.Open() {
			return entry, nil
		}
	}
	return shift.TimeEntry{}, shift.ErrNotFound
}

func (m *Memory) UpdateEntry(_ context.Context, id shift.EntryID, patch shift.EntryPatch) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	entry, ok := m.entries[id]
	if !ok {
		return shift.ErrNotFound
	}

	updated := patch.Apply(entry)
	if updated.Revenue.IsNegative() {
		return &shift.FieldValidationError{Field: "revenue", Reason: "must not be negative"}
	}
	if updated.Open() {
		for _, other := range m.entries {
			if other.ID != id && other.EmployeeID == updated.EmployeeID && other.Open() {
				return shift.ErrConflict
			}
		}
	}

	m.entries[id] = updated
	return nil
}

func (m *Memory) DeleteEntry(_ context.Context, id shift.EntryID) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.entries[id]; !ok {
		return shift.ErrNotFound
	}
	delete(m.entries, id)
	return nil
}

func (m *Memory) ListEntries(_ context.Context, window shift.Window, employeeIDs ...shift.EmployeeID) ([]shift.TimeEntry, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.FailReads {
		return nil, shift.ErrTransient
	}

	var result []shift.TimeEntry
	for _, entry := range m.entries {
		if !window.Contains(entry.StartTime) {
			continue
		}
		if len(employeeIDs) > 0 {
			found := false
			for _, id := range employeeIDs {
				if entry.EmployeeID == id {
					found = true
					break
				}
			}
			if !found {
				continue
			}
		}
		result = append(result, entry)
	}
	return result, nil
}

func (m *Memory) ListOpenEntries(_ context.Context) ([]shift.TimeEntry, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.FailReads {
		return nil, shift.ErrTransient
	}

	var result []shift.TimeEntry
	for _, entry := range m.entries {
		if entry.Open() {
			result = append(result, entry)
		}
	}
	return result, nil
}

// =============================================================================
// PROFILES
// =============================================================================

func (m *Memory) ListProfiles(_ context.Context) ([]shift.Profile, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.FailReads {
		return nil, shift.ErrTransient
	}

	result := make([]shift.Profile, 0, len(m.profiles))
	for _, p := range m.profiles {
		result = append(result, p)
	}
	return result, nil
}

func (m *Memory) GetProfile(_ context.Context, id shift.EmployeeID) (shift.Profile, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	p, ok := m.profiles[id]
	if !ok {
		return shift.Profile{}, shift.ErrNotFound
	}
	return p, nil
}

// UpsertProfile seeds a profile; tests use this in place of the
// external identity system.
func (m *Memory) UpsertProfile(_ context.Context, p shift.Profile) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.profiles[p.ID] = p
	return nil
}
