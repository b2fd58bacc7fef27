/*
Package sqlite provides the SQLite-backed shift ledger.

PURPOSE:
  Implements shift.Store and shift.ProfileStore on SQLite. The same
  patterns apply to PostgreSQL - only minor SQL dialect differences.

SINGLE-ACTIVE-SHIFT ENFORCEMENT:
  The invariant "at most one open shift per employee" is enforced at the
  write boundary with a partial unique index:

      CREATE UNIQUE INDEX idx_entries_single_open
          ON time_entries(employee_id) WHERE end_time IS NULL

  A plain check-then-insert in application code is racy under
  concurrent starts (two browser tabs); the index makes the losing
  insert fail atomically and it is translated to a Conflict error.

OTHER CONSTRAINTS:
  revenue carries CHECK (revenue >= 0); violations surface as
  validation errors rather than raw driver errors.

CONCURRENCY:
  Uses sync.RWMutex for thread-safety. In production with PostgreSQL,
  database-level concurrency control handles this instead.

WAL MODE:
  SQLite is opened with WAL (Write-Ahead Logging) for better
  concurrency: multiple readers don't block, single writer at a time.

USAGE:
  store, err := sqlite.New("./data/miehair.db")   // ":memory:" for tests
  if err != nil { log.Fatal(err) }
  defer store.Close()

MIGRATION:
  Schema is auto-migrated on New(). For production, use a proper
  migration tool (golang-migrate, goose) with versioned migrations.

SEE ALSO:
  - shift/store.go: Interface definitions
  - store/memory:   In-memory implementation for engine tests
*/
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/shopspring/decimal"

	"github.com/czprofess-design/MieHair/shift"
)

// Store implements the ledger and profile interfaces using SQLite.
type Store struct {
	db *sql.DB
	mu sync.RWMutex
}

// New creates a new SQLite store with the given database path.
// Use ":memory:" for an in-memory database.
func New(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_foreign_keys=on&_journal_mode=WAL")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// One connection: SQLite serializes writers anyway, and ":memory:"
	// databases are per-connection.
	db.SetMaxOpenConns(1)

	store := &Store{db: db}
	if err := store.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	return store, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// migrate creates the database schema.
func (s *Store) migrate() error {
	schema := `
	-- Time entries (the shift ledger)
	CREATE TABLE IF NOT EXISTS time_entries (
		id TEXT PRIMARY KEY,
		employee_id TEXT NOT NULL,
		start_time TEXT NOT NULL,
		end_time TEXT,
		revenue TEXT NOT NULL DEFAULT '0',
		created_at TEXT NOT NULL,
		CHECK (CAST(revenue AS REAL) >= 0)
	);

	-- CRITICAL: at most one open shift per employee, enforced here so
	-- concurrent starts cannot both commit.
	CREATE UNIQUE INDEX IF NOT EXISTS idx_entries_single_open
		ON time_entries(employee_id) WHERE end_time IS NULL;

	-- Window queries select on start_time (hot path)
	CREATE INDEX IF NOT EXISTS idx_entries_start_time
		ON time_entries(start_time);
	CREATE INDEX IF NOT EXISTS idx_entries_employee_start
		ON time_entries(employee_id, start_time);

	-- Profiles (owned by the identity system; read-only to the engine)
	CREATE TABLE IF NOT EXISTS profiles (
		id TEXT PRIMARY KEY,
		display_name TEXT NOT NULL,
		avatar_url TEXT NOT NULL DEFAULT '',
		role TEXT NOT NULL DEFAULT 'employee',
		created_at TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_profiles_display_name
		ON profiles(display_name);
	`

	_, err := s.db.Exec(schema)
	return err
}

// =============================================================================
// LEDGER (shift.Store interface)
// =============================================================================

// CreateEntry inserts a shift. The partial unique index rejects a
// second open entry for the same employee.
func (s *Store) CreateEntry(ctx context.Context, entry shift.TimeEntry) (shift.EntryID, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	query := `
		INSERT INTO time_entries (id, employee_id, start_time, end_time, revenue, created_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`

	createdAt := entry.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now().UTC()
	}

	_, err := s.db.ExecContext(ctx, query,
		string(entry.ID),
		string(entry.EmployeeID),
		entry.StartTime.UTC().Format(time.RFC3339Nano),
		nullTime(entry.EndTime),
		entry.Revenue.String(),
		createdAt.Format(time.RFC3339Nano),
	)
	if err != nil {
		if isSingleOpenViolation(err) {
			return "", s.openConflict(ctx, entry.EmployeeID)
		}
		if isCheckViolation(err) {
			return "", &shift.FieldValidationError{Field: "revenue", Reason: "must not be negative"}
		}
		return "", fmt.Errorf("%w: insert entry: %v", shift.ErrTransient, err)
	}

	return entry.ID, nil
}

// GetEntry returns a single entry by id.
func (s *Store) GetEntry(ctx context.Context, id shift.EntryID) (shift.TimeEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	row := s.db.QueryRowContext(ctx, `
		SELECT id, employee_id, start_time, end_time, revenue, created_at
		FROM time_entries WHERE id = ?
	`, string(id))
	return scanEntry(row)
}

// OpenEntry returns the employee's in-progress shift.
func (s *Store) OpenEntry(ctx context.Context, employeeID shift.EmployeeID) (shift.TimeEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	row := s.db.QueryRowContext(ctx, `
		SELECT id, employee_id, start_time, end_time, revenue, created_at
		FROM time_entries WHERE employee_id = ? AND end_time IS NULL
	`, string(employeeID))
	return scanEntry(row)
}

// UpdateEntry applies a patch. Only fields present in the patch are
// written; validation happened centrally before this call, but the
// schema constraints still backstop it.
func (s *Store) UpdateEntry(ctx context.Context, id shift.EntryID, patch shift.EntryPatch) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	sets := make([]string, 0, 4)
	args := make([]any, 0, 5)

	if patch.EmployeeID != nil {
		sets = append(sets, "employee_id = ?")
		args = append(args, string(*patch.EmployeeID))
	}
	if patch.StartTime != nil {
		sets = append(sets, "start_time = ?")
		args = append(args, patch.StartTime.UTC().Format(time.RFC3339Nano))
	}
	if patch.EndTime != nil {
		sets = append(sets, "end_time = ?")
		args = append(args, patch.EndTime.UTC().Format(time.RFC3339Nano))
	}
	if patch.ClearEnd {
		sets = append(sets, "end_time = NULL")
	}
	if patch.Revenue != nil {
		sets = append(sets, "revenue = ?")
		args = append(args, patch.Revenue.String())
	}
	if len(sets) == 0 {
		return nil
	}
	args = append(args, string(id))

	res, err := s.db.ExecContext(ctx,
		"UPDATE time_entries SET "+strings.Join(sets, ", ")+" WHERE id = ?", args...)
	if err != nil {
		if isSingleOpenViolation(err) {
			// Reopening (or reassigning an open entry) collided with an
			// existing open shift.
			return shift.ErrConflict
		}
		if isCheckViolation(err) {
			return &shift.FieldValidationError{Field: "revenue", Reason: "must not be negative"}
		}
		return fmt.Errorf("%w: update entry: %v", shift.ErrTransient, err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("%w: update entry: %v", shift.ErrTransient, err)
	}
	if affected == 0 {
		return shift.ErrNotFound
	}
	return nil
}

// DeleteEntry removes an entry. Deleting a missing id is an error so
// stale selections surface instead of silently succeeding.
func (s *Store) DeleteEntry(ctx context.Context, id shift.EntryID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	res, err := s.db.ExecContext(ctx, "DELETE FROM time_entries WHERE id = ?", string(id))
	if err != nil {
		return fmt.Errorf("%w: delete entry: %v", shift.ErrTransient, err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("%w: delete entry: %v", shift.ErrTransient, err)
	}
	if affected == 0 {
		return shift.ErrNotFound
	}
	return nil
}

// ListEntries returns entries whose start_time falls in [start, end).
func (s *Store) ListEntries(ctx context.Context, window shift.Window, employeeIDs ...shift.EmployeeID) ([]shift.TimeEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	query := `
		SELECT id, employee_id, start_time, end_time, revenue, created_at
		FROM time_entries
		WHERE start_time >= ? AND start_time < ?
	`
	args := []any{
		window.Start.UTC().Format(time.RFC3339Nano),
		window.End.UTC().Format(time.RFC3339Nano),
	}

	if len(employeeIDs) > 0 {
		query += " AND employee_id IN (?" + strings.Repeat(", ?", len(employeeIDs)-1) + ")"
		for _, id := range employeeIDs {
			args = append(args, string(id))
		}
	}

	return s.queryEntries(ctx, query, args...)
}

// ListOpenEntries returns every in-progress shift.
func (s *Store) ListOpenEntries(ctx context.Context) ([]shift.TimeEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.queryEntries(ctx, `
		SELECT id, employee_id, start_time, end_time, revenue, created_at
		FROM time_entries WHERE end_time IS NULL
	`)
}

func (s *Store) queryEntries(ctx context.Context, query string, args ...any) ([]shift.TimeEntry, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("%w: query entries: %v", shift.ErrTransient, err)
	}
	defer rows.Close()

	var entries []shift.TimeEntry
	for rows.Next() {
		entry, err := scanEntry(rows)
		if err != nil {
			return nil, err
		}
		entries = append(entries, entry)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: query entries: %v", shift.ErrTransient, err)
	}
	return entries, nil
}

// openConflict builds the structured conflict error, falling back to
// the bare sentinel if the blocking entry cannot be read back.
func (s *Store) openConflict(ctx context.Context, employeeID shift.EmployeeID) error {
	var openID string
	err := s.db.QueryRowContext(ctx,
		"SELECT id FROM time_entries WHERE employee_id = ? AND end_time IS NULL",
		string(employeeID),
	).Scan(&openID)
	if err != nil {
		return shift.ErrConflict
	}
	return &shift.OpenShiftConflictError{
		EmployeeID: employeeID,
		OpenEntry:  shift.EntryID(openID),
	}
}

// =============================================================================
// PROFILES (shift.ProfileStore interface)
// =============================================================================

// ListProfiles returns all profiles ordered by display name.
func (s *Store) ListProfiles(ctx context.Context) ([]shift.Profile, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, display_name, avatar_url, role
		FROM profiles ORDER BY display_name ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("%w: query profiles: %v", shift.ErrTransient, err)
	}
	defer rows.Close()

	var profiles []shift.Profile
	for rows.Next() {
		var p shift.Profile
		var id, role string
		if err := rows.Scan(&id, &p.DisplayName, &p.AvatarURL, &role); err != nil {
			return nil, fmt.Errorf("%w: scan profile: %v", shift.ErrTransient, err)
		}
		p.ID = shift.EmployeeID(id)
		p.Role = shift.Role(role)
		profiles = append(profiles, p)
	}
	return profiles, rows.Err()
}

// GetProfile returns one profile by id.
func (s *Store) GetProfile(ctx context.Context, id shift.EmployeeID) (shift.Profile, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var p shift.Profile
	var pid, role string
	err := s.db.QueryRowContext(ctx, `
		SELECT id, display_name, avatar_url, role FROM profiles WHERE id = ?
	`, string(id)).Scan(&pid, &p.DisplayName, &p.AvatarURL, &role)
	if errors.Is(err, sql.ErrNoRows) {
		return shift.Profile{}, shift.ErrNotFound
	}
	if err != nil {
		return shift.Profile{}, fmt.Errorf("%w: get profile: %v", shift.ErrTransient, err)
	}
	p.ID = shift.EmployeeID(pid)
	p.Role = shift.Role(role)
	return p, nil
}

// UpsertProfile writes a profile record. The shift engine never calls
// this; it exists for seeding and tests, standing in for the external
// identity system.
func (s *Store) UpsertProfile(ctx context.Context, p shift.Profile) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO profiles (id, display_name, avatar_url, role, created_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			display_name = excluded.display_name,
			avatar_url = excluded.avatar_url,
			role = excluded.role
	`,
		string(p.ID), p.DisplayName, p.AvatarURL, string(p.Role),
		time.Now().UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		return fmt.Errorf("%w: upsert profile: %v", shift.ErrTransient, err)
	}
	return nil
}

// =============================================================================
// HELPERS
// =============================================================================

type rowScanner interface {
	Scan(dest ...any) error
}

func scanEntry(row rowScanner) (shift.TimeEntry, error) {
	var entry shift.TimeEntry
	var id, employeeID, startRaw, revenueRaw, createdRaw string
	var endRaw sql.NullString

	err := row.Scan(&id, &employeeID, &startRaw, &endRaw, &revenueRaw, &createdRaw)
	if errors.Is(err, sql.ErrNoRows) {
		return shift.TimeEntry{}, shift.ErrNotFound
	}
	if err != nil {
		return shift.TimeEntry{}, fmt.Errorf("%w: scan entry: %v", shift.ErrTransient, err)
	}

	entry.ID = shift.EntryID(id)
	entry.EmployeeID = shift.EmployeeID(employeeID)

	entry.StartTime, err = time.Parse(time.RFC3339Nano, startRaw)
	if err != nil {
		return shift.TimeEntry{}, fmt.Errorf("corrupt start_time for entry %s: %w", id, err)
	}
	if endRaw.Valid {
		end, err := time.Parse(time.RFC3339Nano, endRaw.String)
		if err != nil {
			return shift.TimeEntry{}, fmt.Errorf("corrupt end_time for entry %s: %w", id, err)
		}
		entry.EndTime = &end
	}

	entry.Revenue, err = decimal.NewFromString(revenueRaw)
	if err != nil {
		return shift.TimeEntry{}, fmt.Errorf("corrupt revenue for entry %s: %w", id, err)
	}
	if created, err := time.Parse(time.RFC3339Nano, createdRaw); err == nil {
		entry.CreatedAt = created
	}

	return entry, nil
}

func nullTime(t *time.Time) sql.NullString {
	if t == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: t.UTC().Format(time.RFC3339Nano), Valid: true}
}

// SQLite reports partial-index violations either by index name or by
// column list depending on version; match both.
func isSingleOpenViolation(err error) bool {
	if err == nil || !strings.Contains(err.Error(), "UNIQUE constraint failed") {
		return false
	}
	return strings.Contains(err.Error(), "idx_entries_single_open") ||
		strings.Contains(err.Error(), "time_entries.employee_id")
}

func isCheckViolation(err error) bool {
	return err != nil && strings.Contains(err.Error(), "CHECK constraint failed")
}
