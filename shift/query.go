/*
query.go - Window presets and filter resolution

PURPOSE:
  Turns a date-range preset plus employee subset, free-text search and
  status filter into one concrete Query: a half-open [start, end)
  interval and a predicate. The Query is resolved once and passed to the
  aggregation engine; callers never re-derive it.

CALENDAR REFERENCE:
  All day and week boundaries are computed in a single fixed location so
  "today" means the same thing for every caller regardless of client
  locale. The salon runs on Asia/Ho_Chi_Minh; weeks start Monday.

SEE ALSO:
  - stats.go:   Consumes the resolved Query
  - service.go: Builds Queries from API parameters
*/
package shift

import (
	"strings"
	"time"
)

// DefaultTimezone is the fixed calendar reference when none is configured.
const DefaultTimezone = "Asia/Ho_Chi_Minh"

// =============================================================================
// WINDOW PRESETS
// =============================================================================

type Preset string

const (
	PresetToday       Preset = "today"
	PresetThisWeek    Preset = "thisWeek"
	PresetLastWeek    Preset = "lastWeek"
	PresetThisMonth   Preset = "thisMonth"
	PresetLastMonth   Preset = "lastMonth"
	PresetLast30Days  Preset = "last30Days"
	PresetCustomMonth Preset = "customMonth"
)

// ParsePreset validates a preset name from the wire.
func ParsePreset(s string) (Preset, error) {
	switch Preset(s) {
	case PresetToday, PresetThisWeek, PresetLastWeek, PresetThisMonth,
		PresetLastMonth, PresetLast30Days, PresetCustomMonth:
		return Preset(s), nil
	case "":
		return PresetThisMonth, nil
	}
	return "", &FieldValidationError{Field: "preset", Reason: "unknown preset " + s}
}

// Resolver turns presets into concrete windows using one fixed location.
type Resolver struct {
	Location *time.Location
}

// NewResolver loads the named IANA timezone. Empty name uses the default.
func NewResolver(tz string) (*Resolver, error) {
	if tz == "" {
		tz = DefaultTimezone
	}
	loc, err := time.LoadLocation(tz)
	if err != nil {
		return nil, &FieldValidationError{Field: "timezone", Reason: err.Error()}
	}
	return &Resolver{Location: loc}, nil
}

// Resolve returns the [start, end) interval for a preset evaluated at
// now. month/year are only consulted for customMonth.
func (r *Resolver) Resolve(preset Preset, now time.Time, month time.Month, year int) (Window, error) {
	local := now.In(r.Location)
	day := time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, r.Location)

	switch preset {
	case PresetToday:
		return Window{Start: day, End: day.AddDate(0, 0, 1)}, nil

	case PresetThisWeek:
		start := r.startOfWeek(day)
		return Window{Start: start, End: start.AddDate(0, 0, 7)}, nil

	case PresetLastWeek:
		end := r.startOfWeek(day)
		return Window{Start: end.AddDate(0, 0, -7), End: end}, nil

	case PresetThisMonth:
		start := time.Date(local.Year(), local.Month(), 1, 0, 0, 0, 0, r.Location)
		return Window{Start: start, End: start.AddDate(0, 1, 0)}, nil

	case PresetLastMonth:
		end := time.Date(local.Year(), local.Month(), 1, 0, 0, 0, 0, r.Location)
		return Window{Start: end.AddDate(0, -1, 0), End: end}, nil

	case PresetLast30Days:
		// Rolling: the 30 days up to and including today.
		return Window{Start: day.AddDate(0, 0, -29), End: day.AddDate(0, 0, 1)}, nil

	case PresetCustomMonth:
		if month < time.January || month > time.December {
			return Window{}, &FieldValidationError{Field: "month", Reason: "must be 1-12"}
		}
		if year <= 0 {
			return Window{}, &FieldValidationError{Field: "year", Reason: "required for customMonth"}
		}
		start := time.Date(year, month, 1, 0, 0, 0, 0, r.Location)
		return Window{Start: start, End: start.AddDate(0, 1, 0)}, nil
	}

	return Window{}, &FieldValidationError{Field: "preset", Reason: "unknown preset " + string(preset)}
}

// startOfWeek returns the Monday 00:00 of the week containing day.
func (r *Resolver) startOfWeek(day time.Time) time.Time {
	wd := int(day.Weekday())
	if wd == 0 { // Sunday belongs to the week started 6 days earlier
		wd = 7
	}
	return day.AddDate(0, 0, 1-wd)
}

// DayKey returns the calendar-day bucket for a timestamp, used for the
// distinct-workdays fold.
func (r *Resolver) DayKey(t time.Time) string {
	return t.In(r.Location).Format("2006-01-02")
}

// =============================================================================
// STATUS FILTER
// =============================================================================

type Status string

const (
	StatusAll      Status = "all"
	StatusActive   Status = "active"
	StatusFinished Status = "finished"
)

func ParseStatus(s string) (Status, error) {
	switch Status(s) {
	case StatusAll, StatusActive, StatusFinished:
		return Status(s), nil
	case "":
		return StatusAll, nil
	}
	return "", &FieldValidationError{Field: "status", Reason: "unknown status " + s}
}

func (st Status) matches(e TimeEntry) bool {
	switch st {
	case StatusActive:
		return e.Open()
	case StatusFinished:
		return !e.Open()
	}
	return true
}

// =============================================================================
// RESOLVED QUERY
// =============================================================================

// Query is a fully resolved filter: the absolute window plus the
// employee, search and status predicates.
type Query struct {
	Window    Window
	Employees []EmployeeID // empty = all employees
	Search    string       // case-insensitive substring on display name
	Status    Status
	Sort      SortState
}

// matchesEmployee applies the subset and name-search predicates against
// the joined profile. Entries whose employee is unknown to the profile
// store fail a non-empty search (there is no name to match).
func (q Query) matchesEmployee(id EmployeeID, name string) bool {
	if len(q.Employees) > 0 {
		found := false
		for _, want := range q.Employees {
			if want == id {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	if q.Search != "" {
		return strings.Contains(strings.ToLower(name), strings.ToLower(q.Search))
	}
	return true
}

// Matches applies the full predicate to one entry. The window predicate
// is usually pre-applied by the ledger's list operation, but is checked
// again so in-memory candidate sets behave identically.
func (q Query) Matches(e TimeEntry, name string) bool {
	return q.Window.Contains(e.StartTime) && q.Status.matches(e) && q.matchesEmployee(e.EmployeeID, name)
}
