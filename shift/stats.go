/*
stats.go - Aggregation engine

PURPOSE:
  Folds ledger entries matching a resolved Query into per-employee and
  salon-wide statistics, then ranks them. The fold is pure: given the
  same candidate set and evaluation instant it always produces the same
  report, which is what makes live recomputation cheap and safe.

AGGREGATES PER EMPLOYEE:
  hours       Sum of clamped durations; open shifts count up to "now",
              so the number grows monotonically between recomputes
  shifts      Count of matching entries
  revenue     Decimal sum of matching revenue
  workdays    Distinct calendar days (fixed timezone) of start times
  lastActivity / isLive / isRecentlyActive  Display hints

SORTING:
  One key of revenue|hours|shifts|name, stable ties in input order.
  Toggling the same key flips direction; a new key defaults to
  descending except name, which reads naturally ascending.

SEE ALSO:
  - query.go:    The resolved predicate consumed here
  - notifier.go: Triggers recomputation
*/
package shift

import (
	"sort"
	"time"

	"github.com/shopspring/decimal"
)

// RecentActivityLookback is how far back a start counts as "recently
// active". Display hint only.
const RecentActivityLookback = 24 * time.Hour

// =============================================================================
// SORT STATE
// =============================================================================

type SortKey string

const (
	SortByRevenue SortKey = "revenue"
	SortByHours   SortKey = "hours"
	SortByShifts  SortKey = "shifts"
	SortByName    SortKey = "name"
)

func ParseSortKey(s string) (SortKey, error) {
	switch SortKey(s) {
	case SortByRevenue, SortByHours, SortByShifts, SortByName:
		return SortKey(s), nil
	case "":
		return SortByRevenue, nil
	}
	return "", &FieldValidationError{Field: "sort", Reason: "unknown sort key " + s}
}

type SortState struct {
	Key        SortKey
	Descending bool
}

// DefaultSort is revenue, highest first.
func DefaultSort() SortState {
	return SortState{Key: SortByRevenue, Descending: true}
}

// Toggle returns the state after clicking key. Re-selecting the current
// key flips direction; selecting a new key resets to that key's natural
// direction (descending, except name which defaults ascending).
func (s SortState) Toggle(key SortKey) SortState {
	if s.Key == key {
		return SortState{Key: key, Descending: !s.Descending}
	}
	return SortState{Key: key, Descending: key != SortByName}
}

// =============================================================================
// REPORT TYPES
// =============================================================================

// EmployeeStats is one ranked row of the report.
type EmployeeStats struct {
	Profile        Profile
	Hours          float64
	Shifts         int
	Revenue        decimal.Decimal
	Workdays       int
	LastActivity   time.Time
	IsLive         bool
	RecentlyActive bool
}

// Totals holds the same folds over the full matching set, ignoring the
// employee grouping.
type Totals struct {
	Hours    float64
	Shifts   int
	Revenue  decimal.Decimal
	Workdays int
}

// Report is the result of one aggregation pass.
type Report struct {
	PerEmployee []EmployeeStats
	Totals      Totals
	EvaluatedAt time.Time
}

// =============================================================================
// AGGREGATION
// =============================================================================

// Aggregate folds candidates matching q into a ranked report. profiles
// supplies display names for the search predicate and the output rows;
// entries for employees missing from it still aggregate under a stub
// profile. An empty candidate set is a valid, zero-valued report.
func Aggregate(q Query, candidates []TimeEntry, profiles []Profile, eval time.Time, r *Resolver) Report {
	byID := make(map[EmployeeID]Profile, len(profiles))
	for _, p := range profiles {
		byID[p.ID] = p
	}

	type acc struct {
		stats EmployeeStats
		days  map[string]struct{}
		order int
	}
	perEmp := make(map[EmployeeID]*acc)
	totalDays := make(map[string]struct{})
	totals := Totals{Revenue: decimal.Zero}

	next := 0
	for _, e := range candidates {
		profile, known := byID[e.EmployeeID]
		if !known {
			profile = Profile{ID: e.EmployeeID, Role: RoleEmployee}
		}
		if !q.Matches(e, profile.DisplayName) {
			continue
		}

		a, ok := perEmp[e.EmployeeID]
		if !ok {
			a = &acc{
				stats: EmployeeStats{Profile: profile, Revenue: decimal.Zero},
				days:  make(map[string]struct{}),
				order: next,
			}
			next++
			perEmp[e.EmployeeID] = a
		}

		hours := e.Hours(eval)
		day := r.DayKey(e.StartTime)

		a.stats.Hours += hours
		a.stats.Shifts++
		a.stats.Revenue = a.stats.Revenue.Add(e.Revenue)
		a.days[day] = struct{}{}
		if e.StartTime.After(a.stats.LastActivity) {
			a.stats.LastActivity = e.StartTime
		}
		if e.Open() {
			a.stats.IsLive = true
		}

		totals.Hours += hours
		totals.Shifts++
		totals.Revenue = totals.Revenue.Add(e.Revenue)
		totalDays[day] = struct{}{}
	}
	totals.Workdays = len(totalDays)

	rows := make([]EmployeeStats, 0, len(perEmp))
	orders := make(map[EmployeeID]int, len(perEmp))
	for id, a := range perEmp {
		a.stats.Workdays = len(a.days)
		a.stats.RecentlyActive = eval.Sub(a.stats.LastActivity) < RecentActivityLookback
		orders[id] = a.order
		rows = append(rows, a.stats)
	}

	// Restore first-seen order before the stable ranking sort so ties
	// keep input order.
	sort.Slice(rows, func(i, j int) bool {
		return orders[rows[i].Profile.ID] < orders[rows[j].Profile.ID]
	})
	sortRows(rows, q.Sort)

	return Report{PerEmployee: rows, Totals: totals, EvaluatedAt: eval}
}

func sortRows(rows []EmployeeStats, s SortState) {
	less := func(a, b EmployeeStats) bool {
		switch s.Key {
		case SortByHours:
			return a.Hours < b.Hours
		case SortByShifts:
			return a.Shifts < b.Shifts
		case SortByName:
			return a.Profile.DisplayName < b.Profile.DisplayName
		default:
			return a.Revenue.LessThan(b.Revenue)
		}
	}
	sort.SliceStable(rows, func(i, j int) bool {
		if s.Descending {
			return less(rows[j], rows[i])
		}
		return less(rows[i], rows[j])
	})
}
