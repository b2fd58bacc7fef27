package shift_test

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/czprofess-design/MieHair/shift"
)

// =============================================================================
// TEST SETUP
// =============================================================================

func closedEntry(id, emp string, start time.Time, hours float64, revenue int64) shift.TimeEntry {
	end := start.Add(time.Duration(hours * float64(time.Hour)))
	return shift.TimeEntry{
		ID:         shift.EntryID(id),
		EmployeeID: shift.EmployeeID(emp),
		StartTime:  start,
		EndTime:    &end,
		Revenue:    decimal.NewFromInt(revenue),
	}
}

func openEntry(id, emp string, start time.Time) shift.TimeEntry {
	return shift.TimeEntry{
		ID:         shift.EntryID(id),
		EmployeeID: shift.EmployeeID(emp),
		StartTime:  start,
		Revenue:    decimal.Zero,
	}
}

func monthQuery(t *testing.T, sort shift.SortState) (shift.Query, *shift.Resolver, time.Time) {
	r := newTestResolver(t)
	now := inSaigon(t, 2025, time.June, 11, 18)
	w, err := r.Resolve(shift.PresetThisMonth, now, 0, 0)
	require.NoError(t, err)
	return shift.Query{Window: w, Status: shift.StatusAll, Sort: sort}, r, now
}

var testProfiles = []shift.Profile{
	{ID: "lan", DisplayName: "Lan", Role: shift.RoleEmployee},
	{ID: "huong", DisplayName: "Hương", Role: shift.RoleEmployee},
	{ID: "tuan", DisplayName: "Tuấn", Role: shift.RoleEmployee},
}

// =============================================================================
// AGGREGATION TESTS
// =============================================================================

func TestAggregate_PerEmployeeAndTotals(t *testing.T) {
	// GIVEN: Lan worked two closed shifts on different days, Hương one
	// WHEN: Aggregating over the month
	// THEN: Hours, shifts, revenue and workdays are summed per employee
	//       and totals fold the full set

	q, r, now := monthQuery(t, shift.DefaultSort())
	entries := []shift.TimeEntry{
		closedEntry("e1", "lan", inSaigon(t, 2025, time.June, 2, 9), 8, 500000),
		closedEntry("e2", "lan", inSaigon(t, 2025, time.June, 3, 9), 4, 250000),
		closedEntry("e3", "huong", inSaigon(t, 2025, time.June, 2, 10), 6, 400000),
	}

	report := shift.Aggregate(q, entries, testProfiles, now, r)

	require.Len(t, report.PerEmployee, 2)
	lan := report.PerEmployee[0] // 750000đ ranks first under revenue desc
	assert.Equal(t, shift.EmployeeID("lan"), lan.Profile.ID)
	assert.InDelta(t, 12.0, lan.Hours, 1e-9)
	assert.Equal(t, 2, lan.Shifts)
	assert.True(t, lan.Revenue.Equal(decimal.NewFromInt(750000)))
	assert.Equal(t, 2, lan.Workdays)
	assert.False(t, lan.IsLive)

	assert.InDelta(t, 18.0, report.Totals.Hours, 1e-9)
	assert.Equal(t, 3, report.Totals.Shifts)
	assert.True(t, report.Totals.Revenue.Equal(decimal.NewFromInt(1150000)))
	assert.Equal(t, 2, report.Totals.Workdays, "June 2 and 3, shared days counted once")
}

func TestAggregate_EmptyCandidates_ZeroReport(t *testing.T) {
	// GIVEN: No entries match the window
	// WHEN: Aggregating
	// THEN: The report is valid and empty, not an error

	q, r, now := monthQuery(t, shift.DefaultSort())

	report := shift.Aggregate(q, nil, testProfiles, now, r)

	assert.Empty(t, report.PerEmployee)
	assert.Zero(t, report.Totals.Shifts)
	assert.Zero(t, report.Totals.Hours)
	assert.True(t, report.Totals.Revenue.IsZero())
	assert.Equal(t, now, report.EvaluatedAt)
}

func TestAggregate_OpenShiftHoursGrow(t *testing.T) {
	// GIVEN: Hương is on an open shift started at 09:00
	// WHEN: Aggregating at two later instants
	// THEN: Her hours count up to each evaluation time and only grow

	q, r, _ := monthQuery(t, shift.DefaultSort())
	entries := []shift.TimeEntry{openEntry("e1", "huong", inSaigon(t, 2025, time.June, 11, 9))}

	at1 := shift.Aggregate(q, entries, testProfiles, inSaigon(t, 2025, time.June, 11, 12), r)
	at2 := shift.Aggregate(q, entries, testProfiles, inSaigon(t, 2025, time.June, 11, 15), r)

	require.Len(t, at1.PerEmployee, 1)
	assert.InDelta(t, 3.0, at1.PerEmployee[0].Hours, 1e-9)
	assert.InDelta(t, 6.0, at2.PerEmployee[0].Hours, 1e-9)
	assert.True(t, at1.PerEmployee[0].IsLive)
	assert.Greater(t, at2.Totals.Hours, at1.Totals.Hours)
}

func TestAggregate_StatusActive_OnlyLiveEmployees(t *testing.T) {
	// GIVEN: Lan live since 08:00, Hương closed out 08:00-12:00
	// WHEN: Aggregating with status=active
	// THEN: Only Lan appears, flagged live

	q, r, now := monthQuery(t, shift.DefaultSort())
	q.Status = shift.StatusActive

	entries := []shift.TimeEntry{
		openEntry("e1", "lan", inSaigon(t, 2025, time.June, 11, 8)),
		closedEntry("e2", "huong", inSaigon(t, 2025, time.June, 11, 8), 4, 100),
	}

	report := shift.Aggregate(q, entries, testProfiles, now, r)

	require.Len(t, report.PerEmployee, 1)
	assert.Equal(t, shift.EmployeeID("lan"), report.PerEmployee[0].Profile.ID)
	assert.True(t, report.PerEmployee[0].IsLive)
	assert.Equal(t, 1, report.Totals.Shifts, "totals fold the same filtered set")
}

func TestAggregate_UnknownEmployee_StubProfile(t *testing.T) {
	// GIVEN: An entry whose employee has no profile
	// WHEN: Aggregating without a name search
	// THEN: The row still appears, under a stub profile

	q, r, now := monthQuery(t, shift.DefaultSort())
	entries := []shift.TimeEntry{closedEntry("e1", "ghost", inSaigon(t, 2025, time.June, 2, 9), 8, 100000)}

	report := shift.Aggregate(q, entries, testProfiles, now, r)

	require.Len(t, report.PerEmployee, 1)
	assert.Equal(t, shift.EmployeeID("ghost"), report.PerEmployee[0].Profile.ID)
	assert.Empty(t, report.PerEmployee[0].Profile.DisplayName)
}

func TestAggregate_RecentActivity(t *testing.T) {
	// GIVEN: One shift started 2 hours ago, another 3 days ago
	// WHEN: Aggregating now
	// THEN: Only the recent starter is flagged recently active

	q, r, now := monthQuery(t, shift.DefaultSort())
	entries := []shift.TimeEntry{
		closedEntry("e1", "lan", now.Add(-2*time.Hour), 1, 100000),
		closedEntry("e2", "huong", now.Add(-72*time.Hour), 8, 500000),
	}

	report := shift.Aggregate(q, entries, testProfiles, now, r)

	byID := make(map[shift.EmployeeID]shift.EmployeeStats)
	for _, row := range report.PerEmployee {
		byID[row.Profile.ID] = row
	}
	assert.True(t, byID["lan"].RecentlyActive)
	assert.False(t, byID["huong"].RecentlyActive)
}

// =============================================================================
// SORTING TESTS
// =============================================================================

func TestSortState_Toggle(t *testing.T) {
	// Re-selecting the current key flips direction; a new key resets to
	// its natural direction.

	s := shift.DefaultSort()
	assert.Equal(t, shift.SortState{Key: shift.SortByRevenue, Descending: true}, s)

	s = s.Toggle(shift.SortByRevenue)
	assert.False(t, s.Descending, "same key flips to ascending")

	s = s.Toggle(shift.SortByHours)
	assert.Equal(t, shift.SortState{Key: shift.SortByHours, Descending: true}, s)

	s = s.Toggle(shift.SortByName)
	assert.Equal(t, shift.SortState{Key: shift.SortByName, Descending: false},
		s, "name reads naturally ascending")
}

func TestAggregate_SortDirectionReversal(t *testing.T) {
	// GIVEN: Three employees with distinct revenue
	// WHEN: Aggregating descending, then ascending, on the same key
	// THEN: The ranked order is the exact reversal

	entries := []shift.TimeEntry{
		closedEntry("e1", "lan", inSaigon(t, 2025, time.June, 2, 9), 8, 300000),
		closedEntry("e2", "huong", inSaigon(t, 2025, time.June, 2, 9), 8, 100000),
		closedEntry("e3", "tuan", inSaigon(t, 2025, time.June, 2, 9), 8, 200000),
	}

	qDesc, r, now := monthQuery(t, shift.SortState{Key: shift.SortByRevenue, Descending: true})
	qAsc := qDesc
	qAsc.Sort.Descending = false

	desc := shift.Aggregate(qDesc, entries, testProfiles, now, r)
	asc := shift.Aggregate(qAsc, entries, testProfiles, now, r)

	require.Len(t, desc.PerEmployee, 3)
	var descIDs, ascIDs []shift.EmployeeID
	for _, row := range desc.PerEmployee {
		descIDs = append(descIDs, row.Profile.ID)
	}
	for i := len(asc.PerEmployee) - 1; i >= 0; i-- {
		ascIDs = append(ascIDs, asc.PerEmployee[i].Profile.ID)
	}

	assert.Equal(t, []shift.EmployeeID{"lan", "tuan", "huong"}, descIDs)
	assert.Equal(t, descIDs, ascIDs, "ascending is the exact reversal")
}

func TestAggregate_SortByName(t *testing.T) {
	entries := []shift.TimeEntry{
		closedEntry("e1", "tuan", inSaigon(t, 2025, time.June, 2, 9), 8, 100000),
		closedEntry("e2", "lan", inSaigon(t, 2025, time.June, 2, 10), 8, 100000),
	}
	q, r, now := monthQuery(t, shift.SortState{Key: shift.SortByName, Descending: false})

	report := shift.Aggregate(q, entries, testProfiles, now, r)

	require.Len(t, report.PerEmployee, 2)
	assert.Equal(t, "Lan", report.PerEmployee[0].Profile.DisplayName)
	assert.Equal(t, "Tuấn", report.PerEmployee[1].Profile.DisplayName)
}

func TestAggregate_TiesKeepFirstSeenOrder(t *testing.T) {
	// GIVEN: Two employees with identical revenue
	// WHEN: Ranking by revenue
	// THEN: Ties keep the order employees first appeared in the input

	entries := []shift.TimeEntry{
		closedEntry("e1", "huong", inSaigon(t, 2025, time.June, 2, 9), 8, 100000),
		closedEntry("e2", "lan", inSaigon(t, 2025, time.June, 2, 10), 8, 100000),
	}
	q, r, now := monthQuery(t, shift.DefaultSort())

	report := shift.Aggregate(q, entries, testProfiles, now, r)

	require.Len(t, report.PerEmployee, 2)
	assert.Equal(t, shift.EmployeeID("huong"), report.PerEmployee[0].Profile.ID)
	assert.Equal(t, shift.EmployeeID("lan"), report.PerEmployee[1].Profile.ID)
}

// =============================================================================
// DURATION CLAMP
// =============================================================================

func TestTimeEntry_Duration_ClampsNegative(t *testing.T) {
	// GIVEN: A historical row whose end precedes its start
	// WHEN: Computing its duration
	// THEN: It reads as zero rather than negative hours

	start := inSaigon(t, 2025, time.June, 11, 12)
	end := start.Add(-time.Hour)
	bad := shift.TimeEntry{StartTime: start, EndTime: &end}

	assert.Equal(t, time.Duration(0), bad.Duration(start))
	assert.Zero(t, bad.Hours(start))
}
