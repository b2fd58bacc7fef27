package shift_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/czprofess-design/MieHair/shift"
)

// =============================================================================
// TEST SETUP
// =============================================================================

func newTestResolver(t *testing.T) *shift.Resolver {
	r, err := shift.NewResolver("Asia/Ho_Chi_Minh")
	require.NoError(t, err)
	return r
}

// inSaigon builds a timestamp in the salon's calendar timezone.
func inSaigon(t *testing.T, year int, month time.Month, day, hour int) time.Time {
	loc, err := time.LoadLocation("Asia/Ho_Chi_Minh")
	require.NoError(t, err)
	return time.Date(year, month, day, hour, 0, 0, 0, loc)
}

// =============================================================================
// WINDOW PRESET TESTS
// =============================================================================

func TestResolver_Today(t *testing.T) {
	// GIVEN: It is Wednesday June 11, mid-afternoon
	// WHEN: Resolving the "today" preset
	// THEN: Window is [Jun 11 00:00, Jun 12 00:00) local time

	r := newTestResolver(t)
	now := inSaigon(t, 2025, time.June, 11, 15)

	w, err := r.Resolve(shift.PresetToday, now, 0, 0)
	require.NoError(t, err)

	assert.Equal(t, inSaigon(t, 2025, time.June, 11, 0), w.Start)
	assert.Equal(t, inSaigon(t, 2025, time.June, 12, 0), w.End)
}

func TestResolver_ThisWeek_StartsMonday(t *testing.T) {
	// GIVEN: It is Wednesday June 11
	// WHEN: Resolving "thisWeek"
	// THEN: Window starts Monday June 9 and spans 7 days

	r := newTestResolver(t)
	now := inSaigon(t, 2025, time.June, 11, 15)

	w, err := r.Resolve(shift.PresetThisWeek, now, 0, 0)
	require.NoError(t, err)

	assert.Equal(t, inSaigon(t, 2025, time.June, 9, 0), w.Start)
	assert.Equal(t, inSaigon(t, 2025, time.June, 16, 0), w.End)
}

func TestResolver_ThisWeek_SundayBelongsToCurrentWeek(t *testing.T) {
	// GIVEN: It is Sunday June 15
	// WHEN: Resolving "thisWeek"
	// THEN: The week still starts the previous Monday, June 9

	r := newTestResolver(t)
	now := inSaigon(t, 2025, time.June, 15, 10)

	w, err := r.Resolve(shift.PresetThisWeek, now, 0, 0)
	require.NoError(t, err)

	assert.Equal(t, inSaigon(t, 2025, time.June, 9, 0), w.Start)
}

func TestResolver_LastWeek(t *testing.T) {
	// GIVEN: It is Wednesday June 11
	// WHEN: Resolving "lastWeek"
	// THEN: Window is [Mon Jun 2, Mon Jun 9)

	r := newTestResolver(t)
	now := inSaigon(t, 2025, time.June, 11, 15)

	w, err := r.Resolve(shift.PresetLastWeek, now, 0, 0)
	require.NoError(t, err)

	assert.Equal(t, inSaigon(t, 2025, time.June, 2, 0), w.Start)
	assert.Equal(t, inSaigon(t, 2025, time.June, 9, 0), w.End)
}

func TestResolver_Months(t *testing.T) {
	r := newTestResolver(t)
	now := inSaigon(t, 2025, time.June, 11, 15)

	thisMonth, err := r.Resolve(shift.PresetThisMonth, now, 0, 0)
	require.NoError(t, err)
	assert.Equal(t, inSaigon(t, 2025, time.June, 1, 0), thisMonth.Start)
	assert.Equal(t, inSaigon(t, 2025, time.July, 1, 0), thisMonth.End)

	lastMonth, err := r.Resolve(shift.PresetLastMonth, now, 0, 0)
	require.NoError(t, err)
	assert.Equal(t, inSaigon(t, 2025, time.May, 1, 0), lastMonth.Start)
	assert.Equal(t, inSaigon(t, 2025, time.June, 1, 0), lastMonth.End)
}

func TestResolver_Last30Days_IncludesToday(t *testing.T) {
	// GIVEN: It is June 11
	// WHEN: Resolving the rolling 30-day window
	// THEN: It covers May 13 00:00 through end of June 11 (30 calendar days)

	r := newTestResolver(t)
	now := inSaigon(t, 2025, time.June, 11, 15)

	w, err := r.Resolve(shift.PresetLast30Days, now, 0, 0)
	require.NoError(t, err)

	assert.Equal(t, inSaigon(t, 2025, time.May, 13, 0), w.Start)
	assert.Equal(t, inSaigon(t, 2025, time.June, 12, 0), w.End)
}

func TestResolver_CustomMonth(t *testing.T) {
	r := newTestResolver(t)
	now := inSaigon(t, 2025, time.June, 11, 15)

	w, err := r.Resolve(shift.PresetCustomMonth, now, time.February, 2025)
	require.NoError(t, err)
	assert.Equal(t, inSaigon(t, 2025, time.February, 1, 0), w.Start)
	assert.Equal(t, inSaigon(t, 2025, time.March, 1, 0), w.End)
}

func TestResolver_CustomMonth_RejectsBadInput(t *testing.T) {
	r := newTestResolver(t)
	now := inSaigon(t, 2025, time.June, 11, 15)

	_, err := r.Resolve(shift.PresetCustomMonth, now, 13, 2025)
	assert.ErrorIs(t, err, shift.ErrValidation)

	_, err = r.Resolve(shift.PresetCustomMonth, now, time.February, 0)
	assert.ErrorIs(t, err, shift.ErrValidation)
}

func TestParsePreset_DefaultsToThisMonth(t *testing.T) {
	p, err := shift.ParsePreset("")
	require.NoError(t, err)
	assert.Equal(t, shift.PresetThisMonth, p)

	_, err = shift.ParsePreset("yesterday")
	assert.ErrorIs(t, err, shift.ErrValidation)
}

// =============================================================================
// WINDOW SEMANTICS
// =============================================================================

func TestWindow_HalfOpen(t *testing.T) {
	// GIVEN: A day window
	// WHEN: Checking its boundaries
	// THEN: Start is included, end is excluded

	start := inSaigon(t, 2025, time.June, 11, 0)
	end := inSaigon(t, 2025, time.June, 12, 0)
	w := shift.Window{Start: start, End: end}

	assert.True(t, w.Contains(start), "start boundary is inside")
	assert.True(t, w.Contains(end.Add(-time.Nanosecond)))
	assert.False(t, w.Contains(end), "end boundary is outside")
	assert.False(t, w.Contains(start.Add(-time.Nanosecond)))
}

// =============================================================================
// QUERY PREDICATE TESTS
// =============================================================================

func TestQuery_Matches(t *testing.T) {
	start := inSaigon(t, 2025, time.June, 11, 9)
	end := inSaigon(t, 2025, time.June, 11, 17)
	closed := shift.TimeEntry{ID: "e1", EmployeeID: "lan", StartTime: start, EndTime: &end}
	open := shift.TimeEntry{ID: "e2", EmployeeID: "huong", StartTime: start}

	window := shift.Window{
		Start: inSaigon(t, 2025, time.June, 1, 0),
		End:   inSaigon(t, 2025, time.July, 1, 0),
	}

	t.Run("employee subset", func(t *testing.T) {
		q := shift.Query{Window: window, Employees: []shift.EmployeeID{"lan"}, Status: shift.StatusAll}
		assert.True(t, q.Matches(closed, "Lan"))
		assert.False(t, q.Matches(open, "Hương"))
	})

	t.Run("status filter", func(t *testing.T) {
		q := shift.Query{Window: window, Status: shift.StatusActive}
		assert.False(t, q.Matches(closed, "Lan"))
		assert.True(t, q.Matches(open, "Hương"))

		q.Status = shift.StatusFinished
		assert.True(t, q.Matches(closed, "Lan"))
		assert.False(t, q.Matches(open, "Hương"))
	})

	t.Run("search is case-insensitive substring", func(t *testing.T) {
		q := shift.Query{Window: window, Search: "lan", Status: shift.StatusAll}
		assert.True(t, q.Matches(closed, "Thanh Lan"))
		assert.False(t, q.Matches(open, "Hương"))
	})

	t.Run("search fails entries without a profile name", func(t *testing.T) {
		q := shift.Query{Window: window, Search: "lan", Status: shift.StatusAll}
		assert.False(t, q.Matches(closed, ""))
	})

	t.Run("outside window", func(t *testing.T) {
		q := shift.Query{Window: window, Status: shift.StatusAll}
		stale := closed
		stale.StartTime = inSaigon(t, 2025, time.May, 20, 9)
		assert.False(t, q.Matches(stale, "Lan"))
	})
}
