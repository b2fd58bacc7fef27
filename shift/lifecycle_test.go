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
// INPUT VALIDATION
// =============================================================================

func TestStartInput_Validate(t *testing.T) {
	valid := shift.StartInput{EmployeeID: "lan"}
	assert.NoError(t, valid.Validate())

	missing := shift.StartInput{}
	assert.ErrorIs(t, missing.Validate(), shift.ErrValidation)

	negative := shift.StartInput{EmployeeID: "lan", Revenue: decimal.NewFromInt(-1)}
	assert.ErrorIs(t, negative.Validate(), shift.ErrValidation)
}

func TestEndInput_Validate_RejectsNegativeRevenue(t *testing.T) {
	in := shift.EndInput{Revenue: decimal.NewFromInt(-500)}
	err := in.Validate()

	require.Error(t, err)
	var fieldErr *shift.FieldValidationError
	require.ErrorAs(t, err, &fieldErr)
	assert.Equal(t, "revenue", fieldErr.Field)
}

func TestValidateTimes_RejectsEndBeforeStart(t *testing.T) {
	start := time.Date(2025, time.June, 11, 12, 0, 0, 0, time.UTC)

	assert.NoError(t, shift.ValidateTimes(start, start), "zero-length shift is allowed")
	assert.NoError(t, shift.ValidateTimes(start, start.Add(time.Hour)))

	err := shift.ValidateTimes(start, start.Add(-time.Minute))
	require.Error(t, err)
	var ordErr *shift.EndBeforeStartError
	assert.ErrorAs(t, err, &ordErr)
	assert.ErrorIs(t, err, shift.ErrValidation)
}

// =============================================================================
// ENTRY PATCH
// =============================================================================

func TestEntryPatch_Empty(t *testing.T) {
	assert.True(t, shift.EntryPatch{}.Empty())

	rev := decimal.NewFromInt(100)
	assert.False(t, shift.EntryPatch{Revenue: &rev}.Empty())
	assert.False(t, shift.EntryPatch{ClearEnd: true}.Empty())
}

func TestEntryPatch_Validate(t *testing.T) {
	start := time.Date(2025, time.June, 11, 9, 0, 0, 0, time.UTC)
	end := start.Add(8 * time.Hour)
	current := shift.TimeEntry{ID: "e1", EmployeeID: "lan", StartTime: start, EndTime: &end}

	t.Run("set and clear end together rejected", func(t *testing.T) {
		p := shift.EntryPatch{EndTime: &end, ClearEnd: true}
		assert.ErrorIs(t, p.Validate(current), shift.ErrValidation)
	})

	t.Run("resulting order checked against current start", func(t *testing.T) {
		// Patch only the end; it must still follow the existing start.
		bad := start.Add(-time.Hour)
		p := shift.EntryPatch{EndTime: &bad}
		var ordErr *shift.EndBeforeStartError
		assert.ErrorAs(t, p.Validate(current), &ordErr)
	})

	t.Run("resulting order checked against patched start", func(t *testing.T) {
		// Moving the start past the existing end is just as invalid.
		late := end.Add(time.Hour)
		p := shift.EntryPatch{StartTime: &late}
		assert.ErrorIs(t, p.Validate(current), shift.ErrValidation)
	})

	t.Run("clearing the end waives the order check", func(t *testing.T) {
		late := end.Add(time.Hour)
		p := shift.EntryPatch{StartTime: &late, ClearEnd: true}
		assert.NoError(t, p.Validate(current))
	})

	t.Run("blank employee rejected", func(t *testing.T) {
		blank := shift.EmployeeID("")
		p := shift.EntryPatch{EmployeeID: &blank}
		assert.ErrorIs(t, p.Validate(current), shift.ErrValidation)
	})

	t.Run("negative revenue rejected", func(t *testing.T) {
		rev := decimal.NewFromInt(-1)
		p := shift.EntryPatch{Revenue: &rev}
		assert.ErrorIs(t, p.Validate(current), shift.ErrValidation)
	})
}

func TestEntryPatch_Apply(t *testing.T) {
	// GIVEN: A closed entry
	// WHEN: Applying a patch that reassigns it and clears the end
	// THEN: Patched fields change, others are untouched

	start := time.Date(2025, time.June, 11, 9, 0, 0, 0, time.UTC)
	end := start.Add(8 * time.Hour)
	entry := shift.TimeEntry{
		ID: "e1", EmployeeID: "lan", StartTime: start, EndTime: &end,
		Revenue: decimal.NewFromInt(500000),
	}

	newEmp := shift.EmployeeID("huong")
	updated := shift.EntryPatch{EmployeeID: &newEmp, ClearEnd: true}.Apply(entry)

	assert.Equal(t, shift.EmployeeID("huong"), updated.EmployeeID)
	assert.Nil(t, updated.EndTime)
	assert.True(t, updated.Open())
	assert.Equal(t, start, updated.StartTime)
	assert.True(t, updated.Revenue.Equal(decimal.NewFromInt(500000)))

	// The original is untouched; Apply is by value.
	assert.NotNil(t, entry.EndTime)
}
