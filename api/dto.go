/*
dto.go - Data Transfer Objects for API requests and responses

PURPOSE:
  Defines the JSON structures for API communication. These types
  decouple the internal domain model from the external API contract.

NAMING CONVENTION:
  - *DTO: Response types returned to clients
  - *Request: Request body types from clients

MONEY:
  Revenue fields are decimal.Decimal; on the wire they are JSON strings
  ("500000") so đồng amounts never pass through floats. The decoder
  accepts bare numbers too.

SEE ALSO:
  - handlers.go: Uses these types
*/
package api

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/czprofess-design/MieHair/shift"
)

// =============================================================================
// REQUEST TYPES
// =============================================================================

// StartShiftRequest opens a shift for the caller. Both fields optional.
type StartShiftRequest struct {
	StartTime *time.Time       `json:"start_time,omitempty"`
	Revenue   *decimal.Decimal `json:"revenue,omitempty"`
}

// EndShiftRequest closes the caller's open shift.
type EndShiftRequest struct {
	EndTime *time.Time      `json:"end_time,omitempty"`
	Revenue decimal.Decimal `json:"revenue"`
}

// CreateEntryRequest records a manual (usually historical) entry.
type CreateEntryRequest struct {
	EmployeeID string          `json:"employee_id"`
	StartTime  time.Time       `json:"start_time"`
	EndTime    *time.Time      `json:"end_time,omitempty"`
	Revenue    decimal.Decimal `json:"revenue"`
}

// EditEntryRequest is a partial update; absent fields are untouched.
type EditEntryRequest struct {
	EmployeeID *string          `json:"employee_id,omitempty"`
	StartTime  *time.Time       `json:"start_time,omitempty"`
	EndTime    *time.Time       `json:"end_time,omitempty"`
	ClearEnd   bool             `json:"clear_end,omitempty"`
	Revenue    *decimal.Decimal `json:"revenue,omitempty"`
}

// BatchForceEndRequest closes every still-open entry in the selection.
type BatchForceEndRequest struct {
	IDs []string `json:"ids"`
}

// =============================================================================
// RESPONSE TYPES
// =============================================================================

// EntryDTO represents a time entry in API responses.
type EntryDTO struct {
	ID         string          `json:"id"`
	EmployeeID string          `json:"employee_id"`
	StartTime  time.Time       `json:"start_time"`
	EndTime    *time.Time      `json:"end_time,omitempty"`
	Revenue    decimal.Decimal `json:"revenue"`
	Open       bool            `json:"open"`
}

func toEntryDTO(e shift.TimeEntry) EntryDTO {
	return EntryDTO{
		ID:         string(e.ID),
		EmployeeID: string(e.EmployeeID),
		StartTime:  e.StartTime,
		EndTime:    e.EndTime,
		Revenue:    e.Revenue,
		Open:       e.Open(),
	}
}

func toEntryDTOs(entries []shift.TimeEntry) []EntryDTO {
	dtos := make([]EntryDTO, 0, len(entries))
	for _, e := range entries {
		dtos = append(dtos, toEntryDTO(e))
	}
	return dtos
}

// EmployeeDTO represents a profile in API responses.
type EmployeeDTO struct {
	ID          string `json:"id"`
	DisplayName string `json:"display_name"`
	AvatarURL   string `json:"avatar_url,omitempty"`
	Role        string `json:"role"`
}

func toEmployeeDTO(p shift.Profile) EmployeeDTO {
	return EmployeeDTO{
		ID:          string(p.ID),
		DisplayName: p.DisplayName,
		AvatarURL:   p.AvatarURL,
		Role:        string(p.Role),
	}
}

// EmployeeStatsDTO is one ranked row of the report.
type EmployeeStatsDTO struct {
	Employee       EmployeeDTO     `json:"employee"`
	Hours          float64         `json:"hours"`
	Shifts         int             `json:"shifts"`
	Revenue        decimal.Decimal `json:"revenue"`
	Workdays       int             `json:"workdays"`
	LastActivity   *time.Time      `json:"last_activity,omitempty"`
	IsLive         bool            `json:"is_live"`
	RecentlyActive bool            `json:"recently_active"`
}

// TotalsDTO carries the salon-wide folds.
type TotalsDTO struct {
	Hours    float64         `json:"hours"`
	Shifts   int             `json:"shifts"`
	Revenue  decimal.Decimal `json:"revenue"`
	Workdays int             `json:"workdays"`
}

// ReportDTO is the aggregate query response.
type ReportDTO struct {
	PerEmployee []EmployeeStatsDTO `json:"per_employee"`
	Totals      TotalsDTO          `json:"totals"`
	EvaluatedAt time.Time          `json:"evaluated_at"`
	SyncFailed  bool               `json:"sync_failed,omitempty"`
}

func toReportDTO(r shift.Report) ReportDTO {
	rows := make([]EmployeeStatsDTO, 0, len(r.PerEmployee))
	for _, s := range r.PerEmployee {
		row := EmployeeStatsDTO{
			Employee:       toEmployeeDTO(s.Profile),
			Hours:          s.Hours,
			Shifts:         s.Shifts,
			Revenue:        s.Revenue,
			Workdays:       s.Workdays,
			IsLive:         s.IsLive,
			RecentlyActive: s.RecentlyActive,
		}
		if !s.LastActivity.IsZero() {
			t := s.LastActivity
			row.LastActivity = &t
		}
		rows = append(rows, row)
	}
	return ReportDTO{
		PerEmployee: rows,
		Totals: TotalsDTO{
			Hours:    r.Totals.Hours,
			Shifts:   r.Totals.Shifts,
			Revenue:  r.Totals.Revenue,
			Workdays: r.Totals.Workdays,
		},
		EvaluatedAt: r.EvaluatedAt,
	}
}

// SnapshotDTO backs the live activity ticker.
type SnapshotDTO struct {
	ActiveShifts int     `json:"active_shifts"`
	MonthHours   float64 `json:"month_hours"`
}

// BatchForceEndResponse reports how many entries the batch closed.
type BatchForceEndResponse struct {
	Closed int `json:"closed"`
}

// ErrorResponse is the uniform error body.
type ErrorResponse struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}
