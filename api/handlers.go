/*
handlers.go - HTTP API handlers for the shift tracking service

PURPOSE:
  Exposes the shift engine via REST. Handles HTTP request/response and
  JSON serialization, and delegates everything else to shift.Service.

ENDPOINTS:
  Shifts (any session):
    POST   /api/shifts/start            Open a shift for the caller
    POST   /api/shifts/end              Close the caller's open shift
    GET    /api/shifts/active           The caller's open shift, if any

  Admin:
    POST   /api/shifts/{id}/force-end   Close someone's open shift now
    POST   /api/shifts/force-end        Batch force-end a selection
    POST   /api/entries                 Manual entry
    PUT    /api/entries/{id}            Edit any field
    DELETE /api/entries/{id}            Permanent delete

  Reads (any session):
    GET    /api/entries                 Activity log (filtered, newest first)
    GET    /api/report                  Ranked aggregates + totals
    GET    /api/report/stream           Same report over SSE, kept live
    GET    /api/snapshot                Live counters for the ticker
    GET    /api/employees               Profile list

ERROR HANDLING:
  Domain errors map to statuses and are returned for direct display:
  400 validation, 403 permission, 404 not found, 409 conflict,
  503 transient (sync degraded, retry), 500 otherwise.

SEE ALSO:
  - dto.go:    Request/response shapes
  - server.go: Router setup and middleware
*/
package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/czprofess-design/MieHair/shift"
)

// =============================================================================
// HANDLER CONTEXT
// =============================================================================

// Handler holds all dependencies for HTTP handlers.
type Handler struct {
	Service  *shift.Service
	Notifier *shift.Notifier
	Sessions SessionProvider
}

// NewHandler creates a handler over the service and notifier.
func NewHandler(svc *shift.Service, notifier *shift.Notifier, sessions SessionProvider) *Handler {
	return &Handler{Service: svc, Notifier: notifier, Sessions: sessions}
}

// =============================================================================
// SHIFT LIFECYCLE
// =============================================================================

// StartShift opens a shift for the caller.
// POST /api/shifts/start
func (h *Handler) StartShift(w http.ResponseWriter, r *http.Request) {
	sess, _ := SessionFrom(r.Context())

	var req StartShiftRequest
	if r.ContentLength > 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body", err)
			return
		}
	}

	in := shift.StartInput{}
	if req.StartTime != nil {
		in.At = *req.StartTime
	}
	if req.Revenue != nil {
		in.Revenue = *req.Revenue
	}

	entry, err := h.Service.StartShift(r.Context(), sess, in)
	if err != nil {
		writeDomainError(w, "failed to start shift", err)
		return
	}
	writeJSON(w, http.StatusCreated, toEntryDTO(entry))
}

// EndShift closes the caller's open shift with its final revenue.
// POST /api/shifts/end
func (h *Handler) EndShift(w http.ResponseWriter, r *http.Request) {
	sess, _ := SessionFrom(r.Context())

	var req EndShiftRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body", err)
		return
	}

	in := shift.EndInput{Revenue: req.Revenue}
	if req.EndTime != nil {
		in.At = *req.EndTime
	}

	entry, err := h.Service.EndShift(r.Context(), sess, in)
	if err != nil {
		writeDomainError(w, "failed to end shift", err)
		return
	}
	writeJSON(w, http.StatusOK, toEntryDTO(entry))
}

// ActiveShift returns the caller's open shift, 404 when off shift.
// GET /api/shifts/active
func (h *Handler) ActiveShift(w http.ResponseWriter, r *http.Request) {
	sess, _ := SessionFrom(r.Context())

	entry, err := h.Service.ActiveShift(r.Context(), sess)
	if err != nil {
		writeDomainError(w, "no active shift", err)
		return
	}
	writeJSON(w, http.StatusOK, toEntryDTO(entry))
}

// ForceEndShift closes another employee's open shift at the current
// time. Idempotent: repeating it returns the unchanged entry.
// POST /api/shifts/{id}/force-end
func (h *Handler) ForceEndShift(w http.ResponseWriter, r *http.Request) {
	sess, _ := SessionFrom(r.Context())
	id := shift.EntryID(chi.URLParam(r, "id"))

	entry, _, err := h.Service.ForceEndShift(r.Context(), sess, id)
	if err != nil {
		writeDomainError(w, "failed to force-end shift", err)
		return
	}
	writeJSON(w, http.StatusOK, toEntryDTO(entry))
}

// BatchForceEnd closes every still-open entry in the selection.
// POST /api/shifts/force-end
func (h *Handler) BatchForceEnd(w http.ResponseWriter, r *http.Request) {
	sess, _ := SessionFrom(r.Context())

	var req BatchForceEndRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body", err)
		return
	}

	ids := make([]shift.EntryID, 0, len(req.IDs))
	for _, id := range req.IDs {
		ids = append(ids, shift.EntryID(id))
	}

	closed, err := h.Service.BatchForceEnd(r.Context(), sess, ids)
	if err != nil {
		writeDomainError(w, "failed to force-end shifts", err)
		return
	}
	writeJSON(w, http.StatusOK, BatchForceEndResponse{Closed: closed})
}

// =============================================================================
// ADMIN CORRECTIONS
// =============================================================================

// CreateEntry records a manual entry for any employee.
// POST /api/entries
func (h *Handler) CreateEntry(w http.ResponseWriter, r *http.Request) {
	sess, _ := SessionFrom(r.Context())

	var req CreateEntryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body", err)
		return
	}

	entry, err := h.Service.CreateEntry(r.Context(), sess, shift.TimeEntry{
		EmployeeID: shift.EmployeeID(req.EmployeeID),
		StartTime:  req.StartTime,
		EndTime:    req.EndTime,
		Revenue:    req.Revenue,
	})
	if err != nil {
		writeDomainError(w, "failed to create entry", err)
		return
	}
	writeJSON(w, http.StatusCreated, toEntryDTO(entry))
}

// EditEntry applies a partial update to any field of an entry.
// PUT /api/entries/{id}
func (h *Handler) EditEntry(w http.ResponseWriter, r *http.Request) {
	sess, _ := SessionFrom(r.Context())
	id := shift.EntryID(chi.URLParam(r, "id"))

	var req EditEntryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body", err)
		return
	}

	patch := shift.EntryPatch{
		StartTime: req.StartTime,
		EndTime:   req.EndTime,
		ClearEnd:  req.ClearEnd,
		Revenue:   req.Revenue,
	}
	if req.EmployeeID != nil {
		eid := shift.EmployeeID(*req.EmployeeID)
		patch.EmployeeID = &eid
	}

	entry, err := h.Service.EditEntry(r.Context(), sess, id, patch)
	if err != nil {
		writeDomainError(w, "failed to edit entry", err)
		return
	}
	writeJSON(w, http.StatusOK, toEntryDTO(entry))
}

// DeleteEntry removes an entry permanently. A second delete of the
// same id returns 404 so a stale client notices the desync.
// DELETE /api/entries/{id}
func (h *Handler) DeleteEntry(w http.ResponseWriter, r *http.Request) {
	sess, _ := SessionFrom(r.Context())
	id := shift.EntryID(chi.URLParam(r, "id"))

	if err := h.Service.DeleteEntry(r.Context(), sess, id); err != nil {
		writeDomainError(w, "failed to delete entry", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// =============================================================================
// READS
// =============================================================================

// ListEntries returns the filtered activity log, newest first.
// GET /api/entries?preset=&month=&year=&employee=&status=&search=
func (h *Handler) ListEntries(w http.ResponseWriter, r *http.Request) {
	q, err := h.queryFromRequest(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid query", err)
		return
	}

	entries, err := h.Service.ListEntries(r.Context(), q)
	if err != nil {
		writeDomainError(w, "failed to list entries", err)
		return
	}
	writeJSON(w, http.StatusOK, toEntryDTOs(entries))
}

// QueryReport returns the ranked per-employee aggregates and totals.
// GET /api/report?preset=&month=&year=&employee=&status=&search=&sort=&dir=
func (h *Handler) QueryReport(w http.ResponseWriter, r *http.Request) {
	q, err := h.queryFromRequest(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid query", err)
		return
	}

	report, err := h.Service.QueryAggregates(r.Context(), q)
	if err != nil {
		writeDomainError(w, "failed to compute report", err)
		return
	}
	writeJSON(w, http.StatusOK, toReportDTO(report))
}

// Snapshot returns the live ticker counters.
// GET /api/snapshot
func (h *Handler) Snapshot(w http.ResponseWriter, r *http.Request) {
	sess, _ := SessionFrom(r.Context())

	snap, err := h.Service.Snapshot(r.Context(), sess)
	if err != nil {
		writeDomainError(w, "failed to read snapshot", err)
		return
	}
	writeJSON(w, http.StatusOK, SnapshotDTO{
		ActiveShifts: snap.ActiveShifts,
		MonthHours:   snap.MonthHours,
	})
}

// ListEmployees returns the profile list for filters and display.
// GET /api/employees
func (h *Handler) ListEmployees(w http.ResponseWriter, r *http.Request) {
	profiles, err := h.Service.Profiles(r.Context())
	if err != nil {
		writeDomainError(w, "failed to list employees", err)
		return
	}
	dtos := make([]EmployeeDTO, 0, len(profiles))
	for _, p := range profiles {
		dtos = append(dtos, toEmployeeDTO(p))
	}
	writeJSON(w, http.StatusOK, dtos)
}

// =============================================================================
// QUERY PARSING
// =============================================================================

// queryFromRequest resolves the URL parameters into one shift.Query.
// The window is resolved here, once; downstream consumers receive the
// concrete interval.
func (h *Handler) queryFromRequest(r *http.Request) (shift.Query, error) {
	params := r.URL.Query()

	preset, err := shift.ParsePreset(params.Get("preset"))
	if err != nil {
		return shift.Query{}, err
	}

	var month time.Month
	var year int
	if preset == shift.PresetCustomMonth {
		m, err := strconv.Atoi(params.Get("month"))
		if err != nil {
			return shift.Query{}, &shift.FieldValidationError{Field: "month", Reason: "must be 1-12"}
		}
		month = time.Month(m)
		year, err = strconv.Atoi(params.Get("year"))
		if err != nil {
			return shift.Query{}, &shift.FieldValidationError{Field: "year", Reason: "required for customMonth"}
		}
	}

	resolver := h.Service.Resolver()
	window, err := resolver.Resolve(preset, time.Now(), month, year)
	if err != nil {
		return shift.Query{}, err
	}

	status, err := shift.ParseStatus(params.Get("status"))
	if err != nil {
		return shift.Query{}, err
	}

	sortKey, err := shift.ParseSortKey(params.Get("sort"))
	if err != nil {
		return shift.Query{}, err
	}
	sortState := shift.SortState{}.Toggle(sortKey) // key's natural direction
	switch params.Get("dir") {
	case "asc":
		sortState.Descending = false
	case "desc":
		sortState.Descending = true
	case "":
	default:
		return shift.Query{}, &shift.FieldValidationError{Field: "dir", Reason: "must be asc or desc"}
	}

	var employees []shift.EmployeeID
	for _, raw := range params["employee"] {
		for _, id := range strings.Split(raw, ",") {
			if id = strings.TrimSpace(id); id != "" {
				employees = append(employees, shift.EmployeeID(id))
			}
		}
	}

	return shift.Query{
		Window:    window,
		Employees: employees,
		Search:    params.Get("search"),
		Status:    status,
		Sort:      sortState,
	}, nil
}

// =============================================================================
// HELPERS
// =============================================================================

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, message string, err error) {
	resp := ErrorResponse{Error: message}
	if err != nil {
		resp.Details = err.Error()
	}
	writeJSON(w, status, resp)
}

// writeDomainError maps the error taxonomy to HTTP statuses.
func writeDomainError(w http.ResponseWriter, message string, err error) {
	switch {
	case errors.Is(err, shift.ErrValidation):
		writeError(w, http.StatusBadRequest, message, err)
	case errors.Is(err, shift.ErrPermissionDenied):
		writeError(w, http.StatusForbidden, message, err)
	case errors.Is(err, shift.ErrNotFound):
		writeError(w, http.StatusNotFound, message, err)
	case errors.Is(err, shift.ErrConflict):
		writeError(w, http.StatusConflict, message, err)
	case errors.Is(err, shift.ErrTransient):
		// Recoverable: the client keeps last-known data and retries.
		writeError(w, http.StatusServiceUnavailable, "sync failed, retry", err)
	default:
		writeError(w, http.StatusInternalServerError, message, err)
	}
}
