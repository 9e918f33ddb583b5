/*
handlers.go - HTTP API handlers for attendance and payroll

PURPOSE:
  Thin adapters between HTTP and the domain packages. Every handler reads
  the actor set by the auth middleware and passes it down; scope and admin
  checks happen in the domain, never here.

ENDPOINTS:
  Employees:
    GET    /api/employees              Visible employees
    GET    /api/employees/{id}         One visible employee
    POST   /api/employees              Create (admin)
    PUT    /api/employees/{id}         Edit (admin)
    DELETE /api/employees/{id}         Delete with cascade (admin)

  Uploads (multipart field "file"):
    POST   /api/uploads/employees      Employee sheet (admin)
    POST   /api/uploads/{kind}         asistencia | bonos | deducciones
    GET    /api/templates/{kind}       Header-only xlsx

  Attendance:
    GET    /api/attendance             Filtered listing, summary, matrix
    PUT    /api/attendance/{id}        Edit status and provenance
    DELETE /api/attendance/{id}        Delete

  Ledger:
    GET    /api/bonuses                Filtered bonuses
    GET    /api/deductions             Filtered deductions

  Payroll (admin):
    POST   /api/payroll                Regenerate {inicio, fin}
    GET    /api/payroll                Stored lines with totals
    GET    /api/payroll/export         xlsx download

ERROR HANDLING:
  Errors are returned as JSON {error, details} with status from statusFor:
  - 400: Validation errors, invalid period, malformed input
  - 403: Scope violation, admin-only operation
  - 404: Resource not found
  - 409: Duplicate id, broken supervisor link
  - 500: Internal errors

SEE ALSO:
  - dto.go: Request/response data structures
  - server.go: Router setup and middleware
*/
package api

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/foco/nomina/aggregate"
	"github.com/foco/nomina/hr"
	"github.com/foco/nomina/payroll"
	"github.com/foco/nomina/reconcile"
	"github.com/foco/nomina/roster"
	"github.com/foco/nomina/sheet"
)

const (
	xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	maxUploadBytes  = 32 << 20
)

// =============================================================================
// HANDLER CONTEXT
// =============================================================================

// Handler holds all dependencies for HTTP handlers.
type Handler struct {
	Store      hr.Store
	Roster     *roster.Service
	Reconciler *reconcile.Reconciler
	Aggregator *aggregate.Aggregator
	Calculator *payroll.Calculator

	logger *slog.Logger
}

// NewHandler wires the domain services over one store.
func NewHandler(store hr.Store, logger *slog.Logger) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{
		Store:      store,
		Roster:     roster.New(store, logger),
		Reconciler: reconcile.New(store, logger),
		Aggregator: aggregate.NewAggregator(store),
		Calculator: payroll.NewCalculator(store, logger),
		logger:     logger,
	}
}

// =============================================================================
// EMPLOYEE HANDLERS
// =============================================================================

// ListEmployees returns the actor's visible employees.
// GET /api/employees
func (h *Handler) ListEmployees(w http.ResponseWriter, r *http.Request) {
	employees, err := h.Roster.ListEmployees(r.Context(), actorFrom(r.Context()))
	if err != nil {
		h.fail(w, r, "Failed to list employees", err)
		return
	}

	dtos := make([]EmployeeDTO, 0, len(employees))
	for _, e := range employees {
		dtos = append(dtos, toEmployeeDTO(e))
	}
	writeJSON(w, http.StatusOK, dtos)
}

// GetEmployee returns one employee.
// GET /api/employees/{id}
func (h *Handler) GetEmployee(w http.ResponseWriter, r *http.Request) {
	id := hr.ParseEmployeeID(chi.URLParam(r, "id"))

	e, err := h.Roster.GetEmployee(r.Context(), actorFrom(r.Context()), id)
	if err != nil {
		h.fail(w, r, "Failed to get employee", err)
		return
	}
	writeJSON(w, http.StatusOK, toEmployeeDTO(e))
}

// CreateEmployee adds an employee.
// POST /api/employees
func (h *Handler) CreateEmployee(w http.ResponseWriter, r *http.Request) {
	var req EmployeeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	e, err := h.Roster.CreateEmployee(r.Context(), actorFrom(r.Context()), req.employee())
	if err != nil {
		h.fail(w, r, "Failed to create employee", err)
		return
	}
	writeJSON(w, http.StatusCreated, toEmployeeDTO(e))
}

// UpdateEmployee replaces an employee's editable fields.
// PUT /api/employees/{id}
func (h *Handler) UpdateEmployee(w http.ResponseWriter, r *http.Request) {
	var req EmployeeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	req.ID = chi.URLParam(r, "id")

	e, err := h.Roster.UpdateEmployee(r.Context(), actorFrom(r.Context()), req.employee())
	if err != nil {
		h.fail(w, r, "Failed to update employee", err)
		return
	}
	writeJSON(w, http.StatusOK, toEmployeeDTO(e))
}

// DeleteEmployee removes an employee and their records.
// DELETE /api/employees/{id}
func (h *Handler) DeleteEmployee(w http.ResponseWriter, r *http.Request) {
	id := hr.ParseEmployeeID(chi.URLParam(r, "id"))

	if err := h.Roster.DeleteEmployee(r.Context(), actorFrom(r.Context()), id); err != nil {
		h.fail(w, r, "Failed to delete employee", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// =============================================================================
// UPLOAD HANDLERS
// =============================================================================

// UploadEmployees ingests an employee sheet.
// POST /api/uploads/employees
func (h *Handler) UploadEmployees(w http.ResponseWriter, r *http.Request) {
	table, ok := h.readUpload(w, r)
	if !ok {
		return
	}

	res, err := h.Reconciler.IngestEmployees(r.Context(), actorFrom(r.Context()), table)
	if err != nil {
		h.fail(w, r, "Failed to ingest employees", err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

// Upload ingests attendance, bonus or deduction sheets.
// POST /api/uploads/{kind}
func (h *Handler) Upload(w http.ResponseWriter, r *http.Request) {
	kind := chi.URLParam(r, "kind")
	actor := actorFrom(r.Context())

	var ingest func(*reconcile.Table) (*reconcile.Result, error)
	switch kind {
	case sheet.KindAttendance:
		ingest = func(t *reconcile.Table) (*reconcile.Result, error) {
			return h.Reconciler.IngestAttendance(r.Context(), actor, t)
		}
	case sheet.KindBonuses:
		ingest = func(t *reconcile.Table) (*reconcile.Result, error) {
			return h.Reconciler.IngestEntries(r.Context(), actor, hr.KindBonus, t)
		}
	case sheet.KindDeductions:
		ingest = func(t *reconcile.Table) (*reconcile.Result, error) {
			return h.Reconciler.IngestEntries(r.Context(), actor, hr.KindDeduction, t)
		}
	default:
		writeError(w, http.StatusNotFound, "Unknown upload kind", fmt.Errorf("%q", kind))
		return
	}

	table, ok := h.readUpload(w, r)
	if !ok {
		return
	}

	res, err := ingest(table)
	if err != nil {
		h.fail(w, r, "Failed to ingest "+kind, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

// GetTemplate downloads a blank upload sheet.
// GET /api/templates/{kind}
func (h *Handler) GetTemplate(w http.ResponseWriter, r *http.Request) {
	kind := chi.URLParam(r, "kind")

	var buf bytes.Buffer
	if err := sheet.Template(&buf, kind); err != nil {
		h.fail(w, r, "Failed to build template", err)
		return
	}
	writeFile(w, kind+".xlsx", buf.Bytes())
}

func (h *Handler) readUpload(w http.ResponseWriter, r *http.Request) (*reconcile.Table, bool) {
	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid multipart body", err)
		return nil, false
	}
	file, _, err := r.FormFile("file")
	if err != nil {
		writeError(w, http.StatusBadRequest, "Missing file field", err)
		return nil, false
	}
	defer file.Close()

	table, err := sheet.ReadTable(file)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Failed to read spreadsheet", err)
		return nil, false
	}
	return table, true
}

// =============================================================================
// ATTENDANCE HANDLERS
// =============================================================================

// ListAttendance returns the filtered listing with summary and matrix.
// GET /api/attendance?usuario=&supervisor=&cartera=&start_date=&end_date=
func (h *Handler) ListAttendance(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	rng, err := parseRange(q.Get("start_date"), q.Get("end_date"))
	if err != nil {
		h.fail(w, r, "Invalid date filter", err)
		return
	}

	view, err := h.Aggregator.View(r.Context(), actorFrom(r.Context()), aggregate.Query{
		EmployeeID: hr.ParseEmployeeID(q.Get("usuario")),
		Supervisor: q.Get("supervisor"),
		Portfolio:  q.Get("cartera"),
		Range:      rng,
	})
	if err != nil {
		h.fail(w, r, "Failed to list attendance", err)
		return
	}
	writeJSON(w, http.StatusOK, toAttendanceViewDTO(view))
}

// EditAttendance updates one record.
// PUT /api/attendance/{id}
func (h *Handler) EditAttendance(w http.ResponseWriter, r *http.Request) {
	var req EditAttendanceRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	rec, err := h.Roster.EditAttendance(r.Context(), actorFrom(r.Context()), chi.URLParam(r, "id"), roster.AttendanceEdit{
		Status:     req.Status,
		Supervisor: req.Supervisor,
		Portfolio:  req.Portfolio,
	})
	if err != nil {
		h.fail(w, r, "Failed to update attendance", err)
		return
	}
	writeJSON(w, http.StatusOK, toAttendanceDTO(rec))
}

// DeleteAttendance removes one record.
// DELETE /api/attendance/{id}
func (h *Handler) DeleteAttendance(w http.ResponseWriter, r *http.Request) {
	if err := h.Roster.DeleteAttendance(r.Context(), actorFrom(r.Context()), chi.URLParam(r, "id")); err != nil {
		h.fail(w, r, "Failed to delete attendance", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// =============================================================================
// LEDGER HANDLERS
// =============================================================================

// ListBonuses returns filtered bonuses.
// GET /api/bonuses?usuario=&start_date=&end_date=
func (h *Handler) ListBonuses(w http.ResponseWriter, r *http.Request) {
	h.listEntries(w, r, hr.KindBonus)
}

// ListDeductions returns filtered deductions.
// GET /api/deductions?usuario=&start_date=&end_date=
func (h *Handler) ListDeductions(w http.ResponseWriter, r *http.Request) {
	h.listEntries(w, r, hr.KindDeduction)
}

func (h *Handler) listEntries(w http.ResponseWriter, r *http.Request, kind hr.EntryKind) {
	q := r.URL.Query()
	rng, err := parseRange(q.Get("start_date"), q.Get("end_date"))
	if err != nil {
		h.fail(w, r, "Invalid date filter", err)
		return
	}

	entries, err := h.Roster.ListEntries(r.Context(), actorFrom(r.Context()), kind, roster.EntryFilter{
		EmployeeID: hr.ParseEmployeeID(q.Get("usuario")),
		Range:      rng,
	})
	if err != nil {
		h.fail(w, r, "Failed to list entries", err)
		return
	}
	writeJSON(w, http.StatusOK, toEntryDTOs(entries))
}

// =============================================================================
// PAYROLL HANDLERS
// =============================================================================

// RegeneratePayroll rebuilds a period and returns its report.
// POST /api/payroll
func (h *Handler) RegeneratePayroll(w http.ResponseWriter, r *http.Request) {
	var req PayrollRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	period, err := hr.ParsePeriod(req.Start, req.End)
	if err != nil {
		h.fail(w, r, "Invalid period", err)
		return
	}

	actor := actorFrom(r.Context())
	if _, err := h.Calculator.Regenerate(r.Context(), actor, period); err != nil {
		h.fail(w, r, "Failed to regenerate payroll", err)
		return
	}
	report, err := h.Calculator.Report(r.Context(), actor, period)
	if err != nil {
		h.fail(w, r, "Failed to load payroll", err)
		return
	}
	writeJSON(w, http.StatusOK, toPayrollReportDTO(report))
}

// ListPayroll returns the stored lines of an exact period.
// GET /api/payroll?inicio=&fin=
func (h *Handler) ListPayroll(w http.ResponseWriter, r *http.Request) {
	report, ok := h.payrollReport(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, toPayrollReportDTO(report))
}

// ExportPayroll downloads the period's payroll as xlsx.
// GET /api/payroll/export?inicio=&fin=
func (h *Handler) ExportPayroll(w http.ResponseWriter, r *http.Request) {
	report, ok := h.payrollReport(w, r)
	if !ok {
		return
	}

	var buf bytes.Buffer
	if err := sheet.WritePayroll(&buf, report); err != nil {
		h.fail(w, r, "Failed to build export", err)
		return
	}
	writeFile(w, sheet.ExportFilename(report.Period), buf.Bytes())
}

func (h *Handler) payrollReport(w http.ResponseWriter, r *http.Request) (*payroll.Report, bool) {
	q := r.URL.Query()
	period, err := hr.ParsePeriod(q.Get("inicio"), q.Get("fin"))
	if err != nil {
		h.fail(w, r, "Invalid period", err)
		return nil, false
	}

	report, err := h.Calculator.Report(r.Context(), actorFrom(r.Context()), period)
	if err != nil {
		h.fail(w, r, "Failed to load payroll", err)
		return nil, false
	}
	return report, true
}

// =============================================================================
// HELPERS
// =============================================================================

func parseRange(from, to string) (hr.Range, error) {
	start, err := hr.ParseOptionalDate(from)
	if err != nil {
		return hr.Range{}, err
	}
	end, err := hr.ParseOptionalDate(to)
	if err != nil {
		return hr.Range{}, err
	}
	return hr.Range{From: start, To: end}, nil
}

// statusFor maps the domain error taxonomy to HTTP.
func statusFor(err error) int {
	switch {
	case errors.Is(err, hr.ErrForbidden), errors.Is(err, hr.ErrScopeViolation):
		return http.StatusForbidden
	case hr.IsNotFound(err):
		return http.StatusNotFound
	case errors.Is(err, hr.ErrDuplicate), errors.Is(err, hr.ErrReferential):
		return http.StatusConflict
	case hr.IsClientError(err):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

// fail writes err with its mapped status. Server errors are logged.
func (h *Handler) fail(w http.ResponseWriter, r *http.Request, message string, err error) {
	status := statusFor(err)
	if status == http.StatusInternalServerError {
		h.logger.ErrorContext(r.Context(), message, slog.String("error", err.Error()))
	}
	writeError(w, status, message, err)
}

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

func writeFile(w http.ResponseWriter, filename string, data []byte) {
	w.Header().Set("Content-Type", xlsxContentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, filename))
	w.WriteHeader(http.StatusOK)
	w.Write(data)
}
