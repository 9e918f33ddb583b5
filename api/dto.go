/*
dto.go - Data Transfer Objects for API requests and responses

NAMING CONVENTION:
  - *DTO: Response types returned to clients
  - *Request: Request body types from clients

MONEY:
  decimal.Decimal fields encode as JSON strings ("150.5") and accept either
  strings or numbers on input.

VALIDATION:
  Validation is done by the domain packages, not in DTOs. DTOs are pure data
  carriers.
*/
package api

import (
	"github.com/shopspring/decimal"

	"github.com/foco/nomina/aggregate"
	"github.com/foco/nomina/hr"
	"github.com/foco/nomina/payroll"
)

// =============================================================================
// EMPLOYEES
// =============================================================================

type EmployeeDTO struct {
	ID           string          `json:"id"`
	Name         string          `json:"name"`
	DailyRate    decimal.Decimal `json:"daily_rate"`
	Position     string          `json:"position"`
	IsAdmin      bool            `json:"is_admin"`
	IsSupervisor bool            `json:"is_supervisor"`
	SupervisorID string          `json:"supervisor_id,omitempty"`
}

// EmployeeRequest is the body of create and update. ID is ignored on update
// in favour of the URL.
type EmployeeRequest struct {
	ID           string          `json:"id"`
	Name         string          `json:"name"`
	DailyRate    decimal.Decimal `json:"daily_rate"`
	Position     string          `json:"position"`
	IsAdmin      bool            `json:"is_admin"`
	IsSupervisor bool            `json:"is_supervisor"`
	SupervisorID string          `json:"supervisor_id"`
}

func (req EmployeeRequest) employee() hr.Employee {
	return hr.Employee{
		ID:           hr.ParseEmployeeID(req.ID),
		Name:         req.Name,
		DailyRate:    req.DailyRate,
		Position:     req.Position,
		IsAdmin:      req.IsAdmin,
		IsSupervisor: req.IsSupervisor,
		SupervisorID: hr.ParseEmployeeID(req.SupervisorID),
	}
}

func toEmployeeDTO(e hr.Employee) EmployeeDTO {
	return EmployeeDTO{
		ID:           string(e.ID),
		Name:         e.Name,
		DailyRate:    e.DailyRate,
		Position:     e.Position,
		IsAdmin:      e.IsAdmin,
		IsSupervisor: e.IsSupervisor,
		SupervisorID: string(e.SupervisorID),
	}
}

// =============================================================================
// ATTENDANCE
// =============================================================================

type AttendanceDTO struct {
	ID          string  `json:"id"`
	EmployeeID  string  `json:"employee_id"`
	Date        hr.Date `json:"date"`
	Status      string  `json:"status"`
	StatusLabel string  `json:"status_label"`
	Supervisor  string  `json:"supervisor"`
	Portfolio   string  `json:"portfolio"`
}

type EditAttendanceRequest struct {
	Status     string `json:"status"`
	Supervisor string `json:"supervisor"`
	Portfolio  string `json:"portfolio"`
}

// AttendanceViewDTO carries the listing plus summary. Dates and Matrix are
// present only for a closed range; each Matrix row aligns with Dates.
type AttendanceViewDTO struct {
	Records   []AttendanceDTO                     `json:"records"`
	Employees []string                            `json:"employees"`
	Dates     []hr.Date                           `json:"dates,omitempty"`
	Matrix    map[string][]aggregate.Cell         `json:"matrix,omitempty"`
	Summary   map[hr.EmployeeID]map[hr.Status]int `json:"summary"`
	Options   aggregate.Options                   `json:"options"`
}

func toAttendanceDTO(r hr.AttendanceRecord) AttendanceDTO {
	return AttendanceDTO{
		ID:          r.ID,
		EmployeeID:  string(r.EmployeeID),
		Date:        r.Date,
		Status:      string(r.Status),
		StatusLabel: r.Status.Label(),
		Supervisor:  r.Supervisor,
		Portfolio:   r.Portfolio,
	}
}

func toAttendanceViewDTO(v *aggregate.View) AttendanceViewDTO {
	dto := AttendanceViewDTO{
		Records:   make([]AttendanceDTO, 0, len(v.Records)),
		Employees: make([]string, 0, len(v.Employees)),
		Summary:   v.Summary,
		Options:   v.Options,
	}
	for _, r := range v.Records {
		dto.Records = append(dto.Records, toAttendanceDTO(r))
	}
	for _, id := range v.Employees {
		dto.Employees = append(dto.Employees, string(id))
	}
	if v.Matrix != nil {
		dto.Dates = v.Matrix.Dates
		dto.Matrix = make(map[string][]aggregate.Cell, len(v.Matrix.Employees))
		for _, id := range v.Matrix.Employees {
			dto.Matrix[string(id)] = v.Matrix.Row(id)
		}
	}
	return dto
}

// =============================================================================
// LEDGER
// =============================================================================

type EntryDTO struct {
	ID         string          `json:"id"`
	Kind       string          `json:"kind"`
	EmployeeID string          `json:"employee_id"`
	Date       hr.Date         `json:"date"`
	Category   string          `json:"category"`
	Amount     decimal.Decimal `json:"amount"`
	Note       string          `json:"note,omitempty"`
}

func toEntryDTOs(entries []hr.Entry) []EntryDTO {
	dtos := make([]EntryDTO, 0, len(entries))
	for _, e := range entries {
		dtos = append(dtos, EntryDTO{
			ID:         e.ID,
			Kind:       string(e.Kind),
			EmployeeID: string(e.EmployeeID),
			Date:       e.Date,
			Category:   e.Category,
			Amount:     e.Amount,
			Note:       e.Note,
		})
	}
	return dtos
}

// =============================================================================
// PAYROLL
// =============================================================================

type PayrollRequest struct {
	Start string `json:"inicio"`
	End   string `json:"fin"`
}

type PayrollLineDTO struct {
	EmployeeID     string          `json:"employee_id"`
	Name           string          `json:"name"`
	FullDays       int             `json:"full_days"`
	HalfDays       int             `json:"half_days"`
	PaidDays       decimal.Decimal `json:"paid_days"`
	DailyRate      decimal.Decimal `json:"daily_rate"`
	BaseSalary     decimal.Decimal `json:"base_salary"`
	TotalBonus     decimal.Decimal `json:"total_bonus"`
	TotalDeduction decimal.Decimal `json:"total_deduction"`
	NetAmount      decimal.Decimal `json:"net_amount"`
}

type PayrollTotalsDTO struct {
	BaseSalary     decimal.Decimal `json:"base_salary"`
	TotalBonus     decimal.Decimal `json:"total_bonus"`
	TotalDeduction decimal.Decimal `json:"total_deduction"`
	NetAmount      decimal.Decimal `json:"net_amount"`
}

type PayrollReportDTO struct {
	Start  hr.Date          `json:"inicio"`
	End    hr.Date          `json:"fin"`
	Lines  []PayrollLineDTO `json:"lines"`
	Totals PayrollTotalsDTO `json:"totals"`
}

func toPayrollReportDTO(r *payroll.Report) PayrollReportDTO {
	dto := PayrollReportDTO{
		Start: r.Period.Start,
		End:   r.Period.End,
		Lines: make([]PayrollLineDTO, 0, len(r.Lines)),
		Totals: PayrollTotalsDTO{
			BaseSalary:     r.Totals.BaseSalary,
			TotalBonus:     r.Totals.TotalBonus,
			TotalDeduction: r.Totals.TotalDeduction,
			NetAmount:      r.Totals.NetAmount,
		},
	}
	for _, l := range r.Lines {
		dto.Lines = append(dto.Lines, PayrollLineDTO{
			EmployeeID:     string(l.EmployeeID),
			Name:           l.Name,
			FullDays:       l.FullDays,
			HalfDays:       l.HalfDays,
			PaidDays:       l.PaidDays,
			DailyRate:      l.DailyRate,
			BaseSalary:     l.BaseSalary,
			TotalBonus:     l.TotalBonus,
			TotalDeduction: l.TotalDeduction,
			NetAmount:      l.NetAmount,
		})
	}
	return dto
}

// =============================================================================
// ERRORS
// =============================================================================

// ErrorResponse represents an error in API responses.
type ErrorResponse struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}
