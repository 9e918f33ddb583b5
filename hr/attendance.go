package hr

import (
	"strings"

	"github.com/shopspring/decimal"
)

// =============================================================================
// ATTENDANCE STATUS
// =============================================================================

// Status is a daily attendance code. The empty Status is never stored; it
// marks "no record" in aggregated views.
type Status string

const (
	StatusPresent  Status = "A"
	StatusVacation Status = "V"
	StatusHalfDay  Status = "MG"
	StatusAbsent   Status = "F"
	StatusRestDay  Status = "D"
)

// Statuses lists the recognised codes in display order.
var Statuses = []Status{StatusPresent, StatusVacation, StatusHalfDay, StatusAbsent, StatusRestDay}

var (
	one  = decimal.NewFromInt(1)
	half = decimal.NewFromFloat(0.5)
)

// ParseStatus accepts the codes case-insensitively.
func ParseStatus(s string) (Status, error) {
	st := Status(strings.ToUpper(strings.TrimSpace(s)))
	if !st.Valid() {
		return "", invalid("estado", s, "must be one of A, V, MG, F, D")
	}
	return st, nil
}

func (s Status) Valid() bool {
	switch s {
	case StatusPresent, StatusVacation, StatusHalfDay, StatusAbsent, StatusRestDay:
		return true
	}
	return false
}

// Weight is the paid-day weight: Present and Vacation 1, HalfDay 0.5,
// Absent and RestDay 0.
func (s Status) Weight() decimal.Decimal {
	switch s {
	case StatusPresent, StatusVacation:
		return one
	case StatusHalfDay:
		return half
	default:
		return decimal.Zero
	}
}

func (s Status) Label() string {
	switch s {
	case StatusPresent:
		return "Present"
	case StatusVacation:
		return "Vacation"
	case StatusHalfDay:
		return "HalfDay"
	case StatusAbsent:
		return "Absent"
	case StatusRestDay:
		return "RestDay"
	}
	return ""
}

// =============================================================================
// ATTENDANCE RECORD
// =============================================================================

// AttendanceRecord is unique per (EmployeeID, Date). Supervisor and
// Portfolio are provenance text for filtering only; scoping never reads them.
type AttendanceRecord struct {
	ID         string
	EmployeeID EmployeeID
	Date       Date
	Status     Status
	Supervisor string
	Portfolio  string
}

// AttendanceKey is the natural key of an attendance record.
type AttendanceKey struct {
	EmployeeID EmployeeID
	Date       Date
}

func (r AttendanceRecord) Key() AttendanceKey {
	return AttendanceKey{EmployeeID: r.EmployeeID, Date: r.Date}
}

func (r AttendanceRecord) Validate() error {
	if r.EmployeeID == "" {
		return invalid("usuario", "", "is required")
	}
	if r.Date.IsZero() {
		return invalid("fecha", "", "is required")
	}
	if !r.Status.Valid() {
		return invalid("estado", string(r.Status), "must be one of A, V, MG, F, D")
	}
	return nil
}

// AttendanceQuery selects attendance records. Scope is mandatory: an empty
// scope yields nothing. Supervisor and Portfolio match exactly when set.
type AttendanceQuery struct {
	Scope      Scope
	Supervisor string
	Portfolio  string
	Range      Range
}

// Matches applies the query to one record.
func (q AttendanceQuery) Matches(r AttendanceRecord) bool {
	if !q.Scope.Contains(r.EmployeeID) {
		return false
	}
	if q.Supervisor != "" && r.Supervisor != q.Supervisor {
		return false
	}
	if q.Portfolio != "" && r.Portfolio != q.Portfolio {
		return false
	}
	return q.Range.Contains(r.Date)
}
