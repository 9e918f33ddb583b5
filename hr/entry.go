package hr

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// =============================================================================
// LEDGER ENTRY - Bonus or Deduction (append-only, no natural key)
// =============================================================================

type EntryKind string

const (
	KindBonus     EntryKind = "bonus"
	KindDeduction EntryKind = "deduction"
)

func (k EntryKind) Valid() bool {
	return k == KindBonus || k == KindDeduction
}

// Entry is one bonus or deduction. Several entries per employee and date are
// allowed and all of them are summed.
type Entry struct {
	ID         string
	Kind       EntryKind
	EmployeeID EmployeeID
	Date       Date
	Category   string
	Amount     decimal.Decimal
	Note       string
}

func (e Entry) Validate() error {
	if !e.Kind.Valid() {
		return fmt.Errorf("%w: unknown entry kind %q", ErrValidation, e.Kind)
	}
	if e.EmployeeID == "" {
		return invalid("usuario", "", "is required")
	}
	if e.Date.IsZero() {
		return invalid("fecha", "", "is required")
	}
	if e.Amount.IsNegative() {
		return invalid("monto", e.Amount.String(), "must not be negative")
	}
	return nil
}

// EntryQuery selects entries of one kind.
type EntryQuery struct {
	Kind  EntryKind
	Scope Scope
	Range Range
}

func (q EntryQuery) Matches(e Entry) bool {
	return e.Kind == q.Kind && q.Scope.Contains(e.EmployeeID) && q.Range.Contains(e.Date)
}

// SumAmounts totals entry amounts.
func SumAmounts(entries []Entry) decimal.Decimal {
	total := decimal.Zero
	for _, e := range entries {
		total = total.Add(e.Amount)
	}
	return total
}

// =============================================================================
// PAYROLL LINE - Derived, never hand-edited
// =============================================================================

// PayrollLine is one employee's pay for a period. NetAmount is always
// BaseSalary + TotalBonus - TotalDeduction; construct lines with
// NewPayrollLine or call Recompute after loading.
type PayrollLine struct {
	EmployeeID     EmployeeID
	Period         Period
	FullDays       int
	HalfDays       int
	PaidDays       decimal.Decimal
	DailyRate      decimal.Decimal
	BaseSalary     decimal.Decimal
	TotalBonus     decimal.Decimal
	TotalDeduction decimal.Decimal
	NetAmount      decimal.Decimal
}

// NewPayrollLine derives paid days, base salary and net amount.
func NewPayrollLine(emp Employee, period Period, fullDays, halfDays int, bonus, deduction decimal.Decimal) PayrollLine {
	paid := StatusPresent.Weight().Mul(decimal.NewFromInt(int64(fullDays))).
		Add(StatusHalfDay.Weight().Mul(decimal.NewFromInt(int64(halfDays))))
	line := PayrollLine{
		EmployeeID:     emp.ID,
		Period:         period,
		FullDays:       fullDays,
		HalfDays:       halfDays,
		PaidDays:       paid,
		DailyRate:      emp.DailyRate,
		BaseSalary:     emp.DailyRate.Mul(paid),
		TotalBonus:     bonus,
		TotalDeduction: deduction,
	}
	line.Recompute()
	return line
}

// Recompute resets NetAmount from its components. A negative net is valid.
func (l *PayrollLine) Recompute() {
	l.NetAmount = l.BaseSalary.Add(l.TotalBonus).Sub(l.TotalDeduction)
}
