/*
Package payroll converts attendance, bonuses and deductions into payroll
lines.

CALCULATION (per employee, closed period):
  fullDays   = records with status A or V
  halfDays   = records with status MG
  paidDays   = fullDays + 0.5 × halfDays
  base       = dailyRate × paidDays
  net        = base + Σbonus − Σdeduction     (may be negative)

  F, D and days without a record contribute nothing.

REGENERATION:
  Admin only. Deletes every line of the exact (start, end) pair and writes
  one line per employee in the directory, ignoring scope. Running it twice
  yields identical lines. Calls for the same period are serialised; other
  periods proceed in parallel.

SEE ALSO:
  - hr/entry.go: PayrollLine and the net invariant
  - sheet: xlsx export of a Report
*/
package payroll

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/shopspring/decimal"

	"github.com/foco/nomina/hr"
)

var (
	fullWeight = hr.StatusPresent.Weight()
	halfWeight = hr.StatusHalfDay.Weight()
)

// ComputeLine is the pure calculation. Records and entries for other
// employees or outside the period are ignored.
func ComputeLine(emp hr.Employee, period hr.Period, attendance []hr.AttendanceRecord, bonuses, deductions []hr.Entry) hr.PayrollLine {
	var full, halfDays int
	for _, r := range attendance {
		if r.EmployeeID != emp.ID || !period.Contains(r.Date) {
			continue
		}
		switch w := r.Status.Weight(); {
		case w.Equal(fullWeight):
			full++
		case w.Equal(halfWeight):
			halfDays++
		}
	}

	return hr.NewPayrollLine(emp, period, full, halfDays,
		sumFor(emp.ID, period, bonuses),
		sumFor(emp.ID, period, deductions),
	)
}

func sumFor(id hr.EmployeeID, period hr.Period, entries []hr.Entry) decimal.Decimal {
	total := decimal.Zero
	for _, e := range entries {
		if e.EmployeeID == id && period.Contains(e.Date) {
			total = total.Add(e.Amount)
		}
	}
	return total
}

// =============================================================================
// CALCULATOR
// =============================================================================

type Calculator struct {
	store  hr.Store
	logger *slog.Logger
	locks  *periodLocks
}

func NewCalculator(store hr.Store, logger *slog.Logger) *Calculator {
	if logger == nil {
		logger = slog.Default()
	}
	return &Calculator{store: store, logger: logger, locks: newPeriodLocks()}
}

// Line computes one employee's line from stored data without persisting it.
func (c *Calculator) Line(ctx context.Context, emp hr.Employee, period hr.Period) (hr.PayrollLine, error) {
	in, err := loadInputs(ctx, c.store, hr.NewScope(emp.ID), period)
	if err != nil {
		return hr.PayrollLine{}, err
	}
	return ComputeLine(emp, period, in.attendance, in.bonuses, in.deductions), nil
}

// Regenerate rebuilds the period's lines for the whole directory.
func (c *Calculator) Regenerate(ctx context.Context, actor hr.Actor, period hr.Period) ([]hr.PayrollLine, error) {
	if err := actor.RequireAdmin(); err != nil {
		return nil, err
	}
	if period.End.Before(period.Start) {
		return nil, hr.ErrInvalidPeriod
	}

	unlock := c.locks.lock(period)
	defer unlock()

	var lines []hr.PayrollLine
	err := c.store.WithTx(ctx, func(tx hr.Store) error {
		dir, err := hr.LoadDirectory(ctx, tx)
		if err != nil {
			return err
		}

		in, err := loadInputs(ctx, tx, hr.NewScope(dir.IDs()...), period)
		if err != nil {
			return err
		}

		byEmp := in.group()
		lines = make([]hr.PayrollLine, 0, dir.Len())
		for _, emp := range dir.Employees() {
			g := byEmp[emp.ID]
			lines = append(lines, ComputeLine(emp, period, g.attendance, g.bonuses, g.deductions))
		}

		return tx.ReplacePayroll(ctx, period, lines)
	})
	if err != nil {
		return nil, fmt.Errorf("regenerate payroll %s: %w", period, err)
	}

	c.logger.InfoContext(ctx, "payroll regenerated",
		slog.String("start", period.Start.String()),
		slog.String("end", period.End.String()),
		slog.Int("lines", len(lines)),
	)
	return lines, nil
}

// =============================================================================
// INPUTS
// =============================================================================

type inputs struct {
	attendance []hr.AttendanceRecord
	bonuses    []hr.Entry
	deductions []hr.Entry
}

func loadInputs(ctx context.Context, s hr.Store, scope hr.Scope, period hr.Period) (inputs, error) {
	var (
		in  inputs
		err error
	)
	rng := period.Range()
	if in.attendance, err = s.QueryAttendance(ctx, hr.AttendanceQuery{Scope: scope, Range: rng}); err != nil {
		return in, err
	}
	if in.bonuses, err = s.QueryEntries(ctx, hr.EntryQuery{Kind: hr.KindBonus, Scope: scope, Range: rng}); err != nil {
		return in, err
	}
	if in.deductions, err = s.QueryEntries(ctx, hr.EntryQuery{Kind: hr.KindDeduction, Scope: scope, Range: rng}); err != nil {
		return in, err
	}
	return in, nil
}

// group splits the inputs per employee.
func (in inputs) group() map[hr.EmployeeID]inputs {
	out := make(map[hr.EmployeeID]inputs)
	for _, r := range in.attendance {
		g := out[r.EmployeeID]
		g.attendance = append(g.attendance, r)
		out[r.EmployeeID] = g
	}
	for _, e := range in.bonuses {
		g := out[e.EmployeeID]
		g.bonuses = append(g.bonuses, e)
		out[e.EmployeeID] = g
	}
	for _, e := range in.deductions {
		g := out[e.EmployeeID]
		g.deductions = append(g.deductions, e)
		out[e.EmployeeID] = g
	}
	return out
}
