package payroll

import (
	"context"

	"github.com/shopspring/decimal"

	"github.com/foco/nomina/hr"
)

// ReportLine is a stored line with the employee's current name. Name is
// blank for lines whose employee no longer exists.
type ReportLine struct {
	hr.PayrollLine
	Name string
}

// Totals are column sums over a report.
type Totals struct {
	BaseSalary     decimal.Decimal
	TotalBonus     decimal.Decimal
	TotalDeduction decimal.Decimal
	NetAmount      decimal.Decimal
}

type Report struct {
	Period hr.Period
	Lines  []ReportLine
	Totals Totals
}

// Report lists the stored lines of the exact period. Admin only.
func (c *Calculator) Report(ctx context.Context, actor hr.Actor, period hr.Period) (*Report, error) {
	if err := actor.RequireAdmin(); err != nil {
		return nil, err
	}

	lines, err := c.store.ListPayroll(ctx, period)
	if err != nil {
		return nil, err
	}
	dir, err := hr.LoadDirectory(ctx, c.store)
	if err != nil {
		return nil, err
	}

	return NewReport(period, lines, dir), nil
}

// NewReport joins names and sums the columns.
func NewReport(period hr.Period, lines []hr.PayrollLine, dir *hr.Directory) *Report {
	r := &Report{
		Period: period,
		Lines:  make([]ReportLine, 0, len(lines)),
		Totals: Totals{
			BaseSalary:     decimal.Zero,
			TotalBonus:     decimal.Zero,
			TotalDeduction: decimal.Zero,
			NetAmount:      decimal.Zero,
		},
	}
	for _, l := range lines {
		rl := ReportLine{PayrollLine: l}
		if emp, ok := dir.Get(l.EmployeeID); ok {
			rl.Name = emp.Name
		}
		r.Lines = append(r.Lines, rl)

		r.Totals.BaseSalary = r.Totals.BaseSalary.Add(l.BaseSalary)
		r.Totals.TotalBonus = r.Totals.TotalBonus.Add(l.TotalBonus)
		r.Totals.TotalDeduction = r.Totals.TotalDeduction.Add(l.TotalDeduction)
		r.Totals.NetAmount = r.Totals.NetAmount.Add(l.NetAmount)
	}
	return r
}
