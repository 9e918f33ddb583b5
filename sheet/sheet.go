/*
Package sheet reads and writes the xlsx files exchanged with users.

READ:
  The first worksheet is decoded into a reconcile.Table. Cells are read raw,
  so date cells arrive as Excel serials and the reconciler converts them.

WRITE:
  Payroll export ("Nómina" sheet) and header-only upload templates.
*/
package sheet

import (
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"

	"github.com/foco/nomina/hr"
	"github.com/foco/nomina/payroll"
	"github.com/foco/nomina/reconcile"
)

// Upload kinds as they appear in URLs and template names.
const (
	KindEmployees  = "employees"
	KindAttendance = "asistencia"
	KindBonuses    = "bonos"
	KindDeductions = "deducciones"
)

const payrollSheet = "Nómina"

var payrollHeader = []string{"Usuario", "Nombre", "Sueldo Base", "Bonos", "Deducciones", "Neto"}

// ReadTable decodes the first worksheet. The first row is the header.
func ReadTable(r io.Reader) (*reconcile.Table, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("%w: unreadable workbook: %v", hr.ErrValidation, err)
	}
	defer func() { _ = f.Close() }()

	name := f.GetSheetName(0)
	if name == "" {
		return nil, fmt.Errorf("%w: no worksheet found", hr.ErrValidation)
	}

	rows, err := f.GetRows(name, excelize.Options{RawCellValue: true})
	if err != nil {
		return nil, fmt.Errorf("%w: read worksheet %q: %v", hr.ErrValidation, name, err)
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("%w: worksheet is empty", hr.ErrValidation)
	}

	return reconcile.NewTable(rows[0], rows[1:]), nil
}

// WritePayroll encodes a report with a trailing "Totales" row.
func WritePayroll(w io.Writer, report *payroll.Report) error {
	f, err := newWorkbook(payrollSheet, payrollHeader)
	if err != nil {
		return err
	}
	defer func() { _ = f.Close() }()

	row := 2
	for _, l := range report.Lines {
		values := []any{
			string(l.EmployeeID), l.Name,
			l.BaseSalary.InexactFloat64(), l.TotalBonus.InexactFloat64(),
			l.TotalDeduction.InexactFloat64(), l.NetAmount.InexactFloat64(),
		}
		if err := setRow(f, payrollSheet, row, values); err != nil {
			return err
		}
		row++
	}

	t := report.Totals
	totals := []any{
		"Totales", "",
		t.BaseSalary.InexactFloat64(), t.TotalBonus.InexactFloat64(),
		t.TotalDeduction.InexactFloat64(), t.NetAmount.InexactFloat64(),
	}
	if err := setRow(f, payrollSheet, row, totals); err != nil {
		return err
	}

	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return err
	}
	last, _ := excelize.CoordinatesToCellName(len(payrollHeader), row)
	first, _ := excelize.CoordinatesToCellName(1, row)
	if err := f.SetCellStyle(payrollSheet, first, last, bold); err != nil {
		return err
	}

	return f.Write(w)
}

// ExportFilename is the download name for a period's payroll.
func ExportFilename(p hr.Period) string {
	return fmt.Sprintf("nomina_%s_a_%s.xlsx", p.Start, p.End)
}

// Template writes a header-only workbook for an upload kind.
func Template(w io.Writer, kind string) error {
	cols, ok := templateColumns(kind)
	if !ok {
		return &hr.NotFoundError{Kind: "template", ID: kind}
	}

	f, err := newWorkbook(kind, cols)
	if err != nil {
		return err
	}
	defer func() { _ = f.Close() }()
	return f.Write(w)
}

func templateColumns(kind string) ([]string, bool) {
	switch kind {
	case KindEmployees:
		return reconcile.EmployeeColumns, true
	case KindAttendance:
		return reconcile.AttendanceColumns, true
	case KindBonuses, KindDeductions:
		return append(append([]string(nil), reconcile.EntryColumns...), reconcile.ColObservation), true
	}
	return nil, false
}

// newWorkbook creates a workbook whose only sheet is name, with a bold header.
func newWorkbook(name string, header []string) (*excelize.File, error) {
	f := excelize.NewFile()

	index, err := f.NewSheet(name)
	if err != nil {
		f.Close()
		return nil, err
	}
	f.SetActiveSheet(index)
	if name != "Sheet1" {
		if err := f.DeleteSheet("Sheet1"); err != nil {
			f.Close()
			return nil, err
		}
	}

	values := make([]any, len(header))
	for i, h := range header {
		values[i] = h
	}
	if err := setRow(f, name, 1, values); err != nil {
		f.Close()
		return nil, err
	}

	headerStyle, err := f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true},
		Fill:      excelize.Fill{Type: "pattern", Color: []string{"#D9E1F2"}, Pattern: 1},
		Alignment: &excelize.Alignment{Horizontal: "center"},
	})
	if err != nil {
		f.Close()
		return nil, err
	}
	last, _ := excelize.CoordinatesToCellName(len(header), 1)
	if err := f.SetCellStyle(name, "A1", last, headerStyle); err != nil {
		f.Close()
		return nil, err
	}
	return f, nil
}

func setRow(f *excelize.File, sheet string, row int, values []any) error {
	cell, err := excelize.CoordinatesToCellName(1, row)
	if err != nil {
		return err
	}
	return f.SetSheetRow(sheet, cell, &values)
}
