package sheet

import (
	"bytes"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/foco/nomina/hr"
	"github.com/foco/nomina/payroll"
	"github.com/foco/nomina/reconcile"
)

func TestWritePayroll_TotalsRow(t *testing.T) {
	period, err := hr.ParsePeriod("2025-03-01", "2025-03-04")
	require.NoError(t, err)
	dir := hr.NewDirectory([]hr.Employee{
		{ID: "E", Name: "Elena", DailyRate: decimal.NewFromInt(100)},
		{ID: "Z", Name: "Zoe", DailyRate: decimal.NewFromInt(90)},
	})
	e, _ := dir.Get("E")
	z, _ := dir.Get("Z")
	report := payroll.NewReport(period, []hr.PayrollLine{
		hr.NewPayrollLine(e, period, 2, 1, decimal.NewFromInt(50), decimal.NewFromInt(20)),
		hr.NewPayrollLine(z, period, 1, 0, decimal.Zero, decimal.NewFromInt(10)),
	}, dir)

	var buf bytes.Buffer
	require.NoError(t, WritePayroll(&buf, report))

	f, err := excelize.OpenReader(&buf)
	require.NoError(t, err)
	defer f.Close()

	assert.Equal(t, "Nómina", f.GetSheetName(0))
	rows, err := f.GetRows("Nómina")
	require.NoError(t, err)
	require.Len(t, rows, 4)
	assert.Equal(t, []string{"Usuario", "Nombre", "Sueldo Base", "Bonos", "Deducciones", "Neto"}, rows[0])
	assert.Equal(t, []string{"E", "Elena", "250", "50", "20", "280"}, rows[1])
	assert.Equal(t, "Totales", rows[3][0])
	assert.Equal(t, "", rows[3][1])
	assert.Equal(t, "340", rows[3][2])
	assert.Equal(t, "360", rows[3][5])
}

func TestTemplate_RoundTripsThroughReadTable(t *testing.T) {
	for kind, want := range map[string][]string{
		KindEmployees:  reconcile.EmployeeColumns,
		KindAttendance: reconcile.AttendanceColumns,
		KindBonuses:    {"Usuario", "Fecha", "Tipo", "Monto", "Observación"},
	} {
		t.Run(kind, func(t *testing.T) {
			var buf bytes.Buffer
			require.NoError(t, Template(&buf, kind))

			table, err := ReadTable(&buf)
			require.NoError(t, err)
			assert.Equal(t, want, table.Columns)
			assert.Zero(t, table.Len())
		})
	}
}

func TestTemplate_UnknownKind(t *testing.T) {
	err := Template(&bytes.Buffer{}, "nope")
	assert.ErrorIs(t, err, hr.ErrNotFound)
}

func TestReadTable_RawDates(t *testing.T) {
	f := excelize.NewFile()
	defer f.Close()
	require.NoError(t, f.SetSheetRow("Sheet1", "A1", &[]any{"Usuario", "Fecha", "Estado", "SUP", "CARTERA"}))
	require.NoError(t, f.SetSheetRow("Sheet1", "A2", &[]any{"a", 45717, "A", "Laura", "Norte"}))
	var buf bytes.Buffer
	require.NoError(t, f.Write(&buf))

	table, err := ReadTable(&buf)

	require.NoError(t, err)
	require.Equal(t, 1, table.Len())
	assert.Equal(t, 2, table.Row(0).Number)
	assert.Equal(t, "45717", table.Row(0).Get("Fecha"))
}

func TestReadTable_Garbage(t *testing.T) {
	_, err := ReadTable(bytes.NewReader([]byte("not a workbook")))
	assert.ErrorIs(t, err, hr.ErrValidation)
}

func TestExportFilename(t *testing.T) {
	p, _ := hr.ParsePeriod("2025-03-01", "2025-03-15")
	assert.Equal(t, "nomina_2025-03-01_a_2025-03-15.xlsx", ExportFilename(p))
}
