package payroll

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/foco/nomina/hr"
	"github.com/foco/nomina/hr/store"
)

func day(d int) hr.Date { return hr.NewDate(2025, time.March, d) }

func march1to4(t *testing.T) hr.Period {
	t.Helper()
	p, err := hr.NewPeriod(day(1), day(4))
	require.NoError(t, err)
	return p
}

var admin = hr.AdminActor("admin")

// seedScenario: E at 100/day with A, A, MG, F over four days, a bonus of 50
// and a deduction of 20. Z has nothing recorded.
func seedScenario(t *testing.T) *store.Memory {
	t.Helper()
	mem := store.NewMemory()
	ctx := context.Background()
	require.NoError(t, mem.SaveEmployee(ctx, hr.Employee{ID: "E", Name: "Elena", DailyRate: decimal.NewFromInt(100)}))
	require.NoError(t, mem.SaveEmployee(ctx, hr.Employee{ID: "Z", Name: "Zoe", DailyRate: decimal.NewFromInt(90)}))

	for i, st := range []hr.Status{hr.StatusPresent, hr.StatusPresent, hr.StatusHalfDay, hr.StatusAbsent} {
		_, err := mem.SaveAttendance(ctx, hr.AttendanceRecord{EmployeeID: "E", Date: day(1 + i), Status: st})
		require.NoError(t, err)
	}
	// Outside the period: never counted.
	_, err := mem.SaveAttendance(ctx, hr.AttendanceRecord{EmployeeID: "E", Date: day(5), Status: hr.StatusPresent})
	require.NoError(t, err)

	_, err = mem.AppendEntry(ctx, hr.Entry{Kind: hr.KindBonus, EmployeeID: "E", Date: day(2), Amount: decimal.NewFromInt(50)})
	require.NoError(t, err)
	_, err = mem.AppendEntry(ctx, hr.Entry{Kind: hr.KindDeduction, EmployeeID: "E", Date: day(3), Amount: decimal.NewFromInt(20)})
	require.NoError(t, err)
	return mem
}

func TestComputeLine_Scenario(t *testing.T) {
	mem := seedScenario(t)
	calc := NewCalculator(mem, nil)
	emp, _ := mem.GetEmployee(context.Background(), "E")

	line, err := calc.Line(context.Background(), *emp, march1to4(t))

	require.NoError(t, err)
	assert.Equal(t, 2, line.FullDays)
	assert.Equal(t, 1, line.HalfDays)
	assert.Equal(t, "2.5", line.PaidDays.String())
	assert.Equal(t, "250", line.BaseSalary.String())
	assert.Equal(t, "280", line.NetAmount.String())
	assert.True(t, line.NetAmount.Equal(line.BaseSalary.Add(line.TotalBonus).Sub(line.TotalDeduction)))
}

func TestComputeLine_StatusWeights(t *testing.T) {
	emp := hr.Employee{ID: "x", DailyRate: decimal.NewFromInt(10)}
	p, _ := hr.NewPeriod(day(1), day(10))
	var recs []hr.AttendanceRecord
	for i, st := range []hr.Status{hr.StatusVacation, hr.StatusRestDay, hr.StatusAbsent, hr.StatusHalfDay, hr.StatusHalfDay} {
		recs = append(recs, hr.AttendanceRecord{EmployeeID: "x", Date: day(1 + i), Status: st})
	}
	recs = append(recs, hr.AttendanceRecord{EmployeeID: "other", Date: day(1), Status: hr.StatusPresent})

	line := ComputeLine(emp, p, recs, nil, nil)

	assert.Equal(t, 1, line.FullDays)
	assert.Equal(t, 2, line.HalfDays)
	assert.Equal(t, "2", line.PaidDays.String())
	assert.Equal(t, "20", line.NetAmount.String())
}

func TestRegenerate_OneLinePerEmployee(t *testing.T) {
	mem := seedScenario(t)
	calc := NewCalculator(mem, nil)

	lines, err := calc.Regenerate(context.Background(), admin, march1to4(t))

	require.NoError(t, err)
	require.Len(t, lines, 2)
	assert.Equal(t, hr.EmployeeID("E"), lines[0].EmployeeID)
	assert.Equal(t, "280", lines[0].NetAmount.String())

	// Z has no records: zero line, not missing.
	assert.Equal(t, hr.EmployeeID("Z"), lines[1].EmployeeID)
	assert.True(t, lines[1].PaidDays.IsZero())
	assert.True(t, lines[1].NetAmount.IsZero())
}

func TestRegenerate_Idempotent(t *testing.T) {
	mem := seedScenario(t)
	calc := NewCalculator(mem, nil)
	ctx := context.Background()
	period := march1to4(t)

	first, err := calc.Regenerate(ctx, admin, period)
	require.NoError(t, err)
	second, err := calc.Regenerate(ctx, admin, period)
	require.NoError(t, err)

	assert.Equal(t, first, second)
	stored, err := mem.ListPayroll(ctx, period)
	require.NoError(t, err)
	assert.Equal(t, second, stored)
}

func TestRegenerate_AdminOnly(t *testing.T) {
	calc := NewCalculator(seedScenario(t), nil)

	_, err := calc.Regenerate(context.Background(), hr.Actor{ID: "E", Role: hr.RoleSupervisor}, march1to4(t))

	assert.ErrorIs(t, err, hr.ErrForbidden)
}

func TestRegenerate_SamePeriodSerialised(t *testing.T) {
	mem := seedScenario(t)
	calc := NewCalculator(mem, nil)
	ctx := context.Background()
	period := march1to4(t)

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := calc.Regenerate(ctx, admin, period)
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	stored, err := mem.ListPayroll(ctx, period)
	require.NoError(t, err)
	assert.Len(t, stored, 2)
	assert.Zero(t, calc.locks.held())
}

func TestReport_Totals(t *testing.T) {
	mem := seedScenario(t)
	calc := NewCalculator(mem, nil)
	ctx := context.Background()
	period := march1to4(t)
	_, err := calc.Regenerate(ctx, admin, period)
	require.NoError(t, err)

	report, err := calc.Report(ctx, admin, period)

	require.NoError(t, err)
	require.Len(t, report.Lines, 2)
	assert.Equal(t, "Elena", report.Lines[0].Name)
	assert.Equal(t, "250", report.Totals.BaseSalary.String())
	assert.Equal(t, "50", report.Totals.TotalBonus.String())
	assert.Equal(t, "20", report.Totals.TotalDeduction.String())
	assert.Equal(t, "280", report.Totals.NetAmount.String())
}
