package store_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/foco/nomina/hr"
	"github.com/foco/nomina/hr/store"
)

func seeded(t *testing.T) *store.Memory {
	m := store.NewMemory()
	ctx := context.Background()
	require.NoError(t, m.SaveEmployee(ctx, hr.Employee{ID: "a", Name: "Ana", DailyRate: decimal.NewFromInt(100)}))
	require.NoError(t, m.SaveEmployee(ctx, hr.Employee{ID: "b", Name: "Beto", DailyRate: decimal.NewFromInt(80)}))
	return m
}

func TestMemory_SaveAttendance_UpsertKeepsID(t *testing.T) {
	m := seeded(t)
	ctx := context.Background()
	day := hr.NewDate(2025, time.March, 3)

	first, err := m.SaveAttendance(ctx, hr.AttendanceRecord{EmployeeID: "a", Date: day, Status: hr.StatusPresent})
	require.NoError(t, err)
	require.NotEmpty(t, first.ID)

	second, err := m.SaveAttendance(ctx, hr.AttendanceRecord{EmployeeID: "a", Date: day, Status: hr.StatusAbsent})
	require.NoError(t, err)

	assert.Equal(t, first.ID, second.ID)
	got, err := m.FindAttendance(ctx, "a", day)
	require.NoError(t, err)
	assert.Equal(t, hr.StatusAbsent, got.Status)
}

func TestMemory_SaveAttendance_UnknownEmployee(t *testing.T) {
	m := seeded(t)

	_, err := m.SaveAttendance(context.Background(), hr.AttendanceRecord{
		EmployeeID: "ghost", Date: hr.NewDate(2025, time.March, 3), Status: hr.StatusPresent,
	})

	assert.True(t, hr.IsNotFound(err))
}

func TestMemory_WithTx_RollbackOnError(t *testing.T) {
	m := seeded(t)
	ctx := context.Background()
	boom := errors.New("boom")

	err := m.WithTx(ctx, func(tx hr.Store) error {
		_, err := tx.AppendEntry(ctx, hr.Entry{
			Kind: hr.KindBonus, EmployeeID: "a", Date: hr.NewDate(2025, time.March, 3), Amount: decimal.NewFromInt(5),
		})
		require.NoError(t, err)
		return boom
	})

	assert.ErrorIs(t, err, boom)
	entries, err := m.QueryEntries(ctx, hr.EntryQuery{Kind: hr.KindBonus, Scope: hr.NewScope("a")})
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestMemory_DeleteEmployee_Cascades(t *testing.T) {
	m := seeded(t)
	ctx := context.Background()
	day := hr.NewDate(2025, time.March, 3)
	_, err := m.SaveAttendance(ctx, hr.AttendanceRecord{EmployeeID: "a", Date: day, Status: hr.StatusPresent})
	require.NoError(t, err)
	_, err = m.AppendEntry(ctx, hr.Entry{Kind: hr.KindDeduction, EmployeeID: "a", Date: day, Amount: decimal.NewFromInt(5)})
	require.NoError(t, err)

	require.NoError(t, m.DeleteEmployee(ctx, "a"))

	recs, _ := m.QueryAttendance(ctx, hr.AttendanceQuery{Scope: hr.NewScope("a")})
	assert.Empty(t, recs)
	entries, _ := m.QueryEntries(ctx, hr.EntryQuery{Kind: hr.KindDeduction, Scope: hr.NewScope("a")})
	assert.Empty(t, entries)
	assert.True(t, hr.IsNotFound(m.DeleteEmployee(ctx, "a")))
}

func TestMemory_QueryAttendance_ScopeAndOrder(t *testing.T) {
	m := seeded(t)
	ctx := context.Background()
	for i, id := range []hr.EmployeeID{"a", "b", "a"} {
		_, err := m.SaveAttendance(ctx, hr.AttendanceRecord{
			EmployeeID: id, Date: hr.NewDate(2025, time.March, 1+i), Status: hr.StatusPresent, Supervisor: "Sup",
		})
		require.NoError(t, err)
	}

	recs, err := m.QueryAttendance(ctx, hr.AttendanceQuery{Scope: hr.NewScope("a")})
	require.NoError(t, err)
	require.Len(t, recs, 2)
	assert.Equal(t, "2025-03-03", recs[0].Date.String())

	none, err := m.QueryAttendance(ctx, hr.AttendanceQuery{})
	require.NoError(t, err)
	assert.Empty(t, none, "empty scope matches nothing")

	sups, ports, err := m.AttendanceFacets(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"Sup"}, sups)
	assert.Empty(t, ports)
}
