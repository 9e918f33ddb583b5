package reconcile

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/foco/nomina/hr"
	"github.com/foco/nomina/hr/store"
)

// =============================================================================
// TEST HELPERS
// =============================================================================

// newFixture seeds sup1 (agents a, b) and sup2 (agent c).
func newFixture(t *testing.T) (*Reconciler, *store.Memory) {
	t.Helper()
	mem := store.NewMemory()
	ctx := context.Background()
	for _, e := range []hr.Employee{
		{ID: "sup1", Name: "Laura", DailyRate: decimal.NewFromInt(300), IsSupervisor: true},
		{ID: "sup2", Name: "Pedro", DailyRate: decimal.NewFromInt(300), IsSupervisor: true},
		{ID: "a", Name: "Ana", DailyRate: decimal.NewFromInt(100), SupervisorID: "sup1"},
		{ID: "b", Name: "Beto", DailyRate: decimal.NewFromInt(100), SupervisorID: "sup1"},
		{ID: "c", Name: "Carla", DailyRate: decimal.NewFromInt(100), SupervisorID: "sup2"},
	} {
		require.NoError(t, mem.SaveEmployee(ctx, e))
	}
	return New(mem, nil), mem
}

func attendanceTable(rows ...[]string) *Table {
	return NewTable(AttendanceColumns, rows)
}

var sup1 = hr.Actor{ID: "sup1", Role: hr.RoleSupervisor}

// =============================================================================
// ATTENDANCE
// =============================================================================

func TestIngestAttendance_RowIsolation(t *testing.T) {
	// GIVEN: 4 rows where row 3 (second data row) has a bad date
	rc, mem := newFixture(t)
	table := attendanceTable(
		[]string{"a", "2025-03-01", "A", "Laura", "Norte"},
		[]string{"a", "not a date", "A", "Laura", "Norte"},
		[]string{"b", "2025-03-01", "mg", "Laura", "Norte"},
		[]string{"b", "2025-03-02", "F", "Laura", "Norte"},
	)

	// WHEN
	res, err := rc.IngestAttendance(context.Background(), hr.AdminActor("admin"), table)

	// THEN: 3 created, one error on row 3
	require.NoError(t, err)
	assert.Equal(t, 3, res.Created)
	assert.Equal(t, 0, res.Replaced)
	require.Len(t, res.Errors, 1)
	assert.Equal(t, 3, res.Errors[0].Row)

	recs, err := mem.QueryAttendance(context.Background(), hr.AttendanceQuery{Scope: hr.NewScope("a", "b")})
	require.NoError(t, err)
	assert.Len(t, recs, 3)
}

func TestIngestAttendance_ReplaceExisting(t *testing.T) {
	rc, mem := newFixture(t)
	ctx := context.Background()
	day := hr.NewDate(2025, time.March, 1)
	stored, err := mem.SaveAttendance(ctx, hr.AttendanceRecord{EmployeeID: "a", Date: day, Status: hr.StatusPresent})
	require.NoError(t, err)

	res, err := rc.IngestAttendance(ctx, sup1, attendanceTable(
		[]string{"a", "2025-03-01", "V", "Laura", "Sur"},
	))

	require.NoError(t, err)
	assert.Equal(t, 0, res.Created)
	assert.Equal(t, 1, res.Replaced)
	assert.Equal(t, []string{"row 2: a 2025-03-01 A→V"}, res.Details)

	got, err := mem.FindAttendance(ctx, "a", day)
	require.NoError(t, err)
	assert.Equal(t, stored.ID, got.ID)
	assert.Equal(t, hr.StatusVacation, got.Status)
	assert.Equal(t, "Sur", got.Portfolio)
}

func TestIngestAttendance_RepeatedKeyInBatch(t *testing.T) {
	rc, mem := newFixture(t)

	res, err := rc.IngestAttendance(context.Background(), sup1, attendanceTable(
		[]string{"a", "2025-03-01", "A", "", ""},
		[]string{"a", "2025-03-01", "F", "", ""},
	))

	require.NoError(t, err)
	assert.Equal(t, 1, res.Created)
	assert.Equal(t, 1, res.Replaced)
	got, _ := mem.FindAttendance(context.Background(), "a", hr.NewDate(2025, time.March, 1))
	assert.Equal(t, hr.StatusAbsent, got.Status)
}

func TestIngestAttendance_InvalidStatus(t *testing.T) {
	rc, _ := newFixture(t)

	res, err := rc.IngestAttendance(context.Background(), hr.AdminActor("admin"), attendanceTable(
		[]string{"a", "2025-03-01", "X", "Laura", "Norte"},
	))

	require.NoError(t, err)
	assert.Zero(t, res.Created)
	assert.Zero(t, res.Replaced)
	require.Len(t, res.Errors, 1)
	assert.Contains(t, res.Errors[0].Message, `"X"`)
	assert.Contains(t, res.Errors[0].Message, "estado")
}

func TestIngestAttendance_OutOfScopeIsOneWarning(t *testing.T) {
	rc, mem := newFixture(t)

	res, err := rc.IngestAttendance(context.Background(), sup1, attendanceTable(
		[]string{"a", "2025-03-01", "A", "", ""},
		[]string{"c", "2025-03-01", "A", "", ""},
		[]string{"c", "2025-03-02", "A", "", ""},
		[]string{"ghost", "2025-03-02", "A", "", ""},
	))

	require.NoError(t, err)
	assert.Equal(t, 1, res.Created)
	assert.Equal(t, 3, res.OutOfScope)
	assert.Empty(t, res.Errors)
	assert.Equal(t, []string{"3 row(s) skipped: outside your scope"}, res.Warnings)

	recs, _ := mem.QueryAttendance(context.Background(), hr.AttendanceQuery{Scope: hr.NewScope("c")})
	assert.Empty(t, recs)
}

func TestIngestAttendance_AdminUnknownEmployee(t *testing.T) {
	rc, _ := newFixture(t)

	res, err := rc.IngestAttendance(context.Background(), hr.AdminActor("admin"), attendanceTable(
		[]string{"ghost", "2025-03-01", "A", "", ""},
	))

	require.NoError(t, err)
	require.Len(t, res.Errors, 1)
	assert.Contains(t, res.Errors[0].Message, "not found")
}

func TestIngestAttendance_MissingColumnsIsFatal(t *testing.T) {
	rc, _ := newFixture(t)

	_, err := rc.IngestAttendance(context.Background(), sup1, NewTable([]string{"Usuario", "Fecha"}, nil))

	require.Error(t, err)
	assert.ErrorIs(t, err, hr.ErrValidation)
	assert.EqualError(t, err, "missing columns: Estado, SUP, CARTERA")
}

// =============================================================================
// ENTRIES
// =============================================================================

func TestIngestEntries_AlwaysCreates(t *testing.T) {
	rc, mem := newFixture(t)
	ctx := context.Background()
	table := NewTable(
		[]string{"Usuario", "Fecha", "Tipo", "Monto", "Observación"},
		[][]string{
			{"a", "2025-03-01", "Puntualidad", "50", "marzo"},
			{"a", "2025-03-01", "Puntualidad", "50", ""},
			{"a", "2025-03-02", "Meta", "-5", ""},
			{"b", "2025-03-02", "Meta", "abc", ""},
		},
	)

	res, err := rc.IngestEntries(ctx, hr.AdminActor("admin"), hr.KindBonus, table)

	require.NoError(t, err)
	assert.Equal(t, 2, res.Created)
	assert.Zero(t, res.Replaced)
	require.Len(t, res.Errors, 2)
	assert.Equal(t, 4, res.Errors[0].Row)
	assert.Equal(t, 5, res.Errors[1].Row)

	entries, err := mem.QueryEntries(ctx, hr.EntryQuery{Kind: hr.KindBonus, Scope: hr.NewScope("a")})
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.True(t, hr.SumAmounts(entries).Equal(decimal.NewFromInt(100)))
	assert.Equal(t, "marzo", entries[0].Note)
}

func TestIngestEntries_ObservationOptional(t *testing.T) {
	rc, _ := newFixture(t)

	res, err := rc.IngestEntries(context.Background(), sup1, hr.KindDeduction, NewTable(EntryColumns, [][]string{
		{"b", "45717", "Retardo", "12,5"},
	}))

	require.NoError(t, err)
	assert.Equal(t, 1, res.Created)
	assert.Empty(t, res.Errors)
}

func TestIngestEntries_ThousandsCommaIsRowError(t *testing.T) {
	rc, mem := newFixture(t)
	ctx := context.Background()

	res, err := rc.IngestEntries(ctx, hr.AdminActor("admin"), hr.KindBonus, NewTable(EntryColumns, [][]string{
		{"a", "2025-03-01", "Meta", "1,234"},
		{"a", "2025-03-01", "Meta", "1234"},
	}))

	require.NoError(t, err)
	assert.Equal(t, 1, res.Created)
	require.Len(t, res.Errors, 1)
	assert.Equal(t, 2, res.Errors[0].Row)

	entries, err := mem.QueryEntries(ctx, hr.EntryQuery{Kind: hr.KindBonus, Scope: hr.NewScope("a")})
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.True(t, entries[0].Amount.Equal(decimal.NewFromInt(1234)))
}

// =============================================================================
// EMPLOYEES
// =============================================================================

func TestIngestEmployees(t *testing.T) {
	rc, mem := newFixture(t)
	ctx := context.Background()
	table := NewTable(EmployeeColumns, [][]string{
		{"a", "Ana Otra", "999", "", "", ""},              // existing: skipped, untouched
		{"sup3", "Marta", "300", "Supervisora", "si", ""}, // new supervisor
		{"d", "Diego", "120", "Agente", "no", "sup3"},     // references the row above
		{"e", "Eva", "120", "Agente", "", "ghost"},        // dangling supervisor
		{"f", "Fede", "120", "Agente", "", "a"},           // not a supervisor
		{"", "Nadie", "120", "", "", ""},
	})

	res, err := rc.IngestEmployees(ctx, hr.AdminActor("admin"), table)

	require.NoError(t, err)
	assert.Equal(t, 2, res.Created)
	assert.Equal(t, 1, res.Skipped)
	require.Len(t, res.Errors, 3)
	assert.Equal(t, []int{5, 6, 7}, []int{res.Errors[0].Row, res.Errors[1].Row, res.Errors[2].Row})

	a, _ := mem.GetEmployee(ctx, "a")
	assert.Equal(t, "Ana", a.Name)
	d, _ := mem.GetEmployee(ctx, "d")
	require.NotNil(t, d)
	assert.Equal(t, hr.EmployeeID("sup3"), d.SupervisorID)
	sup3, _ := mem.GetEmployee(ctx, "sup3")
	assert.True(t, sup3.IsSupervisor)
}

func TestIngestEmployees_AdminOnly(t *testing.T) {
	rc, _ := newFixture(t)

	_, err := rc.IngestEmployees(context.Background(), sup1, NewTable(EmployeeColumns, nil))

	assert.ErrorIs(t, err, hr.ErrForbidden)
}

// =============================================================================
// PARSERS
// =============================================================================

func TestParseDate(t *testing.T) {
	for _, in := range []string{"2025-03-01", "01/03/2025", "1/3/2025", "2025-03-01 00:00:00", "45717"} {
		d, err := parseDate(in)
		require.NoError(t, err, in)
		assert.Equal(t, "2025-03-01", d.String(), in)
	}

	_, err := parseDate("")
	assert.ErrorIs(t, err, hr.ErrValidation)
}

func TestParseAmount(t *testing.T) {
	for in, want := range map[string]string{
		"50":     "50",
		"12,5":   "12.5",
		"150,50": "150.5",
		"1.234":  "1.234",
		"0":      "0",
	} {
		d, err := parseAmount("monto", in)
		require.NoError(t, err, in)
		assert.True(t, d.Equal(decimal.RequireFromString(want)), in)
	}

	for _, in := range []string{"", "1,234", "1.234,50", "1,234.50", "1,2,3", "-5", "abc"} {
		_, err := parseAmount("monto", in)
		assert.ErrorIs(t, err, hr.ErrValidation, in)
	}
}

func TestParseFlag(t *testing.T) {
	for _, in := range []string{"TRUE", "true", "1", "Si", "yes"} {
		assert.True(t, parseFlag(in), in)
	}
	for _, in := range []string{"", "no", "0", "FALSE"} {
		assert.False(t, parseFlag(in), in)
	}
}
