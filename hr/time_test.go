package hr_test

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/foco/nomina/hr"
)

func TestPeriodDays_Inclusive(t *testing.T) {
	p, err := hr.NewPeriod(hr.NewDate(2025, time.February, 27), hr.NewDate(2025, time.March, 2))
	require.NoError(t, err)

	days := p.Days()

	require.Len(t, days, 4)
	assert.Equal(t, "2025-02-27", days[0].String())
	assert.Equal(t, "2025-03-02", days[3].String())
	assert.True(t, p.Contains(hr.NewDate(2025, time.March, 2)))
	assert.False(t, p.Contains(hr.NewDate(2025, time.March, 3)))
}

func TestNewPeriod_EndBeforeStart(t *testing.T) {
	_, err := hr.NewPeriod(hr.NewDate(2025, time.March, 2), hr.NewDate(2025, time.March, 1))
	assert.ErrorIs(t, err, hr.ErrInvalidPeriod)

	_, err = hr.ParsePeriod("2025-03-01", "nope")
	assert.ErrorIs(t, err, hr.ErrValidation)
}

func TestRange_OpenBounds(t *testing.T) {
	d := hr.NewDate(2025, time.March, 10)

	assert.True(t, hr.Range{}.Contains(d))
	assert.True(t, hr.Range{From: d}.Contains(d))
	assert.False(t, hr.Range{To: d.AddDays(-1)}.Contains(d))

	_, ok := hr.Range{From: d}.Period()
	assert.False(t, ok)
	p, ok := hr.Range{From: d, To: d.AddDays(2)}.Period()
	assert.True(t, ok)
	assert.Len(t, p.Days(), 3)
}

func TestDate_JSON(t *testing.T) {
	d := hr.NewDate(2025, time.March, 10)

	b, err := json.Marshal(map[hr.Date]int{d: 1})
	require.NoError(t, err)
	assert.JSONEq(t, `{"2025-03-10":1}`, string(b))

	var back hr.Date
	require.NoError(t, json.Unmarshal([]byte(`"2025-03-10"`), &back))
	assert.True(t, back.Equal(d))
}

func TestParseStatus(t *testing.T) {
	for _, in := range []string{"a", " V ", "mg", "F", "d"} {
		_, err := hr.ParseStatus(in)
		assert.NoError(t, err, in)
	}
	_, err := hr.ParseStatus("X")
	assert.ErrorIs(t, err, hr.ErrValidation)
}

func TestStatusWeight(t *testing.T) {
	for st, want := range map[hr.Status]string{
		hr.StatusPresent:  "1",
		hr.StatusVacation: "1",
		hr.StatusHalfDay:  "0.5",
		hr.StatusAbsent:   "0",
		hr.StatusRestDay:  "0",
	} {
		assert.Equal(t, want, st.Weight().String(), string(st))
	}
}

func TestNewPayrollLine_NetInvariant(t *testing.T) {
	e := emp("e")
	p, _ := hr.ParsePeriod("2025-03-01", "2025-03-04")

	line := hr.NewPayrollLine(e, p, 2, 1, decimal.NewFromInt(50), decimal.NewFromInt(20))

	assert.True(t, line.PaidDays.Equal(decimal.RequireFromString("2.5")))
	assert.True(t, line.BaseSalary.Equal(decimal.NewFromInt(250)))
	assert.True(t, line.NetAmount.Equal(decimal.NewFromInt(280)))
}

func TestNewPayrollLine_NegativeNetAllowed(t *testing.T) {
	p, _ := hr.ParsePeriod("2025-03-01", "2025-03-04")

	line := hr.NewPayrollLine(emp("e"), p, 0, 0, decimal.Zero, decimal.NewFromInt(30))

	assert.True(t, line.NetAmount.Equal(decimal.NewFromInt(-30)))
}
