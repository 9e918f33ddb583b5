/*
Package aggregate builds attendance views: the dense employee × date status
matrix and the per-employee status counts.

DENSE MATRIX:
  The date axis is every calendar day of the closed period, whether or not a
  record exists. A day without a record is an unmarked Cell, which is not the
  same as any real status.

  Period 2025-03-01..03 with one record (a, 03-02, A):

              03-01   03-02   03-03
      a         ·       A       ·

SUMMARY:
  Counts per status over the records passed in. Every requested employee has
  an entry with all five statuses, zero when absent.

SEE ALSO:
  - hr/scope.go: VisibleEmployees decides which employees a view contains
*/
package aggregate

import (
	"sort"

	"github.com/foco/nomina/hr"
)

// =============================================================================
// MATRIX
// =============================================================================

// Cell is one matrix entry. Marked is false when no record exists.
type Cell struct {
	Status hr.Status `json:"status,omitempty"`
	Marked bool      `json:"marked"`
}

// Matrix is the dense status grid.
type Matrix struct {
	Dates     []hr.Date
	Employees []hr.EmployeeID
	cells     map[hr.EmployeeID]map[hr.Date]hr.Status
}

// Cell returns the entry for (id, date).
func (m *Matrix) Cell(id hr.EmployeeID, date hr.Date) Cell {
	st, ok := m.cells[id][date]
	return Cell{Status: st, Marked: ok}
}

// Row returns one employee's cells aligned with Dates.
func (m *Matrix) Row(id hr.EmployeeID) []Cell {
	row := make([]Cell, len(m.Dates))
	for i, d := range m.Dates {
		row[i] = m.Cell(id, d)
	}
	return row
}

// Marked counts marked cells across the whole matrix.
func (m *Matrix) Marked() int {
	n := 0
	for _, id := range m.Employees {
		for _, d := range m.Dates {
			if _, ok := m.cells[id][d]; ok {
				n++
			}
		}
	}
	return n
}

// =============================================================================
// SUMMARY
// =============================================================================

// Summary maps employee → status → count.
type Summary map[hr.EmployeeID]map[hr.Status]int

// Count is zero for unknown employees.
func (s Summary) Count(id hr.EmployeeID, st hr.Status) int {
	return s[id][st]
}

// =============================================================================
// BUILD
// =============================================================================

// Aggregate builds the matrix and summary for ids over period. Records of
// other employees or outside the period are ignored.
func Aggregate(ids []hr.EmployeeID, period hr.Period, records []hr.AttendanceRecord) (*Matrix, Summary) {
	m := &Matrix{
		Dates:     period.Days(),
		Employees: sortedIDs(ids),
		cells:     make(map[hr.EmployeeID]map[hr.Date]hr.Status, len(ids)),
	}
	wanted := make(map[hr.EmployeeID]bool, len(ids))
	for _, id := range ids {
		wanted[id] = true
		m.cells[id] = make(map[hr.Date]hr.Status)
	}

	inPeriod := make([]hr.AttendanceRecord, 0, len(records))
	for _, r := range records {
		if !wanted[r.EmployeeID] || !period.Contains(r.Date) {
			continue
		}
		m.cells[r.EmployeeID][r.Date] = r.Status
		inPeriod = append(inPeriod, r)
	}

	return m, Summarize(ids, inPeriod)
}

// Summarize counts statuses per employee without building a matrix. Used
// when the date range is open on either side.
func Summarize(ids []hr.EmployeeID, records []hr.AttendanceRecord) Summary {
	s := make(Summary, len(ids))
	for _, id := range ids {
		counts := make(map[hr.Status]int, len(hr.Statuses))
		for _, st := range hr.Statuses {
			counts[st] = 0
		}
		s[id] = counts
	}
	for _, r := range records {
		if counts, ok := s[r.EmployeeID]; ok {
			counts[r.Status]++
		}
	}
	return s
}

func sortedIDs(ids []hr.EmployeeID) []hr.EmployeeID {
	out := append([]hr.EmployeeID(nil), ids...)
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}
