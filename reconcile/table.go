/*
Package reconcile bulk-ingests tabular rows into the store.

PURPOSE:
  Uploads arrive as a Table: a header and string cells, independent of the
  file format that carried them. Each ingestion is a sequential fold over the
  rows that accumulates counts and row errors; all surviving writes are then
  committed in one transaction.

ROW ISOLATION:
  A bad row never stops the batch. Only fatal conditions (missing columns,
  non-admin employee upload, storage failure) return a Go error, and they do
  so before or instead of committing anything.

ROW NUMBERS:
  Row numbers are 1-based positions in the source sheet, so the first data
  row under a single header is row 2.

SEE ALSO:
  - sheet: Decodes xlsx files into a Table
  - hr/store.go: WithTx
*/
package reconcile

import (
	"fmt"
	"strings"

	"github.com/foco/nomina/hr"
)

// =============================================================================
// COLUMN SCHEMAS
// =============================================================================

const (
	ColUser        = "Usuario"
	ColName        = "Nombre"
	ColDailyRate   = "Salario diario"
	ColPosition    = "Puesto"
	ColIsSuper     = "EsSupervisor"
	ColSupervisor  = "SupervisorID"
	ColDate        = "Fecha"
	ColStatus      = "Estado"
	ColSupName     = "SUP"
	ColPortfolio   = "CARTERA"
	ColCategory    = "Tipo"
	ColAmount      = "Monto"
	ColObservation = "Observación"
)

var (
	EmployeeColumns   = []string{ColUser, ColName, ColDailyRate, ColPosition, ColIsSuper, ColSupervisor}
	AttendanceColumns = []string{ColUser, ColDate, ColStatus, ColSupName, ColPortfolio}

	// EntryColumns are required for bonuses and deductions. ColObservation
	// is read when present.
	EntryColumns = []string{ColUser, ColDate, ColCategory, ColAmount}
)

// =============================================================================
// TABLE
// =============================================================================

// Table is a decoded upload.
type Table struct {
	Columns []string
	Rows    [][]string

	// HeaderRows is the number of sheet rows above the first data row.
	HeaderRows int

	index map[string]int
}

// NewTable builds a table with a single header row.
func NewTable(columns []string, rows [][]string) *Table {
	return &Table{Columns: columns, Rows: rows, HeaderRows: 1}
}

func (t *Table) Len() int { return len(t.Rows) }

func (t *Table) column(name string) int {
	if t.index == nil {
		t.index = make(map[string]int, len(t.Columns))
		for i, c := range t.Columns {
			c = strings.TrimSpace(c)
			if _, dup := t.index[c]; !dup {
				t.index[c] = i
			}
		}
	}
	i, ok := t.index[name]
	if !ok {
		return -1
	}
	return i
}

// RequireColumns reports every missing column at once.
func (t *Table) RequireColumns(names ...string) error {
	var missing []string
	for _, n := range names {
		if t.column(n) < 0 {
			missing = append(missing, n)
		}
	}
	if len(missing) > 0 {
		return &SchemaError{Missing: missing}
	}
	return nil
}

// Row returns the i-th data row.
func (t *Table) Row(i int) Row {
	return Row{table: t, cells: t.Rows[i], Number: i + t.HeaderRows + 1}
}

// Row is one data row with its sheet row number.
type Row struct {
	Number int
	table  *Table
	cells  []string
}

// Get returns the trimmed cell under the named column. Short rows read as blank.
func (r Row) Get(name string) string {
	i := r.table.column(name)
	if i < 0 || i >= len(r.cells) {
		return ""
	}
	return strings.TrimSpace(r.cells[i])
}

// Blank is true when every cell is empty. Trailing blank rows are common in
// spreadsheets and are ignored.
func (r Row) Blank() bool {
	for _, c := range r.cells {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}

// SchemaError is fatal: the upload does not carry the columns its kind needs.
type SchemaError struct {
	Missing []string
}

func (e *SchemaError) Error() string {
	return fmt.Sprintf("missing columns: %s", strings.Join(e.Missing, ", "))
}

func (e *SchemaError) Unwrap() error { return hr.ErrValidation }
