/*
store.go - Persistence interfaces

PURPOSE:
  Defines the boundary between the domain logic and storage. All reads go
  through a Scope so visibility filtering cannot be skipped by accident.

KEY INTERFACES:
  EmployeeStore:   Directory records
  AttendanceStore: Attendance upsert keyed by (employee, date), range queries
  EntryStore:      Append-only bonuses and deductions
  PayrollStore:    Period-keyed payroll lines, replaced wholesale
  Store:           All of the above plus WithTx

NOT-FOUND CONVENTION:
  Point lookups return (nil, nil) when nothing matches. Deletes of a
  missing id return a *NotFoundError.

IMPLEMENTATIONS:
  - store/sqlite: SQLite
  - hr/store: In-memory for tests and development

SEE ALSO:
  - reconcile: Bulk writes through WithTx
  - payroll: ReplacePayroll for regeneration
*/
package hr

import "context"

// =============================================================================
// STORE INTERFACES
// =============================================================================

type EmployeeStore interface {
	// SaveEmployee inserts or replaces by id.
	SaveEmployee(ctx context.Context, e Employee) error

	GetEmployee(ctx context.Context, id EmployeeID) (*Employee, error)

	// ListEmployees returns every employee ordered by id.
	ListEmployees(ctx context.Context) ([]Employee, error)

	// DeleteEmployee removes the employee with its attendance, entries and
	// payroll lines.
	DeleteEmployee(ctx context.Context, id EmployeeID) error
}

type AttendanceStore interface {
	// SaveAttendance inserts or replaces by (EmployeeID, Date). An empty ID
	// is assigned on insert. Replacing keeps the stored ID.
	SaveAttendance(ctx context.Context, r AttendanceRecord) (AttendanceRecord, error)

	GetAttendance(ctx context.Context, id string) (*AttendanceRecord, error)

	FindAttendance(ctx context.Context, employeeID EmployeeID, date Date) (*AttendanceRecord, error)

	DeleteAttendance(ctx context.Context, id string) error

	// QueryAttendance returns matches ordered by date descending, then
	// employee id ascending.
	QueryAttendance(ctx context.Context, q AttendanceQuery) ([]AttendanceRecord, error)

	// AttendanceFacets returns distinct non-empty supervisor and portfolio
	// names across all records, sorted.
	AttendanceFacets(ctx context.Context) (supervisors, portfolios []string, err error)
}

type EntryStore interface {
	// AppendEntry inserts; an empty ID is assigned.
	AppendEntry(ctx context.Context, e Entry) (Entry, error)

	// QueryEntries returns matches ordered by date descending.
	QueryEntries(ctx context.Context, q EntryQuery) ([]Entry, error)
}

type PayrollStore interface {
	// ReplacePayroll deletes every line of the exact period and stores lines.
	ReplacePayroll(ctx context.Context, period Period, lines []PayrollLine) error

	// ListPayroll returns the lines of the exact period ordered by employee id.
	ListPayroll(ctx context.Context, period Period) ([]PayrollLine, error)
}

// Store is the full persistence surface.
type Store interface {
	EmployeeStore
	AttendanceStore
	EntryStore
	PayrollStore

	// WithTx executes fn within a transaction.
	// If fn returns error, every write made through the callback store is
	// rolled back.
	WithTx(ctx context.Context, fn func(Store) error) error
}

// LoadDirectory builds a Directory from the store.
func LoadDirectory(ctx context.Context, s EmployeeStore) (*Directory, error) {
	employees, err := s.ListEmployees(ctx)
	if err != nil {
		return nil, err
	}
	return NewDirectory(employees), nil
}
