/*
Package sqlite provides a SQLite-backed implementation of hr.Store.

KEY TABLES:
  employees:      Directory records, supervisor_id references employees(id)
  attendance:     One row per (employee_id, date), UNIQUE enforced
  entries:        Bonuses and deductions, append-only
  payroll_lines:  Derived lines keyed by (employee_id, period_start, period_end)

STORAGE FORMATS:
  Dates are TEXT "YYYY-MM-DD" so lexical order is calendar order.
  Money and day fractions are TEXT decimal strings (never REAL).

CASCADES:
  Opened with _foreign_keys=on. Deleting an employee cascades to attendance,
  entries and payroll lines. A supervisor still referenced by agents cannot
  be deleted; the domain layer reports that before SQL does.

CONCURRENCY:
  The pool is pinned to one connection. This keeps ":memory:" databases
  shared between calls and serialises writers; WithTx binds the callback
  store to the *sql.Tx so nested calls never wait on the pool.

USAGE:
  store, err := sqlite.New("./nomina.db")
  if err != nil {
      log.Fatal(err)
  }
  defer store.Close()

SEE ALSO:
  - hr/store.go: Interface definitions
  - hr/store/memory.go: In-memory implementation for testing
*/
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"
	"github.com/shopspring/decimal"

	"github.com/foco/nomina/hr"
)

type querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// Store implements hr.Store using SQLite.
type Store struct {
	db *sql.DB
	q  querier
	tx *sql.Tx
}

var _ hr.Store = (*Store)(nil)

// New creates a new SQLite store with the given database path.
// Use ":memory:" for an in-memory database.
func New(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_foreign_keys=on&_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	db.SetMaxOpenConns(1)

	store := &Store{db: db, q: db}
	if err := store.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	return store, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// migrate creates the database schema.
func (s *Store) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS employees (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		daily_rate TEXT NOT NULL,
		position TEXT NOT NULL DEFAULT '',
		is_admin BOOLEAN NOT NULL DEFAULT FALSE,
		is_supervisor BOOLEAN NOT NULL DEFAULT FALSE,
		supervisor_id TEXT REFERENCES employees(id),
		created_at TEXT NOT NULL,
		updated_at TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_employees_supervisor
		ON employees(supervisor_id) WHERE supervisor_id IS NOT NULL;

	CREATE TABLE IF NOT EXISTS attendance (
		id TEXT PRIMARY KEY,
		employee_id TEXT NOT NULL REFERENCES employees(id) ON DELETE CASCADE,
		date TEXT NOT NULL,
		status TEXT NOT NULL CHECK (status IN ('A', 'V', 'MG', 'F', 'D')),
		supervisor TEXT NOT NULL DEFAULT '',
		portfolio TEXT NOT NULL DEFAULT '',
		UNIQUE(employee_id, date)
	);

	CREATE INDEX IF NOT EXISTS idx_attendance_date
		ON attendance(date);

	CREATE TABLE IF NOT EXISTS entries (
		id TEXT PRIMARY KEY,
		kind TEXT NOT NULL CHECK (kind IN ('bonus', 'deduction')),
		employee_id TEXT NOT NULL REFERENCES employees(id) ON DELETE CASCADE,
		date TEXT NOT NULL,
		category TEXT NOT NULL DEFAULT '',
		amount TEXT NOT NULL,
		note TEXT NOT NULL DEFAULT '',
		created_at TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_entries_kind_employee_date
		ON entries(kind, employee_id, date);

	CREATE TABLE IF NOT EXISTS payroll_lines (
		employee_id TEXT NOT NULL REFERENCES employees(id) ON DELETE CASCADE,
		period_start TEXT NOT NULL,
		period_end TEXT NOT NULL,
		full_days INTEGER NOT NULL,
		half_days INTEGER NOT NULL,
		paid_days TEXT NOT NULL,
		daily_rate TEXT NOT NULL,
		base_salary TEXT NOT NULL,
		total_bonus TEXT NOT NULL,
		total_deduction TEXT NOT NULL,
		net_amount TEXT NOT NULL,
		PRIMARY KEY (employee_id, period_start, period_end)
	);

	CREATE INDEX IF NOT EXISTS idx_payroll_period
		ON payroll_lines(period_start, period_end);
	`

	_, err := s.db.Exec(schema)
	return err
}

// =============================================================================
// TRANSACTIONAL STORE
// =============================================================================

// WithTx executes fn within a database transaction. Inside a transaction it
// joins the outer one.
func (s *Store) WithTx(ctx context.Context, fn func(hr.Store) error) error {
	if s.tx != nil {
		return fn(s)
	}

	sqlTx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer sqlTx.Rollback()

	if err := fn(&Store{db: s.db, q: sqlTx, tx: sqlTx}); err != nil {
		return err
	}

	return sqlTx.Commit()
}

// =============================================================================
// EMPLOYEE STORE
// =============================================================================

const employeeColumns = `id, name, daily_rate, position, is_admin, is_supervisor, supervisor_id`

// SaveEmployee inserts or replaces an employee.
func (s *Store) SaveEmployee(ctx context.Context, e hr.Employee) error {
	query := `
		INSERT INTO employees (id, name, daily_rate, position, is_admin, is_supervisor, supervisor_id, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			name = excluded.name,
			daily_rate = excluded.daily_rate,
			position = excluded.position,
			is_admin = excluded.is_admin,
			is_supervisor = excluded.is_supervisor,
			supervisor_id = excluded.supervisor_id,
			updated_at = excluded.updated_at
	`

	now := nowString()
	_, err := s.q.ExecContext(ctx, query,
		e.ID, e.Name, e.DailyRate.String(), e.Position,
		e.IsAdmin, e.IsSupervisor, nullString(string(e.SupervisorID)),
		now, now,
	)
	if err != nil {
		return fmt.Errorf("failed to save employee %s: %w", e.ID, err)
	}
	return nil
}

// GetEmployee retrieves an employee by ID.
func (s *Store) GetEmployee(ctx context.Context, id hr.EmployeeID) (*hr.Employee, error) {
	row := s.q.QueryRowContext(ctx, "SELECT "+employeeColumns+" FROM employees WHERE id = ?", id)
	e, err := scanEmployee(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &e, nil
}

// ListEmployees returns all employees ordered by id.
func (s *Store) ListEmployees(ctx context.Context) ([]hr.Employee, error) {
	rows, err := s.q.QueryContext(ctx, "SELECT "+employeeColumns+" FROM employees ORDER BY id")
	if err != nil {
		return nil, fmt.Errorf("failed to list employees: %w", err)
	}
	defer rows.Close()

	var employees []hr.Employee
	for rows.Next() {
		e, err := scanEmployee(rows)
		if err != nil {
			return nil, err
		}
		employees = append(employees, e)
	}
	return employees, rows.Err()
}

// DeleteEmployee removes an employee and, by cascade, everything keyed on it.
func (s *Store) DeleteEmployee(ctx context.Context, id hr.EmployeeID) error {
	res, err := s.q.ExecContext(ctx, "DELETE FROM employees WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("failed to delete employee %s: %w", id, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return hr.EmployeeNotFound(id)
	}
	return nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanEmployee(sc scanner) (hr.Employee, error) {
	var (
		e          hr.Employee
		rate       string
		supervisor sql.NullString
	)
	if err := sc.Scan(&e.ID, &e.Name, &rate, &e.Position, &e.IsAdmin, &e.IsSupervisor, &supervisor); err != nil {
		return e, err
	}
	e.DailyRate = parseDecimal(rate)
	e.SupervisorID = hr.EmployeeID(supervisor.String)
	return e, nil
}

// =============================================================================
// ATTENDANCE STORE
// =============================================================================

const attendanceColumns = `id, employee_id, date, status, supervisor, portfolio`

// SaveAttendance inserts or replaces by (employee_id, date).
func (s *Store) SaveAttendance(ctx context.Context, r hr.AttendanceRecord) (hr.AttendanceRecord, error) {
	if err := r.Validate(); err != nil {
		return hr.AttendanceRecord{}, err
	}
	if err := s.requireEmployee(ctx, r.EmployeeID); err != nil {
		return hr.AttendanceRecord{}, err
	}

	existing, err := s.FindAttendance(ctx, r.EmployeeID, r.Date)
	if err != nil {
		return hr.AttendanceRecord{}, err
	}
	if existing != nil {
		r.ID = existing.ID
		_, err = s.q.ExecContext(ctx,
			"UPDATE attendance SET status = ?, supervisor = ?, portfolio = ? WHERE id = ?",
			r.Status, r.Supervisor, r.Portfolio, r.ID,
		)
		if err != nil {
			return hr.AttendanceRecord{}, fmt.Errorf("failed to update attendance: %w", err)
		}
		return r, nil
	}

	if r.ID == "" {
		r.ID = uuid.NewString()
	}
	_, err = s.q.ExecContext(ctx,
		"INSERT INTO attendance ("+attendanceColumns+") VALUES (?, ?, ?, ?, ?, ?)",
		r.ID, r.EmployeeID, r.Date.String(), r.Status, r.Supervisor, r.Portfolio,
	)
	if err != nil {
		return hr.AttendanceRecord{}, fmt.Errorf("failed to insert attendance: %w", err)
	}
	return r, nil
}

// GetAttendance retrieves one record by id.
func (s *Store) GetAttendance(ctx context.Context, id string) (*hr.AttendanceRecord, error) {
	row := s.q.QueryRowContext(ctx, "SELECT "+attendanceColumns+" FROM attendance WHERE id = ?", id)
	return scanOptionalAttendance(row)
}

// FindAttendance retrieves the record for (employee, date).
func (s *Store) FindAttendance(ctx context.Context, employeeID hr.EmployeeID, date hr.Date) (*hr.AttendanceRecord, error) {
	row := s.q.QueryRowContext(ctx,
		"SELECT "+attendanceColumns+" FROM attendance WHERE employee_id = ? AND date = ?",
		employeeID, date.String(),
	)
	return scanOptionalAttendance(row)
}

func (s *Store) DeleteAttendance(ctx context.Context, id string) error {
	res, err := s.q.ExecContext(ctx, "DELETE FROM attendance WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("failed to delete attendance: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return &hr.NotFoundError{Kind: "attendance", ID: id}
	}
	return nil
}

// QueryAttendance returns matching records, newest date first.
func (s *Store) QueryAttendance(ctx context.Context, q hr.AttendanceQuery) ([]hr.AttendanceRecord, error) {
	if q.Scope.IsEmpty() {
		return nil, nil
	}

	where, args := scopeClause(q.Scope)
	if q.Supervisor != "" {
		where = append(where, "supervisor = ?")
		args = append(args, q.Supervisor)
	}
	if q.Portfolio != "" {
		where = append(where, "portfolio = ?")
		args = append(args, q.Portfolio)
	}
	where, args = rangeClause(where, args, q.Range)

	query := "SELECT " + attendanceColumns + " FROM attendance" +
		whereSQL(where) + " ORDER BY date DESC, employee_id ASC"

	rows, err := s.q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query attendance: %w", err)
	}
	defer rows.Close()

	var records []hr.AttendanceRecord
	for rows.Next() {
		r, err := scanAttendance(rows)
		if err != nil {
			return nil, err
		}
		records = append(records, r)
	}
	return records, rows.Err()
}

// AttendanceFacets returns distinct provenance names.
func (s *Store) AttendanceFacets(ctx context.Context) ([]string, []string, error) {
	sups, err := s.distinct(ctx, "supervisor")
	if err != nil {
		return nil, nil, err
	}
	ports, err := s.distinct(ctx, "portfolio")
	if err != nil {
		return nil, nil, err
	}
	return sups, ports, nil
}

func (s *Store) distinct(ctx context.Context, column string) ([]string, error) {
	rows, err := s.q.QueryContext(ctx,
		fmt.Sprintf("SELECT DISTINCT %[1]s FROM attendance WHERE %[1]s <> '' ORDER BY %[1]s", column))
	if err != nil {
		return nil, fmt.Errorf("failed to list %s values: %w", column, err)
	}
	defer rows.Close()

	var out []string
	for rows.Next() {
		var v string
		if err := rows.Scan(&v); err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, rows.Err()
}

func scanOptionalAttendance(row *sql.Row) (*hr.AttendanceRecord, error) {
	r, err := scanAttendance(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &r, nil
}

func scanAttendance(sc scanner) (hr.AttendanceRecord, error) {
	var (
		r    hr.AttendanceRecord
		date string
	)
	if err := sc.Scan(&r.ID, &r.EmployeeID, &date, &r.Status, &r.Supervisor, &r.Portfolio); err != nil {
		return r, err
	}
	d, err := hr.ParseDate(date)
	if err != nil {
		return r, fmt.Errorf("corrupt attendance date %q: %w", date, err)
	}
	r.Date = d
	return r, nil
}

// =============================================================================
// ENTRY STORE
// =============================================================================

// AppendEntry inserts a bonus or deduction.
func (s *Store) AppendEntry(ctx context.Context, e hr.Entry) (hr.Entry, error) {
	if err := e.Validate(); err != nil {
		return hr.Entry{}, err
	}
	if err := s.requireEmployee(ctx, e.EmployeeID); err != nil {
		return hr.Entry{}, err
	}
	if e.ID == "" {
		e.ID = uuid.NewString()
	}

	_, err := s.q.ExecContext(ctx, `
		INSERT INTO entries (id, kind, employee_id, date, category, amount, note, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		e.ID, e.Kind, e.EmployeeID, e.Date.String(), e.Category, e.Amount.String(), e.Note, nowString(),
	)
	if err != nil {
		return hr.Entry{}, fmt.Errorf("failed to append %s: %w", e.Kind, err)
	}
	return e, nil
}

// QueryEntries returns matching entries, newest date first, insertion order
// within a date.
func (s *Store) QueryEntries(ctx context.Context, q hr.EntryQuery) ([]hr.Entry, error) {
	if q.Scope.IsEmpty() {
		return nil, nil
	}

	where, args := scopeClause(q.Scope)
	where = append(where, "kind = ?")
	args = append(args, q.Kind)
	where, args = rangeClause(where, args, q.Range)

	query := "SELECT id, kind, employee_id, date, category, amount, note FROM entries" +
		whereSQL(where) + " ORDER BY date DESC, rowid ASC"

	rows, err := s.q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query entries: %w", err)
	}
	defer rows.Close()

	var entries []hr.Entry
	for rows.Next() {
		var (
			e            hr.Entry
			date, amount string
		)
		if err := rows.Scan(&e.ID, &e.Kind, &e.EmployeeID, &date, &e.Category, &amount, &e.Note); err != nil {
			return nil, err
		}
		if e.Date, err = hr.ParseDate(date); err != nil {
			return nil, fmt.Errorf("corrupt entry date %q: %w", date, err)
		}
		e.Amount = parseDecimal(amount)
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// =============================================================================
// PAYROLL STORE
// =============================================================================

// ReplacePayroll deletes the exact period's lines and inserts the new ones
// atomically.
func (s *Store) ReplacePayroll(ctx context.Context, period hr.Period, lines []hr.PayrollLine) error {
	return s.WithTx(ctx, func(store hr.Store) error {
		tx := store.(*Store)
		if _, err := tx.q.ExecContext(ctx,
			"DELETE FROM payroll_lines WHERE period_start = ? AND period_end = ?",
			period.Start.String(), period.End.String(),
		); err != nil {
			return fmt.Errorf("failed to clear payroll %s: %w", period, err)
		}

		for _, l := range lines {
			_, err := tx.q.ExecContext(ctx, `
				INSERT INTO payroll_lines
				(employee_id, period_start, period_end, full_days, half_days, paid_days,
				 daily_rate, base_salary, total_bonus, total_deduction, net_amount)
				VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
				l.EmployeeID, period.Start.String(), period.End.String(),
				l.FullDays, l.HalfDays, l.PaidDays.String(),
				l.DailyRate.String(), l.BaseSalary.String(),
				l.TotalBonus.String(), l.TotalDeduction.String(), l.NetAmount.String(),
			)
			if err != nil {
				return fmt.Errorf("failed to insert payroll line for %s: %w", l.EmployeeID, err)
			}
		}
		return nil
	})
}

// ListPayroll returns the lines of the exact period ordered by employee.
func (s *Store) ListPayroll(ctx context.Context, period hr.Period) ([]hr.PayrollLine, error) {
	rows, err := s.q.QueryContext(ctx, `
		SELECT employee_id, full_days, half_days, paid_days, daily_rate,
		       base_salary, total_bonus, total_deduction
		FROM payroll_lines
		WHERE period_start = ? AND period_end = ?
		ORDER BY employee_id`,
		period.Start.String(), period.End.String(),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list payroll: %w", err)
	}
	defer rows.Close()

	var lines []hr.PayrollLine
	for rows.Next() {
		var (
			l                               hr.PayrollLine
			paid, rate, base, bonus, deduct string
		)
		if err := rows.Scan(&l.EmployeeID, &l.FullDays, &l.HalfDays, &paid, &rate, &base, &bonus, &deduct); err != nil {
			return nil, err
		}
		l.Period = period
		l.PaidDays = parseDecimal(paid)
		l.DailyRate = parseDecimal(rate)
		l.BaseSalary = parseDecimal(base)
		l.TotalBonus = parseDecimal(bonus)
		l.TotalDeduction = parseDecimal(deduct)
		// net_amount is stored for reporting; the invariant is recomputed here.
		l.Recompute()
		lines = append(lines, l)
	}
	return lines, rows.Err()
}

// =============================================================================
// HELPERS
// =============================================================================

func (s *Store) requireEmployee(ctx context.Context, id hr.EmployeeID) error {
	var n int
	if err := s.q.QueryRowContext(ctx, "SELECT COUNT(*) FROM employees WHERE id = ?", id).Scan(&n); err != nil {
		return err
	}
	if n == 0 {
		return hr.EmployeeNotFound(id)
	}
	return nil
}

// scopeClause filters by employee. A whole-directory scope adds nothing, which
// also keeps admin queries under SQLite's bound-variable limit.
func scopeClause(scope hr.Scope) ([]string, []any) {
	if scope.All() {
		return nil, nil
	}
	ids := scope.IDs()
	args := make([]any, len(ids))
	for i, id := range ids {
		args[i] = string(id)
	}
	placeholders := strings.TrimSuffix(strings.Repeat("?,", len(ids)), ",")
	return []string{"employee_id IN (" + placeholders + ")"}, args
}

func whereSQL(where []string) string {
	if len(where) == 0 {
		return ""
	}
	return " WHERE " + strings.Join(where, " AND ")
}

func rangeClause(where []string, args []any, r hr.Range) ([]string, []any) {
	if !r.From.IsZero() {
		where = append(where, "date >= ?")
		args = append(args, r.From.String())
	}
	if !r.To.IsZero() {
		where = append(where, "date <= ?")
		args = append(args, r.To.String())
	}
	return where, args
}

func nullString(s string) sql.NullString {
	if s == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: s, Valid: true}
}

func parseDecimal(s string) decimal.Decimal {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero
	}
	return d
}

func nowString() string {
	return time.Now().UTC().Format(time.RFC3339)
}
