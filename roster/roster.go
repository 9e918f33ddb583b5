/*
Package roster implements single-record operations: employee maintenance,
scoped employee reads, direct attendance edits and ledger listings.

SCOPE RULES:
  Reads are filtered by hr.VisibleEmployees. Direct writes against a record
  outside the actor's scope fail with a ScopeViolationError; nothing is
  silently ignored. Employee create, edit and delete are admin only.
*/
package roster

import (
	"context"
	"log/slog"

	"github.com/foco/nomina/hr"
)

type Service struct {
	store  hr.Store
	logger *slog.Logger
}

func New(store hr.Store, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{store: store, logger: logger}
}

// =============================================================================
// EMPLOYEES
// =============================================================================

// ListEmployees returns the actor's visible employees ordered by id.
func (s *Service) ListEmployees(ctx context.Context, actor hr.Actor) ([]hr.Employee, error) {
	dir, err := hr.LoadDirectory(ctx, s.store)
	if err != nil {
		return nil, err
	}

	scope := hr.VisibleEmployees(actor, dir)
	out := make([]hr.Employee, 0, scope.Len())
	for _, id := range scope.IDs() {
		if e, ok := dir.Get(id); ok {
			out = append(out, e)
		}
	}
	return out, nil
}

func (s *Service) GetEmployee(ctx context.Context, actor hr.Actor, id hr.EmployeeID) (hr.Employee, error) {
	dir, err := hr.LoadDirectory(ctx, s.store)
	if err != nil {
		return hr.Employee{}, err
	}

	e, ok := dir.Get(id)
	if !ok {
		return hr.Employee{}, hr.EmployeeNotFound(id)
	}
	if err := hr.Authorize(actor, dir, id); err != nil {
		return hr.Employee{}, err
	}
	return e, nil
}

// CreateEmployee rejects an existing id and any broken supervisor link.
func (s *Service) CreateEmployee(ctx context.Context, actor hr.Actor, e hr.Employee) (hr.Employee, error) {
	if err := actor.RequireAdmin(); err != nil {
		return hr.Employee{}, err
	}

	err := s.store.WithTx(ctx, func(tx hr.Store) error {
		dir, err := hr.LoadDirectory(ctx, tx)
		if err != nil {
			return err
		}
		if err := dir.CheckInsert(e); err != nil {
			return err
		}
		return tx.SaveEmployee(ctx, e)
	})
	if err != nil {
		return hr.Employee{}, err
	}

	s.logger.InfoContext(ctx, "employee created", slog.String("id", string(e.ID)), slog.String("actor", string(actor.ID)))
	return e, nil
}

// UpdateEmployee replaces name, rate, position, supervisor flag and
// supervisor link. The admin flag is kept from the stored record.
func (s *Service) UpdateEmployee(ctx context.Context, actor hr.Actor, e hr.Employee) (hr.Employee, error) {
	if err := actor.RequireAdmin(); err != nil {
		return hr.Employee{}, err
	}

	err := s.store.WithTx(ctx, func(tx hr.Store) error {
		dir, err := hr.LoadDirectory(ctx, tx)
		if err != nil {
			return err
		}
		if current, ok := dir.Get(e.ID); ok {
			e.IsAdmin = current.IsAdmin
		}
		if err := dir.CheckReplace(e); err != nil {
			return err
		}
		return tx.SaveEmployee(ctx, e)
	})
	if err != nil {
		return hr.Employee{}, err
	}

	s.logger.InfoContext(ctx, "employee updated", slog.String("id", string(e.ID)), slog.String("actor", string(actor.ID)))
	return e, nil
}

// DeleteEmployee removes the employee with their attendance, entries and
// payroll lines. A supervisor with agents cannot be deleted.
func (s *Service) DeleteEmployee(ctx context.Context, actor hr.Actor, id hr.EmployeeID) error {
	if err := actor.RequireAdmin(); err != nil {
		return err
	}

	err := s.store.WithTx(ctx, func(tx hr.Store) error {
		dir, err := hr.LoadDirectory(ctx, tx)
		if err != nil {
			return err
		}
		if err := dir.CheckRemove(id); err != nil {
			return err
		}
		return tx.DeleteEmployee(ctx, id)
	})
	if err != nil {
		return err
	}

	s.logger.InfoContext(ctx, "employee deleted", slog.String("id", string(id)), slog.String("actor", string(actor.ID)))
	return nil
}

// =============================================================================
// ATTENDANCE
// =============================================================================

// AttendanceEdit replaces the mutable fields of a record.
type AttendanceEdit struct {
	Status     string
	Supervisor string
	Portfolio  string
}

// EditAttendance re-validates the status code before writing.
func (s *Service) EditAttendance(ctx context.Context, actor hr.Actor, id string, edit AttendanceEdit) (hr.AttendanceRecord, error) {
	status, err := hr.ParseStatus(edit.Status)
	if err != nil {
		return hr.AttendanceRecord{}, err
	}

	var saved hr.AttendanceRecord
	err = s.store.WithTx(ctx, func(tx hr.Store) error {
		rec, err := authorizedRecord(ctx, tx, actor, id)
		if err != nil {
			return err
		}

		rec.Status = status
		rec.Supervisor = edit.Supervisor
		rec.Portfolio = edit.Portfolio
		saved, err = tx.SaveAttendance(ctx, rec)
		return err
	})
	if err != nil {
		return hr.AttendanceRecord{}, err
	}
	return saved, nil
}

func (s *Service) DeleteAttendance(ctx context.Context, actor hr.Actor, id string) error {
	return s.store.WithTx(ctx, func(tx hr.Store) error {
		if _, err := authorizedRecord(ctx, tx, actor, id); err != nil {
			return err
		}
		return tx.DeleteAttendance(ctx, id)
	})
}

func authorizedRecord(ctx context.Context, tx hr.Store, actor hr.Actor, id string) (hr.AttendanceRecord, error) {
	rec, err := tx.GetAttendance(ctx, id)
	if err != nil {
		return hr.AttendanceRecord{}, err
	}
	if rec == nil {
		return hr.AttendanceRecord{}, &hr.NotFoundError{Kind: "attendance", ID: id}
	}

	dir, err := hr.LoadDirectory(ctx, tx)
	if err != nil {
		return hr.AttendanceRecord{}, err
	}
	if err := hr.Authorize(actor, dir, rec.EmployeeID); err != nil {
		return hr.AttendanceRecord{}, err
	}
	return *rec, nil
}

// =============================================================================
// LEDGER
// =============================================================================

// EntryFilter narrows a bonus or deduction listing.
type EntryFilter struct {
	EmployeeID hr.EmployeeID
	Range      hr.Range
}

// ListEntries returns the actor's visible entries of one kind, newest first.
func (s *Service) ListEntries(ctx context.Context, actor hr.Actor, kind hr.EntryKind, f EntryFilter) ([]hr.Entry, error) {
	dir, err := hr.LoadDirectory(ctx, s.store)
	if err != nil {
		return nil, err
	}

	scope := hr.VisibleEmployees(actor, dir).Narrow(f.EmployeeID)
	return s.store.QueryEntries(ctx, hr.EntryQuery{Kind: kind, Scope: scope, Range: f.Range})
}
