package reconcile

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/foco/nomina/hr"
)

// =============================================================================
// RESULT
// =============================================================================

// RowError is an error isolated to one sheet row.
type RowError struct {
	Row     int    `json:"row"`
	Message string `json:"message"`
}

func (e RowError) String() string {
	return fmt.Sprintf("row %d: %s", e.Row, e.Message)
}

// Result is the outcome of one batch.
type Result struct {
	Kind       string     `json:"kind"`
	Created    int        `json:"created"`
	Replaced   int        `json:"replaced"`
	Skipped    int        `json:"skipped"`
	OutOfScope int        `json:"out_of_scope"`
	Errors     []RowError `json:"errors"`
	Warnings   []string   `json:"warnings"`

	// Details lists attendance replacements as "row N: emp date OLD→NEW".
	Details []string `json:"details"`
}

func (r *Result) fail(row int, err error) {
	r.Errors = append(r.Errors, RowError{Row: row, Message: err.Error()})
}

func (r *Result) warnOutOfScope() {
	if r.OutOfScope > 0 {
		r.Warnings = append(r.Warnings, fmt.Sprintf("%d row(s) skipped: outside your scope", r.OutOfScope))
	}
}

// =============================================================================
// RECONCILER
// =============================================================================

// Reconciler ingests uploads for an actor.
type Reconciler struct {
	store  hr.Store
	logger *slog.Logger
}

func New(store hr.Store, logger *slog.Logger) *Reconciler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Reconciler{store: store, logger: logger}
}

// IngestAttendance upserts attendance rows by (Usuario, Fecha).
//
// Non-admin actors only write rows for employees in their scope; other rows
// are counted in OutOfScope and reported as a single warning.
func (rc *Reconciler) IngestAttendance(ctx context.Context, actor hr.Actor, t *Table) (*Result, error) {
	if err := t.RequireColumns(AttendanceColumns...); err != nil {
		return nil, err
	}

	res := &Result{Kind: "asistencia"}
	err := rc.store.WithTx(ctx, func(tx hr.Store) error {
		dir, err := hr.LoadDirectory(ctx, tx)
		if err != nil {
			return err
		}

		pending, err := foldAttendance(t, actor, dir, func(k hr.AttendanceKey) (*hr.AttendanceRecord, error) {
			return tx.FindAttendance(ctx, k.EmployeeID, k.Date)
		}, res)
		if err != nil {
			return err
		}

		for _, rec := range pending {
			if _, err := tx.SaveAttendance(ctx, rec); err != nil {
				return fmt.Errorf("save attendance %s %s: %w", rec.EmployeeID, rec.Date, err)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	rc.logBatch(ctx, actor, res)
	return res, nil
}

// IngestEntries appends bonus or deduction rows. There is no natural key, so
// every valid row is created.
func (rc *Reconciler) IngestEntries(ctx context.Context, actor hr.Actor, kind hr.EntryKind, t *Table) (*Result, error) {
	if !kind.Valid() {
		return nil, fmt.Errorf("%w: unknown entry kind %q", hr.ErrValidation, kind)
	}
	if err := t.RequireColumns(EntryColumns...); err != nil {
		return nil, err
	}

	res := &Result{Kind: entryKindLabel(kind)}
	err := rc.store.WithTx(ctx, func(tx hr.Store) error {
		dir, err := hr.LoadDirectory(ctx, tx)
		if err != nil {
			return err
		}

		for _, e := range foldEntries(t, actor, kind, dir, res) {
			if _, err := tx.AppendEntry(ctx, e); err != nil {
				return fmt.Errorf("append %s for %s: %w", kind, e.EmployeeID, err)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	rc.logBatch(ctx, actor, res)
	return res, nil
}

// IngestEmployees inserts new employees. Existing ids are skipped and never
// overwritten. Admin only.
func (rc *Reconciler) IngestEmployees(ctx context.Context, actor hr.Actor, t *Table) (*Result, error) {
	if err := actor.RequireAdmin(); err != nil {
		return nil, err
	}
	if err := t.RequireColumns(EmployeeColumns...); err != nil {
		return nil, err
	}

	res := &Result{Kind: "employees"}
	err := rc.store.WithTx(ctx, func(tx hr.Store) error {
		dir, err := hr.LoadDirectory(ctx, tx)
		if err != nil {
			return err
		}

		// Rows are saved in sheet order so a supervisor created by an
		// earlier row exists before its agents reference it.
		for _, e := range foldEmployees(t, dir, res) {
			if err := tx.SaveEmployee(ctx, e); err != nil {
				return fmt.Errorf("save employee %s: %w", e.ID, err)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	rc.logBatch(ctx, actor, res)
	return res, nil
}

func (rc *Reconciler) logBatch(ctx context.Context, actor hr.Actor, res *Result) {
	rc.logger.InfoContext(ctx, "batch ingested",
		slog.String("kind", res.Kind),
		slog.String("actor", string(actor.ID)),
		slog.Int("created", res.Created),
		slog.Int("replaced", res.Replaced),
		slog.Int("skipped", res.Skipped),
		slog.Int("out_of_scope", res.OutOfScope),
		slog.Int("errors", len(res.Errors)),
	)
}

func entryKindLabel(kind hr.EntryKind) string {
	if kind == hr.KindBonus {
		return "bonos"
	}
	return "deducciones"
}

// =============================================================================
// FOLDS - Pure over the table, the directory and a lookup
// =============================================================================

// attendanceLookup finds the stored record for a key, or nil.
type attendanceLookup func(hr.AttendanceKey) (*hr.AttendanceRecord, error)

// foldAttendance returns the records to save in first-seen key order. A key
// repeated within the batch replaces the earlier row's value.
func foldAttendance(t *Table, actor hr.Actor, dir *hr.Directory, lookup attendanceLookup, res *Result) ([]hr.AttendanceRecord, error) {
	scope := hr.VisibleEmployees(actor, dir)

	var order []hr.AttendanceKey
	pending := make(map[hr.AttendanceKey]hr.AttendanceRecord)

	for i := range t.Rows {
		row := t.Row(i)
		if row.Blank() {
			continue
		}

		id := hr.ParseEmployeeID(row.Get(ColUser))
		if !actor.IsAdmin() && !scope.Contains(id) {
			res.OutOfScope++
			continue
		}

		rec, err := parseAttendanceRow(row, id)
		if err != nil {
			res.fail(row.Number, err)
			continue
		}
		if !dir.Has(id) {
			res.fail(row.Number, hr.EmployeeNotFound(id))
			continue
		}

		key := rec.Key()
		prev, seen := pending[key]
		if !seen {
			stored, err := lookup(key)
			if err != nil {
				return nil, err
			}
			if stored != nil {
				prev, seen = *stored, true
			}
		}

		if seen {
			rec.ID = prev.ID
			res.Replaced++
			res.Details = append(res.Details, fmt.Sprintf("row %d: %s %s %s→%s", row.Number, id, rec.Date, prev.Status, rec.Status))
		} else {
			res.Created++
		}

		if _, queued := pending[key]; !queued {
			order = append(order, key)
		}
		pending[key] = rec
	}
	res.warnOutOfScope()

	out := make([]hr.AttendanceRecord, 0, len(order))
	for _, k := range order {
		out = append(out, pending[k])
	}
	return out, nil
}

func parseAttendanceRow(row Row, id hr.EmployeeID) (hr.AttendanceRecord, error) {
	if id == "" {
		return hr.AttendanceRecord{}, &hr.ValidationError{Field: "usuario", Message: "is required"}
	}
	date, err := parseDate(row.Get(ColDate))
	if err != nil {
		return hr.AttendanceRecord{}, err
	}
	status, err := hr.ParseStatus(row.Get(ColStatus))
	if err != nil {
		return hr.AttendanceRecord{}, err
	}
	return hr.AttendanceRecord{
		EmployeeID: id,
		Date:       date,
		Status:     status,
		Supervisor: row.Get(ColSupName),
		Portfolio:  row.Get(ColPortfolio),
	}, nil
}

func foldEntries(t *Table, actor hr.Actor, kind hr.EntryKind, dir *hr.Directory, res *Result) []hr.Entry {
	scope := hr.VisibleEmployees(actor, dir)

	var out []hr.Entry
	for i := range t.Rows {
		row := t.Row(i)
		if row.Blank() {
			continue
		}

		id := hr.ParseEmployeeID(row.Get(ColUser))
		if !actor.IsAdmin() && !scope.Contains(id) {
			res.OutOfScope++
			continue
		}

		e, err := parseEntryRow(row, kind, id)
		if err != nil {
			res.fail(row.Number, err)
			continue
		}
		if !dir.Has(id) {
			res.fail(row.Number, hr.EmployeeNotFound(id))
			continue
		}

		out = append(out, e)
		res.Created++
	}
	res.warnOutOfScope()
	return out
}

func parseEntryRow(row Row, kind hr.EntryKind, id hr.EmployeeID) (hr.Entry, error) {
	if id == "" {
		return hr.Entry{}, &hr.ValidationError{Field: "usuario", Message: "is required"}
	}
	date, err := parseDate(row.Get(ColDate))
	if err != nil {
		return hr.Entry{}, err
	}
	amount, err := parseAmount("monto", row.Get(ColAmount))
	if err != nil {
		return hr.Entry{}, err
	}
	return hr.Entry{
		Kind:       kind,
		EmployeeID: id,
		Date:       date,
		Category:   row.Get(ColCategory),
		Amount:     amount,
		Note:       row.Get(ColObservation),
	}, nil
}

// foldEmployees validates rows against the directory, adding each accepted
// employee to it so later rows can reference earlier ones.
func foldEmployees(t *Table, dir *hr.Directory, res *Result) []hr.Employee {
	var out []hr.Employee
	for i := range t.Rows {
		row := t.Row(i)
		if row.Blank() {
			continue
		}

		id := hr.ParseEmployeeID(row.Get(ColUser))
		if id == "" {
			res.fail(row.Number, &hr.ValidationError{Field: "usuario", Message: "is required"})
			continue
		}
		if dir.Has(id) {
			res.Skipped++
			continue
		}

		e, err := parseEmployeeRow(row, id)
		if err != nil {
			res.fail(row.Number, err)
			continue
		}
		if err := dir.CheckInsert(e); err != nil {
			res.fail(row.Number, err)
			continue
		}

		dir.Put(e)
		out = append(out, e)
		res.Created++
	}
	if res.Skipped > 0 {
		res.Warnings = append(res.Warnings, fmt.Sprintf("%d employee(s) already existed and were skipped", res.Skipped))
	}
	return out
}

func parseEmployeeRow(row Row, id hr.EmployeeID) (hr.Employee, error) {
	rate, err := parseAmount("salario diario", row.Get(ColDailyRate))
	if err != nil {
		return hr.Employee{}, err
	}
	return hr.Employee{
		ID:           id,
		Name:         row.Get(ColName),
		DailyRate:    rate,
		Position:     row.Get(ColPosition),
		IsSupervisor: parseFlag(row.Get(ColIsSuper)),
		SupervisorID: hr.ParseEmployeeID(row.Get(ColSupervisor)),
	}, nil
}
