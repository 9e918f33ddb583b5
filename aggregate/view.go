package aggregate

import (
	"context"

	"github.com/foco/nomina/hr"
)

// Query holds the optional attendance filters. Empty fields do not filter.
type Query struct {
	EmployeeID hr.EmployeeID
	Supervisor string
	Portfolio  string
	Range      hr.Range
}

// Options are the values a filter form can offer the actor.
type Options struct {
	Employees   []hr.EmployeeID `json:"employees"`
	Supervisors []string        `json:"supervisors"`
	Portfolios  []string        `json:"portfolios"`
}

// View is a filtered attendance listing. Matrix is nil unless both range
// bounds are set.
type View struct {
	Records   []hr.AttendanceRecord
	Employees []hr.EmployeeID
	Matrix    *Matrix
	Summary   Summary
	Options   Options
}

// Aggregator answers attendance queries for an actor.
type Aggregator struct {
	store hr.Store
}

func NewAggregator(store hr.Store) *Aggregator {
	return &Aggregator{store: store}
}

// View lists records in the actor's scope, newest first, with their summary
// and, for a closed range, the dense matrix.
//
// The view's employees are every scoped employee after the EmployeeID filter.
// When a supervisor-name or portfolio filter is set they are only those with
// a matching record, since the provenance filters describe records.
func (a *Aggregator) View(ctx context.Context, actor hr.Actor, q Query) (*View, error) {
	if !q.Range.From.IsZero() && !q.Range.To.IsZero() && q.Range.To.Before(q.Range.From) {
		return nil, hr.ErrInvalidPeriod
	}

	dir, err := hr.LoadDirectory(ctx, a.store)
	if err != nil {
		return nil, err
	}

	scope := hr.VisibleEmployees(actor, dir)
	options := Options{Employees: scope.IDs()}
	options.Supervisors, options.Portfolios, err = a.store.AttendanceFacets(ctx)
	if err != nil {
		return nil, err
	}

	scope = scope.Narrow(q.EmployeeID)
	records, err := a.store.QueryAttendance(ctx, hr.AttendanceQuery{
		Scope:      scope,
		Supervisor: q.Supervisor,
		Portfolio:  q.Portfolio,
		Range:      q.Range,
	})
	if err != nil {
		return nil, err
	}

	ids := scope.IDs()
	if q.Supervisor != "" || q.Portfolio != "" {
		ids = employeesOf(records)
	}

	v := &View{
		Records:   records,
		Employees: ids,
		Options:   options,
	}
	if period, ok := q.Range.Period(); ok {
		v.Matrix, v.Summary = Aggregate(ids, period, records)
	} else {
		v.Summary = Summarize(ids, records)
	}
	return v, nil
}

func employeesOf(records []hr.AttendanceRecord) []hr.EmployeeID {
	seen := make(map[hr.EmployeeID]bool)
	var ids []hr.EmployeeID
	for _, r := range records {
		if !seen[r.EmployeeID] {
			seen[r.EmployeeID] = true
			ids = append(ids, r.EmployeeID)
		}
	}
	return sortedIDs(ids)
}
