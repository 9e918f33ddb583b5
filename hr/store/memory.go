// Package store provides Store implementations.
package store

import (
	"context"
	"sort"
	"sync"

	"github.com/google/uuid"

	"github.com/foco/nomina/hr"
)

// =============================================================================
// MEMORY STORE - In-memory implementation (for testing/dev)
// =============================================================================

type Memory struct {
	mu         sync.RWMutex
	employees  map[hr.EmployeeID]hr.Employee
	attendance map[string]hr.AttendanceRecord
	byKey      map[hr.AttendanceKey]string
	entries    []hr.Entry
	payroll    map[hr.Period][]hr.PayrollLine
}

var _ hr.Store = (*Memory)(nil)

func NewMemory() *Memory {
	return &Memory{
		employees:  make(map[hr.EmployeeID]hr.Employee),
		attendance: make(map[string]hr.AttendanceRecord),
		byKey:      make(map[hr.AttendanceKey]string),
		payroll:    make(map[hr.Period][]hr.PayrollLine),
	}
}

// =============================================================================
// EMPLOYEES
// =============================================================================

func (m *Memory) SaveEmployee(_ context.Context, e hr.Employee) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.employees[e.ID] = e
	return nil
}

func (m *Memory) GetEmployee(_ context.Context, id hr.EmployeeID) (*hr.Employee, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.getEmployeeLocked(id), nil
}

func (m *Memory) getEmployeeLocked(id hr.EmployeeID) *hr.Employee {
	e, ok := m.employees[id]
	if !ok {
		return nil
	}
	return &e
}

func (m *Memory) ListEmployees(_ context.Context) ([]hr.Employee, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.listEmployeesLocked(), nil
}

func (m *Memory) listEmployeesLocked() []hr.Employee {
	out := make([]hr.Employee, 0, len(m.employees))
	for _, e := range m.employees {
		out = append(out, e)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func (m *Memory) DeleteEmployee(_ context.Context, id hr.EmployeeID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.deleteEmployeeLocked(id)
}

func (m *Memory) deleteEmployeeLocked(id hr.EmployeeID) error {
	if _, ok := m.employees[id]; !ok {
		return hr.EmployeeNotFound(id)
	}
	delete(m.employees, id)

	for recID, r := range m.attendance {
		if r.EmployeeID == id {
			delete(m.attendance, recID)
			delete(m.byKey, r.Key())
		}
	}
	kept := m.entries[:0]
	for _, e := range m.entries {
		if e.EmployeeID != id {
			kept = append(kept, e)
		}
	}
	m.entries = kept
	for p, lines := range m.payroll {
		var rest []hr.PayrollLine
		for _, l := range lines {
			if l.EmployeeID != id {
				rest = append(rest, l)
			}
		}
		m.payroll[p] = rest
	}
	return nil
}

// =============================================================================
// ATTENDANCE
// =============================================================================

func (m *Memory) SaveAttendance(_ context.Context, r hr.AttendanceRecord) (hr.AttendanceRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.saveAttendanceLocked(r)
}

func (m *Memory) saveAttendanceLocked(r hr.AttendanceRecord) (hr.AttendanceRecord, error) {
	if err := r.Validate(); err != nil {
		return hr.AttendanceRecord{}, err
	}
	if _, ok := m.employees[r.EmployeeID]; !ok {
		return hr.AttendanceRecord{}, hr.EmployeeNotFound(r.EmployeeID)
	}
	if existing, ok := m.byKey[r.Key()]; ok {
		r.ID = existing
	} else if r.ID == "" {
		r.ID = uuid.NewString()
	} else if old, ok := m.attendance[r.ID]; ok {
		// Same record moved to another (employee, date).
		delete(m.byKey, old.Key())
	}
	m.attendance[r.ID] = r
	m.byKey[r.Key()] = r.ID
	return r, nil
}

func (m *Memory) GetAttendance(_ context.Context, id string) (*hr.AttendanceRecord, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	r, ok := m.attendance[id]
	if !ok {
		return nil, nil
	}
	return &r, nil
}

func (m *Memory) FindAttendance(_ context.Context, employeeID hr.EmployeeID, date hr.Date) (*hr.AttendanceRecord, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.findAttendanceLocked(employeeID, date), nil
}

func (m *Memory) findAttendanceLocked(employeeID hr.EmployeeID, date hr.Date) *hr.AttendanceRecord {
	id, ok := m.byKey[hr.AttendanceKey{EmployeeID: employeeID, Date: date}]
	if !ok {
		return nil
	}
	r := m.attendance[id]
	return &r
}

func (m *Memory) DeleteAttendance(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.deleteAttendanceLocked(id)
}

func (m *Memory) deleteAttendanceLocked(id string) error {
	r, ok := m.attendance[id]
	if !ok {
		return &hr.NotFoundError{Kind: "attendance", ID: id}
	}
	delete(m.attendance, id)
	delete(m.byKey, r.Key())
	return nil
}

func (m *Memory) QueryAttendance(_ context.Context, q hr.AttendanceQuery) ([]hr.AttendanceRecord, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.queryAttendanceLocked(q), nil
}

func (m *Memory) queryAttendanceLocked(q hr.AttendanceQuery) []hr.AttendanceRecord {
	var out []hr.AttendanceRecord
	for _, r := range m.attendance {
		if q.Matches(r) {
			out = append(out, r)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].Date.Equal(out[j].Date) {
			return out[i].Date.After(out[j].Date)
		}
		return out[i].EmployeeID < out[j].EmployeeID
	})
	return out
}

func (m *Memory) AttendanceFacets(_ context.Context) ([]string, []string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	sups, ports := map[string]struct{}{}, map[string]struct{}{}
	for _, r := range m.attendance {
		if r.Supervisor != "" {
			sups[r.Supervisor] = struct{}{}
		}
		if r.Portfolio != "" {
			ports[r.Portfolio] = struct{}{}
		}
	}
	return sortedKeys(sups), sortedKeys(ports), nil
}

// =============================================================================
// ENTRIES
// =============================================================================

func (m *Memory) AppendEntry(_ context.Context, e hr.Entry) (hr.Entry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.appendEntryLocked(e)
}

func (m *Memory) appendEntryLocked(e hr.Entry) (hr.Entry, error) {
	if err := e.Validate(); err != nil {
		return hr.Entry{}, err
	}
	if _, ok := m.employees[e.EmployeeID]; !ok {
		return hr.Entry{}, hr.EmployeeNotFound(e.EmployeeID)
	}
	if e.ID == "" {
		e.ID = uuid.NewString()
	}
	m.entries = append(m.entries, e)
	return e, nil
}

func (m *Memory) QueryEntries(_ context.Context, q hr.EntryQuery) ([]hr.Entry, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.queryEntriesLocked(q), nil
}

func (m *Memory) queryEntriesLocked(q hr.EntryQuery) []hr.Entry {
	var out []hr.Entry
	for _, e := range m.entries {
		if q.Matches(e) {
			out = append(out, e)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Date.After(out[j].Date) })
	return out
}

// =============================================================================
// PAYROLL
// =============================================================================

func (m *Memory) ReplacePayroll(_ context.Context, period hr.Period, lines []hr.PayrollLine) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.replacePayrollLocked(period, lines)
	return nil
}

func (m *Memory) replacePayrollLocked(period hr.Period, lines []hr.PayrollLine) {
	stored := make([]hr.PayrollLine, len(lines))
	copy(stored, lines)
	sort.Slice(stored, func(i, j int) bool { return stored[i].EmployeeID < stored[j].EmployeeID })
	m.payroll[period] = stored
}

func (m *Memory) ListPayroll(_ context.Context, period hr.Period) ([]hr.PayrollLine, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.listPayrollLocked(period), nil
}

func (m *Memory) listPayrollLocked(period hr.Period) []hr.PayrollLine {
	lines := m.payroll[period]
	out := make([]hr.PayrollLine, len(lines))
	copy(out, lines)
	return out
}

// =============================================================================
// TRANSACTIONS
// =============================================================================

// WithTx executes fn within a transaction.
// For memory store, this is simulated with a snapshot + rollback on error.
func (m *Memory) WithTx(ctx context.Context, fn func(hr.Store) error) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	snapshot := m.snapshot()
	if err := fn(&txMemoryView{parent: m}); err != nil {
		m.restore(snapshot)
		return err
	}
	return nil
}

type memorySnapshot struct {
	employees  map[hr.EmployeeID]hr.Employee
	attendance map[string]hr.AttendanceRecord
	byKey      map[hr.AttendanceKey]string
	entries    []hr.Entry
	payroll    map[hr.Period][]hr.PayrollLine
}

func (m *Memory) snapshot() memorySnapshot {
	s := memorySnapshot{
		employees:  make(map[hr.EmployeeID]hr.Employee, len(m.employees)),
		attendance: make(map[string]hr.AttendanceRecord, len(m.attendance)),
		byKey:      make(map[hr.AttendanceKey]string, len(m.byKey)),
		entries:    append([]hr.Entry(nil), m.entries...),
		payroll:    make(map[hr.Period][]hr.PayrollLine, len(m.payroll)),
	}
	for k, v := range m.employees {
		s.employees[k] = v
	}
	for k, v := range m.attendance {
		s.attendance[k] = v
	}
	for k, v := range m.byKey {
		s.byKey[k] = v
	}
	for k, v := range m.payroll {
		s.payroll[k] = append([]hr.PayrollLine(nil), v...)
	}
	return s
}

func (m *Memory) restore(s memorySnapshot) {
	m.employees = s.employees
	m.attendance = s.attendance
	m.byKey = s.byKey
	m.entries = s.entries
	m.payroll = s.payroll
}

// txMemoryView runs against the parent while WithTx holds its lock.
type txMemoryView struct {
	parent *Memory
}

func (tv *txMemoryView) SaveEmployee(_ context.Context, e hr.Employee) error {
	tv.parent.employees[e.ID] = e
	return nil
}

func (tv *txMemoryView) GetEmployee(_ context.Context, id hr.EmployeeID) (*hr.Employee, error) {
	return tv.parent.getEmployeeLocked(id), nil
}

func (tv *txMemoryView) ListEmployees(_ context.Context) ([]hr.Employee, error) {
	return tv.parent.listEmployeesLocked(), nil
}

func (tv *txMemoryView) DeleteEmployee(_ context.Context, id hr.EmployeeID) error {
	return tv.parent.deleteEmployeeLocked(id)
}

func (tv *txMemoryView) SaveAttendance(_ context.Context, r hr.AttendanceRecord) (hr.AttendanceRecord, error) {
	return tv.parent.saveAttendanceLocked(r)
}

func (tv *txMemoryView) GetAttendance(_ context.Context, id string) (*hr.AttendanceRecord, error) {
	r, ok := tv.parent.attendance[id]
	if !ok {
		return nil, nil
	}
	return &r, nil
}

func (tv *txMemoryView) FindAttendance(_ context.Context, employeeID hr.EmployeeID, date hr.Date) (*hr.AttendanceRecord, error) {
	return tv.parent.findAttendanceLocked(employeeID, date), nil
}

func (tv *txMemoryView) DeleteAttendance(_ context.Context, id string) error {
	return tv.parent.deleteAttendanceLocked(id)
}

func (tv *txMemoryView) QueryAttendance(_ context.Context, q hr.AttendanceQuery) ([]hr.AttendanceRecord, error) {
	return tv.parent.queryAttendanceLocked(q), nil
}

func (tv *txMemoryView) AttendanceFacets(_ context.Context) ([]string, []string, error) {
	sups, ports := map[string]struct{}{}, map[string]struct{}{}
	for _, r := range tv.parent.attendance {
		if r.Supervisor != "" {
			sups[r.Supervisor] = struct{}{}
		}
		if r.Portfolio != "" {
			ports[r.Portfolio] = struct{}{}
		}
	}
	return sortedKeys(sups), sortedKeys(ports), nil
}

func (tv *txMemoryView) AppendEntry(_ context.Context, e hr.Entry) (hr.Entry, error) {
	return tv.parent.appendEntryLocked(e)
}

func (tv *txMemoryView) QueryEntries(_ context.Context, q hr.EntryQuery) ([]hr.Entry, error) {
	return tv.parent.queryEntriesLocked(q), nil
}

func (tv *txMemoryView) ReplacePayroll(_ context.Context, period hr.Period, lines []hr.PayrollLine) error {
	tv.parent.replacePayrollLocked(period, lines)
	return nil
}

func (tv *txMemoryView) ListPayroll(_ context.Context, period hr.Period) ([]hr.PayrollLine, error) {
	return tv.parent.listPayrollLocked(period), nil
}

// WithTx inside a transaction joins it.
func (tv *txMemoryView) WithTx(_ context.Context, fn func(hr.Store) error) error {
	return fn(tv)
}

func sortedKeys(set map[string]struct{}) []string {
	out := make([]string, 0, len(set))
	for k := range set {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
