package hr

import "sort"

// =============================================================================
// DIRECTORY - Employees plus the derived supervisor → agents index
// =============================================================================

// Directory holds employees keyed by id, a flat employee → supervisor map
// and the derived supervisor → agents index. There are no back-references
// between Employee values; the hierarchy lives only in the two maps.
//
// A Directory is a value built per operation from the store. It is not safe
// for concurrent mutation.
type Directory struct {
	employees    map[EmployeeID]Employee
	supervisorOf map[EmployeeID]EmployeeID
	agents       map[EmployeeID]map[EmployeeID]struct{}
}

// NewDirectory indexes the given employees. Later duplicates replace earlier ones.
func NewDirectory(employees []Employee) *Directory {
	d := &Directory{
		employees:    make(map[EmployeeID]Employee, len(employees)),
		supervisorOf: make(map[EmployeeID]EmployeeID),
		agents:       make(map[EmployeeID]map[EmployeeID]struct{}),
	}
	for _, e := range employees {
		d.Put(e)
	}
	return d
}

func (d *Directory) Get(id EmployeeID) (Employee, bool) {
	e, ok := d.employees[id]
	return e, ok
}

func (d *Directory) Has(id EmployeeID) bool {
	_, ok := d.employees[id]
	return ok
}

func (d *Directory) Len() int { return len(d.employees) }

// IDs returns every employee id in ascending order.
func (d *Directory) IDs() []EmployeeID {
	ids := make([]EmployeeID, 0, len(d.employees))
	for id := range d.employees {
		ids = append(ids, id)
	}
	sortIDs(ids)
	return ids
}

// Employees returns every employee ordered by id.
func (d *Directory) Employees() []Employee {
	ids := d.IDs()
	out := make([]Employee, len(ids))
	for i, id := range ids {
		out[i] = d.employees[id]
	}
	return out
}

// Supervisors returns the employees flagged as supervisors, ordered by id.
func (d *Directory) Supervisors() []Employee {
	var out []Employee
	for _, e := range d.Employees() {
		if e.IsSupervisor {
			out = append(out, e)
		}
	}
	return out
}

// AgentsOf returns the direct agents of a supervisor, ordered by id.
func (d *Directory) AgentsOf(supervisorID EmployeeID) []EmployeeID {
	set := d.agents[supervisorID]
	ids := make([]EmployeeID, 0, len(set))
	for id := range set {
		ids = append(ids, id)
	}
	sortIDs(ids)
	return ids
}

// SupervisorOf returns the supervisor id of an employee, if any.
func (d *Directory) SupervisorOf(id EmployeeID) (EmployeeID, bool) {
	s, ok := d.supervisorOf[id]
	return s, ok
}

// =============================================================================
// WRITE-TIME CHECKS
// =============================================================================

// CheckInsert validates a new employee against the directory.
func (d *Directory) CheckInsert(e Employee) error {
	if d.Has(e.ID) {
		return &DuplicateError{Kind: "employee", ID: string(e.ID)}
	}
	return d.checkLinks(e)
}

// CheckReplace validates an edit of an existing employee. A supervisor who
// still has agents cannot lose the supervisor flag.
func (d *Directory) CheckReplace(e Employee) error {
	if !d.Has(e.ID) {
		return EmployeeNotFound(e.ID)
	}
	if err := d.checkLinks(e); err != nil {
		return err
	}
	if !e.IsSupervisor && len(d.agents[e.ID]) > 0 {
		return &ReferentialError{EmployeeID: e.ID, SupervisorID: e.ID, Reason: "still has agents assigned"}
	}
	return nil
}

// CheckRemove validates deleting an employee.
func (d *Directory) CheckRemove(id EmployeeID) error {
	if !d.Has(id) {
		return EmployeeNotFound(id)
	}
	if len(d.agents[id]) > 0 {
		return &ReferentialError{EmployeeID: id, SupervisorID: id, Reason: "still has agents assigned"}
	}
	return nil
}

func (d *Directory) checkLinks(e Employee) error {
	if err := e.Validate(); err != nil {
		return err
	}
	if e.SupervisorID == "" {
		return nil
	}
	sup, ok := d.employees[e.SupervisorID]
	if !ok {
		return &ReferentialError{EmployeeID: e.ID, SupervisorID: e.SupervisorID, Reason: "does not exist"}
	}
	if !sup.IsSupervisor {
		return &ReferentialError{EmployeeID: e.ID, SupervisorID: e.SupervisorID, Reason: "is not a supervisor"}
	}
	return nil
}

// =============================================================================
// MUTATION - keeps both maps in step
// =============================================================================

// Put inserts or replaces an employee without validation.
func (d *Directory) Put(e Employee) {
	d.unlink(e.ID)
	d.employees[e.ID] = e
	if e.SupervisorID != "" {
		d.supervisorOf[e.ID] = e.SupervisorID
		set, ok := d.agents[e.SupervisorID]
		if !ok {
			set = make(map[EmployeeID]struct{})
			d.agents[e.SupervisorID] = set
		}
		set[e.ID] = struct{}{}
	}
}

// Remove drops an employee. Agents keep their (now dangling) link; callers
// run CheckRemove first.
func (d *Directory) Remove(id EmployeeID) {
	d.unlink(id)
	delete(d.employees, id)
}

func (d *Directory) unlink(id EmployeeID) {
	sup, ok := d.supervisorOf[id]
	if !ok {
		return
	}
	delete(d.supervisorOf, id)
	if set := d.agents[sup]; set != nil {
		delete(set, id)
		if len(set) == 0 {
			delete(d.agents, sup)
		}
	}
}

func sortIDs(ids []EmployeeID) {
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
}
