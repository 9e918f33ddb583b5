package hr

// =============================================================================
// ACCESS SCOPE - Which employees an actor may see or modify
// =============================================================================

// Scope is an immutable set of employee ids. The zero value is empty and
// matches nothing.
type Scope struct {
	ids map[EmployeeID]struct{}
	all bool
}

// NewScope builds a scope from explicit ids.
func NewScope(ids ...EmployeeID) Scope {
	s := Scope{ids: make(map[EmployeeID]struct{}, len(ids))}
	for _, id := range ids {
		s.ids[id] = struct{}{}
	}
	return s
}

// VisibleEmployees is the single dispatch point for role-based visibility:
//   - Admin:      every employee in the directory
//   - Supervisor: direct agents only (one level, never transitive)
//   - Agent:      the actor alone
//
// It is pure.
func VisibleEmployees(actor Actor, d *Directory) Scope {
	switch actor.Role {
	case RoleAdmin:
		s := NewScope(d.IDs()...)
		s.all = true
		return s
	case RoleSupervisor:
		return NewScope(d.AgentsOf(actor.ID)...)
	default:
		return NewScope(actor.ID)
	}
}

func (s Scope) Contains(id EmployeeID) bool {
	_, ok := s.ids[id]
	return ok
}

func (s Scope) Len() int { return len(s.ids) }

func (s Scope) IsEmpty() bool { return len(s.ids) == 0 }

// All reports whether s spans the whole directory it was built from, so
// stores may skip filtering by employee.
func (s Scope) All() bool { return s.all }

// IDs returns the members in ascending order.
func (s Scope) IDs() []EmployeeID {
	ids := make([]EmployeeID, 0, len(s.ids))
	for id := range s.ids {
		ids = append(ids, id)
	}
	sortIDs(ids)
	return ids
}

// Narrow keeps only id when it is a member; an empty id leaves s unchanged.
func (s Scope) Narrow(id EmployeeID) Scope {
	if id == "" {
		return s
	}
	if s.Contains(id) {
		return NewScope(id)
	}
	return Scope{}
}

// Authorize returns a ScopeViolationError when actor cannot touch id.
// Used for direct single-record writes, which fail hard.
func Authorize(actor Actor, d *Directory, id EmployeeID) error {
	if actor.IsAdmin() {
		return nil
	}
	if !VisibleEmployees(actor, d).Contains(id) {
		return &ScopeViolationError{ActorID: actor.ID, EmployeeID: id}
	}
	return nil
}
