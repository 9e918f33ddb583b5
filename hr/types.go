/*
Package hr provides the core attendance and payroll domain.

PURPOSE:
  Domain types shared by every other package: employees and their one-level
  supervisor relationships, the AccessScope rule, calendar dates and periods,
  attendance records, bonus/deduction entries, payroll lines and the storage
  interfaces that persist them.

KEY CONCEPTS IN THIS FILE (types.go):
  - EmployeeID: stable string key ("Usuario")
  - Employee: directory record with daily rate and role flags
  - Role: tagged variant {Agent, Supervisor, Admin}
  - Actor: the identity initiating an operation

MONEY:
  Daily rates and amounts are decimal.Decimal. Half days make paid days
  fractional, so float arithmetic is never used on money.

SEE ALSO:
  - directory.go: Employee index with derived supervisor → agents map
  - scope.go: VisibleEmployees
  - store.go: Persistence interfaces
*/
package hr

import (
	"strings"

	"github.com/shopspring/decimal"
)

// =============================================================================
// IDENTIFIERS
// =============================================================================

type EmployeeID string

// ParseEmployeeID trims an identifier read from user input.
func ParseEmployeeID(s string) EmployeeID {
	return EmployeeID(strings.TrimSpace(s))
}

// =============================================================================
// EMPLOYEE
// =============================================================================

// Employee is a directory record. SupervisorID is empty when the employee
// reports to nobody; a supervisor's own SupervisorID is never used for scoping.
type Employee struct {
	ID           EmployeeID
	Name         string
	DailyRate    decimal.Decimal
	Position     string
	IsAdmin      bool
	IsSupervisor bool
	SupervisorID EmployeeID
}

// Role collapses the flags into the variant AccessScope dispatches on.
// Admin wins over Supervisor.
func (e Employee) Role() Role {
	switch {
	case e.IsAdmin:
		return RoleAdmin
	case e.IsSupervisor:
		return RoleSupervisor
	default:
		return RoleAgent
	}
}

// Actor returns the actor identity for this employee.
func (e Employee) Actor() Actor {
	return Actor{ID: e.ID, Role: e.Role()}
}

// Validate checks the fields that do not depend on other employees.
func (e Employee) Validate() error {
	if e.ID == "" {
		return invalid("usuario", "", "is required")
	}
	if strings.TrimSpace(e.Name) == "" {
		return invalid("nombre", "", "is required")
	}
	if e.DailyRate.IsNegative() {
		return invalid("salario_diario", e.DailyRate.String(), "must not be negative")
	}
	if e.SupervisorID == e.ID {
		return &ReferentialError{EmployeeID: e.ID, SupervisorID: e.SupervisorID, Reason: "is the employee itself"}
	}
	return nil
}

// =============================================================================
// ROLE / ACTOR
// =============================================================================

type Role int

const (
	RoleAgent Role = iota
	RoleSupervisor
	RoleAdmin
)

func (r Role) String() string {
	switch r {
	case RoleAdmin:
		return "admin"
	case RoleSupervisor:
		return "supervisor"
	default:
		return "agent"
	}
}

// Actor is who performs an operation.
type Actor struct {
	ID   EmployeeID
	Role Role
}

// AdminActor builds the built-in administrator, which need not exist in
// the Directory.
func AdminActor(id EmployeeID) Actor {
	return Actor{ID: id, Role: RoleAdmin}
}

func (a Actor) IsAdmin() bool { return a.Role == RoleAdmin }

// RequireAdmin returns ErrForbidden unless the actor is an admin.
func (a Actor) RequireAdmin() error {
	if !a.IsAdmin() {
		return ErrForbidden
	}
	return nil
}
