/*
errors.go - Centralized error types for the attendance and payroll engine

PURPOSE:
  All error types in one place. Batch operations never return these for a
  single bad row; they are collected as row messages instead. Direct,
  single-record operations return them to the caller.

ERROR CATEGORIES:
  1. Validation   - malformed or missing field, bad status code, negative amount
  2. Scope        - actor references an employee outside their AccessScope
  3. Not found    - unknown employee or record id
  4. Referential  - supervisor reference to a missing or non-supervisor employee
  5. Forbidden    - admin-only operation attempted by a non-admin actor

USAGE:
  if errors.Is(err, hr.ErrScopeViolation) { ... }

  var ve *hr.ValidationError
  if errors.As(err, &ve) { log.Println(ve.Field) }

SEE ALSO:
  - scope.go: Produces ScopeViolationError
  - directory.go: Produces ReferentialError
*/
package hr

import (
	"errors"
	"fmt"
)

// =============================================================================
// SENTINEL ERRORS - Use with errors.Is()
// =============================================================================

var (
	ErrValidation     = errors.New("validation failed")
	ErrScopeViolation = errors.New("employee outside actor scope")
	ErrNotFound       = errors.New("not found")
	ErrReferential    = errors.New("referential integrity violation")
	ErrForbidden      = errors.New("operation requires admin")
	ErrDuplicate      = errors.New("already exists")

	// ErrInvalidPeriod is returned when a period ends before it starts.
	ErrInvalidPeriod = errors.New("invalid period: end before start")
)

// =============================================================================
// STRUCTURED ERRORS - Carry additional context
// =============================================================================

// ValidationError describes a rejected field value.
type ValidationError struct {
	Field   string
	Value   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Value == "" {
		return fmt.Sprintf("%s: %s", e.Field, e.Message)
	}
	return fmt.Sprintf("%s %q: %s", e.Field, e.Value, e.Message)
}

func (e *ValidationError) Unwrap() error { return ErrValidation }

// ScopeViolationError is returned when an actor touches an employee they
// cannot see.
type ScopeViolationError struct {
	ActorID    EmployeeID
	EmployeeID EmployeeID
}

func (e *ScopeViolationError) Error() string {
	return fmt.Sprintf("actor %s cannot access employee %s", e.ActorID, e.EmployeeID)
}

func (e *ScopeViolationError) Unwrap() error { return ErrScopeViolation }

// NotFoundError names the missing resource kind and id.
type NotFoundError struct {
	Kind string // "employee", "attendance"
	ID   string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %q not found", e.Kind, e.ID)
}

func (e *NotFoundError) Unwrap() error { return ErrNotFound }

// DuplicateError rejects an insert whose id is taken. It is also a
// validation failure.
type DuplicateError struct {
	Kind string
	ID   string
}

func (e *DuplicateError) Error() string {
	return fmt.Sprintf("%s %q already exists", e.Kind, e.ID)
}

func (e *DuplicateError) Unwrap() []error { return []error{ErrDuplicate, ErrValidation} }

// ReferentialError is a broken supervisor link.
type ReferentialError struct {
	EmployeeID   EmployeeID
	SupervisorID EmployeeID
	Reason       string
}

func (e *ReferentialError) Error() string {
	return fmt.Sprintf("employee %s: supervisor %q %s", e.EmployeeID, e.SupervisorID, e.Reason)
}

func (e *ReferentialError) Unwrap() error { return ErrReferential }

// =============================================================================
// ERROR HELPERS
// =============================================================================

func invalid(field, value, message string) error {
	return &ValidationError{Field: field, Value: value, Message: message}
}

func EmployeeNotFound(id EmployeeID) error {
	return &NotFoundError{Kind: "employee", ID: string(id)}
}

// IsNotFound returns true if the error indicates a missing resource.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

// IsClientError returns true if the error is due to invalid client input.
// Duplicates count as client input too.
func IsClientError(err error) bool {
	return errors.Is(err, ErrValidation) ||
		errors.Is(err, ErrInvalidPeriod) ||
		errors.Is(err, ErrDuplicate)
}
