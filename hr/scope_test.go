package hr_test

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/foco/nomina/hr"
)

// =============================================================================
// TEST HELPERS
// =============================================================================

func emp(id string, opts ...func(*hr.Employee)) hr.Employee {
	e := hr.Employee{ID: hr.EmployeeID(id), Name: "Name " + id, DailyRate: decimal.NewFromInt(100)}
	for _, o := range opts {
		o(&e)
	}
	return e
}

func supervisor(e *hr.Employee) { e.IsSupervisor = true }
func admin(e *hr.Employee)      { e.IsAdmin = true }

func reportsTo(id string) func(*hr.Employee) {
	return func(e *hr.Employee) { e.SupervisorID = hr.EmployeeID(id) }
}

// sampleDirectory: boss supervises sup1; sup1 supervises a and b; sup2 supervises c.
func sampleDirectory() *hr.Directory {
	return hr.NewDirectory([]hr.Employee{
		emp("root", admin),
		emp("boss", supervisor),
		emp("sup1", supervisor, reportsTo("boss")),
		emp("sup2", supervisor),
		emp("a", reportsTo("sup1")),
		emp("b", reportsTo("sup1")),
		emp("c", reportsTo("sup2")),
		emp("loner"),
	})
}

// =============================================================================
// ACCESS SCOPE
// =============================================================================

func TestVisibleEmployees_SupervisorSeesDirectAgents(t *testing.T) {
	d := sampleDirectory()

	scope := hr.VisibleEmployees(hr.Actor{ID: "sup1", Role: hr.RoleSupervisor}, d)

	assert.Equal(t, []hr.EmployeeID{"a", "b"}, scope.IDs())
	assert.False(t, scope.Contains("sup1"), "supervisor is not in their own scope")
}

func TestVisibleEmployees_OneLevelOnly(t *testing.T) {
	// GIVEN: boss supervises sup1, which supervises a and b
	// WHEN: boss lists visible employees
	// THEN: only sup1, never a or b

	d := sampleDirectory()
	scope := hr.VisibleEmployees(hr.Actor{ID: "boss", Role: hr.RoleSupervisor}, d)

	assert.Equal(t, []hr.EmployeeID{"sup1"}, scope.IDs())
}

func TestVisibleEmployees_AdminSeesEveryone(t *testing.T) {
	d := sampleDirectory()

	scope := hr.VisibleEmployees(hr.AdminActor("admin"), d)

	assert.Equal(t, d.IDs(), scope.IDs())
	assert.Equal(t, 8, scope.Len())
	assert.True(t, scope.All())
	assert.False(t, scope.Narrow("a").All())
	assert.False(t, hr.VisibleEmployees(hr.Actor{ID: "sup1", Role: hr.RoleSupervisor}, d).All())
}

func TestVisibleEmployees_AgentSeesSelf(t *testing.T) {
	d := sampleDirectory()

	scope := hr.VisibleEmployees(hr.Actor{ID: "a", Role: hr.RoleAgent}, d)

	assert.Equal(t, []hr.EmployeeID{"a"}, scope.IDs())
}

func TestVisibleEmployees_SupervisorWithoutAgents(t *testing.T) {
	d := hr.NewDirectory([]hr.Employee{emp("s", supervisor)})

	scope := hr.VisibleEmployees(d.Employees()[0].Actor(), d)

	assert.True(t, scope.IsEmpty())
}

func TestEmployeeRole_AdminWins(t *testing.T) {
	e := emp("x", admin, supervisor)
	assert.Equal(t, hr.RoleAdmin, e.Role())
	assert.Equal(t, hr.RoleSupervisor, emp("y", supervisor).Role())
	assert.Equal(t, hr.RoleAgent, emp("z").Role())
}

func TestAuthorize(t *testing.T) {
	d := sampleDirectory()
	sup := hr.Actor{ID: "sup1", Role: hr.RoleSupervisor}

	assert.NoError(t, hr.Authorize(sup, d, "a"))

	err := hr.Authorize(sup, d, "c")
	require.Error(t, err)
	assert.ErrorIs(t, err, hr.ErrScopeViolation)
	var sv *hr.ScopeViolationError
	require.ErrorAs(t, err, &sv)
	assert.Equal(t, hr.EmployeeID("c"), sv.EmployeeID)

	assert.NoError(t, hr.Authorize(hr.AdminActor("admin"), d, "c"))
}

func TestScopeNarrow(t *testing.T) {
	s := hr.NewScope("a", "b")

	assert.Equal(t, []hr.EmployeeID{"a"}, s.Narrow("a").IDs())
	assert.True(t, s.Narrow("zzz").IsEmpty())
	assert.Equal(t, 2, s.Narrow("").Len())
}
