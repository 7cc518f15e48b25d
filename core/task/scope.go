package task

import "github.com/attendix/attendix/core"

// Scope is the authorization capability for mutating tasks: admins manage every task of
// their organization, employees only their own.
type Scope struct {
	OrganizationID int
	EmployeeID     int
	AllEmployees   bool
}

func ScopeOf(actor core.Actor) Scope {
	if actor.IsAdmin() {
		return Scope{OrganizationID: actor.OrganizationID, AllEmployees: true}
	}
	return Scope{OrganizationID: actor.OrganizationID, EmployeeID: actor.EmployeeID}
}

// Allows reports whether a task owned by employeeID, member of organizationID, is in scope.
func (s Scope) Allows(employeeID, organizationID int) bool {
	if organizationID != s.OrganizationID {
		return false
	}
	return s.AllEmployees || (s.EmployeeID != 0 && s.EmployeeID == employeeID)
}
