package core

// Roles
const (
	RoleAdmin    = "admin"
	RoleEmployee = "employee"
)

var AllRoles = []string{RoleAdmin, RoleEmployee}

// Actor is the authenticated principal performing a request.
type Actor struct {
	UserID         int
	EmployeeID     int
	OrganizationID int
	Name           string
	Email          string
	Role           string
}

func (a Actor) IsAdmin() bool { return a.Role == RoleAdmin }

// OwnsEmployee reports whether a acts as the given employee.
func (a Actor) OwnsEmployee(employeeID int) bool {
	return a.EmployeeID != 0 && a.EmployeeID == employeeID
}
