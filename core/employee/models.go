package employee

import (
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/attendix/attendix/core"
)

// Statuses
const (
	StatusActive   = "active"
	StatusInactive = "inactive"
)

// Activity kinds
const (
	ActivityClockIn      = "clock_in"
	ActivityClockOut     = "clock_out"
	ActivityLeaveRequest = "leave_request"
	ActivityTask         = "task"
)

type Employee struct {
	ID             int       `json:"id"`
	OrganizationID int       `json:"organization_id"`
	Name           string    `json:"name"`
	Email          string    `json:"email"`
	Phone          string    `json:"phone"`
	Role           string    `json:"role"`
	Status         string    `json:"status"`
	CreatedAt      time.Time `json:"created_at"` // UTC
	UpdatedAt      time.Time `json:"updated_at"` // UTC
}

// NewEmployee contains information needed to add an Employee to an organization.
type NewEmployee struct {
	Name  string `json:"name" validate:"required,notblank,max=255"`
	Email string `json:"email" validate:"omitempty,email"`
	Phone string `json:"phone" validate:"required,phone"`
	Role  string `json:"role" validate:"omitempty,oneof=admin employee"`
}

func (ne *NewEmployee) Validate(validate *validator.Validate) error {
	ne.Name = core.CleanString(ne.Name)
	ne.Email = core.CleanString(ne.Email, true /* lower */)
	ne.Phone = core.CleanString(ne.Phone)
	ne.Role = core.CleanString(ne.Role, true /* lower */)
	if ne.Role == "" {
		ne.Role = core.RoleEmployee
	}
	return validate.Struct(ne)
}

// UpdateEmployee defines what information may be provided to modify an existing Employee.
// Blank fields keep their current value.
type UpdateEmployee struct {
	Name   string `json:"name" validate:"max=255"`
	Email  string `json:"email" validate:"omitempty,email"`
	Phone  string `json:"phone" validate:"omitempty,phone"`
	Role   string `json:"role" validate:"omitempty,oneof=admin employee"`
	Status string `json:"status" validate:"omitempty,oneof=active inactive"`
}

func (ue *UpdateEmployee) Validate(orig Employee, validate *validator.Validate) error {
	pick := func(val, fallback string) string {
		if val != "" {
			return val
		}
		return fallback
	}
	ue.Name = pick(core.CleanString(ue.Name), orig.Name)
	ue.Email = pick(core.CleanString(ue.Email, true /* lower */), orig.Email)
	ue.Phone = pick(core.CleanString(ue.Phone), orig.Phone)
	ue.Role = pick(core.CleanString(ue.Role, true /* lower */), orig.Role)
	ue.Status = pick(core.CleanString(ue.Status, true /* lower */), orig.Status)
	return validate.Struct(ue)
}

// Activity is one entry of an employee's activity feed.
type Activity struct {
	Type        string    `json:"type"`
	Description string    `json:"description"`
	OccurredAt  time.Time `json:"occurred_at"`
	Time        string    `json:"time"` // 3:04 PM, business time zone
	Date        string    `json:"date"` // Jan 2, business time zone
}

func PunchActivity(kind, address string, at time.Time) Activity {
	desc := "Clocked in"
	if kind == ActivityClockOut {
		desc = "Clocked out"
	}
	if address != "" {
		desc += " at " + address
	}
	return Activity{Type: kind, Description: desc, OccurredAt: at}
}

func LeaveActivity(leaveType, status string, at time.Time) Activity {
	return Activity{
		Type:        ActivityLeaveRequest,
		Description: fmt.Sprintf("Requested %s leave (%s)", leaveType, status),
		OccurredAt:  at,
	}
}

func TaskActivity(title string, completed bool, at time.Time) Activity {
	desc := "Task assigned: " + title
	if completed {
		desc = "Task completed: " + title
	}
	return Activity{Type: ActivityTask, Description: desc, OccurredAt: at}
}
