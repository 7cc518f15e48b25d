package leave

import (
	"time"

	"cloud.google.com/go/civil"
	"github.com/go-playground/validator/v10"

	"github.com/attendix/attendix/core"
)

// Statuses
const (
	StatusPending  = "pending"
	StatusApproved = "approved"
	StatusRejected = "rejected"
)

type Leave struct {
	ID           int        `json:"id"`
	EmployeeID   int        `json:"employee_id"`
	EmployeeName string     `json:"employee_name"`
	Type         string     `json:"type"`
	StartDate    civil.Date `json:"start_date"`
	EndDate      civil.Date `json:"end_date"`
	Reason       string     `json:"reason"`
	Status       string     `json:"status"`
	ReviewedBy   *int       `json:"reviewed_by"`
	CreatedAt    time.Time  `json:"created_at"` // UTC
	UpdatedAt    time.Time  `json:"updated_at"` // UTC
}

// Contact is who gets notified about a leave request.
type Contact struct {
	EmployeeID       int
	OrganizationID   int
	OrganizationName string
	Name             string
	Email            string
}

// NewLeave contains information needed to request a leave.
type NewLeave struct {
	Type      string `json:"type" validate:"required,notblank,max=50"`
	StartDate string `json:"startDate" validate:"required"`
	EndDate   string `json:"endDate" validate:"required"`
	Reason    string `json:"reason" validate:"max=2000"`
}

func (nl *NewLeave) Validate(validate *validator.Validate) error {
	nl.Type = core.CleanString(nl.Type)
	nl.Reason = core.CleanString(nl.Reason)
	return validate.Struct(nl)
}

// Dates parses the requested range.
func (nl NewLeave) Dates() (core.DateRange, error) {
	start, err := core.ParseDate(nl.StartDate)
	if err != nil {
		return core.DateRange{}, core.NewFieldError("startDate", errInvalidDate)
	}
	end, err := core.ParseDate(nl.EndDate)
	if err != nil {
		return core.DateRange{}, core.NewFieldError("endDate", errInvalidDate)
	}
	if end.Before(start) {
		return core.DateRange{}, core.NewFieldError("endDate", ErrEndBeforeStart)
	}
	return core.DateRange{From: start, To: end}, nil
}

type StatusUpdate struct {
	Status string `json:"status" validate:"required,oneof=approved rejected"`
}

func (su *StatusUpdate) Validate(validate *validator.Validate) error {
	su.Status = core.CleanString(su.Status, true /* lower */)
	return validate.Struct(su)
}
