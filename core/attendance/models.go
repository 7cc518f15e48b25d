package attendance

import (
	"time"

	"cloud.google.com/go/civil"
	"github.com/go-playground/validator/v10"

	"github.com/attendix/attendix/core"
)

// Punch types
const (
	PunchIn  = "clock_in"
	PunchOut = "clock_out"
)

// Worked time labels
const (
	WorkedMissingOut  = "Missing Clock Out"
	WorkedOutBeforeIn = "Invalid time (Out before In)"
)

type Record struct {
	ID         int       `json:"id"`
	EmployeeID int       `json:"employee_id"`
	Type       string    `json:"type"`
	PunchedAt  time.Time `json:"timestamp"` // UTC
	Latitude   float64   `json:"latitude"`
	Longitude  float64   `json:"longitude"`
	Address    string    `json:"address"`
}

// RecordView decorates a record with its date and time in the business time zone.
type RecordView struct {
	Record
	Date string `json:"date"` // 2006-01-02
	Time string `json:"time"` // 3:04 PM
}

// EmployeeRecord is a record joined with its employee.
type EmployeeRecord struct {
	Record
	EmployeeName string
}

// Punch is a clock-in or clock-out request.
type Punch struct {
	Latitude  *float64 `json:"latitude" validate:"required,latitude"`
	Longitude *float64 `json:"longitude" validate:"required,longitude"`
}

func (p *Punch) Validate(validate *validator.Validate) error {
	return validate.Struct(p)
}

// RangeQuery filters attendance listings. Dates are YYYY-MM-DD; employee_id "all" or 0 means everyone.
type RangeQuery struct {
	StartDate  string `query:"startDate"`
	EndDate    string `query:"endDate"`
	EmployeeID string `query:"employeeId"`
}

// Range resolves the query into a date range, using fallback for missing bounds.
func (q RangeQuery) Range(fallback core.DateRange) (core.DateRange, error) {
	rng := fallback
	if s := core.CleanString(q.StartDate); s != "" {
		d, err := core.ParseDate(s)
		if err != nil {
			return core.DateRange{}, core.NewFieldError("startDate", errInvalidDate)
		}
		rng.From = d
	}
	if s := core.CleanString(q.EndDate); s != "" {
		d, err := core.ParseDate(s)
		if err != nil {
			return core.DateRange{}, core.NewFieldError("endDate", errInvalidDate)
		}
		rng.To = d
	}
	if rng.To.Before(rng.From) {
		return core.DateRange{}, core.NewFieldError("endDate", errRangeReversed)
	}
	return rng, nil
}

// DailySummary is the attendance of one employee on one day.
type DailySummary struct {
	EmployeeID      int        `json:"employee_id"`
	EmployeeName    string     `json:"employee_name"`
	Date            civil.Date `json:"date"`
	ClockIn         string     `json:"clock_in"`  // 03:04 PM, empty when missing
	ClockOut        string     `json:"clock_out"` // 03:04 PM, empty when missing
	ClockInAddress  string     `json:"clock_in_address"`
	ClockOutAddress string     `json:"clock_out_address"`
	WorkedTime      string     `json:"worked_time"`
}
