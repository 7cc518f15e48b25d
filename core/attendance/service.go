package attendance

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"cloud.google.com/go/civil"
	"github.com/kat-co/vala"
	"github.com/pkg/errors"

	"github.com/attendix/attendix/core"
)

var (
	// errors
	ErrNotFound         = errors.New("attendance record not found")
	ErrAlreadyClockedIn = errors.New("you are already clocked in")
	ErrNotClockedIn     = errors.New("you must clock in before clocking out")
	ErrNoEmployee       = errors.New("only employees can clock in or out")
	ErrEmployeeNotInOrg = errors.New("employee not found in your organization")

	errInvalidDate   = errors.New("must be a valid date (YYYY-MM-DD)")
	errRangeReversed = errors.New("endDate cannot be before startDate")
)

type (
	Repository interface {
		// LastPunch returns the latest record of the employee in [from, to), ErrNotFound if none.
		LastPunch(ctx context.Context, employeeID int, from, to time.Time) (Record, error)
		CreatePunch(ctx context.Context, rec Record) (Record, error)
		// QueryByEmployee returns records in [from, to) ordered by time.
		QueryByEmployee(ctx context.Context, employeeID int, from, to time.Time) ([]Record, error)
		// QueryByOrganization returns records in [from, to) ordered by employee name then time.
		// employeeID 0 selects every employee.
		QueryByOrganization(ctx context.Context, organizationID, employeeID int, from, to time.Time) ([]EmployeeRecord, error)
		EmployeeInOrganization(ctx context.Context, employeeID, organizationID int) (bool, error)
	}

	Service struct {
		repo     Repository
		geocoder core.Geocoder
		logger   core.Logger
		loc      *time.Location
	}
)

func NewService(repo Repository, geocoder core.Geocoder, logger core.Logger, conf *core.Config) *Service {
	vala.BeginValidation().Validate(
		vala.IsNotNil(repo, "repo"),
		vala.IsNotNil(geocoder, "geocoder"),
		vala.IsNotNil(logger, "logger"),
		vala.IsNotNil(conf, "conf"),
	).CheckAndPanic()

	return &Service{repo: repo, geocoder: geocoder, logger: logger, loc: conf.Location()}
}

// ClockIn opens a working session for the acting employee.
func (svc *Service) ClockIn(ctx context.Context, actor core.Actor, p Punch) (Record, error) {
	return svc.punch(ctx, actor, p, PunchIn)
}

// ClockOut closes the open working session of the acting employee.
func (svc *Service) ClockOut(ctx context.Context, actor core.Actor, p Punch) (Record, error) {
	return svc.punch(ctx, actor, p, PunchOut)
}

func (svc *Service) punch(ctx context.Context, actor core.Actor, p Punch, kind string) (Record, error) {
	if actor.EmployeeID == 0 {
		return Record{}, core.NewValidationError(ErrNoEmployee)
	}

	from, to := core.DateRange{From: core.Today(svc.loc), To: core.Today(svc.loc)}.Bounds(svc.loc)
	last, err := svc.repo.LastPunch(ctx, actor.EmployeeID, from, to)
	if err != nil && errors.Cause(err) != ErrNotFound {
		return Record{}, errors.Wrap(err, "finding last punch")
	}
	open := err == nil && last.Type == PunchIn
	if kind == PunchIn && open {
		return Record{}, core.NewValidationError(ErrAlreadyClockedIn)
	}
	if kind == PunchOut && !open {
		return Record{}, core.NewValidationError(ErrNotClockedIn)
	}

	rec := Record{
		EmployeeID: actor.EmployeeID,
		Type:       kind,
		PunchedAt:  core.NowFunc().UTC(),
		Latitude:   *p.Latitude,
		Longitude:  *p.Longitude,
		Address:    svc.address(ctx, *p.Latitude, *p.Longitude),
	}
	rec, err = svc.repo.CreatePunch(ctx, rec)
	if err != nil {
		return Record{}, errors.Wrap(err, "creating punch")
	}
	return rec, nil
}

// address never fails a punch: geocoding errors are logged and replaced by a fallback label.
func (svc *Service) address(ctx context.Context, lat, lon float64) string {
	addr, err := svc.geocoder.ReverseGeocode(ctx, lat, lon)
	if err != nil {
		svc.logger.Warn(fmt.Sprintf("reverse geocoding (%f, %f)", lat, lon), err)
		return core.AddressError
	}
	if addr == "" {
		return core.AddressNotFound
	}
	return addr
}

// Today returns the single-day range of today in the business time zone.
func (svc *Service) Today() core.DateRange {
	today := core.Today(svc.loc)
	return core.DateRange{From: today, To: today}
}

// MonthToDate returns the range from the first of the current month to today.
func (svc *Service) MonthToDate() core.DateRange {
	today := core.Today(svc.loc)
	return core.DateRange{From: core.FirstOfMonth(today), To: today}
}

// ForEmployee lists the records of an employee in rng.
func (svc *Service) ForEmployee(ctx context.Context, employeeID int, rng core.DateRange) ([]RecordView, error) {
	from, to := rng.Bounds(svc.loc)
	records, err := svc.repo.QueryByEmployee(ctx, employeeID, from, to)
	if err != nil {
		return nil, errors.Wrap(err, "querying attendance")
	}
	views := make([]RecordView, 0, len(records))
	for _, rec := range records {
		local := rec.PunchedAt.In(svc.loc)
		views = append(views, RecordView{
			Record: rec,
			Date:   local.Format("2006-01-02"),
			Time:   local.Format("3:04 PM"),
		})
	}
	return views, nil
}

// ForOrganizationEmployee lists the records of an employee, checking they belong to the organization.
func (svc *Service) ForOrganizationEmployee(ctx context.Context, organizationID, employeeID int, rng core.DateRange) ([]RecordView, error) {
	ok, err := svc.repo.EmployeeInOrganization(ctx, employeeID, organizationID)
	if err != nil {
		return nil, errors.Wrap(err, "checking employee organization")
	}
	if !ok {
		return nil, core.NewFieldError("employeeId", ErrEmployeeNotInOrg)
	}
	return svc.ForEmployee(ctx, employeeID, rng)
}

// ParseEmployeeID reads an employee filter: "", "all" and "0" select everyone.
func ParseEmployeeID(s string) (int, error) {
	s = core.CleanString(s, true /* lower */)
	if s == "" || s == "all" {
		return 0, nil
	}
	id, err := strconv.Atoi(s)
	if err != nil || id < 0 {
		return 0, core.NewFieldError("employeeId", errors.New("must be an employee id or \"all\""))
	}
	return id, nil
}

// Combined summarizes, per employee and per day, the first clock-in and last clock-out in rng.
func (svc *Service) Combined(ctx context.Context, organizationID, employeeID int, rng core.DateRange) ([]DailySummary, error) {
	from, to := rng.Bounds(svc.loc)
	records, err := svc.repo.QueryByOrganization(ctx, organizationID, employeeID, from, to)
	if err != nil {
		return nil, errors.Wrap(err, "querying attendance")
	}

	type key struct {
		employeeID int
		date       civil.Date
	}
	type day struct {
		summary DailySummary
		in, out *time.Time
	}

	days := make([]*day, 0)
	index := make(map[key]*day)
	for _, rec := range records {
		local := rec.PunchedAt.In(svc.loc)
		k := key{employeeID: rec.EmployeeID, date: civil.DateOf(local)}
		d, ok := index[k]
		if !ok {
			d = &day{summary: DailySummary{EmployeeID: rec.EmployeeID, EmployeeName: rec.EmployeeName, Date: k.date}}
			index[k] = d
			days = append(days, d)
		}
		switch rec.Type {
		case PunchIn:
			if d.in == nil || local.Before(*d.in) {
				d.in = &local
				d.summary.ClockInAddress = rec.Address
			}
		case PunchOut:
			if d.out == nil || local.After(*d.out) {
				d.out = &local
				d.summary.ClockOutAddress = rec.Address
			}
		}
	}

	summaries := make([]DailySummary, 0, len(days))
	for _, d := range days {
		if d.in != nil {
			d.summary.ClockIn = d.in.Format("03:04 PM")
		}
		if d.out != nil {
			d.summary.ClockOut = d.out.Format("03:04 PM")
		}
		d.summary.WorkedTime = WorkedTime(d.in, d.out)
		summaries = append(summaries, d.summary)
	}
	return summaries, nil
}

// WorkedTime formats the time worked between in and out as "Xh Ym".
func WorkedTime(in, out *time.Time) string {
	if in == nil || out == nil {
		return WorkedMissingOut
	}
	diff := out.Sub(*in)
	if diff <= 0 {
		return WorkedOutBeforeIn
	}
	return fmt.Sprintf("%dh %dm", int(diff.Hours()), int(diff.Minutes())%60)
}
