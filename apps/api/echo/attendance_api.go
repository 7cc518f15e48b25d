package echoapi

import (
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/attendix/attendix/core"
	"github.com/attendix/attendix/core/attendance"
)

var errEmployeeIDRequired = errors.New("employeeId is required")

type attendanceApi struct {
	svc      *attendance.Service
	validate *validator.Validate
}

func registerAttendanceAPI(g *echo.Group, deps ServerDeps) {
	api := attendanceApi{svc: deps.AttendanceSvc, validate: deps.Validate}

	g.POST("/clock-in", api.clockIn, employeeMiddleware())
	g.POST("/clock-out", api.clockOut, employeeMiddleware())
	g.GET("/my", api.mine, employeeMiddleware())
	g.GET("/employee", api.forEmployee, adminMiddleware())
	g.GET("", api.combined, adminMiddleware())
}

func (api *attendanceApi) punch(ctx echo.Context, kind string) error {
	actor, err := getContextActor(ctx)
	if err != nil {
		return err
	}
	var data attendance.Punch
	if err := bind(ctx, api.validate, &data, "Punch"); err != nil {
		return err
	}

	var rec attendance.Record
	if kind == attendance.PunchIn {
		rec, err = api.svc.ClockIn(ctx.Request().Context(), actor, data)
	} else {
		rec, err = api.svc.ClockOut(ctx.Request().Context(), actor, data)
	}
	if err != nil {
		return errors.Wrap(err, "punching "+kind)
	}
	return ctx.JSON(http.StatusCreated, rec)
}

func (api *attendanceApi) clockIn(ctx echo.Context) error {
	return api.punch(ctx, attendance.PunchIn)
}

func (api *attendanceApi) clockOut(ctx echo.Context) error {
	return api.punch(ctx, attendance.PunchOut)
}

func bindRange(ctx echo.Context, fallback core.DateRange) (attendance.RangeQuery, core.DateRange, error) {
	var q attendance.RangeQuery
	if err := ctx.Bind(&q); err != nil {
		return q, core.DateRange{}, errors.Wrap(err, "binding to RangeQuery")
	}
	rng, err := q.Range(fallback)
	return q, rng, err
}

func (api *attendanceApi) mine(ctx echo.Context) error {
	actor, err := getContextActor(ctx)
	if err != nil {
		return err
	}
	_, rng, err := bindRange(ctx, api.svc.Today())
	if err != nil {
		return err
	}

	views, err := api.svc.ForEmployee(ctx.Request().Context(), actor.EmployeeID, rng)
	if err != nil {
		return errors.Wrap(err, "querying attendance")
	}
	return ctx.JSON(http.StatusOK, views)
}

func (api *attendanceApi) forEmployee(ctx echo.Context) error {
	actor, err := getContextActor(ctx)
	if err != nil {
		return err
	}
	q, rng, err := bindRange(ctx, api.svc.Today())
	if err != nil {
		return err
	}
	employeeID, err := attendance.ParseEmployeeID(q.EmployeeID)
	if err != nil {
		return err
	}
	if employeeID == 0 {
		return core.NewFieldError("employeeId", errEmployeeIDRequired)
	}

	views, err := api.svc.ForOrganizationEmployee(ctx.Request().Context(), actor.OrganizationID, employeeID, rng)
	if err != nil {
		return errors.Wrap(err, "querying attendance")
	}
	return ctx.JSON(http.StatusOK, views)
}

func (api *attendanceApi) combined(ctx echo.Context) error {
	actor, err := getContextActor(ctx)
	if err != nil {
		return err
	}
	q, rng, err := bindRange(ctx, api.svc.MonthToDate())
	if err != nil {
		return err
	}
	employeeID, err := attendance.ParseEmployeeID(q.EmployeeID)
	if err != nil {
		return err
	}

	summaries, err := api.svc.Combined(ctx.Request().Context(), actor.OrganizationID, employeeID, rng)
	if err != nil {
		return errors.Wrap(err, "summarizing attendance")
	}
	return ctx.JSON(http.StatusOK, summaries)
}
