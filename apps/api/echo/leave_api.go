package echoapi

import (
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/attendix/attendix/core/leave"
)

type leaveApi struct {
	svc      *leave.Service
	validate *validator.Validate
}

func registerLeaveAPI(g *echo.Group, deps ServerDeps) {
	api := leaveApi{svc: deps.LeaveSvc, validate: deps.Validate}

	g.POST("", api.create, employeeMiddleware())
	g.GET("/my", api.mine, employeeMiddleware())

	g.GET("", api.query, adminMiddleware())
	g.GET("/pending", api.pending, adminMiddleware())
	g.GET("/employee/:id", api.forEmployee, adminMiddleware())
	g.PUT("/:id/status", api.updateStatus, adminMiddleware())
}

func (api *leaveApi) create(ctx echo.Context) error {
	actor, err := getContextActor(ctx)
	if err != nil {
		return err
	}
	var data leave.NewLeave
	if err := bind(ctx, api.validate, &data, "NewLeave"); err != nil {
		return err
	}

	lv, err := api.svc.Create(ctx.Request().Context(), actor, data)
	if err != nil {
		return errors.Wrap(err, "requesting leave")
	}
	return ctx.JSON(http.StatusCreated, lv)
}

func (api *leaveApi) mine(ctx echo.Context) error {
	actor, err := getContextActor(ctx)
	if err != nil {
		return err
	}
	leaves, err := api.svc.ForEmployee(ctx.Request().Context(), actor.EmployeeID)
	if err != nil {
		return errors.Wrap(err, "querying leaves")
	}
	return ctx.JSON(http.StatusOK, leaves)
}

func (api *leaveApi) query(ctx echo.Context) error {
	actor, err := getContextActor(ctx)
	if err != nil {
		return err
	}
	leaves, err := api.svc.ForOrganization(ctx.Request().Context(), actor.OrganizationID)
	if err != nil {
		return errors.Wrap(err, "querying leaves")
	}
	return ctx.JSON(http.StatusOK, leaves)
}

func (api *leaveApi) pending(ctx echo.Context) error {
	actor, err := getContextActor(ctx)
	if err != nil {
		return err
	}
	leaves, err := api.svc.Pending(ctx.Request().Context(), actor.OrganizationID)
	if err != nil {
		return errors.Wrap(err, "querying pending leaves")
	}
	return ctx.JSON(http.StatusOK, leaves)
}

func (api *leaveApi) forEmployee(ctx echo.Context) error {
	actor, err := getContextActor(ctx)
	if err != nil {
		return err
	}
	id, err := pathID(ctx, "id")
	if err != nil {
		return err
	}
	leaves, err := api.svc.ForOrganizationEmployee(ctx.Request().Context(), actor.OrganizationID, id)
	if err != nil {
		return errors.Wrap(err, "querying employee leaves")
	}
	return ctx.JSON(http.StatusOK, leaves)
}

func (api *leaveApi) updateStatus(ctx echo.Context) error {
	actor, err := getContextActor(ctx)
	if err != nil {
		return err
	}
	id, err := pathID(ctx, "id")
	if err != nil {
		return err
	}
	var data leave.StatusUpdate
	if err := bind(ctx, api.validate, &data, "StatusUpdate"); err != nil {
		return err
	}

	lv, err := api.svc.UpdateStatus(ctx.Request().Context(), actor, id, data)
	if err != nil {
		return errors.Wrap(err, "updating leave status")
	}
	return ctx.JSON(http.StatusOK, lv)
}
