package echoapi

import (
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/attendix/attendix/core/workspace"
)

type workspaceApi struct {
	svc      *workspace.Service
	validate *validator.Validate
}

func registerWorkspaceAPI(g *echo.Group, deps ServerDeps) {
	api := workspaceApi{svc: deps.WorkspaceSvc, validate: deps.Validate}

	g.GET("", api.query)
	g.POST("", api.create, adminMiddleware())
	g.GET("/mine", api.mine, employeeMiddleware())
}

func (api *workspaceApi) query(ctx echo.Context) error {
	actor, err := getContextActor(ctx)
	if err != nil {
		return err
	}
	wss, err := api.svc.List(ctx.Request().Context(), actor.OrganizationID)
	if err != nil {
		return errors.Wrap(err, "querying workspaces")
	}
	return ctx.JSON(http.StatusOK, wss)
}

func (api *workspaceApi) create(ctx echo.Context) error {
	actor, err := getContextActor(ctx)
	if err != nil {
		return err
	}
	var data workspace.NewWorkspace
	if err := bind(ctx, api.validate, &data, "NewWorkspace"); err != nil {
		return err
	}

	ws, err := api.svc.Create(ctx.Request().Context(), actor, data)
	if err != nil {
		return errors.Wrap(err, "creating workspace")
	}
	return ctx.JSON(http.StatusCreated, ws)
}

func (api *workspaceApi) mine(ctx echo.Context) error {
	actor, err := getContextActor(ctx)
	if err != nil {
		return err
	}
	wss, err := api.svc.ForEmployee(ctx.Request().Context(), actor.EmployeeID, actor.OrganizationID)
	if err != nil {
		return errors.Wrap(err, "querying workspaces")
	}
	return ctx.JSON(http.StatusOK, wss)
}
