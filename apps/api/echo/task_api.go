package echoapi

import (
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/attendix/attendix/core/task"
)

type taskApi struct {
	svc      *task.Service
	validate *validator.Validate
}

func registerTaskAPI(g *echo.Group, deps ServerDeps) {
	api := taskApi{svc: deps.TaskSvc, validate: deps.Validate}

	g.POST("", api.create, employeeMiddleware())
	g.GET("/my", api.mine, employeeMiddleware())
	g.PUT("/status", api.updateStatus)
	g.DELETE("/:id", api.destroy)

	g.GET("", api.query, adminMiddleware())
	g.POST("/assign", api.assign, adminMiddleware())
}

func (api *taskApi) create(ctx echo.Context) error {
	actor, err := getContextActor(ctx)
	if err != nil {
		return err
	}
	var data task.CreateTask
	if err := bind(ctx, api.validate, &data, "CreateTask"); err != nil {
		return err
	}

	tasks, err := api.svc.Create(ctx.Request().Context(), actor, data)
	if err != nil {
		return errors.Wrap(err, "creating tasks")
	}
	return ctx.JSON(http.StatusCreated, task.BatchResult{Count: len(tasks), Tasks: tasks})
}

func (api *taskApi) assign(ctx echo.Context) error {
	actor, err := getContextActor(ctx)
	if err != nil {
		return err
	}
	var data task.AssignTask
	if err := bind(ctx, api.validate, &data, "AssignTask"); err != nil {
		return err
	}

	tasks, err := api.svc.Assign(ctx.Request().Context(), actor, data)
	if err != nil {
		return errors.Wrap(err, "assigning tasks")
	}
	return ctx.JSON(http.StatusCreated, task.BatchResult{Count: len(tasks), Tasks: tasks})
}

func (api *taskApi) mine(ctx echo.Context) error {
	actor, err := getContextActor(ctx)
	if err != nil {
		return err
	}
	tasks, err := api.svc.ForEmployee(ctx.Request().Context(), actor.EmployeeID)
	if err != nil {
		return errors.Wrap(err, "querying tasks")
	}
	return ctx.JSON(http.StatusOK, tasks)
}

func (api *taskApi) query(ctx echo.Context) error {
	actor, err := getContextActor(ctx)
	if err != nil {
		return err
	}
	var filter task.Filter
	if err := bind(ctx, api.validate, &filter, "Filter"); err != nil {
		return err
	}

	groups, err := api.svc.ForOrganization(ctx.Request().Context(), actor.OrganizationID, filter)
	if err != nil {
		return errors.Wrap(err, "querying tasks")
	}
	return ctx.JSON(http.StatusOK, groups)
}

func (api *taskApi) updateStatus(ctx echo.Context) error {
	actor, err := getContextActor(ctx)
	if err != nil {
		return err
	}
	var data task.StatusUpdate
	if err := bind(ctx, api.validate, &data, "StatusUpdate"); err != nil {
		return err
	}

	t, err := api.svc.UpdateStatus(ctx.Request().Context(), actor, data)
	if err != nil {
		return errors.Wrap(err, "updating task status")
	}
	return ctx.JSON(http.StatusOK, t)
}

func (api *taskApi) destroy(ctx echo.Context) error {
	actor, err := getContextActor(ctx)
	if err != nil {
		return err
	}
	id, err := pathID(ctx, "id")
	if err != nil {
		return err
	}

	t, err := api.svc.Delete(ctx.Request().Context(), actor, id)
	if err != nil {
		return errors.Wrap(err, "deleting task")
	}
	return ctx.JSON(http.StatusOK, t)
}
