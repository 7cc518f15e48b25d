package echoapi

import (
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/attendix/attendix/core/employee"
)

var employeeOrderingFields = []string{"id", "name", "email", "role", "status", "created_at"}

type employeeApi struct {
	svc      *employee.Service
	validate *validator.Validate
}

// registerEmployeeAPI expects g to be restricted to admins.
func registerEmployeeAPI(g *echo.Group, deps ServerDeps) {
	api := employeeApi{svc: deps.EmployeeSvc, validate: deps.Validate}

	g.GET("", api.query)
	g.POST("", api.create)

	// detail endpoints
	dg := g.Group("/:id", api.objectMiddleware())
	dg.GET("", api.retrieve)
	dg.PUT("", api.update)
	dg.GET("/activity", api.latestActivity)
}

// objectMiddleware loads the employee of the path, scoped to the admin's organization.
func (api *employeeApi) objectMiddleware() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(ctx echo.Context) error {
			actor, err := getContextActor(ctx)
			if err != nil {
				return err
			}
			id, err := pathID(ctx, "id")
			if err != nil {
				return err
			}
			emp, err := api.svc.Get(ctx.Request().Context(), actor.OrganizationID, id)
			if err != nil {
				return errors.Wrap(err, "finding employee")
			}
			ctx.Set("object", emp)
			return next(ctx)
		}
	}
}

func contextEmployee(ctx echo.Context) (employee.Employee, error) {
	emp, ok := ctx.Get("object").(employee.Employee)
	if !ok {
		return employee.Employee{}, errors.New("employee object not found in echo.Context")
	}
	return emp, nil
}

func (api *employeeApi) query(ctx echo.Context) error {
	actor, err := getContextActor(ctx)
	if err != nil {
		return err
	}
	ordering := new(Ordering)
	ordering.Bind(ctx, employeeOrderingFields...)

	emps, err := api.svc.List(ctx.Request().Context(), actor.OrganizationID, ordering.Orderings)
	if err != nil {
		return errors.Wrap(err, "querying employees")
	}
	return ctx.JSON(http.StatusOK, emps)
}

func (api *employeeApi) create(ctx echo.Context) error {
	actor, err := getContextActor(ctx)
	if err != nil {
		return err
	}
	var data employee.NewEmployee
	if err := bind(ctx, api.validate, &data, "NewEmployee"); err != nil {
		return err
	}

	emp, err := api.svc.Add(ctx.Request().Context(), actor, data)
	if err != nil {
		return errors.Wrap(err, "adding employee")
	}
	return ctx.JSON(http.StatusCreated, emp)
}

func (api *employeeApi) retrieve(ctx echo.Context) error {
	emp, err := contextEmployee(ctx)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, emp)
}

func (api *employeeApi) update(ctx echo.Context) error {
	emp, err := contextEmployee(ctx)
	if err != nil {
		return err
	}

	var data employee.UpdateEmployee
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to UpdateEmployee")
	}
	if err := data.Validate(emp, api.validate); err != nil {
		return err
	}

	emp, err = api.svc.Update(ctx.Request().Context(), emp, data)
	if err != nil {
		return errors.Wrap(err, "updating employee")
	}
	return ctx.JSON(http.StatusOK, emp)
}

func (api *employeeApi) latestActivity(ctx echo.Context) error {
	emp, err := contextEmployee(ctx)
	if err != nil {
		return err
	}
	feed, err := api.svc.LatestActivity(ctx.Request().Context(), emp.ID)
	if err != nil {
		return errors.Wrap(err, "querying latest activity")
	}
	return ctx.JSON(http.StatusOK, feed)
}
