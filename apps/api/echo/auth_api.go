package echoapi

import (
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/attendix/attendix/core"
	"github.com/attendix/attendix/core/user"
)

type authApi struct {
	conf     *core.Config
	svc      *user.Service
	validate *validator.Validate
}

type LoginResponse struct {
	Token string    `json:"token"`
	User  user.User `json:"user"`
}

type TokenResponse struct {
	Token string `json:"token"`
}

func registerAuthAPI(g *echo.Group, jwt, rateLimit echo.MiddlewareFunc, deps ServerDeps) {
	api := authApi{
		conf:     deps.Conf,
		svc:      deps.UserSvc,
		validate: deps.Validate,
	}

	// un-authed endpoints
	g.POST("/admin-login", api.adminLogin, rateLimit)
	g.POST("/employee-login", api.employeeLogin, rateLimit)
	g.GET("/organizations-by-phone", api.organizationsByPhone, rateLimit)

	// authed endpoints
	g.POST("/token-refresh", api.refreshToken, jwt)
}

func (api *authApi) respondWithToken(ctx echo.Context, usr user.User) error {
	token, err := GenerateToken(api.conf, GetUserClaims(api.conf, usr))
	if err != nil {
		return errors.Wrap(err, "generating token")
	}
	return ctx.JSON(http.StatusOK, LoginResponse{Token: token, User: usr})
}

func (api *authApi) adminLogin(ctx echo.Context) error {
	var data user.AdminLogin
	if err := bind(ctx, api.validate, &data, "AdminLogin"); err != nil {
		return err
	}

	usr, err := api.svc.LoginAdmin(ctx.Request().Context(), data)
	if err != nil {
		return errors.Wrap(err, "authenticating admin")
	}
	return api.respondWithToken(ctx, usr)
}

func (api *authApi) employeeLogin(ctx echo.Context) error {
	var data user.EmployeeLogin
	if err := bind(ctx, api.validate, &data, "EmployeeLogin"); err != nil {
		return err
	}

	usr, err := api.svc.LoginEmployee(ctx.Request().Context(), data)
	if err != nil {
		return errors.Wrap(err, "authenticating employee")
	}
	return api.respondWithToken(ctx, usr)
}

func (api *authApi) organizationsByPhone(ctx echo.Context) error {
	var data user.PhoneLookup
	if err := bind(ctx, api.validate, &data, "PhoneLookup"); err != nil {
		return err
	}

	orgs, err := api.svc.OrganizationsByPhone(ctx.Request().Context(), data.Phone)
	if err != nil {
		return errors.Wrap(err, "querying organizations")
	}
	return ctx.JSON(http.StatusOK, orgs)
}

func (api *authApi) refreshToken(ctx echo.Context) error {
	token, err := refreshToken(ctx, api.conf, api.svc)
	if err != nil {
		return errors.Wrap(err, "refreshing token")
	}
	return ctx.JSON(http.StatusOK, TokenResponse{Token: token})
}
