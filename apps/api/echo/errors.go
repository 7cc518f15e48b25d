package echoapi

import (
	"net/http"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/pkg/errors"

	"github.com/attendix/attendix/core"
	"github.com/attendix/attendix/core/attendance"
	"github.com/attendix/attendix/core/employee"
	"github.com/attendix/attendix/core/leave"
	"github.com/attendix/attendix/core/task"
	"github.com/attendix/attendix/core/user"
)

var (
	errUnauthorized       = echo.NewHTTPError(http.StatusUnauthorized, "user not authenticated")
	errAccountDeactivated = echo.NewHTTPError(http.StatusForbidden, "account deactivated")
	errRefreshExpired     = echo.NewHTTPError(http.StatusForbidden, "refresh has expired")
	errHttpForbidden      = echo.NewHTTPError(http.StatusForbidden, "permission denied")
	errHttpNotFound       = echo.NewHTTPError(http.StatusNotFound, "not found")
	errTooManyRequests    = echo.NewHTTPError(http.StatusTooManyRequests, "too many requests, please try again later")
)

// statusOf maps the sentinel errors of the core packages to an HTTP status, 0 when unknown.
func statusOf(err error) int {
	switch err {
	case core.ErrForbidden, user.ErrAccountDeactivated, task.ErrNotOwner:
		return http.StatusForbidden
	case user.ErrInvalidCredentials:
		return http.StatusUnauthorized
	case core.ErrNotFound, user.ErrNotFound, employee.ErrNotFound, attendance.ErrNotFound,
		leave.ErrNotFound, task.ErrNotFound:
		return http.StatusNotFound
	}
	return 0
}

// newAppHTTPErrorHandler returns a custom echo.HTTPErrorHandler that knows how to handle our errors.
// signalShutdown is called in order to gracefully shutdown the Server whenever a core.shutdown error is caught.
func newAppHTTPErrorHandler(logger core.Logger, translator ut.Translator, signalShutdown func()) echo.HTTPErrorHandler {
	return func(err error, ctx echo.Context) {
		var code int
		var message interface{}

		var (
			httpErr     *echo.HTTPError
			valErr      *core.ValidationError
			conflictErr *core.ConflictError
			abortedErr  *task.TransactionAbortedError
			fieldErrs   validator.ValidationErrors
		)
		cause := errors.Cause(err)

		switch {
		case errors.As(err, &httpErr):
			if httpErr == middleware.ErrJWTMissing {
				code = http.StatusUnauthorized
				message = httpErr.Message
				break
			}
			if herr, ok := httpErr.Internal.(*echo.HTTPError); ok {
				httpErr = herr
			}
			code = httpErr.Code
			message = httpErr.Message
		case errors.As(err, &fieldErrs):
			flds := make(map[string]string, len(fieldErrs))
			for _, fErr := range fieldErrs {
				flds[fErr.Field()] = fErr.Translate(translator)
			}
			code = http.StatusBadRequest
			message = flds
		case errors.As(err, &valErr):
			if valErr.Fields != nil {
				flds := make(map[string]string, len(valErr.Fields))
				for _, fErr := range valErr.Fields {
					flds[fErr.Field] = fErr.Error
				}
				message = flds
			} else {
				message = valErr.Error()
			}
			code = http.StatusBadRequest
		case errors.As(err, &conflictErr):
			code = http.StatusConflict
			message = conflictErr.Error()
		case statusOf(cause) != 0:
			code = statusOf(cause)
			message = cause.Error()
		default: // any other error is a server error
			code = http.StatusInternalServerError
			msg := http.StatusText(http.StatusInternalServerError)
			message = msg
			if errors.As(err, &abortedErr) {
				message = "failed to create tasks, nothing was saved"
			}

			args := []interface{}{errors.Wrap(err, msg)}
			if actor, aErr := getContextActor(ctx); aErr == nil {
				args = append(args, actor)
			}
			logger.Error(msg, args...)

			// shutting down...
			if core.IsShutdown(err) {
				signalShutdown()
			}
		}

		if ctx.Echo().Debug && code == http.StatusInternalServerError {
			message = err.Error()
		}
		if m, ok := message.(string); ok {
			message = echo.Map{"error": m}
		}

		// Send response
		if !ctx.Response().Committed {
			if ctx.Request().Method == http.MethodHead { // Issue #608
				err = ctx.NoContent(code)
			} else {
				err = ctx.JSON(code, message)
			}
			if err != nil {
				logger.Error("sending error response", err)
			}
		}
	}
}
