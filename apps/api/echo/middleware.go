package echoapi

import (
	"strconv"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"
	"github.com/ulule/limiter/v3"
	"github.com/ulule/limiter/v3/drivers/store/memory"

	"github.com/attendix/attendix/core"
)

// actorMiddleware derives the core.Actor of the request from the JWT claims.
func actorMiddleware() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(ctx echo.Context) error {
			claims, err := getContextClaims(ctx)
			if err != nil {
				return errors.Wrap(err, "getting context claims")
			}
			ctx.Set(contextActorKey, claims.Actor())
			return next(ctx)
		}
	}
}

func adminMiddleware() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(ctx echo.Context) error {
			actor, err := getContextActor(ctx)
			if err != nil {
				return err
			}
			if actor.IsAdmin() {
				return next(ctx)
			}
			return errHttpForbidden
		}
	}
}

// employeeMiddleware rejects actors that are not backed by an employee record.
func employeeMiddleware() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(ctx echo.Context) error {
			actor, err := getContextActor(ctx)
			if err != nil {
				return err
			}
			if actor.EmployeeID != 0 {
				return next(ctx)
			}
			return errHttpForbidden
		}
	}
}

// rateLimitMiddleware limits the requests per client IP, in memory.
func rateLimitMiddleware(conf core.RateLimitConfig) echo.MiddlewareFunc {
	instance := limiter.New(memory.NewStore(), limiter.Rate{Period: conf.AuthPeriod, Limit: conf.AuthLimit})

	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(ctx echo.Context) error {
			lctx, err := instance.Get(ctx.Request().Context(), ctx.RealIP())
			if err != nil {
				return errors.Wrap(err, "checking rate limit")
			}

			h := ctx.Response().Header()
			h.Set("X-RateLimit-Limit", strconv.FormatInt(lctx.Limit, 10))
			h.Set("X-RateLimit-Remaining", strconv.FormatInt(lctx.Remaining, 10))
			h.Set("X-RateLimit-Reset", strconv.FormatInt(lctx.Reset, 10))
			if lctx.Reached {
				return errTooManyRequests
			}
			return next(ctx)
		}
	}
}
