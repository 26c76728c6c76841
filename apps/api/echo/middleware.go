package echoapi

import (
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/academia/lms/core"
)

// roleMiddleware lets through the principals holding one of roles.
func roleMiddleware(roles ...string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(ctx echo.Context) error {
			p, err := getContextPrincipal(ctx)
			if err != nil {
				return errors.Wrap(err, "getting context principal")
			}
			if p.HasAnyRole(roles...) {
				return next(ctx)
			}
			return errHttpForbidden
		}
	}
}

// rateLimitMiddleware throttles requests per authenticated user, or per client IP on public routes.
// Requests go through when limiter is nil or unavailable.
func rateLimitMiddleware(limiter core.RateLimiter, logger core.Logger, name string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		if limiter == nil {
			return next
		}
		return func(ctx echo.Context) error {
			ok, retryAfter, err := limiter.Allow(ctx.Request().Context(), rateLimitKey(ctx, name))
			if err != nil {
				logger.Warn("rate limiter unavailable", errors.Wrap(err, "checking rate limit"))
				return next(ctx)
			}
			if !ok {
				secs := int(retryAfter / time.Second)
				if secs < 1 {
					secs = 1
				}
				ctx.Response().Header().Set("Retry-After", strconv.Itoa(secs))
				return errTooManyRequest
			}
			return next(ctx)
		}
	}
}

func rateLimitKey(ctx echo.Context, name string) string {
	if p, err := getContextPrincipal(ctx); err == nil {
		return name + ":user:" + p.ID
	}
	return name + ":ip:" + ctx.RealIP()
}

// principalMiddleware rejects tokens which do not identify a user.
func principalMiddleware(next echo.HandlerFunc) echo.HandlerFunc {
	return func(ctx echo.Context) error {
		if _, err := getContextPrincipal(ctx); err != nil {
			return err
		}
		return next(ctx)
	}
}

func home(ctx echo.Context) error {
	return ctx.JSON(http.StatusOK, echo.Map{"message": "Welcome to Academia API!"})
}
