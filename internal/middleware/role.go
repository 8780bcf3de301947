package middleware // middleware provides shared request processing for handlers

import (
    "errors"
    "net/http" // http package defines standard HTTP status codes

    "github.com/labstack/echo/v4" // echo provides middleware chaining and context

    "github.com/iliyamo/stadium-seat-reservation/internal/service"
)

// RequireCapability aborts requests whose actor lacks capability want:
// anonymous callers get 401 and under-privileged ones 403.  It must run
// after Authenticate.
func RequireCapability(want service.Capability) echo.MiddlewareFunc {
    return func(next echo.HandlerFunc) echo.HandlerFunc {
        return func(c echo.Context) error {
            if err := ActorFrom(c).Require(want); err != nil {
                return denied(c, err)
            }
            return next(c)
        }
    }
}

// RequireAnonymous aborts requests that carry an identity with 403.
func RequireAnonymous() echo.MiddlewareFunc {
    return func(next echo.HandlerFunc) echo.HandlerFunc {
        return func(c echo.Context) error {
            if err := ActorFrom(c).RequireAnonymous(); err != nil {
                return denied(c, err)
            }
            return next(c)
        }
    }
}

func denied(c echo.Context, err error) error {
    if errors.Is(err, service.ErrUnauthenticated) {
        return c.JSON(http.StatusUnauthorized, echo.Map{"detail": "Authentication credentials were not provided."})
    }
    return c.JSON(http.StatusForbidden, echo.Map{"detail": "You do not have permission to perform this action."})
}
