package middleware

// identity.go holds the helpers that read the caller established by
// Authenticate back out of the Echo context.

import (
    "github.com/labstack/echo/v4"

    "github.com/iliyamo/stadium-seat-reservation/internal/service"
)

// ActorFrom returns the actor stored by Authenticate, or the anonymous
// actor when the middleware did not run.
func ActorFrom(c echo.Context) service.Actor {
    if a, ok := c.Get(ctxActor).(service.Actor); ok {
        return a
    }
    return service.AnonymousActor
}

// userID returns the caller's id as a string for rate limit keys, or
// "anon" for anonymous callers.
func userID(c echo.Context) string {
    if s, ok := c.Get(ctxUserID).(string); ok && s != "" {
        return s
    }
    return "anon"
}
