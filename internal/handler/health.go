package handler // declare the package name; contains HTTP handlers

import (
    "context"
    "net/http" // net/http provides status codes and response helpers
    "time"

    "github.com/labstack/echo/v4" // echo is the web framework used for this project
)

// Check reports whether a dependency is reachable.
type Check func(ctx context.Context) error

// HealthHandler answers the health-check endpoint used by load balancers
// and monitoring systems.
type HealthHandler struct {
    Checks map[string]Check
}

func NewHealthHandler(checks map[string]Check) *HealthHandler { return &HealthHandler{Checks: checks} }

// Health runs every check with a short deadline.  It answers 200 when all
// pass and 503 listing the failing ones otherwise.
func (h *HealthHandler) Health(c echo.Context) error {
    ctx, cancel := context.WithTimeout(c.Request().Context(), 2*time.Second)
    defer cancel()

    failed := map[string]string{}
    for name, check := range h.Checks {
        if err := check(ctx); err != nil {
            failed[name] = err.Error()
        }
    }
    if len(failed) > 0 {
        return c.JSON(http.StatusServiceUnavailable, echo.Map{"status": "unavailable", "failed": failed})
    }
    return c.JSON(http.StatusOK, echo.Map{"status": "ok"})
}
