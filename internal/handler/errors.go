package handler

import (
    "context"
    "errors"
    "net/http"
    "strconv"
    "time"

    "github.com/labstack/echo/v4"

    "github.com/iliyamo/stadium-seat-reservation/internal/service"
)

// dbTimeout bounds the storage work of a single request.
const dbTimeout = 5 * time.Second

// respondError writes the HTTP response for an error returned by the
// service layer.  Validation failures become 400 with a field -> messages
// map; unexpected errors are logged and hidden behind a 500.
func respondError(c echo.Context, err error) error {
    if fields, ok := service.FieldMessages(err); ok {
        return c.JSON(http.StatusBadRequest, fields)
    }
    switch {
    case errors.Is(err, service.ErrNotFound):
        return c.JSON(http.StatusNotFound, echo.Map{"detail": "Not found."})
    case errors.Is(err, service.ErrUnauthenticated):
        return c.JSON(http.StatusUnauthorized, echo.Map{"detail": "Authentication credentials were not provided."})
    case errors.Is(err, service.ErrInvalidCredentials):
        return c.JSON(http.StatusUnauthorized, echo.Map{"detail": service.ErrInvalidCredentials.Error()})
    case errors.Is(err, service.ErrForbidden):
        return c.JSON(http.StatusForbidden, echo.Map{"detail": "You do not have permission to perform this action."})
    case errors.Is(err, service.ErrBusy):
        return c.JSON(http.StatusConflict, echo.Map{"detail": service.ErrBusy.Error()})
    case errors.Is(err, context.DeadlineExceeded):
        c.Logger().Warnf("%s %s: %v", c.Request().Method, c.Path(), err)
        return c.JSON(http.StatusServiceUnavailable, echo.Map{"detail": "request timed out"})
    }
    c.Logger().Errorf("%s %s: %v", c.Request().Method, c.Path(), err)
    return c.JSON(http.StatusInternalServerError, echo.Map{"detail": "internal server error"})
}

// badBody answers a request whose JSON body could not be decoded.
func badBody(c echo.Context) error {
    return c.JSON(http.StatusBadRequest, echo.Map{"detail": "JSON parse error"})
}

// pathID reads a positive integer path parameter.  ok is false when the
// value is not one, in which case a 404 has already been written.
func pathID(c echo.Context, name string) (uint64, bool, error) {
    id, err := strconv.ParseUint(c.Param(name), 10, 64)
    if err != nil || id == 0 {
        return 0, false, c.JSON(http.StatusNotFound, echo.Map{"detail": "Not found."})
    }
    return id, true, nil
}

func withTimeout(c echo.Context) (context.Context, context.CancelFunc) {
    return context.WithTimeout(c.Request().Context(), dbTimeout)
}

// items wraps a list response; nil slices are sent as [].
func items[T any](list []T) echo.Map {
    if list == nil {
        list = []T{}
    }
    return echo.Map{"items": list}
}
