package middleware

import (
    "time"

    "github.com/labstack/echo/v4"

    "github.com/iliyamo/stadium-seat-reservation/internal/monitoring"
)

// Metrics records the count and latency of every routed request.
// Unmatched paths are reported under the "unmatched" route so that
// random URLs do not grow the label set.
func Metrics() echo.MiddlewareFunc {
    return func(next echo.HandlerFunc) echo.HandlerFunc {
        return func(c echo.Context) error {
            start := time.Now()
            err := next(c)
            if err != nil {
                // let the error handler write the status first
                c.Error(err)
            }
            route := c.Path()
            if route == "" {
                route = "unmatched"
            }
            monitoring.TrackRequest(c.Request().Method, route, c.Response().Status, time.Since(start))
            return nil
        }
    }
}
