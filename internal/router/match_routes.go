package router

import (
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/stadium-seat-reservation/internal/handler"
	"github.com/iliyamo/stadium-seat-reservation/internal/middleware"
	"github.com/iliyamo/stadium-seat-reservation/internal/service"
)

// registerMatches maps match, pricing and reservation endpoints.  The
// static /matches/seats paths take precedence over /matches/:id in
// echo's router.  Reservations sit behind a per-user bucket on top of
// the API limit.
func registerMatches(g *echo.Group, m *handler.MatchHandler, limiter *middleware.RateLimiter) {
	admin := middleware.RequireCapability(service.Admin)
	user := middleware.RequireCapability(service.Authenticated)

	g.POST("/matches", m.CreateMatch, admin)
	g.GET("/matches/:id", m.GetMatch)

	g.POST("/matches/seats", m.PriceSeat, admin)
	g.POST("/matches/seats/bulk", m.BulkPriceSeats, admin)
	g.GET("/matches/:id/seats", m.ListMatchSeats)

	g.PUT("/matches/:id/reservations", m.ReserveSeats, user, limiter.Reserve())
	g.PUT("/matches/:id/payments", m.MarkPaid, admin)
}
