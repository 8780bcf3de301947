package router

import (
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/stadium-seat-reservation/internal/handler"
	"github.com/iliyamo/stadium-seat-reservation/internal/middleware"
	"github.com/iliyamo/stadium-seat-reservation/internal/service"
)

// registerVenues maps stadium and seat endpoints.  The public listings
// are served through the listing cache; the venue catalog drops the
// entries its writes make stale.
func registerVenues(g *echo.Group, v *handler.VenueHandler, listings *middleware.ListingCache) {
	admin := middleware.RequireCapability(service.Admin)

	g.POST("/stadiums", v.CreateStadium, admin)
	g.GET("/stadiums", v.ListStadiums, listings.Stadiums())
	g.POST("/stadiums/:id/seats", v.CreateSeat, admin)
	g.GET("/stadiums/:id/seats", v.ListSeats, listings.Seats())
}

// registerTeams maps team endpoints.
func registerTeams(g *echo.Group, t *handler.TeamHandler) {
	g.POST("/teams", t.CreateTeam, middleware.RequireCapability(service.Admin))
	g.GET("/teams", t.ListTeams)
}
