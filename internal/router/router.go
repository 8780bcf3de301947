package router // package router defines how HTTP routes are registered for the API

import (
	"github.com/labstack/echo/v4" // import the Echo web framework to handle routing
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/iliyamo/stadium-seat-reservation/internal/handler"
	"github.com/iliyamo/stadium-seat-reservation/internal/middleware"
	"github.com/iliyamo/stadium-seat-reservation/internal/repository"
)

// Deps are the handlers and middleware the routes are built from.
// Listings may be nil, in which case the listings are served uncached.
type Deps struct {
	JWTSecret string
	Users     repository.UserRepo // reloads the caller of each token
	Accounts  *handler.AccountHandler
	Venues    *handler.VenueHandler
	Teams     *handler.TeamHandler
	Matches   *handler.MatchHandler
	Health    *handler.HealthHandler
	Limiter   *middleware.RateLimiter
	Listings  *middleware.ListingCache
}

// RegisterRoutes registers every route of the API on e.  Operational
// endpoints sit at the root; the API lives under /v1 behind
// authentication and rate limiting.
func RegisterRoutes(e *echo.Echo, d Deps) {
	e.GET("/healthz", d.Health.Health)
	e.GET("/metrics", echo.WrapHandler(promhttp.Handler()))

	// Authenticate runs first so the limiter can key on the user.
	v1 := e.Group("/v1",
		middleware.Authenticate(d.JWTSecret, d.Users),
		d.Limiter.API(),
	)
	registerAccounts(v1, d.Accounts)
	registerVenues(v1, d.Venues, d.Listings)
	registerTeams(v1, d.Teams)
	registerMatches(v1, d.Matches, d.Limiter)
}
