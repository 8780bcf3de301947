package router

import (
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/stadium-seat-reservation/internal/handler"
	"github.com/iliyamo/stadium-seat-reservation/internal/middleware"
)

// registerAccounts maps the account endpoints.  Register and login are
// for anonymous callers only; token refresh and verify accept anyone.
func registerAccounts(g *echo.Group, a *handler.AccountHandler) {
	g.POST("/accounts/register", a.Register, middleware.RequireAnonymous())
	g.POST("/accounts/login", a.Login, middleware.RequireAnonymous())
	g.POST("/accounts/token/refresh", a.Refresh)
	g.POST("/accounts/token/verify", a.Verify)
}
