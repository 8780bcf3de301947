package handler

import (
    "net/http"

    "github.com/labstack/echo/v4"

    "github.com/iliyamo/stadium-seat-reservation/internal/middleware"
    "github.com/iliyamo/stadium-seat-reservation/internal/service"
)

// TeamHandler serves teams.
type TeamHandler struct {
    Registry *service.TeamRegistry
}

func NewTeamHandler(r *service.TeamRegistry) *TeamHandler { return &TeamHandler{Registry: r} }

func (h *TeamHandler) CreateTeam(c echo.Context) error {
    var req service.TeamInput
    if err := c.Bind(&req); err != nil {
        return badBody(c)
    }
    ctx, cancel := withTimeout(c)
    defer cancel()

    team, err := h.Registry.CreateTeam(ctx, middleware.ActorFrom(c), req)
    if err != nil {
        return respondError(c, err)
    }
    return c.JSON(http.StatusCreated, team)
}

func (h *TeamHandler) ListTeams(c echo.Context) error {
    ctx, cancel := withTimeout(c)
    defer cancel()

    teams, err := h.Registry.ListTeams(ctx)
    if err != nil {
        return respondError(c, err)
    }
    return c.JSON(http.StatusOK, items(teams))
}
