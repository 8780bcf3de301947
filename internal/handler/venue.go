package handler

import (
    "net/http"

    "github.com/labstack/echo/v4"

    "github.com/iliyamo/stadium-seat-reservation/internal/middleware"
    "github.com/iliyamo/stadium-seat-reservation/internal/service"
)

// VenueHandler serves stadiums and their seats.
type VenueHandler struct {
    Catalog *service.VenueCatalog
}

func NewVenueHandler(cat *service.VenueCatalog) *VenueHandler { return &VenueHandler{Catalog: cat} }

// CreateStadium registers a stadium; its slug is derived from the name.
func (h *VenueHandler) CreateStadium(c echo.Context) error {
    var req service.StadiumInput
    if err := c.Bind(&req); err != nil {
        return badBody(c)
    }
    ctx, cancel := withTimeout(c)
    defer cancel()

    st, err := h.Catalog.CreateStadium(ctx, middleware.ActorFrom(c), req)
    if err != nil {
        return respondError(c, err)
    }
    return c.JSON(http.StatusCreated, echo.Map{"name": st.Name, "slug": st.Slug})
}

// ListStadiums returns every stadium.
func (h *VenueHandler) ListStadiums(c echo.Context) error {
    ctx, cancel := withTimeout(c)
    defer cancel()

    list, err := h.Catalog.ListStadiums(ctx)
    if err != nil {
        return respondError(c, err)
    }
    return c.JSON(http.StatusOK, items(list))
}

// CreateSeat adds a seat to the stadium in the path.
func (h *VenueHandler) CreateSeat(c echo.Context) error {
    stadiumID, ok, err := pathID(c, "id")
    if !ok {
        return err
    }
    var req service.SeatInput
    if err := c.Bind(&req); err != nil {
        return badBody(c)
    }
    req.StadiumID = stadiumID
    ctx, cancel := withTimeout(c)
    defer cancel()

    seat, err := h.Catalog.CreateSeat(ctx, middleware.ActorFrom(c), req)
    if err != nil {
        return respondError(c, err)
    }
    return c.JSON(http.StatusCreated, seat)
}

// ListSeats returns the seats of the stadium in the path.
func (h *VenueHandler) ListSeats(c echo.Context) error {
    stadiumID, ok, err := pathID(c, "id")
    if !ok {
        return err
    }
    ctx, cancel := withTimeout(c)
    defer cancel()

    seats, err := h.Catalog.ListSeats(ctx, stadiumID)
    if err != nil {
        return respondError(c, err)
    }
    return c.JSON(http.StatusOK, items(seats))
}
