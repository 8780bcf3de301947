package handler

import (
    "errors"
    "fmt"
    "net/http"

    "github.com/labstack/echo/v4"

    "github.com/iliyamo/stadium-seat-reservation/internal/middleware"
    "github.com/iliyamo/stadium-seat-reservation/internal/monitoring"
    "github.com/iliyamo/stadium-seat-reservation/internal/service"
)

// MatchHandler serves matches, their seat prices and reservations.
type MatchHandler struct {
    Scheduler *service.MatchScheduler
    Pricing   *service.SeatPricing
    Engine    *service.ReservationEngine
}

func NewMatchHandler(s *service.MatchScheduler, p *service.SeatPricing, e *service.ReservationEngine) *MatchHandler {
    return &MatchHandler{Scheduler: s, Pricing: p, Engine: e}
}

// createMatchReq carries the datetime as text so several layouts can be
// accepted.
type createMatchReq struct {
    StadiumID   uint64 `json:"stadium"`
    HostTeamID  uint64 `json:"host_team"`
    GuestTeamID uint64 `json:"guest_team"`
    Datetime    string `json:"datetime"`
}

// CreateMatch schedules a match and answers with its derived view.
func (h *MatchHandler) CreateMatch(c echo.Context) error {
    var req createMatchReq
    if err := c.Bind(&req); err != nil {
        return badBody(c)
    }
    at, err := service.ParseMatchDatetime(req.Datetime)
    if err != nil {
        return respondError(c, err)
    }
    ctx, cancel := withTimeout(c)
    defer cancel()

    d, err := h.Scheduler.CreateMatch(ctx, middleware.ActorFrom(c), service.MatchInput{
        StadiumID:   req.StadiumID,
        HostTeamID:  req.HostTeamID,
        GuestTeamID: req.GuestTeamID,
        Datetime:    at,
    })
    if err != nil {
        return respondError(c, err)
    }
    return c.JSON(http.StatusCreated, echo.Map{"match_info": service.NewMatchInfo(*d)})
}

// GetMatch returns the derived view of one match.
func (h *MatchHandler) GetMatch(c echo.Context) error {
    id, ok, err := pathID(c, "id")
    if !ok {
        return err
    }
    ctx, cancel := withTimeout(c)
    defer cancel()

    d, err := h.Scheduler.GetMatch(ctx, id)
    if err != nil {
        return respondError(c, err)
    }
    return c.JSON(http.StatusOK, echo.Map{"match_info": service.NewMatchInfo(*d)})
}

// PriceSeat sets the price of one seat for a match.
func (h *MatchHandler) PriceSeat(c echo.Context) error {
    var req service.SeatPriceInput
    if err := c.Bind(&req); err != nil {
        return badBody(c)
    }
    ctx, cancel := withTimeout(c)
    defer cancel()

    _, view, err := h.Pricing.PriceSeat(ctx, middleware.ActorFrom(c), req)
    if err != nil {
        return respondError(c, err)
    }
    monitoring.TrackPriced(1)
    return c.JSON(http.StatusCreated, echo.Map{"match_seat_info": view})
}

// BulkPriceSeats prices several seats of a match at once; either every
// seat is priced or none is.
func (h *MatchHandler) BulkPriceSeats(c echo.Context) error {
    var req service.BulkPriceInput
    if err := c.Bind(&req); err != nil {
        return badBody(c)
    }
    ctx, cancel := withTimeout(c)
    defer cancel()

    n, err := h.Pricing.BulkPriceSeats(ctx, middleware.ActorFrom(c), req)
    if err != nil {
        return respondError(c, err)
    }
    monitoring.TrackPriced(n)
    return c.JSON(http.StatusCreated, echo.Map{
        "message": fmt.Sprintf("%d seats were created successfully for the match", n),
    })
}

// ListMatchSeats returns the priced seats of a match with their state.
func (h *MatchHandler) ListMatchSeats(c echo.Context) error {
    id, ok, err := pathID(c, "id")
    if !ok {
        return err
    }
    ctx, cancel := withTimeout(c)
    defer cancel()

    seats, err := h.Pricing.ListMatchSeats(ctx, id)
    if err != nil {
        return respondError(c, err)
    }
    return c.JSON(http.StatusOK, items(seats))
}

// ReserveSeats reserves up to ten seats of the match for the caller.
func (h *MatchHandler) ReserveSeats(c echo.Context) error {
    id, ok, err := pathID(c, "id")
    if !ok {
        return err
    }
    var req service.SeatsInput
    if err := c.Bind(&req); err != nil {
        return badBody(c)
    }
    ctx, cancel := withTimeout(c)
    defer cancel()

    n, err := h.Engine.ReserveSeats(ctx, middleware.ActorFrom(c), id, req)
    if err != nil {
        monitoring.TrackReservationFailure(failureReason(err))
        return respondError(c, err)
    }
    monitoring.TrackReserved(n)
    return c.JSON(http.StatusAccepted, echo.Map{
        "message": fmt.Sprintf("%d seats were reserved successfully for the match", n),
    })
}

// MarkPaid records payment for reserved seats of the match.
func (h *MatchHandler) MarkPaid(c echo.Context) error {
    id, ok, err := pathID(c, "id")
    if !ok {
        return err
    }
    var req service.SeatsInput
    if err := c.Bind(&req); err != nil {
        return badBody(c)
    }
    ctx, cancel := withTimeout(c)
    defer cancel()

    n, err := h.Engine.MarkPaid(ctx, middleware.ActorFrom(c), id, req)
    if err != nil {
        return respondError(c, err)
    }
    return c.JSON(http.StatusAccepted, echo.Map{
        "message": fmt.Sprintf("%d seats were paid successfully for the match", n),
    })
}

// failureReason labels a rejected reservation for metrics.
func failureReason(err error) string {
    var ve *service.ValidationError
    switch {
    case errors.As(err, &ve):
        return string(ve.Code)
    case errors.Is(err, service.ErrNotFound):
        return "not_found"
    case errors.Is(err, service.ErrUnauthenticated), errors.Is(err, service.ErrForbidden):
        return "denied"
    }
    if _, ok := service.FieldMessages(err); ok {
        return "invalid_input"
    }
    return "error"
}
