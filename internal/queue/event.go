// Package queue defines message payloads exchanged over the message broker.
package queue

import (
    "time"

    "github.com/iliyamo/stadium-seat-reservation/internal/service"
)

// SeatsReservedEvent is published after a reservation commits.  It carries
// enough of the match for consumers to log or notify without querying the
// primary database.
type SeatsReservedEvent struct {
    MatchID    uint64   `json:"match_id"`
    Match      string   `json:"match"`
    StadiumID  uint64   `json:"stadium_id"`
    Stadium    string   `json:"stadium"`
    Date       string   `json:"date"`
    Time       string   `json:"time"`
    BuyerID    uint64   `json:"buyer_id"`
    SeatIDs    []uint64 `json:"seat_ids"`
    ReservedAt string   `json:"reserved_at"`
}

// NewSeatsReservedEvent builds the event of a committed reservation.
func NewSeatsReservedEvent(r service.Reservation) SeatsReservedEvent {
    info := service.NewMatchInfo(r.Match)
    return SeatsReservedEvent{
        MatchID:    r.Match.ID,
        Match:      r.Match.Title(),
        StadiumID:  r.Match.StadiumID,
        Stadium:    info.Stadium,
        Date:       info.Date,
        Time:       info.Time,
        BuyerID:    r.BuyerID,
        SeatIDs:    r.SeatIDs,
        ReservedAt: r.ReservedAt.UTC().Format(time.RFC3339),
    }
}
