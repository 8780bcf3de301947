package model

import "time"

// MatchSeatInfo binds a seat to a match with a price and carries the
// reservation and payment state of that seat for the match.
//
// The row moves through priced -> reserved -> paid and never back.
// IsReserved and DateReserved are always set together; IsPaid implies
// IsReserved.
//
// Fields:
//  ID           – primary key identifier.
//  MatchID      – match for which the seat is sold.
//  SeatID       – seat being sold (must belong to the match's stadium).
//  Price        – non-negative price in the smallest currency unit.
//  BuyerID      – user who reserved the seat (nil until reserved).
//  IsReserved   – whether the seat is reserved.
//  IsPaid       – whether the reservation is paid.
//  DateReserved – when the seat was reserved (nil until reserved).
type MatchSeatInfo struct {
    ID           uint64     // match_seat_infos.id
    MatchID      uint64     // match_seat_infos.match_id
    SeatID       uint64     // match_seat_infos.seat_id
    Price        uint64     // match_seat_infos.price
    BuyerID      *uint64    // match_seat_infos.buyer_id (nullable)
    IsReserved   bool       // match_seat_infos.is_reserved
    IsPaid       bool       // match_seat_infos.is_paid
    DateReserved *time.Time // match_seat_infos.date_reserved (nullable)
}

// Consistent reports whether the reservation/payment flags agree with
// each other.
func (m MatchSeatInfo) Consistent() bool {
    if m.IsReserved != (m.DateReserved != nil) {
        return false
    }
    if m.IsPaid && !m.IsReserved {
        return false
    }
    return true
}

// SeatAvailability is a MatchSeatInfo joined with its seat code, used
// by the public seat listing of a match.
type SeatAvailability struct {
    SeatID     uint64 `json:"seat_id"`
    Code       string `json:"code"`
    Price      uint64 `json:"price"`
    IsReserved bool   `json:"is_reserved"`
    IsPaid     bool   `json:"is_paid"`
}
