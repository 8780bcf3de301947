package model

import "fmt"

// Seat is a physical seat inside a stadium.  A stadium can't have two
// seats with the same code.
//
// Fields:
//  ID        – primary key identifier.
//  StadiumID – stadium to which this seat belongs.
//  Code      – short code printed on the seat (at most 8 characters).
type Seat struct {
    ID        uint64 `json:"id"`         // seats.id
    StadiumID uint64 `json:"stadium_id"` // seats.stadium_id
    Code      string `json:"code"`       // seats.code
}

// Label renders the seat together with its stadium name, e.g.
// "Code : n256 - Stadium : Azadi".
func (s Seat) Label(stadiumName string) string {
    return fmt.Sprintf("Code : %s - Stadium : %s", s.Code, stadiumName)
}
