package model

import "time"

// Stadium is a venue that owns a set of seats.  The slug is derived
// from the name every time the stadium is saved and is unique across
// all stadiums.
//
// Fields:
//  ID        – primary key identifier.
//  Name      – unique display name.
//  Slug      – URL-safe form of Name.
//  CreatedAt – creation timestamp.
type Stadium struct {
    ID        uint64    `json:"id"`   // stadiums.id
    Name      string    `json:"name"` // stadiums.name
    Slug      string    `json:"slug"` // stadiums.slug
    CreatedAt time.Time `json:"-"`    // stadiums.created_at
}

// String returns the stadium name.
func (s Stadium) String() string { return s.Name }
