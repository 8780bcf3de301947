package model

// Team is a club that can host or visit a match.  Names are unique.
type Team struct {
    ID   uint64 `json:"id"`   // teams.id
    Name string `json:"name"` // teams.name
}
