package model

import (
    "fmt"
    "time"
)

// Match is a fixture between two distinct teams at a stadium.  A
// stadium hosts at most one match at a given datetime.
//
// Fields:
//  ID          – primary key identifier.
//  StadiumID   – stadium where the match is played.
//  HostTeamID  – home team.
//  GuestTeamID – visiting team (never equal to HostTeamID).
//  Datetime    – kick-off time, stored in UTC.
type Match struct {
    ID          uint64    // matches.id
    StadiumID   uint64    // matches.stadium_id
    HostTeamID  uint64    // matches.host_team_id
    GuestTeamID uint64    // matches.guest_team_id
    Datetime    time.Time // matches.datetime
}

// MatchDetail is a match joined with the names of its stadium and
// teams.  It is what read paths and derived views work from.
type MatchDetail struct {
    Match
    StadiumName   string
    HostTeamName  string
    GuestTeamName string
}

// Title renders "Host : <host>, Guest : <guest>".
func (m MatchDetail) Title() string {
    return fmt.Sprintf("Host : %s, Guest : %s", m.HostTeamName, m.GuestTeamName)
}
