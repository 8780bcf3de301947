package mysqlrepo

import (
	"database/sql"

	"github.com/iliyamo/stadium-seat-reservation/internal/repository"
)

// New builds all repositories on db.
func New(db *sql.DB) repository.Repos {
	return repository.Repos{
		Stadiums:  NewStadiumRepo(db),
		Seats:     NewSeatRepo(db),
		Teams:     NewTeamRepo(db),
		Matches:   NewMatchRepo(db),
		SeatInfos: NewSeatInfoRepo(db),
		Users:     NewUserRepo(db),
		Tokens:    NewTokenRepo(db),
	}
}
