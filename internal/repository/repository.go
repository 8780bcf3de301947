package repository

import (
	"context"
	"time"

	"github.com/iliyamo/stadium-seat-reservation/internal/model"
)

// StadiumRepo persists stadiums.
type StadiumRepo interface {
	Create(ctx context.Context, s *model.Stadium) error
	GetByID(ctx context.Context, id uint64) (*model.Stadium, error)
	ExistsByName(ctx context.Context, name string) (bool, error)
	ExistsBySlug(ctx context.Context, slug string) (bool, error)
	List(ctx context.Context) ([]model.Stadium, error)
}

// SeatRepo persists seats of stadiums.
type SeatRepo interface {
	Create(ctx context.Context, s *model.Seat) error
	GetByID(ctx context.Context, id uint64) (*model.Seat, error)
	ExistsByCode(ctx context.Context, stadiumID uint64, code string) (bool, error)
	ListByStadium(ctx context.Context, stadiumID uint64) ([]model.Seat, error)
}

// TeamRepo persists teams.
type TeamRepo interface {
	Create(ctx context.Context, t *model.Team) error
	GetByID(ctx context.Context, id uint64) (*model.Team, error)
	ExistsByName(ctx context.Context, name string) (bool, error)
	List(ctx context.Context) ([]model.Team, error)
}

// MatchRepo persists matches.
type MatchRepo interface {
	Create(ctx context.Context, m *model.Match) error
	GetDetail(ctx context.Context, id uint64) (*model.MatchDetail, error)
	ExistsFixture(ctx context.Context, stadiumID uint64, at time.Time) (bool, error)
}

// SeatInfoRepo persists MatchSeatInfo rows.  Multi-row operations go
// through Atomic so that their checks and writes share one transaction.
type SeatInfoRepo interface {
	Create(ctx context.Context, info *model.MatchSeatInfo) error
	Exists(ctx context.Context, matchID, seatID uint64) (bool, error)
	ListByMatch(ctx context.Context, matchID uint64) ([]model.SeatAvailability, error)
	// Atomic runs fn inside a transaction.  The transaction commits when
	// fn returns nil and rolls back otherwise.
	Atomic(ctx context.Context, fn func(tx SeatInfoTx) error) error
}

// SeatInfoTx is the set of operations available inside Atomic.  Reads
// lock the rows they touch until the transaction ends.
type SeatInfoTx interface {
	// CountPriced returns how many of seatIDs already have a row for the match.
	CountPriced(ctx context.Context, matchID uint64, seatIDs []uint64) (int, error)
	// CountReserved returns how many of seatIDs are reserved for the match.
	CountReserved(ctx context.Context, matchID uint64, seatIDs []uint64) (int, error)
	// CountSeatsInStadium returns how many of seatIDs belong to the stadium.
	CountSeatsInStadium(ctx context.Context, stadiumID uint64, seatIDs []uint64) (int, error)
	CreateBulk(ctx context.Context, rows []model.MatchSeatInfo) error
	// MarkReserved flags unreserved rows as reserved by buyerID at the
	// given time and returns the number of rows changed.
	MarkReserved(ctx context.Context, matchID uint64, seatIDs []uint64, buyerID uint64, at time.Time) (int, error)
	// MarkPaid flags reserved, unpaid rows as paid and returns the number
	// of rows changed.
	MarkPaid(ctx context.Context, matchID uint64, seatIDs []uint64) (int, error)
}

// UserRepo persists user accounts.
type UserRepo interface {
	Create(ctx context.Context, u *model.User) error
	GetByEmail(ctx context.Context, email string) (*model.User, error)
	GetByID(ctx context.Context, id uint64) (*model.User, error)
}

// TokenRepo persists refresh token hashes.
type TokenRepo interface {
	StoreRefresh(ctx context.Context, userID uint64, tokenHash string, exp time.Time) error
	// ValidateRefresh returns the owner of a non-revoked, non-expired
	// token or ErrNotFound.
	ValidateRefresh(ctx context.Context, tokenHash string) (uint64, error)
	RevokeByHash(ctx context.Context, tokenHash string) error
}

// Repos groups one implementation of every repository.
type Repos struct {
	Stadiums  StadiumRepo
	Seats     SeatRepo
	Teams     TeamRepo
	Matches   MatchRepo
	SeatInfos SeatInfoRepo
	Users     UserRepo
	Tokens    TokenRepo
}
