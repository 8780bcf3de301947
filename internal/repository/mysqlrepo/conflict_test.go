package mysqlrepo

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	mysqldrv "github.com/go-sql-driver/mysql"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/stadium-seat-reservation/internal/repository"
	"github.com/iliyamo/stadium-seat-reservation/internal/service"
)

const (
	countPricedQuery   = `SELECT COUNT\(\*\) FROM match_seat_infos WHERE match_id = \? AND seat_id IN`
	countReservedQuery = `SELECT COUNT\(\*\) FROM match_seat_infos WHERE match_id = \? AND is_reserved = TRUE`
	countInStadium     = `SELECT COUNT\(\*\) FROM seats WHERE stadium_id = \?`
)

func deadlock() error {
	return &mysqldrv.MySQLError{Number: 1213, Message: "Deadlock found when trying to get lock; try restarting transaction"}
}

func expectMatch(mock sqlmock.Sqlmock) {
	at := time.Date(2024, 5, 17, 18, 30, 0, 0, time.UTC)
	mock.ExpectQuery("FROM matches m").
		WithArgs(3).
		WillReturnRows(sqlmock.NewRows([]string{"id", "stadium_id", "host_team_id", "guest_team_id", "datetime", "s", "h", "g"}).
			AddRow(3, 1, 2, 5, at, "Azadi", "Esteghlal", "Piroozi"))
}

func count(n int) *sqlmock.Rows { return sqlmock.NewRows([]string{"n"}).AddRow(n) }

func TestMapErrLockConflicts(t *testing.T) {
	err := mapErr(deadlock())
	assert.ErrorIs(t, err, repository.ErrConflict)
	assert.Contains(t, err.Error(), "Deadlock found")

	assert.ErrorIs(t, mapErr(&mysqldrv.MySQLError{Number: 1205, Message: "Lock wait timeout exceeded"}), repository.ErrConflict)
	assert.NotErrorIs(t, mapErr(&mysqldrv.MySQLError{Number: 1064, Message: "syntax"}), repository.ErrConflict)
}

// Two admins price the same seats at once.  The loser's INSERT is picked
// as the deadlock victim; the retry then sees the winner's rows.
func TestBulkPriceSeatsLosesDeadlockToConcurrentPricing(t *testing.T) {
	db, mock := newMock(t)
	expectMatch(mock)
	mock.ExpectBegin()
	mock.ExpectQuery(countPricedQuery).WithArgs(3, 7, 8).WillReturnRows(count(0))
	mock.ExpectQuery(countInStadium).WithArgs(1, 7, 8).WillReturnRows(count(2))
	mock.ExpectExec(`INSERT INTO match_seat_infos`).WillReturnError(deadlock())
	mock.ExpectRollback()
	mock.ExpectBegin()
	mock.ExpectQuery(countPricedQuery).WithArgs(3, 7, 8).WillReturnRows(count(2))
	mock.ExpectRollback()

	pricing := service.NewSeatPricing(NewMatchRepo(db), NewSeatRepo(db), NewSeatInfoRepo(db))
	price := int64(45000)
	admin := service.Actor{UserID: 1, Capability: service.Admin}
	_, err := pricing.BulkPriceSeats(context.Background(), admin, service.BulkPriceInput{
		MatchID: 3, Seats: []uint64{7, 8}, Price: &price,
	})
	assert.ErrorIs(t, err, service.ErrSeatAlreadyPriced)
	msgs, ok := service.FieldMessages(err)
	require.True(t, ok)
	assert.Equal(t, []string{"One of seats is already defined for the match."}, msgs[service.NonFieldErrors])
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestReserveSeatsRetriesAfterDeadlock(t *testing.T) {
	db, mock := newMock(t)
	expectMatch(mock)
	mock.ExpectBegin()
	mock.ExpectQuery(countReservedQuery).WithArgs(3, 7).WillReturnError(deadlock())
	mock.ExpectRollback()
	mock.ExpectBegin()
	mock.ExpectQuery(countReservedQuery).WithArgs(3, 7).WillReturnRows(count(0))
	mock.ExpectQuery(countInStadium).WithArgs(1, 7).WillReturnRows(count(1))
	mock.ExpectQuery(countPricedQuery).WithArgs(3, 7).WillReturnRows(count(1))
	mock.ExpectExec(`UPDATE match_seat_infos SET is_reserved = TRUE`).
		WithArgs(2, sqlmock.AnyArg(), 3, 7).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	engine := service.NewReservationEngine(NewMatchRepo(db), NewSeatInfoRepo(db), nil, nil)
	buyer := service.Actor{UserID: 2, Capability: service.Authenticated}
	n, err := engine.ReserveSeats(context.Background(), buyer, 3, service.SeatsInput{Seats: []uint64{7}})
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAtomicGivesUpAfterRepeatedLockTimeouts(t *testing.T) {
	db, mock := newMock(t)
	timeout := &mysqldrv.MySQLError{Number: 1205, Message: "Lock wait timeout exceeded; try restarting transaction"}
	for i := 0; i < atomicAttempts; i++ {
		mock.ExpectBegin()
		mock.ExpectQuery(countReservedQuery).WithArgs(1, 7).WillReturnError(timeout)
		mock.ExpectRollback()
	}

	runs := 0
	err := NewSeatInfoRepo(db).Atomic(context.Background(), func(tx repository.SeatInfoTx) error {
		runs++
		_, err := tx.CountReserved(context.Background(), 1, []uint64{7})
		return err
	})
	assert.ErrorIs(t, err, repository.ErrConflict)
	assert.Equal(t, atomicAttempts, runs)
	assert.NoError(t, mock.ExpectationsWereMet())
}
