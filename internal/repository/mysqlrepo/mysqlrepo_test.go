package mysqlrepo

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	mysqldrv "github.com/go-sql-driver/mysql"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/stadium-seat-reservation/internal/model"
	"github.com/iliyamo/stadium-seat-reservation/internal/repository"
)

func newMock(t *testing.T) (*sql.DB, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db, mock
}

func TestMapErr(t *testing.T) {
	assert.NoError(t, mapErr(nil))
	assert.ErrorIs(t, mapErr(sql.ErrNoRows), repository.ErrNotFound)

	dup := &mysqldrv.MySQLError{Number: 1062, Message: "Duplicate entry 'Azadi' for key 'stadiums.uniq_stadium_name'"}
	err := mapErr(dup)
	assert.ErrorIs(t, err, repository.ErrDuplicate)
	key, ok := repository.DuplicateKey(err)
	assert.True(t, ok)
	assert.Equal(t, repository.KeyStadiumName, key)

	// MySQL 5.7 omits the table prefix
	key, _ = repository.DuplicateKey(mapErr(&mysqldrv.MySQLError{Number: 1062, Message: "Duplicate entry '1-2' for key 'unique_info_match_seat'"}))
	assert.Equal(t, repository.KeyMatchSeat, key)

	other := errors.New("boom")
	assert.Equal(t, other, mapErr(other))
}

func TestInClause(t *testing.T) {
	assert.Equal(t, "", inClause(0))
	assert.Equal(t, "?", inClause(1))
	assert.Equal(t, "?,?,?", inClause(3))
	assert.Equal(t, []interface{}{uint64(9), uint64(1), uint64(2)}, idArgs([]interface{}{uint64(9)}, []uint64{1, 2}))
}

func TestStadiumCreateDuplicate(t *testing.T) {
	db, mock := newMock(t)
	mock.ExpectExec("INSERT INTO stadiums").
		WithArgs("Azadi", "azadi").
		WillReturnError(&mysqldrv.MySQLError{Number: 1062, Message: "Duplicate entry 'azadi' for key 'stadiums.uniq_stadium_slug'"})

	err := NewStadiumRepo(db).Create(context.Background(), &model.Stadium{Name: "Azadi", Slug: "azadi"})
	key, ok := repository.DuplicateKey(err)
	require.True(t, ok)
	assert.Equal(t, repository.KeyStadiumSlug, key)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestStadiumCreate(t *testing.T) {
	db, mock := newMock(t)
	created := time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)
	mock.ExpectExec("INSERT INTO stadiums").
		WithArgs("Azadi", "azadi").
		WillReturnResult(sqlmock.NewResult(4, 1))
	mock.ExpectQuery("SELECT created_at FROM stadiums").
		WithArgs(4).
		WillReturnRows(sqlmock.NewRows([]string{"created_at"}).AddRow(created))

	s := &model.Stadium{Name: "Azadi", Slug: "azadi"}
	require.NoError(t, NewStadiumRepo(db).Create(context.Background(), s))
	assert.Equal(t, uint64(4), s.ID)
	assert.Equal(t, created, s.CreatedAt)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSeatGetByIDNotFound(t *testing.T) {
	db, mock := newMock(t)
	mock.ExpectQuery("SELECT id, stadium_id, code FROM seats").
		WithArgs(42).
		WillReturnRows(sqlmock.NewRows([]string{"id", "stadium_id", "code"}))

	_, err := NewSeatRepo(db).GetByID(context.Background(), 42)
	assert.ErrorIs(t, err, repository.ErrNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestMatchGetDetail(t *testing.T) {
	db, mock := newMock(t)
	at := time.Date(2024, 5, 1, 18, 30, 0, 0, time.UTC)
	mock.ExpectQuery("FROM matches m").
		WithArgs(3).
		WillReturnRows(sqlmock.NewRows([]string{"id", "stadium_id", "host_team_id", "guest_team_id", "datetime", "s", "h", "g"}).
			AddRow(3, 1, 2, 5, at, "Azadi", "Esteghlal", "Piroozi"))

	d, err := NewMatchRepo(db).GetDetail(context.Background(), 3)
	require.NoError(t, err)
	assert.Equal(t, "Azadi", d.StadiumName)
	assert.Equal(t, "Host : Esteghlal, Guest : Piroozi", d.Title())
	assert.True(t, d.Datetime.Equal(at))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAtomicRollsBackOnError(t *testing.T) {
	db, mock := newMock(t)
	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT COUNT\(\*\) FROM match_seat_infos WHERE match_id = \? AND seat_id IN \(\?,\?\) FOR UPDATE`).
		WithArgs(1, 7, 8).
		WillReturnRows(sqlmock.NewRows([]string{"n"}).AddRow(1))
	mock.ExpectRollback()

	errPriced := errors.New("priced")
	err := NewSeatInfoRepo(db).Atomic(context.Background(), func(tx repository.SeatInfoTx) error {
		n, err := tx.CountPriced(context.Background(), 1, []uint64{7, 8})
		if err != nil {
			return err
		}
		if n > 0 {
			return errPriced
		}
		return nil
	})
	assert.ErrorIs(t, err, errPriced)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAtomicReserveCommits(t *testing.T) {
	db, mock := newMock(t)
	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT COUNT\(\*\) FROM match_seat_infos WHERE match_id = \? AND is_reserved = TRUE`).
		WithArgs(1, 7, 8).
		WillReturnRows(sqlmock.NewRows([]string{"n"}).AddRow(0))
	mock.ExpectExec(`UPDATE match_seat_infos SET is_reserved = TRUE`).
		WithArgs(99, sqlmock.AnyArg(), 1, 7, 8).
		WillReturnResult(sqlmock.NewResult(0, 2))
	mock.ExpectCommit()

	var changed int
	err := NewSeatInfoRepo(db).Atomic(context.Background(), func(tx repository.SeatInfoTx) error {
		ctx := context.Background()
		n, err := tx.CountReserved(ctx, 1, []uint64{7, 8})
		if err != nil || n != 0 {
			return errors.New("unexpected reserved count")
		}
		changed, err = tx.MarkReserved(ctx, 1, []uint64{7, 8}, 99, time.Now())
		return err
	})
	require.NoError(t, err)
	assert.Equal(t, 2, changed)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCreateBulkSingleStatement(t *testing.T) {
	db, mock := newMock(t)
	mock.ExpectBegin()
	mock.ExpectExec(`INSERT INTO match_seat_infos \(match_id, seat_id, price\) VALUES \(\?, \?, \?\),\(\?, \?, \?\)`).
		WithArgs(1, 7, 45000, 1, 8, 45000).
		WillReturnResult(sqlmock.NewResult(10, 2))
	mock.ExpectCommit()

	err := NewSeatInfoRepo(db).Atomic(context.Background(), func(tx repository.SeatInfoTx) error {
		return tx.CreateBulk(context.Background(), []model.MatchSeatInfo{
			{MatchID: 1, SeatID: 7, Price: 45000},
			{MatchID: 1, SeatID: 8, Price: 45000},
		})
	})
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestValidateRefreshRevoked(t *testing.T) {
	db, mock := newMock(t)
	mock.ExpectQuery("SELECT user_id, expires_at, revoked_at FROM refresh_tokens").
		WithArgs("h").
		WillReturnRows(sqlmock.NewRows([]string{"user_id", "expires_at", "revoked_at"}).
			AddRow(5, time.Now().Add(time.Hour), time.Now()))

	_, err := NewTokenRepo(db).ValidateRefresh(context.Background(), "h")
	assert.ErrorIs(t, err, repository.ErrNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}
