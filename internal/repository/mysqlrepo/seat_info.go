package mysqlrepo

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/iliyamo/stadium-seat-reservation/internal/model"
	"github.com/iliyamo/stadium-seat-reservation/internal/repository"
)

// SeatInfoRepo stores per-match seat prices and their reservation
// state in the match_seat_infos table.
type SeatInfoRepo struct{ db *sql.DB }

// NewSeatInfoRepo returns a SeatInfoRepo bound to db.
func NewSeatInfoRepo(db *sql.DB) *SeatInfoRepo { return &SeatInfoRepo{db: db} }

func (r *SeatInfoRepo) Create(ctx context.Context, info *model.MatchSeatInfo) error {
	const q = `INSERT INTO match_seat_infos (match_id, seat_id, price) VALUES (?, ?, ?)`
	res, err := r.db.ExecContext(ctx, q, info.MatchID, info.SeatID, info.Price)
	if err != nil {
		return mapErr(err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	info.ID = uint64(id)
	return nil
}

func (r *SeatInfoRepo) Exists(ctx context.Context, matchID, seatID uint64) (bool, error) {
	const q = `SELECT EXISTS(SELECT 1 FROM match_seat_infos WHERE match_id = ? AND seat_id = ?)`
	var ok bool
	err := r.db.QueryRowContext(ctx, q, matchID, seatID).Scan(&ok)
	return ok, err
}

// ListByMatch returns the priced seats of a match with their state.
func (r *SeatInfoRepo) ListByMatch(ctx context.Context, matchID uint64) ([]model.SeatAvailability, error) {
	const q = `SELECT i.seat_id, s.code, i.price, i.is_reserved, i.is_paid
               FROM match_seat_infos i
               JOIN seats s ON s.id = i.seat_id
               WHERE i.match_id = ?
               ORDER BY i.seat_id`
	rows, err := r.db.QueryContext(ctx, q, matchID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []model.SeatAvailability
	for rows.Next() {
		var a model.SeatAvailability
		if err := rows.Scan(&a.SeatID, &a.Code, &a.Price, &a.IsReserved, &a.IsPaid); err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

// atomicAttempts bounds how often Atomic runs fn when MySQL aborts the
// transaction with a deadlock or lock wait timeout.
const atomicAttempts = 3

// Atomic runs fn in a transaction.  It commits when fn returns nil and
// rolls back on any error or panic.  A transaction aborted by a deadlock
// or lock wait timeout is retried from the start; once the attempts are
// used up the error matches repository.ErrConflict.
func (r *SeatInfoRepo) Atomic(ctx context.Context, fn func(tx repository.SeatInfoTx) error) error {
	var err error
	for attempt := 0; attempt < atomicAttempts; attempt++ {
		err = r.atomicOnce(ctx, fn)
		if !errors.Is(err, repository.ErrConflict) || ctx.Err() != nil {
			return err
		}
	}
	return err
}

func (r *SeatInfoRepo) atomicOnce(ctx context.Context, fn func(tx repository.SeatInfoTx) error) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()
	if err := fn(seatInfoTx{tx: tx}); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", mapErr(err))
	}
	committed = true
	return nil
}

type seatInfoTx struct{ tx *sql.Tx }

func (t seatInfoTx) count(ctx context.Context, q string, args ...interface{}) (int, error) {
	var n int
	if err := t.tx.QueryRowContext(ctx, q, args...).Scan(&n); err != nil {
		return 0, mapErr(err)
	}
	return n, nil
}

// CountPriced locks the existing rows and the gaps around them so that
// concurrent bulk pricing of the same seats serializes.
func (t seatInfoTx) CountPriced(ctx context.Context, matchID uint64, seatIDs []uint64) (int, error) {
	if len(seatIDs) == 0 {
		return 0, nil
	}
	q := `SELECT COUNT(*) FROM match_seat_infos WHERE match_id = ? AND seat_id IN (` + inClause(len(seatIDs)) + `) FOR UPDATE`
	return t.count(ctx, q, idArgs([]interface{}{matchID}, seatIDs)...)
}

func (t seatInfoTx) CountReserved(ctx context.Context, matchID uint64, seatIDs []uint64) (int, error) {
	if len(seatIDs) == 0 {
		return 0, nil
	}
	q := `SELECT COUNT(*) FROM match_seat_infos WHERE match_id = ? AND is_reserved = TRUE AND seat_id IN (` + inClause(len(seatIDs)) + `) FOR UPDATE`
	return t.count(ctx, q, idArgs([]interface{}{matchID}, seatIDs)...)
}

func (t seatInfoTx) CountSeatsInStadium(ctx context.Context, stadiumID uint64, seatIDs []uint64) (int, error) {
	if len(seatIDs) == 0 {
		return 0, nil
	}
	q := `SELECT COUNT(*) FROM seats WHERE stadium_id = ? AND id IN (` + inClause(len(seatIDs)) + `)`
	return t.count(ctx, q, idArgs([]interface{}{stadiumID}, seatIDs)...)
}

// CreateBulk inserts all rows with a single multi-row INSERT.
func (t seatInfoTx) CreateBulk(ctx context.Context, rows []model.MatchSeatInfo) error {
	if len(rows) == 0 {
		return nil
	}
	var b strings.Builder
	b.WriteString(`INSERT INTO match_seat_infos (match_id, seat_id, price) VALUES `)
	args := make([]interface{}, 0, len(rows)*3)
	for i, row := range rows {
		if i > 0 {
			b.WriteString(",")
		}
		b.WriteString("(?, ?, ?)")
		args = append(args, row.MatchID, row.SeatID, row.Price)
	}
	_, err := t.tx.ExecContext(ctx, b.String(), args...)
	return mapErr(err)
}

func (t seatInfoTx) MarkReserved(ctx context.Context, matchID uint64, seatIDs []uint64, buyerID uint64, at time.Time) (int, error) {
	if len(seatIDs) == 0 {
		return 0, nil
	}
	q := `UPDATE match_seat_infos SET is_reserved = TRUE, buyer_id = ?, date_reserved = ?
          WHERE match_id = ? AND is_reserved = FALSE AND seat_id IN (` + inClause(len(seatIDs)) + `)`
	res, err := t.tx.ExecContext(ctx, q, idArgs([]interface{}{buyerID, at.UTC(), matchID}, seatIDs)...)
	if err != nil {
		return 0, mapErr(err)
	}
	n, err := res.RowsAffected()
	return int(n), err
}

func (t seatInfoTx) MarkPaid(ctx context.Context, matchID uint64, seatIDs []uint64) (int, error) {
	if len(seatIDs) == 0 {
		return 0, nil
	}
	q := `UPDATE match_seat_infos SET is_paid = TRUE
          WHERE match_id = ? AND is_reserved = TRUE AND is_paid = FALSE AND seat_id IN (` + inClause(len(seatIDs)) + `)`
	res, err := t.tx.ExecContext(ctx, q, idArgs([]interface{}{matchID}, seatIDs)...)
	if err != nil {
		return 0, mapErr(err)
	}
	n, err := res.RowsAffected()
	return int(n), err
}
