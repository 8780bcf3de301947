package mysqlrepo

import (
	"context"
	"database/sql"

	"github.com/iliyamo/stadium-seat-reservation/internal/model"
)

// StadiumRepo stores stadiums in the stadiums table.
type StadiumRepo struct{ db *sql.DB }

// NewStadiumRepo returns a StadiumRepo bound to db.
func NewStadiumRepo(db *sql.DB) *StadiumRepo { return &StadiumRepo{db: db} }

// Create inserts the stadium and fills its ID and CreatedAt.
func (r *StadiumRepo) Create(ctx context.Context, s *model.Stadium) error {
	const q = `INSERT INTO stadiums (name, slug) VALUES (?, ?)`
	res, err := r.db.ExecContext(ctx, q, s.Name, s.Slug)
	if err != nil {
		return mapErr(err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	s.ID = uint64(id)
	const sel = `SELECT created_at FROM stadiums WHERE id = ?`
	return mapErr(r.db.QueryRowContext(ctx, sel, s.ID).Scan(&s.CreatedAt))
}

func (r *StadiumRepo) GetByID(ctx context.Context, id uint64) (*model.Stadium, error) {
	const q = `SELECT id, name, slug, created_at FROM stadiums WHERE id = ?`
	var s model.Stadium
	if err := r.db.QueryRowContext(ctx, q, id).Scan(&s.ID, &s.Name, &s.Slug, &s.CreatedAt); err != nil {
		return nil, mapErr(err)
	}
	return &s, nil
}

func (r *StadiumRepo) ExistsByName(ctx context.Context, name string) (bool, error) {
	const q = `SELECT EXISTS(SELECT 1 FROM stadiums WHERE name = ?)`
	var ok bool
	err := r.db.QueryRowContext(ctx, q, name).Scan(&ok)
	return ok, err
}

func (r *StadiumRepo) ExistsBySlug(ctx context.Context, slug string) (bool, error) {
	const q = `SELECT EXISTS(SELECT 1 FROM stadiums WHERE slug = ?)`
	var ok bool
	err := r.db.QueryRowContext(ctx, q, slug).Scan(&ok)
	return ok, err
}

// List returns all stadiums ordered by id.
func (r *StadiumRepo) List(ctx context.Context) ([]model.Stadium, error) {
	const q = `SELECT id, name, slug, created_at FROM stadiums ORDER BY id`
	rows, err := r.db.QueryContext(ctx, q)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []model.Stadium
	for rows.Next() {
		var s model.Stadium
		if err := rows.Scan(&s.ID, &s.Name, &s.Slug, &s.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

// SeatRepo stores seats in the seats table.
type SeatRepo struct{ db *sql.DB }

// NewSeatRepo returns a SeatRepo bound to db.
func NewSeatRepo(db *sql.DB) *SeatRepo { return &SeatRepo{db: db} }

func (r *SeatRepo) Create(ctx context.Context, s *model.Seat) error {
	const q = `INSERT INTO seats (stadium_id, code) VALUES (?, ?)`
	res, err := r.db.ExecContext(ctx, q, s.StadiumID, s.Code)
	if err != nil {
		return mapErr(err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	s.ID = uint64(id)
	return nil
}

func (r *SeatRepo) GetByID(ctx context.Context, id uint64) (*model.Seat, error) {
	const q = `SELECT id, stadium_id, code FROM seats WHERE id = ?`
	var s model.Seat
	if err := r.db.QueryRowContext(ctx, q, id).Scan(&s.ID, &s.StadiumID, &s.Code); err != nil {
		return nil, mapErr(err)
	}
	return &s, nil
}

func (r *SeatRepo) ExistsByCode(ctx context.Context, stadiumID uint64, code string) (bool, error) {
	const q = `SELECT EXISTS(SELECT 1 FROM seats WHERE stadium_id = ? AND code = ?)`
	var ok bool
	err := r.db.QueryRowContext(ctx, q, stadiumID, code).Scan(&ok)
	return ok, err
}

// ListByStadium returns the seats of a stadium ordered by code.
func (r *SeatRepo) ListByStadium(ctx context.Context, stadiumID uint64) ([]model.Seat, error) {
	const q = `SELECT id, stadium_id, code FROM seats WHERE stadium_id = ? ORDER BY code`
	rows, err := r.db.QueryContext(ctx, q, stadiumID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []model.Seat
	for rows.Next() {
		var s model.Seat
		if err := rows.Scan(&s.ID, &s.StadiumID, &s.Code); err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

// TeamRepo stores teams in the teams table.
type TeamRepo struct{ db *sql.DB }

// NewTeamRepo returns a TeamRepo bound to db.
func NewTeamRepo(db *sql.DB) *TeamRepo { return &TeamRepo{db: db} }

func (r *TeamRepo) Create(ctx context.Context, t *model.Team) error {
	const q = `INSERT INTO teams (name) VALUES (?)`
	res, err := r.db.ExecContext(ctx, q, t.Name)
	if err != nil {
		return mapErr(err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	t.ID = uint64(id)
	return nil
}

func (r *TeamRepo) GetByID(ctx context.Context, id uint64) (*model.Team, error) {
	const q = `SELECT id, name FROM teams WHERE id = ?`
	var t model.Team
	if err := r.db.QueryRowContext(ctx, q, id).Scan(&t.ID, &t.Name); err != nil {
		return nil, mapErr(err)
	}
	return &t, nil
}

func (r *TeamRepo) ExistsByName(ctx context.Context, name string) (bool, error) {
	const q = `SELECT EXISTS(SELECT 1 FROM teams WHERE name = ?)`
	var ok bool
	err := r.db.QueryRowContext(ctx, q, name).Scan(&ok)
	return ok, err
}

func (r *TeamRepo) List(ctx context.Context) ([]model.Team, error) {
	const q = `SELECT id, name FROM teams ORDER BY id`
	rows, err := r.db.QueryContext(ctx, q)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []model.Team
	for rows.Next() {
		var t model.Team
		if err := rows.Scan(&t.ID, &t.Name); err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, rows.Err()
}
