package mysqlrepo

import (
	"context"
	"database/sql"
	"time"

	"github.com/iliyamo/stadium-seat-reservation/internal/model"
)

// MatchRepo stores matches in the matches table.
type MatchRepo struct{ db *sql.DB }

// NewMatchRepo returns a MatchRepo bound to db.
func NewMatchRepo(db *sql.DB) *MatchRepo { return &MatchRepo{db: db} }

func (r *MatchRepo) Create(ctx context.Context, m *model.Match) error {
	const q = `INSERT INTO matches (stadium_id, host_team_id, guest_team_id, datetime) VALUES (?, ?, ?, ?)`
	res, err := r.db.ExecContext(ctx, q, m.StadiumID, m.HostTeamID, m.GuestTeamID, m.Datetime.UTC())
	if err != nil {
		return mapErr(err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	m.ID = uint64(id)
	return nil
}

// GetDetail loads a match together with its stadium and team names.
func (r *MatchRepo) GetDetail(ctx context.Context, id uint64) (*model.MatchDetail, error) {
	const q = `SELECT m.id, m.stadium_id, m.host_team_id, m.guest_team_id, m.datetime,
                      s.name, h.name, g.name
               FROM matches m
               JOIN stadiums s ON s.id = m.stadium_id
               JOIN teams h ON h.id = m.host_team_id
               JOIN teams g ON g.id = m.guest_team_id
               WHERE m.id = ?`
	var d model.MatchDetail
	err := r.db.QueryRowContext(ctx, q, id).Scan(
		&d.ID, &d.StadiumID, &d.HostTeamID, &d.GuestTeamID, &d.Datetime,
		&d.StadiumName, &d.HostTeamName, &d.GuestTeamName,
	)
	if err != nil {
		return nil, mapErr(err)
	}
	d.Datetime = d.Datetime.UTC()
	return &d, nil
}

func (r *MatchRepo) ExistsFixture(ctx context.Context, stadiumID uint64, at time.Time) (bool, error) {
	const q = `SELECT EXISTS(SELECT 1 FROM matches WHERE stadium_id = ? AND datetime = ?)`
	var ok bool
	err := r.db.QueryRowContext(ctx, q, stadiumID, at.UTC()).Scan(&ok)
	return ok, err
}
