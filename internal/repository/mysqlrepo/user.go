package mysqlrepo

import (
	"context"
	"database/sql"
	"strings"
	"time"

	"github.com/iliyamo/stadium-seat-reservation/internal/model"
	"github.com/iliyamo/stadium-seat-reservation/internal/repository"
)

// UserRepo stores accounts in the users table.
type UserRepo struct{ db *sql.DB }

// NewUserRepo returns a UserRepo bound to db.
func NewUserRepo(db *sql.DB) *UserRepo { return &UserRepo{db: db} }

// Create inserts the user and fills ID and DateJoined.  Email
// uniqueness follows the column's case-insensitive collation.
func (r *UserRepo) Create(ctx context.Context, u *model.User) error {
	u.Email = strings.TrimSpace(u.Email)
	u.DateJoined = time.Now().UTC()
	const q = `INSERT INTO users (email, password_hash, is_staff, is_active, date_joined) VALUES (?, ?, ?, ?, ?)`
	res, err := r.db.ExecContext(ctx, q, u.Email, u.PasswordHash, u.IsStaff, u.IsActive, u.DateJoined)
	if err != nil {
		return mapErr(err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	u.ID = uint64(id)
	return nil
}

const userColumns = `id, email, password_hash, is_staff, is_active, date_joined`

func scanUser(row *sql.Row) (*model.User, error) {
	var u model.User
	if err := row.Scan(&u.ID, &u.Email, &u.PasswordHash, &u.IsStaff, &u.IsActive, &u.DateJoined); err != nil {
		return nil, mapErr(err)
	}
	return &u, nil
}

func (r *UserRepo) GetByEmail(ctx context.Context, email string) (*model.User, error) {
	q := `SELECT ` + userColumns + ` FROM users WHERE email = ? LIMIT 1`
	return scanUser(r.db.QueryRowContext(ctx, q, strings.TrimSpace(email)))
}

func (r *UserRepo) GetByID(ctx context.Context, id uint64) (*model.User, error) {
	q := `SELECT ` + userColumns + ` FROM users WHERE id = ? LIMIT 1`
	return scanUser(r.db.QueryRowContext(ctx, q, id))
}

// TokenRepo persists refresh token hashes in refresh_tokens.
type TokenRepo struct{ db *sql.DB }

// NewTokenRepo returns a TokenRepo bound to db.
func NewTokenRepo(db *sql.DB) *TokenRepo { return &TokenRepo{db: db} }

// StoreRefresh inserts a refresh token hash row.
func (r *TokenRepo) StoreRefresh(ctx context.Context, userID uint64, tokenHash string, exp time.Time) error {
	_, err := r.db.ExecContext(ctx,
		"INSERT INTO refresh_tokens (user_id, token_hash, expires_at) VALUES (?,?,?)",
		userID, tokenHash, exp.UTC())
	return mapErr(err)
}

// ValidateRefresh returns userID if a non-revoked, non-expired token exists.
func (r *TokenRepo) ValidateRefresh(ctx context.Context, tokenHash string) (uint64, error) {
	var (
		userID    uint64
		expiresAt time.Time
		revokedAt sql.NullTime
	)
	err := r.db.QueryRowContext(ctx,
		"SELECT user_id, expires_at, revoked_at FROM refresh_tokens WHERE token_hash=? LIMIT 1",
		tokenHash).Scan(&userID, &expiresAt, &revokedAt)
	if err != nil {
		return 0, mapErr(err)
	}
	if revokedAt.Valid || time.Now().UTC().After(expiresAt) {
		return 0, repository.ErrNotFound
	}
	return userID, nil
}

// RevokeByHash marks a token as revoked.
func (r *TokenRepo) RevokeByHash(ctx context.Context, tokenHash string) error {
	_, err := r.db.ExecContext(ctx,
		"UPDATE refresh_tokens SET revoked_at=UTC_TIMESTAMP() WHERE token_hash=? AND revoked_at IS NULL",
		tokenHash)
	return err
}
