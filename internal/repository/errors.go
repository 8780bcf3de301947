// Package repository declares the persistence contracts used by the
// service layer and the error values shared by every implementation.
// The MySQL implementation lives in mysqlrepo and an in-memory one,
// used by tests and the STORAGE=memory mode, lives in memory.
package repository

import "errors"

// ErrNotFound is returned when a lookup by key yields no rows.
var ErrNotFound = errors.New("record not found")

// ErrDuplicate is returned when a write violates a unique constraint.
// Implementations wrap it together with the name of the violated key
// when they know it.
var ErrDuplicate = errors.New("duplicate key")

// ErrConflict is returned when the database aborted a transaction
// because of a deadlock or a lock wait timeout.  The transaction can be
// retried.
var ErrConflict = errors.New("transaction conflict")

// DuplicateError carries the name of the unique key that a write
// violated.  It matches ErrDuplicate.
type DuplicateError struct {
	Key string
}

func (e *DuplicateError) Error() string { return "duplicate key " + e.Key }

// Is reports whether target is ErrDuplicate.
func (e *DuplicateError) Is(target error) bool { return target == ErrDuplicate }

// Unique key names shared by the schema and every implementation.
const (
	KeyStadiumName  = "uniq_stadium_name"
	KeyStadiumSlug  = "uniq_stadium_slug"
	KeySeatCode     = "unique_seat_stadium_code"
	KeyTeamName     = "uniq_team_name"
	KeyMatchFixture = "unique_match_stadium_datetime"
	KeyMatchSeat    = "unique_info_match_seat"
	KeyUserEmail    = "uniq_user_email"
	KeyRefreshToken = "uniq_refresh_token_hash"
)

// DuplicateKey returns the violated key when err is a DuplicateError.
func DuplicateKey(err error) (string, bool) {
	var de *DuplicateError
	if errors.As(err, &de) {
		return de.Key, true
	}
	return "", false
}
