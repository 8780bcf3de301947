// Package mysqlrepo implements the repository contracts on MySQL via
// database/sql and github.com/go-sql-driver/mysql.
package mysqlrepo

import (
	"database/sql"
	"errors"
	"fmt"
	"strings"

	mysqldrv "github.com/go-sql-driver/mysql"

	"github.com/iliyamo/stadium-seat-reservation/internal/repository"
)

// MySQL error numbers mapped by mapErr.
const (
	erDupEntry        = 1062
	erLockWaitTimeout = 1205
	erLockDeadlock    = 1213
)

// mapErr converts driver errors into the repository error values.
// sql.ErrNoRows becomes ErrNotFound and a duplicate entry becomes a
// DuplicateError carrying the key name parsed from the message, e.g.
// "Duplicate entry 'Azadi' for key 'stadiums.uniq_stadium_name'".
// Deadlocks and lock wait timeouts become ErrConflict.
func mapErr(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, sql.ErrNoRows) {
		return repository.ErrNotFound
	}
	var me *mysqldrv.MySQLError
	if !errors.As(err, &me) {
		return err
	}
	switch me.Number {
	case erDupEntry:
		return &repository.DuplicateError{Key: keyFromMessage(me.Message)}
	case erLockDeadlock, erLockWaitTimeout:
		return fmt.Errorf("%w: %s", repository.ErrConflict, me.Message)
	}
	return err
}

func keyFromMessage(msg string) string {
	const marker = "for key '"
	i := strings.LastIndex(msg, marker)
	if i < 0 {
		return ""
	}
	key := strings.TrimSuffix(msg[i+len(marker):], "'")
	// MySQL 8 prefixes the key with its table name
	if dot := strings.LastIndex(key, "."); dot >= 0 {
		key = key[dot+1:]
	}
	return key
}

// inClause returns "?,?,?" for n placeholders.
func inClause(n int) string {
	if n <= 0 {
		return ""
	}
	return strings.Repeat("?,", n-1) + "?"
}

func idArgs(prefix []interface{}, ids []uint64) []interface{} {
	args := make([]interface{}, 0, len(prefix)+len(ids))
	args = append(args, prefix...)
	for _, id := range ids {
		args = append(args, id)
	}
	return args
}
