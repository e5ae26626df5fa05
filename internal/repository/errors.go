// Package repository defines error types that are reused across multiple
// repositories. These sentinel values allow higher layers to distinguish
// failure scenarios without inspecting driver specific errors.
package repository

import (
	"database/sql"
	"errors"
	"fmt"

	"github.com/go-sql-driver/mysql"
	"github.com/mattn/go-sqlite3"
)

// ErrNotFound is returned when a lookup matches no row.
var ErrNotFound = errors.New("not found")

// ErrDuplicate is returned when an insert violates a unique key, such as a
// second billing for the same event.
var ErrDuplicate = errors.New("duplicate")

// ErrRetryable marks a serialization failure (deadlock, lock timeout, busy
// database). The whole transaction may be retried.
var ErrRetryable = errors.New("retryable transaction failure")

// MySQL server error numbers.
const (
	mysqlDuplicateEntry  = 1062
	mysqlLockWaitTimeout = 1205
	mysqlDeadlock        = 1213
)

// classify maps driver errors onto the sentinels above, keeping the
// original error in the chain.
func classify(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, sql.ErrNoRows) {
		return ErrNotFound
	}
	var myErr *mysql.MySQLError
	if errors.As(err, &myErr) {
		switch myErr.Number {
		case mysqlDuplicateEntry:
			return fmt.Errorf("%w: %v", ErrDuplicate, err)
		case mysqlDeadlock, mysqlLockWaitTimeout:
			return fmt.Errorf("%w: %v", ErrRetryable, err)
		}
		return err
	}
	var liteErr sqlite3.Error
	if errors.As(err, &liteErr) {
		switch {
		case liteErr.ExtendedCode == sqlite3.ErrConstraintUnique,
			liteErr.ExtendedCode == sqlite3.ErrConstraintPrimaryKey:
			return fmt.Errorf("%w: %v", ErrDuplicate, err)
		case liteErr.Code == sqlite3.ErrBusy, liteErr.Code == sqlite3.ErrLocked:
			return fmt.Errorf("%w: %v", ErrRetryable, err)
		}
	}
	return err
}
