package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/jmoiron/sqlx"
)

// Querier abstracts the operations shared by *sqlx.DB and *sqlx.Tx so a
// query helper can run inside or outside a transaction.
type Querier interface {
	GetContext(ctx context.Context, dest any, query string, args ...any) error
	SelectContext(ctx context.Context, dest any, query string, args ...any) error
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

// Store owns the connection pool and the transaction boundary used by every
// state-changing venue operation.
type Store struct {
	db     *sqlx.DB
	txOpts *sql.TxOptions
}

// NewStore wraps db.  MySQL transactions run SERIALIZABLE so a conflict check
// and the status write that follows it cannot interleave with another
// approval; SQLite is already serialised by its single connection.
func NewStore(db *sqlx.DB) *Store {
	s := &Store{db: db}
	if db.DriverName() == "mysql" {
		s.txOpts = &sql.TxOptions{Isolation: sql.LevelSerializable}
	}
	return s
}

// DB exposes the underlying pool for read-only queries.
func (s *Store) DB() *sqlx.DB { return s.db }

// WithTx runs fn in a transaction.  The transaction is committed when fn
// returns nil and rolled back otherwise.  Driver errors are classified so
// callers can detect duplicates and retryable failures.
func (s *Store) WithTx(ctx context.Context, fn func(tx *sqlx.Tx) error) error {
	tx, err := s.db.BeginTxx(ctx, s.txOpts)
	if err != nil {
		return classify(err)
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()
	if err := fn(tx); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return classify(err)
	}
	committed = true
	return nil
}

// Close closes the pool.
func (s *Store) Close() error { return s.db.Close() }

func utc(t time.Time) time.Time { return t.UTC() }

func utcPtr(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	u := t.UTC()
	return &u
}

func lastID(res sql.Result) (uint64, error) {
	id, err := res.LastInsertId()
	if err != nil {
		return 0, err
	}
	return uint64(id), nil
}
