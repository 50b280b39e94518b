package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/go-sql-driver/mysql"
	"github.com/jmoiron/sqlx"
)

// MySQLStore implements Store on top of a MySQL database.  The same type
// serves both the pooled handle and transactional views; q is whichever
// of the two is active.
type MySQLStore struct {
	db *sqlx.DB
	q  sqlx.ExtContext
	tx bool
}

// NewMySQLStore returns a Store bound to the given database.
func NewMySQLStore(db *sqlx.DB) *MySQLStore { return &MySQLStore{db: db, q: db} }

// maxTxAttempts bounds how often WithinTx runs a transaction that InnoDB
// aborted as a deadlock victim.
const maxTxAttempts = 3

// WithinTx begins a transaction, runs fn and commits when fn succeeds.
// A transaction chosen as deadlock victim is retried from the start.
func (s *MySQLStore) WithinTx(ctx context.Context, fn func(Store) error) error {
	if s.tx {
		return fn(s)
	}
	var err error
	for attempt := 1; attempt <= maxTxAttempts; attempt++ {
		if err = s.runTx(ctx, fn); !isDeadlock(err) {
			return err
		}
	}
	return err
}

func (s *MySQLStore) runTx(ctx context.Context, fn func(Store) error) error {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()
	if err := fn(&MySQLStore{db: s.db, q: tx, tx: true}); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return err
	}
	committed = true
	return nil
}

// isDeadlock reports MySQL error 1213, ER_LOCK_DEADLOCK.
func isDeadlock(err error) bool {
	var me *mysql.MySQLError
	return errors.As(err, &me) && me.Number == 1213
}

// get runs a single-row query and maps sql.ErrNoRows to ErrNotFound.
func (s *MySQLStore) get(ctx context.Context, dest interface{}, query string, args ...interface{}) error {
	err := sqlx.GetContext(ctx, s.q, dest, query, args...)
	if errors.Is(err, sql.ErrNoRows) {
		return ErrNotFound
	}
	return err
}

// execOne runs a statement that must touch exactly one row.  The DSN sets
// clientFoundRows so a matched row counts even when its values are
// unchanged.
func (s *MySQLStore) execOne(ctx context.Context, query string, args ...interface{}) error {
	res, err := s.q.ExecContext(ctx, query, args...)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}
