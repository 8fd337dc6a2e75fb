package db

import (
	"context"
	"database/sql"
	"errors"
	"math/rand"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
)

type TxRunner interface {
	WithTx(ctx context.Context, fn func(*sqlx.Tx) error) error
}

type SQLXTxRunner struct {
	db *sqlx.DB
}

func NewTxRunner(db *sqlx.DB) SQLXTxRunner {
	return SQLXTxRunner{db: db}
}

func (r SQLXTxRunner) WithTx(ctx context.Context, fn func(*sqlx.Tx) error) error {
	return WithTx(ctx, r.db, fn)
}

func Connect(databaseURL string) (*sqlx.DB, error) {
	db, err := sqlx.Connect("postgres", databaseURL)
	if err != nil {
		return nil, err
	}
	db.SetConnMaxIdleTime(5 * time.Minute)
	db.SetMaxIdleConns(5)
	db.SetMaxOpenConns(30)
	db.SetConnMaxLifetime(30 * time.Minute)
	return db, nil
}

const maxTxAttempts = 5

// WithTx runs fn in a serializable transaction, retrying on serialization
// failures and deadlocks. Balance mutations rely on this plus FOR UPDATE
// row locks; no application-level locking exists anywhere.
func WithTx(ctx context.Context, db *sqlx.DB, fn func(*sqlx.Tx) error) error {
	var err error
	for attempt := 1; attempt <= maxTxAttempts; attempt++ {
		var retryable bool
		retryable, err = attemptTx(ctx, db, fn)
		if err == nil {
			return nil
		}
		if !retryable || attempt == maxTxAttempts {
			return err
		}
		backoff(attempt)
	}
	return err
}

func attemptTx(ctx context.Context, db *sqlx.DB, fn func(*sqlx.Tx) error) (retryable bool, err error) {
	tx, err := db.BeginTxx(ctx, &sql.TxOptions{Isolation: sql.LevelSerializable})
	if err != nil {
		return false, err
	}
	if err := fn(tx); err != nil {
		_ = tx.Rollback()
		return isSerializationFailure(err), err
	}
	if err := tx.Commit(); err != nil {
		return isSerializationFailure(err), err
	}
	return false, nil
}

// IsUniqueViolation reports whether err is a Postgres unique-constraint
// violation. The idempotency guard treats this as "reference already
// claimed" rather than a storage failure.
func IsUniqueViolation(err error) bool {
	var pqErr *pq.Error
	if !errors.As(err, &pqErr) {
		return false
	}
	return pqErr.Code == "23505"
}

func isSerializationFailure(err error) bool {
	var pqErr *pq.Error
	if !errors.As(err, &pqErr) {
		return false
	}
	return pqErr.Code == "40001" || pqErr.Code == "40P01"
}

// Quadratic backoff with jitter; worst case a shade over 300ms across
// all retries.
func backoff(attempt int) {
	base := 20 * time.Millisecond
	wait := time.Duration(attempt*attempt) * base
	jitter := time.Duration(rand.Int63n(int64(10 * time.Millisecond)))
	time.Sleep(wait + jitter)
}
