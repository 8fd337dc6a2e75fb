package store

import (
	"context"
	"database/sql"
)

// Narrow slices of *sqlx.DB / *sqlx.Tx. Stores declare the smallest
// surface each method needs so tests can stub exactly that.

type Execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

type Getter interface {
	GetContext(ctx context.Context, dest any, query string, args ...any) error
}

type Selecter interface {
	SelectContext(ctx context.Context, dest any, query string, args ...any) error
}

type DB interface {
	Execer
	Getter
	Selecter
}

// Tx is the surface transactional store methods need from *sqlx.Tx.
type Tx interface {
	Execer
	Getter
}
