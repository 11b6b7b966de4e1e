package core

import (
	"context"
	"database/sql"
)

// DBExecutor is the subset of *sqlx.DB / *sqlx.Tx the repositories need.
// Repositories take it instead of a concrete handle so service-level
// transactions can be threaded through.
type DBExecutor interface {
	ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error)
	GetContext(ctx context.Context, dest interface{}, query string, args ...interface{}) error
	SelectContext(ctx context.Context, dest interface{}, query string, args ...interface{}) error
}
