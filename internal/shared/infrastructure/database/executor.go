package database

import (
	"context"
	"database/sql"
)

// Row is one result row; pgx.Row and *sql.Row both satisfy it.
type Row interface {
	Scan(dest ...any) error
}

// Rows is a result cursor over pgx.Rows or *sql.Rows.
type Rows interface {
	Next() bool
	Scan(dest ...any) error
	Close() error
	Err() error
}

// Result reports what a write statement touched. Every id in the schema
// is generated by the caller, so only the affected row count matters; the
// stores read it to detect stale versions.
type Result interface {
	RowsAffected() (int64, error)
}

// Executor runs statements against a connection or an open transaction.
// Stores never hold one; they resolve it per statement through
// ExecutorFromContext.
type Executor interface {
	Exec(ctx context.Context, query string, args ...any) (Result, error)
	QueryRow(ctx context.Context, query string, args ...any) Row
	Query(ctx context.Context, query string, args ...any) (Rows, error)
}

// Transaction is an Executor bound to one database transaction.
type Transaction interface {
	Executor
	Commit(ctx context.Context) error
	Rollback(ctx context.Context) error
}

// Connection is an open database handle of either driver.
type Connection interface {
	Executor
	BeginTx(ctx context.Context) (Transaction, error)
	Close() error
	Ping(ctx context.Context) error
	Driver() Driver
}

// WrapSQLResult adapts a database/sql result. sql.Result already has the
// RowsAffected method, it only needs the narrower type.
func WrapSQLResult(r sql.Result) Result {
	return r
}

// sqlRows adapts *sql.Rows, whose Close has no context and whose other
// methods already match.
type sqlRows struct {
	*sql.Rows
}

// WrapSQLRows adapts database/sql rows to Rows.
func WrapSQLRows(r *sql.Rows) Rows {
	return sqlRows{Rows: r}
}
