// Package repositories contains the PostgreSQL implementations of the domain
// repository interfaces. All queries run through database/sql over the pgx
// stdlib driver; each repository works against either the shared pool or an
// enclosing transaction.
package repositories

import (
	"context"
	"database/sql"
)

// queryExecutor abstracts *sql.DB and *sql.Tx so repository methods can run
// inside or outside a transaction.
type queryExecutor interface {
	QueryContext(ctx context.Context, query string, args ...interface{}) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...interface{}) *sql.Row
	ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error)
}

// scanner abstracts *sql.Row and *sql.Rows for shared scan helpers.
type scanner interface {
	Scan(dest ...interface{}) error
}
