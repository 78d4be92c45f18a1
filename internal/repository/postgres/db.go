package postgres

import (
	"context"
	"database/sql"
)

// executor is the slice of database/sql the repositories need. Both a
// bare *sql.DB and an open *sql.Tx satisfy it, so every repository can
// run standalone or join a caller's transaction.
type executor interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
}

var (
	_ executor = (*sql.DB)(nil)
	_ executor = (*sql.Tx)(nil)
)

// nullString maps an optional string column: empty means NULL.
func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
