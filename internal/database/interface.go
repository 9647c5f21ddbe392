package database

import "context"

// DB is the central contract for all database operations.
// All layers above this package talk only to this interface;
// they never import the postgres or mysql packages directly.
type DB interface {
	// Ping verifies the database is reachable.
	Ping(ctx context.Context) error

	// Close releases all resources held by the connection pool.
	Close()

	// Exec runs a statement that returns no rows (DDL, INSERT, …).
	Exec(ctx context.Context, sql string, args ...any) (Result, error)

	// Query executes a SQL statement that returns multiple rows.
	Query(ctx context.Context, sql string, args ...any) (Rows, error)

	// QueryRow executes a SQL statement that returns at most one row.
	// Scan reports errs.ErrKindNotFound when there is no row.
	QueryRow(ctx context.Context, sql string, args ...any) Row

	// Dialect reports the placeholder and quoting style of the backend.
	Dialect() Dialect
}

// Result summarises an Exec call.
type Result struct {
	RowsAffected int64

	// LastInsertID is the identity generated by an INSERT. Only MySQL
	// reports it; Postgres callers use RETURNING instead.
	LastInsertID int64
}

// Rows is an abstraction over a database result set.
// Callers must always call Close() when done, even on error.
type Rows interface {
	// Next advances to the next row.
	// Returns false when no more rows exist or on error.
	Next() bool

	// Scan copies the current row's columns into the provided destinations.
	Scan(dest ...any) error

	// Close releases resources held by the result set.
	Close()

	// Err returns any error encountered during iteration.
	Err() error
}

// Row is an abstraction over a single database row.
type Row interface {
	Scan(dest ...any) error
}
