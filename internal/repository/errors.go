// Package repository defines error types that are reused across multiple
// repositories. These sentinel values allow the reconciler to distinguish
// "nothing stored yet" from real storage failures without inspecting driver
// errors.
package repository

import (
	"context"
	"database/sql"
	"errors"
)

// ErrConflict is returned when a write loses a race on a unique identity
// (another worker inserted the same cinema, movie or showing first).  The
// transaction is rolled back; retrying the item merges against the winner.
var ErrConflict = errors.New("conflict")

// queryer is satisfied by both *sql.DB and *sql.Tx so lookups can run inside
// or outside a transaction.
type queryer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// scanner abstracts *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...any) error
}
