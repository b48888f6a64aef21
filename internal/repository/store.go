package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/mattn/go-sqlite3"

	"github.com/iliyamo/cinema-reconciler/internal/database"
)

// Store bundles the repositories over one database and runs units of work in
// a single transaction.
type Store struct {
	db       *sql.DB
	Cinemas  *CinemaRepo
	Movies   *MovieRepo
	Showings *ShowingRepo
	Bookings *ShowingBookingRepo
}

// NewStore constructs a Store on db.
func NewStore(db *sql.DB) *Store {
	return &Store{
		db:       db,
		Cinemas:  NewCinemaRepo(db),
		Movies:   NewMovieRepo(db),
		Showings: NewShowingRepo(db),
		Bookings: NewShowingBookingRepo(db),
	}
}

// DB exposes the underlying sql.DB.
func (s *Store) DB() *sql.DB { return s.db }

// WithTx runs fn inside a transaction.  The transaction commits when fn
// returns nil and rolls back otherwise, so a failed merge never leaves an
// entity half-updated.  A duplicate-key failure is reported as ErrConflict.
func (s *Store) WithTx(ctx context.Context, fn func(tx *sql.Tx) error) (err error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	// Ensure rollback or commit at the end
	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback()
			panic(p)
		}
		if err != nil {
			_ = tx.Rollback()
			if database.IsUniqueViolation(err) {
				err = fmt.Errorf("%w: %w", ErrConflict, err)
			}
			return
		}
		err = tx.Commit()
	}()
	return fn(tx)
}

// lockClause returns the suffix that turns an identity read into a locking
// read.  sqlite has no FOR UPDATE; Open pins it to a single connection, so
// its transactions already run one at a time.
func lockClause(db *sql.DB) string {
	if _, ok := db.Driver().(*sqlite3.SQLiteDriver); ok {
		return ""
	}
	return " FOR UPDATE"
}
