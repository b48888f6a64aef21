package repository

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"github.com/iliyamo/cinema-reconciler/internal/model"
)

// ErrMovieNotFound is returned when no movie matches a lookup.
var ErrMovieNotFound = errors.New("movie not found")

// MovieRepo manages persistence for movies.
type MovieRepo struct {
	db   *sql.DB
	lock string
}

// NewMovieRepo constructs a MovieRepo with the provided DB handle.
func NewMovieRepo(db *sql.DB) *MovieRepo {
	return &MovieRepo{db: db, lock: lockClause(db)}
}

const movieColumns = `id, title, current_cinema_count, created_at, updated_at`

func scanMovie(s scanner) (*model.Movie, error) {
	var m model.Movie
	if err := s.Scan(&m.ID, &m.Title, &m.CurrentCinemaCount, &m.CreatedAt, &m.UpdatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrMovieNotFound
		}
		return nil, err
	}
	return &m, nil
}

// likeEscape escapes LIKE wildcards so titles containing % or _ match
// literally.  Queries using it declare ESCAPE '!'.
func likeEscape(s string) string {
	r := strings.NewReplacer("!", "!!", "%", "!%", "_", "!_")
	return r.Replace(s)
}

// GetByTitleTx fetches a movie by exact title inside a transaction.  This is
// the identity lookup the movie merge uses.
func (r *MovieRepo) GetByTitleTx(ctx context.Context, tx *sql.Tx, title string) (*model.Movie, error) {
	return scanMovie(tx.QueryRowContext(ctx, `SELECT `+movieColumns+` FROM movie WHERE title = ?`, title))
}

// LockByTitleTx is GetByTitleTx taking a row lock on MySQL, for the
// read-then-write of the movie merge.
func (r *MovieRepo) LockByTitleTx(ctx context.Context, tx *sql.Tx, title string) (*model.Movie, error) {
	return scanMovie(tx.QueryRowContext(ctx, `SELECT `+movieColumns+` FROM movie WHERE title = ?`+r.lock, title))
}

// GetByTitle fetches a movie by exact title.
func (r *MovieRepo) GetByTitle(ctx context.Context, title string) (*model.Movie, error) {
	return scanMovie(r.db.QueryRowContext(ctx, `SELECT `+movieColumns+` FROM movie WHERE title = ?`, title))
}

// SearchByTitle lists movies whose stored title contains query, shortest
// title first.  It backs the movie-crawl filter and the public search.
func (r *MovieRepo) SearchByTitle(ctx context.Context, query string, limit int) ([]model.Movie, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+movieColumns+` FROM movie WHERE title LIKE ? ESCAPE '!' ORDER BY LENGTH(title), id LIMIT ?`,
		"%"+likeEscape(query)+"%", limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.Movie
	for rows.Next() {
		m, err := scanMovie(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *m)
	}
	return out, rows.Err()
}

// FindForShowingTx picks the canonical movie for a showing title: the exact
// title, else the shortest stored title containing it, else the longest
// stored title the showing title contains (sites decorate titles with
// format suffixes such as "（字幕）").
func (r *MovieRepo) FindForShowingTx(ctx context.Context, tx *sql.Tx, title string) (*model.Movie, error) {
	m, err := r.GetByTitleTx(ctx, tx, title)
	if !errors.Is(err, ErrMovieNotFound) {
		return m, err
	}
	m, err = scanMovie(tx.QueryRowContext(ctx,
		`SELECT `+movieColumns+` FROM movie WHERE title LIKE ? ESCAPE '!' ORDER BY LENGTH(title), id LIMIT 1`,
		"%"+likeEscape(title)+"%"))
	if !errors.Is(err, ErrMovieNotFound) {
		return m, err
	}
	return scanMovie(tx.QueryRowContext(ctx,
		`SELECT `+movieColumns+` FROM movie WHERE INSTR(?, title) > 0 ORDER BY LENGTH(title) DESC, id LIMIT 1`,
		title))
}

// CreateTx inserts a new movie and populates its ID and timestamps.
func (r *MovieRepo) CreateTx(ctx context.Context, tx *sql.Tx, m *model.Movie) error {
	res, err := tx.ExecContext(ctx,
		`INSERT INTO movie (title, current_cinema_count) VALUES (?, ?)`, m.Title, m.CurrentCinemaCount)
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	m.ID = uint64(id)
	return tx.QueryRowContext(ctx, `SELECT created_at, updated_at FROM movie WHERE id = ?`, m.ID).
		Scan(&m.CreatedAt, &m.UpdatedAt)
}

// AddCountTx adds delta to the stored cinema count of m in one statement,
// so concurrent crawl passes never overwrite each other's counts, then
// reloads m's count and update time.
func (r *MovieRepo) AddCountTx(ctx context.Context, tx *sql.Tx, m *model.Movie, delta int) error {
	now := time.Now().UTC().Truncate(time.Second)
	res, err := tx.ExecContext(ctx,
		`UPDATE movie SET current_cinema_count = current_cinema_count + ?, updated_at = ? WHERE id = ?`, delta, now, m.ID)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrMovieNotFound
	}
	return tx.QueryRowContext(ctx, `SELECT current_cinema_count, updated_at FROM movie WHERE id = ?`, m.ID).
		Scan(&m.CurrentCinemaCount, &m.UpdatedAt)
}

// Count returns the number of stored movies.
func (r *MovieRepo) Count(ctx context.Context) (int, error) {
	var n int
	err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM movie`).Scan(&n)
	return n, err
}
