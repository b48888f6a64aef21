// Package repository contains data access logic separated from the
// reconciler. This file holds the cinema queries: identity lookups by
// (county, site) or by any name alias, and insert/update of a merged row.
package repository

import (
	"context"      // context allows passing deadlines and cancellation signals to DB operations
	"database/sql" // sql provides generic database operations and drivers
	"errors"       // errors is used to define custom error values
	"fmt"
	"time"

	"github.com/goccy/go-json"

	"github.com/iliyamo/cinema-reconciler/internal/model"
)

// ErrCinemaNotFound is returned when a cinema cannot be found in the DB.
var ErrCinemaNotFound = errors.New("cinema not found")

// CinemaRepo encapsulates all database queries related to cinemas.  It
// depends on a sql.DB connection which should be configured elsewhere.
type CinemaRepo struct {
	db   *sql.DB // db is the underlying database connection pool
	lock string  // row-lock suffix for identity reads, see lockClause
}

// NewCinemaRepo constructs a CinemaRepo with the provided DB handle.
func NewCinemaRepo(db *sql.DB) *CinemaRepo {
	return &CinemaRepo{db: db, lock: lockClause(db)}
}

const cinemaColumns = `id, names, county, company, site, screens, screen_count, total_seats, source, created_at, updated_at`

func scanCinema(s scanner) (*model.Cinema, error) {
	var (
		c              model.Cinema
		names, screens string
		site           sql.NullString
	)
	if err := s.Scan(&c.ID, &names, &c.County, &c.Company, &site, &screens,
		&c.ScreenCount, &c.TotalSeats, &c.Source, &c.CreatedAt, &c.UpdatedAt); err != nil {
		return nil, err
	}
	if err := json.Unmarshal([]byte(names), &c.Names); err != nil {
		return nil, fmt.Errorf("cinema %d: decode names: %w", c.ID, err)
	}
	if err := json.Unmarshal([]byte(screens), &c.Screens); err != nil {
		return nil, fmt.Errorf("cinema %d: decode screens: %w", c.ID, err)
	}
	if c.Screens == nil {
		c.Screens = map[string]int{}
	}
	c.Site = site.String
	return &c, nil
}

func encodeCinema(c *model.Cinema) (names, screens string, site sql.NullString, err error) {
	n, err := json.Marshal(c.Names)
	if err != nil {
		return "", "", site, err
	}
	scr := c.Screens
	if scr == nil {
		scr = map[string]int{}
	}
	s, err := json.Marshal(scr)
	if err != nil {
		return "", "", site, err
	}
	if c.Site != "" {
		site = sql.NullString{String: c.Site, Valid: true}
	}
	return string(n), string(s), site, nil
}

func (r *CinemaRepo) getByCountySite(ctx context.Context, q queryer, county, site, lock string) (*model.Cinema, error) {
	row := q.QueryRowContext(ctx,
		`SELECT `+cinemaColumns+` FROM cinema WHERE county = ? AND site = ?`+lock, county, site)
	c, err := scanCinema(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrCinemaNotFound
		}
		return nil, err
	}
	return c, nil
}

// getByName returns the oldest cinema carrying name as an alias.  Names are
// stored as a JSON array, so the LIKE pre-filter is confirmed in Go.
func (r *CinemaRepo) getByName(ctx context.Context, q queryer, name, lock string) (*model.Cinema, error) {
	quoted, err := json.Marshal(name)
	if err != nil {
		return nil, err
	}
	rows, err := q.QueryContext(ctx,
		`SELECT `+cinemaColumns+` FROM cinema WHERE names LIKE ? ORDER BY id`+lock, "%"+string(quoted)+"%")
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	for rows.Next() {
		c, err := scanCinema(rows)
		if err != nil {
			return nil, err
		}
		if c.HasName(name) {
			return c, nil
		}
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return nil, ErrCinemaNotFound
}

// FindTx resolves the stored identity of an incoming cinema: by (county,
// site) when the record has a site, then by any of its name aliases.  On
// MySQL the rows read are locked until the transaction ends, so a racing
// merge of the same cinema waits and then sees this one's aliases.
func (r *CinemaRepo) FindTx(ctx context.Context, tx *sql.Tx, c *model.Cinema) (*model.Cinema, error) {
	if c.HasSite() {
		found, err := r.getByCountySite(ctx, tx, c.County, c.Site, r.lock)
		if err == nil || !errors.Is(err, ErrCinemaNotFound) {
			return found, err
		}
	}
	for _, name := range c.Names {
		found, err := r.getByName(ctx, tx, name, r.lock)
		if err == nil || !errors.Is(err, ErrCinemaNotFound) {
			return found, err
		}
	}
	return nil, ErrCinemaNotFound
}

// GetByNameTx fetches a cinema by alias inside a transaction.
func (r *CinemaRepo) GetByNameTx(ctx context.Context, tx *sql.Tx, name string) (*model.Cinema, error) {
	return r.getByName(ctx, tx, name, "")
}

// GetByName fetches a cinema by alias.
func (r *CinemaRepo) GetByName(ctx context.Context, name string) (*model.Cinema, error) {
	return r.getByName(ctx, r.db, name, "")
}

// GetBySiteTx returns the oldest cinema registered with site.
func (r *CinemaRepo) GetBySiteTx(ctx context.Context, tx *sql.Tx, site string) (*model.Cinema, error) {
	return r.getBySite(ctx, tx, site)
}

// GetBySite returns the oldest cinema registered with site.
func (r *CinemaRepo) GetBySite(ctx context.Context, site string) (*model.Cinema, error) {
	return r.getBySite(ctx, r.db, site)
}

func (r *CinemaRepo) getBySite(ctx context.Context, q queryer, site string) (*model.Cinema, error) {
	row := q.QueryRowContext(ctx, `SELECT `+cinemaColumns+` FROM cinema WHERE site = ? ORDER BY id LIMIT 1`, site)
	c, err := scanCinema(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrCinemaNotFound
		}
		return nil, err
	}
	return c, nil
}

// GetByCountySite fetches a cinema by its (county, site) identity.
func (r *CinemaRepo) GetByCountySite(ctx context.Context, county, site string) (*model.Cinema, error) {
	return r.getByCountySite(ctx, r.db, county, site, "")
}

// CreateTx inserts a new cinema.  On success the cinema's ID and timestamps
// are populated from the stored row.
func (r *CinemaRepo) CreateTx(ctx context.Context, tx *sql.Tx, c *model.Cinema) error {
	names, screens, site, err := encodeCinema(c)
	if err != nil {
		return err
	}
	const qInsert = `INSERT INTO cinema (names, county, company, site, screens, screen_count, total_seats, source)
	                 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`
	res, err := tx.ExecContext(ctx, qInsert, names, c.County, c.Company, site, screens, c.ScreenCount, c.TotalSeats, c.Source)
	if err != nil {
		return err // propagate DB errors to the caller
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	c.ID = uint64(id)

	// Perform a follow‑up SELECT to populate default timestamp fields (created_at, updated_at).
	return tx.QueryRowContext(ctx, `SELECT created_at, updated_at FROM cinema WHERE id = ?`, c.ID).
		Scan(&c.CreatedAt, &c.UpdatedAt)
}

// UpdateTx overwrites every stored field of the cinema with c's values.  It
// returns ErrCinemaNotFound when the row disappeared.
func (r *CinemaRepo) UpdateTx(ctx context.Context, tx *sql.Tx, c *model.Cinema) error {
	names, screens, site, err := encodeCinema(c)
	if err != nil {
		return err
	}
	const q = `UPDATE cinema
	           SET names = ?, county = ?, company = ?, site = ?, screens = ?, screen_count = ?, total_seats = ?,
	               source = ?, updated_at = ?
	           WHERE id = ?`
	now := time.Now().UTC().Truncate(time.Second)
	res, err := tx.ExecContext(ctx, q, names, c.County, c.Company, site, screens, c.ScreenCount, c.TotalSeats,
		c.Source, now, c.ID)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrCinemaNotFound
	}
	c.UpdatedAt = now
	return nil
}

// Count returns the number of stored cinemas.
func (r *CinemaRepo) Count(ctx context.Context) (int, error) {
	var n int
	err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM cinema`).Scan(&n)
	return n, err
}
