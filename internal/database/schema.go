package database

import (
	"context"
	"fmt"
)

// Table names.
const (
	TableCinema         = "cinema"
	TableMovie          = "movie"
	TableShowing        = "showing"
	TableShowingBooking = "showing_booking"
)

// Reinit targets accepted by Reinit.
const (
	TargetAll     = "all"
	TargetCinema  = "cinema"
	TargetMovie   = "movie"
	TargetShowing = "showing"
)

// Dialect carries the DDL that differs between MySQL and sqlite.
type Dialect struct {
	Name   string
	tables map[string]string
}

// Tables in creation order; showing_booking references showing.
var createOrder = []string{TableCinema, TableMovie, TableShowing, TableShowingBooking}

// targets lists the tables dropped for each reinit target, dependents first.
var targets = map[string][]string{
	TargetAll:     {TableShowingBooking, TableShowing, TableMovie, TableCinema},
	TargetCinema:  {TableCinema},
	TargetMovie:   {TableMovie},
	TargetShowing: {TableShowingBooking, TableShowing},
}

// ValidTarget reports whether target is a known reinit target.
func ValidTarget(target string) bool {
	_, ok := targets[target]
	return ok
}

var mysqlTables = map[string]string{
	TableCinema: `CREATE TABLE IF NOT EXISTS cinema (
    id BIGINT UNSIGNED NOT NULL AUTO_INCREMENT PRIMARY KEY,
    names TEXT NOT NULL,
    county VARCHAR(64) NOT NULL,
    company VARCHAR(128) NOT NULL DEFAULT '',
    site VARCHAR(255) NULL,
    screens TEXT NOT NULL,
    screen_count INT NOT NULL DEFAULT 0,
    total_seats INT NOT NULL DEFAULT 0,
    source VARCHAR(64) NOT NULL,
    created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
    updated_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP ON UPDATE CURRENT_TIMESTAMP,
    UNIQUE KEY uq_cinema_county_site (county, site)
) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,
	TableMovie: `CREATE TABLE IF NOT EXISTS movie (
    id BIGINT UNSIGNED NOT NULL AUTO_INCREMENT PRIMARY KEY,
    title VARCHAR(255) NOT NULL,
    current_cinema_count INT NOT NULL DEFAULT 0,
    created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
    updated_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP ON UPDATE CURRENT_TIMESTAMP,
    UNIQUE KEY uq_movie_title (title)
) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,
	TableShowing: `CREATE TABLE IF NOT EXISTS showing (
    id BIGINT UNSIGNED NOT NULL AUTO_INCREMENT PRIMARY KEY,
    title VARCHAR(160) NOT NULL,
    title_en VARCHAR(255) NOT NULL DEFAULT '',
    real_title VARCHAR(255) NOT NULL DEFAULT '',
    start_time DATETIME NOT NULL,
    end_time DATETIME NOT NULL,
    cinema_name VARCHAR(160) NOT NULL,
    cinema_site VARCHAR(160) NOT NULL DEFAULT '',
    screen VARCHAR(160) NOT NULL,
    seat_type VARCHAR(32) NOT NULL,
    total_seat_count INT NOT NULL DEFAULT 0,
    source VARCHAR(64) NOT NULL,
    created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
    updated_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP ON UPDATE CURRENT_TIMESTAMP,
    UNIQUE KEY uq_showing_business_key (cinema_name, cinema_site, screen, start_time, title)
) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,
	TableShowingBooking: `CREATE TABLE IF NOT EXISTS showing_booking (
    id BIGINT UNSIGNED NOT NULL AUTO_INCREMENT PRIMARY KEY,
    showing_id BIGINT UNSIGNED NOT NULL,
    book_status VARCHAR(32) NOT NULL,
    book_seat_count INT NOT NULL DEFAULT 0,
    minutes_before INT NOT NULL DEFAULT 0,
    record_time DATETIME NOT NULL,
    created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
    KEY idx_showing_booking_showing (showing_id),
    CONSTRAINT fk_showing_booking_showing FOREIGN KEY (showing_id) REFERENCES showing(id)
) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,
}

var sqliteTables = map[string]string{
	TableCinema: `CREATE TABLE IF NOT EXISTS cinema (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    names TEXT NOT NULL,
    county TEXT NOT NULL,
    company TEXT NOT NULL DEFAULT '',
    site TEXT NULL,
    screens TEXT NOT NULL,
    screen_count INTEGER NOT NULL DEFAULT 0,
    total_seats INTEGER NOT NULL DEFAULT 0,
    source TEXT NOT NULL,
    created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
    updated_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
    UNIQUE (county, site)
)`,
	TableMovie: `CREATE TABLE IF NOT EXISTS movie (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    title TEXT NOT NULL UNIQUE,
    current_cinema_count INTEGER NOT NULL DEFAULT 0,
    created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
    updated_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
)`,
	TableShowing: `CREATE TABLE IF NOT EXISTS showing (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    title TEXT NOT NULL,
    title_en TEXT NOT NULL DEFAULT '',
    real_title TEXT NOT NULL DEFAULT '',
    start_time DATETIME NOT NULL,
    end_time DATETIME NOT NULL,
    cinema_name TEXT NOT NULL,
    cinema_site TEXT NOT NULL DEFAULT '',
    screen TEXT NOT NULL,
    seat_type TEXT NOT NULL,
    total_seat_count INTEGER NOT NULL DEFAULT 0,
    source TEXT NOT NULL,
    created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
    updated_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
    UNIQUE (cinema_name, cinema_site, screen, start_time, title)
)`,
	TableShowingBooking: `CREATE TABLE IF NOT EXISTS showing_booking (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    showing_id INTEGER NOT NULL REFERENCES showing(id),
    book_status TEXT NOT NULL,
    book_seat_count INTEGER NOT NULL DEFAULT 0,
    minutes_before INTEGER NOT NULL DEFAULT 0,
    record_time DATETIME NOT NULL,
    created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
)`,
}

func dialectFor(driver string) Dialect {
	if driver == DriverSQLite {
		return Dialect{Name: DriverSQLite, tables: sqliteTables}
	}
	return Dialect{Name: DriverMySQL, tables: mysqlTables}
}

// EnsureSchema creates any missing table.
func (db *DB) EnsureSchema(ctx context.Context) error {
	for _, name := range createOrder {
		if _, err := db.ExecContext(ctx, db.Dialect.tables[name]); err != nil {
			return fmt.Errorf("create table %s: %w", name, err)
		}
	}
	return nil
}

// Reinit drops the tables selected by target and recreates the schema.  It
// is the full-reset operation run between crawl runs.
func (db *DB) Reinit(ctx context.Context, target string) error {
	drop, ok := targets[target]
	if !ok {
		return fmt.Errorf("unknown reinit target %q", target)
	}
	for _, name := range drop {
		if _, err := db.ExecContext(ctx, "DROP TABLE IF EXISTS "+name); err != nil {
			return fmt.Errorf("drop table %s: %w", name, err)
		}
	}
	return db.EnsureSchema(ctx)
}

// HasTable reports whether the named table exists.
func (db *DB) HasTable(ctx context.Context, name string) (bool, error) {
	var q string
	if db.Dialect.Name == DriverSQLite {
		q = `SELECT COUNT(*) FROM sqlite_master WHERE type = 'table' AND name = ?`
	} else {
		q = `SELECT COUNT(*) FROM information_schema.tables WHERE table_schema = DATABASE() AND table_name = ?`
	}
	var n int
	if err := db.QueryRowContext(ctx, q, name).Scan(&n); err != nil {
		return false, err
	}
	return n > 0, nil
}
