// Package repository contains data access logic for showings. A Showing is
// stored once per business key (cinema name, cinema site, screen, start
// time, title); every booking snapshot points at that row.
package repository

import (
    "context"      // context for controlling query lifetime
    "database/sql" // sql provides DB abstraction
    "errors"       // errors for sentinel definitions
    "time"

    "github.com/iliyamo/cinema-reconciler/internal/model"
)

// ErrShowingNotFound indicates that a showing was not located in the DB.
var ErrShowingNotFound = errors.New("showing not found")

// ShowingRepo manages persistence for showings.
type ShowingRepo struct {
    db *sql.DB
}

// NewShowingRepo creates a new ShowingRepo.
func NewShowingRepo(db *sql.DB) *ShowingRepo {
    return &ShowingRepo{db: db}
}

const showingColumns = `id, title, title_en, real_title, start_time, end_time, cinema_name, cinema_site, screen,
       seat_type, total_seat_count, source, created_at, updated_at`

func scanShowing(s scanner) (*model.Showing, error) {
    var sh model.Showing
    var seatType string
    err := s.Scan(
        &sh.ID,
        &sh.Title,
        &sh.TitleEn,
        &sh.RealTitle,
        &sh.StartTime,
        &sh.EndTime,
        &sh.CinemaName,
        &sh.CinemaSite,
        &sh.Screen,
        &seatType,
        &sh.TotalSeatCount,
        &sh.Source,
        &sh.CreatedAt,
        &sh.UpdatedAt,
    )
    if err != nil {
        if errors.Is(err, sql.ErrNoRows) {
            return nil, ErrShowingNotFound
        }
        return nil, err
    }
    sh.SeatType = model.SeatType(seatType)
    sh.StartTime = sh.StartTime.UTC()
    sh.EndTime = sh.EndTime.UTC()
    return &sh, nil
}

// GetByBusinessKeyTx looks up the canonical showing sharing s's business key.
func (r *ShowingRepo) GetByBusinessKeyTx(ctx context.Context, tx *sql.Tx, s *model.Showing) (*model.Showing, error) {
    const q = `SELECT ` + showingColumns + `
               FROM showing
               WHERE cinema_name = ? AND cinema_site = ? AND screen = ? AND start_time = ? AND title = ?`
    return scanShowing(tx.QueryRowContext(ctx, q,
        s.CinemaName, s.CinemaSite, s.Screen, s.StartTime.UTC(), s.Title))
}

// GetByID returns a showing by primary key.
func (r *ShowingRepo) GetByID(ctx context.Context, id uint64) (*model.Showing, error) {
    return scanShowing(r.db.QueryRowContext(ctx, `SELECT `+showingColumns+` FROM showing WHERE id = ?`, id))
}

// CreateTx inserts a new showing using the provided transaction.  The
// caller must commit or roll back the transaction.  On success the
// generated ID and timestamps are populated on s.
func (r *ShowingRepo) CreateTx(ctx context.Context, tx *sql.Tx, s *model.Showing) error {
    const q = `INSERT INTO showing (title, title_en, real_title, start_time, end_time, cinema_name, cinema_site,
                                    screen, seat_type, total_seat_count, source)
               VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`
    res, err := tx.ExecContext(ctx, q,
        s.Title, s.TitleEn, s.RealTitle, s.StartTime.UTC(), s.EndTime.UTC(), s.CinemaName, s.CinemaSite,
        s.Screen, string(s.SeatType), s.TotalSeatCount, s.Source)
    if err != nil {
        return err
    }
    // Retrieve the auto-incremented ID assigned by the database.
    id, err := res.LastInsertId()
    if err != nil {
        return err
    }
    s.ID = uint64(id)
    return tx.QueryRowContext(ctx, `SELECT created_at, updated_at FROM showing WHERE id = ?`, s.ID).
        Scan(&s.CreatedAt, &s.UpdatedAt)
}

// UpdateDescriptiveTx stores the mutable descriptive fields of s.  Business
// key columns are never written here.
func (r *ShowingRepo) UpdateDescriptiveTx(ctx context.Context, tx *sql.Tx, s *model.Showing) error {
    const q = `UPDATE showing
               SET title_en = ?, real_title = ?, end_time = ?, seat_type = ?, total_seat_count = ?, source = ?,
                   updated_at = ?
               WHERE id = ?`
    now := time.Now().UTC().Truncate(time.Second)
    res, err := tx.ExecContext(ctx, q,
        s.TitleEn, s.RealTitle, s.EndTime.UTC(), string(s.SeatType), s.TotalSeatCount, s.Source, now, s.ID)
    if err != nil {
        return err
    }
    if n, _ := res.RowsAffected(); n == 0 {
        return ErrShowingNotFound
    }
    s.UpdatedAt = now
    return nil
}

// Count returns the number of stored showings.
func (r *ShowingRepo) Count(ctx context.Context) (int, error) {
    var n int
    err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM showing`).Scan(&n)
    return n, err
}
