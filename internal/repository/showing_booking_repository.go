package repository

import (
    "context"
    "database/sql"

    "github.com/iliyamo/cinema-reconciler/internal/model"
)

// ShowingBookingRepo appends booking snapshots.  Rows are never updated.
type ShowingBookingRepo struct {
    db *sql.DB
}

// NewShowingBookingRepo creates a new ShowingBookingRepo.
func NewShowingBookingRepo(db *sql.DB) *ShowingBookingRepo {
    return &ShowingBookingRepo{db: db}
}

// CreateTx appends b.  b.ShowingID must reference a stored showing.
func (r *ShowingBookingRepo) CreateTx(ctx context.Context, tx *sql.Tx, b *model.ShowingBooking) error {
    const q = `INSERT INTO showing_booking (showing_id, book_status, book_seat_count, minutes_before, record_time)
               VALUES (?, ?, ?, ?, ?)`
    res, err := tx.ExecContext(ctx, q,
        b.ShowingID, string(b.BookStatus), b.BookSeatCount, b.MinutesBefore, b.RecordTime.UTC())
    if err != nil {
        return err
    }
    id, err := res.LastInsertId()
    if err != nil {
        return err
    }
    b.ID = uint64(id)
    return tx.QueryRowContext(ctx, `SELECT created_at FROM showing_booking WHERE id = ?`, b.ID).Scan(&b.CreatedAt)
}

// ListByShowing returns the snapshots of one showing, oldest first.
func (r *ShowingBookingRepo) ListByShowing(ctx context.Context, showingID uint64) ([]model.ShowingBooking, error) {
    const q = `SELECT id, showing_id, book_status, book_seat_count, minutes_before, record_time, created_at
               FROM showing_booking WHERE showing_id = ? ORDER BY record_time, id`
    rows, err := r.db.QueryContext(ctx, q, showingID)
    if err != nil {
        return nil, err
    }
    defer rows.Close()

    var out []model.ShowingBooking
    for rows.Next() {
        var b model.ShowingBooking
        var status string
        if err := rows.Scan(&b.ID, &b.ShowingID, &status, &b.BookSeatCount, &b.MinutesBefore,
            &b.RecordTime, &b.CreatedAt); err != nil {
            return nil, err
        }
        b.BookStatus = model.BookStatus(status)
        b.RecordTime = b.RecordTime.UTC()
        out = append(out, b)
    }
    return out, rows.Err()
}

// Count returns the number of stored booking snapshots.
func (r *ShowingBookingRepo) Count(ctx context.Context) (int, error) {
    var n int
    err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM showing_booking`).Scan(&n)
    return n, err
}
