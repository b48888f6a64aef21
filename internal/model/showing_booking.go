package model

import "time"

// BookStatus is the coarse availability a site shows for a screening.
type BookStatus string

const (
    BookStatusPlentyLeft BookStatus = "PlentyLeft"
    BookStatusFewLeft    BookStatus = "FewLeft"
    BookStatusSoldOut    BookStatus = "SoldOut"
    BookStatusNotSold    BookStatus = "NotSold"
)

// ShowingBooking is a point-in-time booking snapshot of a Showing.  Rows are
// append-only: every scrape produces a new one.
type ShowingBooking struct {
    ID            uint64     // showing_booking.id
    ShowingID     uint64     // showing_booking.showing_id
    Showing       *Showing   // owning showing, canonical once reconciled
    BookStatus    BookStatus // showing_booking.book_status
    BookSeatCount int        // showing_booking.book_seat_count
    MinutesBefore int        // showing_booking.minutes_before
    RecordTime    time.Time  // showing_booking.record_time
    CreatedAt     time.Time  // showing_booking.created_at
}
