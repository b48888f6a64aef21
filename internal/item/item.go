// Package item defines the records crawlers deliver and turns them into
// validated model values.  Nothing downstream sees a raw record: a builder
// either returns a fully formed entity or a *ValidationError naming every
// offending field.
package item

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/goccy/go-json"
)

// Kind selects the record type carried by an Envelope.
type Kind string

const (
	KindCinema         Kind = "cinema"
	KindMovie          Kind = "movie"
	KindShowing        Kind = "showing"
	KindShowingBooking Kind = "showing_booking"
	KindDBManage       Kind = "dbmanage"
)

// Valid reports whether k is a known record type.
func (k Kind) Valid() bool {
	switch k {
	case KindCinema, KindMovie, KindShowing, KindShowingBooking, KindDBManage:
		return true
	}
	return false
}

// Envelope is the wire format shared by the queue and the HTTP ingest
// endpoint.
type Envelope struct {
	Type Kind            `json:"type"`
	Data json.RawMessage `json:"data"`
}

// SeatCount accepts seat numbers published either as JSON numbers or as
// numeric strings ("100").
type SeatCount int

// UnmarshalJSON implements json.Unmarshaler.
func (s *SeatCount) UnmarshalJSON(b []byte) error {
	raw := strings.TrimSpace(string(b))
	if raw == "null" {
		*s = 0
		return nil
	}
	raw = strings.Trim(raw, `"`)
	if raw == "" {
		*s = 0
		return nil
	}
	n, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil {
		return fmt.Errorf("seat count %q is not a number", raw)
	}
	*s = SeatCount(n)
	return nil
}

// Cinema is the record emitted by cinema crawlers.
type Cinema struct {
	Names       []string             `json:"names" validate:"required,min=1,dive,required"`
	County      string               `json:"county" validate:"required"`
	Company     string               `json:"company"`
	Site        string               `json:"site,omitempty"`
	Screens     map[string]SeatCount `json:"screens" validate:"dive,keys,required,endkeys,gte=0"`
	ScreenCount int                  `json:"screen_count" validate:"gte=0"`
	TotalSeats  int                  `json:"total_seats" validate:"gte=0"`
	Source      string               `json:"source" validate:"required"`
}

// Movie is the record emitted by movie list crawlers.
type Movie struct {
	Title              string `json:"title" validate:"required"`
	CurrentCinemaCount int    `json:"current_cinema_count" validate:"gte=0"`
}

// Showing is the record emitted by showing crawlers.  Times are ISO-8601 with
// a zone offset.
type Showing struct {
	Title          string `json:"title" validate:"required"`
	TitleEn        string `json:"title_en"`
	RealTitle      string `json:"real_title"`
	StartTime      string `json:"start_time" validate:"required"`
	EndTime        string `json:"end_time" validate:"required"`
	CinemaName     string `json:"cinema_name" validate:"required"`
	CinemaSite     string `json:"cinema_site"`
	Screen         string `json:"screen" validate:"required"`
	SeatType       string `json:"seat_type"`
	TotalSeatCount int    `json:"total_seat_count" validate:"gte=0"`
	Source         string `json:"source" validate:"required"`
}

// ShowingBooking is a booking snapshot of one showing.
type ShowingBooking struct {
	Showing       *Showing `json:"showing" validate:"required"`
	BookStatus    string   `json:"book_status" validate:"required"`
	BookSeatCount int      `json:"book_seat_count" validate:"gte=0"`
	MinutesBefore int      `json:"minutes_before"`
	RecordTime    string   `json:"record_time" validate:"required"`
}

// DBManage asks the processor to drop and recreate tables.
type DBManage struct {
	Action string `json:"action" validate:"required,oneof=init clear"`
	Target string `json:"target" validate:"required,oneof=all cinema movie showing"`
}
