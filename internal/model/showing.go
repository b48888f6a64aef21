package model

import (
    "fmt"
    "time"
)

// SeatType describes how seats are sold for a showing.
type SeatType string

const (
    SeatTypeNormal SeatType = "NormalSeat"
    SeatTypeFree   SeatType = "FreeSeat"
)

// Showing represents one scheduled screening of a movie on a specific screen
// at a specific time.  The business key (cinema name, cinema site, screen,
// start time, title) identifies the real-world screening; one row exists per
// key and every booking snapshot of that screening references it.
//
// Fields:
//  ID             – primary key identifier.
//  Title          – title as published by the cinema (part of the key).
//  TitleEn        – English title when the site publishes one.
//  RealTitle      – canonical movie title from the movie table.
//  StartTime      – screening start (part of the key), stored in UTC.
//  EndTime        – screening end.
//  CinemaName     – normalized cinema name (part of the key).
//  CinemaSite     – cinema site URL (part of the key, may be empty).
//  Screen         – normalized screen label (part of the key).
//  SeatType       – NormalSeat, FreeSeat, ...
//  TotalSeatCount – seat capacity; 0 when unknown.
//  Source         – crawl source that reported it.
type Showing struct {
    ID             uint64    // showing.id
    Title          string    // showing.title
    TitleEn        string    // showing.title_en
    RealTitle      string    // showing.real_title
    StartTime      time.Time // showing.start_time
    EndTime        time.Time // showing.end_time
    CinemaName     string    // showing.cinema_name
    CinemaSite     string    // showing.cinema_site
    Screen         string    // showing.screen
    SeatType       SeatType  // showing.seat_type
    TotalSeatCount int       // showing.total_seat_count
    Source         string    // showing.source
    CreatedAt      time.Time // showing.created_at
    UpdatedAt      time.Time // showing.updated_at
}

// Key renders the business key for logs and error reports.
func (s *Showing) Key() string {
    return fmt.Sprintf("%s|%s|%s|%s|%s",
        s.CinemaName, s.CinemaSite, s.Screen, s.StartTime.UTC().Format(time.RFC3339), s.Title)
}

// SameKey reports whether two showings share a business key.
func (s *Showing) SameKey(o *Showing) bool {
    return s.CinemaName == o.CinemaName &&
        s.CinemaSite == o.CinemaSite &&
        s.Screen == o.Screen &&
        s.StartTime.Equal(o.StartTime) &&
        s.Title == o.Title
}
