package model

import "time"

// Movie is a film title currently showing somewhere.  CurrentCinemaCount
// accumulates the partial counts reported by independent crawl passes.
type Movie struct {
    ID                 uint64    // movie.id
    Title              string    // movie.title (unique)
    CurrentCinemaCount int       // movie.current_cinema_count
    CreatedAt          time.Time // movie.created_at
    UpdatedAt          time.Time // movie.updated_at
}
