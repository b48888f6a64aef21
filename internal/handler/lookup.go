package handler

import (
    "context"
    "net/http"
    "strconv"
    "strings"

    "github.com/labstack/echo/v4"

    "github.com/iliyamo/cinema-reconciler/internal/model"
    "github.com/iliyamo/cinema-reconciler/internal/screen"
)

// Lookups answers read-only questions about reconciled data.
// *reconcile.Pipeline implements it.
type Lookups interface {
    ScreenSeatCount(ctx context.Context, cinemaName, site, label string) (screen.Result, error)
    SearchMovies(ctx context.Context, query string, limit int) ([]model.Movie, error)
}

// LookupHandler serves the read endpoints.
type LookupHandler struct {
    Lookups Lookups
}

// NewLookupHandler panics when l is nil.
func NewLookupHandler(l Lookups) *LookupHandler {
    if l == nil {
        panic("nil lookups passed to NewLookupHandler")
    }
    return &LookupHandler{Lookups: l}
}

type seatCountResponse struct {
    Cinema     string `json:"cinema"`
    Site       string `json:"site,omitempty"`
    Screen     string `json:"screen"`
    Seats      int    `json:"seats"`
    Resolved   bool   `json:"resolved"`
    Stage      string `json:"stage"`
    Candidates int    `json:"candidates"`
}

// SeatCount handles GET /v1/cinemas/seat-count?cinema=&site=&screen=.  An
// unknown cinema or an ambiguous screen is not an error: seats is 0 and
// stage tells where the lookup stopped.
func (h *LookupHandler) SeatCount(c echo.Context) error {
    cinema := strings.TrimSpace(c.QueryParam("cinema"))
    site := strings.TrimSpace(c.QueryParam("site"))
    label := strings.TrimSpace(c.QueryParam("screen"))
    if cinema == "" && site == "" {
        return badRequest(c, "cinema or site is required")
    }
    if label == "" {
        return badRequest(c, "screen is required")
    }

    res, err := h.Lookups.ScreenSeatCount(c.Request().Context(), cinema, site, label)
    if err != nil {
        return writeError(c, err)
    }
    return c.JSON(http.StatusOK, seatCountResponse{
        Cinema:     cinema,
        Site:       site,
        Screen:     label,
        Seats:      res.Seats,
        Resolved:   res.Seats > 0,
        Stage:      res.Stage,
        Candidates: res.Candidates,
    })
}

type movieResponse struct {
    ID                 uint64 `json:"id"`
    Title              string `json:"title"`
    CurrentCinemaCount int    `json:"current_cinema_count"`
}

// Movies handles GET /v1/movies?title=&limit=.  Titles containing the query
// come first shortest-first, so an exact match leads the list.
func (h *LookupHandler) Movies(c echo.Context) error {
    q := strings.TrimSpace(c.QueryParam("title"))
    if q == "" {
        return badRequest(c, "title is required")
    }
    limit := 20
    if v := c.QueryParam("limit"); v != "" {
        n, err := strconv.Atoi(v)
        if err != nil || n <= 0 || n > 100 {
            return badRequest(c, "limit must be between 1 and 100")
        }
        limit = n
    }

    movies, err := h.Lookups.SearchMovies(c.Request().Context(), q, limit)
    if err != nil {
        return writeError(c, err)
    }
    out := make([]movieResponse, 0, len(movies))
    for _, m := range movies {
        out = append(out, movieResponse{ID: m.ID, Title: m.Title, CurrentCinemaCount: m.CurrentCinemaCount})
    }
    return c.JSON(http.StatusOK, out)
}
