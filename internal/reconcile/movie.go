package reconcile

import (
	"context"
	"database/sql"
	"errors"

	"github.com/iliyamo/cinema-reconciler/internal/model"
	"github.com/iliyamo/cinema-reconciler/internal/repository"
)

// MergeMovie combines an incoming movie with the stored one (nil when
// absent).  Crawl passes each report a partial cinema count, so counts add
// up.  The title is never changed.
func MergeMovie(existing, incoming *model.Movie) *model.Movie {
	if existing == nil {
		out := *incoming
		return &out
	}
	out := *existing
	out.CurrentCinemaCount += incoming.CurrentCinemaCount
	return &out
}

func (p *Pipeline) reconcileMovie(ctx context.Context, tx *sql.Tx, in *model.Movie) (*model.Movie, error) {
	existing, err := p.store.Movies.LockByTitleTx(ctx, tx, in.Title)
	if err != nil && !errors.Is(err, repository.ErrMovieNotFound) {
		return nil, err
	}
	merged := MergeMovie(existing, in)
	if existing == nil {
		return merged, p.store.Movies.CreateTx(ctx, tx, merged)
	}
	if in.CurrentCinemaCount == 0 {
		return existing, nil
	}
	// The stored count is bumped in place rather than overwritten with
	// merged, which may be stale if another pass committed since the read.
	out := *existing
	return &out, p.store.Movies.AddCountTx(ctx, tx, &out, in.CurrentCinemaCount)
}
