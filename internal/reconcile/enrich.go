package reconcile

import (
	"context"
	"database/sql"
	"errors"

	"github.com/iliyamo/cinema-reconciler/internal/logging"
	"github.com/iliyamo/cinema-reconciler/internal/metrics"
	"github.com/iliyamo/cinema-reconciler/internal/model"
	"github.com/iliyamo/cinema-reconciler/internal/repository"
	"github.com/iliyamo/cinema-reconciler/internal/screen"
)

// enrichShowing fills what showing crawlers usually leave out: the canonical
// movie title and the seat capacity of the screen.  Values already present
// are kept.
func (p *Pipeline) enrichShowing(ctx context.Context, tx *sql.Tx, s *model.Showing) error {
	if s.RealTitle == "" {
		m, err := p.store.Movies.FindForShowingTx(ctx, tx, s.Title)
		switch {
		case err == nil:
			s.RealTitle = m.Title
		case !errors.Is(err, repository.ErrMovieNotFound):
			return err
		}
	}
	if s.TotalSeatCount == 0 {
		res, err := p.screenSeatsTx(ctx, tx, s.CinemaName, s.CinemaSite, s.Screen)
		if err != nil {
			return err
		}
		s.TotalSeatCount = res.Seats
	}
	return nil
}

// screenSeatsTx looks up the stored cinema by name (then by site) and
// resolves label against its screen map.  An unknown cinema or an ambiguous
// screen yields Seats == 0; both are logged as data-quality signals.
func (p *Pipeline) screenSeatsTx(ctx context.Context, tx *sql.Tx, cinemaName, site, label string) (screen.Result, error) {
	c, err := p.store.Cinemas.GetByNameTx(ctx, tx, cinemaName)
	if errors.Is(err, repository.ErrCinemaNotFound) && site != "" {
		c, err = p.store.Cinemas.GetBySiteTx(ctx, tx, site)
	}
	if errors.Is(err, repository.ErrCinemaNotFound) {
		metrics.ScreensUnresolved.WithLabelValues("no_cinema").Inc()
		logging.Ctx(ctx).Debug().Str("cinema", cinemaName).Str("site", site).Msg("no stored cinema for screen lookup")
		return screen.Result{Stage: screen.StageNone}, nil
	}
	if err != nil {
		return screen.Result{}, err
	}

	res := p.resolver.ResolveDetail(c.Screens, cinemaName, label)
	// the showing may use an alias that is not the prefix of the stored labels
	for _, name := range c.Names {
		if res.Stage != screen.StageScope {
			break
		}
		if name != cinemaName {
			res = p.resolver.ResolveDetail(c.Screens, name, label)
		}
	}

	if !res.Resolved() {
		reason := "ambiguous"
		if res.Candidates == 0 {
			reason = "empty"
		}
		metrics.ScreensUnresolved.WithLabelValues(reason).Inc()
		logging.Ctx(ctx).Warn().
			Uint64("cinema_id", c.ID).
			Str("cinema", cinemaName).
			Str("screen", label).
			Str("stage", res.Stage).
			Int("candidates", res.Candidates).
			Msg("screen seat count unresolved")
	}
	return res, nil
}
