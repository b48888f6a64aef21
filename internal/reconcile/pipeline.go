// Package reconcile decides, for every incoming cinema, movie, showing and
// booking record, whether it is new, a duplicate or an update of what is
// stored, and applies that decision in one storage transaction per item.
//
// The merge rules are pure functions (DecideCinema, ApplyCinema, MergeMovie,
// RefreshShowing); Pipeline loads the stored rows, calls them and writes the
// result.  Every failure comes back as an *ItemError carrying the entity
// kind, its business key and a failure class (ErrMalformed,
// ErrStorageConflict, ErrStorageUnavailable).
package reconcile

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/iliyamo/cinema-reconciler/internal/database"
	"github.com/iliyamo/cinema-reconciler/internal/item"
	"github.com/iliyamo/cinema-reconciler/internal/logging"
	"github.com/iliyamo/cinema-reconciler/internal/metrics"
	"github.com/iliyamo/cinema-reconciler/internal/model"
	"github.com/iliyamo/cinema-reconciler/internal/normalize"
	"github.com/iliyamo/cinema-reconciler/internal/repository"
	"github.com/iliyamo/cinema-reconciler/internal/screen"
)

var errReinitDisabled = errors.New("reinit is not enabled")

// Admin drops and recreates tables.  *database.DB implements it.
type Admin interface {
	Reinit(ctx context.Context, target string) error
}

// Pipeline reconciles items against the store.  It holds no mutable state
// and is safe for concurrent use; concurrent writers on one identity are
// serialized by the store's unique indexes.
type Pipeline struct {
	store    *repository.Store
	resolver *screen.Resolver
	admin    Admin
}

// New builds a Pipeline.  A nil resolver uses the built-in alias table; a
// nil admin disables Reinit.
func New(store *repository.Store, resolver *screen.Resolver, admin Admin) *Pipeline {
	if resolver == nil {
		resolver = screen.NewResolver(nil)
	}
	return &Pipeline{store: store, resolver: resolver, admin: admin}
}

// Handle decodes env and reconciles it.  The returned error, if any, is an
// *ItemError.
func (p *Pipeline) Handle(ctx context.Context, env item.Envelope) error {
	if logging.CorrelationIDFromContext(ctx) == "" {
		ctx = logging.ContextWithNewCorrelationID(ctx)
	}
	start := time.Now()
	err := p.dispatch(ctx, env)
	metrics.RecordItem(string(env.Type), Outcome(err), time.Since(start))

	if err != nil {
		logging.Ctx(ctx).Warn().Err(err).
			Str("kind", string(env.Type)).
			Str("outcome", Outcome(err)).
			Msg("item rejected")
		return err
	}
	logging.Ctx(ctx).Debug().Str("kind", string(env.Type)).Dur("took", time.Since(start)).Msg("item reconciled")
	return nil
}

func (p *Pipeline) dispatch(ctx context.Context, env item.Envelope) error {
	switch env.Type {
	case item.KindCinema:
		c, err := item.DecodeCinema(env.Data)
		if err != nil {
			return wrap(env.Type, "", err)
		}
		_, err = p.ReconcileCinema(ctx, c)
		return err
	case item.KindMovie:
		m, err := item.DecodeMovie(env.Data)
		if err != nil {
			return wrap(env.Type, "", err)
		}
		_, err = p.ReconcileMovie(ctx, m)
		return err
	case item.KindShowing:
		s, err := item.DecodeShowing(env.Data)
		if err != nil {
			return wrap(env.Type, "", err)
		}
		_, err = p.ReconcileShowing(ctx, s)
		return err
	case item.KindShowingBooking:
		b, err := item.DecodeShowingBooking(env.Data)
		if err != nil {
			return wrap(env.Type, "", err)
		}
		_, err = p.ReconcileBooking(ctx, b)
		return err
	case item.KindDBManage:
		req, err := item.DecodeDBManage(env.Data)
		if err != nil {
			return wrap(env.Type, "", err)
		}
		return p.Reinit(ctx, req.Target)
	}
	return wrap(env.Type, "", &item.ValidationError{
		Kind:   env.Type,
		Fields: []item.FieldError{{Field: "type", Reason: "unknown item type"}},
	})
}

// ReconcileCinema merges c into the stored cinema it identifies, or inserts
// it.
func (p *Pipeline) ReconcileCinema(ctx context.Context, c *model.Cinema) (CinemaResult, error) {
	var res CinemaResult
	err := p.store.WithTx(ctx, func(tx *sql.Tx) error {
		var err error
		res, err = p.reconcileCinema(ctx, tx, c)
		return err
	})
	if err != nil {
		return CinemaResult{}, wrap(item.KindCinema, c.Key(), err)
	}
	logging.Ctx(ctx).Debug().
		Str("cinema", c.Key()).
		Str("strategy", res.Strategy.String()).
		Bool("written", res.Written).
		Msg("cinema reconciled")
	return res, nil
}

// ReconcileMovie adds m's cinema count to the stored movie, or inserts it.
func (p *Pipeline) ReconcileMovie(ctx context.Context, m *model.Movie) (*model.Movie, error) {
	var out *model.Movie
	err := p.store.WithTx(ctx, func(tx *sql.Tx) error {
		var err error
		out, err = p.reconcileMovie(ctx, tx, m)
		return err
	})
	if err != nil {
		return nil, wrap(item.KindMovie, m.Title, err)
	}
	return out, nil
}

// ReconcileShowing returns the canonical showing for s's business key,
// inserting s (after enrichment) when the key is new.
func (p *Pipeline) ReconcileShowing(ctx context.Context, s *model.Showing) (*model.Showing, error) {
	var out *model.Showing
	err := p.store.WithTx(ctx, func(tx *sql.Tx) error {
		in := *s
		if err := p.enrichShowing(ctx, tx, &in); err != nil {
			return err
		}
		var err error
		out, _, err = p.reconcileShowing(ctx, tx, &in)
		return err
	})
	if err != nil {
		return nil, wrap(item.KindShowing, s.Key(), err)
	}
	return out, nil
}

// ReconcileBooking appends b against the canonical showing.
func (p *Pipeline) ReconcileBooking(ctx context.Context, b *model.ShowingBooking) (*model.ShowingBooking, error) {
	if b.Showing == nil {
		return nil, wrap(item.KindShowingBooking, "", &item.ValidationError{
			Kind:   item.KindShowingBooking,
			Fields: []item.FieldError{{Field: "showing", Reason: "required"}},
		})
	}
	var out *model.ShowingBooking
	err := p.store.WithTx(ctx, func(tx *sql.Tx) error {
		in := *b
		sh := *b.Showing
		in.Showing = &sh
		if err := p.enrichShowing(ctx, tx, in.Showing); err != nil {
			return err
		}
		var err error
		out, err = p.reconcileBooking(ctx, tx, &in)
		return err
	})
	if err != nil {
		return nil, wrap(item.KindShowingBooking, b.Showing.Key(), err)
	}
	return out, nil
}

// Reinit drops and recreates the tables selected by target.
func (p *Pipeline) Reinit(ctx context.Context, target string) error {
	if !database.ValidTarget(target) {
		return wrap(item.KindDBManage, target, &item.ValidationError{
			Kind:   item.KindDBManage,
			Key:    target,
			Fields: []item.FieldError{{Field: "target", Reason: "unknown target"}},
		})
	}
	if p.admin == nil {
		return wrap(item.KindDBManage, target, errReinitDisabled)
	}
	if err := p.admin.Reinit(ctx, target); err != nil {
		return wrap(item.KindDBManage, target, err)
	}
	logging.Ctx(ctx).Info().Str("target", target).Msg("tables reinitialized")
	return nil
}

// ScreenSeatCount resolves a screen label against the stored cinema named
// cinemaName (or registered with site).  Seats is 0 when the cinema is
// unknown or the label is ambiguous.
func (p *Pipeline) ScreenSeatCount(ctx context.Context, cinemaName, site, label string) (screen.Result, error) {
	cinemaName = normalize.Name(cinemaName)
	var res screen.Result
	err := p.store.WithTx(ctx, func(tx *sql.Tx) error {
		var err error
		res, err = p.screenSeatsTx(ctx, tx, cinemaName, site, normalize.Name(label))
		return err
	})
	if err != nil {
		return screen.Result{}, wrap(item.KindCinema, cinemaName, err)
	}
	return res, nil
}

// SearchMovies lists stored movies whose title contains query.
func (p *Pipeline) SearchMovies(ctx context.Context, query string, limit int) ([]model.Movie, error) {
	out, err := p.store.Movies.SearchByTitle(ctx, normalize.Width(query), limit)
	if err != nil {
		return nil, wrap(item.KindMovie, query, err)
	}
	return out, nil
}
