package reconcile

import (
	"context"
	"database/sql"
	"errors"
	"maps"

	"github.com/iliyamo/cinema-reconciler/internal/metrics"
	"github.com/iliyamo/cinema-reconciler/internal/model"
	"github.com/iliyamo/cinema-reconciler/internal/repository"
)

// Strategy is how an incoming cinema combines with the stored one.
type Strategy int

const (
	// Insert stores the incoming cinema as a new row.
	Insert Strategy = iota
	// Replace takes screens, counts, company and county from the incoming
	// record and unions the aliases.
	Replace
	// InfoOnly keeps the stored screens and only unions the aliases.
	InfoOnly
	// UpdateCount merges the screen maps and recounts.
	UpdateCount
	// Drop discards the incoming record.
	Drop
)

func (s Strategy) String() string {
	switch s {
	case Insert:
		return "insert"
	case Replace:
		return "replace"
	case InfoOnly:
		return "info_only"
	case UpdateCount:
		return "update_count"
	case Drop:
		return "drop"
	}
	return "unknown"
}

// DecideCinema picks the merge strategy.  existing is nil when no stored
// cinema matched.
//
// Records from another source only win the screen data when they know more
// screens.  Records from the same source are only trusted to update counts
// when they carry a site; without one they are duplicates.
func DecideCinema(existing, incoming *model.Cinema) Strategy {
	switch {
	case existing == nil:
		return Insert
	case incoming.Source != existing.Source:
		if incoming.ScreenCount > existing.ScreenCount {
			return Replace
		}
		return InfoOnly
	case incoming.HasSite():
		return UpdateCount
	default:
		return Drop
	}
}

// ApplyCinema returns the row to store for strategy s, or nil for Drop.
// Neither input is modified.  Aliases are never lost: every strategy that
// writes keeps the stored names first and appends unseen incoming ones.
func ApplyCinema(s Strategy, existing, incoming *model.Cinema) *model.Cinema {
	switch s {
	case Insert:
		return incoming.Clone()
	case Replace:
		out := incoming.Clone()
		out.ID = existing.ID
		out.CreatedAt = existing.CreatedAt
		out.Names = existing.Clone().Names
		out.AddNames(incoming.Names...)
		if existing.HasSite() {
			out.Site = existing.Site
		}
		return out
	case InfoOnly:
		out := existing.Clone()
		out.AddNames(incoming.Names...)
		return out
	case UpdateCount:
		out := existing.Clone()
		out.AddNames(incoming.Names...)
		if out.Screens == nil {
			out.Screens = make(map[string]int, len(incoming.Screens))
		}
		maps.Copy(out.Screens, incoming.Screens)
		out.Recount()
		if !out.HasSite() {
			out.Site = incoming.Site
		}
		return out
	}
	return nil
}

// CinemaResult reports what reconcileCinema did.
type CinemaResult struct {
	Strategy Strategy
	Cinema   *model.Cinema // stored row after the merge; nil for Drop
	Written  bool          // false when dropped or when the merge changed nothing
}

func (p *Pipeline) reconcileCinema(ctx context.Context, tx *sql.Tx, in *model.Cinema) (CinemaResult, error) {
	existing, err := p.store.Cinemas.FindTx(ctx, tx, in)
	if err != nil && !errors.Is(err, repository.ErrCinemaNotFound) {
		return CinemaResult{}, err
	}

	strategy := DecideCinema(existing, in)
	metrics.CinemaMerges.WithLabelValues(strategy.String()).Inc()

	merged := ApplyCinema(strategy, existing, in)
	switch {
	case merged == nil:
		return CinemaResult{Strategy: strategy, Cinema: existing}, nil
	case existing == nil:
		if err := p.store.Cinemas.CreateTx(ctx, tx, merged); err != nil {
			return CinemaResult{}, err
		}
	case merged.SameContent(existing):
		return CinemaResult{Strategy: strategy, Cinema: existing}, nil
	default:
		if err := p.store.Cinemas.UpdateTx(ctx, tx, merged); err != nil {
			return CinemaResult{}, err
		}
	}
	return CinemaResult{Strategy: strategy, Cinema: merged, Written: true}, nil
}
