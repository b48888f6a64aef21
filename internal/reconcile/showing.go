package reconcile

import (
	"context"
	"database/sql"
	"errors"

	"github.com/iliyamo/cinema-reconciler/internal/logging"
	"github.com/iliyamo/cinema-reconciler/internal/metrics"
	"github.com/iliyamo/cinema-reconciler/internal/model"
	"github.com/iliyamo/cinema-reconciler/internal/repository"
)

// RefreshShowing copies the mutable descriptive fields of newer onto
// canonical and reports whether anything changed.  Empty or zero values in
// newer never erase stored data, and business key fields are never touched.
func RefreshShowing(canonical, newer *model.Showing) bool {
	changed := false
	setStr := func(dst *string, v string) {
		if v != "" && *dst != v {
			*dst = v
			changed = true
		}
	}
	setStr(&canonical.TitleEn, newer.TitleEn)
	setStr(&canonical.RealTitle, newer.RealTitle)
	setStr(&canonical.Source, newer.Source)
	if newer.SeatType != "" && canonical.SeatType != newer.SeatType {
		canonical.SeatType = newer.SeatType
		changed = true
	}
	if newer.TotalSeatCount > 0 && canonical.TotalSeatCount != newer.TotalSeatCount {
		canonical.TotalSeatCount = newer.TotalSeatCount
		changed = true
	}
	if !newer.EndTime.IsZero() && !newer.EndTime.Before(canonical.StartTime) && !canonical.EndTime.Equal(newer.EndTime) {
		canonical.EndTime = newer.EndTime
		changed = true
	}
	return changed
}

// reconcileShowing returns the canonical showing for in's business key,
// inserting in when the key is new.  A stored showing is returned as is:
// the first version seen stays authoritative on this path.
func (p *Pipeline) reconcileShowing(ctx context.Context, tx *sql.Tx, in *model.Showing) (*model.Showing, bool, error) {
	existing, err := p.store.Showings.GetByBusinessKeyTx(ctx, tx, in)
	if err == nil {
		return existing, false, nil
	}
	if !errors.Is(err, repository.ErrShowingNotFound) {
		return nil, false, err
	}
	created := *in
	if err := p.store.Showings.CreateTx(ctx, tx, &created); err != nil {
		return nil, false, err
	}
	metrics.ShowingsCreated.Inc()
	return &created, true, nil
}

// reconcileBooking resolves the booking's showing to the canonical row,
// refreshes that row's descriptive fields from the snapshot and appends the
// booking.  The stored booking always references the canonical showing, so
// every snapshot of one screening shares the same metadata.
func (p *Pipeline) reconcileBooking(ctx context.Context, tx *sql.Tx, in *model.ShowingBooking) (*model.ShowingBooking, error) {
	canonical, created, err := p.reconcileShowing(ctx, tx, in.Showing)
	if err != nil {
		return nil, err
	}
	if !created && RefreshShowing(canonical, in.Showing) {
		if err := p.store.Showings.UpdateDescriptiveTx(ctx, tx, canonical); err != nil {
			return nil, err
		}
		metrics.ShowingsRefreshed.Inc()
		logging.Ctx(ctx).Debug().
			Uint64("showing_id", canonical.ID).
			Str("key", canonical.Key()).
			Msg("showing refreshed from booking")
	}

	out := *in
	out.Showing = canonical
	out.ShowingID = canonical.ID
	if err := p.store.Bookings.CreateTx(ctx, tx, &out); err != nil {
		return nil, err
	}
	return &out, nil
}
