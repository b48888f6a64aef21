package reconcile

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/iliyamo/cinema-reconciler/internal/model"
)

func cinema(source, site string, names []string, screens map[string]int) *model.Cinema {
	c := &model.Cinema{Names: names, County: "東京都", Company: "co-" + source, Site: site, Screens: screens, Source: source}
	c.Recount()
	return c
}

func TestDecideCinema(t *testing.T) {
	stored := cinema("a", "s", []string{"c"}, map[string]int{"c#1": 10, "c#2": 20})

	tests := []struct {
		name     string
		existing *model.Cinema
		incoming *model.Cinema
		want     Strategy
	}{
		{"absent", nil, stored, Insert},
		{"other source with more screens", stored, cinema("b", "", []string{"c"}, map[string]int{"c#1": 1, "c#2": 2, "c#3": 3}), Replace},
		{"other source with as many screens", stored, cinema("b", "s", []string{"c"}, map[string]int{"c#1": 1, "c#2": 2}), InfoOnly},
		{"other source with fewer screens", stored, cinema("b", "s", []string{"c"}, map[string]int{"c#1": 1}), InfoOnly},
		{"same source with site", stored, cinema("a", "s", []string{"c"}, map[string]int{"c#3": 30}), UpdateCount},
		{"same source without site", stored, cinema("a", "", []string{"c"}, map[string]int{"c#3": 30}), Drop},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, DecideCinema(tt.existing, tt.incoming))
		})
	}
}

func TestApplyCinema_Replace(t *testing.T) {
	existing := cinema("a", "s", []string{"c", "old"}, map[string]int{"c#1": 10})
	existing.ID = 7
	incoming := cinema("b", "other", []string{"new", "c"}, map[string]int{"c#1": 11, "c#2": 22})
	incoming.County = "大阪府"

	out := ApplyCinema(Replace, existing, incoming)
	assert.Equal(t, uint64(7), out.ID)
	assert.Equal(t, []string{"c", "old", "new"}, out.Names)
	assert.Equal(t, map[string]int{"c#1": 11, "c#2": 22}, out.Screens)
	assert.Equal(t, 2, out.ScreenCount)
	assert.Equal(t, 33, out.TotalSeats)
	assert.Equal(t, "co-b", out.Company)
	assert.Equal(t, "大阪府", out.County)
	assert.Equal(t, "b", out.Source)
	assert.Equal(t, "s", out.Site)

	// inputs untouched
	assert.Equal(t, []string{"c", "old"}, existing.Names)
	assert.Equal(t, []string{"new", "c"}, incoming.Names)
}

func TestApplyCinema_ReplaceAdoptsSiteWhenMissing(t *testing.T) {
	existing := cinema("a", "", []string{"c"}, map[string]int{})
	incoming := cinema("b", "s", []string{"c"}, map[string]int{"c#1": 1})
	assert.Equal(t, "s", ApplyCinema(Replace, existing, incoming).Site)
}

func TestApplyCinema_InfoOnly(t *testing.T) {
	existing := cinema("a", "s", []string{"c"}, map[string]int{"c#1": 10, "c#2": 20})
	incoming := cinema("b", "", []string{"alias"}, map[string]int{"c#1": 99})

	out := ApplyCinema(InfoOnly, existing, incoming)
	assert.Equal(t, []string{"c", "alias"}, out.Names)
	assert.Equal(t, existing.Screens, out.Screens)
	assert.Equal(t, 30, out.TotalSeats)
	assert.Equal(t, "a", out.Source)
}

func TestApplyCinema_UpdateCount(t *testing.T) {
	existing := cinema("a", "s", []string{"c"}, map[string]int{"c#1": 10, "c#2": 20})
	incoming := cinema("a", "s2", []string{"c"}, map[string]int{"c#2": 25, "c#3": 30})
	incoming.Company = "other"

	out := ApplyCinema(UpdateCount, existing, incoming)
	assert.Equal(t, map[string]int{"c#1": 10, "c#2": 25, "c#3": 30}, out.Screens)
	assert.Equal(t, 3, out.ScreenCount)
	assert.Equal(t, 65, out.TotalSeats)
	assert.Equal(t, "s", out.Site)
	assert.Equal(t, "co-a", out.Company)
	assert.Equal(t, map[string]int{"c#1": 10, "c#2": 20}, existing.Screens)
}

func TestApplyCinema_Drop(t *testing.T) {
	existing := cinema("a", "s", []string{"c"}, nil)
	assert.Nil(t, ApplyCinema(Drop, existing, existing))
}

func TestStrategyString(t *testing.T) {
	assert.Equal(t, "update_count", UpdateCount.String())
	assert.Equal(t, "unknown", Strategy(42).String())
}

func TestMergeMovie(t *testing.T) {
	in := &model.Movie{Title: "m", CurrentCinemaCount: 1}
	assert.Equal(t, 1, MergeMovie(nil, in).CurrentCinemaCount)

	existing := &model.Movie{ID: 3, Title: "m", CurrentCinemaCount: 3}
	out := MergeMovie(existing, in)
	assert.Equal(t, 4, out.CurrentCinemaCount)
	assert.Equal(t, uint64(3), out.ID)
	assert.Equal(t, 3, existing.CurrentCinemaCount)
}

func TestRefreshShowing(t *testing.T) {
	start := time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)
	canonical := &model.Showing{
		ID: 1, Title: "t", RealTitle: "old", StartTime: start, EndTime: start.Add(time.Hour),
		CinemaName: "c", Screen: "c#1", SeatType: model.SeatTypeNormal, TotalSeatCount: 100, Source: "a",
	}

	same := *canonical
	assert.False(t, RefreshShowing(canonical, &same))

	empty := &model.Showing{Title: "other", Screen: "x"}
	assert.False(t, RefreshShowing(canonical, empty))
	assert.Equal(t, "old", canonical.RealTitle)
	assert.Equal(t, 100, canonical.TotalSeatCount)

	newer := *canonical
	newer.RealTitle = "new"
	newer.Title = "changed key"
	newer.EndTime = start.Add(2 * time.Hour)
	newer.SeatType = model.SeatTypeFree
	assert.True(t, RefreshShowing(canonical, &newer))
	assert.Equal(t, "new", canonical.RealTitle)
	assert.Equal(t, "t", canonical.Title)
	assert.Equal(t, model.SeatTypeFree, canonical.SeatType)
	assert.True(t, canonical.EndTime.Equal(start.Add(2*time.Hour)))
}
