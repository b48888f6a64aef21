package repository

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/cinema-reconciler/internal/database"
	"github.com/iliyamo/cinema-reconciler/internal/model"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	db, err := database.Open(database.Options{Driver: database.DriverSQLite})
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	require.NoError(t, db.EnsureSchema(context.Background()))
	return NewStore(db.DB)
}

func TestCinemaRepo_RoundTrip(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	in := &model.Cinema{
		Names:   []string{"TOHOシネマズ日比谷", "日比谷"},
		County:  "東京都",
		Company: "TOHO",
		Site:    "https://example.com/hibiya",
		Screens: map[string]int{"TOHOシネマズ日比谷#SCREEN1": 100, "TOHOシネマズ日比谷#SCREEN2": 200},
		Source:  "toho",
	}
	in.Recount()
	require.NoError(t, s.WithTx(ctx, func(tx *sql.Tx) error { return s.Cinemas.CreateTx(ctx, tx, in) }))
	assert.NotZero(t, in.ID)

	got, err := s.Cinemas.GetByCountySite(ctx, "東京都", "https://example.com/hibiya")
	require.NoError(t, err)
	assert.True(t, in.SameContent(got))

	byName, err := s.Cinemas.GetByName(ctx, "日比谷")
	require.NoError(t, err)
	assert.Equal(t, in.ID, byName.ID)

	bySite, err := s.Cinemas.GetBySite(ctx, "https://example.com/hibiya")
	require.NoError(t, err)
	assert.Equal(t, in.ID, bySite.ID)

	// substring of an alias is not an alias
	_, err = s.Cinemas.GetByName(ctx, "日比")
	assert.ErrorIs(t, err, ErrCinemaNotFound)
}

func TestCinemaRepo_FindTx(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	noSite := &model.Cinema{Names: []string{"シネマA"}, County: "大阪府", Screens: map[string]int{}, Source: "a"}
	require.NoError(t, s.WithTx(ctx, func(tx *sql.Tx) error { return s.Cinemas.CreateTx(ctx, tx, noSite) }))

	probe := &model.Cinema{Names: []string{"別名", "シネマA"}, County: "大阪府", Site: "https://a.example"}
	require.NoError(t, s.WithTx(ctx, func(tx *sql.Tx) error {
		found, err := s.Cinemas.FindTx(ctx, tx, probe)
		require.NoError(t, err)
		assert.Equal(t, noSite.ID, found.ID)
		assert.Empty(t, found.Site)
		return nil
	}))

	require.NoError(t, s.WithTx(ctx, func(tx *sql.Tx) error {
		_, err := s.Cinemas.FindTx(ctx, tx, &model.Cinema{Names: []string{"nothing"}, County: "x"})
		assert.ErrorIs(t, err, ErrCinemaNotFound)
		return nil
	}))
}

func TestCinemaRepo_Update(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	c := &model.Cinema{Names: []string{"c"}, County: "x", Site: "s", Screens: map[string]int{"c#1": 10}, Source: "a"}
	c.Recount()
	require.NoError(t, s.WithTx(ctx, func(tx *sql.Tx) error { return s.Cinemas.CreateTx(ctx, tx, c) }))

	c.AddNames("c2")
	c.Screens["c#2"] = 20
	c.Recount()
	require.NoError(t, s.WithTx(ctx, func(tx *sql.Tx) error { return s.Cinemas.UpdateTx(ctx, tx, c) }))

	got, err := s.Cinemas.GetByCountySite(ctx, "x", "s")
	require.NoError(t, err)
	assert.Equal(t, []string{"c", "c2"}, got.Names)
	assert.Equal(t, 30, got.TotalSeats)
	assert.Equal(t, 2, got.ScreenCount)
}

func TestCinemaRepo_DuplicateIdentityIsConflict(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	mk := func() *model.Cinema {
		return &model.Cinema{Names: []string{"c"}, County: "x", Site: "s", Screens: map[string]int{}, Source: "a"}
	}
	require.NoError(t, s.WithTx(ctx, func(tx *sql.Tx) error { return s.Cinemas.CreateTx(ctx, tx, mk()) }))
	err := s.WithTx(ctx, func(tx *sql.Tx) error { return s.Cinemas.CreateTx(ctx, tx, mk()) })
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrConflict)

	n, err := s.Cinemas.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func TestWithTx_RollsBack(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)
	boom := errors.New("boom")

	err := s.WithTx(ctx, func(tx *sql.Tx) error {
		require.NoError(t, s.Movies.CreateTx(ctx, tx, &model.Movie{Title: "m", CurrentCinemaCount: 1}))
		return boom
	})
	assert.ErrorIs(t, err, boom)
	assert.NotErrorIs(t, err, ErrConflict)

	n, err := s.Movies.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, n)
}

func TestMovieRepo(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	for _, title := range []string{"ゴジラ-1.0", "ゴジラ", "100%_wolf"} {
		m := &model.Movie{Title: title, CurrentCinemaCount: 1}
		require.NoError(t, s.WithTx(ctx, func(tx *sql.Tx) error { return s.Movies.CreateTx(ctx, tx, m) }))
	}

	m, err := s.Movies.GetByTitle(ctx, "ゴジラ")
	require.NoError(t, err)
	require.NoError(t, s.WithTx(ctx, func(tx *sql.Tx) error { return s.Movies.AddCountTx(ctx, tx, m, 4) }))
	assert.Equal(t, 5, m.CurrentCinemaCount)
	m, err = s.Movies.GetByTitle(ctx, "ゴジラ")
	require.NoError(t, err)
	assert.Equal(t, 5, m.CurrentCinemaCount)

	found, err := s.Movies.SearchByTitle(ctx, "ゴジ", 0)
	require.NoError(t, err)
	require.Len(t, found, 2)
	assert.Equal(t, "ゴジラ", found[0].Title)

	found, err = s.Movies.SearchByTitle(ctx, "0%_", 0)
	require.NoError(t, err)
	require.Len(t, found, 1)
	assert.Equal(t, "100%_wolf", found[0].Title)

	found, err = s.Movies.SearchByTitle(ctx, "%", 0)
	require.NoError(t, err)
	assert.Len(t, found, 1)

	require.NoError(t, s.WithTx(ctx, func(tx *sql.Tx) error {
		got, err := s.Movies.FindForShowingTx(ctx, tx, "ゴジラ")
		require.NoError(t, err)
		assert.Equal(t, "ゴジラ", got.Title)

		got, err = s.Movies.FindForShowingTx(ctx, tx, "-1.0")
		require.NoError(t, err)
		assert.Equal(t, "ゴジラ-1.0", got.Title)

		got, err = s.Movies.FindForShowingTx(ctx, tx, "ゴジラ-1.0（字幕）")
		require.NoError(t, err)
		assert.Equal(t, "ゴジラ-1.0", got.Title)

		_, err = s.Movies.FindForShowingTx(ctx, tx, "unknown")
		assert.ErrorIs(t, err, ErrMovieNotFound)
		return nil
	}))
}

func TestShowingRepo_RoundTrip(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)
	start := time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)

	sh := &model.Showing{
		Title: "t", TitleEn: "T", RealTitle: "real",
		StartTime: start, EndTime: start.Add(2 * time.Hour),
		CinemaName: "c", CinemaSite: "s", Screen: "c#1",
		SeatType: model.SeatTypeNormal, TotalSeatCount: 100, Source: "a",
	}
	require.NoError(t, s.WithTx(ctx, func(tx *sql.Tx) error { return s.Showings.CreateTx(ctx, tx, sh) }))

	probe := &model.Showing{Title: "t", StartTime: start.In(time.FixedZone("JST", 9*3600)),
		CinemaName: "c", CinemaSite: "s", Screen: "c#1"}
	require.NoError(t, s.WithTx(ctx, func(tx *sql.Tx) error {
		got, err := s.Showings.GetByBusinessKeyTx(ctx, tx, probe)
		require.NoError(t, err)
		assert.Equal(t, sh.ID, got.ID)
		assert.True(t, got.StartTime.Equal(start))
		assert.True(t, got.EndTime.Equal(sh.EndTime))
		assert.Equal(t, "T", got.TitleEn)
		assert.Equal(t, "real", got.RealTitle)
		assert.Equal(t, model.SeatTypeNormal, got.SeatType)
		assert.Equal(t, 100, got.TotalSeatCount)

		got.RealTitle = "new"
		got.TotalSeatCount = 120
		return s.Showings.UpdateDescriptiveTx(ctx, tx, got)
	}))

	got, err := s.Showings.GetByID(ctx, sh.ID)
	require.NoError(t, err)
	assert.Equal(t, "new", got.RealTitle)
	assert.Equal(t, 120, got.TotalSeatCount)

	probe.Screen = "c#2"
	require.NoError(t, s.WithTx(ctx, func(tx *sql.Tx) error {
		_, err := s.Showings.GetByBusinessKeyTx(ctx, tx, probe)
		assert.ErrorIs(t, err, ErrShowingNotFound)
		return nil
	}))
}

func TestShowingBookingRepo(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)
	start := time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)

	sh := &model.Showing{Title: "t", StartTime: start, EndTime: start.Add(time.Hour), CinemaName: "c",
		Screen: "c#1", SeatType: model.SeatTypeFree, Source: "a"}
	require.NoError(t, s.WithTx(ctx, func(tx *sql.Tx) error {
		if err := s.Showings.CreateTx(ctx, tx, sh); err != nil {
			return err
		}
		for i, status := range []model.BookStatus{model.BookStatusPlentyLeft, model.BookStatusSoldOut} {
			b := &model.ShowingBooking{ShowingID: sh.ID, BookStatus: status, BookSeatCount: i * 10,
				MinutesBefore: 60 - i*30, RecordTime: start.Add(time.Duration(i-2) * time.Hour)}
			if err := s.Bookings.CreateTx(ctx, tx, b); err != nil {
				return err
			}
		}
		return nil
	}))

	list, err := s.Bookings.ListByShowing(ctx, sh.ID)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, model.BookStatusPlentyLeft, list[0].BookStatus)
	assert.Equal(t, model.BookStatusSoldOut, list[1].BookStatus)
	assert.Equal(t, 30, list[1].MinutesBefore)

	err = s.WithTx(ctx, func(tx *sql.Tx) error {
		return s.Bookings.CreateTx(ctx, tx, &model.ShowingBooking{ShowingID: 999, BookStatus: model.BookStatusNotSold,
			RecordTime: start})
	})
	assert.Error(t, err)
}

func TestMovieRepo_AddCountFromStaleSnapshot(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	m := &model.Movie{Title: "test_title", CurrentCinemaCount: 3}
	require.NoError(t, s.WithTx(ctx, func(tx *sql.Tx) error { return s.Movies.CreateTx(ctx, tx, m) }))

	// Two passes read the same row, then commit one after the other.
	a, b := *m, *m
	require.NoError(t, s.WithTx(ctx, func(tx *sql.Tx) error { return s.Movies.AddCountTx(ctx, tx, &a, 1) }))
	require.NoError(t, s.WithTx(ctx, func(tx *sql.Tx) error { return s.Movies.AddCountTx(ctx, tx, &b, 1) }))
	assert.Equal(t, 4, a.CurrentCinemaCount)
	assert.Equal(t, 5, b.CurrentCinemaCount)

	got, err := s.Movies.GetByTitle(ctx, "test_title")
	require.NoError(t, err)
	assert.Equal(t, 5, got.CurrentCinemaCount)

	missing := &model.Movie{ID: 999}
	err = s.WithTx(ctx, func(tx *sql.Tx) error { return s.Movies.AddCountTx(ctx, tx, missing, 1) })
	assert.ErrorIs(t, err, ErrMovieNotFound)
}

func TestLockClause(t *testing.T) {
	s := newTestStore(t)
	assert.Empty(t, s.Cinemas.lock)
	assert.Empty(t, s.Movies.lock)

	// sql.Open does not dial, so no server is needed.
	db, err := sql.Open(database.DriverMySQL, "u:p@tcp(127.0.0.1:1)/reconciler")
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	my := NewStore(db)
	assert.Equal(t, " FOR UPDATE", my.Cinemas.lock)
	assert.Equal(t, " FOR UPDATE", my.Movies.lock)
}
