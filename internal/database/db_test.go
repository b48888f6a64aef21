package database

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openTest(t *testing.T) *DB {
	t.Helper()
	db, err := Open(Options{Driver: DriverSQLite, Path: ":memory:"})
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func TestEnsureSchema(t *testing.T) {
	ctx := context.Background()
	db := openTest(t)

	ok, err := db.HasTable(ctx, TableCinema)
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, db.EnsureSchema(ctx))
	for _, name := range createOrder {
		ok, err := db.HasTable(ctx, name)
		require.NoError(t, err)
		assert.True(t, ok, name)
	}
	// idempotent
	require.NoError(t, db.EnsureSchema(ctx))
}

func TestReinit(t *testing.T) {
	ctx := context.Background()
	db := openTest(t)
	require.NoError(t, db.EnsureSchema(ctx))

	_, err := db.ExecContext(ctx, `INSERT INTO movie (title, current_cinema_count) VALUES ('m', 1)`)
	require.NoError(t, err)
	_, err = db.ExecContext(ctx, `INSERT INTO cinema (names, county, screens, source) VALUES ('["c"]', 'x', '{}', 's')`)
	require.NoError(t, err)

	require.NoError(t, db.Reinit(ctx, TargetMovie))

	var n int
	require.NoError(t, db.QueryRowContext(ctx, `SELECT COUNT(*) FROM movie`).Scan(&n))
	assert.Equal(t, 0, n)
	require.NoError(t, db.QueryRowContext(ctx, `SELECT COUNT(*) FROM cinema`).Scan(&n))
	assert.Equal(t, 1, n)

	require.NoError(t, db.Reinit(ctx, TargetAll))
	require.NoError(t, db.QueryRowContext(ctx, `SELECT COUNT(*) FROM cinema`).Scan(&n))
	assert.Equal(t, 0, n)

	assert.Error(t, db.Reinit(ctx, "users"))
	assert.True(t, ValidTarget(TargetShowing))
	assert.False(t, ValidTarget("users"))
}

func TestIsUniqueViolation(t *testing.T) {
	ctx := context.Background()
	db := openTest(t)
	require.NoError(t, db.EnsureSchema(ctx))

	_, err := db.ExecContext(ctx, `INSERT INTO movie (title) VALUES ('dup')`)
	require.NoError(t, err)
	_, err = db.ExecContext(ctx, `INSERT INTO movie (title) VALUES ('dup')`)
	require.Error(t, err)
	assert.True(t, IsUniqueViolation(err))
	assert.False(t, IsTransient(err))
	assert.False(t, IsUniqueViolation(context.Canceled))
}

func TestOpen_UnknownDriver(t *testing.T) {
	_, err := Open(Options{Driver: "oracle"})
	assert.Error(t, err)
}
