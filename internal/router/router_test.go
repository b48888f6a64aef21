package router

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/cinema-reconciler/internal/config"
	"github.com/iliyamo/cinema-reconciler/internal/database"
	"github.com/iliyamo/cinema-reconciler/internal/handler"
	"github.com/iliyamo/cinema-reconciler/internal/reconcile"
	"github.com/iliyamo/cinema-reconciler/internal/repository"
	"github.com/iliyamo/cinema-reconciler/internal/utils"
)

const secret = "router-secret"

func newTestServer(t *testing.T) http.Handler {
	t.Helper()
	db, err := database.Open(database.Options{Driver: database.DriverSQLite})
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	require.NoError(t, db.EnsureSchema(context.Background()))

	p := reconcile.New(repository.NewStore(db.DB), nil, db)
	return New(Deps{
		Items:     handler.NewItemHandler(p, nil),
		Lookups:   handler.NewLookupHandler(p),
		Admin:     handler.NewAdminHandler(p),
		DB:        db,
		JWTSecret: secret,
		RateLimit: config.RateLimitConfig{Enabled: true},
		Cache:     config.CacheConfig{Enabled: true},
	})
}

func request(h http.Handler, method, target, body, token string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestOperationalRoutes(t *testing.T) {
	h := newTestServer(t)
	assert.Equal(t, http.StatusOK, request(h, http.MethodGet, "/healthz", "", "").Code)

	request(h, http.MethodPost, "/v1/items/movie", `{"title": "m", "current_cinema_count": 1}`, "")
	rec := request(h, http.MethodGet, "/metrics", "", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "reconciler_items_total")
}

func TestAdminRoutesRequireAdminToken(t *testing.T) {
	h := newTestServer(t)
	body := `{"target": "movie"}`

	assert.Equal(t, http.StatusUnauthorized, request(h, http.MethodPost, "/v1/admin/reinit", body, "").Code)

	tok, _, err := utils.NewAdminToken(secret, "ops", time.Minute)
	require.NoError(t, err)
	rec := request(h, http.MethodPost, "/v1/admin/reinit", body, tok)
	assert.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
}

func TestItemsAsyncWithoutQueue(t *testing.T) {
	h := newTestServer(t)
	rec := request(h, http.MethodPost, "/v1/items/movie?async=1", `{"title": "m"}`, "")
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.NotEmpty(t, rec.Header().Get("X-Correlation-ID"))
}
