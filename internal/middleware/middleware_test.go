package middleware

import (
    "net/http"
    "net/http/httptest"
    "testing"
    "time"

    "github.com/golang-jwt/jwt/v5"
    "github.com/labstack/echo/v4"
    "github.com/stretchr/testify/assert"
    "github.com/stretchr/testify/require"

    "github.com/iliyamo/cinema-reconciler/internal/config"
    "github.com/iliyamo/cinema-reconciler/internal/utils"
)

const testSecret = "test-secret"

func adminEcho() *echo.Echo {
    e := echo.New()
    g := e.Group("/admin", JWTAuth(testSecret), RequireRole(RoleAdmin))
    g.GET("/whoami", func(c echo.Context) error {
        return c.String(http.StatusOK, subject(c))
    })
    return e
}

func serve(e *echo.Echo, method, target, token string) *httptest.ResponseRecorder {
    req := httptest.NewRequest(method, target, nil)
    if token != "" {
        req.Header.Set("Authorization", "Bearer "+token)
    }
    rec := httptest.NewRecorder()
    e.ServeHTTP(rec, req)
    return rec
}

func TestJWTAuth_AdminToken(t *testing.T) {
    tok, exp, err := utils.NewAdminToken(testSecret, "ops", time.Minute)
    require.NoError(t, err)
    assert.True(t, exp.After(time.Now()))

    rec := serve(adminEcho(), http.MethodGet, "/admin/whoami", tok)
    assert.Equal(t, http.StatusOK, rec.Code)
    assert.Equal(t, "ops", rec.Body.String())
}

func TestJWTAuth_Rejects(t *testing.T) {
    e := adminEcho()

    assert.Equal(t, http.StatusUnauthorized, serve(e, http.MethodGet, "/admin/whoami", "").Code)

    wrong, _, err := utils.NewAdminToken("other-secret", "ops", time.Minute)
    require.NoError(t, err)
    assert.Equal(t, http.StatusUnauthorized, serve(e, http.MethodGet, "/admin/whoami", wrong).Code)

    noExp, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
        "sub": "ops", "role": RoleAdmin,
    }).SignedString([]byte(testSecret))
    require.NoError(t, err)
    assert.Equal(t, http.StatusUnauthorized, serve(e, http.MethodGet, "/admin/whoami", noExp).Code)
}

func TestRequireRole_Forbidden(t *testing.T) {
    viewer, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
        "sub":  "someone",
        "role": "VIEWER",
        "exp":  time.Now().Add(time.Minute).Unix(),
    }).SignedString([]byte(testSecret))
    require.NoError(t, err)

    rec := serve(adminEcho(), http.MethodGet, "/admin/whoami", viewer)
    assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestNewAdminToken_EmptySecret(t *testing.T) {
    _, _, err := utils.NewAdminToken("", "ops", time.Minute)
    assert.Error(t, err)
}

func TestBuildRateKey(t *testing.T) {
    e := echo.New()
    req := httptest.NewRequest(http.MethodPost, "/v1/items/movie", nil)
    req.Header.Set(echo.HeaderXRealIP, "10.0.0.7")
    c := e.NewContext(req, httptest.NewRecorder())
    c.SetPath("/v1/items/:type")
    c.SetParamNames("type")
    c.SetParamValues("movie")

    cases := map[string]string{
        "ip":            "rl:ip:10.0.0.7",
        "route":         "rl:route:POST /v1/items/:type movie",
        "subject":       "rl:sub:anon",
        "subject_route": "rl:sub:anon:route:POST /v1/items/:type movie",
        "":              "rl:ip:10.0.0.7:route:POST /v1/items/:type movie",
    }
    for strategy, want := range cases {
        cfg := config.RateLimitConfig{Prefix: "rl", KeyStrategy: strategy}
        assert.Equal(t, want, buildRateKey(cfg, c), "strategy %q", strategy)
    }

    c.Set(CtxSubject, "ops")
    assert.Equal(t, "rl:sub:ops", buildRateKey(config.RateLimitConfig{Prefix: "rl", KeyStrategy: "subject"}, c))
}

func TestCacheKey_DistinguishesQuery(t *testing.T) {
    e := echo.New()
    cfg := config.CacheConfig{Prefix: "cache"}
    key := func(target string) string {
        c := e.NewContext(httptest.NewRequest(http.MethodGet, target, nil), httptest.NewRecorder())
        c.SetPath("/v1/movies")
        return cacheKeyFrom(cfg, c)
    }
    a, b := key("/v1/movies?title=a"), key("/v1/movies?title=b")
    assert.NotEqual(t, a, b)
    assert.Equal(t, a, key("/v1/movies?title=a"))
    assert.Contains(t, a, "cache:")
}

func TestPayloadCodec(t *testing.T) {
    hdr := http.Header{"Content-Type": {"application/json"}}
    bs, err := encodePayload(http.StatusOK, hdr, []byte(`{"seats":120}`))
    require.NoError(t, err)

    status, got, body, ok := decodePayload(bs)
    require.True(t, ok)
    assert.Equal(t, http.StatusOK, status)
    assert.Equal(t, "application/json", got.Get("Content-Type"))
    assert.JSONEq(t, `{"seats":120}`, string(body))

    _, _, _, ok = decodePayload([]byte{0, 0})
    assert.False(t, ok)
}

func TestDisabledMiddlewarePassThrough(t *testing.T) {
    e := echo.New()
    e.Use(NewRedisCache(config.CacheConfig{Enabled: true}, nil))
    e.Use(NewTokenBucket(config.RateLimitConfig{Enabled: true}, nil))
    e.GET("/ping", func(c echo.Context) error { return c.String(http.StatusOK, "pong") })

    rec := serve(e, http.MethodGet, "/ping", "")
    assert.Equal(t, http.StatusOK, rec.Code)
    assert.Empty(t, rec.Header().Get("X-Cache"))
    assert.Empty(t, rec.Header().Get("X-RateLimit-Limit"))
}

func TestRequestLog_CorrelationID(t *testing.T) {
    e := echo.New()
    e.Use(RequestLog())
    e.GET("/ping", func(c echo.Context) error { return c.String(http.StatusOK, "pong") })

    req := httptest.NewRequest(http.MethodGet, "/ping", nil)
    req.Header.Set(HeaderCorrelationID, "abc12345")
    rec := httptest.NewRecorder()
    e.ServeHTTP(rec, req)
    assert.Equal(t, "abc12345", rec.Header().Get(HeaderCorrelationID))

    rec = serve(e, http.MethodGet, "/ping", "")
    assert.Len(t, rec.Header().Get(HeaderCorrelationID), 8)
}
