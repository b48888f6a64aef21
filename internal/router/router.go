package router // package router defines how HTTP routes are registered for the API

import (
	"github.com/labstack/echo/v4"                             // import the Echo web framework to handle routing
	echomw "github.com/labstack/echo/v4/middleware"           // stock Echo middleware (recover, body limit)
	"github.com/prometheus/client_golang/prometheus/promhttp" // Prometheus scrape handler
	"github.com/redis/go-redis/v9"                            // Redis client shared by cache and rate limiter

	"github.com/iliyamo/cinema-reconciler/internal/config"     // middleware settings
	"github.com/iliyamo/cinema-reconciler/internal/handler"    // HTTP handlers
	"github.com/iliyamo/cinema-reconciler/internal/middleware" // JWT, roles, cache, rate limit, request log
)

// Deps bundles everything the routes need.  Redis may be nil, which turns
// off caching and rate limiting.
type Deps struct {
	Items     *handler.ItemHandler
	Lookups   *handler.LookupHandler
	Admin     *handler.AdminHandler
	DB        handler.Pinger
	Redis     *redis.Client
	JWTSecret string
	RateLimit config.RateLimitConfig
	Cache     config.CacheConfig
}

// New builds the Echo instance with every route registered.
func New(d Deps) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Use(echomw.Recover())
	e.Use(middleware.RequestLog())
	e.Use(echomw.BodyLimit("2M"))

	RegisterRoutes(e, d.DB)
	RegisterItems(e, d.Items, middleware.NewTokenBucket(d.RateLimit, d.Redis))
	RegisterLookups(e, d.Lookups, middleware.NewRedisCache(d.Cache, d.Redis))
	RegisterAdmin(e, d.Admin, d.JWTSecret)
	return e
}

// RegisterRoutes registers the unauthenticated operational endpoints: a
// health check for load balancers and the Prometheus scrape endpoint.
func RegisterRoutes(e *echo.Echo, db handler.Pinger) {
	e.GET("/healthz", handler.Health(db))
	e.GET("/metrics", echo.WrapHandler(promhttp.Handler()))
}

// RegisterItems exposes record ingestion.  Crawlers share one rate limit
// bucket per caller and record type.
func RegisterItems(e *echo.Echo, h *handler.ItemHandler, limit echo.MiddlewareFunc) {
	g := e.Group("/v1/items", limit)
	g.POST("/:type", h.Ingest)
}

// RegisterLookups exposes cached read endpoints over reconciled data.
func RegisterLookups(e *echo.Echo, h *handler.LookupHandler, cache echo.MiddlewareFunc) {
	g := e.Group("/v1", cache)
	g.GET("/cinemas/seat-count", h.SeatCount)
	g.GET("/movies", h.Movies)
}

// RegisterAdmin exposes operator endpoints.  Every route requires a valid
// HS256 token carrying the ADMIN role.
func RegisterAdmin(e *echo.Echo, h *handler.AdminHandler, jwtSecret string) {
	g := e.Group("/v1/admin")
	g.Use(middleware.JWTAuth(jwtSecret))
	g.Use(middleware.RequireRole(middleware.RoleAdmin))
	g.POST("/reinit", h.Reinit)
}
