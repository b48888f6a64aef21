package handler // declare the package name; contains HTTP handlers

import (
    "context"  // context bounds the ping
    "net/http" // net/http provides status codes and response helpers
    "time"     // time sets the ping deadline

    "github.com/labstack/echo/v4" // echo is the web framework used for this project
)

// Pinger reports whether a dependency is reachable.  *sql.DB implements it.
type Pinger interface {
    PingContext(ctx context.Context) error
}

// Health returns a health-check handler used by load balancers and
// monitoring systems.  It answers "ok" with 200 when the database answers a
// ping within two seconds and 503 otherwise.  A nil db only checks that the
// process is serving.
func Health(db Pinger) echo.HandlerFunc {
    return func(c echo.Context) error {
        if db != nil {
            ctx, cancel := context.WithTimeout(c.Request().Context(), 2*time.Second)
            defer cancel()
            if err := db.PingContext(ctx); err != nil {
                return c.String(http.StatusServiceUnavailable, "database unavailable")
            }
        }
        return c.String(http.StatusOK, "ok")
    }
}
