package middleware

import (
    "time"

    "github.com/labstack/echo/v4"

    "github.com/iliyamo/cinema-reconciler/internal/logging"
    "github.com/iliyamo/cinema-reconciler/internal/metrics"
)

// HeaderCorrelationID carries the correlation id in both directions.
const HeaderCorrelationID = "X-Correlation-ID"

// RequestLog tags each request with a correlation id (taken from the
// request header when present), then logs and times it.
func RequestLog() echo.MiddlewareFunc {
    return func(next echo.HandlerFunc) echo.HandlerFunc {
        return func(c echo.Context) error {
            req := c.Request()
            ctx := req.Context()
            if id := req.Header.Get(HeaderCorrelationID); id != "" {
                ctx = logging.ContextWithCorrelationID(ctx, id)
            } else {
                ctx = logging.ContextWithNewCorrelationID(ctx)
            }
            c.SetRequest(req.WithContext(ctx))
            c.Response().Header().Set(HeaderCorrelationID, logging.CorrelationIDFromContext(ctx))

            start := time.Now()
            err := next(c)
            if err != nil {
                // Let the error handler write the status before it is recorded.
                c.Error(err)
            }
            dur := time.Since(start)
            status := c.Response().Status
            route := c.Path()
            metrics.RecordAPIRequest(req.Method, route, status, dur)

            ev := logging.Ctx(ctx).Info()
            if status >= 500 {
                ev = logging.Ctx(ctx).Error().Err(err)
            }
            ev.Str("method", req.Method).
                Str("route", route).
                Int("status", status).
                Dur("duration", dur).
                Str("subject", subject(c)).
                Msg("request")
            return nil
        }
    }
}
