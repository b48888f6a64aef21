package middleware

// identity.go names the caller for rate-limit keys and request logs: the
// token subject when JWTAuth ran, otherwise "anon".

import (
    "github.com/labstack/echo/v4"
)

func subject(c echo.Context) string {
    if s, ok := c.Get(CtxSubject).(string); ok && s != "" {
        return s
    }
    return "anon"
}
