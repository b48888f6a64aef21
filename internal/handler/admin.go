package handler

import (
    "context"
    "net/http"

    "github.com/labstack/echo/v4"

    "github.com/iliyamo/cinema-reconciler/internal/logging"
    "github.com/iliyamo/cinema-reconciler/internal/middleware"
)

// Reinitializer drops and recreates tables.  *reconcile.Pipeline implements
// it.
type Reinitializer interface {
    Reinit(ctx context.Context, target string) error
}

// AdminHandler serves operator endpoints; routes must sit behind JWTAuth and
// RequireRole(ADMIN).
type AdminHandler struct {
    Tables Reinitializer
}

// NewAdminHandler panics when r is nil.
func NewAdminHandler(r Reinitializer) *AdminHandler {
    if r == nil {
        panic("nil reinitializer passed to NewAdminHandler")
    }
    return &AdminHandler{Tables: r}
}

type reinitRequest struct {
    Target string `json:"target"`
}

// Reinit handles POST /v1/admin/reinit with body {"target":"all|cinema|movie|showing"}.
func (h *AdminHandler) Reinit(c echo.Context) error {
    var req reinitRequest
    if err := c.Bind(&req); err != nil {
        return badRequest(c, "invalid JSON body")
    }
    if req.Target == "" {
        return badRequest(c, "target is required")
    }

    ctx := c.Request().Context()
    if err := h.Tables.Reinit(ctx, req.Target); err != nil {
        return writeError(c, err)
    }
    sub, _ := c.Get(middleware.CtxSubject).(string)
    logging.Ctx(ctx).Warn().Str("target", req.Target).Str("subject", sub).Msg("tables reinitialized by operator")
    return c.JSON(http.StatusOK, map[string]string{"status": "reinitialized", "target": req.Target})
}
