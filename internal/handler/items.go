package handler

import (
    "context"
    "io"
    "net/http"
    "strconv"

    "github.com/labstack/echo/v4"

    "github.com/iliyamo/cinema-reconciler/internal/item"
    "github.com/iliyamo/cinema-reconciler/internal/logging"
)

// Reconciler applies one item.  *reconcile.Pipeline implements it.
type Reconciler interface {
    Handle(ctx context.Context, env item.Envelope) error
}

// ItemPublisher hands an item to the reconciliation queue.
type ItemPublisher interface {
    PublishItem(ctx context.Context, env item.Envelope) error
}

// ItemHandler ingests crawler records over HTTP.  Records are reconciled in
// the request unless ?async=1 is given and a publisher is configured, in
// which case they are queued for the worker.
type ItemHandler struct {
    Pipeline  Reconciler
    Publisher ItemPublisher // nil disables async ingestion
}

// NewItemHandler panics when p is nil.
func NewItemHandler(p Reconciler, pub ItemPublisher) *ItemHandler {
    if p == nil {
        panic("nil reconciler passed to NewItemHandler")
    }
    return &ItemHandler{Pipeline: p, Publisher: pub}
}

type ingestResponse struct {
    Status string `json:"status"`
    Kind   string `json:"kind"`
}

// Ingest handles POST /v1/items/:type.  The body is the bare record, for
// example a cinema object for /v1/items/cinema.
func (h *ItemHandler) Ingest(c echo.Context) error {
    kind := item.Kind(c.Param("type"))
    if !kind.Valid() {
        return badRequest(c, "unknown item type "+strconv.Quote(string(kind)))
    }
    if kind == item.KindDBManage {
        // Table resets go through the authenticated admin route.
        return c.JSON(http.StatusForbidden, errorBody{Error: "forbidden", Message: "use /v1/admin/reinit"})
    }

    body, err := io.ReadAll(c.Request().Body)
    if err != nil {
        return badRequest(c, "cannot read body")
    }
    if len(body) == 0 {
        return badRequest(c, "empty body")
    }
    env := item.Envelope{Type: kind, Data: body}
    ctx := c.Request().Context()

    if async, _ := strconv.ParseBool(c.QueryParam("async")); async {
        if h.Publisher == nil {
            return c.JSON(http.StatusServiceUnavailable, errorBody{Error: "unavailable", Message: "queue is not configured"})
        }
        if err := h.Publisher.PublishItem(ctx, env); err != nil {
            logging.Ctx(ctx).Error().Err(err).Str("kind", string(kind)).Msg("enqueue failed")
            return c.JSON(http.StatusServiceUnavailable, errorBody{Error: "unavailable", Message: "enqueue failed"})
        }
        return c.JSON(http.StatusAccepted, ingestResponse{Status: "queued", Kind: string(kind)})
    }

    if err := h.Pipeline.Handle(ctx, env); err != nil {
        return writeError(c, err)
    }
    return c.JSON(http.StatusOK, ingestResponse{Status: "reconciled", Kind: string(kind)})
}
