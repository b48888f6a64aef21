package handler // handler defines http handlers

import (
    "errors"   // errors unwraps pipeline failures to their class
    "net/http" // net/http provides status codes

    "github.com/labstack/echo/v4" // echo defines request context types

    "github.com/iliyamo/cinema-reconciler/internal/item"      // item carries validation details
    "github.com/iliyamo/cinema-reconciler/internal/reconcile" // reconcile defines the failure classes
)

// errorBody is the JSON shape of every failed request.
type errorBody struct {
    Error   string            `json:"error"`
    Message string            `json:"message,omitempty"`
    Kind    string            `json:"kind,omitempty"`
    Key     string            `json:"key,omitempty"`
    Fields  []item.FieldError `json:"fields,omitempty"`
}

// statusFor maps a failure class onto an HTTP status.
func statusFor(err error) int {
    switch {
    case errors.Is(err, reconcile.ErrMalformed), errors.Is(err, item.ErrInvalid):
        return http.StatusBadRequest
    case errors.Is(err, reconcile.ErrStorageConflict):
        return http.StatusConflict
    case errors.Is(err, reconcile.ErrStorageUnavailable):
        return http.StatusServiceUnavailable
    }
    return http.StatusInternalServerError
}

// writeError reports err with the status of its failure class.
func writeError(c echo.Context, err error) error {
    status := statusFor(err)
    body := errorBody{Error: reconcile.Outcome(err), Message: err.Error()}
    if status == http.StatusBadRequest {
        body.Error = "malformed"
    }
    var ie *reconcile.ItemError
    if errors.As(err, &ie) {
        body.Kind, body.Key = string(ie.Kind), ie.Key
    }
    var ve *item.ValidationError
    if errors.As(err, &ve) {
        body.Fields = ve.Fields
        if body.Kind == "" {
            body.Kind = string(ve.Kind)
        }
    }
    if status == http.StatusInternalServerError {
        // Do not leak driver messages.
        body.Message = ""
    }
    return c.JSON(status, body)
}

// badRequest writes a 400 with a short reason.
func badRequest(c echo.Context, msg string) error {
    return c.JSON(http.StatusBadRequest, errorBody{Error: "malformed", Message: msg})
}
