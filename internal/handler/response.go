// Package handler exposes the storefront over HTTP.  Every JSON body
// uses the envelope {success, message?, data?, error?}.
package handler

import (
    "errors"
    "net/http"

    "github.com/labstack/echo/v4"

    "github.com/iliyamo/shopverse/internal/service"
)

func ok(c echo.Context, status int, data any) error {
    return c.JSON(status, echo.Map{"success": true, "data": data})
}

func okMessage(c echo.Context, status int, msg string, data any) error {
    body := echo.Map{"success": true, "message": msg}
    if data != nil {
        body["data"] = data
    }
    return c.JSON(status, body)
}

func fail(c echo.Context, status int, msg string) error {
    return c.JSON(status, echo.Map{"success": false, "error": msg})
}

func badBody(c echo.Context) error {
    return fail(c, http.StatusBadRequest, "invalid request body")
}

// statusFor maps a service error kind to an HTTP status.
func statusFor(err error) int {
    var (
        stock *service.StockError
        gone  *service.ProductGoneError
    )
    switch {
    case errors.As(err, &stock), errors.As(err, &gone),
        errors.Is(err, service.ErrValidation), errors.Is(err, service.ErrInsufficientStock):
        return http.StatusBadRequest
    case errors.Is(err, service.ErrUnauthorized):
        return http.StatusUnauthorized
    case errors.Is(err, service.ErrForbidden):
        return http.StatusForbidden
    case errors.Is(err, service.ErrNotFound):
        return http.StatusNotFound
    case errors.Is(err, service.ErrConflict):
        return http.StatusConflict
    default:
        return http.StatusInternalServerError
    }
}

// writeError renders err.  Internal failures are logged and hidden from
// the client.
func writeError(c echo.Context, err error) error {
    status := statusFor(err)
    if status == http.StatusInternalServerError {
        c.Logger().Errorf("%s %s: %v", c.Request().Method, c.Path(), err)
        return fail(c, status, "internal server error")
    }
    msg := err.Error()
    var ve *service.ValidationError
    if errors.As(err, &ve) {
        msg = ve.Msg
    }
    return fail(c, status, msg)
}
