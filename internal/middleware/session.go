package middleware // middleware provides shared request processing for handlers

import (
    "context"
    "net/http"

    "github.com/labstack/echo/v4"

    "github.com/iliyamo/shopverse/internal/model"
)

// SessionResolver turns a session token into a user.
type SessionResolver interface {
    CurrentUser(ctx context.Context, token string) (model.AuthUser, bool, error)
}

// Authenticate resolves the session token on every request and stores
// the user in the context.  It never rejects; RequireAuth and
// RequireRole do that.  A lookup failure is logged and the request
// continues as anonymous.
func Authenticate(auth SessionResolver) echo.MiddlewareFunc {
    return func(next echo.HandlerFunc) echo.HandlerFunc {
        return func(c echo.Context) error {
            tok := tokenFromRequest(c)
            if tok == "" {
                return next(c)
            }
            c.Set(ctxToken, tok)
            u, found, err := auth.CurrentUser(c.Request().Context(), tok)
            if err != nil {
                c.Logger().Errorf("session lookup: %v", err)
                return next(c)
            }
            if found {
                c.Set(ctxUser, u)
            }
            return next(c)
        }
    }
}

// RequireAuth aborts with 401 when no user was resolved.
func RequireAuth() echo.MiddlewareFunc {
    return func(next echo.HandlerFunc) echo.HandlerFunc {
        return func(c echo.Context) error {
            if _, ok := CurrentUser(c); !ok {
                return c.JSON(http.StatusUnauthorized, echo.Map{"success": false, "error": "authentication required"})
            }
            return next(c)
        }
    }
}
