package middleware

// identity.go holds the context keys set by Authenticate and the
// helpers handlers and other middleware use to read them.

import (
    "strings"

    "github.com/labstack/echo/v4"

    "github.com/iliyamo/shopverse/internal/model"
)

// SessionCookie is the cookie carrying the signed session token.
const SessionCookie = "session"

const (
    ctxUser  = "user"
    ctxToken = "session_token"
)

// CurrentUser returns the user resolved by Authenticate, if any.
func CurrentUser(c echo.Context) (model.AuthUser, bool) {
    u, ok := c.Get(ctxUser).(model.AuthUser)
    return u, ok
}

// SessionToken returns the raw token presented with the request.
func SessionToken(c echo.Context) string {
    if t, ok := c.Get(ctxToken).(string); ok {
        return t
    }
    return tokenFromRequest(c)
}

// tokenFromRequest reads a Bearer token, falling back to the session
// cookie.
func tokenFromRequest(c echo.Context) string {
    if auth := c.Request().Header.Get(echo.HeaderAuthorization); strings.HasPrefix(auth, "Bearer ") {
        return strings.TrimSpace(strings.TrimPrefix(auth, "Bearer "))
    }
    if ck, err := c.Cookie(SessionCookie); err == nil {
        return ck.Value
    }
    return ""
}

// userID returns the authenticated user's id or "anon".
func userID(c echo.Context) string {
    if u, ok := CurrentUser(c); ok && u.ID != "" {
        return u.ID
    }
    return "anon"
}
