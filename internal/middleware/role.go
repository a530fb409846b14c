package middleware

import (
    "net/http"

    "github.com/labstack/echo/v4"
)

// RequireRole returns a middleware function that enforces that the
// authenticated user has one of the specified roles.  An anonymous
// request gets 401; a user with another role gets 403.  Admins pass
// every role check.  It assumes
// Authenticate ran earlier in the chain.
func RequireRole(roles ...string) echo.MiddlewareFunc {
    allowed := make(map[string]bool, len(roles))
    for _, r := range roles {
        allowed[r] = true
    }
    return func(next echo.HandlerFunc) echo.HandlerFunc {
        return func(c echo.Context) error {
            u, ok := CurrentUser(c)
            if !ok {
                return c.JSON(http.StatusUnauthorized, echo.Map{"success": false, "error": "authentication required"})
            }
            if !allowed[u.Role] && !u.IsAdmin() {
                return c.JSON(http.StatusForbidden, echo.Map{"success": false, "error": "insufficient permissions"})
            }
            return next(c)
        }
    }
}
