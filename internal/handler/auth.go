package handler

import (
    "net/http"
    "time"

    "github.com/labstack/echo/v4"

    "github.com/iliyamo/shopverse/internal/middleware"
    "github.com/iliyamo/shopverse/internal/model"
    "github.com/iliyamo/shopverse/internal/service"
)

// AuthHandler serves registration, login, logout and the current user.
type AuthHandler struct {
    Auth         *service.AuthService
    CookieSecure bool
}

func NewAuthHandler(auth *service.AuthService, cookieSecure bool) *AuthHandler {
    return &AuthHandler{Auth: auth, CookieSecure: cookieSecure}
}

type registerReq struct {
    Name     string `json:"name"`
    Email    string `json:"email"`
    Password string `json:"password"`
}

type loginReq struct {
    Email    string `json:"email"`
    Password string `json:"password"`
}

type authResp struct {
    User      model.AuthUser `json:"user"`
    Token     string         `json:"token"`
    ExpiresAt time.Time      `json:"expiresAt"`
}

// Register creates a customer account and signs it in.
func (h *AuthHandler) Register(c echo.Context) error {
    var req registerReq
    if err := c.Bind(&req); err != nil {
        return badBody(c)
    }
    u, cred, err := h.Auth.Register(c.Request().Context(), req.Name, req.Email, req.Password)
    if err != nil {
        return writeError(c, err)
    }
    h.setSession(c, cred.Token, cred.ExpiresAt)
    return okMessage(c, http.StatusCreated, "account created", authResp{User: u, Token: cred.Token, ExpiresAt: cred.ExpiresAt})
}

func (h *AuthHandler) Login(c echo.Context) error {
    var req loginReq
    if err := c.Bind(&req); err != nil {
        return badBody(c)
    }
    u, cred, err := h.Auth.Login(c.Request().Context(), req.Email, req.Password)
    if err != nil {
        return writeError(c, err)
    }
    h.setSession(c, cred.Token, cred.ExpiresAt)
    return okMessage(c, http.StatusOK, "logged in", authResp{User: u, Token: cred.Token, ExpiresAt: cred.ExpiresAt})
}

// Logout revokes the presented session and clears the cookie.  It
// succeeds without a session.
func (h *AuthHandler) Logout(c echo.Context) error {
    if tok := middleware.SessionToken(c); tok != "" {
        if err := h.Auth.Logout(c.Request().Context(), tok); err != nil {
            return writeError(c, err)
        }
    }
    h.setSession(c, "", time.Unix(0, 0))
    return okMessage(c, http.StatusOK, "logged out", nil)
}

func (h *AuthHandler) Me(c echo.Context) error {
    u, found := middleware.CurrentUser(c)
    if !found {
        return writeError(c, service.ErrUnauthorized)
    }
    return ok(c, http.StatusOK, u)
}

// setSession writes the session cookie; an empty token expires it.
func (h *AuthHandler) setSession(c echo.Context, token string, expires time.Time) {
    ck := &http.Cookie{
        Name:     middleware.SessionCookie,
        Value:    token,
        Path:     "/",
        Expires:  expires,
        HttpOnly: true,
        Secure:   h.CookieSecure,
        SameSite: http.SameSiteLaxMode,
    }
    if token == "" {
        ck.MaxAge = -1
    }
    c.SetCookie(ck)
}
