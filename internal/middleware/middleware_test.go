package middleware

import (
    "context"
    "errors"
    "net/http"
    "net/http/httptest"
    "testing"

    "github.com/labstack/echo/v4"
    "github.com/stretchr/testify/assert"
    "github.com/stretchr/testify/require"

    "github.com/iliyamo/shopverse/internal/config"
    "github.com/iliyamo/shopverse/internal/model"
)

type stubResolver struct {
    users map[string]model.AuthUser
    err   error
}

func (s stubResolver) CurrentUser(_ context.Context, token string) (model.AuthUser, bool, error) {
    if s.err != nil {
        return model.AuthUser{}, false, s.err
    }
    u, ok := s.users[token]
    return u, ok, nil
}

var (
    alice = model.AuthUser{ID: "u-1", Name: "Alice", Role: model.RoleUser}
    root  = model.AuthUser{ID: "u-2", Name: "Root", Role: model.RoleAdmin}
)

func resolver() stubResolver {
    return stubResolver{users: map[string]model.AuthUser{"tok-alice": alice, "tok-root": root}}
}

// whoami answers with the resolved user id or "anon".
func whoami(c echo.Context) error { return c.String(http.StatusOK, userID(c)) }

func serve(t *testing.T, req *http.Request, h echo.HandlerFunc) *httptest.ResponseRecorder {
    t.Helper()
    e := echo.New()
    rec := httptest.NewRecorder()
    c := e.NewContext(req, rec)
    c.SetPath(req.URL.Path)
    require.NoError(t, h(c))
    return rec
}

func TestAuthenticate_ReadsBearerThenCookie(t *testing.T) {
    h := Authenticate(resolver())(whoami)

    req := httptest.NewRequest(http.MethodGet, "/api/auth/me", nil)
    req.Header.Set(echo.HeaderAuthorization, "Bearer tok-alice")
    req.AddCookie(&http.Cookie{Name: SessionCookie, Value: "tok-root"})
    assert.Equal(t, "u-1", serve(t, req, h).Body.String())

    req = httptest.NewRequest(http.MethodGet, "/api/auth/me", nil)
    req.AddCookie(&http.Cookie{Name: SessionCookie, Value: "tok-root"})
    assert.Equal(t, "u-2", serve(t, req, h).Body.String())
}

func TestAuthenticate_NeverRejects(t *testing.T) {
    tests := []struct {
        name  string
        res   stubResolver
        token string
    }{
        {"no token", resolver(), ""},
        {"unknown token", resolver(), "forged"},
        {"resolver failure", stubResolver{err: errors.New("store down")}, "tok-alice"},
    }
    for _, tt := range tests {
        t.Run(tt.name, func(t *testing.T) {
            req := httptest.NewRequest(http.MethodGet, "/api/products", nil)
            if tt.token != "" {
                req.Header.Set(echo.HeaderAuthorization, "Bearer "+tt.token)
            }
            rec := serve(t, req, Authenticate(tt.res)(whoami))
            assert.Equal(t, http.StatusOK, rec.Code)
            assert.Equal(t, "anon", rec.Body.String())
        })
    }
}

func TestRequireAuthAndRole(t *testing.T) {
    tests := []struct {
        name   string
        token  string
        mw     echo.MiddlewareFunc
        status int
    }{
        {"auth anonymous", "", RequireAuth(), http.StatusUnauthorized},
        {"auth user", "tok-alice", RequireAuth(), http.StatusOK},
        {"admin route anonymous", "", RequireRole(model.RoleAdmin), http.StatusUnauthorized},
        {"admin route user", "tok-alice", RequireRole(model.RoleAdmin), http.StatusForbidden},
        {"admin route admin", "tok-root", RequireRole(model.RoleAdmin), http.StatusOK},
        {"user route admin", "tok-root", RequireRole(model.RoleUser), http.StatusOK},
    }
    for _, tt := range tests {
        t.Run(tt.name, func(t *testing.T) {
            req := httptest.NewRequest(http.MethodGet, "/api/orders", nil)
            if tt.token != "" {
                req.Header.Set(echo.HeaderAuthorization, "Bearer "+tt.token)
            }
            rec := serve(t, req, Authenticate(resolver())(tt.mw(whoami)))
            assert.Equal(t, tt.status, rec.Code)
            if tt.status != http.StatusOK {
                assert.Contains(t, rec.Body.String(), `"success":false`)
            }
        })
    }
}

func TestBuildRateKey(t *testing.T) {
    e := echo.New()
    req := httptest.NewRequest(http.MethodPost, "/api/auth/login", nil)
    req.RemoteAddr = "203.0.113.7:5555"
    c := e.NewContext(req, httptest.NewRecorder())
    c.SetPath("/api/auth/login")

    tests := []struct {
        strategy string
        want     string
    }{
        {"ip", "rl:ip:203.0.113.7"},
        {"user", "rl:user:anon"},
        {"ip_route", "rl:ip:203.0.113.7:route:POST /api/auth/login"},
        {"", "rl:ip:203.0.113.7:user:anon:route:POST /api/auth/login"},
    }
    for _, tt := range tests {
        cfg := config.RateLimitConfig{Prefix: "rl", KeyStrategy: tt.strategy}
        assert.Equal(t, tt.want, buildRateKey(cfg, c), tt.strategy)
    }

    c.Set(ctxUser, alice)
    assert.Equal(t, "rl:user:u-1", buildRateKey(config.RateLimitConfig{Prefix: "rl", KeyStrategy: "user"}, c))
}

func TestCacheKey_IgnoresQueryOrder(t *testing.T) {
    e := echo.New()
    cfg := config.CacheConfig{Prefix: "shopverse:cache", KeyStrategy: "route_query"}
    key := func(target string) string {
        c := e.NewContext(httptest.NewRequest(http.MethodGet, target, nil), httptest.NewRecorder())
        c.SetPath("/api/products")
        return cacheKey(cfg, c)
    }
    a := key("/api/products?page=2&category=Audio")
    assert.Equal(t, a, key("/api/products?category=Audio&page=2"))
    assert.NotEqual(t, a, key("/api/products?category=Audio&page=3"))
    assert.Regexp(t, `^shopverse:cache:[0-9a-f]{40}$`, a)
}

func TestSkipCache(t *testing.T) {
    e := echo.New()
    cfg := config.CacheConfig{Methods: map[string]bool{"GET": true}}
    ctx := func(method string) echo.Context {
        return e.NewContext(httptest.NewRequest(method, "/api/products", nil), httptest.NewRecorder())
    }

    assert.False(t, skipCache(cfg, ctx(http.MethodGet)))
    assert.True(t, skipCache(cfg, ctx(http.MethodPost)))

    c := ctx(http.MethodGet)
    c.Set(ctxUser, alice)
    assert.True(t, skipCache(cfg, c))
}

func TestReplay(t *testing.T) {
    e := echo.New()
    rec := httptest.NewRecorder()
    c := e.NewContext(httptest.NewRequest(http.MethodGet, "/api/products", nil), rec)

    raw := []byte(`{"s":200,"h":{"Content-Type":["application/json"],"Content-Length":["99"]},"b":"eyJvayI6MX0="}`)
    require.True(t, replay(c, raw))
    assert.Equal(t, http.StatusOK, rec.Code)
    assert.Equal(t, "HIT", rec.Header().Get("X-Cache"))
    assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
    assert.Empty(t, rec.Header().Get("Content-Length"))
    assert.Equal(t, `{"ok":1}`, rec.Body.String())

    c = e.NewContext(httptest.NewRequest(http.MethodGet, "/api/products", nil), httptest.NewRecorder())
    assert.False(t, replay(c, []byte(`{"s":200`)))
    assert.False(t, replay(c, []byte(`{}`)))
}

func TestBodyRecorder_StopsCopyingPastLimit(t *testing.T) {
    rec := httptest.NewRecorder()
    br := &bodyRecorder{ResponseWriter: rec, status: http.StatusOK, limit: 8}

    _, _ = br.Write([]byte("12345"))
    assert.False(t, br.truncated)
    _, _ = br.Write([]byte("67890"))
    assert.True(t, br.truncated)
    assert.Zero(t, br.buf.Len())
    // the client still gets everything
    assert.Equal(t, "1234567890", rec.Body.String())
}

func TestRedisMiddleware_PassThroughWithoutRedis(t *testing.T) {
    calls := 0
    next := func(c echo.Context) error {
        calls++
        return c.NoContent(http.StatusNoContent)
    }
    mws := []echo.MiddlewareFunc{
        NewTokenBucket(config.RateLimitConfig{Enabled: true}, nil),
        NewRedisCache(config.CacheConfig{Enabled: true, Methods: map[string]bool{"GET": true}}, nil),
        PurgeOnWrite(config.CacheConfig{Enabled: true}, nil),
    }
    for _, mw := range mws {
        rec := serve(t, httptest.NewRequest(http.MethodGet, "/x", nil), mw(next))
        assert.Equal(t, http.StatusNoContent, rec.Code)
        assert.Empty(t, rec.Header().Get("X-Cache"))
    }
    assert.Equal(t, len(mws), calls)

    n, err := PurgeCache(context.Background(), nil, "shopverse:cache")
    require.NoError(t, err)
    assert.Zero(t, n)
}
