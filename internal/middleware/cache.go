package middleware

import (
    "bytes"
    "context"
    "crypto/sha1"
    "encoding/hex"
    "encoding/json"
    "net/http"

    "github.com/labstack/echo/v4"
    "github.com/redis/go-redis/v9"

    "github.com/iliyamo/shopverse/internal/config"
)

// cachedResponse is what one cache entry holds.
type cachedResponse struct {
    Status int         `json:"s"`
    Header http.Header `json:"h"`
    Body   []byte      `json:"b"`
}

// bodyRecorder tees the response body into buf until it grows past
// limit, after which the copy is dropped and only the client gets it.
type bodyRecorder struct {
    http.ResponseWriter
    status    int
    buf       bytes.Buffer
    limit     int
    truncated bool
}

func (r *bodyRecorder) WriteHeader(code int) {
    r.status = code
    r.ResponseWriter.WriteHeader(code)
}

func (r *bodyRecorder) Write(b []byte) (int, error) {
    if !r.truncated {
        if r.limit > 0 && r.buf.Len()+len(b) > r.limit {
            r.truncated = true
            r.buf = bytes.Buffer{}
        } else {
            r.buf.Write(b)
        }
    }
    return r.ResponseWriter.Write(b)
}

// cacheKey hashes the request identity under cfg.Prefix.  The default
// strategy uses the route pattern and the sorted query.
func cacheKey(cfg config.CacheConfig, c echo.Context) string {
    r := c.Request()
    id := r.Method + " " + c.Path() + "?" + r.URL.Query().Encode()
    if cfg.KeyStrategy == "full_url" {
        id = r.Method + " " + r.URL.String()
    }
    sum := sha1.Sum([]byte(id))
    return cfg.Prefix + ":" + hex.EncodeToString(sum[:])
}

func replay(c echo.Context, raw []byte) bool {
    var entry cachedResponse
    if err := json.Unmarshal(raw, &entry); err != nil || entry.Status == 0 {
        return false
    }
    h := c.Response().Header()
    for k, vals := range entry.Header {
        if k == echo.HeaderContentLength {
            continue
        }
        h[k] = append([]string(nil), vals...)
    }
    h.Set("X-Cache", "HIT")
    c.Response().WriteHeader(entry.Status)
    _, _ = c.Response().Write(entry.Body)
    return true
}

// skipCache reports whether a request bypasses the cache: methods not
// configured as cacheable and any request from a signed-in user.
func skipCache(cfg config.CacheConfig, c echo.Context) bool {
    if !cfg.Cacheable(c.Request().Method) {
        return true
    }
    _, signedIn := CurrentUser(c)
    return signedIn
}

// NewRedisCache serves repeated anonymous requests from redis.  Only 200
// responses that set no cookie are stored.  Without redis it is a no-op.
func NewRedisCache(cfg config.CacheConfig, rdb *redis.Client) echo.MiddlewareFunc {
    if !cfg.Enabled || rdb == nil {
        return func(next echo.HandlerFunc) echo.HandlerFunc { return next }
    }
    return func(next echo.HandlerFunc) echo.HandlerFunc {
        return func(c echo.Context) error {
            if skipCache(cfg, c) {
                return next(c)
            }
            ctx := c.Request().Context()
            key := cacheKey(cfg, c)

            raw, err := rdb.Get(ctx, key).Bytes()
            if err == nil && replay(c, raw) {
                return nil
            }
            if err != nil && err != redis.Nil {
                c.Logger().Warnf("cache: get %s: %v", key, err)
            }

            rec := &bodyRecorder{ResponseWriter: c.Response().Writer, status: http.StatusOK, limit: cfg.MaxBodyBytes}
            c.Response().Writer = rec
            c.Response().Header().Set("X-Cache", "MISS")
            if err := next(c); err != nil {
                return err
            }
            hdr := c.Response().Header()
            if rec.status != http.StatusOK || rec.truncated || hdr.Get("Set-Cookie") != "" {
                return nil
            }
            entry := cachedResponse{Status: rec.status, Header: hdr.Clone(), Body: rec.buf.Bytes()}
            entry.Header.Del("X-Cache")
            data, err := json.Marshal(entry)
            if err == nil {
                err = rdb.Set(context.WithoutCancel(ctx), key, data, cfg.TTL).Err()
            }
            if err != nil {
                c.Logger().Warnf("cache: set %s: %v", key, err)
            }
            return nil
        }
    }
}

// PurgeCache deletes every key under prefix and returns how many went.
func PurgeCache(ctx context.Context, rdb *redis.Client, prefix string) (int, error) {
    if rdb == nil {
        return 0, nil
    }
    deleted := 0
    iter := rdb.Scan(ctx, 0, prefix+":*", 200).Iterator()
    batch := make([]string, 0, 200)
    flush := func() error {
        if len(batch) == 0 {
            return nil
        }
        n, err := rdb.Del(ctx, batch...).Result()
        deleted += int(n)
        batch = batch[:0]
        return err
    }
    for iter.Next(ctx) {
        batch = append(batch, iter.Val())
        if len(batch) == cap(batch) {
            if err := flush(); err != nil {
                return deleted, err
            }
        }
    }
    if err := iter.Err(); err != nil {
        return deleted, err
    }
    return deleted, flush()
}

// PurgeOnWrite drops the response cache after a successful write.
// Mount it on routes that change what the cached routes return.
func PurgeOnWrite(cfg config.CacheConfig, rdb *redis.Client) echo.MiddlewareFunc {
    if !cfg.Enabled || rdb == nil {
        return func(next echo.HandlerFunc) echo.HandlerFunc { return next }
    }
    return func(next echo.HandlerFunc) echo.HandlerFunc {
        return func(c echo.Context) error {
            err := next(c)
            if err != nil || cfg.Cacheable(c.Request().Method) {
                return err
            }
            if st := c.Response().Status; st < 200 || st >= 300 {
                return nil
            }
            if _, perr := PurgeCache(context.WithoutCancel(c.Request().Context()), rdb, cfg.Prefix); perr != nil {
                c.Logger().Warnf("cache: purge %s: %v", cfg.Prefix, perr)
            }
            return nil
        }
    }
}
