package middleware

import (
    "context"
    "fmt"
    "math"
    "net/http"
    "strconv"
    "strings"
    "time"

    "github.com/labstack/echo/v4"
    "github.com/redis/go-redis/v9"

    "github.com/iliyamo/shopverse/internal/config"
)

// tokenBucketScript takes one token from the bucket at KEYS[1].
// ARGV: now_ms, capacity, refill_tokens, interval_ms, ttl_ms.
// Returns {allowed, remaining, retry_after_ms}.
var tokenBucketScript = redis.NewScript(`
local now, capacity, refill, interval, ttl =
    tonumber(ARGV[1]), tonumber(ARGV[2]), tonumber(ARGV[3]), tonumber(ARGV[4]), tonumber(ARGV[5])

local state = redis.call('HMGET', KEYS[1], 'tokens', 'stamp')
local tokens = tonumber(state[1]) or capacity
local stamp = tonumber(state[2]) or now

local steps = math.floor(math.max(0, now - stamp) / interval)
if steps > 0 then
    tokens = math.min(capacity, tokens + steps * refill)
    stamp = stamp + steps * interval
end

local allowed, wait = 0, 0
if tokens >= 1 then
    allowed = 1
    tokens = tokens - 1
else
    wait = interval - (now - stamp)
end

redis.call('HSET', KEYS[1], 'tokens', tokens, 'stamp', stamp)
redis.call('PEXPIRE', KEYS[1], ttl)
return {allowed, tokens, wait}
`)

type bucketResult struct {
    allowed   bool
    remaining int64
    retry     time.Duration
}

// takeToken runs the bucket script for key.
func takeToken(ctx context.Context, rdb redis.Scripter, cfg config.RateLimitConfig, key string, now time.Time) (bucketResult, error) {
    vals, err := tokenBucketScript.Run(ctx, rdb, []string{key},
        now.UnixMilli(),
        cfg.Capacity,
        cfg.RefillTokens,
        cfg.RefillInterval.Milliseconds(),
        cfg.TTL.Milliseconds(),
    ).Int64Slice()
    if err != nil {
        return bucketResult{}, err
    }
    if len(vals) != 3 {
        return bucketResult{}, fmt.Errorf("token bucket: unexpected reply %v", vals)
    }
    return bucketResult{
        allowed:   vals[0] == 1,
        remaining: vals[1],
        retry:     time.Duration(vals[2]) * time.Millisecond,
    }, nil
}

// NewTokenBucket limits requests per key with a redis token bucket.  It
// is a no-op when disabled or without redis, and lets requests through
// when redis fails.
func NewTokenBucket(cfg config.RateLimitConfig, rdb *redis.Client) echo.MiddlewareFunc {
    if !cfg.Enabled || rdb == nil {
        return func(next echo.HandlerFunc) echo.HandlerFunc { return next }
    }
    limit := strconv.Itoa(cfg.Capacity)
    return func(next echo.HandlerFunc) echo.HandlerFunc {
        return func(c echo.Context) error {
            key := buildRateKey(cfg, c)
            res, err := takeToken(c.Request().Context(), rdb, cfg, key, time.Now())
            if err != nil {
                c.Logger().Warnf("ratelimit: %s: %v", key, err)
                return next(c)
            }

            h := c.Response().Header()
            h.Set("X-RateLimit-Limit", limit)
            h.Set("X-RateLimit-Remaining", strconv.FormatInt(res.remaining, 10))
            if cfg.Debug {
                h.Set("X-RateLimit-Key", key)
            }
            if res.allowed {
                return next(c)
            }
            wait := int(math.Ceil(res.retry.Seconds()))
            h.Set("Retry-After", strconv.Itoa(wait))
            return c.JSON(http.StatusTooManyRequests, echo.Map{
                "success":     false,
                "error":       "too many requests, try again later",
                "retry_after": wait,
            })
        }
    }
}

// buildRateKey names the bucket for a request.  The strategies are
// "ip", "user", "ip_route" and the default "ip_user_route".
func buildRateKey(cfg config.RateLimitConfig, c echo.Context) string {
    ip := c.RealIP()
    if ip == "" {
        ip = "unknown"
    }
    route := c.Request().Method + " " + c.Path()

    var tail []string
    switch strings.ToLower(cfg.KeyStrategy) {
    case "ip":
        tail = []string{"ip", ip}
    case "user":
        tail = []string{"user", userID(c)}
    case "ip_route":
        tail = []string{"ip", ip, "route", route}
    default:
        tail = []string{"ip", ip, "user", userID(c), "route", route}
    }
    return cfg.Prefix + ":" + strings.Join(tail, ":")
}
