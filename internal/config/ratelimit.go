package config

import "time"

// RateLimitConfig drives a redis token bucket.  A bucket holds Capacity
// tokens and gains RefillTokens every RefillInterval.
type RateLimitConfig struct {
    Enabled        bool
    Capacity       int
    RefillTokens   int
    RefillInterval time.Duration
    TTL            time.Duration
    KeyStrategy    string // "ip", "user", "ip_route", "ip_user_route"
    Prefix         string
    Debug          bool
}

// LoadRateLimitConfig returns the API-wide limiter settings.
func LoadRateLimitConfig() RateLimitConfig {
    return loadRateLimit("RATE_LIMIT", RateLimitConfig{
        Enabled:        true,
        Capacity:       60,
        RefillTokens:   1,
        RefillInterval: time.Second,
        TTL:            10 * time.Minute,
        KeyStrategy:    "ip_user_route",
        Prefix:         "shopverse:rl",
    })
}

// LoadAuthRateLimitConfig returns the stricter limiter placed on the
// login and register endpoints.
func LoadAuthRateLimitConfig() RateLimitConfig {
    return loadRateLimit("AUTH_RATE_LIMIT", RateLimitConfig{
        Enabled:        true,
        Capacity:       10,
        RefillTokens:   1,
        RefillInterval: 30 * time.Second,
        TTL:            15 * time.Minute,
        KeyStrategy:    "ip_route",
        Prefix:         "shopverse:rl:auth",
    })
}

func loadRateLimit(p string, def RateLimitConfig) RateLimitConfig {
    c := RateLimitConfig{
        Enabled:        envBool(p+"_ENABLED", def.Enabled),
        Capacity:       envInt(p+"_CAPACITY", def.Capacity),
        RefillTokens:   envInt(p+"_REFILL_TOKENS", def.RefillTokens),
        RefillInterval: envDur(p+"_REFILL_INTERVAL", def.RefillInterval),
        TTL:            envDur(p+"_TTL", def.TTL),
        KeyStrategy:    getenv(p+"_KEY_STRATEGY", def.KeyStrategy),
        Prefix:         getenv(p+"_PREFIX", def.Prefix),
        Debug:          envBool(p+"_DEBUG", def.Debug),
    }
    if c.Capacity < 1 {
        c.Capacity = 1
    }
    if c.RefillTokens < 1 {
        c.RefillTokens = 1
    }
    if c.RefillInterval <= 0 {
        c.RefillInterval = time.Second
    }
    // a key must outlive the time it takes to refill
    if minTTL := 5 * c.RefillInterval; c.TTL < minTTL {
        c.TTL = minTTL
    }
    return c
}
