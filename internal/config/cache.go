package config

import (
    "strings"
    "time"
)

// CacheConfig drives the redis response cache.  Every key lives under
// Prefix so a catalog write can purge the whole set with one pattern.
// Responses larger than MaxBodyBytes are served but not stored.
type CacheConfig struct {
    Enabled      bool
    Methods      map[string]bool
    TTL          time.Duration
    KeyStrategy  string // "route_query" or "full_url"
    Prefix       string
    MaxBodyBytes int
}

// Cacheable reports whether responses to method may be stored.
func (c CacheConfig) Cacheable(method string) bool {
    return c.Methods[strings.ToUpper(method)]
}

// LoadCacheConfig reads CACHE_* variables.
func LoadCacheConfig() CacheConfig {
    methods := map[string]bool{}
    for _, m := range envList("CACHE_METHODS", []string{"GET"}) {
        methods[strings.ToUpper(m)] = true
    }
    c := CacheConfig{
        Enabled:      envBool("CACHE_ENABLED", true),
        Methods:      methods,
        TTL:          envDur("CACHE_TTL", 30*time.Second),
        KeyStrategy:  strings.ToLower(getenv("CACHE_KEY_STRATEGY", "route_query")),
        Prefix:       strings.TrimSuffix(getenv("CACHE_PREFIX", "shopverse:cache"), ":"),
        MaxBodyBytes: envInt("CACHE_MAX_BODY_BYTES", 1<<20),
    }
    if c.TTL <= 0 {
        c.TTL = 30 * time.Second
    }
    return c
}
