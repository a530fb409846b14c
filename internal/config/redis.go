package config

// Redis backs distributed rate limiting and HTTP response caching.  When it
// cannot be reached at startup the server runs without both.

import (
    "context"
    "crypto/tls"
    "time"

    "github.com/redis/go-redis/v9"
)

// RedisConfig holds connection settings.
type RedisConfig struct {
    Addr     string
    Password string
    DB       int
    TLS      bool
}

// LoadRedisConfig reads:
//   REDIS_HOST / REDIS_PORT – host and port (both must be set)
//   REDIS_ADDR – host:port shorthand used when host/port are absent
//   REDIS_PASSWORD – optional password
//   REDIS_DB – database number (default 0)
//   REDIS_TLS – enable TLS
func LoadRedisConfig() RedisConfig {
    addr := getenv("REDIS_ADDR", "localhost:6379")
    if host, port := getenv("REDIS_HOST", ""), getenv("REDIS_PORT", ""); host != "" && port != "" {
        addr = host + ":" + port
    }
    return RedisConfig{
        Addr:     addr,
        Password: getenv("REDIS_PASSWORD", ""),
        DB:       envInt("REDIS_DB", 0),
        TLS:      envBool("REDIS_TLS", false),
    }
}

// NewRedisClient connects and pings with a short timeout.  On failure
// the client is closed and the error returned.
func NewRedisClient(ctx context.Context, c RedisConfig) (*redis.Client, error) {
    opts := &redis.Options{
        Addr:     c.Addr,
        Password: c.Password,
        DB:       c.DB,
    }
    if c.TLS {
        opts.TLSConfig = &tls.Config{MinVersion: tls.VersionTLS12}
    }
    client := redis.NewClient(opts)
    pctx, cancel := context.WithTimeout(ctx, 2*time.Second)
    defer cancel()
    if err := client.Ping(pctx).Err(); err != nil {
        _ = client.Close()
        return nil, err
    }
    return client, nil
}
