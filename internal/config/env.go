package config

import (
    "log"
    "os"
    "strconv"
    "strings"
    "time"

    "github.com/shopspring/decimal"
)

// Helpers shared by every loader in this package.  Unset or malformed
// values fall back to the default.

func getenv(k, d string) string {
    if v := strings.TrimSpace(os.Getenv(k)); v != "" {
        return v
    }
    return d
}

func envBool(k string, d bool) bool {
    switch strings.ToLower(strings.TrimSpace(os.Getenv(k))) {
    case "1", "true", "yes", "on":
        return true
    case "0", "false", "no", "off":
        return false
    }
    return d
}

func envInt(k string, d int) int {
    if n, err := strconv.Atoi(strings.TrimSpace(os.Getenv(k))); err == nil {
        return n
    }
    return d
}

func envDur(k string, d time.Duration) time.Duration {
    if dur, err := time.ParseDuration(strings.TrimSpace(os.Getenv(k))); err == nil {
        return dur
    }
    return d
}

func envDecimal(k string, d decimal.Decimal) decimal.Decimal {
    v := strings.TrimSpace(os.Getenv(k))
    if v == "" {
        return d
    }
    n, err := decimal.NewFromString(v)
    if err != nil {
        log.Printf("config: invalid decimal for %s: %q; using %s", k, v, d)
        return d
    }
    return n
}

func envList(k string, d []string) []string {
    v := strings.TrimSpace(os.Getenv(k))
    if v == "" {
        return d
    }
    var out []string
    for _, p := range strings.Split(v, ",") {
        if p = strings.TrimSpace(p); p != "" {
            out = append(out, p)
        }
    }
    return out
}

// must retrieves the value of a required environment variable.  If the
// variable is unset or empty, the application logs a fatal error and exits.
func must(key string) string {
    v, ok := os.LookupEnv(key)
    if !ok || v == "" {
        log.Fatalf("missing required env var: %s", key)
    }
    return v
}
