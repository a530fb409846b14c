package handler

import (
    "context"
    "net/http"
    "sort"
    "time"

    "github.com/labstack/echo/v4"
)

// Check probes one dependency.
type Check func(ctx context.Context) error

// Health runs the registered checks and answers 200 when all pass and
// 503 otherwise.  With no checks it only proves the process is up.
func Health(checks map[string]Check) echo.HandlerFunc {
    names := make([]string, 0, len(checks))
    for n := range checks {
        names = append(names, n)
    }
    sort.Strings(names)

    return func(c echo.Context) error {
        ctx, cancel := context.WithTimeout(c.Request().Context(), 2*time.Second)
        defer cancel()

        status := http.StatusOK
        results := make(map[string]string, len(names))
        for _, n := range names {
            if err := checks[n](ctx); err != nil {
                results[n] = err.Error()
                status = http.StatusServiceUnavailable
                continue
            }
            results[n] = "ok"
        }
        return c.JSON(status, echo.Map{
            "success": status == http.StatusOK,
            "data":    echo.Map{"status": http.StatusText(status), "checks": results},
        })
    }
}
