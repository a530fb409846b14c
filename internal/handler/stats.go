package handler

import (
    "net/http"

    "github.com/labstack/echo/v4"

    "github.com/iliyamo/shopverse/internal/service"
)

type StatsHandler struct {
    Stats *service.StatsService
}

func NewStatsHandler(stats *service.StatsService) *StatsHandler {
    return &StatsHandler{Stats: stats}
}

func (h *StatsHandler) Get(c echo.Context) error {
    st, err := h.Stats.Stats(c.Request().Context())
    if err != nil {
        return writeError(c, err)
    }
    return ok(c, http.StatusOK, st)
}
