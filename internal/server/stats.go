package server

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/yoyo-gitroi/GTM-Newsletter/internal/store"
)

// StatsHandler serves dashboard aggregates.
type StatsHandler struct {
	Store *store.Store
}

func (h *StatsHandler) Register(g *echo.Group) {
	g.GET("/stats", h.get)
}

func (h *StatsHandler) get(c echo.Context) error {
	stats, err := h.Store.Stats(c.Request().Context())
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, stats)
}
