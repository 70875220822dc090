package server

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/yoyo-gitroi/GTM-Newsletter/internal/store"
)

// SettingsHandler serves the monitored-tools configuration.
type SettingsHandler struct {
	Store *store.Store
}

func (h *SettingsHandler) Register(g *echo.Group) {
	g.GET("/settings", h.get)
	g.PUT("/settings", h.update)
}

func (h *SettingsHandler) get(c echo.Context) error {
	settings, err := h.Store.GetSettings(c.Request().Context())
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, settings)
}

func (h *SettingsHandler) update(c echo.Context) error {
	var req SettingsUpdateRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if req.MonitoredTools == nil {
		settings, err := h.Store.GetSettings(c.Request().Context())
		if err != nil {
			return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
		}
		return c.JSON(http.StatusOK, settings)
	}
	settings, err := h.Store.UpdateSettings(c.Request().Context(), *req.MonitoredTools)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, settings)
}
