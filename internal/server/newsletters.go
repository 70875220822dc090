package server

import (
	"errors"
	"log"
	"net/http"
	"strconv"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/yoyo-gitroi/GTM-Newsletter/internal/search"
	"github.com/yoyo-gitroi/GTM-Newsletter/internal/store"
)

// NewslettersHandler serves newsletter CRUD and full-text search.
type NewslettersHandler struct {
	Store  *store.Store
	Search *search.Index // nil when search is disabled
}

func (h *NewslettersHandler) Register(g *echo.Group) {
	g.POST("/newsletters", h.create)
	g.GET("/newsletters", h.list)
	g.GET("/newsletters/search", h.search)
	g.GET("/newsletters/:id", h.get)
	g.PUT("/newsletters/:id", h.update)
	g.DELETE("/newsletters/:id", h.delete)
}

func (h *NewslettersHandler) create(c echo.Context) error {
	var in store.NewsletterCreate
	if err := c.Bind(&in); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if strings.TrimSpace(in.Title) == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "title required")
	}
	if strings.TrimSpace(in.DateRange) == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "date_range required")
	}
	nl, err := h.Store.CreateNewsletter(c.Request().Context(), in)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	h.reindex(nl)
	return c.JSON(http.StatusOK, nl)
}

func (h *NewslettersHandler) list(c echo.Context) error {
	items, err := h.Store.ListNewsletters(c.Request().Context())
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, items)
}

func (h *NewslettersHandler) get(c echo.Context) error {
	nl, ok, err := h.Store.GetNewsletter(c.Request().Context(), c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	if !ok {
		return echo.NewHTTPError(http.StatusNotFound, "Newsletter not found")
	}
	return c.JSON(http.StatusOK, nl)
}

func (h *NewslettersHandler) update(c echo.Context) error {
	var upd store.NewsletterUpdate
	if err := c.Bind(&upd); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	nl, ok, err := h.Store.UpdateNewsletter(c.Request().Context(), c.Param("id"), upd)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	if !ok {
		return echo.NewHTTPError(http.StatusNotFound, "Newsletter not found")
	}
	h.reindex(nl)
	return c.JSON(http.StatusOK, nl)
}

func (h *NewslettersHandler) delete(c echo.Context) error {
	id := c.Param("id")
	if err := h.Store.DeleteNewsletter(c.Request().Context(), id); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, "Newsletter not found")
		}
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	if h.Search != nil {
		_ = h.Search.Remove(id)
	}
	return c.JSON(http.StatusOK, MessageResponse{Message: "Newsletter deleted"})
}

func (h *NewslettersHandler) search(c echo.Context) error {
	if h.Search == nil {
		return echo.NewHTTPError(http.StatusServiceUnavailable, "search disabled")
	}
	q := strings.TrimSpace(c.QueryParam("q"))
	if q == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "q parameter required")
	}
	limit := 20
	if l := c.QueryParam("limit"); l != "" {
		if v, err := strconv.Atoi(l); err == nil && v > 0 {
			limit = v
		}
	}
	hits, err := h.Search.Search(q, limit)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	resp := SearchResponse{Query: q, Hits: make([]SearchHit, 0, len(hits)), Items: make([]store.Newsletter, 0, len(hits))}
	for _, hit := range hits {
		resp.Hits = append(resp.Hits, SearchHit{ID: hit.ID, Score: hit.Score})
		nl, ok, err := h.Store.GetNewsletter(c.Request().Context(), hit.ID)
		if err != nil {
			return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
		}
		if ok {
			resp.Items = append(resp.Items, nl)
		}
	}
	return c.JSON(http.StatusOK, resp)
}

func (h *NewslettersHandler) reindex(nl store.Newsletter) {
	if h.Search == nil {
		return
	}
	if err := h.Search.IndexNewsletter(nl); err != nil {
		log.Printf("[SEARCH] indexing newsletter %s failed: %v", nl.ID, err)
	}
}
