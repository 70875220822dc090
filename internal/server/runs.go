package server

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/yoyo-gitroi/GTM-Newsletter/internal/agents"
	"github.com/yoyo-gitroi/GTM-Newsletter/internal/pipeline"
	"github.com/yoyo-gitroi/GTM-Newsletter/internal/search"
	"github.com/yoyo-gitroi/GTM-Newsletter/internal/store"
)

// Runner starts a pipeline for a newsletter, optionally from a mid-pipeline
// agent.
type Runner interface {
	Run(ctx context.Context, newsletterID, startFrom string) error
}

// RunsHandler serves pipeline execution, rerun, live status, and the
// per-agent run records.
type RunsHandler struct {
	Store      *store.Store
	Orch       Runner
	Tracker    *pipeline.Tracker
	Search     *search.Index // nil when search is disabled
	RunTimeout time.Duration
}

func (h *RunsHandler) Register(g *echo.Group) {
	g.POST("/newsletters/:id/run", h.run)
	g.POST("/newsletters/:id/rerun/:agent_name", h.rerun)
	g.GET("/newsletters/:id/status", h.status)
	g.GET("/newsletters/:id/runs", h.listRuns)
	g.GET("/newsletters/:id/runs/:agent_name", h.getRun)
}

func (h *RunsHandler) run(c echo.Context) error {
	startFrom := c.QueryParam("start_from")
	if startFrom != "" && !agents.Known(startFrom) {
		return echo.NewHTTPError(http.StatusBadRequest, fmt.Sprintf("unknown agent: %s", startFrom))
	}
	return h.launch(c, startFrom, "Pipeline started")
}

func (h *RunsHandler) rerun(c echo.Context) error {
	agentName := c.Param("agent_name")
	if !agents.Known(agentName) {
		return echo.NewHTTPError(http.StatusBadRequest, fmt.Sprintf("unknown agent: %s", agentName))
	}
	return h.launch(c, agentName, fmt.Sprintf("Pipeline restarting from %s", agentName))
}

func (h *RunsHandler) launch(c echo.Context, startFrom, message string) error {
	id := c.Param("id")
	ctx := c.Request().Context()
	_, ok, err := h.Store.GetNewsletter(ctx, id)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	if !ok {
		return echo.NewHTTPError(http.StatusNotFound, "Newsletter not found")
	}
	if live, ok := h.Tracker.Get(id); ok && live.Status == store.NewsletterStatusRunning {
		return echo.NewHTTPError(http.StatusConflict, "Pipeline already running")
	}

	h.Tracker.Set(id, store.NewsletterStatusRunning, "")

	timeout := h.RunTimeout
	if timeout <= 0 {
		timeout = 30 * time.Minute
	}

	// launch background processing; the orchestrator owns the locking
	go func() {
		runCtx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()
		if err := h.Orch.Run(runCtx, id, startFrom); err != nil {
			if errors.Is(err, pipeline.ErrAlreadyRunning) {
				// drop our running entry, it would block every retry
				h.Tracker.Clear(id)
				log.Printf("[PIPELINE] newsletter %s already running", id)
				return
			}
			log.Printf("[PIPELINE] newsletter %s failed: %v", id, err)
		}
		// failed runs may still have persisted upstream agent outputs
		h.refreshIndex(id)
	}()

	return c.JSON(http.StatusOK, MessageResponse{Message: message, NewsletterID: id})
}

func (h *RunsHandler) status(c echo.Context) error {
	id := c.Param("id")
	ctx := c.Request().Context()
	nl, ok, err := h.Store.GetNewsletter(ctx, id)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	if !ok {
		return echo.NewHTTPError(http.StatusNotFound, "Newsletter not found")
	}
	runs, err := h.Store.ListAgentRuns(ctx, id)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	resp := PipelineStatusResponse{NewsletterStatus: nl.Status, Runs: runs}
	if live, ok := h.Tracker.Get(id); ok {
		resp.CurrentAgent = live.CurrentAgent
	}
	return c.JSON(http.StatusOK, resp)
}

func (h *RunsHandler) listRuns(c echo.Context) error {
	runs, err := h.Store.ListAgentRuns(c.Request().Context(), c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, runs)
}

func (h *RunsHandler) getRun(c echo.Context) error {
	run, ok, err := h.Store.GetAgentRun(c.Request().Context(), c.Param("id"), c.Param("agent_name"))
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	if !ok {
		return echo.NewHTTPError(http.StatusNotFound, "Agent run not found")
	}
	return c.JSON(http.StatusOK, run)
}

// refreshIndex re-reads the newsletter after a run so search reflects
// whatever content the pipeline persisted.
func (h *RunsHandler) refreshIndex(id string) {
	if h.Search == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	nl, ok, err := h.Store.GetNewsletter(ctx, id)
	if err != nil || !ok {
		return
	}
	if err := h.Search.IndexNewsletter(nl); err != nil {
		log.Printf("[SEARCH] indexing newsletter %s failed: %v", id, err)
	}
}
