package server

import (
	"context"
	"fmt"
	"log"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"

	"github.com/yoyo-gitroi/GTM-Newsletter/config"
	"github.com/yoyo-gitroi/GTM-Newsletter/internal/pipeline"
	"github.com/yoyo-gitroi/GTM-Newsletter/internal/search"
	"github.com/yoyo-gitroi/GTM-Newsletter/internal/store"
	"github.com/yoyo-gitroi/GTM-Newsletter/provider"
)

func Run(cfg *config.Config, addr string) error {
	e := echo.New()
	e.HideBanner = true
	e.Use(middleware.Recover())
	// Unified HTTP error handler with structured JSON and logging
	baseLogger := log.New(log.Writer(), "[HTTP] ", log.LstdFlags)
	e.HTTPErrorHandler = func(err error, c echo.Context) {
		code := http.StatusInternalServerError
		msg := err.Error()
		if he, ok := err.(*echo.HTTPError); ok {
			code = he.Code
			if he.Message != nil {
				msg = fmt.Sprint(he.Message)
			}
		}
		req := c.Request()
		baseLogger.Printf("%d %s %s from %s: %v", code, req.Method, req.URL.Path, c.RealIP(), err)
		if !c.Response().Committed {
			_ = c.JSON(code, map[string]interface{}{"error": msg})
		}
	}
	e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins:     []string{"*"},
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Content-Type", "Authorization"},
		AllowCredentials: true,
	}))

	e.GET("/healthz", func(c echo.Context) error { return c.String(200, "ok") })
	e.GET("/metrics", echo.WrapHandler(promhttp.Handler()))

	if err := Migrate("file://migrations", cfg.Storage.Postgres.DSN(), "up", 0); err != nil {
		log.Printf("[MIGRATE] skipped: %v", err)
	}

	ctx := context.Background()
	st, err := store.NewWithDSN(ctx, cfg.Storage.Postgres.DSN())
	if err != nil {
		return err
	}

	router, err := provider.NewRouter(cfg.Providers)
	if err != nil {
		return err
	}

	tracker := pipeline.NewTracker()
	var locker pipeline.Locker = pipeline.NewMemoryLocker()
	if cfg.Storage.Redis.Enabled() {
		rdb := redis.NewClient(&redis.Options{
			Addr:     cfg.Storage.Redis.Addr(),
			Password: cfg.Storage.Redis.Password,
			DB:       cfg.Storage.Redis.DB,
		})
		if err := rdb.Ping(ctx).Err(); err != nil {
			return fmt.Errorf("redis connection failed (%s): %w", cfg.Storage.Redis.Addr(), err)
		}
		locker = pipeline.NewRedisLocker(rdb, cfg.Pipeline.LockTTL)
	}

	exec := pipeline.NewStepExecutor(st, router, cfg.Pipeline.MaxAttempts, cfg.Pipeline.RetryDelay)
	orch := pipeline.NewOrchestrator(st, exec, tracker, locker)

	var idx *search.Index
	if cfg.Search.Enabled {
		idx, err = search.NewIndex()
		if err != nil {
			return err
		}
		if err := rebuildIndex(ctx, st, idx); err != nil {
			return err
		}
	}

	api := e.Group("/api")
	if cfg.Server.JWTSecret != "" {
		api.Use(withAuth([]byte(cfg.Server.JWTSecret)))
	}
	api.GET("/", func(c echo.Context) error {
		return c.JSON(200, map[string]string{"message": "GTM Newsletter Intelligence API"})
	})

	nh := &NewslettersHandler{Store: st, Search: idx}
	nh.Register(api)

	rh := &RunsHandler{Store: st, Orch: orch, Tracker: tracker, Search: idx, RunTimeout: cfg.Pipeline.RunTimeout}
	rh.Register(api)

	sh := &SettingsHandler{Store: st}
	sh.Register(api)

	dh := &StatsHandler{Store: st}
	dh.Register(api)

	if addr == "" {
		addr = cfg.Server.Address
		if addr == "" {
			addr = ":8080"
		}
	}
	log.Printf("listening on %s", addr)
	return e.Start(addr)
}

// rebuildIndex loads every newsletter into the search index. The index is
// mem-only, so each boot starts from the store.
func rebuildIndex(ctx context.Context, st *store.Store, idx *search.Index) error {
	newsletters, err := st.ListNewsletters(ctx)
	if err != nil {
		return err
	}
	for _, nl := range newsletters {
		if err := idx.IndexNewsletter(nl); err != nil {
			return fmt.Errorf("indexing newsletter %s: %w", nl.ID, err)
		}
	}
	return nil
}
