package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"trajview/internal/cache"
	"trajview/internal/config"
	"trajview/internal/dashboard"
	"trajview/internal/handler"
	"trajview/internal/hub"
	"trajview/internal/ingestor"
	"trajview/internal/middleware"
	"trajview/internal/render"
	"trajview/internal/store"
	"trajview/internal/toggle"
	"trajview/pkg/dataset"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: cfg.LogLevel,
	}))
	slog.SetDefault(logger)

	logger.Info("starting trajview server",
		"log_level", cfg.LogLevel.String(),
		"http_addr", cfg.HTTPAddr,
		"dataset_path", cfg.DatasetPath,
		"dataset_url", cfg.DatasetURL,
		"redis_enabled", cfg.RedisEnabled,
	)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	viewport := render.SquareViewport(cfg.ViewportMin, cfg.ViewportMax)
	routes := store.New()
	board := toggle.NewBoard[dashboard.RefreshResult]()
	table := render.NewTable()
	scene := render.NewScene(viewport)
	wsHub := hub.NewHub(logger)

	ctrl := dashboard.New(routes, scene, board, table, logger,
		dashboard.WithPublisher(wsHub),
	)
	board.OnChange(ctrl.OnToggleChanged)

	artifacts := render.NewArtifacts(
		render.NewPlotRenderer(cfg.PlotWidthIn, cfg.PlotHeightIn),
		render.NewChartRenderer(""),
	)

	var sceneCache handler.ArtifactCache
	var warmer *cache.CacheWarmer
	if cfg.RedisEnabled {
		redisCache, err := cache.NewRedisCache(ctx, cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB, logger)
		if err != nil {
			logger.Warn("redis unavailable, continuing without render cache", "error", err)
		} else {
			defer redisCache.Close()
			renderCache := cache.NewRenderCache(redisCache, cfg.CacheTTL, logger)
			sceneCache = renderCache
			warmer = cache.NewCacheWarmer(renderCache, artifacts, logger)
			logger.Info("render cache enabled", "addr", cfg.RedisAddr, "ttl", cfg.CacheTTL)
		}
	}

	var source ingestor.Source
	if cfg.DatasetPath != "" {
		source = ingestor.FileSource{Path: cfg.DatasetPath}
	} else {
		source = dataset.NewClient(cfg.DatasetURL, cfg.DatasetTimeout, logger)
	}
	ing := ingestor.New(source, ctrl, logger)
	if warmer != nil {
		ing.OnLoaded(func(ctx context.Context, ds *dataset.Dataset, _ dashboard.LoadReport) {
			warmer.Warm(ctx, ds.Fingerprint, ctrl.Metrics(), ctrl.Frame())
		})
	}

	limiter := middleware.NewRateLimiter(cfg.RateLimitPerWindow, cfg.RateLimitWindow, cfg.RateLimitWhitelist, logger)
	limiter.OnBlocked(func(string) { handler.ServerStats.IncRateLimitBlocked() })

	router := &handler.Router{
		HTTP:    handler.NewHTTPHandler(ctrl, board, table, artifacts, sceneCache, logger),
		WS:      handler.NewWSHandler(wsHub, ctrl, board, table, cfg.WSSendBuffer, logger),
		Health:  handler.NewHealthHandler(ing, routes),
		Stats:   handler.NewStatsHandler(ctrl, wsHub, ing, limiter),
		Limiter: limiter,
		Logger:  logger,
	}

	srv := &http.Server{
		Addr:         cfg.HTTPAddr,
		Handler:      router.Handler(),
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
	}

	go wsHub.Run(ctx)

	go limiter.Run(ctx)

	go func() {
		if err := ing.Run(ctx); err != nil {
			logger.Error("dataset load failed", "error", err)
		}
	}()

	go func() {
		logger.Info("starting HTTP server", "addr", cfg.HTTPAddr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("HTTP server error", "error", err)
			cancel()
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	select {
	case <-sigChan:
		logger.Info("shutdown signal received")
	case <-ctx.Done():
	}

	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("HTTP server shutdown error", "error", err)
	}

	logger.Info("shutdown complete")
}
