package cache

import (
	"context"
	"log/slog"
	"time"

	"trajview/internal/domain"
	"trajview/internal/render"
)

// WarmFormats are rendered for the initial selection right after load.
var WarmFormats = []string{render.FormatPNG, render.FormatSVG, render.FormatHTML, render.FormatGeoJSON}

type CacheWarmer struct {
	cache     *RenderCache
	artifacts *render.Artifacts
	logger    *slog.Logger
}

func NewCacheWarmer(cache *RenderCache, artifacts *render.Artifacts, logger *slog.Logger) *CacheWarmer {
	return &CacheWarmer{
		cache:     cache,
		artifacts: artifacts,
		logger:    logger.With("component", "cache_warmer"),
	}
}

// Warm scopes the cache to a dataset and stores the metrics table and
// every artifact of the given frame.
func (w *CacheWarmer) Warm(ctx context.Context, fingerprint string, ms []domain.RouteMetrics, frame render.Frame) {
	start := time.Now()
	w.cache.Activate(ctx, fingerprint)

	if err := w.cache.PutMetrics(ctx, ms); err != nil {
		w.logger.Error("failed to warm metrics", "error", err)
	}

	key := w.artifacts.SceneKey(frame)
	warmed := 0
	for _, format := range WarmFormats {
		if ctx.Err() != nil {
			break
		}
		data, _, err := w.artifacts.Render(frame, format)
		if err != nil {
			w.logger.Error("failed to render for warming", "format", format, "error", err)
			continue
		}
		w.cache.PutScene(ctx, key, format, data)
		warmed++
	}

	w.logger.Info("cache warming completed",
		"fingerprint", fingerprint,
		"selection", frame.Selection.Key(),
		"formats", warmed,
		"duration_ms", time.Since(start).Milliseconds(),
	)
}
