package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"trajview/internal/domain"
)

// Backend is the byte store under a RenderCache. A missing key is (nil, nil).
type Backend interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	DeletePattern(ctx context.Context, pattern string) error
}

// RenderCache stores gzip-compressed rendered artifacts and the metrics
// table, keyed by the loaded dataset's fingerprint. Backend errors are logged
// and reported as misses.
type RenderCache struct {
	backend Backend
	ttl     time.Duration
	logger  *slog.Logger

	mu          sync.RWMutex
	fingerprint string
}

func NewRenderCache(backend Backend, ttl time.Duration, logger *slog.Logger) *RenderCache {
	return &RenderCache{
		backend: backend,
		ttl:     ttl,
		logger:  logger.With("component", "render_cache"),
	}
}

// Activate scopes every key to a dataset and deletes the entries of the
// dataset that was active before, if it differs. Until Activate is called
// the cache misses on every read and drops every write.
func (c *RenderCache) Activate(ctx context.Context, fp string) {
	prev, err := c.backend.Get(ctx, KeyActiveDataset)
	if err != nil {
		c.logger.Warn("failed to read active dataset", "error", err)
	}
	if old := string(prev); old != "" && old != fp {
		if err := c.backend.DeletePattern(ctx, PatternDataset(old)); err != nil {
			c.logger.Warn("failed to evict previous dataset", "fingerprint", old, "error", err)
		} else {
			c.logger.Info("evicted previous dataset", "fingerprint", old)
		}
	}
	if err := c.backend.Set(ctx, KeyActiveDataset, []byte(fp), 0); err != nil {
		c.logger.Warn("failed to record active dataset", "error", err)
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.fingerprint = fp
}

func (c *RenderCache) Fingerprint() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.fingerprint
}

// Scene returns a cached artifact for a scene key and format.
func (c *RenderCache) Scene(ctx context.Context, sceneKey, format string) ([]byte, bool) {
	fp := c.Fingerprint()
	if fp == "" {
		return nil, false
	}
	return c.get(ctx, KeyScene(fp, sceneKey, format))
}

func (c *RenderCache) PutScene(ctx context.Context, sceneKey, format string, data []byte) {
	fp := c.Fingerprint()
	if fp == "" {
		return
	}
	c.put(ctx, KeyScene(fp, sceneKey, format), data)
}

// Metrics returns the cached summary table.
func (c *RenderCache) Metrics(ctx context.Context) ([]domain.RouteMetrics, bool) {
	fp := c.Fingerprint()
	if fp == "" {
		return nil, false
	}
	data, ok := c.get(ctx, KeyMetrics(fp))
	if !ok {
		return nil, false
	}
	var ms []domain.RouteMetrics
	if err := json.Unmarshal(data, &ms); err != nil {
		c.logger.Warn("discarding corrupt metrics entry", "error", err)
		return nil, false
	}
	return ms, true
}

func (c *RenderCache) PutMetrics(ctx context.Context, ms []domain.RouteMetrics) error {
	fp := c.Fingerprint()
	if fp == "" {
		return nil
	}
	data, err := json.Marshal(ms)
	if err != nil {
		return fmt.Errorf("json marshal: %w", err)
	}
	c.put(ctx, KeyMetrics(fp), data)
	return nil
}

func (c *RenderCache) get(ctx context.Context, key string) ([]byte, bool) {
	data, err := c.backend.Get(ctx, key)
	if err != nil || data == nil {
		if err != nil {
			c.logger.Warn("cache read failed", "key", key, "error", err)
		}
		return nil, false
	}

	raw, err := gzipDecompress(data)
	if err != nil {
		c.logger.Warn("cache entry not decodable", "key", key, "error", err)
		return nil, false
	}
	return raw, true
}

func (c *RenderCache) put(ctx context.Context, key string, data []byte) {
	compressed, err := gzipCompress(data)
	if err != nil {
		c.logger.Warn("cache compress failed", "key", key, "error", err)
		return
	}
	if err := c.backend.Set(ctx, key, compressed, c.ttl); err != nil {
		c.logger.Warn("cache write failed", "key", key, "error", err)
		return
	}
	c.logger.Debug("cached entry", "key", key, "original_size", len(data), "compressed_size", len(compressed))
}
