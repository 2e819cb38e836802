package cache

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"math"
	"path"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"trajview/internal/domain"
	"trajview/internal/render"
	"trajview/internal/selection"
)

type memBackend struct {
	mu   sync.Mutex
	data map[string][]byte
	ttls map[string]time.Duration
	err  error
}

func newMemBackend() *memBackend {
	return &memBackend{data: make(map[string][]byte), ttls: make(map[string]time.Duration)}
}

func (m *memBackend) Get(_ context.Context, key string) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return nil, m.err
	}
	return m.data[key], nil
}

func (m *memBackend) Set(_ context.Context, key string, value []byte, ttl time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	m.data[key] = value
	m.ttls[key] = ttl
	return nil
}

func (m *memBackend) DeletePattern(_ context.Context, pattern string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	for key := range m.data {
		if ok, _ := path.Match(pattern, key); ok {
			delete(m.data, key)
			delete(m.ttls, key)
		}
	}
	return nil
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestKeys(t *testing.T) {
	assert.Equal(t, "ds:abc:metrics", KeyMetrics("abc"))
	assert.Equal(t, "ds:abc:scene:png:subset:a,b", KeyScene("abc", "subset:a,b", "png"))
	assert.Equal(t, "ds:abc:*", PatternDataset("abc"))

	for _, key := range []string{KeyMetrics("abc"), KeyScene("abc", "vp=0,10,0,10;all", "svg")} {
		ok, err := path.Match(PatternDataset("abc"), key)
		require.NoError(t, err)
		assert.True(t, ok, key)
	}
	ok, _ := path.Match(PatternDataset("abc"), KeyMetrics("abd"))
	assert.False(t, ok)
}

func TestGzipRoundTrip(t *testing.T) {
	in := []byte("trajectory trajectory trajectory")
	c, err := gzipCompress(in)
	require.NoError(t, err)
	out, err := gzipDecompress(c)
	require.NoError(t, err)
	assert.Equal(t, in, out)
}

func TestRenderCache_NoFingerprint(t *testing.T) {
	b := newMemBackend()
	c := NewRenderCache(b, time.Hour, testLogger())

	c.PutScene(context.Background(), "all", "png", []byte("x"))
	assert.Empty(t, b.data)

	_, ok := c.Scene(context.Background(), "all", "png")
	assert.False(t, ok)
}

func TestRenderCache_Scene(t *testing.T) {
	b := newMemBackend()
	c := NewRenderCache(b, time.Hour, testLogger())
	ctx := context.Background()
	c.Activate(ctx, "fp")

	_, ok := c.Scene(ctx, "all", "svg")
	assert.False(t, ok)

	c.PutScene(ctx, "all", "svg", []byte("<svg/>"))
	assert.Equal(t, time.Hour, b.ttls[KeyScene("fp", "all", "svg")])

	data, ok := c.Scene(ctx, "all", "svg")
	require.True(t, ok)
	assert.Equal(t, "<svg/>", string(data))
}

func TestRenderCache_ActivateEvictsPreviousDataset(t *testing.T) {
	b := newMemBackend()
	c := NewRenderCache(b, time.Hour, testLogger())
	ctx := context.Background()

	c.Activate(ctx, "old")
	c.PutScene(ctx, "all", "png", []byte("old png"))
	require.NoError(t, c.PutMetrics(ctx, []domain.RouteMetrics{{RouteID: "a"}}))

	// Re-activating the same dataset keeps its entries.
	c.Activate(ctx, "old")
	_, ok := c.Scene(ctx, "all", "png")
	require.True(t, ok)

	c.Activate(ctx, "new")
	assert.Equal(t, "new", c.Fingerprint())
	assert.Equal(t, "new", string(b.data[KeyActiveDataset]))
	assert.NotContains(t, b.data, KeyScene("old", "all", "png"))
	assert.NotContains(t, b.data, KeyMetrics("old"))

	_, ok = c.Scene(ctx, "all", "png")
	assert.False(t, ok)
}

func TestRenderCache_Metrics(t *testing.T) {
	c := NewRenderCache(newMemBackend(), time.Hour, testLogger())
	ctx := context.Background()
	c.Activate(ctx, "fp")

	in := []domain.RouteMetrics{
		{RouteID: "a", Distance: 5, Speed: 2.5, ElapsedTime: 2},
		{RouteID: "b", ColorIndex: 1, Speed: math.NaN(), StopCount: 1},
	}
	require.NoError(t, c.PutMetrics(ctx, in))

	out, ok := c.Metrics(ctx)
	require.True(t, ok)
	require.Len(t, out, 2)
	assert.Equal(t, 2.5, out[0].Speed)
	assert.True(t, math.IsNaN(out[1].Speed))
}

func TestRenderCache_BackendErrorIsMiss(t *testing.T) {
	b := newMemBackend()
	b.err = errors.New("connection refused")
	c := NewRenderCache(b, time.Hour, testLogger())
	c.Activate(context.Background(), "fp")
	assert.Equal(t, "fp", c.Fingerprint())

	c.PutScene(context.Background(), "all", "png", []byte("x"))
	_, ok := c.Scene(context.Background(), "all", "png")
	assert.False(t, ok)
	_, ok = c.Metrics(context.Background())
	assert.False(t, ok)
}

func TestCacheWarmer_Warm(t *testing.T) {
	b := newMemBackend()
	c := NewRenderCache(b, time.Hour, testLogger())
	artifacts := render.NewArtifacts(render.NewPlotRenderer(2, 2), render.NewChartRenderer(""))
	w := NewCacheWarmer(c, artifacts, testLogger())

	frame := render.Frame{
		Seq:       1,
		Selection: selection.All(),
		Viewport:  render.DefaultViewport,
		Series: []render.Series{
			render.NewSeries("a", []domain.Point{{X: 0, Y: 0}, {X: 3, Y: 4, Time: 2}}, 0),
		},
	}
	w.Warm(context.Background(), "fp", []domain.RouteMetrics{{RouteID: "a", Distance: 5}}, frame)

	assert.Equal(t, "fp", c.Fingerprint())
	assert.Contains(t, b.data, KeyMetrics("fp"))
	for _, f := range WarmFormats {
		assert.Contains(t, b.data, KeyScene("fp", artifacts.SceneKey(frame), f))
	}
}
