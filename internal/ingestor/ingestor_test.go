package ingestor

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"trajview/internal/dashboard"
	"trajview/internal/domain"
	"trajview/pkg/dataset"
)

type stubSource struct {
	ds    *dataset.Dataset
	err   error
	calls int
}

func (s *stubSource) Fetch(context.Context) (*dataset.Dataset, error) {
	s.calls++
	return s.ds, s.err
}

type stubLoader struct {
	got []domain.RawRoute
	err error
}

func (l *stubLoader) Load(raw []domain.RawRoute) (dashboard.LoadReport, error) {
	l.got = raw
	if l.err != nil {
		return dashboard.LoadReport{}, l.err
	}
	return dashboard.LoadReport{Loaded: len(raw)}, nil
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestIngestor_RunOnce(t *testing.T) {
	src := &stubSource{ds: &dataset.Dataset{
		Source:      "mem",
		Fingerprint: "abc",
		Routes:      []domain.RawRoute{{ID: "a"}},
	}}
	loader := &stubLoader{}
	ing := New(src, loader, testLogger())

	var hooked dashboard.LoadReport
	ing.OnLoaded(func(_ context.Context, ds *dataset.Dataset, r dashboard.LoadReport) {
		hooked = r
	})

	assert.False(t, ing.IsReady())
	require.NoError(t, ing.Run(context.Background()))
	assert.True(t, ing.IsReady())
	assert.Equal(t, "abc", ing.Fingerprint())
	assert.Equal(t, "mem", ing.Source())
	assert.Equal(t, 1, hooked.Loaded)
	assert.Len(t, loader.got, 1)

	assert.ErrorIs(t, ing.Run(context.Background()), ErrAlreadyRan)
	assert.Equal(t, 1, src.calls)
}

func TestIngestor_FetchError(t *testing.T) {
	boom := errors.New("boom")
	ing := New(&stubSource{err: boom}, &stubLoader{}, testLogger())

	err := ing.Run(context.Background())
	assert.ErrorIs(t, err, boom)
	assert.False(t, ing.IsReady())
}

func TestIngestor_LoadError(t *testing.T) {
	src := &stubSource{ds: &dataset.Dataset{}}
	ing := New(src, &stubLoader{err: dashboard.ErrAlreadyLoaded}, testLogger())

	assert.ErrorIs(t, ing.Run(context.Background()), dashboard.ErrAlreadyLoaded)
	assert.False(t, ing.IsReady())
}

func TestFileSource(t *testing.T) {
	path := filepath.Join(t.TempDir(), "routes.json")
	require.NoError(t, os.WriteFile(path, []byte(`[{"id":"a","points":[{"x":0,"y":0,"time":0},{"x":1,"y":0,"time":1}]}]`), 0o644))

	ds, err := FileSource{Path: path}.Fetch(context.Background())
	require.NoError(t, err)
	require.Len(t, ds.Routes, 1)
	assert.Equal(t, "a", ds.Routes[0].ID)
}
