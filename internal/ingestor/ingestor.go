package ingestor

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"trajview/internal/dashboard"
	"trajview/internal/domain"
	"trajview/pkg/dataset"
)

var ErrAlreadyRan = errors.New("ingestor already ran")

// Source produces the dataset for the session.
type Source interface {
	Fetch(ctx context.Context) (*dataset.Dataset, error)
}

// FileSource reads the dataset from disk.
type FileSource struct {
	Path string
}

func (f FileSource) Fetch(_ context.Context) (*dataset.Dataset, error) {
	return dataset.ReadFile(f.Path)
}

// Loader is the controller side of a load.
type Loader interface {
	Load(raw []domain.RawRoute) (dashboard.LoadReport, error)
}

// Ingestor performs the session's single load: fetch, hand to the
// controller, flip readiness.
type Ingestor struct {
	source   Source
	loader   Loader
	logger   *slog.Logger
	onLoaded func(context.Context, *dataset.Dataset, dashboard.LoadReport)

	once sync.Once

	mu          sync.RWMutex
	ready       bool
	fingerprint string
	origin      string
}

func New(source Source, loader Loader, logger *slog.Logger) *Ingestor {
	return &Ingestor{
		source: source,
		loader: loader,
		logger: logger.With("component", "ingestor"),
	}
}

// OnLoaded registers a hook run after a successful load.
func (i *Ingestor) OnLoaded(fn func(context.Context, *dataset.Dataset, dashboard.LoadReport)) {
	i.onLoaded = fn
}

// Run loads the dataset. Only the first call does any work.
func (i *Ingestor) Run(ctx context.Context) error {
	err := ErrAlreadyRan
	i.once.Do(func() {
		err = i.run(ctx)
	})
	return err
}

func (i *Ingestor) run(ctx context.Context) error {
	start := time.Now()
	i.logger.Info("loading dataset")

	ds, err := i.source.Fetch(ctx)
	if err != nil {
		i.logger.Error("failed to fetch dataset", "error", err)
		return fmt.Errorf("fetch dataset: %w", err)
	}

	report, err := i.loader.Load(ds.Routes)
	if err != nil {
		i.logger.Error("failed to load dataset", "error", err)
		return fmt.Errorf("load dataset: %w", err)
	}

	i.mu.Lock()
	i.ready = true
	i.fingerprint = ds.Fingerprint
	i.origin = ds.Source
	i.mu.Unlock()

	i.logger.Info("ingestor ready",
		"source", ds.Source,
		"fingerprint", ds.Fingerprint,
		"routes", report.Loaded,
		"rejected", len(report.Rejected),
		"duration_ms", time.Since(start).Milliseconds(),
	)

	if i.onLoaded != nil {
		i.onLoaded(ctx, ds, report)
	}
	return nil
}

func (i *Ingestor) IsReady() bool {
	i.mu.RLock()
	defer i.mu.RUnlock()
	return i.ready
}

// Fingerprint is the loaded dataset's SHA-256, empty before load.
func (i *Ingestor) Fingerprint() string {
	i.mu.RLock()
	defer i.mu.RUnlock()
	return i.fingerprint
}

// Source names where the dataset came from.
func (i *Ingestor) Source() string {
	i.mu.RLock()
	defer i.mu.RUnlock()
	return i.origin
}
