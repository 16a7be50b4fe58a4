package snapshot

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/kailas-cloud/prodsearch/internal/catalog"
	"github.com/kailas-cloud/prodsearch/internal/domain"
	"github.com/kailas-cloud/prodsearch/internal/metrics"
	"github.com/kailas-cloud/prodsearch/internal/vector"
)

// IndexSource opens the vector index for a new snapshot.
type IndexSource interface {
	Open(ctx context.Context) (domain.VectorIndex, error)
}

// FileIndex opens a flat L2 index file.
type FileIndex struct {
	Path       string
	Dimensions int
}

// Open implements IndexSource.
func (f FileIndex) Open(_ context.Context) (domain.VectorIndex, error) {
	x, err := vector.Load(f.Path, f.Dimensions)
	if err != nil {
		return nil, fmt.Errorf("load flat index: %w", err)
	}
	return x, nil
}

// Loader builds snapshots from the catalog file and an index source.
type Loader struct {
	catalogPath string
	index       IndexSource
	logger      *zap.Logger
}

// NewLoader creates a snapshot loader.
func NewLoader(catalogPath string, index IndexSource, logger *zap.Logger) *Loader {
	return &Loader{catalogPath: catalogPath, index: index, logger: logger}
}

// Load reads the catalog and opens the index concurrently.
func (l *Loader) Load(ctx context.Context) (*Snapshot, error) {
	var (
		cat *catalog.Catalog
		idx domain.VectorIndex
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		c, err := catalog.Load(l.catalogPath)
		if err != nil {
			return fmt.Errorf("load catalog: %w", err)
		}
		cat = c
		return nil
	})
	g.Go(func() error {
		x, err := l.index.Open(gctx)
		if err != nil {
			return fmt.Errorf("open index: %w", err)
		}
		idx = x
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err //nolint:wrapcheck // both branches already wrap
	}

	if idx.Size() != cat.Len() {
		l.logger.Warn("Index and catalog sizes differ",
			zap.Int("index_size", idx.Size()),
			zap.Int("catalog_size", cat.Len()),
		)
	}
	return &Snapshot{Catalog: cat, Index: idx, LoadedAt: time.Now()}, nil
}

// Reload builds a fresh snapshot and publishes it into h. On failure the previous
// snapshot stays live.
func (l *Loader) Reload(ctx context.Context, h *Holder) error {
	start := time.Now()
	s, err := l.Load(ctx)
	if err != nil {
		metrics.SnapshotReloadsTotal.WithLabelValues("error").Inc()
		l.logger.Error("Snapshot reload failed", zap.Error(err))
		return err
	}
	h.Swap(s)
	metrics.SnapshotReloadsTotal.WithLabelValues("success").Inc()
	metrics.SnapshotProducts.Set(float64(s.Catalog.Len()))
	l.logger.Info("Snapshot loaded",
		zap.Int("products", s.Catalog.Len()),
		zap.Int("vectors", s.Index.Size()),
		zap.Int("dimensions", s.Index.Dimensions()),
		zap.Duration("duration", time.Since(start)),
	)
	return nil
}
