// Package retrieve turns search text into catalog candidates via embedding and ANN lookup.
package retrieve

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/prodsearch/internal/domain"
	"github.com/kailas-cloud/prodsearch/internal/domain/product"
	"github.com/kailas-cloud/prodsearch/internal/logger"
	"github.com/kailas-cloud/prodsearch/internal/metrics"
)

// DefaultCandidates is the ANN fan-out used when none is configured.
const DefaultCandidates = 200

// Service retrieves candidate products for a search text.
type Service struct {
	embed      Embedder
	candidates int
}

// New creates a retrieval service. Non-positive candidates selects DefaultCandidates.
func New(embed Embedder, candidates int) *Service {
	if candidates <= 0 {
		candidates = DefaultCandidates
	}
	return &Service{embed: embed, candidates: candidates}
}

// Candidates returns the configured ANN fan-out.
func (s *Service) Candidates() int { return s.candidates }

// Retrieve embeds text, queries index for the nearest neighbors and resolves them
// against catalog in ascending distance order. Sentinel and duplicate labels are
// skipped; ids missing from the catalog are dropped and counted.
func (s *Service) Retrieve(
	ctx context.Context, index domain.VectorIndex, catalog Catalog, text string,
) ([]product.Product, error) {
	emb, err := s.embed.Embed(ctx, text)
	if err != nil {
		return nil, wrapOracle(domain.ErrEmbeddingProviderError, err)
	}
	if len(emb.Embedding) != index.Dimensions() {
		return nil, fmt.Errorf("%w: query vector has %d dimensions, index expects %d",
			domain.ErrIndexSearchFailed, len(emb.Embedding), index.Dimensions())
	}

	start := time.Now()
	neighbors, err := index.Search(ctx, emb.Embedding, s.candidates)
	metrics.OracleRequestDuration.WithLabelValues(metrics.OracleIndex).Observe(time.Since(start).Seconds())
	if err != nil {
		metrics.OracleRequestsTotal.WithLabelValues(metrics.OracleIndex, "error").Inc()
		return nil, wrapOracle(domain.ErrIndexSearchFailed, err)
	}
	metrics.OracleRequestsTotal.WithLabelValues(metrics.OracleIndex, "success").Inc()

	out := make([]product.Product, 0, len(neighbors))
	seen := make(map[int64]struct{}, len(neighbors))
	stale := 0
	for _, n := range neighbors {
		if n.Label == domain.NoMatchLabel {
			continue
		}
		if _, dup := seen[n.Label]; dup {
			continue
		}
		seen[n.Label] = struct{}{}

		id, ok := index.ProductID(n.Label)
		if !ok {
			stale++
			continue
		}
		p, ok := catalog.Get(id)
		if !ok {
			stale++
			continue
		}
		out = append(out, p)
	}

	if stale > 0 {
		metrics.StaleCandidatesTotal.Add(float64(stale))
		logger.FromContext(ctx).Debug("dropped stale candidates",
			zap.Int("stale", stale),
			zap.Int("kept", len(out)),
		)
	}
	return out, nil
}

// wrapOracle tags err with sentinel unless it already carries it.
func wrapOracle(sentinel, err error) error {
	if errors.Is(err, sentinel) {
		return fmt.Errorf("retrieve: %w", err)
	}
	return fmt.Errorf("%w: %w", sentinel, err)
}
