// Package rerank scores candidates against the search text with a cross-encoder.
package rerank

import (
	"context"
	"fmt"
	"math"
	"sort"

	"github.com/kailas-cloud/prodsearch/internal/domain"
	"github.com/kailas-cloud/prodsearch/internal/domain/product"
	"github.com/kailas-cloud/prodsearch/internal/domain/search/result"
)

// PairScorer scores (query, text) pairs; one score per text, in input order.
type PairScorer interface {
	Score(ctx context.Context, query string, texts []string) ([]float64, error)
}

// Service reranks candidates by pairwise relevance.
type Service struct {
	scorer PairScorer
}

// New creates a rerank service.
func New(scorer PairScorer) *Service {
	return &Service{scorer: scorer}
}

// Rerank scores every product in a single oracle call and returns scored hits
// sorted by descending score. Equal scores keep retrieval order.
func (s *Service) Rerank(ctx context.Context, text string, products []product.Product) ([]result.Hit, error) {
	if len(products) == 0 {
		return []result.Hit{}, nil
	}

	texts := make([]string, len(products))
	for i, p := range products {
		texts[i] = p.PairText()
	}

	scores, err := s.scorer.Score(ctx, text, texts)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrRerankerFailed, err)
	}
	if len(scores) != len(products) {
		return nil, fmt.Errorf("%w: got %d scores for %d candidates",
			domain.ErrRerankerFailed, len(scores), len(products))
	}

	hits := make([]result.Hit, len(products))
	for i, p := range products {
		if math.IsNaN(scores[i]) {
			return nil, fmt.Errorf("%w: NaN score for product %s", domain.ErrRerankerFailed, p.ID())
		}
		hits[i] = result.NewHit(p).WithScore(scores[i])
	}
	sort.SliceStable(hits, func(i, j int) bool {
		si, _ := hits[i].Score()
		sj, _ := hits[j].Score()
		return si > sj
	})
	return hits, nil
}
