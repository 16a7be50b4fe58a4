package search

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/prodsearch/internal/domain"
	"github.com/kailas-cloud/prodsearch/internal/domain/product"
	"github.com/kailas-cloud/prodsearch/internal/domain/query"
	"github.com/kailas-cloud/prodsearch/internal/domain/search/request"
	"github.com/kailas-cloud/prodsearch/internal/domain/search/result"
	"github.com/kailas-cloud/prodsearch/internal/logger"
	"github.com/kailas-cloud/prodsearch/internal/metrics"
	"github.com/kailas-cloud/prodsearch/internal/usecase/facet"
	"github.com/kailas-cloud/prodsearch/internal/usecase/filter"
	"github.com/kailas-cloud/prodsearch/internal/usecase/retrieve"
	"github.com/kailas-cloud/prodsearch/internal/usecase/sorter"
)

// DefaultTimeout is the per-request pipeline deadline used when none is configured.
const DefaultTimeout = 10 * time.Second

// Service runs the product search pipeline: understand, retrieve, facet, filter,
// rerank or sort, paginate.
type Service struct {
	snapshots  Snapshots
	understand Understander
	retrieve   Retriever
	rerank     Reranker
	timeout    time.Duration
}

// New creates a search service. timeout <= 0 disables the per-request deadline.
func New(snapshots Snapshots, understand Understander, retrieve Retriever, rerank Reranker) *Service {
	return &Service{
		snapshots:  snapshots,
		understand: understand,
		retrieve:   retrieve,
		rerank:     rerank,
		timeout:    DefaultTimeout,
	}
}

// WithTimeout overrides the per-request deadline. Zero disables it.
func (s *Service) WithTimeout(d time.Duration) *Service {
	if d >= 0 {
		s.timeout = d
	}
	return s
}

// Search executes one search request against the current snapshot.
// Failures never produce partial results.
func (s *Service) Search(ctx context.Context, req *request.Request) (result.Response, error) {
	start := time.Now()

	resp, err := s.search(ctx, req)
	elapsed := time.Since(start)
	metrics.SearchDuration.WithLabelValues(searchStatus(err)).Observe(elapsed.Seconds())
	if err != nil {
		return result.Response{}, err
	}

	resp.SearchTime = result.RoundSeconds(elapsed)
	return resp, nil
}

func (s *Service) search(ctx context.Context, req *request.Request) (result.Response, error) {
	snap, ok := s.snapshots.Load()
	if !ok {
		return result.Response{}, domain.ErrNotReady
	}

	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}

	resp, err := s.run(ctx, snap.Index, snap.Catalog, req)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) || errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return result.Response{}, fmt.Errorf("%w: %w", domain.ErrSearchTimeout, err)
		}
		return result.Response{}, err
	}
	return resp, nil
}

func (s *Service) run(
	ctx context.Context, index domain.VectorIndex, catalog retrieve.Catalog, req *request.Request,
) (result.Response, error) {
	log := logger.FromContext(ctx)
	q := req.Query()

	understanding := query.Passthrough(q)
	if req.RewriteOn() {
		u, err := s.understand.Understand(ctx, q)
		if err != nil {
			return result.Response{}, fmt.Errorf("understand query: %w", err)
		}
		understanding = u
	}
	text := understanding.SearchText(q)
	log.Debug("Query understood",
		zap.String("search_text", text),
		zap.Strings("brands", understanding.Filters.Brand),
		zap.Bool("rewrite_on", req.RewriteOn()),
	)

	candidates, err := s.retrieve.Retrieve(ctx, index, catalog, text)
	if err != nil {
		return result.Response{}, fmt.Errorf("retrieve candidates: %w", err)
	}

	// Facets describe the whole candidate set, before the caller's selection narrows it.
	facets := facet.Aggregate(candidates)
	filtered := filter.Apply(candidates, req.Selection())
	log.Debug("Candidates filtered",
		zap.Int("candidates", len(candidates)),
		zap.Int("filtered", len(filtered)),
	)

	var hits []result.Hit
	if req.ShouldRerank() {
		hits, err = s.rerank.Rerank(ctx, text, filtered)
		if err != nil {
			return result.Response{}, fmt.Errorf("rerank candidates: %w", err)
		}
	} else {
		hits = sorter.Sort(filtered, req.SortBy())
	}

	// Oracles may return after the deadline without reporting it.
	if err := ctx.Err(); err != nil {
		return result.Response{}, err
	}

	return result.Response{
		OriginalQuery:  q,
		RewrittenQuery: &understanding,
		Hits:           sorter.Paginate(hits, req.TopK()),
		Facets:         facets,
	}, nil
}

// Product returns a catalog record from the current snapshot.
func (s *Service) Product(_ context.Context, id string) (product.Product, error) {
	snap, ok := s.snapshots.Load()
	if !ok {
		return product.Product{}, domain.ErrNotReady
	}
	p, ok := snap.Catalog.Get(id)
	if !ok {
		return product.Product{}, fmt.Errorf("%w: %s", domain.ErrProductNotFound, id)
	}
	return p, nil
}

func searchStatus(err error) string {
	switch {
	case err == nil:
		return "success"
	case errors.Is(err, domain.ErrSearchTimeout):
		return "timeout"
	case errors.Is(err, domain.ErrNotReady):
		return "not_ready"
	default:
		return "error"
	}
}
