package request

import (
	"fmt"

	"github.com/kailas-cloud/prodsearch/internal/domain"
	"github.com/kailas-cloud/prodsearch/internal/domain/search/filter"
	"github.com/kailas-cloud/prodsearch/internal/domain/search/mode"
)

// Search parameter limits.
const (
	// MaxQueryLength is the maximum allowed search query length.
	MaxQueryLength = 4096
	DefaultTopK    = 20
	MaxTopK        = 200
)

// Params are the raw search parameters. Nil pointers select the defaults.
type Params struct {
	Query     string
	TopK      *int
	RewriteOn *bool
	RerankOn  *bool
	Filters   map[string][]string
	SortBy    string
}

// Request is a validated search query.
type Request struct {
	query     string
	topK      int
	rewriteOn bool
	rerankOn  bool
	selection filter.Selection
	sortBy    mode.Sort
}

// New validates and normalizes search parameters.
// Defaults: top_k=20, rewrite_on=true, rerank_on=true, sort_by=relevance.
// top_k above MaxTopK is clamped; non-positive top_k is rejected.
func New(p Params) (Request, error) {
	if p.Query == "" {
		return Request{}, fmt.Errorf("%w: query is required", domain.ErrInvalidRequest)
	}
	if len(p.Query) > MaxQueryLength {
		return Request{}, fmt.Errorf("%w: query too long (max %d chars)", domain.ErrInvalidRequest, MaxQueryLength)
	}

	topK := DefaultTopK
	if p.TopK != nil {
		topK = *p.TopK
	}
	if topK <= 0 {
		return Request{}, fmt.Errorf("%w: top_k must be positive, got %d", domain.ErrInvalidRequest, topK)
	}
	if topK > MaxTopK {
		topK = MaxTopK
	}

	sortBy := mode.Sort(p.SortBy)
	if sortBy == "" {
		sortBy = mode.Relevance
	}
	if !sortBy.IsValid() {
		return Request{}, fmt.Errorf("%w: invalid sort_by %q", domain.ErrInvalidRequest, p.SortBy)
	}

	selection, err := filter.NewSelection(p.Filters)
	if err != nil {
		return Request{}, fmt.Errorf("%w: %w", domain.ErrInvalidFilter, err)
	}

	return Request{
		query:     p.Query,
		topK:      topK,
		rewriteOn: boolOr(p.RewriteOn, true),
		rerankOn:  boolOr(p.RerankOn, true),
		selection: selection,
		sortBy:    sortBy,
	}, nil
}

// Query returns the original search text.
func (r *Request) Query() string { return r.query }

// TopK returns the maximum number of results.
func (r *Request) TopK() int { return r.topK }

// RewriteOn reports whether query understanding runs.
func (r *Request) RewriteOn() bool { return r.rewriteOn }

// RerankOn reports whether the cross-encoder may run.
func (r *Request) RerankOn() bool { return r.rerankOn }

// Selection returns the validated facet selection.
func (r *Request) Selection() filter.Selection { return r.selection }

// SortBy returns the requested ordering.
func (r *Request) SortBy() mode.Sort { return r.sortBy }

// ShouldRerank reports whether the reranker decides the final order:
// only for relevance ordering with reranking enabled.
func (r *Request) ShouldRerank() bool {
	return r.rerankOn && r.sortBy == mode.Relevance
}

func boolOr(p *bool, def bool) bool {
	if p == nil {
		return def
	}
	return *p
}
