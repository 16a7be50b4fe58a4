package result

import (
	"math"
	"time"

	"github.com/kailas-cloud/prodsearch/internal/domain/product"
	"github.com/kailas-cloud/prodsearch/internal/domain/query"
	"github.com/kailas-cloud/prodsearch/internal/domain/search/facet"
)

// Hit is a request-scoped copy of a catalog product, optionally annotated with a
// reranker score. Scoring a hit never touches the shared catalog record.
type Hit struct {
	product product.Product
	score   *float64
}

// NewHit wraps a product without a score.
func NewHit(p product.Product) Hit {
	return Hit{product: p}
}

// NewHits wraps products without scores, preserving order.
func NewHits(products []product.Product) []Hit {
	hits := make([]Hit, len(products))
	for i, p := range products {
		hits[i] = NewHit(p)
	}
	return hits
}

// WithScore returns a copy of the hit carrying score.
func (h Hit) WithScore(score float64) Hit {
	h.score = &score
	return h
}

// Product returns the underlying product.
func (h Hit) Product() product.Product { return h.product }

// Score returns the reranker score and whether one was assigned.
func (h Hit) Score() (float64, bool) {
	if h.score == nil {
		return 0, false
	}
	return *h.score, true
}

// Response is the assembled result of one search request.
type Response struct {
	OriginalQuery  string
	RewrittenQuery *query.Understanding
	Hits           []Hit
	Facets         []facet.Facet
	SearchTime     float64
}

// searchTimePrecision is the number of decimals kept in SearchTime.
const searchTimePrecision = 2

// RoundSeconds converts d to seconds rounded to two decimal places.
func RoundSeconds(d time.Duration) float64 {
	scale := math.Pow10(searchTimePrecision)
	return math.Round(d.Seconds()*scale) / scale
}
