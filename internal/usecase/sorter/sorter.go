// Package sorter orders and truncates candidates when the rerank path is not taken.
package sorter

import (
	"math"
	"sort"

	"github.com/kailas-cloud/prodsearch/internal/domain/product"
	"github.com/kailas-cloud/prodsearch/internal/domain/search/mode"
	"github.com/kailas-cloud/prodsearch/internal/domain/search/result"
)

// Sort orders products by sortBy and wraps them as unscored hits. Price sorts are
// stable and push products without a price to the end. Any other mode keeps
// retrieval order.
func Sort(products []product.Product, sortBy mode.Sort) []result.Hit {
	hits := result.NewHits(products)
	switch sortBy {
	case mode.PriceAsc:
		sort.SliceStable(hits, func(i, j int) bool {
			return priceOr(hits[i], math.Inf(1)) < priceOr(hits[j], math.Inf(1))
		})
	case mode.PriceDesc:
		sort.SliceStable(hits, func(i, j int) bool {
			return priceOr(hits[i], math.Inf(-1)) > priceOr(hits[j], math.Inf(-1))
		})
	}
	return hits
}

func priceOr(h result.Hit, missing float64) float64 {
	if v, ok := h.Product().PriceValue(); ok {
		return v
	}
	return missing
}

// Paginate returns the first topK items.
func Paginate[T any](items []T, topK int) []T {
	if topK < 0 {
		topK = 0
	}
	if len(items) > topK {
		return items[:topK]
	}
	return items
}
