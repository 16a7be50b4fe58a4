// Package filter narrows a candidate set by the caller's facet selection.
package filter

import (
	"github.com/kailas-cloud/prodsearch/internal/domain/product"
	domfilter "github.com/kailas-cloud/prodsearch/internal/domain/search/filter"
)

// Apply keeps the products matching sel, preserving order. An empty selection
// returns the input unchanged. Products lacking a filtered attribute never match.
func Apply(products []product.Product, sel domfilter.Selection) []product.Product {
	if sel.IsEmpty() {
		return products
	}
	out := make([]product.Product, 0, len(products))
	for _, p := range products {
		if matches(p, sel) {
			out = append(out, p)
		}
	}
	return out
}

func matches(p product.Product, sel domfilter.Selection) bool {
	if sel.HasBrandFilter() {
		brand := p.Brand()
		if brand == nil || !sel.MatchesBrand(*brand) {
			return false
		}
	}
	if sel.HasPriceFilter() {
		price, ok := p.PriceValue()
		if !ok || !sel.MatchesPrice(price) {
			return false
		}
	}
	return true
}
