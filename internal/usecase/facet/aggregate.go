// Package facet computes brand and price facets over a candidate set.
package facet

import (
	"sort"

	"github.com/kailas-cloud/prodsearch/internal/domain/product"
	domfacet "github.com/kailas-cloud/prodsearch/internal/domain/search/facet"
)

// Aggregate returns the Brand and Price facets of products, in that order.
// An empty candidate set yields no facets at all.
func Aggregate(products []product.Product) []domfacet.Facet {
	if len(products) == 0 {
		return []domfacet.Facet{}
	}
	return []domfacet.Facet{brandFacet(products), priceFacet(products)}
}

// brandFacet keeps the MaxBrandBuckets most frequent brands. Equal counts keep
// first-encountered order.
func brandFacet(products []product.Product) domfacet.Facet {
	counts := make(map[string]int)
	var order []string
	for _, p := range products {
		b, ok := p.BrandValue()
		if !ok {
			continue
		}
		if _, seen := counts[b]; !seen {
			order = append(order, b)
		}
		counts[b]++
	}

	sort.SliceStable(order, func(i, j int) bool { return counts[order[i]] > counts[order[j]] })
	if len(order) > domfacet.MaxBrandBuckets {
		order = order[:domfacet.MaxBrandBuckets]
	}

	buckets := make([]domfacet.Bucket, len(order))
	for i, b := range order {
		buckets[i] = domfacet.Bucket{Value: b, Count: counts[b]}
	}
	return domfacet.Facet{Name: domfacet.NameBrand, Buckets: buckets}
}

// priceFacet counts priced products per fixed band and drops empty bands.
func priceFacet(products []product.Product) domfacet.Facet {
	counts := make([]int, len(domfacet.PriceBands))
	for _, p := range products {
		price, ok := p.PriceValue()
		if !ok {
			continue
		}
		for i, band := range domfacet.PriceBands {
			if band.Contains(price) {
				counts[i]++
				break
			}
		}
	}

	buckets := make([]domfacet.Bucket, 0, len(counts))
	for i, band := range domfacet.PriceBands {
		if counts[i] > 0 {
			buckets = append(buckets, domfacet.Bucket{Value: band.Label(), Count: counts[i]})
		}
	}
	return domfacet.Facet{Name: domfacet.NamePrice, Buckets: buckets}
}
