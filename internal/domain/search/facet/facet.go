package facet

import (
	"math"
	"strconv"
)

// Facet names exposed to clients. Filter selections are keyed by the same names.
const (
	NameBrand = "Brand"
	NamePrice = "Price"
)

// MaxBrandBuckets is the number of brand buckets kept, highest count first.
const MaxBrandBuckets = 10

// Bucket is a single facet value with the number of candidates carrying it.
type Bucket struct {
	Value string `json:"value"`
	Count int    `json:"count"`
}

// Facet is a named, ordered list of buckets.
type Facet struct {
	Name    string   `json:"name"`
	Buckets []Bucket `json:"buckets"`
}

// PriceBand is a half-open price interval [Min, Max). Max is +Inf for the open band.
type PriceBand struct {
	Min float64
	Max float64
}

// PriceBands are the fixed, disjoint price facet ranges in display order.
var PriceBands = []PriceBand{
	{Min: 0, Max: 50},
	{Min: 50, Max: 100},
	{Min: 100, Max: 250},
	{Min: 250, Max: math.Inf(1)},
}

// Contains reports whether price falls in [Min, Max).
func (b PriceBand) Contains(price float64) bool {
	return price >= b.Min && price < b.Max
}

// Label renders the band as "min-max", or "min-+" for the open band.
// Filter selections parse the same form.
func (b PriceBand) Label() string {
	lo := strconv.FormatFloat(b.Min, 'f', -1, 64)
	if math.IsInf(b.Max, 1) {
		return lo + "-+"
	}
	return lo + "-" + strconv.FormatFloat(b.Max, 'f', -1, 64)
}
