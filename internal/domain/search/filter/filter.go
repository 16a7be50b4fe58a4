package filter

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/kailas-cloud/prodsearch/internal/domain/search/facet"
)

// MaxValuesPerFacet is the maximum number of selected values per facet.
const MaxValuesPerFacet = 32

// openBound is the max component of an open-ended price label such as "250-+".
const openBound = "+"

// Selection is the validated set of facet values chosen by the caller.
// Values within a facet are OR-ed, facets are AND-ed.
type Selection struct {
	brands   []string
	brandSet map[string]struct{}
	prices   []PriceRange
}

// NewSelection validates raw facet selections keyed by facet name.
// Empty value lists are ignored; unknown facet names are rejected.
func NewSelection(raw map[string][]string) (Selection, error) {
	var s Selection
	for name, values := range raw {
		if len(values) == 0 {
			continue
		}
		if len(values) > MaxValuesPerFacet {
			return Selection{}, fmt.Errorf("too many %s values (max %d)", name, MaxValuesPerFacet)
		}
		switch name {
		case facet.NameBrand:
			s.brands = append([]string(nil), values...)
			s.brandSet = make(map[string]struct{}, len(values))
			for _, b := range values {
				s.brandSet[b] = struct{}{}
			}
		case facet.NamePrice:
			s.prices = make([]PriceRange, 0, len(values))
			for _, label := range values {
				r, err := ParsePriceRange(label)
				if err != nil {
					return Selection{}, err
				}
				s.prices = append(s.prices, r)
			}
		default:
			return Selection{}, fmt.Errorf("unknown filter facet %q", name)
		}
	}
	return s, nil
}

// IsEmpty reports whether the selection narrows nothing.
func (s Selection) IsEmpty() bool {
	return len(s.brands) == 0 && len(s.prices) == 0
}

// Brands returns the selected brands in request order.
func (s Selection) Brands() []string { return s.brands }

// Prices returns the selected price ranges in request order.
func (s Selection) Prices() []PriceRange { return s.prices }

// HasBrandFilter reports whether a brand selection is active.
func (s Selection) HasBrandFilter() bool { return len(s.brands) > 0 }

// HasPriceFilter reports whether a price selection is active.
func (s Selection) HasPriceFilter() bool { return len(s.prices) > 0 }

// MatchesBrand reports whether brand is one of the selected brands (exact match).
func (s Selection) MatchesBrand(brand string) bool {
	_, ok := s.brandSet[brand]
	return ok
}

// MatchesPrice reports whether price falls in any selected range.
func (s Selection) MatchesPrice(price float64) bool {
	for _, r := range s.prices {
		if r.Contains(price) {
			return true
		}
	}
	return false
}

// PriceRange is a half-open interval [min, max); max is +Inf when open-ended.
type PriceRange struct {
	min float64
	max float64
}

// NewPriceRange validates and creates a PriceRange.
func NewPriceRange(lo, hi float64) (PriceRange, error) {
	if math.IsNaN(lo) || math.IsInf(lo, 0) || math.IsNaN(hi) {
		return PriceRange{}, errors.New("price bounds must be finite numbers")
	}
	if lo < 0 {
		return PriceRange{}, fmt.Errorf("price min must be non-negative, got %g", lo)
	}
	if hi <= lo {
		return PriceRange{}, fmt.Errorf("price max must be greater than min, got %g-%g", lo, hi)
	}
	return PriceRange{min: lo, max: hi}, nil
}

// ParsePriceRange parses a price facet label of the form "min-max" or "min-+".
func ParsePriceRange(label string) (PriceRange, error) {
	loStr, hiStr, ok := strings.Cut(label, "-")
	if !ok || loStr == "" || hiStr == "" {
		return PriceRange{}, fmt.Errorf("malformed price range %q: want \"min-max\" or \"min-+\"", label)
	}
	lo, err := strconv.ParseFloat(loStr, 64)
	if err != nil {
		return PriceRange{}, fmt.Errorf("malformed price range %q: bad min: %w", label, err)
	}
	hi := math.Inf(1)
	if hiStr != openBound {
		hi, err = strconv.ParseFloat(hiStr, 64)
		if err != nil {
			return PriceRange{}, fmt.Errorf("malformed price range %q: bad max: %w", label, err)
		}
		if math.IsInf(hi, 0) {
			return PriceRange{}, fmt.Errorf("malformed price range %q: use \"+\" for an open max", label)
		}
	}
	r, err := NewPriceRange(lo, hi)
	if err != nil {
		return PriceRange{}, fmt.Errorf("malformed price range %q: %w", label, err)
	}
	return r, nil
}

// Min returns the inclusive lower bound.
func (r PriceRange) Min() float64 { return r.min }

// Max returns the exclusive upper bound (+Inf when open-ended).
func (r PriceRange) Max() float64 { return r.max }

// Contains reports whether min <= price < max.
func (r PriceRange) Contains(price float64) bool {
	return price >= r.min && price < r.max
}
