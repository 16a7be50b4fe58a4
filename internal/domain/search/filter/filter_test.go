package filter

import (
	"math"
	"testing"
)

func TestParsePriceRange_Valid(t *testing.T) {
	tests := []struct {
		label  string
		lo, hi float64
	}{
		{"0-50", 0, 50},
		{"50-100", 50, 100},
		{"100-250", 100, 250},
		{"250-+", 250, math.Inf(1)},
		{"12.5-19.99", 12.5, 19.99},
	}
	for _, tc := range tests {
		t.Run(tc.label, func(t *testing.T) {
			r, err := ParsePriceRange(tc.label)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if r.Min() != tc.lo || r.Max() != tc.hi {
				t.Errorf("got [%g, %g), want [%g, %g)", r.Min(), r.Max(), tc.lo, tc.hi)
			}
		})
	}
}

func TestParsePriceRange_Malformed(t *testing.T) {
	labels := []string{"", "50", "250+", "-50", "a-b", "10-x", "50-50", "100-50", "10-", "10-Inf", "NaN-10"}
	for _, label := range labels {
		t.Run(label, func(t *testing.T) {
			if _, err := ParsePriceRange(label); err == nil {
				t.Errorf("expected error for %q", label)
			}
		})
	}
}

func TestPriceRange_OpenEndedBoundary(t *testing.T) {
	r, err := ParsePriceRange("250-+")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if r.Contains(249.99) {
		t.Error("249.99 must be excluded from 250-+")
	}
	if !r.Contains(250) {
		t.Error("250 must be included in 250-+")
	}
	if !r.Contains(1e6) {
		t.Error("1e6 must be included in 250-+")
	}
}

func TestPriceRange_HalfOpen(t *testing.T) {
	r, _ := ParsePriceRange("50-100")
	if !r.Contains(50) {
		t.Error("min must be inclusive")
	}
	if r.Contains(100) {
		t.Error("max must be exclusive")
	}
}

func TestNewSelection(t *testing.T) {
	s, err := NewSelection(map[string][]string{
		"Brand": {"nike", "adidas"},
		"Price": {"0-50", "250-+"},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if s.IsEmpty() {
		t.Fatal("selection reported empty")
	}
	if !s.MatchesBrand("nike") || s.MatchesBrand("Nike") {
		t.Error("brand matching must be exact")
	}
	if !s.MatchesPrice(10) || !s.MatchesPrice(300) || s.MatchesPrice(75) {
		t.Error("price matching must be a union of the selected ranges")
	}
	if len(s.Brands()) != 2 || len(s.Prices()) != 2 {
		t.Errorf("Brands()=%v Prices()=%v", s.Brands(), s.Prices())
	}
}

func TestNewSelection_EmptyValuesIgnored(t *testing.T) {
	s, err := NewSelection(map[string][]string{"Brand": {}, "Price": nil})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !s.IsEmpty() {
		t.Error("expected empty selection")
	}
}

func TestNewSelection_Nil(t *testing.T) {
	s, err := NewSelection(nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !s.IsEmpty() || s.HasBrandFilter() || s.HasPriceFilter() {
		t.Error("nil selection must be empty")
	}
}

func TestNewSelection_Errors(t *testing.T) {
	tooMany := make([]string, MaxValuesPerFacet+1)
	for i := range tooMany {
		tooMany[i] = "b"
	}
	tests := []struct {
		name string
		raw  map[string][]string
	}{
		{"unknown facet", map[string][]string{"Color": {"red"}}},
		{"malformed price", map[string][]string{"Price": {"cheap"}}},
		{"too many values", map[string][]string{"Brand": tooMany}},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := NewSelection(tc.raw); err == nil {
				t.Error("expected error")
			}
		})
	}
}
