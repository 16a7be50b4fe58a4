// Package understand extracts structured constraints and a rewritten search text from a raw query.
package understand

import (
	"context"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/kailas-cloud/prodsearch/internal/domain"
	"github.com/kailas-cloud/prodsearch/internal/domain/query"
)

var priceMaxPattern = regexp.MustCompile(`(?i)(under|less than|below)\s*\$?(\d+\.?\d*)`)

// Service turns a query into an Understanding using a price pattern and an NER oracle.
type Service struct {
	ner EntityRecognizer
}

// New creates an understanding service.
func New(ner EntityRecognizer) *Service {
	return &Service{ner: ner}
}

// span is a half-open range of rune offsets.
type span struct{ start, end int }

// Understand parses price constraints and entities out of q. Tokens whose midpoint
// falls inside an extracted span are consumed; the rest are kept for the rewrite.
func (s *Service) Understand(ctx context.Context, q string) (query.Understanding, error) {
	if strings.TrimSpace(q) == "" {
		return query.Understanding{}, nil
	}

	var (
		filters   query.Filters
		fragments []string
		consumed  = make(map[int]struct{})
	)

	if m := priceMaxPattern.FindStringSubmatchIndex(q); m != nil {
		v, err := strconv.ParseFloat(q[m[4]:m[5]], 64)
		if err == nil {
			filters.PriceMax = &v
			markConsumed(consumed, span{runeOffset(q, m[0]), runeOffset(q, m[1])})
		}
	}

	entities, err := s.ner.Recognize(ctx, q)
	if err != nil {
		return query.Understanding{}, fmt.Errorf("%w: %w", domain.ErrEntityRecognitionFailed, err)
	}
	for _, e := range entities {
		switch e.Group {
		case domain.EntityOrganization:
			filters.Brand = append(filters.Brand, e.Word)
		case domain.EntityMiscellaneous:
			fragments = append(fragments, e.Word)
		}
		markConsumed(consumed, span{e.Start, e.End})
	}

	parts := fragments
	for _, tok := range tokenize(q) {
		if _, ok := consumed[(tok.start+tok.end)/2]; !ok {
			parts = append(parts, tok.text)
		}
	}

	return query.Understanding{
		Rewritten: strings.TrimSpace(strings.Join(dedupe(parts), " ")),
		Filters:   filters,
	}, nil
}

func markConsumed(consumed map[int]struct{}, sp span) {
	for i := sp.start; i < sp.end; i++ {
		consumed[i] = struct{}{}
	}
}

// runeOffset converts a byte index into q to a rune offset.
func runeOffset(q string, byteIdx int) int {
	return utf8.RuneCountInString(q[:byteIdx])
}

type token struct {
	text       string
	start, end int
}

// tokenize splits on whitespace and records each token's rune span.
func tokenize(q string) []token {
	var (
		out   []token
		start = -1
		pos   int
		buf   strings.Builder
	)
	for _, r := range q {
		if unicode.IsSpace(r) {
			if start >= 0 {
				out = append(out, token{text: buf.String(), start: start, end: pos})
				buf.Reset()
				start = -1
			}
		} else {
			if start < 0 {
				start = pos
			}
			buf.WriteRune(r)
		}
		pos++
	}
	if start >= 0 {
		out = append(out, token{text: buf.String(), start: start, end: pos})
	}
	return out
}

// dedupe keeps the first occurrence of every part.
func dedupe(parts []string) []string {
	seen := make(map[string]struct{}, len(parts))
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if _, ok := seen[p]; ok {
			continue
		}
		seen[p] = struct{}{}
		out = append(out, p)
	}
	return out
}
