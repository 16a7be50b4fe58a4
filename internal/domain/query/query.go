package query

// Filters are the structured constraints extracted from raw query text.
type Filters struct {
	Brand    []string `json:"brand,omitempty"`
	PriceMax *float64 `json:"price_max,omitempty"`
}

// IsEmpty reports whether no constraint was extracted.
func (f Filters) IsEmpty() bool {
	return len(f.Brand) == 0 && f.PriceMax == nil
}

// Understanding is the output of query understanding: a cleaned search string
// plus the constraints recognized in the original text.
type Understanding struct {
	Rewritten string  `json:"rewritten"`
	Filters   Filters `json:"filters"`
}

// Passthrough is the understanding used when rewriting is disabled.
func Passthrough(q string) Understanding {
	return Understanding{Rewritten: q}
}

// SearchText returns the text used for retrieval and reranking: the rewritten
// query, or the original when rewriting consumed every token.
func (u Understanding) SearchText(original string) string {
	if u.Rewritten == "" {
		return original
	}
	return u.Rewritten
}
