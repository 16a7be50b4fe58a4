package domain

import "context"

// NoMatchLabel is returned by a VectorIndex in place of a label when the index
// holds fewer than k entries.
const NoMatchLabel int64 = -1

// Neighbor is a single ANN hit: an integer label and its L2 distance to the query.
type Neighbor struct {
	Label    int64
	Distance float32
}

// VectorIndex is the ANN oracle. Search returns exactly k neighbors ordered by
// ascending distance, padding with NoMatchLabel when the index is smaller than k.
type VectorIndex interface {
	Search(ctx context.Context, vector []float32, k int) ([]Neighbor, error)
	// ProductID resolves a label through the index's own id map.
	ProductID(label int64) (string, bool)
	Dimensions() int
	Size() int
}

// Entity is a character-offset span tagged by the NER oracle. End is exclusive.
type Entity struct {
	Group string  `json:"entity_group"`
	Word  string  `json:"word"`
	Start int     `json:"start"`
	End   int     `json:"end"`
	Score float64 `json:"score,omitempty"`
}

// Entity groups consumed by query understanding.
const (
	EntityOrganization  = "ORG"
	EntityMiscellaneous = "MISC"
)
