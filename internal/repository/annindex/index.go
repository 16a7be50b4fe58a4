// Package annindex serves the vector index oracle from a Redis/Valkey FT index over
// product hashes keyed "{prefix}{product_id}".
package annindex

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"

	"github.com/kailas-cloud/prodsearch/internal/db"
	"github.com/kailas-cloud/prodsearch/internal/domain"
)

// Compile-time check: Index implements domain.VectorIndex.
var _ domain.VectorIndex = (*Index)(nil)

// store is the consumer interface for KNN search (ISP).
type store interface {
	SearchKNN(ctx context.Context, q *db.KNNQuery) (*db.SearchResult, error)
	SearchCount(ctx context.Context, index, query string) (int, error)
}

// Config names the FT index and the key layout of its documents.
type Config struct {
	IndexName  string
	KeyPrefix  string
	Dimensions int
}

// Source opens Index snapshots; it implements snapshot.IndexSource.
type Source struct {
	store store
	cfg   Config
}

// NewSource creates an index source over s.
func NewSource(s store, cfg Config) *Source {
	return &Source{store: s, cfg: cfg}
}

// Open counts the indexed documents and returns an index bound to that size.
func (src *Source) Open(ctx context.Context) (domain.VectorIndex, error) {
	if src.cfg.IndexName == "" {
		return nil, errors.New("index name is required")
	}
	if src.cfg.Dimensions <= 0 {
		return nil, fmt.Errorf("dimensions must be positive, got %d", src.cfg.Dimensions)
	}
	n, err := src.store.SearchCount(ctx, src.cfg.IndexName, "*")
	if err != nil {
		return nil, fmt.Errorf("count %s: %w", src.cfg.IndexName, err)
	}
	return &Index{store: src.store, cfg: src.cfg, size: n}, nil
}

// Index is a read-only view of the FT vector index. Labels are the integer
// product ids encoded in the document keys.
type Index struct {
	store store
	cfg   Config
	size  int
}

// Search returns k neighbors by ascending L2 distance, padded with
// domain.NoMatchLabel. Documents whose key does not carry an integer id are skipped.
func (x *Index) Search(ctx context.Context, vector []float32, k int) ([]domain.Neighbor, error) {
	if k <= 0 {
		return nil, fmt.Errorf("k must be positive, got %d", k)
	}
	sr, err := x.store.SearchKNN(ctx, &db.KNNQuery{
		IndexName:    x.cfg.IndexName,
		Vector:       vector,
		K:            k,
		ReturnFields: []string{"__vector_score"},
	})
	if err != nil {
		return nil, fmt.Errorf("search knn %s: %w", x.cfg.IndexName, err)
	}

	out := make([]domain.Neighbor, 0, k)
	for _, e := range sr.Entries {
		label, ok := x.label(e.Key)
		if !ok {
			continue
		}
		out = append(out, domain.Neighbor{Label: label, Distance: float32(e.Score)})
		if len(out) == k {
			break
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Distance < out[j].Distance })

	for len(out) < k {
		out = append(out, domain.Neighbor{Label: domain.NoMatchLabel, Distance: float32(math.MaxFloat32)})
	}
	return out, nil
}

func (x *Index) label(key string) (int64, bool) {
	id, ok := strings.CutPrefix(key, x.cfg.KeyPrefix)
	if !ok {
		return 0, false
	}
	label, err := strconv.ParseInt(id, 10, 64)
	if err != nil || label < 0 {
		return 0, false
	}
	return label, true
}

// ProductID maps a label to the decimal product id.
func (x *Index) ProductID(label int64) (string, bool) {
	if label < 0 {
		return "", false
	}
	return strconv.FormatInt(label, 10), true
}

// Dimensions returns the configured vector dimension.
func (x *Index) Dimensions() int { return x.cfg.Dimensions }

// Size returns the document count observed when the index was opened.
func (x *Index) Size() int { return x.size }
