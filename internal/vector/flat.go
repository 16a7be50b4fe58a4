// Package vector provides an exact, in-memory L2 vector index with an integer id map.
package vector

import (
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"
	"sort"
	"strconv"

	"github.com/kailas-cloud/prodsearch/internal/domain"
)

// Compile-time check: FlatIndex implements domain.VectorIndex.
var _ domain.VectorIndex = (*FlatIndex)(nil)

// FlatIndex is a brute-force index ranked by squared Euclidean distance.
// Entries are added only while building; once published it is read-only and safe
// for concurrent searches.
type FlatIndex struct {
	dimensions int
	labels     []int64
	vectors    [][]float32
	known      map[int64]struct{}
}

// NewFlatIndex creates an empty index with the given dimension.
func NewFlatIndex(dimensions int) (*FlatIndex, error) {
	if dimensions <= 0 {
		return nil, errors.New("dimensions must be positive")
	}
	return &FlatIndex{
		dimensions: dimensions,
		known:      make(map[int64]struct{}),
	}, nil
}

// Add appends vectors under the given integer labels. Not safe for use once the
// index is shared with searches.
func (x *FlatIndex) Add(labels []int64, vectors [][]float32) error {
	if len(labels) != len(vectors) {
		return fmt.Errorf("labels and vectors length mismatch: %d != %d", len(labels), len(vectors))
	}
	for i, label := range labels {
		if label < 0 {
			return fmt.Errorf("label must be non-negative, got %d", label)
		}
		if len(vectors[i]) != x.dimensions {
			return fmt.Errorf("vector dimension mismatch: got %d, expected %d", len(vectors[i]), x.dimensions)
		}
		vec := make([]float32, x.dimensions)
		copy(vec, vectors[i])
		x.labels = append(x.labels, label)
		x.vectors = append(x.vectors, vec)
		x.known[label] = struct{}{}
	}
	return nil
}

// Search returns exactly k neighbors by ascending squared L2 distance. When the
// index holds fewer than k vectors the tail is padded with domain.NoMatchLabel.
func (x *FlatIndex) Search(ctx context.Context, query []float32, k int) ([]domain.Neighbor, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("flat search: %w", err)
	}
	if len(query) != x.dimensions {
		return nil, fmt.Errorf("query dimension mismatch: got %d, expected %d", len(query), x.dimensions)
	}
	if k <= 0 {
		return nil, fmt.Errorf("k must be positive, got %d", k)
	}

	scored := make([]domain.Neighbor, len(x.vectors))
	for i, vec := range x.vectors {
		var sum float64
		for j := range vec {
			d := float64(query[j] - vec[j])
			sum += d * d
		}
		scored[i] = domain.Neighbor{Label: x.labels[i], Distance: float32(sum)}
	}
	sort.SliceStable(scored, func(i, j int) bool { return scored[i].Distance < scored[j].Distance })

	out := make([]domain.Neighbor, k)
	n := copy(out, scored)
	for i := n; i < k; i++ {
		out[i] = domain.Neighbor{Label: domain.NoMatchLabel, Distance: float32(math.MaxFloat32)}
	}
	return out, nil
}

// ProductID maps a label to its product id: the decimal form of the label.
func (x *FlatIndex) ProductID(label int64) (string, bool) {
	if _, ok := x.known[label]; !ok {
		return "", false
	}
	return strconv.FormatInt(label, 10), true
}

// Dimensions returns the vector dimension.
func (x *FlatIndex) Dimensions() int { return x.dimensions }

// Size returns the number of indexed vectors.
func (x *FlatIndex) Size() int { return len(x.labels) }

// Save persists the index. Format (little endian): dimension uint32, count uint32,
// then per entry: label int64, dimension float32 values.
func (x *FlatIndex) Save(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create index dir: %w", err)
	}
	f, err := os.Create(filepath.Clean(path))
	if err != nil {
		return fmt.Errorf("create index file: %w", err)
	}
	defer f.Close()
	if err := x.write(f); err != nil {
		return err
	}
	if err := f.Sync(); err != nil {
		return fmt.Errorf("sync index file: %w", err)
	}
	return nil
}

func (x *FlatIndex) write(w io.Writer) error {
	if err := binary.Write(w, binary.LittleEndian, uint32(x.dimensions)); err != nil {
		return fmt.Errorf("write dimensions: %w", err)
	}
	if err := binary.Write(w, binary.LittleEndian, uint32(len(x.labels))); err != nil {
		return fmt.Errorf("write count: %w", err)
	}
	for i, label := range x.labels {
		if err := binary.Write(w, binary.LittleEndian, label); err != nil {
			return fmt.Errorf("write label: %w", err)
		}
		if err := binary.Write(w, binary.LittleEndian, x.vectors[i]); err != nil {
			return fmt.Errorf("write vector: %w", err)
		}
	}
	return nil
}

// Load reads an index written by Save. When expectDim is positive the file's
// dimension must match it.
func Load(path string, expectDim int) (*FlatIndex, error) {
	f, err := os.Open(filepath.Clean(path))
	if err != nil {
		return nil, fmt.Errorf("open index file: %w", err)
	}
	defer f.Close()
	x, err := read(f, expectDim)
	if err != nil {
		return nil, fmt.Errorf("read index %s: %w", path, err)
	}
	return x, nil
}

func read(r io.Reader, expectDim int) (*FlatIndex, error) {
	var dim, n uint32
	if err := binary.Read(r, binary.LittleEndian, &dim); err != nil {
		return nil, fmt.Errorf("read dimensions: %w", err)
	}
	if expectDim > 0 && int(dim) != expectDim {
		return nil, fmt.Errorf("dimension mismatch: file has %d, expected %d", dim, expectDim)
	}
	if err := binary.Read(r, binary.LittleEndian, &n); err != nil {
		return nil, fmt.Errorf("read count: %w", err)
	}
	x, err := NewFlatIndex(int(dim))
	if err != nil {
		return nil, err
	}
	x.labels = make([]int64, 0, n)
	x.vectors = make([][]float32, 0, n)
	for i := uint32(0); i < n; i++ {
		var label int64
		if err := binary.Read(r, binary.LittleEndian, &label); err != nil {
			return nil, fmt.Errorf("read label %d: %w", i, err)
		}
		vec := make([]float32, dim)
		if err := binary.Read(r, binary.LittleEndian, vec); err != nil {
			return nil, fmt.Errorf("read vector %d: %w", i, err)
		}
		if err := x.Add([]int64{label}, [][]float32{vec}); err != nil {
			return nil, fmt.Errorf("entry %d: %w", i, err)
		}
	}
	return x, nil
}
