package embcache

import (
	"context"
	"fmt"

	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/kailas-cloud/prodsearch/internal/domain"
)

// DefaultMemorySize is the LRU capacity used when none is configured.
const DefaultMemorySize = 10000

// MemoryEmbedder keeps recently embedded search texts in a process-local LRU.
type MemoryEmbedder struct {
	inner      domain.Embedder
	cache      *lru.Cache[string, []float32]
	cacheTotal *prometheus.CounterVec
}

// NewMemory creates an LRU caching decorator. size <= 0 selects DefaultMemorySize.
func NewMemory(inner domain.Embedder, size int, cacheTotal *prometheus.CounterVec) (*MemoryEmbedder, error) {
	if size <= 0 {
		size = DefaultMemorySize
	}
	cache, err := lru.New[string, []float32](size)
	if err != nil {
		return nil, fmt.Errorf("create lru cache: %w", err)
	}
	return &MemoryEmbedder{inner: inner, cache: cache, cacheTotal: cacheTotal}, nil
}

// Embed returns a copy of the cached vector or delegates to inner.
func (m *MemoryEmbedder) Embed(ctx context.Context, text string) (domain.EmbeddingResult, error) {
	if vec, ok := m.cache.Get(text); ok {
		incCache(m.cacheTotal, layerMemory, "hit")
		return domain.EmbeddingResult{Embedding: copyVector(vec)}, nil
	}
	incCache(m.cacheTotal, layerMemory, "miss")

	result, err := m.inner.Embed(ctx, text)
	if err != nil {
		return domain.EmbeddingResult{}, fmt.Errorf("embed text: %w", err)
	}
	m.cache.Add(text, copyVector(result.Embedding))
	return result, nil
}

// Len returns the number of cached vectors.
func (m *MemoryEmbedder) Len() int { return m.cache.Len() }

func copyVector(v []float32) []float32 {
	out := make([]float32, len(v))
	copy(out, v)
	return out
}
