package embcache

import (
	"context"
	"errors"
	"testing"

	"github.com/kailas-cloud/prodsearch/internal/domain"
)

func TestMemoryEmbedder_HitAfterMiss(t *testing.T) {
	inner := &mockEmbedder{result: domain.EmbeddingResult{Embedding: []float32{0.1, 0.2}, TotalTokens: 4}}
	m, err := NewMemory(inner, 2, nil)
	if err != nil {
		t.Fatalf("NewMemory: %v", err)
	}

	first, err := m.Embed(context.Background(), "shoes")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if first.TotalTokens != 4 {
		t.Errorf("expected tokens from inner on miss, got %d", first.TotalTokens)
	}

	second, err := m.Embed(context.Background(), "shoes")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if inner.calls != 1 {
		t.Errorf("expected 1 inner call, got %d", inner.calls)
	}
	if second.TotalTokens != 0 || second.Embedding[1] != 0.2 {
		t.Errorf("unexpected cached result: %+v", second)
	}
}

func TestMemoryEmbedder_ReturnsCopies(t *testing.T) {
	inner := &mockEmbedder{result: domain.EmbeddingResult{Embedding: []float32{1, 2}}}
	m, _ := NewMemory(inner, 4, nil)

	_, _ = m.Embed(context.Background(), "q")
	hit, _ := m.Embed(context.Background(), "q")
	hit.Embedding[0] = 99

	again, _ := m.Embed(context.Background(), "q")
	if again.Embedding[0] != 1 {
		t.Errorf("cached vector was mutated through a returned slice: %v", again.Embedding)
	}
}

func TestMemoryEmbedder_Evicts(t *testing.T) {
	inner := &mockEmbedder{result: domain.EmbeddingResult{Embedding: []float32{1}}}
	m, _ := NewMemory(inner, 2, nil)
	for _, q := range []string{"a", "b", "c"} {
		_, _ = m.Embed(context.Background(), q)
	}
	if m.Len() != 2 {
		t.Errorf("expected 2 cached entries, got %d", m.Len())
	}
}

func TestMemoryEmbedder_DoesNotCacheErrors(t *testing.T) {
	inner := &mockEmbedder{err: errors.New("down")}
	m, _ := NewMemory(inner, 2, nil)
	if _, err := m.Embed(context.Background(), "q"); err == nil {
		t.Fatal("expected error")
	}
	if m.Len() != 0 {
		t.Errorf("errors must not be cached, got %d entries", m.Len())
	}
}

func TestNewMemory_DefaultSize(t *testing.T) {
	if _, err := NewMemory(&mockEmbedder{}, 0, nil); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}
