package domain

import (
	"context"
	"fmt"
)

// Embedder is the query vectorization oracle shared between layers.
type Embedder interface {
	Embed(ctx context.Context, text string) (EmbeddingResult, error)
}

// HealthChecker verifies provider availability.
type HealthChecker interface {
	HealthCheck(ctx context.Context) error
}

// EmbeddingResult carries the query vector and the provider's token usage.
type EmbeddingResult struct {
	Embedding    []float32
	PromptTokens int
	TotalTokens  int
}

// QueryInstructionEmbedder prefixes every query with a fixed task instruction,
// as instruction-tuned embedding models expect on the query side only.
type QueryInstructionEmbedder struct {
	inner       Embedder
	instruction string
}

// WithQueryInstruction wraps inner with an instruction prefix. An empty
// instruction returns inner unchanged.
func WithQueryInstruction(inner Embedder, instruction string) Embedder {
	if instruction == "" {
		return inner
	}
	return &QueryInstructionEmbedder{inner: inner, instruction: instruction}
}

// Embed prepends the instruction and delegates.
func (e *QueryInstructionEmbedder) Embed(ctx context.Context, text string) (EmbeddingResult, error) {
	result, err := e.inner.Embed(ctx, e.instruction+text)
	if err != nil {
		return EmbeddingResult{}, fmt.Errorf("query instruction: %w", err)
	}
	return result, nil
}
