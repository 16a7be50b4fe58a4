package search

import (
	"context"

	"github.com/kailas-cloud/prodsearch/internal/domain"
	"github.com/kailas-cloud/prodsearch/internal/domain/product"
	"github.com/kailas-cloud/prodsearch/internal/domain/query"
	"github.com/kailas-cloud/prodsearch/internal/domain/search/result"
	"github.com/kailas-cloud/prodsearch/internal/snapshot"
	"github.com/kailas-cloud/prodsearch/internal/usecase/retrieve"
)

// Snapshots publishes the live (catalog, index) pair.
type Snapshots interface {
	Load() (*snapshot.Snapshot, bool)
}

// Understander extracts a rewritten query and filters from raw user text.
type Understander interface {
	Understand(ctx context.Context, q string) (query.Understanding, error)
}

// Retriever returns catalog products nearest to text, in ascending distance order.
type Retriever interface {
	Retrieve(ctx context.Context, index domain.VectorIndex, catalog retrieve.Catalog, text string) ([]product.Product, error)
}

// Reranker scores products against text and orders them by descending score.
type Reranker interface {
	Rerank(ctx context.Context, text string, products []product.Product) ([]result.Hit, error)
}
