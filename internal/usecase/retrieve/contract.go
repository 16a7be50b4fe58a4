package retrieve

import (
	"context"

	"github.com/kailas-cloud/prodsearch/internal/domain"
	"github.com/kailas-cloud/prodsearch/internal/domain/product"
)

// Embedder vectorizes the search text.
type Embedder interface {
	Embed(ctx context.Context, text string) (domain.EmbeddingResult, error)
}

// Catalog resolves product ids to records.
type Catalog interface {
	Get(id string) (product.Product, bool)
}
