package domain

import "errors"

var (
	// ErrInvalidRequest signals a malformed search request (query, top_k, sort_by).
	ErrInvalidRequest = errors.New("invalid request")
	// ErrInvalidFilter signals an unknown facet name or an unparseable facet value.
	ErrInvalidFilter = errors.New("invalid filter")
	// ErrProductNotFound signals a missing catalog record.
	ErrProductNotFound = errors.New("product not found")
	// ErrCatalogNotFound signals a missing catalog source file.
	ErrCatalogNotFound = errors.New("catalog source not found")

	// ErrEmbeddingProviderError signals an embedding oracle failure.
	ErrEmbeddingProviderError = errors.New("embedding provider error")
	// ErrIndexSearchFailed signals an ANN index oracle failure.
	ErrIndexSearchFailed = errors.New("vector index search failed")
	// ErrEntityRecognitionFailed signals an NER oracle failure.
	ErrEntityRecognitionFailed = errors.New("entity recognition failed")
	// ErrRerankerFailed signals a pairwise scorer failure.
	ErrRerankerFailed = errors.New("reranker failed")

	// ErrSearchTimeout signals that the per-request deadline expired.
	ErrSearchTimeout = errors.New("search timed out")
	// ErrNotReady signals that no catalog/index snapshot has been loaded yet.
	ErrNotReady = errors.New("search service not ready")
)
