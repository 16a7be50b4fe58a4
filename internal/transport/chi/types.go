package chi

// ErrorResponseCode is the machine-readable error code returned to clients.
type ErrorResponseCode string

// Error codes.
const (
	ErrorResponseCodeBadRequest             ErrorResponseCode = "bad_request"
	ErrorResponseCodeValidationFailed       ErrorResponseCode = "validation_failed"
	ErrorResponseCodeUnauthorized           ErrorResponseCode = "unauthorized"
	ErrorResponseCodeProductNotFound        ErrorResponseCode = "product_not_found"
	ErrorResponseCodeEmbeddingProviderError ErrorResponseCode = "embedding_provider_error"
	ErrorResponseCodeIndexError             ErrorResponseCode = "index_error"
	ErrorResponseCodeNERError               ErrorResponseCode = "ner_error"
	ErrorResponseCodeRerankerError          ErrorResponseCode = "reranker_error"
	ErrorResponseCodeNotReady               ErrorResponseCode = "not_ready"
	ErrorResponseCodeTimeout                ErrorResponseCode = "timeout"
	ErrorResponseCodeInternalError          ErrorResponseCode = "internal_error"
)

// ErrorResponse is the JSON error envelope.
type ErrorResponse struct {
	Code    ErrorResponseCode `json:"code"`
	Message string            `json:"message"`
}

// SearchRequest is the POST /api/v1/search body.
type SearchRequest struct {
	Query     string              `json:"query"`
	TopK      *int                `json:"top_k,omitempty"`
	RewriteOn *bool               `json:"rewrite_on,omitempty"`
	RerankOn  *bool               `json:"rerank_on,omitempty"`
	Filters   map[string][]string `json:"filters,omitempty"`
	SortBy    *string             `json:"sort_by,omitempty"`
}

// SearchProductsParams are the GET /api/v1/search query parameters.
type SearchProductsParams struct {
	Query     string    `form:"query" json:"query"`
	TopK      *int      `form:"top_k,omitempty" json:"top_k,omitempty"`
	RewriteOn *bool     `form:"rewrite_on,omitempty" json:"rewrite_on,omitempty"`
	RerankOn  *bool     `form:"rerank_on,omitempty" json:"rerank_on,omitempty"`
	SortBy    *string   `form:"sort_by,omitempty" json:"sort_by,omitempty"`
	Brand     *[]string `form:"brand,omitempty" json:"brand,omitempty"`
	Price     *[]string `form:"price,omitempty" json:"price,omitempty"`
}

// Product is a catalog record, optionally scored by the reranker.
type Product struct {
	ProductID   string   `json:"product_id"`
	Title       string   `json:"title"`
	Brand       *string  `json:"brand"`
	Price       *float64 `json:"price"`
	Rating      *float64 `json:"rating"`
	ImageURL    *string  `json:"image_url"`
	Description *string  `json:"description"`
	Score       *float64 `json:"score"`
}

// RewrittenFilters are the filters extracted by query understanding.
type RewrittenFilters struct {
	Brand    []string `json:"brand,omitempty"`
	PriceMax *float64 `json:"price_max,omitempty"`
}

// RewrittenQuery is the query understanding outcome.
type RewrittenQuery struct {
	Rewritten string           `json:"rewritten"`
	Filters   RewrittenFilters `json:"filters"`
}

// FacetBucket is one facet value and its candidate count.
type FacetBucket struct {
	Value string `json:"value"`
	Count int    `json:"count"`
}

// Facet is a named list of buckets.
type Facet struct {
	Name    string        `json:"name"`
	Buckets []FacetBucket `json:"buckets"`
}

// SearchResponse is the search result envelope.
type SearchResponse struct {
	OriginalQuery  string          `json:"original_query"`
	RewrittenQuery *RewrittenQuery `json:"rewritten_query"`
	Results        []Product       `json:"results"`
	Facets         []Facet         `json:"facets"`
	SearchTime     float64         `json:"search_time"`
}

// HealthResponse is the GET /health body.
type HealthResponse struct {
	Status   string            `json:"status"`
	Checks   map[string]string `json:"checks"`
	Products int               `json:"products"`
}
