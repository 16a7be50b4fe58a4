package mode

// Sort selects the ordering applied to the filtered candidate set.
type Sort string

// Sort mode constants.
const (
	// Relevance keeps retrieval order, or reranker order when reranking is on.
	Relevance Sort = "relevance"
	PriceAsc  Sort = "price_asc"
	PriceDesc Sort = "price_desc"
)

// IsValid checks if the sort mode is one of the supported values.
func (s Sort) IsValid() bool {
	return s == Relevance || s == PriceAsc || s == PriceDesc
}
