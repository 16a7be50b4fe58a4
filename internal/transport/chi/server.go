// Package chi exposes the product search API over HTTP with a go-chi router.
package chi

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/kailas-cloud/prodsearch/internal/domain"
	"github.com/kailas-cloud/prodsearch/internal/domain/product"
	domfacet "github.com/kailas-cloud/prodsearch/internal/domain/search/facet"
	"github.com/kailas-cloud/prodsearch/internal/domain/search/request"
	"github.com/kailas-cloud/prodsearch/internal/domain/search/result"
	"github.com/kailas-cloud/prodsearch/internal/logger"
	healthuc "github.com/kailas-cloud/prodsearch/internal/usecase/health"
)

// maxBodyBytes caps the POST /api/v1/search body.
const maxBodyBytes = 1 << 20

// errorHandler tries to handle a domain error. Returns true if handled.
type errorHandler func(w http.ResponseWriter, err error) bool

// Searcher runs searches and catalog lookups.
type Searcher interface {
	Search(ctx context.Context, req *request.Request) (result.Response, error)
	Product(ctx context.Context, id string) (product.Product, error)
}

// HealthChecker reports component health.
type HealthChecker interface {
	Check(ctx context.Context) healthuc.Report
}

// Server implements ServerInterface.
type Server struct {
	search        Searcher
	health        HealthChecker
	logger        *zap.Logger
	errorHandlers []errorHandler
}

var _ ServerInterface = (*Server)(nil)

// NewServer creates an HTTP API server.
func NewServer(search Searcher, health HealthChecker, logger *zap.Logger) *Server {
	s := &Server{
		search: search,
		health: health,
		logger: logger,
	}
	// Order matters: a timeout wraps the oracle error that was interrupted.
	s.errorHandlers = []errorHandler{
		validationHandler(domain.ErrInvalidRequest),
		validationHandler(domain.ErrInvalidFilter),
		sentinelHandler(domain.ErrSearchTimeout, http.StatusGatewayTimeout, ErrorResponseCodeTimeout),
		sentinelHandler(domain.ErrNotReady, http.StatusServiceUnavailable, ErrorResponseCodeNotReady),
		sentinelHandler(domain.ErrProductNotFound, http.StatusNotFound, ErrorResponseCodeProductNotFound),
		sentinelHandler(domain.ErrEmbeddingProviderError,
			http.StatusBadGateway, ErrorResponseCodeEmbeddingProviderError),
		sentinelHandler(domain.ErrIndexSearchFailed, http.StatusBadGateway, ErrorResponseCodeIndexError),
		sentinelHandler(domain.ErrEntityRecognitionFailed, http.StatusBadGateway, ErrorResponseCodeNERError),
		sentinelHandler(domain.ErrRerankerFailed, http.StatusBadGateway, ErrorResponseCodeRerankerError),
	}
	return s
}

// SearchProducts handles POST /api/v1/search.
func (s *Server) SearchProducts(w http.ResponseWriter, r *http.Request) {
	var body SearchRequest
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err := dec.Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, ErrorResponseCodeBadRequest, "invalid request body")
		return
	}

	s.runSearch(w, r, request.Params{
		Query:     body.Query,
		TopK:      body.TopK,
		RewriteOn: body.RewriteOn,
		RerankOn:  body.RerankOn,
		Filters:   body.Filters,
		SortBy:    deref(body.SortBy),
	})
}

// SearchProductsGet handles GET /api/v1/search.
func (s *Server) SearchProductsGet(w http.ResponseWriter, r *http.Request, params SearchProductsParams) {
	filters := make(map[string][]string)
	if params.Brand != nil {
		filters[domfacet.NameBrand] = *params.Brand
	}
	if params.Price != nil {
		filters[domfacet.NamePrice] = *params.Price
	}

	s.runSearch(w, r, request.Params{
		Query:     params.Query,
		TopK:      params.TopK,
		RewriteOn: params.RewriteOn,
		RerankOn:  params.RerankOn,
		Filters:   filters,
		SortBy:    deref(params.SortBy),
	})
}

func (s *Server) runSearch(w http.ResponseWriter, r *http.Request, p request.Params) {
	req, err := request.New(p)
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}

	resp, err := s.search.Search(r.Context(), &req)
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, searchResponseFromDomain(&resp))
}

// GetProduct handles GET /api/v1/products/{id}.
func (s *Server) GetProduct(w http.ResponseWriter, r *http.Request, id string) {
	p, err := s.search.Product(r.Context(), id)
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, productFromDomain(p, nil))
}

// HealthCheck handles GET /health.
func (s *Server) HealthCheck(w http.ResponseWriter, r *http.Request) {
	report := s.health.Check(r.Context())

	checks := make(map[string]string, len(report.Checks))
	for k, v := range report.Checks {
		checks[k] = string(v)
	}

	httpStatus := http.StatusOK
	if report.Status != healthuc.Healthy {
		httpStatus = http.StatusServiceUnavailable
	}

	writeJSON(w, httpStatus, HealthResponse{
		Status:   string(report.Status),
		Checks:   checks,
		Products: report.Products,
	})
}

// Metrics handles GET /metrics.
func (s *Server) Metrics(w http.ResponseWriter, r *http.Request) {
	promhttp.Handler().ServeHTTP(w, r)
}

// ParamErrorHandler renders parameter binding failures as bad_request.
func ParamErrorHandler(w http.ResponseWriter, _ *http.Request, err error) {
	msg := "invalid request"
	var pe *InvalidParamFormatError
	if errors.As(err, &pe) {
		msg = "invalid query parameter " + pe.ParamName
	}
	writeError(w, http.StatusBadRequest, ErrorResponseCodeBadRequest, msg)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code ErrorResponseCode, message string) {
	writeJSON(w, status, ErrorResponse{
		Code:    code,
		Message: message,
	})
}

// sentinelHandler returns an errorHandler that matches a single sentinel error
// and reports only the sentinel text to the client.
func sentinelHandler(sentinel error, status int, code ErrorResponseCode) errorHandler {
	return func(w http.ResponseWriter, err error) bool {
		if !errors.Is(err, sentinel) {
			return false
		}
		writeError(w, status, code, sentinel.Error())
		return true
	}
}

// validationHandler reports caller mistakes with the full message.
func validationHandler(sentinel error) errorHandler {
	return func(w http.ResponseWriter, err error) bool {
		if !errors.Is(err, sentinel) {
			return false
		}
		writeError(w, http.StatusBadRequest, ErrorResponseCodeValidationFailed, err.Error())
		return true
	}
}

func (s *Server) handleDomainError(w http.ResponseWriter, r *http.Request, err error) {
	log := logger.FromContext(r.Context())
	for _, h := range s.errorHandlers {
		if h(w, err) {
			log.Warn("domain error", zap.Error(err))
			return
		}
	}
	log.Error("internal error", zap.Error(err))
	writeError(w, http.StatusInternalServerError, ErrorResponseCodeInternalError, "internal error")
}

func searchResponseFromDomain(resp *result.Response) SearchResponse {
	out := SearchResponse{
		OriginalQuery: resp.OriginalQuery,
		Results:       make([]Product, 0, len(resp.Hits)),
		Facets:        make([]Facet, 0, len(resp.Facets)),
		SearchTime:    resp.SearchTime,
	}
	if u := resp.RewrittenQuery; u != nil {
		out.RewrittenQuery = &RewrittenQuery{
			Rewritten: u.Rewritten,
			Filters: RewrittenFilters{
				Brand:    u.Filters.Brand,
				PriceMax: u.Filters.PriceMax,
			},
		}
	}
	for _, h := range resp.Hits {
		var score *float64
		if v, ok := h.Score(); ok {
			score = &v
		}
		out.Results = append(out.Results, productFromDomain(h.Product(), score))
	}
	for _, f := range resp.Facets {
		buckets := make([]FacetBucket, len(f.Buckets))
		for i, b := range f.Buckets {
			buckets[i] = FacetBucket{Value: b.Value, Count: b.Count}
		}
		out.Facets = append(out.Facets, Facet{Name: f.Name, Buckets: buckets})
	}
	return out
}

func productFromDomain(p product.Product, score *float64) Product {
	return Product{
		ProductID:   p.ID(),
		Title:       p.Title(),
		Brand:       p.Brand(),
		Price:       p.Price(),
		Rating:      p.Rating(),
		ImageURL:    p.ImageURL(),
		Description: p.Description(),
		Score:       score,
	}
}

func deref(p *string) string {
	if p == nil {
		return ""
	}
	return *p
}
