package chi

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/oapi-codegen/runtime"
)

// ServerInterface is the set of API operations mounted by HandlerWithOptions.
type ServerInterface interface {
	// SearchProducts handles POST /api/v1/search.
	SearchProducts(w http.ResponseWriter, r *http.Request)
	// SearchProductsGet handles GET /api/v1/search.
	SearchProductsGet(w http.ResponseWriter, r *http.Request, params SearchProductsParams)
	// GetProduct handles GET /api/v1/products/{id}.
	GetProduct(w http.ResponseWriter, r *http.Request, id string)
	// HealthCheck handles GET /health.
	HealthCheck(w http.ResponseWriter, r *http.Request)
	// Metrics handles GET /metrics.
	Metrics(w http.ResponseWriter, r *http.Request)
}

// ChiServerOptions configures HandlerWithOptions.
type ChiServerOptions struct {
	BaseRouter       chi.Router
	ErrorHandlerFunc func(w http.ResponseWriter, r *http.Request, err error)
}

// InvalidParamFormatError reports a query or path parameter that failed to bind.
type InvalidParamFormatError struct {
	ParamName string
	Err       error
}

func (e *InvalidParamFormatError) Error() string {
	return fmt.Sprintf("invalid format for parameter %s: %s", e.ParamName, e.Err.Error())
}

func (e *InvalidParamFormatError) Unwrap() error { return e.Err }

// HandlerWithOptions mounts si on the base router.
func HandlerWithOptions(si ServerInterface, options ChiServerOptions) http.Handler {
	r := options.BaseRouter
	if r == nil {
		r = chi.NewRouter()
	}
	errorHandler := options.ErrorHandlerFunc
	if errorHandler == nil {
		errorHandler = func(w http.ResponseWriter, _ *http.Request, err error) {
			http.Error(w, err.Error(), http.StatusBadRequest)
		}
	}

	r.Post("/api/v1/search", si.SearchProducts)
	r.Get("/api/v1/search", func(w http.ResponseWriter, r *http.Request) {
		params, err := bindSearchParams(r)
		if err != nil {
			errorHandler(w, r, err)
			return
		}
		si.SearchProductsGet(w, r, params)
	})
	r.Get("/api/v1/products/{id}", func(w http.ResponseWriter, r *http.Request) {
		si.GetProduct(w, r, chi.URLParam(r, "id"))
	})
	r.Get("/health", si.HealthCheck)
	r.Get("/metrics", si.Metrics)
	return r
}

func bindSearchParams(r *http.Request) (SearchProductsParams, error) {
	var params SearchProductsParams
	q := r.URL.Query()

	bindings := []struct {
		name     string
		required bool
		dest     any
	}{
		{"query", true, &params.Query},
		{"top_k", false, &params.TopK},
		{"rewrite_on", false, &params.RewriteOn},
		{"rerank_on", false, &params.RerankOn},
		{"sort_by", false, &params.SortBy},
		{"brand", false, &params.Brand},
		{"price", false, &params.Price},
	}
	for _, b := range bindings {
		if err := runtime.BindQueryParameter("form", true, b.required, b.name, q, b.dest); err != nil {
			return SearchProductsParams{}, &InvalidParamFormatError{ParamName: b.name, Err: err}
		}
	}
	if params.Price != nil {
		for i, label := range *params.Price {
			(*params.Price)[i] = restoreOpenBound(label)
		}
	}
	return params, nil
}

// restoreOpenBound undoes form decoding of an unescaped "+" in the open price
// band: "250-+" arrives as "250- ".
func restoreOpenBound(label string) string {
	if strings.HasSuffix(label, "- ") {
		return label[:len(label)-1] + "+"
	}
	return label
}
