package main

import (
	"errors"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"lifescientific.com/web/internal/catalog"
	"lifescientific.com/web/internal/cms"
	mw "lifescientific.com/web/internal/middleware"
	"lifescientific.com/web/internal/platform/httpx"
	"lifescientific.com/web/internal/platform/metrics"
	"lifescientific.com/web/internal/platform/observability"
)

// APIProductsHandler serves the filtered catalog as JSON using the same query parameters
// as /products.
func APIProductsHandler(w http.ResponseWriter, r *http.Request) {
	lang := mw.Lang(r)
	query := r.URL.Query()
	if raw := query.Get(catalog.ParamCategory); raw != "" {
		if _, ok := catalog.ParseCategory(raw); !ok {
			httpx.WriteError(r.Context(), w, httpx.NewError("invalid_category", "unknown category", http.StatusBadRequest).
				WithDetails(map[string]any{"categories": catalog.Categories()}))
			return
		}
	}
	state := catalog.ParseFilterState(query)
	view := catalog.ParseViewMode(query.Get(catalog.ParamView))

	products, err := cmsClient.ListProducts(r.Context(), lang)
	if err != nil {
		observability.FromContext(r.Context()).Error("list products", zap.Error(err))
		httpx.WriteError(r.Context(), w, httpx.ErrorFromStatus(http.StatusInternalServerError))
		return
	}
	cv := buildCatalogView(products, state, view)
	metrics.CatalogResults.Observe(float64(len(cv.Results)))
	w.Header().Set("Cache-Control", "public, max-age=60")
	httpx.WriteJSON(w, http.StatusOK, buildCatalogResponse(cv, products))
}

// APIProductHandler returns one product as JSON.
func APIProductHandler(w http.ResponseWriter, r *http.Request) {
	product, err := cmsClient.GetProduct(r.Context(), chi.URLParam(r, "slug"), mw.Lang(r))
	if err != nil {
		if errors.Is(err, cms.ErrNotFound) {
			httpx.WriteError(r.Context(), w, httpx.ErrorFromStatus(http.StatusNotFound))
			return
		}
		observability.FromContext(r.Context()).Error("get product", zap.Error(err))
		httpx.WriteError(r.Context(), w, httpx.ErrorFromStatus(http.StatusInternalServerError))
		return
	}
	httpx.WriteJSON(w, http.StatusOK, productJSON{Product: product, URL: productURL(product)})
}

func isAPIRequest(r *http.Request) bool {
	return strings.HasPrefix(r.URL.Path, "/api/")
}

func writeAPIError(w http.ResponseWriter, r *http.Request, status int) {
	httpx.WriteError(r.Context(), w, httpx.ErrorFromStatus(status))
}
