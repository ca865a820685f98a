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
	"lifescientific.com/web/internal/platform/metrics"
	"lifescientific.com/web/internal/platform/observability"
	"lifescientific.com/web/internal/seo"
)

// ProductsHandler renders the catalog. htmx requests get only the results fragment and
// an HX-Push-Url so the address bar tracks the facets.
func ProductsHandler(w http.ResponseWriter, r *http.Request) {
	lang := mw.Lang(r)
	query := r.URL.Query()
	state := catalog.ParseFilterState(query)
	view := catalog.ParseViewMode(query.Get(catalog.ParamView))

	products, err := cmsClient.ListProducts(r.Context(), lang)
	if err != nil {
		// ListProducts degrades to an empty catalog; an error here is a cache decode failure
		observability.FromContext(r.Context()).Error("list products", zap.Error(err))
		products = []catalog.Product{}
	}
	cv := buildCatalogView(products, state, view)
	metrics.CatalogResults.Observe(float64(len(cv.Results)))

	title := i18nBundle.T(lang, "catalog.title")
	pd := newPageData(r, cv.SelfHref, title, i18nBundle.T(lang, "catalog.description"), "")
	pd.Catalog = cv
	if cv.Filtered {
		// facet permutations are not worth indexing
		pd.SEO.Robots = "noindex, follow"
	}
	urls := make([]string, 0, len(cv.Results))
	for _, p := range cv.Results {
		urls = append(urls, seo.AbsoluteURL(siteCfg.Site.BaseURL, productURL(p)))
	}
	pd.SEO.AddJSONLD(seo.ItemList(urls))

	if mw.IsHTMX(r.Context()) {
		mw.PushURL(w, cv.SelfHref)
		renderTemplate(w, r, "frag_products_results", pd)
		return
	}
	renderPage(w, r, http.StatusOK, "products", pd)
}

// ProductDetailHandler renders one product with its formulations and registered crops.
func ProductDetailHandler(w http.ResponseWriter, r *http.Request) {
	lang := mw.Lang(r)
	slug := strings.TrimSpace(chi.URLParam(r, "slug"))
	product, err := cmsClient.GetProduct(r.Context(), slug, lang)
	if err != nil {
		if !errors.Is(err, cms.ErrNotFound) {
			observability.FromContext(r.Context()).Error("get product", zap.String("slug", slug), zap.Error(err))
		}
		NotFoundHandler(w, r)
		return
	}

	description := product.Tagline
	if description == "" {
		description = product.Description
	}
	pd := newPageData(r, productURL(product), product.Name, description, product.Name)
	if product.ImageURL != "" {
		pd.SEO = pd.SEO.WithImage(product.ImageURL)
	}
	pd.SEO.OG.Type = "product"
	pd.SEO.AddJSONLD(seo.Product(product, pd.SEO.Canonical))
	pd.SEO.AddJSONLD(breadcrumbJSONLD(pd))
	pd.Product = product
	renderPage(w, r, http.StatusOK, "product", pd)
}
