package main

import (
	"net/url"

	"lifescientific.com/web/internal/catalog"
)

// CatalogView is the products page model: the filtered results plus every facet rendered
// as a link that reproduces the current state with one change applied.
type CatalogView struct {
	State      catalog.FilterState
	View       catalog.ViewMode
	Results    []catalog.Product
	Total      int
	Categories []CategoryFacet
	Crops      []CropFacet
	AllHref    string
	ClearHref  string
	GridHref   string
	TableHref  string
	SelfHref   string
	Filtered   bool
}

// CategoryFacet is one category option with the number of products in it.
type CategoryFacet struct {
	Category catalog.Category
	LabelKey string
	Count    int
	Active   bool
	Href     string
}

// CropFacet is one crop checkbox.
type CropFacet struct {
	Name     string
	Selected bool
	Href     string
}

const productsPath = "/products"

// buildCatalogView applies state to products. Facet options come from the unfiltered
// catalog so choosing one never hides the others.
func buildCatalogView(products []catalog.Product, state catalog.FilterState, view catalog.ViewMode) CatalogView {
	results := catalog.Filter(products, state)
	cv := CatalogView{
		State:     state,
		View:      view,
		Results:   results,
		Total:     len(products),
		AllHref:   catalogHref(state.WithCategory(""), view),
		ClearHref: catalogHref(catalog.FilterState{}, view),
		GridHref:  catalogHref(state, catalog.ViewGrid),
		TableHref: catalogHref(state, catalog.ViewTable),
		SelfHref:  catalogHref(state, view),
		Filtered:  !state.IsZero(),
	}

	counts := catalog.CategoryCounts(products)
	for _, c := range catalog.Categories() {
		if counts[c] == 0 && state.ActiveCategory != c {
			continue
		}
		cv.Categories = append(cv.Categories, CategoryFacet{
			Category: c,
			LabelKey: "catalog.category." + string(c),
			Count:    counts[c],
			Active:   state.ActiveCategory == c,
			Href:     catalogHref(state.WithCategory(c), view),
		})
	}

	crops := catalog.UniqueCrops(products)
	// keep selected crops visible even if the catalog no longer lists them
	for _, c := range state.SelectedCrops {
		if !containsCrop(crops, c) {
			crops = append(crops, c)
		}
	}
	for _, crop := range crops {
		cv.Crops = append(cv.Crops, CropFacet{
			Name:     crop,
			Selected: state.HasCrop(crop),
			Href:     catalogHref(state.ToggleCrop(crop), view),
		})
	}
	return cv
}

// catalogHref encodes state and view as a /products URL. Grid is the default view and
// is left out of the query.
func catalogHref(state catalog.FilterState, view catalog.ViewMode) string {
	q := state.Values()
	if view == catalog.ViewTable {
		q.Set(catalog.ParamView, string(view))
	}
	return encodeProductsURL(q)
}

func encodeProductsURL(q url.Values) string {
	if len(q) == 0 {
		return productsPath
	}
	return productsPath + "?" + q.Encode()
}

func containsCrop(crops []string, crop string) bool {
	for _, c := range crops {
		if c == crop {
			return true
		}
	}
	return false
}

// productJSON is the wire shape of one product in /api/products.
type productJSON struct {
	catalog.Product
	URL string `json:"url"`
}

// catalogResponse is the /api/products payload.
type catalogResponse struct {
	Items      []productJSON            `json:"items"`
	Count      int                      `json:"count"`
	Total      int                      `json:"total"`
	Crops      []string                 `json:"crops"`
	Categories map[catalog.Category]int `json:"categories"`
	View       catalog.ViewMode         `json:"view"`
	Query      map[string]any           `json:"query"`
}

func buildCatalogResponse(cv CatalogView, products []catalog.Product) catalogResponse {
	items := make([]productJSON, 0, len(cv.Results))
	for _, p := range cv.Results {
		items = append(items, productJSON{Product: p, URL: productURL(p)})
	}
	crops := make([]string, 0, len(cv.State.SelectedCrops))
	crops = append(crops, cv.State.SelectedCrops...)
	return catalogResponse{
		Items:      items,
		Count:      len(items),
		Total:      cv.Total,
		Crops:      catalog.UniqueCrops(products),
		Categories: catalog.CategoryCounts(products),
		View:       cv.View,
		Query: map[string]any{
			catalog.ParamSearch:   cv.State.SearchText,
			catalog.ParamCategory: string(cv.State.ActiveCategory),
			catalog.ParamCrop:     crops,
		},
	}
}

func productURL(p catalog.Product) string {
	slug := p.Slug
	if slug == "" {
		slug = p.ID
	}
	return productsPath + "/" + url.PathEscape(slug)
}
