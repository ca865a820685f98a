package handlers

import (
	"lifescientific.com/web/internal/catalog"
	"lifescientific.com/web/internal/cms"
)

const (
	homeFeaturedLimit = 3
	homeLatestLimit   = 3
)

// CategoryLink is a catalog shortcut shown on the landing page.
type CategoryLink struct {
	Category catalog.Category
	Count    int
	Href     string
}

// HomeData is the view model for the home page.
type HomeData struct {
	Featured   []catalog.Product
	Categories []CategoryLink
	Latest     []cms.Post
}

// BuildHomeData picks the first catalog entries as featured products, links every
// non-empty category, and keeps the newest posts.
func BuildHomeData(products []catalog.Product, posts []cms.Post) HomeData {
	data := HomeData{}
	if len(products) > homeFeaturedLimit {
		data.Featured = products[:homeFeaturedLimit]
	} else {
		data.Featured = products
	}
	counts := catalog.CategoryCounts(products)
	for _, c := range catalog.Categories() {
		if counts[c] == 0 {
			continue
		}
		q := catalog.FilterState{ActiveCategory: c}.Values()
		data.Categories = append(data.Categories, CategoryLink{
			Category: c,
			Count:    counts[c],
			Href:     "/products?" + q.Encode(),
		})
	}
	if len(posts) > homeLatestLimit {
		data.Latest = posts[:homeLatestLimit]
	} else {
		data.Latest = posts
	}
	return data
}
