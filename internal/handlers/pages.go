package handlers

import (
	"time"

	"lifescientific.com/web/internal/nav"
	"lifescientific.com/web/internal/seo"
)

// PageData is the view model every page and fragment renders against.
type PageData struct {
	Title     string
	Lang      string
	Languages []string
	SEO       seo.Meta
	Analytics Analytics

	Path        string
	Nav         []nav.RenderedItem
	Breadcrumbs []nav.Crumb

	Year         int
	ContactEmail string

	// Optional per-page view model payloads
	Home    any
	Catalog any
	Product any
	Posts   any
	Post    any
	Content any
	Error   any
}

// NewPageData fills the layout fields shared by every page.
func NewPageData(lang string, languages []string, path, leafCrumb string) PageData {
	return PageData{
		Lang:        lang,
		Languages:   languages,
		Path:        path,
		Nav:         nav.Build(path),
		Breadcrumbs: nav.Breadcrumbs(path, leafCrumb),
		Year:        time.Now().Year(),
	}
}
