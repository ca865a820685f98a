package main

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"lifescientific.com/web/internal/cms"
	"lifescientific.com/web/internal/handlers"
	mw "lifescientific.com/web/internal/middleware"
	"lifescientific.com/web/internal/platform/observability"
	"lifescientific.com/web/internal/seo"
)

const siteName = "Life Scientific"

// ErrorView feeds the error page.
type ErrorView struct {
	Status   int
	TitleKey string
	BodyKey  string
}

// newPageData fills layout, navigation and SEO fields. canonical is the path (with any
// query) the page should be indexed under.
func newPageData(r *http.Request, canonical, title, description, leaf string) handlers.PageData {
	lang := mw.Lang(r)
	languages := []string{lang}
	if i18nBundle != nil {
		languages = i18nBundle.Supported()
	}
	pd := handlers.NewPageData(lang, languages, r.URL.Path, leaf)
	pd.Title = title
	pd.SEO = seo.New(siteCfg.Site.BaseURL, canonical, title, description, languages)
	pd.Analytics = handlers.AnalyticsFromConfig(siteCfg.Site)
	pd.ContactEmail = siteCfg.Site.ContactEmail
	return pd
}

func breadcrumbJSONLD(pd handlers.PageData) map[string]any {
	items := make([]seo.BreadcrumbItem, 0, len(pd.Breadcrumbs))
	for _, c := range pd.Breadcrumbs {
		name := c.Label
		if c.LabelKey != "" {
			name = i18nBundle.T(pd.Lang, c.LabelKey)
		}
		items = append(items, seo.BreadcrumbItem{Name: name, Item: seo.AbsoluteURL(siteCfg.Site.BaseURL, c.Href)})
	}
	return seo.BreadcrumbList(items)
}

// HomeHandler renders the landing page.
func HomeHandler(w http.ResponseWriter, r *http.Request) {
	lang := mw.Lang(r)
	logger := observability.FromContext(r.Context())
	products, err := cmsClient.ListProducts(r.Context(), lang)
	if err != nil {
		logger.Error("list products", zap.Error(err))
	}
	posts, err := cmsClient.ListPosts(r.Context(), cms.ListPostsOptions{Lang: lang})
	if err != nil {
		logger.Error("list posts", zap.Error(err))
	}

	pd := newPageData(r, "/", i18nBundle.T(lang, "site.name"), i18nBundle.T(lang, "site.tagline"), "")
	pd.Home = handlers.BuildHomeData(products, posts)
	base := seo.AbsoluteURL(siteCfg.Site.BaseURL, "/")
	pd.SEO.AddJSONLD(seo.Organization(siteName, base, seo.AbsoluteURL(siteCfg.Site.BaseURL, "/assets/img/logo.svg")))
	pd.SEO.AddJSONLD(seo.WebSite(siteName, base, seo.AbsoluteURL(siteCfg.Site.BaseURL, productsPath+"?q=")))
	renderPage(w, r, http.StatusOK, "home", pd)
}

// ContentPageHandler renders static pages such as about and contact.
func ContentPageHandler(w http.ResponseWriter, r *http.Request) {
	lang := mw.Lang(r)
	slug := chi.URLParam(r, "slug")
	page, err := cmsClient.GetContentPage(r.Context(), "page", slug, lang)
	if err != nil {
		if !errors.Is(err, cms.ErrNotFound) {
			observability.FromContext(r.Context()).Error("get content page", zap.String("slug", slug), zap.Error(err))
		}
		NotFoundHandler(w, r)
		return
	}
	title := page.Title
	if page.SEO.Title != "" {
		title = page.SEO.Title
	}
	description := page.SEO.Description
	if description == "" {
		description = page.Summary
	}
	pd := newPageData(r, r.URL.Path, title, description, page.Title)
	if page.SEO.OGImage != "" {
		pd.SEO = pd.SEO.WithImage(page.SEO.OGImage)
	}
	pd.SEO.AddJSONLD(breadcrumbJSONLD(pd))
	pd.Content = page
	renderPage(w, r, http.StatusOK, "page", pd)
}

// NotFoundHandler renders the localized 404 page, or a JSON error for API callers.
func NotFoundHandler(w http.ResponseWriter, r *http.Request) {
	renderError(w, r, http.StatusNotFound)
}

// ServerErrorHandler is the panic responder. The status has already been written.
func ServerErrorHandler(w http.ResponseWriter, r *http.Request) {
	pd := errorPageData(r, http.StatusInternalServerError)
	set, err := templates()
	if err != nil {
		return
	}
	if t, ok := set.pages["error"]; ok {
		_ = t.ExecuteTemplate(w, "base", pd)
	}
}

func renderError(w http.ResponseWriter, r *http.Request, status int) {
	if isAPIRequest(r) {
		writeAPIError(w, r, status)
		return
	}
	renderPage(w, r, status, "error", errorPageData(r, status))
}

func errorPageData(r *http.Request, status int) handlers.PageData {
	lang := mw.Lang(r)
	view := ErrorView{Status: status, TitleKey: "error.server.title", BodyKey: "error.server.body"}
	if status == http.StatusNotFound {
		view.TitleKey = "error.notfound.title"
		view.BodyKey = "error.notfound.body"
	}
	title := view.TitleKey
	if i18nBundle != nil {
		title = i18nBundle.T(lang, view.TitleKey)
	}
	pd := newPageData(r, r.URL.Path, title, "", "")
	pd.SEO.Robots = "noindex"
	pd.Error = view
	return pd
}
