package main

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"lifescientific.com/web/internal/cms"
	mw "lifescientific.com/web/internal/middleware"
	"lifescientific.com/web/internal/platform/observability"
	"lifescientific.com/web/internal/seo"
)

// BlogHandler lists posts, optionally narrowed by ?tag and ?q. htmx requests receive the
// list fragment only.
func BlogHandler(w http.ResponseWriter, r *http.Request) {
	lang := mw.Lang(r)
	tag := r.URL.Query().Get("tag")
	search := r.URL.Query().Get("q")

	all, err := cmsClient.ListPosts(r.Context(), cms.ListPostsOptions{Lang: lang})
	if err != nil {
		observability.FromContext(r.Context()).Error("list posts", zap.Error(err))
	}
	filtered := all
	if tag != "" || search != "" {
		filtered, err = cmsClient.ListPosts(r.Context(), cms.ListPostsOptions{Lang: lang, Tag: tag, Search: search})
		if err != nil {
			observability.FromContext(r.Context()).Error("list posts", zap.Error(err))
		}
	}
	bv := buildBlogView(all, filtered, tag, search)

	self := blogHref(bv.ActiveTag, bv.Search)
	pd := newPageData(r, self, i18nBundle.T(lang, "blog.title"), i18nBundle.T(lang, "blog.description"), "")
	pd.Posts = bv
	if bv.ActiveTag != "" || bv.Search != "" {
		pd.SEO.Robots = "noindex, follow"
	}

	if mw.IsHTMX(r.Context()) {
		mw.PushURL(w, self)
		renderTemplate(w, r, "frag_blog_results", pd)
		return
	}
	renderPage(w, r, http.StatusOK, "blog", pd)
}

// PostHandler renders one article.
func PostHandler(w http.ResponseWriter, r *http.Request) {
	lang := mw.Lang(r)
	slug := chi.URLParam(r, "slug")
	post, err := cmsClient.GetPost(r.Context(), slug, lang)
	if err != nil {
		if !errors.Is(err, cms.ErrNotFound) {
			observability.FromContext(r.Context()).Error("get post", zap.String("slug", slug), zap.Error(err))
		}
		NotFoundHandler(w, r)
		return
	}

	title := post.Title
	if post.SEO.MetaTitle != "" {
		title = post.SEO.MetaTitle
	}
	description := post.SEO.MetaDescription
	if description == "" {
		description = post.Excerpt
	}
	pd := newPageData(r, postURL(post), title, description, post.Title)
	pd.SEO.OG.Type = "article"
	image := post.SEO.OGImage
	if image == "" {
		image = post.CoverImageURL
	}
	if image != "" {
		pd.SEO = pd.SEO.WithImage(image)
	}
	pd.SEO.AddJSONLD(seo.Article(post.Title, pd.SEO.Canonical, image, post.Author.Name, post.PublishedAt, post.UpdatedAt))
	pd.SEO.AddJSONLD(breadcrumbJSONLD(pd))
	pd.Post = post
	renderPage(w, r, http.StatusOK, "post", pd)
}
