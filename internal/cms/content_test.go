package cms

import (
	"context"
	"net/http"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

const harvestPost = `---
title: Preparing for harvest
excerpt: Timing your last fungicide pass.
tags: [Cereals, Fungicide]
author: Agronomy Team
published_at: 2025-02-10
---
## Timing

Apply before flag leaf emergence.
`

const springPost = `---
title: Spring weed control
tags: [herbicide]
published_at: 2025-03-05
---
Body.
`

func TestListPostsFromLocalContent(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "posts", "en", "harvest.md"), harvestPost)
	writeFile(t, filepath.Join(dir, "posts", "en", "spring.md"), springPost)
	client := NewClient(Options{ContentDir: dir})

	posts, err := client.ListPosts(context.Background(), ListPostsOptions{Lang: "en"})
	require.NoError(t, err)
	require.Len(t, posts, 2)
	require.Equal(t, "spring", posts[0].Slug, "newest first")
	require.Equal(t, []string{"cereals", "fungicide"}, posts[1].Tags)
	require.Equal(t, "Agronomy Team", posts[1].Author.Name)
	require.Equal(t, time.Date(2025, 2, 10, 0, 0, 0, 0, time.UTC), posts[1].PublishedAt)
	require.Contains(t, posts[1].Body, "## Timing")

	tagged, err := client.ListPosts(context.Background(), ListPostsOptions{Lang: "en", Tag: "Fungicide"})
	require.NoError(t, err)
	require.Len(t, tagged, 1)
	require.Equal(t, "harvest", tagged[0].Slug)

	limited, err := client.ListPosts(context.Background(), ListPostsOptions{Lang: "fr", Limit: 1})
	require.NoError(t, err)
	require.Len(t, limited, 1)

	require.Equal(t, []string{"cereals", "fungicide", "herbicide"}, PostTags(posts))
}

func TestGetPostFallsBackToDefaultLocale(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "posts", "en", "harvest.md"), harvestPost)
	client := NewClient(Options{ContentDir: dir})

	post, err := client.GetPost(context.Background(), "harvest", "es")
	require.NoError(t, err)
	require.Equal(t, "en", post.Lang)
	require.Equal(t, "Preparing for harvest", post.Title)

	_, err = client.GetPost(context.Background(), "unknown", "en")
	require.ErrorIs(t, err, ErrNotFound)
}

func TestGetPostFromSanity(t *testing.T) {
	srv, _ := newSanityStub(t, func(w http.ResponseWriter, r *http.Request) {
		writeResult(t, w, map[string]any{
			"slug":        "harvest",
			"title":       "Récolte",
			"body":        "Texte",
			"tags":        []string{"Céréales"},
			"publishedAt": "2025-02-10T08:00:00Z",
		})
	})
	client := NewClient(Options{BaseURL: srv.URL, ContentDir: t.TempDir()})

	post, err := client.GetPost(context.Background(), "harvest", "fr")
	require.NoError(t, err)
	require.Equal(t, "fr", post.Lang)
	require.Equal(t, []string{"céréales"}, post.Tags)
	require.Equal(t, post.PublishedAt, post.UpdatedAt)
}

func TestGetContentPageFromMarkdown(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "pages", "en", "about.md"), `---
title: About Life Scientific
summary: Off-patent crop protection.
seo:
  description: Who we are
banner:
  title: Now in Brazil
  message: New registrations
---
We develop off-patent crop protection products.
`)
	client := NewClient(Options{ContentDir: dir})

	page, err := client.GetContentPage(context.Background(), "", "about", "fr")
	require.NoError(t, err)
	require.Equal(t, "page", page.Kind)
	require.Equal(t, "en", page.Lang)
	require.Equal(t, "About Life Scientific", page.Title)
	require.Equal(t, "markdown", page.Format)
	require.Equal(t, "Who we are", page.SEO.Description)
	require.NotNil(t, page.Banner)
	require.Equal(t, "Now in Brazil", page.Banner.Title)
	require.False(t, page.UpdatedAt.IsZero())
}

func TestGetContentPageMissing(t *testing.T) {
	client := NewClient(Options{ContentDir: t.TempDir()})
	_, err := client.GetContentPage(context.Background(), "page", "nope", "en")
	require.ErrorIs(t, err, ErrNotFound)

	_, err = client.GetContentPage(context.Background(), "page", "a/b", "en")
	require.ErrorIs(t, err, ErrNotFound)
}

func TestGetContentPageRemoteEmptyBodyFallsBack(t *testing.T) {
	srv, _ := newSanityStub(t, func(w http.ResponseWriter, r *http.Request) {
		writeResult(t, w, map[string]any{"slug": "privacy", "title": "Privacy", "body": "  "})
	})
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "pages", "en", "privacy.md"), "# Privacy\n\nLocal policy.\n")
	client := NewClient(Options{BaseURL: srv.URL, ContentDir: dir})

	page, err := client.GetContentPage(context.Background(), "page", "privacy", "en")
	require.NoError(t, err)
	require.Equal(t, "Privacy", page.Title)
	require.Contains(t, page.Body, "Local policy.")
}

func TestSplitFrontMatter(t *testing.T) {
	fm, body := splitFrontMatter("\ufeff---\ntitle: x\n---\n\nhello")
	require.Equal(t, "title: x", fm)
	require.Equal(t, "hello", body)

	fm, body = splitFrontMatter("no front matter")
	require.Empty(t, fm)
	require.Equal(t, "no front matter", body)
}

func TestPrettifySlug(t *testing.T) {
	require.Equal(t, "Terms Of Use", prettifySlug("terms-of-use"))
}
