package cms

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"go.uber.org/zap"
	"gopkg.in/yaml.v3"
)

// Post is a localized blog article.
type Post struct {
	Slug          string    `json:"slug"`
	Lang          string    `json:"lang"`
	Title         string    `json:"title"`
	Excerpt       string    `json:"excerpt"`
	Body          string    `json:"body"`
	Tags          []string  `json:"tags"`
	CoverImageURL string    `json:"coverImageUrl"`
	Author        Author    `json:"author"`
	PublishedAt   time.Time `json:"publishedAt"`
	UpdatedAt     time.Time `json:"updatedAt"`
	SEO           PostSEO   `json:"seo"`
}

// Author captures post author metadata.
type Author struct {
	Name       string `json:"name"`
	ProfileURL string `json:"profileUrl"`
}

// PostSEO contains optional per-locale SEO metadata.
type PostSEO struct {
	MetaTitle       string `json:"metaTitle"`
	MetaDescription string `json:"metaDescription"`
	OGImage         string `json:"ogImage"`
}

// ListPostsOptions controls post listing requests.
type ListPostsOptions struct {
	Lang   string
	Tag    string
	Search string
	Limit  int
}

type postFrontMatter struct {
	Title         string   `yaml:"title"`
	Excerpt       string   `yaml:"excerpt"`
	Tags          []string `yaml:"tags"`
	CoverImageURL string   `yaml:"cover_image"`
	Author        string   `yaml:"author"`
	AuthorURL     string   `yaml:"author_url"`
	PublishedAt   string   `yaml:"published_at"`
	UpdatedAt     string   `yaml:"updated_at"`
	SEO           struct {
		Title       string `yaml:"title"`
		Description string `yaml:"description"`
		OGImage     string `yaml:"og_image"`
	} `yaml:"seo"`
}

// ListPosts returns localized posts, newest first, applying filters client-side.
func (c *Client) ListPosts(ctx context.Context, opts ListPostsOptions) ([]Post, error) {
	lang := normalizeLang(opts.Lang)
	posts, err := cached(ctx, c, cacheKey("posts", lang), func(ctx context.Context) ([]Post, bool, error) {
		posts, degraded := c.fetchPosts(ctx, lang)
		return posts, degraded, nil
	})
	if err != nil {
		return nil, err
	}
	return filterPosts(posts, opts), nil
}

// GetPost retrieves a single localized post by slug.
func (c *Client) GetPost(ctx context.Context, slug, lang string) (Post, error) {
	slug = sanitizeSlug(slug)
	if slug == "" {
		return Post{}, ErrNotFound
	}
	lang = normalizeLang(lang)
	return cached(ctx, c, cacheKey("post", lang, slug), func(ctx context.Context) (Post, bool, error) {
		degraded := false
		if c.Remote() {
			var p Post
			err := c.query(ctx, "post", postBySlugQuery, map[string]string{"lang": lang, "slug": slug}, &p)
			if err == nil {
				return finishPost(p, lang), false, nil
			}
			if !errors.Is(err, ErrNotFound) {
				degraded = true
				c.logFallback("post", err, zap.String("slug", slug))
			}
		}
		for _, candidate := range langCandidates(lang) {
			p, err := readPostMarkdown(c.ContentDir(), candidate, slug)
			if err == nil {
				return p, degraded, nil
			}
			if errors.Is(err, ErrNotFound) {
				continue
			}
			return Post{}, false, err
		}
		return Post{}, false, ErrNotFound
	})
}

func (c *Client) fetchPosts(ctx context.Context, lang string) ([]Post, bool) {
	degraded := false
	if c.Remote() {
		var posts []Post
		err := c.query(ctx, "posts", postsQuery, map[string]string{"lang": lang}, &posts)
		if err == nil && len(posts) > 0 {
			for i := range posts {
				posts[i] = finishPost(posts[i], lang)
			}
			sortPosts(posts)
			return posts, false
		}
		degraded = err != nil
		c.logFallback("posts", err, zap.String("lang", lang))
	}
	for _, candidate := range langCandidates(lang) {
		posts, err := readPostsDir(c.ContentDir(), candidate)
		if err != nil {
			c.logger.Warn("cms local posts unreadable", zap.String("lang", candidate), zap.Error(err))
			continue
		}
		if len(posts) > 0 {
			return posts, degraded
		}
	}
	return []Post{}, degraded
}

func finishPost(p Post, lang string) Post {
	if p.Lang == "" {
		p.Lang = lang
	}
	if p.UpdatedAt.IsZero() {
		p.UpdatedAt = p.PublishedAt
	}
	p.Tags = lowerSlice(p.Tags)
	return p
}

func readPostsDir(contentDir, lang string) ([]Post, error) {
	dir := filepath.Join(contentDir, "posts", lang)
	entries, err := os.ReadDir(dir)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, err
	}
	posts := make([]Post, 0, len(entries))
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".md") {
			continue
		}
		p, err := readPostMarkdown(contentDir, lang, strings.TrimSuffix(e.Name(), ".md"))
		if err != nil {
			return nil, err
		}
		posts = append(posts, p)
	}
	sortPosts(posts)
	return posts, nil
}

func readPostMarkdown(contentDir, lang, slug string) (Post, error) {
	file := filepath.Join(contentDir, "posts", lang, slug+".md")
	data, err := os.ReadFile(file)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return Post{}, ErrNotFound
		}
		return Post{}, err
	}
	fm, body := splitFrontMatter(string(data))
	front := postFrontMatter{}
	if strings.TrimSpace(fm) != "" {
		if err := yaml.Unmarshal([]byte(fm), &front); err != nil {
			return Post{}, fmt.Errorf("cms: parse front matter %s: %w", file, err)
		}
	}
	p := Post{
		Slug:          slug,
		Lang:          lang,
		Title:         firstNonEmpty(strings.TrimSpace(front.Title), prettifySlug(slug)),
		Excerpt:       strings.TrimSpace(front.Excerpt),
		Body:          body,
		Tags:          lowerSlice(front.Tags),
		CoverImageURL: strings.TrimSpace(front.CoverImageURL),
		Author: Author{
			Name:       strings.TrimSpace(front.Author),
			ProfileURL: strings.TrimSpace(front.AuthorURL),
		},
		PublishedAt: parseContentDate(front.PublishedAt),
		UpdatedAt:   parseContentDate(front.UpdatedAt),
		SEO: PostSEO{
			MetaTitle:       strings.TrimSpace(front.SEO.Title),
			MetaDescription: strings.TrimSpace(front.SEO.Description),
			OGImage:         strings.TrimSpace(front.SEO.OGImage),
		},
	}
	if p.UpdatedAt.IsZero() {
		p.UpdatedAt = p.PublishedAt
	}
	return p, nil
}

func filterPosts(posts []Post, opts ListPostsOptions) []Post {
	tag := strings.ToLower(strings.TrimSpace(opts.Tag))
	search := strings.ToLower(strings.TrimSpace(opts.Search))

	filtered := make([]Post, 0, len(posts))
	for _, p := range posts {
		if tag != "" && !containsString(p.Tags, tag) {
			continue
		}
		if search != "" {
			hay := strings.ToLower(p.Title + " " + p.Excerpt + " " + strings.Join(p.Tags, " "))
			if !strings.Contains(hay, search) {
				continue
			}
		}
		filtered = append(filtered, p)
		if opts.Limit > 0 && len(filtered) >= opts.Limit {
			break
		}
	}
	return filtered
}

// PostTags returns the distinct tags across posts, sorted.
func PostTags(posts []Post) []string {
	seen := map[string]struct{}{}
	var out []string
	for _, p := range posts {
		for _, t := range p.Tags {
			if _, ok := seen[t]; ok {
				continue
			}
			seen[t] = struct{}{}
			out = append(out, t)
		}
	}
	sort.Strings(out)
	return out
}

func containsString(list []string, val string) bool {
	val = strings.ToLower(strings.TrimSpace(val))
	for _, item := range list {
		if strings.ToLower(strings.TrimSpace(item)) == val {
			return true
		}
	}
	return false
}

func sortPosts(items []Post) {
	sort.SliceStable(items, func(i, j int) bool {
		a := items[i]
		b := items[j]

		switch {
		case !a.PublishedAt.IsZero() && !b.PublishedAt.IsZero():
			if !a.PublishedAt.Equal(b.PublishedAt) {
				return a.PublishedAt.After(b.PublishedAt)
			}
		case !a.PublishedAt.IsZero():
			return true
		case !b.PublishedAt.IsZero():
			return false
		}

		return strings.Compare(a.Slug, b.Slug) < 0
	})
}

func lowerSlice(values []string) []string {
	if len(values) == 0 {
		return nil
	}
	out := make([]string, len(values))
	for i, v := range values {
		out[i] = strings.ToLower(strings.TrimSpace(v))
	}
	return out
}
