package cms

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"go.uber.org/zap"
	"gopkg.in/yaml.v3"
)

// ContentPage represents a localized static page sourced from the CMS or local markdown.
type ContentPage struct {
	Kind          string         `json:"kind"`
	Slug          string         `json:"slug"`
	Lang          string         `json:"lang"`
	Title         string         `json:"title"`
	Summary       string         `json:"summary"`
	Body          string         `json:"body"`
	Format        string         `json:"format"` // "markdown" (default) or "html"
	EffectiveDate time.Time      `json:"effectiveDate"`
	UpdatedAt     time.Time      `json:"updatedAt"`
	Banner        *ContentBanner `json:"banner,omitempty"`
	SEO           ContentSEO     `json:"seo"`
}

// ContentSEO holds optional metadata overrides for static pages.
type ContentSEO struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	OGImage     string `json:"ogImage"`
}

// ContentBanner models an optional banner/alert displayed above the body.
type ContentBanner struct {
	Variant  string `json:"variant"`
	Title    string `json:"title"`
	Message  string `json:"message"`
	LinkText string `json:"linkText"`
	LinkURL  string `json:"linkUrl"`
}

type contentFrontMatter struct {
	Title         string                    `yaml:"title"`
	Summary       string                    `yaml:"summary"`
	Lang          string                    `yaml:"lang"`
	Format        string                    `yaml:"format"`
	EffectiveDate string                    `yaml:"effective_date"`
	UpdatedAt     string                    `yaml:"updated_at"`
	SEO           contentFrontMatterSEO     `yaml:"seo"`
	Banner        *contentFrontMatterBanner `yaml:"banner"`
}

type contentFrontMatterSEO struct {
	Title       string `yaml:"title"`
	Description string `yaml:"description"`
	OGImage     string `yaml:"og_image"`
}

type contentFrontMatterBanner struct {
	Variant  string `yaml:"variant"`
	Title    string `yaml:"title"`
	Message  string `yaml:"message"`
	LinkText string `yaml:"link_text"`
	LinkURL  string `yaml:"link_url"`
}

const (
	defaultContentFormat = "markdown"
	defaultContentDir    = "content"
	defaultContentKind   = "page"
	defaultLang          = "en"
)

// GetContentPage fetches a localized static page, consulting the remote CMS when configured,
// otherwise falling back to local markdown.
func (c *Client) GetContentPage(ctx context.Context, kind, slug, lang string) (ContentPage, error) {
	kind = strings.TrimSpace(strings.ToLower(kind))
	if kind == "" {
		kind = defaultContentKind
	}
	slug = sanitizeSlug(slug)
	if slug == "" {
		return ContentPage{}, ErrNotFound
	}
	lang = normalizeLang(lang)

	return cached(ctx, c, cacheKey("content", kind, lang, slug), func(ctx context.Context) (ContentPage, bool, error) {
		return c.fetchContentPage(ctx, kind, slug, lang)
	})
}

func (c *Client) fetchContentPage(ctx context.Context, kind, slug, lang string) (ContentPage, bool, error) {
	degraded := false
	if c.Remote() {
		var page ContentPage
		err := c.query(ctx, "content", pageBySlugQuery, map[string]string{"kind": kind, "slug": slug, "lang": lang}, &page)
		if err == nil && strings.TrimSpace(page.Body) != "" {
			page.Kind = firstNonEmpty(page.Kind, kind)
			page.Slug = firstNonEmpty(page.Slug, slug)
			page.Lang = firstNonEmpty(page.Lang, lang)
			page.Format = firstNonEmpty(page.Format, defaultContentFormat)
			if page.Banner != nil && page.Banner.Title == "" && page.Banner.Message == "" {
				page.Banner = nil
			}
			return page, false, nil
		}
		if err == nil {
			err = fmt.Errorf("cms: empty body for %s/%s", kind, slug)
		}
		if !errors.Is(err, ErrNotFound) {
			degraded = true
			c.logFallback("content", err, zap.String("slug", slug))
		}
	}
	page, err := fallbackContentPage(c.ContentDir(), kind, slug, lang)
	return page, degraded, err
}

func fallbackContentPage(contentDir, kind, slug, lang string) (ContentPage, error) {
	if strings.TrimSpace(contentDir) == "" {
		contentDir = defaultContentDir
	}
	for _, candidate := range langCandidates(lang) {
		page, err := readContentMarkdown(contentDir, kind, slug, candidate)
		if err == nil {
			return page, nil
		}
		if errors.Is(err, fs.ErrNotExist) {
			continue
		}
		if errors.Is(err, ErrNotFound) {
			continue
		}
		// For other errors (parse issues), stop early.
		return ContentPage{}, err
	}
	return ContentPage{}, ErrNotFound
}

func readContentMarkdown(contentDir, kind, slug, lang string) (ContentPage, error) {
	if slug == "" {
		return ContentPage{}, ErrNotFound
	}
	file := filepath.Join(contentDir, kind+"s", lang, slug+".md")

	data, err := os.ReadFile(file)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return ContentPage{}, ErrNotFound
		}
		return ContentPage{}, err
	}
	info, statErr := os.Stat(file)
	if statErr != nil {
		info = nil
	}
	fm, body := splitFrontMatter(string(data))
	front := contentFrontMatter{}
	if strings.TrimSpace(fm) != "" {
		if err := yaml.Unmarshal([]byte(fm), &front); err != nil {
			return ContentPage{}, fmt.Errorf("cms: parse front matter %s: %w", file, err)
		}
	}
	page := ContentPage{
		Kind:    kind,
		Slug:    slug,
		Lang:    firstNonEmpty(strings.TrimSpace(front.Lang), lang),
		Title:   strings.TrimSpace(front.Title),
		Summary: strings.TrimSpace(front.Summary),
		Body:    body,
		Format:  strings.TrimSpace(front.Format),
		SEO: ContentSEO{
			Title:       strings.TrimSpace(front.SEO.Title),
			Description: strings.TrimSpace(front.SEO.Description),
			OGImage:     strings.TrimSpace(front.SEO.OGImage),
		},
	}
	if page.Format == "" {
		page.Format = defaultContentFormat
	}
	if front.Banner != nil {
		page.Banner = &ContentBanner{
			Variant:  strings.TrimSpace(front.Banner.Variant),
			Title:    strings.TrimSpace(front.Banner.Title),
			Message:  strings.TrimSpace(front.Banner.Message),
			LinkText: strings.TrimSpace(front.Banner.LinkText),
			LinkURL:  strings.TrimSpace(front.Banner.LinkURL),
		}
	}
	page.EffectiveDate = parseContentDate(front.EffectiveDate)
	page.UpdatedAt = parseContentDate(front.UpdatedAt)
	if page.UpdatedAt.IsZero() && info != nil {
		page.UpdatedAt = info.ModTime()
	}
	if page.Title == "" {
		// fall back to slug prettified
		page.Title = prettifySlug(slug)
	}
	return page, nil
}

func splitFrontMatter(input string) (string, string) {
	input = strings.TrimLeft(input, "\ufeff")
	lines := strings.Split(input, "\n")
	if len(lines) == 0 {
		return "", ""
	}
	if strings.TrimSpace(lines[0]) != "---" {
		return "", input
	}
	for i := 1; i < len(lines); i++ {
		if strings.TrimSpace(lines[i]) == "---" {
			fm := strings.Join(lines[1:i], "\n")
			body := strings.Join(lines[i+1:], "\n")
			return fm, strings.TrimLeft(body, "\n\r")
		}
	}
	return "", input
}

func parseContentDate(v string) time.Time {
	v = strings.TrimSpace(v)
	if v == "" {
		return time.Time{}
	}
	layouts := []string{
		time.RFC3339,
		"2006-01-02",
		"2006/01/02",
		"2006-1-2",
	}
	for _, layout := range layouts {
		if t, err := time.Parse(layout, v); err == nil {
			return t
		}
	}
	return time.Time{}
}

func prettifySlug(slug string) string {
	slug = strings.TrimSpace(slug)
	if slug == "" {
		return slug
	}
	parts := strings.Split(slug, "-")
	for i, part := range parts {
		if part == "" {
			continue
		}
		runes := []rune(part)
		runes[0] = asciiUpper(runes[0])
		parts[i] = string(runes)
	}
	return strings.Join(parts, " ")
}

func sanitizeSlug(slug string) string {
	slug = strings.TrimSpace(strings.ToLower(slug))
	slug = strings.Trim(slug, "/")
	if slug == "" {
		return ""
	}
	if strings.Contains(slug, "..") {
		return ""
	}
	if strings.ContainsAny(slug, `/\`) {
		return ""
	}
	return slug
}

func asciiUpper(r rune) rune {
	if r >= 'a' && r <= 'z' {
		return r - ('a' - 'A')
	}
	return r
}
