package seo

import (
	"net/url"
	"strings"
)

type OpenGraph struct {
	Title       string
	Description string
	Image       string
	Type        string
	URL         string
	SiteName    string
}

type Twitter struct {
	Card  string
	Image string
}

// Alternate is one hreflang link.
type Alternate struct {
	Href     string
	Hreflang string
}

type Meta struct {
	Title       string
	Description string
	Canonical   string
	Robots      string
	OG          OpenGraph
	Twitter     Twitter
	Alternates  []Alternate
	JSONLD      []string
}

const siteName = "Life Scientific"

// New fills the common tags for a page at path (which may carry a query). Alternates
// point at the same URL with ?hl=<lang> for every language, plus x-default.
func New(baseURL, path, title, description string, langs []string) Meta {
	canonical := AbsoluteURL(baseURL, path)
	m := Meta{
		Title:       title,
		Description: description,
		Canonical:   canonical,
		OG: OpenGraph{
			Title:       title,
			Description: description,
			Type:        "website",
			URL:         canonical,
			SiteName:    siteName,
		},
		Twitter: Twitter{Card: "summary_large_image"},
	}
	for _, lang := range langs {
		m.Alternates = append(m.Alternates, Alternate{Href: withLang(canonical, lang), Hreflang: lang})
	}
	if len(langs) > 0 {
		m.Alternates = append(m.Alternates, Alternate{Href: canonical, Hreflang: "x-default"})
	}
	return m
}

// WithImage sets the share image on OpenGraph and Twitter.
func (m Meta) WithImage(image string) Meta {
	m.OG.Image = image
	m.Twitter.Image = image
	return m
}

// AddJSONLD appends a serialized schema.org payload, skipping values that fail to encode.
func (m *Meta) AddJSONLD(v any) {
	if s := JSON(v); s != "" {
		m.JSONLD = append(m.JSONLD, s)
	}
}

// AbsoluteURL joins baseURL and path, leaving already absolute URLs alone.
func AbsoluteURL(baseURL, path string) string {
	if strings.HasPrefix(path, "http://") || strings.HasPrefix(path, "https://") {
		return path
	}
	if path == "" {
		path = "/"
	}
	if !strings.HasPrefix(path, "/") {
		path = "/" + path
	}
	return strings.TrimRight(baseURL, "/") + path
}

func withLang(raw, lang string) string {
	u, err := url.Parse(raw)
	if err != nil {
		return raw
	}
	q := u.Query()
	q.Set("hl", lang)
	u.RawQuery = q.Encode()
	return u.String()
}
