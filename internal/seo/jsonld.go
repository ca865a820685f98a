package seo

import (
	"encoding/json"
	"time"

	"lifescientific.com/web/internal/catalog"
)

// JSON marshals v to a compact JSON string. It returns an empty string on error.
func JSON(v any) string {
	b, err := json.Marshal(v)
	if err != nil {
		return ""
	}
	return string(b)
}

// Organization returns a minimal Organization schema.
func Organization(name, url, logoURL string) map[string]any {
	m := map[string]any{
		"@context": "https://schema.org",
		"@type":    "Organization",
		"name":     name,
	}
	if url != "" {
		m["url"] = url
	}
	if logoURL != "" {
		m["logo"] = logoURL
	}
	return m
}

// WebSite returns a WebSite schema whose SearchAction targets the catalog search.
func WebSite(name, url, searchActionURL string) map[string]any {
	m := map[string]any{
		"@context": "https://schema.org",
		"@type":    "WebSite",
		"name":     name,
	}
	if url != "" {
		m["url"] = url
	}
	if searchActionURL != "" {
		m["potentialAction"] = map[string]any{
			"@type":       "SearchAction",
			"target":      searchActionURL + "{search_term_string}",
			"query-input": "required name=search_term_string",
		}
	}
	return m
}

// BreadcrumbItem maps name and absolute item URL.
type BreadcrumbItem struct {
	Name string
	Item string
}

// BreadcrumbList builds schema.org BreadcrumbList.
func BreadcrumbList(items []BreadcrumbItem) map[string]any {
	el := make([]map[string]any, 0, len(items))
	for i, it := range items {
		el = append(el, map[string]any{
			"@type":    "ListItem",
			"position": i + 1,
			"name":     it.Name,
			"item":     it.Item,
		})
	}
	return map[string]any{
		"@context":        "https://schema.org",
		"@type":           "BreadcrumbList",
		"itemListElement": el,
	}
}

// Product describes a crop protection product. Active ingredients and crops are
// exposed as additionalProperty entries since schema.org has no agrochemical type.
func Product(p catalog.Product, url string) map[string]any {
	m := map[string]any{
		"@context": "https://schema.org",
		"@type":    "Product",
		"name":     p.Name,
		"brand":    map[string]any{"@type": "Brand", "name": siteName},
		"category": p.DisplayCategory(),
	}
	if desc := firstNonEmpty(p.Description, p.Tagline); desc != "" {
		m["description"] = desc
	}
	if url != "" {
		m["url"] = url
	}
	if p.ImageURL != "" {
		m["image"] = p.ImageURL
	}
	if p.ID != "" {
		m["sku"] = p.ID
	}
	var props []map[string]any
	for _, name := range p.IngredientNames() {
		props = append(props, map[string]any{"@type": "PropertyValue", "name": "activeIngredient", "value": name})
	}
	for _, crop := range p.CropNames() {
		props = append(props, map[string]any{"@type": "PropertyValue", "name": "crop", "value": crop})
	}
	if len(props) > 0 {
		m["additionalProperty"] = props
	}
	return m
}

// ItemList lists catalog products in display order.
func ItemList(urls []string) map[string]any {
	el := make([]map[string]any, 0, len(urls))
	for i, u := range urls {
		el = append(el, map[string]any{"@type": "ListItem", "position": i + 1, "url": u})
	}
	return map[string]any{
		"@context":        "https://schema.org",
		"@type":           "ItemList",
		"itemListElement": el,
	}
}

// Article returns a minimal Article schema payload.
func Article(headline, url, imageURL, authorName string, published, modified time.Time) map[string]any {
	m := map[string]any{
		"@context": "https://schema.org",
		"@type":    "Article",
		"headline": headline,
	}
	if url != "" {
		m["url"] = url
	}
	if imageURL != "" {
		m["image"] = imageURL
	}
	if authorName != "" {
		m["author"] = map[string]any{"@type": "Person", "name": authorName}
	}
	if !published.IsZero() {
		m["datePublished"] = published.Format(time.RFC3339)
	}
	if !modified.IsZero() {
		m["dateModified"] = modified.Format(time.RFC3339)
	}
	return m
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
