package cms

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"lifescientific.com/web/internal/catalog"
)

type localCatalog struct {
	Products []catalog.Product `yaml:"products"`
}

// ListProducts returns the localized product catalog. It never fails: remote errors fall
// back to local content, and missing local content yields an empty list.
func (c *Client) ListProducts(ctx context.Context, lang string) ([]catalog.Product, error) {
	lang = normalizeLang(lang)
	products, err := cached(ctx, c, cacheKey("products", lang), func(ctx context.Context) ([]catalog.Product, bool, error) {
		products, degraded := c.fetchProducts(ctx, lang)
		return products, degraded, nil
	})
	if err != nil {
		c.logger.Warn("cms products cache failed", zap.Error(err))
		products, _ = c.fetchProducts(ctx, lang)
	}
	if products == nil {
		products = []catalog.Product{}
	}
	return products, nil
}

// GetProduct retrieves a single localized product by slug.
func (c *Client) GetProduct(ctx context.Context, slug, lang string) (catalog.Product, error) {
	slug = sanitizeSlug(slug)
	if slug == "" {
		return catalog.Product{}, ErrNotFound
	}
	lang = normalizeLang(lang)
	return cached(ctx, c, cacheKey("product", lang, slug), func(ctx context.Context) (catalog.Product, bool, error) {
		degraded := false
		if c.Remote() {
			var p catalog.Product
			err := c.query(ctx, "product", productBySlugQuery, map[string]string{"lang": lang, "slug": slug}, &p)
			if err == nil {
				return p, false, nil
			}
			if !errors.Is(err, ErrNotFound) {
				degraded = true
				c.logFallback("product", err, zap.String("slug", slug))
			}
		}
		for _, p := range c.localProducts(lang) {
			if strings.EqualFold(p.Slug, slug) {
				return p, degraded, nil
			}
		}
		return catalog.Product{}, false, ErrNotFound
	})
}

// fetchProducts reports degraded when a remote query failed and local content was used.
func (c *Client) fetchProducts(ctx context.Context, lang string) ([]catalog.Product, bool) {
	if c.Remote() {
		var products []catalog.Product
		err := c.query(ctx, "products", productsQuery, map[string]string{"lang": lang}, &products)
		if err == nil && len(products) > 0 {
			return products, false
		}
		c.logFallback("products", err, zap.String("lang", lang))
		return c.localProducts(lang), err != nil
	}
	return c.localProducts(lang), false
}

func (c *Client) localProducts(lang string) []catalog.Product {
	for _, candidate := range langCandidates(lang) {
		products, err := readLocalProducts(c.ContentDir(), candidate)
		if err == nil {
			return products
		}
		if !errors.Is(err, os.ErrNotExist) {
			c.logger.Warn("cms local products unreadable", zap.String("lang", candidate), zap.Error(err))
		}
	}
	return []catalog.Product{}
}

// ReadProductsFile loads a catalog export in the local YAML layout.
func ReadProductsFile(path string) ([]catalog.Product, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var doc localCatalog
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("cms: parse products %s: %w", path, err)
	}
	products := doc.Products
	if products == nil {
		products = []catalog.Product{}
	}
	for i := range products {
		if products[i].ID == "" {
			products[i].ID = products[i].Slug
		}
	}
	return products, nil
}

func readLocalProducts(contentDir, lang string) ([]catalog.Product, error) {
	return ReadProductsFile(filepath.Join(contentDir, "products", lang+".yaml"))
}
