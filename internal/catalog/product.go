// Package catalog holds the product catalog model and the facet filtering used by the
// products page, the JSON API, and catalogctl.
package catalog

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

// Category enumerates the product families shown in the catalog.
type Category string

const (
	CategoryPesticide   Category = "pesticide"
	CategoryHerbicide   Category = "herbicide"
	CategoryFungicide   Category = "fungicide"
	CategoryInsecticide Category = "insecticide"
)

var categoryOrder = []Category{
	CategoryHerbicide,
	CategoryFungicide,
	CategoryInsecticide,
	CategoryPesticide,
}

// Categories returns every known category in display order.
func Categories() []Category {
	out := make([]Category, len(categoryOrder))
	copy(out, categoryOrder)
	return out
}

// ParseCategory maps a raw value onto a known category. Matching ignores case and
// surrounding whitespace.
func ParseCategory(raw string) (Category, bool) {
	raw = strings.ToLower(strings.TrimSpace(raw))
	for _, c := range categoryOrder {
		if string(c) == raw {
			return c, true
		}
	}
	return "", false
}

// Product is a read-only catalog entry as delivered by the CMS.
type Product struct {
	ID             string          `json:"id" yaml:"id"`
	Slug           string          `json:"slug" yaml:"slug"`
	Name           string          `json:"name" yaml:"name"`
	Tagline        string          `json:"tagline,omitempty" yaml:"tagline"`
	Description    string          `json:"description,omitempty" yaml:"description"`
	ImageURL       string          `json:"imageUrl,omitempty" yaml:"image_url"`
	Category       Category        `json:"category" yaml:"category"`
	CategoryLabel  string          `json:"categoryLabel,omitempty" yaml:"category_label"`
	Variants       []Variant       `json:"variants,omitempty" yaml:"variants"`
	SupportedCrops []SupportedCrop `json:"supportedCrops,omitempty" yaml:"supported_crops"`
}

// Variant is a regional or formulation specific version of a product.
type Variant struct {
	Name              string             `json:"name,omitempty" yaml:"name"`
	Region            string             `json:"region,omitempty" yaml:"region"`
	ActiveIngredients []ActiveIngredient `json:"activeIngredients,omitempty" yaml:"active_ingredients"`
}

// ActiveIngredient is one entry of a variant's formulation.
type ActiveIngredient struct {
	Name   string  `json:"name" yaml:"name"`
	Amount float64 `json:"amount,omitempty" yaml:"amount"`
	Unit   string  `json:"unit,omitempty" yaml:"unit"`
}

// SupportedCrop lists a crop the product is registered for, with an optional dosage.
type SupportedCrop struct {
	Crop   string  `json:"crop" yaml:"crop"`
	Dosage *Dosage `json:"dosage,omitempty" yaml:"dosage"`
}

// Dosage is an application rate such as 1.5 L/ha.
type Dosage struct {
	Amount float64 `json:"amount" yaml:"amount"`
	Unit   string  `json:"unit" yaml:"unit"`
}

// DisplayCategory returns the CMS label, falling back to the capitalised category value.
func (p Product) DisplayCategory() string {
	if label := strings.TrimSpace(p.CategoryLabel); label != "" {
		return label
	}
	raw := string(p.Category)
	if raw == "" {
		return ""
	}
	r, size := utf8.DecodeRuneInString(raw)
	return string(unicode.ToUpper(r)) + raw[size:]
}

// CropNames lists the product's crop names in CMS order.
func (p Product) CropNames() []string {
	names := make([]string, 0, len(p.SupportedCrops))
	for _, c := range p.SupportedCrops {
		names = append(names, c.Crop)
	}
	return names
}

// IngredientNames lists active ingredient names across all variants, without duplicates.
func (p Product) IngredientNames() []string {
	seen := map[string]struct{}{}
	var names []string
	for _, v := range p.Variants {
		for _, ai := range v.ActiveIngredients {
			if _, ok := seen[ai.Name]; ok {
				continue
			}
			seen[ai.Name] = struct{}{}
			names = append(names, ai.Name)
		}
	}
	return names
}
