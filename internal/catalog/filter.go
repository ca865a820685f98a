package catalog

import (
	"strings"

	"golang.org/x/text/unicode/norm"
)

// Filter returns the products matching every constraint in state, in input order.
// Empty constraints match everything. The input slice is never modified.
func Filter(products []Product, state FilterState) []Product {
	search := Normalize(state.SearchText)
	crops := make(map[string]struct{}, len(state.SelectedCrops))
	for _, c := range state.SelectedCrops {
		crops[c] = struct{}{}
	}

	out := make([]Product, 0, len(products))
	for _, p := range products {
		if search != "" && !matchesText(p, search) {
			continue
		}
		if state.ActiveCategory != "" && p.Category != state.ActiveCategory {
			continue
		}
		if len(crops) > 0 && !matchesCrop(p, crops) {
			continue
		}
		out = append(out, p)
	}
	return out
}

// UniqueCrops returns the distinct crop names across products in order of first appearance.
func UniqueCrops(products []Product) []string {
	seen := map[string]struct{}{}
	out := []string{}
	for _, p := range products {
		for _, c := range p.SupportedCrops {
			if c.Crop == "" {
				continue
			}
			if _, ok := seen[c.Crop]; ok {
				continue
			}
			seen[c.Crop] = struct{}{}
			out = append(out, c.Crop)
		}
	}
	return out
}

// CategoryCounts reports how many products fall into each category.
func CategoryCounts(products []Product) map[Category]int {
	counts := make(map[Category]int, len(categoryOrder))
	for _, p := range products {
		if p.Category == "" {
			continue
		}
		counts[p.Category]++
	}
	return counts
}

// Normalize folds text for case-insensitive substring matching. Whitespace is kept as
// given; callers trim user input at the edge.
func Normalize(s string) string {
	if s == "" {
		return ""
	}
	return strings.ToLower(norm.NFKC.String(s))
}

func matchesText(p Product, needle string) bool {
	if strings.Contains(Normalize(p.Name), needle) || strings.Contains(Normalize(p.Tagline), needle) {
		return true
	}
	for _, c := range p.SupportedCrops {
		if strings.Contains(Normalize(c.Crop), needle) {
			return true
		}
	}
	for _, v := range p.Variants {
		for _, ai := range v.ActiveIngredients {
			if strings.Contains(Normalize(ai.Name), needle) {
				return true
			}
		}
	}
	return false
}

func matchesCrop(p Product, selected map[string]struct{}) bool {
	for _, c := range p.SupportedCrops {
		if _, ok := selected[c.Crop]; ok {
			return true
		}
	}
	return false
}
