package catalog

import (
	"net/url"
	"strings"
)

// Query parameter names shared by the catalog page, its fragments, and the JSON API.
const (
	ParamSearch   = "q"
	ParamCategory = "category"
	ParamCrop     = "crop"
	ParamView     = "view"
)

// FilterState is the set of facets a visitor has chosen. The zero value matches everything.
type FilterState struct {
	SearchText     string
	ActiveCategory Category
	SelectedCrops  []string
}

// ParseFilterState builds a FilterState from query values. Unknown categories are dropped
// and duplicate or blank crops are ignored, so every query yields a usable state.
func ParseFilterState(q url.Values) FilterState {
	state := FilterState{
		SearchText: strings.TrimSpace(q.Get(ParamSearch)),
	}
	if c, ok := ParseCategory(q.Get(ParamCategory)); ok {
		state.ActiveCategory = c
	}
	seen := map[string]struct{}{}
	for _, raw := range q[ParamCrop] {
		// accept both repeated params and comma separated lists
		for _, crop := range strings.Split(raw, ",") {
			crop = strings.TrimSpace(crop)
			if crop == "" {
				continue
			}
			if _, ok := seen[crop]; ok {
				continue
			}
			seen[crop] = struct{}{}
			state.SelectedCrops = append(state.SelectedCrops, crop)
		}
	}
	return state
}

// Values encodes the state back into query values.
func (s FilterState) Values() url.Values {
	q := url.Values{}
	if s.SearchText != "" {
		q.Set(ParamSearch, s.SearchText)
	}
	if s.ActiveCategory != "" {
		q.Set(ParamCategory, string(s.ActiveCategory))
	}
	for _, c := range s.SelectedCrops {
		q.Add(ParamCrop, c)
	}
	return q
}

// IsZero reports whether no facet is active.
func (s FilterState) IsZero() bool {
	return s.SearchText == "" && s.ActiveCategory == "" && len(s.SelectedCrops) == 0
}

// HasCrop reports whether crop is part of the selection.
func (s FilterState) HasCrop(crop string) bool {
	for _, c := range s.SelectedCrops {
		if c == crop {
			return true
		}
	}
	return false
}

// WithCategory returns a copy of the state with the category replaced. An empty
// category clears the facet.
func (s FilterState) WithCategory(c Category) FilterState {
	out := s.clone()
	out.ActiveCategory = c
	return out
}

// ToggleCrop returns a copy of the state with crop added or removed.
func (s FilterState) ToggleCrop(crop string) FilterState {
	out := s.clone()
	if s.HasCrop(crop) {
		kept := make([]string, 0, len(out.SelectedCrops))
		for _, c := range out.SelectedCrops {
			if c != crop {
				kept = append(kept, c)
			}
		}
		out.SelectedCrops = kept
		return out
	}
	out.SelectedCrops = append(out.SelectedCrops, crop)
	return out
}

func (s FilterState) clone() FilterState {
	out := s
	if s.SelectedCrops != nil {
		out.SelectedCrops = append([]string(nil), s.SelectedCrops...)
	}
	return out
}

// ViewMode selects how results are presented. It never affects which products match.
type ViewMode string

const (
	ViewGrid  ViewMode = "grid"
	ViewTable ViewMode = "table"
)

// ParseViewMode maps a raw value to a ViewMode, defaulting to grid.
func ParseViewMode(raw string) ViewMode {
	switch ViewMode(strings.ToLower(strings.TrimSpace(raw))) {
	case ViewTable:
		return ViewTable
	default:
		return ViewGrid
	}
}

// Toggle returns the other view mode.
func (v ViewMode) Toggle() ViewMode {
	if v == ViewTable {
		return ViewGrid
	}
	return ViewTable
}
