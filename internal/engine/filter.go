package engine

import (
	"strings"

	"property-platform/internal/models"
)

// FilterState is the set of active search predicates. An unset field
// imposes no constraint: filters are open, not exclusionary-by-default.
type FilterState struct {
	Search        string
	Location      string
	ListingType   string
	PropertyTypes []string
	PriceMin      *float64
	PriceMax      *float64
	BedroomsMin   *int
	BathroomsMin  *int
	Statuses      []string
}

// FilterPatch is a partial filter update. Nil fields leave the current
// value unchanged; a pointer to the zero value clears the predicate.
type FilterPatch struct {
	Search        *string
	Location      *string
	ListingType   *string
	PropertyTypes *[]string
	PriceMin      *float64
	PriceMax      *float64
	BedroomsMin   *int
	BathroomsMin  *int
	Statuses      *[]string
}

func (f *FilterState) apply(patch FilterPatch) {
	if patch.Search != nil {
		f.Search = *patch.Search
	}
	if patch.Location != nil {
		f.Location = *patch.Location
	}
	if patch.ListingType != nil {
		f.ListingType = *patch.ListingType
	}
	if patch.PropertyTypes != nil {
		f.PropertyTypes = *patch.PropertyTypes
	}
	if patch.PriceMin != nil {
		f.PriceMin = patch.PriceMin
	}
	if patch.PriceMax != nil {
		f.PriceMax = patch.PriceMax
	}
	if patch.BedroomsMin != nil {
		f.BedroomsMin = patch.BedroomsMin
	}
	if patch.BathroomsMin != nil {
		f.BathroomsMin = patch.BathroomsMin
	}
	if patch.Statuses != nil {
		f.Statuses = *patch.Statuses
	}
}

// matches evaluates the conjunction of all active predicates.
func (f *FilterState) matches(p *models.Property) bool {
	if f.Search != "" && !matchesSearch(p, f.Search) {
		return false
	}
	if f.Location != "" && !matchesLocation(p, f.Location) {
		return false
	}
	if f.ListingType != "" && string(p.ListingType) != f.ListingType {
		return false
	}
	if len(f.PropertyTypes) > 0 && !containsFold(f.PropertyTypes, p.PropertyType) {
		return false
	}
	if f.PriceMin != nil && p.Price.Amount < *f.PriceMin {
		return false
	}
	if f.PriceMax != nil && p.Price.Amount > *f.PriceMax {
		return false
	}
	if f.BedroomsMin != nil && p.Bedrooms < *f.BedroomsMin {
		return false
	}
	if f.BathroomsMin != nil && p.Bathrooms < *f.BathroomsMin {
		return false
	}
	if len(f.Statuses) > 0 && !containsFold(f.Statuses, string(p.Status)) {
		return false
	}
	return true
}

// matchesSearch is a case-insensitive substring match across title, address
// and city.
func matchesSearch(p *models.Property, term string) bool {
	term = strings.ToLower(term)
	return strings.Contains(strings.ToLower(p.Title), term) ||
		strings.Contains(strings.ToLower(p.Location.AddressLine1), term) ||
		strings.Contains(strings.ToLower(p.Location.City), term)
}

func matchesLocation(p *models.Property, term string) bool {
	term = strings.ToLower(term)
	return strings.Contains(strings.ToLower(p.Location.City), term) ||
		strings.Contains(strings.ToLower(p.Location.Postcode), term) ||
		strings.Contains(strings.ToLower(p.Location.AddressLine1), term)
}

func containsFold(haystack []string, needle string) bool {
	for _, s := range haystack {
		if strings.EqualFold(s, needle) {
			return true
		}
	}
	return false
}
