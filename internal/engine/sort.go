package engine

import (
	"sort"
	"strings"

	"property-platform/internal/models"
)

// SortField is one of the sortable canonical fields.
type SortField string

const (
	SortCreatedAt SortField = "created_at"
	SortPrice     SortField = "price"
	SortArea      SortField = "area"
	SortBedrooms  SortField = "bedrooms"
	SortViews     SortField = "views"
	SortTitle     SortField = "title"
)

// SortOrder is asc or desc.
type SortOrder string

const (
	OrderAsc  SortOrder = "asc"
	OrderDesc SortOrder = "desc"
)

// SortSpec is a total order over the filtered view.
type SortSpec struct {
	Field SortField `json:"field"`
	Order SortOrder `json:"order"`
}

// sortProperties orders the slice by the spec. Ties are always broken by id
// ascending, so identical input yields identical output on every call.
func sortProperties(properties []models.Property, spec SortSpec) {
	sort.Slice(properties, func(i, j int) bool {
		a, b := &properties[i], &properties[j]

		cmp := compareField(a, b, spec.Field)
		if cmp == 0 {
			return a.ID < b.ID
		}
		if spec.Order == OrderDesc {
			return cmp > 0
		}
		return cmp < 0
	})
}

// compareField returns -1/0/1 for a vs b on the given field. String fields
// compare lexicographically, numeric and date fields numerically.
func compareField(a, b *models.Property, field SortField) int {
	switch field {
	case SortPrice:
		return compareFloat(a.Price.Amount, b.Price.Amount)
	case SortArea:
		return compareFloat(a.Area, b.Area)
	case SortBedrooms:
		return compareFloat(float64(a.Bedrooms), float64(b.Bedrooms))
	case SortViews:
		return compareFloat(float64(a.Analytics.Views), float64(b.Analytics.Views))
	case SortTitle:
		return strings.Compare(a.Title, b.Title)
	default:
		// created_at and anything unrecognized: chronological
		if a.CreatedAt.Equal(b.CreatedAt) {
			return 0
		}
		if a.CreatedAt.Before(b.CreatedAt) {
			return -1
		}
		return 1
	}
}

func compareFloat(a, b float64) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	default:
		return 0
	}
}
