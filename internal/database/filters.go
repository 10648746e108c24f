package database

import (
	"fmt"

	"property-platform/internal/models"
)

// PropertyFilters are the query-builder predicates. An unset field imposes
// no constraint.
type PropertyFilters struct {
	Search        string
	Country       string
	City          string
	Postcode      string
	ListingType   string
	PropertyTypes []string
	MinPrice      *int
	MaxPrice      *int
	Bedrooms      *int
	Statuses      []string
	SortBy        string
	Page          int
	Limit         int
}

// PageResult is the paginated query response shape.
type PageResult struct {
	Data            []models.Property `json:"data"`
	Page            int               `json:"page"`
	Limit           int               `json:"limit"`
	Total           int64             `json:"total"`
	TotalPages      int               `json:"total_pages"`
	HasNextPage     bool              `json:"has_next_page"`
	HasPreviousPage bool              `json:"has_previous_page"`
}

// StoreQueryError wraps a failure of the local store query itself. The
// aggregator surfaces it through the error field of the unified response.
type StoreQueryError struct {
	Op  string
	Err error
}

func (e *StoreQueryError) Error() string {
	return fmt.Sprintf("store query failed (%s): %v", e.Op, e.Err)
}

func (e *StoreQueryError) Unwrap() error {
	return e.Err
}

// orderClause maps a sort parameter to an ORDER BY clause. A stable
// secondary key (created_at DESC, then id) is always appended so pagination
// never reorders ties between pages.
func orderClause(sortBy string) string {
	var primary string
	switch sortBy {
	case "price_asc":
		primary = "price_amount ASC"
	case "price_desc":
		primary = "price_amount DESC"
	case "bedrooms_asc":
		primary = "bedrooms ASC"
	case "bedrooms_desc":
		primary = "bedrooms DESC"
	case "area_asc":
		primary = "area ASC"
	case "area_desc":
		primary = "area DESC"
	case "views_desc":
		primary = "views DESC"
	case "title_asc":
		primary = "title ASC"
	case "created_at_asc":
		primary = "created_at ASC"
	case "", "created_at", "created_at_desc", "newest":
		return "created_at DESC, id ASC"
	default:
		return "created_at DESC, id ASC"
	}
	return primary + ", created_at DESC, id ASC"
}

// normalizePaging applies the pagination defaults.
func normalizePaging(page, limit int) (int, int) {
	if page < 1 {
		page = 1
	}
	if limit <= 0 {
		limit = 20
	}
	return page, limit
}

// totalPages derives the page count from a total and a limit.
func totalPages(total int64, limit int) int {
	if total == 0 {
		return 0
	}
	pages := int(total) / limit
	if int(total)%limit != 0 {
		pages++
	}
	return pages
}
