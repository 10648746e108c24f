package search

import (
	"fmt"
	"strings"

	"github.com/meilisearch/meilisearch-go"

	"property-platform/internal/models"
)

type FilterParams struct {
	Query        string
	MinPrice     *int
	MaxPrice     *int
	ListingType  string
	PropertyType []string
	MinBedrooms  *int
	SortBy       string
	Limit        int64
}

// FilterSearch performs advanced search with filters
func (s *SearchClient) FilterSearch(params FilterParams) ([]models.Property, error) {
	searchRes, err := s.client.Index(s.index).Search(params.Query, buildSearchRequest(params))
	if err != nil {
		return nil, err
	}

	return hitsToProperties(searchRes.Hits), nil
}

// buildSearchRequest translates filter params into a Meilisearch request.
func buildSearchRequest(params FilterParams) *meilisearch.SearchRequest {
	var filters []string

	// Only visible records are ever searchable
	filters = append(filters, "(status = 'online' OR status = 'active')")

	// Price range filter
	if params.MinPrice != nil {
		filters = append(filters, fmt.Sprintf("price.amount >= %d", *params.MinPrice))
	}
	if params.MaxPrice != nil {
		filters = append(filters, fmt.Sprintf("price.amount <= %d", *params.MaxPrice))
	}

	// Listing type filter
	if params.ListingType != "" {
		filters = append(filters, fmt.Sprintf("listing_type = '%s'", params.ListingType))
	}

	// Property type filter
	if len(params.PropertyType) > 0 {
		typeFilters := make([]string, len(params.PropertyType))
		for i, t := range params.PropertyType {
			typeFilters[i] = fmt.Sprintf("property_type = '%s'", t)
		}
		filters = append(filters, fmt.Sprintf("(%s)", strings.Join(typeFilters, " OR ")))
	}

	// Bedrooms filter
	if params.MinBedrooms != nil {
		filters = append(filters, fmt.Sprintf("bedrooms >= %d", *params.MinBedrooms))
	}

	// Determine sort order
	var sort []string
	switch params.SortBy {
	case "price_asc":
		sort = []string{"price.amount:asc"}
	case "price_desc":
		sort = []string{"price.amount:desc"}
	case "bedrooms_desc":
		sort = []string{"bedrooms:desc"}
	case "views_desc":
		sort = []string{"analytics.views:desc"}
	case "newest":
		sort = []string{"created_at:desc"}
	}

	// Default limit
	limit := params.Limit
	if limit == 0 {
		limit = 20
	}

	searchReq := &meilisearch.SearchRequest{
		Limit:  limit,
		Filter: strings.Join(filters, " AND "),
	}
	if len(sort) > 0 {
		searchReq.Sort = sort
	}

	return searchReq
}
