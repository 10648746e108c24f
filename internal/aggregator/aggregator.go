package aggregator

import (
	"context"
	"errors"
	"log"

	"property-platform/internal/database"
	"property-platform/internal/models"
	"property-platform/internal/provider"
)

// ListingSource is the external provider boundary.
type ListingSource interface {
	FetchListings(ctx context.Context, criteria provider.SearchCriteria) (*provider.FetchResult, error)
}

// LocalStore is the fallback query boundary.
type LocalStore interface {
	QueryProperties(filters database.PropertyFilters) (*database.PageResult, error)
}

// Aggregator orchestrates "try external, else local" and produces one
// unified response shape. Each Search call is independent; concurrent
// invocations share no mutable state.
type Aggregator struct {
	source        ListingSource
	store         LocalStore
	hasCredential bool
	country       string
	pageSize      int
}

// Config configures an Aggregator.
type Config struct {
	HasCredential bool
	Country       string
	PageSize      int
}

func New(source ListingSource, store LocalStore, cfg Config) *Aggregator {
	pageSize := cfg.PageSize
	if pageSize <= 0 {
		pageSize = 20
	}
	return &Aggregator{
		source:        source,
		store:         store,
		hasCredential: cfg.HasCredential,
		country:       cfg.Country,
		pageSize:      pageSize,
	}
}

// ErrorDescriptor communicates degradation without throwing.
type ErrorDescriptor struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// Result is the unified search response. It is always well-formed: a failed
// fallback populates Error and leaves Properties empty, it never panics or
// returns a Go error to the caller.
type Result struct {
	Source       string            `json:"source"`
	FallbackUsed bool              `json:"fallbackUsed"`
	Properties   []models.Property `json:"properties"`
	TotalResults int               `json:"totalResults"`
	Page         int               `json:"page"`
	TotalPages   int               `json:"totalPages"`
	Error        *ErrorDescriptor  `json:"error"`
}

// Search resolves a property search: the external path is attempted only
// when a credential is configured, and the local store serves every search
// the external path skipped, failed, or returned empty for.
func (a *Aggregator) Search(ctx context.Context, criteria provider.SearchCriteria) *Result {
	page := criteria.Page
	if page < 1 {
		page = 1
	}
	pageSize := criteria.PageSize
	if pageSize <= 0 {
		pageSize = a.pageSize
	}

	if a.hasCredential {
		fetched, err := a.source.FetchListings(ctx, criteria)
		if err != nil {
			var vErr *provider.ValidationError
			if errors.As(err, &vErr) {
				log.Printf("[Aggregator] External path skipped: %v", err)
			} else {
				log.Printf("[Aggregator] External fetch failed: %v", err)
			}
		} else if len(fetched.Properties) > 0 {
			return &Result{
				Source:       "external",
				FallbackUsed: false,
				Properties:   fetched.Properties,
				TotalResults: fetched.TotalResults,
				Page:         page,
				TotalPages:   pageCount(fetched.TotalResults, pageSize),
				Error:        nil,
			}
		}
	}

	return a.fallback(criteria, page, pageSize)
}

// fallback translates the search criteria into local store predicates and
// executes the query. A store failure still yields a well-formed result.
func (a *Aggregator) fallback(criteria provider.SearchCriteria, page, pageSize int) *Result {
	filters := database.PropertyFilters{
		City:     criteria.City,
		Postcode: criteria.Postcode,
		Country:  a.country,
		MinPrice: criteria.MinPrice,
		MaxPrice: criteria.MaxPrice,
		Bedrooms: criteria.Bedrooms,
		Page:     page,
		Limit:    pageSize,
	}
	if criteria.ListingType != "" && criteria.ListingType != "both" {
		filters.ListingType = criteria.ListingType
	}

	result, err := a.store.QueryProperties(filters)
	if err != nil {
		log.Printf("[Aggregator] Fallback query failed: %v", err)
		return &Result{
			Source:       "local",
			FallbackUsed: true,
			Properties:   []models.Property{},
			TotalResults: 0,
			Page:         page,
			TotalPages:   0,
			Error: &ErrorDescriptor{
				Code:    "store_query_error",
				Message: err.Error(),
			},
		}
	}

	return &Result{
		Source:       "local",
		FallbackUsed: true,
		Properties:   result.Data,
		TotalResults: int(result.Total),
		Page:         result.Page,
		TotalPages:   result.TotalPages,
		Error:        nil,
	}
}

func pageCount(total, pageSize int) int {
	if total <= 0 {
		return 0
	}
	pages := total / pageSize
	if total%pageSize != 0 {
		pages++
	}
	return pages
}
