package provider

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"strconv"
	"sync"
	"time"

	"property-platform/internal/models"
	"property-platform/internal/ratelimit"
)

// Client talks to the external listings provider. It is stateless: each
// FetchListings call is independent, with no shared mutable state beyond
// the underlying http.Client and the quota limiter.
type Client struct {
	client   *http.Client
	baseURL  string
	apiKey   string
	timeout  time.Duration
	pageSize int
	limiter  *ratelimit.Limiter
}

// ClientConfig configures a provider client. Limiter may be nil, which
// disables quota enforcement.
type ClientConfig struct {
	BaseURL  string
	APIKey   string
	Timeout  time.Duration
	PageSize int
	Limiter  *ratelimit.Limiter
}

// NewClient creates a provider client. An empty APIKey is valid and makes
// every fetch return an empty result deterministically.
func NewClient(cfg ClientConfig) *Client {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	pageSize := cfg.PageSize
	if pageSize <= 0 {
		pageSize = 20
	}

	return &Client{
		client:   &http.Client{},
		baseURL:  cfg.BaseURL,
		apiKey:   cfg.APIKey,
		timeout:  timeout,
		pageSize: pageSize,
		limiter:  cfg.Limiter,
	}
}

// QuotaUsage reports the provider request quota consumption.
func (c *Client) QuotaUsage() ratelimit.Snapshot {
	return c.limiter.Usage()
}

// SearchCriteria describes one global property search.
type SearchCriteria struct {
	Postcode    string
	City        string
	Latitude    *float64
	Longitude   *float64
	Radius      float64
	ListingType string // "sale", "rent" or "both" (default)
	MinPrice    *int
	MaxPrice    *int
	Bedrooms    *int
	Page        int
	PageSize    int
}

// FetchResult is the outcome of one FetchListings call. TotalResults is the
// sum of each sub-request's server-reported count.
type FetchResult struct {
	Properties   []models.Property
	TotalResults int
}

// listingsResponse is the provider's wire shape.
type listingsResponse struct {
	ResultCount int                      `json:"result_count"`
	Listing     []map[string]interface{} `json:"listing"`
}

type scopeResult struct {
	properties []models.Property
	count      int
	err        error
}

// FetchListings resolves a search against the external provider. For the
// "both" scope it issues one sub-request per concrete listing type, each
// under its own timeout; a failed sub-request is dropped (logged) and the
// call returns whatever siblings succeeded. Partial success is a valid,
// non-error outcome.
func (c *Client) FetchListings(ctx context.Context, criteria SearchCriteria) (*FetchResult, error) {
	if criteria.Postcode == "" && (criteria.Latitude == nil || criteria.Longitude == nil) {
		return nil, &ValidationError{
			Field:  "postcode",
			Reason: "either postcode or both latitude and longitude are required",
		}
	}

	// No credential: the external path is never attempted. This is the
	// fallback trigger, not an error.
	if c.apiKey == "" {
		return &FetchResult{Properties: []models.Property{}}, nil
	}

	scopes := []models.ListingType{models.ListingSale, models.ListingRent}
	switch criteria.ListingType {
	case string(models.ListingSale):
		scopes = []models.ListingType{models.ListingSale}
	case string(models.ListingRent):
		scopes = []models.ListingType{models.ListingRent}
	}

	results := make([]scopeResult, len(scopes))
	var wg sync.WaitGroup
	for i, scope := range scopes {
		wg.Add(1)
		go func(i int, scope models.ListingType) {
			defer wg.Done()
			props, count, err := c.fetchScope(ctx, criteria, scope)
			results[i] = scopeResult{properties: props, count: count, err: err}
		}(i, scope)
	}
	wg.Wait()

	result := &FetchResult{Properties: []models.Property{}}
	for i, scope := range scopes {
		if err := results[i].err; err != nil {
			log.Printf("[Provider] Dropping failed sub-request (scope: %s): %v", scope, err)
			continue
		}
		result.Properties = append(result.Properties, results[i].properties...)
		result.TotalResults += results[i].count
	}

	return result, nil
}

// fetchScope issues one sub-request for a concrete listing type under an
// independent timeout. Cancellation affects only this sub-request.
func (c *Client) fetchScope(ctx context.Context, criteria SearchCriteria, scope models.ListingType) ([]models.Property, int, error) {
	if !c.limiter.Allow() {
		return nil, 0, &QuotaExceededError{Scope: string(scope)}
	}

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.listingsURL(criteria, scope), nil)
	if err != nil {
		return nil, 0, err
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return nil, 0, &SourceTimeoutError{Scope: string(scope)}
		}
		return nil, 0, &SourceUnavailableError{Scope: string(scope), Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		io.Copy(io.Discard, resp.Body)
		return nil, 0, &SourceUnavailableError{Scope: string(scope), StatusCode: resp.StatusCode}
	}

	var payload listingsResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, 0, &SourceUnavailableError{Scope: string(scope), Err: fmt.Errorf("decode response: %w", err)}
	}

	properties := NormalizeBatch(payload.Listing)

	// The sub-request was scoped to one listing type; enforce it on every
	// record regardless of the provider's per-record vocabulary.
	for i := range properties {
		properties[i].ListingType = scope
		properties[i].Price.Period = pricePeriod(scope)
	}

	return properties, payload.ResultCount, nil
}

// listingsURL builds the provider query URL for one listing-type scope.
func (c *Client) listingsURL(criteria SearchCriteria, scope models.ListingType) string {
	q := url.Values{}
	q.Set("api_key", c.apiKey)
	q.Set("listing_status", string(scope))

	if criteria.Postcode != "" {
		q.Set("postcode", criteria.Postcode)
	} else {
		q.Set("latitude", strconv.FormatFloat(*criteria.Latitude, 'f', -1, 64))
		q.Set("longitude", strconv.FormatFloat(*criteria.Longitude, 'f', -1, 64))
	}
	if criteria.Radius > 0 {
		q.Set("radius", strconv.FormatFloat(criteria.Radius, 'f', -1, 64))
	}
	if criteria.MinPrice != nil {
		q.Set("minimum_price", strconv.Itoa(*criteria.MinPrice))
	}
	if criteria.MaxPrice != nil {
		q.Set("maximum_price", strconv.Itoa(*criteria.MaxPrice))
	}
	if criteria.Bedrooms != nil {
		q.Set("minimum_beds", strconv.Itoa(*criteria.Bedrooms))
	}

	page := criteria.Page
	if page < 1 {
		page = 1
	}
	pageSize := criteria.PageSize
	if pageSize <= 0 {
		pageSize = c.pageSize
	}
	q.Set("page", strconv.Itoa(page))
	q.Set("page_size", strconv.Itoa(pageSize))

	return c.baseURL + "/property_listings.json?" + q.Encode()
}
