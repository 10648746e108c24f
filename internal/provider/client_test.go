package provider

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"property-platform/internal/models"
	"property-platform/internal/ratelimit"
)

func listingPayload(status string, count int, n int) map[string]interface{} {
	listings := make([]map[string]interface{}, n)
	for i := 0; i < n; i++ {
		listings[i] = map[string]interface{}{
			"listing_id":          fmt.Sprintf("%s-%d", status, i),
			"listing_status":      status,
			"displayable_address": fmt.Sprintf("%d Test Street", i),
			"price":               float64(1000 * (i + 1)),
		}
	}
	return map[string]interface{}{
		"result_count": count,
		"listing":      listings,
	}
}

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	return NewClient(ClientConfig{
		BaseURL: server.URL,
		APIKey:  "test-key",
		Timeout: 2 * time.Second,
	})
}

func TestFetchListingsValidation(t *testing.T) {
	c := NewClient(ClientConfig{BaseURL: "http://unused", APIKey: "k"})

	_, err := c.FetchListings(context.Background(), SearchCriteria{})

	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "postcode", verr.Field)

	// Latitude alone is not enough.
	lat := 51.5
	_, err = c.FetchListings(context.Background(), SearchCriteria{Latitude: &lat})
	assert.ErrorAs(t, err, &verr)
}

func TestFetchListingsNoCredentialIsDeterministicEmpty(t *testing.T) {
	// No server: the external path must never be attempted.
	c := NewClient(ClientConfig{BaseURL: "http://127.0.0.1:1"})

	result, err := c.FetchListings(context.Background(), SearchCriteria{Postcode: "SW1A"})
	require.NoError(t, err)
	assert.Empty(t, result.Properties)
	assert.Equal(t, 0, result.TotalResults)
}

func TestFetchListingsBothScopesSummed(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		status := r.URL.Query().Get("listing_status")
		switch status {
		case "sale":
			json.NewEncoder(w).Encode(listingPayload("sale", 120, 2))
		case "rent":
			json.NewEncoder(w).Encode(listingPayload("rent", 45, 3))
		default:
			t.Errorf("unexpected listing_status %q", status)
		}
	})

	result, err := c.FetchListings(context.Background(), SearchCriteria{Postcode: "SW1A"})
	require.NoError(t, err)

	assert.Len(t, result.Properties, 5)
	assert.Equal(t, 165, result.TotalResults)
}

func TestFetchListingsPartialFailureDropsScope(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("listing_status") == "sale" {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		json.NewEncoder(w).Encode(listingPayload("rent", 7, 2))
	})

	result, err := c.FetchListings(context.Background(), SearchCriteria{Postcode: "SW1A"})
	require.NoError(t, err)

	assert.Len(t, result.Properties, 2)
	assert.Equal(t, 7, result.TotalResults)
	for _, p := range result.Properties {
		assert.Equal(t, models.ListingRent, p.ListingType)
	}
}

func TestFetchListingsScopeOverridesRecordVocabulary(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		// Provider reports "let" per record even for the rent scope.
		payload := listingPayload("let", 1, 1)
		json.NewEncoder(w).Encode(payload)
	})

	result, err := c.FetchListings(context.Background(), SearchCriteria{
		Postcode:    "SW1A",
		ListingType: "rent",
	})
	require.NoError(t, err)

	require.Len(t, result.Properties, 1)
	assert.Equal(t, models.ListingRent, result.Properties[0].ListingType)
	assert.Equal(t, models.PeriodMonthly, result.Properties[0].Price.Period)
}

func TestFetchListingsSingleScopeRequestedOnce(t *testing.T) {
	var requests int
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		requests++
		assert.Equal(t, "sale", r.URL.Query().Get("listing_status"))
		json.NewEncoder(w).Encode(listingPayload("sale", 1, 1))
	})

	_, err := c.FetchListings(context.Background(), SearchCriteria{
		Postcode:    "SW1A",
		ListingType: "sale",
	})
	require.NoError(t, err)
	assert.Equal(t, 1, requests)
}

func TestFetchListingsTimeoutDropsScope(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("listing_status") == "sale" {
			time.Sleep(300 * time.Millisecond)
		}
		json.NewEncoder(w).Encode(listingPayload(r.URL.Query().Get("listing_status"), 3, 1))
	}))
	defer server.Close()

	c := NewClient(ClientConfig{
		BaseURL: server.URL,
		APIKey:  "test-key",
		Timeout: 50 * time.Millisecond,
	})

	result, err := c.FetchListings(context.Background(), SearchCriteria{Postcode: "SW1A"})
	require.NoError(t, err)

	// The slow sale scope is dropped, the rent scope survives.
	require.Len(t, result.Properties, 1)
	assert.Equal(t, models.ListingRent, result.Properties[0].ListingType)
	assert.Equal(t, 3, result.TotalResults)
}

func TestFetchListingsQuotaExhaustedDropsScope(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(listingPayload(r.URL.Query().Get("listing_status"), 1, 1))
	}))
	defer server.Close()

	c := NewClient(ClientConfig{
		BaseURL: server.URL,
		APIKey:  "test-key",
		Limiter: ratelimit.NewLimiter(1, 0, true),
	})

	result, err := c.FetchListings(context.Background(), SearchCriteria{Postcode: "SW1A"})
	require.NoError(t, err)

	// Only one of the two sub-requests fits inside the quota.
	assert.Len(t, result.Properties, 1)
}

func TestListingsURLParameters(t *testing.T) {
	var got string
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		got = r.URL.String()
		json.NewEncoder(w).Encode(listingPayload("sale", 0, 0))
	})

	minPrice, maxPrice, beds := 100000, 500000, 3
	_, err := c.FetchListings(context.Background(), SearchCriteria{
		Postcode:    "OX1",
		Radius:      0.5,
		ListingType: "sale",
		MinPrice:    &minPrice,
		MaxPrice:    &maxPrice,
		Bedrooms:    &beds,
		Page:        2,
		PageSize:    10,
	})
	require.NoError(t, err)

	assert.Contains(t, got, "postcode=OX1")
	assert.Contains(t, got, "radius=0.5")
	assert.Contains(t, got, "minimum_price=100000")
	assert.Contains(t, got, "maximum_price=500000")
	assert.Contains(t, got, "minimum_beds=3")
	assert.Contains(t, got, "page=2")
	assert.Contains(t, got, "page_size=10")
	assert.Contains(t, got, "api_key=test-key")
}

func TestSourceErrorTypes(t *testing.T) {
	timeoutErr := &SourceTimeoutError{Scope: "rent"}
	assert.Contains(t, timeoutErr.Error(), "rent")

	wrapped := errors.New("connection refused")
	unavailable := &SourceUnavailableError{Scope: "sale", Err: wrapped}
	assert.ErrorIs(t, unavailable, wrapped)

	quota := &QuotaExceededError{Scope: "sale"}
	assert.Contains(t, quota.Error(), "quota")
}
