package provider

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"property-platform/internal/models"
)

func rawListing() map[string]interface{} {
	return map[string]interface{}{
		"listing_id":           float64(49811237),
		"listing_status":       "rent",
		"displayable_address":  "10 Downing Street, Westminster",
		"description":          "Spacious flat close to the river.",
		"price":                "1,850",
		"property_type":        "Flat",
		"num_bedrooms":         float64(2),
		"num_bathrooms":        float64(1),
		"floor_area":           64.2,
		"post_town":            "London",
		"outcode":              "SW1A",
		"country":              "United Kingdom",
		"latitude":             51.5034,
		"longitude":            -0.1276,
		"agent_name":           "Westminster Lettings",
		"image_urls":           []interface{}{"https://img.example.com/a.jpg", "https://img.example.com/b.jpg"},
		"first_published_date": "2026-01-20 08:15:00",
	}
}

func TestNormalizeProviderRecord(t *testing.T) {
	p := Normalize(rawListing())
	require.NotNil(t, p)

	assert.Equal(t, "external_49811237", p.ID)
	assert.Equal(t, models.SourceExternal, p.Source)
	assert.Equal(t, "49811237", p.ExternalRef)
	assert.Equal(t, "10 Downing Street, Westminster", p.Title)
	assert.Equal(t, models.ListingRent, p.ListingType)
	assert.Equal(t, 1850.0, p.Price.Amount)
	assert.Equal(t, "GBP", p.Price.Currency)
	assert.Equal(t, models.PeriodMonthly, p.Price.Period)
	assert.Equal(t, models.PropertyStatusOnline, p.Status)
	assert.Equal(t, 2, p.Bedrooms)
	assert.Equal(t, 64.2, p.Area)
	assert.Equal(t, "London", p.Location.City)
	assert.Equal(t, "SW1A", p.Location.Postcode)
	require.NotNil(t, p.Location.Latitude)
	assert.InDelta(t, 51.5034, *p.Location.Latitude, 0.0001)
	assert.Equal(t, []string{"https://img.example.com/a.jpg", "https://img.example.com/b.jpg"}, p.Media.Images)
	assert.Equal(t, time.Date(2026, 1, 20, 8, 15, 0, 0, time.UTC), p.CreatedAt)
}

func TestNormalizeIsIdempotent(t *testing.T) {
	first := Normalize(rawListing())
	require.NotNil(t, first)

	// Feed the canonical record back in as a loose map.
	data, err := json.Marshal(first)
	require.NoError(t, err)
	var round map[string]interface{}
	require.NoError(t, json.Unmarshal(data, &round))

	second := Normalize(round)
	require.NotNil(t, second)
	assert.Equal(t, first, second)
}

func TestNormalizeDropsRecordWithoutIdentifier(t *testing.T) {
	assert.Nil(t, Normalize(map[string]interface{}{
		"displayable_address": "Somewhere",
		"price":               float64(100000),
	}))
}

func TestNormalizeIdentifierFallsBackToID(t *testing.T) {
	p := Normalize(map[string]interface{}{"id": "abc-123"})
	require.NotNil(t, p)
	assert.Equal(t, "external_abc-123", p.ID)
	assert.Equal(t, "abc-123", p.ExternalRef)
}

func TestNormalizeTitleFallbackChain(t *testing.T) {
	p := Normalize(map[string]interface{}{
		"listing_id":        "1",
		"short_description": "Charming cottage",
	})
	require.NotNil(t, p)
	assert.Equal(t, "Charming cottage", p.Title)

	p = Normalize(map[string]interface{}{"listing_id": "2"})
	require.NotNil(t, p)
	assert.Equal(t, "Property", p.Title)
}

func TestNormalizeSingleImageString(t *testing.T) {
	p := Normalize(map[string]interface{}{
		"listing_id": "3",
		"image_url":  "https://img.example.com/only.jpg",
	})
	require.NotNil(t, p)
	assert.Equal(t, []string{"https://img.example.com/only.jpg"}, p.Media.Images)
}

func TestNormalizeMalformedFieldsDegradeToZero(t *testing.T) {
	p := Normalize(map[string]interface{}{
		"listing_id":    "4",
		"price":         "not a number",
		"num_bedrooms":  "many",
		"num_bathrooms": float64(-2),
		"latitude":      "garbage",
	})
	require.NotNil(t, p)
	assert.Equal(t, 0.0, p.Price.Amount)
	assert.Equal(t, 0, p.Bedrooms)
	assert.Equal(t, 0, p.Bathrooms)
	assert.Nil(t, p.Location.Latitude)
}

func TestMapListingType(t *testing.T) {
	cases := map[string]models.ListingType{
		"rent":      models.ListingRent,
		"let":       models.ListingRent,
		"TO_RENT":   models.ListingRent,
		"lease":     models.ListingLease,
		"leasehold": models.ListingLease,
		"sale":      models.ListingSale,
		"buy":       models.ListingSale,
		"":          models.ListingSale,
		"unknown":   models.ListingSale,
	}
	for in, want := range cases {
		assert.Equal(t, want, MapListingType(in), in)
	}
}

func TestMapStatus(t *testing.T) {
	assert.Equal(t, models.PropertyStatusOnline, MapStatus("live"))
	assert.Equal(t, models.PropertyStatusActive, MapStatus("ACTIVE"))
	assert.Equal(t, models.PropertyStatusDraft, MapStatus("draft"))
	assert.Equal(t, models.PropertyStatusOther, MapStatus("withdrawn"))
}

func TestNormalizeBatchSkipsBadRecords(t *testing.T) {
	batch := []map[string]interface{}{
		{"listing_id": "10", "displayable_address": "First"},
		{"no_id": true},
		{"listing_id": "11", "displayable_address": "Second"},
	}

	properties := NormalizeBatch(batch)
	require.Len(t, properties, 2)
	assert.Equal(t, "external_10", properties[0].ID)
	assert.Equal(t, "external_11", properties[1].ID)
}
