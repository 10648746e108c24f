package provider

import (
	"encoding/json"
	"fmt"
	"log"
	"strconv"
	"strings"
	"time"

	"property-platform/internal/models"
)

// Normalize converts a loosely-typed provider record into a canonical
// Property. Every field access is optional: a missing or malformed field
// degrades to its zero value, it never fails the record. A record with no
// resolvable identifier is dropped (returns nil) and logged as a warning.
//
// Feeding an already-canonical record back in returns it unchanged, so
// Normalize(Normalize(x)) == Normalize(x).
func Normalize(raw map[string]interface{}) *models.Property {
	if p := decodeCanonical(raw); p != nil {
		return p
	}

	id := stringify(raw["listing_id"])
	if id == "" {
		id = stringify(raw["id"])
	}
	if id == "" {
		log.Printf("[Normalize] Warning: dropping record with no resolvable identifier")
		return nil
	}

	listingType := MapListingType(getString(raw, "listing_status"))

	p := &models.Property{
		ID:          fmt.Sprintf("%s_%s", models.SourceExternal, id),
		Source:      models.SourceExternal,
		ExternalRef: id,
		Title:       titleFallback(raw),
		Description: firstString(raw, "description", "short_description"),
		ListingType: listingType,
		Price: models.Price{
			Amount:   getFloat(raw, "price"),
			Currency: currencyOrDefault(raw),
			Period:   pricePeriod(listingType),
		},
		PropertyType: getString(raw, "property_type"),
		Status:       models.PropertyStatusOnline,
		Bedrooms:     getInt(raw, "num_bedrooms"),
		Bathrooms:    getInt(raw, "num_bathrooms"),
		Area:         getFloat(raw, "floor_area"),
		Location: models.Location{
			AddressLine1: getString(raw, "displayable_address"),
			City:         firstString(raw, "post_town", "county"),
			Postcode:     firstString(raw, "outcode", "postcode"),
			Country:      getString(raw, "country"),
			Latitude:     getFloatPtr(raw, "latitude"),
			Longitude:    getFloatPtr(raw, "longitude"),
		},
		Media: models.Media{
			Images: imageList(raw),
		},
		Agent: models.Agent{
			Name:  getString(raw, "agent_name"),
			Email: getString(raw, "agent_email"),
			Phone: getString(raw, "agent_phone"),
		},
		CreatedAt: publishedAt(raw),
	}

	return p
}

// NormalizeBatch normalizes a batch of provider records, dropping the ones
// Normalize rejects. A bad record never aborts the batch.
func NormalizeBatch(records []map[string]interface{}) []models.Property {
	properties := make([]models.Property, 0, len(records))
	for _, raw := range records {
		if p := Normalize(raw); p != nil {
			properties = append(properties, *p)
		}
	}
	return properties
}

// decodeCanonical detects a record that is already in canonical shape and
// decodes it verbatim via a JSON round-trip.
func decodeCanonical(raw map[string]interface{}) *models.Property {
	source := getString(raw, "source")
	if source != string(models.SourceInternal) && source != string(models.SourceExternal) {
		return nil
	}
	if getString(raw, "id") == "" {
		return nil
	}

	data, err := json.Marshal(raw)
	if err != nil {
		return nil
	}
	var p models.Property
	if err := json.Unmarshal(data, &p); err != nil {
		return nil
	}
	return &p
}

// MapListingType maps provider vocabulary onto the three-value enum.
func MapListingType(s string) models.ListingType {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "rent", "let", "rental", "to_rent":
		return models.ListingRent
	case "lease", "leasehold":
		return models.ListingLease
	default:
		// "sale", "buy", "sell", "for_sale" and anything unrecognized
		return models.ListingSale
	}
}

// MapStatus maps provider status vocabulary onto the canonical enum.
func MapStatus(s string) models.PropertyStatus {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "online", "live":
		return models.PropertyStatusOnline
	case "active":
		return models.PropertyStatusActive
	case "draft":
		return models.PropertyStatusDraft
	default:
		return models.PropertyStatusOther
	}
}

func pricePeriod(t models.ListingType) models.PricePeriod {
	if t == models.ListingRent || t == models.ListingLease {
		return models.PeriodMonthly
	}
	return models.PeriodSale
}

// titleFallback applies the title fallback chain:
// displayable address -> short description -> "Property".
func titleFallback(raw map[string]interface{}) string {
	if s := getString(raw, "displayable_address"); s != "" {
		return s
	}
	if s := getString(raw, "short_description"); s != "" {
		return s
	}
	return "Property"
}

// imageList accepts image_url as a single string or image_urls as an array
// and always produces a slice.
func imageList(raw map[string]interface{}) []string {
	var images []string

	switch v := raw["image_urls"].(type) {
	case []interface{}:
		for _, item := range v {
			if s, ok := item.(string); ok && s != "" {
				images = append(images, s)
			}
		}
	case string:
		if v != "" {
			images = append(images, v)
		}
	}

	if s := getString(raw, "image_url"); s != "" {
		images = append(images, s)
	}

	return images
}

func currencyOrDefault(raw map[string]interface{}) string {
	if s := getString(raw, "currency"); s != "" {
		return s
	}
	return "GBP"
}

func publishedAt(raw map[string]interface{}) time.Time {
	s := firstString(raw, "first_published_date", "listing_date")
	if s == "" {
		return time.Now().UTC()
	}
	for _, layout := range []string{time.RFC3339, "2006-01-02 15:04:05", "2006-01-02"} {
		if t, err := time.Parse(layout, s); err == nil {
			return t
		}
	}
	return time.Now().UTC()
}

// getString safely extracts a string from the record.
func getString(m map[string]interface{}, key string) string {
	if val, ok := m[key].(string); ok {
		return strings.TrimSpace(val)
	}
	return ""
}

func firstString(m map[string]interface{}, keys ...string) string {
	for _, key := range keys {
		if s := getString(m, key); s != "" {
			return s
		}
	}
	return ""
}

// stringify renders an identifier that may arrive as a string or a number.
func stringify(v interface{}) string {
	switch val := v.(type) {
	case string:
		return strings.TrimSpace(val)
	case float64:
		return strconv.FormatInt(int64(val), 10)
	case int:
		return strconv.Itoa(val)
	case json.Number:
		return val.String()
	}
	return ""
}

// getFloat coerces a numeric field, defaulting to 0 on parse failure.
func getFloat(m map[string]interface{}, key string) float64 {
	switch val := m[key].(type) {
	case float64:
		return val
	case int:
		return float64(val)
	case string:
		cleaned := strings.ReplaceAll(strings.TrimSpace(val), ",", "")
		if f, err := strconv.ParseFloat(cleaned, 64); err == nil {
			return f
		}
	case json.Number:
		if f, err := val.Float64(); err == nil {
			return f
		}
	}
	return 0
}

// getInt coerces a numeric field to a non-negative int, defaulting to 0.
func getInt(m map[string]interface{}, key string) int {
	n := int(getFloat(m, key))
	if n < 0 {
		return 0
	}
	return n
}

func getFloatPtr(m map[string]interface{}, key string) *float64 {
	if _, ok := m[key]; !ok {
		return nil
	}
	f := getFloat(m, key)
	if f == 0 {
		// Treat unparsable coordinates as absent rather than (0, 0).
		if _, isNum := m[key].(float64); !isNum {
			return nil
		}
	}
	return &f
}
