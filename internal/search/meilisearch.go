package search

import (
	"encoding/json"

	"github.com/meilisearch/meilisearch-go"

	"property-platform/internal/models"
)

type SearchClient struct {
	client *meilisearch.Client
	index  string
}

func NewSearchClient(host, apiKey string) *SearchClient {
	client := meilisearch.NewClient(meilisearch.ClientConfig{
		Host:   host,
		APIKey: apiKey,
	})

	return &SearchClient{
		client: client,
		index:  "properties",
	}
}

// InitIndex initializes the Meilisearch index
func (s *SearchClient) InitIndex() error {
	// Create index if it doesn't exist
	_, err := s.client.CreateIndex(&meilisearch.IndexConfig{
		Uid:        s.index,
		PrimaryKey: "id",
	})
	// Ignore error if index already exists
	if err != nil && err.Error() != "index already exists" {
		return err
	}

	// Configure searchable attributes
	_, err = s.client.Index(s.index).UpdateSearchableAttributes(&[]string{
		"title",
		"description",
		"location.address_line1",
		"location.city",
		"location.postcode",
	})
	if err != nil {
		return err
	}

	// Configure filterable attributes
	_, err = s.client.Index(s.index).UpdateFilterableAttributes(&[]string{
		"id",
		"listing_type",
		"property_type",
		"status",
		"bedrooms",
		"bathrooms",
		"price.amount",
		"location.city",
	})
	if err != nil {
		return err
	}

	// Configure sortable attributes
	_, err = s.client.Index(s.index).UpdateSortableAttributes(&[]string{
		"price.amount",
		"bedrooms",
		"area",
		"analytics.views",
		"created_at",
	})
	if err != nil {
		return err
	}

	return nil
}

// IndexProperty indexes a single property
func (s *SearchClient) IndexProperty(property *models.Property) error {
	_, err := s.client.Index(s.index).AddDocuments([]models.Property{*property})
	return err
}

// IndexProperties indexes a batch. Non-visible records are skipped: the
// search surface can never return them, so they have no business in the
// index.
func (s *SearchClient) IndexProperties(properties []models.Property) error {
	docs := visibleDocuments(properties)
	if len(docs) == 0 {
		return nil
	}
	_, err := s.client.Index(s.index).AddDocuments(docs)
	return err
}

func visibleDocuments(properties []models.Property) []models.Property {
	docs := make([]models.Property, 0, len(properties))
	for i := range properties {
		if properties[i].IsVisible() {
			docs = append(docs, properties[i])
		}
	}
	return docs
}

// hitsToProperties converts search hits via a JSON round trip
func hitsToProperties(hits []interface{}) []models.Property {
	properties := make([]models.Property, 0, len(hits))
	for _, hit := range hits {
		hitJSON, err := json.Marshal(hit)
		if err != nil {
			continue
		}

		var property models.Property
		if err := json.Unmarshal(hitJSON, &property); err != nil {
			continue
		}

		properties = append(properties, property)
	}
	return properties
}
