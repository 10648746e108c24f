package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"property-platform/internal/aggregator"
	"property-platform/internal/database"
	"property-platform/internal/engine"
	"property-platform/internal/models"
	"property-platform/internal/provider"
)

type stubSource struct {
	result   *provider.FetchResult
	err      error
	criteria provider.SearchCriteria
}

func (s *stubSource) FetchListings(ctx context.Context, criteria provider.SearchCriteria) (*provider.FetchResult, error) {
	s.criteria = criteria
	return s.result, s.err
}

type stubStore struct {
	result  *database.PageResult
	err     error
	filters database.PropertyFilters
}

func (s *stubStore) QueryProperties(filters database.PropertyFilters) (*database.PageResult, error) {
	s.filters = filters
	return s.result, s.err
}

func newGlobalSearchRouter(agg *aggregator.Aggregator) *gin.Engine {
	gin.SetMode(gin.TestMode)
	h := NewPropertyHandler(agg, nil, nil, nil, nil)
	r := gin.New()
	r.GET("/api/properties/global", h.GlobalSearch)
	return r
}

func TestGlobalSearchExternalSuccess(t *testing.T) {
	source := &stubSource{result: &provider.FetchResult{
		Properties: []models.Property{
			{ID: "external_1", Source: models.SourceExternal, Status: models.PropertyStatusOnline},
		},
		TotalResults: 1,
	}}
	agg := aggregator.New(source, &stubStore{}, aggregator.Config{HasCredential: true})

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/properties/global?postcode=SW1A&type=rent&min_price=1000&bedrooms=2", nil)
	newGlobalSearchRouter(agg).ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)

	var result aggregator.Result
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &result))
	assert.Equal(t, "external", result.Source)
	assert.False(t, result.FallbackUsed)
	require.Len(t, result.Properties, 1)

	// Query params reached the source criteria.
	assert.Equal(t, "SW1A", source.criteria.Postcode)
	assert.Equal(t, "rent", source.criteria.ListingType)
	require.NotNil(t, source.criteria.MinPrice)
	assert.Equal(t, 1000, *source.criteria.MinPrice)
	require.NotNil(t, source.criteria.Bedrooms)
	assert.Equal(t, 2, *source.criteria.Bedrooms)
}

func TestGlobalSearchDefaultsToBothScopes(t *testing.T) {
	source := &stubSource{result: &provider.FetchResult{Properties: []models.Property{{ID: "x"}}}}
	agg := aggregator.New(source, &stubStore{}, aggregator.Config{HasCredential: true})

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/properties/global?postcode=SW1A", nil)
	newGlobalSearchRouter(agg).ServeHTTP(w, req)

	assert.Equal(t, "both", source.criteria.ListingType)
}

func TestGlobalSearchFallsBackToLocalStore(t *testing.T) {
	source := &stubSource{err: &provider.SourceTimeoutError{Scope: "sale"}}
	store := &stubStore{result: &database.PageResult{
		Data:       []models.Property{{ID: "local-1", Status: models.PropertyStatusActive}},
		Page:       1,
		Limit:      20,
		Total:      1,
		TotalPages: 1,
	}}
	agg := aggregator.New(source, store, aggregator.Config{HasCredential: true})

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/properties/global?postcode=SW1A", nil)
	newGlobalSearchRouter(agg).ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)

	var result aggregator.Result
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &result))
	assert.Equal(t, "local", result.Source)
	assert.True(t, result.FallbackUsed)
	assert.Len(t, result.Properties, 1)
	assert.Nil(t, result.Error)
}

func TestGlobalSearchStoreFailureStillHTTP200(t *testing.T) {
	source := &stubSource{err: &provider.SourceUnavailableError{Scope: "rent", StatusCode: 503}}
	store := &stubStore{err: &database.StoreQueryError{Op: "query"}}
	agg := aggregator.New(source, store, aggregator.Config{HasCredential: true})

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/properties/global?postcode=SW1A", nil)
	newGlobalSearchRouter(agg).ServeHTTP(w, req)

	// Degradation is in the body, never the status code.
	require.Equal(t, http.StatusOK, w.Code)

	var result aggregator.Result
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &result))
	require.NotNil(t, result.Error)
	assert.Equal(t, "store_query_error", result.Error.Code)
	assert.NotNil(t, result.Properties)
	assert.Empty(t, result.Properties)
}

func TestListPropertiesQueriesThroughEitherBackend(t *testing.T) {
	gin.SetMode(gin.TestMode)

	// Any backend satisfying the querier contract gets the full filter set
	// and the pagination envelope, the raw-SQL path included.
	store := &stubStore{result: &database.PageResult{
		Data:            []models.Property{{ID: "p1", Status: models.PropertyStatusOnline}},
		Page:            2,
		Limit:           5,
		Total:           11,
		TotalPages:      3,
		HasNextPage:     true,
		HasPreviousPage: true,
	}}
	h := &PropertyHandler{store: store}

	r := gin.New()
	r.GET("/api/properties", h.ListProperties)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet,
		"/api/properties?city=London&type=rent&min_price=1000&bedrooms=2&status=online,draft&page=2&limit=5&sort=price_asc", nil)
	r.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)

	// The query params reached the builder.
	assert.Equal(t, "London", store.filters.City)
	assert.Equal(t, "rent", store.filters.ListingType)
	require.NotNil(t, store.filters.MinPrice)
	assert.Equal(t, 1000, *store.filters.MinPrice)
	require.NotNil(t, store.filters.Bedrooms)
	assert.Equal(t, 2, *store.filters.Bedrooms)
	assert.Equal(t, []string{"online", "draft"}, store.filters.Statuses)
	assert.Equal(t, 2, store.filters.Page)
	assert.Equal(t, 5, store.filters.Limit)
	assert.Equal(t, "price_asc", store.filters.SortBy)

	var body struct {
		Data       []models.Property `json:"data"`
		Pagination struct {
			Page            int   `json:"page"`
			Limit           int   `json:"limit"`
			Total           int64 `json:"total"`
			TotalPages      int   `json:"totalPages"`
			HasNextPage     bool  `json:"hasNextPage"`
			HasPreviousPage bool  `json:"hasPreviousPage"`
		} `json:"pagination"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	require.Len(t, body.Data, 1)
	assert.Equal(t, 2, body.Pagination.Page)
	assert.Equal(t, 5, body.Pagination.Limit)
	assert.Equal(t, int64(11), body.Pagination.Total)
	assert.Equal(t, 3, body.Pagination.TotalPages)
	assert.True(t, body.Pagination.HasNextPage)
	assert.True(t, body.Pagination.HasPreviousPage)
}

func TestBulkUpdateStatusRejectsInvalidStatus(t *testing.T) {
	gin.SetMode(gin.TestMode)
	h := &PropertyHandler{}

	r := gin.New()
	r.POST("/api/properties/bulk-status", h.BulkUpdateStatus)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/properties/bulk-status",
		strings.NewReader(`{"ids":["p1"],"status":"archived"}`))
	req.Header.Set("Content-Type", "application/json")
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "invalid status")
}

func TestParseSort(t *testing.T) {
	assert.Equal(t, engine.SortSpec{Field: engine.SortPrice, Order: engine.OrderAsc}, parseSort("price_asc"))
	assert.Equal(t, engine.SortSpec{Field: engine.SortViews, Order: engine.OrderDesc}, parseSort("views_desc"))
	assert.Equal(t, engine.SortSpec{Field: engine.SortCreatedAt, Order: engine.OrderDesc}, parseSort("anything"))
}
