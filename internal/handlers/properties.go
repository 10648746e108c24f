package handlers

import (
	"log"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"property-platform/internal/aggregator"
	"property-platform/internal/database"
	"property-platform/internal/engine"
	"property-platform/internal/export"
	"property-platform/internal/models"
	"property-platform/internal/provider"
	"property-platform/internal/scheduler"
	"property-platform/internal/search"
)

// propertyQuerier is the filtered listing surface; both store backends
// implement it.
type propertyQuerier interface {
	QueryProperties(filters database.PropertyFilters) (*database.PageResult, error)
}

// PropertyHandler handles the property API requests
type PropertyHandler struct {
	agg       *aggregator.Aggregator
	db        *database.GormDB
	legacy    *database.DB
	store     propertyQuerier
	search    *search.SearchClient
	scheduler *scheduler.Scheduler
}

// NewPropertyHandler creates a new property handler
func NewPropertyHandler(agg *aggregator.Aggregator, db *database.GormDB, legacy *database.DB, searchClient *search.SearchClient, sched *scheduler.Scheduler) *PropertyHandler {
	h := &PropertyHandler{
		agg:       agg,
		db:        db,
		legacy:    legacy,
		search:    searchClient,
		scheduler: sched,
	}
	if db != nil {
		h.store = db
	} else if legacy != nil {
		h.store = legacy
	}
	return h
}

// GlobalSearch resolves a search against the external provider with a
// deterministic fallback to the local store. The response shape is always
// well-formed; degradation is communicated through fallback_used/error.
func (h *PropertyHandler) GlobalSearch(c *gin.Context) {
	criteria := provider.SearchCriteria{
		Postcode:    c.Query("postcode"),
		City:        c.Query("city"),
		ListingType: c.DefaultQuery("type", "both"),
	}

	if latStr := c.Query("lat"); latStr != "" {
		if lat, err := strconv.ParseFloat(latStr, 64); err == nil {
			criteria.Latitude = &lat
		}
	}
	if lngStr := c.Query("lng"); lngStr != "" {
		if lng, err := strconv.ParseFloat(lngStr, 64); err == nil {
			criteria.Longitude = &lng
		}
	}
	if radiusStr := c.Query("radius"); radiusStr != "" {
		if radius, err := strconv.ParseFloat(radiusStr, 64); err == nil && radius > 0 {
			criteria.Radius = radius
		}
	}
	if minStr := c.Query("min_price"); minStr != "" {
		if min, err := strconv.Atoi(minStr); err == nil {
			criteria.MinPrice = &min
		}
	}
	if maxStr := c.Query("max_price"); maxStr != "" {
		if max, err := strconv.Atoi(maxStr); err == nil {
			criteria.MaxPrice = &max
		}
	}
	if bedsStr := c.Query("bedrooms"); bedsStr != "" {
		if beds, err := strconv.Atoi(bedsStr); err == nil {
			criteria.Bedrooms = &beds
		}
	}
	if pageStr := c.Query("page"); pageStr != "" {
		if page, err := strconv.Atoi(pageStr); err == nil && page > 0 {
			criteria.Page = page
		}
	}
	if limitStr := c.Query("limit"); limitStr != "" {
		if limit, err := strconv.Atoi(limitStr); err == nil && limit > 0 {
			criteria.PageSize = limit
		}
	}

	result := h.agg.Search(c.Request.Context(), criteria)

	log.Printf("[Global Search] source=%s fallback=%v total=%d page=%d",
		result.Source, result.FallbackUsed, result.TotalResults, result.Page)

	c.JSON(http.StatusOK, result)
}

// ListProperties serves the filtered, paginated local store listing.
func (h *PropertyHandler) ListProperties(c *gin.Context) {
	filters := database.PropertyFilters{
		Search:      c.Query("search"),
		Country:     c.Query("country"),
		City:        c.Query("city"),
		Postcode:    c.Query("postcode"),
		ListingType: c.Query("type"),
		SortBy:      c.DefaultQuery("sort", "created_at"),
	}

	if minStr := c.Query("min_price"); minStr != "" {
		if min, err := strconv.Atoi(minStr); err == nil {
			filters.MinPrice = &min
		}
	}
	if maxStr := c.Query("max_price"); maxStr != "" {
		if max, err := strconv.Atoi(maxStr); err == nil {
			filters.MaxPrice = &max
		}
	}
	if bedsStr := c.Query("bedrooms"); bedsStr != "" {
		if beds, err := strconv.Atoi(bedsStr); err == nil {
			filters.Bedrooms = &beds
		}
	}
	if statusStr := c.Query("status"); statusStr != "" {
		filters.Statuses = strings.Split(statusStr, ",")
	}
	if typesStr := c.Query("property_types"); typesStr != "" {
		filters.PropertyTypes = strings.Split(typesStr, ",")
	}
	if pageStr := c.Query("page"); pageStr != "" {
		if page, err := strconv.Atoi(pageStr); err == nil && page > 0 {
			filters.Page = page
		}
	}
	if limitStr := c.Query("limit"); limitStr != "" {
		if limit, err := strconv.Atoi(limitStr); err == nil && limit > 0 {
			filters.Limit = limit
		}
	}

	if h.store == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"data": nil, "error": "no store configured"})
		return
	}

	result, err := h.store.QueryProperties(filters)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"data": nil, "error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"data":  result.Data,
		"error": nil,
		"pagination": gin.H{
			"page":            result.Page,
			"limit":           result.Limit,
			"total":           result.Total,
			"totalPages":      result.TotalPages,
			"hasNextPage":     result.HasNextPage,
			"hasPreviousPage": result.HasPreviousPage,
		},
	})
}

// GetSections serves one curated dashboard row.
func (h *PropertyHandler) GetSections(c *gin.Context) {
	section := c.DefaultQuery("section", "recent")
	listingType := c.Query("type")
	limitStr := c.DefaultQuery("limit", "10")
	limit, _ := strconv.Atoi(limitStr)

	if h.db == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"error": "Sections are not available (requires MySQL/GORM)",
		})
		return
	}

	properties, err := h.db.GetSection(section, limit, listingType)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"data":    properties,
		"section": section,
		"count":   len(properties),
	})
}

// GetProperty serves a single property and bumps its view counter.
func (h *PropertyHandler) GetProperty(c *gin.Context) {
	id := c.Param("id")
	var property *models.Property
	var err error

	if h.db != nil {
		property, err = h.db.GetPropertyByID(id)
	} else {
		property, err = h.legacy.GetPropertyByID(id)
	}

	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Property not found"})
		return
	}

	if h.db != nil {
		if err := h.db.IncrementViews(id); err != nil {
			log.Printf("Warning: Failed to increment views for %s: %v", id, err)
		}
	}

	c.JSON(http.StatusOK, property)
}

// BulkUpdateStatus applies a status per id, independently; one failed id
// never blocks the others.
func (h *PropertyHandler) BulkUpdateStatus(c *gin.Context) {
	var req struct {
		IDs    []string `json:"ids" binding:"required"`
		Status string   `json:"status" binding:"required"`
	}

	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if !models.ValidStatus(models.PropertyStatus(req.Status)) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid status: " + req.Status})
		return
	}

	if h.db == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"error": "Bulk updates are not available (requires MySQL/GORM)",
		})
		return
	}

	updated := []string{}
	failed := []engine.BulkFailure{}
	for _, id := range req.IDs {
		if err := h.db.UpdateStatus(id, models.PropertyStatus(req.Status)); err != nil {
			reason := err.Error()
			if err == gorm.ErrRecordNotFound {
				reason = "not found"
			}
			failed = append(failed, engine.BulkFailure{ID: id, Reason: reason})
			continue
		}
		updated = append(updated, id)

		// Keep the search index's status current so the visibility filter
		// stays accurate.
		if h.search != nil {
			if p, err := h.db.GetPropertyByID(id); err == nil {
				if err := h.search.IndexProperty(p); err != nil {
					log.Printf("Warning: Failed to update search index for %s: %v", id, err)
				}
			}
		}
	}

	c.JSON(http.StatusOK, gin.H{
		"updated": updated,
		"failed":  failed,
		"success": len(updated),
	})
}

// DuplicateProperty creates a draft copy under a fresh id.
func (h *PropertyHandler) DuplicateProperty(c *gin.Context) {
	id := c.Param("id")

	if h.db == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"error": "Duplication is not available (requires MySQL/GORM)",
		})
		return
	}

	source, err := h.db.GetPropertyByID(id)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Property not found"})
		return
	}

	duplicate := engine.NewDraftCopy(*source)
	if err := h.db.SaveProperty(&duplicate); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusCreated, duplicate)
}

// ExportProperties renders the current store view through the query engine.
// Scope is ids when given, else everything matching the filters; the sort
// order in effect is preserved in the output.
func (h *PropertyHandler) ExportProperties(c *gin.Context) {
	format, err := export.ParseFormat(c.DefaultQuery("format", "json"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	var properties []models.Property
	if h.db != nil {
		properties, err = h.db.GetAllProperties()
	} else {
		properties, err = h.legacy.GetAllProperties()
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	eng := engine.New(properties)

	if city := c.Query("city"); city != "" {
		eng.SetFilters(engine.FilterPatch{Location: &city})
	}
	if listingType := c.Query("type"); listingType != "" {
		eng.SetFilters(engine.FilterPatch{ListingType: &listingType})
	}
	if sortBy := c.Query("sort"); sortBy != "" {
		eng.SetSort(parseSort(sortBy))
	}

	var ids []string
	if idsStr := c.Query("ids"); idsStr != "" {
		ids = strings.Split(idsStr, ",")
	}

	data, err := eng.Export(format, ids)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	switch format {
	case export.FormatCSV:
		c.Header("Content-Disposition", `attachment; filename="properties.csv"`)
		c.Data(http.StatusOK, "text/csv; charset=utf-8", data)
	case export.FormatJSON:
		c.Data(http.StatusOK, "application/json; charset=utf-8", data)
	default:
		c.Data(http.StatusOK, "text/plain; charset=utf-8", data)
	}
}

// GetStats returns global property statistics for the dashboard.
func (h *PropertyHandler) GetStats(c *gin.Context) {
	if h.db == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"error": "Stats are not available (requires MySQL/GORM)",
		})
		return
	}

	stats, err := h.db.GetStats()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, stats)
}

// TriggerSync manually triggers the external sync job.
func (h *PropertyHandler) TriggerSync(c *gin.Context) {
	if h.scheduler == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"error": "Scheduler is not available",
		})
		return
	}

	// Run in goroutine to avoid blocking
	go func() {
		if err := h.scheduler.RunNow(); err != nil {
			log.Printf("Manual sync failed: %v", err)
		}
	}()

	c.JSON(http.StatusAccepted, gin.H{
		"message": "External sync job started",
		"status":  "running",
	})
}

// parseSort maps a query sort parameter onto a SortSpec.
func parseSort(sortBy string) engine.SortSpec {
	switch sortBy {
	case "price_asc":
		return engine.SortSpec{Field: engine.SortPrice, Order: engine.OrderAsc}
	case "price_desc":
		return engine.SortSpec{Field: engine.SortPrice, Order: engine.OrderDesc}
	case "area_desc":
		return engine.SortSpec{Field: engine.SortArea, Order: engine.OrderDesc}
	case "bedrooms_desc":
		return engine.SortSpec{Field: engine.SortBedrooms, Order: engine.OrderDesc}
	case "views_desc":
		return engine.SortSpec{Field: engine.SortViews, Order: engine.OrderDesc}
	case "title_asc":
		return engine.SortSpec{Field: engine.SortTitle, Order: engine.OrderAsc}
	default:
		return engine.SortSpec{Field: engine.SortCreatedAt, Order: engine.OrderDesc}
	}
}
