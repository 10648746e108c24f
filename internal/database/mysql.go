package database

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/driver/mysql"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"property-platform/internal/models"
)

type GormDB struct {
	db *gorm.DB
}

func NewGormDB(host, port, user, password, dbname string) (*GormDB, error) {
	dsn := fmt.Sprintf("%s:%s@tcp(%s:%s)/%s?charset=utf8mb4&parseTime=True&loc=Local",
		user, password, host, port, dbname)

	db, err := gorm.Open(mysql.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Warn),
		NowFunc: func() time.Time {
			return time.Now().Local()
		},
	})
	if err != nil {
		return nil, err
	}

	// Test connection
	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}

	if err := sqlDB.Ping(); err != nil {
		return nil, err
	}

	return &GormDB{db: db}, nil
}

// NewGormDBFromDB creates a GormDB wrapper from an existing gorm.DB instance
func NewGormDBFromDB(db *gorm.DB) *GormDB {
	return &GormDB{db: db}
}

// DB returns the underlying gorm.DB instance
func (gdb *GormDB) DB() *gorm.DB {
	return gdb.db
}

func (gdb *GormDB) Close() error {
	sqlDB, err := gdb.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// InitSchema creates tables using GORM AutoMigrate
func (gdb *GormDB) InitSchema() error {
	return gdb.db.AutoMigrate(&models.Property{})
}

// SaveProperty saves or updates a property (upsert by id)
func (gdb *GormDB) SaveProperty(p *models.Property) error {
	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	if p.Status == "" {
		p.Status = models.PropertyStatusActive
	}
	if p.Source == "" {
		p.Source = models.SourceInternal
	}

	var existing models.Property
	result := gdb.db.Where("id = ?", p.ID).First(&existing)

	if result.Error == gorm.ErrRecordNotFound {
		return gdb.db.Create(p).Error
	} else if result.Error != nil {
		return result.Error
	}

	// Update existing (keep original CreatedAt)
	p.CreatedAt = existing.CreatedAt
	return gdb.db.Save(p).Error
}

// GetPropertyByID retrieves a property by ID
func (gdb *GormDB) GetPropertyByID(id string) (*models.Property, error) {
	var property models.Property
	err := gdb.db.Where("id = ?", id).First(&property).Error
	if err != nil {
		return nil, err
	}
	return &property, nil
}

// GetAllProperties retrieves all visible properties, newest first
func (gdb *GormDB) GetAllProperties() ([]models.Property, error) {
	var properties []models.Property
	err := gdb.db.
		Where("status IN ?", visibleStatusStrings()).
		Order("created_at DESC, id ASC").
		Find(&properties).Error
	return properties, err
}

// QueryProperties builds and executes one filtered, deterministically
// ordered, paginated query. Only online/active records are ever eligible,
// regardless of the caller's status filter. A page beyond the available
// range returns an empty array, never an error.
func (gdb *GormDB) QueryProperties(filters PropertyFilters) (*PageResult, error) {
	page, limit := normalizePaging(filters.Page, filters.Limit)

	query := gdb.db.Model(&models.Property{})
	query = applyFilters(query, filters)

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, &StoreQueryError{Op: "count", Err: err}
	}

	properties := []models.Property{}
	err := query.
		Order(orderClause(filters.SortBy)).
		Offset((page - 1) * limit).
		Limit(limit).
		Find(&properties).Error
	if err != nil {
		return nil, &StoreQueryError{Op: "select", Err: err}
	}

	pages := totalPages(total, limit)
	return &PageResult{
		Data:            properties,
		Page:            page,
		Limit:           limit,
		Total:           total,
		TotalPages:      pages,
		HasNextPage:     page < pages,
		HasPreviousPage: page > 1 && total > 0,
	}, nil
}

// applyFilters translates PropertyFilters into WHERE predicates.
func applyFilters(query *gorm.DB, filters PropertyFilters) *gorm.DB {
	// Visibility invariant: intersect any caller statuses with the visible
	// set; callers can narrow it but never widen it.
	statuses := visibleStatusStrings()
	if len(filters.Statuses) > 0 {
		statuses = intersectStatuses(filters.Statuses)
	}
	query = query.Where("status IN ?", statuses)

	if filters.Search != "" {
		pattern := "%" + filters.Search + "%"
		query = query.Where(
			"LOWER(title) LIKE LOWER(?) OR LOWER(address_line1) LIKE LOWER(?) OR LOWER(city) LIKE LOWER(?)",
			pattern, pattern, pattern,
		)
	}
	if filters.Country != "" {
		query = query.Where("country = ?", filters.Country)
	}
	if filters.City != "" {
		query = query.Where("LOWER(city) LIKE LOWER(?)", "%"+filters.City+"%")
	}
	if filters.Postcode != "" {
		query = query.Where("LOWER(postcode) LIKE LOWER(?)", "%"+filters.Postcode+"%")
	}
	if filters.ListingType != "" {
		query = query.Where("listing_type = ?", filters.ListingType)
	}
	if len(filters.PropertyTypes) > 0 {
		query = query.Where("property_type IN ?", filters.PropertyTypes)
	}
	if filters.MinPrice != nil {
		query = query.Where("price_amount >= ?", *filters.MinPrice)
	}
	if filters.MaxPrice != nil {
		query = query.Where("price_amount <= ?", *filters.MaxPrice)
	}
	if filters.Bedrooms != nil {
		query = query.Where("bedrooms = ?", *filters.Bedrooms)
	}

	return query
}

// GetSection retrieves one curated dashboard row of visible properties.
func (gdb *GormDB) GetSection(section string, limit int, listingType string) ([]models.Property, error) {
	if limit <= 0 {
		limit = 10
	}

	var order string
	switch section {
	case "popular":
		order = "views DESC, created_at DESC, id ASC"
	case "featured":
		order = "favorites DESC, created_at DESC, id ASC"
	case "affordable":
		order = "price_amount ASC, created_at DESC, id ASC"
	case "recent":
		order = "created_at DESC, id ASC"
	default:
		return nil, fmt.Errorf("unknown section: %s", section)
	}

	query := gdb.db.
		Where("status IN ?", visibleStatusStrings()).
		Order(order).
		Limit(limit)
	if listingType != "" {
		query = query.Where("listing_type = ?", listingType)
	}

	properties := []models.Property{}
	err := query.Find(&properties).Error
	return properties, err
}

// UpdateStatus sets the status of one property. Returns
// gorm.ErrRecordNotFound when the id does not exist.
func (gdb *GormDB) UpdateStatus(id string, status models.PropertyStatus) error {
	result := gdb.db.Model(&models.Property{}).
		Where("id = ?", id).
		Update("status", status)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// IncrementViews bumps the view counter for a property detail hit.
func (gdb *GormDB) IncrementViews(id string) error {
	return gdb.db.Model(&models.Property{}).
		Where("id = ?", id).
		UpdateColumn("views", gorm.Expr("views + 1")).Error
}

// StoreStats are the global dashboard counters, computed over the full
// store regardless of any active filter.
type StoreStats struct {
	Total          int64            `json:"total"`
	ByStatus       map[string]int64 `json:"by_status"`
	TotalViews     int64            `json:"total_views"`
	TotalInquiries int64            `json:"total_inquiries"`
	TotalFavorites int64            `json:"total_favorites"`
	AveragePrice   float64          `json:"average_price"`
}

// GetStats computes global property statistics.
func (gdb *GormDB) GetStats() (*StoreStats, error) {
	stats := &StoreStats{ByStatus: make(map[string]int64)}

	if err := gdb.db.Model(&models.Property{}).Count(&stats.Total).Error; err != nil {
		return nil, err
	}

	type statusCount struct {
		Status string
		Count  int64
	}
	var counts []statusCount
	err := gdb.db.Model(&models.Property{}).
		Select("status, count(*) as count").
		Group("status").
		Scan(&counts).Error
	if err != nil {
		return nil, err
	}
	for _, sc := range counts {
		stats.ByStatus[sc.Status] = sc.Count
	}

	type totals struct {
		Views     int64
		Inquiries int64
		Favorites int64
		AvgPrice  float64
	}
	var t totals
	err = gdb.db.Model(&models.Property{}).
		Select("COALESCE(SUM(views),0) as views, COALESCE(SUM(inquiries),0) as inquiries, COALESCE(SUM(favorites),0) as favorites, COALESCE(AVG(price_amount),0) as avg_price").
		Scan(&t).Error
	if err != nil {
		return nil, err
	}
	stats.TotalViews = t.Views
	stats.TotalInquiries = t.Inquiries
	stats.TotalFavorites = t.Favorites
	stats.AveragePrice = t.AvgPrice

	return stats, nil
}

func visibleStatusStrings() []string {
	visible := models.VisibleStatuses()
	out := make([]string, len(visible))
	for i, s := range visible {
		out[i] = string(s)
	}
	return out
}

func intersectStatuses(requested []string) []string {
	allowed := []string{}
	for _, s := range requested {
		for _, v := range visibleStatusStrings() {
			if s == v {
				allowed = append(allowed, s)
			}
		}
	}
	return allowed
}
