package models

import "time"

// Property is the canonical schema every property record is converted to,
// regardless of whether it came from the external provider or the local store.
type Property struct {
	// 基本情報
	ID          string         `gorm:"type:varchar(64);primaryKey" json:"id"`
	Source      PropertySource `gorm:"type:varchar(16);not null;default:'internal';index" json:"source"`
	Title       string         `gorm:"type:text;not null" json:"title"`
	Description string         `gorm:"type:text" json:"description"`

	// フィルタ用属性
	Price        Price          `gorm:"embedded;embeddedPrefix:price_" json:"price"`
	ListingType  ListingType    `gorm:"type:varchar(16);not null;index" json:"listing_type"`
	PropertyType string         `gorm:"type:varchar(64);index" json:"property_type,omitempty"`
	Status       PropertyStatus `gorm:"type:varchar(20);not null;default:'active';index" json:"status"`
	Bedrooms     int            `gorm:"type:int;index" json:"bedrooms"`
	Bathrooms    int            `gorm:"type:int" json:"bathrooms"`
	Area         float64        `gorm:"type:decimal(10,2)" json:"area"`

	Location  Location  `gorm:"embedded" json:"location"`
	Media     Media     `gorm:"embedded" json:"media"`
	Agent     Agent     `gorm:"embedded;embeddedPrefix:agent_" json:"agent"`
	Analytics Analytics `gorm:"embedded" json:"analytics"`

	// 外部プロバイダ参照（source == external の場合のみ）
	ExternalRef string `gorm:"type:varchar(128)" json:"external_ref,omitempty"`

	// タイムスタンプ
	CreatedAt time.Time `gorm:"type:datetime;not null;autoCreateTime;index:idx_created_at,sort:desc" json:"created_at"`
	UpdatedAt time.Time `gorm:"type:datetime;not null;autoUpdateTime" json:"updated_at"`
}

// PropertySource identifies where a record originated.
type PropertySource string

const (
	SourceInternal PropertySource = "internal"
	SourceExternal PropertySource = "external"
)

// ListingType is the three-value listing enum. Provider vocabulary
// ("buy", "let", ...) is mapped onto it during normalization.
type ListingType string

const (
	ListingSale  ListingType = "sale"
	ListingRent  ListingType = "rent"
	ListingLease ListingType = "lease"
)

// PropertyStatus は物件のステータス
type PropertyStatus string

const (
	PropertyStatusOnline PropertyStatus = "online"
	PropertyStatusActive PropertyStatus = "active"
	PropertyStatusDraft  PropertyStatus = "draft"
	PropertyStatusOther  PropertyStatus = "other"
)

// PricePeriod qualifies the price amount.
type PricePeriod string

const (
	PeriodSale    PricePeriod = "sale"
	PeriodMonthly PricePeriod = "monthly"
)

// Price is the canonical price shape.
type Price struct {
	Amount   float64     `gorm:"column:amount;type:decimal(14,2);index" json:"amount"`
	Currency string      `gorm:"column:currency;type:varchar(8)" json:"currency"`
	Period   PricePeriod `gorm:"column:period;type:varchar(16)" json:"period,omitempty"`
}

// Location is the canonical address shape. Coordinates are optional.
type Location struct {
	AddressLine1 string   `gorm:"column:address_line1;type:text" json:"address_line1"`
	City         string   `gorm:"column:city;type:varchar(100);index" json:"city"`
	Postcode     string   `gorm:"column:postcode;type:varchar(20);index" json:"postcode"`
	Country      string   `gorm:"column:country;type:varchar(64)" json:"country"`
	Latitude     *float64 `gorm:"column:latitude;type:decimal(10,7)" json:"latitude,omitempty"`
	Longitude    *float64 `gorm:"column:longitude;type:decimal(10,7)" json:"longitude,omitempty"`
}

// Media holds the ordered image URLs. Stored as a JSON column.
type Media struct {
	Images []string `gorm:"column:images;type:text;serializer:json" json:"images"`
}

// Agent is the listing contact. All fields optional.
type Agent struct {
	Name  string `gorm:"column:name;type:varchar(128)" json:"name,omitempty"`
	Email string `gorm:"column:email;type:varchar(128)" json:"email,omitempty"`
	Phone string `gorm:"column:phone;type:varchar(32)" json:"phone,omitempty"`
}

// Analytics holds dashboard counters, default 0.
type Analytics struct {
	Views     int `gorm:"column:views;type:int;default:0" json:"views"`
	Inquiries int `gorm:"column:inquiries;type:int;default:0" json:"inquiries"`
	Favorites int `gorm:"column:favorites;type:int;default:0" json:"favorites"`
}

// TableName はテーブル名を明示的に指定
func (Property) TableName() string {
	return "properties"
}

// IsVisible reports whether a property may appear in search results.
// Only online/active records are ever eligible.
func (p *Property) IsVisible() bool {
	return p.Status == PropertyStatusOnline || p.Status == PropertyStatusActive
}

// VisibleStatuses are the statuses eligible for search results.
func VisibleStatuses() []PropertyStatus {
	return []PropertyStatus{PropertyStatusOnline, PropertyStatusActive}
}

// ValidStatus reports whether s is one of the canonical status values.
func ValidStatus(s PropertyStatus) bool {
	switch s {
	case PropertyStatusOnline, PropertyStatusActive, PropertyStatusDraft, PropertyStatusOther:
		return true
	}
	return false
}
