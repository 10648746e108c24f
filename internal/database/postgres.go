package database

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	_ "github.com/lib/pq"

	"property-platform/internal/models"
)

// DB is the PostgreSQL store. It covers the basic persistence surface; the
// full query builder runs on the GORM path.
type DB struct {
	conn *sql.DB
}

func NewDB(host, port, user, password, dbname, sslmode string) (*DB, error) {
	if sslmode == "" {
		sslmode = "disable"
	}
	connStr := fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		host, port, user, password, dbname, sslmode)

	conn, err := sql.Open("postgres", connStr)
	if err != nil {
		return nil, err
	}

	if err := conn.Ping(); err != nil {
		return nil, err
	}

	return &DB{conn: conn}, nil
}

func (db *DB) Close() error {
	return db.conn.Close()
}

// InitSchema creates the properties table if it doesn't exist
func (db *DB) InitSchema() error {
	query := `
	CREATE TABLE IF NOT EXISTS properties (
		id VARCHAR(64) PRIMARY KEY,
		source VARCHAR(16) NOT NULL DEFAULT 'internal',
		title TEXT NOT NULL,
		description TEXT,

		-- Filter fields
		price_amount DECIMAL(14, 2),
		price_currency VARCHAR(8),
		price_period VARCHAR(16),
		listing_type VARCHAR(16) NOT NULL,
		property_type VARCHAR(64),
		status VARCHAR(20) NOT NULL DEFAULT 'active',
		bedrooms INTEGER DEFAULT 0,
		bathrooms INTEGER DEFAULT 0,
		area DECIMAL(10, 2) DEFAULT 0,

		address_line1 TEXT,
		city VARCHAR(100),
		postcode VARCHAR(20),
		country VARCHAR(64),
		latitude DECIMAL(10, 7),
		longitude DECIMAL(10, 7),

		images TEXT,
		agent_name VARCHAR(128),
		agent_email VARCHAR(128),
		agent_phone VARCHAR(32),
		views INTEGER DEFAULT 0,
		inquiries INTEGER DEFAULT 0,
		favorites INTEGER DEFAULT 0,
		external_ref VARCHAR(128),

		created_at TIMESTAMP NOT NULL DEFAULT NOW(),
		updated_at TIMESTAMP NOT NULL DEFAULT NOW()
	);

	-- Indexes for filtering
	CREATE INDEX IF NOT EXISTS idx_properties_created_at ON properties(created_at DESC);
	CREATE INDEX IF NOT EXISTS idx_properties_price ON properties(price_amount);
	CREATE INDEX IF NOT EXISTS idx_properties_status ON properties(status);
	CREATE INDEX IF NOT EXISTS idx_properties_listing_type ON properties(listing_type);
	CREATE INDEX IF NOT EXISTS idx_properties_city ON properties(city);
	`
	_, err := db.conn.Exec(query)
	return err
}

// SaveProperty saves a property to the database
func (db *DB) SaveProperty(p *models.Property) error {
	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	if p.Status == "" {
		p.Status = models.PropertyStatusActive
	}
	if p.Source == "" {
		p.Source = models.SourceInternal
	}
	if p.CreatedAt.IsZero() {
		p.CreatedAt = time.Now()
	}

	images, err := json.Marshal(p.Media.Images)
	if err != nil {
		return err
	}

	query := `
	INSERT INTO properties (
		id, source, title, description,
		price_amount, price_currency, price_period, listing_type, property_type, status,
		bedrooms, bathrooms, area,
		address_line1, city, postcode, country, latitude, longitude,
		images, agent_name, agent_email, agent_phone,
		views, inquiries, favorites, external_ref,
		created_at, updated_at
	)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15,
	        $16, $17, $18, $19, $20, $21, $22, $23, $24, $25, $26, $27, $28, $29)
	ON CONFLICT (id) DO UPDATE SET
		title = EXCLUDED.title,
		description = EXCLUDED.description,
		price_amount = EXCLUDED.price_amount,
		price_currency = EXCLUDED.price_currency,
		price_period = EXCLUDED.price_period,
		listing_type = EXCLUDED.listing_type,
		property_type = EXCLUDED.property_type,
		status = EXCLUDED.status,
		bedrooms = EXCLUDED.bedrooms,
		bathrooms = EXCLUDED.bathrooms,
		area = EXCLUDED.area,
		address_line1 = EXCLUDED.address_line1,
		city = EXCLUDED.city,
		postcode = EXCLUDED.postcode,
		country = EXCLUDED.country,
		latitude = EXCLUDED.latitude,
		longitude = EXCLUDED.longitude,
		images = EXCLUDED.images,
		agent_name = EXCLUDED.agent_name,
		agent_email = EXCLUDED.agent_email,
		agent_phone = EXCLUDED.agent_phone,
		views = EXCLUDED.views,
		inquiries = EXCLUDED.inquiries,
		favorites = EXCLUDED.favorites,
		external_ref = EXCLUDED.external_ref,
		updated_at = NOW()
	`
	_, err = db.conn.Exec(query,
		p.ID, p.Source, p.Title, p.Description,
		p.Price.Amount, p.Price.Currency, p.Price.Period, p.ListingType, p.PropertyType, p.Status,
		p.Bedrooms, p.Bathrooms, p.Area,
		p.Location.AddressLine1, p.Location.City, p.Location.Postcode, p.Location.Country,
		p.Location.Latitude, p.Location.Longitude,
		string(images), p.Agent.Name, p.Agent.Email, p.Agent.Phone,
		p.Analytics.Views, p.Analytics.Inquiries, p.Analytics.Favorites, nullable(p.ExternalRef),
		p.CreatedAt, time.Now())
	return err
}

const propertyColumns = `id, source, title, description,
	price_amount, price_currency, price_period, listing_type, property_type, status,
	bedrooms, bathrooms, area,
	address_line1, city, postcode, country, latitude, longitude,
	images, agent_name, agent_email, agent_phone,
	views, inquiries, favorites, external_ref,
	created_at, updated_at`

// GetAllProperties retrieves all visible properties, newest first
func (db *DB) GetAllProperties() ([]models.Property, error) {
	query := fmt.Sprintf(`
		SELECT %s
		FROM properties
		WHERE status IN ('online', 'active')
		ORDER BY created_at DESC, id ASC
	`, propertyColumns)

	rows, err := db.conn.Query(query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	properties := []models.Property{}
	for rows.Next() {
		p, err := scanProperty(rows)
		if err != nil {
			return nil, err
		}
		properties = append(properties, *p)
	}

	return properties, rows.Err()
}

// GetPropertyByID retrieves a property by ID
func (db *DB) GetPropertyByID(id string) (*models.Property, error) {
	query := fmt.Sprintf(`SELECT %s FROM properties WHERE id = $1`, propertyColumns)
	return scanProperty(db.conn.QueryRow(query, id))
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanProperty(row rowScanner) (*models.Property, error) {
	var p models.Property
	var description, propertyType, addressLine1, city, postcode, country sql.NullString
	var images, agentName, agentEmail, agentPhone, externalRef sql.NullString

	err := row.Scan(
		&p.ID, &p.Source, &p.Title, &description,
		&p.Price.Amount, &p.Price.Currency, &p.Price.Period, &p.ListingType, &propertyType, &p.Status,
		&p.Bedrooms, &p.Bathrooms, &p.Area,
		&addressLine1, &city, &postcode, &country, &p.Location.Latitude, &p.Location.Longitude,
		&images, &agentName, &agentEmail, &agentPhone,
		&p.Analytics.Views, &p.Analytics.Inquiries, &p.Analytics.Favorites, &externalRef,
		&p.CreatedAt, &p.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	p.Description = description.String
	p.PropertyType = propertyType.String
	p.Location.AddressLine1 = addressLine1.String
	p.Location.City = city.String
	p.Location.Postcode = postcode.String
	p.Location.Country = country.String
	p.Agent.Name = agentName.String
	p.Agent.Email = agentEmail.String
	p.Agent.Phone = agentPhone.String
	p.ExternalRef = externalRef.String

	if images.Valid && images.String != "" {
		if err := json.Unmarshal([]byte(images.String), &p.Media.Images); err != nil {
			p.Media.Images = nil
		}
	}

	return &p, nil
}

func nullable(s string) interface{} {
	if s == "" {
		return nil
	}
	return s
}
