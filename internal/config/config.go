package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Config represents the application configuration
type Config struct {
	Database Database  `yaml:"database"`
	Search   Search    `yaml:"search"`
	Provider Provider  `yaml:"provider"`
	Sync     Sync      `yaml:"sync"`
	Logging  Logging   `yaml:"logging"`
	Timezone string    `yaml:"timezone"`
}

// Database contains database settings
type Database struct {
	Type     string   `yaml:"type"`
	MySQL    MySQL    `yaml:"mysql"`
	Postgres Postgres `yaml:"postgres"`
}

// MySQL contains MySQL connection settings
type MySQL struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	Database string `yaml:"database"`
}

// Postgres contains PostgreSQL connection settings
type Postgres struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	Database string `yaml:"database"`
	SSLMode  string `yaml:"sslmode"`
}

// Search contains search engine settings
type Search struct {
	Meilisearch Meilisearch `yaml:"meilisearch"`
}

// Meilisearch contains Meilisearch connection settings
type Meilisearch struct {
	Host   string `yaml:"host"`
	APIKey string `yaml:"api_key"`
}

// Provider contains external listings provider settings.
// An empty APIKey means the external path is never attempted and every
// global search is served from the local store.
type Provider struct {
	BaseURL        string    `yaml:"base_url"`
	APIKey         string    `yaml:"api_key"`
	TimeoutSeconds int       `yaml:"timeout_seconds"`
	DefaultRadius  float64   `yaml:"default_radius"`
	Country        string    `yaml:"country"`
	PageSize       int       `yaml:"page_size"`
	RateLimit      RateLimit `yaml:"rate_limit"`
}

// RateLimit contains provider quota settings. The provider bills per
// request, so the quota is enforced locally before each sub-request.
type RateLimit struct {
	Enabled   bool `yaml:"enabled"`
	PerMinute int  `yaml:"per_minute"`
	PerHour   int  `yaml:"per_hour"`
}

// Sync contains scheduled external sync settings
type Sync struct {
	Enabled   bool     `yaml:"enabled"`
	Schedule  string   `yaml:"schedule"`
	Postcodes []string `yaml:"postcodes"`
	Limit     int      `yaml:"limit"`
}

// Logging contains logging settings
type Logging struct {
	Level        string `yaml:"level"`
	LogRequests  bool   `yaml:"log_requests"`
	LogResponses bool   `yaml:"log_responses"`
}

// DefaultConfig returns default configuration
func DefaultConfig() *Config {
	return &Config{
		Database: Database{
			Type: "mysql",
		},
		Provider: Provider{
			BaseURL:        "https://api.listings.example.com",
			TimeoutSeconds: 10,
			DefaultRadius:  0.5,
			Country:        "United Kingdom",
			PageSize:       20,
			RateLimit: RateLimit{
				Enabled:   false,
				PerMinute: 60,
				PerHour:   1000,
			},
		},
		Sync: Sync{
			Enabled:  false,
			Schedule: "0 3 * * *",
			Limit:    50,
		},
		Logging: Logging{
			Level:        "info",
			LogRequests:  true,
			LogResponses: false,
		},
	}
}

// LoadConfig loads configuration from a YAML file
func LoadConfig(filepath string) (*Config, error) {
	// Start with default config
	config := DefaultConfig()

	// If file doesn't exist, return default config
	if _, err := os.Stat(filepath); os.IsNotExist(err) {
		return config, nil
	}

	// Read file
	data, err := os.ReadFile(filepath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	// Parse YAML
	if err := yaml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	return config, nil
}

// GetTimeout returns the per-request provider timeout as a duration
func (p *Provider) GetTimeout() time.Duration {
	if p.TimeoutSeconds <= 0 {
		return 10 * time.Second
	}
	return time.Duration(p.TimeoutSeconds) * time.Second
}

// HasCredential reports whether the external path may be attempted
func (p *Provider) HasCredential() bool {
	return p.APIKey != ""
}
