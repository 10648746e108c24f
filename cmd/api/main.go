package main

import (
	"fmt"
	"log"
	"net/http"
	"os"
	"strconv"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"

	"property-platform/internal/aggregator"
	"property-platform/internal/cleanup"
	"property-platform/internal/config"
	"property-platform/internal/database"
	"property-platform/internal/handlers"
	"property-platform/internal/models"
	"property-platform/internal/provider"
	"property-platform/internal/ratelimit"
	"property-platform/internal/scheduler"
	"property-platform/internal/search"
)

var (
	db             *database.DB
	gormDB         *database.GormDB
	searchClient   *search.SearchClient
	appConfig      *config.Config
	providerClient *provider.Client
	agg            *aggregator.Aggregator
	appScheduler   *scheduler.Scheduler
	cleanupService *cleanup.Service
)

func main() {
	// Load .env if present (local development)
	if err := godotenv.Load(); err == nil {
		log.Println("Loaded environment from .env")
	}

	// Load configuration
	configPath := getEnv("CONFIG_PATH", "/app/config/platform.yaml")
	var err error
	appConfig, err = config.LoadConfig(configPath)
	if err != nil {
		log.Printf("Warning: Failed to load config from %s: %v. Using defaults.", configPath, err)
		appConfig = config.DefaultConfig()
	} else {
		log.Printf("Loaded configuration from %s", configPath)
	}

	// The provider credential may come from the environment; its presence is
	// the sole determinant of whether the external path is attempted.
	if appConfig.Provider.APIKey == "" {
		appConfig.Provider.APIKey = getEnv("PROVIDER_API_KEY", "")
	}

	// Initialize database based on configuration
	dbType := appConfig.Database.Type
	if dbType == "" {
		dbType = getEnv("DB_TYPE", "mysql")
	}

	var localStore aggregator.LocalStore
	if dbType == "postgres" {
		log.Println("Using PostgreSQL")
		pgCfg := appConfig.Database.Postgres

		portStr := ""
		if pgCfg.Port > 0 {
			portStr = fmt.Sprintf("%d", pgCfg.Port)
		}

		db, err = database.NewDB(
			getEnvOrConfig(pgCfg.Host, "DB_HOST", "db"),
			getEnvOrConfig(portStr, "DB_PORT", "5432"),
			getEnvOrConfig(pgCfg.User, "DB_USER", "platform_user"),
			getEnvOrConfig(pgCfg.Password, "DB_PASSWORD", "platform_pass"),
			getEnvOrConfig(pgCfg.Database, "DB_NAME", "platform_db"),
			pgCfg.SSLMode,
		)
		if err != nil {
			log.Fatalf("Failed to connect to PostgreSQL: %v", err)
		}
		defer db.Close()

		if err := db.InitSchema(); err != nil {
			log.Fatalf("Failed to initialize schema: %v", err)
		}
		localStore = db
	} else {
		log.Println("Using MySQL with GORM")
		mysqlCfg := appConfig.Database.MySQL

		portStr := ""
		if mysqlCfg.Port > 0 {
			portStr = fmt.Sprintf("%d", mysqlCfg.Port)
		}

		gormDB, err = database.NewGormDB(
			getEnvOrConfig(mysqlCfg.Host, "DB_HOST", "mysql"),
			getEnvOrConfig(portStr, "DB_PORT", "3306"),
			getEnvOrConfig(mysqlCfg.User, "DB_USER", "platform_user"),
			getEnvOrConfig(mysqlCfg.Password, "DB_PASSWORD", "platform_pass"),
			getEnvOrConfig(mysqlCfg.Database, "DB_NAME", "platform_db"),
		)
		if err != nil {
			log.Fatalf("Failed to connect to MySQL: %v", err)
		}
		defer gormDB.Close()

		if err := gormDB.InitSchema(); err != nil {
			log.Fatalf("Failed to initialize schema: %v", err)
		}
		localStore = gormDB
	}

	// Initialize Meilisearch if configured
	meilisearchHost := appConfig.Search.Meilisearch.Host
	if meilisearchHost == "" {
		meilisearchHost = getEnv("MEILISEARCH_HOST", "")
	}
	if meilisearchHost != "" {
		meilisearchKey := appConfig.Search.Meilisearch.APIKey
		if meilisearchKey == "" {
			meilisearchKey = getEnv("MEILISEARCH_KEY", "")
		}

		searchClient = search.NewSearchClient(meilisearchHost, meilisearchKey)
		if err := searchClient.InitIndex(); err != nil {
			log.Printf("Warning: Failed to initialize search index: %v", err)
		}
	} else {
		log.Println("Meilisearch not configured, free-text search disabled")
	}

	// Initialize the external provider client and the aggregator
	providerClient = provider.NewClient(provider.ClientConfig{
		BaseURL: appConfig.Provider.BaseURL,
		APIKey:  appConfig.Provider.APIKey,
		Timeout: appConfig.Provider.GetTimeout(),
		Limiter: ratelimit.NewLimiter(
			appConfig.Provider.RateLimit.PerMinute,
			appConfig.Provider.RateLimit.PerHour,
			appConfig.Provider.RateLimit.Enabled,
		),
		PageSize: appConfig.Provider.PageSize,
	})

	agg = aggregator.New(providerClient, localStore, aggregator.Config{
		HasCredential: appConfig.Provider.HasCredential(),
		Country:       appConfig.Provider.Country,
		PageSize:      appConfig.Provider.PageSize,
	})

	if appConfig.Provider.HasCredential() {
		log.Println("External provider credential configured, global search tries external first")
	} else {
		log.Println("No external provider credential, global search always uses the local store")
	}

	// Initialize and start the sync scheduler (MySQL only)
	if gormDB != nil {
		cleanupService = cleanup.NewService(gormDB.DB())
		appScheduler = scheduler.NewScheduler(agg, gormDB, searchClient, &appConfig.Sync)
		if err := appScheduler.Start(); err != nil {
			log.Printf("Warning: Failed to start scheduler: %v", err)
		}
		defer appScheduler.Stop()
	}

	// Setup Gin router
	r := gin.Default()

	// CORS configuration
	r.Use(cors.New(cors.Config{
		AllowOrigins:     []string{"http://localhost:5173"},
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE"},
		AllowHeaders:     []string{"Origin", "Content-Type"},
		AllowCredentials: true,
	}))

	// Routes
	r.GET("/health", healthCheck)

	propertyHandler := handlers.NewPropertyHandler(agg, gormDB, db, searchClient, appScheduler)

	api := r.Group("/api")
	{
		api.GET("/properties/global", propertyHandler.GlobalSearch)
		api.GET("/properties", propertyHandler.ListProperties)
		api.GET("/properties/sections", propertyHandler.GetSections)
		api.GET("/properties/export", propertyHandler.ExportProperties)
		api.GET("/properties/:id", propertyHandler.GetProperty)
		api.POST("/properties/bulk-status", propertyHandler.BulkUpdateStatus)
		api.POST("/properties/:id/duplicate", propertyHandler.DuplicateProperty)

		api.GET("/stats", propertyHandler.GetStats)
		api.POST("/sync/run", propertyHandler.TriggerSync)

		api.GET("/search", searchProperties)
		api.POST("/search/reindex", reindexAllProperties)

		api.GET("/provider/quota", providerQuota)
		api.POST("/admin/cleanup", runCleanup)
	}

	port := getEnv("PORT", "8084")
	log.Printf("Server starting on port %s", port)
	if err := r.Run(":" + port); err != nil {
		log.Fatalf("Failed to start server: %v", err)
	}
}

func healthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status": "ok",
		"time":   time.Now(),
	})
}

func searchProperties(c *gin.Context) {
	query := c.Query("q")
	limitStr := c.DefaultQuery("limit", "20")

	limit, err := strconv.ParseInt(limitStr, 10, 64)
	if err != nil {
		limit = 20
	}

	// If search is not configured or no query given, serve from the store
	if searchClient == nil || query == "" {
		var properties []models.Property
		var err error

		if gormDB != nil {
			properties, err = gormDB.GetAllProperties()
		} else {
			properties, err = db.GetAllProperties()
		}

		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, properties)
		return
	}

	// Build filter parameters for the search index
	params := search.FilterParams{
		Query:       query,
		Limit:       limit,
		ListingType: c.Query("type"),
		SortBy:      c.Query("sort_by"),
	}

	if minStr := c.Query("min_price"); minStr != "" {
		if min, err := strconv.Atoi(minStr); err == nil {
			params.MinPrice = &min
		}
	}
	if maxStr := c.Query("max_price"); maxStr != "" {
		if max, err := strconv.Atoi(maxStr); err == nil {
			params.MaxPrice = &max
		}
	}
	if bedsStr := c.Query("min_bedrooms"); bedsStr != "" {
		if beds, err := strconv.Atoi(bedsStr); err == nil {
			params.MinBedrooms = &beds
		}
	}

	properties, err := searchClient.FilterSearch(params)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, properties)
}

// reindexAllProperties re-indexes all properties from the store to Meilisearch
func reindexAllProperties(c *gin.Context) {
	if searchClient == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"error": "Search is not configured",
		})
		return
	}

	log.Println("[Reindex] Starting full reindex of all properties")

	var properties []models.Property
	var err error
	if gormDB != nil {
		properties, err = gormDB.GetAllProperties()
	} else {
		properties, err = db.GetAllProperties()
	}

	if err != nil {
		log.Printf("[Reindex] Error fetching properties from store: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "Failed to fetch properties from store",
		})
		return
	}

	if err := searchClient.IndexProperties(properties); err != nil {
		log.Printf("[Reindex] Error indexing properties: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	log.Printf("[Reindex] Reindex complete. Indexed: %d", len(properties))

	c.JSON(http.StatusOK, gin.H{
		"message": "Reindex complete",
		"total":   len(properties),
	})
}

// providerQuota reports the external provider's request quota usage
func providerQuota(c *gin.Context) {
	c.JSON(http.StatusOK, providerClient.QuotaUsage())
}

// runCleanup physically deletes stale non-visible properties (abandoned
// drafts and records that left the visible statuses long ago)
func runCleanup(c *gin.Context) {
	if cleanupService == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"error": "Cleanup requires the MySQL store",
		})
		return
	}

	opts := cleanup.DefaultOptions()
	if daysStr := c.Query("retention_days"); daysStr != "" {
		if days, err := strconv.Atoi(daysStr); err == nil && days > 0 {
			opts.RetentionDays = days
		}
	}
	opts.DryRun = c.Query("dry_run") == "true"

	result, err := cleanupService.Purge(opts)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, result)
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvOrConfig returns config value if set, otherwise falls back to environment variable, then default
func getEnvOrConfig(configValue, envKey, defaultValue string) string {
	if configValue != "" {
		return configValue
	}
	return getEnv(envKey, defaultValue)
}
