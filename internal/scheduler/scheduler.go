package scheduler

import (
	"context"
	"log"

	"github.com/robfig/cron/v3"

	"property-platform/internal/aggregator"
	"property-platform/internal/config"
	"property-platform/internal/database"
	"property-platform/internal/models"
	"property-platform/internal/provider"
	"property-platform/internal/search"
)

// Scheduler runs the scheduled external sync: for each configured postcode
// it resolves a global search through the aggregator, upserts external
// results into the local store and reindexes the search index.
type Scheduler struct {
	cron      *cron.Cron
	agg       *aggregator.Aggregator
	store     *database.GormDB
	search    *search.SearchClient
	config    *config.Sync
	isRunning bool
}

// NewScheduler creates a new scheduler
func NewScheduler(agg *aggregator.Aggregator, store *database.GormDB, searchClient *search.SearchClient, cfg *config.Sync) *Scheduler {
	return &Scheduler{
		cron:   cron.New(),
		agg:    agg,
		store:  store,
		search: searchClient,
		config: cfg,
	}
}

// Start starts the scheduler
func (s *Scheduler) Start() error {
	if !s.config.Enabled {
		log.Println("Scheduler: External sync is disabled in configuration")
		return nil
	}

	_, err := s.cron.AddFunc(s.config.Schedule, func() {
		log.Println("Scheduler: Starting external sync job...")
		if err := s.runSync(); err != nil {
			log.Printf("Scheduler: External sync failed: %v", err)
		} else {
			log.Println("Scheduler: External sync completed successfully")
		}
	})

	if err != nil {
		return err
	}

	s.cron.Start()
	s.isRunning = true
	log.Printf("Scheduler: Started external sync (cron: %s, postcodes: %d)",
		s.config.Schedule, len(s.config.Postcodes))

	return nil
}

// Stop stops the scheduler
func (s *Scheduler) Stop() {
	if s.isRunning {
		s.cron.Stop()
		s.isRunning = false
		log.Println("Scheduler: Stopped")
	}
}

// runSync executes one sync sweep over the configured postcodes.
func (s *Scheduler) runSync() error {
	successCount := 0
	errorCount := 0
	indexed := []models.Property{}

	for i, postcode := range s.config.Postcodes {
		log.Printf("Scheduler: [%d/%d] Syncing postcode %s", i+1, len(s.config.Postcodes), postcode)

		result := s.agg.Search(context.Background(), provider.SearchCriteria{
			Postcode: postcode,
			PageSize: s.config.Limit,
		})

		if result.FallbackUsed {
			// Nothing new from the external path for this postcode
			log.Printf("Scheduler: Postcode %s served from local store, skipping upsert", postcode)
			continue
		}

		for j := range result.Properties {
			p := result.Properties[j]
			if err := s.store.SaveProperty(&p); err != nil {
				log.Printf("Scheduler: Failed to save property %s: %v", p.ID, err)
				errorCount++
				continue
			}
			indexed = append(indexed, p)
			successCount++
		}
	}

	if s.search != nil && len(indexed) > 0 {
		if err := s.search.IndexProperties(indexed); err != nil {
			log.Printf("Scheduler: Warning: failed to index synced properties: %v", err)
		}
	}

	log.Printf("Scheduler: Sync completed. Saved: %d, Errors: %d", successCount, errorCount)
	return nil
}

// RunNow immediately executes the sync job (for manual trigger)
func (s *Scheduler) RunNow() error {
	log.Println("Scheduler: Manual trigger - starting sync job...")
	return s.runSync()
}
