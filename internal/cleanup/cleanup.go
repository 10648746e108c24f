package cleanup

import (
	"fmt"
	"log"
	"time"

	"gorm.io/gorm"

	"property-platform/internal/models"
)

// Service physically deletes stale records that are no longer visible:
// abandoned drafts and records that left the visible statuses and were
// never touched again.
type Service struct {
	db *gorm.DB
}

func NewService(db *gorm.DB) *Service {
	return &Service{db: db}
}

// Options controls one purge run.
type Options struct {
	RetentionDays int  // keep non-visible records this many days after their last update
	MaxDeletions  int  // safety cap: abort if more records than this are eligible
	DryRun        bool // log what would be deleted without deleting
}

// DefaultOptions returns the purge defaults.
func DefaultOptions() Options {
	return Options{
		RetentionDays: 90,
		MaxDeletions:  10000,
		DryRun:        false,
	}
}

// Result summarizes one purge run.
type Result struct {
	TargetCount  int       `json:"target_count"`
	DeletedCount int       `json:"deleted_count"`
	ErrorCount   int       `json:"error_count"`
	DryRun       bool      `json:"dry_run"`
	ExecutedAt   time.Time `json:"executed_at"`
	DeletedIDs   []string  `json:"deleted_ids"`
	Errors       []string  `json:"errors,omitempty"`
}

// FindStale returns records eligible for deletion: status outside the
// visible set and updated_at older than the retention cutoff.
func (s *Service) FindStale(retentionDays int) ([]models.Property, error) {
	cutoff := time.Now().AddDate(0, 0, -retentionDays)

	var properties []models.Property
	err := s.db.
		Where("status NOT IN ? AND updated_at < ?", visibleStatuses(), cutoff).
		Find(&properties).Error
	if err != nil {
		return nil, fmt.Errorf("failed to find stale properties: %w", err)
	}

	log.Printf("[Cleanup] Found %d stale properties older than %s", len(properties), cutoff.Format("2006-01-02"))
	return properties, nil
}

// Purge deletes stale records. Visible records are never touched.
func (s *Service) Purge(opts Options) (*Result, error) {
	result := &Result{
		DryRun:     opts.DryRun,
		ExecutedAt: time.Now(),
		DeletedIDs: []string{},
	}

	stale, err := s.FindStale(opts.RetentionDays)
	if err != nil {
		return nil, err
	}
	result.TargetCount = len(stale)

	if result.TargetCount == 0 {
		log.Println("[Cleanup] No stale properties to purge")
		return result, nil
	}

	if result.TargetCount > opts.MaxDeletions {
		return nil, fmt.Errorf("safety check failed: %d stale properties exceed limit of %d",
			result.TargetCount, opts.MaxDeletions)
	}

	log.Printf("[Cleanup] Purging %d properties (retention: %d days, dry-run: %v)",
		result.TargetCount, opts.RetentionDays, opts.DryRun)

	for _, prop := range stale {
		if opts.DryRun {
			log.Printf("[Cleanup] [DRY-RUN] Would delete %s (%s, status: %s)", prop.ID, prop.Title, prop.Status)
			result.DeletedIDs = append(result.DeletedIDs, prop.ID)
			result.DeletedCount++
			continue
		}

		if err := s.db.Delete(&prop).Error; err != nil {
			msg := fmt.Sprintf("failed to delete property %s: %v", prop.ID, err)
			log.Printf("[Cleanup] ERROR: %s", msg)
			result.Errors = append(result.Errors, msg)
			result.ErrorCount++
			continue
		}

		result.DeletedIDs = append(result.DeletedIDs, prop.ID)
		result.DeletedCount++
	}

	log.Printf("[Cleanup] Purge completed: %d/%d deleted, %d errors (dry-run: %v)",
		result.DeletedCount, result.TargetCount, result.ErrorCount, opts.DryRun)

	return result, nil
}

func visibleStatuses() []string {
	statuses := models.VisibleStatuses()
	out := make([]string, len(statuses))
	for i, s := range statuses {
		out[i] = string(s)
	}
	return out
}
