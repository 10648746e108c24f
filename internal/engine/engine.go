// Package engine implements the in-memory property query engine: a snapshot
// of canonical properties with filter, sort, pagination, selection, bulk
// mutation and export operations over it.
//
// An Engine is explicitly constructed per session or test from an initial
// collection; there is no process-wide shared state. All recomputation is
// synchronous and pure with respect to I/O. Returned slices are logically
// immutable: mutate the collection only through engine operations.
package engine

import (
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"

	"property-platform/internal/export"
	"property-platform/internal/models"
)

type Engine struct {
	snapshot []models.Property
	filters  FilterState
	sortSpec SortSpec
	page     int
	limit    int

	selection map[string]struct{}

	// filtered is the cached derived view, recomputed when dirty.
	filtered []models.Property
	dirty    bool
}

// New constructs an engine over an initial collection. The slice is copied;
// the caller's backing array is never mutated.
func New(snapshot []models.Property) *Engine {
	copied := make([]models.Property, len(snapshot))
	copy(copied, snapshot)

	return &Engine{
		snapshot:  copied,
		sortSpec:  SortSpec{Field: SortCreatedAt, Order: OrderDesc},
		page:      1,
		limit:     20,
		selection: make(map[string]struct{}),
		dirty:     true,
	}
}

// Snapshot returns the full unfiltered collection.
func (e *Engine) Snapshot() []models.Property {
	return e.snapshot
}

// SetFilters merges a patch into the filter state and recomputes the
// filtered view. Fields absent from the patch are left unchanged.
func (e *Engine) SetFilters(patch FilterPatch) {
	e.filters.apply(patch)
	e.dirty = true
}

// ResetFilters clears every filter predicate.
func (e *Engine) ResetFilters() {
	e.filters = FilterState{}
	e.dirty = true
}

// Filters returns the current filter state.
func (e *Engine) Filters() FilterState {
	return e.filters
}

// SetSort replaces the sort spec and recomputes the view order.
func (e *Engine) SetSort(spec SortSpec) {
	e.sortSpec = spec
	e.dirty = true
}

// Filtered returns the current filtered view in the active sort order.
func (e *Engine) Filtered() []models.Property {
	e.recompute()
	return e.filtered
}

// recompute rebuilds the filtered view: conjunction of all active
// predicates, then a total, deterministic order (ties broken by id
// ascending). The page is clamped back into range and the selection pruned
// to the ids still visible.
func (e *Engine) recompute() {
	if !e.dirty {
		return
	}

	filtered := make([]models.Property, 0, len(e.snapshot))
	for _, p := range e.snapshot {
		if e.filters.matches(&p) {
			filtered = append(filtered, p)
		}
	}
	sortProperties(filtered, e.sortSpec)
	e.filtered = filtered
	e.dirty = false

	e.clampPage()
	e.pruneSelection()
}

// --- pagination ---

// SetPage clamps the requested page silently into [1, totalPages].
func (e *Engine) SetPage(page int) {
	e.page = page
	e.recompute()
	e.clampPage()
}

// SetLimit sets the page size (minimum 1) and re-clamps the page.
func (e *Engine) SetLimit(limit int) {
	if limit < 1 {
		limit = 1
	}
	e.limit = limit
	e.dirty = true
}

func (e *Engine) Page() int {
	e.recompute()
	return e.page
}

func (e *Engine) Limit() int {
	return e.limit
}

// TotalPages derives the page count from the filtered view.
func (e *Engine) TotalPages() int {
	e.recompute()
	if len(e.filtered) == 0 {
		return 0
	}
	pages := len(e.filtered) / e.limit
	if len(e.filtered)%e.limit != 0 {
		pages++
	}
	return pages
}

// PageItems returns the current page of the filtered view. A page beyond
// the available range yields an empty slice.
func (e *Engine) PageItems() []models.Property {
	e.recompute()
	start := (e.page - 1) * e.limit
	if start >= len(e.filtered) {
		return []models.Property{}
	}
	end := start + e.limit
	if end > len(e.filtered) {
		end = len(e.filtered)
	}
	return e.filtered[start:end]
}

func (e *Engine) clampPage() {
	max := 1
	if len(e.filtered) > 0 {
		max = (len(e.filtered) + e.limit - 1) / e.limit
	}
	if e.page > max {
		e.page = max
	}
	if e.page < 1 {
		e.page = 1
	}
}

// --- selection ---

// Select adds an id to the selection set. Ids outside the current filtered
// view are ignored.
func (e *Engine) Select(id string) {
	e.recompute()
	for i := range e.filtered {
		if e.filtered[i].ID == id {
			e.selection[id] = struct{}{}
			return
		}
	}
}

// Deselect removes an id from the selection set.
func (e *Engine) Deselect(id string) {
	delete(e.selection, id)
}

// SelectAll replaces the selection with exactly the ids of the current
// filtered view.
func (e *Engine) SelectAll() {
	e.recompute()
	e.selection = make(map[string]struct{}, len(e.filtered))
	for i := range e.filtered {
		e.selection[e.filtered[i].ID] = struct{}{}
	}
}

// ClearSelection empties the selection set.
func (e *Engine) ClearSelection() {
	e.selection = make(map[string]struct{})
}

// Selected returns the selected ids, pruned to the current filtered view,
// in ascending order.
func (e *Engine) Selected() []string {
	e.recompute()
	ids := make([]string, 0, len(e.selection))
	for id := range e.selection {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// pruneSelection drops any selected id no longer present in the filtered
// view, so the selection never silently references hidden items.
func (e *Engine) pruneSelection() {
	if len(e.selection) == 0 {
		return
	}
	visible := make(map[string]struct{}, len(e.filtered))
	for i := range e.filtered {
		visible[e.filtered[i].ID] = struct{}{}
	}
	for id := range e.selection {
		if _, ok := visible[id]; !ok {
			delete(e.selection, id)
		}
	}
}

// --- bulk mutation ---

// BulkFailure records a single failed item of a bulk operation.
type BulkFailure struct {
	ID     string `json:"id"`
	Reason string `json:"reason"`
}

// BulkResult reports the per-id outcome of a bulk status update. Partial
// success is the expected outcome, not an error.
type BulkResult struct {
	Updated []string      `json:"updated"`
	Failed  []BulkFailure `json:"failed"`
}

// BulkUpdateStatus applies the status per id, independently: a failure on
// one id never blocks the others. The selection is cleared unconditionally
// once the batch completes, regardless of how many ids failed.
func (e *Engine) BulkUpdateStatus(ids []string, status models.PropertyStatus) BulkResult {
	result := BulkResult{Updated: []string{}, Failed: []BulkFailure{}}

	if !models.ValidStatus(status) {
		for _, id := range ids {
			result.Failed = append(result.Failed, BulkFailure{ID: id, Reason: "invalid status"})
		}
		e.ClearSelection()
		return result
	}

	for _, id := range ids {
		idx := e.indexOf(id)
		if idx < 0 {
			result.Failed = append(result.Failed, BulkFailure{ID: id, Reason: "not found"})
			continue
		}
		e.snapshot[idx].Status = status
		e.snapshot[idx].UpdatedAt = time.Now()
		result.Updated = append(result.Updated, id)
	}

	e.ClearSelection()
	e.dirty = true
	return result
}

// --- duplication ---

// Duplicate creates a draft copy of a property with a fresh id, appends it
// to the snapshot and returns it. The source is never mutated.
func (e *Engine) Duplicate(id string) (*models.Property, error) {
	idx := e.indexOf(id)
	if idx < 0 {
		return nil, fmt.Errorf("property not found: %s", id)
	}

	duplicate := NewDraftCopy(e.snapshot[idx])
	e.snapshot = append(e.snapshot, duplicate)
	e.dirty = true
	return &duplicate, nil
}

// NewDraftCopy shallow-copies a property under a fresh id with status reset
// to draft.
func NewDraftCopy(p models.Property) models.Property {
	duplicate := p
	duplicate.ID = uuid.NewString()
	duplicate.Status = models.PropertyStatusDraft
	duplicate.CreatedAt = time.Now()
	duplicate.UpdatedAt = duplicate.CreatedAt
	return duplicate
}

// --- export ---

// Export renders a scoped subset of the current view. The scope is ids when
// given, else the whole filtered view; either way the active sort order is
// preserved.
func (e *Engine) Export(format export.Format, ids []string) ([]byte, error) {
	e.recompute()

	scope := e.filtered
	if len(ids) > 0 {
		wanted := make(map[string]struct{}, len(ids))
		for _, id := range ids {
			wanted[id] = struct{}{}
		}
		scope = make([]models.Property, 0, len(ids))
		for _, p := range e.filtered {
			if _, ok := wanted[p.ID]; ok {
				scope = append(scope, p)
			}
		}
	}

	return export.Render(format, scope)
}

// --- stats ---

// Stats are dashboard counters computed over the full unfiltered snapshot;
// they reflect global state regardless of the active filter.
type Stats struct {
	Total          int                            `json:"total"`
	ByStatus       map[models.PropertyStatus]int  `json:"by_status"`
	ByListingType  map[models.ListingType]int     `json:"by_listing_type"`
	TotalViews     int                            `json:"total_views"`
	TotalInquiries int                            `json:"total_inquiries"`
	TotalFavorites int                            `json:"total_favorites"`
	AveragePrice   float64                        `json:"average_price"`
}

func (e *Engine) Stats() Stats {
	stats := Stats{
		Total:         len(e.snapshot),
		ByStatus:      make(map[models.PropertyStatus]int),
		ByListingType: make(map[models.ListingType]int),
	}

	var priceSum float64
	for i := range e.snapshot {
		p := &e.snapshot[i]
		stats.ByStatus[p.Status]++
		stats.ByListingType[p.ListingType]++
		stats.TotalViews += p.Analytics.Views
		stats.TotalInquiries += p.Analytics.Inquiries
		stats.TotalFavorites += p.Analytics.Favorites
		priceSum += p.Price.Amount
	}
	if stats.Total > 0 {
		stats.AveragePrice = priceSum / float64(stats.Total)
	}

	return stats
}

func (e *Engine) indexOf(id string) int {
	for i := range e.snapshot {
		if e.snapshot[i].ID == id {
			return i
		}
	}
	return -1
}
