package catalog

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/Veraticus/duecard/internal/model"
	"github.com/google/uuid"
)

// RecordError is a write failure for a single offer.
type RecordError struct {
	Err  error
	ID   string
	Name string
	Op   string
}

func (e RecordError) Error() string {
	if e.ID == "" {
		return fmt.Sprintf("%s %q: %v", e.Op, e.Name, e.Err)
	}
	return fmt.Sprintf("%s %q (%s): %v", e.Op, e.Name, e.ID, e.Err)
}

func (e RecordError) Unwrap() error {
	return e.Err
}

// ApplyResult counts the outcome of applying a plan.
type ApplyResult struct {
	Errors  []RecordError
	Added   int
	Updated int
	Failed  int
}

// Succeeded returns the number of successful writes.
func (r ApplyResult) Succeeded() int {
	return r.Added + r.Updated
}

// ApplyOptions tunes plan application. Progress is called after every write attempt;
// NewID generates document IDs for added offers and defaults to a random UUID.
type ApplyOptions struct {
	Progress func(done, total int)
	NewID    func() string
	Logger   *slog.Logger
}

// ApplySyncPlan writes the plan's additions and updates to store. Protected and unchanged
// entries are never touched. A failed write is recorded and the remaining writes continue.
func ApplySyncPlan(ctx context.Context, store DocumentStore, plan *SyncPlan, now time.Time, opts ApplyOptions) ApplyResult {
	if opts.NewID == nil {
		opts.NewID = uuid.NewString
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	var result ApplyResult
	total := len(plan.ToAdd) + len(plan.ToUpdate)
	done := 0
	step := func() {
		done++
		if opts.Progress != nil {
			opts.Progress(done, total)
		}
	}

	for _, scraped := range plan.ToAdd {
		offer := NewOfferFromScraped(scraped, opts.NewID(), now)
		if err := store.CreateOffer(ctx, &offer); err != nil {
			logger.Warn("Failed to add offer", "name", offer.Name, "id", offer.ID, "error", err)
			result.Failed++
			result.Errors = append(result.Errors, RecordError{Op: "add", ID: offer.ID, Name: offer.Name, Err: err})
		} else {
			logger.Debug("Added offer", "name", offer.Name, "id", offer.ID)
			result.Added++
		}
		step()
	}

	for _, entry := range plan.ToUpdate {
		fields := PatchFields(entry.Changes, now)
		if err := store.PatchOffer(ctx, entry.Stored.ID, fields); err != nil {
			logger.Warn("Failed to update offer", "name", entry.Stored.Name, "id", entry.Stored.ID, "error", err)
			result.Failed++
			result.Errors = append(result.Errors, RecordError{Op: "update", ID: entry.Stored.ID, Name: entry.Stored.Name, Err: err})
		} else {
			logger.Debug("Updated offer", "name", entry.Stored.Name, "id", entry.Stored.ID, "fields", len(entry.Changes))
			result.Updated++
		}
		step()
	}

	return result
}

// PatchFields turns a changeset into the field map written for an update.
func PatchFields(changes []FieldChange, now time.Time) map[string]any {
	fields := make(map[string]any, len(changes)+2)
	for _, change := range changes {
		fields[change.Field] = change.New
	}
	fields[FieldUpdatedAt] = now
	fields[FieldLastSyncedAt] = now
	return fields
}

// NewOfferFromScraped builds the catalog document for a newly discovered offer.
func NewOfferFromScraped(scraped model.ScrapedOffer, id string, now time.Time) model.Offer {
	return model.Offer{
		ID:           id,
		Name:         normalizeText(scraped.Name),
		Bank:         normalizeText(scraped.Bank),
		CashbackRate: normalizeText(scraped.Rate),
		Description:  normalizeText(scraped.Description),
		MinIncome:    scraped.MinIncome,
		AnnualFee:    scraped.AnnualFee,
		Network:      scraped.Network,
		Categories:   append([]string(nil), scraped.Categories...),
		SourceURL:    scraped.URL,
		DataSource:   model.SourceAutomatedSync,
		CreatedAt:    now,
		UpdatedAt:    now,
		LastSyncedAt: now,
	}
}
