package catalog

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/Veraticus/duecard/internal/model"
)

var (
	// ErrFetchFailed indicates the scrape itself failed: network error, timeout, bad status or unreadable page.
	ErrFetchFailed = errors.New("failed to fetch offers")
	// ErrNoRecords indicates the scrape succeeded but produced no usable offers.
	ErrNoRecords = errors.New("fetch returned no usable offers")
	// ErrCatalogUnavailable indicates the stored catalog could not be read.
	ErrCatalogUnavailable = errors.New("failed to read stored catalog")
)

// LockKey is the lock held for the duration of a sync.
const LockKey = "duecard:catalog-sync"

// SyncOptions configures a single sync run.
type SyncOptions struct {
	Progress     func(done, total int)
	Threshold    float64
	FetchTimeout time.Duration
	LockTTL      time.Duration
	DryRun       bool
}

// SyncReport describes what a sync run found and did.
type SyncReport struct {
	StartedAt  time.Time
	FinishedAt time.Time
	Plan       *SyncPlan
	Result     ApplyResult
	Fetched    int
	Usable     int
	Stored     int
	DryRun     bool
}

// Syncer runs fetch, plan and apply against one catalog.
type Syncer struct {
	fetcher Fetcher
	store   DocumentStore
	locker  Locker
	logger  *slog.Logger
	now     func() time.Time
}

// NewSyncer creates a syncer. A nil locker disables locking; a nil logger uses slog.Default.
func NewSyncer(fetcher Fetcher, store DocumentStore, locker Locker, logger *slog.Logger) *Syncer {
	if logger == nil {
		logger = slog.Default()
	}
	return &Syncer{
		fetcher: fetcher,
		store:   store,
		locker:  locker,
		logger:  logger,
		now:     time.Now,
	}
}

// Run performs one sync. Fetch failures and empty fetches abort before the catalog is
// read or written and are reported as ErrFetchFailed and ErrNoRecords respectively.
// Per-record write failures do not fail the run; they are reported in SyncReport.Result.
func (s *Syncer) Run(ctx context.Context, opts SyncOptions) (*SyncReport, error) {
	if s.locker != nil {
		release, err := s.locker.Acquire(ctx, LockKey, opts.LockTTL)
		if err != nil {
			return nil, fmt.Errorf("failed to acquire sync lock: %w", err)
		}
		defer release()
	}

	report := &SyncReport{StartedAt: s.now(), DryRun: opts.DryRun}

	scraped, err := s.fetch(ctx, opts.FetchTimeout)
	if err != nil {
		return nil, err
	}
	report.Fetched = len(scraped)

	usable := Dedupe(scraped)
	report.Usable = len(usable)
	if len(usable) == 0 {
		s.logger.Warn("Scrape returned no usable offers, aborting sync", "fetched", len(scraped))
		return nil, ErrNoRecords
	}

	stored, err := s.store.ListOffers(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrCatalogUnavailable, err)
	}
	report.Stored = len(stored)

	report.Plan = BuildSyncPlan(usable, stored, PlanOptions{Threshold: opts.Threshold})
	counts := report.Plan.Counts()
	s.logger.Info("Built sync plan",
		"add", counts.Add,
		"update", counts.Update,
		"protected", counts.Protected,
		"unchanged", counts.Unchanged,
		"collapsed", counts.Collapsed,
		"dry_run", opts.DryRun)

	if !opts.DryRun && report.Plan.HasWrites() {
		report.Result = ApplySyncPlan(ctx, s.store, report.Plan, s.now(), ApplyOptions{
			Progress: opts.Progress,
			Logger:   s.logger,
		})
		s.logger.Info("Applied sync plan",
			"added", report.Result.Added,
			"updated", report.Result.Updated,
			"failed", report.Result.Failed)
	}

	report.FinishedAt = s.now()
	return report, nil
}

func (s *Syncer) fetch(ctx context.Context, timeout time.Duration) ([]model.ScrapedOffer, error) {
	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	scraped, err := s.fetcher.FetchOffers(ctx)
	if err != nil {
		s.logger.Error("Fetching offers failed", "error", err)
		return nil, fmt.Errorf("%w: %w", ErrFetchFailed, err)
	}
	return scraped, nil
}
