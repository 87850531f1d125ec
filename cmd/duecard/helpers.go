package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/Veraticus/duecard/internal/billing"
	"github.com/Veraticus/duecard/internal/catalog"
	"github.com/Veraticus/duecard/internal/common"
	"github.com/Veraticus/duecard/internal/config"
	"github.com/Veraticus/duecard/internal/firestore"
	"github.com/Veraticus/duecard/internal/scraper"
	"github.com/Veraticus/duecard/internal/service"
	"github.com/Veraticus/duecard/internal/storage"
	"github.com/Veraticus/duecard/internal/synclock"
	"github.com/spf13/viper"
)

// now is the clock used by every command. Tests replace it.
var now = time.Now

// Catalog collaborators. Tests replace these to avoid the network.
var (
	openCatalog = openFirestoreCatalog
	newFetcher  = newScraperFetcher
	newLocker   = newSyncLocker
)

// initStorage initializes the storage service with proper path expansion.
func initStorage(ctx context.Context) (service.Storage, error) {
	// Get database path from config
	dbPath := viper.GetString("database.path")
	if dbPath == "" {
		dbPath = config.DefaultDatabasePath()
	}

	// Expand tilde and environment variables
	dbPath = config.ExpandPath(dbPath)

	// Initialize storage
	store, err := storage.NewSQLiteStorage(dbPath)
	if err != nil {
		return nil, err
	}

	// Run migrations
	if err := store.Migrate(ctx); err != nil {
		_ = store.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	return store, nil
}

// withLedger opens the ledger database, runs fn and closes the database again.
func withLedger(ctx context.Context, fn func(store service.Storage, ledger *billing.Ledger) error) error {
	store, err := initStorage(ctx)
	if err != nil {
		return fmt.Errorf("failed to initialize storage: %w", err)
	}
	defer func() {
		if closeErr := store.Close(); closeErr != nil {
			slog.Error("Failed to close storage", "error", closeErr)
		}
	}()

	return fn(store, billing.NewLedger(store, slog.Default()))
}

// cardNotFound turns a storage miss into a message for the user.
func cardNotFound(id string, err error) error {
	if errors.Is(err, common.ErrNotFound) {
		return common.NewUserError(fmt.Sprintf("No card with ID %q. Run 'duecard cards list' to see your cards.", id), err)
	}
	return err
}

func openFirestoreCatalog(ctx context.Context) (catalog.DocumentStore, func(), error) {
	cfg, err := config.LoadFirestoreConfig()
	if errors.Is(err, common.ErrMissingConfig) {
		return nil, nil, common.NewUserError("Catalog store is not configured. Set firestore.project_id and credentials.", err)
	}
	if err != nil {
		return nil, nil, common.NewUserError("Catalog store configuration is invalid.", err)
	}

	store, err := firestore.NewStore(ctx, *cfg, slog.Default())
	if err != nil {
		return nil, nil, fmt.Errorf("failed to connect to catalog store: %w", err)
	}

	closer := func() {
		if closeErr := store.Close(); closeErr != nil {
			slog.Error("Failed to close catalog store", "error", closeErr)
		}
	}
	return store, closer, nil
}

func newScraperFetcher() (catalog.Fetcher, error) {
	cfg, err := config.LoadScraperConfig()
	if err != nil {
		return nil, err
	}
	client, err := scraper.NewClient(*cfg, slog.Default())
	if err != nil {
		return nil, err
	}
	return client, nil
}

// newSyncLocker connects to redis when sync.redis_addr is set. Without it, runs are not
// coordinated across machines.
func newSyncLocker(ctx context.Context, addr string) (catalog.Locker, func(), error) {
	if addr == "" {
		slog.Debug("No redis address configured, sync lock disabled")
		return synclock.NoopLocker{}, func() {}, nil
	}

	locker, err := synclock.NewRedisLocker(ctx, addr, slog.Default())
	if err != nil {
		return nil, nil, err
	}

	closer := func() {
		if closeErr := locker.Close(); closeErr != nil {
			slog.Error("Failed to close redis connection", "error", closeErr)
		}
	}
	return locker, closer, nil
}
