// Package testutil provides test helpers for code that runs against the ledger database.
package testutil

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/Veraticus/duecard/internal/model"
	"github.com/Veraticus/duecard/internal/storage"
)

// TestDB represents a test database with associated test utilities.
type TestDB struct {
	Storage *storage.SQLiteStorage
	t       *testing.T
	// Path is the database file, or ":memory:".
	Path  string
	Cards []model.Card
}

// TestDBOptions provides configuration options for test database setup.
type TestDBOptions struct {
	CustomSetup    func(context.Context, *storage.SQLiteStorage) error
	Cards          []model.Card
	OnDisk         bool
	SkipMigrations bool
}

// SetupTestDB creates a new in-memory test database seeded with cards.
// It automatically handles migrations and cleanup.
//
// Example:
//
//	db := testutil.SetupTestDB(t,
//		testutil.NewCard("hsbc").DueOn(15).Build(),
//	)
func SetupTestDB(t *testing.T, cards ...model.Card) *TestDB {
	t.Helper()
	return SetupTestDBWithOptions(t, TestDBOptions{Cards: cards})
}

// SetupFileDB is SetupTestDB backed by a file in a temporary directory, for code
// that opens the database by path itself.
func SetupFileDB(t *testing.T, cards ...model.Card) *TestDB {
	t.Helper()
	return SetupTestDBWithOptions(t, TestDBOptions{Cards: cards, OnDisk: true})
}

// SetupTestDBWithOptions creates a test database with custom options.
func SetupTestDBWithOptions(t *testing.T, opts TestDBOptions) *TestDB {
	t.Helper()

	path := ":memory:"
	if opts.OnDisk {
		path = filepath.Join(t.TempDir(), "duecard.db")
	}

	store, err := storage.NewSQLiteStorage(path)
	if err != nil {
		t.Fatalf("failed to create test database: %v", err)
	}
	ctx := context.Background()

	// Run migrations unless skipped
	if !opts.SkipMigrations {
		if err := store.Migrate(ctx); err != nil {
			t.Fatalf("failed to run migrations: %v", err)
		}
	}

	// Seed cards
	cards := make([]model.Card, len(opts.Cards))
	for i, card := range opts.Cards {
		if err := store.CreateCard(ctx, &card); err != nil {
			t.Fatalf("failed to seed card %q: %v", card.ID, err)
		}
		cards[i] = card
	}

	// Run custom setup
	if opts.CustomSetup != nil {
		if err := opts.CustomSetup(ctx, store); err != nil {
			t.Fatalf("custom setup failed: %v", err)
		}
	}

	// Register cleanup
	t.Cleanup(func() {
		store.Close()
	})

	return &TestDB{
		Storage: store,
		Path:    path,
		Cards:   cards,
		t:       t,
	}
}

// MustGetCard reloads a card or fails the test.
func (db *TestDB) MustGetCard(id string) *model.Card {
	db.t.Helper()
	card, err := db.Storage.GetCard(context.Background(), id)
	if err != nil {
		db.t.Fatalf("failed to load card %q: %v", id, err)
	}
	return card
}

// Payments returns the stored payment records of a card or fails the test.
func (db *TestDB) Payments(cardID string) []model.Payment {
	db.t.Helper()
	payments, err := db.Storage.GetPaymentsForCard(context.Background(), cardID)
	if err != nil {
		db.t.Fatalf("failed to load payments for %q: %v", cardID, err)
	}
	return payments
}
