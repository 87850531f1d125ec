package main

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/Veraticus/duecard/internal/catalog"
	"github.com/Veraticus/duecard/internal/common"
	"github.com/Veraticus/duecard/internal/model"
	"github.com/Veraticus/duecard/internal/synclock"
	"github.com/shopspring/decimal"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type lockedLocker struct{}

func (lockedLocker) Acquire(context.Context, string, time.Duration) (func(), error) {
	return nil, synclock.ErrLocked
}

// stubCatalog points the catalog commands at an in-memory store and a fixed fetch result.
func stubCatalog(t *testing.T, store *catalog.MemoryStore, fetcher catalog.Fetcher, locker catalog.Locker) {
	t.Helper()

	prevOpen, prevFetcher, prevLocker := openCatalog, newFetcher, newLocker
	t.Cleanup(func() {
		openCatalog, newFetcher, newLocker = prevOpen, prevFetcher, prevLocker
	})

	openCatalog = func(context.Context) (catalog.DocumentStore, func(), error) {
		return store, func() {}, nil
	}
	newFetcher = func() (catalog.Fetcher, error) {
		return fetcher, nil
	}
	if locker == nil {
		locker = synclock.NoopLocker{}
	}
	newLocker = func(context.Context, string) (catalog.Locker, func(), error) {
		return locker, func() {}, nil
	}
}

func storedOffers() []model.Offer {
	return []model.Offer{
		{ID: "o1", Name: "HSBC Red Credit Card", Bank: "HSBC", CashbackRate: "4%", DataSource: model.SourceAutomatedSync},
		{ID: "o2", Name: "Citi Cash Back Card", Bank: "Citi", CashbackRate: "1%", DataSource: model.SourceManualEntry},
	}
}

func scrapedOffers() []model.ScrapedOffer {
	return []model.ScrapedOffer{
		{Name: "HSBC Red Credit Card", Bank: "HSBC", Rate: "4%"},
		{Name: "Citi Cash Back Card", Bank: "Citi", Rate: "2%"},
		{Name: "DBS Black World Mastercard", Bank: "DBS", Rate: "1.2%"},
	}
}

func TestCatalogSync(t *testing.T) {
	setNow(t, march5)
	store := catalog.NewMemoryStore(storedOffers()...)
	fetcher := &catalog.MockFetcher{Offers: scrapedOffers()}
	stubCatalog(t, store, fetcher, nil)

	out, err := executeCommand(t, "catalog", "sync")
	require.NoError(t, err)
	assert.Contains(t, out, "Add:       1")
	assert.Contains(t, out, "Protected: 1")
	assert.Contains(t, out, "Unchanged: 1")
	assert.Contains(t, out, "Collapsed: 0")
	assert.Contains(t, out, "Added 1, updated 0")
	assert.Equal(t, 1, fetcher.FetchOffersCalls)

	offers, err := store.ListOffers(context.Background())
	require.NoError(t, err)
	require.Len(t, offers, 3)
	assert.Equal(t, "DBS Black World Mastercard", offers[2].Name)
	assert.Equal(t, model.SourceAutomatedSync, offers[2].DataSource)

	citi, ok := store.Get("o2")
	require.True(t, ok)
	assert.Equal(t, "1%", citi.CashbackRate, "manually entered offers are never overwritten")
}

func TestCatalogSyncDryRun(t *testing.T) {
	stored := storedOffers()
	stored[1].DataSource = model.SourceAutomatedSync
	store := catalog.NewMemoryStore(stored...)
	stubCatalog(t, store, &catalog.MockFetcher{Offers: scrapedOffers()}, nil)

	out, err := executeCommand(t, "catalog", "sync", "--dry-run")
	require.NoError(t, err)
	assert.Contains(t, out, "Sync plan (dry run)")
	assert.Contains(t, out, "+ DBS Black World Mastercard")
	assert.Contains(t, out, `cashbackRate: "1%" -> "2%"`)
	assert.Contains(t, out, "nothing was written")

	offers, err := store.ListOffers(context.Background())
	require.NoError(t, err)
	assert.Len(t, offers, 2)
	assert.Equal(t, "1%", offers[1].CashbackRate)
}

func TestCatalogSyncErrors(t *testing.T) {
	tests := []struct {
		fetcher *catalog.MockFetcher
		locker  catalog.Locker
		wantErr error
		name    string
		message string
	}{
		{
			name: "fetch failure",
			fetcher: &catalog.MockFetcher{FetchOffersFn: func(context.Context) ([]model.ScrapedOffer, error) {
				return nil, errors.New("connection refused")
			}},
			wantErr: catalog.ErrFetchFailed,
			message: "Could not fetch offers",
		},
		{
			name:    "empty fetch",
			fetcher: &catalog.MockFetcher{},
			wantErr: catalog.ErrNoRecords,
			message: "returned no offers",
		},
		{
			name:    "lock held",
			fetcher: &catalog.MockFetcher{Offers: scrapedOffers()},
			locker:  lockedLocker{},
			wantErr: synclock.ErrLocked,
			message: "already running",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := catalog.NewMemoryStore(storedOffers()...)
			stubCatalog(t, store, tt.fetcher, tt.locker)

			_, err := executeCommand(t, "catalog", "sync")
			require.Error(t, err)
			assert.ErrorIs(t, err, tt.wantErr)
			assert.Contains(t, err.Error(), tt.message)

			offers, listErr := store.ListOffers(context.Background())
			require.NoError(t, listErr)
			assert.Len(t, offers, 2)
		})
	}
}

func TestCatalogSyncReportsFailedWrites(t *testing.T) {
	store := catalog.NewMemoryStore(storedOffers()...)
	store.Fail["DBS Black World Mastercard"] = errors.New("quota exceeded")
	stubCatalog(t, store, &catalog.MockFetcher{Offers: scrapedOffers()}, nil)

	out, err := executeCommand(t, "catalog", "sync")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "1 of 1 catalog writes failed")
	assert.Contains(t, out, "quota exceeded")
}

func TestCatalogList(t *testing.T) {
	stubCatalog(t, catalog.NewMemoryStore(storedOffers()...), &catalog.MockFetcher{}, nil)

	out, err := executeCommand(t, "catalog", "list", "--bank", "hsbc")
	require.NoError(t, err)
	assert.Contains(t, out, "HSBC Red Credit Card")
	assert.NotContains(t, out, "Citi Cash Back Card")

	out, err = executeCommand(t, "catalog", "list", "--protected")
	require.NoError(t, err)
	assert.Contains(t, out, "Citi Cash Back Card")
	assert.NotContains(t, out, "HSBC Red Credit Card")
}

func TestCatalogProtect(t *testing.T) {
	setNow(t, march5)
	store := catalog.NewMemoryStore(storedOffers()...)
	stubCatalog(t, store, &catalog.MockFetcher{}, nil)

	out, err := executeCommand(t, "catalog", "protect", "o1", "--reason", "bank confirmed rate")
	require.NoError(t, err)
	assert.Contains(t, out, "o1 is now protected")

	offer, ok := store.Get("o1")
	require.True(t, ok)
	assert.True(t, offer.Protection.Enabled)
	assert.Equal(t, "bank confirmed rate", offer.Protection.Reason)
	assert.True(t, offer.ManuallyModified)

	_, err = executeCommand(t, "catalog", "unprotect", "o1")
	require.NoError(t, err)

	offer, _ = store.Get("o1")
	assert.False(t, offer.IsProtected())

	_, err = executeCommand(t, "catalog", "protect", "missing")
	require.Error(t, err)
	assert.Contains(t, err.Error(), `No offer with ID "missing"`)
}

func TestCatalogImport(t *testing.T) {
	setNow(t, march5)
	store := catalog.NewMemoryStore(storedOffers()...)
	stubCatalog(t, store, &catalog.MockFetcher{}, nil)

	path := filepath.Join(t.TempDir(), "offers.json")
	require.NoError(t, os.WriteFile(path, []byte(`[
		{"id": "o1", "name": "HSBC Red Credit Card", "bank": "HSBC"},
		{"name": "Standard Chartered Smart Card", "bank": "Standard Chartered", "cashbackRate": "5%", "annualFee": "0"}
	]`), 0o600))

	out, err := executeCommand(t, "catalog", "import", path)
	require.NoError(t, err)
	assert.Contains(t, out, "Imported 1 offers (1 skipped, 0 failed)")

	offers, err := store.ListOffers(context.Background())
	require.NoError(t, err)
	require.Len(t, offers, 3)
	assert.Equal(t, model.SourceBulkImport, offers[2].DataSource)
	assert.True(t, offers[2].AnnualFee.Valid)
}

func TestCatalogImportRejectsUnknownFields(t *testing.T) {
	stubCatalog(t, catalog.NewMemoryStore(), &catalog.MockFetcher{}, nil)

	path := filepath.Join(t.TempDir(), "offers.json")
	require.NoError(t, os.WriteFile(path, []byte(`[{"name": "Card", "colour": "red"}]`), 0o600))

	_, err := executeCommand(t, "catalog", "import", path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "is not a valid import file")
}

func TestFormatValue(t *testing.T) {
	tests := []struct {
		value    any
		name     string
		expected string
	}{
		{name: "null decimal", value: decimal.NullDecimal{}, expected: "(none)"},
		{name: "decimal", value: decimal.NewNullDecimal(decimal.RequireFromString("1800")), expected: "1800"},
		{name: "empty string", value: "", expected: `""`},
		{name: "string", value: "4%", expected: `"4%"`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, formatValue(tt.value))
		})
	}
}

func TestOpenFirestoreCatalogConfigErrors(t *testing.T) {
	for _, env := range []string{
		"GOOGLE_CLOUD_PROJECT", "GOOGLE_APPLICATION_CREDENTIALS", "FIRESTORE_EMULATOR_HOST",
		"FIRESTORE_CLIENT_ID", "FIRESTORE_CLIENT_SECRET", "FIRESTORE_REFRESH_TOKEN",
	} {
		t.Setenv(env, "")
	}
	viper.Reset()
	t.Cleanup(viper.Reset)

	_, _, err := openFirestoreCatalog(context.Background())
	var userErr *common.UserError
	require.ErrorAs(t, err, &userErr)
	assert.Contains(t, userErr.UserMessage, "not configured")
	assert.ErrorIs(t, err, common.ErrMissingConfig)

	viper.Set("firestore.project_id", "duecard-prod")
	viper.Set("firestore.credentials_file", "/keys/firestore.json")
	viper.Set("firestore.client_id", "client")
	viper.Set("firestore.client_secret", "secret")
	viper.Set("firestore.refresh_token", "token")

	_, _, err = openFirestoreCatalog(context.Background())
	require.ErrorAs(t, err, &userErr)
	assert.Contains(t, userErr.UserMessage, "configuration is invalid")
	assert.ErrorIs(t, err, common.ErrInvalidConfig)
}
