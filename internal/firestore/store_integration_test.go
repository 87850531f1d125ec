//go:build integration
// +build integration

package firestore

import (
	"context"
	"log/slog"
	"os"
	"testing"
	"time"

	"github.com/Veraticus/duecard/internal/catalog"
	"github.com/Veraticus/duecard/internal/common"
	"github.com/Veraticus/duecard/internal/model"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStore_Integration_Emulator(t *testing.T) {
	host := os.Getenv("FIRESTORE_EMULATOR_HOST")
	if host == "" {
		t.Skip("Firestore emulator not available")
	}

	ctx := context.Background()
	config := DefaultConfig()
	config.ProjectID = "duecard-test"
	config.Collection = "offers-" + uuid.NewString()
	config.EmulatorHost = host

	store, err := NewStore(ctx, config, slog.New(slog.NewTextHandler(os.Stderr, nil)))
	require.NoError(t, err)
	defer func() { _ = store.Close() }()

	now := time.Now().UTC().Truncate(time.Millisecond)
	offer := catalog.NewOfferFromScraped(model.ScrapedOffer{Name: "Red Credit Card", Bank: "HSBC", Rate: "4%"}, "red", now)
	require.NoError(t, store.CreateOffer(ctx, &offer))
	assert.ErrorIs(t, store.CreateOffer(ctx, &offer), common.ErrDuplicateEntry)

	require.NoError(t, catalog.SetProtection(ctx, store, "red", true, "curated", now))
	assert.ErrorIs(t, store.PatchOffer(ctx, "missing", map[string]any{catalog.FieldDescription: "x"}), common.ErrNotFound)

	offers, err := store.ListOffers(ctx)
	require.NoError(t, err)
	require.Len(t, offers, 1)
	assert.Equal(t, "4%", offers[0].CashbackRate)
	assert.True(t, offers[0].IsProtected())
	assert.Equal(t, model.SourceAutomatedSync, offers[0].DataSource)
}
