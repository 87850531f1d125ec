package catalog

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/Veraticus/duecard/internal/common"
	"github.com/Veraticus/duecard/internal/model"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var syncTime = time.Date(2025, time.June, 1, 3, 0, 0, 0, time.UTC)

func TestApplySyncPlan(t *testing.T) {
	stored := []model.Offer{
		{ID: "stale", Name: "Red Credit Card", Bank: "HSBC", CashbackRate: "4%", Description: "Online", Network: "Visa"},
		{ID: "locked", Name: "EveryMile Card", Bank: "HSBC", CashbackRate: "$2/mile", Protection: model.Protection{Enabled: true}},
		{ID: "same", Name: "Smart Card", Bank: "Standard Chartered", CashbackRate: "5%"},
	}
	store := NewMemoryStore(stored...)
	scraped := []model.ScrapedOffer{
		{Name: "Red Credit Card", Bank: "HSBC", Rate: "8%"},
		{Name: "EveryMile Card", Bank: "HSBC", Rate: "$1/mile"},
		{Name: "Smart Card", Bank: "Standard Chartered", Rate: "5%"},
		{Name: "  Travel   Platinum ", Bank: "DBS", Rate: "3 miles", AnnualFee: dec("1800"), URL: "https://example.com/dbs", Categories: []string{"travel"}},
	}
	plan := BuildSyncPlan(scraped, stored, DefaultPlanOptions())

	var progress []int
	result := ApplySyncPlan(context.Background(), store, plan, syncTime, ApplyOptions{
		Progress: func(done, total int) {
			assert.Equal(t, 2, total)
			progress = append(progress, done)
		},
	})

	assert.Equal(t, 1, result.Added)
	assert.Equal(t, 1, result.Updated)
	assert.Zero(t, result.Failed)
	assert.Empty(t, result.Errors)
	assert.Equal(t, 2, result.Succeeded())
	assert.Equal(t, []int{1, 2}, progress)

	offers, err := store.ListOffers(context.Background())
	require.NoError(t, err)
	require.Len(t, offers, 4)

	added := offers[3]
	_, err = uuid.Parse(added.ID)
	assert.NoError(t, err)
	assert.Equal(t, "Travel Platinum", added.Name)
	assert.Equal(t, model.SourceAutomatedSync, added.DataSource)
	assert.False(t, added.IsProtected())
	assert.Equal(t, dec("1800"), added.AnnualFee)
	assert.Equal(t, "https://example.com/dbs", added.SourceURL)
	assert.Equal(t, syncTime, added.CreatedAt)

	updated, ok := store.Get("stale")
	require.True(t, ok)
	assert.Equal(t, "8%", updated.CashbackRate)
	assert.Equal(t, "Online", updated.Description, "fields outside the changeset are untouched")
	assert.Equal(t, "Visa", updated.Network)
	assert.Equal(t, syncTime, updated.UpdatedAt)
	assert.Equal(t, syncTime, updated.LastSyncedAt)

	locked, _ := store.Get("locked")
	assert.Equal(t, stored[1], locked)
	same, _ := store.Get("same")
	assert.Equal(t, stored[2], same)
}

func TestApplySyncPlan_CollectsFailures(t *testing.T) {
	stored := []model.Offer{
		{ID: "a", Name: "Alpha Card", CashbackRate: "1%"},
		{ID: "b", Name: "Beta Card", CashbackRate: "1%"},
	}
	store := NewMemoryStore(stored...)
	writeErr := errors.New("deadline exceeded")
	store.Fail["a"] = writeErr
	store.Fail["Gamma Card"] = writeErr

	plan := BuildSyncPlan([]model.ScrapedOffer{
		{Name: "Alpha Card", Rate: "2%"},
		{Name: "Beta Card", Rate: "2%"},
		{Name: "Gamma Card", Rate: "2%"},
		{Name: "Delta Card", Rate: "2%"},
	}, stored, DefaultPlanOptions())

	ids := 0
	result := ApplySyncPlan(context.Background(), store, plan, syncTime, ApplyOptions{
		NewID: func() string {
			ids++
			return fmt.Sprintf("new-%d", ids)
		},
	})

	assert.Equal(t, 1, result.Added)
	assert.Equal(t, 1, result.Updated)
	assert.Equal(t, 2, result.Failed)
	require.Len(t, result.Errors, 2)
	assert.Equal(t, "add", result.Errors[0].Op)
	assert.Equal(t, "Gamma Card", result.Errors[0].Name)
	assert.Equal(t, "update", result.Errors[1].Op)
	assert.Equal(t, "a", result.Errors[1].ID)
	assert.ErrorIs(t, result.Errors[1], writeErr)

	_, ok := store.Get("new-2")
	assert.True(t, ok, "writes after a failure still happen")
	beta, _ := store.Get("b")
	assert.Equal(t, "2%", beta.CashbackRate)
}

func TestApplySyncPlan_MissingTarget(t *testing.T) {
	plan := &SyncPlan{ToUpdate: []PlanEntry{{
		Stored:  model.Offer{ID: "gone", Name: "Gone"},
		Changes: []FieldChange{{Field: FieldCashbackRate, New: "1%"}},
	}}}

	result := ApplySyncPlan(context.Background(), NewMemoryStore(), plan, syncTime, ApplyOptions{})

	assert.Equal(t, 1, result.Failed)
	require.Len(t, result.Errors, 1)
	assert.ErrorIs(t, result.Errors[0], common.ErrNotFound)
}

func TestPatchFields(t *testing.T) {
	fields := PatchFields([]FieldChange{
		{Field: FieldDescription, Old: "a", New: "b"},
		{Field: FieldMinIncome, New: dec("120000")},
	}, syncTime)

	assert.Equal(t, map[string]any{
		FieldDescription:  "b",
		FieldMinIncome:    dec("120000"),
		FieldUpdatedAt:    syncTime,
		FieldLastSyncedAt: syncTime,
	}, fields)
}
