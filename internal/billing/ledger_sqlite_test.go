package billing

import (
	"context"
	"testing"
	"time"

	"github.com/Veraticus/duecard/internal/model"
	"github.com/Veraticus/duecard/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLedger_SQLiteRoundTrip(t *testing.T) {
	ctx := context.Background()
	db := testutil.SetupTestDB(t,
		testutil.NewCard("boc").Named("BOC Chill").DueOn(31).Build(),
	)
	ledger := NewLedger(db.Storage, nil)

	// April has 30 days, so the 31st falls on the 30th.
	now := time.Date(2024, 4, 30, 20, 0, 0, 0, time.UTC)

	status, err := ledger.Status(ctx, "boc", now)
	require.NoError(t, err)
	assert.Equal(t, time.Date(2024, 4, 30, 0, 0, 0, 0, time.UTC), status.Status.DueDate)
	assert.Equal(t, 0, status.Status.DaysDiff)

	created, next, err := ledger.MarkPaid(ctx, "boc", now)
	require.NoError(t, err)
	require.NotNil(t, created)
	require.NotNil(t, created.OnTime)
	assert.True(t, *created.OnTime, "paying on the due day is on time")
	assert.Equal(t, "2024-05", next.MonthKey)

	assert.True(t, db.MustGetCard("boc").IsPaid)
	payments := db.Payments("boc")
	require.Len(t, payments, 1)
	assert.Equal(t, "2024-04", payments[0].MonthKey)

	// A second mark in the same state pays May in advance.
	created, next, err = ledger.MarkPaid(ctx, "boc", now)
	require.NoError(t, err)
	require.NotNil(t, created)
	assert.Equal(t, "2024-05", created.MonthKey)
	assert.Equal(t, model.ReasonNextMonthPaid, next.Reason)

	removed, err := ledger.Unmark(ctx, "boc", "2024-04", now)
	require.NoError(t, err)
	assert.True(t, removed)
	assert.False(t, db.MustGetCard("boc").IsPaid)
}
