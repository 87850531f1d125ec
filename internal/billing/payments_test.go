package billing

import (
	"testing"
	"time"

	"github.com/Veraticus/duecard/internal/common"
	"github.com/Veraticus/duecard/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMarkPayment_CreatesRecordForResolvedCycle(t *testing.T) {
	card := model.Card{ID: "card-1", DueDay: 15}
	now := time.Date(2024, 3, 10, 14, 0, 0, 0, time.UTC)

	updated, created, err := MarkPayment(card, nil, now)
	require.NoError(t, err)
	require.NotNil(t, created)

	assert.Len(t, updated, 1)
	assert.Equal(t, "2024-03", created.MonthKey)
	assert.Equal(t, now, created.MarkedAt)
	assert.Equal(t, time.Date(2024, 3, 15, 0, 0, 0, 0, time.UTC), created.DueDate)
	require.NotNil(t, created.OnTime)
	assert.True(t, *created.OnTime)
}

func TestMarkPayment_LateWhenPastDueDay(t *testing.T) {
	card := model.Card{ID: "card-1", DueDay: 15}
	now := time.Date(2024, 3, 16, 0, 0, 1, 0, time.UTC)

	_, created, err := MarkPayment(card, nil, now)
	require.NoError(t, err)
	require.NotNil(t, created)
	assert.False(t, *created.OnTime)
}

func TestMarkPayment_OnTimeDuringDueDay(t *testing.T) {
	card := model.Card{ID: "card-1", DueDay: 15}
	now := time.Date(2024, 3, 15, 23, 59, 0, 0, time.UTC)

	_, created, err := MarkPayment(card, nil, now)
	require.NoError(t, err)
	assert.True(t, *created.OnTime)
}

func TestMarkPayment_Idempotent(t *testing.T) {
	card := model.Card{ID: "card-1", DueDay: 15}
	now := time.Date(2024, 3, 10, 0, 0, 0, 0, time.UTC)

	first, created, err := MarkPayment(card, nil, now)
	require.NoError(t, err)
	require.NotNil(t, created)

	// After the first mark the resolved cycle moves to April, so a second call pays April.
	// Marking against the same resolved key twice must be a no-op.
	status := ResolveCurrentBillStatus(card, first, now)
	require.Equal(t, "2024-04", status.MonthKey)

	second, created, err := MarkPayment(card, first, now)
	require.NoError(t, err)
	require.NotNil(t, created)
	assert.Equal(t, "2024-04", created.MonthKey)

	third, created, err := MarkPayment(card, second, now)
	require.NoError(t, err)
	assert.Nil(t, created, "next month already paid resolves to the same key")
	assert.Equal(t, second, third)

	counts := map[string]int{}
	for _, p := range third {
		counts[p.MonthKey]++
	}
	assert.Equal(t, map[string]int{"2024-03": 1, "2024-04": 1}, counts)
}

func TestMarkPayment_IncompleteRecordBlocksDuplicate(t *testing.T) {
	card := model.Card{ID: "card-1", DueDay: 15}
	now := time.Date(2024, 3, 10, 0, 0, 0, 0, time.UTC)
	payments := []model.Payment{{CardID: "card-1", MonthKey: "2024-03"}}

	updated, created, err := MarkPayment(card, payments, now)
	require.NoError(t, err)
	assert.Nil(t, created)
	assert.Equal(t, payments, updated)
}

func TestMarkPayment_InvalidDueDay(t *testing.T) {
	_, _, err := MarkPayment(model.Card{ID: "x", DueDay: 0}, nil, time.Now())
	assert.ErrorIs(t, err, common.ErrInvalidDueDay)
}

func TestUnmarkPayment_RoundTrip(t *testing.T) {
	card := model.Card{ID: "card-1", DueDay: 5}
	now := time.Date(2024, 7, 2, 0, 0, 0, 0, time.UTC)
	before := []model.Payment{paid("card-1", "2024-05"), paid("card-2", "2024-07")}

	marked, created, err := MarkPayment(card, before, now)
	require.NoError(t, err)
	require.NotNil(t, created)

	after := UnmarkPayment(marked, card.ID, created.MonthKey)
	assert.Equal(t, before, after)
}

func TestUnmarkPayment_MissingRecordIsNoop(t *testing.T) {
	payments := []model.Payment{paid("card-1", "2024-05")}
	assert.Equal(t, payments, UnmarkPayment(payments, "card-1", "2024-06"))
	assert.Equal(t, payments, UnmarkPayment(payments, "card-2", "2024-05"))
}
