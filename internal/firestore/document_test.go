package firestore

import (
	"errors"
	"testing"
	"time"

	"github.com/Veraticus/duecard/internal/common"
	"github.com/Veraticus/duecard/internal/model"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

func TestOfferDocumentConversion(t *testing.T) {
	now := time.Date(2025, time.June, 1, 0, 0, 0, 0, time.UTC)
	offer := model.Offer{
		ID:           "hsbc-red",
		Name:         "Red Credit Card",
		Bank:         "HSBC",
		CashbackRate: "4%",
		AnnualFee:    decimal.NewNullDecimal(decimal.RequireFromString("1800.5")),
		Protection:   model.Protection{Enabled: true, Reason: "curated"},
		DataSource:   model.SourceManualEntry,
		Categories:   []string{"online"},
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	doc := toDoc(&offer)
	require.NotNil(t, doc.AnnualFee)
	assert.InDelta(t, 1800.5, *doc.AnnualFee, 1e-9)
	assert.Nil(t, doc.MinIncome)
	assert.Equal(t, "manual_entry", doc.DataSource)

	back := doc.toOffer("ignored")
	assert.Equal(t, "hsbc-red", back.ID)
	assert.True(t, back.AnnualFee.Decimal.Equal(offer.AnnualFee.Decimal))
	assert.False(t, back.MinIncome.Valid)
	assert.True(t, back.IsProtected())

	doc.ID = ""
	assert.Equal(t, "doc-id", doc.toOffer("doc-id").ID)
}

type fakeDocument struct {
	err error
	doc offerDoc
}

func (f fakeDocument) DataTo(p any) error {
	if f.err != nil {
		return f.err
	}
	*p.(*offerDoc) = f.doc
	return nil
}

func TestDecodeOffer(t *testing.T) {
	offer, err := decodeOffer("doc-id", fakeDocument{doc: offerDoc{Name: "Red Credit Card", Bank: "HSBC"}})
	require.NoError(t, err)
	assert.Equal(t, "doc-id", offer.ID)
	assert.Equal(t, "Red Credit Card", offer.Name)

	_, err = decodeOffer("broken", fakeDocument{err: errors.New("cannot set type string to float64")})
	require.Error(t, err)
	assert.ErrorIs(t, err, common.ErrDatabaseCorrupted)
	assert.Contains(t, err.Error(), "broken")

	var retryErr *common.RetryableError
	require.ErrorAs(t, err, &retryErr)
	assert.False(t, retryErr.Retryable, "a corrupt document will not decode on a retry")
}

func TestPatchValue(t *testing.T) {
	assert.Equal(t, 96000.0, patchValue(decimal.NewNullDecimal(decimal.NewFromInt(96000))))
	assert.Nil(t, patchValue(decimal.NullDecimal{}))
	assert.Equal(t, "automated_sync", patchValue(model.SourceAutomatedSync))
	assert.Equal(t, "5%", patchValue("5%"))
	assert.Equal(t, true, patchValue(true))
}

func TestMapError(t *testing.T) {
	tests := []struct {
		err       error
		want      error
		name      string
		retryable bool
	}{
		{name: "not found", err: status.Error(codes.NotFound, "no doc"), want: common.ErrNotFound},
		{name: "exists", err: status.Error(codes.AlreadyExists, "dup"), want: common.ErrDuplicateEntry},
		{name: "unavailable", err: status.Error(codes.Unavailable, "down"), want: common.ErrRemoteUnavailable, retryable: true},
		{name: "quota", err: status.Error(codes.ResourceExhausted, "slow down"), want: common.ErrRateLimit, retryable: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := mapError(tt.err, "op")
			assert.ErrorIs(t, err, tt.want)

			var retryErr *common.RetryableError
			permanent := errors.As(err, &retryErr) && !retryErr.Retryable
			assert.Equal(t, !tt.retryable, permanent)
		})
	}

	assert.NoError(t, mapError(nil, "op"))
}
