package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCardValidate(t *testing.T) {
	tests := []struct {
		name    string
		card    Card
		wantErr bool
	}{
		{name: "valid", card: Card{ID: "c1", Name: "HSBC Red", DueDay: 15}},
		{name: "first of month", card: Card{ID: "c1", Name: "Card", DueDay: 1}},
		{name: "thirty first", card: Card{ID: "c1", Name: "Card", DueDay: 31}},
		{name: "missing id", card: Card{Name: "Card", DueDay: 1}, wantErr: true},
		{name: "missing name", card: Card{ID: "c1", DueDay: 1}, wantErr: true},
		{name: "due day zero", card: Card{ID: "c1", Name: "Card"}, wantErr: true},
		{name: "due day 32", card: Card{ID: "c1", Name: "Card", DueDay: 32}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.card.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestNotificationSettingValidate(t *testing.T) {
	setting := DefaultNotificationSetting("c1")
	assert.NoError(t, setting.Validate())
	assert.True(t, setting.Enabled)
	assert.Equal(t, 3, setting.DaysBefore)

	setting.DaysBefore = -1
	assert.Error(t, setting.Validate())
}

func TestOfferIsProtected(t *testing.T) {
	tests := []struct {
		name  string
		offer Offer
		want  bool
	}{
		{name: "synced", offer: Offer{DataSource: SourceAutomatedSync}},
		{name: "imported", offer: Offer{DataSource: SourceBulkImport}},
		{name: "manual entry", offer: Offer{DataSource: SourceManualEntry}, want: true},
		{name: "protection flag", offer: Offer{DataSource: SourceAutomatedSync, Protection: Protection{Enabled: true}}, want: true},
		{name: "manually modified", offer: Offer{DataSource: SourceBulkImport, ManuallyModified: true}, want: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.offer.IsProtected())
		})
	}
}

func TestPaymentCounts(t *testing.T) {
	onTime := true
	assert.True(t, Payment{OnTime: &onTime}.Counts())
	assert.False(t, Payment{}.Counts(), "incomplete records do not count as paid")
}

func TestBillStatusOverdue(t *testing.T) {
	assert.True(t, BillStatus{DaysDiff: -1}.Overdue())
	assert.False(t, BillStatus{DaysDiff: -1, IsPaid: true}.Overdue())
	assert.False(t, BillStatus{DaysDiff: 0}.Overdue())
}
