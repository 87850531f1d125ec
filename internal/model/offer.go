package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// DataSource records how a catalog offer entered the catalog.
type DataSource string

const (
	// SourceManualEntry marks offers typed in by an operator.
	SourceManualEntry DataSource = "manual_entry"
	// SourceBulkImport marks offers loaded from an import file.
	SourceBulkImport DataSource = "bulk_import"
	// SourceAutomatedSync marks offers created by the scraper sync.
	SourceAutomatedSync DataSource = "automated_sync"
)

// Protection keeps automated sync away from an offer.
type Protection struct {
	Reason  string
	Enabled bool
}

// Offer is a credit card offer stored in the remote catalog.
type Offer struct {
	CreatedAt        time.Time
	UpdatedAt        time.Time
	LastSyncedAt     time.Time
	MinIncome        decimal.NullDecimal
	AnnualFee        decimal.NullDecimal
	Protection       Protection
	ID               string `validate:"required"`
	Name             string `validate:"required"`
	Bank             string
	CashbackRate     string
	Description      string
	Network          string
	DataSource       DataSource
	SourceURL        string
	Categories       []string
	ManuallyModified bool
}

// Validate checks the offer's field constraints.
func (o *Offer) Validate() error {
	return validate.Struct(o)
}

// IsProtected reports whether automated sync must leave the offer alone.
func (o *Offer) IsProtected() bool {
	return o.Protection.Enabled || o.DataSource == SourceManualEntry || o.ManuallyModified
}

// ScrapedOffer is a raw offer as read from the comparison website.
type ScrapedOffer struct {
	MinIncome   decimal.NullDecimal
	AnnualFee   decimal.NullDecimal
	Name        string
	Bank        string
	Rate        string
	Description string
	Network     string
	URL         string
	Categories  []string
}
