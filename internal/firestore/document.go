package firestore

import (
	"fmt"
	"time"

	"github.com/Veraticus/duecard/internal/common"
	"github.com/Veraticus/duecard/internal/model"
	"github.com/shopspring/decimal"
)

type protectionDoc struct {
	Reason  string `firestore:"reason"`
	Enabled bool   `firestore:"enabled"`
}

// offerDoc is the stored shape of a catalog offer.
type offerDoc struct {
	CreatedAt        time.Time     `firestore:"createdAt"`
	UpdatedAt        time.Time     `firestore:"updatedAt"`
	LastSyncedAt     time.Time     `firestore:"lastSyncedAt,omitempty"`
	MinIncome        *float64      `firestore:"minIncome"`
	AnnualFee        *float64      `firestore:"annualFee"`
	Protection       protectionDoc `firestore:"protection"`
	ID               string        `firestore:"id"`
	Name             string        `firestore:"name"`
	Bank             string        `firestore:"bank"`
	CashbackRate     string        `firestore:"cashbackRate"`
	Description      string        `firestore:"description"`
	Network          string        `firestore:"network"`
	DataSource       string        `firestore:"dataSource"`
	SourceURL        string        `firestore:"sourceUrl"`
	Categories       []string      `firestore:"categories"`
	ManuallyModified bool          `firestore:"manuallyModified"`
}

func toDoc(offer *model.Offer) offerDoc {
	return offerDoc{
		CreatedAt:    offer.CreatedAt,
		UpdatedAt:    offer.UpdatedAt,
		LastSyncedAt: offer.LastSyncedAt,
		MinIncome:    fromDecimal(offer.MinIncome),
		AnnualFee:    fromDecimal(offer.AnnualFee),
		Protection: protectionDoc{
			Reason:  offer.Protection.Reason,
			Enabled: offer.Protection.Enabled,
		},
		ID:               offer.ID,
		Name:             offer.Name,
		Bank:             offer.Bank,
		CashbackRate:     offer.CashbackRate,
		Description:      offer.Description,
		Network:          offer.Network,
		DataSource:       string(offer.DataSource),
		SourceURL:        offer.SourceURL,
		Categories:       offer.Categories,
		ManuallyModified: offer.ManuallyModified,
	}
}

// documentData is the part of a document snapshot decodeOffer reads.
type documentData interface {
	DataTo(p any) error
}

// decodeOffer reads the document with the given ID into an offer.
func decodeOffer(docID string, src documentData) (model.Offer, error) {
	var doc offerDoc
	if err := src.DataTo(&doc); err != nil {
		return model.Offer{}, common.Permanent(fmt.Errorf("offer document %s: %w: %w", docID, common.ErrDatabaseCorrupted, err))
	}
	return doc.toOffer(docID), nil
}

// toOffer converts a stored document. Documents written by hand may lack the id field,
// in which case the document ID is used.
func (d offerDoc) toOffer(docID string) model.Offer {
	id := d.ID
	if id == "" {
		id = docID
	}
	return model.Offer{
		CreatedAt:    d.CreatedAt,
		UpdatedAt:    d.UpdatedAt,
		LastSyncedAt: d.LastSyncedAt,
		MinIncome:    toDecimal(d.MinIncome),
		AnnualFee:    toDecimal(d.AnnualFee),
		Protection: model.Protection{
			Reason:  d.Protection.Reason,
			Enabled: d.Protection.Enabled,
		},
		ID:               id,
		Name:             d.Name,
		Bank:             d.Bank,
		CashbackRate:     d.CashbackRate,
		Description:      d.Description,
		Network:          d.Network,
		DataSource:       model.DataSource(d.DataSource),
		SourceURL:        d.SourceURL,
		Categories:       d.Categories,
		ManuallyModified: d.ManuallyModified,
	}
}

func fromDecimal(d decimal.NullDecimal) *float64 {
	if !d.Valid {
		return nil
	}
	f := d.Decimal.InexactFloat64()
	return &f
}

func toDecimal(f *float64) decimal.NullDecimal {
	if f == nil {
		return decimal.NullDecimal{}
	}
	return decimal.NewNullDecimal(decimal.NewFromFloat(*f))
}

// patchValue converts a catalog patch value to its stored representation.
func patchValue(v any) any {
	switch value := v.(type) {
	case decimal.NullDecimal:
		if f := fromDecimal(value); f != nil {
			return *f
		}
		return nil
	case decimal.Decimal:
		return value.InexactFloat64()
	case model.DataSource:
		return string(value)
	default:
		return v
	}
}
