package catalog

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/Veraticus/duecard/internal/common"
	"github.com/Veraticus/duecard/internal/model"
	"github.com/shopspring/decimal"
)

var _ DocumentStore = (*MemoryStore)(nil)

// MemoryStore is an in-process DocumentStore used for tests and dry runs.
type MemoryStore struct {
	// Fail maps offer IDs (or names, for creates) to errors returned by writes.
	Fail map[string]error

	offers []model.Offer
	mu     sync.Mutex
}

// NewMemoryStore creates a store holding a copy of offers in the given order.
func NewMemoryStore(offers ...model.Offer) *MemoryStore {
	return &MemoryStore{
		Fail:   make(map[string]error),
		offers: append([]model.Offer(nil), offers...),
	}
}

// ListOffers returns a copy of every stored offer in insertion order.
func (m *MemoryStore) ListOffers(ctx context.Context) ([]model.Offer, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	return append([]model.Offer(nil), m.offers...), nil
}

// Get returns the stored offer with the given ID.
func (m *MemoryStore) Get(id string) (model.Offer, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if i := m.indexOf(id); i >= 0 {
		return m.offers[i], true
	}
	return model.Offer{}, false
}

// CreateOffer appends offer, failing if its ID is taken.
func (m *MemoryStore) CreateOffer(ctx context.Context, offer *model.Offer) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	if err := m.injected(offer.ID, offer.Name); err != nil {
		return err
	}
	if m.indexOf(offer.ID) >= 0 {
		return fmt.Errorf("offer %q: %w", offer.ID, common.ErrDuplicateEntry)
	}
	m.offers = append(m.offers, *offer)
	return nil
}

// PatchOffer sets the named fields on an existing offer.
func (m *MemoryStore) PatchOffer(ctx context.Context, id string, fields map[string]any) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	if err := m.injected(id); err != nil {
		return err
	}
	i := m.indexOf(id)
	if i < 0 {
		return fmt.Errorf("offer %q: %w", id, common.ErrNotFound)
	}

	updated := m.offers[i]
	for field, value := range fields {
		if err := setField(&updated, field, value); err != nil {
			return err
		}
	}
	m.offers[i] = updated
	return nil
}

func (m *MemoryStore) indexOf(id string) int {
	for i := range m.offers {
		if m.offers[i].ID == id {
			return i
		}
	}
	return -1
}

func (m *MemoryStore) injected(keys ...string) error {
	for _, key := range keys {
		if err, ok := m.Fail[key]; ok && key != "" {
			return err
		}
	}
	return nil
}

// setField applies one patch value using the document field names of the catalog.
func setField(offer *model.Offer, field string, value any) error {
	var ok bool
	switch field {
	case FieldCashbackRate:
		offer.CashbackRate, ok = value.(string)
	case FieldDescription:
		offer.Description, ok = value.(string)
	case FieldAnnualFee:
		offer.AnnualFee, ok = value.(decimal.NullDecimal)
	case FieldMinIncome:
		offer.MinIncome, ok = value.(decimal.NullDecimal)
	case FieldUpdatedAt:
		offer.UpdatedAt, ok = value.(time.Time)
	case FieldLastSyncedAt:
		offer.LastSyncedAt, ok = value.(time.Time)
	case FieldProtectionEnabled:
		offer.Protection.Enabled, ok = value.(bool)
	case FieldProtectionReason:
		offer.Protection.Reason, ok = value.(string)
	case FieldManuallyModified:
		offer.ManuallyModified, ok = value.(bool)
	default:
		return fmt.Errorf("unknown offer field %q", field)
	}
	if !ok {
		return fmt.Errorf("offer field %q: unexpected value type %T", field, value)
	}
	return nil
}
