package catalog

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"sort"
	"strings"
	"time"

	"github.com/Veraticus/duecard/internal/common"
	"github.com/Veraticus/duecard/internal/model"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ErrEmptyID indicates an operation was given a blank offer ID.
var ErrEmptyID = errors.New("offer ID cannot be empty")

// ImportRecord is one entry of a bulk import file.
type ImportRecord struct {
	MinIncome    decimal.NullDecimal `json:"minIncome"`
	AnnualFee    decimal.NullDecimal `json:"annualFee"`
	ID           string              `json:"id,omitempty"`
	Name         string              `json:"name"`
	Bank         string              `json:"bank"`
	CashbackRate string              `json:"cashbackRate"`
	Description  string              `json:"description"`
	Network      string              `json:"network"`
	SourceURL    string              `json:"sourceUrl"`
	Categories   []string            `json:"categories"`
}

// ImportResult counts the outcome of a bulk import.
type ImportResult struct {
	Errors  []RecordError
	Created int
	Skipped int
	Failed  int
}

// ReadImportFile decodes a JSON array of import records.
func ReadImportFile(r io.Reader) ([]ImportRecord, error) {
	var records []ImportRecord
	dec := json.NewDecoder(r)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&records); err != nil {
		return nil, fmt.Errorf("failed to decode import file: %w", err)
	}
	return records, nil
}

// ImportOffers creates a catalog document for each record. Records without an ID get a
// new UUID; records whose ID already exists are skipped. Invalid records and failed
// writes are collected and do not stop the import.
func ImportOffers(ctx context.Context, store DocumentStore, records []ImportRecord, now time.Time) (ImportResult, error) {
	var result ImportResult

	existing, err := store.ListOffers(ctx)
	if err != nil {
		return result, fmt.Errorf("%w: %w", ErrCatalogUnavailable, err)
	}
	known := NewMatcher(existing, 0)
	created := make(map[string]struct{})

	for _, record := range records {
		offer := record.toOffer(now)
		if _, ok := known.ByID(offer.ID); ok {
			result.Skipped++
			continue
		}
		if _, ok := created[offer.ID]; ok {
			result.Skipped++
			continue
		}

		if err := offer.Validate(); err != nil {
			result.Failed++
			result.Errors = append(result.Errors, RecordError{Op: "import", ID: offer.ID, Name: offer.Name, Err: err})
			continue
		}

		if err := store.CreateOffer(ctx, &offer); err != nil {
			if errors.Is(err, common.ErrDuplicateEntry) {
				result.Skipped++
				continue
			}
			result.Failed++
			result.Errors = append(result.Errors, RecordError{Op: "import", ID: offer.ID, Name: offer.Name, Err: err})
			continue
		}

		created[offer.ID] = struct{}{}
		result.Created++
	}

	return result, nil
}

func (r ImportRecord) toOffer(now time.Time) model.Offer {
	id := strings.TrimSpace(r.ID)
	if id == "" {
		id = uuid.NewString()
	}
	return model.Offer{
		ID:           id,
		Name:         normalizeText(r.Name),
		Bank:         normalizeText(r.Bank),
		CashbackRate: normalizeText(r.CashbackRate),
		Description:  normalizeText(r.Description),
		MinIncome:    r.MinIncome,
		AnnualFee:    r.AnnualFee,
		Network:      r.Network,
		SourceURL:    r.SourceURL,
		Categories:   r.Categories,
		DataSource:   model.SourceBulkImport,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
}

// SetProtection turns sync protection on or off for one offer. Enabling also marks the
// offer as manually modified; disabling clears both markers.
func SetProtection(ctx context.Context, store DocumentStore, id string, enabled bool, reason string, now time.Time) error {
	if strings.TrimSpace(id) == "" {
		return common.NewUserError("an offer ID is required", ErrEmptyID)
	}
	if !enabled {
		reason = ""
	}
	return store.PatchOffer(ctx, id, map[string]any{
		FieldProtectionEnabled: enabled,
		FieldProtectionReason:  reason,
		FieldManuallyModified:  enabled,
		FieldUpdatedAt:         now,
	})
}

// ListFilter narrows ListOffers.
type ListFilter struct {
	Bank          string
	ProtectedOnly bool
}

// ListOffers returns the catalog sorted by bank then name.
func ListOffers(ctx context.Context, store DocumentStore, filter ListFilter) ([]model.Offer, error) {
	offers, err := store.ListOffers(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrCatalogUnavailable, err)
	}

	bank := Normalize(filter.Bank)
	filtered := offers[:0]
	for _, offer := range offers {
		if bank != "" && Normalize(offer.Bank) != bank {
			continue
		}
		if filter.ProtectedOnly && !offer.IsProtected() {
			continue
		}
		filtered = append(filtered, offer)
	}

	sort.SliceStable(filtered, func(i, j int) bool {
		if filtered[i].Bank != filtered[j].Bank {
			return filtered[i].Bank < filtered[j].Bank
		}
		return filtered[i].Name < filtered[j].Name
	})
	return filtered, nil
}
