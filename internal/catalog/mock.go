package catalog

import (
	"context"

	"github.com/Veraticus/duecard/internal/model"
)

// MockFetcher is a mock implementation of Fetcher for testing.
type MockFetcher struct {
	// FetchOffersFn can be set by tests to control behavior
	FetchOffersFn func(ctx context.Context) ([]model.ScrapedOffer, error)

	// Offers is returned when FetchOffersFn is nil
	Offers []model.ScrapedOffer

	// Call tracking
	FetchOffersCalls int
}

// FetchOffers implements Fetcher.FetchOffers.
func (m *MockFetcher) FetchOffers(ctx context.Context) ([]model.ScrapedOffer, error) {
	m.FetchOffersCalls++

	if m.FetchOffersFn != nil {
		return m.FetchOffersFn(ctx)
	}

	return m.Offers, nil
}
