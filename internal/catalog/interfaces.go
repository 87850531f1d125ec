package catalog

import (
	"context"
	"time"

	"github.com/Veraticus/duecard/internal/model"
)

// Fetcher retrieves raw offers from the comparison website.
type Fetcher interface {
	FetchOffers(ctx context.Context) ([]model.ScrapedOffer, error)
}

// DocumentStore is the remote catalog. PatchOffer writes only the named fields; nested
// fields use dotted paths such as "protection.enabled".
type DocumentStore interface {
	ListOffers(ctx context.Context) ([]model.Offer, error)
	CreateOffer(ctx context.Context, offer *model.Offer) error
	PatchOffer(ctx context.Context, id string, fields map[string]any) error
}

// Locker guards against two syncs running at once. Acquire returns a release function
// that must be safe to call more than once.
type Locker interface {
	Acquire(ctx context.Context, key string, ttl time.Duration) (func(), error)
}
