package firestore

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"time"

	"cloud.google.com/go/firestore"
	"github.com/Veraticus/duecard/internal/catalog"
	"github.com/Veraticus/duecard/internal/common"
	"github.com/Veraticus/duecard/internal/model"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	"google.golang.org/api/iterator"
	"google.golang.org/api/option"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

const datastoreScope = "https://www.googleapis.com/auth/datastore"

var _ catalog.DocumentStore = (*Store)(nil)

// Store implements catalog.DocumentStore on a Firestore collection.
type Store struct {
	client *firestore.Client
	logger *slog.Logger
	config Config
}

// NewStore connects to Firestore.
func NewStore(ctx context.Context, config Config, logger *slog.Logger) (*Store, error) {
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	if logger == nil {
		logger = slog.Default()
	}

	opts, err := clientOptions(ctx, config)
	if err != nil {
		return nil, err
	}

	client, err := firestore.NewClient(ctx, config.ProjectID, opts...)
	if err != nil {
		return nil, fmt.Errorf("unable to create firestore client: %w", err)
	}

	return &Store{
		client: client,
		logger: logger,
		config: config,
	}, nil
}

// clientOptions builds the authentication options for the configured method.
func clientOptions(ctx context.Context, config Config) ([]option.ClientOption, error) {
	if config.EmulatorHost != "" {
		// The client library only reads the emulator address from the environment.
		if err := os.Setenv("FIRESTORE_EMULATOR_HOST", config.EmulatorHost); err != nil {
			return nil, fmt.Errorf("failed to configure emulator: %w", err)
		}
		return nil, nil
	}

	var tokenSource oauth2.TokenSource
	if config.CredentialsFile != "" {
		jsonKey, err := os.ReadFile(config.CredentialsFile)
		if err != nil {
			return nil, fmt.Errorf("unable to read service account key file: %w", err)
		}

		jwtConfig, err := google.JWTConfigFromJSON(jsonKey, datastoreScope)
		if err != nil {
			return nil, fmt.Errorf("unable to parse service account key: %w", err)
		}

		tokenSource = jwtConfig.TokenSource(ctx)
	} else {
		client := &oauth2.Config{
			ClientID:     config.ClientID,
			ClientSecret: config.ClientSecret,
			Endpoint:     google.Endpoint,
			Scopes:       []string{datastoreScope},
		}

		token := &oauth2.Token{
			RefreshToken: config.RefreshToken,
			TokenType:    "Bearer",
		}

		tokenSource = client.TokenSource(ctx, token)
	}

	return []option.ClientOption{option.WithTokenSource(tokenSource)}, nil
}

// Close releases the Firestore client.
func (s *Store) Close() error {
	return s.client.Close()
}

// ListOffers reads every document in the collection in document ID order.
// A document that cannot be decoded fails the whole listing.
func (s *Store) ListOffers(ctx context.Context) ([]model.Offer, error) {
	var offers []model.Offer

	err := common.WithRetry(ctx, func() error {
		offers = offers[:0]
		iter := s.client.Collection(s.config.Collection).Documents(ctx)
		defer iter.Stop()

		for {
			snap, err := iter.Next()
			if errors.Is(err, iterator.Done) {
				return nil
			}
			if err != nil {
				return mapError(err, "list offers")
			}

			offer, err := decodeOffer(snap.Ref.ID, snap)
			if err != nil {
				s.logger.Error("Unreadable offer document", "id", snap.Ref.ID, "error", err)
				return err
			}
			offers = append(offers, offer)
		}
	}, s.retryOptions())
	if err != nil {
		return nil, err
	}

	s.logger.Debug("Listed catalog offers", "collection", s.config.Collection, "count", len(offers))
	return offers, nil
}

// CreateOffer writes a new document keyed by the offer ID.
func (s *Store) CreateOffer(ctx context.Context, offer *model.Offer) error {
	if offer == nil || offer.ID == "" {
		return fmt.Errorf("create offer: %w", catalog.ErrEmptyID)
	}

	doc := toDoc(offer)
	return common.WithRetry(ctx, func() error {
		_, err := s.client.Collection(s.config.Collection).Doc(offer.ID).Create(ctx, doc)
		return mapError(err, "create offer "+offer.ID)
	}, s.retryOptions())
}

// PatchOffer updates the named fields of an existing document.
func (s *Store) PatchOffer(ctx context.Context, id string, fields map[string]any) error {
	if id == "" {
		return fmt.Errorf("patch offer: %w", catalog.ErrEmptyID)
	}
	if len(fields) == 0 {
		return nil
	}

	updates := make([]firestore.Update, 0, len(fields))
	for path, value := range fields {
		updates = append(updates, firestore.Update{Path: path, Value: patchValue(value)})
	}

	return common.WithRetry(ctx, func() error {
		_, err := s.client.Collection(s.config.Collection).Doc(id).Update(ctx, updates)
		return mapError(err, "patch offer "+id)
	}, s.retryOptions())
}

func (s *Store) retryOptions() common.RetryOptions {
	attempts := s.config.RetryAttempts
	if attempts == 0 {
		attempts = 1
	}
	return common.RetryOptions{
		MaxAttempts:  attempts,
		InitialDelay: s.config.RetryDelay,
		MaxDelay:     30 * time.Second,
		Multiplier:   2.0,
	}
}

// mapError translates gRPC status codes into application errors. Only transient
// codes stay retryable.
func mapError(err error, op string) error {
	if err == nil {
		return nil
	}

	switch status.Code(err) {
	case codes.NotFound:
		return common.Permanent(fmt.Errorf("%s: %w", op, common.ErrNotFound))
	case codes.AlreadyExists:
		return common.Permanent(fmt.Errorf("%s: %w", op, common.ErrDuplicateEntry))
	case codes.ResourceExhausted:
		return fmt.Errorf("%s: %w: %w", op, common.ErrRateLimit, err)
	case codes.Unavailable, codes.DeadlineExceeded, codes.Aborted, codes.Internal:
		return fmt.Errorf("%s: %w: %w", op, common.ErrRemoteUnavailable, err)
	default:
		return common.Permanent(fmt.Errorf("%s: %w", op, err))
	}
}
