package billing

import (
	"context"

	"github.com/Veraticus/duecard/internal/model"
)

// Store is the persistence the ledger needs for cards and their payment records.
type Store interface {
	GetCard(ctx context.Context, id string) (*model.Card, error)
	ListCards(ctx context.Context) ([]model.Card, error)
	SetCardPaid(ctx context.Context, id string, paid bool) error

	GetPaymentsForCard(ctx context.Context, cardID string) ([]model.Payment, error)
	SavePayment(ctx context.Context, payment *model.Payment) error
	DeletePayment(ctx context.Context, cardID, monthKey string) (bool, error)

	GetNotificationSettings(ctx context.Context) ([]model.NotificationSetting, error)
}
