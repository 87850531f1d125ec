// Package service defines the interfaces for all application services.
package service

import (
	"context"

	"github.com/Veraticus/duecard/internal/model"
)

// Storage defines the contract for the local ledger database.
type Storage interface {
	// Card operations
	CreateCard(ctx context.Context, card *model.Card) error
	GetCard(ctx context.Context, id string) (*model.Card, error)
	ListCards(ctx context.Context) ([]model.Card, error)
	UpdateCard(ctx context.Context, card *model.Card) error
	DeleteCard(ctx context.Context, id string) error
	SetCardPaid(ctx context.Context, id string, paid bool) error

	// Payment operations
	SavePayment(ctx context.Context, payment *model.Payment) error
	DeletePayment(ctx context.Context, cardID, monthKey string) (bool, error)
	GetPaymentsForCard(ctx context.Context, cardID string) ([]model.Payment, error)
	GetAllPayments(ctx context.Context) ([]model.Payment, error)

	// Notification settings
	GetNotificationSetting(ctx context.Context, cardID string) (*model.NotificationSetting, error)
	SaveNotificationSetting(ctx context.Context, setting *model.NotificationSetting) error
	GetNotificationSettings(ctx context.Context) ([]model.NotificationSetting, error)

	// Database management
	Migrate(ctx context.Context) error
	Close() error
}
