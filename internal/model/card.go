// Package model defines the core data types shared across duecard.
package model

import (
	"time"

	"github.com/go-playground/validator/v10"
)

var validate = validator.New()

// Card is a credit card tracked in the personal ledger.
type Card struct {
	CreatedAt time.Time
	UpdatedAt time.Time

	ID     string `validate:"required"`
	Name   string `validate:"required"`
	Bank   string
	DueDay int `validate:"min=1,max=31"`

	// IsPaid caches whether the current calendar month has a qualifying payment.
	// Payment records are authoritative.
	IsPaid bool
}

// Validate checks the card's field constraints.
func (c *Card) Validate() error {
	return validate.Struct(c)
}

// NotificationSetting controls due-date reminders for a single card.
type NotificationSetting struct {
	UpdatedAt  time.Time
	CardID     string `validate:"required"`
	DaysBefore int    `validate:"min=0,max=31"`
	Enabled    bool
}

// Validate checks the setting's field constraints.
func (n *NotificationSetting) Validate() error {
	return validate.Struct(n)
}

// DefaultNotificationSetting is applied to cards that have no stored setting.
func DefaultNotificationSetting(cardID string) NotificationSetting {
	return NotificationSetting{
		CardID:     cardID,
		DaysBefore: 3,
		Enabled:    true,
	}
}
