package storage

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/Veraticus/duecard/internal/model"
)

// Validation errors.
var (
	ErrNilContext     = errors.New("context cannot be nil")
	ErrEmptyString    = errors.New("string parameter cannot be empty")
	ErrNilParameter   = errors.New("parameter cannot be nil")
	ErrInvalidCard    = errors.New("invalid card")
	ErrInvalidPayment = errors.New("invalid payment")
	ErrInvalidSetting = errors.New("invalid notification setting")
)

func validateContext(ctx context.Context) error {
	if ctx == nil {
		return ErrNilContext
	}
	return nil
}

func validateString(s string, paramName string) error {
	if strings.TrimSpace(s) == "" {
		return fmt.Errorf("%w: %s", ErrEmptyString, paramName)
	}
	return nil
}

func validateCard(card *model.Card) error {
	if card == nil {
		return fmt.Errorf("%w: card", ErrNilParameter)
	}
	if err := card.Validate(); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidCard, err)
	}
	return nil
}

func validatePayment(payment *model.Payment) error {
	if payment == nil {
		return fmt.Errorf("%w: payment", ErrNilParameter)
	}
	if strings.TrimSpace(payment.CardID) == "" {
		return fmt.Errorf("%w: missing card ID", ErrInvalidPayment)
	}
	if len(payment.MonthKey) != len("2006-01") {
		return fmt.Errorf("%w: malformed month key %q", ErrInvalidPayment, payment.MonthKey)
	}
	if payment.DueDate.IsZero() || payment.MarkedAt.IsZero() {
		return fmt.Errorf("%w: missing dates", ErrInvalidPayment)
	}
	return nil
}

func validateSetting(setting *model.NotificationSetting) error {
	if setting == nil {
		return fmt.Errorf("%w: setting", ErrNilParameter)
	}
	if err := setting.Validate(); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidSetting, err)
	}
	return nil
}
