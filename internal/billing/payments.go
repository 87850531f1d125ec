package billing

import (
	"fmt"
	"time"

	"github.com/Veraticus/duecard/internal/common"
	"github.com/Veraticus/duecard/internal/model"
)

// MarkPayment records a payment for the card's currently resolved billing cycle.
// When a record for that month already exists nothing changes and created is nil.
// The payment is on time when now falls on or before the due day.
func MarkPayment(card model.Card, payments []model.Payment, now time.Time) ([]model.Payment, *model.Payment, error) {
	if card.DueDay < 1 || card.DueDay > 31 {
		return payments, nil, fmt.Errorf("%w: %d", common.ErrInvalidDueDay, card.DueDay)
	}

	status := ResolveCurrentBillStatus(card, payments, now)
	if _, exists := FindPayment(payments, card.ID, status.MonthKey); exists {
		return payments, nil, nil
	}

	onTime := IsOnTime(now, status.DueDate)
	payment := model.Payment{
		CardID:   card.ID,
		MonthKey: status.MonthKey,
		DueDate:  status.DueDate,
		MarkedAt: now,
		OnTime:   &onTime,
	}

	updated := make([]model.Payment, 0, len(payments)+1)
	updated = append(updated, payments...)
	updated = append(updated, payment)

	return updated, &payment, nil
}

// UnmarkPayment removes the record for cardID and monthKey, if any.
func UnmarkPayment(payments []model.Payment, cardID, monthKey string) []model.Payment {
	updated := make([]model.Payment, 0, len(payments))
	for _, p := range payments {
		if p.CardID == cardID && p.MonthKey == monthKey {
			continue
		}
		updated = append(updated, p)
	}
	return updated
}

// IsOnTime compares calendar days: paying any time on the due day counts as on time.
func IsOnTime(paidAt, dueDate time.Time) bool {
	paidAt = paidAt.In(dueDate.Location())
	paidDay := time.Date(paidAt.Year(), paidAt.Month(), paidAt.Day(), 0, 0, 0, 0, dueDate.Location())
	return !paidDay.After(dueDate)
}
