// Package billing decides which billing cycle of a card is due and records payments against it.
package billing

import (
	"fmt"
	"time"

	"github.com/Veraticus/duecard/internal/common"
	"github.com/Veraticus/duecard/internal/model"
)

const day = 24 * time.Hour

// MonthKey formats a billing-month key (YYYY-MM).
func MonthKey(year int, month time.Month) string {
	return fmt.Sprintf("%04d-%02d", year, int(month))
}

// ParseMonthKey splits a YYYY-MM key into year and month.
func ParseMonthKey(key string) (int, time.Month, error) {
	t, err := time.Parse("2006-01", key)
	if err != nil || len(key) != 7 {
		return 0, 0, fmt.Errorf("%w: %q", common.ErrInvalidMonthKey, key)
	}
	return t.Year(), t.Month(), nil
}

// DaysIn returns the number of days in the given month.
func DaysIn(year int, month time.Month) int {
	return time.Date(year, month+1, 0, 0, 0, 0, 0, time.UTC).Day()
}

// DueDate builds the due date of a billing month at midnight in loc.
// A due day past the end of the month is clamped to the month's last day.
func DueDate(year int, month time.Month, dueDay int, loc *time.Location) time.Time {
	if loc == nil {
		loc = time.Local
	}
	if last := DaysIn(year, month); dueDay > last {
		dueDay = last
	}
	if dueDay < 1 {
		dueDay = 1
	}
	return time.Date(year, month, dueDay, 0, 0, 0, 0, loc)
}

// NextMonth returns the calendar month after year/month.
func NextMonth(year int, month time.Month) (int, time.Month) {
	if month == time.December {
		return year + 1, time.January
	}
	return year, month + 1
}

// DaysUntil counts calendar days from now to due, both read in due's location, so a
// daylight saving change in between does not shift the count. Negative values mean the
// due date has passed.
func DaysUntil(due, now time.Time) int {
	now = now.In(due.Location())
	from := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	to := time.Date(due.Year(), due.Month(), due.Day(), 0, 0, 0, 0, time.UTC)
	return int(to.Sub(from) / day)
}

// ResolveCurrentBillStatus picks the billing cycle the card owner should act on at today.
// The current month is due until it has a qualifying payment; after that the next month is.
// Payments belonging to other cards are ignored.
func ResolveCurrentBillStatus(card model.Card, payments []model.Payment, today time.Time) model.BillStatus {
	year, month := today.Year(), today.Month()
	current := MonthKey(year, month)

	if !hasQualifyingPayment(card.ID, payments, current) {
		return buildStatus(card, year, month, today, false, model.ReasonCurrentMonthUnpaid)
	}

	nextYear, nextMonth := NextMonth(year, month)
	if hasQualifyingPayment(card.ID, payments, MonthKey(nextYear, nextMonth)) {
		return buildStatus(card, nextYear, nextMonth, today, true, model.ReasonNextMonthPaid)
	}
	return buildStatus(card, nextYear, nextMonth, today, false, model.ReasonNextMonthUnpaid)
}

// CurrentMonthPaid reports whether the calendar month of the resolved status was already settled.
func CurrentMonthPaid(status model.BillStatus) bool {
	return status.Reason != model.ReasonCurrentMonthUnpaid
}

func buildStatus(card model.Card, year int, month time.Month, today time.Time, paid bool, reason model.BillReason) model.BillStatus {
	due := DueDate(year, month, card.DueDay, today.Location())
	return model.BillStatus{
		BillYear:  year,
		BillMonth: month,
		MonthKey:  MonthKey(year, month),
		DueDate:   due,
		DaysDiff:  DaysUntil(due, today),
		IsPaid:    paid,
		Reason:    reason,
	}
}

func hasQualifyingPayment(cardID string, payments []model.Payment, monthKey string) bool {
	for _, p := range payments {
		if p.CardID == cardID && p.MonthKey == monthKey && p.Counts() {
			return true
		}
	}
	return false
}

// FindPayment returns the record for cardID and monthKey regardless of its state.
func FindPayment(payments []model.Payment, cardID, monthKey string) (model.Payment, bool) {
	for _, p := range payments {
		if p.CardID == cardID && p.MonthKey == monthKey {
			return p, true
		}
	}
	return model.Payment{}, false
}
