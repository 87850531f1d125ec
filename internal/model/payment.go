package model

import "time"

// Payment records that the user paid a card's bill for one billing month.
type Payment struct {
	DueDate  time.Time
	MarkedAt time.Time
	// OnTime is nil while the record is incomplete; such a record does not count as paid.
	OnTime   *bool
	CardID   string
	MonthKey string // YYYY-MM
}

// Counts reports whether the record carries a definite on-time or late flag.
func (p Payment) Counts() bool {
	return p.OnTime != nil
}

// BillReason explains how the current billing cycle was chosen.
type BillReason string

const (
	// ReasonCurrentMonthUnpaid means the current calendar month has no qualifying payment.
	ReasonCurrentMonthUnpaid BillReason = "current_month_unpaid"
	// ReasonNextMonthPaid means the current month is paid and next month was paid in advance.
	ReasonNextMonthPaid BillReason = "next_month_paid"
	// ReasonNextMonthUnpaid means the current month is paid and next month is still open.
	ReasonNextMonthUnpaid BillReason = "next_month_unpaid"
)

// BillStatus describes the billing cycle a card's owner should act on now.
type BillStatus struct {
	DueDate   time.Time
	MonthKey  string
	Reason    BillReason
	BillYear  int
	BillMonth time.Month
	DaysDiff  int
	IsPaid    bool
}

// Overdue reports whether the resolved cycle is unpaid and past its due date.
func (b BillStatus) Overdue() bool {
	return !b.IsPaid && b.DaysDiff < 0
}
