package billing

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"github.com/Veraticus/duecard/internal/common"
	"github.com/Veraticus/duecard/internal/model"
)

// Ledger applies the bill-cycle rules to cards held in a Store.
// Every operation takes the current time explicitly.
type Ledger struct {
	store  Store
	logger *slog.Logger
}

// CardStatus pairs a card with its resolved billing cycle.
type CardStatus struct {
	Card   model.Card
	Status model.BillStatus
}

// NewLedger creates a ledger over store.
func NewLedger(store Store, logger *slog.Logger) *Ledger {
	if logger == nil {
		logger = slog.Default()
	}
	return &Ledger{store: store, logger: logger}
}

// Status resolves the billing cycle for a single card.
func (l *Ledger) Status(ctx context.Context, cardID string, now time.Time) (*CardStatus, error) {
	card, payments, err := l.load(ctx, cardID)
	if err != nil {
		return nil, err
	}
	return &CardStatus{Card: *card, Status: ResolveCurrentBillStatus(*card, payments, now)}, nil
}

// Overview resolves every card, most urgent first.
func (l *Ledger) Overview(ctx context.Context, now time.Time) ([]CardStatus, error) {
	cards, err := l.store.ListCards(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list cards: %w", err)
	}

	statuses := make([]CardStatus, 0, len(cards))
	for _, card := range cards {
		payments, err := l.store.GetPaymentsForCard(ctx, card.ID)
		if err != nil {
			return nil, fmt.Errorf("failed to load payments for card %s: %w", card.ID, err)
		}
		statuses = append(statuses, CardStatus{
			Card:   card,
			Status: ResolveCurrentBillStatus(card, payments, now),
		})
	}

	sortByUrgency(statuses)
	return statuses, nil
}

// MarkPaid records a payment for the card's current cycle. It returns the created record,
// or nil when the cycle was already marked.
func (l *Ledger) MarkPaid(ctx context.Context, cardID string, now time.Time) (*model.Payment, model.BillStatus, error) {
	card, payments, err := l.load(ctx, cardID)
	if err != nil {
		return nil, model.BillStatus{}, err
	}

	updated, created, err := MarkPayment(*card, payments, now)
	if err != nil {
		return nil, model.BillStatus{}, err
	}

	if created != nil {
		if err := l.store.SavePayment(ctx, created); err != nil {
			if !errors.Is(err, common.ErrDuplicateEntry) {
				return nil, model.BillStatus{}, fmt.Errorf("failed to save payment: %w", err)
			}
			l.logger.Debug("payment already recorded", "card_id", cardID, "month", created.MonthKey)
			created = nil
		} else {
			l.logger.Info("payment marked",
				"card_id", cardID,
				"month", created.MonthKey,
				"on_time", *created.OnTime)
		}
	}

	status := ResolveCurrentBillStatus(*card, updated, now)
	if err := l.refreshPaidFlag(ctx, card, status); err != nil {
		return created, status, err
	}

	return created, status, nil
}

// Unmark deletes the payment record for exactly monthKey. Removing a missing record is not an error.
func (l *Ledger) Unmark(ctx context.Context, cardID, monthKey string, now time.Time) (bool, error) {
	if _, _, err := ParseMonthKey(monthKey); err != nil {
		return false, err
	}

	card, _, err := l.load(ctx, cardID)
	if err != nil {
		return false, err
	}

	removed, err := l.store.DeletePayment(ctx, cardID, monthKey)
	if err != nil {
		return false, fmt.Errorf("failed to delete payment: %w", err)
	}

	payments, err := l.store.GetPaymentsForCard(ctx, cardID)
	if err != nil {
		return removed, fmt.Errorf("failed to reload payments: %w", err)
	}

	status := ResolveCurrentBillStatus(*card, payments, now)
	if err := l.refreshPaidFlag(ctx, card, status); err != nil {
		return removed, err
	}

	l.logger.Info("payment unmarked", "card_id", cardID, "month", monthKey, "removed", removed)
	return removed, nil
}

// History returns the card's payment records, newest month first.
func (l *Ledger) History(ctx context.Context, cardID string) ([]model.Payment, error) {
	_, payments, err := l.load(ctx, cardID)
	if err != nil {
		return nil, err
	}

	sort.SliceStable(payments, func(i, j int) bool {
		return payments[i].MonthKey > payments[j].MonthKey
	})
	return payments, nil
}

func (l *Ledger) load(ctx context.Context, cardID string) (*model.Card, []model.Payment, error) {
	card, err := l.store.GetCard(ctx, cardID)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load card %s: %w", cardID, err)
	}

	payments, err := l.store.GetPaymentsForCard(ctx, cardID)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load payments for card %s: %w", cardID, err)
	}

	return card, payments, nil
}

func (l *Ledger) refreshPaidFlag(ctx context.Context, card *model.Card, status model.BillStatus) error {
	paid := CurrentMonthPaid(status)
	if card.IsPaid == paid {
		return nil
	}
	if err := l.store.SetCardPaid(ctx, card.ID, paid); err != nil {
		return fmt.Errorf("failed to update paid flag: %w", err)
	}
	card.IsPaid = paid
	return nil
}

func sortByUrgency(statuses []CardStatus) {
	sort.SliceStable(statuses, func(i, j int) bool {
		a, b := statuses[i], statuses[j]
		if a.Status.IsPaid != b.Status.IsPaid {
			return !a.Status.IsPaid
		}
		if a.Status.DaysDiff != b.Status.DaysDiff {
			return a.Status.DaysDiff < b.Status.DaysDiff
		}
		return a.Card.Name < b.Card.Name
	})
}
