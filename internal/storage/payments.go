package storage

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/Veraticus/duecard/internal/common"
	"github.com/Veraticus/duecard/internal/model"
)

// SavePayment inserts a payment record. A second record for the same card and month
// fails with common.ErrDuplicateEntry.
func (s *SQLiteStorage) SavePayment(ctx context.Context, payment *model.Payment) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validatePayment(payment); err != nil {
		return err
	}

	return s.withTx(ctx, func(tx *sql.Tx) error {
		if _, err := s.getCardTx(ctx, tx, payment.CardID); err != nil {
			return err
		}

		var onTime sql.NullBool
		if payment.OnTime != nil {
			onTime = sql.NullBool{Bool: *payment.OnTime, Valid: true}
		}

		_, err := tx.ExecContext(ctx, `
			INSERT INTO payments (card_id, month_key, due_date, marked_at, on_time)
			VALUES (?, ?, ?, ?, ?)
		`, payment.CardID, payment.MonthKey, payment.DueDate, payment.MarkedAt, onTime)
		if err != nil {
			if isConstraintViolation(err) {
				return fmt.Errorf("payment %s/%s: %w", payment.CardID, payment.MonthKey, common.ErrDuplicateEntry)
			}
			return fmt.Errorf("failed to save payment: %w", err)
		}
		return nil
	})
}

// DeletePayment removes the record for cardID and monthKey and reports whether one existed.
func (s *SQLiteStorage) DeletePayment(ctx context.Context, cardID, monthKey string) (bool, error) {
	if err := validateContext(ctx); err != nil {
		return false, err
	}
	if err := validateString(cardID, "cardID"); err != nil {
		return false, err
	}
	if err := validateString(monthKey, "monthKey"); err != nil {
		return false, err
	}

	result, err := s.db.ExecContext(ctx, `
		DELETE FROM payments WHERE card_id = ? AND month_key = ?
	`, cardID, monthKey)
	if err != nil {
		return false, fmt.Errorf("failed to delete payment: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to get rows affected: %w", err)
	}
	return rowsAffected > 0, nil
}

// GetPaymentsForCard returns a card's payment records ordered by month.
func (s *SQLiteStorage) GetPaymentsForCard(ctx context.Context, cardID string) ([]model.Payment, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if err := validateString(cardID, "cardID"); err != nil {
		return nil, err
	}
	return s.queryPayments(ctx, `
		SELECT card_id, month_key, due_date, marked_at, on_time
		FROM payments
		WHERE card_id = ?
		ORDER BY month_key
	`, cardID)
}

// GetAllPayments returns every payment record.
func (s *SQLiteStorage) GetAllPayments(ctx context.Context) ([]model.Payment, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	return s.queryPayments(ctx, `
		SELECT card_id, month_key, due_date, marked_at, on_time
		FROM payments
		ORDER BY card_id, month_key
	`)
}

func (s *SQLiteStorage) queryPayments(ctx context.Context, query string, args ...any) ([]model.Payment, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query payments: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var payments []model.Payment
	for rows.Next() {
		var (
			payment model.Payment
			onTime  sql.NullBool
		)
		if err := rows.Scan(
			&payment.CardID,
			&payment.MonthKey,
			&payment.DueDate,
			&payment.MarkedAt,
			&onTime,
		); err != nil {
			return nil, fmt.Errorf("failed to scan payment: %w", err)
		}
		if onTime.Valid {
			v := onTime.Bool
			payment.OnTime = &v
		}
		payments = append(payments, payment)
	}

	return payments, rows.Err()
}
