package storage

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	"github.com/Veraticus/duecard/internal/common"
	"github.com/Veraticus/duecard/internal/model"
)

const cardColumns = `id, name, bank, due_day, is_paid, created_at, updated_at`

// CreateCard inserts a new card.
func (s *SQLiteStorage) CreateCard(ctx context.Context, card *model.Card) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validateCard(card); err != nil {
		return err
	}

	now := time.Now()
	if card.CreatedAt.IsZero() {
		card.CreatedAt = now
	}
	card.UpdatedAt = now

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO cards (`+cardColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`, card.ID, card.Name, card.Bank, card.DueDay, card.IsPaid, card.CreatedAt, card.UpdatedAt)
	if err != nil {
		if isConstraintViolation(err) {
			return fmt.Errorf("card %q: %w", card.ID, common.ErrDuplicateEntry)
		}
		return fmt.Errorf("failed to create card: %w", err)
	}

	slog.Debug("created card", "id", card.ID, "name", card.Name)
	return nil
}

// GetCard retrieves a card by ID.
func (s *SQLiteStorage) GetCard(ctx context.Context, id string) (*model.Card, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if err := validateString(id, "id"); err != nil {
		return nil, err
	}
	return s.getCardTx(ctx, s.db, id)
}

func (s *SQLiteStorage) getCardTx(ctx context.Context, q queryable, id string) (*model.Card, error) {
	var card model.Card
	err := q.QueryRowContext(ctx, `
		SELECT `+cardColumns+`
		FROM cards
		WHERE id = ?
	`, id).Scan(
		&card.ID,
		&card.Name,
		&card.Bank,
		&card.DueDay,
		&card.IsPaid,
		&card.CreatedAt,
		&card.UpdatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, notFound("card", id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get card: %w", err)
	}
	return &card, nil
}

// ListCards returns every card ordered by name.
func (s *SQLiteStorage) ListCards(ctx context.Context) ([]model.Card, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT `+cardColumns+`
		FROM cards
		ORDER BY name, id
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to query cards: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var cards []model.Card
	for rows.Next() {
		var card model.Card
		if err := rows.Scan(
			&card.ID,
			&card.Name,
			&card.Bank,
			&card.DueDay,
			&card.IsPaid,
			&card.CreatedAt,
			&card.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan card: %w", err)
		}
		cards = append(cards, card)
	}

	return cards, rows.Err()
}

// UpdateCard saves the editable fields of an existing card.
func (s *SQLiteStorage) UpdateCard(ctx context.Context, card *model.Card) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validateCard(card); err != nil {
		return err
	}

	card.UpdatedAt = time.Now()
	result, err := s.db.ExecContext(ctx, `
		UPDATE cards
		SET name = ?, bank = ?, due_day = ?, updated_at = ?
		WHERE id = ?
	`, card.Name, card.Bank, card.DueDay, card.UpdatedAt, card.ID)
	if err != nil {
		return fmt.Errorf("failed to update card: %w", err)
	}

	return expectAffected(result, "card", card.ID)
}

// SetCardPaid updates the cached paid flag.
func (s *SQLiteStorage) SetCardPaid(ctx context.Context, id string, paid bool) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validateString(id, "id"); err != nil {
		return err
	}

	result, err := s.db.ExecContext(ctx, `
		UPDATE cards SET is_paid = ?, updated_at = ? WHERE id = ?
	`, paid, time.Now(), id)
	if err != nil {
		return fmt.Errorf("failed to update paid flag: %w", err)
	}

	return expectAffected(result, "card", id)
}

// DeleteCard removes a card together with its payments and notification setting.
func (s *SQLiteStorage) DeleteCard(ctx context.Context, id string) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validateString(id, "id"); err != nil {
		return err
	}

	return s.withTx(ctx, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, `DELETE FROM payments WHERE card_id = ?`, id); err != nil {
			return fmt.Errorf("failed to delete payments: %w", err)
		}
		if _, err := tx.ExecContext(ctx, `DELETE FROM notification_settings WHERE card_id = ?`, id); err != nil {
			return fmt.Errorf("failed to delete notification setting: %w", err)
		}

		result, err := tx.ExecContext(ctx, `DELETE FROM cards WHERE id = ?`, id)
		if err != nil {
			return fmt.Errorf("failed to delete card: %w", err)
		}
		return expectAffected(result, "card", id)
	})
}

func expectAffected(result sql.Result, what, id string) error {
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return notFound(what, id)
	}
	return nil
}
