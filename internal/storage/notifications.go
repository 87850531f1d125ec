package storage

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/Veraticus/duecard/internal/common"
	"github.com/Veraticus/duecard/internal/model"
)

// GetNotificationSetting returns the stored setting for a card, or common.ErrNotFound.
func (s *SQLiteStorage) GetNotificationSetting(ctx context.Context, cardID string) (*model.NotificationSetting, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if err := validateString(cardID, "cardID"); err != nil {
		return nil, err
	}

	var setting model.NotificationSetting
	err := s.db.QueryRowContext(ctx, `
		SELECT card_id, enabled, days_before, updated_at
		FROM notification_settings
		WHERE card_id = ?
	`, cardID).Scan(&setting.CardID, &setting.Enabled, &setting.DaysBefore, &setting.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("notification setting for %q: %w", cardID, common.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get notification setting: %w", err)
	}

	return &setting, nil
}

// SaveNotificationSetting creates or replaces a card's notification setting.
func (s *SQLiteStorage) SaveNotificationSetting(ctx context.Context, setting *model.NotificationSetting) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validateSetting(setting); err != nil {
		return err
	}

	setting.UpdatedAt = time.Now()
	return s.withTx(ctx, func(tx *sql.Tx) error {
		if _, err := s.getCardTx(ctx, tx, setting.CardID); err != nil {
			return err
		}

		_, err := tx.ExecContext(ctx, `
			INSERT INTO notification_settings (card_id, enabled, days_before, updated_at)
			VALUES (?, ?, ?, ?)
			ON CONFLICT(card_id) DO UPDATE SET
				enabled = excluded.enabled,
				days_before = excluded.days_before,
				updated_at = excluded.updated_at
		`, setting.CardID, setting.Enabled, setting.DaysBefore, setting.UpdatedAt)
		if err != nil {
			return fmt.Errorf("failed to save notification setting: %w", err)
		}
		return nil
	})
}

// GetNotificationSettings returns all stored settings.
func (s *SQLiteStorage) GetNotificationSettings(ctx context.Context) ([]model.NotificationSetting, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT card_id, enabled, days_before, updated_at
		FROM notification_settings
		ORDER BY card_id
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to query notification settings: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var settings []model.NotificationSetting
	for rows.Next() {
		var setting model.NotificationSetting
		if err := rows.Scan(&setting.CardID, &setting.Enabled, &setting.DaysBefore, &setting.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan notification setting: %w", err)
		}
		settings = append(settings, setting)
	}

	return settings, rows.Err()
}
