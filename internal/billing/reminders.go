package billing

import (
	"context"
	"fmt"
	"time"

	"github.com/Veraticus/duecard/internal/model"
)

// Reminder is an unpaid cycle that falls inside its card's notification window.
type Reminder struct {
	CardStatus
	Setting model.NotificationSetting
}

// DueSoon selects unpaid cycles due within each card's DaysBefore window, overdue ones included.
// Cards without a stored setting use model.DefaultNotificationSetting.
func DueSoon(statuses []CardStatus, settings []model.NotificationSetting) []Reminder {
	byCard := make(map[string]model.NotificationSetting, len(settings))
	for _, s := range settings {
		byCard[s.CardID] = s
	}

	var reminders []Reminder
	for _, cs := range statuses {
		setting, ok := byCard[cs.Card.ID]
		if !ok {
			setting = model.DefaultNotificationSetting(cs.Card.ID)
		}
		if !setting.Enabled || cs.Status.IsPaid {
			continue
		}
		if cs.Status.DaysDiff <= setting.DaysBefore {
			reminders = append(reminders, Reminder{CardStatus: cs, Setting: setting})
		}
	}
	return reminders
}

// DueSoon loads every card and returns the reminders that apply at now.
func (l *Ledger) DueSoon(ctx context.Context, now time.Time) ([]Reminder, error) {
	statuses, err := l.Overview(ctx, now)
	if err != nil {
		return nil, err
	}

	settings, err := l.store.GetNotificationSettings(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load notification settings: %w", err)
	}

	return DueSoon(statuses, settings), nil
}
