package bot

import (
	"context"
	"fmt"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/vladimiradmaev/eyecare-tracker/internal/bot/menus"
	"github.com/vladimiradmaev/eyecare-tracker/internal/reminder"
)

// Notifier delivers due reminders as chat messages
type Notifier struct {
	api menus.Sender
}

func NewNotifier(api menus.Sender) *Notifier {
	return &Notifier{api: api}
}

func (n *Notifier) NotifyReminder(_ context.Context, r reminder.Reminder) error {
	text := fmt.Sprintf("💊 Пора принять «%s»\n\nСледующее напоминание через %s.\nОстановить: /stop %s",
		r.Medication, menus.FormatInterval(r.Interval), r.Medication)
	if _, err := n.api.Send(tgbotapi.NewMessage(r.ChatID, text)); err != nil {
		return fmt.Errorf("failed to send reminder %s: %w", r.ID, err)
	}
	return nil
}

var _ reminder.Notifier = (*Notifier)(nil)
