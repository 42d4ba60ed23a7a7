package handlers

import (
	"context"
	"errors"
	"fmt"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/vladimiradmaev/eyecare-tracker/internal/bot/keyboards"
	"github.com/vladimiradmaev/eyecare-tracker/internal/bot/menus"
	"github.com/vladimiradmaev/eyecare-tracker/internal/bot/state"
	"github.com/vladimiradmaev/eyecare-tracker/internal/domain"
	apperrors "github.com/vladimiradmaev/eyecare-tracker/internal/errors"
	"github.com/vladimiradmaev/eyecare-tracker/internal/logger"
	"github.com/vladimiradmaev/eyecare-tracker/internal/session"
	"github.com/vladimiradmaev/eyecare-tracker/internal/utils"
)

const (
	historyGlaucoma = "glaucoma"
	historyRetina   = "retina"

	reminderUsage = "Укажите интервал в часах и лекарство, например: 8 Тимолол"
)

// actions are the operations shared by commands, buttons and text replies
type actions struct {
	api    menus.Sender
	deps   Dependencies
	states *state.Manager
}

func (a *actions) send(chatID int64, text string) error {
	return menus.SendText(a.api, chatID, text)
}

// showRoot sends the onboarding, login or main screen
func (a *actions) showRoot(ctx context.Context, chatID int64) error {
	s, err := a.states.Get(ctx, chatID)
	if err != nil {
		return a.reportError(chatID, err)
	}
	return menus.SendRoot(a.api, chatID, session.Route(s.SessionState()))
}

func (a *actions) finishOnboarding(ctx context.Context, chatID int64) error {
	s, err := a.states.Get(ctx, chatID)
	if err != nil {
		return a.reportError(chatID, err)
	}
	s.Onboarded = true
	if err := a.states.Save(ctx, chatID, s); err != nil {
		return a.reportError(chatID, err)
	}
	return a.showRoot(ctx, chatID)
}

// askFor switches the chat to a step that waits for a text reply
func (a *actions) askFor(ctx context.Context, chatID int64, step, prompt string) error {
	if err := a.states.SetStep(ctx, chatID, step); err != nil {
		return a.reportError(chatID, err)
	}
	msg := tgbotapi.NewMessage(chatID, prompt)
	msg.ReplyMarkup = keyboards.BackToMenu()
	_, err := a.api.Send(msg)
	return err
}

// login links the chat to the account that issued token
func (a *actions) login(ctx context.Context, chatID int64, token string) error {
	token = strings.TrimSpace(token)
	claims, err := a.deps.Auth.Authenticate(ctx, token)
	if err != nil {
		if apperrors.TypeOf(err) == apperrors.ErrorTypePermission {
			return a.send(chatID, "❌ Токен недействителен или истёк. Скопируйте новый токен в приложении.")
		}
		return a.reportError(chatID, err)
	}

	s, err := a.states.Get(ctx, chatID)
	if err != nil {
		return a.reportError(chatID, err)
	}
	s.UserID = claims.UserID
	s.Token = token
	s.Step = state.None
	if err := a.states.Save(ctx, chatID, s); err != nil {
		return a.reportError(chatID, err)
	}

	logger.Info("Chat linked to account", "chat_id", chatID, "user_id", claims.UserID)
	if err := a.send(chatID, fmt.Sprintf("✅ Вы вошли как %s", claims.Email)); err != nil {
		return err
	}
	return a.showRoot(ctx, chatID)
}

// logout revokes the stored token and forgets the account
func (a *actions) logout(ctx context.Context, chatID int64) error {
	s, err := a.states.Get(ctx, chatID)
	if err != nil {
		return a.reportError(chatID, err)
	}
	if s.Token != "" {
		// an already expired or revoked token needs no revocation
		if err := a.deps.Auth.SignOut(ctx, s.Token); err != nil && apperrors.TypeOf(err) != apperrors.ErrorTypePermission {
			return a.reportError(chatID, err)
		}
	}

	s.SignOut()
	if err := a.states.Save(ctx, chatID, s); err != nil {
		return a.reportError(chatID, err)
	}
	if err := a.send(chatID, "Вы вышли из аккаунта."); err != nil {
		return err
	}
	return a.showRoot(ctx, chatID)
}

// signedInUser re-checks the stored token so a sign-out elsewhere takes
// effect here too. ok is false when the chat has no valid account.
func (a *actions) signedInUser(ctx context.Context, chatID int64) (userID string, ok bool, err error) {
	s, err := a.states.Get(ctx, chatID)
	if err != nil {
		return "", false, err
	}
	if s.Token == "" {
		return "", false, nil
	}

	claims, err := a.deps.Auth.Authenticate(ctx, s.Token)
	if err != nil {
		if apperrors.TypeOf(err) != apperrors.ErrorTypePermission {
			return "", false, err
		}
		s.SignOut()
		return "", false, a.states.Save(ctx, chatID, s)
	}
	return claims.UserID, true, nil
}

// showHistory sends the latest measurements of one kind
func (a *actions) showHistory(ctx context.Context, chatID int64, kind string) error {
	userID, ok, err := a.signedInUser(ctx, chatID)
	if err != nil {
		return a.reportError(chatID, err)
	}
	if !ok {
		return menus.SendLogin(a.api, chatID)
	}

	switch kind {
	case historyGlaucoma:
		items, err := a.deps.Glaucoma.List(ctx, userID, domain.DateRange{})
		if err != nil {
			return a.reportError(chatID, err)
		}
		return menus.SendGlaucomaHistory(a.api, chatID, firstN(items, historyLimit))
	default:
		items, err := a.deps.Retina.List(ctx, userID, domain.DateRange{})
		if err != nil {
			return a.reportError(chatID, err)
		}
		return menus.SendRetinaHistory(a.api, chatID, firstN(items, historyLimit))
	}
}

// scheduleReminder parses "<hours> <medication>" and starts a chain. It
// reports whether a chain was started.
func (a *actions) scheduleReminder(ctx context.Context, chatID int64, args string) (bool, error) {
	fields := strings.Fields(args)
	if len(fields) < 2 {
		return false, a.send(chatID, reminderUsage)
	}
	interval, err := utils.ParseHours(fields[0])
	if err != nil {
		return false, a.send(chatID, reminderUsage)
	}
	medication := strings.Join(fields[1:], " ")

	r, err := a.deps.Reminders.Schedule(ctx, chatID, medication, interval)
	if err != nil {
		return false, a.reportError(chatID, err)
	}
	return true, a.send(chatID, fmt.Sprintf("⏰ Буду напоминать о «%s» каждые %s. Первое напоминание в %s.\nОстановить: /stop %s",
		r.Medication, menus.FormatInterval(r.Interval), r.DueAt.Format("02.01 15:04"), r.Medication))
}

func (a *actions) cancelReminder(ctx context.Context, chatID int64, medication string) error {
	medication = strings.TrimSpace(medication)
	if medication == "" {
		return a.send(chatID, "Укажите лекарство, например: /stop Тимолол")
	}
	found, err := a.deps.Reminders.Cancel(ctx, chatID, medication)
	if err != nil {
		return a.reportError(chatID, err)
	}
	if !found {
		return a.send(chatID, fmt.Sprintf("Активных напоминаний о «%s» нет.", medication))
	}
	return a.send(chatID, fmt.Sprintf("🛑 Напоминания о «%s» остановлены.", medication))
}

func (a *actions) showReminders(chatID int64) error {
	return menus.SendReminders(a.api, chatID, a.deps.Reminders.Active(chatID))
}

// reportError tells the user what went wrong. Validation messages are shown
// as is; everything else gets a generic retry message.
func (a *actions) reportError(chatID int64, err error) error {
	var appErr *apperrors.AppError
	if errors.As(err, &appErr) && appErr.Type == apperrors.ErrorTypeValidation {
		return a.send(chatID, "⚠️ "+appErr.Message)
	}
	logger.Error("Bot action failed", "chat_id", chatID, "error", err)
	return a.send(chatID, "Произошла ошибка. Пожалуйста, попробуйте еще раз.")
}

func firstN[T any](items []T, n int) []T {
	if len(items) > n {
		return items[:n]
	}
	return items
}
