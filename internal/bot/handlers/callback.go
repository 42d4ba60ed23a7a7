package handlers

import (
	"context"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/vladimiradmaev/eyecare-tracker/internal/bot/keyboards"
	"github.com/vladimiradmaev/eyecare-tracker/internal/bot/menus"
	"github.com/vladimiradmaev/eyecare-tracker/internal/bot/state"
	"github.com/vladimiradmaev/eyecare-tracker/internal/logger"
)

// CallbackHandler handles callback query messages
type CallbackHandler struct {
	*actions
}

// NewCallbackHandler creates a new callback handler
func NewCallbackHandler(a *actions) *CallbackHandler {
	return &CallbackHandler{actions: a}
}

// Handle processes a callback query
func (h *CallbackHandler) Handle(ctx context.Context, query *tgbotapi.CallbackQuery) error {
	// Answer the callback query first
	if _, err := h.api.Request(tgbotapi.NewCallback(query.ID, "")); err != nil {
		logger.Warn("Failed to answer callback query", "error", err)
	}
	if query.Message == nil || query.Message.Chat == nil {
		return nil
	}
	chatID := query.Message.Chat.ID

	switch query.Data {
	case keyboards.CallbackMainMenu:
		if err := h.states.SetStep(ctx, chatID, state.None); err != nil {
			return h.reportError(chatID, err)
		}
		return h.showRoot(ctx, chatID)
	case keyboards.CallbackOnboardingDone:
		return h.finishOnboarding(ctx, chatID)
	case keyboards.CallbackLogin:
		return h.askFor(ctx, chatID, state.WaitingForToken, "Отправьте токен из приложения.")
	case keyboards.CallbackGlaucomaHistory:
		return h.showHistory(ctx, chatID, historyGlaucoma)
	case keyboards.CallbackRetinaHistory:
		return h.showHistory(ctx, chatID, historyRetina)
	case keyboards.CallbackReminders:
		return h.showReminders(chatID)
	case keyboards.CallbackAddReminder:
		return h.askFor(ctx, chatID, state.WaitingForReminder, reminderUsage)
	case keyboards.CallbackHelp:
		return h.send(chatID, menus.HelpText)
	default:
		return h.send(chatID, "Неизвестное действие. Используйте /start для возврата в меню.")
	}
}
