package handlers

import (
	"context"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/vladimiradmaev/eyecare-tracker/internal/bot/state"
)

// TextHandler handles text replies to a pending question
type TextHandler struct {
	*actions
}

// NewTextHandler creates a new text handler
func NewTextHandler(a *actions) *TextHandler {
	return &TextHandler{actions: a}
}

// Handle processes a text message
func (h *TextHandler) Handle(ctx context.Context, message *tgbotapi.Message) error {
	chatID := message.Chat.ID
	s, err := h.states.Get(ctx, chatID)
	if err != nil {
		return h.reportError(chatID, err)
	}

	switch s.Step {
	case state.WaitingForToken:
		return h.login(ctx, chatID, message.Text)
	case state.WaitingForReminder:
		scheduled, err := h.scheduleReminder(ctx, chatID, message.Text)
		if err != nil || !scheduled {
			return err
		}
		if err := h.states.SetStep(ctx, chatID, state.None); err != nil {
			return h.reportError(chatID, err)
		}
		return nil
	default:
		return h.send(chatID, "Пожалуйста, используйте меню или /help.")
	}
}
