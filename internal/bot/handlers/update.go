package handlers

import (
	"context"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/vladimiradmaev/eyecare-tracker/internal/bot/menus"
	"github.com/vladimiradmaev/eyecare-tracker/internal/bot/state"
)

// UpdateHandler handles telegram updates and coordinates other handlers
type UpdateHandler struct {
	callbackHandler *CallbackHandler
	commandHandler  *CommandHandler
	textHandler     *TextHandler
}

// NewUpdateHandler creates a new update handler
func NewUpdateHandler(api menus.Sender, deps Dependencies, states *state.Manager) *UpdateHandler {
	a := &actions{api: api, deps: deps, states: states}
	return &UpdateHandler{
		callbackHandler: NewCallbackHandler(a),
		commandHandler:  NewCommandHandler(a),
		textHandler:     NewTextHandler(a),
	}
}

// Handle processes a telegram update
func (h *UpdateHandler) Handle(ctx context.Context, update tgbotapi.Update) error {
	if update.CallbackQuery != nil {
		return h.callbackHandler.Handle(ctx, update.CallbackQuery)
	}

	message := update.Message
	if message == nil || message.Chat == nil {
		return nil
	}
	if message.IsCommand() {
		return h.commandHandler.Handle(ctx, message)
	}
	if message.Text != "" {
		return h.textHandler.Handle(ctx, message)
	}
	return nil
}
