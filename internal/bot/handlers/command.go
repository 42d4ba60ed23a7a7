package handlers

import (
	"context"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/vladimiradmaev/eyecare-tracker/internal/bot/menus"
	"github.com/vladimiradmaev/eyecare-tracker/internal/bot/state"
	"github.com/vladimiradmaev/eyecare-tracker/internal/logger"
)

// CommandHandler handles bot commands
type CommandHandler struct {
	*actions
}

// NewCommandHandler creates a new command handler
func NewCommandHandler(a *actions) *CommandHandler {
	return &CommandHandler{actions: a}
}

// Handle processes a command message
func (h *CommandHandler) Handle(ctx context.Context, message *tgbotapi.Message) error {
	chatID := message.Chat.ID
	logger.Info("Handling command", "command", message.Command(), "chat_id", chatID)

	switch message.Command() {
	case "start":
		if err := h.states.SetStep(ctx, chatID, state.None); err != nil {
			return h.reportError(chatID, err)
		}
		return h.showRoot(ctx, chatID)
	case "help":
		return h.send(chatID, menus.HelpText)
	case "login":
		if token := message.CommandArguments(); token != "" {
			return h.login(ctx, chatID, token)
		}
		return h.askFor(ctx, chatID, state.WaitingForToken, "Отправьте токен из приложения.")
	case "logout":
		return h.logout(ctx, chatID)
	case "glaucoma":
		return h.showHistory(ctx, chatID, historyGlaucoma)
	case "retina":
		return h.showHistory(ctx, chatID, historyRetina)
	case "remind":
		if args := message.CommandArguments(); args != "" {
			_, err := h.scheduleReminder(ctx, chatID, args)
			return err
		}
		return h.askFor(ctx, chatID, state.WaitingForReminder, reminderUsage)
	case "stop":
		return h.cancelReminder(ctx, chatID, message.CommandArguments())
	case "reminders":
		return h.showReminders(chatID)
	default:
		return h.send(chatID, "Неизвестная команда. Используйте /help для просмотра доступных команд.")
	}
}
