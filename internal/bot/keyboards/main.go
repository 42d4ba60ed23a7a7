package keyboards

import (
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// Callback data
const (
	CallbackMainMenu        = "main_menu"
	CallbackOnboardingDone  = "onboarding_done"
	CallbackLogin           = "login"
	CallbackGlaucomaHistory = "history_glaucoma"
	CallbackRetinaHistory   = "history_retina"
	CallbackReminders       = "reminders"
	CallbackAddReminder     = "add_reminder"
	CallbackHelp            = "help"
)

// MainMenu creates the main menu keyboard
func MainMenu() tgbotapi.InlineKeyboardMarkup {
	return tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("👁 Глаукома", CallbackGlaucomaHistory),
			tgbotapi.NewInlineKeyboardButtonData("💉 Инъекции", CallbackRetinaHistory),
		),
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("⏰ Напоминания", CallbackReminders),
		),
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("❓ Помощь", CallbackHelp),
		),
	)
}

// OnboardingMenu closes the onboarding screen
func OnboardingMenu() tgbotapi.InlineKeyboardMarkup {
	return tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("✅ Понятно", CallbackOnboardingDone),
		),
	)
}

// LoginMenu asks for the token from the mobile app
func LoginMenu() tgbotapi.InlineKeyboardMarkup {
	return tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("🔑 Войти", CallbackLogin),
		),
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("⏰ Напоминания", CallbackReminders),
		),
	)
}

// HistoryMenu switches between the two history views
func HistoryMenu() tgbotapi.InlineKeyboardMarkup {
	return tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("👁 Глаукома", CallbackGlaucomaHistory),
			tgbotapi.NewInlineKeyboardButtonData("💉 Инъекции", CallbackRetinaHistory),
		),
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("◀️ Главное меню", CallbackMainMenu),
		),
	)
}

// RemindersMenu creates the reminders keyboard
func RemindersMenu() tgbotapi.InlineKeyboardMarkup {
	return tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("➕ Добавить", CallbackAddReminder),
		),
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("◀️ Главное меню", CallbackMainMenu),
		),
	)
}

// BackToMenu creates a single back button
func BackToMenu() tgbotapi.InlineKeyboardMarkup {
	return tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("◀️ Главное меню", CallbackMainMenu),
		),
	)
}
