package menus

import (
	"fmt"
	"strings"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/vladimiradmaev/eyecare-tracker/internal/bot/keyboards"
	"github.com/vladimiradmaev/eyecare-tracker/internal/domain"
	"github.com/vladimiradmaev/eyecare-tracker/internal/reminder"
	"github.com/vladimiradmaev/eyecare-tracker/internal/session"
	"github.com/vladimiradmaev/eyecare-tracker/internal/utils"
)

// Sender is the part of the Telegram API the bot uses
type Sender interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
	Request(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error)
}

const HelpText = `Доступные команды:
/start - Показать главное меню
/help - Показать это сообщение
/login <токен> - Войти с токеном из приложения
/logout - Выйти из аккаунта
/glaucoma - Последние измерения при глаукоме
/retina - Последние интравитреальные инъекции
/remind <часы> <лекарство> - Напоминать о лекарстве каждые N часов
/stop <лекарство> - Остановить напоминания
/reminders - Активные напоминания

Пример: /remind 8 Тимолол`

// SendText sends a plain message
func SendText(api Sender, chatID int64, text string) error {
	_, err := api.Send(tgbotapi.NewMessage(chatID, text))
	return err
}

func sendWithKeyboard(api Sender, chatID int64, text string, keyboard tgbotapi.InlineKeyboardMarkup) error {
	msg := tgbotapi.NewMessage(chatID, text)
	msg.ReplyMarkup = keyboard
	_, err := api.Send(msg)
	return err
}

// SendRoot sends the root screen picked for the chat
func SendRoot(api Sender, chatID int64, screen session.Screen) error {
	switch screen {
	case session.ScreenOnboarding:
		return SendOnboarding(api, chatID)
	case session.ScreenLogin:
		return SendLogin(api, chatID)
	default:
		return SendMainMenu(api, chatID)
	}
}

// SendOnboarding sends the first-launch introduction
func SendOnboarding(api Sender, chatID int64) error {
	text := `👁 *Дневник зрения*

Я помогу следить за лечением глаз:
• Покажу историю измерений при глаукоме
• Покажу историю интравитреальных инъекций
• Напомню о каплях и лекарствах

⚠️ *Важно:* Это справочная информация, всегда консультируйтесь с врачом!`

	msg := tgbotapi.NewMessage(chatID, text)
	msg.ParseMode = "Markdown"
	msg.ReplyMarkup = keyboards.OnboardingMenu()
	_, err := api.Send(msg)
	return err
}

// SendLogin asks the user to link the mobile app account
func SendLogin(api Sender, chatID int64) error {
	return sendWithKeyboard(api, chatID,
		"Чтобы увидеть свои измерения, войдите: /login <токен>\nТокен можно скопировать в приложении. Напоминания работают и без входа.",
		keyboards.LoginMenu())
}

// SendMainMenu sends the main menu to a chat
func SendMainMenu(api Sender, chatID int64) error {
	return sendWithKeyboard(api, chatID, "Выберите действие:", keyboards.MainMenu())
}

// SendGlaucomaHistory sends one row per measurement, newest first
func SendGlaucomaHistory(api Sender, chatID int64, items []*domain.GlaucomaMeasurement) error {
	if len(items) == 0 {
		return sendWithKeyboard(api, chatID, "Измерений при глаукоме пока нет.", keyboards.HistoryMenu())
	}
	var b strings.Builder
	b.WriteString("👁 Глаукома, последние измерения:\n\n")
	for _, m := range items {
		b.WriteString(GlaucomaRow(m))
		b.WriteString("\n")
	}
	return sendWithKeyboard(api, chatID, b.String(), keyboards.HistoryMenu())
}

// SendRetinaHistory sends one row per injection, newest first
func SendRetinaHistory(api Sender, chatID int64, items []*domain.RetinaInjectionMeasurement) error {
	if len(items) == 0 {
		return sendWithKeyboard(api, chatID, "Инъекций пока нет.", keyboards.HistoryMenu())
	}
	var b strings.Builder
	b.WriteString("💉 Инъекции, последние визиты:\n\n")
	for _, m := range items {
		b.WriteString(RetinaRow(m))
		b.WriteString("\n")
	}
	return sendWithKeyboard(api, chatID, b.String(), keyboards.HistoryMenu())
}

// SendReminders lists the armed reminders of a chat
func SendReminders(api Sender, chatID int64, rs []reminder.Reminder) error {
	if len(rs) == 0 {
		return sendWithKeyboard(api, chatID, "Активных напоминаний нет.\nДобавить: /remind <часы> <лекарство>", keyboards.RemindersMenu())
	}
	var b strings.Builder
	b.WriteString("⏰ Активные напоминания:\n\n")
	for _, r := range rs {
		fmt.Fprintf(&b, "💊 %s: каждые %s, следующее %s\n", r.Medication, FormatInterval(r.Interval), r.DueAt.Format("02.01 15:04"))
	}
	b.WriteString("\nОстановить: /stop <лекарство>")
	return sendWithKeyboard(api, chatID, b.String(), keyboards.RemindersMenu())
}

// GlaucomaRow formats a measurement as a single history row
func GlaucomaRow(m *domain.GlaucomaMeasurement) string {
	row := fmt.Sprintf("%s %s  ВГД %.1f · MD %.1f · PSD %.1f · RNFL %d · GCC %d",
		utils.FormatDate(m.Date), EyeLabel(m.Eye), m.IOP, m.MD, m.PSD, m.RNFLOverall, m.GCC)
	if m.NewEyeDrops {
		row += " 💧"
	}
	if m.IsEdited() {
		row += " ✏️"
	}
	return row
}

// RetinaRow formats an injection visit as a single history row
func RetinaRow(m *domain.RetinaInjectionMeasurement) string {
	row := fmt.Sprintf("%s %s  %s · острота %s · ЦТС %d мкм",
		utils.FormatDate(m.Date), EyeLabel(m.Eye), m.Medication, m.Vision, m.CRT)
	if m.IsNewMedication {
		row += " 🆕"
	}
	if m.IsEdited() {
		row += " ✏️"
	}
	return row
}

// EyeLabel returns the clinical abbreviation of an eye
func EyeLabel(e domain.Eye) string {
	if e == domain.EyeRight {
		return "OD"
	}
	return "OS"
}

// FormatInterval renders a reminder interval in hours and minutes
func FormatInterval(d time.Duration) string {
	d = d.Round(time.Minute)
	h := int(d / time.Hour)
	m := int((d % time.Hour) / time.Minute)
	switch {
	case h == 0:
		return fmt.Sprintf("%d мин", m)
	case m == 0:
		return fmt.Sprintf("%d ч", h)
	default:
		return fmt.Sprintf("%d ч %d мин", h, m)
	}
}
