package notify

import (
	"fmt"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/sirupsen/logrus"
)

// TelegramNotifier delivers reminders as Telegram messages to a fixed chat.
type TelegramNotifier struct {
	bot    *tgbotapi.BotAPI
	chatID int64
	logger *logrus.Logger
}

// NewTelegram authorizes the bot and returns a notifier bound to chatID.
func NewTelegram(token string, chatID int64, logger *logrus.Logger) (*TelegramNotifier, error) {
	bot, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, fmt.Errorf("failed to create Telegram bot: %w", err)
	}
	logger.Infof("Telegram notifier authorized on account %s", bot.Self.UserName)
	return &TelegramNotifier{bot: bot, chatID: chatID, logger: logger}, nil
}

func (n *TelegramNotifier) Notify(eventID int64, title string) error {
	msg := tgbotapi.NewMessage(n.chatID, fmt.Sprintf("⏰ *Reminder*\n%s", title))
	msg.ParseMode = tgbotapi.ModeMarkdown
	if _, err := n.bot.Send(msg); err != nil {
		return fmt.Errorf("failed to send reminder for event %d: %w", eventID, err)
	}
	return nil
}
