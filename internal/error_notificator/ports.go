package error_notificator

import (
	"context"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

type Notificator interface {
	// Notify — отправляет сообщение об ошибке админу
	Notify(ctx context.Context, err error, details string) error
}

// Sender is satisfied by *tgbotapi.BotAPI.
type Sender interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
}
