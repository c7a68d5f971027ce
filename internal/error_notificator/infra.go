package error_notificator

import (
	"context"
	"fmt"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"
)

const maxMessageLen = 4000

type Infra struct {
	bot     Sender
	chatID  int64
	service string
	log     *zap.Logger
}

func NewInfra(bot Sender, chatID int64, service string, log *zap.Logger) *Infra {
	if log == nil {
		log = zap.NewNop()
	}
	return &Infra{bot: bot, chatID: chatID, service: service, log: log.Named("error_notificator")}
}

// NewTelegramInfra поднимает бота по токену.
func NewTelegramInfra(token string, chatID int64, service string, log *zap.Logger) (*Infra, error) {
	bot, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, fmt.Errorf("telegram bot init: %w", err)
	}
	return NewInfra(bot, chatID, service, log), nil
}

func (i *Infra) Notify(_ context.Context, err error, details string) error {
	text := fmt.Sprintf(
		"❗ Деградация синтеза (%s)\n\nОшибка: %v\n\nДетали: %s",
		i.service,
		err,
		details,
	)
	if r := []rune(text); len(r) > maxMessageLen {
		text = string(r[:maxMessageLen])
	}

	msg := tgbotapi.NewMessage(i.chatID, text)

	if _, sendErr := i.bot.Send(msg); sendErr != nil {
		i.log.Warn("send fail", zap.Error(sendErr))
		return sendErr
	}
	return nil
}
