package infrastructure

import (
	"context"
	"fmt"
	"log/slog"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// TelegramResponder answers one inbound question for a chat channel.
type TelegramResponder interface {
	Respond(ctx context.Context, externalID, text string) (string, error)
}

// TelegramBot bridges Telegram chats onto the answering pipeline. Each chat
// ID is treated as an external identity and mapped through the identity
// bridge by the responder.
type TelegramBot struct {
	api       *tgbotapi.BotAPI
	responder TelegramResponder
	log       *slog.Logger
}

func NewTelegramBot(token string, responder TelegramResponder, log *slog.Logger) (*TelegramBot, error) {
	api, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, fmt.Errorf("telegram init: %w", err)
	}
	return &TelegramBot{api: api, responder: responder, log: log}, nil
}

// Run polls updates until the context is canceled.
func (b *TelegramBot) Run(ctx context.Context) {
	u := tgbotapi.NewUpdate(0)
	u.Timeout = 30
	updates := b.api.GetUpdatesChan(u)

	b.log.Info("telegram bot started", "username", b.api.Self.UserName)
	for {
		select {
		case <-ctx.Done():
			b.api.StopReceivingUpdates()
			return
		case update, ok := <-updates:
			if !ok {
				return
			}
			if update.Message == nil || update.Message.Text == "" {
				continue
			}
			b.handle(ctx, update.Message)
		}
	}
}

func (b *TelegramBot) handle(ctx context.Context, msg *tgbotapi.Message) {
	externalID := fmt.Sprintf("tg-%d", msg.Chat.ID)
	reply, err := b.responder.Respond(ctx, externalID, msg.Text)
	if err != nil {
		b.log.Error("telegram respond failed", "chat_id", msg.Chat.ID, "error", err)
		reply = "Desculpe, não consegui processar sua pergunta agora. Tente novamente."
	}
	out := tgbotapi.NewMessage(msg.Chat.ID, reply)
	out.ReplyToMessageID = msg.MessageID
	if _, err := b.api.Send(out); err != nil {
		b.log.Error("telegram send failed", "chat_id", msg.Chat.ID, "error", err)
	}
}
