package telegram

import (
	"context"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/Kerhoff/WishlistBot/internal/dialog"
)

// Engine turns a decoded event into reply intents
type Engine interface {
	Handle(ctx context.Context, ev dialog.Event) dialog.Response
}

// Sender is the part of tgbotapi.BotAPI the router needs
type Sender interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
	Request(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error)
}

// Router decodes Telegram updates into dialog events and delivers the
// engine's replies back to the chat.
type Router struct {
	logger *logrus.Logger
	engine Engine
}

// NewRouter creates a new update router
func NewRouter(engine Engine, logger *logrus.Logger) *Router {
	return &Router{
		logger: logger,
		engine: engine,
	}
}

// HandleUpdate routes one update. Updates other than messages and button
// presses are ignored.
func (r *Router) HandleUpdate(ctx context.Context, bot Sender, update tgbotapi.Update) {
	log := r.logger.WithFields(logrus.Fields{
		"update_id":      update.UpdateID,
		"correlation_id": uuid.NewString(),
	})

	switch {
	case update.Message != nil:
		r.HandleMessage(ctx, bot, update.Message, log)
	case update.CallbackQuery != nil:
		r.HandleCallbackQuery(ctx, bot, update.CallbackQuery, log)
	}
}

// HandleMessage handles incoming messages
func (r *Router) HandleMessage(ctx context.Context, bot Sender, message *tgbotapi.Message, log *logrus.Entry) {
	if message.From == nil || message.Text == "" {
		return
	}

	log = log.WithFields(logrus.Fields{
		"chat_id":    message.Chat.ID,
		"user_id":    message.From.ID,
		"username":   message.From.UserName,
		"message_id": message.MessageID,
	})
	log.Info("Received message")

	from := senderOf(message.From)
	ev := dialog.TextEvent(from, message.Text)

	if message.IsCommand() {
		var ok bool
		ev, ok = dialog.ParseCommand(from, message.Command())
		if !ok {
			log.WithField("command", message.Command()).Warn("Unknown command")
			r.send(bot, tgbotapi.NewMessage(message.Chat.ID, "❓ Unknown command. Use /help to see available commands."), log)
			return
		}
	}

	resp := r.engine.Handle(ctx, ev)
	r.deliver(bot, message.Chat.ID, resp, log)
}

// HandleCallbackQuery handles callback queries from inline keyboards
func (r *Router) HandleCallbackQuery(ctx context.Context, bot Sender, query *tgbotapi.CallbackQuery, log *logrus.Entry) {
	if query.From == nil {
		return
	}

	chatID := query.From.ID
	if query.Message != nil {
		chatID = query.Message.Chat.ID
	}

	log = log.WithFields(logrus.Fields{
		"callback_id": query.ID,
		"chat_id":     chatID,
		"user_id":     query.From.ID,
		"data":        query.Data,
	})
	log.Info("Received callback query")

	ev, err := dialog.ParseAction(senderOf(query.From), query.Data)
	if err != nil {
		log.WithError(err).Warn("Unknown callback data")
		r.answer(bot, query.ID, "Unknown action", log)
		return
	}

	resp := r.engine.Handle(ctx, ev)

	// Answer first to remove the loading state from the button
	r.answer(bot, query.ID, resp.Notice, log)
	r.deliver(bot, chatID, resp, log)
}

func (r *Router) deliver(bot Sender, chatID int64, resp dialog.Response, log *logrus.Entry) {
	for _, reply := range resp.Replies {
		r.send(bot, NewReplyMessage(chatID, reply), log)
	}
}

func (r *Router) send(bot Sender, msg tgbotapi.MessageConfig, log *logrus.Entry) {
	if _, err := bot.Send(msg); err != nil {
		log.WithError(err).Error("Failed to send message")
	}
}

func (r *Router) answer(bot Sender, callbackID, text string, log *logrus.Entry) {
	if _, err := bot.Request(tgbotapi.NewCallback(callbackID, text)); err != nil {
		log.WithError(err).Warn("Failed to answer callback query")
	}
}

// NewReplyMessage renders a dialog reply as a Telegram message
func NewReplyMessage(chatID int64, reply dialog.Reply) tgbotapi.MessageConfig {
	msg := tgbotapi.NewMessage(chatID, reply.Text)
	if reply.Markdown {
		msg.ParseMode = tgbotapi.ModeMarkdownV2
		msg.DisableWebPagePreview = true
	}
	if len(reply.Buttons) == 0 {
		return msg
	}

	rows := make([][]tgbotapi.InlineKeyboardButton, 0, len(reply.Buttons))
	for _, buttons := range reply.Buttons {
		row := make([]tgbotapi.InlineKeyboardButton, 0, len(buttons))
		for _, b := range buttons {
			if b.URL != "" {
				row = append(row, tgbotapi.NewInlineKeyboardButtonURL(b.Text, b.URL))
				continue
			}
			row = append(row, tgbotapi.NewInlineKeyboardButtonData(b.Text, b.Data))
		}
		rows = append(rows, row)
	}
	msg.ReplyMarkup = tgbotapi.NewInlineKeyboardMarkup(rows...)
	return msg
}

func senderOf(u *tgbotapi.User) dialog.Sender {
	return dialog.Sender{
		TelegramID: u.ID,
		Username:   u.UserName,
		FirstName:  u.FirstName,
		LastName:   u.LastName,
	}
}

// userOf returns the Telegram user behind an update, or 0
func userOf(update tgbotapi.Update) int64 {
	switch {
	case update.Message != nil && update.Message.From != nil:
		return update.Message.From.ID
	case update.CallbackQuery != nil && update.CallbackQuery.From != nil:
		return update.CallbackQuery.From.ID
	}
	return 0
}
