package telegram

import (
	"context"
	"fmt"
	"net/http"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// updateTimeout bounds the handling of one update, including the drain
// after shutdown has begun.
const updateTimeout = 30 * time.Second

// WebhookPath returns where Telegram delivers updates in webhook mode. The
// last segment is derived from the bot token so the endpoint cannot be
// guessed without it.
func WebhookPath(token string) string {
	return "/telegram/webhook/" + uuid.NewSHA1(uuid.NameSpaceURL, []byte(token)).String()
}

// Bot wraps the Telegram bot API
type Bot struct {
	api        *tgbotapi.BotAPI
	sender     Sender
	logger     *logrus.Logger
	router     *Router
	dispatcher *Dispatcher
}

// NewBot creates a new Telegram bot instance
func NewBot(token string, router *Router, logger *logrus.Logger) (*Bot, error) {
	api, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, fmt.Errorf("failed to create bot API: %w", err)
	}

	logger.Infof("Authorized on account %s", api.Self.UserName)

	return &Bot{
		api:        api,
		sender:     api,
		logger:     logger,
		router:     router,
		dispatcher: NewDispatcher(logger),
	}, nil
}

// SetWebhook sets up webhook for the bot
func (b *Bot) SetWebhook(webhookURL string) error {
	wh, err := tgbotapi.NewWebhook(webhookURL)
	if err != nil {
		return fmt.Errorf("failed to create webhook: %w", err)
	}

	_, err = b.api.Request(wh)
	if err != nil {
		return fmt.Errorf("failed to set webhook: %w", err)
	}

	b.logger.Info("Webhook set")
	return nil
}

// Start starts the bot with long polling. It blocks until ctx is cancelled.
func (b *Bot) Start(ctx context.Context) error {
	// Delete webhook if exists and use polling
	_, err := b.api.Request(tgbotapi.DeleteWebhookConfig{})
	if err != nil {
		return fmt.Errorf("failed to delete webhook: %w", err)
	}

	u := tgbotapi.NewUpdate(0)
	u.Timeout = 60

	updates := b.api.GetUpdatesChan(u)

	b.logger.Info("Bot started with long polling")

	for {
		select {
		case <-ctx.Done():
			b.logger.Info("Stopping bot...")
			b.api.StopReceivingUpdates()
			return nil
		case update := <-updates:
			b.dispatch(ctx, update)
		}
	}
}

// WebhookHandler returns the HTTP handler receiving webhook updates. Jobs
// run with ctx, not the request context, since they outlive the request.
func (b *Bot) WebhookHandler(ctx context.Context) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		update, err := b.api.HandleUpdate(r)
		if err != nil {
			b.logger.WithError(err).Warn("Invalid webhook update")
			http.Error(w, "invalid update", http.StatusBadRequest)
			return
		}
		b.dispatch(ctx, *update)
		w.WriteHeader(http.StatusOK)
	})
}

// dispatch queues the update behind earlier updates of the same user. The
// job keeps ctx values but not its cancellation: updates still queued when
// shutdown starts are handled by Stop, after ctx is done.
func (b *Bot) dispatch(ctx context.Context, update tgbotapi.Update) {
	base := context.WithoutCancel(ctx)
	ok := b.dispatcher.Submit(userOf(update), func() {
		jobCtx, cancel := context.WithTimeout(base, updateTimeout)
		defer cancel()
		b.router.HandleUpdate(jobCtx, b.sender, update)
	})
	if !ok {
		b.logger.WithField("update_id", update.UpdateID).Warn("Dropped update during shutdown")
	}
}

// Stop waits for in-flight updates to be handled
func (b *Bot) Stop() {
	b.dispatcher.Close()
}
