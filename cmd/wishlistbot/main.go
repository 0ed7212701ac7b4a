package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/hashicorp/go-multierror"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/sirupsen/logrus"

	"github.com/Kerhoff/WishlistBot/internal/api"
	"github.com/Kerhoff/WishlistBot/internal/config"
	"github.com/Kerhoff/WishlistBot/internal/dialog"
	"github.com/Kerhoff/WishlistBot/internal/metrics"
	"github.com/Kerhoff/WishlistBot/internal/reservation"
	"github.com/Kerhoff/WishlistBot/internal/service"
	"github.com/Kerhoff/WishlistBot/internal/session"
	"github.com/Kerhoff/WishlistBot/internal/telegram"
	"github.com/Kerhoff/WishlistBot/pkg/logger"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	l := logger.New(logger.Options{
		Level:     cfg.LogLevel,
		File:      cfg.LogFile,
		MaxSizeMB: cfg.LogMaxSizeMB,
	})
	l.Info("Starting WishlistBot...")

	// Context for graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		<-sigChan
		l.Info("Received shutdown signal...")
		cancel()
	}()

	// Storage
	store, err := openStorage(ctx, cfg, l)
	if err != nil {
		l.Fatalf("Failed to open storage: %v", err)
	}

	// Metrics
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	m := metrics.New(reg)

	// Core
	svc := service.New(l, store.users, store.wishlist)
	reservations := reservation.NewManager(store.wishlist, l, m)
	sessions := session.NewStore(l, m)
	engine := dialog.NewEngine(svc, reservations, sessions, l, m, cfg.CurrencyLabel)

	go sessions.StartJanitor(ctx, cfg.SessionSweepInterval, cfg.SessionIdleTimeout)

	apiServer := api.NewServer(svc, reservations, l, m, cfg.CORSOrigins)

	// Telegram bot
	var bot *telegram.Bot
	if cfg.BotDisabled {
		l.Warn("Telegram bot disabled, serving the HTTP API only")
	} else {
		bot, err = telegram.NewBot(cfg.TelegramToken, telegram.NewRouter(engine, l), l)
		if err != nil {
			l.Fatalf("Failed to create Telegram bot: %v", err)
		}

		if cfg.WebhookURL != "" {
			path := telegram.WebhookPath(cfg.TelegramToken)
			apiServer.Mount(path, bot.WebhookHandler(ctx))
			if err := bot.SetWebhook(strings.TrimRight(cfg.WebhookURL, "/") + path); err != nil {
				l.Fatalf("Failed to set webhook: %v", err)
			}
		} else {
			// Start Telegram bot polling
			go func() {
				if err := bot.Start(ctx); err != nil {
					l.Errorf("Bot error: %v", err)
					cancel()
				}
			}()
		}
	}

	httpServer := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           apiServer.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	metricsServer := &http.Server{
		Addr:              ":" + cfg.PrometheusPort,
		Handler:           metrics.Handler(reg),
		ReadHeaderTimeout: 10 * time.Second,
	}

	serve(l, "HTTP server", httpServer, cancel)
	serve(l, "Metrics server", metricsServer, cancel)

	l.Info("WishlistBot started successfully")

	<-ctx.Done()

	if err := shutdown(l, store, bot, httpServer, metricsServer); err != nil {
		l.WithError(err).Error("Shutdown finished with errors")
		os.Exit(1)
	}

	l.Info("WishlistBot stopped")
}

func serve(l *logrus.Logger, name string, srv *http.Server, cancel context.CancelFunc) {
	go func() {
		l.Infof("%s listening on %s", name, srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			l.Errorf("%s error: %v", name, err)
			cancel()
		}
	}()
}

// shutdown stops accepting traffic first, then drains queued updates and
// closes storage last.
func shutdown(l *logrus.Logger, store *storage, bot *telegram.Bot, servers ...*http.Server) error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	var result error

	l.Info("Shutting down HTTP servers...")
	for _, srv := range servers {
		if err := srv.Shutdown(ctx); err != nil {
			result = multierror.Append(result, err)
		}
	}

	if bot != nil {
		bot.Stop()
	}

	if err := store.close(); err != nil {
		result = multierror.Append(result, err)
	}
	return result
}
