package main

import (
	"CategorizerBot/internal/bot"
	"CategorizerBot/internal/categorizer"
	"CategorizerBot/internal/config"
	"CategorizerBot/internal/database"
	"CategorizerBot/internal/logger"
	"CategorizerBot/internal/mirror"
	"CategorizerBot/internal/ratelimit"
	"CategorizerBot/internal/scheduler"
	"CategorizerBot/internal/storage"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

const shutdownTimeout = 5 * time.Second

func main() {
	if err := run(); err != nil {
		slog.Error("Bot stopped", "error", err)
		os.Exit(1)
	}
}

func run() error {
	envPath, envErr := config.LoadEnv()

	cfg, err := config.Load()
	if err != nil {
		return err
	}

	level := logger.ParseLevel(cfg.Log.Level)
	log := logger.New(logger.Config{
		Format:      cfg.Log.Format,
		Environment: cfg.Environment,
		Level:       level,
	})
	slog.SetDefault(log)

	if envErr != nil {
		log.Warn("Continuing with system environment variables", "reason", envErr)
	} else {
		log.Info("Loaded .env", "path", envPath)
	}
	log.Info("Starting bot", "config", cfg)

	db, err := database.Open(cfg.Database, log, level)
	if err != nil {
		return err
	}
	if err := database.Migrate(db); err != nil {
		return err
	}
	store := database.NewStore(db)
	defer store.Close()

	sessions, err := storage.NewMemoryStorage(
		storage.WithTTL(cfg.Sessions.TTL),
		storage.WithCapacity(cfg.Sessions.Capacity),
	)
	if err != nil {
		return fmt.Errorf("create session storage: %w", err)
	}

	api, err := tgbotapi.NewBotAPI(cfg.Bot.Token)
	if err != nil {
		return fmt.Errorf("connect to telegram: %w", err)
	}
	log.Info("Authorized on account", "username", api.Self.UserName)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	limiter := ratelimit.New(cfg.Mirror.Rate, cfg.Mirror.Burst)
	defer limiter.Stop()

	msgHandler := bot.NewMessageHandler(api, log)
	archive := mirror.New(msgHandler, store, log,
		mirror.WithLimiter(limiter),
		mirror.WithTimeout(cfg.Mirror.Timeout),
	)
	coordinator := categorizer.NewCoordinator(store, sessions, archive, log)
	updateHandler := bot.NewUpdateHandler(msgHandler, store, coordinator, log, cfg.WorkerLimit)

	sweeper := scheduler.NewScheduler(sessions, cfg.Sessions.SweepInterval, log)
	sweeper.Start(ctx)

	updates, shutdown, err := listen(api, cfg.Bot, log)
	if err != nil {
		return err
	}

	err = updateHandler.HandleUpdates(ctx, updates)

	log.Info("Shutting down ...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if shutdownErr := shutdown(shutdownCtx); shutdownErr != nil {
		log.Warn("Shutdown error", "error", shutdownErr)
	}

	sweeper.Wait()
	archive.Wait()
	log.Info("Bot gracefully stopped")

	return err
}

// listen получает обновления через вебхук, если задан URL, иначе long polling.
func listen(api *tgbotapi.BotAPI, cfg config.BotConfig, log *slog.Logger) (tgbotapi.UpdatesChannel, func(context.Context) error, error) {
	if cfg.WebhookURL == "" {
		if _, err := api.Request(tgbotapi.DeleteWebhookConfig{}); err != nil {
			log.Warn("Could not delete webhook", "error", err)
		}

		u := tgbotapi.NewUpdate(0)
		u.Timeout = 60
		updates := api.GetUpdatesChan(u)
		log.Info("Polling for updates")

		return updates, func(context.Context) error {
			api.StopReceivingUpdates()
			return nil
		}, nil
	}

	webhook, err := tgbotapi.NewWebhook(cfg.WebhookURL)
	if err != nil {
		return nil, nil, fmt.Errorf("webhook config: %w", err)
	}
	if _, err := api.Request(webhook); err != nil {
		return nil, nil, fmt.Errorf("set webhook: %w", err)
	}

	info, err := api.GetWebhookInfo()
	if err != nil {
		return nil, nil, fmt.Errorf("webhook info: %w", err)
	}
	if info.LastErrorDate != 0 {
		log.Warn("Telegram webhook error", "message", info.LastErrorMessage)
	}

	updates := api.ListenForWebhook("/")
	server := &http.Server{
		Addr:              ":" + cfg.HTTPPort,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		log.Info("Listening for webhook", "port", cfg.HTTPPort)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("Server error", "error", err)
		}
	}()

	return updates, server.Shutdown, nil
}
