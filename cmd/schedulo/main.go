package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/Kerhoff/Schedulo/internal/api"
	"github.com/Kerhoff/Schedulo/internal/config"
	"github.com/Kerhoff/Schedulo/internal/notify"
	"github.com/Kerhoff/Schedulo/internal/provider/sqlstore"
	"github.com/Kerhoff/Schedulo/internal/repository"
	"github.com/Kerhoff/Schedulo/internal/scheduler"
	"github.com/Kerhoff/Schedulo/internal/service"
	"github.com/Kerhoff/Schedulo/pkg/logger"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	l := logger.New(cfg.LogLevel)
	l.Info("Starting Schedulo...")

	loc, err := cfg.Location()
	if err != nil {
		l.Fatalf("Failed to resolve timezone: %v", err)
	}

	// Calendar store
	store, err := sqlstore.Open(cfg.DatabaseURL, l)
	if err != nil {
		l.Fatalf("Failed to open calendar store: %v", err)
	}
	defer store.Close()

	// Run migrations (postgres only; sqlite bootstraps itself)
	if err := store.Migrate(cfg.MigrationsPath); err != nil {
		l.Fatalf("Failed to run migrations: %v", err)
	}

	// Repository with its single background worker
	repo := repository.New(store, loc, l)
	defer repo.Close()

	// Notification channel: Telegram when configured, log otherwise
	var notifier notify.Notifier = notify.NewLog(l)
	if cfg.TelegramToken != "" {
		tg, err := notify.NewTelegram(cfg.TelegramToken, cfg.TelegramChatID, l)
		if err != nil {
			l.Fatalf("Failed to create Telegram notifier: %v", err)
		}
		notifier = tg
	}

	sched := scheduler.New(repo, notifier, loc, cfg.ReminderSyncSpec, l)
	svc := service.New(repo, sched, loc, l)

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

	// Start reminder scheduler
	go func() {
		if err := sched.Start(ctx); err != nil {
			l.Errorf("Reminder scheduler error: %v", err)
		}
	}()

	// Start HTTP server
	apiServer := api.NewServer(svc, l)
	httpServer := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: apiServer.Handler(),
	}

	go func() {
		l.Infof("HTTP server listening on :%s", cfg.Port)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			l.Errorf("HTTP server error: %v", err)
		}
	}()

	l.Info("Schedulo started successfully")

	<-ctx.Done()

	l.Info("Shutting down HTTP server...")
	httpServer.Close()

	l.Info("Schedulo stopped")
}
