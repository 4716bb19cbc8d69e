package main

import (
	"context"
	"log"
	"os/signal"
	"syscall"

	"golang.org/x/sync/errgroup"

	"github.com/nurlyy/guestbook/internal/app"
	"github.com/nurlyy/guestbook/pkg/config"
	applogger "github.com/nurlyy/guestbook/pkg/logger"
)

func main() {
	// Контекст отменяется по SIGINT/SIGTERM
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Загружаем конфигурацию
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	// Обновляем контекст приложения в конфигурации
	cfg.App.Context = ctx

	// Инициализируем логгер
	logger := applogger.New(cfg.App.LogBackend, cfg.App.LogLevel, cfg.App.IsProduction())
	logger.Info("Starting notifier service", map[string]interface{}{
		"admin_email": cfg.Notifier.AdminEmail,
		"dev_mode":    cfg.Notifier.DevMode,
	})

	// Инициализируем основное приложение
	application, err := app.NewApplication(ctx, cfg, logger)
	if err != nil {
		logger.Fatal("Failed to initialize application", err)
	}
	defer application.Close()

	notifier := application.NewNotifier()

	// Два потребителя: события комментариев и готовые уведомления
	comments := application.Consumer("comments", cfg.Kafka.Topics.Comments, notifier.HandleCommentEvent)
	notifications := application.Consumer("notifications", cfg.Kafka.Topics.Notifications, notifier.HandleNotification)

	g, gCtx := errgroup.WithContext(ctx)
	g.Go(func() error { return comments.Run(gCtx) })
	g.Go(func() error { return notifications.Run(gCtx) })

	if err := g.Wait(); err != nil {
		logger.Error("Notifier service stopped with error", err)
		return
	}

	logger.Info("Notifier service stopped")
}
