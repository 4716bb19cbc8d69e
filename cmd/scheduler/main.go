package main

import (
	"context"
	"log"
	"os/signal"
	"syscall"
	"time"

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
	logger.Info("Starting scheduler service", map[string]interface{}{
		"daily_digest":  cfg.Scheduler.DailyDigestCron,
		"stats_refresh": cfg.Scheduler.StatsRefreshCron,
	})

	// Инициализируем основное приложение
	application, err := app.NewApplication(ctx, cfg, logger)
	if err != nil {
		logger.Fatal("Failed to initialize application", err)
	}
	defer application.Close()

	// Запускаем планировщик; он останавливается при отмене ctx
	scheduler := application.NewScheduler()
	if err := scheduler.Start(ctx); err != nil {
		logger.Fatal("Failed to start scheduler service", err)
	}

	<-ctx.Done()
	logger.Info("Shutting down scheduler service")

	// Ждем завершения выполняющихся задач, но не дольше таймаута
	select {
	case <-scheduler.Stopped():
	case <-time.After(cfg.Scheduler.LockTTL):
		logger.Warn("Scheduler jobs did not finish in time")
	}
	logger.Info("Scheduler service stopped")
}
