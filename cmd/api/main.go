package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/nurlyy/guestbook/internal/admin"
	"github.com/nurlyy/guestbook/internal/api"
	"github.com/nurlyy/guestbook/internal/api/middleware"
	"github.com/nurlyy/guestbook/internal/app"
	"github.com/nurlyy/guestbook/pkg/config"
	"github.com/nurlyy/guestbook/pkg/database"
	"github.com/nurlyy/guestbook/pkg/logger"
	"github.com/nurlyy/guestbook/pkg/tracing"
)

func main() {
	// Контекст отменяется по SIGINT/SIGTERM
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Загружаем конфигурацию
	cfg, err := config.Load()
	if err != nil {
		fmt.Printf("Failed to load config: %v\n", err)
		os.Exit(1)
	}
	cfg.App.Context = ctx

	// Инициализируем логгер
	log := logger.New(cfg.App.LogBackend, cfg.App.LogLevel, cfg.App.IsProduction())
	log.Info("Starting API server", map[string]interface{}{
		"app_name": cfg.App.Name,
		"env":      cfg.App.Environment,
	})

	shutdownTracing, err := tracing.Init(ctx, &cfg.Tracing, cfg.App.Environment)
	if err != nil {
		log.Fatal("Failed to initialize tracing", err)
	}

	// Инициализируем приложение
	application, err := app.NewApplication(ctx, cfg, log)
	if err != nil {
		log.Fatal("Failed to initialize application", err)
	}
	defer application.Close()

	// Проверяем подключение и версию схемы
	if err := database.FromDB(application.DB, log).CheckSchema(ctx); err != nil {
		log.Fatal("Database is not ready", err)
	}

	authMiddleware := middleware.NewAuthMiddleware(application.JWT, log)
	services := application.Services

	adminPanel, err := admin.NewHandler(admin.Config{
		Prefix:       strings.TrimSuffix(cfg.HTTP.BasePath, "/") + "/admin",
		Locale:       cfg.App.Locale,
		PageSize:     20,
		SecureCookie: cfg.App.IsProduction(),
	}, authMiddleware, services.Users, services.Conferences, services.Comments, log)
	if err != nil {
		log.Fatal("Failed to initialize admin panel", err)
	}

	server := api.NewServer(cfg, log, application.JWT, application.Validator, &api.Services{
		CommentService:      services.Comments,
		ConferenceService:   services.Conferences,
		UserService:         services.Users,
		NotificationService: services.Notifications,
	}, api.Options{
		Redis:   application.Redis.Client,
		Metrics: application.Metrics,
		Admin:   adminPanel,
	})

	g, gCtx := errgroup.WithContext(ctx)

	g.Go(server.Start)

	// Отдельный порт для Prometheus, если он включен
	var metricsServer *http.Server
	if cfg.Monitoring.PrometheusEnabled {
		metricsServer = &http.Server{
			Addr:              ":" + cfg.Monitoring.PrometheusPort,
			Handler:           application.Metrics.Handler(),
			ReadHeaderTimeout: 5 * time.Second,
		}
		g.Go(func() error {
			log.Info("Starting metrics server", map[string]interface{}{"port": cfg.Monitoring.PrometheusPort})
			if err := metricsServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return err
			}
			return nil
		})
	}

	g.Go(func() error {
		<-gCtx.Done()
		log.Info("Shutting down server...")

		// Создаем контекст с таймаутом для graceful shutdown
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.HTTP.ShutdownTimeout)
		defer cancel()

		if metricsServer != nil {
			if err := metricsServer.Shutdown(shutdownCtx); err != nil {
				log.Error("Metrics server shutdown error", err)
			}
		}
		if err := shutdownTracing(shutdownCtx); err != nil {
			log.Error("Tracing shutdown error", err)
		}
		return server.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		log.Error("Server stopped with error", err)
		return
	}

	log.Info("Server gracefully stopped")
}
