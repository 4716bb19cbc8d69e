package app

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/nurlyy/guestbook/internal/messaging"
	"github.com/nurlyy/guestbook/internal/repository/cache"
	"github.com/nurlyy/guestbook/internal/repository/postgres"
	"github.com/nurlyy/guestbook/internal/service"
	"github.com/nurlyy/guestbook/pkg/auth"
	redisClient "github.com/nurlyy/guestbook/pkg/cache"
	"github.com/nurlyy/guestbook/pkg/config"
	"github.com/nurlyy/guestbook/pkg/database"
	"github.com/nurlyy/guestbook/pkg/logger"
	kafkaClient "github.com/nurlyy/guestbook/pkg/messaging"
	"github.com/nurlyy/guestbook/pkg/metrics"
	"github.com/nurlyy/guestbook/pkg/validator"
)

// Repositories содержит все репозитории для работы с хранилищами данных
type Repositories struct {
	UserRepository         *postgres.UserRepository
	ConferenceRepository   *postgres.ConferenceRepository
	CommentRepository      *postgres.CommentRepository
	NotificationRepository *postgres.NotificationRepository
	CacheRepository        *cache.RedisRepository
}

// Messaging содержит все клиенты для работы с сообщениями
type Messaging struct {
	// Producer - общий writer Kafka
	Producer *kafkaClient.KafkaProducer
	// Events публикует доменные события через Producer
	Events *messaging.KafkaProducer
}

// Services содержит бизнес-логику, общую для всех процессов
type Services struct {
	Comments      *service.CommentService
	Conferences   *service.ConferenceService
	Users         *service.UserService
	Notifications *service.NotificationService
}

// Application содержит все компоненты приложения
type Application struct {
	Config       *config.Config
	DB           *sqlx.DB
	Redis        *redisClient.Redis
	Logger       logger.Logger
	Metrics      *metrics.Metrics
	JWT          *auth.JWTManager
	Validator    *validator.CustomValidator
	Repositories *Repositories
	Messaging    *Messaging
	Services     *Services

	consumers []*kafkaClient.KafkaConsumer
}

// NewApplication создает новое приложение с инициализированными компонентами
func NewApplication(ctx context.Context, cfg *config.Config, log logger.Logger) (*Application, error) {
	// Инициализация базы данных PostgreSQL
	postgresDB, err := initPostgres(ctx, &cfg.Database, log)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize PostgreSQL: %w", err)
	}

	// Инициализация Redis
	redisCache, err := initRedis(ctx, &cfg.Redis, log)
	if err != nil {
		_ = postgresDB.Close()
		return nil, fmt.Errorf("failed to initialize Redis: %w", err)
	}

	app := &Application{
		Config:    cfg,
		DB:        postgresDB,
		Redis:     redisCache,
		Logger:    log,
		Metrics:   metrics.New(metricsNamespace(cfg.App.Name)),
		JWT:       auth.NewJWTManager(&cfg.JWT),
		Validator: validator.NewValidator(),
	}

	app.Repositories = initRepositories(postgresDB, redisCache, log, cfg)
	app.Messaging = initMessaging(cfg, log)
	app.Services = app.initServices()

	return app, nil
}

// Consumer создает читателя топика и обработчик сообщений поверх него.
// Читатель закрывается в Close.
func (app *Application) Consumer(name, topic string, handler messaging.HandlerFunc) *messaging.Consumer {
	reader := kafkaClient.NewKafkaConsumer(topic, app.Config.Kafka.GroupID, &app.Config.Kafka, app.Logger)
	app.consumers = append(app.consumers, reader)
	return messaging.NewConsumer(name, reader, handler, app.Logger)
}

// Close закрывает все соединения с внешними сервисами
func (app *Application) Close() {
	for _, consumer := range app.consumers {
		if err := consumer.Close(); err != nil {
			app.Logger.Error("Error closing Kafka consumer", err)
		}
	}

	if app.Messaging != nil && app.Messaging.Producer != nil {
		if err := app.Messaging.Producer.Close(); err != nil {
			app.Logger.Error("Error closing Kafka producer", err)
		}
	}

	if app.Redis != nil {
		if err := app.Redis.Close(); err != nil {
			app.Logger.Error("Error closing Redis connection", err)
		}
	}

	if app.DB != nil {
		if err := app.DB.Close(); err != nil {
			app.Logger.Error("Error closing PostgreSQL connection", err)
		}
	}
}

// Инициализация PostgreSQL
func initPostgres(ctx context.Context, cfg *config.DatabaseConfig, log logger.Logger) (*sqlx.DB, error) {
	postgres, err := database.NewPostgres(ctx, cfg, log)
	if err != nil {
		return nil, err
	}
	return postgres.DB, nil
}

// Инициализация Redis
func initRedis(ctx context.Context, cfg *config.RedisConfig, log logger.Logger) (*redisClient.Redis, error) {
	redis, err := redisClient.NewRedis(ctx, cfg, log)
	if err != nil {
		return nil, err
	}
	return redis, nil
}

// Инициализация репозиториев
func initRepositories(db *sqlx.DB, redis *redisClient.Redis, log logger.Logger, cfg *config.Config) *Repositories {
	return &Repositories{
		UserRepository:         postgres.NewUserRepository(db, log),
		ConferenceRepository:   postgres.NewConferenceRepository(db, log),
		CommentRepository:      postgres.NewCommentRepository(db, log),
		NotificationRepository: postgres.NewNotificationRepository(db, log),
		CacheRepository:        cache.NewRedisRepository(redis, log, cfg.Redis.DefaultTTL),
	}
}

// Инициализация Kafka
func initMessaging(cfg *config.Config, log logger.Logger) *Messaging {
	producer := kafkaClient.NewKafkaProducer(&cfg.Kafka, log)

	return &Messaging{
		Producer: producer,
		Events:   messaging.NewKafkaProducer(producer, cfg.Kafka.Topics, log),
	}
}

func (app *Application) initServices() *Services {
	repos := app.Repositories

	return &Services{
		Comments: service.NewCommentService(
			repos.CommentRepository,
			repos.ConferenceRepository,
			repos.CacheRepository,
			app.Messaging.Events,
			app.Validator,
			app.Metrics,
			app.Logger,
		),
		Conferences: service.NewConferenceService(
			repos.ConferenceRepository,
			repos.CommentRepository,
			repos.CacheRepository,
			app.Validator,
			app.Metrics,
			app.Logger,
		),
		Users:         service.NewUserService(repos.UserRepository, app.JWT, app.Validator, app.Logger),
		Notifications: service.NewNotificationService(repos.NotificationRepository, app.Logger),
	}
}

// NewNotifier собирает сервис уведомлений администратору
func (app *Application) NewNotifier() *service.NotifierService {
	return service.NewNotifierService(
		app.Repositories.NotificationRepository,
		service.NewSMTPMailer(app.Config.Notifier.SMTP),
		app.Metrics,
		&app.Config.Notifier,
		app.Config.App.Locale,
		app.Logger,
	)
}

// NewScheduler собирает планировщик фоновых задач
func (app *Application) NewScheduler() *service.SchedulerService {
	return service.NewSchedulerService(
		app.Repositories.CommentRepository,
		app.Repositories.ConferenceRepository,
		app.Repositories.CacheRepository,
		app.Messaging.Events,
		app.Metrics,
		&app.Config.Scheduler,
		app.Logger,
	)
}

// metricsNamespace приводит имя приложения к допустимому имени Prometheus
func metricsNamespace(name string) string {
	out := make([]byte, 0, len(name))
	for i := 0; i < len(name); i++ {
		c := name[i]
		switch {
		case c >= 'a' && c <= 'z', c >= 'A' && c <= 'Z', c == '_':
			out = append(out, c)
		case c >= '0' && c <= '9' && len(out) > 0:
			out = append(out, c)
		default:
			out = append(out, '_')
		}
	}
	if len(out) == 0 {
		return "guestbook"
	}
	return string(out)
}
