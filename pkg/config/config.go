package config

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config содержит все конфигурационные параметры приложения
type Config struct {
	App        AppConfig
	HTTP       HTTPConfig
	API        APIConfig
	Database   DatabaseConfig
	Redis      RedisConfig
	Kafka      KafkaConfig
	JWT        JWTConfig
	Scheduler  SchedulerConfig
	Notifier   NotifierConfig
	Monitoring MonitoringConfig
	Tracing    TracingConfig
}

// AppConfig содержит общие настройки приложения
type AppConfig struct {
	Name        string
	Context     context.Context
	Environment string
	LogLevel    string
	LogBackend  string
	Locale      string
	Debug       bool
}

// HTTPConfig содержит настройки HTTP-сервера
type HTTPConfig struct {
	Port            string
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	ShutdownTimeout time.Duration
	BasePath        string
}

// APIConfig содержит настройки ресурсов API
type APIConfig struct {
	CommentsPerPage    int
	ConferencesPerPage int
	RateLimit          int
	RateLimitPeriod    int
}

// DatabaseConfig содержит настройки подключения к базе данных
type DatabaseConfig struct {
	Host         string
	Port         string
	Username     string
	Password     string
	Database     string
	SSLMode      string
	MaxOpenConns int
	MaxIdleConns int
	ConnMaxLife  time.Duration
}

// RedisConfig содержит настройки подключения к Redis
type RedisConfig struct {
	Host       string
	Port       string
	Password   string
	DB         int
	DefaultTTL time.Duration
}

// KafkaConfig содержит настройки для работы с Kafka
type KafkaConfig struct {
	Brokers []string
	GroupID string
	Topics  KafkaTopics
}

// KafkaTopics содержит названия топиков Kafka
type KafkaTopics struct {
	Comments      string
	Notifications string
}

// JWTConfig содержит настройки JWT-аутентификации
type JWTConfig struct {
	Secret           string
	AccessExpiresIn  time.Duration
	RefreshExpiresIn time.Duration
	Issuer           string
}

// SchedulerConfig содержит настройки для планировщика задач
type SchedulerConfig struct {
	DailyDigestCron  string
	StatsRefreshCron string
	LockTTL          time.Duration
}

// NotifierConfig содержит настройки для сервиса уведомлений
type NotifierConfig struct {
	SMTP       SMTPConfig
	AdminEmail string
	DevMode    bool
}

// SMTPConfig содержит настройки SMTP-сервера для отправки email
type SMTPConfig struct {
	Host     string
	Port     string
	Username string
	Password string
	From     string
}

// MonitoringConfig содержит настройки мониторинга
type MonitoringConfig struct {
	PrometheusEnabled bool
	PrometheusPort    string
}

// TracingConfig содержит настройки трассировки OpenTelemetry
type TracingConfig struct {
	Enabled     bool
	Endpoint    string
	ServiceName string
	SampleRatio float64
}

// Load загружает конфигурацию из переменных окружения
func Load() (*Config, error) {
	// Загружаем .env файл, если он существует
	_ = godotenv.Load()

	config := &Config{
		App: AppConfig{
			Name:        getEnv("APP_NAME", "guestbook"),
			Environment: getEnv("APP_ENV", "development"),
			LogLevel:    getEnv("LOG_LEVEL", "info"),
			LogBackend:  getEnv("LOG_BACKEND", "zerolog"),
			Locale:      getEnv("APP_LOCALE", "fr"),
			Debug:       getEnvAsBool("APP_DEBUG", true),
		},
		HTTP: HTTPConfig{
			Port:            getEnv("HTTP_PORT", "8080"),
			ReadTimeout:     getEnvAsDuration("HTTP_READ_TIMEOUT", 10*time.Second),
			WriteTimeout:    getEnvAsDuration("HTTP_WRITE_TIMEOUT", 20*time.Second),
			ShutdownTimeout: getEnvAsDuration("HTTP_SHUTDOWN_TIMEOUT", 5*time.Second),
			BasePath:        getEnv("HTTP_BASE_PATH", ""),
		},
		API: APIConfig{
			CommentsPerPage:    getEnvAsInt("API_COMMENTS_PER_PAGE", 2),
			ConferencesPerPage: getEnvAsInt("API_CONFERENCES_PER_PAGE", 30),
			RateLimit:          getEnvAsInt("API_RATE_LIMIT", 100),
			RateLimitPeriod:    getEnvAsInt("API_RATE_LIMIT_PERIOD", 60),
		},
		Database: DatabaseConfig{
			Host:         getEnv("DB_HOST", "localhost"),
			Port:         getEnv("DB_PORT", "5432"),
			Username:     getEnv("DB_USER", "guestbook"),
			Password:     getEnv("DB_PASSWORD", "guestbook"),
			Database:     getEnv("DB_NAME", "guestbook"),
			SSLMode:      getEnv("DB_SSLMODE", "disable"),
			MaxOpenConns: getEnvAsInt("DB_MAX_OPEN_CONNS", 25),
			MaxIdleConns: getEnvAsInt("DB_MAX_IDLE_CONNS", 10),
			ConnMaxLife:  getEnvAsDuration("DB_CONN_MAX_LIFETIME", 5*time.Minute),
		},
		Redis: RedisConfig{
			Host:       getEnv("REDIS_HOST", "localhost"),
			Port:       getEnv("REDIS_PORT", "6379"),
			Password:   getEnv("REDIS_PASSWORD", ""),
			DB:         getEnvAsInt("REDIS_DB", 0),
			DefaultTTL: getEnvAsDuration("REDIS_DEFAULT_TTL", time.Hour),
		},
		Kafka: KafkaConfig{
			Brokers: strings.Split(getEnv("KAFKA_BROKERS", "localhost:9092"), ","),
			GroupID: getEnv("KAFKA_GROUP_ID", "guestbook-notifier"),
			Topics: KafkaTopics{
				Comments:      getEnv("KAFKA_TOPIC_COMMENTS", "comments"),
				Notifications: getEnv("KAFKA_TOPIC_NOTIFICATIONS", "notifications"),
			},
		},
		JWT: JWTConfig{
			Secret:           getEnv("JWT_SECRET", "your-secret-key-change-in-production"),
			AccessExpiresIn:  getEnvAsDuration("JWT_ACCESS_EXPIRES_IN", 15*time.Minute),
			RefreshExpiresIn: getEnvAsDuration("JWT_REFRESH_EXPIRES_IN", 7*24*time.Hour),
			Issuer:           getEnv("JWT_ISSUER", "guestbook"),
		},
		Scheduler: SchedulerConfig{
			DailyDigestCron:  getEnv("SCHEDULER_DAILY_DIGEST_CRON", "0 0 8 * * *"),
			StatsRefreshCron: getEnv("SCHEDULER_STATS_REFRESH_CRON", "0 0 * * * *"),
			LockTTL:          getEnvAsDuration("SCHEDULER_LOCK_TTL", 5*time.Minute),
		},
		Notifier: NotifierConfig{
			SMTP: SMTPConfig{
				Host:     getEnv("SMTP_HOST", "localhost"),
				Port:     getEnv("SMTP_PORT", "1025"),
				Username: getEnv("SMTP_USER", ""),
				Password: getEnv("SMTP_PASSWORD", ""),
				From:     getEnv("SMTP_FROM", "noreply@guestbook.local"),
			},
			AdminEmail: getEnv("ADMIN_EMAIL", "admin@guestbook.local"),
			DevMode:    getEnvAsBool("NOTIFIER_DEV_MODE", true),
		},
		Monitoring: MonitoringConfig{
			PrometheusEnabled: getEnvAsBool("PROMETHEUS_ENABLED", false),
			PrometheusPort:    getEnv("PROMETHEUS_PORT", "9090"),
		},
		Tracing: TracingConfig{
			Enabled:     getEnvAsBool("TRACING_ENABLED", false),
			Endpoint:    getEnv("OTEL_EXPORTER_OTLP_ENDPOINT", "localhost:4318"),
			ServiceName: getEnv("OTEL_SERVICE_NAME", "guestbook-api"),
			SampleRatio: getEnvAsFloat("OTEL_TRACES_SAMPLER_ARG", 1.0),
		},
	}

	if config.API.CommentsPerPage <= 0 {
		return nil, fmt.Errorf("API_COMMENTS_PER_PAGE must be positive, got %d", config.API.CommentsPerPage)
	}
	if config.API.RateLimitPeriod <= 0 {
		return nil, fmt.Errorf("API_RATE_LIMIT_PERIOD must be positive, got %d", config.API.RateLimitPeriod)
	}
	if config.API.ConferencesPerPage <= 0 {
		return nil, fmt.Errorf("API_CONFERENCES_PER_PAGE must be positive, got %d", config.API.ConferencesPerPage)
	}

	return config, nil
}

// IsProduction сообщает, запущено ли приложение в продакшене
func (c *AppConfig) IsProduction() bool {
	return c.Environment == "production"
}

// DSN возвращает строку подключения к PostgreSQL
func (c *DatabaseConfig) DSN() string {
	return fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.Username, c.Password, c.Database, c.SSLMode)
}

// RedisAddr возвращает адрес подключения к Redis
func (c *RedisConfig) RedisAddr() string {
	return fmt.Sprintf("%s:%s", c.Host, c.Port)
}

// Утилитарные функции для получения переменных окружения

func getEnv(key, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	valueStr := getEnv(key, "")
	if value, err := strconv.Atoi(valueStr); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	valueStr := getEnv(key, "")
	if value, err := strconv.ParseBool(valueStr); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsFloat(key string, defaultValue float64) float64 {
	valueStr := getEnv(key, "")
	if value, err := strconv.ParseFloat(valueStr, 64); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	valueStr := getEnv(key, "")
	if value, err := time.ParseDuration(valueStr); err == nil {
		return value
	}
	return defaultValue
}
