package database

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/nurlyy/guestbook/pkg/config"
	"github.com/nurlyy/guestbook/pkg/logger"
)

// undefinedTable - код ошибки PostgreSQL для отсутствующей таблицы
const undefinedTable = "42P01"

// ErrSchemaOutdated возвращается, если база отстает от миграций гостевой книги
var ErrSchemaOutdated = errors.New("database schema is outdated, run guestbookctl migrate")

// Postgres представляет клиент для работы с PostgreSQL
type Postgres struct {
	DB     *sqlx.DB
	Config *config.DatabaseConfig
	Logger logger.Logger
}

// NewPostgres создает новое подключение к PostgreSQL
func NewPostgres(ctx context.Context, cfg *config.DatabaseConfig, log logger.Logger) (*Postgres, error) {
	log.Info("Connecting to PostgreSQL", map[string]interface{}{
		"host": cfg.Host,
		"port": cfg.Port,
		"user": cfg.Username,
		"db":   cfg.Database,
	})

	db, err := sqlx.ConnectContext(ctx, "postgres", cfg.DSN())
	if err != nil {
		return nil, fmt.Errorf("failed to connect to PostgreSQL: %w", err)
	}

	// Настройка пула соединений
	db.SetMaxOpenConns(cfg.MaxOpenConns)
	db.SetMaxIdleConns(cfg.MaxIdleConns)
	db.SetConnMaxLifetime(cfg.ConnMaxLife)

	log.Info("Successfully connected to PostgreSQL")

	return &Postgres{
		DB:     db,
		Config: cfg,
		Logger: log,
	}, nil
}

// FromDB оборачивает уже открытое подключение
func FromDB(db *sqlx.DB, log logger.Logger) *Postgres {
	return &Postgres{DB: db, Logger: log}
}

// Close закрывает соединение с базой данных
func (p *Postgres) Close() error {
	p.Logger.Info("Closing PostgreSQL connection")
	return p.DB.Close()
}

// Ping проверяет соединение с базой данных
func (p *Postgres) Ping(ctx context.Context) error {
	start := time.Now()
	err := p.DB.PingContext(ctx)
	elapsed := time.Since(start)

	if err != nil {
		p.Logger.Error("Failed to ping PostgreSQL", err, map[string]interface{}{
			"elapsed": elapsed.String(),
		})
		return fmt.Errorf("failed to ping PostgreSQL: %w", err)
	}

	p.Logger.Debug("PostgreSQL ping successful", map[string]interface{}{
		"elapsed": elapsed.String(),
	})
	return nil
}

// Migrate доводит схему гостевой книги до последней версии
func (p *Postgres) Migrate(ctx context.Context) (int, error) {
	applied, err := Migrate(ctx, p.DB, p.Logger)
	if err != nil {
		return applied, err
	}

	p.Logger.Info("Guestbook schema is up to date", map[string]interface{}{
		"applied": applied,
		"version": SchemaVersion(),
	})
	return applied, nil
}

// Version возвращает примененную версию схемы; 0, если миграций еще не было
func (p *Postgres) Version(ctx context.Context) (int, error) {
	var version int
	err := p.DB.GetContext(ctx, &version, `SELECT COALESCE(MAX(version), 0) FROM schema_migrations`)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == undefinedTable {
			return 0, nil
		}
		return 0, fmt.Errorf("failed to read schema version: %w", err)
	}
	return version, nil
}

// CheckSchema проверяет соединение и то, что схема не отстает от миграций
func (p *Postgres) CheckSchema(ctx context.Context) error {
	if err := p.Ping(ctx); err != nil {
		return err
	}

	version, err := p.Version(ctx)
	if err != nil {
		return err
	}
	if version < SchemaVersion() {
		return fmt.Errorf("%w: version %d, want %d", ErrSchemaOutdated, version, SchemaVersion())
	}
	return nil
}

// ExecTx выполняет функцию внутри транзакции
func ExecTx(ctx context.Context, db *sqlx.DB, fn func(*sqlx.Tx) error) (err error) {
	tx, err := db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}

	defer func() {
		if err != nil {
			if rbErr := tx.Rollback(); rbErr != nil {
				err = fmt.Errorf("%w (rollback failed: %v)", err, rbErr)
			}
			return
		}
		err = tx.Commit()
	}()

	return fn(tx)
}
