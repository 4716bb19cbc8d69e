package database

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/nurlyy/guestbook/pkg/logger"
)

// migrations - упорядоченный список миграций схемы; номер версии = индекс + 1.
// Уже примененные миграции не изменяются, новые добавляются в конец.
var migrations = []string{
	`CREATE TABLE IF NOT EXISTS conferences (
		id               BIGSERIAL PRIMARY KEY,
		city             VARCHAR(255) NOT NULL,
		year             VARCHAR(4)   NOT NULL,
		is_international BOOLEAN      NOT NULL DEFAULT FALSE,
		created_at       TIMESTAMPTZ  NOT NULL DEFAULT NOW()
	)`,
	`CREATE TABLE IF NOT EXISTS comments (
		id            BIGSERIAL PRIMARY KEY,
		author        VARCHAR(255) NOT NULL,
		text          TEXT         NOT NULL,
		email         VARCHAR(255) NOT NULL,
		created_at    TIMESTAMPTZ  NOT NULL,
		note          SMALLINT     CHECK (note IS NULL OR (note >= 1 AND note <= 5)),
		conference_id BIGINT       REFERENCES conferences(id) ON DELETE SET NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_comments_conference_id ON comments (conference_id)`,
	`CREATE INDEX IF NOT EXISTS idx_comments_created_at ON comments (created_at)`,
	`CREATE TABLE IF NOT EXISTS users (
		id            BIGSERIAL PRIMARY KEY,
		email         VARCHAR(255) NOT NULL UNIQUE,
		password_hash VARCHAR(255) NOT NULL,
		role          VARCHAR(32)  NOT NULL DEFAULT 'ROLE_USER',
		created_at    TIMESTAMPTZ  NOT NULL DEFAULT NOW()
	)`,
	`CREATE TABLE IF NOT EXISTS notifications (
		id          BIGSERIAL PRIMARY KEY,
		type        VARCHAR(32)  NOT NULL,
		recipient   VARCHAR(255) NOT NULL,
		subject     VARCHAR(255) NOT NULL,
		body        TEXT         NOT NULL,
		status      VARCHAR(16)  NOT NULL,
		entity_id   BIGINT,
		entity_type VARCHAR(32)  NOT NULL,
		error       TEXT,
		created_at  TIMESTAMPTZ  NOT NULL DEFAULT NOW()
	)`,
}

// Migrate применяет недостающие миграции; каждая выполняется в своей транзакции
func Migrate(ctx context.Context, db *sqlx.DB, log logger.Logger) (int, error) {
	if _, err := db.ExecContext(ctx, `CREATE TABLE IF NOT EXISTS schema_migrations (
		version    INTEGER PRIMARY KEY,
		applied_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`); err != nil {
		return 0, fmt.Errorf("failed to create schema_migrations: %w", err)
	}

	var current int
	if err := db.GetContext(ctx, &current, `SELECT COALESCE(MAX(version), 0) FROM schema_migrations`); err != nil {
		return 0, fmt.Errorf("failed to read schema version: %w", err)
	}

	applied := 0
	for i := current; i < len(migrations); i++ {
		version := i + 1
		stmt := migrations[i]

		err := ExecTx(ctx, db, func(tx *sqlx.Tx) error {
			if _, err := tx.ExecContext(ctx, stmt); err != nil {
				return err
			}
			_, err := tx.ExecContext(ctx, `INSERT INTO schema_migrations (version) VALUES ($1)`, version)
			return err
		})
		if err != nil {
			return applied, fmt.Errorf("migration %d: %w", version, err)
		}

		log.Info("Applied migration", map[string]interface{}{
			"version": version,
		})
		applied++
	}

	return applied, nil
}

// SchemaVersion возвращает последнюю версию схемы, известную приложению
func SchemaVersion() int {
	return len(migrations)
}
