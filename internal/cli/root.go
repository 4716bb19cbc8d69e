// Package cli описывает команды guestbookctl: миграции схемы и управление пользователями.
package cli

import (
	"context"
	"io"
	"os"

	"github.com/jmoiron/sqlx"
	"github.com/spf13/cobra"

	"github.com/nurlyy/guestbook/pkg/config"
	"github.com/nurlyy/guestbook/pkg/database"
	"github.com/nurlyy/guestbook/pkg/logger"
)

// Env - окружение команд; в тестах подменяется OpenDB
type Env struct {
	Config *config.Config
	Logger logger.Logger
	OpenDB func(ctx context.Context) (*sqlx.DB, error)
	Out    io.Writer
}

// NewEnv загружает конфигурацию и подключается к PostgreSQL по требованию
func NewEnv() (*Env, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}

	log := logger.New(cfg.App.LogBackend, cfg.App.LogLevel, cfg.App.IsProduction())

	return &Env{
		Config: cfg,
		Logger: log,
		OpenDB: func(ctx context.Context) (*sqlx.DB, error) {
			pg, err := database.NewPostgres(ctx, &cfg.Database, log)
			if err != nil {
				return nil, err
			}
			return pg.DB, nil
		},
		Out: os.Stdout,
	}, nil
}

// NewRootCmd создает корневую команду guestbookctl
func NewRootCmd(env *Env) *cobra.Command {
	root := &cobra.Command{
		Use:           "guestbookctl",
		Short:         "Administer the conference guestbook",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.AddCommand(
		newMigrateCmd(env),
		newUserCmd(env),
	)

	return root
}

func (e *Env) closeDB(db *sqlx.DB) {
	if err := db.Close(); err != nil {
		e.Logger.Error("Error closing PostgreSQL connection", err)
	}
}
