package cli

import (
	"bytes"
	"context"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nurlyy/guestbook/internal/domain"
	"github.com/nurlyy/guestbook/pkg/config"
	"github.com/nurlyy/guestbook/pkg/database"
	"github.com/nurlyy/guestbook/pkg/logger"
)

func newTestEnv(t *testing.T) (*Env, sqlmock.Sqlmock, *bytes.Buffer, *int) {
	t.Helper()

	sqlDB, mock, err := sqlmock.New()
	require.NoError(t, err)

	opened := 0
	out := &bytes.Buffer{}
	env := &Env{
		Config: &config.Config{JWT: config.JWTConfig{Secret: "cli", AccessExpiresIn: time.Minute, RefreshExpiresIn: time.Hour}},
		Logger: logger.NewNopLogger(),
		OpenDB: func(context.Context) (*sqlx.DB, error) {
			opened++
			return sqlx.NewDb(sqlDB, "sqlmock"), nil
		},
		Out: out,
	}
	return env, mock, out, &opened
}

func run(env *Env, args ...string) error {
	root := NewRootCmd(env)
	root.SetArgs(args)
	root.SetOut(&bytes.Buffer{})
	root.SetErr(&bytes.Buffer{})
	return root.Execute()
}

func TestMigrateUpToDate(t *testing.T) {
	env, mock, out, _ := newTestEnv(t)

	mock.ExpectExec("CREATE TABLE IF NOT EXISTS schema_migrations").WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery("SELECT COALESCE").WillReturnRows(sqlmock.NewRows([]string{"version"}).AddRow(database.SchemaVersion()))
	mock.ExpectClose()

	require.NoError(t, run(env, "migrate"))
	assert.Equal(t, "Applied 0 migrations (schema version 6)\n", out.String())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUserCreate(t *testing.T) {
	env, mock, out, _ := newTestEnv(t)

	mock.ExpectQuery("INSERT INTO users").
		WithArgs("admin@b.com", sqlmock.AnyArg(), domain.RoleAdmin, sqlmock.AnyArg()).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(7))
	mock.ExpectClose()

	err := run(env, "user", "create", "--email", "Admin@b.com", "--password", "password123", "--role", domain.RoleAdmin)
	require.NoError(t, err)
	assert.Equal(t, "Created user #7 admin@b.com (ROLE_ADMIN)\n", out.String())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUserCreateDuplicateEmail(t *testing.T) {
	env, mock, _, _ := newTestEnv(t)

	mock.ExpectQuery("INSERT INTO users").WillReturnError(&pq.Error{Code: "23505"})
	mock.ExpectClose()

	err := run(env, "user", "create", "--email", "admin@b.com", "--password", "password123")
	assert.True(t, errors.Is(err, domain.ErrEmailAlreadyExists))
}

func TestUserCreateRejectsBadInput(t *testing.T) {
	tests := []struct {
		name string
		args []string
	}{
		{"unknown role", []string{"user", "create", "--email", "a@b.com", "--password", "password123", "--role", "ROLE_ROOT"}},
		{"missing password", []string{"user", "create", "--email", "a@b.com"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env, _, _, opened := newTestEnv(t)
			assert.Error(t, run(env, tt.args...))
			assert.Zero(t, *opened)
		})
	}
}
