package postgres

import (
	"context"
	"database/sql"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nurlyy/guestbook/internal/domain"
	"github.com/nurlyy/guestbook/pkg/logger"
)

func TestConferenceCreateAndGet(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewConferenceRepository(db, logger.NewNopLogger())
	created := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)

	conf := &domain.Conference{City: "Paris", Year: "2024", IsInternational: true, CreatedAt: created}
	mock.ExpectQuery(regexp.QuoteMeta("INSERT INTO conferences")).
		WithArgs("Paris", "2024", true, created).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(3))
	require.NoError(t, repo.Create(context.Background(), conf))
	assert.Equal(t, int64(3), conf.ID)

	mock.ExpectQuery(regexp.QuoteMeta("FROM conferences WHERE id = $1")).
		WithArgs(int64(3)).
		WillReturnRows(sqlmock.NewRows([]string{"id", "city", "year", "is_international", "created_at"}).
			AddRow(3, "Paris", "2024", true, created))
	got, err := repo.GetByID(context.Background(), 3)
	require.NoError(t, err)
	assert.Equal(t, "Paris 2024", got.String())
	assert.True(t, got.IsInternational)

	mock.ExpectQuery("FROM conferences WHERE id").WillReturnError(sql.ErrNoRows)
	_, err = repo.GetByID(context.Background(), 4)
	assert.ErrorIs(t, err, domain.ErrConferenceNotFound)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestConferenceExists(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewConferenceRepository(db, logger.NewNopLogger())

	mock.ExpectQuery(regexp.QuoteMeta("SELECT EXISTS")).
		WithArgs(int64(2)).
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(false))

	ok, err := repo.Exists(context.Background(), 2)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestConferenceUpdateDelete(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewConferenceRepository(db, logger.NewNopLogger())

	mock.ExpectExec(regexp.QuoteMeta("UPDATE conferences")).
		WithArgs("Lyon", "2023", false, int64(1)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	require.NoError(t, repo.Update(context.Background(), &domain.Conference{ID: 1, City: "Lyon", Year: "2023"}))

	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM conferences")).
		WithArgs(int64(1)).
		WillReturnResult(sqlmock.NewResult(0, 0))
	assert.ErrorIs(t, repo.Delete(context.Background(), 1), domain.ErrConferenceNotFound)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestConferenceListAndCounts(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewConferenceRepository(db, logger.NewNopLogger())

	mock.ExpectQuery(regexp.QuoteMeta("LIMIT $1 OFFSET $2")).
		WithArgs(30, 0).
		WillReturnRows(sqlmock.NewRows([]string{"id", "city", "year", "is_international", "created_at"}).
			AddRow(1, "Paris", "2024", true, time.Now()).
			AddRow(2, "Lyon", "2023", false, time.Now()))
	list, err := repo.List(context.Background(), 30, 0)
	require.NoError(t, err)
	assert.Len(t, list, 2)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*) FROM conferences")).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(2))
	total, err := repo.Count(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, total)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*) FROM comments WHERE conference_id = $1")).
		WithArgs(int64(1)).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(6))
	n, err := repo.CountComments(context.Background(), 1)
	require.NoError(t, err)
	assert.Equal(t, 6, n)

	mock.ExpectQuery(regexp.QuoteMeta("LEFT JOIN comments c ON c.conference_id = f.id")).
		WillReturnRows(sqlmock.NewRows([]string{"conference_id", "city", "year", "count"}).
			AddRow(1, "Paris", "2024", 6).
			AddRow(2, "Lyon", "2023", 0))
	counts, err := repo.CommentCounts(context.Background())
	require.NoError(t, err)
	require.Len(t, counts, 2)
	assert.Equal(t, 0, counts[1].Count)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUserRepository(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewUserRepository(db, logger.NewNopLogger())
	created := time.Now()

	u := &domain.User{Email: "admin@b.com", PasswordHash: "hash", Role: domain.RoleAdmin, CreatedAt: created}
	mock.ExpectQuery(regexp.QuoteMeta("INSERT INTO users")).
		WithArgs("admin@b.com", "hash", domain.RoleAdmin, created).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(1))
	require.NoError(t, repo.Create(context.Background(), u))
	assert.Equal(t, int64(1), u.ID)

	mock.ExpectQuery(regexp.QuoteMeta("INSERT INTO users")).
		WillReturnError(&pq.Error{Code: "23505"})
	assert.ErrorIs(t, repo.Create(context.Background(), u), domain.ErrEmailAlreadyExists)

	mock.ExpectQuery(regexp.QuoteMeta("FROM users WHERE email = $1")).
		WithArgs("admin@b.com").
		WillReturnRows(sqlmock.NewRows([]string{"id", "email", "password_hash", "role", "created_at"}).
			AddRow(1, "admin@b.com", "hash", domain.RoleAdmin, created))
	got, err := repo.GetByEmail(context.Background(), "admin@b.com")
	require.NoError(t, err)
	assert.True(t, got.IsAdmin())

	mock.ExpectQuery(regexp.QuoteMeta("FROM users WHERE id = $1")).
		WillReturnError(sql.ErrNoRows)
	_, err = repo.GetByID(context.Background(), 2)
	assert.ErrorIs(t, err, domain.ErrUserNotFound)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestNotificationRepository(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewNotificationRepository(db, logger.NewNopLogger())
	created := time.Now()

	n := &domain.Notification{
		Type:       domain.NotificationTypeDigest,
		Recipient:  "admin@b.com",
		Subject:    "Digest",
		Body:       "body",
		Status:     domain.NotificationStatusSent,
		EntityType: "digest",
		CreatedAt:  created,
	}
	mock.ExpectQuery(regexp.QuoteMeta("INSERT INTO notifications")).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(10))
	require.NoError(t, repo.Create(context.Background(), n))
	assert.Equal(t, int64(10), n.ID)

	status := domain.NotificationStatusFailed
	mock.ExpectQuery(`WHERE status = \$1\s+ORDER BY created_at DESC, id DESC\s+LIMIT \$2 OFFSET \$3`).
		WithArgs(status, 30, 0).
		WillReturnRows(sqlmock.NewRows([]string{"id", "type", "recipient", "subject", "body", "status", "entity_id", "entity_type", "error", "created_at"}).
			AddRow(1, "comment_created", "admin@b.com", "s", "b", "failed", 4, "comment", "smtp down", created))
	list, err := repo.List(context.Background(), domain.NotificationFilterOptions{Status: &status})
	require.NoError(t, err)
	require.Len(t, list, 1)
	require.NotNil(t, list[0].Error)
	assert.Equal(t, "smtp down", *list[0].Error)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*) FROM notifications WHERE status = $1")).
		WithArgs(status).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))
	count, err := repo.Count(context.Background(), domain.NotificationFilterOptions{Status: &status})
	require.NoError(t, err)
	assert.Equal(t, 1, count)

	assert.NoError(t, mock.ExpectationsWereMet())
}
