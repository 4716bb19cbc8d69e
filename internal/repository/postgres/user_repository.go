package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/nurlyy/guestbook/internal/domain"
	"github.com/nurlyy/guestbook/pkg/logger"
)

// uniqueViolation - код ошибки PostgreSQL при нарушении уникальности
const uniqueViolation = "23505"

// UserRepository реализует репозиторий пользователей с использованием PostgreSQL
type UserRepository struct {
	db     *sqlx.DB
	logger logger.Logger
}

// NewUserRepository создает новый экземпляр UserRepository
func NewUserRepository(db *sqlx.DB, logger logger.Logger) *UserRepository {
	return &UserRepository{
		db:     db,
		logger: logger,
	}
}

// Create создает нового пользователя
func (r *UserRepository) Create(ctx context.Context, user *domain.User) error {
	query := `
		INSERT INTO users (email, password_hash, role, created_at)
		VALUES ($1, $2, $3, $4)
		RETURNING id
	`

	err := r.db.QueryRowxContext(ctx, query,
		user.Email,
		user.PasswordHash,
		user.Role,
		user.CreatedAt,
	).Scan(&user.ID)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == uniqueViolation {
			return domain.ErrEmailAlreadyExists
		}
		r.logger.Error("Failed to create user", err, map[string]interface{}{
			"email": user.Email,
		})
		return fmt.Errorf("failed to create user: %w", err)
	}

	return nil
}

// GetByID возвращает пользователя по ID
func (r *UserRepository) GetByID(ctx context.Context, id int64) (*domain.User, error) {
	return r.getOne(ctx, `SELECT id, email, password_hash, role, created_at FROM users WHERE id = $1`, id)
}

// GetByEmail возвращает пользователя по email
func (r *UserRepository) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	return r.getOne(ctx, `SELECT id, email, password_hash, role, created_at FROM users WHERE email = $1`, email)
}

func (r *UserRepository) getOne(ctx context.Context, query string, arg interface{}) (*domain.User, error) {
	var user domain.User
	if err := r.db.GetContext(ctx, &user, query, arg); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrUserNotFound
		}
		r.logger.Error("Failed to get user", err)
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	return &user, nil
}
