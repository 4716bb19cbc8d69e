package repository

import (
	"context"

	"github.com/nurlyy/guestbook/internal/domain"
)

// UserRepository определяет интерфейс для работы с хранилищем пользователей
type UserRepository interface {
	// Create создает нового пользователя; занятый email дает domain.ErrEmailAlreadyExists
	Create(ctx context.Context, user *domain.User) error

	// GetByID возвращает пользователя по ID
	GetByID(ctx context.Context, id int64) (*domain.User, error)

	// GetByEmail возвращает пользователя по email
	GetByEmail(ctx context.Context, email string) (*domain.User, error)
}
