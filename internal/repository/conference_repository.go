package repository

import (
	"context"

	"github.com/nurlyy/guestbook/internal/domain"
)

// ConferenceRepository определяет интерфейс для работы с хранилищем конференций
type ConferenceRepository interface {
	// Create создает новую конференцию
	Create(ctx context.Context, conference *domain.Conference) error

	// GetByID возвращает конференцию по ID или domain.ErrConferenceNotFound
	GetByID(ctx context.Context, id int64) (*domain.Conference, error)

	// Exists проверяет наличие конференции
	Exists(ctx context.Context, id int64) (bool, error)

	// Update обновляет данные конференции
	Update(ctx context.Context, conference *domain.Conference) error

	// Delete удаляет конференцию; комментарии остаются без конференции
	Delete(ctx context.Context, id int64) error

	// List возвращает страницу конференций
	List(ctx context.Context, limit, offset int) ([]*domain.Conference, error)

	// Count возвращает количество конференций
	Count(ctx context.Context) (int, error)

	// CountComments возвращает число комментариев конференции
	CountComments(ctx context.Context, id int64) (int, error)

	// CommentCounts возвращает число комментариев по всем конференциям
	CommentCounts(ctx context.Context) ([]ConferenceCount, error)
}
