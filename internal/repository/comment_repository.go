package repository

import (
	"context"
	"time"

	"github.com/nurlyy/guestbook/internal/domain"
)

// CommentRepository определяет интерфейс для работы с хранилищем комментариев
type CommentRepository interface {
	// Create создает новый комментарий и заполняет его ID
	Create(ctx context.Context, comment *domain.Comment) error

	// GetByID возвращает комментарий по ID или domain.ErrCommentNotFound
	GetByID(ctx context.Context, id int64) (*domain.Comment, error)

	// Update обновляет записываемые поля комментария
	Update(ctx context.Context, comment *domain.Comment) error

	// Delete удаляет комментарий по ID
	Delete(ctx context.Context, id int64) error

	// List возвращает список комментариев с фильтрацией
	List(ctx context.Context, filter CommentFilter) ([]*domain.Comment, error)

	// Count возвращает количество комментариев с фильтрацией
	Count(ctx context.Context, filter CommentFilter) (int, error)

	// CountSince возвращает число комментариев по конференциям, созданных после since
	CountSince(ctx context.Context, since time.Time) ([]ConferenceCount, error)
}

// CommentFilter содержит параметры для фильтрации комментариев
type CommentFilter struct {
	ConferenceID *int64
	Limit        int
	Offset       int
}

// ConferenceCount - число комментариев одной конференции.
// Комментарии без конференции имеют ConferenceID = nil.
type ConferenceCount struct {
	ConferenceID *int64 `json:"conference_id" db:"conference_id"`
	City         string `json:"city" db:"city"`
	Year         string `json:"year" db:"year"`
	Count        int    `json:"count" db:"count"`
}
