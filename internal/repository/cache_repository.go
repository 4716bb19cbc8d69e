package repository

import (
	"context"
	"time"

	"github.com/nurlyy/guestbook/internal/domain"
	"github.com/nurlyy/guestbook/pkg/cache"
)

// ErrCacheMiss возвращается, когда значения нет в кэше
var ErrCacheMiss = cache.ErrCacheMiss

// CacheRepository определяет интерфейс кэша комментариев, счетчиков и блокировок
type CacheRepository interface {
	// CacheComment сохраняет хранимые поля комментария
	CacheComment(ctx context.Context, comment *domain.Comment) error

	// GetComment возвращает комментарий из кэша или ErrCacheMiss
	GetComment(ctx context.Context, id int64) (*domain.Comment, error)

	// InvalidateComment удаляет комментарий из кэша
	InvalidateComment(ctx context.Context, id int64) error

	// CacheCommentCount сохраняет число комментариев конференции
	CacheCommentCount(ctx context.Context, conferenceID int64, count int) error

	// GetCommentCount возвращает число комментариев конференции или ErrCacheMiss
	GetCommentCount(ctx context.Context, conferenceID int64) (int, error)

	// InvalidateCommentCount удаляет счетчик конференции
	InvalidateCommentCount(ctx context.Context, conferenceID int64) error

	// AcquireLock захватывает именованную блокировку; возвращает токен владельца
	AcquireLock(ctx context.Context, name string, ttl time.Duration) (token string, ok bool, err error)

	// ReleaseLock освобождает блокировку, если она принадлежит token
	ReleaseLock(ctx context.Context, name, token string) error
}
