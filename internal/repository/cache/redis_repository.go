package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/google/uuid"

	"github.com/nurlyy/guestbook/internal/domain"
	"github.com/nurlyy/guestbook/internal/repository"
	pkgcache "github.com/nurlyy/guestbook/pkg/cache"
	"github.com/nurlyy/guestbook/pkg/logger"
)

// Префиксы ключей для разных типов данных
const (
	keyPrefixComment       = "comment:"
	keyPrefixCommentsCount = "conference:comments:count:"
	keyPrefixLock          = "lock:"
)

// RedisRepository реализует репозиторий кэширования с использованием Redis
type RedisRepository struct {
	redis  *pkgcache.Redis
	logger logger.Logger
	ttl    time.Duration
}

// NewRedisRepository создает новый экземпляр RedisRepository
func NewRedisRepository(r *pkgcache.Redis, logger logger.Logger, ttl time.Duration) *RedisRepository {
	return &RedisRepository{
		redis:  r,
		logger: logger,
		ttl:    ttl,
	}
}

// CacheComment сохраняет комментарий в кэш
func (r *RedisRepository) CacheComment(ctx context.Context, comment *domain.Comment) error {
	return r.cacheValue(ctx, commentKey(comment.ID), comment)
}

// GetComment получает комментарий из кэша
func (r *RedisRepository) GetComment(ctx context.Context, id int64) (*domain.Comment, error) {
	var comment domain.Comment
	if err := r.getValue(ctx, commentKey(id), &comment); err != nil {
		return nil, err
	}
	return &comment, nil
}

// InvalidateComment удаляет комментарий из кэша
func (r *RedisRepository) InvalidateComment(ctx context.Context, id int64) error {
	return r.deleteValue(ctx, commentKey(id))
}

// CacheCommentCount сохраняет число комментариев конференции
func (r *RedisRepository) CacheCommentCount(ctx context.Context, conferenceID int64, count int) error {
	return r.redis.Set(ctx, countKey(conferenceID), count, r.ttl)
}

// GetCommentCount получает число комментариев конференции из кэша
func (r *RedisRepository) GetCommentCount(ctx context.Context, conferenceID int64) (int, error) {
	val, err := r.redis.Get(ctx, countKey(conferenceID))
	if err != nil {
		return 0, err
	}

	count, err := strconv.Atoi(val)
	if err != nil {
		r.logger.Warn("Malformed comment count in cache", map[string]interface{}{
			"conference_id": conferenceID,
			"value":         val,
		})
		return 0, repository.ErrCacheMiss
	}
	return count, nil
}

// InvalidateCommentCount удаляет счетчик комментариев конференции
func (r *RedisRepository) InvalidateCommentCount(ctx context.Context, conferenceID int64) error {
	return r.deleteValue(ctx, countKey(conferenceID))
}

// AcquireLock получает блокировку с таймаутом
func (r *RedisRepository) AcquireLock(ctx context.Context, name string, ttl time.Duration) (string, bool, error) {
	token := uuid.NewString()
	ok, err := r.redis.GetLock(ctx, keyPrefixLock+name, token, ttl)
	if err != nil {
		return "", false, fmt.Errorf("failed to acquire lock: %w", err)
	}
	if !ok {
		return "", false, nil
	}
	return token, true, nil
}

// ReleaseLock освобождает блокировку
func (r *RedisRepository) ReleaseLock(ctx context.Context, name, token string) error {
	return r.redis.ReleaseLock(ctx, keyPrefixLock+name, token)
}

// Вспомогательные методы

func commentKey(id int64) string {
	return fmt.Sprintf("%s%d", keyPrefixComment, id)
}

func countKey(conferenceID int64) string {
	return fmt.Sprintf("%s%d", keyPrefixCommentsCount, conferenceID)
}

// cacheValue сохраняет значение в кэш в виде JSON
func (r *RedisRepository) cacheValue(ctx context.Context, key string, value interface{}) error {
	data, err := json.Marshal(value)
	if err != nil {
		r.logger.Error("Failed to marshal value", err, map[string]interface{}{
			"key": key,
		})
		return fmt.Errorf("failed to marshal value: %w", err)
	}

	return r.redis.Set(ctx, key, data, r.ttl)
}

// getValue получает значение из кэша
func (r *RedisRepository) getValue(ctx context.Context, key string, dest interface{}) error {
	data, err := r.redis.Client.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return repository.ErrCacheMiss
	}
	if err != nil {
		r.logger.Error("Failed to get value from Redis", err, map[string]interface{}{
			"key": key,
		})
		return fmt.Errorf("failed to get value from Redis: %w", err)
	}

	if err := json.Unmarshal(data, dest); err != nil {
		r.logger.Error("Failed to unmarshal value", err, map[string]interface{}{
			"key": key,
		})
		// Испорченное значение считаем промахом и удаляем
		_ = r.deleteValue(ctx, key)
		return repository.ErrCacheMiss
	}

	return nil
}

// deleteValue удаляет значение из кэша
func (r *RedisRepository) deleteValue(ctx context.Context, key string) error {
	return r.redis.Delete(ctx, key)
}
