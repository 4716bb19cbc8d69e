package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"

	"github.com/nurlyy/guestbook/pkg/config"
	"github.com/nurlyy/guestbook/pkg/logger"
)

// ErrCacheMiss возвращается, когда ключ отсутствует в кэше
var ErrCacheMiss = errors.New("cache miss")

// releaseScript удаляет блокировку, только если она принадлежит владельцу токена
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0`)

// Redis представляет клиент для работы с Redis
type Redis struct {
	Client *redis.Client
	Config *config.RedisConfig
	Logger logger.Logger
}

// NewRedis создает новое подключение к Redis
func NewRedis(ctx context.Context, cfg *config.RedisConfig, log logger.Logger) (*Redis, error) {
	log.Info("Connecting to Redis", map[string]interface{}{
		"host": cfg.Host,
		"port": cfg.Port,
		"db":   cfg.DB,
	})

	client := redis.NewClient(&redis.Options{
		Addr:         cfg.RedisAddr(),
		Password:     cfg.Password,
		DB:           cfg.DB,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
	})

	// Проверяем соединение
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to ping Redis: %w", err)
	}

	log.Info("Successfully connected to Redis")

	return NewRedisWithClient(client, cfg, log), nil
}

// NewRedisWithClient оборачивает уже созданный клиент
func NewRedisWithClient(client *redis.Client, cfg *config.RedisConfig, log logger.Logger) *Redis {
	return &Redis{
		Client: client,
		Config: cfg,
		Logger: log,
	}
}

// Close закрывает соединение с Redis
func (r *Redis) Close() error {
	r.Logger.Info("Closing Redis connection")
	return r.Client.Close()
}

// Ping проверяет соединение с Redis
func (r *Redis) Ping(ctx context.Context) error {
	return r.Client.Ping(ctx).Err()
}

// Set сохраняет значение в кэше
func (r *Redis) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	if ttl == 0 {
		ttl = r.Config.DefaultTTL
	}

	err := r.Client.Set(ctx, key, value, ttl).Err()
	if err != nil {
		r.Logger.Error("Failed to set Redis key", err, map[string]interface{}{
			"key": key,
		})
		return fmt.Errorf("failed to set Redis key %s: %w", key, err)
	}

	r.Logger.Debug("Redis key set successfully", map[string]interface{}{
		"key": key,
		"ttl": ttl.String(),
	})
	return nil
}

// Get получает значение из кэша; отсутствующий ключ дает ErrCacheMiss
func (r *Redis) Get(ctx context.Context, key string) (string, error) {
	value, err := r.Client.Get(ctx, key).Result()
	if errors.Is(err, redis.Nil) {
		r.Logger.Debug("Redis key not found", map[string]interface{}{
			"key": key,
		})
		return "", ErrCacheMiss
	} else if err != nil {
		r.Logger.Error("Failed to get Redis key", err, map[string]interface{}{
			"key": key,
		})
		return "", fmt.Errorf("failed to get Redis key %s: %w", key, err)
	}

	return value, nil
}

// Delete удаляет значения из кэша
func (r *Redis) Delete(ctx context.Context, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}

	err := r.Client.Del(ctx, keys...).Err()
	if err != nil {
		r.Logger.Error("Failed to delete Redis keys", err, map[string]interface{}{
			"keys": keys,
		})
		return fmt.Errorf("failed to delete Redis keys: %w", err)
	}

	r.Logger.Debug("Redis keys deleted successfully", map[string]interface{}{
		"keys": keys,
	})
	return nil
}

// GetLock пытается захватить блокировку; token идентифицирует владельца
func (r *Redis) GetLock(ctx context.Context, key, token string, ttl time.Duration) (bool, error) {
	ok, err := r.Client.SetNX(ctx, key, token, ttl).Result()
	if err != nil {
		r.Logger.Error("Failed to acquire Redis lock", err, map[string]interface{}{
			"key": key,
			"ttl": ttl.String(),
		})
		return false, fmt.Errorf("failed to acquire Redis lock %s: %w", key, err)
	}

	if ok {
		r.Logger.Debug("Redis lock acquired successfully", map[string]interface{}{
			"key": key,
			"ttl": ttl.String(),
		})
	} else {
		r.Logger.Debug("Redis lock already acquired", map[string]interface{}{
			"key": key,
		})
	}

	return ok, nil
}

// ReleaseLock освобождает блокировку, если она все еще принадлежит token
func (r *Redis) ReleaseLock(ctx context.Context, key, token string) error {
	if err := releaseScript.Run(ctx, r.Client, []string{key}, token).Err(); err != nil && !errors.Is(err, redis.Nil) {
		return fmt.Errorf("failed to release Redis lock %s: %w", key, err)
	}
	return nil
}
