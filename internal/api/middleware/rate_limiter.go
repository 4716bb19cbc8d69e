package middleware

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/go-redis/redis/v8"

	apperrors "github.com/nurlyy/guestbook/pkg/errors"
	"github.com/nurlyy/guestbook/pkg/logger"
)

// RateLimitStrategy определяет стратегию ограничения запросов
type RateLimitStrategy string

const (
	// RateLimitIP ограничивает запросы по IP-адресу
	RateLimitIP RateLimitStrategy = "ip"
	// RateLimitUser ограничивает запросы по ID пользователя
	RateLimitUser RateLimitStrategy = "user"
)

// RateLimiterConfig содержит настройки для ограничителя запросов
type RateLimiterConfig struct {
	// Максимальное количество запросов в период
	Limit int
	// Период времени для ограничения (в секундах)
	Period int
	// Стратегия ограничения
	Strategy RateLimitStrategy
}

// RateLimiter предоставляет middleware для ограничения частоты запросов.
// С клиентом Redis счетчики общие для всех экземпляров API, без него - локальные.
type RateLimiter struct {
	config     RateLimiterConfig
	logger     logger.Logger
	redis      *redis.Client
	inMemLimit map[string]*limitInfo
	mu         sync.Mutex
	now        func() time.Time
}

// limitInfo хранит информацию о лимитах для in-memory реализации
type limitInfo struct {
	count     int
	resetTime time.Time
}

// NewRateLimiter создает новый экземпляр RateLimiter
func NewRateLimiter(config RateLimiterConfig, redisClient *redis.Client, logger logger.Logger) *RateLimiter {
	return &RateLimiter{
		config:     config,
		redis:      redisClient,
		logger:     logger,
		inMemLimit: make(map[string]*limitInfo),
		now:        time.Now,
	}
}

// Limit применяет ограничение частоты запросов
func (m *RateLimiter) Limit(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// Без лимита или периода ограничитель выключен
		if m.config.Limit <= 0 || m.config.Period <= 0 {
			next.ServeHTTP(w, r)
			return
		}

		key := m.getKey(r)

		remaining, resetTime, limited, err := m.isLimited(r.Context(), key)
		if err != nil {
			// Недоступный Redis не должен останавливать API
			m.logger.Error("Rate limiter error", err, map[string]interface{}{
				"key": key,
			})
			next.ServeHTTP(w, r)
			return
		}

		w.Header().Set("X-RateLimit-Limit", strconv.Itoa(m.config.Limit))
		w.Header().Set("X-RateLimit-Remaining", strconv.Itoa(remaining))
		w.Header().Set("X-RateLimit-Reset", strconv.FormatInt(resetTime.Unix(), 10))

		if limited {
			retryAfter := int(resetTime.Sub(m.now()).Seconds())
			if retryAfter < 1 {
				retryAfter = 1
			}
			w.Header().Set("Retry-After", strconv.Itoa(retryAfter))
			WriteError(w, apperrors.FromError(apperrors.ErrTooManyRequests))
			return
		}

		next.ServeHTTP(w, r)
	})
}

// getKey формирует ключ для ограничения в зависимости от стратегии
func (m *RateLimiter) getKey(r *http.Request) string {
	if m.config.Strategy == RateLimitUser {
		if principal, ok := PrincipalFromContext(r.Context()); ok {
			return fmt.Sprintf("rate_limit:user:%d", principal.UserID)
		}
	}
	return fmt.Sprintf("rate_limit:ip:%s", getClientIP(r))
}

// isLimited проверяет, превышен ли лимит для данного ключа
func (m *RateLimiter) isLimited(ctx context.Context, key string) (int, time.Time, bool, error) {
	if m.redis != nil {
		return m.isLimitedRedis(ctx, key)
	}
	return m.isLimitedInMemory(key)
}

// isLimitedRedis проверяет лимит по фиксированному окну в Redis
func (m *RateLimiter) isLimitedRedis(ctx context.Context, key string) (int, time.Time, bool, error) {
	now := m.now()
	period := time.Duration(m.config.Period) * time.Second
	window := now.Unix() / int64(m.config.Period)
	windowKey := fmt.Sprintf("%s:%d", key, window)

	// Используем транзакцию для атомарного обновления счетчика
	pipe := m.redis.TxPipeline()
	incr := pipe.Incr(ctx, windowKey)
	pipe.Expire(ctx, windowKey, period)
	if _, err := pipe.Exec(ctx); err != nil {
		return 0, now, false, err
	}

	count := incr.Val()
	resetTime := time.Unix((window+1)*int64(m.config.Period), 0)
	remaining := m.config.Limit - int(count)
	if remaining < 0 {
		remaining = 0
	}

	return remaining, resetTime, count > int64(m.config.Limit), nil
}

// isLimitedInMemory проверяет лимит с использованием in-memory хранилища
func (m *RateLimiter) isLimitedInMemory(key string) (int, time.Time, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.now()
	period := time.Duration(m.config.Period) * time.Second

	info, exists := m.inMemLimit[key]
	switch {
	case !exists:
		info = &limitInfo{count: 1, resetTime: now.Add(period)}
		m.inMemLimit[key] = info
	case now.After(info.resetTime):
		info.count = 1
		info.resetTime = now.Add(period)
	default:
		info.count++
	}

	remaining := m.config.Limit - info.count
	if remaining < 0 {
		remaining = 0
	}

	return remaining, info.resetTime, info.count > m.config.Limit, nil
}

// cleanupExpired удаляет устаревшие записи in-memory реализации
func (m *RateLimiter) cleanupExpired() {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.now()
	for key, info := range m.inMemLimit {
		if now.After(info.resetTime) {
			delete(m.inMemLimit, key)
		}
	}
}

// StartCleanupTask запускает периодическую очистку устаревших записей до отмены ctx
func (m *RateLimiter) StartCleanupTask(ctx context.Context) {
	if m.redis != nil {
		return
	}

	ticker := time.NewTicker(time.Minute)
	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				m.cleanupExpired()
			case <-ctx.Done():
				return
			}
		}
	}()
}

// getClientIP возвращает IP-адрес клиента
func getClientIP(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		ips := strings.Split(xff, ",")
		return strings.TrimSpace(ips[0])
	}

	if xrip := r.Header.Get("X-Real-IP"); xrip != "" {
		return xrip
	}

	ip, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return ip
}
