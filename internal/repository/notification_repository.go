package repository

import (
	"context"

	"github.com/nurlyy/guestbook/internal/domain"
)

// NotificationRepository хранит журнал отправленных уведомлений
type NotificationRepository interface {
	// Create сохраняет уведомление
	Create(ctx context.Context, notification *domain.Notification) error

	// List возвращает уведомления с фильтрацией, новые первыми
	List(ctx context.Context, filter domain.NotificationFilterOptions) ([]*domain.Notification, error)

	// Count возвращает количество уведомлений с фильтрацией
	Count(ctx context.Context, filter domain.NotificationFilterOptions) (int, error)
}
