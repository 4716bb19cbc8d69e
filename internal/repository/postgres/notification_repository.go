package postgres

import (
	"context"
	"fmt"
	"strings"

	"github.com/jmoiron/sqlx"

	"github.com/nurlyy/guestbook/internal/domain"
	"github.com/nurlyy/guestbook/pkg/logger"
)

// NotificationRepository реализует журнал уведомлений с использованием PostgreSQL
type NotificationRepository struct {
	db     *sqlx.DB
	logger logger.Logger
}

// NewNotificationRepository создает новый экземпляр NotificationRepository
func NewNotificationRepository(db *sqlx.DB, logger logger.Logger) *NotificationRepository {
	return &NotificationRepository{
		db:     db,
		logger: logger,
	}
}

// Create сохраняет уведомление
func (r *NotificationRepository) Create(ctx context.Context, notification *domain.Notification) error {
	query := `
		INSERT INTO notifications (
			type, recipient, subject, body, status, entity_id, entity_type, error, created_at
		) VALUES (
			$1, $2, $3, $4, $5, $6, $7, $8, $9
		) RETURNING id
	`

	err := r.db.QueryRowxContext(
		ctx,
		query,
		notification.Type,
		notification.Recipient,
		notification.Subject,
		notification.Body,
		notification.Status,
		notification.EntityID,
		notification.EntityType,
		notification.Error,
		notification.CreatedAt,
	).Scan(&notification.ID)
	if err != nil {
		r.logger.Error("Failed to create notification", err, map[string]interface{}{
			"type":      notification.Type,
			"recipient": notification.Recipient,
		})
		return fmt.Errorf("failed to create notification: %w", err)
	}

	return nil
}

// List возвращает уведомления с фильтрацией
func (r *NotificationRepository) List(ctx context.Context, filter domain.NotificationFilterOptions) ([]*domain.Notification, error) {
	where, args := buildNotificationWhere(filter)
	limit := filter.PageSize
	if limit <= 0 {
		limit = 30
	}
	args = append(args, limit, domain.Offset(filter.Page, limit))

	query := fmt.Sprintf(`
		SELECT id, type, recipient, subject, body, status, entity_id, entity_type, error, created_at
		FROM notifications
		%s
		ORDER BY created_at DESC, id DESC
		LIMIT $%d OFFSET $%d
	`, where, len(args)-1, len(args))

	notifications := []*domain.Notification{}
	if err := r.db.SelectContext(ctx, &notifications, query, args...); err != nil {
		r.logger.Error("Failed to list notifications", err)
		return nil, fmt.Errorf("failed to list notifications: %w", err)
	}
	return notifications, nil
}

// Count возвращает количество уведомлений с фильтрацией
func (r *NotificationRepository) Count(ctx context.Context, filter domain.NotificationFilterOptions) (int, error) {
	where, args := buildNotificationWhere(filter)

	var count int
	if err := r.db.GetContext(ctx, &count, `SELECT COUNT(*) FROM notifications `+where, args...); err != nil {
		r.logger.Error("Failed to count notifications", err)
		return 0, fmt.Errorf("failed to count notifications: %w", err)
	}
	return count, nil
}

func buildNotificationWhere(filter domain.NotificationFilterOptions) (string, []interface{}) {
	conditions := []string{}
	args := []interface{}{}

	if filter.Type != nil {
		args = append(args, *filter.Type)
		conditions = append(conditions, fmt.Sprintf("type = $%d", len(args)))
	}
	if filter.Status != nil {
		args = append(args, *filter.Status)
		conditions = append(conditions, fmt.Sprintf("status = $%d", len(args)))
	}

	if len(conditions) > 0 {
		return "WHERE " + strings.Join(conditions, " AND "), args
	}
	return "", args
}
