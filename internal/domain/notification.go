package domain

import (
	"time"
)

// NotificationType определяет тип уведомления
type NotificationType string

const (
	// NotificationTypeCommentCreated - оставлен новый комментарий
	NotificationTypeCommentCreated NotificationType = "comment_created"
	// NotificationTypeCommentDeleted - комментарий удален
	NotificationTypeCommentDeleted NotificationType = "comment_deleted"
	// NotificationTypeDigest - ежедневный дайджест комментариев
	NotificationTypeDigest NotificationType = "digest"
)

// NotificationStatus определяет результат доставки
type NotificationStatus string

const (
	// NotificationStatusSent - письмо отправлено
	NotificationStatusSent NotificationStatus = "sent"
	// NotificationStatusLogged - режим разработки, письмо только записано в лог
	NotificationStatusLogged NotificationStatus = "logged"
	// NotificationStatusFailed - отправка не удалась
	NotificationStatusFailed NotificationStatus = "failed"
)

// Notification представляет письмо администратору и результат его доставки
type Notification struct {
	ID         int64              `json:"id" db:"id"`
	Type       NotificationType   `json:"type" db:"type"`
	Recipient  string             `json:"recipient" db:"recipient"`
	Subject    string             `json:"subject" db:"subject"`
	Body       string             `json:"body" db:"body"`
	Status     NotificationStatus `json:"status" db:"status"`
	EntityID   *int64             `json:"entity_id,omitempty" db:"entity_id"` // ID комментария, если есть
	EntityType string             `json:"entity_type" db:"entity_type"`       // comment или digest
	Error      *string            `json:"error,omitempty" db:"error"`
	CreatedAt  time.Time          `json:"created_at" db:"created_at"`
}

// MarkDelivered фиксирует результат отправки
func (n *Notification) MarkDelivered(status NotificationStatus, err error) {
	n.Status = status
	if err != nil {
		msg := err.Error()
		n.Error = &msg
		n.Status = NotificationStatusFailed
	}
}

// NotificationFilterOptions представляет параметры выборки уведомлений
type NotificationFilterOptions struct {
	Type     *NotificationType
	Status   *NotificationStatus
	Page     int
	PageSize int
}
