package messaging

import (
	"time"

	"github.com/google/uuid"

	"github.com/nurlyy/guestbook/internal/domain"
)

// Типы событий
const (
	EventTypeCommentCreated = "comment_created"
	EventTypeCommentUpdated = "comment_updated"
	EventTypeCommentDeleted = "comment_deleted"
	EventTypeNotification   = "notification"
)

// Event представляет общий заголовок события; по нему консьюмер выбирает тип
type Event struct {
	ID        string    `json:"event_id"`
	Type      string    `json:"type"`
	CreatedAt time.Time `json:"created_at"`
}

// CommentEvent представляет событие, связанное с комментарием
type CommentEvent struct {
	Event
	CommentID    int64     `json:"comment_id"`
	Author       string    `json:"author"`
	Email        string    `json:"email"`
	ShortText    string    `json:"shorttext"`
	Note         *int16    `json:"note,omitempty"`
	ConferenceID *int64    `json:"conference_id,omitempty"`
	CommentedAt  time.Time `json:"commented_at"`
}

// NewCommentEvent создает событие по комментарию
func NewCommentEvent(eventType string, c *domain.Comment) CommentEvent {
	return CommentEvent{
		Event:        newEvent(eventType),
		CommentID:    c.ID,
		Author:       c.Author,
		Email:        c.Email,
		ShortText:    c.ShortText(),
		Note:         c.Note,
		ConferenceID: c.ConferenceID,
		CommentedAt:  c.CreatedAt,
	}
}

// DigestEntry - строка дайджеста: конференция и число новых комментариев
type DigestEntry struct {
	Conference string `json:"conference"`
	Count      int    `json:"count"`
}

// NotificationEvent представляет событие уведомления администратора
type NotificationEvent struct {
	Event
	Kind       domain.NotificationType `json:"kind"`
	Subject    string                  `json:"subject"`
	Content    string                  `json:"content"`
	EntityID   *int64                  `json:"entity_id,omitempty"`
	EntityType string                  `json:"entity_type"`
	Digest     []DigestEntry           `json:"digest,omitempty"`
	MetaData   map[string]string       `json:"meta_data,omitempty"`
}

// NewNotificationEvent создает событие уведомления
func NewNotificationEvent(kind domain.NotificationType, subject, content string) NotificationEvent {
	return NotificationEvent{
		Event:   newEvent(EventTypeNotification),
		Kind:    kind,
		Subject: subject,
		Content: content,
	}
}

func newEvent(eventType string) Event {
	return Event{
		ID:        uuid.NewString(),
		Type:      eventType,
		CreatedAt: time.Now().UTC(),
	}
}
