package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/segmentio/kafka-go"

	"github.com/nurlyy/guestbook/internal/domain"
	"github.com/nurlyy/guestbook/internal/messaging"
	"github.com/nurlyy/guestbook/internal/repository"
	"github.com/nurlyy/guestbook/pkg/config"
	"github.com/nurlyy/guestbook/pkg/logger"
	"github.com/nurlyy/guestbook/pkg/metrics"
)

// NotifierService превращает события в письма администратору
type NotifierService struct {
	notificationRepo repository.NotificationRepository
	mailer           Mailer
	metrics          *metrics.Metrics
	logger           logger.Logger
	config           *config.NotifierConfig
	locale           string
	now              func() time.Time
}

// NewNotifierService создает новый экземпляр сервиса уведомлений.
// В режиме разработки письма только пишутся в лог.
func NewNotifierService(
	notificationRepo repository.NotificationRepository,
	mailer Mailer,
	metrics *metrics.Metrics,
	config *config.NotifierConfig,
	locale string,
	logger logger.Logger,
) *NotifierService {
	if config.DevMode {
		mailer = NewLogMailer(logger)
	}

	return &NotifierService{
		notificationRepo: notificationRepo,
		mailer:           mailer,
		metrics:          metrics,
		logger:           logger,
		config:           config,
		locale:           locale,
		now:              time.Now,
	}
}

// HandleCommentEvent обрабатывает сообщение из топика комментариев
func (s *NotifierService) HandleCommentEvent(ctx context.Context, msg kafka.Message) error {
	var event messaging.CommentEvent
	if err := messaging.Decode(msg, &event); err != nil {
		return err
	}

	var notification *domain.Notification
	switch event.Type {
	case messaging.EventTypeCommentCreated:
		notification = s.newNotification(domain.NotificationTypeCommentCreated,
			fmt.Sprintf("Nouveau commentaire de %s", event.Author),
			s.formatComment(event))
	case messaging.EventTypeCommentDeleted:
		notification = s.newNotification(domain.NotificationTypeCommentDeleted,
			fmt.Sprintf("Commentaire #%d supprimé", event.CommentID),
			s.formatComment(event))
	default:
		s.logger.Debug("Comment event ignored", map[string]interface{}{
			"type":       event.Type,
			"comment_id": event.CommentID,
		})
		return nil
	}

	commentID := event.CommentID
	notification.EntityID = &commentID
	notification.EntityType = "comment"

	return s.deliver(ctx, notification)
}

// HandleNotification обрабатывает сообщение из топика уведомлений
func (s *NotifierService) HandleNotification(ctx context.Context, msg kafka.Message) error {
	var event messaging.NotificationEvent
	if err := messaging.Decode(msg, &event); err != nil {
		return err
	}

	if event.Kind == "" {
		return fmt.Errorf("notification %s has no kind", event.ID)
	}

	notification := s.newNotification(event.Kind, event.Subject, event.Content)
	notification.EntityID = event.EntityID
	notification.EntityType = event.EntityType

	return s.deliver(ctx, notification)
}

// deliver отправляет письмо и сохраняет результат в журнал
func (s *NotifierService) deliver(ctx context.Context, notification *domain.Notification) error {
	status := domain.NotificationStatusSent
	if s.config.DevMode {
		status = domain.NotificationStatusLogged
	}

	sendErr := s.mailer.Send(ctx, notification.Recipient, notification.Subject, notification.Body)
	notification.MarkDelivered(status, sendErr)
	s.metrics.IncNotification(string(notification.Type), sendErr)

	if err := s.notificationRepo.Create(ctx, notification); err != nil {
		s.logger.Error("Failed to record notification", err, map[string]interface{}{
			"type": notification.Type,
		})
		if sendErr == nil {
			return err
		}
	}

	if sendErr != nil {
		return fmt.Errorf("failed to deliver %s notification: %w", notification.Type, sendErr)
	}

	s.logger.Info("Notification delivered", map[string]interface{}{
		"type":   notification.Type,
		"status": notification.Status,
	})
	return nil
}

func (s *NotifierService) newNotification(kind domain.NotificationType, subject, body string) *domain.Notification {
	return &domain.Notification{
		Type:      kind,
		Recipient: s.config.AdminEmail,
		Subject:   subject,
		Body:      body,
		CreatedAt: s.now(),
	}
}

// formatComment формирует текст письма о комментарии
func (s *NotifierService) formatComment(event messaging.CommentEvent) string {
	comment := domain.NewComment().
		SetAuthor(event.Author).
		SetEmail(event.Email).
		SetCreatedAt(event.CommentedAt)

	var sb strings.Builder
	fmt.Fprintf(&sb, "Auteur : %s <%s>\n", event.Author, event.Email)
	fmt.Fprintf(&sb, "Texte : %s\n", event.ShortText)
	if event.Note != nil {
		fmt.Fprintf(&sb, "Note : %d/5\n", *event.Note)
	}
	if event.ConferenceID != nil {
		fmt.Fprintf(&sb, "Conférence : /api/conferences/%d\n", *event.ConferenceID)
	}
	fmt.Fprintf(&sb, "%s\n", comment.ElapsedSince(s.now()).Format(s.locale))
	return sb.String()
}
