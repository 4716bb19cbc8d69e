package messaging

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/nurlyy/guestbook/internal/domain"
	"github.com/nurlyy/guestbook/pkg/config"
	"github.com/nurlyy/guestbook/pkg/logger"
)

// EventPublisher публикует доменные события
type EventPublisher interface {
	PublishCommentEvent(ctx context.Context, eventType string, comment *domain.Comment) error
	PublishNotification(ctx context.Context, event NotificationEvent) error
}

// Publisher отправляет сырое сообщение в топик; его реализует pkg/messaging.KafkaProducer
type Publisher interface {
	Publish(ctx context.Context, topic, key string, value []byte) error
}

// KafkaProducer реализует EventPublisher поверх Kafka
type KafkaProducer struct {
	publisher Publisher
	topics    config.KafkaTopics
	logger    logger.Logger
}

// NewKafkaProducer создает новый экземпляр KafkaProducer
func NewKafkaProducer(publisher Publisher, topics config.KafkaTopics, logger logger.Logger) *KafkaProducer {
	return &KafkaProducer{
		publisher: publisher,
		topics:    topics,
		logger:    logger,
	}
}

// PublishCommentEvent публикует событие комментария; ключ - ID комментария
func (p *KafkaProducer) PublishCommentEvent(ctx context.Context, eventType string, comment *domain.Comment) error {
	event := NewCommentEvent(eventType, comment)
	return p.publishEvent(ctx, p.topics.Comments, strconv.FormatInt(comment.ID, 10), event)
}

// PublishNotification публикует уведомление
func (p *KafkaProducer) PublishNotification(ctx context.Context, event NotificationEvent) error {
	return p.publishEvent(ctx, p.topics.Notifications, string(event.Kind), event)
}

// publishEvent сериализует событие в JSON и отправляет его
func (p *KafkaProducer) publishEvent(ctx context.Context, topic, key string, event interface{}) error {
	data, err := json.Marshal(event)
	if err != nil {
		p.logger.Error("Failed to marshal event", err, map[string]interface{}{
			"topic": topic,
			"key":   key,
		})
		return fmt.Errorf("failed to marshal event: %w", err)
	}

	if err := p.publisher.Publish(ctx, topic, key, data); err != nil {
		return fmt.Errorf("failed to publish event: %w", err)
	}
	return nil
}
