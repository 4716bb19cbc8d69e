package messaging

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/segmentio/kafka-go"

	"github.com/nurlyy/guestbook/pkg/logger"
)

// MessageReader читает и подтверждает сообщения; его реализует pkg/messaging.KafkaConsumer
type MessageReader interface {
	Fetch(ctx context.Context) (kafka.Message, error)
	Commit(ctx context.Context, messages ...kafka.Message) error
}

// HandlerFunc обрабатывает одно сообщение
type HandlerFunc func(ctx context.Context, msg kafka.Message) error

// Consumer читает сообщения и передает их обработчику
type Consumer struct {
	name    string
	reader  MessageReader
	handler HandlerFunc
	logger  logger.Logger
	backoff time.Duration
}

// NewConsumer создает новый экземпляр Consumer
func NewConsumer(name string, reader MessageReader, handler HandlerFunc, log logger.Logger) *Consumer {
	return &Consumer{
		name:    name,
		reader:  reader,
		handler: handler,
		logger:  log.With("consumer", name),
		backoff: time.Second,
	}
}

// Run обрабатывает сообщения до отмены контекста.
// Сообщение, которое не удалось обработать, записывается в лог и подтверждается,
// чтобы оно не блокировало партицию.
func (c *Consumer) Run(ctx context.Context) error {
	c.logger.Info("Consumer started")

	for {
		msg, err := c.reader.Fetch(ctx)
		if err != nil {
			if ctx.Err() != nil {
				c.logger.Info("Consumer stopped")
				return nil
			}
			c.logger.Error("Failed to fetch message", err)
			if !sleepCtx(ctx, c.backoff) {
				return nil
			}
			continue
		}

		if err := c.handler(ctx, msg); err != nil {
			c.logger.Error("Failed to handle message", err, map[string]interface{}{
				"topic":     msg.Topic,
				"partition": msg.Partition,
				"offset":    msg.Offset,
				"key":       string(msg.Key),
			})
		}

		if err := c.reader.Commit(ctx, msg); err != nil {
			if errors.Is(err, context.Canceled) {
				return nil
			}
			c.logger.Error("Failed to commit message", err, map[string]interface{}{
				"offset": msg.Offset,
			})
		}
	}
}

// Decode десериализует JSON-сообщение
func Decode(msg kafka.Message, dest interface{}) error {
	if err := json.Unmarshal(msg.Value, dest); err != nil {
		return fmt.Errorf("failed to parse message: %w", err)
	}
	return nil
}

// EventType возвращает тип события из заголовка сообщения
func EventType(msg kafka.Message) (string, error) {
	var e Event
	if err := Decode(msg, &e); err != nil {
		return "", err
	}
	return e.Type, nil
}

func sleepCtx(ctx context.Context, d time.Duration) bool {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}
