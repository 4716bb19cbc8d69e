package messaging

import (
	"context"
	"fmt"
	"time"

	"github.com/segmentio/kafka-go"

	"github.com/nurlyy/guestbook/pkg/config"
	"github.com/nurlyy/guestbook/pkg/logger"
)

// KafkaProducer представляет клиент для отправки сообщений в Kafka
type KafkaProducer struct {
	Writer *kafka.Writer
	Config *config.KafkaConfig
	Logger logger.Logger
}

// KafkaConsumer представляет клиент для чтения сообщений из Kafka
type KafkaConsumer struct {
	Reader *kafka.Reader
	Config *config.KafkaConfig
	Logger logger.Logger
}

// NewKafkaProducer создает нового производителя Kafka.
// Топик задается в каждом сообщении, поэтому один writer обслуживает все топики.
func NewKafkaProducer(cfg *config.KafkaConfig, log logger.Logger) *KafkaProducer {
	log.Info("Creating Kafka producer", map[string]interface{}{
		"brokers": cfg.Brokers,
	})

	writer := &kafka.Writer{
		Addr:     kafka.TCP(cfg.Brokers...),
		Balancer: &kafka.Hash{},
		// Настройки для надежной доставки
		RequiredAcks: kafka.RequireAll,
		Async:        false,
		MaxAttempts:  5,
		// Небольшие батчи: события комментариев редкие
		BatchSize:              100,
		BatchTimeout:           10 * time.Millisecond,
		Compression:            kafka.Snappy,
		AllowAutoTopicCreation: true,
	}

	return &KafkaProducer{
		Writer: writer,
		Config: cfg,
		Logger: log,
	}
}

// Close закрывает соединение производителя
func (p *KafkaProducer) Close() error {
	p.Logger.Info("Closing Kafka producer")
	return p.Writer.Close()
}

// Publish отправляет сообщение в указанный топик
func (p *KafkaProducer) Publish(ctx context.Context, topic string, key string, value []byte) error {
	start := time.Now()
	err := p.Writer.WriteMessages(ctx, kafka.Message{
		Topic: topic,
		Key:   []byte(key),
		Value: value,
		Time:  start,
	})
	elapsed := time.Since(start)

	if err != nil {
		p.Logger.Error("Failed to publish Kafka message", err, map[string]interface{}{
			"topic":   topic,
			"key":     key,
			"elapsed": elapsed.String(),
		})
		return fmt.Errorf("failed to publish Kafka message to topic %s: %w", topic, err)
	}

	p.Logger.Debug("Successfully published Kafka message", map[string]interface{}{
		"topic":   topic,
		"key":     key,
		"elapsed": elapsed.String(),
	})
	return nil
}

// NewKafkaConsumer создает нового потребителя Kafka
func NewKafkaConsumer(topic, groupID string, cfg *config.KafkaConfig, log logger.Logger) *KafkaConsumer {
	log.Info("Creating Kafka consumer", map[string]interface{}{
		"brokers": cfg.Brokers,
		"topic":   topic,
		"groupID": groupID,
	})

	reader := kafka.NewReader(kafka.ReaderConfig{
		Brokers:        cfg.Brokers,
		Topic:          topic,
		GroupID:        groupID,
		MinBytes:       1,
		MaxBytes:       10e6, // 10MB
		MaxWait:        time.Second,
		StartOffset:    kafka.FirstOffset,
		CommitInterval: 0, // коммитим вручную после обработки
		ReadBackoffMin: 100 * time.Millisecond,
		ReadBackoffMax: time.Second,
	})

	return &KafkaConsumer{
		Reader: reader,
		Config: cfg,
		Logger: log,
	}
}

// Close закрывает соединение потребителя
func (c *KafkaConsumer) Close() error {
	c.Logger.Info("Closing Kafka consumer")
	return c.Reader.Close()
}

// Fetch читает следующее сообщение без коммита смещения
func (c *KafkaConsumer) Fetch(ctx context.Context) (kafka.Message, error) {
	message, err := c.Reader.FetchMessage(ctx)
	if err != nil {
		return kafka.Message{}, fmt.Errorf("failed to fetch Kafka message: %w", err)
	}

	c.Logger.Debug("Fetched Kafka message", map[string]interface{}{
		"topic":     message.Topic,
		"partition": message.Partition,
		"offset":    message.Offset,
		"key":       string(message.Key),
	})
	return message, nil
}

// Commit коммитит сообщения для подтверждения обработки
func (c *KafkaConsumer) Commit(ctx context.Context, messages ...kafka.Message) error {
	if err := c.Reader.CommitMessages(ctx, messages...); err != nil {
		c.Logger.Error("Failed to commit Kafka messages", err, map[string]interface{}{
			"topic":   c.Reader.Config().Topic,
			"groupID": c.Reader.Config().GroupID,
			"count":   len(messages),
		})
		return fmt.Errorf("failed to commit Kafka messages: %w", err)
	}
	return nil
}

// CreateTopics создает топики в Kafka, если они не существуют
func CreateTopics(ctx context.Context, brokers []string, topics []string, log logger.Logger) error {
	if len(brokers) == 0 {
		return fmt.Errorf("no Kafka brokers configured")
	}

	log.Info("Creating Kafka topics", map[string]interface{}{
		"brokers": brokers,
		"topics":  topics,
	})

	conn, err := kafka.DialContext(ctx, "tcp", brokers[0])
	if err != nil {
		return fmt.Errorf("failed to connect to Kafka: %w", err)
	}
	defer conn.Close()

	controller, err := conn.Controller()
	if err != nil {
		return fmt.Errorf("failed to get Kafka controller: %w", err)
	}

	controllerConn, err := kafka.DialContext(ctx, "tcp", fmt.Sprintf("%s:%d", controller.Host, controller.Port))
	if err != nil {
		return fmt.Errorf("failed to connect to Kafka controller: %w", err)
	}
	defer controllerConn.Close()

	topicConfigs := make([]kafka.TopicConfig, 0, len(topics))
	for _, topic := range topics {
		topicConfigs = append(topicConfigs, kafka.TopicConfig{
			Topic:             topic,
			NumPartitions:     3,
			ReplicationFactor: 1,
			ConfigEntries: []kafka.ConfigEntry{
				{
					ConfigName:  "retention.ms",
					ConfigValue: "604800000", // 7 дней
				},
			},
		})
	}

	if err := controllerConn.CreateTopics(topicConfigs...); err != nil {
		log.Error("Failed to create Kafka topics", err, map[string]interface{}{
			"topics": topics,
		})
		return fmt.Errorf("failed to create Kafka topics: %w", err)
	}

	log.Info("Kafka topics created successfully", map[string]interface{}{
		"topics": topics,
	})
	return nil
}
