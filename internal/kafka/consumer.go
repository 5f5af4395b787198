package kafka

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"sync"

	"github.com/segmentio/kafka-go"

	"salon-notification-service/internal/config"
	"salon-notification-service/internal/logging"
	"salon-notification-service/internal/models"
)

type enqueuer interface {
	Enqueue(ctx context.Context, channel models.NotificationChannel, typ models.NotificationType, recipient, content, subject string, metadata map[string]any) (*models.Notification, error)
}

// intent is the notify-intent message other services publish.
type intent struct {
	Channel   string         `json:"channel"`
	Type      string         `json:"type"`
	Recipient string         `json:"recipient"`
	Content   string         `json:"content"`
	Subject   string         `json:"subject,omitempty"`
	Metadata  map[string]any `json:"metadata,omitempty"`
}

// Consumer turns notify-intent messages into queued notifications.
type Consumer struct {
	reader *kafka.Reader
	queue  enqueuer
	logger *logging.Logger
}

func NewConsumer(cfg config.KafkaConfig, queue enqueuer, logger *logging.Logger) *Consumer {
	reader := kafka.NewReader(kafka.ReaderConfig{
		Brokers: []string{cfg.Broker},
		Topic:   cfg.Topic,
		GroupID: cfg.GroupID,
	})
	return &Consumer{reader: reader, queue: queue, logger: logger}
}

// Start consumes until ctx is cancelled. Malformed or invalid messages are
// logged and skipped; an enqueue failure drops that one intent.
func (c *Consumer) Start(ctx context.Context, wg *sync.WaitGroup) {
	wg.Add(1)
	go func() {
		defer wg.Done()
		c.logger.Info("Kafka consumer started")

		for {
			msg, err := c.reader.ReadMessage(ctx)
			if err != nil {
				// io.EOF means the reader was closed during shutdown.
				if errors.Is(err, context.Canceled) || errors.Is(err, io.EOF) {
					c.logger.Info("Kafka consumer stopped")
					return
				}
				c.logger.Errorf("Read message failed: %v", err)
				continue
			}

			var in intent
			if err := json.Unmarshal(msg.Value, &in); err != nil {
				c.logger.Errorf("Unmarshal message failed: %v", err)
				continue
			}

			channel := models.NotificationChannel(in.Channel)
			if channel != models.ChannelEmail && channel != models.ChannelSMS {
				c.logger.Errorf("Invalid message: unknown channel %q", in.Channel)
				continue
			}
			if in.Recipient == "" || in.Content == "" {
				c.logger.Error("Invalid message: missing recipient or content")
				continue
			}
			typ := models.NotificationType(in.Type)
			if typ == "" {
				typ = models.TypeAnnouncement
			}

			if _, err := c.queue.Enqueue(ctx, channel, typ, in.Recipient, in.Content, in.Subject, in.Metadata); err != nil {
				c.logger.Errorf("Failed to queue notification for %s: %v", in.Recipient, err)
			}
		}
	}()
}

func (c *Consumer) Close() {
	if err := c.reader.Close(); err != nil {
		c.logger.Errorf("Failed to close Kafka reader: %v", err)
	}
}
