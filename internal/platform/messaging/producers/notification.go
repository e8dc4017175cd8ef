package producers

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/segmentio/kafka-go"

	"github.com/banking-ledger-core/internal/config"
	"github.com/banking-ledger-core/internal/domain/notification"
)

// NotificationProducer hands notifications to the delivery service over Kafka.
// Messages are keyed by user so one user's notifications stay ordered.
type NotificationProducer struct {
	topicWriter
}

func NewNotificationProducer(logger *slog.Logger, cfg *config.KafkaConfig) (*NotificationProducer, error) {
	if cfg.NotificationTopic == "" {
		return nil, fmt.Errorf("kafka notification topic is not configured")
	}
	w, err := openTopicWriter(logger, cfg, cfg.NotificationTopic)
	if err != nil {
		return nil, err
	}
	return &NotificationProducer{w}, nil
}

// Notify implements notification.Sink
func (p *NotificationProducer) Notify(ctx context.Context, n *notification.Notification) error {
	value, err := json.Marshal(n)
	if err != nil {
		return fmt.Errorf("failed to marshal notification: %w", err)
	}
	return p.publish(ctx, kafka.Message{Key: []byte(n.UserID.String()), Value: value})
}

var _ notification.Sink = (*NotificationProducer)(nil)
