package producers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/segmentio/kafka-go"

	"github.com/banking-ledger-core/internal/config"
)

// DeadLetter wraps a consumed message the processor could not handle
type DeadLetter struct {
	OriginalTopic     string    `json:"original_topic"`
	OriginalPartition int       `json:"original_partition"`
	OriginalOffset    int64     `json:"original_offset"`
	OriginalKey       string    `json:"original_key"`
	OriginalValue     string    `json:"original_value"`
	Reason            string    `json:"dlq_reason"`
	Timestamp         time.Time `json:"timestamp"`
}

func newDeadLetter(msg kafka.Message, reason string, at time.Time) DeadLetter {
	return DeadLetter{
		OriginalTopic:     msg.Topic,
		OriginalPartition: msg.Partition,
		OriginalOffset:    msg.Offset,
		OriginalKey:       string(msg.Key),
		OriginalValue:     string(msg.Value),
		Reason:            reason,
		Timestamp:         at.UTC(),
	}
}

var errDLQDisabled = errors.New("DLQ producer not initialized")

// DLQProducer is safe to use as a nil pointer: publishing fails and Close is a no-op
type DLQProducer struct {
	topicWriter
}

// NewDLQProducer returns a nil producer when cfg.DLQTopic is empty (DLQ disabled)
func NewDLQProducer(logger *slog.Logger, cfg *config.KafkaConfig) (*DLQProducer, error) {
	if cfg.DLQTopic == "" {
		logger.Info("DLQ topic is not configured, dead-lettering disabled")
		return nil, nil
	}
	w, err := openTopicWriter(logger, cfg, cfg.DLQTopic)
	if err != nil {
		return nil, err
	}
	return &DLQProducer{w}, nil
}

// PublishToDLQ keeps the original key and headers so the parked message can be traced
// back to its account and correlation id.
func (p *DLQProducer) PublishToDLQ(ctx context.Context, msg kafka.Message, reason string) error {
	if p == nil || p.writer == nil {
		return errDLQDisabled
	}

	value, err := json.Marshal(newDeadLetter(msg, reason, time.Now()))
	if err != nil {
		return fmt.Errorf("failed to marshal dead letter: %w", err)
	}

	headers := make([]kafka.Header, 0, len(msg.Headers)+1)
	headers = append(headers, kafka.Header{Key: HeaderDLQReason, Value: []byte(reason)})
	headers = append(headers, msg.Headers...)

	if err := p.publish(ctx, kafka.Message{Key: msg.Key, Value: value, Headers: headers}); err != nil {
		return err
	}
	p.logger.Warn("Parked message on DLQ", "topic", p.topic, "key", string(msg.Key), "reason", reason)
	return nil
}

func (p *DLQProducer) Close() error {
	if p == nil || p.writer == nil {
		return nil
	}
	return p.topicWriter.Close()
}

var _ DeadLetterPublisher = (*DLQProducer)(nil)
