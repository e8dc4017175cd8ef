package consumers

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/segmentio/kafka-go"

	"github.com/banking-ledger-core/internal/config"
	"github.com/banking-ledger-core/internal/platform/messaging/producers"
)

// MessageHandler processes one message. A returned error means the message should be
// attempted again.
type MessageHandler func(ctx context.Context, msg kafka.Message) error

// KafkaReader wraps kafka.Reader methods for testing
type KafkaReader interface {
	FetchMessage(ctx context.Context) (kafka.Message, error)
	CommitMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// KafkaConsumer fetches messages one at a time, retries a failing handler with
// exponential backoff and dead-letters the message once the attempts are spent.
// Offsets are committed only after the handler succeeded or the message was
// dead-lettered.
type KafkaConsumer struct {
	reader   KafkaReader
	dlq      producers.DeadLetterPublisher
	attempts int
	backoff  time.Duration
	logger   *slog.Logger
}

func NewKafkaConsumer(logger *slog.Logger, cfg *config.KafkaConfig, dlq producers.DeadLetterPublisher) *KafkaConsumer {
	startOffset := kafka.FirstOffset
	if cfg.StartOffset == kafka.LastOffset {
		startOffset = kafka.LastOffset
	}

	return &KafkaConsumer{
		logger:   logger.With("component", "kafka_consumer", "topic", cfg.TransactionTopic),
		dlq:      dlq,
		attempts: cfg.HandleAttempts,
		backoff:  cfg.RetryBackoff,
		reader: kafka.NewReader(kafka.ReaderConfig{
			Brokers:     cfg.BrokerList(),
			Topic:       cfg.TransactionTopic,
			GroupID:     cfg.ConsumerGroup,
			MinBytes:    cfg.MinBytes,
			MaxBytes:    cfg.MaxBytes,
			MaxWait:     cfg.MaxWait,
			StartOffset: startOffset,
		}),
	}
}

// Run consumes until ctx is cancelled
func (c *KafkaConsumer) Run(ctx context.Context, handler MessageHandler) error {
	c.logger.Info("Consuming Kafka topic")

	for {
		msg, err := c.reader.FetchMessage(ctx)
		if err != nil {
			if ctx.Err() != nil {
				c.logger.Info("Context canceled, stopping consumer")
				return nil
			}
			if errors.Is(err, io.EOF) {
				return fmt.Errorf("kafka reader closed: %w", err)
			}
			c.logger.Error("Failed to fetch message from Kafka", "error", err)
			if !sleepCtx(ctx, time.Second) {
				return nil
			}
			continue
		}

		c.logger.Debug("Received message",
			"partition", msg.Partition,
			"offset", msg.Offset,
			"key", string(msg.Key),
		)

		if !c.handle(ctx, msg, handler) {
			return nil
		}

		if err := c.reader.CommitMessages(ctx, msg); err != nil {
			c.logger.Error("Failed to commit message",
				"partition", msg.Partition,
				"offset", msg.Offset,
				"error", err,
			)
		}
	}
}

// handle returns false when ctx ended before the message was settled
func (c *KafkaConsumer) handle(ctx context.Context, msg kafka.Message, handler MessageHandler) bool {
	delay := c.backoff
	var lastErr error
	for attempt := 1; attempt <= max(c.attempts, 1); attempt++ {
		if lastErr = handler(ctx, msg); lastErr == nil {
			return true
		}
		c.logger.Warn("Message handler failed",
			"offset", msg.Offset,
			"attempt", attempt,
			"error", lastErr,
		)
		if attempt < c.attempts {
			if !sleepCtx(ctx, delay) {
				return false
			}
			delay *= 2
		}
	}

	if c.dlq == nil {
		c.logger.Error("Dropping message after exhausting attempts, no DLQ configured",
			"offset", msg.Offset,
			"key", string(msg.Key),
			"error", lastErr,
		)
		return true
	}
	// the offset may only move past msg once it is parked
	for {
		err := c.dlq.PublishToDLQ(ctx, msg, lastErr.Error())
		if err == nil {
			return true
		}
		c.logger.Error("Failed to dead-letter message, retrying",
			"offset", msg.Offset,
			"error", err,
		)
		if !sleepCtx(ctx, c.backoff) {
			return false
		}
	}
}

func (c *KafkaConsumer) Close() error {
	if c.reader != nil {
		return c.reader.Close()
	}
	return nil
}

func sleepCtx(ctx context.Context, d time.Duration) bool {
	if d <= 0 {
		return ctx.Err() == nil
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}
