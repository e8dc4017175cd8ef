package producers

import (
	"context"

	"github.com/segmentio/kafka-go"

	"github.com/banking-ledger-core/internal/domain/shared"
)

// RequestPublisher hands a persisted pending transaction to the processor
type RequestPublisher interface {
	PublishRequest(ctx context.Context, request *shared.TransactionRequest) error
	Close() error
}

// DeadLetterPublisher parks messages the processor gave up on
type DeadLetterPublisher interface {
	PublishToDLQ(ctx context.Context, msg kafka.Message, reason string) error
	Close() error
}

// KafkaWriter wraps kafka.Writer methods for testing
type KafkaWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// topicAdmin is the subset of *kafka.Conn used to provision topics
type topicAdmin interface {
	ReadPartitions(topics ...string) ([]kafka.Partition, error)
	CreateTopics(topics ...kafka.TopicConfig) error
}
