package producers

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/segmentio/kafka-go"

	"github.com/banking-ledger-core/internal/config"
)

const (
	HeaderCorrelationID = "correlation-id"
	HeaderDLQReason     = "dlq-reason"
)

type topicProvisioner struct {
	admin             topicAdmin
	numPartitions     int
	replicationFactor int
	readAttempts      int
	backoff           time.Duration
	logger            *slog.Logger
}

// ensure creates topic when no partitions can be read for it
func (p topicProvisioner) ensure(topic string) error {
	var lastErr error
	for attempt := 1; attempt <= p.readAttempts; attempt++ {
		partitions, err := p.admin.ReadPartitions(topic)
		if err == nil && len(partitions) > 0 {
			p.logger.Debug("Kafka topic exists", "topic", topic, "partitions", len(partitions))
			return nil
		}
		if errors.Is(err, kafka.UnknownTopicOrPartition) {
			lastErr = err
			break
		}
		lastErr = err
		p.logger.Warn("Failed to read partitions, retrying", "topic", topic, "attempt", attempt, "error", err)
		time.Sleep(p.backoff)
	}

	p.logger.Info("Creating Kafka topic", "topic", topic, "last_read_error", lastErr)
	topicConfig := kafka.TopicConfig{
		Topic:             topic,
		NumPartitions:     max(p.numPartitions, 1),
		ReplicationFactor: max(p.replicationFactor, 1),
	}
	if err := p.admin.CreateTopics(topicConfig); err != nil && !errors.Is(err, kafka.TopicAlreadyExists) {
		return fmt.Errorf("failed to create kafka topic %s: %w", topic, err)
	}
	return nil
}

// ensureTopic dials the first broker and provisions topic
func ensureTopic(cfg *config.KafkaConfig, topic string, logger *slog.Logger) error {
	brokers := cfg.BrokerList()
	if len(brokers) == 0 {
		return errors.New("no kafka brokers configured")
	}
	conn, err := kafka.Dial("tcp", brokers[0])
	if err != nil {
		return fmt.Errorf("failed to dial kafka: %w", err)
	}
	defer conn.Close()

	return topicProvisioner{
		admin:             conn,
		numPartitions:     cfg.NumPartitions,
		replicationFactor: cfg.ReplicationFactor,
		readAttempts:      5,
		backoff:           2 * time.Second,
		logger:            logger,
	}.ensure(topic)
}

// newSyncWriter builds a writer that returns only once the brokers acknowledged.
// Messages are partitioned by key.
func newSyncWriter(cfg *config.KafkaConfig, topic string) *kafka.Writer {
	return &kafka.Writer{
		Addr:         kafka.TCP(cfg.BrokerList()...),
		Topic:        topic,
		Balancer:     &kafka.Hash{},
		RequiredAcks: kafka.RequireAll,
		WriteTimeout: cfg.MaxWait,
	}
}

// topicWriter is the part every producer shares: one synchronous writer bound to one topic
type topicWriter struct {
	logger *slog.Logger
	writer KafkaWriter
	topic  string
}

// openTopicWriter provisions topic and returns a writer for it
func openTopicWriter(logger *slog.Logger, cfg *config.KafkaConfig, topic string) (topicWriter, error) {
	if err := ensureTopic(cfg, topic, logger); err != nil {
		return topicWriter{}, fmt.Errorf("failed to ensure topic %s exists: %w", topic, err)
	}
	return topicWriter{logger: logger, writer: newSyncWriter(cfg, topic), topic: topic}, nil
}

func (w topicWriter) publish(ctx context.Context, msg kafka.Message) error {
	if err := w.writer.WriteMessages(ctx, msg); err != nil {
		w.logger.Error("Kafka write failed", "topic", w.topic, "key", string(msg.Key), "error", err)
		return fmt.Errorf("failed to publish to %s: %w", w.topic, err)
	}
	return nil
}

func (w topicWriter) Close() error {
	w.logger.Info("Closing kafka producer", "topic", w.topic)
	if err := w.writer.Close(); err != nil {
		return fmt.Errorf("failed to close kafka writer for topic %s: %w", w.topic, err)
	}
	return nil
}
