package producers

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/segmentio/kafka-go"

	"github.com/banking-ledger-core/internal/config"
	"github.com/banking-ledger-core/internal/domain/shared"
)

// TransactionRequestProducer publishes transaction requests keyed by source account,
// so requests against one account stay in order on one partition.
type TransactionRequestProducer struct {
	topicWriter
}

func NewTransactionRequestProducer(logger *slog.Logger, cfg *config.KafkaConfig) (*TransactionRequestProducer, error) {
	if cfg.TransactionTopic == "" {
		return nil, fmt.Errorf("kafka transaction topic is not configured")
	}
	w, err := openTopicWriter(logger, cfg, cfg.TransactionTopic)
	if err != nil {
		return nil, err
	}
	return &TransactionRequestProducer{w}, nil
}

func (p *TransactionRequestProducer) PublishRequest(ctx context.Context, request *shared.TransactionRequest) error {
	value, err := json.Marshal(request)
	if err != nil {
		return fmt.Errorf("failed to marshal transaction request: %w", err)
	}

	err = p.publish(ctx, kafka.Message{
		Key:     []byte(request.AccountID.String()),
		Value:   value,
		Headers: []kafka.Header{{Key: HeaderCorrelationID, Value: []byte(request.CorrelationID)}},
	})
	if err != nil {
		return fmt.Errorf("transaction %s: %w", request.TransactionID, err)
	}

	p.logger.Debug("Published transaction request", "topic", p.topic, "transaction_id", request.TransactionID.String())
	return nil
}

var _ RequestPublisher = (*TransactionRequestProducer)(nil)
