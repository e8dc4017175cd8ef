package consumer

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/segmentio/kafka-go"

	"github.com/banking-ledger-core/internal/domain/audit"
	"github.com/banking-ledger-core/internal/domain/shared"
	"github.com/banking-ledger-core/internal/platform/messaging/producers"
	"github.com/banking-ledger-core/internal/transaction_processor/service"
)

var errMissingTransactionID = errors.New("transaction request has no transaction_id")

// TransactionEventHandler turns transaction request messages into processing calls
type TransactionEventHandler struct {
	processor service.ProcessingService
	dlq       producers.DeadLetterPublisher
	logger    *slog.Logger
}

// NewTransactionEventHandler creates a new handler. dlq may be nil.
func NewTransactionEventHandler(
	logger *slog.Logger,
	processor service.ProcessingService,
	dlq producers.DeadLetterPublisher,
) *TransactionEventHandler {
	return &TransactionEventHandler{processor: processor, dlq: dlq, logger: logger}
}

// HandleMessage processes one Kafka message. A returned error asks the consumer to try
// the message again; messages that cannot be decoded are parked on the DLQ instead.
func (h *TransactionEventHandler) HandleMessage(ctx context.Context, msg kafka.Message) error {
	request, err := decodeRequest(msg)
	if err != nil {
		return h.park(ctx, msg, err)
	}

	logger := h.logger.With(
		"transaction_id", request.TransactionID.String(),
		"correlation_id", request.CorrelationID,
	)
	logger.Debug("Received transaction request", "account_id", request.AccountID.String(), "offset", msg.Offset)

	ctx = audit.WithClientIP(ctx, request.ClientIP)
	if err := h.processor.ProcessTransaction(ctx, request); err != nil {
		logger.Error("Failed to process transaction", "error", err)
		return fmt.Errorf("processing transaction %s failed: %w", request.TransactionID, err)
	}
	return nil
}

// decodeRequest reads the request body. The correlation-id header fills in for a body
// that carries none.
func decodeRequest(msg kafka.Message) (*shared.TransactionRequest, error) {
	var request shared.TransactionRequest
	if err := json.Unmarshal(msg.Value, &request); err != nil {
		return nil, fmt.Errorf("failed to unmarshal transaction request: %w", err)
	}
	if request.TransactionID == uuid.Nil {
		return nil, errMissingTransactionID
	}
	if request.CorrelationID == "" {
		for _, h := range msg.Headers {
			if h.Key == producers.HeaderCorrelationID {
				request.CorrelationID = string(h.Value)
			}
		}
	}
	return &request, nil
}

// park dead-letters a message that will never decode. Without a working DLQ the decode
// error is returned so the consumer keeps its own retry and DLQ accounting.
func (h *TransactionEventHandler) park(ctx context.Context, msg kafka.Message, decodeErr error) error {
	h.logger.Error("Undecodable transaction request",
		"message_key", string(msg.Key),
		"partition", msg.Partition,
		"offset", msg.Offset,
		"error", decodeErr,
	)
	if h.dlq == nil {
		return decodeErr
	}
	if err := h.dlq.PublishToDLQ(ctx, msg, decodeErr.Error()); err != nil {
		h.logger.Error("Failed to publish undecodable message to DLQ", "dlq_error", err)
		return decodeErr
	}
	return nil
}
