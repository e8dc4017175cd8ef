package outbox_poller

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/banking-ledger-core/internal/domain/ledger"
	"github.com/banking-ledger-core/internal/domain/outbox"
	"github.com/banking-ledger-core/internal/domain/shared"
)

// ErrUndecodablePayload marks a message that can never be published
var ErrUndecodablePayload = errors.New("undecodable outbox payload")

// LedgerPublisher projects outbox messages into the ledger history
type LedgerPublisher interface {
	PublishToLedger(ctx context.Context, message *outbox.Message) error
}

type ledgerPublisher struct {
	outboxRepo outbox.Repository
	ledgerRepo ledger.Repository
	logger     *slog.Logger
}

func NewLedgerPublisher(outboxRepo outbox.Repository, ledgerRepo ledger.Repository, logger *slog.Logger) LedgerPublisher {
	return &ledgerPublisher{outboxRepo: outboxRepo, ledgerRepo: ledgerRepo, logger: logger}
}

// PublishToLedger upserts the snapshot carried by message, then marks the message
// processed. A message published twice upserts the same snapshot twice, which is harmless.
func (p *ledgerPublisher) PublishToLedger(ctx context.Context, message *outbox.Message) error {
	logger := p.logger.With("outbox_id", message.ID, "transaction_id", message.TransactionID.String())

	entry, err := message.Entry()
	if err != nil {
		logger.Error("Outbox payload is not a ledger entry, giving up on it", "error", err)
		if markErr := p.outboxRepo.UpdateStatus(ctx, message.ID, shared.OutboxStatusFailedToPublish); markErr != nil {
			logger.Error("Failed to mark undecodable outbox message", "error", markErr)
		}
		return fmt.Errorf("%w: outbox %d: %v", ErrUndecodablePayload, message.ID, err)
	}
	if entry.CorrelationID != "" {
		logger = logger.With("correlation_id", entry.CorrelationID)
	}

	if err := p.ledgerRepo.Upsert(ctx, entry); err != nil {
		return fmt.Errorf("failed to upsert ledger entry %s: %w", entry.TransactionID, err)
	}
	if err := p.outboxRepo.UpdateStatus(ctx, message.ID, shared.OutboxStatusProcessed); err != nil {
		// the next poll publishes the same snapshot again
		return fmt.Errorf("ledger entry %s written but failed to mark outbox %d processed: %w", entry.TransactionID, message.ID, err)
	}

	logger.Info("Ledger entry projected", "status", string(entry.Status), "flow", string(entry.Flow))
	return nil
}
