package components

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/banking-ledger-core/internal/domain/ledger"
	"github.com/banking-ledger-core/internal/domain/outbox"
	"github.com/banking-ledger-core/internal/transaction_processor/service"
	"github.com/jackc/pgx/v5"
)

type OutboxManagerImpl struct {
	outboxRepo outbox.Repository
	logger     *slog.Logger
}

func NewOutboxManager(outboxRepo outbox.Repository, logger *slog.Logger) service.OutboxManager {
	return &OutboxManagerImpl{
		outboxRepo: outboxRepo,
		logger:     logger,
	}
}

// Record queues one outbox message per ledger snapshot inside tx
func (m *OutboxManagerImpl) Record(ctx context.Context, tx pgx.Tx, entries ...*ledger.Entry) error {
	outboxRepoTx := m.outboxRepo.WithTx(tx)

	for _, entry := range entries {
		msg, err := outbox.NewMessage(entry)
		if err != nil {
			return fmt.Errorf("failed to create outbox message payload for tx %s: %w", entry.TransactionID, err)
		}
		if err := outboxRepoTx.Create(ctx, msg); err != nil {
			m.logger.Error("Failed to create outbox message",
				"transaction_id", entry.TransactionID.String(),
				"status", string(entry.Status),
				"error", err,
			)
			return fmt.Errorf("failed to create outbox message for tx %s: %w", entry.TransactionID, err)
		}
		m.logger.Debug("Outbox message created",
			"transaction_id", entry.TransactionID.String(),
			"status", string(entry.Status),
			"outbox_id", msg.ID,
		)
	}
	return nil
}
