package components

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/banking-ledger-core/internal/domain/ledger"
	"github.com/banking-ledger-core/internal/domain/shared"
	"github.com/banking-ledger-core/internal/domain/transaction"
	"github.com/banking-ledger-core/internal/transaction_processor/service"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

type FailureRecorderImpl struct {
	uow           service.UnitOfWork
	txRepo        transaction.Repository
	outboxManager service.OutboxManager
	logger        *slog.Logger
}

func NewFailureRecorder(uow service.UnitOfWork, txRepo transaction.Repository, outboxManager service.OutboxManager, logger *slog.Logger) service.FailureRecorder {
	return &FailureRecorderImpl{
		uow:           uow,
		txRepo:        txRepo,
		outboxManager: outboxManager,
		logger:        logger,
	}
}

// RecordFailure marks a pending transaction failed in its own unit of work. A
// transaction that settled in the meantime is returned unchanged.
func (r *FailureRecorderImpl) RecordFailure(ctx context.Context, id uuid.UUID, reason shared.FailureReason) (*transaction.Transaction, error) {
	var result *transaction.Transaction
	err := r.uow.ExecuteTx(ctx, func(tx pgx.Tx) error {
		txRepo := r.txRepo.WithTx(tx)

		txn, err := txRepo.LockForUpdate(ctx, id)
		if err != nil {
			return err
		}
		result = txn
		if txn.Status != transaction.StatusPending {
			r.logger.Info("Transaction already settled, not recording failure", "transaction_id", id.String(), "status", string(txn.Status))
			return nil
		}

		if err := txn.Fail(reason); err != nil {
			return err
		}
		if err := txRepo.Update(ctx, txn); err != nil {
			return fmt.Errorf("failed to update transaction: %w", err)
		}
		return r.outboxManager.Record(ctx, tx, ledger.FromTransaction(txn, nil))
	})
	if err != nil {
		return nil, err
	}

	r.logger.Info("Recorded failed transaction", "transaction_id", id.String(), "reason", string(reason))
	return result, nil
}
