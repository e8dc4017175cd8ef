package components

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/banking-ledger-core/internal/domain/transaction"
	"github.com/banking-ledger-core/internal/transaction_processor/service"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

type TransactionValidatorImpl struct {
	txRepo transaction.Repository
	logger *slog.Logger
}

func NewTransactionValidator(txRepo transaction.Repository, logger *slog.Logger) service.TransactionValidator {
	return &TransactionValidatorImpl{
		txRepo: txRepo,
		logger: logger,
	}
}

// Validate locks the transaction row and checks that it can still be processed.
// A settled transaction is returned together with service.ErrNotPending.
func (v *TransactionValidatorImpl) Validate(ctx context.Context, tx pgx.Tx, id uuid.UUID) (*transaction.Transaction, transaction.Movement, error) {
	txn, err := v.txRepo.WithTx(tx).LockForUpdate(ctx, id)
	if err != nil {
		if errors.Is(err, transaction.ErrTransactionNotFound{TransactionID: id}) {
			return nil, nil, err
		}
		return nil, nil, fmt.Errorf("failed to lock transaction %s: %w", id, err)
	}

	if txn.Status != transaction.StatusPending {
		v.logger.Info("Transaction already processed (idempotency)", "transaction_id", id.String(), "status", string(txn.Status))
		return txn, nil, service.ErrNotPending
	}

	movement, err := txn.Movement()
	if err != nil {
		v.logger.Warn("Transaction cannot be applied", "transaction_id", id.String(), "error", err)
		return txn, nil, err
	}
	return txn, movement, nil
}
