package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/banking-ledger-core/internal/domain/account"
	"github.com/banking-ledger-core/internal/domain/audit"
	"github.com/banking-ledger-core/internal/domain/shared"
	"github.com/banking-ledger-core/internal/domain/transaction"
	"github.com/banking-ledger-core/internal/domain/upgrade"
	"github.com/banking-ledger-core/internal/platform/messaging/producers"
	processor "github.com/banking-ledger-core/internal/transaction_processor/service"
)

// ErrIdempotencyKeyReused is returned when a key comes back with a different request
var ErrIdempotencyKeyReused = fmt.Errorf("%w: idempotency key already used for another request", shared.ErrValidation)

// TransactionServiceImpl implements the TransactionService interface
type TransactionServiceImpl struct {
	txRepo      transaction.Repository
	accountRepo account.Repository
	publisher   producers.RequestPublisher
	upgrades    processor.UpgradeService
	logger      *slog.Logger
}

// NewTransactionService creates a new transaction service
func NewTransactionService(
	logger *slog.Logger,
	txRepo transaction.Repository,
	accountRepo account.Repository,
	publisher producers.RequestPublisher,
	upgrades processor.UpgradeService,
) TransactionService {
	return &TransactionServiceImpl{
		txRepo:      txRepo,
		accountRepo: accountRepo,
		publisher:   publisher,
		upgrades:    upgrades,
		logger:      logger,
	}
}

// CreateTransaction validates params against the source account, stores the pending
// transaction and publishes a request for the processor. When publishing fails the
// transaction is marked failed so it does not linger as pending.
func (s *TransactionServiceImpl) CreateTransaction(ctx context.Context, params transaction.Params) (*transaction.Transaction, bool, error) {
	logger := s.logger
	if params.CorrelationID != "" {
		logger = s.logger.With("correlation_id", params.CorrelationID)
	}

	if params.IdempotencyKey != "" {
		existing, err := s.txRepo.GetByIdempotencyKey(ctx, params.IdempotencyKey)
		if err != nil {
			return nil, false, err
		}
		if existing != nil {
			return s.replay(logger, existing, params)
		}
	}

	acc, err := s.accountRepo.GetByID(ctx, params.AccountID)
	if err != nil {
		return nil, false, err
	}
	if acc.UserID != params.UserID {
		return nil, false, account.ErrAccountNotFound{AccountID: params.AccountID}
	}
	if params.Currency == "" {
		params.Currency = acc.Currency
	}

	txn, err := transaction.NewTransaction(params)
	if err != nil {
		return nil, false, err
	}

	if err := s.txRepo.Create(ctx, txn); err != nil {
		var duplicate transaction.ErrDuplicateIdempotencyKey
		if errors.As(err, &duplicate) {
			// lost a race against a retry carrying the same key
			existing, getErr := s.txRepo.GetByIdempotencyKey(ctx, params.IdempotencyKey)
			if getErr == nil && existing != nil {
				return s.replay(logger, existing, params)
			}
		}
		return nil, false, fmt.Errorf("failed to create transaction: %w", err)
	}

	request := &shared.TransactionRequest{
		TransactionID:  txn.ID,
		AccountID:      txn.AccountID,
		IdempotencyKey: txn.IdempotencyKey,
		CorrelationID:  txn.CorrelationID,
		ClientIP:       audit.ClientIPFromContext(ctx),
		Timestamp:      time.Now().UTC(),
	}
	if err := s.publisher.PublishRequest(ctx, request); err != nil {
		logger.Error("Failed to publish transaction request",
			"transaction_id", txn.ID.String(),
			"account_id", txn.AccountID.String(),
			"error", err,
		)
		if settled := s.markPublishFailed(ctx, logger, txn); settled != nil {
			return settled, false, nil
		}
		return nil, false, fmt.Errorf("failed to publish transaction %s: %w", txn.ID, err)
	}

	logger.Info("Transaction request published",
		"transaction_id", txn.ID.String(),
		"account_id", txn.AccountID.String(),
		"transaction_type", string(txn.Type),
		"amount", shared.FormatMoney(txn.Amount),
	)
	return txn, false, nil
}

func (s *TransactionServiceImpl) replay(logger *slog.Logger, existing *transaction.Transaction, params transaction.Params) (*transaction.Transaction, bool, error) {
	if !sameRequest(existing, params) {
		return nil, false, ErrIdempotencyKeyReused
	}
	logger.Info("Found existing transaction with idempotency key",
		"idempotency_key", params.IdempotencyKey,
		"transaction_id", existing.ID.String(),
		"status", string(existing.Status),
	)
	return existing, true, nil
}

// sameRequest reports whether params asks for the transaction existing already records
func sameRequest(existing *transaction.Transaction, params transaction.Params) bool {
	if existing.UserID != params.UserID || existing.AccountID != params.AccountID || existing.Type != params.Type {
		return false
	}
	if !existing.Amount.Equal(params.Amount) {
		return false
	}
	switch {
	case existing.RecipientAccountID == nil && params.RecipientAccountID == nil:
		return true
	case existing.RecipientAccountID == nil || params.RecipientAccountID == nil:
		return false
	default:
		return *existing.RecipientAccountID == *params.RecipientAccountID
	}
}

// markPublishFailed fails txn unless the processor settled it first. A write can report
// an error after the broker took the message, so a settled row wins and is returned.
func (s *TransactionServiceImpl) markPublishFailed(ctx context.Context, logger *slog.Logger, txn *transaction.Transaction) *transaction.Transaction {
	failed := *txn
	if err := failed.Fail(shared.FailureReasonPublishFailed); err != nil {
		return nil
	}
	marked, err := s.txRepo.FailPending(ctx, &failed)
	if err != nil {
		logger.Error("Failed to mark unpublished transaction as failed", "transaction_id", txn.ID.String(), "error", err)
		return nil
	}
	if marked {
		return nil
	}

	current, err := s.txRepo.GetByID(ctx, txn.ID)
	if err != nil {
		logger.Error("Failed to reload settled transaction", "transaction_id", txn.ID.String(), "error", err)
		return nil
	}
	logger.Warn("Transaction was settled despite the publish error",
		"transaction_id", txn.ID.String(),
		"status", string(current.Status),
	)
	return current
}

// GetTransaction hides transactions of other users behind ErrTransactionNotFound
func (s *TransactionServiceImpl) GetTransaction(ctx context.Context, transactionID, userID uuid.UUID) (*transaction.Transaction, error) {
	txn, err := s.txRepo.GetByID(ctx, transactionID)
	if err != nil {
		return nil, err
	}
	if txn.UserID != userID {
		return nil, transaction.ErrTransactionNotFound{TransactionID: transactionID}
	}
	return txn, nil
}

func (s *TransactionServiceImpl) RequestLimitUpgrade(ctx context.Context, accountID, userID uuid.UUID, dailyLimit, maxSingle decimal.Decimal, reason string) (*upgrade.Request, error) {
	return s.upgrades.Request(ctx, accountID, userID, dailyLimit, maxSingle, reason)
}
