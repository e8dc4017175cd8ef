package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/banking-ledger-core/internal/domain/account"
	"github.com/banking-ledger-core/internal/domain/audit"
	"github.com/banking-ledger-core/internal/domain/fraud"
	"github.com/banking-ledger-core/internal/domain/ledger"
	"github.com/banking-ledger-core/internal/domain/notification"
	"github.com/banking-ledger-core/internal/domain/shared"
	"github.com/banking-ledger-core/internal/domain/transaction"
	"github.com/banking-ledger-core/internal/platform/metrics"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// Outcome is the result of running a transaction through the engine
type Outcome struct {
	Transaction *transaction.Transaction
	// CreditLeg is the recipient-side record of a successful transfer
	CreditLeg *transaction.Transaction
	// Flagged is set when the screener held the transaction for review
	Flagged *fraud.FlaggedTransaction
	// Accounts holds the post-commit state of every account touched
	Accounts map[uuid.UUID]*account.Account
	// Replayed is true when the transaction had already been settled earlier
	Replayed bool
}

// Status of the processed transaction
func (o *Outcome) Status() transaction.Status {
	return o.Transaction.Status
}

// FlagReason is the screener's reason, or "" when the transaction was not flagged
func (o *Outcome) FlagReason() string {
	if o.Flagged == nil {
		return ""
	}
	return o.Flagged.Reason
}

// Engine runs pending transactions to a terminal status
type Engine interface {
	ProcessingService
	Process(ctx context.Context, transactionID uuid.UUID) (*Outcome, error)
}

type ProcessingServiceImpl struct {
	uow             UnitOfWork
	txRepo          transaction.Repository
	flaggedRepo     fraud.Repository
	validator       TransactionValidator
	accountManager  AccountManager
	screener        Screener
	outboxManager   OutboxManager
	failureRecorder FailureRecorder
	dispatcher      Dispatcher
	metrics         *metrics.Metrics
	logger          *slog.Logger
}

// EngineDeps groups the collaborators of the transaction engine
type EngineDeps struct {
	UnitOfWork      UnitOfWork
	Transactions    transaction.Repository
	Flagged         fraud.Repository
	Validator       TransactionValidator
	AccountManager  AccountManager
	Screener        Screener
	OutboxManager   OutboxManager
	FailureRecorder FailureRecorder
	Dispatcher      Dispatcher
	Metrics         *metrics.Metrics
}

func NewProcessingService(deps EngineDeps, logger *slog.Logger) Engine {
	return &ProcessingServiceImpl{
		uow:             deps.UnitOfWork,
		txRepo:          deps.Transactions,
		flaggedRepo:     deps.Flagged,
		validator:       deps.Validator,
		accountManager:  deps.AccountManager,
		screener:        deps.Screener,
		outboxManager:   deps.OutboxManager,
		failureRecorder: deps.FailureRecorder,
		dispatcher:      deps.Dispatcher,
		metrics:         deps.Metrics,
		logger:          logger,
	}
}

// ProcessTransaction adapts Process to the consumer: business outcomes and replays
// acknowledge the message, infrastructure failures ask for redelivery.
func (s *ProcessingServiceImpl) ProcessTransaction(ctx context.Context, request *shared.TransactionRequest) error {
	logger := s.logger
	if request.CorrelationID != "" {
		logger = s.logger.With("correlation_id", request.CorrelationID)
	}

	outcome, err := s.Process(ctx, request.TransactionID)
	if err != nil {
		if shared.IsRejection(err) {
			logger.Warn("Transaction rejected", "transaction_id", request.TransactionID.String(), "reason", err)
			return nil
		}
		return err
	}

	logger.Info("Transaction processed",
		"transaction_id", request.TransactionID.String(),
		"status", string(outcome.Status()),
		"replayed", outcome.Replayed,
	)
	return nil
}

// Process locks the transaction and its accounts, screens it, applies the movement
// and records the outcome in one unit of work. A business rejection rolls the unit
// back and marks the transaction failed; the rejection is returned together with the
// failed outcome. Any other error leaves the transaction pending.
func (s *ProcessingServiceImpl) Process(ctx context.Context, transactionID uuid.UUID) (*Outcome, error) {
	start := time.Now()
	logger := s.logger.With("transaction_id", transactionID.String())

	var outcome *Outcome
	var settled *transaction.Transaction
	err := s.uow.ExecuteTx(ctx, func(tx pgx.Tx) error {
		txn, movement, err := s.validator.Validate(ctx, tx, transactionID)
		if err != nil {
			if errors.Is(err, ErrNotPending) {
				settled = txn
			}
			return err
		}
		if txn.CorrelationID != "" {
			logger = logger.With("correlation_id", txn.CorrelationID)
		}

		accounts, err := s.accountManager.Lock(ctx, tx, movement, txn.Currency)
		if err != nil {
			return err
		}
		source := accounts[txn.AccountID]

		reason, err := s.screener.Evaluate(ctx, tx, txn, source)
		if err != nil {
			return err
		}
		if reason != "" {
			outcome, err = s.flag(ctx, tx, txn, source, reason)
			return err
		}

		outcome, err = s.apply(ctx, tx, txn, movement, accounts)
		return err
	})

	switch {
	case err == nil:
		logger.Info("Transaction settled", "status", string(outcome.Status()), "flag_reason", outcome.FlagReason())
		s.metrics.ObserveTransaction(string(outcome.Transaction.Type), string(outcome.Status()), time.Since(start))
		s.dispatchOutcome(ctx, outcome)
		return outcome, nil

	case errors.Is(err, ErrNotPending) && settled != nil:
		logger.Info("Transaction already settled, skipping", "status", string(settled.Status))
		return &Outcome{Transaction: settled, Replayed: true}, nil

	case errors.Is(err, transaction.ErrTransactionNotFound{}):
		logger.Warn("Transaction to process does not exist")
		return nil, err

	case shared.IsRejection(err):
		logger.Warn("Transaction rejected, recording failure", "error", err)
		failed, recErr := s.failureRecorder.RecordFailure(ctx, transactionID, shared.FailureReasonFor(err))
		if recErr != nil {
			logger.Error("Failed to record transaction failure", "error", recErr, "rejection", err)
			return nil, fmt.Errorf("failed to record failure of transaction %s: %w", transactionID, recErr)
		}
		s.metrics.ObserveTransaction(string(failed.Type), string(failed.Status), time.Since(start))
		s.dispatcher.Audit(ctx, audit.NewEvent(ctx, failed.UserID, audit.ActionTransactionFailed, map[string]any{
			"transaction_id": failed.ID.String(),
			"account_id":     failed.AccountID.String(),
			"amount":         shared.FormatMoney(failed.Amount),
			"reason":         string(failed.FailureReason),
		}))
		return &Outcome{Transaction: failed}, err

	default:
		logger.Error("Transaction processing failed, leaving it pending", "error", err)
		return nil, fmt.Errorf("failed to process transaction %s: %w", transactionID, err)
	}
}

// flag holds txn for review and marks the source account
func (s *ProcessingServiceImpl) flag(ctx context.Context, tx pgx.Tx, txn *transaction.Transaction, source *account.Account, reason string) (*Outcome, error) {
	if err := txn.Transition(transaction.StatusFlagged); err != nil {
		return nil, err
	}
	if err := s.txRepo.WithTx(tx).Update(ctx, txn); err != nil {
		return nil, fmt.Errorf("failed to update transaction: %w", err)
	}

	flagged := fraud.NewFlaggedTransaction(txn.ID, source.ID, reason)
	if err := s.flaggedRepo.WithTx(tx).Create(ctx, flagged); err != nil {
		return nil, fmt.Errorf("failed to create flagged transaction: %w", err)
	}

	source.MarkFlagged()
	if err := s.accountManager.Save(ctx, tx, source); err != nil {
		return nil, err
	}

	if err := s.outboxManager.Record(ctx, tx, ledger.FromTransaction(txn, nil)); err != nil {
		return nil, err
	}

	return &Outcome{
		Transaction: txn,
		Flagged:     flagged,
		Accounts:    map[uuid.UUID]*account.Account{source.ID: source},
	}, nil
}

// apply performs the movement; a transfer also gets its credit leg
func (s *ProcessingServiceImpl) apply(
	ctx context.Context,
	tx pgx.Tx,
	txn *transaction.Transaction,
	movement transaction.Movement,
	accounts map[uuid.UUID]*account.Account,
) (*Outcome, error) {
	if err := s.accountManager.Apply(ctx, tx, movement, accounts); err != nil {
		return nil, err
	}

	if err := txn.Transition(transaction.StatusSuccess); err != nil {
		return nil, err
	}
	txRepo := s.txRepo.WithTx(tx)
	if err := txRepo.Update(ctx, txn); err != nil {
		return nil, fmt.Errorf("failed to update transaction: %w", err)
	}

	outcome := &Outcome{Transaction: txn, Accounts: accounts}
	entries := []*ledger.Entry{ledger.FromTransaction(txn, nil)}

	if transfer, ok := movement.(transaction.Transfer); ok {
		credit := transaction.NewCreditLeg(txn, accounts[transfer.To].UserID)
		if err := txRepo.Create(ctx, credit); err != nil {
			return nil, fmt.Errorf("failed to create credit leg: %w", err)
		}
		outcome.CreditLeg = credit
		entries = append(entries, ledger.FromTransaction(credit, &transfer.From))
	}

	if err := s.outboxManager.Record(ctx, tx, entries...); err != nil {
		return nil, err
	}
	return outcome, nil
}

func (s *ProcessingServiceImpl) dispatchOutcome(ctx context.Context, o *Outcome) {
	txn := o.Transaction
	metadata := map[string]any{
		"transaction_id": txn.ID.String(),
		"account_id":     txn.AccountID.String(),
		"amount":         shared.FormatMoney(txn.Amount),
		"currency":       txn.Currency,
	}

	if o.Flagged != nil {
		metadata["reason"] = o.Flagged.Reason
		s.dispatcher.Notify(ctx, notification.Flagged(txn, o.Flagged.Reason))
		s.dispatcher.Audit(ctx, audit.NewEvent(ctx, txn.UserID, audit.ActionFlaggedTransaction, metadata))
		return
	}

	source := o.Accounts[txn.AccountID]
	s.dispatcher.Notify(ctx, notification.ForTransaction(txn, source.Balance))
	if o.CreditLeg != nil {
		recipient := o.Accounts[o.CreditLeg.AccountID]
		s.dispatcher.Notify(ctx, notification.ForTransaction(o.CreditLeg, recipient.Balance))
		metadata["recipient_account_id"] = o.CreditLeg.AccountID.String()
	}
	s.dispatcher.Audit(ctx, audit.NewEvent(ctx, txn.UserID, string(txn.Type), metadata))
}
