package service

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/banking-ledger-core/internal/domain/account"
	"github.com/banking-ledger-core/internal/domain/audit"
	"github.com/banking-ledger-core/internal/domain/ledger"
	"github.com/banking-ledger-core/internal/domain/notification"
	"github.com/banking-ledger-core/internal/domain/shared"
	"github.com/banking-ledger-core/internal/domain/transaction"
	"github.com/banking-ledger-core/internal/platform/metrics"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

var ErrNotReversible = fmt.Errorf("%w: only successful transactions can be reversed", shared.ErrInvalidState)

// Reversal is the result of undoing a transaction
type Reversal struct {
	Transaction *transaction.Transaction
	CreditLeg   *transaction.Transaction
	Accounts    map[uuid.UUID]*account.Account
}

// ReversalService undoes successful transactions
type ReversalService interface {
	Reverse(ctx context.Context, transactionID uuid.UUID, adminID uuid.UUID) (*Reversal, error)
}

type ReversalServiceImpl struct {
	uow            UnitOfWork
	txRepo         transaction.Repository
	accountManager AccountManager
	outboxManager  OutboxManager
	dispatcher     Dispatcher
	metrics        *metrics.Metrics
	logger         *slog.Logger
}

func NewReversalService(
	uow UnitOfWork,
	txRepo transaction.Repository,
	accountManager AccountManager,
	outboxManager OutboxManager,
	dispatcher Dispatcher,
	m *metrics.Metrics,
	logger *slog.Logger,
) ReversalService {
	return &ReversalServiceImpl{
		uow:            uow,
		txRepo:         txRepo,
		accountManager: accountManager,
		outboxManager:  outboxManager,
		dispatcher:     dispatcher,
		metrics:        m,
		logger:         logger,
	}
}

// Reverse applies the inverse of a successful transaction without balance checks and
// marks it reversed. The id of a transfer's credit leg resolves to the whole transfer.
func (s *ReversalServiceImpl) Reverse(ctx context.Context, transactionID uuid.UUID, adminID uuid.UUID) (*Reversal, error) {
	logger := s.logger.With("transaction_id", transactionID.String(), "admin_id", adminID.String())

	var result *Reversal
	err := s.uow.ExecuteTx(ctx, func(tx pgx.Tx) error {
		txRepo := s.txRepo.WithTx(tx)

		debitID := transactionID
		requested, err := txRepo.GetByID(ctx, transactionID)
		if err != nil {
			return err
		}
		if requested.IsCreditLeg() {
			debitID = *requested.ParentID
		}

		debit, err := txRepo.LockForUpdate(ctx, debitID)
		if err != nil {
			return err
		}
		if debit.Status != transaction.StatusSuccess {
			return fmt.Errorf("%w (status %s)", ErrNotReversible, debit.Status)
		}

		movement, err := debit.Movement()
		if err != nil {
			return err
		}

		var credit *transaction.Transaction
		if _, ok := movement.(transaction.Transfer); ok {
			if credit, err = txRepo.GetCreditLeg(ctx, debit.ID); err != nil {
				return err
			}
		}

		accounts, err := s.accountManager.Lock(ctx, tx, movement, debit.Currency)
		if err != nil {
			return err
		}
		if err := s.accountManager.Reverse(ctx, tx, movement, accounts); err != nil {
			return err
		}

		entries := make([]*ledger.Entry, 0, 2)
		for _, leg := range []*transaction.Transaction{debit, credit} {
			if leg == nil {
				continue
			}
			if err := leg.Transition(transaction.StatusReversed); err != nil {
				return err
			}
			if err := txRepo.Update(ctx, leg); err != nil {
				return fmt.Errorf("failed to update transaction: %w", err)
			}
			var counterparty *uuid.UUID
			if leg.IsCreditLeg() {
				counterparty = &debit.AccountID
			}
			entries = append(entries, ledger.FromTransaction(leg, counterparty))
		}

		if err := s.outboxManager.Record(ctx, tx, entries...); err != nil {
			return err
		}

		result = &Reversal{Transaction: debit, CreditLeg: credit, Accounts: accounts}
		return nil
	})
	if err != nil {
		if shared.IsRejection(err) {
			logger.Warn("Reversal rejected", "error", err)
			return nil, err
		}
		logger.Error("Reversal failed", "error", err)
		return nil, fmt.Errorf("failed to reverse transaction %s: %w", transactionID, err)
	}

	logger.Info("Transaction reversed", "reversed_id", result.Transaction.ID.String())
	s.metrics.IncReversals()
	s.dispatch(ctx, result, adminID)
	return result, nil
}

func (s *ReversalServiceImpl) dispatch(ctx context.Context, r *Reversal, adminID uuid.UUID) {
	debit := r.Transaction
	s.dispatcher.Notify(ctx, notification.Reversed(debit, r.Accounts[debit.AccountID].Balance))
	if r.CreditLeg != nil {
		s.dispatcher.Notify(ctx, notification.Reversed(r.CreditLeg, r.Accounts[r.CreditLeg.AccountID].Balance))
	}

	s.dispatcher.Audit(ctx, audit.NewEvent(ctx, adminID, audit.ActionTransactionReversed, map[string]any{
		"transaction_id": debit.ID.String(),
		"account_id":     debit.AccountID.String(),
		"type":           string(debit.Type),
		"amount":         shared.FormatMoney(debit.Amount),
	}))
}
