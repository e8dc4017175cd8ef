package components

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"

	"github.com/banking-ledger-core/internal/domain/account"
	"github.com/banking-ledger-core/internal/domain/shared"
	"github.com/banking-ledger-core/internal/domain/transaction"
	"github.com/banking-ledger-core/internal/transaction_processor/service"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// AccountManagerImpl locks accounts and applies movements to them
type AccountManagerImpl struct {
	accountRepo account.Repository
	logger      *slog.Logger
}

// NewAccountManager creates a new AccountManagerImpl
func NewAccountManager(accountRepo account.Repository, logger *slog.Logger) service.AccountManager {
	return &AccountManagerImpl{
		accountRepo: accountRepo,
		logger:      logger,
	}
}

// Lock acquires row locks on every account of m in ascending ID order and checks that
// each holds currency.
func (am *AccountManagerImpl) Lock(ctx context.Context, tx pgx.Tx, m transaction.Movement, currency string) (map[uuid.UUID]*account.Account, error) {
	accountRepoTx := am.accountRepo.WithTx(tx)

	ids := append([]uuid.UUID(nil), m.Accounts()...)
	sort.Slice(ids, func(i, j int) bool { return bytes.Compare(ids[i][:], ids[j][:]) < 0 })

	locked := make(map[uuid.UUID]*account.Account, len(ids))
	for _, id := range ids {
		acc, err := accountRepoTx.LockForUpdate(ctx, id)
		if err != nil {
			if errors.Is(err, account.ErrAccountNotFound{AccountID: id}) {
				am.logger.Warn("Account not found for lock", "account_id", id.String())
				return nil, err
			}
			return nil, fmt.Errorf("failed to lock account %s: %w", id, err)
		}
		if acc.Currency != currency {
			am.logger.Warn("Currency mismatch", "account_id", id.String(), "account_currency", acc.Currency, "currency", currency)
			return nil, fmt.Errorf("%w: account %s holds %s, transaction is in %s", shared.ErrCurrencyMismatch, id, acc.Currency, currency)
		}
		locked[id] = acc
	}
	return locked, nil
}

// Apply performs the forward movement and persists every touched account
func (am *AccountManagerImpl) Apply(ctx context.Context, tx pgx.Tx, m transaction.Movement, accounts map[uuid.UUID]*account.Account) error {
	switch mv := m.(type) {
	case transaction.Deposit:
		acc := accounts[mv.Account]
		if err := acc.Deposit(mv.Amount); err != nil {
			return err
		}
		return am.Save(ctx, tx, acc)

	case transaction.Withdrawal:
		acc := accounts[mv.Account]
		if err := acc.Withdraw(mv.Amount); err != nil {
			am.logger.Info("Withdrawal refused", "account_id", acc.ID.String(), "balance", acc.Balance.String(), "amount", mv.Amount.String())
			return err
		}
		return am.Save(ctx, tx, acc)

	case transaction.Transfer:
		from, to := accounts[mv.From], accounts[mv.To]
		if err := from.Withdraw(mv.Amount); err != nil {
			am.logger.Info("Transfer refused", "account_id", from.ID.String(), "balance", from.Balance.String(), "amount", mv.Amount.String())
			return err
		}
		if err := to.Deposit(mv.Amount); err != nil {
			return err
		}
		if err := am.Save(ctx, tx, from); err != nil {
			return err
		}
		return am.Save(ctx, tx, to)

	default:
		return fmt.Errorf("%w: unsupported movement %T", shared.ErrValidation, m)
	}
}

// Reverse performs the inverse of m without balance checks
func (am *AccountManagerImpl) Reverse(ctx context.Context, tx pgx.Tx, m transaction.Movement, accounts map[uuid.UUID]*account.Account) error {
	switch mv := m.(type) {
	case transaction.Deposit:
		acc := accounts[mv.Account]
		acc.ForceWithdraw(mv.Amount)
		return am.Save(ctx, tx, acc)

	case transaction.Withdrawal:
		acc := accounts[mv.Account]
		if err := acc.Deposit(mv.Amount); err != nil {
			return err
		}
		return am.Save(ctx, tx, acc)

	case transaction.Transfer:
		from, to := accounts[mv.From], accounts[mv.To]
		to.ForceWithdraw(mv.Amount)
		if err := from.Deposit(mv.Amount); err != nil {
			return err
		}
		if err := am.Save(ctx, tx, from); err != nil {
			return err
		}
		return am.Save(ctx, tx, to)

	default:
		return fmt.Errorf("%w: unsupported movement %T", shared.ErrValidation, m)
	}
}

// Save persists acc. A version conflict is reported as is.
func (am *AccountManagerImpl) Save(ctx context.Context, tx pgx.Tx, acc *account.Account) error {
	if err := am.accountRepo.WithTx(tx).Update(ctx, acc); err != nil {
		if errors.Is(err, account.ErrConcurrentModification{AccountID: acc.ID}) {
			am.logger.Warn("Concurrent modification on account update", "account_id", acc.ID.String())
			return err
		}
		return fmt.Errorf("failed to update account %s: %w", acc.ID, err)
	}
	return nil
}
