// Package postgres provides PostgreSQL implementations of the domain repositories.
// Every repository can be rebound to a pgx.Tx with WithTx so that a whole ledger
// operation commits or rolls back as one unit.
package postgres

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/banking-ledger-core/internal/domain/account"
	"github.com/banking-ledger-core/internal/platform/persistence"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

const accountColumns = `id, user_id, balance, currency, min_balance, max_balance,
		daily_transfer_limit, max_single_transfer_amount, flagged, version, created_at, updated_at`

const (
	selectAccountSQL = `SELECT ` + accountColumns + ` FROM accounts WHERE id = $1`
	lockAccountSQL   = selectAccountSQL + ` FOR UPDATE`

	insertAccountSQL = `INSERT INTO accounts (` + accountColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`

	// the WHERE clause compares against the version the caller started from
	updateAccountSQL = `UPDATE accounts
		SET balance = $1, min_balance = $2, max_balance = $3, daily_transfer_limit = $4,
			max_single_transfer_amount = $5, flagged = $6, version = $7, updated_at = $8
		WHERE id = $9 AND version = $10`
)

// AccountRepository stores accounts in PostgreSQL
type AccountRepository struct {
	querier persistence.Querier // *pgxpool.Pool or pgx.Tx
	logger  *slog.Logger
}

func NewAccountRepository(logger *slog.Logger, db *persistence.PostgresDB) account.Repository {
	return &AccountRepository{querier: db.Pool(), logger: logger}
}

// WithTx returns a repository bound to tx
func (r *AccountRepository) WithTx(tx pgx.Tx) account.Repository {
	return &AccountRepository{querier: tx, logger: r.logger}
}

func (r *AccountRepository) Create(ctx context.Context, acc *account.Account) error {
	_, err := r.querier.Exec(ctx, insertAccountSQL,
		acc.ID, acc.UserID, acc.Balance, acc.Currency,
		acc.MinBalance, acc.MaxBalance, acc.DailyTransferLimit, acc.MaxSingleTransferAmount,
		acc.Flagged, acc.Version, acc.CreatedAt, acc.UpdatedAt,
	)
	if err != nil {
		r.logger.Error("Account insert failed", "account_id", acc.ID.String(), "user_id", acc.UserID.String(), "error", err)
		return fmt.Errorf("failed to create account: %w", err)
	}
	return nil
}

func (r *AccountRepository) GetByID(ctx context.Context, id uuid.UUID) (*account.Account, error) {
	return r.fetch(ctx, selectAccountSQL, id, "get")
}

// LockForUpdate reads the account with FOR UPDATE. Outside a transaction the lock
// is released as soon as the statement ends.
func (r *AccountRepository) LockForUpdate(ctx context.Context, id uuid.UUID) (*account.Account, error) {
	return r.fetch(ctx, lockAccountSQL, id, "lock")
}

// Update writes the mutable state of acc. The row must still carry version
// acc.Version-1, otherwise ErrConcurrentModification is returned.
func (r *AccountRepository) Update(ctx context.Context, acc *account.Account) error {
	tag, err := r.querier.Exec(ctx, updateAccountSQL,
		acc.Balance, acc.MinBalance, acc.MaxBalance, acc.DailyTransferLimit, acc.MaxSingleTransferAmount,
		acc.Flagged, acc.Version, acc.UpdatedAt,
		acc.ID, acc.Version-1,
	)
	if err != nil {
		r.logger.Error("Account update failed", "account_id", acc.ID.String(), "version", acc.Version, "error", err)
		return fmt.Errorf("failed to update account: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return account.ErrConcurrentModification{AccountID: acc.ID}
	}
	return nil
}

func (r *AccountRepository) fetch(ctx context.Context, query string, id uuid.UUID, op string) (*account.Account, error) {
	var acc account.Account
	err := r.querier.QueryRow(ctx, query, id).Scan(
		&acc.ID, &acc.UserID, &acc.Balance, &acc.Currency,
		&acc.MinBalance, &acc.MaxBalance, &acc.DailyTransferLimit, &acc.MaxSingleTransferAmount,
		&acc.Flagged, &acc.Version, &acc.CreatedAt, &acc.UpdatedAt,
	)
	switch {
	case errors.Is(err, pgx.ErrNoRows):
		return nil, account.ErrAccountNotFound{AccountID: id}
	case err != nil:
		r.logger.Error("Account read failed", "op", op, "account_id", id.String(), "error", err)
		return nil, fmt.Errorf("failed to %s account %s: %w", op, id, err)
	}
	return &acc, nil
}
