package postgres

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/banking-ledger-core/internal/domain/transaction"
	"github.com/banking-ledger-core/internal/platform/persistence"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/shopspring/decimal"
)

const transactionColumns = `id, user_id, account_id, recipient_account_id, parent_id, amount, currency,
		type, flow, status, narration, failure_reason, COALESCE(idempotency_key, ''), correlation_id,
		created_at, updated_at`

// uniqueViolation is the PostgreSQL SQLSTATE for unique_violation
const uniqueViolation = "23505"

// TransactionRepository implements the transaction.Repository interface for PostgreSQL
type TransactionRepository struct {
	querier persistence.Querier
	logger  *slog.Logger
}

func NewTransactionRepository(logger *slog.Logger, db *persistence.PostgresDB) transaction.Repository {
	return &TransactionRepository{
		querier: db.Pool(),
		logger:  logger,
	}
}

func (r *TransactionRepository) WithTx(tx pgx.Tx) transaction.Repository {
	return &TransactionRepository{
		querier: tx,
		logger:  r.logger,
	}
}

func scanTransaction(row pgx.Row) (*transaction.Transaction, error) {
	var txn transaction.Transaction
	err := row.Scan(
		&txn.ID,
		&txn.UserID,
		&txn.AccountID,
		&txn.RecipientAccountID,
		&txn.ParentID,
		&txn.Amount,
		&txn.Currency,
		&txn.Type,
		&txn.Flow,
		&txn.Status,
		&txn.Narration,
		&txn.FailureReason,
		&txn.IdempotencyKey,
		&txn.CorrelationID,
		&txn.CreatedAt,
		&txn.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &txn, nil
}

func nullableString(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

// Create inserts txn. A clash on the idempotency key is reported as
// ErrDuplicateIdempotencyKey.
func (r *TransactionRepository) Create(ctx context.Context, txn *transaction.Transaction) error {
	query := `
		INSERT INTO transactions (id, user_id, account_id, recipient_account_id, parent_id, amount, currency,
			type, flow, status, narration, failure_reason, idempotency_key, correlation_id, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16)
	`

	_, err := r.querier.Exec(ctx, query,
		txn.ID,
		txn.UserID,
		txn.AccountID,
		txn.RecipientAccountID,
		txn.ParentID,
		txn.Amount,
		txn.Currency,
		txn.Type,
		txn.Flow,
		txn.Status,
		txn.Narration,
		txn.FailureReason,
		nullableString(txn.IdempotencyKey),
		txn.CorrelationID,
		txn.CreatedAt,
		txn.UpdatedAt,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation && txn.IdempotencyKey != "" {
			return transaction.ErrDuplicateIdempotencyKey{Key: txn.IdempotencyKey}
		}
		r.logger.Error("Failed to create transaction", "transaction_id", txn.ID.String(), "error", err)
		return fmt.Errorf("failed to create transaction: %w", err)
	}

	return nil
}

func (r *TransactionRepository) getOne(ctx context.Context, op string, notFoundID uuid.UUID, query string, args ...interface{}) (*transaction.Transaction, error) {
	txn, err := scanTransaction(r.querier.QueryRow(ctx, query, args...))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, transaction.ErrTransactionNotFound{TransactionID: notFoundID}
		}
		r.logger.Error("Failed to "+op, "id", notFoundID.String(), "error", err)
		return nil, fmt.Errorf("failed to %s: %w", op, err)
	}
	return txn, nil
}

// GetByID retrieves a transaction by its ID
func (r *TransactionRepository) GetByID(ctx context.Context, id uuid.UUID) (*transaction.Transaction, error) {
	query := `
		SELECT ` + transactionColumns + `
		FROM transactions
		WHERE id = $1
	`
	return r.getOne(ctx, "get transaction", id, query, id)
}

// GetByIdempotencyKey returns nil, nil when no transaction owns key
func (r *TransactionRepository) GetByIdempotencyKey(ctx context.Context, key string) (*transaction.Transaction, error) {
	if key == "" {
		return nil, errors.New("idempotency key cannot be empty")
	}
	query := `
		SELECT ` + transactionColumns + `
		FROM transactions
		WHERE idempotency_key = $1
	`

	txn, err := scanTransaction(r.querier.QueryRow(ctx, query, key))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		r.logger.Error("Failed to get transaction by idempotency key", "idempotency_key", key, "error", err)
		return nil, fmt.Errorf("failed to get transaction by idempotency key: %w", err)
	}
	return txn, nil
}

// GetCreditLeg retrieves the recipient-side record of the transfer parentID
func (r *TransactionRepository) GetCreditLeg(ctx context.Context, parentID uuid.UUID) (*transaction.Transaction, error) {
	query := `
		SELECT ` + transactionColumns + `
		FROM transactions
		WHERE parent_id = $1
		FOR UPDATE
	`
	return r.getOne(ctx, "get credit leg", parentID, query, parentID)
}

// LockForUpdate locks the transaction row for the enclosing database transaction
func (r *TransactionRepository) LockForUpdate(ctx context.Context, id uuid.UUID) (*transaction.Transaction, error) {
	query := `
		SELECT ` + transactionColumns + `
		FROM transactions
		WHERE id = $1
		FOR UPDATE
	`
	return r.getOne(ctx, "lock transaction for update", id, query, id)
}

// Update persists the lifecycle fields of txn
func (r *TransactionRepository) Update(ctx context.Context, txn *transaction.Transaction) error {
	query := `
		UPDATE transactions
		SET status = $1, failure_reason = $2, updated_at = $3
		WHERE id = $4
	`

	result, err := r.querier.Exec(ctx, query, txn.Status, txn.FailureReason, txn.UpdatedAt, txn.ID)
	if err != nil {
		r.logger.Error("Failed to update transaction", "transaction_id", txn.ID.String(), "error", err)
		return fmt.Errorf("failed to update transaction: %w", err)
	}

	if result.RowsAffected() == 0 {
		return transaction.ErrTransactionNotFound{TransactionID: txn.ID}
	}
	return nil
}

// FailPending writes the failure only when the row is still pending, so a request the
// processor already settled keeps its outcome
func (r *TransactionRepository) FailPending(ctx context.Context, txn *transaction.Transaction) (bool, error) {
	query := `
		UPDATE transactions
		SET status = $1, failure_reason = $2, updated_at = $3
		WHERE id = $4 AND status = $5
	`

	result, err := r.querier.Exec(ctx, query,
		transaction.StatusFailed, txn.FailureReason, txn.UpdatedAt, txn.ID, transaction.StatusPending)
	if err != nil {
		r.logger.Error("Failed to fail pending transaction", "transaction_id", txn.ID.String(), "error", err)
		return false, fmt.Errorf("failed to fail pending transaction: %w", err)
	}
	return result.RowsAffected() > 0, nil
}

// SumAmountSince totals successful transactions of accountID created at or after since
func (r *TransactionRepository) SumAmountSince(ctx context.Context, accountID uuid.UUID, since time.Time, excludeID uuid.UUID) (decimal.Decimal, error) {
	query := `
		SELECT COALESCE(SUM(amount), 0)
		FROM transactions
		WHERE account_id = $1 AND status = $2 AND created_at >= $3 AND id <> $4
	`

	var total decimal.Decimal
	err := r.querier.QueryRow(ctx, query, accountID, transaction.StatusSuccess, since, excludeID).Scan(&total)
	if err != nil {
		r.logger.Error("Failed to sum transactions", "account_id", accountID.String(), "error", err)
		return decimal.Zero, fmt.Errorf("failed to sum transactions: %w", err)
	}
	return total, nil
}

// AverageAmount returns the mean amount and count of the transactions on accountID
// created before before
func (r *TransactionRepository) AverageAmount(ctx context.Context, accountID uuid.UUID, before time.Time, excludeID uuid.UUID) (decimal.Decimal, int64, error) {
	query := `
		SELECT COALESCE(AVG(amount), 0), COUNT(*)
		FROM transactions
		WHERE account_id = $1 AND created_at < $2 AND id <> $3
	`

	var (
		avg   decimal.Decimal
		count int64
	)
	if err := r.querier.QueryRow(ctx, query, accountID, before, excludeID).Scan(&avg, &count); err != nil {
		r.logger.Error("Failed to average transactions", "account_id", accountID.String(), "error", err)
		return decimal.Zero, 0, fmt.Errorf("failed to average transactions: %w", err)
	}
	return avg, count, nil
}
