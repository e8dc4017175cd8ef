package transaction

import (
	"context"
	"time"

	"github.com/banking-ledger-core/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"
)

// Repository defines transaction persistence operations
type Repository interface {
	Create(ctx context.Context, txn *Transaction) error
	GetByID(ctx context.Context, id uuid.UUID) (*Transaction, error)
	GetByIdempotencyKey(ctx context.Context, key string) (*Transaction, error)
	GetCreditLeg(ctx context.Context, parentID uuid.UUID) (*Transaction, error)
	LockForUpdate(ctx context.Context, id uuid.UUID) (*Transaction, error)
	Update(ctx context.Context, txn *Transaction) error

	// FailPending stores the failure recorded on txn only while the stored row is still
	// pending. It reports false when the row was settled by someone else first.
	FailPending(ctx context.Context, txn *Transaction) (bool, error)

	// SumAmountSince totals the successful transactions on accountID created at or after
	// since, leaving excludeID out.
	SumAmountSince(ctx context.Context, accountID uuid.UUID, since time.Time, excludeID uuid.UUID) (decimal.Decimal, error)

	// AverageAmount returns the mean amount and the number of transactions on accountID
	// created before before, leaving excludeID out.
	AverageAmount(ctx context.Context, accountID uuid.UUID, before time.Time, excludeID uuid.UUID) (decimal.Decimal, int64, error)
	WithTx(tx pgx.Tx) Repository
}

// ErrTransactionNotFound indicates a missing transaction
type ErrTransactionNotFound struct {
	TransactionID uuid.UUID
}

func (e ErrTransactionNotFound) Error() string {
	return "transaction not found: " + e.TransactionID.String()
}

// Is matches shared.ErrNotFound and any ErrTransactionNotFound with a nil or equal ID
func (e ErrTransactionNotFound) Is(target error) bool {
	if target == shared.ErrNotFound {
		return true
	}
	t, ok := target.(ErrTransactionNotFound)
	if !ok {
		return false
	}
	return t.TransactionID == uuid.Nil || t.TransactionID == e.TransactionID
}

// ErrDuplicateIdempotencyKey indicates that another transaction already owns the key
type ErrDuplicateIdempotencyKey struct {
	Key string
}

func (e ErrDuplicateIdempotencyKey) Error() string {
	return "duplicate idempotency key: " + e.Key
}
