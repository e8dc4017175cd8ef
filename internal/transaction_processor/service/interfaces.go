package service

import (
	"context"
	"fmt"

	"github.com/banking-ledger-core/internal/domain/account"
	"github.com/banking-ledger-core/internal/domain/audit"
	"github.com/banking-ledger-core/internal/domain/ledger"
	"github.com/banking-ledger-core/internal/domain/notification"
	"github.com/banking-ledger-core/internal/domain/shared"
	"github.com/banking-ledger-core/internal/domain/transaction"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// ErrNotPending is returned by TransactionValidator for a transaction that already
// reached a terminal status. Redelivered requests hit it.
var ErrNotPending = fmt.Errorf("%w: transaction is not pending", shared.ErrInvalidState)

// ProcessingService defines the interface for processing transaction requests.
type ProcessingService interface {
	ProcessTransaction(ctx context.Context, request *shared.TransactionRequest) error
}

// UnitOfWork runs fn in one database transaction, committing only when fn returns nil
type UnitOfWork interface {
	ExecuteTx(ctx context.Context, fn func(tx pgx.Tx) error) error
}

// TransactionValidator locks a pending transaction and derives its movement
type TransactionValidator interface {
	Validate(ctx context.Context, tx pgx.Tx, transactionID uuid.UUID) (*transaction.Transaction, transaction.Movement, error)
}

// AccountManager locks and mutates the accounts a movement touches
type AccountManager interface {
	// Lock takes row locks on every account of m in ascending ID order and checks
	// they hold currency.
	Lock(ctx context.Context, tx pgx.Tx, m transaction.Movement, currency string) (map[uuid.UUID]*account.Account, error)
	Apply(ctx context.Context, tx pgx.Tx, m transaction.Movement, accounts map[uuid.UUID]*account.Account) error
	Reverse(ctx context.Context, tx pgx.Tx, m transaction.Movement, accounts map[uuid.UUID]*account.Account) error
	Save(ctx context.Context, tx pgx.Tx, acc *account.Account) error
}

// Screener decides whether a candidate transaction must be held for review.
// An empty reason means the transaction may proceed.
type Screener interface {
	Evaluate(ctx context.Context, tx pgx.Tx, txn *transaction.Transaction, acc *account.Account) (string, error)
}

// OutboxManager queues ledger snapshots for the history projection
type OutboxManager interface {
	Record(ctx context.Context, tx pgx.Tx, entries ...*ledger.Entry) error
}

// FailureRecorder marks a pending transaction failed in its own unit of work
type FailureRecorder interface {
	RecordFailure(ctx context.Context, transactionID uuid.UUID, reason shared.FailureReason) (*transaction.Transaction, error)
}

// Dispatcher delivers notifications and audit events on a best-effort basis
type Dispatcher interface {
	Notify(ctx context.Context, n *notification.Notification)
	Audit(ctx context.Context, event *audit.Event)
}
