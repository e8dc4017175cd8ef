package ledger

import (
	"context"

	"github.com/banking-ledger-core/internal/domain/shared"
	"github.com/google/uuid"
)

// Repository manages the ledger history projection with pagination support
type Repository interface {
	// Upsert stores entry, replacing any older snapshot of the same transaction
	Upsert(ctx context.Context, entry *Entry) error
	GetByTransactionID(ctx context.Context, transactionID uuid.UUID) (*Entry, error)
	GetByAccountID(ctx context.Context, accountID uuid.UUID, limit, offset int) ([]*Entry, error)
	CountByAccountID(ctx context.Context, accountID uuid.UUID) (int64, error)
}

// ErrEntryNotFound indicates missing ledger entry
type ErrEntryNotFound struct {
	TransactionID uuid.UUID
}

func (e ErrEntryNotFound) Error() string {
	return "ledger entry not found: " + e.TransactionID.String()
}

// Is implements the errors.Is interface for ErrEntryNotFound
func (e ErrEntryNotFound) Is(target error) bool {
	if target == shared.ErrNotFound {
		return true
	}
	t, ok := target.(ErrEntryNotFound)
	if !ok {
		return false
	}
	// If the target TransactionID is empty, consider it a match for any ErrEntryNotFound
	if t.TransactionID == uuid.Nil {
		return true
	}
	return e.TransactionID == t.TransactionID
}
