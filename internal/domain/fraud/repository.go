package fraud

import (
	"context"

	"github.com/banking-ledger-core/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// Repository defines flagged transaction persistence operations
type Repository interface {
	Create(ctx context.Context, flagged *FlaggedTransaction) error
	GetByID(ctx context.Context, id uuid.UUID) (*FlaggedTransaction, error)
	LockForUpdate(ctx context.Context, id uuid.UUID) (*FlaggedTransaction, error)
	Update(ctx context.Context, flagged *FlaggedTransaction) error
	// List filters by status when status is non-empty
	List(ctx context.Context, status ReviewStatus, limit, offset int) ([]*FlaggedTransaction, error)
	Count(ctx context.Context, status ReviewStatus) (int64, error)
	WithTx(tx pgx.Tx) Repository
}

// ErrFlaggedNotFound indicates a missing flagged transaction
type ErrFlaggedNotFound struct {
	FlaggedID uuid.UUID
}

func (e ErrFlaggedNotFound) Error() string {
	return "flagged transaction not found: " + e.FlaggedID.String()
}

func (e ErrFlaggedNotFound) Is(target error) bool {
	if target == shared.ErrNotFound {
		return true
	}
	t, ok := target.(ErrFlaggedNotFound)
	if !ok {
		return false
	}
	return t.FlaggedID == uuid.Nil || t.FlaggedID == e.FlaggedID
}
