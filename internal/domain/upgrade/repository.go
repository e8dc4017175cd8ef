package upgrade

import (
	"context"

	"github.com/banking-ledger-core/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// Repository defines limit-upgrade request persistence operations
type Repository interface {
	Create(ctx context.Context, req *Request) error
	GetByID(ctx context.Context, id uuid.UUID) (*Request, error)
	LockForUpdate(ctx context.Context, id uuid.UUID) (*Request, error)
	Update(ctx context.Context, req *Request) error
	List(ctx context.Context, status Status, limit, offset int) ([]*Request, error)
	WithTx(tx pgx.Tx) Repository
}

// ErrRequestNotFound indicates a missing upgrade request
type ErrRequestNotFound struct {
	RequestID uuid.UUID
}

func (e ErrRequestNotFound) Error() string {
	return "limit upgrade request not found: " + e.RequestID.String()
}

func (e ErrRequestNotFound) Is(target error) bool {
	if target == shared.ErrNotFound {
		return true
	}
	t, ok := target.(ErrRequestNotFound)
	if !ok {
		return false
	}
	return t.RequestID == uuid.Nil || t.RequestID == e.RequestID
}
