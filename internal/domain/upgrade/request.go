package upgrade

import (
	"fmt"
	"time"

	"github.com/banking-ledger-core/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Status of a limit-upgrade request
type Status string

const (
	StatusPending  Status = "pending"
	StatusApproved Status = "approved"
	StatusRejected Status = "rejected"
)

var ErrNotPending = fmt.Errorf("%w: limit upgrade request is not pending", shared.ErrInvalidState)

// Request asks for higher transfer limits on an account
type Request struct {
	ID                  uuid.UUID       `json:"id"`
	AccountID           uuid.UUID       `json:"account_id"`
	UserID              uuid.UUID       `json:"user_id"`
	RequestedDailyLimit decimal.Decimal `json:"requested_daily_transfer_limit"`
	RequestedMaxSingle  decimal.Decimal `json:"requested_max_single_transfer_amount"`
	Reason              string          `json:"reason"`
	Status              Status          `json:"status"`
	ReviewedBy          *uuid.UUID      `json:"reviewed_by,omitempty"`
	CreatedAt           time.Time       `json:"created_at"`
	UpdatedAt           time.Time       `json:"updated_at"`
}

func NewRequest(accountID, userID uuid.UUID, dailyLimit, maxSingle decimal.Decimal, reason string) (*Request, error) {
	if accountID == uuid.Nil {
		return nil, fmt.Errorf("%w: account is required", shared.ErrValidation)
	}
	if err := shared.ValidateAmount(dailyLimit); err != nil {
		return nil, fmt.Errorf("daily transfer limit: %w", err)
	}
	if err := shared.ValidateAmount(maxSingle); err != nil {
		return nil, fmt.Errorf("max single transfer amount: %w", err)
	}

	now := time.Now()
	return &Request{
		ID:                  uuid.New(),
		AccountID:           accountID,
		UserID:              userID,
		RequestedDailyLimit: dailyLimit,
		RequestedMaxSingle:  maxSingle,
		Reason:              reason,
		Status:              StatusPending,
		CreatedAt:           now,
		UpdatedAt:           now,
	}, nil
}

// Approve moves a pending request to approved. Writing the limits onto the account is
// the caller's job.
func (r *Request) Approve(adminID uuid.UUID) error {
	return r.decide(adminID, StatusApproved)
}

// Reject moves a pending request to rejected
func (r *Request) Reject(adminID uuid.UUID) error {
	return r.decide(adminID, StatusRejected)
}

func (r *Request) decide(adminID uuid.UUID, to Status) error {
	if r.Status != StatusPending {
		return ErrNotPending
	}
	r.Status = to
	r.ReviewedBy = &adminID
	r.UpdatedAt = time.Now()
	return nil
}
