package fraud

import (
	"fmt"
	"time"

	"github.com/banking-ledger-core/internal/domain/shared"
	"github.com/google/uuid"
)

// Reasons reported by the screener
const (
	ReasonSingleLimit = "Transaction exceeds maximum single transfer limit."
	ReasonDailyLimit  = "Transaction exceeds daily transfer limit."
	ReasonAnomaly     = "Unusual transaction pattern detected."
)

// ReviewStatus is the review outcome of a flagged transaction
type ReviewStatus string

const (
	ReviewStatusFlagged   ReviewStatus = "flagged"
	ReviewStatusUnflagged ReviewStatus = "unflagged"
	ReviewStatusRejected  ReviewStatus = "rejected"
)

var ErrAlreadyReviewed = fmt.Errorf("%w: flagged transaction has already been reviewed", shared.ErrInvalidState)

// FlaggedTransaction records a transaction held back for human review
type FlaggedTransaction struct {
	ID            uuid.UUID    `json:"id"`
	TransactionID uuid.UUID    `json:"transaction_id"`
	AccountID     uuid.UUID    `json:"account_id"`
	Reason        string       `json:"reason"`
	Status        ReviewStatus `json:"status"`
	ReviewedBy    *uuid.UUID   `json:"reviewed_by,omitempty"`
	ReviewedAt    *time.Time   `json:"reviewed_at,omitempty"`
	FlaggedAt     time.Time    `json:"flagged_at"`
}

func NewFlaggedTransaction(transactionID, accountID uuid.UUID, reason string) *FlaggedTransaction {
	return &FlaggedTransaction{
		ID:            uuid.New(),
		TransactionID: transactionID,
		AccountID:     accountID,
		Reason:        reason,
		Status:        ReviewStatusFlagged,
		FlaggedAt:     time.Now(),
	}
}

// Review records an admin's decision. It may only happen once.
func (f *FlaggedTransaction) Review(adminID uuid.UUID, outcome ReviewStatus) error {
	if outcome != ReviewStatusUnflagged && outcome != ReviewStatusRejected {
		return fmt.Errorf("%w: review outcome must be %q or %q", shared.ErrValidation, ReviewStatusUnflagged, ReviewStatusRejected)
	}
	if f.Status != ReviewStatusFlagged {
		return ErrAlreadyReviewed
	}

	now := time.Now()
	f.Status = outcome
	f.ReviewedBy = &adminID
	f.ReviewedAt = &now
	return nil
}
