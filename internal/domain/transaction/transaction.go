package transaction

import (
	"fmt"
	"strings"
	"time"

	"github.com/banking-ledger-core/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Type is the kind of monetary movement
type Type string

const (
	TypeDeposit    Type = "deposit"
	TypeWithdrawal Type = "withdrawal"
	TypeTransfer   Type = "transfer"
)

// Valid reports whether t is a known transaction type
func (t Type) Valid() bool {
	switch t {
	case TypeDeposit, TypeWithdrawal, TypeTransfer:
		return true
	}
	return false
}

// Flow is the direction of a transaction relative to its account
type Flow string

const (
	FlowDebit  Flow = "debit"
	FlowCredit Flow = "credit"
)

// Status is the lifecycle state of a transaction
type Status string

const (
	StatusPending  Status = "pending"
	StatusSuccess  Status = "success"
	StatusFailed   Status = "failed"
	StatusFlagged  Status = "flagged"
	StatusReversed Status = "reversed"
)

var transitions = map[Status][]Status{
	StatusPending: {StatusSuccess, StatusFailed, StatusFlagged},
	StatusSuccess: {StatusReversed},
}

// ErrInvalidTransition is returned for any move outside the lifecycle
var ErrInvalidTransition = fmt.Errorf("%w: illegal transaction status transition", shared.ErrInvalidState)

// Transaction is one ledger record. A transfer is stored as a debit record on the
// sender and a credit record on the recipient pointing back through ParentID.
type Transaction struct {
	ID                 uuid.UUID            `json:"id"`
	UserID             uuid.UUID            `json:"user_id"`
	AccountID          uuid.UUID            `json:"account_id"`
	RecipientAccountID *uuid.UUID           `json:"recipient_account_id,omitempty"`
	ParentID           *uuid.UUID           `json:"parent_id,omitempty"`
	Amount             decimal.Decimal      `json:"amount"`
	Currency           string               `json:"currency"`
	Type               Type                 `json:"type"`
	Flow               Flow                 `json:"flow"`
	Status             Status               `json:"status"`
	Narration          string               `json:"narration,omitempty"`
	FailureReason      shared.FailureReason `json:"failure_reason,omitempty"`
	IdempotencyKey     string               `json:"idempotency_key,omitempty"`
	CorrelationID      string               `json:"correlation_id,omitempty"`
	CreatedAt          time.Time            `json:"created_at"`
	UpdatedAt          time.Time            `json:"updated_at"`
}

// Params carries the caller-supplied fields of a new transaction
type Params struct {
	UserID             uuid.UUID
	AccountID          uuid.UUID
	RecipientAccountID *uuid.UUID
	Type               Type
	Amount             decimal.Decimal
	Currency           string
	Narration          string
	IdempotencyKey     string
	CorrelationID      string
}

// NewTransaction validates p and returns a pending transaction
func NewTransaction(p Params) (*Transaction, error) {
	if !p.Type.Valid() {
		return nil, fmt.Errorf("%w: unknown transaction type %q", shared.ErrValidation, p.Type)
	}
	if p.AccountID == uuid.Nil {
		return nil, fmt.Errorf("%w: account is required", shared.ErrValidation)
	}
	if err := shared.ValidateAmount(p.Amount); err != nil {
		return nil, err
	}
	if len(p.Currency) != 3 {
		return nil, fmt.Errorf("%w: currency must be a 3-letter code", shared.ErrValidation)
	}

	flow := FlowDebit
	switch p.Type {
	case TypeTransfer:
		if p.RecipientAccountID == nil || *p.RecipientAccountID == uuid.Nil {
			return nil, fmt.Errorf("%w: transfer requires a recipient account", shared.ErrValidation)
		}
		if *p.RecipientAccountID == p.AccountID {
			return nil, fmt.Errorf("%w: cannot transfer to the same account", shared.ErrValidation)
		}
	case TypeDeposit:
		flow = FlowCredit
		fallthrough
	default:
		if p.RecipientAccountID != nil {
			return nil, fmt.Errorf("%w: recipient account is only allowed on transfers", shared.ErrValidation)
		}
	}

	now := time.Now()
	return &Transaction{
		ID:                 uuid.New(),
		UserID:             p.UserID,
		AccountID:          p.AccountID,
		RecipientAccountID: p.RecipientAccountID,
		Amount:             p.Amount,
		Currency:           strings.ToUpper(p.Currency),
		Type:               p.Type,
		Flow:               flow,
		Status:             StatusPending,
		Narration:          p.Narration,
		IdempotencyKey:     p.IdempotencyKey,
		CorrelationID:      p.CorrelationID,
		CreatedAt:          now,
		UpdatedAt:          now,
	}, nil
}

// NewCreditLeg builds the recipient side of a transfer. The leg is born successful
// and shares its lifecycle with debit from then on.
func NewCreditLeg(debit *Transaction, recipientUserID uuid.UUID) *Transaction {
	now := time.Now()
	parentID := debit.ID
	return &Transaction{
		ID:            uuid.New(),
		UserID:        recipientUserID,
		AccountID:     *debit.RecipientAccountID,
		ParentID:      &parentID,
		Amount:        debit.Amount,
		Currency:      debit.Currency,
		Type:          TypeTransfer,
		Flow:          FlowCredit,
		Status:        StatusSuccess,
		Narration:     debit.Narration,
		CorrelationID: debit.CorrelationID,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
}

// IsCreditLeg reports whether t is the recipient side of a transfer
func (t *Transaction) IsCreditLeg() bool {
	return t.ParentID != nil
}

// Transition moves the transaction to status to, enforcing the lifecycle
func (t *Transaction) Transition(to Status) error {
	for _, allowed := range transitions[t.Status] {
		if allowed == to {
			t.Status = to
			t.UpdatedAt = time.Now()
			return nil
		}
	}
	return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, t.Status, to)
}

// Fail transitions a pending transaction to failed and records why
func (t *Transaction) Fail(reason shared.FailureReason) error {
	if err := t.Transition(StatusFailed); err != nil {
		return err
	}
	t.FailureReason = reason
	return nil
}
