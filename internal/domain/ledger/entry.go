package ledger

import (
	"time"

	"github.com/banking-ledger-core/internal/domain/shared"
	"github.com/banking-ledger-core/internal/domain/transaction"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Entry is the read-model snapshot of one transaction record, keyed by TransactionID.
// Each status change of the record replaces the previous snapshot.
type Entry struct {
	TransactionID         uuid.UUID            `json:"transaction_id" bson:"transaction_id"`
	ParentID              *uuid.UUID           `json:"parent_id,omitempty" bson:"parent_id,omitempty"`
	AccountID             uuid.UUID            `json:"account_id" bson:"account_id"`
	CounterpartyAccountID *uuid.UUID           `json:"counterparty_account_id,omitempty" bson:"counterparty_account_id,omitempty"`
	Type                  transaction.Type     `json:"type" bson:"type"`
	Flow                  transaction.Flow     `json:"flow" bson:"flow"`
	Amount                decimal.Decimal      `json:"amount" bson:"amount"`
	Currency              string               `json:"currency" bson:"currency"`
	Status                transaction.Status   `json:"status" bson:"status"`
	Narration             string               `json:"narration,omitempty" bson:"narration,omitempty"`
	FailureReason         shared.FailureReason `json:"failure_reason,omitempty" bson:"failure_reason,omitempty"`
	CorrelationID         string               `json:"correlation_id,omitempty" bson:"correlation_id,omitempty"`
	CreatedAt             time.Time            `json:"created_at" bson:"created_at"`
	UpdatedAt             time.Time            `json:"updated_at" bson:"updated_at"`
}

// FromTransaction snapshots txn. For a credit leg the counterparty is the sender,
// which the caller passes as counterparty.
func FromTransaction(txn *transaction.Transaction, counterparty *uuid.UUID) *Entry {
	if counterparty == nil {
		counterparty = txn.RecipientAccountID
	}
	return &Entry{
		TransactionID:         txn.ID,
		ParentID:              txn.ParentID,
		AccountID:             txn.AccountID,
		CounterpartyAccountID: counterparty,
		Type:                  txn.Type,
		Flow:                  txn.Flow,
		Amount:                txn.Amount,
		Currency:              txn.Currency,
		Status:                txn.Status,
		Narration:             txn.Narration,
		FailureReason:         txn.FailureReason,
		CorrelationID:         txn.CorrelationID,
		CreatedAt:             txn.CreatedAt,
		UpdatedAt:             txn.UpdatedAt,
	}
}
