package notification

import (
	"context"
	"fmt"
	"time"

	"github.com/banking-ledger-core/internal/domain/shared"
	"github.com/banking-ledger-core/internal/domain/transaction"
	"github.com/banking-ledger-core/internal/domain/upgrade"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

const timestampLayout = "2006-01-02 15:04:05"

// Notification is a message for an account holder, delivered by an external service
type Notification struct {
	ID              uuid.UUID        `json:"id"`
	UserID          uuid.UUID        `json:"user_id"`
	Message         string           `json:"message"`
	TransactionID   *uuid.UUID       `json:"transaction_id,omitempty"`
	TransactionType transaction.Type `json:"transaction_type,omitempty"`
	TransactionFlow transaction.Flow `json:"transaction_flow,omitempty"`
	CreatedAt       time.Time        `json:"created_at"`
}

// Sink hands notifications to the delivery service. Callers log and drop its errors.
type Sink interface {
	Notify(ctx context.Context, n *Notification) error
}

func newForTransaction(txn *transaction.Transaction, message string) *Notification {
	txID := txn.ID
	return &Notification{
		ID:              uuid.New(),
		UserID:          txn.UserID,
		Message:         message,
		TransactionID:   &txID,
		TransactionType: txn.Type,
		TransactionFlow: txn.Flow,
		CreatedAt:       time.Now(),
	}
}

// ForTransaction describes a successful transaction record to its owner.
// balance is the owner's account balance after the movement.
func ForTransaction(txn *transaction.Transaction, balance decimal.Decimal) *Notification {
	amount := shared.FormatMoney(txn.Amount)
	suffix := fmt.Sprintf("Your new account balance is %s.", shared.FormatMoney(balance))

	var message string
	switch {
	case txn.Flow == transaction.FlowCredit && txn.Type == transaction.TypeDeposit:
		message = fmt.Sprintf("A deposit of %s has been credited to your account. %s", amount, suffix)
	case txn.Flow == transaction.FlowCredit && txn.Type == transaction.TypeTransfer:
		message = fmt.Sprintf("You have received a transfer of %s on %s. %s",
			amount, txn.CreatedAt.Format(timestampLayout), suffix)
	case txn.Flow == transaction.FlowDebit && txn.Type == transaction.TypeWithdrawal:
		message = fmt.Sprintf("A withdrawal of %s has been processed successfully. %s", amount, suffix)
	case txn.Flow == transaction.FlowDebit && txn.Type == transaction.TypeTransfer:
		message = fmt.Sprintf("A transfer of %s has been sent successfully on %s. %s",
			amount, txn.CreatedAt.Format(timestampLayout), suffix)
	default:
		message = fmt.Sprintf("A transaction of %s has been processed. %s", amount, suffix)
	}
	return newForTransaction(txn, message)
}

// Flagged tells the owner that txn is held for review
func Flagged(txn *transaction.Transaction, reason string) *Notification {
	message := fmt.Sprintf("Your %s of %s has been flagged for review. Reason: %s",
		txn.Type, shared.FormatMoney(txn.Amount), reason)
	return newForTransaction(txn, message)
}

// Reversed tells the owner of one leg that it was reversed
func Reversed(txn *transaction.Transaction, balance decimal.Decimal) *Notification {
	message := fmt.Sprintf("Your %s of %s has been reversed. Your new account balance is %s.",
		txn.Type, shared.FormatMoney(txn.Amount), shared.FormatMoney(balance))
	return newForTransaction(txn, message)
}

// UpgradeDecision tells the requester the outcome of a limit-upgrade request
func UpgradeDecision(req *upgrade.Request) *Notification {
	var message string
	if req.Status == upgrade.StatusApproved {
		message = fmt.Sprintf("Your transaction limit upgrade has been approved. Daily limit: %s, single transfer limit: %s.",
			shared.FormatMoney(req.RequestedDailyLimit), shared.FormatMoney(req.RequestedMaxSingle))
	} else {
		message = "Your transaction limit upgrade has been rejected."
	}
	return &Notification{
		ID:        uuid.New(),
		UserID:    req.UserID,
		Message:   message,
		CreatedAt: time.Now(),
	}
}
