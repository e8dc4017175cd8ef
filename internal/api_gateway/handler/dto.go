package handler

import (
	"time"

	"github.com/banking-ledger-core/internal/domain/account"
	"github.com/banking-ledger-core/internal/domain/fraud"
	"github.com/banking-ledger-core/internal/domain/ledger"
	"github.com/banking-ledger-core/internal/domain/shared"
	"github.com/banking-ledger-core/internal/domain/transaction"
	"github.com/banking-ledger-core/internal/domain/upgrade"
)

// Amounts travel as decimal strings so that no precision is lost in JSON

// CreateAccountRequest represents a request to create a new account
type CreateAccountRequest struct {
	Currency       string  `json:"currency" binding:"omitempty,len=3"`
	InitialBalance string  `json:"initial_balance" binding:"omitempty,numeric"`
	MaxBalance     *string `json:"max_balance,omitempty" binding:"omitempty,numeric"`
}

// AccountResponse represents an account in API responses
type AccountResponse struct {
	ID                      string  `json:"id"`
	UserID                  string  `json:"user_id"`
	Balance                 string  `json:"balance"`
	Currency                string  `json:"currency"`
	MinBalance              string  `json:"min_balance"`
	MaxBalance              *string `json:"max_balance,omitempty"`
	DailyTransferLimit      string  `json:"daily_transfer_limit"`
	MaxSingleTransferAmount string  `json:"max_single_transfer_amount"`
	Flagged                 bool    `json:"flagged"`
	CreatedAt               string  `json:"created_at"`
	UpdatedAt               string  `json:"updated_at"`
}

// CreateTransactionRequest represents a request to create a new transaction
type CreateTransactionRequest struct {
	AccountID          string `json:"account_id" binding:"required,uuid"`
	RecipientAccountID string `json:"recipient_account_id,omitempty" binding:"omitempty,uuid"`
	Type               string `json:"type" binding:"required,oneof=deposit withdrawal transfer"`
	Amount             string `json:"amount" binding:"required,numeric"`
	Currency           string `json:"currency,omitempty" binding:"omitempty,len=3"`
	Narration          string `json:"narration,omitempty" binding:"max=255"`
	IdempotencyKey     string `json:"idempotency_key,omitempty" binding:"max=100"`
}

// TransactionResponse represents a transaction in API responses
type TransactionResponse struct {
	TransactionID         string `json:"transaction_id"`
	ParentID              string `json:"parent_id,omitempty"`
	AccountID             string `json:"account_id"`
	CounterpartyAccountID string `json:"counterparty_account_id,omitempty"`
	Type                  string `json:"type"`
	Flow                  string `json:"flow"`
	Amount                string `json:"amount"`
	Currency              string `json:"currency"`
	Status                string `json:"status"`
	Narration             string `json:"narration,omitempty"`
	FailureReason         string `json:"failure_reason,omitempty"`
	CreatedAt             string `json:"created_at"`
	UpdatedAt             string `json:"updated_at"`
}

// LimitUpgradeRequest asks for new transfer limits on an account
type LimitUpgradeRequest struct {
	DailyTransferLimit      string `json:"daily_transfer_limit" binding:"required,numeric"`
	MaxSingleTransferAmount string `json:"max_single_transfer_amount" binding:"required,numeric"`
	Reason                  string `json:"reason" binding:"required,max=500"`
}

// LimitUpgradeResponse represents a limit upgrade request in API responses
type LimitUpgradeResponse struct {
	ID                      string `json:"id"`
	AccountID               string `json:"account_id"`
	UserID                  string `json:"user_id"`
	DailyTransferLimit      string `json:"requested_daily_transfer_limit"`
	MaxSingleTransferAmount string `json:"requested_max_single_transfer_amount"`
	Reason                  string `json:"reason"`
	Status                  string `json:"status"`
	ReviewedBy              string `json:"reviewed_by,omitempty"`
	CreatedAt               string `json:"created_at"`
	UpdatedAt               string `json:"updated_at"`
}

// ReviewFlaggedRequest carries the outcome of a flagged transaction review
type ReviewFlaggedRequest struct {
	Outcome string `json:"outcome" binding:"required,oneof=unflagged rejected"`
}

// FlaggedTransactionResponse represents a flagged transaction in API responses
type FlaggedTransactionResponse struct {
	ID            string `json:"id"`
	TransactionID string `json:"transaction_id"`
	AccountID     string `json:"account_id"`
	Reason        string `json:"reason"`
	Status        string `json:"status"`
	ReviewedBy    string `json:"reviewed_by,omitempty"`
	ReviewedAt    string `json:"reviewed_at,omitempty"`
	FlaggedAt     string `json:"flagged_at"`
}

// PaginationParams represents pagination parameters for list endpoints
type PaginationParams struct {
	Page    int `form:"page,default=1" binding:"min=1"`
	PerPage int `form:"per_page,default=10" binding:"min=1,max=100"`
}

func mapAccountToResponse(acc *account.Account) AccountResponse {
	response := AccountResponse{
		ID:                      acc.ID.String(),
		UserID:                  acc.UserID.String(),
		Balance:                 shared.FormatMoney(acc.Balance),
		Currency:                acc.Currency,
		MinBalance:              shared.FormatMoney(acc.MinBalance),
		DailyTransferLimit:      shared.FormatMoney(acc.DailyTransferLimit),
		MaxSingleTransferAmount: shared.FormatMoney(acc.MaxSingleTransferAmount),
		Flagged:                 acc.Flagged,
		CreatedAt:               acc.CreatedAt.Format(time.RFC3339),
		UpdatedAt:               acc.UpdatedAt.Format(time.RFC3339),
	}
	if acc.MaxBalance != nil {
		maxBalance := shared.FormatMoney(*acc.MaxBalance)
		response.MaxBalance = &maxBalance
	}
	return response
}

func mapTransactionToResponse(txn *transaction.Transaction) TransactionResponse {
	response := TransactionResponse{
		TransactionID: txn.ID.String(),
		AccountID:     txn.AccountID.String(),
		Type:          string(txn.Type),
		Flow:          string(txn.Flow),
		Amount:        shared.FormatMoney(txn.Amount),
		Currency:      txn.Currency,
		Status:        string(txn.Status),
		Narration:     txn.Narration,
		FailureReason: string(txn.FailureReason),
		CreatedAt:     txn.CreatedAt.Format(time.RFC3339),
		UpdatedAt:     txn.UpdatedAt.Format(time.RFC3339),
	}
	if txn.ParentID != nil {
		response.ParentID = txn.ParentID.String()
	}
	if txn.RecipientAccountID != nil {
		response.CounterpartyAccountID = txn.RecipientAccountID.String()
	}
	return response
}

func mapLedgerEntryToResponse(entry *ledger.Entry) TransactionResponse {
	response := TransactionResponse{
		TransactionID: entry.TransactionID.String(),
		AccountID:     entry.AccountID.String(),
		Type:          string(entry.Type),
		Flow:          string(entry.Flow),
		Amount:        shared.FormatMoney(entry.Amount),
		Currency:      entry.Currency,
		Status:        string(entry.Status),
		Narration:     entry.Narration,
		FailureReason: string(entry.FailureReason),
		CreatedAt:     entry.CreatedAt.Format(time.RFC3339),
		UpdatedAt:     entry.UpdatedAt.Format(time.RFC3339),
	}
	if entry.ParentID != nil {
		response.ParentID = entry.ParentID.String()
	}
	if entry.CounterpartyAccountID != nil {
		response.CounterpartyAccountID = entry.CounterpartyAccountID.String()
	}
	return response
}

func mapUpgradeToResponse(req *upgrade.Request) LimitUpgradeResponse {
	response := LimitUpgradeResponse{
		ID:                      req.ID.String(),
		AccountID:               req.AccountID.String(),
		UserID:                  req.UserID.String(),
		DailyTransferLimit:      shared.FormatMoney(req.RequestedDailyLimit),
		MaxSingleTransferAmount: shared.FormatMoney(req.RequestedMaxSingle),
		Reason:                  req.Reason,
		Status:                  string(req.Status),
		CreatedAt:               req.CreatedAt.Format(time.RFC3339),
		UpdatedAt:               req.UpdatedAt.Format(time.RFC3339),
	}
	if req.ReviewedBy != nil {
		response.ReviewedBy = req.ReviewedBy.String()
	}
	return response
}

func mapFlaggedToResponse(f *fraud.FlaggedTransaction) FlaggedTransactionResponse {
	response := FlaggedTransactionResponse{
		ID:            f.ID.String(),
		TransactionID: f.TransactionID.String(),
		AccountID:     f.AccountID.String(),
		Reason:        f.Reason,
		Status:        string(f.Status),
		FlaggedAt:     f.FlaggedAt.Format(time.RFC3339),
	}
	if f.ReviewedBy != nil {
		response.ReviewedBy = f.ReviewedBy.String()
	}
	if f.ReviewedAt != nil {
		response.ReviewedAt = f.ReviewedAt.Format(time.RFC3339)
	}
	return response
}
