package service

import (
	"context"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/banking-ledger-core/internal/domain/account"
	"github.com/banking-ledger-core/internal/domain/fraud"
	"github.com/banking-ledger-core/internal/domain/ledger"
	"github.com/banking-ledger-core/internal/domain/transaction"
	"github.com/banking-ledger-core/internal/domain/upgrade"
)

// AccountService defines the interface for account operations
type AccountService interface {
	// CreateAccount opens an account for userID with the configured default limits
	CreateAccount(ctx context.Context, userID uuid.UUID, currency string, initialBalance decimal.Decimal, maxBalance *decimal.Decimal) (*account.Account, error)

	// GetAccount returns the account if it belongs to userID, ErrAccountNotFound otherwise
	GetAccount(ctx context.Context, accountID, userID uuid.UUID) (*account.Account, error)

	// GetHistory pages through the ledger projection of an account owned by userID.
	// Returns entries and the total number of entries.
	GetHistory(ctx context.Context, accountID, userID uuid.UUID, page, perPage int) ([]*ledger.Entry, int64, error)
}

// TransactionService defines the interface for transaction operations
type TransactionService interface {
	// CreateTransaction persists a pending transaction and hands it to the processor.
	// A known idempotency key returns the earlier transaction with replayed set.
	CreateTransaction(ctx context.Context, params transaction.Params) (txn *transaction.Transaction, replayed bool, err error)

	// GetTransaction returns the transaction if userID is on either side of it
	GetTransaction(ctx context.Context, transactionID, userID uuid.UUID) (*transaction.Transaction, error)

	// RequestLimitUpgrade files a limit upgrade request for an account owned by userID
	RequestLimitUpgrade(ctx context.Context, accountID, userID uuid.UUID, dailyLimit, maxSingle decimal.Decimal, reason string) (*upgrade.Request, error)
}

// AdminService is the administrative surface of the ledger
type AdminService interface {
	ApproveUpgrade(ctx context.Context, requestID, adminID uuid.UUID) (*upgrade.Request, error)
	RejectUpgrade(ctx context.Context, requestID, adminID uuid.UUID) (*upgrade.Request, error)
	ListUpgrades(ctx context.Context, status upgrade.Status, page, perPage int) ([]*upgrade.Request, error)

	// ReverseTransaction undoes a successful transaction and returns its debit leg
	ReverseTransaction(ctx context.Context, transactionID, adminID uuid.UUID) (*transaction.Transaction, error)

	ReviewFlagged(ctx context.Context, flaggedID, adminID uuid.UUID, outcome fraud.ReviewStatus) (*fraud.FlaggedTransaction, error)
	ListFlagged(ctx context.Context, status fraud.ReviewStatus, page, perPage int) ([]*fraud.FlaggedTransaction, int64, error)
}
