package service

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/banking-ledger-core/internal/config"
	"github.com/banking-ledger-core/internal/domain/account"
	"github.com/banking-ledger-core/internal/domain/audit"
	"github.com/banking-ledger-core/internal/domain/ledger"
	"github.com/banking-ledger-core/internal/domain/shared"
)

// AccountServiceImpl implements the AccountService interface
type AccountServiceImpl struct {
	accountRepo account.Repository
	ledgerRepo  ledger.Repository
	auditor     audit.Sink
	defaults    config.LedgerDefaults
	logger      *slog.Logger
}

// NewAccountService creates a new account service. auditor may be nil.
func NewAccountService(
	logger *slog.Logger,
	accountRepo account.Repository,
	ledgerRepo ledger.Repository,
	auditor audit.Sink,
	defaults config.LedgerDefaults,
) AccountService {
	return &AccountServiceImpl{
		accountRepo: accountRepo,
		ledgerRepo:  ledgerRepo,
		auditor:     auditor,
		defaults:    defaults,
		logger:      logger,
	}
}

// CreateAccount opens an account with the default limits. An empty currency falls back
// to the configured default.
func (s *AccountServiceImpl) CreateAccount(ctx context.Context, userID uuid.UUID, currency string, initialBalance decimal.Decimal, maxBalance *decimal.Decimal) (*account.Account, error) {
	if currency == "" {
		currency = s.defaults.Currency
	}
	if maxBalance != nil {
		rounded := maxBalance.Round(shared.MoneyScale)
		maxBalance = &rounded
	}

	acc, err := account.NewAccount(userID, currency, initialBalance, account.Limits{
		MinBalance:              s.defaults.MinBalance,
		MaxBalance:              maxBalance,
		DailyTransferLimit:      s.defaults.DailyTransferLimit,
		MaxSingleTransferAmount: s.defaults.MaxSingleTransferAmount,
	})
	if err != nil {
		return nil, err
	}

	if err := s.accountRepo.Create(ctx, acc); err != nil {
		return nil, fmt.Errorf("failed to create account: %w", err)
	}

	s.logger.Info("Account created", "account_id", acc.ID.String(), "user_id", userID.String(), "currency", acc.Currency)
	s.audit(ctx, audit.NewEvent(ctx, userID, audit.ActionAccountCreated, map[string]any{
		"account_id":      acc.ID.String(),
		"currency":        acc.Currency,
		"initial_balance": shared.FormatMoney(acc.Balance),
	}))
	return acc, nil
}

// GetAccount hides accounts of other users behind ErrAccountNotFound
func (s *AccountServiceImpl) GetAccount(ctx context.Context, accountID, userID uuid.UUID) (*account.Account, error) {
	acc, err := s.accountRepo.GetByID(ctx, accountID)
	if err != nil {
		return nil, err
	}
	if acc.UserID != userID {
		return nil, account.ErrAccountNotFound{AccountID: accountID}
	}
	return acc, nil
}

// GetHistory reads the MongoDB projection, newest first
func (s *AccountServiceImpl) GetHistory(ctx context.Context, accountID, userID uuid.UUID, page, perPage int) ([]*ledger.Entry, int64, error) {
	if _, err := s.GetAccount(ctx, accountID, userID); err != nil {
		return nil, 0, err
	}

	offset := (page - 1) * perPage
	entries, err := s.ledgerRepo.GetByAccountID(ctx, accountID, perPage, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to get account history: %w", err)
	}

	total, err := s.ledgerRepo.CountByAccountID(ctx, accountID)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to count account history: %w", err)
	}

	return entries, total, nil
}

func (s *AccountServiceImpl) audit(ctx context.Context, event *audit.Event) {
	if s.auditor == nil {
		return
	}
	if err := s.auditor.Record(ctx, event); err != nil {
		s.logger.Error("Failed to record audit event", "action", event.Action, "error", err)
	}
}
