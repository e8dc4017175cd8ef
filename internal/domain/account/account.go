package account

import (
	"fmt"
	"strings"
	"time"

	"github.com/banking-ledger-core/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Common errors
var (
	ErrInsufficientFunds     = fmt.Errorf("%w: balance would fall below the minimum balance", shared.ErrInsufficientFunds)
	ErrInvalidAmount         = fmt.Errorf("%w: amount must be positive", shared.ErrValidation)
	ErrMissingOwner          = fmt.Errorf("%w: owning user is required", shared.ErrValidation)
	ErrInvalidCurrencyFormat = fmt.Errorf("%w: currency must be a 3-letter code", shared.ErrValidation)
	ErrBalanceOutOfRange     = fmt.Errorf("%w: balance outside the account's minimum/maximum", shared.ErrValidation)
	ErrInvalidLimits         = fmt.Errorf("%w: transfer limits must be positive", shared.ErrValidation)
)

// Limits is the per-account limit configuration
type Limits struct {
	MinBalance              decimal.Decimal  `json:"min_balance"`
	MaxBalance              *decimal.Decimal `json:"max_balance,omitempty"`
	DailyTransferLimit      decimal.Decimal  `json:"daily_transfer_limit"`
	MaxSingleTransferAmount decimal.Decimal  `json:"max_single_transfer_amount"`
}

// Validate checks the limit configuration on its own
func (l Limits) Validate() error {
	if !l.DailyTransferLimit.IsPositive() || !l.MaxSingleTransferAmount.IsPositive() {
		return ErrInvalidLimits
	}
	if l.MinBalance.IsNegative() {
		return fmt.Errorf("%w: minimum balance cannot be negative", shared.ErrValidation)
	}
	if l.MaxBalance != nil && l.MaxBalance.LessThan(l.MinBalance) {
		return fmt.Errorf("%w: maximum balance below minimum balance", shared.ErrValidation)
	}
	return nil
}

// Account represents a customer ledger account
type Account struct {
	ID       uuid.UUID       `json:"id"`
	UserID   uuid.UUID       `json:"user_id"`
	Balance  decimal.Decimal `json:"balance"`
	Currency string          `json:"currency"`
	Limits
	Flagged   bool      `json:"flagged"`
	Version   int       `json:"version"` // For optimistic locking
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// NewAccount creates a new account after checking the initial balance against its bounds
func NewAccount(userID uuid.UUID, currency string, initialBalance decimal.Decimal, limits Limits) (*Account, error) {
	if userID == uuid.Nil {
		return nil, ErrMissingOwner
	}
	if len(currency) != 3 {
		return nil, ErrInvalidCurrencyFormat
	}
	if initialBalance.IsNegative() {
		return nil, ErrInvalidAmount
	}
	if err := limits.Validate(); err != nil {
		return nil, err
	}
	if initialBalance.LessThan(limits.MinBalance) {
		return nil, ErrBalanceOutOfRange
	}
	if limits.MaxBalance != nil && initialBalance.GreaterThan(*limits.MaxBalance) {
		return nil, ErrBalanceOutOfRange
	}

	now := time.Now()
	return &Account{
		ID:        uuid.New(),
		UserID:    userID,
		Balance:   initialBalance.Round(shared.MoneyScale),
		Currency:  strings.ToUpper(currency),
		Limits:    limits,
		Version:   1,
		CreatedAt: now,
		UpdatedAt: now,
	}, nil
}

// CanWithdraw reports whether debiting amount keeps the balance at or above the minimum
func (a *Account) CanWithdraw(amount decimal.Decimal) bool {
	return a.Balance.Sub(amount).GreaterThanOrEqual(a.MinBalance)
}

// Deposit credits the account. The maximum balance is not enforced here.
func (a *Account) Deposit(amount decimal.Decimal) error {
	if err := shared.ValidateAmount(amount); err != nil {
		return err
	}

	a.Balance = a.Balance.Add(amount)
	a.touch()
	return nil
}

// Withdraw debits the account, honoring the minimum balance
func (a *Account) Withdraw(amount decimal.Decimal) error {
	if err := shared.ValidateAmount(amount); err != nil {
		return err
	}
	if !a.CanWithdraw(amount) {
		return ErrInsufficientFunds
	}

	a.Balance = a.Balance.Sub(amount)
	a.touch()
	return nil
}

// ForceWithdraw debits without any balance check; only reversals use it
func (a *Account) ForceWithdraw(amount decimal.Decimal) {
	a.Balance = a.Balance.Sub(amount)
	a.touch()
}

// MarkFlagged records that one of the account's transactions awaits review
func (a *Account) MarkFlagged() {
	a.Flagged = true
	a.touch()
}

// ClearFlag lifts the review flag
func (a *Account) ClearFlag() {
	a.Flagged = false
	a.touch()
}

// ApplyLimits replaces the transfer limits, as done by an approved upgrade request
func (a *Account) ApplyLimits(dailyTransferLimit, maxSingleTransferAmount decimal.Decimal) error {
	next := a.Limits
	next.DailyTransferLimit = dailyTransferLimit
	next.MaxSingleTransferAmount = maxSingleTransferAmount
	if err := next.Validate(); err != nil {
		return err
	}

	a.Limits = next
	a.touch()
	return nil
}

func (a *Account) touch() {
	a.UpdatedAt = time.Now()
	a.Version++
}
