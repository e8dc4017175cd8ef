package shared

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// MoneyScale is the number of fraction digits carried by balances and amounts
const MoneyScale = 2

// ValidateAmount checks that amount is positive and has at most two fraction digits
func ValidateAmount(amount decimal.Decimal) error {
	if !amount.IsPositive() {
		return fmt.Errorf("%w: amount must be positive", ErrValidation)
	}
	if !amount.Equal(amount.Truncate(MoneyScale)) {
		return fmt.Errorf("%w: amount must have at most %d fraction digits", ErrValidation, MoneyScale)
	}
	return nil
}

// FormatMoney renders an amount with exactly two fraction digits
func FormatMoney(amount decimal.Decimal) string {
	return amount.StringFixed(MoneyScale)
}
