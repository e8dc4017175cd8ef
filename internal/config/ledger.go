package config

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// LedgerDefaults holds the parsed limits applied to newly created accounts
type LedgerDefaults struct {
	DailyTransferLimit      decimal.Decimal
	MaxSingleTransferAmount decimal.Decimal
	MinBalance              decimal.Decimal
	Currency                string
}

// Defaults parses the decimal account defaults
func (c LedgerConfig) Defaults() (LedgerDefaults, error) {
	daily, err := decimal.NewFromString(c.DefaultDailyTransferLimit)
	if err != nil || !daily.IsPositive() {
		return LedgerDefaults{}, fmt.Errorf("LEDGER_DEFAULT_DAILY_TRANSFER_LIMIT must be a positive decimal")
	}
	single, err := decimal.NewFromString(c.DefaultMaxSingleTransferAmount)
	if err != nil || !single.IsPositive() {
		return LedgerDefaults{}, fmt.Errorf("LEDGER_DEFAULT_MAX_SINGLE_TRANSFER_AMOUNT must be a positive decimal")
	}
	minBalance, err := decimal.NewFromString(c.DefaultMinBalance)
	if err != nil || minBalance.IsNegative() {
		return LedgerDefaults{}, fmt.Errorf("LEDGER_DEFAULT_MIN_BALANCE must be a non-negative decimal")
	}

	return LedgerDefaults{
		DailyTransferLimit:      daily.Round(2),
		MaxSingleTransferAmount: single.Round(2),
		MinBalance:              minBalance.Round(2),
		Currency:                c.DefaultCurrency,
	}, nil
}

// Location returns the zone used to compute the start of the current day.
// Falls back to UTC; validate() rejects unknown zones at startup.
func (c LedgerConfig) Location() *time.Location {
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}
