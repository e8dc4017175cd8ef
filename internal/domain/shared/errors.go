package shared

import "errors"

// Error kinds shared by every ledger operation. Domain errors either wrap one of
// these or implement Is so that callers can branch with errors.Is.
var (
	ErrValidation        = errors.New("validation failed")
	ErrInsufficientFunds = errors.New("insufficient funds")
	ErrInvalidState      = errors.New("invalid state")
	ErrNotFound          = errors.New("not found")
	ErrCurrencyMismatch  = errors.New("currency mismatch")
)

// IsRejection reports whether err is an expected business rejection rather than an
// infrastructure failure.
func IsRejection(err error) bool {
	return errors.Is(err, ErrValidation) ||
		errors.Is(err, ErrInsufficientFunds) ||
		errors.Is(err, ErrInvalidState) ||
		errors.Is(err, ErrNotFound) ||
		errors.Is(err, ErrCurrencyMismatch)
}

// FailureReasonFor maps a rejection to the reason persisted on a failed transaction
func FailureReasonFor(err error) FailureReason {
	switch {
	case errors.Is(err, ErrInsufficientFunds):
		return FailureReasonInsufficientFunds
	case errors.Is(err, ErrNotFound):
		return FailureReasonAccountNotFound
	case errors.Is(err, ErrCurrencyMismatch):
		return FailureReasonCurrencyMismatch
	case errors.Is(err, ErrValidation):
		return FailureReasonInvalidTransaction
	default:
		return FailureReasonUnknownError
	}
}
