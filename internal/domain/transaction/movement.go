package transaction

import (
	"fmt"

	"github.com/banking-ledger-core/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Movement is the balance effect of a transaction. It is one of Deposit, Withdrawal
// or Transfer.
type Movement interface {
	// Accounts lists every account the movement touches
	Accounts() []uuid.UUID
	isMovement()
}

// Deposit credits Account
type Deposit struct {
	Account uuid.UUID
	Amount  decimal.Decimal
}

// Withdrawal debits Account
type Withdrawal struct {
	Account uuid.UUID
	Amount  decimal.Decimal
}

// Transfer debits From and credits To
type Transfer struct {
	From   uuid.UUID
	To     uuid.UUID
	Amount decimal.Decimal
}

func (m Deposit) Accounts() []uuid.UUID    { return []uuid.UUID{m.Account} }
func (m Withdrawal) Accounts() []uuid.UUID { return []uuid.UUID{m.Account} }
func (m Transfer) Accounts() []uuid.UUID   { return []uuid.UUID{m.From, m.To} }

func (Deposit) isMovement()    {}
func (Withdrawal) isMovement() {}
func (Transfer) isMovement()   {}

// Movement returns the movement described by a debit-side (or single-leg) record
func (t *Transaction) Movement() (Movement, error) {
	if t.IsCreditLeg() {
		return nil, fmt.Errorf("%w: credit leg %s has no movement of its own", shared.ErrValidation, t.ID)
	}

	switch t.Type {
	case TypeDeposit:
		return Deposit{Account: t.AccountID, Amount: t.Amount}, nil
	case TypeWithdrawal:
		return Withdrawal{Account: t.AccountID, Amount: t.Amount}, nil
	case TypeTransfer:
		if t.RecipientAccountID == nil {
			return nil, fmt.Errorf("%w: transfer %s has no recipient account", shared.ErrValidation, t.ID)
		}
		if *t.RecipientAccountID == t.AccountID {
			return nil, fmt.Errorf("%w: cannot transfer to the same account", shared.ErrValidation)
		}
		return Transfer{From: t.AccountID, To: *t.RecipientAccountID, Amount: t.Amount}, nil
	default:
		return nil, fmt.Errorf("%w: unknown transaction type %q", shared.ErrValidation, t.Type)
	}
}
