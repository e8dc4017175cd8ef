package ledger

import (
	"testing"
	"time"

	"github.com/banking-ledger-core/internal/domain/shared"
	"github.com/banking-ledger-core/internal/domain/transaction"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestFromTransaction(t *testing.T) {
	sender, recipient := uuid.New(), uuid.New()
	debit := &transaction.Transaction{
		ID:                 uuid.New(),
		AccountID:          sender,
		RecipientAccountID: &recipient,
		Amount:             decimal.RequireFromString("300.00"),
		Currency:           "NGN",
		Type:               transaction.TypeTransfer,
		Flow:               transaction.FlowDebit,
		Status:             transaction.StatusSuccess,
		Narration:          "dinner",
		CorrelationID:      "corr-1",
		CreatedAt:          time.Now(),
		UpdatedAt:          time.Now(),
	}

	t.Run("DebitLegPointsAtRecipient", func(t *testing.T) {
		entry := FromTransaction(debit, nil)

		assert.Equal(t, debit.ID, entry.TransactionID)
		assert.Equal(t, sender, entry.AccountID)
		assert.Equal(t, &recipient, entry.CounterpartyAccountID)
		assert.Equal(t, transaction.FlowDebit, entry.Flow)
		assert.Equal(t, "300.00", shared.FormatMoney(entry.Amount))
		assert.Equal(t, transaction.StatusSuccess, entry.Status)
		assert.Equal(t, "dinner", entry.Narration)
	})

	t.Run("CreditLegPointsAtSender", func(t *testing.T) {
		leg := transaction.NewCreditLeg(debit, uuid.New())

		entry := FromTransaction(leg, &debit.AccountID)

		assert.Equal(t, recipient, entry.AccountID)
		assert.Equal(t, &sender, entry.CounterpartyAccountID)
		assert.Equal(t, &debit.ID, entry.ParentID)
		assert.Equal(t, transaction.FlowCredit, entry.Flow)
	})
}

func TestErrEntryNotFound_Is(t *testing.T) {
	err := error(ErrEntryNotFound{TransactionID: uuid.New()})

	assert.ErrorIs(t, err, ErrEntryNotFound{})
	assert.ErrorIs(t, err, shared.ErrNotFound)
	assert.NotErrorIs(t, err, ErrEntryNotFound{TransactionID: uuid.New()})
}
