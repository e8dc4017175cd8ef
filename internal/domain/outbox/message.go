package outbox

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/banking-ledger-core/internal/domain/ledger"
	"github.com/banking-ledger-core/internal/domain/shared"
	"github.com/google/uuid"
)

// Message carries a ledger snapshot to the history projection. A transaction gets one
// message per status change; the poller applies them in ID order.
type Message struct {
	ID            int64               `json:"id"`
	TransactionID uuid.UUID           `json:"transaction_id"`
	AccountID     uuid.UUID           `json:"account_id"`
	Payload       json.RawMessage     `json:"payload"`
	Status        shared.OutboxStatus `json:"status"`
	Attempts      int                 `json:"attempts"`
	CreatedAt     time.Time           `json:"created_at"`
	LastAttemptAt *time.Time          `json:"last_attempt_at,omitempty"`
}

// NewMessage snapshots entry into a pending message
func NewMessage(entry *ledger.Entry) (*Message, error) {
	payload, err := json.Marshal(entry)
	if err != nil {
		return nil, fmt.Errorf("failed to encode ledger entry %s: %w", entry.TransactionID, err)
	}

	return &Message{
		TransactionID: entry.TransactionID,
		AccountID:     entry.AccountID,
		Payload:       payload,
		Status:        shared.OutboxStatusPending,
		CreatedAt:     time.Now(),
	}, nil
}

// Entry decodes the snapshot
func (m *Message) Entry() (*ledger.Entry, error) {
	var entry ledger.Entry
	if err := json.Unmarshal(m.Payload, &entry); err != nil {
		return nil, fmt.Errorf("outbox message %d holds an undecodable ledger entry: %w", m.ID, err)
	}
	return &entry, nil
}

// RecordAttempt counts a failed publish at the given time
func (m *Message) RecordAttempt(at time.Time) {
	m.Attempts++
	m.LastAttemptAt = &at
}

// FinalAttempt reports whether one more failure exhausts the retry budget
func (m *Message) FinalAttempt(maxAttempts int) bool {
	return m.Attempts+1 >= maxAttempts
}
