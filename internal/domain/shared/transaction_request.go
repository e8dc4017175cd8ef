package shared

import (
	"time"

	"github.com/google/uuid"
)

// TransactionRequest defines a Kafka message asking the processor to run a pending
// transaction. The transaction itself is already persisted by the gateway.
type TransactionRequest struct {
	TransactionID  uuid.UUID `json:"transaction_id"`
	AccountID      uuid.UUID `json:"account_id"`
	IdempotencyKey string    `json:"idempotency_key,omitempty"`
	CorrelationID  string    `json:"correlation_id"`
	ClientIP       string    `json:"client_ip,omitempty"`
	Timestamp      time.Time `json:"timestamp"`
}
