package audit

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Actions recorded by the ledger core
const (
	ActionDeposit                    = "deposit"
	ActionWithdrawal                 = "withdrawal"
	ActionTransfer                   = "transfer"
	ActionTransactionFailed          = "transaction_failed"
	ActionFlaggedTransaction         = "flagged_transaction"
	ActionFlaggedTransactionReviewed = "flagged_transaction_reviewed"
	ActionTransactionReversed        = "transaction_reversed"
	ActionLimitUpgradeRequested      = "limit_upgrade_requested"
	ActionLimitUpgradeApproved       = "limit_upgrade_approved"
	ActionLimitUpgradeRejected       = "limit_upgrade_rejected"
	ActionAccountCreated             = "account_created"
)

// Event is one audit log record
type Event struct {
	UserID    *uuid.UUID     `json:"user_id,omitempty" bson:"user_id,omitempty"`
	Action    string         `json:"action" bson:"action"`
	IPAddress string         `json:"ip_address,omitempty" bson:"ip_address,omitempty"`
	Metadata  map[string]any `json:"metadata,omitempty" bson:"metadata,omitempty"`
	CreatedAt time.Time      `json:"created_at" bson:"created_at"`
}

// NewEvent builds an event for userID (which may be uuid.Nil) carrying the client IP
// found in ctx.
func NewEvent(ctx context.Context, userID uuid.UUID, action string, metadata map[string]any) *Event {
	var user *uuid.UUID
	if userID != uuid.Nil {
		user = &userID
	}
	return &Event{
		UserID:    user,
		Action:    action,
		IPAddress: ClientIPFromContext(ctx),
		Metadata:  metadata,
		CreatedAt: time.Now(),
	}
}

// Sink persists audit events. Callers log and drop its errors.
type Sink interface {
	Record(ctx context.Context, event *Event) error
}

type clientIPKey struct{}

// WithClientIP stores the originating client address in ctx
func WithClientIP(ctx context.Context, ip string) context.Context {
	if ip == "" {
		return ctx
	}
	return context.WithValue(ctx, clientIPKey{}, ip)
}

// ClientIPFromContext returns the address stored by WithClientIP, or ""
func ClientIPFromContext(ctx context.Context) string {
	ip, _ := ctx.Value(clientIPKey{}).(string)
	return ip
}
