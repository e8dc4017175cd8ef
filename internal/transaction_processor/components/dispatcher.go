package components

import (
	"context"
	"log/slog"

	"github.com/banking-ledger-core/internal/domain/audit"
	"github.com/banking-ledger-core/internal/domain/notification"
	"github.com/banking-ledger-core/internal/transaction_processor/service"
)

// SinkDispatcher forwards to the notification and audit sinks. Errors are logged and
// dropped; a nil sink disables its side.
type SinkDispatcher struct {
	notifier notification.Sink
	auditor  audit.Sink
	logger   *slog.Logger
}

func NewDispatcher(notifier notification.Sink, auditor audit.Sink, logger *slog.Logger) service.Dispatcher {
	return &SinkDispatcher{
		notifier: notifier,
		auditor:  auditor,
		logger:   logger,
	}
}

func (d *SinkDispatcher) Notify(ctx context.Context, n *notification.Notification) {
	if d.notifier == nil || n == nil {
		return
	}
	if err := d.notifier.Notify(ctx, n); err != nil {
		d.logger.Error("Failed to send notification", "user_id", n.UserID.String(), "error", err)
	}
}

func (d *SinkDispatcher) Audit(ctx context.Context, e *audit.Event) {
	if d.auditor == nil || e == nil {
		return
	}
	if err := d.auditor.Record(ctx, e); err != nil {
		d.logger.Error("Failed to record audit event", "action", e.Action, "error", err)
	}
}
