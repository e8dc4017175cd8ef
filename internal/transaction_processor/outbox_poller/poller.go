package outbox_poller

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/banking-ledger-core/internal/config"
	"github.com/banking-ledger-core/internal/domain/outbox"
	"github.com/banking-ledger-core/internal/domain/shared"
	"github.com/banking-ledger-core/internal/platform/metrics"
	"github.com/google/uuid"
)

const purgeInterval = time.Hour

// Poller processes pending outbox messages
type Poller struct {
	outboxRepo       outbox.Repository
	ledgerPublisher  LedgerPublisher
	metrics          *metrics.Metrics
	logger           *slog.Logger
	pollInterval     time.Duration
	batchSize        int
	maxRetryAttempts int
	retention        time.Duration

	now       func() time.Time
	lastPurge time.Time
}

func NewPoller(
	cfg *config.OutboxConfig,
	outboxRepo outbox.Repository,
	ledgerPublisher LedgerPublisher,
	m *metrics.Metrics,
	logger *slog.Logger,
) *Poller {
	return &Poller{
		outboxRepo:       outboxRepo,
		ledgerPublisher:  ledgerPublisher,
		metrics:          m,
		logger:           logger,
		pollInterval:     cfg.PollingInterval,
		batchSize:        cfg.BatchSize,
		maxRetryAttempts: cfg.MaxRetryAttempts,
		retention:        cfg.ProcessedRetention,
		now:              time.Now,
	}
}

// Start begins polling until context is canceled
func (p *Poller) Start(ctx context.Context) {
	p.logger.Info("Starting Outbox Poller",
		"poll_interval", p.pollInterval.String(),
		"batch_size", p.batchSize,
		"max_retry_attempts", p.maxRetryAttempts,
		"processed_retention", p.retention.String(),
	)
	ticker := time.NewTicker(p.pollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			p.logger.Info("Outbox Poller stopping due to context cancellation.")
			return
		case <-ticker.C:
			if err := p.processPendingMessages(ctx); err != nil {
				p.logger.Error("Error during batch processing of pending outbox messages", "error", err)
			}
			if err := p.purgeProcessed(ctx); err != nil {
				p.logger.Error("Failed to purge processed outbox messages", "error", err)
			}
		}
	}
}

// processPendingMessages publishes one batch in ID order. Once a message of a transaction
// fails, the later messages of that transaction wait for the next tick.
func (p *Poller) processPendingMessages(ctx context.Context) error {
	messages, err := p.outboxRepo.GetPending(ctx, p.batchSize)
	if err != nil {
		return fmt.Errorf("failed to get pending outbox messages: %w", err)
	}

	if len(messages) == 0 {
		p.logger.Debug("No pending outbox messages found.")
		return nil
	}

	p.logger.Debug("Fetched pending outbox messages", "count", len(messages))

	blocked := make(map[uuid.UUID]struct{})
	for _, msg := range messages {
		if _, ok := blocked[msg.TransactionID]; ok {
			continue
		}

		err := p.ledgerPublisher.PublishToLedger(ctx, msg)
		if err == nil {
			p.metrics.IncOutbox("published")
			continue
		}

		blocked[msg.TransactionID] = struct{}{}
		if errors.Is(err, ErrUndecodablePayload) {
			p.metrics.IncOutbox("failed")
			continue
		}
		p.handleFailure(ctx, msg, err)
	}
	return nil
}

func (p *Poller) handleFailure(ctx context.Context, msg *outbox.Message, publishErr error) {
	logger := p.logger.With("outbox_id", msg.ID, "transaction_id", msg.TransactionID.String())
	logger.Error("Failed to publish outbox message to ledger",
		"current_attempts", msg.Attempts, "error", publishErr,
	)

	if err := p.outboxRepo.IncrementAttempts(ctx, msg.ID); err != nil {
		logger.Error("Failed to increment attempts for outbox message", "error", err)
		return
	}

	if !msg.FinalAttempt(p.maxRetryAttempts) {
		p.metrics.IncOutbox("retry")
		return
	}

	logger.Warn("Max retry attempts reached for outbox message, marking as FAILED_TO_PUBLISH",
		"attempts_made", msg.Attempts+1,
	)
	if err := p.outboxRepo.UpdateStatus(ctx, msg.ID, shared.OutboxStatusFailedToPublish); err != nil {
		logger.Error("Failed to update outbox status to FAILED_TO_PUBLISH after max retries", "error", err)
		return
	}
	p.metrics.IncOutbox("failed")
}

// purgeProcessed deletes processed messages older than the retention, at most once per purgeInterval
func (p *Poller) purgeProcessed(ctx context.Context) error {
	if p.retention <= 0 {
		return nil
	}
	now := p.now()
	if !p.lastPurge.IsZero() && now.Sub(p.lastPurge) < purgeInterval {
		return nil
	}
	p.lastPurge = now

	deleted, err := p.outboxRepo.DeleteProcessedBefore(ctx, now.Add(-p.retention))
	if err != nil {
		return err
	}
	if deleted > 0 {
		p.logger.Info("Purged processed outbox messages", "count", deleted)
	}
	return nil
}
