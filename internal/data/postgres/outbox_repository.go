package postgres

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/banking-ledger-core/internal/domain/outbox"
	"github.com/banking-ledger-core/internal/domain/shared"
	"github.com/banking-ledger-core/internal/platform/persistence"
	"github.com/jackc/pgx/v5"
)

const outboxColumns = `id, transaction_id, account_id, payload, status, attempts, created_at, last_attempt_at`

// OutboxRepository stores ledger snapshots waiting for the history projection
type OutboxRepository struct {
	querier persistence.Querier
	logger  *slog.Logger
	now     func() time.Time
}

func NewOutboxRepository(logger *slog.Logger, db *persistence.PostgresDB) outbox.Repository {
	return &OutboxRepository{
		querier: db.Pool(),
		logger:  logger,
		now:     time.Now,
	}
}

// WithTx binds the repository to tx so messages commit with the ledger change they describe
func (r *OutboxRepository) WithTx(tx pgx.Tx) outbox.Repository {
	return &OutboxRepository{
		querier: tx,
		logger:  r.logger,
		now:     r.now,
	}
}

func (r *OutboxRepository) Create(ctx context.Context, message *outbox.Message) error {
	err := r.querier.QueryRow(ctx, `
		INSERT INTO transaction_outbox (transaction_id, account_id, payload, status, attempts, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id`,
		message.TransactionID,
		message.AccountID,
		message.Payload,
		message.Status,
		message.Attempts,
		message.CreatedAt,
	).Scan(&message.ID)
	if err != nil {
		r.logger.Error("Failed to create outbox message", "transaction_id", message.TransactionID.String(), "error", err)
		return fmt.Errorf("failed to create outbox message: %w", err)
	}
	return nil
}

// GetPending returns up to limit pending messages, oldest first, so that successive
// snapshots of one transaction reach the projection in order
func (r *OutboxRepository) GetPending(ctx context.Context, limit int) ([]*outbox.Message, error) {
	rows, err := r.querier.Query(ctx, `
		SELECT `+outboxColumns+`
		FROM transaction_outbox
		WHERE status = $1
		ORDER BY id ASC
		LIMIT $2`,
		shared.OutboxStatusPending, limit,
	)
	if err != nil {
		r.logger.Error("Failed to get pending outbox messages", "error", err)
		return nil, fmt.Errorf("failed to get pending outbox messages: %w", err)
	}
	defer rows.Close()

	messages := make([]*outbox.Message, 0, limit)
	for rows.Next() {
		message, err := scanOutboxMessage(rows)
		if err != nil {
			return nil, err
		}
		messages = append(messages, message)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read outbox messages: %w", err)
	}
	return messages, nil
}

func scanOutboxMessage(row pgx.Row) (*outbox.Message, error) {
	var m outbox.Message
	if err := row.Scan(&m.ID, &m.TransactionID, &m.AccountID, &m.Payload, &m.Status, &m.Attempts, &m.CreatedAt, &m.LastAttemptAt); err != nil {
		return nil, fmt.Errorf("failed to scan outbox message: %w", err)
	}
	return &m, nil
}

func (r *OutboxRepository) UpdateStatus(ctx context.Context, id int64, status shared.OutboxStatus) error {
	return r.touch(ctx, id, "set status "+string(status), `
		UPDATE transaction_outbox
		SET status = $1, last_attempt_at = $2
		WHERE id = $3`,
		status, r.now(), id,
	)
}

func (r *OutboxRepository) IncrementAttempts(ctx context.Context, id int64) error {
	return r.touch(ctx, id, "count attempt", `
		UPDATE transaction_outbox
		SET attempts = attempts + 1, last_attempt_at = $1
		WHERE id = $2`,
		r.now(), id,
	)
}

// touch runs a single-row update and reports a missing row as ErrMessageNotFound
func (r *OutboxRepository) touch(ctx context.Context, id int64, op, query string, args ...any) error {
	result, err := r.querier.Exec(ctx, query, args...)
	if err != nil {
		r.logger.Error("Failed to update outbox message", "id", id, "op", op, "error", err)
		return fmt.Errorf("failed to %s on outbox message %d: %w", op, id, err)
	}
	if result.RowsAffected() == 0 {
		return outbox.ErrMessageNotFound{ID: id}
	}
	return nil
}

// DeleteProcessedBefore removes processed messages last touched before the cutoff
func (r *OutboxRepository) DeleteProcessedBefore(ctx context.Context, before time.Time) (int64, error) {
	result, err := r.querier.Exec(ctx, `
		DELETE FROM transaction_outbox
		WHERE status = $1 AND last_attempt_at < $2`,
		shared.OutboxStatusProcessed, before,
	)
	if err != nil {
		r.logger.Error("Failed to purge processed outbox messages", "before", before, "error", err)
		return 0, fmt.Errorf("failed to purge processed outbox messages: %w", err)
	}
	return result.RowsAffected(), nil
}
