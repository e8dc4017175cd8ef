package postgres

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/banking-ledger-core/internal/domain/fraud"
	"github.com/banking-ledger-core/internal/platform/persistence"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

const flaggedColumns = `id, transaction_id, account_id, reason, status, reviewed_by, reviewed_at, flagged_at`

// FlaggedRepository implements the fraud.Repository interface for PostgreSQL
type FlaggedRepository struct {
	querier persistence.Querier
	logger  *slog.Logger
}

func NewFlaggedRepository(logger *slog.Logger, db *persistence.PostgresDB) fraud.Repository {
	return &FlaggedRepository{
		querier: db.Pool(),
		logger:  logger,
	}
}

func (r *FlaggedRepository) WithTx(tx pgx.Tx) fraud.Repository {
	return &FlaggedRepository{
		querier: tx,
		logger:  r.logger,
	}
}

func scanFlagged(row pgx.Row) (*fraud.FlaggedTransaction, error) {
	var f fraud.FlaggedTransaction
	err := row.Scan(
		&f.ID,
		&f.TransactionID,
		&f.AccountID,
		&f.Reason,
		&f.Status,
		&f.ReviewedBy,
		&f.ReviewedAt,
		&f.FlaggedAt,
	)
	if err != nil {
		return nil, err
	}
	return &f, nil
}

func (r *FlaggedRepository) Create(ctx context.Context, f *fraud.FlaggedTransaction) error {
	query := `
		INSERT INTO flagged_transactions (` + flaggedColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`

	_, err := r.querier.Exec(ctx, query,
		f.ID, f.TransactionID, f.AccountID, f.Reason, f.Status, f.ReviewedBy, f.ReviewedAt, f.FlaggedAt)
	if err != nil {
		r.logger.Error("Failed to create flagged transaction", "transaction_id", f.TransactionID.String(), "error", err)
		return fmt.Errorf("failed to create flagged transaction: %w", err)
	}
	return nil
}

func (r *FlaggedRepository) getOne(ctx context.Context, id uuid.UUID, query string) (*fraud.FlaggedTransaction, error) {
	f, err := scanFlagged(r.querier.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fraud.ErrFlaggedNotFound{FlaggedID: id}
		}
		r.logger.Error("Failed to get flagged transaction", "id", id.String(), "error", err)
		return nil, fmt.Errorf("failed to get flagged transaction: %w", err)
	}
	return f, nil
}

func (r *FlaggedRepository) GetByID(ctx context.Context, id uuid.UUID) (*fraud.FlaggedTransaction, error) {
	return r.getOne(ctx, id, `
		SELECT `+flaggedColumns+`
		FROM flagged_transactions
		WHERE id = $1
	`)
}

func (r *FlaggedRepository) LockForUpdate(ctx context.Context, id uuid.UUID) (*fraud.FlaggedTransaction, error) {
	return r.getOne(ctx, id, `
		SELECT `+flaggedColumns+`
		FROM flagged_transactions
		WHERE id = $1
		FOR UPDATE
	`)
}

// Update persists the review outcome
func (r *FlaggedRepository) Update(ctx context.Context, f *fraud.FlaggedTransaction) error {
	query := `
		UPDATE flagged_transactions
		SET status = $1, reviewed_by = $2, reviewed_at = $3
		WHERE id = $4
	`

	result, err := r.querier.Exec(ctx, query, f.Status, f.ReviewedBy, f.ReviewedAt, f.ID)
	if err != nil {
		r.logger.Error("Failed to update flagged transaction", "id", f.ID.String(), "error", err)
		return fmt.Errorf("failed to update flagged transaction: %w", err)
	}
	if result.RowsAffected() == 0 {
		return fraud.ErrFlaggedNotFound{FlaggedID: f.ID}
	}
	return nil
}

// List returns flagged transactions, newest first. An empty status lists all of them.
func (r *FlaggedRepository) List(ctx context.Context, status fraud.ReviewStatus, limit, offset int) ([]*fraud.FlaggedTransaction, error) {
	query := `
		SELECT ` + flaggedColumns + `
		FROM flagged_transactions
		WHERE ($1::text = '' OR status = $1::text)
		ORDER BY flagged_at DESC
		LIMIT $2 OFFSET $3
	`

	rows, err := r.querier.Query(ctx, query, string(status), limit, offset)
	if err != nil {
		r.logger.Error("Failed to list flagged transactions", "error", err)
		return nil, fmt.Errorf("failed to list flagged transactions: %w", err)
	}
	defer rows.Close()

	flagged := make([]*fraud.FlaggedTransaction, 0)
	for rows.Next() {
		f, err := scanFlagged(rows)
		if err != nil {
			r.logger.Error("Failed to scan flagged transaction", "error", err)
			return nil, fmt.Errorf("failed to scan flagged transaction: %w", err)
		}
		flagged = append(flagged, f)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating over flagged transactions: %w", err)
	}
	return flagged, nil
}

func (r *FlaggedRepository) Count(ctx context.Context, status fraud.ReviewStatus) (int64, error) {
	query := `
		SELECT COUNT(*)
		FROM flagged_transactions
		WHERE ($1::text = '' OR status = $1::text)
	`

	var count int64
	if err := r.querier.QueryRow(ctx, query, string(status)).Scan(&count); err != nil {
		r.logger.Error("Failed to count flagged transactions", "error", err)
		return 0, fmt.Errorf("failed to count flagged transactions: %w", err)
	}
	return count, nil
}
