package postgres

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/banking-ledger-core/internal/domain/upgrade"
	"github.com/banking-ledger-core/internal/platform/persistence"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

const upgradeColumns = `id, account_id, user_id, requested_daily_transfer_limit, requested_max_single_transfer_amount,
		reason, status, reviewed_by, created_at, updated_at`

// UpgradeRepository implements the upgrade.Repository interface for PostgreSQL
type UpgradeRepository struct {
	querier persistence.Querier
	logger  *slog.Logger
}

func NewUpgradeRepository(logger *slog.Logger, db *persistence.PostgresDB) upgrade.Repository {
	return &UpgradeRepository{
		querier: db.Pool(),
		logger:  logger,
	}
}

func (r *UpgradeRepository) WithTx(tx pgx.Tx) upgrade.Repository {
	return &UpgradeRepository{
		querier: tx,
		logger:  r.logger,
	}
}

func scanUpgrade(row pgx.Row) (*upgrade.Request, error) {
	var req upgrade.Request
	err := row.Scan(
		&req.ID,
		&req.AccountID,
		&req.UserID,
		&req.RequestedDailyLimit,
		&req.RequestedMaxSingle,
		&req.Reason,
		&req.Status,
		&req.ReviewedBy,
		&req.CreatedAt,
		&req.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &req, nil
}

func (r *UpgradeRepository) Create(ctx context.Context, req *upgrade.Request) error {
	query := `
		INSERT INTO limit_upgrade_requests (` + upgradeColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`

	_, err := r.querier.Exec(ctx, query,
		req.ID, req.AccountID, req.UserID, req.RequestedDailyLimit, req.RequestedMaxSingle,
		req.Reason, req.Status, req.ReviewedBy, req.CreatedAt, req.UpdatedAt)
	if err != nil {
		r.logger.Error("Failed to create limit upgrade request", "account_id", req.AccountID.String(), "error", err)
		return fmt.Errorf("failed to create limit upgrade request: %w", err)
	}
	return nil
}

func (r *UpgradeRepository) getOne(ctx context.Context, id uuid.UUID, query string) (*upgrade.Request, error) {
	req, err := scanUpgrade(r.querier.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, upgrade.ErrRequestNotFound{RequestID: id}
		}
		r.logger.Error("Failed to get limit upgrade request", "id", id.String(), "error", err)
		return nil, fmt.Errorf("failed to get limit upgrade request: %w", err)
	}
	return req, nil
}

func (r *UpgradeRepository) GetByID(ctx context.Context, id uuid.UUID) (*upgrade.Request, error) {
	return r.getOne(ctx, id, `
		SELECT `+upgradeColumns+`
		FROM limit_upgrade_requests
		WHERE id = $1
	`)
}

func (r *UpgradeRepository) LockForUpdate(ctx context.Context, id uuid.UUID) (*upgrade.Request, error) {
	return r.getOne(ctx, id, `
		SELECT `+upgradeColumns+`
		FROM limit_upgrade_requests
		WHERE id = $1
		FOR UPDATE
	`)
}

// Update persists the decision on req
func (r *UpgradeRepository) Update(ctx context.Context, req *upgrade.Request) error {
	query := `
		UPDATE limit_upgrade_requests
		SET status = $1, reviewed_by = $2, updated_at = $3
		WHERE id = $4
	`

	result, err := r.querier.Exec(ctx, query, req.Status, req.ReviewedBy, req.UpdatedAt, req.ID)
	if err != nil {
		r.logger.Error("Failed to update limit upgrade request", "id", req.ID.String(), "error", err)
		return fmt.Errorf("failed to update limit upgrade request: %w", err)
	}
	if result.RowsAffected() == 0 {
		return upgrade.ErrRequestNotFound{RequestID: req.ID}
	}
	return nil
}

// List returns requests, oldest first so that reviewers work the queue in order.
// An empty status lists all of them.
func (r *UpgradeRepository) List(ctx context.Context, status upgrade.Status, limit, offset int) ([]*upgrade.Request, error) {
	query := `
		SELECT ` + upgradeColumns + `
		FROM limit_upgrade_requests
		WHERE ($1::text = '' OR status = $1::text)
		ORDER BY created_at ASC
		LIMIT $2 OFFSET $3
	`

	rows, err := r.querier.Query(ctx, query, string(status), limit, offset)
	if err != nil {
		r.logger.Error("Failed to list limit upgrade requests", "error", err)
		return nil, fmt.Errorf("failed to list limit upgrade requests: %w", err)
	}
	defer rows.Close()

	requests := make([]*upgrade.Request, 0)
	for rows.Next() {
		req, err := scanUpgrade(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan limit upgrade request: %w", err)
		}
		requests = append(requests, req)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating over limit upgrade requests: %w", err)
	}
	return requests, nil
}
