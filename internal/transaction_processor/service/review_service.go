package service

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/banking-ledger-core/internal/domain/account"
	"github.com/banking-ledger-core/internal/domain/audit"
	"github.com/banking-ledger-core/internal/domain/fraud"
	"github.com/banking-ledger-core/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// ReviewService records admin decisions on flagged transactions
type ReviewService interface {
	Review(ctx context.Context, flaggedID, adminID uuid.UUID, outcome fraud.ReviewStatus) (*fraud.FlaggedTransaction, error)
	List(ctx context.Context, status fraud.ReviewStatus, limit, offset int) ([]*fraud.FlaggedTransaction, int64, error)
}

type ReviewServiceImpl struct {
	uow         UnitOfWork
	flaggedRepo fraud.Repository
	accountRepo account.Repository
	dispatcher  Dispatcher
	logger      *slog.Logger
}

func NewReviewService(uow UnitOfWork, flaggedRepo fraud.Repository, accountRepo account.Repository, dispatcher Dispatcher, logger *slog.Logger) ReviewService {
	return &ReviewServiceImpl{
		uow:         uow,
		flaggedRepo: flaggedRepo,
		accountRepo: accountRepo,
		dispatcher:  dispatcher,
		logger:      logger,
	}
}

// Review applies outcome once. Unflagging also clears the account's flag.
func (s *ReviewServiceImpl) Review(ctx context.Context, flaggedID, adminID uuid.UUID, outcome fraud.ReviewStatus) (*fraud.FlaggedTransaction, error) {
	var reviewed *fraud.FlaggedTransaction
	err := s.uow.ExecuteTx(ctx, func(tx pgx.Tx) error {
		flaggedRepo := s.flaggedRepo.WithTx(tx)

		flagged, err := flaggedRepo.LockForUpdate(ctx, flaggedID)
		if err != nil {
			return err
		}
		if err := flagged.Review(adminID, outcome); err != nil {
			return err
		}
		if err := flaggedRepo.Update(ctx, flagged); err != nil {
			return fmt.Errorf("failed to update flagged transaction: %w", err)
		}

		if outcome == fraud.ReviewStatusUnflagged {
			accountRepo := s.accountRepo.WithTx(tx)
			acc, err := accountRepo.LockForUpdate(ctx, flagged.AccountID)
			if err != nil {
				return err
			}
			if acc.Flagged {
				acc.ClearFlag()
				if err := accountRepo.Update(ctx, acc); err != nil {
					return fmt.Errorf("failed to clear account flag: %w", err)
				}
			}
		}

		reviewed = flagged
		return nil
	})
	if err != nil {
		if !shared.IsRejection(err) {
			s.logger.Error("Failed to review flagged transaction", "flagged_id", flaggedID.String(), "error", err)
		}
		return nil, err
	}

	s.logger.Info("Flagged transaction reviewed",
		"flagged_id", flaggedID.String(),
		"transaction_id", reviewed.TransactionID.String(),
		"outcome", string(outcome),
	)
	s.dispatcher.Audit(ctx, audit.NewEvent(ctx, adminID, audit.ActionFlaggedTransactionReviewed, map[string]any{
		"flagged_id":     reviewed.ID.String(),
		"transaction_id": reviewed.TransactionID.String(),
		"outcome":        string(outcome),
	}))
	return reviewed, nil
}

func (s *ReviewServiceImpl) List(ctx context.Context, status fraud.ReviewStatus, limit, offset int) ([]*fraud.FlaggedTransaction, int64, error) {
	items, err := s.flaggedRepo.List(ctx, status, limit, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list flagged transactions: %w", err)
	}
	total, err := s.flaggedRepo.Count(ctx, status)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to count flagged transactions: %w", err)
	}
	return items, total, nil
}
