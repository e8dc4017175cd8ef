package service

import (
	"context"
	"log/slog"

	"github.com/google/uuid"

	"github.com/banking-ledger-core/internal/domain/fraud"
	"github.com/banking-ledger-core/internal/domain/transaction"
	"github.com/banking-ledger-core/internal/domain/upgrade"
	processor "github.com/banking-ledger-core/internal/transaction_processor/service"
)

// AdminServiceImpl delegates every admin action to the ledger workflows
type AdminServiceImpl struct {
	reversals processor.ReversalService
	reviews   processor.ReviewService
	upgrades  processor.UpgradeService
	logger    *slog.Logger
}

func NewAdminService(
	logger *slog.Logger,
	reversals processor.ReversalService,
	reviews processor.ReviewService,
	upgrades processor.UpgradeService,
) AdminService {
	return &AdminServiceImpl{
		reversals: reversals,
		reviews:   reviews,
		upgrades:  upgrades,
		logger:    logger,
	}
}

func (s *AdminServiceImpl) ApproveUpgrade(ctx context.Context, requestID, adminID uuid.UUID) (*upgrade.Request, error) {
	return s.upgrades.Approve(ctx, requestID, adminID)
}

func (s *AdminServiceImpl) RejectUpgrade(ctx context.Context, requestID, adminID uuid.UUID) (*upgrade.Request, error) {
	return s.upgrades.Reject(ctx, requestID, adminID)
}

func (s *AdminServiceImpl) ListUpgrades(ctx context.Context, status upgrade.Status, page, perPage int) ([]*upgrade.Request, error) {
	return s.upgrades.List(ctx, status, perPage, (page-1)*perPage)
}

func (s *AdminServiceImpl) ReverseTransaction(ctx context.Context, transactionID, adminID uuid.UUID) (*transaction.Transaction, error) {
	reversal, err := s.reversals.Reverse(ctx, transactionID, adminID)
	if err != nil {
		return nil, err
	}
	return reversal.Transaction, nil
}

func (s *AdminServiceImpl) ReviewFlagged(ctx context.Context, flaggedID, adminID uuid.UUID, outcome fraud.ReviewStatus) (*fraud.FlaggedTransaction, error) {
	return s.reviews.Review(ctx, flaggedID, adminID, outcome)
}

func (s *AdminServiceImpl) ListFlagged(ctx context.Context, status fraud.ReviewStatus, page, perPage int) ([]*fraud.FlaggedTransaction, int64, error) {
	return s.reviews.List(ctx, status, perPage, (page-1)*perPage)
}
