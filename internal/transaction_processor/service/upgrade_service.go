package service

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/banking-ledger-core/internal/domain/account"
	"github.com/banking-ledger-core/internal/domain/audit"
	"github.com/banking-ledger-core/internal/domain/notification"
	"github.com/banking-ledger-core/internal/domain/shared"
	"github.com/banking-ledger-core/internal/domain/upgrade"
	"github.com/banking-ledger-core/internal/platform/metrics"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"
)

// UpgradeService runs the limit-upgrade approval workflow
type UpgradeService interface {
	Request(ctx context.Context, accountID, userID uuid.UUID, dailyLimit, maxSingle decimal.Decimal, reason string) (*upgrade.Request, error)
	Approve(ctx context.Context, requestID, adminID uuid.UUID) (*upgrade.Request, error)
	Reject(ctx context.Context, requestID, adminID uuid.UUID) (*upgrade.Request, error)
	List(ctx context.Context, status upgrade.Status, limit, offset int) ([]*upgrade.Request, error)
}

type UpgradeServiceImpl struct {
	uow         UnitOfWork
	requestRepo upgrade.Repository
	accountRepo account.Repository
	dispatcher  Dispatcher
	metrics     *metrics.Metrics
	logger      *slog.Logger
}

func NewUpgradeService(
	uow UnitOfWork,
	requestRepo upgrade.Repository,
	accountRepo account.Repository,
	dispatcher Dispatcher,
	m *metrics.Metrics,
	logger *slog.Logger,
) UpgradeService {
	return &UpgradeServiceImpl{
		uow:         uow,
		requestRepo: requestRepo,
		accountRepo: accountRepo,
		dispatcher:  dispatcher,
		metrics:     m,
		logger:      logger,
	}
}

// Request files a pending upgrade for an account owned by userID
func (s *UpgradeServiceImpl) Request(ctx context.Context, accountID, userID uuid.UUID, dailyLimit, maxSingle decimal.Decimal, reason string) (*upgrade.Request, error) {
	acc, err := s.accountRepo.GetByID(ctx, accountID)
	if err != nil {
		return nil, err
	}
	if acc.UserID != userID {
		// do not reveal accounts of other users
		return nil, account.ErrAccountNotFound{AccountID: accountID}
	}

	req, err := upgrade.NewRequest(accountID, userID, dailyLimit, maxSingle, reason)
	if err != nil {
		return nil, err
	}
	if err := s.requestRepo.Create(ctx, req); err != nil {
		return nil, fmt.Errorf("failed to create limit upgrade request: %w", err)
	}

	s.logger.Info("Limit upgrade requested", "request_id", req.ID.String(), "account_id", accountID.String())
	s.dispatcher.Audit(ctx, audit.NewEvent(ctx, userID, audit.ActionLimitUpgradeRequested, map[string]any{
		"request_id":           req.ID.String(),
		"account_id":           accountID.String(),
		"daily_transfer_limit": shared.FormatMoney(dailyLimit),
		"max_single_transfer":  shared.FormatMoney(maxSingle),
	}))
	return req, nil
}

// Approve writes the requested limits onto the account
func (s *UpgradeServiceImpl) Approve(ctx context.Context, requestID, adminID uuid.UUID) (*upgrade.Request, error) {
	return s.decide(ctx, requestID, adminID, true)
}

func (s *UpgradeServiceImpl) Reject(ctx context.Context, requestID, adminID uuid.UUID) (*upgrade.Request, error) {
	return s.decide(ctx, requestID, adminID, false)
}

func (s *UpgradeServiceImpl) decide(ctx context.Context, requestID, adminID uuid.UUID, approve bool) (*upgrade.Request, error) {
	var decided *upgrade.Request
	err := s.uow.ExecuteTx(ctx, func(tx pgx.Tx) error {
		requestRepo := s.requestRepo.WithTx(tx)

		req, err := requestRepo.LockForUpdate(ctx, requestID)
		if err != nil {
			return err
		}

		if !approve {
			if err := req.Reject(adminID); err != nil {
				return err
			}
		} else {
			if err := req.Approve(adminID); err != nil {
				return err
			}
			accountRepo := s.accountRepo.WithTx(tx)
			acc, err := accountRepo.LockForUpdate(ctx, req.AccountID)
			if err != nil {
				return err
			}
			if err := acc.ApplyLimits(req.RequestedDailyLimit, req.RequestedMaxSingle); err != nil {
				return err
			}
			if err := accountRepo.Update(ctx, acc); err != nil {
				return fmt.Errorf("failed to update account limits: %w", err)
			}
		}

		if err := requestRepo.Update(ctx, req); err != nil {
			return fmt.Errorf("failed to update limit upgrade request: %w", err)
		}
		decided = req
		return nil
	})
	if err != nil {
		if !shared.IsRejection(err) {
			s.logger.Error("Failed to decide limit upgrade request", "request_id", requestID.String(), "error", err)
		}
		return nil, err
	}

	action := audit.ActionLimitUpgradeRejected
	if approve {
		action = audit.ActionLimitUpgradeApproved
	}
	s.logger.Info("Limit upgrade decided", "request_id", requestID.String(), "status", string(decided.Status))
	s.metrics.IncUpgradeDecision(string(decided.Status))
	s.dispatcher.Notify(ctx, notification.UpgradeDecision(decided))
	s.dispatcher.Audit(ctx, audit.NewEvent(ctx, adminID, action, map[string]any{
		"request_id": decided.ID.String(),
		"account_id": decided.AccountID.String(),
	}))
	return decided, nil
}

func (s *UpgradeServiceImpl) List(ctx context.Context, status upgrade.Status, limit, offset int) ([]*upgrade.Request, error) {
	items, err := s.requestRepo.List(ctx, status, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to list limit upgrade requests: %w", err)
	}
	return items, nil
}
