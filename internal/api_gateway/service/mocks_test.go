package service

import (
	"context"
	"io"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/mock"

	"github.com/banking-ledger-core/internal/domain/account"
	"github.com/banking-ledger-core/internal/domain/audit"
	"github.com/banking-ledger-core/internal/domain/fraud"
	"github.com/banking-ledger-core/internal/domain/ledger"
	"github.com/banking-ledger-core/internal/domain/shared"
	"github.com/banking-ledger-core/internal/domain/transaction"
	"github.com/banking-ledger-core/internal/domain/upgrade"
	processor "github.com/banking-ledger-core/internal/transaction_processor/service"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type MockAccountRepository struct {
	mock.Mock
}

func (m *MockAccountRepository) Create(ctx context.Context, acc *account.Account) error {
	args := m.Called(ctx, acc)
	return args.Error(0)
}

func (m *MockAccountRepository) GetByID(ctx context.Context, id uuid.UUID) (*account.Account, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*account.Account), args.Error(1)
}

func (m *MockAccountRepository) Update(ctx context.Context, acc *account.Account) error {
	args := m.Called(ctx, acc)
	return args.Error(0)
}

func (m *MockAccountRepository) LockForUpdate(ctx context.Context, id uuid.UUID) (*account.Account, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*account.Account), args.Error(1)
}

func (m *MockAccountRepository) WithTx(tx pgx.Tx) account.Repository {
	return m
}

type MockLedgerRepository struct {
	mock.Mock
}

func (m *MockLedgerRepository) Upsert(ctx context.Context, entry *ledger.Entry) error {
	args := m.Called(ctx, entry)
	return args.Error(0)
}

func (m *MockLedgerRepository) GetByTransactionID(ctx context.Context, transactionID uuid.UUID) (*ledger.Entry, error) {
	args := m.Called(ctx, transactionID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*ledger.Entry), args.Error(1)
}

func (m *MockLedgerRepository) GetByAccountID(ctx context.Context, accountID uuid.UUID, limit, offset int) ([]*ledger.Entry, error) {
	args := m.Called(ctx, accountID, limit, offset)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*ledger.Entry), args.Error(1)
}

func (m *MockLedgerRepository) CountByAccountID(ctx context.Context, accountID uuid.UUID) (int64, error) {
	args := m.Called(ctx, accountID)
	return args.Get(0).(int64), args.Error(1)
}

type MockAuditSink struct {
	mock.Mock
}

func (m *MockAuditSink) Record(ctx context.Context, event *audit.Event) error {
	args := m.Called(ctx, event)
	return args.Error(0)
}

type MockTransactionRepository struct {
	mock.Mock
}

func (m *MockTransactionRepository) Create(ctx context.Context, txn *transaction.Transaction) error {
	args := m.Called(ctx, txn)
	return args.Error(0)
}

func (m *MockTransactionRepository) GetByID(ctx context.Context, id uuid.UUID) (*transaction.Transaction, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*transaction.Transaction), args.Error(1)
}

func (m *MockTransactionRepository) GetByIdempotencyKey(ctx context.Context, key string) (*transaction.Transaction, error) {
	args := m.Called(ctx, key)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*transaction.Transaction), args.Error(1)
}

func (m *MockTransactionRepository) GetCreditLeg(ctx context.Context, parentID uuid.UUID) (*transaction.Transaction, error) {
	args := m.Called(ctx, parentID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*transaction.Transaction), args.Error(1)
}

func (m *MockTransactionRepository) LockForUpdate(ctx context.Context, id uuid.UUID) (*transaction.Transaction, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*transaction.Transaction), args.Error(1)
}

func (m *MockTransactionRepository) Update(ctx context.Context, txn *transaction.Transaction) error {
	args := m.Called(ctx, txn)
	return args.Error(0)
}

func (m *MockTransactionRepository) SumAmountSince(ctx context.Context, accountID uuid.UUID, since time.Time, excludeID uuid.UUID) (decimal.Decimal, error) {
	args := m.Called(ctx, accountID, since, excludeID)
	return args.Get(0).(decimal.Decimal), args.Error(1)
}

func (m *MockTransactionRepository) FailPending(ctx context.Context, txn *transaction.Transaction) (bool, error) {
	args := m.Called(ctx, txn)
	return args.Bool(0), args.Error(1)
}

func (m *MockTransactionRepository) AverageAmount(ctx context.Context, accountID uuid.UUID, before time.Time, excludeID uuid.UUID) (decimal.Decimal, int64, error) {
	args := m.Called(ctx, accountID, before, excludeID)
	return args.Get(0).(decimal.Decimal), args.Get(1).(int64), args.Error(2)
}

func (m *MockTransactionRepository) WithTx(tx pgx.Tx) transaction.Repository {
	return m
}

type MockRequestPublisher struct {
	mock.Mock
}

func (m *MockRequestPublisher) PublishRequest(ctx context.Context, request *shared.TransactionRequest) error {
	args := m.Called(ctx, request)
	return args.Error(0)
}

func (m *MockRequestPublisher) Close() error {
	return m.Called().Error(0)
}

type MockUpgradeService struct {
	mock.Mock
}

func (m *MockUpgradeService) Request(ctx context.Context, accountID, userID uuid.UUID, dailyLimit, maxSingle decimal.Decimal, reason string) (*upgrade.Request, error) {
	args := m.Called(ctx, accountID, userID, dailyLimit, maxSingle, reason)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*upgrade.Request), args.Error(1)
}

func (m *MockUpgradeService) Approve(ctx context.Context, requestID, adminID uuid.UUID) (*upgrade.Request, error) {
	args := m.Called(ctx, requestID, adminID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*upgrade.Request), args.Error(1)
}

func (m *MockUpgradeService) Reject(ctx context.Context, requestID, adminID uuid.UUID) (*upgrade.Request, error) {
	args := m.Called(ctx, requestID, adminID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*upgrade.Request), args.Error(1)
}

func (m *MockUpgradeService) List(ctx context.Context, status upgrade.Status, limit, offset int) ([]*upgrade.Request, error) {
	args := m.Called(ctx, status, limit, offset)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*upgrade.Request), args.Error(1)
}

type MockReversalService struct {
	mock.Mock
}

func (m *MockReversalService) Reverse(ctx context.Context, transactionID, adminID uuid.UUID) (*processor.Reversal, error) {
	args := m.Called(ctx, transactionID, adminID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*processor.Reversal), args.Error(1)
}

type MockReviewService struct {
	mock.Mock
}

func (m *MockReviewService) Review(ctx context.Context, flaggedID, adminID uuid.UUID, outcome fraud.ReviewStatus) (*fraud.FlaggedTransaction, error) {
	args := m.Called(ctx, flaggedID, adminID, outcome)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*fraud.FlaggedTransaction), args.Error(1)
}

func (m *MockReviewService) List(ctx context.Context, status fraud.ReviewStatus, limit, offset int) ([]*fraud.FlaggedTransaction, int64, error) {
	args := m.Called(ctx, status, limit, offset)
	if args.Get(0) == nil {
		return nil, args.Get(1).(int64), args.Error(2)
	}
	return args.Get(0).([]*fraud.FlaggedTransaction), args.Get(1).(int64), args.Error(2)
}
