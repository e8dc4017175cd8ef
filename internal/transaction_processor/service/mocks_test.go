package service

import (
	"context"
	"io"
	"log/slog"
	"time"

	"github.com/banking-ledger-core/internal/domain/account"
	"github.com/banking-ledger-core/internal/domain/audit"
	"github.com/banking-ledger-core/internal/domain/fraud"
	"github.com/banking-ledger-core/internal/domain/ledger"
	"github.com/banking-ledger-core/internal/domain/notification"
	"github.com/banking-ledger-core/internal/domain/shared"
	"github.com/banking-ledger-core/internal/domain/transaction"
	"github.com/banking-ledger-core/internal/domain/upgrade"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/mock"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// passThroughUoW runs fn without a database and reports whether it committed
type passThroughUoW struct {
	commits   int
	rollbacks int
}

func (u *passThroughUoW) ExecuteTx(_ context.Context, fn func(tx pgx.Tx) error) error {
	if err := fn(nil); err != nil {
		u.rollbacks++
		return err
	}
	u.commits++
	return nil
}

type MockTransactionValidator struct {
	mock.Mock
}

func (m *MockTransactionValidator) Validate(ctx context.Context, tx pgx.Tx, id uuid.UUID) (*transaction.Transaction, transaction.Movement, error) {
	args := m.Called(ctx, tx, id)
	var txn *transaction.Transaction
	if v := args.Get(0); v != nil {
		txn = v.(*transaction.Transaction)
	}
	var mv transaction.Movement
	if v := args.Get(1); v != nil {
		mv = v.(transaction.Movement)
	}
	return txn, mv, args.Error(2)
}

type MockAccountManager struct {
	mock.Mock
}

func (m *MockAccountManager) Lock(ctx context.Context, tx pgx.Tx, mv transaction.Movement, currency string) (map[uuid.UUID]*account.Account, error) {
	args := m.Called(ctx, tx, mv, currency)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(map[uuid.UUID]*account.Account), args.Error(1)
}

func (m *MockAccountManager) Apply(ctx context.Context, tx pgx.Tx, mv transaction.Movement, accounts map[uuid.UUID]*account.Account) error {
	return m.Called(ctx, tx, mv, accounts).Error(0)
}

func (m *MockAccountManager) Reverse(ctx context.Context, tx pgx.Tx, mv transaction.Movement, accounts map[uuid.UUID]*account.Account) error {
	return m.Called(ctx, tx, mv, accounts).Error(0)
}

func (m *MockAccountManager) Save(ctx context.Context, tx pgx.Tx, acc *account.Account) error {
	return m.Called(ctx, tx, acc).Error(0)
}

type MockScreener struct {
	mock.Mock
}

func (m *MockScreener) Evaluate(ctx context.Context, tx pgx.Tx, txn *transaction.Transaction, acc *account.Account) (string, error) {
	args := m.Called(ctx, tx, txn, acc)
	return args.String(0), args.Error(1)
}

type MockOutboxManager struct {
	mock.Mock
}

func (m *MockOutboxManager) Record(ctx context.Context, tx pgx.Tx, entries ...*ledger.Entry) error {
	return m.Called(ctx, tx, entries).Error(0)
}

type MockFailureRecorder struct {
	mock.Mock
}

func (m *MockFailureRecorder) RecordFailure(ctx context.Context, id uuid.UUID, reason shared.FailureReason) (*transaction.Transaction, error) {
	args := m.Called(ctx, id, reason)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*transaction.Transaction), args.Error(1)
}

// recordingDispatcher keeps what it was given
type recordingDispatcher struct {
	notifications []*notification.Notification
	events        []*audit.Event
}

func (d *recordingDispatcher) Notify(_ context.Context, n *notification.Notification) {
	d.notifications = append(d.notifications, n)
}

func (d *recordingDispatcher) Audit(_ context.Context, e *audit.Event) {
	d.events = append(d.events, e)
}

func (d *recordingDispatcher) actions() []string {
	out := make([]string, 0, len(d.events))
	for _, e := range d.events {
		out = append(out, e.Action)
	}
	return out
}

type MockTransactionRepository struct {
	mock.Mock
}

func (m *MockTransactionRepository) Create(ctx context.Context, txn *transaction.Transaction) error {
	return m.Called(ctx, txn).Error(0)
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
	return m.Called(ctx, txn).Error(0)
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

func (m *MockTransactionRepository) WithTx(pgx.Tx) transaction.Repository {
	return m
}

type MockFlaggedRepository struct {
	mock.Mock
}

func (m *MockFlaggedRepository) Create(ctx context.Context, f *fraud.FlaggedTransaction) error {
	return m.Called(ctx, f).Error(0)
}

func (m *MockFlaggedRepository) GetByID(ctx context.Context, id uuid.UUID) (*fraud.FlaggedTransaction, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*fraud.FlaggedTransaction), args.Error(1)
}

func (m *MockFlaggedRepository) LockForUpdate(ctx context.Context, id uuid.UUID) (*fraud.FlaggedTransaction, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*fraud.FlaggedTransaction), args.Error(1)
}

func (m *MockFlaggedRepository) Update(ctx context.Context, f *fraud.FlaggedTransaction) error {
	return m.Called(ctx, f).Error(0)
}

func (m *MockFlaggedRepository) List(ctx context.Context, status fraud.ReviewStatus, limit, offset int) ([]*fraud.FlaggedTransaction, error) {
	args := m.Called(ctx, status, limit, offset)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*fraud.FlaggedTransaction), args.Error(1)
}

func (m *MockFlaggedRepository) Count(ctx context.Context, status fraud.ReviewStatus) (int64, error) {
	args := m.Called(ctx, status)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockFlaggedRepository) WithTx(pgx.Tx) fraud.Repository {
	return m
}

type MockAccountRepository struct {
	mock.Mock
}

func (m *MockAccountRepository) Create(ctx context.Context, acc *account.Account) error {
	return m.Called(ctx, acc).Error(0)
}

func (m *MockAccountRepository) GetByID(ctx context.Context, id uuid.UUID) (*account.Account, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*account.Account), args.Error(1)
}

func (m *MockAccountRepository) Update(ctx context.Context, acc *account.Account) error {
	return m.Called(ctx, acc).Error(0)
}

func (m *MockAccountRepository) LockForUpdate(ctx context.Context, id uuid.UUID) (*account.Account, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*account.Account), args.Error(1)
}

func (m *MockAccountRepository) WithTx(pgx.Tx) account.Repository {
	return m
}

type MockUpgradeRepository struct {
	mock.Mock
}

func (m *MockUpgradeRepository) Create(ctx context.Context, req *upgrade.Request) error {
	return m.Called(ctx, req).Error(0)
}

func (m *MockUpgradeRepository) GetByID(ctx context.Context, id uuid.UUID) (*upgrade.Request, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*upgrade.Request), args.Error(1)
}

func (m *MockUpgradeRepository) LockForUpdate(ctx context.Context, id uuid.UUID) (*upgrade.Request, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*upgrade.Request), args.Error(1)
}

func (m *MockUpgradeRepository) Update(ctx context.Context, req *upgrade.Request) error {
	return m.Called(ctx, req).Error(0)
}

func (m *MockUpgradeRepository) List(ctx context.Context, status upgrade.Status, limit, offset int) ([]*upgrade.Request, error) {
	args := m.Called(ctx, status, limit, offset)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*upgrade.Request), args.Error(1)
}

func (m *MockUpgradeRepository) WithTx(pgx.Tx) upgrade.Repository {
	return m
}

func money(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func testAccount(balance string) *account.Account {
	return &account.Account{
		ID:       uuid.New(),
		UserID:   uuid.New(),
		Balance:  money(balance),
		Currency: "NGN",
		Limits: account.Limits{
			MinBalance:              decimal.Zero,
			DailyTransferLimit:      money("5000"),
			MaxSingleTransferAmount: money("5000"),
		},
		Version: 1,
	}
}

func pendingTxn(typ transaction.Type, acc *account.Account, amount string, recipient *account.Account) *transaction.Transaction {
	p := transaction.Params{
		UserID:    acc.UserID,
		AccountID: acc.ID,
		Type:      typ,
		Amount:    money(amount),
		Currency:  "NGN",
	}
	if recipient != nil {
		p.RecipientAccountID = &recipient.ID
	}
	txn, err := transaction.NewTransaction(p)
	if err != nil {
		panic(err)
	}
	return txn
}
