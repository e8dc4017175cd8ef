package service

import (
	"context"
	"testing"

	"github.com/banking-ledger-core/internal/domain/account"
	"github.com/banking-ledger-core/internal/domain/audit"
	"github.com/banking-ledger-core/internal/domain/shared"
	"github.com/banking-ledger-core/internal/domain/upgrade"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type upgradeFixture struct {
	requests   *MockUpgradeRepository
	accounts   *MockAccountRepository
	dispatcher *recordingDispatcher
	service    UpgradeService
}

func newUpgradeFixture() *upgradeFixture {
	f := &upgradeFixture{
		requests:   new(MockUpgradeRepository),
		accounts:   new(MockAccountRepository),
		dispatcher: &recordingDispatcher{},
	}
	f.service = NewUpgradeService(&passThroughUoW{}, f.requests, f.accounts, f.dispatcher, nil, testLogger())
	return f
}

func TestUpgradeService_Request(t *testing.T) {
	t.Run("Created", func(t *testing.T) {
		f := newUpgradeFixture()
		acc := testAccount("100.00")
		f.accounts.On("GetByID", mock.Anything, acc.ID).Return(acc, nil)
		f.requests.On("Create", mock.Anything, mock.AnythingOfType("*upgrade.Request")).Return(nil)

		req, err := f.service.Request(context.Background(), acc.ID, acc.UserID, money("20000"), money("10000"), "business growth")

		require.NoError(t, err)
		assert.Equal(t, upgrade.StatusPending, req.Status)
		assert.Equal(t, "20000.00", shared.FormatMoney(req.RequestedDailyLimit))
		assert.Equal(t, []string{audit.ActionLimitUpgradeRequested}, f.dispatcher.actions())
		f.requests.AssertExpectations(t)
	})

	t.Run("OtherUsersAccount", func(t *testing.T) {
		f := newUpgradeFixture()
		acc := testAccount("100.00")
		f.accounts.On("GetByID", mock.Anything, acc.ID).Return(acc, nil)

		_, err := f.service.Request(context.Background(), acc.ID, uuid.New(), money("20000"), money("10000"), "")

		assert.ErrorIs(t, err, account.ErrAccountNotFound{AccountID: acc.ID})
		f.requests.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
	})

	t.Run("InvalidLimits", func(t *testing.T) {
		f := newUpgradeFixture()
		acc := testAccount("100.00")
		f.accounts.On("GetByID", mock.Anything, acc.ID).Return(acc, nil)

		_, err := f.service.Request(context.Background(), acc.ID, acc.UserID, money("-1"), money("10000"), "")

		assert.ErrorIs(t, err, shared.ErrValidation)
	})
}

func TestUpgradeService_Approve(t *testing.T) {
	f := newUpgradeFixture()
	acc := testAccount("100.00")
	req, err := upgrade.NewRequest(acc.ID, acc.UserID, money("20000"), money("10000"), "")
	require.NoError(t, err)
	admin := uuid.New()

	f.requests.On("LockForUpdate", mock.Anything, req.ID).Return(req, nil)
	f.accounts.On("LockForUpdate", mock.Anything, acc.ID).Return(acc, nil)
	f.accounts.On("Update", mock.Anything, acc).Return(nil)
	f.requests.On("Update", mock.Anything, req).Return(nil)

	decided, err := f.service.Approve(context.Background(), req.ID, admin)

	require.NoError(t, err)
	assert.Equal(t, upgrade.StatusApproved, decided.Status)
	assert.Equal(t, admin, *decided.ReviewedBy)
	assert.True(t, acc.DailyTransferLimit.Equal(money("20000")))
	assert.True(t, acc.MaxSingleTransferAmount.Equal(money("10000")))
	require.Len(t, f.dispatcher.notifications, 1)
	assert.Contains(t, f.dispatcher.notifications[0].Message, "approved")
	assert.Equal(t, []string{audit.ActionLimitUpgradeApproved}, f.dispatcher.actions())
	f.requests.AssertExpectations(t)
	f.accounts.AssertExpectations(t)
}

func TestUpgradeService_Reject(t *testing.T) {
	f := newUpgradeFixture()
	acc := testAccount("100.00")
	req, err := upgrade.NewRequest(acc.ID, acc.UserID, money("20000"), money("10000"), "")
	require.NoError(t, err)

	f.requests.On("LockForUpdate", mock.Anything, req.ID).Return(req, nil)
	f.requests.On("Update", mock.Anything, req).Return(nil)

	decided, err := f.service.Reject(context.Background(), req.ID, uuid.New())

	require.NoError(t, err)
	assert.Equal(t, upgrade.StatusRejected, decided.Status)
	assert.True(t, acc.DailyTransferLimit.Equal(money("5000")))
	assert.Equal(t, []string{audit.ActionLimitUpgradeRejected}, f.dispatcher.actions())
	f.accounts.AssertNotCalled(t, "LockForUpdate", mock.Anything, mock.Anything)
}

func TestUpgradeService_DecideTwice(t *testing.T) {
	f := newUpgradeFixture()
	req, err := upgrade.NewRequest(uuid.New(), uuid.New(), money("20000"), money("10000"), "")
	require.NoError(t, err)
	require.NoError(t, req.Reject(uuid.New()))

	f.requests.On("LockForUpdate", mock.Anything, req.ID).Return(req, nil)

	_, err = f.service.Approve(context.Background(), req.ID, uuid.New())

	assert.ErrorIs(t, err, upgrade.ErrNotPending)
	assert.ErrorIs(t, err, shared.ErrInvalidState)
	assert.Equal(t, upgrade.StatusRejected, req.Status)
	assert.Empty(t, f.dispatcher.events)
}
