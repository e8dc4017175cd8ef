package handler

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/banking-ledger-core/internal/api_gateway/middleware"
	"github.com/banking-ledger-core/internal/domain/account"
	"github.com/banking-ledger-core/internal/domain/fraud"
	"github.com/banking-ledger-core/internal/domain/ledger"
	"github.com/banking-ledger-core/internal/domain/transaction"
	"github.com/banking-ledger-core/internal/domain/upgrade"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// newRouter mounts routes behind the same identity middleware the server uses
func newRouter(header string, register func(r gin.IRoutes)) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(middleware.CorrelationID())
	register(r.Group("", middleware.RequireActor(header)))
	return r
}

func newJSONRequest(method, path, body string) *http.Request {
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	return req
}

func serve(r http.Handler, req *http.Request) *httptest.ResponseRecorder {
	rr := httptest.NewRecorder()
	r.ServeHTTP(rr, req)
	return rr
}

func doRequest(r http.Handler, method, path, header string, actor uuid.UUID, body string) *httptest.ResponseRecorder {
	req := newJSONRequest(method, path, body)
	req.Header.Set(header, actor.String())
	return serve(r, req)
}

func decodeBody(t *testing.T, rr *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var body map[string]any
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &body))
	return body
}

// decode splits the standard envelope into its data object and error object
func decode(t *testing.T, rr *httptest.ResponseRecorder) (map[string]any, map[string]any) {
	t.Helper()
	body := decodeBody(t, rr)
	data, _ := body["data"].(map[string]any)
	errInfo, _ := body["error"].(map[string]any)
	return data, errInfo
}

type MockAccountService struct {
	mock.Mock
}

func (m *MockAccountService) CreateAccount(ctx context.Context, userID uuid.UUID, currency string, initialBalance decimal.Decimal, maxBalance *decimal.Decimal) (*account.Account, error) {
	args := m.Called(ctx, userID, currency, initialBalance, maxBalance)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*account.Account), args.Error(1)
}

func (m *MockAccountService) GetAccount(ctx context.Context, accountID, userID uuid.UUID) (*account.Account, error) {
	args := m.Called(ctx, accountID, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*account.Account), args.Error(1)
}

func (m *MockAccountService) GetHistory(ctx context.Context, accountID, userID uuid.UUID, page, perPage int) ([]*ledger.Entry, int64, error) {
	args := m.Called(ctx, accountID, userID, page, perPage)
	if args.Get(0) == nil {
		return nil, args.Get(1).(int64), args.Error(2)
	}
	return args.Get(0).([]*ledger.Entry), args.Get(1).(int64), args.Error(2)
}

type MockTransactionService struct {
	mock.Mock
}

func (m *MockTransactionService) CreateTransaction(ctx context.Context, params transaction.Params) (*transaction.Transaction, bool, error) {
	args := m.Called(ctx, params)
	if args.Get(0) == nil {
		return nil, args.Bool(1), args.Error(2)
	}
	return args.Get(0).(*transaction.Transaction), args.Bool(1), args.Error(2)
}

func (m *MockTransactionService) GetTransaction(ctx context.Context, transactionID, userID uuid.UUID) (*transaction.Transaction, error) {
	args := m.Called(ctx, transactionID, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*transaction.Transaction), args.Error(1)
}

func (m *MockTransactionService) RequestLimitUpgrade(ctx context.Context, accountID, userID uuid.UUID, dailyLimit, maxSingle decimal.Decimal, reason string) (*upgrade.Request, error) {
	args := m.Called(ctx, accountID, userID, dailyLimit, maxSingle, reason)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*upgrade.Request), args.Error(1)
}

type MockAdminService struct {
	mock.Mock
}

func (m *MockAdminService) ApproveUpgrade(ctx context.Context, requestID, adminID uuid.UUID) (*upgrade.Request, error) {
	args := m.Called(ctx, requestID, adminID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*upgrade.Request), args.Error(1)
}

func (m *MockAdminService) RejectUpgrade(ctx context.Context, requestID, adminID uuid.UUID) (*upgrade.Request, error) {
	args := m.Called(ctx, requestID, adminID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*upgrade.Request), args.Error(1)
}

func (m *MockAdminService) ListUpgrades(ctx context.Context, status upgrade.Status, page, perPage int) ([]*upgrade.Request, error) {
	args := m.Called(ctx, status, page, perPage)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*upgrade.Request), args.Error(1)
}

func (m *MockAdminService) ReverseTransaction(ctx context.Context, transactionID, adminID uuid.UUID) (*transaction.Transaction, error) {
	args := m.Called(ctx, transactionID, adminID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*transaction.Transaction), args.Error(1)
}

func (m *MockAdminService) ReviewFlagged(ctx context.Context, flaggedID, adminID uuid.UUID, outcome fraud.ReviewStatus) (*fraud.FlaggedTransaction, error) {
	args := m.Called(ctx, flaggedID, adminID, outcome)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*fraud.FlaggedTransaction), args.Error(1)
}

func (m *MockAdminService) ListFlagged(ctx context.Context, status fraud.ReviewStatus, page, perPage int) ([]*fraud.FlaggedTransaction, int64, error) {
	args := m.Called(ctx, status, page, perPage)
	if args.Get(0) == nil {
		return nil, args.Get(1).(int64), args.Error(2)
	}
	return args.Get(0).([]*fraud.FlaggedTransaction), args.Get(1).(int64), args.Error(2)
}
