package components

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/banking-ledger-core/internal/domain/account"
	"github.com/banking-ledger-core/internal/domain/fraud"
	"github.com/banking-ledger-core/internal/domain/transaction"
	"github.com/banking-ledger-core/internal/transaction_processor/service"
	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"
)

// DefaultAnomalyMultiplier is used when no multiplier is configured
const DefaultAnomalyMultiplier = 10

// Candidate is everything the screener needs to judge one transaction
type Candidate struct {
	Amount       decimal.Decimal
	MaxSingle    decimal.Decimal
	DailyLimit   decimal.Decimal
	TodayTotal   decimal.Decimal // successful transactions today, candidate excluded
	Average      decimal.Decimal // historical mean amount, candidate excluded
	HistoryCount int64
	Multiplier   int64
}

// Screen returns the reason the candidate must be held for review, or "" when it passes.
// Checks run in a fixed order and the first hit wins.
func Screen(c Candidate) string {
	if c.Amount.GreaterThan(c.MaxSingle) {
		return fraud.ReasonSingleLimit
	}
	if c.TodayTotal.Add(c.Amount).GreaterThan(c.DailyLimit) {
		return fraud.ReasonDailyLimit
	}

	// with no history the average is zero and the check stays silent
	if c.HistoryCount > 0 {
		multiplier := c.Multiplier
		if multiplier <= 0 {
			multiplier = DefaultAnomalyMultiplier
		}
		if c.Amount.GreaterThan(c.Average.Mul(decimal.NewFromInt(multiplier))) {
			return fraud.ReasonAnomaly
		}
	}
	return ""
}

// LimitScreener feeds Screen with the account's limits and its transaction history
type LimitScreener struct {
	txRepo     transaction.Repository
	location   *time.Location
	multiplier int64
	now        func() time.Time
	logger     *slog.Logger
}

func NewLimitScreener(txRepo transaction.Repository, location *time.Location, multiplier int64, logger *slog.Logger) *LimitScreener {
	if location == nil {
		location = time.UTC
	}
	return &LimitScreener{
		txRepo:     txRepo,
		location:   location,
		multiplier: multiplier,
		now:        time.Now,
		logger:     logger,
	}
}

var _ service.Screener = (*LimitScreener)(nil)

// startOfDay is midnight of t's date in loc
func startOfDay(t time.Time, loc *time.Location) time.Time {
	local := t.In(loc)
	return time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, loc)
}

// Evaluate screens txn against the locked source account
func (s *LimitScreener) Evaluate(ctx context.Context, tx pgx.Tx, txn *transaction.Transaction, acc *account.Account) (string, error) {
	txRepo := s.txRepo.WithTx(tx)

	since := startOfDay(s.now(), s.location)
	today, err := txRepo.SumAmountSince(ctx, acc.ID, since, txn.ID)
	if err != nil {
		return "", fmt.Errorf("failed to sum today's transactions: %w", err)
	}
	average, count, err := txRepo.AverageAmount(ctx, acc.ID, txn.CreatedAt, txn.ID)
	if err != nil {
		return "", fmt.Errorf("failed to compute average transaction amount: %w", err)
	}

	reason := Screen(Candidate{
		Amount:       txn.Amount,
		MaxSingle:    acc.MaxSingleTransferAmount,
		DailyLimit:   acc.DailyTransferLimit,
		TodayTotal:   today,
		Average:      average,
		HistoryCount: count,
		Multiplier:   s.multiplier,
	})
	if reason != "" {
		s.logger.Info("Transaction flagged by screener",
			"transaction_id", txn.ID.String(),
			"account_id", acc.ID.String(),
			"reason", reason,
			"today_total", today.String(),
		)
	}
	return reason, nil
}
