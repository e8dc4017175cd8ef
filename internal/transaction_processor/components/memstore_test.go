package components

import (
	"context"
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/banking-ledger-core/internal/domain/account"
	"github.com/banking-ledger-core/internal/domain/audit"
	"github.com/banking-ledger-core/internal/domain/fraud"
	"github.com/banking-ledger-core/internal/domain/notification"
	"github.com/banking-ledger-core/internal/domain/outbox"
	"github.com/banking-ledger-core/internal/domain/shared"
	"github.com/banking-ledger-core/internal/domain/transaction"
	"github.com/banking-ledger-core/internal/domain/upgrade"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// memStore keeps rows by value so that callers only change state through Update
type memStore struct {
	mu           sync.Mutex
	accounts     map[uuid.UUID]account.Account
	txns         map[uuid.UUID]transaction.Transaction
	flagged      map[uuid.UUID]fraud.FlaggedTransaction
	upgrades     map[uuid.UUID]upgrade.Request
	outbox       []outbox.Message
	nextOutboxID int64

	// failOutboxCreate makes every outbox insert fail while set
	failOutboxCreate error
}

func newMemStore() *memStore {
	return &memStore{
		accounts: map[uuid.UUID]account.Account{},
		txns:     map[uuid.UUID]transaction.Transaction{},
		flagged:  map[uuid.UUID]fraud.FlaggedTransaction{},
		upgrades: map[uuid.UUID]upgrade.Request{},
	}
}

type memSnapshot struct {
	accounts     map[uuid.UUID]account.Account
	txns         map[uuid.UUID]transaction.Transaction
	flagged      map[uuid.UUID]fraud.FlaggedTransaction
	upgrades     map[uuid.UUID]upgrade.Request
	outbox       []outbox.Message
	nextOutboxID int64
}

func copyMap[K comparable, V any](m map[K]V) map[K]V {
	out := make(map[K]V, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

func (s *memStore) snapshot() memSnapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return memSnapshot{
		accounts:     copyMap(s.accounts),
		txns:         copyMap(s.txns),
		flagged:      copyMap(s.flagged),
		upgrades:     copyMap(s.upgrades),
		outbox:       append([]outbox.Message(nil), s.outbox...),
		nextOutboxID: s.nextOutboxID,
	}
}

func (s *memStore) restore(snap memSnapshot) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.accounts = snap.accounts
	s.txns = snap.txns
	s.flagged = snap.flagged
	s.upgrades = snap.upgrades
	s.outbox = snap.outbox
	s.nextOutboxID = snap.nextOutboxID
}

func (s *memStore) account(id uuid.UUID) account.Account {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.accounts[id]
}

func (s *memStore) balance(id uuid.UUID) string {
	acc := s.account(id)
	return shared.FormatMoney(acc.Balance)
}

func (s *memStore) txn(id uuid.UUID) transaction.Transaction {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.txns[id]
}

func (s *memStore) creditLegOf(parentID uuid.UUID) *transaction.Transaction {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, t := range s.txns {
		if t.ParentID != nil && *t.ParentID == parentID {
			leg := t
			return &leg
		}
	}
	return nil
}

func (s *memStore) flaggedFor(txnID uuid.UUID) *fraud.FlaggedTransaction {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, f := range s.flagged {
		if f.TransactionID == txnID {
			found := f
			return &found
		}
	}
	return nil
}

// outboxStatuses lists the snapshot statuses queued for txnID in insertion order
func (s *memStore) outboxStatuses(txnID uuid.UUID) []transaction.Status {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []transaction.Status
	for i := range s.outbox {
		if s.outbox[i].TransactionID != txnID {
			continue
		}
		entry, err := s.outbox[i].Entry()
		if err != nil {
			panic(err)
		}
		out = append(out, entry.Status)
	}
	return out
}

// memUoW serializes units of work, which stands in for row locks, and restores the
// store when fn fails
type memUoW struct {
	store *memStore
	unit  sync.Mutex
}

func (u *memUoW) ExecuteTx(_ context.Context, fn func(tx pgx.Tx) error) error {
	u.unit.Lock()
	defer u.unit.Unlock()

	snap := u.store.snapshot()
	if err := fn(nil); err != nil {
		u.store.restore(snap)
		return err
	}
	return nil
}

type memAccounts struct{ s *memStore }

func (r memAccounts) WithTx(pgx.Tx) account.Repository { return r }

func (r memAccounts) Create(_ context.Context, acc *account.Account) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	r.s.accounts[acc.ID] = *acc
	return nil
}

func (r memAccounts) GetByID(_ context.Context, id uuid.UUID) (*account.Account, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	acc, ok := r.s.accounts[id]
	if !ok {
		return nil, account.ErrAccountNotFound{AccountID: id}
	}
	return &acc, nil
}

func (r memAccounts) LockForUpdate(ctx context.Context, id uuid.UUID) (*account.Account, error) {
	return r.GetByID(ctx, id)
}

func (r memAccounts) Update(_ context.Context, acc *account.Account) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	stored, ok := r.s.accounts[acc.ID]
	if !ok || stored.Version != acc.Version-1 {
		return account.ErrConcurrentModification{AccountID: acc.ID}
	}
	r.s.accounts[acc.ID] = *acc
	return nil
}

type memTransactions struct{ s *memStore }

func (r memTransactions) WithTx(pgx.Tx) transaction.Repository { return r }

func (r memTransactions) Create(_ context.Context, txn *transaction.Transaction) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if txn.IdempotencyKey != "" {
		for _, t := range r.s.txns {
			if t.IdempotencyKey == txn.IdempotencyKey {
				return transaction.ErrDuplicateIdempotencyKey{Key: txn.IdempotencyKey}
			}
		}
	}
	r.s.txns[txn.ID] = *txn
	return nil
}

func (r memTransactions) GetByID(_ context.Context, id uuid.UUID) (*transaction.Transaction, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	t, ok := r.s.txns[id]
	if !ok {
		return nil, transaction.ErrTransactionNotFound{TransactionID: id}
	}
	return &t, nil
}

func (r memTransactions) GetByIdempotencyKey(_ context.Context, key string) (*transaction.Transaction, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, t := range r.s.txns {
		if t.IdempotencyKey == key {
			found := t
			return &found, nil
		}
	}
	return nil, nil
}

func (r memTransactions) GetCreditLeg(_ context.Context, parentID uuid.UUID) (*transaction.Transaction, error) {
	if leg := r.s.creditLegOf(parentID); leg != nil {
		return leg, nil
	}
	return nil, transaction.ErrTransactionNotFound{TransactionID: parentID}
}

func (r memTransactions) LockForUpdate(ctx context.Context, id uuid.UUID) (*transaction.Transaction, error) {
	return r.GetByID(ctx, id)
}

func (r memTransactions) Update(_ context.Context, txn *transaction.Transaction) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.txns[txn.ID]; !ok {
		return transaction.ErrTransactionNotFound{TransactionID: txn.ID}
	}
	r.s.txns[txn.ID] = *txn
	return nil
}

func (r memTransactions) FailPending(_ context.Context, txn *transaction.Transaction) (bool, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	stored, ok := r.s.txns[txn.ID]
	if !ok || stored.Status != transaction.StatusPending {
		return false, nil
	}
	stored.Status = transaction.StatusFailed
	stored.FailureReason = txn.FailureReason
	stored.UpdatedAt = txn.UpdatedAt
	r.s.txns[txn.ID] = stored
	return true, nil
}

func (r memTransactions) SumAmountSince(_ context.Context, accountID uuid.UUID, since time.Time, excludeID uuid.UUID) (decimal.Decimal, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	total := decimal.Zero
	for _, t := range r.s.txns {
		if t.AccountID == accountID && t.Status == transaction.StatusSuccess && !t.CreatedAt.Before(since) && t.ID != excludeID {
			total = total.Add(t.Amount)
		}
	}
	return total, nil
}

func (r memTransactions) AverageAmount(_ context.Context, accountID uuid.UUID, before time.Time, excludeID uuid.UUID) (decimal.Decimal, int64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	sum, count := decimal.Zero, int64(0)
	for _, t := range r.s.txns {
		if t.AccountID == accountID && t.CreatedAt.Before(before) && t.ID != excludeID {
			sum = sum.Add(t.Amount)
			count++
		}
	}
	if count == 0 {
		return decimal.Zero, 0, nil
	}
	return sum.Div(decimal.NewFromInt(count)), count, nil
}

type memFlagged struct{ s *memStore }

func (r memFlagged) WithTx(pgx.Tx) fraud.Repository { return r }

func (r memFlagged) Create(_ context.Context, f *fraud.FlaggedTransaction) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	r.s.flagged[f.ID] = *f
	return nil
}

func (r memFlagged) GetByID(_ context.Context, id uuid.UUID) (*fraud.FlaggedTransaction, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	f, ok := r.s.flagged[id]
	if !ok {
		return nil, fraud.ErrFlaggedNotFound{FlaggedID: id}
	}
	return &f, nil
}

func (r memFlagged) LockForUpdate(ctx context.Context, id uuid.UUID) (*fraud.FlaggedTransaction, error) {
	return r.GetByID(ctx, id)
}

func (r memFlagged) Update(_ context.Context, f *fraud.FlaggedTransaction) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	r.s.flagged[f.ID] = *f
	return nil
}

func (r memFlagged) List(_ context.Context, status fraud.ReviewStatus, limit, offset int) ([]*fraud.FlaggedTransaction, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var out []*fraud.FlaggedTransaction
	for _, f := range r.s.flagged {
		if status == "" || f.Status == status {
			item := f
			out = append(out, &item)
		}
	}
	if offset >= len(out) {
		return nil, nil
	}
	out = out[offset:]
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (r memFlagged) Count(_ context.Context, status fraud.ReviewStatus) (int64, error) {
	items, err := r.List(context.Background(), status, len(r.s.flagged), 0)
	return int64(len(items)), err
}

type memUpgrades struct{ s *memStore }

func (r memUpgrades) WithTx(pgx.Tx) upgrade.Repository { return r }

func (r memUpgrades) Create(_ context.Context, req *upgrade.Request) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	r.s.upgrades[req.ID] = *req
	return nil
}

func (r memUpgrades) GetByID(_ context.Context, id uuid.UUID) (*upgrade.Request, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	req, ok := r.s.upgrades[id]
	if !ok {
		return nil, upgrade.ErrRequestNotFound{RequestID: id}
	}
	return &req, nil
}

func (r memUpgrades) LockForUpdate(ctx context.Context, id uuid.UUID) (*upgrade.Request, error) {
	return r.GetByID(ctx, id)
}

func (r memUpgrades) Update(_ context.Context, req *upgrade.Request) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	r.s.upgrades[req.ID] = *req
	return nil
}

func (r memUpgrades) List(_ context.Context, status upgrade.Status, limit, offset int) ([]*upgrade.Request, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var out []*upgrade.Request
	for _, req := range r.s.upgrades {
		if status == "" || req.Status == status {
			item := req
			out = append(out, &item)
		}
	}
	return out, nil
}

type memOutbox struct{ s *memStore }

func (r memOutbox) WithTx(pgx.Tx) outbox.Repository { return r }

func (r memOutbox) Create(_ context.Context, msg *outbox.Message) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if r.s.failOutboxCreate != nil {
		return r.s.failOutboxCreate
	}
	r.s.nextOutboxID++
	msg.ID = r.s.nextOutboxID
	r.s.outbox = append(r.s.outbox, *msg)
	return nil
}

func (r memOutbox) GetPending(_ context.Context, limit int) ([]*outbox.Message, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var out []*outbox.Message
	for i := range r.s.outbox {
		if r.s.outbox[i].Status == shared.OutboxStatusPending && len(out) < limit {
			msg := r.s.outbox[i]
			out = append(out, &msg)
		}
	}
	return out, nil
}

func (r memOutbox) UpdateStatus(_ context.Context, id int64, status shared.OutboxStatus) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for i := range r.s.outbox {
		if r.s.outbox[i].ID == id {
			r.s.outbox[i].Status = status
			return nil
		}
	}
	return outbox.ErrMessageNotFound{ID: id}
}

func (r memOutbox) IncrementAttempts(_ context.Context, id int64) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for i := range r.s.outbox {
		if r.s.outbox[i].ID == id {
			r.s.outbox[i].RecordAttempt(time.Now())
			return nil
		}
	}
	return outbox.ErrMessageNotFound{ID: id}
}

func (r memOutbox) DeleteProcessedBefore(context.Context, time.Time) (int64, error) {
	return 0, nil
}

type memNotifier struct {
	mu   sync.Mutex
	sent []*notification.Notification
	err  error
}

func (n *memNotifier) Notify(_ context.Context, msg *notification.Notification) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.sent = append(n.sent, msg)
	return n.err
}

func (n *memNotifier) forUser(userID uuid.UUID) []string {
	n.mu.Lock()
	defer n.mu.Unlock()
	var out []string
	for _, msg := range n.sent {
		if msg.UserID == userID {
			out = append(out, msg.Message)
		}
	}
	return out
}

type memAuditor struct {
	mu     sync.Mutex
	events []*audit.Event
	err    error
}

func (a *memAuditor) Record(_ context.Context, e *audit.Event) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.events = append(a.events, e)
	return a.err
}

func (a *memAuditor) actions() []string {
	a.mu.Lock()
	defer a.mu.Unlock()
	out := make([]string, 0, len(a.events))
	for _, e := range a.events {
		out = append(out, e.Action)
	}
	return out
}
