package mongo

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/banking-ledger-core/internal/domain/ledger"
)

// LedgerCollectionName holds one snapshot document per transaction record
const LedgerCollectionName = "ledger_entries"

// LedgerRepository is the MongoDB projection of the transaction records
type LedgerRepository struct {
	entries *mongo.Collection
	logger  *slog.Logger
}

func NewLedgerRepository(logger *slog.Logger, db *mongo.Database) *LedgerRepository {
	return &LedgerRepository{
		entries: db.Collection(LedgerCollectionName),
		logger:  logger,
	}
}

// EnsureIndexes creates the unique transaction index Upsert relies on and the
// account history index.
func (r *LedgerRepository) EnsureIndexes(ctx context.Context) error {
	_, err := r.entries.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "transaction_id", Value: 1}},
			Options: options.Index().SetUnique(true).SetName("uniq_transaction_id"),
		},
		{
			Keys:    bson.D{{Key: "account_id", Value: 1}, {Key: "created_at", Value: -1}},
			Options: options.Index().SetName("account_history"),
		},
	})
	if err != nil {
		return fmt.Errorf("failed to create ledger indexes: %w", err)
	}
	return nil
}

// Upsert replaces the snapshot of entry.TransactionID unless the stored one is newer.
// A stale snapshot makes the filter miss, the upsert then collides with the unique
// index and is dropped.
func (r *LedgerRepository) Upsert(ctx context.Context, entry *ledger.Entry) error {
	notNewer := bson.M{
		"transaction_id": entry.TransactionID,
		"updated_at":     bson.M{"$lte": entry.UpdatedAt},
	}
	_, err := r.entries.ReplaceOne(ctx, notNewer, entry, options.Replace().SetUpsert(true))
	switch {
	case err == nil:
		return nil
	case mongo.IsDuplicateKeyError(err):
		r.logger.Debug("Skipping stale ledger snapshot",
			"transaction_id", entry.TransactionID.String(), "status", string(entry.Status))
		return nil
	default:
		r.logger.Error("Ledger upsert failed", "transaction_id", entry.TransactionID.String(), "error", err)
		return fmt.Errorf("failed to upsert ledger entry: %w", err)
	}
}

func (r *LedgerRepository) GetByTransactionID(ctx context.Context, transactionID uuid.UUID) (*ledger.Entry, error) {
	var entry ledger.Entry
	err := r.entries.FindOne(ctx, bson.M{"transaction_id": transactionID}).Decode(&entry)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, ledger.ErrEntryNotFound{TransactionID: transactionID}
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get ledger entry %s: %w", transactionID, err)
	}
	return &entry, nil
}

// GetByAccountID returns one page of the account history, newest first
func (r *LedgerRepository) GetByAccountID(ctx context.Context, accountID uuid.UUID, limit, offset int) ([]*ledger.Entry, error) {
	page := options.Find().
		SetSort(bson.D{{Key: "created_at", Value: -1}}).
		SetSkip(int64(offset)).
		SetLimit(int64(limit))

	cursor, err := r.entries.Find(ctx, history(accountID), page)
	if err != nil {
		r.logger.Error("Ledger history query failed", "account_id", accountID.String(), "error", err)
		return nil, fmt.Errorf("failed to get ledger entries: %w", err)
	}

	entries := make([]*ledger.Entry, 0, limit)
	// All closes the cursor
	if err := cursor.All(ctx, &entries); err != nil {
		return nil, fmt.Errorf("failed to decode ledger entries: %w", err)
	}
	return entries, nil
}

func (r *LedgerRepository) CountByAccountID(ctx context.Context, accountID uuid.UUID) (int64, error) {
	n, err := r.entries.CountDocuments(ctx, history(accountID))
	if err != nil {
		return 0, fmt.Errorf("failed to count ledger entries: %w", err)
	}
	return n, nil
}

func history(accountID uuid.UUID) bson.M {
	return bson.M{"account_id": accountID}
}

var _ ledger.Repository = (*LedgerRepository)(nil)
