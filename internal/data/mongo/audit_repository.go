package mongo

import (
	"context"
	"fmt"
	"log/slog"

	"go.mongodb.org/mongo-driver/mongo"

	"github.com/banking-ledger-core/internal/domain/audit"
)

// AuditCollectionName is the collection holding audit events
const AuditCollectionName = "audit_logs"

// AuditRepository stores audit events in MongoDB
type AuditRepository struct {
	db     *mongo.Database
	logger *slog.Logger
}

func NewAuditRepository(logger *slog.Logger, db *mongo.Database) *AuditRepository {
	return &AuditRepository{db: db, logger: logger}
}

// Record implements audit.Sink
func (r *AuditRepository) Record(ctx context.Context, event *audit.Event) error {
	if _, err := r.db.Collection(AuditCollectionName).InsertOne(ctx, event); err != nil {
		r.logger.Error("Failed to record audit event", "action", event.Action, "error", err)
		return fmt.Errorf("failed to record audit event: %w", err)
	}
	return nil
}

var _ audit.Sink = (*AuditRepository)(nil)
