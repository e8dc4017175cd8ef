package mongo

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/mongo/integration/mtest"

	"github.com/banking-ledger-core/internal/domain/audit"
)

func TestAuditRepository_Record(t *testing.T) {
	mt := newMockT(t)

	mt.Run("Inserted", func(mt *mtest.T) {
		repo := NewAuditRepository(discardLogger(), mt.DB)
		mt.AddMockResponses(mtest.CreateSuccessResponse())

		ctx := audit.WithClientIP(context.Background(), "10.0.0.1")
		event := audit.NewEvent(ctx, uuid.New(), audit.ActionDeposit, map[string]any{"amount": "200.00"})
		require.NoError(t, repo.Record(ctx, event))

		started := mt.GetStartedEvent()
		require.NotNil(t, started)
		assert.Equal(t, "insert", started.CommandName)
		assert.Equal(t, AuditCollectionName, started.Command.Lookup("insert").StringValue())
	})

	mt.Run("Failure", func(mt *mtest.T) {
		repo := NewAuditRepository(discardLogger(), mt.DB)
		mt.AddMockResponses(mtest.CreateCommandErrorResponse(mtest.CommandError{
			Code:    13,
			Message: "not authorized",
			Name:    "Unauthorized",
		}))

		err := repo.Record(context.Background(), audit.NewEvent(context.Background(), uuid.Nil, audit.ActionTransactionReversed, nil))
		require.Error(t, err)
		assert.Contains(t, err.Error(), "failed to record audit event")
	})
}
