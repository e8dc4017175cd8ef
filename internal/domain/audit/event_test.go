package audit

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClientIPContext(t *testing.T) {
	ctx := context.Background()
	assert.Empty(t, ClientIPFromContext(ctx))

	assert.Equal(t, ctx, WithClientIP(ctx, ""), "empty address leaves context untouched")

	ctx = WithClientIP(ctx, "10.1.2.3")
	assert.Equal(t, "10.1.2.3", ClientIPFromContext(ctx))
}

func TestNewEvent(t *testing.T) {
	ctx := WithClientIP(context.Background(), "192.168.0.9")

	t.Run("WithUser", func(t *testing.T) {
		userID := uuid.New()

		event := NewEvent(ctx, userID, ActionDeposit, map[string]any{"amount": "10.00"})

		require.NotNil(t, event.UserID)
		assert.Equal(t, userID, *event.UserID)
		assert.Equal(t, ActionDeposit, event.Action)
		assert.Equal(t, "192.168.0.9", event.IPAddress)
		assert.Equal(t, "10.00", event.Metadata["amount"])
		assert.False(t, event.CreatedAt.IsZero())
	})

	t.Run("WithoutUser", func(t *testing.T) {
		event := NewEvent(ctx, uuid.Nil, ActionTransactionReversed, nil)

		assert.Nil(t, event.UserID)
	})
}
