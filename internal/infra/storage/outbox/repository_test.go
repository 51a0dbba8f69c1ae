package outbox

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/m04kA/SMC-MarketplaceService/internal/domain"
	"github.com/m04kA/SMC-MarketplaceService/internal/infra/storage/storagetest"
)

func TestRepository(t *testing.T) {
	db := storagetest.NewPostgres(t)
	repo := NewRepository(db)
	ctx := context.Background()

	event, err := domain.NewOutboxEvent(domain.EventPaymentCompleted, 5, domain.NotificationPayload{
		BookingID: 11,
		Title:     "Payment received",
		Message:   "KES 500 received",
	})
	require.NoError(t, err)
	require.NoError(t, repo.Add(ctx, event))
	require.NotZero(t, event.ID)

	due, err := repo.FetchDue(ctx, time.Now().Add(time.Second), 10)
	require.NoError(t, err)
	require.Len(t, due, 1)
	assert.Equal(t, domain.EventPaymentCompleted, due[0].EventType)
	assert.JSONEq(t, string(event.Payload), string(due[0].Payload))

	t.Run("failed event is postponed", func(t *testing.T) {
		require.NoError(t, repo.MarkFailed(ctx, event.ID, "broker down", time.Now().Add(time.Hour)))

		due, err := repo.FetchDue(ctx, time.Now().Add(time.Second), 10)
		require.NoError(t, err)
		assert.Empty(t, due)

		later, err := repo.FetchDue(ctx, time.Now().Add(2*time.Hour), 10)
		require.NoError(t, err)
		require.Len(t, later, 1)
		assert.Equal(t, 1, later[0].Attempts)
		require.NotNil(t, later[0].LastError)
		assert.Equal(t, "broker down", *later[0].LastError)
	})

	t.Run("published event is not fetched again", func(t *testing.T) {
		require.NoError(t, repo.MarkPublished(ctx, event.ID, time.Now()))

		later, err := repo.FetchDue(ctx, time.Now().Add(2*time.Hour), 10)
		require.NoError(t, err)
		assert.Empty(t, later)
	})
}
