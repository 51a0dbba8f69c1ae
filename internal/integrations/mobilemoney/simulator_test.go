package mobilemoney

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/m04kA/SMC-MarketplaceService/internal/domain"
)

func TestSimulator(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	sim := NewSimulator(30 * time.Second).WithClock(func() time.Time { return now })

	req := PaymentRequest{
		Reference:   "5d0a0f4e-8c1f-4b7e-9d55-1c2b3a4d5e6f",
		PhoneNumber: "+254798765432",
		Amount:      decimal.NewFromInt(600),
	}

	first, err := sim.RequestPayment(ctx, req)
	require.NoError(t, err)
	assert.NotEmpty(t, first.CheckoutRequestID)

	t.Run("same reference is idempotent", func(t *testing.T) {
		again, err := sim.RequestPayment(ctx, req)
		require.NoError(t, err)
		assert.Equal(t, first.CheckoutRequestID, again.CheckoutRequestID)
	})

	t.Run("pending before settle delay", func(t *testing.T) {
		status, err := sim.CheckStatus(ctx, req.Reference)
		require.NoError(t, err)
		assert.Equal(t, StatusPending, status.Status)
		assert.Nil(t, status.ResultCode)
	})

	t.Run("completed after settle delay", func(t *testing.T) {
		now = now.Add(30 * time.Second)

		status, err := sim.CheckStatus(ctx, req.Reference)
		require.NoError(t, err)
		assert.Equal(t, StatusCompleted, status.Status)
		require.NotNil(t, status.ResultCode)
		assert.Equal(t, ResultCodeSuccess, *status.ResultCode)
	})

	t.Run("resolved failure wins", func(t *testing.T) {
		other := req
		other.Reference = "another-reference"
		_, err := sim.RequestPayment(ctx, other)
		require.NoError(t, err)

		assert.True(t, sim.Resolve(other.Reference, StatusFailed, ResultCodeCancelled, "Request cancelled by user"))

		status, err := sim.CheckStatus(ctx, other.Reference)
		require.NoError(t, err)
		assert.Equal(t, StatusFailed, status.Status)
		assert.Equal(t, "Request cancelled by user", status.ResultDesc)
	})

	t.Run("unknown reference fails", func(t *testing.T) {
		status, err := sim.CheckStatus(ctx, "missing")
		require.NoError(t, err)
		assert.Equal(t, StatusFailed, status.Status)
		assert.False(t, sim.Resolve("missing", StatusCompleted, ResultCodeSuccess, ""))
	})

	t.Run("invalid request rejected", func(t *testing.T) {
		_, err := sim.RequestPayment(ctx, PaymentRequest{Reference: "x", PhoneNumber: "+254798765432"})
		assert.ErrorIs(t, err, ErrRequestRejected)
	})
}

func TestPaymentStatus_Outcome(t *testing.T) {
	outcome, ok := StatusCompleted.Outcome()
	assert.True(t, ok)
	assert.Equal(t, domain.TransactionCompleted, outcome)

	outcome, ok = StatusFailed.Outcome()
	assert.True(t, ok)
	assert.Equal(t, domain.TransactionFailed, outcome)

	_, ok = StatusPending.Outcome()
	assert.False(t, ok)
}
