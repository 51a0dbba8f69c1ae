package service

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/m04kA/SMC-MarketplaceService/internal/domain"
	"github.com/m04kA/SMC-MarketplaceService/internal/infra/storage/storagetest"
	"github.com/m04kA/SMC-MarketplaceService/pkg/ptr"
)

func TestRepository(t *testing.T) {
	db := storagetest.NewPostgres(t)
	repo := NewRepository(db)
	ctx := context.Background()

	provider := storagetest.CreateUser(t, db, "wanjiru", "provider")

	created, err := repo.Create(ctx, &domain.Service{
		ProviderID:  provider,
		Title:       "Laptop repair",
		Description: "Screens, keyboards, batteries",
		Price:       decimal.RequireFromString("1500.50"),
		Status:      domain.ServiceStatusActive,
	})
	require.NoError(t, err)
	require.NotZero(t, created.ID)

	t.Run("GetByID", func(t *testing.T) {
		got, err := repo.GetByID(ctx, created.ID)
		require.NoError(t, err)
		assert.Equal(t, "Laptop repair", got.Title)
		assert.True(t, decimal.RequireFromString("1500.50").Equal(got.Price))
		assert.Equal(t, domain.ServiceStatusActive, got.Status)
	})

	t.Run("Update price only", func(t *testing.T) {
		got, err := repo.Update(ctx, created.ID, domain.ServiceUpdate{Price: ptr.Ptr(decimal.NewFromInt(600))})
		require.NoError(t, err)
		assert.True(t, decimal.NewFromInt(600).Equal(got.Price))
		assert.Equal(t, "Laptop repair", got.Title)
	})

	t.Run("Update missing service", func(t *testing.T) {
		_, err := repo.Update(ctx, 424242, domain.ServiceUpdate{Title: ptr.Ptr("x")})
		assert.ErrorIs(t, err, ErrServiceNotFound)
	})

	t.Run("GetByID missing service", func(t *testing.T) {
		_, err := repo.GetByID(ctx, 424242)
		assert.ErrorIs(t, err, ErrServiceNotFound)
	})
}
