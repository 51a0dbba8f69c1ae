package bookings

import (
	"bytes"
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/m04kA/SMC-MarketplaceService/internal/domain"
	"github.com/m04kA/SMC-MarketplaceService/internal/infra/storage/memstore"
	"github.com/m04kA/SMC-MarketplaceService/internal/service/bookings/models"
	"github.com/m04kA/SMC-MarketplaceService/pkg/logger"
	"github.com/m04kA/SMC-MarketplaceService/pkg/ptr"
)

type fixture struct {
	store    *memstore.Store
	service  *Service
	customer domain.Actor
	provider domain.Actor
	stranger domain.Actor
	admin    domain.Actor
	svcID    int64
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	store := memstore.New()
	providerID := store.AddUser("Otieno")
	customerID := store.AddUser("Wanjiku")
	strangerID := store.AddUser("Kamau")

	return &fixture{
		store:    store,
		service:  NewService(store.Bookings(), store.Transactions(), store.Outbox(), memstore.TxManager{}, logger.NewNop()),
		customer: domain.Actor{UserID: customerID, Role: domain.RoleCustomer},
		provider: domain.Actor{UserID: providerID, Role: domain.RoleProvider},
		stranger: domain.Actor{UserID: strangerID, Role: domain.RoleCustomer},
		admin:    domain.Actor{UserID: 1000, Role: domain.RoleAdmin},
		svcID:    store.AddService(providerID, "Math tutoring", decimal.NewFromInt(500)),
	}
}

func (f *fixture) book(t *testing.T, status domain.BookingStatus, paid bool) *domain.Booking {
	t.Helper()
	b, err := f.store.Bookings().Create(context.Background(), &domain.Booking{
		ServiceID:   f.svcID,
		CustomerID:  f.customer.UserID,
		ProviderID:  f.provider.UserID,
		Date:        time.Date(2026, 5, 1, 0, 0, 0, 0, time.UTC),
		TotalAmount: decimal.NewFromInt(500),
		Status:      status,
		IsPaid:      paid,
	})
	require.NoError(t, err)
	return b
}

func TestService_GetByID(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	b := f.book(t, domain.StatusPending, false)

	for _, actor := range []domain.Actor{f.customer, f.provider, f.admin} {
		resp, err := f.service.GetByID(ctx, b.ID, actor)
		require.NoError(t, err)
		assert.Equal(t, b.ID, resp.ID)
		assert.Equal(t, "Math tutoring", resp.Service.Title)
		assert.Equal(t, "Otieno", resp.Provider.Name)
		assert.Equal(t, "Wanjiku", resp.Customer.Name)
		assert.Equal(t, "2026-05-01", resp.Date)
	}

	_, err := f.service.GetByID(ctx, b.ID, f.stranger)
	assert.ErrorIs(t, err, ErrAccessDenied)

	_, err = f.service.GetByID(ctx, 99999, f.admin)
	assert.ErrorIs(t, err, ErrBookingNotFound)
}

func TestService_List(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	base := time.Date(2026, 4, 1, 12, 0, 0, 0, time.UTC)
	for i := 0; i < 25; i++ {
		created := base.Add(time.Duration(i) * time.Minute)
		f.store.SetNow(func() time.Time { return created })
		f.book(t, domain.StatusPending, false)
	}
	f.store.SetNow(time.Now)

	t.Run("customer pages newest first", func(t *testing.T) {
		resp, err := f.service.List(ctx, &models.ListBookingsRequest{Actor: f.customer, Role: ptr.Ptr("customer"), Page: 1, Limit: 10})
		require.NoError(t, err)
		assert.Len(t, resp.Bookings, 10)
		assert.Equal(t, models.PaginationResponse{Total: 25, Page: 1, Limit: 10, Pages: 3}, resp.Pagination)
		assert.True(t, resp.Bookings[0].CreatedAt.After(resp.Bookings[9].CreatedAt))

		last, err := f.service.List(ctx, &models.ListBookingsRequest{Actor: f.customer, Role: ptr.Ptr("customer"), Page: 3, Limit: 10})
		require.NoError(t, err)
		assert.Len(t, last.Bookings, 5)
	})

	t.Run("provider role", func(t *testing.T) {
		resp, err := f.service.List(ctx, &models.ListBookingsRequest{Actor: f.provider, Role: ptr.Ptr("provider")})
		require.NoError(t, err)
		assert.Equal(t, 25, resp.Pagination.Total)
		assert.Equal(t, domain.DefaultLimit, resp.Pagination.Limit)

		none, err := f.service.List(ctx, &models.ListBookingsRequest{Actor: f.provider, Role: ptr.Ptr("customer")})
		require.NoError(t, err)
		assert.Equal(t, 0, none.Pagination.Total)
		assert.NotNil(t, none.Bookings)
	})

	t.Run("no role means either side", func(t *testing.T) {
		resp, err := f.service.List(ctx, &models.ListBookingsRequest{Actor: f.stranger})
		require.NoError(t, err)
		assert.Equal(t, 0, resp.Pagination.Total)

		all, err := f.service.List(ctx, &models.ListBookingsRequest{Actor: f.admin, Limit: 500})
		require.NoError(t, err)
		assert.Equal(t, 25, all.Pagination.Total)
		assert.Equal(t, domain.MaxLimit, all.Pagination.Limit)
	})

	t.Run("invalid filters", func(t *testing.T) {
		_, err := f.service.List(ctx, &models.ListBookingsRequest{Actor: f.customer, Role: ptr.Ptr("owner")})
		assert.ErrorIs(t, err, ErrInvalidInput)

		_, err = f.service.List(ctx, &models.ListBookingsRequest{Actor: f.customer, Status: ptr.Ptr("done")})
		assert.ErrorIs(t, err, ErrInvalidInput)
	})
}

func TestService_List_PagesCoverEveryBookingOnce(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	// Одинаковое время создания: порядок решает id
	created := time.Date(2026, 4, 1, 12, 0, 0, 0, time.UTC)
	f.store.SetNow(func() time.Time { return created })
	const total = 11
	for i := 0; i < total; i++ {
		f.book(t, domain.StatusPending, false)
	}
	f.store.SetNow(time.Now)

	var ids []int64
	for page := 1; ; page++ {
		resp, err := f.service.List(ctx, &models.ListBookingsRequest{Actor: f.customer, Page: page, Limit: 4})
		require.NoError(t, err)
		for _, b := range resp.Bookings {
			ids = append(ids, b.ID)
		}
		if page >= resp.Pagination.Pages {
			assert.Equal(t, 3, resp.Pagination.Pages)
			break
		}
	}

	require.Len(t, ids, total)
	seen := make(map[int64]struct{}, total)
	for i, id := range ids {
		seen[id] = struct{}{}
		if i > 0 {
			assert.Greater(t, ids[i-1], id, "ties on created_at must be ordered by id desc")
		}
	}
	assert.Len(t, seen, total)
}

func TestService_Cancel(t *testing.T) {
	ctx := context.Background()

	t.Run("customer cancels, provider notified", func(t *testing.T) {
		f := newFixture(t)
		b := f.book(t, domain.StatusPending, false)

		resp, err := f.service.Cancel(ctx, b.ID, &models.CancelBookingRequest{Actor: f.customer, Reason: ptr.Ptr(" exams ")})
		require.NoError(t, err)
		assert.Equal(t, "cancelled", resp.Status)
		require.NotNil(t, resp.CancellationReason)
		assert.Equal(t, "exams", *resp.CancellationReason)
		assert.NotNil(t, resp.CancelledAt)

		events := f.store.OutboxEvents()
		require.Len(t, events, 1)
		assert.Equal(t, domain.EventBookingCancelled, events[0].EventType)
		assert.Equal(t, f.provider.UserID, events[0].RecipientID)

		_, err = f.service.Cancel(ctx, b.ID, &models.CancelBookingRequest{Actor: f.customer})
		assert.ErrorIs(t, err, ErrCannotCancel)
	})

	t.Run("paid booking refunds completed transaction", func(t *testing.T) {
		f := newFixture(t)
		b := f.book(t, domain.StatusConfirmed, true)
		tx, err := f.store.Transactions().Create(ctx, &domain.Transaction{
			BookingID:  b.ID,
			CustomerID: f.customer.UserID,
			ProviderID: f.provider.UserID,
			Amount:     decimal.NewFromInt(500),
			Status:     domain.TransactionCompleted,
			Reference:  "r",
		})
		require.NoError(t, err)

		_, err = f.service.Cancel(ctx, b.ID, &models.CancelBookingRequest{Actor: f.admin})
		require.NoError(t, err)

		got, err := f.store.Transactions().GetByID(ctx, tx.ID)
		require.NoError(t, err)
		assert.Equal(t, domain.TransactionRefunded, got.Status)
		assert.Len(t, f.store.OutboxEvents(), 2)
	})

	t.Run("stranger denied", func(t *testing.T) {
		f := newFixture(t)
		b := f.book(t, domain.StatusPending, false)

		_, err := f.service.Cancel(ctx, b.ID, &models.CancelBookingRequest{Actor: f.stranger})
		assert.ErrorIs(t, err, ErrAccessDenied)
		assert.Empty(t, f.store.OutboxEvents())
	})
}

func TestService_Complete(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	unpaid := f.book(t, domain.StatusPending, false)
	_, err := f.service.Complete(ctx, unpaid.ID, f.provider)
	assert.ErrorIs(t, err, ErrCannotComplete)

	paid := f.book(t, domain.StatusConfirmed, true)
	_, err = f.service.Complete(ctx, paid.ID, f.customer)
	assert.ErrorIs(t, err, ErrAccessDenied)

	resp, err := f.service.Complete(ctx, paid.ID, f.provider)
	require.NoError(t, err)
	assert.Equal(t, "completed", resp.Status)

	events := f.store.OutboxEvents()
	require.Len(t, events, 1)
	assert.Equal(t, domain.EventBookingCompleted, events[0].EventType)
	assert.Equal(t, f.customer.UserID, events[0].RecipientID)
}

func TestService_Export(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	f.book(t, domain.StatusConfirmed, true)
	f.book(t, domain.StatusPending, false)

	_, err := f.service.Export(ctx, &models.ExportBookingsRequest{Actor: f.provider})
	assert.ErrorIs(t, err, ErrAccessDenied)

	data, err := f.service.Export(ctx, &models.ExportBookingsRequest{Actor: f.admin})
	require.NoError(t, err)

	wb, err := excelize.OpenReader(bytes.NewReader(data))
	require.NoError(t, err)
	defer wb.Close()

	rows, err := wb.GetRows(exportSheet)
	require.NoError(t, err)
	require.GreaterOrEqual(t, len(rows), 4)
	assert.Equal(t, "ID", rows[0][0])
	assert.Equal(t, "Math tutoring", rows[1][2])

	total, err := wb.GetCellValue(exportSheet, "F5")
	require.NoError(t, err)
	assert.Equal(t, "500", total)

	from := time.Date(2026, 6, 1, 0, 0, 0, 0, time.UTC)
	to := time.Date(2026, 5, 1, 0, 0, 0, 0, time.UTC)
	_, err = f.service.Export(ctx, &models.ExportBookingsRequest{Actor: f.admin, DateFrom: &from, DateTo: &to})
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestWriteRow_ReturnsExcelizeErrors(t *testing.T) {
	wb := excelize.NewFile()
	defer wb.Close()
	require.NoError(t, wb.SetSheetName("Sheet1", exportSheet))

	require.NoError(t, writeRow(wb, 2, 1, []interface{}{int64(1), "ok"}))

	assert.Error(t, writeRow(wb, 0, 1, []interface{}{"x"}))

	// Книга без листа выгрузки
	bare := excelize.NewFile()
	defer bare.Close()
	var missing excelize.ErrSheetNotExist
	assert.ErrorAs(t, writeRow(bare, 1, 1, []interface{}{"x"}), &missing)
}
