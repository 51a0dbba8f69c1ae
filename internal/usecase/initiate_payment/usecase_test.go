package initiate_payment

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/m04kA/SMC-MarketplaceService/internal/domain"
	"github.com/m04kA/SMC-MarketplaceService/internal/infra/storage/memstore"
	"github.com/m04kA/SMC-MarketplaceService/internal/integrations/mobilemoney"
	"github.com/m04kA/SMC-MarketplaceService/internal/service/settlement"
	"github.com/m04kA/SMC-MarketplaceService/pkg/logger"
)

type resultMetrics struct{ results map[string]int }

func (m *resultMetrics) IncPaymentsInitiated(result string) {
	if m.results == nil {
		m.results = make(map[string]int)
	}
	m.results[result]++
}

func (m *resultMetrics) IncPaymentsSettled(string, string) {}

type fakeLimiter struct {
	allowed bool
	err     error
}

func (l fakeLimiter) Allow(context.Context, int64) (bool, error) { return l.allowed, l.err }

// countingLimiter считает обращения к лимиту
type countingLimiter struct {
	allowed bool
	calls   int
}

func (l *countingLimiter) Allow(context.Context, int64) (bool, error) {
	l.calls++
	return l.allowed, nil
}

type brokenGateway struct{}

func (brokenGateway) RequestPayment(context.Context, mobilemoney.PaymentRequest) (*mobilemoney.PaymentResponse, error) {
	return nil, mobilemoney.ErrRequestRejected
}

type fixture struct {
	store     *memstore.Store
	metrics   *resultMetrics
	gateway   PaymentGateway
	limiter   RateLimiter
	provider  int64
	customer  int64
	serviceID int64
	booking   *domain.Booking
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	store := memstore.New()
	provider := store.AddUser("Otieno")
	customer := store.AddUser("Wanjiku")
	serviceID := store.AddService(provider, "Math tutoring", decimal.NewFromInt(500))

	f := &fixture{
		store:     store,
		metrics:   &resultMetrics{},
		gateway:   mobilemoney.NewSimulator(30 * time.Second),
		provider:  provider,
		customer:  customer,
		serviceID: serviceID,
	}
	f.booking = f.newBooking(t)
	return f
}

func (f *fixture) newBooking(t *testing.T) *domain.Booking {
	t.Helper()
	booking, err := f.store.Bookings().Create(context.Background(), &domain.Booking{
		ServiceID:   f.serviceID,
		CustomerID:  f.customer,
		ProviderID:  f.provider,
		Date:        time.Date(2026, 5, 1, 0, 0, 0, 0, time.UTC),
		TotalAmount: decimal.NewFromInt(500),
		Status:      domain.StatusPending,
	})
	require.NoError(t, err)
	return booking
}

func (f *fixture) useCase() *UseCase {
	settler := settlement.NewService(
		f.store.Transactions(),
		f.store.Bookings(),
		f.store.Outbox(),
		memstore.TxManager{},
		f.metrics,
		logger.NewNop(),
	)
	return NewUseCase(
		f.store.Bookings(),
		f.store.Transactions(),
		f.gateway,
		settler,
		f.limiter,
		memstore.TxManager{},
		f.metrics,
		logger.NewNop(),
	)
}

func TestExecute_Success(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	resp, err := f.useCase().Execute(ctx, &Request{
		BookingID:   f.booking.ID,
		CustomerID:  f.customer,
		PhoneNumber: "0798765432",
	})
	require.NoError(t, err)

	tx := resp.Transaction
	assert.Equal(t, domain.TransactionPending, tx.Status)
	assert.Equal(t, "+254798765432", tx.Details.PhoneNumber)
	assert.NotEmpty(t, tx.Details.CheckoutRequestID)
	assert.Len(t, tx.Reference, 36)
	assert.True(t, decimal.NewFromInt(500).Equal(tx.Amount))
	assert.Equal(t, f.provider, tx.ProviderID)
	assert.NotEmpty(t, resp.Message)

	// Бронирование не меняется до подтверждения
	booking, err := f.store.Bookings().GetByID(ctx, f.booking.ID)
	require.NoError(t, err)
	assert.False(t, booking.IsPaid)
	assert.Equal(t, domain.StatusPending, booking.Status)

	assert.Equal(t, 1, f.metrics.results[resultAccepted])
}

func TestExecute_AmountComesFromBooking(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	newPrice := decimal.NewFromInt(600)
	_, err := f.store.Services().Update(ctx, f.serviceID, domain.ServiceUpdate{Price: &newPrice})
	require.NoError(t, err)

	resp, err := f.useCase().Execute(ctx, &Request{
		BookingID:   f.booking.ID,
		CustomerID:  f.customer,
		PhoneNumber: "+254798765432",
	})
	require.NoError(t, err)
	assert.True(t, decimal.NewFromInt(500).Equal(resp.Transaction.Amount))
}

func TestExecute_SecondInitiationWhilePending(t *testing.T) {
	f := newFixture(t)
	uc := f.useCase()
	req := &Request{BookingID: f.booking.ID, CustomerID: f.customer, PhoneNumber: "798765432"}

	_, err := uc.Execute(context.Background(), req)
	require.NoError(t, err)

	_, err = uc.Execute(context.Background(), req)
	assert.ErrorIs(t, err, ErrPaymentInProgress)
}

func TestExecute_ErrorOrdering(t *testing.T) {
	tests := []struct {
		name    string
		prepare func(t *testing.T, f *fixture) *Request
		wantErr error
	}{
		{
			name: "missing booking wins over bad phone",
			prepare: func(t *testing.T, f *fixture) *Request {
				return &Request{BookingID: 9999, CustomerID: f.customer, PhoneNumber: "12"}
			},
			wantErr: ErrBookingNotFound,
		},
		{
			name: "foreign booking wins over bad phone",
			prepare: func(t *testing.T, f *fixture) *Request {
				return &Request{BookingID: f.booking.ID, CustomerID: f.provider, PhoneNumber: "12"}
			},
			wantErr: ErrAccessDenied,
		},
		{
			name: "paid booking wins over bad phone",
			prepare: func(t *testing.T, f *fixture) *Request {
				require.NoError(t, f.store.Bookings().MarkPaid(context.Background(), f.booking.ID, time.Now()))
				return &Request{BookingID: f.booking.ID, CustomerID: f.customer, PhoneNumber: "12"}
			},
			wantErr: ErrAlreadyPaid,
		},
		{
			name: "cancelled booking",
			prepare: func(t *testing.T, f *fixture) *Request {
				require.NoError(t, f.store.Bookings().Cancel(context.Background(), f.booking.ID, nil, time.Now()))
				return &Request{BookingID: f.booking.ID, CustomerID: f.customer, PhoneNumber: "0798765432"}
			},
			wantErr: ErrBookingCancelled,
		},
		{
			name: "invalid phone",
			prepare: func(t *testing.T, f *fixture) *Request {
				return &Request{BookingID: f.booking.ID, CustomerID: f.customer, PhoneNumber: "0598765432"}
			},
			wantErr: ErrInvalidPhoneNumber,
		},
		{
			name: "invalid booking id",
			prepare: func(t *testing.T, f *fixture) *Request {
				return &Request{BookingID: 0, CustomerID: f.customer, PhoneNumber: "0798765432"}
			},
			wantErr: ErrInvalidInput,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)
			_, err := f.useCase().Execute(context.Background(), tt.prepare(t, f))
			assert.ErrorIs(t, err, tt.wantErr)

			pending, _ := f.store.Transactions().GetPendingByBookingID(context.Background(), f.booking.ID)
			assert.Nil(t, pending)
		})
	}
}

func TestExecute_RateLimited(t *testing.T) {
	f := newFixture(t)
	f.limiter = fakeLimiter{allowed: false}

	_, err := f.useCase().Execute(context.Background(), &Request{
		BookingID:   f.booking.ID,
		CustomerID:  f.customer,
		PhoneNumber: "0798765432",
	})
	assert.ErrorIs(t, err, ErrRateLimited)
	assert.Equal(t, 1, f.metrics.results[resultRejected])
}

func TestExecute_LimiterFailureIsIgnored(t *testing.T) {
	f := newFixture(t)
	f.limiter = fakeLimiter{err: errors.New("connection refused")}

	_, err := f.useCase().Execute(context.Background(), &Request{
		BookingID:   f.booking.ID,
		CustomerID:  f.customer,
		PhoneNumber: "0798765432",
	})
	assert.NoError(t, err)
}

func TestExecute_GatewayRejection(t *testing.T) {
	f := newFixture(t)
	f.gateway = brokenGateway{}
	ctx := context.Background()
	req := &Request{BookingID: f.booking.ID, CustomerID: f.customer, PhoneNumber: "0798765432"}

	_, err := f.useCase().Execute(ctx, req)
	assert.ErrorIs(t, err, ErrGatewayUnavailable)
	assert.Equal(t, 1, f.metrics.results[resultGatewayError])

	// Транзакция помечена failed, покупатель может повторить
	pending, err := f.store.Transactions().GetPendingByBookingID(ctx, f.booking.ID)
	assert.Nil(t, pending)
	assert.Error(t, err)

	events := f.store.OutboxEvents()
	require.Len(t, events, 1)
	assert.Equal(t, domain.EventPaymentFailed, events[0].EventType)
	assert.Equal(t, f.customer, events[0].RecipientID)

	f.gateway = mobilemoney.NewSimulator(time.Second)
	_, err = f.useCase().Execute(ctx, req)
	assert.NoError(t, err)
}

func TestExecute_BookingChecksRunBeforeRateLimit(t *testing.T) {
	tests := []struct {
		name    string
		prepare func(t *testing.T, f *fixture) *Request
		wantErr error
	}{
		{
			name: "paid booking",
			prepare: func(t *testing.T, f *fixture) *Request {
				require.NoError(t, f.store.Bookings().MarkPaid(context.Background(), f.booking.ID, time.Now()))
				return &Request{BookingID: f.booking.ID, CustomerID: f.customer, PhoneNumber: "0798765432"}
			},
			wantErr: ErrAlreadyPaid,
		},
		{
			name: "missing booking",
			prepare: func(t *testing.T, f *fixture) *Request {
				return &Request{BookingID: 999999, CustomerID: f.customer, PhoneNumber: "0798765432"}
			},
			wantErr: ErrBookingNotFound,
		},
		{
			name: "foreign booking",
			prepare: func(t *testing.T, f *fixture) *Request {
				return &Request{BookingID: f.booking.ID, CustomerID: f.provider, PhoneNumber: "0798765432"}
			},
			wantErr: ErrAccessDenied,
		},
		{
			name: "invalid phone",
			prepare: func(t *testing.T, f *fixture) *Request {
				return &Request{BookingID: f.booking.ID, CustomerID: f.customer, PhoneNumber: "12"}
			},
			wantErr: ErrInvalidPhoneNumber,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)
			limiter := &countingLimiter{allowed: false}
			f.limiter = limiter

			_, err := f.useCase().Execute(context.Background(), tt.prepare(t, f))
			assert.ErrorIs(t, err, tt.wantErr)
			assert.NotErrorIs(t, err, ErrRateLimited)

			// Отклонённый запрос не расходует попытки покупателя
			assert.Zero(t, limiter.calls)
		})
	}
}

func TestExecute_PendingPaymentDoesNotConsumeLimit(t *testing.T) {
	f := newFixture(t)
	limiter := &countingLimiter{allowed: true}
	f.limiter = limiter
	uc := f.useCase()
	req := &Request{BookingID: f.booking.ID, CustomerID: f.customer, PhoneNumber: "0798765432"}

	_, err := uc.Execute(context.Background(), req)
	require.NoError(t, err)
	assert.Equal(t, 1, limiter.calls)

	_, err = uc.Execute(context.Background(), req)
	assert.ErrorIs(t, err, ErrPaymentInProgress)
	assert.Equal(t, 1, limiter.calls)
}
