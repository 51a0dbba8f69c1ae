package initiate_payment

import (
	"context"

	"github.com/m04kA/SMC-MarketplaceService/internal/domain"
	"github.com/m04kA/SMC-MarketplaceService/internal/integrations/mobilemoney"
	"github.com/m04kA/SMC-MarketplaceService/internal/service/settlement"
)

// BookingRepository интерфейс репозитория бронирований
type BookingRepository interface {
	GetByID(ctx context.Context, id int64) (*domain.Booking, error)
	GetByIDForUpdate(ctx context.Context, id int64) (*domain.Booking, error)
}

// TransactionRepository интерфейс репозитория платёжных транзакций
type TransactionRepository interface {
	Create(ctx context.Context, tx *domain.Transaction) (*domain.Transaction, error)
	GetByID(ctx context.Context, id int64) (*domain.Transaction, error)
	GetPendingByBookingID(ctx context.Context, bookingID int64) (*domain.Transaction, error)
	AppendPendingDetails(ctx context.Context, id int64, details domain.TransactionDetails) error
}

// PaymentGateway интерфейс провайдера мобильных платежей
type PaymentGateway interface {
	RequestPayment(ctx context.Context, req mobilemoney.PaymentRequest) (*mobilemoney.PaymentResponse, error)
}

// Settler атомарный расчёт транзакции
type Settler interface {
	Settle(ctx context.Context, req settlement.Request) (*settlement.Result, error)
}

// RateLimiter ограничение числа попыток оплаты на покупателя
type RateLimiter interface {
	Allow(ctx context.Context, customerID int64) (bool, error)
}

// TransactionManager интерфейс для управления транзакциями
type TransactionManager interface {
	Do(ctx context.Context, fn func(ctx context.Context) error) error
}

// Metrics интерфейс доменных метрик
type Metrics interface {
	IncPaymentsInitiated(result string)
}

// Logger интерфейс для логирования
type Logger interface {
	Info(format string, v ...interface{})
	Warn(format string, v ...interface{})
	Error(format string, v ...interface{})
}
