package payment_callback

import (
	"context"

	"github.com/m04kA/SMC-MarketplaceService/internal/domain"
	"github.com/m04kA/SMC-MarketplaceService/internal/service/settlement"
)

// TransactionRepository интерфейс репозитория платёжных транзакций
type TransactionRepository interface {
	GetByReference(ctx context.Context, reference string) (*domain.Transaction, error)
}

// Settler атомарный расчёт транзакции
type Settler interface {
	Settle(ctx context.Context, req settlement.Request) (*settlement.Result, error)
}

// Logger интерфейс для логирования
type Logger interface {
	Info(format string, v ...interface{})
	Warn(format string, v ...interface{})
	Error(format string, v ...interface{})
}
