package payments

import (
	"context"

	"github.com/m04kA/SMC-MarketplaceService/internal/domain"
)

// TransactionRepository интерфейс репозитория платёжных транзакций
type TransactionRepository interface {
	GetEarnings(ctx context.Context, providerID int64) (*domain.Earnings, error)
}

// Logger интерфейс для логирования
type Logger interface {
	Info(format string, v ...interface{})
	Warn(format string, v ...interface{})
	Error(format string, v ...interface{})
}
