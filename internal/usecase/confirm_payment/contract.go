package confirm_payment

import (
	"context"

	"github.com/m04kA/SMC-MarketplaceService/internal/domain"
	"github.com/m04kA/SMC-MarketplaceService/internal/integrations/mobilemoney"
	"github.com/m04kA/SMC-MarketplaceService/internal/service/settlement"
)

// TransactionRepository интерфейс репозитория платёжных транзакций
type TransactionRepository interface {
	GetByID(ctx context.Context, id int64) (*domain.Transaction, error)
}

// PaymentGateway интерфейс провайдера мобильных платежей
type PaymentGateway interface {
	CheckStatus(ctx context.Context, reference string) (*mobilemoney.StatusResponse, error)
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
