package worker

import (
	"context"
	"time"

	"github.com/m04kA/SMC-MarketplaceService/internal/domain"
	"github.com/m04kA/SMC-MarketplaceService/internal/integrations/mobilemoney"
	"github.com/m04kA/SMC-MarketplaceService/internal/service/settlement"
)

// OutboxRepository хранилище исходящих событий
type OutboxRepository interface {
	FetchDue(ctx context.Context, now time.Time, limit int) ([]*domain.OutboxEvent, error)
	MarkPublished(ctx context.Context, id int64, publishedAt time.Time) error
	MarkFailed(ctx context.Context, id int64, lastError string, nextAttemptAt time.Time) error
}

// Notifier доставляет событие получателю (брокер или лог)
type Notifier interface {
	Publish(ctx context.Context, event *domain.OutboxEvent) error
}

// TransactionRepository чтение зависших платежей
type TransactionRepository interface {
	ListStalePending(ctx context.Context, olderThan time.Time, limit int) ([]*domain.Transaction, error)
}

// StatusChecker запрос статуса платежа у провайдера
type StatusChecker interface {
	CheckStatus(ctx context.Context, reference string) (*mobilemoney.StatusResponse, error)
}

// Settler применяет итог платежа
type Settler interface {
	Settle(ctx context.Context, req settlement.Request) (*settlement.Result, error)
}

// TransactionManager интерфейс для управления транзакциями
type TransactionManager interface {
	Do(ctx context.Context, fn func(ctx context.Context) error) error
}

// Metrics интерфейс для метрик outbox
type Metrics interface {
	IncOutboxEvents(result string)
}

// Logger интерфейс для логирования
type Logger interface {
	Info(format string, v ...interface{})
	Warn(format string, v ...interface{})
	Error(format string, v ...interface{})
}
