package notifier

import (
	"context"

	"github.com/m04kA/SMC-MarketplaceService/internal/domain"
)

// Logger интерфейс для логирования
type Logger interface {
	Info(format string, v ...interface{})
}

// LogNotifier пишет уведомления в лог. Используется, когда брокер не настроен.
type LogNotifier struct {
	logger Logger
}

func NewLogNotifier(logger Logger) *LogNotifier {
	return &LogNotifier{logger: logger}
}

func (n *LogNotifier) Publish(_ context.Context, event *domain.OutboxEvent) error {
	n.logger.Info("notification %s to user=%d for booking=%d: %s",
		event.EventType, event.RecipientID, event.AggregateID, string(event.Payload))
	return nil
}

func (n *LogNotifier) Close() error {
	return nil
}
