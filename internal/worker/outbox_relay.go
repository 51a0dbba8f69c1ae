package worker

import (
	"context"
	"fmt"
	"time"
	"unicode/utf8"
)

const (
	outboxResultPublished = "published"
	outboxResultFailed    = "failed"
	maxErrorLength        = 500
)

// OutboxRelay доставляет события outbox уведомителю (at-least-once)
type OutboxRelay struct {
	repo      OutboxRepository
	notifier  Notifier
	txManager TransactionManager
	metrics   Metrics
	logger    Logger

	interval time.Duration
	batch    int
	retry    RetryPolicy
	now      func() time.Time
}

// NewOutboxRelay создает релей. Нулевые interval и batch заменяются значениями по умолчанию.
func NewOutboxRelay(
	repo OutboxRepository,
	notifier Notifier,
	txManager TransactionManager,
	metrics Metrics,
	logger Logger,
	interval time.Duration,
	batch int,
	retry RetryPolicy,
) *OutboxRelay {
	if interval <= 0 {
		interval = 2 * time.Second
	}
	if batch <= 0 {
		batch = 50
	}
	return &OutboxRelay{
		repo:      repo,
		notifier:  notifier,
		txManager: txManager,
		metrics:   metrics,
		logger:    logger,
		interval:  interval,
		batch:     batch,
		retry:     retry,
		now:       time.Now,
	}
}

// WithClock подменяет источник времени (для тестов)
func (r *OutboxRelay) WithClock(now func() time.Time) *OutboxRelay {
	r.now = now
	return r
}

// Run обрабатывает outbox до отмены ctx
func (r *OutboxRelay) Run(ctx context.Context) {
	r.logger.Info("outbox relay: started, interval=%s, batch=%d", r.interval, r.batch)
	defer r.logger.Info("outbox relay: stopped")

	runEvery(ctx, r.interval, func(ctx context.Context) {
		if _, err := r.RunOnce(ctx); err != nil && ctx.Err() == nil {
			r.logger.Error("outbox relay: %v", err)
		}
	})
}

// RunOnce обрабатывает одну пачку событий и возвращает число доставленных.
// Строки заблокированы (SKIP LOCKED) до конца транзакции, поэтому несколько
// экземпляров сервиса не отправляют одно событие одновременно.
func (r *OutboxRelay) RunOnce(ctx context.Context) (int, error) {
	published := 0

	err := r.txManager.Do(ctx, func(txCtx context.Context) error {
		events, err := r.repo.FetchDue(txCtx, r.now(), r.batch)
		if err != nil {
			return fmt.Errorf("fetch due events: %w", err)
		}

		for _, event := range events {
			if pubErr := r.notifier.Publish(txCtx, event); pubErr != nil {
				attempt := event.Attempts + 1
				next := r.now().Add(r.retry.NextDelay(attempt))
				r.logger.Warn("outbox relay: event id=%d (%s) attempt %d failed, next at %s: %v",
					event.ID, event.EventType, attempt, next.Format(time.RFC3339), pubErr)

				if err := r.repo.MarkFailed(txCtx, event.ID, truncate(pubErr.Error(), maxErrorLength), next); err != nil {
					return fmt.Errorf("mark event id=%d failed: %w", event.ID, err)
				}
				r.metrics.IncOutboxEvents(outboxResultFailed)
				continue
			}

			if err := r.repo.MarkPublished(txCtx, event.ID, r.now()); err != nil {
				return fmt.Errorf("mark event id=%d published: %w", event.ID, err)
			}
			r.metrics.IncOutboxEvents(outboxResultPublished)
			published++
		}
		return nil
	})
	if err != nil {
		return 0, err
	}

	return published, nil
}

// truncate обрезает s до max байт, не разрывая UTF-8 последовательность
func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	for max > 0 && !utf8.RuneStart(s[max]) {
		max--
	}
	return s[:max]
}
