package outbox

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/Masterminds/squirrel"

	"github.com/m04kA/SMC-MarketplaceService/internal/domain"
	"github.com/m04kA/SMC-MarketplaceService/pkg/dbmetrics"
	"github.com/m04kA/SMC-MarketplaceService/pkg/psqlbuilder"
)

// DBExecutor интерфейс выполнения запросов (БД или транзакция)
type DBExecutor = dbmetrics.DBExecutor

// Repository репозиторий исходящих событий (transactional outbox)
type Repository struct {
	db DBExecutor
}

// NewRepository создает новый экземпляр репозитория outbox
func NewRepository(db DBExecutor) *Repository {
	return &Repository{db: db}
}

// Add сохраняет событие. Вызывается в той же транзакции, что и изменение состояния.
func (r *Repository) Add(ctx context.Context, event *domain.OutboxEvent) error {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	query, args, err := psqlbuilder.Insert("outbox_events").
		Columns("event_type", "aggregate_id", "recipient_id", "payload").
		Values(event.EventType, event.AggregateID, event.RecipientID, string(event.Payload)).
		Suffix("RETURNING id, created_at, next_attempt_at").
		ToSql()

	if err != nil {
		return fmt.Errorf("%w: Add - build insert query: %v", ErrBuildQuery, err)
	}

	err = executor.QueryRowContext(ctx, query, args...).Scan(&event.ID, &event.CreatedAt, &event.NextAttemptAt)
	if err != nil {
		return fmt.Errorf("%w: Add - execute insert: %v", ErrExecQuery, err)
	}

	return nil
}

// FetchDue возвращает неопубликованные события, время повтора которых наступило.
// Внутри транзакции строки блокируются с SKIP LOCKED, чтобы несколько релеев не брали одно событие.
func (r *Repository) FetchDue(ctx context.Context, now time.Time, limit int) ([]*domain.OutboxEvent, error) {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	selectBuilder := psqlbuilder.Select(
		"id",
		"event_type",
		"aggregate_id",
		"recipient_id",
		"payload",
		"attempts",
		"last_error",
		"next_attempt_at",
		"created_at",
	).
		From("outbox_events").
		Where(squirrel.Eq{"published_at": nil}).
		Where(squirrel.LtOrEq{"next_attempt_at": now}).
		OrderBy("id ASC").
		Limit(uint64(limit))

	if dbmetrics.IsInTransaction(ctx) {
		selectBuilder = selectBuilder.Suffix("FOR UPDATE SKIP LOCKED")
	}

	query, args, err := selectBuilder.ToSql()
	if err != nil {
		return nil, fmt.Errorf("%w: FetchDue - build select query: %v", ErrBuildQuery, err)
	}

	rows, err := executor.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("%w: FetchDue - execute query: %v", ErrExecQuery, err)
	}
	defer rows.Close()

	events := make([]*domain.OutboxEvent, 0)
	for rows.Next() {
		var event domain.OutboxEvent
		var lastError sql.NullString
		var payload []byte

		err := rows.Scan(
			&event.ID,
			&event.EventType,
			&event.AggregateID,
			&event.RecipientID,
			&payload,
			&event.Attempts,
			&lastError,
			&event.NextAttemptAt,
			&event.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("%w: FetchDue - scan row: %v", ErrScanRow, err)
		}

		event.Payload = payload
		if lastError.Valid {
			event.LastError = &lastError.String
		}
		events = append(events, &event)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: FetchDue - rows error: %v", ErrScanRow, err)
	}

	return events, nil
}

// MarkPublished отмечает событие доставленным
func (r *Repository) MarkPublished(ctx context.Context, id int64, publishedAt time.Time) error {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	query, args, err := psqlbuilder.Update("outbox_events").
		Set("published_at", publishedAt).
		Set("attempts", squirrel.Expr("attempts + 1")).
		Set("last_error", nil).
		Where(squirrel.Eq{"id": id}).
		ToSql()

	if err != nil {
		return fmt.Errorf("%w: MarkPublished - build update query: %v", ErrBuildQuery, err)
	}

	if _, err := executor.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("%w: MarkPublished - execute update: %v", ErrExecQuery, err)
	}

	return nil
}

// MarkFailed увеличивает счётчик попыток и откладывает следующую попытку
func (r *Repository) MarkFailed(ctx context.Context, id int64, lastError string, nextAttemptAt time.Time) error {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	query, args, err := psqlbuilder.Update("outbox_events").
		Set("attempts", squirrel.Expr("attempts + 1")).
		Set("last_error", lastError).
		Set("next_attempt_at", nextAttemptAt).
		Where(squirrel.Eq{"id": id}).
		ToSql()

	if err != nil {
		return fmt.Errorf("%w: MarkFailed - build update query: %v", ErrBuildQuery, err)
	}

	if _, err := executor.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("%w: MarkFailed - execute update: %v", ErrExecQuery, err)
	}

	return nil
}
