package transaction

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/lib/pq"
	"github.com/shopspring/decimal"

	"github.com/m04kA/SMC-MarketplaceService/internal/domain"
	"github.com/m04kA/SMC-MarketplaceService/pkg/dbmetrics"
	"github.com/m04kA/SMC-MarketplaceService/pkg/psqlbuilder"
)

const (
	uniqueViolationCode    = "23505"
	pendingPerBookingIndex = "uq_transactions_pending_booking"
)

var selectColumns = []string{
	"id",
	"booking_id",
	"customer_id",
	"provider_id",
	"amount",
	"payment_method",
	"status",
	"reference",
	"details",
	"created_at",
	"updated_at",
	"completed_at",
}

// DBExecutor интерфейс выполнения запросов (БД или транзакция)
type DBExecutor = dbmetrics.DBExecutor

// Repository репозиторий платёжных транзакций
type Repository struct {
	db DBExecutor
}

// NewRepository создает новый экземпляр репозитория транзакций
func NewRepository(db DBExecutor) *Repository {
	return &Repository{db: db}
}

// Create создает транзакцию.
// Вторая pending-транзакция для того же бронирования отклоняется частичным уникальным индексом.
func (r *Repository) Create(ctx context.Context, tx *domain.Transaction) (*domain.Transaction, error) {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	query, args, err := psqlbuilder.Insert("transactions").
		Columns(
			"booking_id",
			"customer_id",
			"provider_id",
			"amount",
			"payment_method",
			"status",
			"reference",
			"details",
		).
		Values(
			tx.BookingID,
			tx.CustomerID,
			tx.ProviderID,
			tx.Amount,
			tx.PaymentMethod,
			tx.Status,
			tx.Reference,
			tx.Details,
		).
		Suffix("RETURNING id, created_at, updated_at").
		ToSql()

	if err != nil {
		return nil, fmt.Errorf("%w: Create - build insert query: %v", ErrBuildQuery, err)
	}

	var createdAt, updatedAt sql.NullTime
	err = executor.QueryRowContext(ctx, query, args...).Scan(&tx.ID, &createdAt, &updatedAt)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == uniqueViolationCode && pqErr.Constraint == pendingPerBookingIndex {
			return nil, ErrPendingTransactionExists
		}
		return nil, fmt.Errorf("%w: Create - execute insert: %v", ErrExecQuery, err)
	}

	tx.CreatedAt = createdAt.Time
	tx.UpdatedAt = updatedAt.Time

	return tx, nil
}

// GetByID получает транзакцию по ID
func (r *Repository) GetByID(ctx context.Context, id int64) (*domain.Transaction, error) {
	return r.getOne(ctx, "GetByID", squirrel.Eq{"id": id})
}

// GetByReference получает транзакцию по внешнему идентификатору (UUID)
func (r *Repository) GetByReference(ctx context.Context, reference string) (*domain.Transaction, error) {
	return r.getOne(ctx, "GetByReference", squirrel.Eq{"reference": reference})
}

// GetPendingByBookingID возвращает незавершённую транзакцию бронирования
func (r *Repository) GetPendingByBookingID(ctx context.Context, bookingID int64) (*domain.Transaction, error) {
	return r.getOne(ctx, "GetPendingByBookingID", squirrel.Eq{
		"booking_id": bookingID,
		"status":     domain.TransactionPending,
	})
}

func (r *Repository) getOne(ctx context.Context, op string, where squirrel.Sqlizer) (*domain.Transaction, error) {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	query, args, err := psqlbuilder.Select(selectColumns...).
		From("transactions").
		Where(where).
		ToSql()

	if err != nil {
		return nil, fmt.Errorf("%w: %s - build select query: %v", ErrBuildQuery, op, err)
	}

	tx, err := scanTransaction(executor.QueryRowContext(ctx, query, args...))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrTransactionNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %s - scan transaction: %v", ErrScanRow, op, err)
	}

	return tx, nil
}

// CompareAndSetStatus переводит транзакцию из статуса from в статус to.
// Возвращает false, если статус уже был изменён кем-то другим (строка не обновлена).
// details дописываются в JSONB поверх существующих ключей.
func (r *Repository) CompareAndSetStatus(
	ctx context.Context,
	id int64,
	from, to domain.TransactionStatus,
	details domain.TransactionDetails,
	completedAt *time.Time,
) (bool, error) {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	updateBuilder := psqlbuilder.Update("transactions").
		Set("status", to).
		Set("details", squirrel.Expr("details || ?::jsonb", details)).
		Set("updated_at", squirrel.Expr("NOW()")).
		Where(squirrel.Eq{"id": id, "status": from})

	if completedAt != nil {
		updateBuilder = updateBuilder.Set("completed_at", *completedAt)
	}

	query, args, err := updateBuilder.ToSql()
	if err != nil {
		return false, fmt.Errorf("%w: CompareAndSetStatus - build update query: %v", ErrBuildQuery, err)
	}

	result, err := executor.ExecContext(ctx, query, args...)
	if err != nil {
		return false, fmt.Errorf("%w: CompareAndSetStatus - execute update: %v", ErrExecQuery, err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("%w: CompareAndSetStatus - get rows affected: %v", ErrExecQuery, err)
	}

	return rowsAffected == 1, nil
}

// AppendPendingDetails дописывает данные шлюза, пока транзакция ещё pending
func (r *Repository) AppendPendingDetails(ctx context.Context, id int64, details domain.TransactionDetails) error {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	query, args, err := psqlbuilder.Update("transactions").
		Set("details", squirrel.Expr("details || ?::jsonb", details)).
		Set("updated_at", squirrel.Expr("NOW()")).
		Where(squirrel.Eq{"id": id, "status": domain.TransactionPending}).
		ToSql()

	if err != nil {
		return fmt.Errorf("%w: AppendPendingDetails - build update query: %v", ErrBuildQuery, err)
	}

	if _, err := executor.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("%w: AppendPendingDetails - execute update: %v", ErrExecQuery, err)
	}

	return nil
}

// MarkRefundedByBooking помечает завершённые платежи бронирования возвращёнными
func (r *Repository) MarkRefundedByBooking(ctx context.Context, bookingID int64) (int64, error) {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	query, args, err := psqlbuilder.Update("transactions").
		Set("status", domain.TransactionRefunded).
		Set("updated_at", squirrel.Expr("NOW()")).
		Where(squirrel.Eq{"booking_id": bookingID, "status": domain.TransactionCompleted}).
		ToSql()

	if err != nil {
		return 0, fmt.Errorf("%w: MarkRefundedByBooking - build update query: %v", ErrBuildQuery, err)
	}

	result, err := executor.ExecContext(ctx, query, args...)
	if err != nil {
		return 0, fmt.Errorf("%w: MarkRefundedByBooking - execute update: %v", ErrExecQuery, err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("%w: MarkRefundedByBooking - get rows affected: %v", ErrExecQuery, err)
	}

	return rowsAffected, nil
}

// ListStalePending возвращает pending-транзакции, созданные раньше olderThan (старые первыми)
func (r *Repository) ListStalePending(ctx context.Context, olderThan time.Time, limit int) ([]*domain.Transaction, error) {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	query, args, err := psqlbuilder.Select(selectColumns...).
		From("transactions").
		Where(squirrel.Eq{"status": domain.TransactionPending}).
		Where(squirrel.Lt{"created_at": olderThan}).
		OrderBy("created_at ASC", "id ASC").
		Limit(uint64(limit)).
		ToSql()

	if err != nil {
		return nil, fmt.Errorf("%w: ListStalePending - build select query: %v", ErrBuildQuery, err)
	}

	rows, err := executor.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("%w: ListStalePending - execute query: %v", ErrExecQuery, err)
	}
	defer rows.Close()

	transactions := make([]*domain.Transaction, 0)
	for rows.Next() {
		tx, err := scanTransaction(rows)
		if err != nil {
			return nil, fmt.Errorf("%w: ListStalePending - scan row: %v", ErrScanRow, err)
		}
		transactions = append(transactions, tx)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: ListStalePending - rows error: %v", ErrScanRow, err)
	}

	return transactions, nil
}

// GetEarnings считает сумму завершённых платежей провайдера.
// Значение вычисляется из транзакций, поэтому повторное подтверждение не может его удвоить.
func (r *Repository) GetEarnings(ctx context.Context, providerID int64) (*domain.Earnings, error) {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	query, args, err := psqlbuilder.Select("COALESCE(SUM(amount), 0)", "COUNT(*)").
		From("transactions").
		Where(squirrel.Eq{"provider_id": providerID, "status": domain.TransactionCompleted}).
		ToSql()

	if err != nil {
		return nil, fmt.Errorf("%w: GetEarnings - build select query: %v", ErrBuildQuery, err)
	}

	var total decimal.Decimal
	var count int64
	if err := executor.QueryRowContext(ctx, query, args...).Scan(&total, &count); err != nil {
		return nil, fmt.Errorf("%w: GetEarnings - scan: %v", ErrScanRow, err)
	}

	return &domain.Earnings{
		ProviderID:        providerID,
		Total:             total,
		CompletedPayments: count,
	}, nil
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanTransaction(row rowScanner) (*domain.Transaction, error) {
	var tx domain.Transaction
	var createdAt, updatedAt sql.NullTime

	err := row.Scan(
		&tx.ID,
		&tx.BookingID,
		&tx.CustomerID,
		&tx.ProviderID,
		&tx.Amount,
		&tx.PaymentMethod,
		&tx.Status,
		&tx.Reference,
		&tx.Details,
		&createdAt,
		&updatedAt,
		&tx.CompletedAt,
	)
	if err != nil {
		return nil, err
	}

	tx.CreatedAt = createdAt.Time
	tx.UpdatedAt = updatedAt.Time

	return &tx, nil
}
