// Package storagetest поднимает PostgreSQL в контейнере для интеграционных тестов репозиториев.
// Если Docker недоступен, тест пропускается.
package storagetest

import (
	"context"
	"database/sql"
	"path/filepath"
	"runtime"
	"testing"
	"time"

	_ "github.com/lib/pq"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
)

// NewPostgres запускает контейнер с применённой схемой и возвращает подключение
func NewPostgres(t *testing.T) *sql.DB {
	t.Helper()
	testcontainers.SkipIfProviderIsNotHealthy(t)

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	ctr, err := postgres.Run(ctx,
		"postgres:16-alpine",
		postgres.WithDatabase("marketplace"),
		postgres.WithUsername("marketplace"),
		postgres.WithPassword("marketplace"),
		postgres.WithInitScripts(migrationPath()),
		postgres.BasicWaitStrategies(),
	)
	testcontainers.CleanupContainer(t, ctr)
	require.NoError(t, err)

	dsn, err := ctr.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	db, err := sql.Open("postgres", dsn)
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	require.NoError(t, db.PingContext(ctx))
	return db
}

// CreateUser добавляет пользователя и возвращает его id
func CreateUser(t *testing.T, db *sql.DB, name, role string) int64 {
	t.Helper()

	var id int64
	err := db.QueryRow(
		`INSERT INTO users (name, email, role) VALUES ($1, $2, $3) RETURNING id`,
		name, name+"@students.example.ac.ke", role,
	).Scan(&id)
	require.NoError(t, err)
	return id
}

// CreateService добавляет активную услугу провайдера
func CreateService(t *testing.T, db *sql.DB, providerID int64, title string, price decimal.Decimal) int64 {
	t.Helper()

	var id int64
	err := db.QueryRow(
		`INSERT INTO services (provider_id, title, price) VALUES ($1, $2, $3) RETURNING id`,
		providerID, title, price,
	).Scan(&id)
	require.NoError(t, err)
	return id
}

// CreateBooking добавляет неоплаченное бронирование на завтра
func CreateBooking(t *testing.T, db *sql.DB, serviceID, customerID, providerID int64, amount decimal.Decimal) int64 {
	t.Helper()

	var id int64
	err := db.QueryRow(
		`INSERT INTO bookings (service_id, customer_id, provider_id, booking_date, total_amount)
		 VALUES ($1, $2, $3, CURRENT_DATE + 1, $4) RETURNING id`,
		serviceID, customerID, providerID, amount,
	).Scan(&id)
	require.NoError(t, err)
	return id
}

func migrationPath() string {
	_, file, _, _ := runtime.Caller(0)
	return filepath.Join(filepath.Dir(file), "..", "..", "..", "..", "migrations", "001_init.up.sql")
}
