// Package memstore in-memory реализация репозиториев для тестов use case и сервисов.
// Ошибки совпадают с ошибками postgres-репозиториев.
package memstore

import (
	"context"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"github.com/m04kA/SMC-MarketplaceService/internal/domain"
)

// Store общее состояние всех репозиториев
type Store struct {
	mu sync.Mutex

	users        map[int64]string
	services     map[int64]*domain.Service
	bookings     map[int64]*domain.Booking
	transactions map[int64]*domain.Transaction
	outbox       []*domain.OutboxEvent

	nextID int64
	now    func() time.Time
}

// New создает пустое хранилище
func New() *Store {
	return &Store{
		users:        make(map[int64]string),
		services:     make(map[int64]*domain.Service),
		bookings:     make(map[int64]*domain.Booking),
		transactions: make(map[int64]*domain.Transaction),
		now:          time.Now,
	}
}

func (s *Store) id() int64 {
	s.nextID++
	return s.nextID
}

// AddUser регистрирует пользователя и возвращает его ID
func (s *Store) AddUser(name string) int64 {
	s.mu.Lock()
	defer s.mu.Unlock()

	id := s.id()
	s.users[id] = name
	return id
}

// AddService добавляет активную услугу провайдера
func (s *Store) AddService(providerID int64, title string, price decimal.Decimal) int64 {
	s.mu.Lock()
	defer s.mu.Unlock()

	id := s.id()
	now := s.now()
	s.services[id] = &domain.Service{
		ID:         id,
		ProviderID: providerID,
		Title:      title,
		Price:      price,
		Status:     domain.ServiceStatusActive,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	return id
}

// OutboxEvents возвращает копию записанных событий
func (s *Store) OutboxEvents() []domain.OutboxEvent {
	s.mu.Lock()
	defer s.mu.Unlock()

	events := make([]domain.OutboxEvent, 0, len(s.outbox))
	for _, e := range s.outbox {
		events = append(events, *e)
	}
	return events
}

// Bookings репозиторий бронирований поверх хранилища
func (s *Store) Bookings() *BookingRepository {
	return &BookingRepository{s: s}
}

// Services репозиторий услуг поверх хранилища
func (s *Store) Services() *ServiceRepository {
	return &ServiceRepository{s: s}
}

// Transactions репозиторий транзакций поверх хранилища
func (s *Store) Transactions() *TransactionRepository {
	return &TransactionRepository{s: s}
}

// Outbox репозиторий исходящих событий поверх хранилища
func (s *Store) Outbox() *OutboxRepository {
	return &OutboxRepository{s: s}
}

// TxManager выполняет функцию без настоящей транзакции
type TxManager struct{}

func (TxManager) Do(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

func (TxManager) DoSerializable(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

func (TxManager) DoReadOnly(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

// SetNow подменяет часы хранилища (created_at, updated_at)
func (s *Store) SetNow(now func() time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.now = now
}

// SetServiceStatus меняет статус услуги
func (s *Store) SetServiceStatus(id int64, status domain.ServiceStatus) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if svc, ok := s.services[id]; ok {
		svc.Status = status
	}
}
