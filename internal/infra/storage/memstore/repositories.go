package memstore

import (
	"context"
	"sort"
	"time"

	"github.com/m04kA/SMC-MarketplaceService/internal/domain"
	bookingRepo "github.com/m04kA/SMC-MarketplaceService/internal/infra/storage/booking"
	serviceRepo "github.com/m04kA/SMC-MarketplaceService/internal/infra/storage/service"
	transactionRepo "github.com/m04kA/SMC-MarketplaceService/internal/infra/storage/transaction"
)

// BookingRepository in-memory репозиторий бронирований
type BookingRepository struct {
	s *Store
}

func (r *BookingRepository) Create(_ context.Context, booking *domain.Booking) (*domain.Booking, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	booking.ID = r.s.id()
	booking.CreatedAt = r.s.now()
	booking.UpdatedAt = booking.CreatedAt

	stored := *booking
	r.s.bookings[booking.ID] = &stored
	return booking, nil
}

func (r *BookingRepository) GetByID(_ context.Context, id int64) (*domain.Booking, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	return r.get(id)
}

func (r *BookingRepository) GetByIDForUpdate(ctx context.Context, id int64) (*domain.Booking, error) {
	return r.GetByID(ctx, id)
}

func (r *BookingRepository) get(id int64) (*domain.Booking, error) {
	b, ok := r.s.bookings[id]
	if !ok {
		return nil, bookingRepo.ErrBookingNotFound
	}
	return r.withJoins(b), nil
}

func (r *BookingRepository) withJoins(b *domain.Booking) *domain.Booking {
	booking := *b
	if svc, ok := r.s.services[b.ServiceID]; ok {
		booking.ServiceTitle = svc.Title
	}
	booking.ProviderName = r.s.users[b.ProviderID]
	booking.CustomerName = r.s.users[b.CustomerID]
	return &booking
}

func (r *BookingRepository) filtered(filter domain.BookingsFilter) []*domain.Booking {
	result := make([]*domain.Booking, 0)
	for _, b := range r.s.bookings {
		if filter.CustomerID != nil && b.CustomerID != *filter.CustomerID {
			continue
		}
		if filter.ProviderID != nil && b.ProviderID != *filter.ProviderID {
			continue
		}
		if filter.ParticipantID != nil && !b.IsParticipant(*filter.ParticipantID) {
			continue
		}
		if filter.Status != nil && b.Status != *filter.Status {
			continue
		}
		if filter.DateFrom != nil && b.Date.Before(*filter.DateFrom) {
			continue
		}
		if filter.DateTo != nil && b.Date.After(*filter.DateTo) {
			continue
		}
		result = append(result, r.withJoins(b))
	}

	sort.Slice(result, func(i, j int) bool {
		if !result[i].CreatedAt.Equal(result[j].CreatedAt) {
			return result[i].CreatedAt.After(result[j].CreatedAt)
		}
		return result[i].ID > result[j].ID
	})
	return result
}

func (r *BookingRepository) List(_ context.Context, filter domain.BookingsFilter) ([]*domain.Booking, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	result := r.filtered(filter)
	if filter.Offset >= len(result) {
		return []*domain.Booking{}, nil
	}
	result = result[filter.Offset:]
	if filter.Limit > 0 && filter.Limit < len(result) {
		result = result[:filter.Limit]
	}
	return result, nil
}

func (r *BookingRepository) Count(_ context.Context, filter domain.BookingsFilter) (int, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	return len(r.filtered(filter)), nil
}

func (r *BookingRepository) MarkPaid(_ context.Context, id int64, paidAt time.Time) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	b, ok := r.s.bookings[id]
	if !ok {
		return bookingRepo.ErrBookingNotFound
	}
	b.IsPaid = true
	b.PaidAt = &paidAt
	if b.Status == domain.StatusPending {
		b.Status = domain.StatusConfirmed
	}
	b.UpdatedAt = r.s.now()
	return nil
}

func (r *BookingRepository) UpdateStatus(_ context.Context, id int64, status domain.BookingStatus) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	b, ok := r.s.bookings[id]
	if !ok {
		return bookingRepo.ErrBookingNotFound
	}
	b.Status = status
	b.UpdatedAt = r.s.now()
	return nil
}

func (r *BookingRepository) Cancel(_ context.Context, id int64, reason *string, cancelledAt time.Time) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	b, ok := r.s.bookings[id]
	if !ok {
		return bookingRepo.ErrBookingNotFound
	}
	b.Status = domain.StatusCancelled
	b.CancellationReason = reason
	b.CancelledAt = &cancelledAt
	b.UpdatedAt = r.s.now()
	return nil
}

// ServiceRepository in-memory репозиторий услуг
type ServiceRepository struct {
	s *Store
}

func (r *ServiceRepository) Create(_ context.Context, service *domain.Service) (*domain.Service, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	service.ID = r.s.id()
	service.CreatedAt = r.s.now()
	service.UpdatedAt = service.CreatedAt

	stored := *service
	r.s.services[service.ID] = &stored
	return service, nil
}

func (r *ServiceRepository) GetByID(_ context.Context, id int64) (*domain.Service, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	svc, ok := r.s.services[id]
	if !ok {
		return nil, serviceRepo.ErrServiceNotFound
	}
	service := *svc
	return &service, nil
}

func (r *ServiceRepository) Update(_ context.Context, id int64, update domain.ServiceUpdate) (*domain.Service, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	svc, ok := r.s.services[id]
	if !ok {
		return nil, serviceRepo.ErrServiceNotFound
	}
	if update.Title != nil {
		svc.Title = *update.Title
	}
	if update.Description != nil {
		svc.Description = *update.Description
	}
	if update.Price != nil {
		svc.Price = *update.Price
	}
	if update.Status != nil {
		svc.Status = *update.Status
	}
	if !update.IsEmpty() {
		svc.UpdatedAt = r.s.now()
	}
	service := *svc
	return &service, nil
}

// TransactionRepository in-memory репозиторий транзакций
type TransactionRepository struct {
	s *Store
}

func (r *TransactionRepository) Create(_ context.Context, tx *domain.Transaction) (*domain.Transaction, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if tx.Status == domain.TransactionPending {
		for _, existing := range r.s.transactions {
			if existing.BookingID == tx.BookingID && existing.IsPending() {
				return nil, transactionRepo.ErrPendingTransactionExists
			}
		}
	}

	tx.ID = r.s.id()
	tx.CreatedAt = r.s.now()
	tx.UpdatedAt = tx.CreatedAt

	stored := *tx
	r.s.transactions[tx.ID] = &stored
	return tx, nil
}

func (r *TransactionRepository) GetByID(_ context.Context, id int64) (*domain.Transaction, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	tx, ok := r.s.transactions[id]
	if !ok {
		return nil, transactionRepo.ErrTransactionNotFound
	}
	copied := *tx
	return &copied, nil
}

func (r *TransactionRepository) GetByReference(_ context.Context, reference string) (*domain.Transaction, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	for _, tx := range r.s.transactions {
		if tx.Reference == reference {
			copied := *tx
			return &copied, nil
		}
	}
	return nil, transactionRepo.ErrTransactionNotFound
}

func (r *TransactionRepository) GetPendingByBookingID(_ context.Context, bookingID int64) (*domain.Transaction, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	for _, tx := range r.s.transactions {
		if tx.BookingID == bookingID && tx.IsPending() {
			copied := *tx
			return &copied, nil
		}
	}
	return nil, transactionRepo.ErrTransactionNotFound
}

func (r *TransactionRepository) CompareAndSetStatus(
	_ context.Context,
	id int64,
	from, to domain.TransactionStatus,
	details domain.TransactionDetails,
	completedAt *time.Time,
) (bool, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	tx, ok := r.s.transactions[id]
	if !ok || tx.Status != from {
		return false, nil
	}
	tx.Status = to
	mergeDetails(&tx.Details, details)
	if completedAt != nil {
		at := *completedAt
		tx.CompletedAt = &at
	}
	tx.UpdatedAt = r.s.now()
	return true, nil
}

func (r *TransactionRepository) AppendPendingDetails(_ context.Context, id int64, details domain.TransactionDetails) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if tx, ok := r.s.transactions[id]; ok && tx.IsPending() {
		mergeDetails(&tx.Details, details)
		tx.UpdatedAt = r.s.now()
	}
	return nil
}

func (r *TransactionRepository) MarkRefundedByBooking(_ context.Context, bookingID int64) (int64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	var n int64
	for _, tx := range r.s.transactions {
		if tx.BookingID == bookingID && tx.Status == domain.TransactionCompleted {
			tx.Status = domain.TransactionRefunded
			tx.UpdatedAt = r.s.now()
			n++
		}
	}
	return n, nil
}

func (r *TransactionRepository) ListStalePending(_ context.Context, olderThan time.Time, limit int) ([]*domain.Transaction, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	result := make([]*domain.Transaction, 0)
	for _, tx := range r.s.transactions {
		if tx.IsPending() && tx.CreatedAt.Before(olderThan) {
			copied := *tx
			result = append(result, &copied)
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].ID < result[j].ID })
	if limit > 0 && len(result) > limit {
		result = result[:limit]
	}
	return result, nil
}

func (r *TransactionRepository) GetEarnings(_ context.Context, providerID int64) (*domain.Earnings, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	earnings := &domain.Earnings{ProviderID: providerID}
	for _, tx := range r.s.transactions {
		if tx.ProviderID == providerID && tx.Status == domain.TransactionCompleted {
			earnings.Total = earnings.Total.Add(tx.Amount)
			earnings.CompletedPayments++
		}
	}
	return earnings, nil
}

// mergeDetails повторяет семантику JSONB "details || new": непустые поля перезаписывают старые
func mergeDetails(dst *domain.TransactionDetails, src domain.TransactionDetails) {
	if src.PhoneNumber != "" {
		dst.PhoneNumber = src.PhoneNumber
	}
	if src.CheckoutRequestID != "" {
		dst.CheckoutRequestID = src.CheckoutRequestID
	}
	if src.ResultCode != nil {
		code := *src.ResultCode
		dst.ResultCode = &code
	}
	if src.ResultDesc != "" {
		dst.ResultDesc = src.ResultDesc
	}
}

// OutboxRepository in-memory репозиторий outbox
type OutboxRepository struct {
	s *Store
}

func (r *OutboxRepository) Add(_ context.Context, event *domain.OutboxEvent) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	event.ID = r.s.id()
	event.CreatedAt = r.s.now()
	event.NextAttemptAt = event.CreatedAt

	stored := *event
	r.s.outbox = append(r.s.outbox, &stored)
	return nil
}

func (r *OutboxRepository) FetchDue(_ context.Context, now time.Time, limit int) ([]*domain.OutboxEvent, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	result := make([]*domain.OutboxEvent, 0)
	for _, e := range r.s.outbox {
		if e.PublishedAt == nil && !e.NextAttemptAt.After(now) {
			copied := *e
			result = append(result, &copied)
		}
		if limit > 0 && len(result) == limit {
			break
		}
	}
	return result, nil
}

func (r *OutboxRepository) MarkPublished(_ context.Context, id int64, publishedAt time.Time) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	for _, e := range r.s.outbox {
		if e.ID == id {
			at := publishedAt
			e.PublishedAt = &at
			e.Attempts++
			e.LastError = nil
		}
	}
	return nil
}

func (r *OutboxRepository) MarkFailed(_ context.Context, id int64, lastError string, nextAttemptAt time.Time) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	for _, e := range r.s.outbox {
		if e.ID == id {
			msg := lastError
			e.Attempts++
			e.LastError = &msg
			e.NextAttemptAt = nextAttemptAt
		}
	}
	return nil
}
