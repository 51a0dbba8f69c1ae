package create_booking

import (
	"context"
	"errors"
	"fmt"

	"github.com/m04kA/SMC-MarketplaceService/internal/domain"
	serviceRepo "github.com/m04kA/SMC-MarketplaceService/internal/infra/storage/service"
)

// UseCase use case для создания бронирования
type UseCase struct {
	bookingRepo  BookingRepository
	serviceRepo  ServiceRepository
	outboxRepo   OutboxRepository
	txManager    TransactionManager
	metrics      Metrics
	timeProvider TimeProvider
	logger       Logger
}

// NewUseCase создает новый экземпляр use case
func NewUseCase(
	bookingRepo BookingRepository,
	serviceRepo ServiceRepository,
	outboxRepo OutboxRepository,
	txManager TransactionManager,
	metrics Metrics,
	logger Logger,
) *UseCase {
	return &UseCase{
		bookingRepo:  bookingRepo,
		serviceRepo:  serviceRepo,
		outboxRepo:   outboxRepo,
		txManager:    txManager,
		metrics:      metrics,
		timeProvider: &RealTimeProvider{},
		logger:       logger,
	}
}

// WithTimeProvider подменяет источник времени
func (uc *UseCase) WithTimeProvider(tp TimeProvider) *UseCase {
	uc.timeProvider = tp
	return uc
}

// Execute выполняет use case создания бронирования
// Бронирование и уведомление провайдеру записываются в одной транзакции
func (uc *UseCase) Execute(ctx context.Context, req *Request) (*Response, error) {
	uc.logger.Info("CreateBooking: customer=%d, service=%d, date=%s",
		req.CustomerID, req.ServiceID, req.Date.Format(domain.DateFormat))

	// 1. Валидация входных данных
	if err := validateRequest(req); err != nil {
		uc.logger.Warn("CreateBooking: validation failed: %v", err)
		return nil, err
	}

	// 2. Дата не может быть в прошлом
	if isDateInPast(req.Date, uc.timeProvider.Now()) {
		uc.logger.Warn("CreateBooking: date %s is in the past", req.Date.Format(domain.DateFormat))
		return nil, ErrDateInPast
	}

	var result *domain.Booking

	// 3. Выполняем операции с БД в транзакции
	err := uc.txManager.Do(ctx, func(txCtx context.Context) error {
		// 3.1. Получаем услугу
		service, err := uc.serviceRepo.GetByID(txCtx, req.ServiceID)
		if err != nil {
			if errors.Is(err, serviceRepo.ErrServiceNotFound) {
				uc.logger.Warn("CreateBooking: service id=%d not found", req.ServiceID)
				return ErrServiceNotFound
			}
			uc.logger.Error("CreateBooking: failed to get service id=%d: %v", req.ServiceID, err)
			return fmt.Errorf("%w: failed to get service: %v", ErrInternal, err)
		}

		// 3.2. Нельзя бронировать собственную услугу
		if service.ProviderID == req.CustomerID {
			uc.logger.Warn("CreateBooking: user=%d tried to book own service id=%d", req.CustomerID, service.ID)
			return ErrSelfBooking
		}

		// 3.3. Услуга должна быть активна
		if !service.IsBookable() {
			uc.logger.Warn("CreateBooking: service id=%d is %s", service.ID, service.Status)
			return ErrServiceUnavailable
		}

		// 3.4. Создаем бронирование, фиксируя провайдера и цену на момент бронирования
		created, err := uc.bookingRepo.Create(txCtx, &domain.Booking{
			ServiceID:   service.ID,
			CustomerID:  req.CustomerID,
			ProviderID:  service.ProviderID,
			Date:        dateOnly(req.Date),
			StartTime:   req.StartTime,
			EndTime:     req.EndTime,
			Notes:       req.Notes,
			TotalAmount: service.Price,
			Status:      domain.StatusPending,
			IsPaid:      false,
		})
		if err != nil {
			uc.logger.Error("CreateBooking: failed to create booking: %v", err)
			return fmt.Errorf("%w: failed to create booking: %v", ErrInternal, err)
		}

		// 3.5. Перечитываем с названием услуги и именами сторон
		result, err = uc.bookingRepo.GetByID(txCtx, created.ID)
		if err != nil {
			uc.logger.Error("CreateBooking: failed to re-read booking id=%d: %v", created.ID, err)
			return fmt.Errorf("%w: failed to re-read booking: %v", ErrInternal, err)
		}

		// 3.6. Уведомление провайдеру
		event, err := domain.NewOutboxEvent(domain.EventBookingCreated, result.ProviderID, domain.NotificationPayload{
			BookingID: result.ID,
			Title:     "New booking",
			Message: fmt.Sprintf("%s booked %s for %s",
				result.CustomerName, result.ServiceTitle, result.Date.Format(domain.DateFormat)),
		})
		if err != nil {
			return fmt.Errorf("%w: failed to build notification: %v", ErrInternal, err)
		}
		if err := uc.outboxRepo.Add(txCtx, event); err != nil {
			uc.logger.Error("CreateBooking: failed to add outbox event: %v", err)
			return fmt.Errorf("%w: failed to add outbox event: %v", ErrInternal, err)
		}

		return nil
	})

	if err != nil {
		return nil, err
	}

	uc.metrics.IncBookingsCreated()
	uc.logger.Info("CreateBooking: successfully created booking id=%d", result.ID)

	return &Response{Booking: result}, nil
}
