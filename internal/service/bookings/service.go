package bookings

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/m04kA/SMC-MarketplaceService/internal/domain"
	bookingRepo "github.com/m04kA/SMC-MarketplaceService/internal/infra/storage/booking"
	"github.com/m04kA/SMC-MarketplaceService/internal/service/bookings/models"
)

// Service сервис для работы с бронированиями
type Service struct {
	bookingRepo     BookingRepository
	transactionRepo TransactionRepository
	outboxRepo      OutboxRepository
	txManager       TransactionManager
	logger          Logger
	now             func() time.Time
}

// NewService создает новый экземпляр сервиса бронирований
func NewService(
	bookingRepo BookingRepository,
	transactionRepo TransactionRepository,
	outboxRepo OutboxRepository,
	txManager TransactionManager,
	logger Logger,
) *Service {
	return &Service{
		bookingRepo:     bookingRepo,
		transactionRepo: transactionRepo,
		outboxRepo:      outboxRepo,
		txManager:       txManager,
		logger:          logger,
		now:             time.Now,
	}
}

// GetByID получает бронирование по ID
// Видно покупателю, провайдеру и администратору
func (s *Service) GetByID(ctx context.Context, id int64, actor domain.Actor) (*models.BookingResponse, error) {
	s.logger.Info("GetByID: fetching booking id=%d for user=%d", id, actor.UserID)

	booking, err := s.bookingRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, bookingRepo.ErrBookingNotFound) {
			s.logger.Warn("GetByID: booking id=%d not found", id)
			return nil, ErrBookingNotFound
		}
		s.logger.Error("GetByID: repository error for booking id=%d: %v", id, err)
		return nil, fmt.Errorf("%w: GetByID - repository error: %v", ErrInternal, err)
	}

	if !canView(booking, actor) {
		s.logger.Warn("GetByID: access denied for user=%d to booking id=%d", actor.UserID, id)
		return nil, ErrAccessDenied
	}

	return models.FromDomainBooking(booking), nil
}

// List получает страницу бронирований пользователя
// role=customer - как покупатель, role=provider - как провайдер,
// без роли - обе стороны (администратор видит все бронирования)
func (s *Service) List(ctx context.Context, req *models.ListBookingsRequest) (*models.BookingListResponse, error) {
	s.logger.Info("List: fetching bookings for user=%d, role=%v, status=%v, page=%d, limit=%d",
		req.Actor.UserID, req.Role, req.Status, req.Page, req.Limit)

	filter, err := listFilter(req)
	if err != nil {
		s.logger.Warn("List: invalid filter for user=%d: %v", req.Actor.UserID, err)
		return nil, err
	}

	page, limit := domain.NormalizePage(req.Page, req.Limit)
	filter.Limit = limit
	filter.Offset = domain.Offset(page, limit)

	var bookings []*domain.Booking
	var total int

	// Страница и общее количество из одного снимка данных
	err = s.txManager.DoReadOnly(ctx, func(txCtx context.Context) error {
		var err error
		bookings, err = s.bookingRepo.List(txCtx, filter)
		if err != nil {
			return err
		}
		total, err = s.bookingRepo.Count(txCtx, filter)
		return err
	})
	if err != nil {
		s.logger.Error("List: repository error for user=%d: %v", req.Actor.UserID, err)
		return nil, fmt.Errorf("%w: List - repository error: %v", ErrInternal, err)
	}

	s.logger.Info("List: fetched %d of %d bookings for user=%d", len(bookings), total, req.Actor.UserID)
	return models.FromDomainBookingList(bookings, domain.NewPagination(total, page, limit)), nil
}

// Cancel отменяет бронирование
// Отменить может покупатель, провайдер или администратор, пока бронирование pending или confirmed.
// Оплаченные транзакции помечаются refunded в той же транзакции БД.
func (s *Service) Cancel(ctx context.Context, bookingID int64, req *models.CancelBookingRequest) (*models.BookingResponse, error) {
	s.logger.Info("Cancel: cancelling booking id=%d by user=%d", bookingID, req.Actor.UserID)

	reason, err := normalizeReason(req.Reason)
	if err != nil {
		s.logger.Warn("Cancel: invalid reason for booking id=%d: %v", bookingID, err)
		return nil, err
	}

	var result *domain.Booking

	err = s.txManager.Do(ctx, func(txCtx context.Context) error {
		// 1. Блокируем бронирование
		booking, err := s.lockBooking(txCtx, "Cancel", bookingID)
		if err != nil {
			return err
		}

		// 2. Проверяем права
		if !canView(booking, req.Actor) {
			s.logger.Warn("Cancel: access denied for user=%d to booking id=%d", req.Actor.UserID, bookingID)
			return ErrAccessDenied
		}

		// 3. Проверяем статус
		if !booking.CanBeCancelled() {
			s.logger.Warn("Cancel: booking id=%d cannot be cancelled, status=%s", bookingID, booking.Status)
			return ErrCannotCancel
		}

		// 4. Отменяем
		if err := s.bookingRepo.Cancel(txCtx, bookingID, reason, s.now()); err != nil {
			s.logger.Error("Cancel: repository error for booking id=%d: %v", bookingID, err)
			return fmt.Errorf("%w: Cancel - repository error: %v", ErrInternal, err)
		}

		// 5. Оплаченное бронирование: платёж подлежит возврату
		if booking.IsPaid {
			refunded, err := s.transactionRepo.MarkRefundedByBooking(txCtx, bookingID)
			if err != nil {
				s.logger.Error("Cancel: failed to refund transactions of booking id=%d: %v", bookingID, err)
				return fmt.Errorf("%w: Cancel - refund transactions: %v", ErrInternal, err)
			}
			s.logger.Info("Cancel: marked %d transaction(s) of booking id=%d as refunded", refunded, bookingID)
		}

		// 6. Уведомляем другую сторону
		message := fmt.Sprintf("Booking for %s on %s was cancelled", booking.ServiceTitle, booking.Date.Format(domain.DateFormat))
		if reason != nil {
			message += ": " + *reason
		}
		for _, recipient := range counterparties(booking, req.Actor) {
			if err := s.addEvent(txCtx, domain.EventBookingCancelled, recipient, booking.ID, "Booking cancelled", message); err != nil {
				return err
			}
		}

		// 7. Перечитываем актуальное состояние
		result, err = s.bookingRepo.GetByID(txCtx, bookingID)
		if err != nil {
			return fmt.Errorf("%w: Cancel - re-read booking: %v", ErrInternal, err)
		}
		return nil
	})

	if err != nil {
		return nil, err
	}

	s.logger.Info("Cancel: successfully cancelled booking id=%d", bookingID)
	return models.FromDomainBooking(result), nil
}

// Complete отмечает услугу оказанной
// Доступно провайдеру бронирования или администратору, только для подтверждённых и оплаченных бронирований.
func (s *Service) Complete(ctx context.Context, bookingID int64, actor domain.Actor) (*models.BookingResponse, error) {
	s.logger.Info("Complete: completing booking id=%d by user=%d", bookingID, actor.UserID)

	var result *domain.Booking

	err := s.txManager.Do(ctx, func(txCtx context.Context) error {
		booking, err := s.lockBooking(txCtx, "Complete", bookingID)
		if err != nil {
			return err
		}

		if booking.ProviderID != actor.UserID && !actor.IsAdmin() {
			s.logger.Warn("Complete: user=%d is not the provider of booking id=%d", actor.UserID, bookingID)
			return ErrAccessDenied
		}

		if !booking.CanBeCompleted() {
			s.logger.Warn("Complete: booking id=%d cannot be completed, status=%s, paid=%t",
				bookingID, booking.Status, booking.IsPaid)
			return ErrCannotComplete
		}

		if err := s.bookingRepo.UpdateStatus(txCtx, bookingID, domain.StatusCompleted); err != nil {
			s.logger.Error("Complete: repository error for booking id=%d: %v", bookingID, err)
			return fmt.Errorf("%w: Complete - repository error: %v", ErrInternal, err)
		}

		message := fmt.Sprintf("%s marked %s as completed", booking.ProviderName, booking.ServiceTitle)
		if err := s.addEvent(txCtx, domain.EventBookingCompleted, booking.CustomerID, booking.ID, "Booking completed", message); err != nil {
			return err
		}

		result, err = s.bookingRepo.GetByID(txCtx, bookingID)
		if err != nil {
			return fmt.Errorf("%w: Complete - re-read booking: %v", ErrInternal, err)
		}
		return nil
	})

	if err != nil {
		return nil, err
	}

	s.logger.Info("Complete: booking id=%d completed", bookingID)
	return models.FromDomainBooking(result), nil
}

// Вспомогательные методы

func (s *Service) lockBooking(ctx context.Context, op string, id int64) (*domain.Booking, error) {
	booking, err := s.bookingRepo.GetByIDForUpdate(ctx, id)
	if err != nil {
		if errors.Is(err, bookingRepo.ErrBookingNotFound) {
			s.logger.Warn("%s: booking id=%d not found", op, id)
			return nil, ErrBookingNotFound
		}
		s.logger.Error("%s: repository error for booking id=%d: %v", op, id, err)
		return nil, fmt.Errorf("%w: %s - repository error: %v", ErrInternal, op, err)
	}
	return booking, nil
}

func (s *Service) addEvent(ctx context.Context, eventType domain.EventType, recipientID, bookingID int64, title, message string) error {
	event, err := domain.NewOutboxEvent(eventType, recipientID, domain.NotificationPayload{
		BookingID: bookingID,
		Title:     title,
		Message:   message,
	})
	if err != nil {
		return fmt.Errorf("%w: build %s event: %v", ErrInternal, eventType, err)
	}
	if err := s.outboxRepo.Add(ctx, event); err != nil {
		s.logger.Error("addEvent: failed to add %s event for booking id=%d: %v", eventType, bookingID, err)
		return fmt.Errorf("%w: add %s event: %v", ErrInternal, eventType, err)
	}
	return nil
}

// canView участник бронирования или администратор
func canView(booking *domain.Booking, actor domain.Actor) bool {
	return actor.IsAdmin() || booking.IsParticipant(actor.UserID)
}

// counterparties кому сообщить об отмене: другой стороне, либо обеим, если отменил администратор
func counterparties(booking *domain.Booking, actor domain.Actor) []int64 {
	switch actor.UserID {
	case booking.CustomerID:
		return []int64{booking.ProviderID}
	case booking.ProviderID:
		return []int64{booking.CustomerID}
	default:
		return []int64{booking.CustomerID, booking.ProviderID}
	}
}

func listFilter(req *models.ListBookingsRequest) (domain.BookingsFilter, error) {
	var filter domain.BookingsFilter
	userID := req.Actor.UserID

	role := ""
	if req.Role != nil {
		role = strings.TrimSpace(*req.Role)
	}

	switch domain.BookingRole(role) {
	case domain.BookingRoleCustomer:
		filter.CustomerID = &userID
	case domain.BookingRoleProvider:
		filter.ProviderID = &userID
	case "":
		if !req.Actor.IsAdmin() {
			filter.ParticipantID = &userID
		}
	default:
		return filter, fmt.Errorf("%w: role must be customer or provider", ErrInvalidInput)
	}

	if req.Status != nil && *req.Status != "" {
		status, ok := models.ToDomainBookingStatus(*req.Status)
		if !ok {
			return filter, fmt.Errorf("%w: invalid status %q", ErrInvalidInput, *req.Status)
		}
		filter.Status = &status
	}

	return filter, nil
}

func normalizeReason(reason *string) (*string, error) {
	if reason == nil {
		return nil, nil
	}
	trimmed := strings.TrimSpace(*reason)
	if trimmed == "" {
		return nil, nil
	}
	if utf8.RuneCountInString(trimmed) > domain.MaxCancellationReasonLength {
		return nil, fmt.Errorf("%w: reason must be at most %d characters", ErrInvalidInput, domain.MaxCancellationReasonLength)
	}
	return &trimmed, nil
}
