package settlement

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/m04kA/SMC-MarketplaceService/internal/domain"
	bookingRepo "github.com/m04kA/SMC-MarketplaceService/internal/infra/storage/booking"
	transactionRepo "github.com/m04kA/SMC-MarketplaceService/internal/infra/storage/transaction"
)

// Service расчёт платежа: перевод транзакции из pending в терминальный статус,
// отметка об оплате бронирования и уведомления - одной транзакцией БД.
type Service struct {
	transactionRepo TransactionRepository
	bookingRepo     BookingRepository
	outboxRepo      OutboxRepository
	txManager       TransactionManager
	metrics         Metrics
	logger          Logger
	now             func() time.Time
}

// NewService создает новый экземпляр сервиса расчётов
func NewService(
	transactionRepo TransactionRepository,
	bookingRepo BookingRepository,
	outboxRepo OutboxRepository,
	txManager TransactionManager,
	metrics Metrics,
	logger Logger,
) *Service {
	return &Service{
		transactionRepo: transactionRepo,
		bookingRepo:     bookingRepo,
		outboxRepo:      outboxRepo,
		txManager:       txManager,
		metrics:         metrics,
		logger:          logger,
		now:             time.Now,
	}
}

// Settle применяет итог платежа ровно один раз.
// Повторный вызов для уже рассчитанной транзакции возвращает её текущее состояние.
func (s *Service) Settle(ctx context.Context, req Request) (*Result, error) {
	s.logger.Info("Settle: transaction id=%d, outcome=%s, source=%s", req.TransactionID, req.Outcome, req.Source)

	if req.Outcome != domain.TransactionCompleted && req.Outcome != domain.TransactionFailed {
		return nil, fmt.Errorf("%w: got %q", ErrInvalidOutcome, req.Outcome)
	}

	var result *Result
	var finalStatus domain.TransactionStatus

	err := s.txManager.Do(ctx, func(txCtx context.Context) error {
		// 1. Читаем транзакцию
		tx, err := s.transactionRepo.GetByID(txCtx, req.TransactionID)
		if err != nil {
			if errors.Is(err, transactionRepo.ErrTransactionNotFound) {
				s.logger.Warn("Settle: transaction id=%d not found", req.TransactionID)
				return ErrTransactionNotFound
			}
			s.logger.Error("Settle: failed to get transaction id=%d: %v", req.TransactionID, err)
			return fmt.Errorf("%w: Settle - get transaction: %v", ErrInternal, err)
		}

		if !tx.IsPending() {
			s.logger.Info("Settle: transaction id=%d already %s, nothing to do", tx.ID, tx.Status)
			result = &Result{Transaction: tx}
			return nil
		}

		// 2. Блокируем бронирование (порядок блокировок: бронирование, затем транзакция)
		booking, err := s.bookingRepo.GetByIDForUpdate(txCtx, tx.BookingID)
		if err != nil {
			s.logger.Error("Settle: failed to lock booking id=%d: %v", tx.BookingID, err)
			return fmt.Errorf("%w: Settle - lock booking: %v", ErrInternal, err)
		}

		// 3. Определяем целевой статус. Деньги за отменённое бронирование сразу помечаются к возврату.
		target := req.Outcome
		if target == domain.TransactionCompleted && booking.Status == domain.StatusCancelled {
			s.logger.Warn("Settle: booking id=%d was cancelled while payment was pending, refunding", booking.ID)
			target = domain.TransactionRefunded
		}

		now := s.now()
		var completedAt *time.Time
		if target != domain.TransactionFailed {
			completedAt = &now
		}

		// 4. Compare-and-swap: только pending -> терминальный статус
		details := domain.TransactionDetails{ResultCode: req.ResultCode, ResultDesc: req.ResultDesc}
		applied, err := s.transactionRepo.CompareAndSetStatus(txCtx, tx.ID, domain.TransactionPending, target, details, completedAt)
		if err != nil {
			s.logger.Error("Settle: failed to update transaction id=%d: %v", tx.ID, err)
			return fmt.Errorf("%w: Settle - update transaction: %v", ErrInternal, err)
		}

		if applied {
			// 5. Побочные эффекты только у победителя
			if err := s.applyEffects(txCtx, tx, booking, target, now); err != nil {
				return err
			}
		} else {
			s.logger.Info("Settle: transaction id=%d was settled concurrently", tx.ID)
		}

		// 6. Перечитываем актуальное состояние
		current, err := s.transactionRepo.GetByID(txCtx, tx.ID)
		if err != nil {
			s.logger.Error("Settle: failed to re-read transaction id=%d: %v", tx.ID, err)
			return fmt.Errorf("%w: Settle - re-read transaction: %v", ErrInternal, err)
		}

		result = &Result{Transaction: current, Applied: applied}
		finalStatus = target
		return nil
	})

	if err != nil {
		return nil, err
	}

	if result.Applied {
		s.metrics.IncPaymentsSettled(string(finalStatus), string(req.Source))
		s.logger.Info("Settle: transaction id=%d settled as %s", result.Transaction.ID, finalStatus)
	}

	return result, nil
}

// applyEffects отмечает оплату бронирования и пишет уведомления в outbox
func (s *Service) applyEffects(
	ctx context.Context,
	tx *domain.Transaction,
	booking *domain.Booking,
	status domain.TransactionStatus,
	now time.Time,
) error {
	var events []*domain.OutboxEvent

	switch status {
	case domain.TransactionCompleted:
		if err := s.bookingRepo.MarkPaid(ctx, booking.ID, now); err != nil {
			if errors.Is(err, bookingRepo.ErrBookingNotFound) {
				return fmt.Errorf("%w: Settle - booking id=%d disappeared", ErrInternal, booking.ID)
			}
			s.logger.Error("Settle: failed to mark booking id=%d paid: %v", booking.ID, err)
			return fmt.Errorf("%w: Settle - mark booking paid: %v", ErrInternal, err)
		}

		events = append(events,
			newEvent(domain.EventPaymentCompleted, tx.ProviderID, tx, "Payment received",
				fmt.Sprintf("%s %s received for %s", domain.CurrencyKES, tx.Amount.StringFixed(2), booking.ServiceTitle)),
			newEvent(domain.EventPaymentCompleted, tx.CustomerID, tx, "Payment successful",
				fmt.Sprintf("Your payment of %s %s for %s was successful", domain.CurrencyKES, tx.Amount.StringFixed(2), booking.ServiceTitle)),
		)
	case domain.TransactionRefunded:
		events = append(events,
			newEvent(domain.EventPaymentRefunded, tx.CustomerID, tx, "Payment refunded",
				fmt.Sprintf("Booking for %s was cancelled, your payment of %s %s will be refunded",
					booking.ServiceTitle, domain.CurrencyKES, tx.Amount.StringFixed(2))),
		)
	case domain.TransactionFailed:
		events = append(events,
			newEvent(domain.EventPaymentFailed, tx.CustomerID, tx, "Payment failed",
				fmt.Sprintf("Your payment for %s did not go through, you can try again", booking.ServiceTitle)),
		)
	}

	for _, event := range events {
		if event == nil {
			return fmt.Errorf("%w: Settle - build outbox event", ErrInternal)
		}
		if err := s.outboxRepo.Add(ctx, event); err != nil {
			s.logger.Error("Settle: failed to add outbox event %s for transaction id=%d: %v", event.EventType, tx.ID, err)
			return fmt.Errorf("%w: Settle - add outbox event: %v", ErrInternal, err)
		}
	}

	return nil
}

func newEvent(eventType domain.EventType, recipientID int64, tx *domain.Transaction, title, message string) *domain.OutboxEvent {
	event, err := domain.NewOutboxEvent(eventType, recipientID, domain.NotificationPayload{
		BookingID:     tx.BookingID,
		TransactionID: &tx.ID,
		Title:         title,
		Message:       message,
	})
	if err != nil {
		return nil
	}
	return event
}
