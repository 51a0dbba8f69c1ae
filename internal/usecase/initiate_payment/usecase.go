package initiate_payment

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/m04kA/SMC-MarketplaceService/internal/domain"
	"github.com/m04kA/SMC-MarketplaceService/internal/integrations/mobilemoney"
	bookingRepo "github.com/m04kA/SMC-MarketplaceService/internal/infra/storage/booking"
	transactionRepo "github.com/m04kA/SMC-MarketplaceService/internal/infra/storage/transaction"
	"github.com/m04kA/SMC-MarketplaceService/internal/service/settlement"
)

// UseCase use case для запуска оплаты бронирования
type UseCase struct {
	bookingRepo     BookingRepository
	transactionRepo TransactionRepository
	gateway         PaymentGateway
	settler         Settler
	limiter         RateLimiter
	txManager       TransactionManager
	metrics         Metrics
	logger          Logger
}

// NewUseCase создает новый экземпляр use case. limiter может быть nil.
func NewUseCase(
	bookingRepo BookingRepository,
	transactionRepo TransactionRepository,
	gateway PaymentGateway,
	settler Settler,
	limiter RateLimiter,
	txManager TransactionManager,
	metrics Metrics,
	logger Logger,
) *UseCase {
	return &UseCase{
		bookingRepo:     bookingRepo,
		transactionRepo: transactionRepo,
		gateway:         gateway,
		settler:         settler,
		limiter:         limiter,
		txManager:       txManager,
		metrics:         metrics,
		logger:          logger,
	}
}

// Execute создает pending-транзакцию и отправляет STK push.
// Запрос к шлюзу выполняется после коммита, без удержания блокировок.
func (uc *UseCase) Execute(ctx context.Context, req *Request) (*Response, error) {
	uc.logger.Info("InitiatePayment: booking=%d, customer=%d", req.BookingID, req.CustomerID)

	// 1. Валидация входных данных
	if err := validateRequest(req); err != nil {
		uc.logger.Warn("InitiatePayment: validation failed: %v", err)
		return nil, err
	}

	// 2. Проверки без блокировки: несуществующие, чужие и оплаченные бронирования
	// отклоняются до обращения к лимиту и не расходуют попытки покупателя
	booking, err := uc.bookingRepo.GetByID(ctx, req.BookingID)
	if err != nil {
		return nil, uc.reject(uc.bookingLookupError(req.BookingID, err))
	}
	if _, err := uc.checkBooking(booking, req); err != nil {
		return nil, uc.reject(err)
	}
	if err := uc.checkNoPending(ctx, booking.ID); err != nil {
		return nil, uc.reject(err)
	}

	// 3. Лимит попыток на покупателя. При недоступности Redis запрос пропускается.
	if uc.limiter != nil {
		allowed, err := uc.limiter.Allow(ctx, req.CustomerID)
		if err != nil {
			uc.logger.Error("InitiatePayment: rate limiter unavailable, allowing request: %v", err)
		} else if !allowed {
			uc.logger.Warn("InitiatePayment: customer=%d exceeded initiation limit", req.CustomerID)
			return nil, uc.reject(ErrRateLimited)
		}
	}

	var created *domain.Transaction

	// 4. Повторная проверка и создание транзакции под блокировкой бронирования
	err = uc.txManager.Do(ctx, func(txCtx context.Context) error {
		locked, err := uc.bookingRepo.GetByIDForUpdate(txCtx, req.BookingID)
		if err != nil {
			return uc.bookingLookupError(req.BookingID, err)
		}

		// Состояние могло измениться после первой проверки
		phone, err := uc.checkBooking(locked, req)
		if err != nil {
			return err
		}

		// Не более одного незавершённого платежа на бронирование
		if err := uc.checkNoPending(txCtx, locked.ID); err != nil {
			return err
		}

		// Создаем транзакцию с суммой из бронирования
		created, err = uc.transactionRepo.Create(txCtx, &domain.Transaction{
			BookingID:     locked.ID,
			CustomerID:    locked.CustomerID,
			ProviderID:    locked.ProviderID,
			Amount:        locked.TotalAmount,
			PaymentMethod: domain.PaymentMethodMpesa,
			Status:        domain.TransactionPending,
			Reference:     uuid.NewString(),
			Details:       domain.TransactionDetails{PhoneNumber: phone},
		})
		if err != nil {
			if errors.Is(err, transactionRepo.ErrPendingTransactionExists) {
				return ErrPaymentInProgress
			}
			uc.logger.Error("InitiatePayment: failed to create transaction: %v", err)
			return fmt.Errorf("%w: failed to create transaction: %v", ErrInternal, err)
		}

		return nil
	})

	if err != nil {
		return nil, uc.reject(err)
	}

	// 5. STK push вне транзакции БД
	resp, err := uc.gateway.RequestPayment(ctx, mobilemoney.PaymentRequest{
		Reference:   created.Reference,
		PhoneNumber: created.Details.PhoneNumber,
		Amount:      created.Amount,
		Description: fmt.Sprintf("Booking #%d", created.BookingID),
	})
	if err != nil {
		uc.logger.Error("InitiatePayment: gateway rejected transaction id=%d: %v", created.ID, err)
		uc.metrics.IncPaymentsInitiated(resultGatewayError)
		uc.failTransaction(ctx, created.ID, err)
		return nil, fmt.Errorf("%w: %v", ErrGatewayUnavailable, err)
	}

	// 6. Сохраняем идентификатор запроса шлюза
	if err := uc.transactionRepo.AppendPendingDetails(ctx, created.ID, domain.TransactionDetails{
		CheckoutRequestID: resp.CheckoutRequestID,
	}); err != nil {
		uc.logger.Warn("InitiatePayment: failed to save checkout id for transaction id=%d: %v", created.ID, err)
	}

	result, err := uc.transactionRepo.GetByID(ctx, created.ID)
	if err != nil {
		uc.logger.Warn("InitiatePayment: failed to re-read transaction id=%d: %v", created.ID, err)
		result = created
	}

	uc.metrics.IncPaymentsInitiated(resultAccepted)
	uc.logger.Info("InitiatePayment: transaction id=%d pending, reference=%s", result.ID, result.Reference)

	return &Response{
		Transaction: result,
		Message:     acceptedMessage,
	}, nil
}

// failTransaction переводит транзакцию в failed, чтобы покупатель мог повторить оплату
func (uc *UseCase) failTransaction(ctx context.Context, id int64, cause error) {
	_, err := uc.settler.Settle(ctx, settlement.Request{
		TransactionID: id,
		Outcome:       domain.TransactionFailed,
		ResultDesc:    cause.Error(),
		Source:        settlement.SourceInitiation,
	})
	if err != nil {
		uc.logger.Error("InitiatePayment: failed to mark transaction id=%d as failed: %v", id, err)
	}
}

// reject учитывает отказ в метриках. Внутренние ошибки отказом не считаются.
func (uc *UseCase) reject(err error) error {
	if !errors.Is(err, ErrInternal) {
		uc.metrics.IncPaymentsInitiated(resultRejected)
	}
	return err
}

func (uc *UseCase) bookingLookupError(bookingID int64, err error) error {
	if errors.Is(err, bookingRepo.ErrBookingNotFound) {
		uc.logger.Warn("InitiatePayment: booking id=%d not found", bookingID)
		return ErrBookingNotFound
	}
	uc.logger.Error("InitiatePayment: failed to get booking id=%d: %v", bookingID, err)
	return fmt.Errorf("%w: failed to get booking: %v", ErrInternal, err)
}

// checkBooking проверяет права и состояние бронирования в порядке
// NotFound -> Forbidden -> AlreadyPaid -> Cancelled -> телефон.
// Возвращает нормализованный номер телефона.
func (uc *UseCase) checkBooking(booking *domain.Booking, req *Request) (string, error) {
	// Платит только покупатель
	if booking.CustomerID != req.CustomerID {
		uc.logger.Warn("InitiatePayment: user=%d is not the customer of booking id=%d", req.CustomerID, booking.ID)
		return "", ErrAccessDenied
	}

	if booking.IsPaid {
		return "", ErrAlreadyPaid
	}
	if booking.Status == domain.StatusCancelled {
		return "", ErrBookingCancelled
	}

	phone, err := domain.NormalizePhoneNumber(req.PhoneNumber)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrInvalidPhoneNumber, err)
	}
	return phone, nil
}

func (uc *UseCase) checkNoPending(ctx context.Context, bookingID int64) error {
	pending, err := uc.transactionRepo.GetPendingByBookingID(ctx, bookingID)
	if err != nil && !errors.Is(err, transactionRepo.ErrTransactionNotFound) {
		uc.logger.Error("InitiatePayment: failed to check pending transaction: %v", err)
		return fmt.Errorf("%w: failed to check pending transaction: %v", ErrInternal, err)
	}
	if pending != nil {
		uc.logger.Warn("InitiatePayment: booking id=%d already has pending transaction id=%d", bookingID, pending.ID)
		return ErrPaymentInProgress
	}
	return nil
}
