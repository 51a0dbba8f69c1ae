package confirm_payment

import (
	"context"
	"errors"
	"fmt"

	transactionRepo "github.com/m04kA/SMC-MarketplaceService/internal/infra/storage/transaction"
	"github.com/m04kA/SMC-MarketplaceService/internal/service/settlement"
)

// UseCase use case для подтверждения платежа
type UseCase struct {
	transactionRepo TransactionRepository
	gateway         PaymentGateway
	settler         Settler
	logger          Logger
}

// NewUseCase создает новый экземпляр use case
func NewUseCase(
	transactionRepo TransactionRepository,
	gateway PaymentGateway,
	settler Settler,
	logger Logger,
) *UseCase {
	return &UseCase{
		transactionRepo: transactionRepo,
		gateway:         gateway,
		settler:         settler,
		logger:          logger,
	}
}

// Execute возвращает состояние транзакции, при необходимости запрашивая итог у шлюза.
// Повторные вызовы для рассчитанной транзакции не имеют побочных эффектов.
func (uc *UseCase) Execute(ctx context.Context, req *Request) (*Response, error) {
	uc.logger.Info("ConfirmPayment: transaction=%d, user=%d", req.TransactionID, req.Actor.UserID)

	if req.TransactionID <= 0 {
		return nil, fmt.Errorf("%w: transactionId must be positive", ErrInvalidInput)
	}

	// 1. Получаем транзакцию
	tx, err := uc.transactionRepo.GetByID(ctx, req.TransactionID)
	if err != nil {
		if errors.Is(err, transactionRepo.ErrTransactionNotFound) {
			uc.logger.Warn("ConfirmPayment: transaction id=%d not found", req.TransactionID)
			return nil, ErrTransactionNotFound
		}
		uc.logger.Error("ConfirmPayment: failed to get transaction id=%d: %v", req.TransactionID, err)
		return nil, fmt.Errorf("%w: failed to get transaction: %v", ErrInternal, err)
	}

	// 2. Проверка доступа
	if !tx.IsVisibleTo(req.Actor) {
		uc.logger.Warn("ConfirmPayment: user=%d has no access to transaction id=%d", req.Actor.UserID, tx.ID)
		return nil, ErrAccessDenied
	}

	// 3. Уже рассчитана
	if !tx.IsPending() {
		return &Response{Transaction: tx}, nil
	}

	// 4. Запрашиваем итог у шлюза (без блокировок)
	status, err := uc.gateway.CheckStatus(ctx, tx.Reference)
	if err != nil {
		uc.logger.Warn("ConfirmPayment: gateway status check failed for transaction id=%d: %v", tx.ID, err)
		return &Response{Transaction: tx}, nil
	}

	outcome, ok := status.Status.Outcome()
	if !ok {
		return &Response{Transaction: tx}, nil
	}

	// 5. Атомарный расчёт
	result, err := uc.settler.Settle(ctx, settlement.Request{
		TransactionID: tx.ID,
		Outcome:       outcome,
		ResultCode:    status.ResultCode,
		ResultDesc:    status.ResultDesc,
		Source:        settlement.SourceConfirm,
	})
	if err != nil {
		uc.logger.Error("ConfirmPayment: failed to settle transaction id=%d: %v", tx.ID, err)
		return nil, fmt.Errorf("%w: failed to settle transaction: %v", ErrInternal, err)
	}

	return &Response{Transaction: result.Transaction}, nil
}
