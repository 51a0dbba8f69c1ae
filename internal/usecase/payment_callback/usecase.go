package payment_callback

import (
	"context"
	"crypto/subtle"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/m04kA/SMC-MarketplaceService/internal/domain"
	transactionRepo "github.com/m04kA/SMC-MarketplaceService/internal/infra/storage/transaction"
	"github.com/m04kA/SMC-MarketplaceService/internal/integrations/mobilemoney"
	"github.com/m04kA/SMC-MarketplaceService/internal/service/settlement"
)

// UseCase use case обработки вебхука провайдера платежей
type UseCase struct {
	transactionRepo TransactionRepository
	settler         Settler
	token           []byte
	logger          Logger
}

// NewUseCase создает новый экземпляр use case.
// С пустым token все вызовы отклоняются.
func NewUseCase(transactionRepo TransactionRepository, settler Settler, token string, logger Logger) *UseCase {
	return &UseCase{
		transactionRepo: transactionRepo,
		settler:         settler,
		token:           []byte(token),
		logger:          logger,
	}
}

// Execute рассчитывает транзакцию по итогу от провайдера. Идемпотентен по reference.
func (uc *UseCase) Execute(ctx context.Context, req *Request) (*Response, error) {
	// 1. Проверяем токен за постоянное время
	if len(uc.token) == 0 || subtle.ConstantTimeCompare([]byte(req.Token), uc.token) != 1 {
		uc.logger.Warn("PaymentCallback: invalid token for reference=%s", req.Reference)
		return nil, ErrInvalidToken
	}

	reference := strings.TrimSpace(req.Reference)
	if reference == "" {
		return nil, fmt.Errorf("%w: reference is required", ErrInvalidInput)
	}

	uc.logger.Info("PaymentCallback: reference=%s, resultCode=%d", reference, req.ResultCode)

	// Reference всегда UUID: чужой формат не может совпасть ни с одной транзакцией
	if _, err := uuid.Parse(reference); err != nil {
		uc.logger.Warn("PaymentCallback: reference=%q is not a valid UUID", reference)
		return nil, ErrTransactionNotFound
	}

	// 2. Ищем транзакцию
	tx, err := uc.transactionRepo.GetByReference(ctx, reference)
	if err != nil {
		if errors.Is(err, transactionRepo.ErrTransactionNotFound) {
			uc.logger.Warn("PaymentCallback: reference=%s not found", reference)
			return nil, ErrTransactionNotFound
		}
		uc.logger.Error("PaymentCallback: failed to get transaction reference=%s: %v", reference, err)
		return nil, fmt.Errorf("%w: failed to get transaction: %v", ErrInternal, err)
	}

	// 3. Повторная доставка вебхука
	if !tx.IsPending() {
		uc.logger.Info("PaymentCallback: transaction id=%d already %s", tx.ID, tx.Status)
		return &Response{Transaction: tx, Applied: false}, nil
	}

	outcome := domain.TransactionFailed
	if req.ResultCode == mobilemoney.ResultCodeSuccess {
		outcome = domain.TransactionCompleted
	}
	code := req.ResultCode

	// 4. Атомарный расчёт
	result, err := uc.settler.Settle(ctx, settlement.Request{
		TransactionID: tx.ID,
		Outcome:       outcome,
		ResultCode:    &code,
		ResultDesc:    req.ResultDesc,
		Source:        settlement.SourceCallback,
	})
	if err != nil {
		uc.logger.Error("PaymentCallback: failed to settle transaction id=%d: %v", tx.ID, err)
		return nil, fmt.Errorf("%w: failed to settle transaction: %v", ErrInternal, err)
	}

	return &Response{Transaction: result.Transaction, Applied: result.Applied}, nil
}
