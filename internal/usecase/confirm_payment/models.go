package confirm_payment

import "github.com/m04kA/SMC-MarketplaceService/internal/domain"

// Request модель запроса на проверку платежа
type Request struct {
	TransactionID int64
	Actor         domain.Actor
}

// Response текущее состояние транзакции
type Response struct {
	Transaction *domain.Transaction
}
