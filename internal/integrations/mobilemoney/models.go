package mobilemoney

import (
	"github.com/shopspring/decimal"

	"github.com/m04kA/SMC-MarketplaceService/internal/domain"
)

// PaymentStatus состояние платежа на стороне провайдера
type PaymentStatus string

const (
	StatusPending   PaymentStatus = "pending"
	StatusCompleted PaymentStatus = "completed"
	StatusFailed    PaymentStatus = "failed"
)

// Outcome итог транзакции; false, пока платёж не завершён
func (s PaymentStatus) Outcome() (domain.TransactionStatus, bool) {
	switch s {
	case StatusCompleted:
		return domain.TransactionCompleted, true
	case StatusFailed:
		return domain.TransactionFailed, true
	default:
		return "", false
	}
}

// Коды результата в стиле STK push
const (
	ResultCodeSuccess   = 0
	ResultCodeCancelled = 1032
	ResultCodeUnknown   = 1037
)

// PaymentRequest запрос на STK push. Reference - ключ идемпотентности.
type PaymentRequest struct {
	Reference   string          `json:"reference"`
	PhoneNumber string          `json:"phoneNumber"`
	Amount      decimal.Decimal `json:"amount"`
	Description string          `json:"description,omitempty"`
}

// PaymentResponse ответ провайдера на STK push
type PaymentResponse struct {
	CheckoutRequestID   string `json:"checkoutRequestId"`
	ResponseDescription string `json:"responseDescription"`
}

// StatusResponse результат запроса статуса платежа
type StatusResponse struct {
	Reference  string        `json:"reference"`
	Status     PaymentStatus `json:"status"`
	ResultCode *int          `json:"resultCode,omitempty"`
	ResultDesc string        `json:"resultDesc,omitempty"`
}

// ErrorResponse модель ошибки провайдера
type ErrorResponse struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}
