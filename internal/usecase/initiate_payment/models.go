package initiate_payment

import "github.com/m04kA/SMC-MarketplaceService/internal/domain"

// Метки метрики payments_initiated
const (
	resultAccepted     = "accepted"
	resultRejected     = "rejected"
	resultGatewayError = "gateway_error"
)

const acceptedMessage = "Payment request sent. Confirm the prompt on your phone."

// Request модель запроса на оплату бронирования
type Request struct {
	BookingID   int64
	CustomerID  int64 // ID покупателя (из токена)
	PhoneNumber string
}

// Response модель ответа с созданной транзакцией
type Response struct {
	Transaction *domain.Transaction
	Message     string
}
