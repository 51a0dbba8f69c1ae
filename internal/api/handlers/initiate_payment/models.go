package initiate_payment

import (
	"github.com/m04kA/SMC-MarketplaceService/internal/service/payments/models"
	initiatePayment "github.com/m04kA/SMC-MarketplaceService/internal/usecase/initiate_payment"
)

// InitiatePaymentRequest HTTP request model
type InitiatePaymentRequest struct {
	BookingID   int64  `json:"bookingId"`
	PhoneNumber string `json:"phoneNumber"`
}

// InitiatePaymentResponse данные успешного ответа
type InitiatePaymentResponse struct {
	Transaction *models.TransactionResponse `json:"transaction"`
	Message     string                      `json:"message"`
}

// ToUseCaseRequest конвертирует HTTP запрос в модель use case
func (r *InitiatePaymentRequest) ToUseCaseRequest(customerID int64) *initiatePayment.Request {
	return &initiatePayment.Request{
		BookingID:   r.BookingID,
		CustomerID:  customerID,
		PhoneNumber: r.PhoneNumber,
	}
}

// FromUseCaseResponse конвертирует ответ use case в HTTP response
func FromUseCaseResponse(resp *initiatePayment.Response) *InitiatePaymentResponse {
	return &InitiatePaymentResponse{
		Transaction: models.FromDomainTransaction(resp.Transaction),
		Message:     resp.Message,
	}
}
