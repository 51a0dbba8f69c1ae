package models

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/m04kA/SMC-MarketplaceService/internal/domain"
)

// EarningsResponse заработок провайдера по завершённым платежам
type EarningsResponse struct {
	ProviderID        int64           `json:"providerId"`
	Total             decimal.Decimal `json:"total"`
	Currency          string          `json:"currency"`
	CompletedPayments int64           `json:"completedPayments"`
}

// FromDomainEarnings конвертирует domain модель в DTO
func FromDomainEarnings(e *domain.Earnings) *EarningsResponse {
	return &EarningsResponse{
		ProviderID:        e.ProviderID,
		Total:             e.Total,
		Currency:          domain.CurrencyKES,
		CompletedPayments: e.CompletedPayments,
	}
}

// TransactionDetailsResponse данные платёжного шлюза
type TransactionDetailsResponse struct {
	PhoneNumber       string `json:"phoneNumber,omitempty"`
	CheckoutRequestID string `json:"checkoutRequestId,omitempty"`
	ResultCode        *int   `json:"resultCode,omitempty"`
	ResultDesc        string `json:"resultDesc,omitempty"`
}

// TransactionResponse DTO платёжной транзакции
type TransactionResponse struct {
	ID            int64                      `json:"id"`
	BookingID     int64                      `json:"bookingId"`
	CustomerID    int64                      `json:"customerId"`
	ProviderID    int64                      `json:"providerId"`
	Amount        decimal.Decimal            `json:"amount"`
	Currency      string                     `json:"currency"`
	PaymentMethod string                     `json:"paymentMethod"`
	Status        string                     `json:"status"`
	Reference     string                     `json:"reference"`
	Details       TransactionDetailsResponse `json:"details"`
	CreatedAt     time.Time                  `json:"createdAt"`
	UpdatedAt     time.Time                  `json:"updatedAt"`
	CompletedAt   *time.Time                 `json:"completedAt,omitempty"`
}

// FromDomainTransaction конвертирует domain модель в DTO
func FromDomainTransaction(t *domain.Transaction) *TransactionResponse {
	return &TransactionResponse{
		ID:            t.ID,
		BookingID:     t.BookingID,
		CustomerID:    t.CustomerID,
		ProviderID:    t.ProviderID,
		Amount:        t.Amount,
		Currency:      domain.CurrencyKES,
		PaymentMethod: t.PaymentMethod,
		Status:        string(t.Status),
		Reference:     t.Reference,
		Details: TransactionDetailsResponse{
			PhoneNumber:       t.Details.PhoneNumber,
			CheckoutRequestID: t.Details.CheckoutRequestID,
			ResultCode:        t.Details.ResultCode,
			ResultDesc:        t.Details.ResultDesc,
		},
		CreatedAt:   t.CreatedAt,
		UpdatedAt:   t.UpdatedAt,
		CompletedAt: t.CompletedAt,
	}
}
