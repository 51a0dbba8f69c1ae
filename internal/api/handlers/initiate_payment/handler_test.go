package initiate_payment

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/m04kA/SMC-MarketplaceService/internal/api/middleware"
	"github.com/m04kA/SMC-MarketplaceService/internal/domain"
	initiatePayment "github.com/m04kA/SMC-MarketplaceService/internal/usecase/initiate_payment"
	"github.com/m04kA/SMC-MarketplaceService/pkg/logger"
)

type mockUseCase struct {
	mock.Mock
}

func (m *mockUseCase) Execute(ctx context.Context, req *initiatePayment.Request) (*initiatePayment.Response, error) {
	args := m.Called(ctx, req)
	if resp := args.Get(0); resp != nil {
		return resp.(*initiatePayment.Response), args.Error(1)
	}
	return nil, args.Error(1)
}

func serve(uc *mockUseCase, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/api/v1/payments/initiate", strings.NewReader(body))
	req = req.WithContext(middleware.WithActor(req.Context(), domain.Actor{UserID: 2, Role: domain.RoleCustomer}))
	rec := httptest.NewRecorder()
	NewHandler(uc, logger.NewNop()).Handle(rec, req)
	return rec
}

func TestHandle_Success(t *testing.T) {
	uc := &mockUseCase{}
	uc.On("Execute", mock.Anything, &initiatePayment.Request{BookingID: 11, CustomerID: 2, PhoneNumber: "0798765432"}).
		Return(&initiatePayment.Response{
			Transaction: &domain.Transaction{
				ID:            3,
				BookingID:     11,
				Amount:        decimal.NewFromInt(500),
				PaymentMethod: domain.PaymentMethodMpesa,
				Status:        domain.TransactionPending,
				Reference:     "c0ffee00-0000-4000-8000-000000000001",
				Details:       domain.TransactionDetails{PhoneNumber: "+254798765432"},
			},
			Message: "Payment request sent",
		}, nil)

	rec := serve(uc, `{"bookingId":11,"phoneNumber":"0798765432"}`)
	require.Equal(t, http.StatusOK, rec.Code)

	var body struct {
		Success bool `json:"success"`
		Data    struct {
			Transaction struct {
				ID      int64  `json:"id"`
				Status  string `json:"status"`
				Details struct {
					PhoneNumber string `json:"phoneNumber"`
				} `json:"details"`
			} `json:"transaction"`
			Message string `json:"message"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.True(t, body.Success)
	assert.Equal(t, int64(3), body.Data.Transaction.ID)
	assert.Equal(t, "pending", body.Data.Transaction.Status)
	assert.Equal(t, "+254798765432", body.Data.Transaction.Details.PhoneNumber)
	assert.Equal(t, "Payment request sent", body.Data.Message)
}

func TestHandle_ErrorMapping(t *testing.T) {
	tests := []struct {
		err        error
		wantStatus int
	}{
		{initiatePayment.ErrBookingNotFound, http.StatusNotFound},
		{initiatePayment.ErrAccessDenied, http.StatusForbidden},
		{initiatePayment.ErrAlreadyPaid, http.StatusBadRequest},
		{initiatePayment.ErrBookingCancelled, http.StatusBadRequest},
		{initiatePayment.ErrInvalidPhoneNumber, http.StatusBadRequest},
		{initiatePayment.ErrPaymentInProgress, http.StatusConflict},
		{initiatePayment.ErrRateLimited, http.StatusTooManyRequests},
		{initiatePayment.ErrGatewayUnavailable, http.StatusBadGateway},
		{initiatePayment.ErrInternal, http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.err.Error(), func(t *testing.T) {
			uc := &mockUseCase{}
			uc.On("Execute", mock.Anything, mock.Anything).Return(nil, tt.err)

			rec := serve(uc, `{"bookingId":11,"phoneNumber":"0798765432"}`)
			assert.Equal(t, tt.wantStatus, rec.Code)

			var body map[string]interface{}
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
			assert.Equal(t, false, body["success"])
			assert.NotEmpty(t, body["error"])
		})
	}
}
