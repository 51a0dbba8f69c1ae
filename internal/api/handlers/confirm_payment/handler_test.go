package confirm_payment

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gorilla/mux"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/m04kA/SMC-MarketplaceService/internal/api/middleware"
	"github.com/m04kA/SMC-MarketplaceService/internal/domain"
	confirmPayment "github.com/m04kA/SMC-MarketplaceService/internal/usecase/confirm_payment"
	"github.com/m04kA/SMC-MarketplaceService/pkg/logger"
)

type mockUseCase struct {
	mock.Mock
}

func (m *mockUseCase) Execute(ctx context.Context, req *confirmPayment.Request) (*confirmPayment.Response, error) {
	args := m.Called(ctx, req)
	if resp := args.Get(0); resp != nil {
		return resp.(*confirmPayment.Response), args.Error(1)
	}
	return nil, args.Error(1)
}

func serve(uc *mockUseCase, path string) *httptest.ResponseRecorder {
	actor := domain.Actor{UserID: 2, Role: domain.RoleCustomer}
	r := mux.NewRouter()
	r.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
			next.ServeHTTP(w, req.WithContext(middleware.WithActor(req.Context(), actor)))
		})
	})
	r.HandleFunc("/api/v1/payments/{transactionId}", NewHandler(uc, logger.NewNop()).Handle)

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
	return rec
}

func TestHandle(t *testing.T) {
	uc := &mockUseCase{}
	uc.On("Execute", mock.Anything, &confirmPayment.Request{
		TransactionID: 3,
		Actor:         domain.Actor{UserID: 2, Role: domain.RoleCustomer},
	}).Return(&confirmPayment.Response{Transaction: &domain.Transaction{
		ID:     3,
		Amount: decimal.NewFromInt(500),
		Status: domain.TransactionCompleted,
	}}, nil)
	uc.On("Execute", mock.Anything, mock.MatchedBy(func(req *confirmPayment.Request) bool {
		return req.TransactionID == 4
	})).Return(nil, confirmPayment.ErrAccessDenied)
	uc.On("Execute", mock.Anything, mock.MatchedBy(func(req *confirmPayment.Request) bool {
		return req.TransactionID == 5
	})).Return(nil, confirmPayment.ErrTransactionNotFound)

	rec := serve(uc, "/api/v1/payments/3")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"status":"completed"`)
	assert.Contains(t, rec.Body.String(), `"success":true`)

	assert.Equal(t, http.StatusForbidden, serve(uc, "/api/v1/payments/4").Code)
	assert.Equal(t, http.StatusNotFound, serve(uc, "/api/v1/payments/5").Code)
	assert.Equal(t, http.StatusBadRequest, serve(uc, "/api/v1/payments/abc").Code)
}
