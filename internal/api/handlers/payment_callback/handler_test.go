package payment_callback

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/m04kA/SMC-MarketplaceService/internal/domain"
	paymentCallback "github.com/m04kA/SMC-MarketplaceService/internal/usecase/payment_callback"
	"github.com/m04kA/SMC-MarketplaceService/pkg/logger"
)

type mockUseCase struct {
	mock.Mock
}

func (m *mockUseCase) Execute(ctx context.Context, req *paymentCallback.Request) (*paymentCallback.Response, error) {
	args := m.Called(ctx, req)
	if resp := args.Get(0); resp != nil {
		return resp.(*paymentCallback.Response), args.Error(1)
	}
	return nil, args.Error(1)
}

func serve(uc *mockUseCase, token, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/api/v1/payments/callback", strings.NewReader(body))
	if token != "" {
		req.Header.Set(CallbackHeader, token)
	}
	rec := httptest.NewRecorder()
	NewHandler(uc, logger.NewNop()).Handle(rec, req)
	return rec
}

func TestHandle(t *testing.T) {
	uc := &mockUseCase{}
	uc.On("Execute", mock.Anything, &paymentCallback.Request{
		Token:      "secret",
		Reference:  "ref-1",
		ResultCode: 0,
		ResultDesc: "ok",
	}).Return(&paymentCallback.Response{
		Transaction: &domain.Transaction{Reference: "ref-1", Status: domain.TransactionCompleted},
		Applied:     true,
	}, nil)
	uc.On("Execute", mock.Anything, mock.MatchedBy(func(req *paymentCallback.Request) bool {
		return req.Token != "secret"
	})).Return(nil, paymentCallback.ErrInvalidToken)
	uc.On("Execute", mock.Anything, mock.MatchedBy(func(req *paymentCallback.Request) bool {
		return req.Token == "secret" && req.Reference == "missing"
	})).Return(nil, paymentCallback.ErrTransactionNotFound)

	rec := serve(uc, "secret", `{"reference":"ref-1","resultCode":0,"resultDesc":"ok"}`)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"success":true,"data":{"reference":"ref-1","status":"completed","applied":true}}`, rec.Body.String())

	assert.Equal(t, http.StatusUnauthorized, serve(uc, "wrong", `{"reference":"ref-1","resultCode":0}`).Code)
	assert.Equal(t, http.StatusNotFound, serve(uc, "secret", `{"reference":"missing","resultCode":1032}`).Code)
	assert.Equal(t, http.StatusBadRequest, serve(uc, "secret", `{"reference":"ref-1"}`).Code)
}
