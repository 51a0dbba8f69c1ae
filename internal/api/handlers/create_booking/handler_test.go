package create_booking

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/m04kA/SMC-MarketplaceService/internal/api/middleware"
	"github.com/m04kA/SMC-MarketplaceService/internal/domain"
	createBooking "github.com/m04kA/SMC-MarketplaceService/internal/usecase/create_booking"
	"github.com/m04kA/SMC-MarketplaceService/pkg/logger"
)

type mockUseCase struct {
	mock.Mock
}

func (m *mockUseCase) Execute(ctx context.Context, req *createBooking.Request) (*createBooking.Response, error) {
	args := m.Called(ctx, req)
	if resp := args.Get(0); resp != nil {
		return resp.(*createBooking.Response), args.Error(1)
	}
	return nil, args.Error(1)
}

func serve(h *Handler, body string, withActor bool) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/api/v1/bookings", strings.NewReader(body))
	if withActor {
		req = req.WithContext(middleware.WithActor(req.Context(), domain.Actor{UserID: 2, Role: domain.RoleCustomer}))
	}
	rec := httptest.NewRecorder()
	h.Handle(rec, req)
	return rec
}

func TestHandle_Created(t *testing.T) {
	uc := &mockUseCase{}
	uc.On("Execute", mock.Anything, mock.MatchedBy(func(req *createBooking.Request) bool {
		return req.CustomerID == 2 &&
			req.ServiceID == 5 &&
			req.Date.Equal(time.Date(2026, 5, 1, 0, 0, 0, 0, time.UTC)) &&
			req.StartTime != nil && req.StartTime.String() == "10:00"
	})).Return(&createBooking.Response{Booking: &domain.Booking{
		ID:           11,
		ServiceID:    5,
		CustomerID:   2,
		ProviderID:   1,
		Date:         time.Date(2026, 5, 1, 0, 0, 0, 0, time.UTC),
		TotalAmount:  decimal.NewFromInt(500),
		Status:       domain.StatusPending,
		ServiceTitle: "Math tutoring",
		ProviderName: "Otieno",
		CustomerName: "Wanjiku",
	}}, nil)

	rec := serve(NewHandler(uc, logger.NewNop()), `{"serviceId":5,"date":"2026-05-01","startTime":"10:00"}`, true)

	require.Equal(t, http.StatusCreated, rec.Code)
	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, float64(11), body["id"])
	assert.Equal(t, "pending", body["status"])
	assert.Equal(t, "500", body["totalAmount"])
	assert.Equal(t, "Otieno", body["provider"].(map[string]interface{})["name"])
	uc.AssertExpectations(t)
}

func TestHandle_Errors(t *testing.T) {
	tests := []struct {
		name       string
		body       string
		err        error
		wantStatus int
	}{
		{name: "service not found", body: `{"serviceId":5,"date":"2026-05-01"}`, err: createBooking.ErrServiceNotFound, wantStatus: http.StatusNotFound},
		{name: "self booking", body: `{"serviceId":5,"date":"2026-05-01"}`, err: createBooking.ErrSelfBooking, wantStatus: http.StatusBadRequest},
		{name: "past date", body: `{"serviceId":5,"date":"2026-05-01"}`, err: createBooking.ErrDateInPast, wantStatus: http.StatusBadRequest},
		{name: "internal", body: `{"serviceId":5,"date":"2026-05-01T00:00:00Z"}`, err: createBooking.ErrInternal, wantStatus: http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			uc := &mockUseCase{}
			uc.On("Execute", mock.Anything, mock.Anything).Return(nil, tt.err)

			rec := serve(NewHandler(uc, logger.NewNop()), tt.body, true)
			assert.Equal(t, tt.wantStatus, rec.Code)
		})
	}
}

func TestHandle_BadInput(t *testing.T) {
	uc := &mockUseCase{}
	h := NewHandler(uc, logger.NewNop())

	assert.Equal(t, http.StatusUnauthorized, serve(h, `{"serviceId":5,"date":"2026-05-01"}`, false).Code)
	assert.Equal(t, http.StatusBadRequest, serve(h, `{"serviceId":`, true).Code)
	assert.Equal(t, http.StatusBadRequest, serve(h, `{"serviceId":5,"date":"01/05/2026"}`, true).Code)
	assert.Equal(t, http.StatusBadRequest, serve(h, `{"serviceId":5,"date":"2026-05-01","endTime":"9am"}`, true).Code)

	uc.AssertNotCalled(t, "Execute", mock.Anything, mock.Anything)
}
