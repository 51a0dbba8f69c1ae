package list_bookings

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/m04kA/SMC-MarketplaceService/internal/api/middleware"
	"github.com/m04kA/SMC-MarketplaceService/internal/domain"
	"github.com/m04kA/SMC-MarketplaceService/internal/service/bookings"
	"github.com/m04kA/SMC-MarketplaceService/internal/service/bookings/models"
	"github.com/m04kA/SMC-MarketplaceService/pkg/logger"
)

type mockService struct {
	mock.Mock
}

func (m *mockService) List(ctx context.Context, req *models.ListBookingsRequest) (*models.BookingListResponse, error) {
	args := m.Called(ctx, req)
	if resp := args.Get(0); resp != nil {
		return resp.(*models.BookingListResponse), args.Error(1)
	}
	return nil, args.Error(1)
}

func serve(svc *mockService, query string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, "/api/v1/bookings"+query, nil)
	req = req.WithContext(middleware.WithActor(req.Context(), domain.Actor{UserID: 2, Role: domain.RoleCustomer}))
	rec := httptest.NewRecorder()
	NewHandler(svc, logger.NewNop()).Handle(rec, req)
	return rec
}

func TestToServiceRequest(t *testing.T) {
	actor := domain.Actor{UserID: 2, Role: domain.RoleCustomer}
	req, err := ToServiceRequest(actor, map[string][]string{
		"page":   {"3"},
		"limit":  {"20"},
		"role":   {"provider"},
		"status": {"confirmed"},
	})
	require.NoError(t, err)
	assert.Equal(t, 3, req.Page)
	assert.Equal(t, 20, req.Limit)
	require.NotNil(t, req.Role)
	assert.Equal(t, "provider", *req.Role)
	require.NotNil(t, req.Status)
	assert.Equal(t, "confirmed", *req.Status)

	_, err = ToServiceRequest(actor, map[string][]string{"page": {"first"}})
	assert.Error(t, err)
}

func TestHandle(t *testing.T) {
	svc := &mockService{}
	svc.On("List", mock.Anything, mock.MatchedBy(func(req *models.ListBookingsRequest) bool {
		return req.Status == nil
	})).Return(&models.BookingListResponse{
		Bookings:   []models.BookingResponse{},
		Pagination: models.PaginationResponse{Total: 0, Page: 1, Limit: 10, Pages: 0},
	}, nil)
	svc.On("List", mock.Anything, mock.MatchedBy(func(req *models.ListBookingsRequest) bool {
		return req.Status != nil
	})).Return(nil, bookings.ErrInvalidInput)

	rec := serve(svc, "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"bookings":[],"pagination":{"total":0,"page":1,"limit":10,"pages":0}}`, rec.Body.String())

	assert.Equal(t, http.StatusBadRequest, serve(svc, "?status=unknown").Code)
	assert.Equal(t, http.StatusBadRequest, serve(svc, "?limit=ten").Code)
}
