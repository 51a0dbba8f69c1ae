package list_bookings

import (
	"fmt"
	"net/url"
	"strconv"

	"github.com/m04kA/SMC-MarketplaceService/internal/domain"
	"github.com/m04kA/SMC-MarketplaceService/internal/service/bookings/models"
)

// ToServiceRequest собирает запрос к сервису из query параметров.
// Пустые page/limit заменяются значениями по умолчанию в сервисе.
func ToServiceRequest(actor domain.Actor, query url.Values) (*models.ListBookingsRequest, error) {
	req := &models.ListBookingsRequest{Actor: actor}

	if v := query.Get("page"); v != "" {
		page, err := strconv.Atoi(v)
		if err != nil {
			return nil, fmt.Errorf("page: %w", err)
		}
		req.Page = page
	}

	if v := query.Get("limit"); v != "" {
		limit, err := strconv.Atoi(v)
		if err != nil {
			return nil, fmt.Errorf("limit: %w", err)
		}
		req.Limit = limit
	}

	if v := query.Get("role"); v != "" {
		req.Role = &v
	}

	if v := query.Get("status"); v != "" {
		req.Status = &v
	}

	return req, nil
}
