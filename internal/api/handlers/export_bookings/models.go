package export_bookings

import (
	"fmt"
	"net/url"
	"time"

	"github.com/m04kA/SMC-MarketplaceService/internal/domain"
	"github.com/m04kA/SMC-MarketplaceService/internal/service/bookings/models"
)

// ToServiceRequest парсит query параметры status, dateFrom, dateTo
func ToServiceRequest(actor domain.Actor, query url.Values) (*models.ExportBookingsRequest, error) {
	req := &models.ExportBookingsRequest{Actor: actor}

	if v := query.Get("status"); v != "" {
		req.Status = &v
	}

	for _, p := range []struct {
		name string
		dst  **time.Time
	}{
		{"dateFrom", &req.DateFrom},
		{"dateTo", &req.DateTo},
	} {
		v := query.Get(p.name)
		if v == "" {
			continue
		}
		date, err := time.Parse(domain.DateFormat, v)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", p.name, err)
		}
		*p.dst = &date
	}

	return req, nil
}
