package bookings

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"

	"github.com/m04kA/SMC-MarketplaceService/internal/domain"
	"github.com/m04kA/SMC-MarketplaceService/internal/service/bookings/models"
)

const exportSheet = "Bookings"

var exportHeaders = []string{
	"ID",
	"Date",
	"Service",
	"Customer",
	"Provider",
	"Amount, " + domain.CurrencyKES,
	"Status",
	"Paid",
	"Paid at",
	"Created at",
}

// Export выгружает бронирования в XLSX. Только для администраторов.
func (s *Service) Export(ctx context.Context, req *models.ExportBookingsRequest) ([]byte, error) {
	s.logger.Info("Export: exporting bookings by user=%d", req.Actor.UserID)

	if !req.Actor.IsAdmin() {
		s.logger.Warn("Export: user=%d is not an admin", req.Actor.UserID)
		return nil, ErrAccessDenied
	}

	filter := domain.BookingsFilter{DateFrom: req.DateFrom, DateTo: req.DateTo}
	if req.DateFrom != nil && req.DateTo != nil && req.DateTo.Before(*req.DateFrom) {
		return nil, fmt.Errorf("%w: dateTo is before dateFrom", ErrInvalidInput)
	}
	if req.Status != nil && *req.Status != "" {
		status, ok := models.ToDomainBookingStatus(*req.Status)
		if !ok {
			return nil, fmt.Errorf("%w: invalid status %q", ErrInvalidInput, *req.Status)
		}
		filter.Status = &status
	}

	bookings, err := s.bookingRepo.List(ctx, filter)
	if err != nil {
		s.logger.Error("Export: repository error: %v", err)
		return nil, fmt.Errorf("%w: Export - repository error: %v", ErrInternal, err)
	}

	data, err := renderBookings(bookings)
	if err != nil {
		s.logger.Error("Export: failed to render workbook: %v", err)
		return nil, fmt.Errorf("%w: Export - render workbook: %v", ErrInternal, err)
	}

	s.logger.Info("Export: exported %d bookings", len(bookings))
	return data, nil
}

func renderBookings(bookings []*domain.Booking) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", exportSheet); err != nil {
		return nil, err
	}

	headerStyle, err := f.NewStyle(&excelize.Style{
		Fill:      excelize.Fill{Type: "pattern", Color: []string{"#DDEBF7"}, Pattern: 1},
		Font:      &excelize.Font{Bold: true},
		Alignment: &excelize.Alignment{Horizontal: "center"},
	})
	if err != nil {
		return nil, err
	}

	headers := make([]interface{}, len(exportHeaders))
	for i, header := range exportHeaders {
		headers[i] = header
	}
	if err := writeRow(f, 1, 1, headers); err != nil {
		return nil, err
	}
	lastHeader, err := excelize.CoordinatesToCellName(len(exportHeaders), 1)
	if err != nil {
		return nil, err
	}
	if err := f.SetCellStyle(exportSheet, "A1", lastHeader, headerStyle); err != nil {
		return nil, err
	}
	if err := f.SetColWidth(exportSheet, "B", "E", 22); err != nil {
		return nil, err
	}
	if err := f.SetColWidth(exportSheet, "I", "J", 22); err != nil {
		return nil, err
	}

	total := decimal.Zero
	row := 2
	for _, b := range bookings {
		paidAt := ""
		if b.PaidAt != nil {
			paidAt = b.PaidAt.Format(time.RFC3339)
		}
		paid := "no"
		if b.IsPaid {
			paid = "yes"
			total = total.Add(b.TotalAmount)
		}

		values := []interface{}{
			b.ID,
			b.Date.Format(domain.DateFormat),
			b.ServiceTitle,
			b.CustomerName,
			b.ProviderName,
			b.TotalAmount.InexactFloat64(),
			string(b.Status),
			paid,
			paidAt,
			b.CreatedAt.Format(time.RFC3339),
		}
		if err := writeRow(f, row, 1, values); err != nil {
			return nil, fmt.Errorf("booking %d: %w", b.ID, err)
		}
		row++
	}

	// Итог по оплаченным бронированиям
	if err := writeRow(f, row+1, 5, []interface{}{"Paid total", total.InexactFloat64()}); err != nil {
		return nil, err
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// writeRow записывает значения в строку row, начиная с колонки firstCol
func writeRow(f *excelize.File, row, firstCol int, values []interface{}) error {
	for i, value := range values {
		cell, err := excelize.CoordinatesToCellName(firstCol+i, row)
		if err != nil {
			return err
		}
		if err := f.SetCellValue(exportSheet, cell, value); err != nil {
			return err
		}
	}
	return nil
}
