package models

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/m04kA/SMC-MarketplaceService/internal/domain"
)

// Request модели

// ListBookingsRequest запрос на получение бронирований пользователя
type ListBookingsRequest struct {
	Actor  domain.Actor
	Role   *string // customer | provider, nil = обе стороны (для admin - все)
	Status *string
	Page   int
	Limit  int
}

// CancelBookingRequest запрос на отмену бронирования
type CancelBookingRequest struct {
	Actor  domain.Actor
	Reason *string
}

// ExportBookingsRequest запрос на выгрузку бронирований в XLSX
type ExportBookingsRequest struct {
	Actor    domain.Actor
	Status   *string
	DateFrom *time.Time
	DateTo   *time.Time
}

// Response модели

// ServiceSummary краткие данные услуги
type ServiceSummary struct {
	ID    int64  `json:"id"`
	Title string `json:"title"`
}

// UserSummary краткие данные участника бронирования
type UserSummary struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

// BookingResponse ответ с данными бронирования
type BookingResponse struct {
	ID          int64           `json:"id"`
	ServiceID   int64           `json:"serviceId"`
	CustomerID  int64           `json:"customerId"`
	ProviderID  int64           `json:"providerId"`
	Date        string          `json:"date"` // "2025-10-15"
	StartTime   *string         `json:"startTime,omitempty"`
	EndTime     *string         `json:"endTime,omitempty"`
	Notes       *string         `json:"notes,omitempty"`
	TotalAmount decimal.Decimal `json:"totalAmount"`
	Status      string          `json:"status"`
	IsPaid      bool            `json:"isPaid"`
	PaidAt      *string         `json:"paidAt,omitempty"` // ISO 8601 format

	CancellationReason *string `json:"cancellationReason,omitempty"`
	CancelledAt        *string `json:"cancelledAt,omitempty"`

	// Денормализованные данные
	Service  ServiceSummary `json:"service"`
	Provider UserSummary    `json:"provider"`
	Customer UserSummary    `json:"customer"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// PaginationResponse метаданные страницы
type PaginationResponse struct {
	Total int `json:"total"`
	Page  int `json:"page"`
	Limit int `json:"limit"`
	Pages int `json:"pages"`
}

// BookingListResponse ответ со списком бронирований
type BookingListResponse struct {
	Bookings   []BookingResponse  `json:"bookings"`
	Pagination PaginationResponse `json:"pagination"`
}

// Методы конвертации

// FromDomainBooking конвертирует domain модель в DTO
func FromDomainBooking(b *domain.Booking) *BookingResponse {
	if b == nil {
		return nil
	}

	resp := &BookingResponse{
		ID:                 b.ID,
		ServiceID:          b.ServiceID,
		CustomerID:         b.CustomerID,
		ProviderID:         b.ProviderID,
		Date:               b.Date.Format(domain.DateFormat),
		Notes:              b.Notes,
		TotalAmount:        b.TotalAmount,
		Status:             string(b.Status),
		IsPaid:             b.IsPaid,
		CancellationReason: b.CancellationReason,
		Service:            ServiceSummary{ID: b.ServiceID, Title: b.ServiceTitle},
		Provider:           UserSummary{ID: b.ProviderID, Name: b.ProviderName},
		Customer:           UserSummary{ID: b.CustomerID, Name: b.CustomerName},
		CreatedAt:          b.CreatedAt,
		UpdatedAt:          b.UpdatedAt,
	}

	if b.StartTime != nil && !b.StartTime.IsZero() {
		s := b.StartTime.String()
		resp.StartTime = &s
	}
	if b.EndTime != nil && !b.EndTime.IsZero() {
		s := b.EndTime.String()
		resp.EndTime = &s
	}
	resp.PaidAt = formatTime(b.PaidAt)
	resp.CancelledAt = formatTime(b.CancelledAt)

	return resp
}

// FromDomainBookingList конвертирует страницу domain моделей в DTO
func FromDomainBookingList(bookings []*domain.Booking, pagination domain.Pagination) *BookingListResponse {
	resp := &BookingListResponse{
		Bookings: make([]BookingResponse, 0, len(bookings)),
		Pagination: PaginationResponse{
			Total: pagination.Total,
			Page:  pagination.Page,
			Limit: pagination.Limit,
			Pages: pagination.Pages,
		},
	}

	for _, booking := range bookings {
		if bookingResp := FromDomainBooking(booking); bookingResp != nil {
			resp.Bookings = append(resp.Bookings, *bookingResp)
		}
	}

	return resp
}

// ToDomainBookingStatus конвертирует строку в domain.BookingStatus с валидацией
func ToDomainBookingStatus(status string) (domain.BookingStatus, bool) {
	s := domain.BookingStatus(status)
	return s, s.IsValid()
}

func formatTime(t *time.Time) *string {
	if t == nil {
		return nil
	}
	s := t.Format(time.RFC3339)
	return &s
}
