package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// ServiceStatus represents whether a listing can be booked
type ServiceStatus string

const (
	ServiceStatusActive   ServiceStatus = "active"
	ServiceStatusInactive ServiceStatus = "inactive"
)

func (s ServiceStatus) IsValid() bool {
	return s == ServiceStatusActive || s == ServiceStatusInactive
}

// Service is a listing offered by a provider
type Service struct {
	ID          int64
	ProviderID  int64
	Title       string
	Description string
	Price       decimal.Decimal
	Status      ServiceStatus
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// IsBookable returns true if customers can create bookings for the service
func (s *Service) IsBookable() bool {
	return s.Status == ServiceStatusActive
}

// ServiceUpdate partial update of a listing; nil fields are left unchanged
type ServiceUpdate struct {
	Title       *string
	Description *string
	Price       *decimal.Decimal
	Status      *ServiceStatus
}

// IsEmpty returns true if nothing would be changed
func (u ServiceUpdate) IsEmpty() bool {
	return u.Title == nil && u.Description == nil && u.Price == nil && u.Status == nil
}
