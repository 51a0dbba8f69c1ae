package domain

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/m04kA/SMC-MarketplaceService/pkg/types"
)

// BookingStatus represents the status of a booking
type BookingStatus string

const (
	StatusPending   BookingStatus = "pending"
	StatusConfirmed BookingStatus = "confirmed"
	StatusCompleted BookingStatus = "completed"
	StatusCancelled BookingStatus = "cancelled"
)

// IsValid reports whether s is one of the known booking statuses
func (s BookingStatus) IsValid() bool {
	switch s {
	case StatusPending, StatusConfirmed, StatusCompleted, StatusCancelled:
		return true
	default:
		return false
	}
}

// Booking represents a customer's reservation of a provider's service.
// Bookings are never deleted; cancellation is a status.
type Booking struct {
	ID         int64
	ServiceID  int64
	CustomerID int64
	ProviderID int64 // snapshot of service.ProviderID at creation

	Date      time.Time
	StartTime *types.TimeString
	EndTime   *types.TimeString
	Notes     *string

	TotalAmount decimal.Decimal // snapshot of service.Price at creation
	Status      BookingStatus
	IsPaid      bool
	PaidAt      *time.Time

	CancellationReason *string
	CancelledAt        *time.Time

	CreatedAt time.Time
	UpdatedAt time.Time

	// Read-only data joined for responses
	ServiceTitle string
	ProviderName string
	CustomerName string
}

// IsParticipant returns true if the user is the customer or the provider of the booking
func (b *Booking) IsParticipant(userID int64) bool {
	return b.CustomerID == userID || b.ProviderID == userID
}

// CanBeCancelled returns true if the booking can be cancelled
func (b *Booking) CanBeCancelled() bool {
	return b.Status == StatusPending || b.Status == StatusConfirmed
}

// CanBeCompleted returns true if the service can be marked as delivered
func (b *Booking) CanBeCompleted() bool {
	return b.Status == StatusConfirmed && b.IsPaid
}

// CanAcceptPayment returns true if a new payment attempt may be started
func (b *Booking) CanAcceptPayment() bool {
	return !b.IsPaid && b.Status != StatusCancelled
}

// BookingRole selects which side of the booking the caller is looking from
type BookingRole string

const (
	BookingRoleCustomer BookingRole = "customer"
	BookingRoleProvider BookingRole = "provider"
)

// BookingsFilter filter for listing bookings.
// Nil fields are not applied. ParticipantID matches either side of the booking.
type BookingsFilter struct {
	CustomerID    *int64
	ProviderID    *int64
	ParticipantID *int64
	Status        *BookingStatus
	DateFrom      *time.Time
	DateTo        *time.Time
	Limit         int // 0 = no limit
	Offset        int
}
