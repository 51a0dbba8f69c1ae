package domain

import (
	"encoding/json"
	"time"
)

// EventType is the routing key of a notification event
type EventType string

const (
	EventBookingCreated   EventType = "booking.created"
	EventBookingCancelled EventType = "booking.cancelled"
	EventBookingCompleted EventType = "booking.completed"
	EventPaymentCompleted EventType = "payment.completed"
	EventPaymentFailed    EventType = "payment.failed"
	EventPaymentRefunded  EventType = "payment.refunded"
)

// OutboxEvent a notification recorded in the same DB transaction as the state change
// and delivered later by the relay worker (at-least-once).
type OutboxEvent struct {
	ID            int64
	EventType     EventType
	AggregateID   int64 // booking id
	RecipientID   int64
	Payload       json.RawMessage
	Attempts      int
	LastError     *string
	NextAttemptAt time.Time
	CreatedAt     time.Time
	PublishedAt   *time.Time
}

// NotificationPayload body of every outbox event
type NotificationPayload struct {
	BookingID     int64  `json:"bookingId"`
	TransactionID *int64 `json:"transactionId,omitempty"`
	Title         string `json:"title"`
	Message       string `json:"message"`
}

// NewOutboxEvent builds an event with a JSON payload
func NewOutboxEvent(eventType EventType, recipientID int64, payload NotificationPayload) (*OutboxEvent, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return &OutboxEvent{
		EventType:   eventType,
		AggregateID: payload.BookingID,
		RecipientID: recipientID,
		Payload:     data,
	}, nil
}
