package notifier

import (
	"encoding/json"
	"time"

	"github.com/m04kA/SMC-MarketplaceService/internal/domain"
)

// Message сообщение, уходящее в брокер. Потребители дедуплицируют по EventID.
type Message struct {
	EventID     int64           `json:"eventId"`
	EventType   string          `json:"eventType"`
	BookingID   int64           `json:"bookingId"`
	RecipientID int64           `json:"recipientId"`
	Payload     json.RawMessage `json:"payload"`
	CreatedAt   time.Time       `json:"createdAt"`
}

// NewMessage строит сообщение из события outbox
func NewMessage(event *domain.OutboxEvent) Message {
	return Message{
		EventID:     event.ID,
		EventType:   string(event.EventType),
		BookingID:   event.AggregateID,
		RecipientID: event.RecipientID,
		Payload:     event.Payload,
		CreatedAt:   event.CreatedAt,
	}
}
