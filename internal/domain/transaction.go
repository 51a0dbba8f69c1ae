package domain

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// TransactionStatus represents the state of a payment attempt.
// pending is the only non-terminal state; completed and failed are reached
// at most once per transaction. refunded follows completed on cancellation.
type TransactionStatus string

const (
	TransactionPending   TransactionStatus = "pending"
	TransactionCompleted TransactionStatus = "completed"
	TransactionFailed    TransactionStatus = "failed"
	TransactionRefunded  TransactionStatus = "refunded"
)

// Transaction is one payment attempt against a booking
type Transaction struct {
	ID            int64
	BookingID     int64
	CustomerID    int64
	ProviderID    int64
	Amount        decimal.Decimal // snapshot of booking.TotalAmount
	PaymentMethod string
	Status        TransactionStatus
	Reference     string // UUIDv4, unique across all transactions
	Details       TransactionDetails
	CreatedAt     time.Time
	UpdatedAt     time.Time
	CompletedAt   *time.Time
}

func (t *Transaction) IsPending() bool {
	return t.Status == TransactionPending
}

// IsVisibleTo returns true if the user is a party of the payment
func (t *Transaction) IsVisibleTo(actor Actor) bool {
	return actor.IsAdmin() || t.CustomerID == actor.UserID || t.ProviderID == actor.UserID
}

// TransactionDetails gateway-specific data stored as JSONB.
// Updates are merged into the stored document key by key, so empty fields are omitted.
type TransactionDetails struct {
	PhoneNumber       string `json:"phoneNumber,omitempty"`
	CheckoutRequestID string `json:"checkoutRequestId,omitempty"`
	ResultCode        *int   `json:"resultCode,omitempty"`
	ResultDesc        string `json:"resultDesc,omitempty"`
}

func (d TransactionDetails) Value() (driver.Value, error) {
	b, err := json.Marshal(d)
	if err != nil {
		return nil, err
	}
	// lib/pq sends []byte parameters as bytea, JSONB needs text
	return string(b), nil
}

func (d *TransactionDetails) Scan(src interface{}) error {
	var data []byte
	switch v := src.(type) {
	case nil:
		*d = TransactionDetails{}
		return nil
	case []byte:
		data = v
	case string:
		data = []byte(v)
	default:
		return fmt.Errorf("domain: cannot scan %T into TransactionDetails", src)
	}
	return json.Unmarshal(data, d)
}

// Earnings aggregated completed payments of a provider
type Earnings struct {
	ProviderID        int64
	Total             decimal.Decimal
	CompletedPayments int64
}
