package domain

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalizePhoneNumber(t *testing.T) {
	tests := []struct {
		name    string
		in      string
		want    string
		wantErr bool
	}{
		{name: "local format", in: "0712345678", want: "+254712345678"},
		{name: "international with plus", in: "+254712345678", want: "+254712345678"},
		{name: "international without plus", in: "254712345678", want: "+254712345678"},
		{name: "bare nine digits", in: "712345678", want: "+254712345678"},
		{name: "airtel 01 prefix", in: "0110345678", want: "+254110345678"},
		{name: "spaces are ignored", in: "0798 765 432", want: "+254798765432"},
		{name: "too short", in: "12345", wantErr: true},
		{name: "wrong operator digit", in: "0812345678", wantErr: true},
		{name: "too long", in: "07123456789", wantErr: true},
		{name: "letters", in: "07abcdefgh", wantErr: true},
		{name: "empty", in: "", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := NormalizePhoneNumber(tt.in)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrInvalidPhoneNumber)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestNormalizePage(t *testing.T) {
	page, limit := NormalizePage(0, 0)
	assert.Equal(t, 1, page)
	assert.Equal(t, 10, limit)

	page, limit = NormalizePage(3, 500)
	assert.Equal(t, 3, page)
	assert.Equal(t, 100, limit)

	assert.Equal(t, 20, Offset(3, 10))
}

func TestNewPagination(t *testing.T) {
	assert.Equal(t, Pagination{Total: 25, Page: 1, Limit: 10, Pages: 3}, NewPagination(25, 1, 10))
	assert.Equal(t, Pagination{Total: 20, Page: 2, Limit: 10, Pages: 2}, NewPagination(20, 2, 10))
	assert.Equal(t, 0, NewPagination(0, 1, 10).Pages)
}

func TestBookingStateChecks(t *testing.T) {
	b := &Booking{CustomerID: 1, ProviderID: 2, Status: StatusPending}

	assert.True(t, b.IsParticipant(1))
	assert.True(t, b.IsParticipant(2))
	assert.False(t, b.IsParticipant(3))
	assert.True(t, b.CanAcceptPayment())
	assert.True(t, b.CanBeCancelled())
	assert.False(t, b.CanBeCompleted())

	b.Status = StatusConfirmed
	b.IsPaid = true
	assert.False(t, b.CanAcceptPayment())
	assert.True(t, b.CanBeCompleted())

	b.Status = StatusCancelled
	assert.False(t, b.CanBeCancelled())
}

func TestTransactionDetails_ScanValue(t *testing.T) {
	code := 0
	details := TransactionDetails{PhoneNumber: "+254798765432", ResultCode: &code, ResultDesc: "ok"}

	v, err := details.Value()
	require.NoError(t, err)

	var scanned TransactionDetails
	require.NoError(t, scanned.Scan(v))
	assert.Equal(t, details, scanned)

	require.NoError(t, scanned.Scan(nil))
	assert.Empty(t, scanned.PhoneNumber)
}

func TestTransaction_IsVisibleTo(t *testing.T) {
	tx := &Transaction{CustomerID: 10, ProviderID: 20}

	assert.True(t, tx.IsVisibleTo(Actor{UserID: 10, Role: RoleCustomer}))
	assert.True(t, tx.IsVisibleTo(Actor{UserID: 20, Role: RoleProvider}))
	assert.True(t, tx.IsVisibleTo(Actor{UserID: 99, Role: RoleAdmin}))
	assert.False(t, tx.IsVisibleTo(Actor{UserID: 99, Role: RoleCustomer}))
}

func TestNewOutboxEvent(t *testing.T) {
	event, err := NewOutboxEvent(EventBookingCreated, 7, NotificationPayload{
		BookingID: 42,
		Title:     "New booking",
		Message:   "You have a new booking",
	})
	require.NoError(t, err)

	assert.Equal(t, int64(42), event.AggregateID)
	assert.Equal(t, int64(7), event.RecipientID)

	var payload NotificationPayload
	require.NoError(t, json.Unmarshal(event.Payload, &payload))
	assert.Equal(t, "New booking", payload.Title)
}
