package domain

// Pagination defaults
const (
	DefaultPage  = 1
	DefaultLimit = 10
	MaxLimit     = 100
)

// Business validation constants
const (
	MaxNotesLength              = 500
	MaxCancellationReasonLength = 500
	MaxServiceTitleLength       = 200
	MaxServiceDescriptionLength = 5000
)

// Time format constants
const (
	TimeFormat = "15:04"      // HH:MM
	DateFormat = "2006-01-02" // YYYY-MM-DD
)

// PaymentMethodMpesa the only supported payment method
const PaymentMethodMpesa = "mpesa"

// CurrencyKES amounts are stored in Kenyan shillings
const CurrencyKES = "KES"
