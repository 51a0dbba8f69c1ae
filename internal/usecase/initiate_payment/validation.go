package initiate_payment

import "fmt"

// validateRequest валидирует идентификаторы запроса.
// Номер телефона проверяется позже, после проверок доступа к бронированию.
func validateRequest(req *Request) error {
	if req.BookingID <= 0 {
		return fmt.Errorf("%w: bookingId must be positive", ErrInvalidInput)
	}

	if req.CustomerID <= 0 {
		return fmt.Errorf("%w: customerID must be positive", ErrInvalidInput)
	}

	return nil
}
