package initiate_payment

import "errors"

var (
	// ErrBookingNotFound возвращается, когда бронирование не найдено
	ErrBookingNotFound = errors.New("initiate_payment: booking not found")

	// ErrAccessDenied возвращается, когда оплачивает не покупатель бронирования
	ErrAccessDenied = errors.New("initiate_payment: only the customer can pay for the booking")

	// ErrAlreadyPaid возвращается, когда бронирование уже оплачено
	ErrAlreadyPaid = errors.New("initiate_payment: booking is already paid")

	// ErrBookingCancelled возвращается при попытке оплатить отменённое бронирование
	ErrBookingCancelled = errors.New("initiate_payment: booking is cancelled")

	// ErrInvalidPhoneNumber возвращается при некорректном номере телефона
	ErrInvalidPhoneNumber = errors.New("initiate_payment: invalid phone number")

	// ErrPaymentInProgress возвращается, когда по бронированию уже есть незавершённый платёж
	ErrPaymentInProgress = errors.New("initiate_payment: payment already in progress")

	// ErrRateLimited возвращается при превышении лимита попыток оплаты
	ErrRateLimited = errors.New("initiate_payment: too many payment attempts")

	// ErrGatewayUnavailable возвращается, когда провайдер платежей отклонил запрос
	ErrGatewayUnavailable = errors.New("initiate_payment: payment gateway unavailable")

	// ErrInvalidInput возвращается при некорректных входных данных
	ErrInvalidInput = errors.New("initiate_payment: invalid input data")

	// ErrInternal возвращается при внутренних ошибках usecase
	ErrInternal = errors.New("initiate_payment: internal error")
)
