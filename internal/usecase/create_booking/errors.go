package create_booking

import "errors"

var (
	// ErrServiceNotFound возвращается, когда услуга не найдена
	ErrServiceNotFound = errors.New("create_booking: service not found")

	// ErrSelfBooking возвращается, когда провайдер пытается забронировать свою же услугу
	ErrSelfBooking = errors.New("create_booking: cannot book your own service")

	// ErrServiceUnavailable возвращается, когда услуга снята с публикации
	ErrServiceUnavailable = errors.New("create_booking: service is not available for booking")

	// ErrDateInPast возвращается, когда дата бронирования раньше сегодняшнего дня
	ErrDateInPast = errors.New("create_booking: booking date is in the past")

	// ErrInvalidInput возвращается при некорректных входных данных
	ErrInvalidInput = errors.New("create_booking: invalid input data")

	// ErrInternal возвращается при внутренних ошибках usecase
	ErrInternal = errors.New("create_booking: internal error")
)
