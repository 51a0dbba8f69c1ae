package settlement

import "errors"

var (
	// ErrTransactionNotFound возвращается, когда транзакция не найдена
	ErrTransactionNotFound = errors.New("settlement: transaction not found")

	// ErrInvalidOutcome возвращается, когда итог платежа не является терминальным
	ErrInvalidOutcome = errors.New("settlement: outcome must be completed or failed")

	// ErrInternal возвращается при внутренних ошибках сервиса
	ErrInternal = errors.New("settlement: internal error")
)
