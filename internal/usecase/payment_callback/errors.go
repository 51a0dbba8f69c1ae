package payment_callback

import "errors"

var (
	// ErrInvalidToken возвращается при неверном токене вебхука
	ErrInvalidToken = errors.New("payment_callback: invalid callback token")

	// ErrTransactionNotFound возвращается, когда транзакция с таким reference не найдена
	ErrTransactionNotFound = errors.New("payment_callback: transaction not found")

	// ErrInvalidInput возвращается при некорректных входных данных
	ErrInvalidInput = errors.New("payment_callback: invalid input data")

	// ErrInternal возвращается при внутренних ошибках usecase
	ErrInternal = errors.New("payment_callback: internal error")
)
