package mobilemoney

import "errors"

var (
	// ErrRequestRejected возвращается, когда провайдер отклонил STK push
	ErrRequestRejected = errors.New("mobilemoney: payment request rejected")

	// ErrInternal возвращается при внутренних ошибках клиента
	ErrInternal = errors.New("mobilemoney client: internal error")

	// ErrInvalidResponse возвращается при некорректном ответе провайдера
	ErrInvalidResponse = errors.New("mobilemoney client: invalid response")
)
