package payment_callback

import "github.com/m04kA/SMC-MarketplaceService/internal/domain"

// Request итог платежа, присланный провайдером
type Request struct {
	Token      string // значение заголовка X-Callback-Token
	Reference  string
	ResultCode int // 0 - успех, иначе отказ
	ResultDesc string
}

// Response состояние транзакции после обработки вебхука
type Response struct {
	Transaction *domain.Transaction
	Applied     bool
}
