package payment_callback

import paymentCallback "github.com/m04kA/SMC-MarketplaceService/internal/usecase/payment_callback"

// CallbackHeader заголовок с общим секретом провайдера
const CallbackHeader = "X-Callback-Token"

// CallbackRequest тело вебхука провайдера
type CallbackRequest struct {
	Reference  string `json:"reference"`
	ResultCode *int   `json:"resultCode"`
	ResultDesc string `json:"resultDesc"`
}

// CallbackResponse ответ провайдеру
type CallbackResponse struct {
	Reference string `json:"reference"`
	Status    string `json:"status"`
	Applied   bool   `json:"applied"`
}

// ToUseCaseRequest конвертирует HTTP запрос в модель use case
func (r *CallbackRequest) ToUseCaseRequest(token string) *paymentCallback.Request {
	return &paymentCallback.Request{
		Token:      token,
		Reference:  r.Reference,
		ResultCode: *r.ResultCode,
		ResultDesc: r.ResultDesc,
	}
}
