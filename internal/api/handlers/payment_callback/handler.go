package payment_callback

import (
	"errors"
	"net/http"

	"github.com/m04kA/SMC-MarketplaceService/internal/api/handlers"
	paymentCallback "github.com/m04kA/SMC-MarketplaceService/internal/usecase/payment_callback"
)

const (
	msgInvalidRequestBody = "invalid request body"
	msgMissingResultCode  = "resultCode is required"
	msgInvalidToken       = "invalid callback token"
	msgNotFound           = "transaction not found"
)

type Handler struct {
	useCase PaymentCallbackUseCase
	logger  Logger
}

func NewHandler(useCase PaymentCallbackUseCase, logger Logger) *Handler {
	return &Handler{
		useCase: useCase,
		logger:  logger,
	}
}

// Handle POST /api/v1/payments/callback (без JWT, проверяется X-Callback-Token)
func (h *Handler) Handle(w http.ResponseWriter, r *http.Request) {
	var req CallbackRequest
	if err := handlers.DecodeJSON(r, &req); err != nil {
		h.logger.Warn("POST /payments/callback - Invalid request body: %v", err)
		handlers.RespondBadRequest(w, msgInvalidRequestBody)
		return
	}
	if req.ResultCode == nil {
		handlers.RespondBadRequest(w, msgMissingResultCode)
		return
	}

	result, err := h.useCase.Execute(r.Context(), req.ToUseCaseRequest(r.Header.Get(CallbackHeader)))
	if err != nil {
		switch {
		case errors.Is(err, paymentCallback.ErrInvalidToken):
			handlers.RespondUnauthorized(w, msgInvalidToken)
		case errors.Is(err, paymentCallback.ErrInvalidInput):
			handlers.RespondBadRequest(w, msgInvalidRequestBody)
		case errors.Is(err, paymentCallback.ErrTransactionNotFound):
			h.logger.Warn("POST /payments/callback - Unknown reference: %s", req.Reference)
			handlers.RespondNotFound(w, msgNotFound)
		default:
			h.logger.Error("POST /payments/callback - Failed to process callback: reference=%s, error=%v",
				req.Reference, err)
			handlers.RespondInternalError(w)
		}
		return
	}

	h.logger.Info("POST /payments/callback - Processed: reference=%s, status=%s, applied=%t",
		req.Reference, result.Transaction.Status, result.Applied)
	handlers.RespondSuccess(w, http.StatusOK, &CallbackResponse{
		Reference: result.Transaction.Reference,
		Status:    string(result.Transaction.Status),
		Applied:   result.Applied,
	})
}
