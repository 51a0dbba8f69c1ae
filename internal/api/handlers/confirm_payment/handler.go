package confirm_payment

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"

	"github.com/m04kA/SMC-MarketplaceService/internal/api/handlers"
	"github.com/m04kA/SMC-MarketplaceService/internal/api/middleware"
	"github.com/m04kA/SMC-MarketplaceService/internal/service/payments/models"
	confirmPayment "github.com/m04kA/SMC-MarketplaceService/internal/usecase/confirm_payment"
)

const (
	msgInvalidTransactionID = "invalid transaction id"
	msgUnauthorized         = "authentication required"
	msgNotFound             = "transaction not found"
	msgForbidden            = "access denied"
)

type Handler struct {
	useCase ConfirmPaymentUseCase
	logger  Logger
}

func NewHandler(useCase ConfirmPaymentUseCase, logger Logger) *Handler {
	return &Handler{
		useCase: useCase,
		logger:  logger,
	}
}

// Handle GET /api/v1/payments/{transactionId}
func (h *Handler) Handle(w http.ResponseWriter, r *http.Request) {
	transactionID, err := strconv.ParseInt(mux.Vars(r)["transactionId"], 10, 64)
	if err != nil || transactionID <= 0 {
		handlers.RespondBadRequest(w, msgInvalidTransactionID)
		return
	}

	actor, ok := middleware.GetActor(r.Context())
	if !ok {
		handlers.RespondUnauthorized(w, msgUnauthorized)
		return
	}

	result, err := h.useCase.Execute(r.Context(), &confirmPayment.Request{
		TransactionID: transactionID,
		Actor:         actor,
	})
	if err != nil {
		switch {
		case errors.Is(err, confirmPayment.ErrTransactionNotFound):
			handlers.RespondNotFound(w, msgNotFound)
		case errors.Is(err, confirmPayment.ErrAccessDenied):
			h.logger.Warn("GET /payments/{id} - Access denied: transaction_id=%d, user_id=%d",
				transactionID, actor.UserID)
			handlers.RespondForbidden(w, msgForbidden)
		case errors.Is(err, confirmPayment.ErrInvalidInput):
			handlers.RespondBadRequest(w, msgInvalidTransactionID)
		default:
			h.logger.Error("GET /payments/{id} - Failed to confirm payment: transaction_id=%d, error=%v",
				transactionID, err)
			handlers.RespondInternalError(w)
		}
		return
	}

	handlers.RespondSuccess(w, http.StatusOK, models.FromDomainTransaction(result.Transaction))
}
