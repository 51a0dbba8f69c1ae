package initiate_payment

import (
	"errors"
	"net/http"

	"github.com/m04kA/SMC-MarketplaceService/internal/api/handlers"
	"github.com/m04kA/SMC-MarketplaceService/internal/api/middleware"
	initiatePayment "github.com/m04kA/SMC-MarketplaceService/internal/usecase/initiate_payment"
)

const (
	msgInvalidRequestBody = "invalid request body"
	msgUnauthorized       = "authentication required"
	msgInvalidInput       = "bookingId is required"
	msgBookingNotFound    = "booking not found"
	msgForbidden          = "only the customer can pay for this booking"
	msgAlreadyPaid        = "booking is already paid"
	msgBookingCancelled   = "cancelled bookings cannot be paid"
	msgInvalidPhone       = "invalid phone number, expected a Kenyan mobile number"
	msgInProgress         = "payment already in progress"
	msgRateLimited        = "too many payment attempts, try again later"
	msgGatewayUnavailable = "payment provider is unavailable, try again later"
)

type Handler struct {
	useCase InitiatePaymentUseCase
	logger  Logger
}

func NewHandler(useCase InitiatePaymentUseCase, logger Logger) *Handler {
	return &Handler{
		useCase: useCase,
		logger:  logger,
	}
}

// Handle POST /api/v1/payments/initiate
func (h *Handler) Handle(w http.ResponseWriter, r *http.Request) {
	actor, ok := middleware.GetActor(r.Context())
	if !ok {
		handlers.RespondUnauthorized(w, msgUnauthorized)
		return
	}

	var req InitiatePaymentRequest
	if err := handlers.DecodeJSON(r, &req); err != nil {
		h.logger.Warn("POST /payments/initiate - Invalid request body: %v", err)
		handlers.RespondBadRequest(w, msgInvalidRequestBody)
		return
	}

	result, err := h.useCase.Execute(r.Context(), req.ToUseCaseRequest(actor.UserID))
	if err != nil {
		switch {
		case errors.Is(err, initiatePayment.ErrInvalidInput):
			handlers.RespondBadRequest(w, msgInvalidInput)

		case errors.Is(err, initiatePayment.ErrBookingNotFound):
			handlers.RespondNotFound(w, msgBookingNotFound)

		case errors.Is(err, initiatePayment.ErrAccessDenied):
			h.logger.Warn("POST /payments/initiate - Access denied: booking_id=%d, user_id=%d",
				req.BookingID, actor.UserID)
			handlers.RespondForbidden(w, msgForbidden)

		case errors.Is(err, initiatePayment.ErrAlreadyPaid):
			handlers.RespondBadRequest(w, msgAlreadyPaid)

		case errors.Is(err, initiatePayment.ErrBookingCancelled):
			handlers.RespondBadRequest(w, msgBookingCancelled)

		case errors.Is(err, initiatePayment.ErrInvalidPhoneNumber):
			handlers.RespondBadRequest(w, msgInvalidPhone)

		case errors.Is(err, initiatePayment.ErrPaymentInProgress):
			handlers.RespondConflict(w, msgInProgress)

		case errors.Is(err, initiatePayment.ErrRateLimited):
			handlers.RespondTooManyRequests(w, msgRateLimited)

		case errors.Is(err, initiatePayment.ErrGatewayUnavailable):
			h.logger.Error("POST /payments/initiate - Gateway error: booking_id=%d, error=%v", req.BookingID, err)
			handlers.RespondError(w, http.StatusBadGateway, msgGatewayUnavailable)

		default:
			h.logger.Error("POST /payments/initiate - Failed to initiate payment: booking_id=%d, error=%v",
				req.BookingID, err)
			handlers.RespondInternalError(w)
		}
		return
	}

	h.logger.Info("POST /payments/initiate - Payment initiated: booking_id=%d, transaction_id=%d",
		req.BookingID, result.Transaction.ID)
	handlers.RespondSuccess(w, http.StatusOK, FromUseCaseResponse(result))
}
