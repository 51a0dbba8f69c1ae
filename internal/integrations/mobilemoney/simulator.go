package mobilemoney

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
)

const (
	simulatedSuccessDesc = "The service request is processed successfully."
	simulatedUnknownDesc = "No payment request found for reference"
)

type simulatedPayment struct {
	request           PaymentRequest
	checkoutRequestID string
	requestedAt       time.Time
	resolved          *StatusResponse
}

// Simulator провайдер мобильных платежей в памяти процесса.
// Платёж считается успешным, когда с момента запроса прошло settleAfter.
type Simulator struct {
	mu          sync.RWMutex
	payments    map[string]*simulatedPayment
	settleAfter time.Duration
	now         func() time.Time
}

// NewSimulator создает симулятор с задержкой подтверждения settleAfter
func NewSimulator(settleAfter time.Duration) *Simulator {
	return &Simulator{
		payments:    make(map[string]*simulatedPayment),
		settleAfter: settleAfter,
		now:         time.Now,
	}
}

// WithClock подменяет источник времени (для тестов)
func (s *Simulator) WithClock(now func() time.Time) *Simulator {
	s.now = now
	return s
}

// RequestPayment регистрирует STK push. Повторный запрос с тем же reference
// возвращает тот же checkoutRequestId.
func (s *Simulator) RequestPayment(ctx context.Context, req PaymentRequest) (*PaymentResponse, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInternal, err)
	}
	if req.Reference == "" || req.PhoneNumber == "" || !req.Amount.IsPositive() {
		return nil, fmt.Errorf("%w: reference, phone number and positive amount are required", ErrRequestRejected)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	payment, exists := s.payments[req.Reference]
	if !exists {
		payment = &simulatedPayment{
			request:           req,
			checkoutRequestID: "ws_CO_" + uuid.NewString(),
			requestedAt:       s.now(),
		}
		s.payments[req.Reference] = payment
	}

	return &PaymentResponse{
		CheckoutRequestID:   payment.checkoutRequestID,
		ResponseDescription: "Success. Request accepted for processing",
	}, nil
}

// CheckStatus возвращает состояние платежа. Неизвестный reference считается неуспешным.
func (s *Simulator) CheckStatus(ctx context.Context, reference string) (*StatusResponse, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInternal, err)
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	payment, exists := s.payments[reference]
	if !exists {
		code := ResultCodeUnknown
		return &StatusResponse{
			Reference:  reference,
			Status:     StatusFailed,
			ResultCode: &code,
			ResultDesc: simulatedUnknownDesc,
		}, nil
	}

	if payment.resolved != nil {
		resolved := *payment.resolved
		return &resolved, nil
	}

	if s.now().Sub(payment.requestedAt) < s.settleAfter {
		return &StatusResponse{Reference: reference, Status: StatusPending}, nil
	}

	code := ResultCodeSuccess
	return &StatusResponse{
		Reference:  reference,
		Status:     StatusCompleted,
		ResultCode: &code,
		ResultDesc: simulatedSuccessDesc,
	}, nil
}

// Resolve принудительно завершает платёж (подтверждение или отказ на телефоне покупателя)
func (s *Simulator) Resolve(reference string, status PaymentStatus, resultCode int, resultDesc string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	payment, exists := s.payments[reference]
	if !exists {
		return false
	}

	code := resultCode
	payment.resolved = &StatusResponse{
		Reference:  reference,
		Status:     status,
		ResultCode: &code,
		ResultDesc: resultDesc,
	}
	return true
}
