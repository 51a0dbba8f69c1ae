package worker

import (
	"math"
	"time"
)

// RetryPolicy экспоненциальная задержка между попытками доставки события
type RetryPolicy struct {
	InitialDelay  time.Duration
	MaxDelay      time.Duration
	BackoffFactor float64
}

// DefaultRetryPolicy 2s, 4s, 8s ... не дольше 10 минут
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{
		InitialDelay:  2 * time.Second,
		MaxDelay:      10 * time.Minute,
		BackoffFactor: 2,
	}
}

// NextDelay задержка после attempt-й неудачной попытки (нумерация с 1)
func (r RetryPolicy) NextDelay(attempt int) time.Duration {
	if attempt < 1 {
		attempt = 1
	}
	if r.InitialDelay <= 0 {
		r.InitialDelay = time.Second
	}
	if r.BackoffFactor <= 0 {
		r.BackoffFactor = 2
	}

	delay := float64(r.InitialDelay) * math.Pow(r.BackoffFactor, float64(attempt-1))
	if r.MaxDelay > 0 && delay > float64(r.MaxDelay) {
		return r.MaxDelay
	}

	d := time.Duration(delay)
	if d <= 0 {
		d = time.Second
	}
	return d
}
