package middleware

import (
	"net/http"
	"net/http/httptest"
	"strconv"
	"sync"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/m04kA/SMC-MarketplaceService/internal/domain"
	"github.com/m04kA/SMC-MarketplaceService/pkg/logger"
)

const testSecret = "test-secret"

func actorEcho(t *testing.T, want domain.Actor) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		actor, ok := GetActor(r.Context())
		assert.True(t, ok)
		assert.Equal(t, want, actor)
		w.WriteHeader(http.StatusNoContent)
	})
}

func TestAuth(t *testing.T) {
	actor := domain.Actor{UserID: 42, Role: domain.RoleProvider}
	handler := Auth(testSecret)(actorEcho(t, actor))

	valid, err := IssueToken(testSecret, actor, time.Hour)
	require.NoError(t, err)
	expired, err := IssueToken(testSecret, actor, -time.Minute)
	require.NoError(t, err)
	foreign, err := IssueToken("other-secret", actor, time.Hour)
	require.NoError(t, err)
	badRole, err := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		Role:             "superuser",
		RegisteredClaims: jwt.RegisteredClaims{Subject: "42"},
	}).SignedString([]byte(testSecret))
	require.NoError(t, err)

	tests := []struct {
		name   string
		header string
		want   int
	}{
		{name: "valid token", header: "Bearer " + valid, want: http.StatusNoContent},
		{name: "missing header", header: "", want: http.StatusUnauthorized},
		{name: "wrong scheme", header: "Basic " + valid, want: http.StatusUnauthorized},
		{name: "expired", header: "Bearer " + expired, want: http.StatusUnauthorized},
		{name: "wrong secret", header: "Bearer " + foreign, want: http.StatusUnauthorized},
		{name: "unknown role", header: "Bearer " + badRole, want: http.StatusUnauthorized},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/bookings", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			rec := httptest.NewRecorder()
			handler.ServeHTTP(rec, req)
			assert.Equal(t, tt.want, rec.Code)
		})
	}
}

func TestAuth_RejectsNoneAlgorithm(t *testing.T) {
	token, err := jwt.NewWithClaims(jwt.SigningMethodNone, Claims{
		Role:             "admin",
		RegisteredClaims: jwt.RegisteredClaims{Subject: "1"},
	}).SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	_, err = ParseToken([]byte(testSecret), token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

type recordedRequest struct {
	method, route string
	status        int
}

type fakeHTTPMetrics struct {
	mu       sync.Mutex
	requests []recordedRequest
}

func (m *fakeHTTPMetrics) RecordHTTPRequest(method, route string, status int, _ time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.requests = append(m.requests, recordedRequest{method: method, route: route, status: status})
}

func TestMetricsMiddleware_UsesRouteTemplate(t *testing.T) {
	collector := &fakeHTTPMetrics{}
	r := mux.NewRouter()
	r.Use(MetricsMiddleware(collector))
	r.HandleFunc("/bookings/{bookingId}", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}).Methods(http.MethodGet)

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/bookings/17", nil))

	require.Len(t, collector.requests, 1)
	assert.Equal(t, recordedRequest{method: http.MethodGet, route: "/bookings/{bookingId}", status: http.StatusNotFound}, collector.requests[0])
}

func TestRateLimiter(t *testing.T) {
	limiter := NewRateLimiter(1, 2)
	handler := limiter.Middleware(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	send := func(ip string) int {
		req := httptest.NewRequest(http.MethodGet, "/services/1", nil)
		req.RemoteAddr = ip + ":5000"
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		return rec.Code
	}

	assert.Equal(t, http.StatusOK, send("10.0.0.1"))
	assert.Equal(t, http.StatusOK, send("10.0.0.1"))
	assert.Equal(t, http.StatusTooManyRequests, send("10.0.0.1"))

	// Другой клиент имеет собственный лимит
	assert.Equal(t, http.StatusOK, send("10.0.0.2"))
}

func TestRateLimiter_Disabled(t *testing.T) {
	limiter := NewRateLimiter(0, 1)
	handler := limiter.Middleware(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	for i := 0; i < 10; i++ {
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
		assert.Equal(t, http.StatusOK, rec.Code)
	}
}

func okHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
}

func TestRateLimiter_IgnoresForwardedForFromUntrustedPeer(t *testing.T) {
	handler := NewRateLimiter(1, 2).Middleware(okHandler())

	codes := make([]int, 0, 3)
	for _, spoofed := range []string{"1.1.1.1", "2.2.2.2", "3.3.3.3"} {
		req := httptest.NewRequest(http.MethodGet, "/services/1", nil)
		req.RemoteAddr = "203.0.113.7:5000"
		req.Header.Set("X-Forwarded-For", spoofed)
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		codes = append(codes, rec.Code)
	}

	assert.Equal(t, []int{http.StatusOK, http.StatusOK, http.StatusTooManyRequests}, codes)
}

func TestRateLimiter_ForwardedForBehindTrustedProxy(t *testing.T) {
	limiter := NewRateLimiter(1, 1, WithTrustedProxies([]string{"10.0.0.0/8", "bogus"}))

	tests := []struct {
		name   string
		remote string
		xff    string
		want   string
	}{
		{name: "untrusted peer", remote: "198.51.100.1:4000", xff: "1.1.1.1", want: "198.51.100.1"},
		{name: "trusted peer", remote: "10.0.0.5:4000", xff: "1.1.1.1", want: "1.1.1.1"},
		{name: "client prepends fake hop", remote: "10.0.0.5:4000", xff: "9.9.9.9, 1.1.1.1", want: "1.1.1.1"},
		{name: "chain of proxies", remote: "10.0.0.5:4000", xff: "1.1.1.1, 10.1.2.3", want: "1.1.1.1"},
		{name: "garbage hop", remote: "10.0.0.5:4000", xff: "not-an-ip", want: "10.0.0.5"},
		{name: "no header", remote: "10.0.0.5:4000", want: "10.0.0.5"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			req.RemoteAddr = tt.remote
			if tt.xff != "" {
				req.Header.Set("X-Forwarded-For", tt.xff)
			}
			assert.Equal(t, tt.want, limiter.clientIP(req))
		})
	}
}

func TestRateLimiter_KeysByAuthenticatedUser(t *testing.T) {
	limiter := NewRateLimiter(1, 1)
	chain := Auth(testSecret)(limiter.Middleware(okHandler()))

	send := func(userID int64, ip string) int {
		token, err := IssueToken(testSecret, domain.Actor{UserID: userID, Role: domain.RoleCustomer}, time.Hour)
		require.NoError(t, err)
		req := httptest.NewRequest(http.MethodGet, "/bookings", nil)
		req.RemoteAddr = ip + ":5000"
		req.Header.Set("Authorization", "Bearer "+token)
		rec := httptest.NewRecorder()
		chain.ServeHTTP(rec, req)
		return rec.Code
	}

	assert.Equal(t, http.StatusOK, send(1, "10.0.0.1"))
	// Тот же пользователь с другого адреса делит лимит
	assert.Equal(t, http.StatusTooManyRequests, send(1, "10.0.0.2"))
	// Другой пользователь за тем же NAT имеет свой лимит
	assert.Equal(t, http.StatusOK, send(2, "10.0.0.1"))
}

func TestRateLimiter_EvictsIdleClients(t *testing.T) {
	now := time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC)
	limiter := NewRateLimiter(1, 1, WithIdleTTL(time.Minute))
	limiter.now = func() time.Time { return now }

	for i := 0; i < 50; i++ {
		assert.True(t, limiter.allow("ip:10.0.0."+strconv.Itoa(i)))
	}
	assert.Equal(t, 50, limiter.size())

	now = now.Add(2 * time.Minute)
	assert.True(t, limiter.allow("ip:192.0.2.1"))
	assert.Equal(t, 1, limiter.size())
}

func TestRecover(t *testing.T) {
	handler := Recover(logger.NewNop())(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		panic("boom")
	}))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.JSONEq(t, `{"success":false,"error":"internal server error"}`, rec.Body.String())
}
