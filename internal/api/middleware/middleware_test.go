package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Cheertaboi/storefront-service/internal/auth"
)

var noContent = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusNoContent)
})

func TestCorrelationID(t *testing.T) {
	var seen string
	h := CorrelationID(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = CorrelationIDFromContext(r.Context())
	}))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	require.NotEmpty(t, seen)
	assert.Equal(t, seen, rec.Header().Get(CorrelationIDHeader))

	req = httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(CorrelationIDHeader, "abc-123")
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, "abc-123", seen)
	assert.Equal(t, "abc-123", rec.Header().Get(CorrelationIDHeader))
}

func TestRateLimiter(t *testing.T) {
	rl := NewRateLimiter(1, 2)
	h := rl.Limit(noContent)

	call := func(remote string, claims *auth.Claims) int {
		req := httptest.NewRequest(http.MethodPost, "/api/coupons/verify", nil)
		req.RemoteAddr = remote
		if claims != nil {
			req = req.WithContext(auth.WithClaims(req.Context(), claims))
		}
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		return rec.Code
	}

	assert.Equal(t, http.StatusNoContent, call("10.0.0.1:1234", nil))
	assert.Equal(t, http.StatusNoContent, call("10.0.0.1:5678", nil))
	assert.Equal(t, http.StatusTooManyRequests, call("10.0.0.1:9999", nil), "same host, burst spent")
	assert.Equal(t, http.StatusNoContent, call("10.0.0.2:1234", nil))

	user := &auth.Claims{UserID: 42}
	assert.Equal(t, http.StatusNoContent, call("10.0.0.1:1", user), "users get their own bucket")
}

func TestRateLimiter_Sweep(t *testing.T) {
	rl := NewRateLimiter(1, 1)
	rl.getLimiter("ip:a")

	rl.sweep(time.Now())
	_, ok := rl.limiters.Load("ip:a")
	assert.True(t, ok)

	rl.sweep(time.Now().Add(limiterIdleTTL + time.Minute))
	_, ok = rl.limiters.Load("ip:a")
	assert.False(t, ok)
}

func TestLogger(t *testing.T) {
	h := Logger(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	}))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/x", nil))
	assert.Equal(t, http.StatusTeapot, rec.Code)
}
