package middleware

import (
	"context"
	"encoding/json"
	"fmt"
	"net"
	"net/http"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/Cheertaboi/storefront-service/internal/auth"
)

const limiterIdleTTL = 10 * time.Minute

// RateLimiter keeps a token bucket per client: the user id for
// authenticated requests, the remote IP otherwise.
type RateLimiter struct {
	limiters sync.Map
	rate     int
	burst    int
}

type limiterEntry struct {
	limiter    *rate.Limiter
	lastAccess atomic.Int64
}

func NewRateLimiter(requestsPerSecond, burst int) *RateLimiter {
	return &RateLimiter{rate: requestsPerSecond, burst: burst}
}

// Run drops idle buckets every interval until ctx is done.
func (rl *RateLimiter) Run(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			rl.sweep(now)
		}
	}
}

func (rl *RateLimiter) sweep(now time.Time) {
	cutoff := now.Add(-limiterIdleTTL).UnixNano()
	rl.limiters.Range(func(key, value any) bool {
		if value.(*limiterEntry).lastAccess.Load() < cutoff {
			rl.limiters.Delete(key)
		}
		return true
	})
}

func (rl *RateLimiter) getLimiter(key string) *rate.Limiter {
	now := time.Now().UnixNano()
	if v, ok := rl.limiters.Load(key); ok {
		e := v.(*limiterEntry)
		e.lastAccess.Store(now)
		return e.limiter
	}
	e := &limiterEntry{limiter: rate.NewLimiter(rate.Limit(rl.rate), rl.burst)}
	e.lastAccess.Store(now)
	actual, _ := rl.limiters.LoadOrStore(key, e)
	return actual.(*limiterEntry).limiter
}

func clientKey(r *http.Request) string {
	if c := auth.FromContext(r.Context()); c != nil {
		return "user:" + strconv.FormatInt(c.UserID, 10)
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		host = r.RemoteAddr
	}
	if host == "" {
		host = "unknown"
	}
	return "ip:" + host
}

func (rl *RateLimiter) Limit(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		key := clientKey(r)
		if !rl.getLimiter(key).Allow() {
			LogWithCorrelationID(r.Context()).Warn("rate limit exceeded",
				zap.String("client_id", key),
				zap.String("path", r.URL.Path),
			)
			w.Header().Set("X-RateLimit-Limit", strconv.Itoa(rl.rate))
			w.Header().Set("X-RateLimit-Remaining", "0")
			w.Header().Set("Retry-After", "1")
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusTooManyRequests)
			_ = json.NewEncoder(w).Encode(map[string]string{
				"error":   "rate_limited",
				"message": fmt.Sprintf("too many requests, limit is %d per second", rl.rate),
			})
			return
		}
		next.ServeHTTP(w, r)
	})
}
