package middleware

import (
	"net"
	"net/http"
	"sync"

	"catchall-api/internal/api/v1/errors"
	"catchall-api/internal/metrics"

	"golang.org/x/time/rate"
)

// maxTrackedClients caps the limiter map so hostile clients cannot grow it
// without bound.
const maxTrackedClients = 10000

// RateLimiter keeps one token bucket per client address.
type RateLimiter struct {
	mu                sync.Mutex
	limiters          map[string]*rate.Limiter
	requestsPerSecond int
	burstSize         int
}

// NewRateLimiter initializes a new per-client rate limiter.
func NewRateLimiter(requestsPerSecond, burstSize int) *RateLimiter {
	return &RateLimiter{
		limiters:          make(map[string]*rate.Limiter),
		requestsPerSecond: requestsPerSecond,
		burstSize:         burstSize,
	}
}

// Allow reports whether the client may proceed.
func (rl *RateLimiter) Allow(client string) bool {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	if len(rl.limiters) >= maxTrackedClients {
		rl.limiters = make(map[string]*rate.Limiter)
	}

	limiter, exists := rl.limiters[client]
	if !exists {
		limiter = rate.NewLimiter(
			rate.Limit(rl.requestsPerSecond),
			rl.burstSize,
		)
		rl.limiters[client] = limiter
	}

	return limiter.Allow()
}

// RateLimitHandle rejects clients exceeding their per-address budget.
func RateLimitHandle(rl *RateLimiter, mtr *metrics.Metrics) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			client, _, err := net.SplitHostPort(r.RemoteAddr)
			if err != nil {
				client = r.RemoteAddr
			}
			if !rl.Allow(client) {
				mtr.IncrementRateLimitHit()
				http.Error(w, errors.RateLimitExceededError, http.StatusTooManyRequests)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
