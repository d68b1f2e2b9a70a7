// Package ratelimit provides per-client rate limiting middleware using a token bucket.
package ratelimit

import (
	"encoding/json"
	"net"
	"net/http"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// Config holds the configuration for rate limiting
type Config struct {
	Enabled bool
	// RequestsPerMin is the number of requests allowed per minute per client.
	// A value of zero or less disables limiting.
	RequestsPerMin int
	BurstSize      int
	// IdleTTL is how long an unused client entry is kept. Defaults to 10 minutes.
	IdleTTL time.Duration
}

type clientLimiter struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// RateLimiter manages per-client rate limiters
type RateLimiter struct {
	mu       sync.Mutex
	limiters map[string]*clientLimiter
	rate     rate.Limit
	burst    int
	ttl      time.Duration
	stopCh   chan struct{}
	stopOnce sync.Once
	now      func() time.Time
}

// New creates a RateLimiter and starts its cleanup loop. Call Stop to end it.
func New(cfg Config) *RateLimiter {
	ttl := cfg.IdleTTL
	if ttl <= 0 {
		ttl = 10 * time.Minute
	}
	burst := cfg.BurstSize
	if burst <= 0 {
		burst = 1
	}

	rl := &RateLimiter{
		limiters: make(map[string]*clientLimiter),
		rate:     rate.Limit(float64(cfg.RequestsPerMin) / 60.0),
		burst:    burst,
		ttl:      ttl,
		stopCh:   make(chan struct{}),
		now:      time.Now,
	}
	go rl.cleanupLoop()
	return rl
}

// Stop ends the cleanup loop. It is safe to call more than once.
func (rl *RateLimiter) Stop() {
	rl.stopOnce.Do(func() { close(rl.stopCh) })
}

func (rl *RateLimiter) cleanupLoop() {
	ticker := time.NewTicker(rl.ttl)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			rl.evictIdle()
		case <-rl.stopCh:
			return
		}
	}
}

func (rl *RateLimiter) evictIdle() {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	cutoff := rl.now().Add(-rl.ttl)
	for client, l := range rl.limiters {
		if l.lastSeen.Before(cutoff) {
			delete(rl.limiters, client)
		}
	}
}

func (rl *RateLimiter) limiterFor(client string) *rate.Limiter {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	if l, ok := rl.limiters[client]; ok {
		l.lastSeen = rl.now()
		return l.limiter
	}

	l := &clientLimiter{
		limiter:  rate.NewLimiter(rl.rate, rl.burst),
		lastSeen: rl.now(),
	}
	rl.limiters[client] = l
	return l.limiter
}

// Len returns the number of tracked clients
func (rl *RateLimiter) Len() int {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	return len(rl.limiters)
}

// Middleware rejects requests over the client's budget with 429.
// Clients are keyed by the host of RemoteAddr, so chi's RealIP should run first
// when the server sits behind a proxy.
func (rl *RateLimiter) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !rl.limiterFor(clientKey(r)).Allow() {
			w.Header().Set("Content-Type", "application/json")
			w.Header().Set("Retry-After", "60")
			w.WriteHeader(http.StatusTooManyRequests)
			json.NewEncoder(w).Encode(map[string]any{
				"error": map[string]any{
					"code":    "RATE_LIMIT_EXCEEDED",
					"message": "Too many requests. Please try again later.",
				},
			})
			return
		}
		next.ServeHTTP(w, r)
	})
}

// Middleware returns a rate limiting middleware and a stop function for its
// cleanup loop. When disabled or given no positive rate it returns a
// pass-through.
func Middleware(cfg Config) (func(http.Handler) http.Handler, func()) {
	if !cfg.Enabled || cfg.RequestsPerMin <= 0 {
		return func(next http.Handler) http.Handler { return next }, func() {}
	}
	rl := New(cfg)
	return rl.Middleware, rl.Stop
}

func clientKey(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
