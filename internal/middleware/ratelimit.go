package middleware

import (
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/evolution-ecosystem/bridge/internal/model"
)

// RateLimiter implements per-client token bucket rate limiting. Clients
// are keyed by user ID when authenticated and by remote address otherwise.
type RateLimiter struct {
	mu       sync.Mutex
	clients  map[string]*clientBucket
	rate     int           // sustained requests per window
	window   time.Duration // refill window
	burst    int           // extra capacity above the sustained rate
	stopChan chan struct{}
}

type clientBucket struct {
	tokens     float64
	lastRefill time.Time
}

// RateLimitConfig holds rate limiter configuration
type RateLimitConfig struct {
	Rate    int           // requests per window (default 120)
	Window  time.Duration // refill window (default 1 minute)
	Burst   int           // extra burst capacity (default 30)
	Cleanup time.Duration // stale bucket sweep interval (default 5 minutes)
}

// NewRateLimiter creates a rate limiter and starts its sweep goroutine.
func NewRateLimiter(cfg RateLimitConfig) *RateLimiter {
	if cfg.Rate == 0 {
		cfg.Rate = 120
	}
	if cfg.Window == 0 {
		cfg.Window = time.Minute
	}
	if cfg.Burst == 0 {
		cfg.Burst = 30
	}
	if cfg.Cleanup == 0 {
		cfg.Cleanup = 5 * time.Minute
	}

	rl := &RateLimiter{
		clients:  make(map[string]*clientBucket),
		rate:     cfg.Rate,
		window:   cfg.Window,
		burst:    cfg.Burst,
		stopChan: make(chan struct{}),
	}

	go rl.sweepLoop(cfg.Cleanup)

	return rl
}

// Stop stops the sweep goroutine.
func (rl *RateLimiter) Stop() {
	close(rl.stopChan)
}

func (rl *RateLimiter) sweepLoop(interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			rl.sweep()
		case <-rl.stopChan:
			return
		}
	}
}

// sweep drops buckets idle long enough to have fully refilled anyway.
func (rl *RateLimiter) sweep() {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	cutoff := time.Now().Add(-2 * rl.window)
	for key, b := range rl.clients {
		if b.lastRefill.Before(cutoff) {
			delete(rl.clients, key)
		}
	}
}

func (rl *RateLimiter) capacity() float64 {
	return float64(rl.rate + rl.burst)
}

// Allow consumes one token for key. It reports whether the request may
// proceed, how many tokens remain, and when the bucket is full again.
func (rl *RateLimiter) Allow(key string) (allowed bool, remaining int, resetTime time.Time) {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := time.Now()
	b, ok := rl.clients[key]
	if !ok {
		b = &clientBucket{tokens: rl.capacity(), lastRefill: now}
		rl.clients[key] = b
	} else {
		// Continuous refill proportional to elapsed time.
		elapsed := now.Sub(b.lastRefill)
		b.tokens += float64(rl.rate) * (float64(elapsed) / float64(rl.window))
		if b.tokens > rl.capacity() {
			b.tokens = rl.capacity()
		}
		b.lastRefill = now
	}

	if b.tokens < 1 {
		deficit := rl.capacity() - b.tokens
		refillIn := time.Duration(deficit / float64(rl.rate) * float64(rl.window))
		return false, 0, now.Add(refillIn)
	}

	b.tokens--
	deficit := rl.capacity() - b.tokens
	refillIn := time.Duration(deficit / float64(rl.rate) * float64(rl.window))
	return true, int(b.tokens), now.Add(refillIn)
}

// RateLimit returns a middleware that applies rate limiting
func RateLimit(limiter *RateLimiter) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			key := GetUserID(r.Context())
			if key == "" {
				key = r.RemoteAddr
			}

			allowed, remaining, resetTime := limiter.Allow(key)

			w.Header().Set("X-RateLimit-Limit", strconv.Itoa(limiter.rate))
			w.Header().Set("X-RateLimit-Remaining", strconv.Itoa(remaining))
			w.Header().Set("X-RateLimit-Reset", strconv.FormatInt(resetTime.Unix(), 10))

			if !allowed {
				retryAfter := int(time.Until(resetTime).Seconds())
				if retryAfter < 1 {
					retryAfter = 1
				}
				w.Header().Set("Retry-After", strconv.Itoa(retryAfter))

				model.NewRateLimitError(retryAfter).WriteJSON(w)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
