package middleware

import (
	"encoding/json"
	"net/http"
	"strconv"
	"sync"
	"time"

	"resona-backend/internal/models"
)

type visitor struct {
	count     int
	resetTime time.Time
}

// RateLimiter is a fixed-window limiter keyed by client IP. It is built and
// injected where needed rather than living as package-level state, and its
// cleanup sweep is owned explicitly via Stop.
type RateLimiter struct {
	mu       sync.Mutex
	visitors map[string]*visitor
	limit    int
	window   time.Duration
	stop     chan struct{}
	stopOnce sync.Once

	// OnLimited, when set, is called once per denied request.
	OnLimited func()
}

func NewRateLimiter(limit int, window time.Duration) *RateLimiter {
	rl := &RateLimiter{
		visitors: make(map[string]*visitor),
		limit:    limit,
		window:   window,
		stop:     make(chan struct{}),
	}
	go rl.sweep()
	return rl
}

// Stop ends the cleanup sweep.
func (rl *RateLimiter) Stop() {
	rl.stopOnce.Do(func() { close(rl.stop) })
}

func (rl *RateLimiter) sweep() {
	ticker := time.NewTicker(rl.window)
	defer ticker.Stop()
	for {
		select {
		case <-rl.stop:
			return
		case <-ticker.C:
			now := time.Now()
			rl.mu.Lock()
			for key, v := range rl.visitors {
				if v.resetTime.Before(now) {
					delete(rl.visitors, key)
				}
			}
			rl.mu.Unlock()
		}
	}
}

// Allow records one request for key and reports whether it is within the
// limit, how many requests remain in the window, and, when denied, how
// long until the window resets.
func (rl *RateLimiter) Allow(key string) (allowed bool, remaining int, retryAfter time.Duration) {
	now := time.Now()

	rl.mu.Lock()
	defer rl.mu.Unlock()

	v, exists := rl.visitors[key]
	if !exists || v.resetTime.Before(now) {
		rl.visitors[key] = &visitor{count: 1, resetTime: now.Add(rl.window)}
		return true, rl.limit - 1, 0
	}

	if v.count >= rl.limit {
		return false, 0, time.Until(v.resetTime)
	}

	v.count++
	return true, rl.limit - v.count, 0
}

func (rl *RateLimiter) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		allowed, remaining, retryAfter := rl.Allow(r.RemoteAddr)

		w.Header().Set("X-RateLimit-Remaining", strconv.Itoa(remaining))
		if !allowed {
			if rl.OnLimited != nil {
				rl.OnLimited()
			}
			secs := int(retryAfter.Seconds())
			if secs < 1 {
				secs = 1
			}
			w.Header().Set("Retry-After", strconv.Itoa(secs))
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusTooManyRequests)
			json.NewEncoder(w).Encode(models.APIErrorResponse{
				Error: models.ErrorText(models.ErrRateLimited),
				Code:  string(models.ErrRateLimited),
			})
			return
		}

		next.ServeHTTP(w, r)
	})
}
