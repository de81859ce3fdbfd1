package middleware

import (
	"encoding/json"
	"log/slog"
	"net"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/DukeRupert/treadline/internal/clock"
)

// =============================================================================
// Rate Limiter
// =============================================================================

// RateLimiter counts attempts per key in fixed windows.
type RateLimiter struct {
	max    int
	window time.Duration
	clock  clock.Clock

	mu        sync.Mutex
	buckets   map[string]*bucket
	lastSweep time.Time
}

type bucket struct {
	used    int
	resetAt time.Time
}

// NewRateLimiter allows max attempts per key per window. A nil clock uses
// wall time.
func NewRateLimiter(max int, window time.Duration, clk clock.Clock) *RateLimiter {
	if clk == nil {
		clk = clock.Real()
	}
	return &RateLimiter{
		max:       max,
		window:    window,
		clock:     clk,
		buckets:   make(map[string]*bucket),
		lastSweep: clk.Now(),
	}
}

// Take spends one attempt for key. When the budget is gone it spends
// nothing and reports how long until the window resets.
func (rl *RateLimiter) Take(key string) (bool, time.Duration) {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := rl.clock.Now()
	rl.sweepLocked(now)

	b := rl.bucketLocked(key, now)
	if b.used >= rl.max {
		return false, b.resetAt.Sub(now)
	}
	b.used++
	return true, 0
}

// Check reports whether key still has budget without spending any.
func (rl *RateLimiter) Check(key string) (bool, time.Duration) {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := rl.clock.Now()
	b, ok := rl.buckets[key]
	if !ok || !now.Before(b.resetAt) || b.used < rl.max {
		return true, 0
	}
	return false, b.resetAt.Sub(now)
}

// RecordFailure spends one attempt for key regardless of the budget.
func (rl *RateLimiter) RecordFailure(key string) {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	rl.bucketLocked(key, rl.clock.Now()).used++
}

// Reset forgets key.
func (rl *RateLimiter) Reset(key string) {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	delete(rl.buckets, key)
}

func (rl *RateLimiter) bucketLocked(key string, now time.Time) *bucket {
	b, ok := rl.buckets[key]
	if !ok || !now.Before(b.resetAt) {
		b = &bucket{resetAt: now.Add(rl.window)}
		rl.buckets[key] = b
	}
	return b
}

// sweepLocked drops expired buckets at most once per window.
func (rl *RateLimiter) sweepLocked(now time.Time) {
	if now.Sub(rl.lastSweep) < rl.window {
		return
	}
	for key, b := range rl.buckets {
		if !now.Before(b.resetAt) {
			delete(rl.buckets, key)
		}
	}
	rl.lastSweep = now
}

// =============================================================================
// Middleware
// =============================================================================

// LimitedFunc writes the response for a client that ran out of attempts.
type LimitedFunc func(w http.ResponseWriter, r *http.Request, retryAfter time.Duration)

// RateLimit returns middleware spending one attempt per request, keyed by
// client IP. A nil onLimit writes a plain 429.
func RateLimit(rl *RateLimiter, logger *slog.Logger, onLimit LimitedFunc) func(http.Handler) http.Handler {
	if onLimit == nil {
		onLimit = TooManyRequests
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ip := clientIP(r)
			ok, wait := rl.Take(ip)
			if ok {
				next.ServeHTTP(w, r)
				return
			}
			logger.Warn("rate limit exceeded", "ip", ip, "path", r.URL.Path, "retry_after", wait)
			setRetryAfter(w, wait)
			onLimit(w, r, wait)
		})
	}
}

// TooManyRequests is the default LimitedFunc: JSON for API clients, plain
// text for everyone else.
func TooManyRequests(w http.ResponseWriter, r *http.Request, _ time.Duration) {
	const msg = "Too many requests. Please try again later."
	if isAPIRequest(r) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusTooManyRequests)
		_ = json.NewEncoder(w).Encode(map[string]string{"error": "rate_limit", "message": msg})
		return
	}
	http.Error(w, msg, http.StatusTooManyRequests)
}

// setRetryAfter rounds wait up to whole seconds, never below one.
func setRetryAfter(w http.ResponseWriter, wait time.Duration) {
	secs := int((wait + time.Second - 1) / time.Second)
	if secs < 1 {
		secs = 1
	}
	w.Header().Set("Retry-After", strconv.Itoa(secs))
}

// =============================================================================
// Login limiter
// =============================================================================

// LoginLimiter blocks a client IP after too many failed sign-ins. Only
// failures count; a successful sign-in clears the client's record.
type LoginLimiter struct {
	limiter *RateLimiter
	logger  *slog.Logger
}

// NewLoginLimiter allows maxFailures failed sign-ins per window.
func NewLoginLimiter(maxFailures int, window time.Duration, clk clock.Clock, logger *slog.Logger) *LoginLimiter {
	return &LoginLimiter{
		limiter: NewRateLimiter(maxFailures, window, clk),
		logger:  logger,
	}
}

// Limit refuses sign-in submissions from blocked clients via onLimit (or
// TooManyRequests when nil).
func (l *LoginLimiter) Limit(next http.Handler, onLimit LimitedFunc) http.Handler {
	if onLimit == nil {
		onLimit = TooManyRequests
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ip := clientIP(r)
		if ok, wait := l.limiter.Check(ip); !ok {
			l.logger.Warn("sign-in blocked", "ip", ip, "retry_after", wait)
			setRetryAfter(w, wait)
			onLimit(w, r, wait)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// RecordFailure counts a failed sign-in for the request's client.
func (l *LoginLimiter) RecordFailure(r *http.Request) {
	l.limiter.RecordFailure(clientIP(r))
}

// Reset clears the request's client after a successful sign-in.
func (l *LoginLimiter) Reset(r *http.Request) {
	l.limiter.Reset(clientIP(r))
}

// clientIP prefers the first X-Forwarded-For hop, then X-Real-IP, then the
// connection's address.
func clientIP(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		first, _, _ := strings.Cut(xff, ",")
		if ip := strings.TrimSpace(first); ip != "" {
			return ip
		}
	}
	if xri := strings.TrimSpace(r.Header.Get("X-Real-IP")); xri != "" {
		return xri
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
