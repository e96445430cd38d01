// internal/app/system/ratelimit/ratelimit.go
package ratelimit

import (
	"net"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// Limiter keeps one token bucket per key (client IP, email).
// It is safe for concurrent use.
type Limiter struct {
	mu       sync.Mutex
	buckets  map[string]*bucket
	limit    rate.Limit
	burst    int
	idleTTL  time.Duration
	now      func() time.Time
	stopOnce sync.Once
	stop     chan struct{}
}

type bucket struct {
	lim      *rate.Limiter
	lastSeen time.Time
}

// New allows up to n requests per period per key, refilled evenly.
// Buckets idle for longer than two periods are evicted.
func New(n int, period time.Duration) *Limiter {
	if n < 1 {
		n = 1
	}
	l := &Limiter{
		buckets: make(map[string]*bucket),
		limit:   rate.Every(period / time.Duration(n)),
		burst:   n,
		idleTTL: 2 * period,
		now:     time.Now,
		stop:    make(chan struct{}),
	}
	go l.cleanupLoop()
	return l
}

// Allow reports whether a request for key may proceed, consuming a token.
func (l *Limiter) Allow(key string) bool {
	return l.get(key).AllowN(l.now(), 1)
}

// Remaining returns the whole tokens currently available for key.
func (l *Limiter) Remaining(key string) int {
	n := int(l.get(key).TokensAt(l.now()))
	if n < 0 {
		return 0
	}
	return n
}

// Reset forgets key, restoring a full bucket.
func (l *Limiter) Reset(key string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	delete(l.buckets, key)
}

// Stop ends the eviction goroutine.
func (l *Limiter) Stop() {
	l.stopOnce.Do(func() { close(l.stop) })
}

func (l *Limiter) get(key string) *rate.Limiter {
	l.mu.Lock()
	defer l.mu.Unlock()

	b, ok := l.buckets[key]
	if !ok {
		b = &bucket{lim: rate.NewLimiter(l.limit, l.burst)}
		l.buckets[key] = b
	}
	b.lastSeen = l.now()
	return b.lim
}

func (l *Limiter) cleanupLoop() {
	ticker := time.NewTicker(l.idleTTL)
	defer ticker.Stop()

	for {
		select {
		case <-l.stop:
			return
		case <-ticker.C:
			l.evictIdle()
		}
	}
}

func (l *Limiter) evictIdle() {
	l.mu.Lock()
	defer l.mu.Unlock()
	cutoff := l.now().Add(-l.idleTTL)
	for key, b := range l.buckets {
		if b.lastSeen.Before(cutoff) {
			delete(l.buckets, key)
		}
	}
}

// Middleware rejects requests over the per-IP limit with 429 and a JSON body.
// Allowed requests carry the remaining budget in X-RateLimit-Remaining.
func (l *Limiter) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ip := ClientIP(r)
		if !l.Allow(ip) {
			w.Header().Set("Content-Type", "application/json; charset=utf-8")
			w.Header().Set("Retry-After", "60")
			w.WriteHeader(http.StatusTooManyRequests)
			_, _ = w.Write([]byte(`{"message":"Too many requests. Please try again later."}`))
			return
		}
		w.Header().Set("X-RateLimit-Remaining", strconv.Itoa(l.Remaining(ip)))
		next.ServeHTTP(w, r)
	})
}

// ClientIP extracts the client IP from an HTTP request.
// It checks X-Forwarded-For and X-Real-IP headers first (for proxied requests),
// then falls back to RemoteAddr.
func ClientIP(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		if ip := strings.TrimSpace(strings.Split(xff, ",")[0]); ip != "" {
			return ip
		}
	}
	if xri := r.Header.Get("X-Real-IP"); xri != "" {
		return strings.TrimSpace(xri)
	}
	ip, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return ip
}

// LoginLimiter tracks both a per-IP and a per-email budget so neither a
// single client nor a spread of clients can hammer one account.
type LoginLimiter struct {
	ipLimiter    *Limiter
	emailLimiter *Limiter
}

// NewLoginLimiter allows perMinute attempts per IP and a fifth of that
// (minimum 3) per email over five minutes.
func NewLoginLimiter(perMinute int) *LoginLimiter {
	perEmail := perMinute / 5
	if perEmail < 3 {
		perEmail = 3
	}
	return &LoginLimiter{
		ipLimiter:    New(perMinute, time.Minute),
		emailLimiter: New(perEmail, 5*time.Minute),
	}
}

// Check reports whether a login attempt may proceed, and the message to
// return when it may not.
func (ll *LoginLimiter) Check(r *http.Request, email string) (bool, string) {
	if !ll.ipLimiter.Allow(ClientIP(r)) {
		return false, "Too many login attempts. Please wait a minute before trying again."
	}
	if key := strings.ToLower(strings.TrimSpace(email)); key != "" {
		if !ll.emailLimiter.Allow(key) {
			return false, "Too many login attempts for this account. Please wait a few minutes."
		}
	}
	return true, ""
}

// ResetEmail clears the per-email budget after a successful login.
func (ll *LoginLimiter) ResetEmail(email string) {
	if key := strings.ToLower(strings.TrimSpace(email)); key != "" {
		ll.emailLimiter.Reset(key)
	}
}

// Middleware applies the per-IP budget only.
func (ll *LoginLimiter) Middleware(next http.Handler) http.Handler {
	return ll.ipLimiter.Middleware(next)
}

// Stop ends both eviction goroutines.
func (ll *LoginLimiter) Stop() {
	ll.ipLimiter.Stop()
	ll.emailLimiter.Stop()
}
