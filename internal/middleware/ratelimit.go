package middleware

import (
	"context"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/hongminglow/rideledger/internal/http/respond"
	"github.com/hongminglow/rideledger/internal/logging"
)

const (
	rateWindow      = time.Minute
	staleClientAge  = 10 * time.Minute
	cleanupInterval = 5 * time.Minute
)

// RateLimiter is a fixed-window per-client request counter.
type RateLimiter struct {
	mu      sync.Mutex
	clients map[string]*window
	limit   int
	ips     *IPResolver
	now     func() time.Time
}

type window struct {
	start time.Time
	count int
}

// NewRateLimiter allows perMinute requests per client per minute. Clients are
// keyed by the address ips resolves.
func NewRateLimiter(perMinute int, ips *IPResolver) *RateLimiter {
	return &RateLimiter{clients: map[string]*window{}, limit: perMinute, ips: ips, now: time.Now}
}

// Allow records a request from key and reports whether it is within the limit.
// The second value is how long until the window resets.
func (l *RateLimiter) Allow(key string) (bool, time.Duration) {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	w, ok := l.clients[key]
	if !ok || now.Sub(w.start) >= rateWindow {
		l.clients[key] = &window{start: now, count: 1}
		return true, 0
	}
	w.count++
	return w.count <= l.limit, rateWindow - now.Sub(w.start)
}

// Run evicts idle clients until ctx is cancelled.
func (l *RateLimiter) Run(ctx context.Context) {
	ticker := time.NewTicker(cleanupInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			l.evict()
		}
	}
}

func (l *RateLimiter) evict() {
	l.mu.Lock()
	defer l.mu.Unlock()
	cutoff := l.now().Add(-staleClientAge)
	for key, w := range l.clients {
		if w.start.Before(cutoff) {
			delete(l.clients, key)
		}
	}
}

// Middleware rejects clients over the limit with 429.
func (l *RateLimiter) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ip := l.ips.ClientIP(r)
		ok, retry := l.Allow(ip)
		if !ok {
			logging.FromContext(r.Context()).WithComponent(logging.ComponentRateLimit).WarnContext(r.Context(), "rate limit exceeded",
				logging.FieldClientIP, ip,
				logging.FieldPath, r.URL.Path)
			w.Header().Set("Retry-After", strconv.Itoa(int(retry.Seconds())+1))
			respond.Error(w, http.StatusTooManyRequests, "too many requests")
			return
		}
		next.ServeHTTP(w, r)
	})
}
