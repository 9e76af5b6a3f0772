package httpmiddleware

import (
	"context"
	"net"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/go-faster/sdk/zctx"
	"go.uber.org/zap"
)

// RateLimitConfig controls the per-client request rate limiter.
type RateLimitConfig struct {
	// Requests allowed per Window. Zero disables the limiter.
	Requests int
	Window   time.Duration
	// KeyFunc extracts the client key from a request. Defaults to the
	// client IP, honoring X-Forwarded-For.
	KeyFunc func(r *http.Request) string
	// CleanupInterval between sweeps of idle client buckets.
	CleanupInterval time.Duration
}

type clientWindow struct {
	mu     sync.Mutex
	stamps []time.Time
}

type rateLimiter struct {
	cfg RateLimitConfig

	mu      sync.RWMutex
	clients map[string]*clientWindow
}

func newRateLimiter(cfg RateLimitConfig) *rateLimiter {
	if cfg.Window <= 0 {
		cfg.Window = time.Minute
	}
	if cfg.CleanupInterval <= 0 {
		cfg.CleanupInterval = cfg.Window
	}
	if cfg.KeyFunc == nil {
		cfg.KeyFunc = clientIP
	}
	return &rateLimiter{
		cfg:     cfg,
		clients: make(map[string]*clientWindow),
	}
}

// allow records a request for key and reports whether it fits inside the
// sliding window, along with the remaining budget.
func (l *rateLimiter) allow(key string, now time.Time) (ok bool, remaining int) {
	l.mu.RLock()
	cw := l.clients[key]
	l.mu.RUnlock()
	if cw == nil {
		l.mu.Lock()
		cw = l.clients[key]
		if cw == nil {
			cw = &clientWindow{}
			l.clients[key] = cw
		}
		l.mu.Unlock()
	}

	cutoff := now.Add(-l.cfg.Window)

	cw.mu.Lock()
	defer cw.mu.Unlock()

	kept := cw.stamps[:0]
	for _, ts := range cw.stamps {
		if ts.After(cutoff) {
			kept = append(kept, ts)
		}
	}
	cw.stamps = kept

	if len(cw.stamps) >= l.cfg.Requests {
		return false, 0
	}
	cw.stamps = append(cw.stamps, now)
	return true, l.cfg.Requests - len(cw.stamps)
}

// cleanup removes buckets whose newest request fell out of the window.
func (l *rateLimiter) cleanup(now time.Time) {
	cutoff := now.Add(-l.cfg.Window)

	l.mu.Lock()
	defer l.mu.Unlock()
	for key, cw := range l.clients {
		cw.mu.Lock()
		idle := len(cw.stamps) == 0 || !cw.stamps[len(cw.stamps)-1].After(cutoff)
		cw.mu.Unlock()
		if idle {
			delete(l.clients, key)
		}
	}
}

func (l *rateLimiter) runCleanup(ctx context.Context) {
	ticker := time.NewTicker(l.cfg.CleanupInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			l.cleanup(now)
		}
	}
}

// RateLimit returns a sliding-window rate limiting middleware. The cleanup
// goroutine stops when ctx is cancelled. A zero Requests disables limiting.
func RateLimit(ctx context.Context, cfg RateLimitConfig) Middleware {
	if cfg.Requests <= 0 {
		return func(next http.Handler) http.Handler { return next }
	}

	l := newRateLimiter(cfg)
	go l.runCleanup(ctx)

	limit := strconv.Itoa(cfg.Requests)
	window := strconv.Itoa(int(l.cfg.Window / time.Second))

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			key := l.cfg.KeyFunc(r)
			ok, remaining := l.allow(key, time.Now())

			h := w.Header()
			h.Set("X-RateLimit-Limit", limit)
			h.Set("X-RateLimit-Remaining", strconv.Itoa(remaining))

			if !ok {
				zctx.From(r.Context()).Warn("Rate limit exceeded",
					zap.String("client", key),
					zap.String("path", r.URL.Path),
				)
				h.Set("Retry-After", window)
				http.Error(w, "rate limit exceeded", http.StatusTooManyRequests)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func clientIP(r *http.Request) string {
	if fwd := r.Header.Get("X-Forwarded-For"); fwd != "" {
		first, _, _ := strings.Cut(fwd, ",")
		return strings.TrimSpace(first)
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
