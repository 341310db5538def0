package server

import (
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/antibyte/minilang/pkg/logger"
)

type rateWindow struct {
	requests  int
	lastReset time.Time
}

// rateLimiter counts requests per client address in fixed one minute windows.
type rateLimiter struct {
	limit   int
	window  time.Duration
	now     func() time.Time
	mu      sync.Mutex
	clients map[string]*rateWindow
}

func newRateLimiter(perMinute int) *rateLimiter {
	return &rateLimiter{
		limit:   perMinute,
		window:  time.Minute,
		now:     time.Now,
		clients: make(map[string]*rateWindow),
	}
}

// allow records one request from addr and reports whether it is within the limit.
// A limit <= 0 disables limiting.
func (rl *rateLimiter) allow(addr string) bool {
	if rl == nil || rl.limit <= 0 {
		return true
	}

	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := rl.now()
	w, ok := rl.clients[addr]
	if !ok || now.Sub(w.lastReset) > rl.window {
		// Drop stale windows.
		if len(rl.clients) > 1024 {
			for key, old := range rl.clients {
				if now.Sub(old.lastReset) > rl.window {
					delete(rl.clients, key)
				}
			}
		}
		w = &rateWindow{lastReset: now}
		rl.clients[addr] = w
	}

	w.requests++
	if w.requests > rl.limit {
		if w.requests == rl.limit+1 {
			logger.SecurityWarn("Rate limit exceeded for %s: %d requests in the last minute", addr, w.requests)
		}
		return false
	}
	return true
}

// clientAddr returns the host part of the request origin.
func clientAddr(r *http.Request) string {
	if forwarded := r.Header.Get("X-Forwarded-For"); forwarded != "" {
		return forwarded
	}
	if realIP := r.Header.Get("X-Real-IP"); realIP != "" {
		return realIP
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

func (s *Server) limit(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if !s.limiter.allow(clientAddr(r)) {
			writeError(w, http.StatusTooManyRequests, "rate limit exceeded")
			return
		}
		next(w, r)
	}
}
