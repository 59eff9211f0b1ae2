package gateway

import (
	"net"
	"net/http"
	"sync"

	"shareit/internal/config"

	"golang.org/x/time/rate"
)

// userLimiter keeps one token bucket per caller, keyed by the sharer
// header when present and the remote host otherwise.
type userLimiter struct {
	limiters sync.Map
	cfg      config.RateLimitConfig
}

func newUserLimiter(cfg config.RateLimitConfig) *userLimiter {
	return &userLimiter{cfg: cfg}
}

func (l *userLimiter) allow(r *http.Request) bool {
	if l.cfg.RPS <= 0 {
		return true
	}
	return l.getLimiter(clientKey(r)).Allow()
}

func clientKey(r *http.Request) string {
	if userID := r.Header.Get(userIDHeader); userID != "" {
		return userID
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err == nil && host != "" {
		return host
	}
	return "unknown"
}

func (l *userLimiter) getLimiter(key string) *rate.Limiter {
	if v, ok := l.limiters.Load(key); ok {
		return v.(*rate.Limiter)
	}

	burst := l.cfg.Burst
	if burst <= 0 {
		burst = 5
	}

	lim := rate.NewLimiter(rate.Limit(l.cfg.RPS), burst)
	actual, loaded := l.limiters.LoadOrStore(key, lim)
	if loaded {
		return actual.(*rate.Limiter)
	}
	return lim
}
