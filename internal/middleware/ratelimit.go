package middleware

import (
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"
)

// RateLimitConfig defines rate limiting configuration
type RateLimitConfig struct {
	// Enabled determines if rate limiting is active
	Enabled bool

	// RequestsPerSecond defines requests per second per client IP
	RequestsPerSecond float64

	// Burst defines how many tokens can be consumed in a burst
	Burst int

	// ExcludedPaths defines path prefixes to exclude from rate limiting
	ExcludedPaths []string
}

// DefaultRateLimitConfig returns default rate limit configuration
func DefaultRateLimitConfig() *RateLimitConfig {
	return &RateLimitConfig{
		Enabled:           true,
		RequestsPerSecond: 10,
		Burst:             20,
	}
}

// visitor holds a rate limiter for a single client IP
type visitor struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// RateLimiter applies per-IP token bucket rate limiting. Stale limiters
// are evicted in the background so the map does not grow without bound.
type RateLimiter struct {
	cfg      *RateLimitConfig
	visitors map[string]*visitor
	mu       sync.Mutex
	done     chan struct{}
}

// NewRateLimiter creates a rate limiter and starts its eviction loop
func NewRateLimiter(cfg *RateLimitConfig) *RateLimiter {
	if cfg == nil {
		cfg = DefaultRateLimitConfig()
	}

	rl := &RateLimiter{
		cfg:      cfg,
		visitors: make(map[string]*visitor),
		done:     make(chan struct{}),
	}

	go rl.cleanup()
	return rl
}

// Enabled reports whether rate limiting is active; the compliance
// auditor reads this.
func (rl *RateLimiter) Enabled() bool {
	return rl.cfg.Enabled
}

// Close stops the eviction loop
func (rl *RateLimiter) Close() {
	close(rl.done)
}

// Limit returns the rate limiting middleware
func (rl *RateLimiter) Limit() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !rl.cfg.Enabled || rl.excluded(c.Request.URL.Path) {
			c.Next()
			return
		}

		if !rl.allow(ClientIP(c)) {
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{
				"error": "Rate limit exceeded",
			})
			return
		}

		c.Next()
	}
}

// allow checks and consumes one token for the given key
func (rl *RateLimiter) allow(key string) bool {
	rl.mu.Lock()
	v, exists := rl.visitors[key]
	if !exists {
		v = &visitor{
			limiter: rate.NewLimiter(rate.Limit(rl.cfg.RequestsPerSecond), rl.cfg.Burst),
		}
		rl.visitors[key] = v
	}
	v.lastSeen = time.Now()
	rl.mu.Unlock()

	return v.limiter.Allow()
}

// excluded reports whether the path is exempt from limiting
func (rl *RateLimiter) excluded(path string) bool {
	for _, prefix := range rl.cfg.ExcludedPaths {
		if prefix != "" && len(path) >= len(prefix) && path[:len(prefix)] == prefix {
			return true
		}
	}
	return false
}

// cleanup periodically removes limiters that have not been seen recently
func (rl *RateLimiter) cleanup() {
	ticker := time.NewTicker(10 * time.Minute)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			rl.mu.Lock()
			for k, v := range rl.visitors {
				if time.Since(v.lastSeen) > time.Hour {
					delete(rl.visitors, k)
				}
			}
			rl.mu.Unlock()
		case <-rl.done:
			return
		}
	}
}
