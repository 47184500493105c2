package middleware

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/labstack/echo/v4"
	"golang.org/x/time/rate"
)

// RateLimitConfig sets the per-key token bucket.
type RateLimitConfig struct {
	// Every is the refill interval of one token.
	Every time.Duration
	// Burst is the bucket size.
	Burst int
	// IdleTTL drops limiters unused for this long on Sweep.
	IdleTTL time.Duration
}

// DefaultRateLimitConfig allows 2 chat turns per second with bursts of 10.
func DefaultRateLimitConfig() RateLimitConfig {
	return RateLimitConfig{
		Every:   500 * time.Millisecond,
		Burst:   10,
		IdleTTL: 30 * time.Minute,
	}
}

type keyedLimiter struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// RateLimiter keeps one token bucket per key (session id or client IP).
type RateLimiter struct {
	mu     sync.Mutex
	cfg    RateLimitConfig
	limits map[string]*keyedLimiter
	now    func() time.Time
}

// NewRateLimiter creates a rate limiter.
func NewRateLimiter(cfg RateLimitConfig) *RateLimiter {
	if cfg.Every <= 0 || cfg.Burst <= 0 {
		def := DefaultRateLimitConfig()
		cfg.Every, cfg.Burst = def.Every, def.Burst
	}
	return &RateLimiter{
		cfg:    cfg,
		limits: make(map[string]*keyedLimiter),
		now:    time.Now,
	}
}

// getLimiter gets or creates a limiter for the given key.
func (rl *RateLimiter) getLimiter(key string) *rate.Limiter {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	if kl, ok := rl.limits[key]; ok {
		kl.lastSeen = rl.now()
		return kl.limiter
	}

	kl := &keyedLimiter{
		limiter:  rate.NewLimiter(rate.Every(rl.cfg.Every), rl.cfg.Burst),
		lastSeen: rl.now(),
	}
	rl.limits[key] = kl
	return kl.limiter
}

// Allow checks if a request is allowed for the given key.
func (rl *RateLimiter) Allow(key string) bool {
	return rl.getLimiter(key).Allow()
}

// Wait waits for a request to be allowed.
// Returns error if the context is cancelled or rate limit exceeded.
func (rl *RateLimiter) Wait(ctx context.Context, key string) error {
	return rl.getLimiter(key).Wait(ctx)
}

// Sweep drops limiters idle longer than IdleTTL and returns how many went.
func (rl *RateLimiter) Sweep() int {
	if rl.cfg.IdleTTL <= 0 {
		return 0
	}
	rl.mu.Lock()
	defer rl.mu.Unlock()

	cutoff := rl.now().Add(-rl.cfg.IdleTTL)
	removed := 0
	for key, kl := range rl.limits {
		if kl.lastSeen.Before(cutoff) {
			delete(rl.limits, key)
			removed++
		}
	}
	return removed
}

// Len returns the number of tracked keys.
func (rl *RateLimiter) Len() int {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	return len(rl.limits)
}

// Run sweeps idle limiters every interval until ctx is done.
func (rl *RateLimiter) Run(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			rl.Sweep()
		case <-ctx.Done():
			return
		}
	}
}

// KeyFunc picks the rate limit key for a request.
type KeyFunc func(c echo.Context) string

// RealIPKey keys requests by client address.
func RealIPKey(c echo.Context) string {
	return c.RealIP()
}

// RateLimit rejects requests over the key's budget with 429.
func RateLimit(rl *RateLimiter, key KeyFunc) echo.MiddlewareFunc {
	if key == nil {
		key = RealIPKey
	}
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if !rl.Allow(key(c)) {
				c.Response().Header().Set("Retry-After", "1")
				return c.JSON(http.StatusTooManyRequests, map[string]string{"error": "rate limit exceeded"})
			}
			return next(c)
		}
	}
}
