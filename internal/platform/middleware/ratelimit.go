package middleware

import (
	"math"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/labstack/echo/v4"
	"golang.org/x/time/rate"
)

// RateLimitConfig holds rate limiting configuration. Every plot request reads
// three worksheets, so the limit mostly guards the Sheets API quota.
type RateLimitConfig struct {
	RequestsPerSecond float64
	BurstSize         int
}

// DefaultRateLimitConfig returns default rate limiting settings.
func DefaultRateLimitConfig() RateLimitConfig {
	return RateLimitConfig{
		RequestsPerSecond: 2,
		BurstSize:         5,
	}
}

const (
	limiterIdleTTL   = 10 * time.Minute
	limiterSweepSize = 1024
)

type clientLimiter struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// limiterStore holds one limiter per client key.
type limiterStore struct {
	mu       sync.Mutex
	limiters map[string]*clientLimiter
	config   RateLimitConfig
	now      func() time.Time
}

func newLimiterStore(cfg RateLimitConfig) *limiterStore {
	return &limiterStore{
		limiters: make(map[string]*clientLimiter),
		config:   cfg,
		now:      time.Now,
	}
}

func (s *limiterStore) get(key string) *rate.Limiter {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	if cl, ok := s.limiters[key]; ok {
		cl.lastSeen = now
		return cl.limiter
	}

	if len(s.limiters) >= limiterSweepSize {
		s.sweep(now)
	}
	cl := &clientLimiter{
		limiter:  rate.NewLimiter(rate.Limit(s.config.RequestsPerSecond), s.config.BurstSize),
		lastSeen: now,
	}
	s.limiters[key] = cl
	return cl.limiter
}

// sweep drops limiters idle for longer than limiterIdleTTL. Callers hold mu.
func (s *limiterStore) sweep(now time.Time) {
	for k, cl := range s.limiters {
		if now.Sub(cl.lastSeen) > limiterIdleTTL {
			delete(s.limiters, k)
		}
	}
}

// retryAfter returns whole seconds until lim grants another token.
func retryAfter(lim *rate.Limiter) int {
	r := lim.Reserve()
	defer r.Cancel()
	if !r.OK() {
		return 1
	}
	secs := int(math.Ceil(r.Delay().Seconds()))
	if secs < 1 {
		return 1
	}
	return secs
}

// RateLimit returns a per client IP rate limiting middleware.
func RateLimit(cfg RateLimitConfig) echo.MiddlewareFunc {
	store := newLimiterStore(cfg)
	limit := strconv.FormatFloat(cfg.RequestsPerSecond, 'f', -1, 64)

	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			lim := store.get(c.RealIP())
			h := c.Response().Header()
			h.Set("X-RateLimit-Limit", limit)

			if !lim.Allow() {
				h.Set("Retry-After", strconv.Itoa(retryAfter(lim)))
				h.Set("X-RateLimit-Remaining", "0")
				return echo.NewHTTPError(http.StatusTooManyRequests, "rate limit exceeded")
			}
			return next(c)
		}
	}
}
