package middleware

import (
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/labstack/echo/v4"
	"golang.org/x/time/rate"
)

// RateLimiter keeps one token bucket per client key. Idle buckets are dropped
// after ttl.
type RateLimiter struct {
	mutex    sync.Mutex
	buckets  map[string]*bucket
	rate     rate.Limit
	burst    int
	ttl      time.Duration
	keyFunc  func(c echo.Context) string
	now      func() time.Time
	lastScan time.Time
}

type bucket struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

func NewRateLimiter(r rate.Limit, burst int, ttl time.Duration) *RateLimiter {
	return &RateLimiter{
		buckets: make(map[string]*bucket),
		rate:    r,
		burst:   burst,
		ttl:     ttl,
		keyFunc: func(c echo.Context) string { return c.RealIP() },
		now:     time.Now,
	}
}

func (l *RateLimiter) Middleware() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			limiter := l.limiterFor(l.keyFunc(c))
			reservation := limiter.ReserveN(l.now(), 1)
			if !reservation.OK() {
				return echo.NewHTTPError(http.StatusTooManyRequests, "too many requests")
			}
			if delay := reservation.DelayFrom(l.now()); delay > 0 {
				reservation.CancelAt(l.now())
				seconds := int(delay.Seconds()) + 1
				c.Response().Header().Set("Retry-After", strconv.Itoa(seconds))
				return echo.NewHTTPError(http.StatusTooManyRequests, "too many requests")
			}
			return next(c)
		}
	}
}

func (l *RateLimiter) limiterFor(key string) *rate.Limiter {
	l.mutex.Lock()
	defer l.mutex.Unlock()

	now := l.now()
	if b, ok := l.buckets[key]; ok {
		b.lastSeen = now
		return b.limiter
	}
	b := &bucket{limiter: rate.NewLimiter(l.rate, l.burst), lastSeen: now}
	l.buckets[key] = b
	l.cleanup(now)
	return b.limiter
}

func (l *RateLimiter) cleanup(now time.Time) {
	if l.ttl == 0 || now.Sub(l.lastScan) < l.ttl {
		return
	}
	l.lastScan = now
	cutoff := now.Add(-l.ttl)
	for key, b := range l.buckets {
		if b.lastSeen.Before(cutoff) {
			delete(l.buckets, key)
		}
	}
}
