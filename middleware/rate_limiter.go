// middleware/rate_limiter.go
package middleware

import (
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/HSouheill/homeservices_backend/models"
	"github.com/labstack/echo/v4"
	"golang.org/x/time/rate"
)

type endpointLimit struct {
	limit rate.Limit
	burst int
}

// RateLimiter throttles callers per IP, with tighter limits on the write
// endpoints of the dispatch flow. An IP that exceeds its limit is blocked for
// blockDuration.
type RateLimiter struct {
	ips            map[string]*rate.Limiter
	blockedIPs     map[string]time.Time
	mu             sync.Mutex
	defaultLimit   rate.Limit
	defaultBurst   int
	blockDuration  time.Duration
	endpointLimits map[string]endpointLimit
	stop           chan struct{}
	stopOnce       sync.Once
}

func NewRateLimiter() *RateLimiter {
	limiter := &RateLimiter{
		ips:           make(map[string]*rate.Limiter),
		blockedIPs:    make(map[string]time.Time),
		defaultLimit:  rate.Every(100 * time.Millisecond),
		defaultBurst:  20,
		blockDuration: 5 * time.Minute,
		endpointLimits: map[string]endpointLimit{
			// request creation fans out to providers
			"/api/requests": {limit: rate.Every(2 * time.Second), burst: 5},
			// providers race on accept, keep it generous
			"/api/requests/:id/accept": {limit: rate.Every(50 * time.Millisecond), burst: 20},
		},
		stop: make(chan struct{}),
	}

	go limiter.cleanupBlockedIPs(time.Hour)

	return limiter
}

func (r *RateLimiter) cleanupBlockedIPs(every time.Duration) {
	ticker := time.NewTicker(every)
	defer ticker.Stop()
	for {
		select {
		case <-r.stop:
			return
		case now := <-ticker.C:
			r.mu.Lock()
			for ip, blockUntil := range r.blockedIPs {
				if now.After(blockUntil) {
					r.resetLocked(ip)
				}
			}
			r.mu.Unlock()
		}
	}
}

// Stop ends the cleanup loop.
func (r *RateLimiter) Stop() {
	r.stopOnce.Do(func() { close(r.stop) })
}

func (r *RateLimiter) RateLimit() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			ip := c.RealIP()

			r.mu.Lock()
			if blockUntil, blocked := r.blockedIPs[ip]; blocked {
				if time.Now().Before(blockUntil) {
					r.mu.Unlock()
					return tooManyRequests(c, "IP address blocked due to too many requests", blockUntil)
				}
				r.resetLocked(ip)
			}
			r.mu.Unlock()

			limit, burst := r.defaultLimit, r.defaultBurst
			if c.Request().Method != http.MethodGet {
				if l, ok := r.endpointLimits[c.Path()]; ok {
					limit, burst = l.limit, l.burst
				}
			}

			if !r.getLimiter(ip+" "+c.Path(), limit, burst).Allow() {
				until := time.Now().Add(r.blockDuration)
				r.mu.Lock()
				r.blockedIPs[ip] = until
				r.mu.Unlock()
				return tooManyRequests(c, "Too many requests", until)
			}

			return next(c)
		}
	}
}

// resetLocked forgets the block and every limiter held for ip.
func (r *RateLimiter) resetLocked(ip string) {
	delete(r.blockedIPs, ip)
	prefix := ip + " "
	for key := range r.ips {
		if strings.HasPrefix(key, prefix) {
			delete(r.ips, key)
		}
	}
}

func (r *RateLimiter) getLimiter(key string, limit rate.Limit, burst int) *rate.Limiter {
	r.mu.Lock()
	defer r.mu.Unlock()

	limiter, exists := r.ips[key]
	if !exists {
		limiter = rate.NewLimiter(limit, burst)
		r.ips[key] = limiter
	}
	return limiter
}

func tooManyRequests(c echo.Context, message string, until time.Time) error {
	return c.JSON(http.StatusTooManyRequests, models.Response{
		Status:  http.StatusTooManyRequests,
		Message: message,
		Data:    map[string]string{"retryAfter": until.Format(time.RFC3339)},
	})
}
