package middleware

import (
	"math"
	"strconv"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/kylemck03/PANW-take-home/backend/internal/apierror"
	"github.com/kylemck03/PANW-take-home/backend/internal/logger"
	"golang.org/x/time/rate"
)

// RateLimiter provides token bucket rate limiting per IP address
type RateLimiter struct {
	clients map[string]*clientInfo
	mu      sync.Mutex
	limit   rate.Limit // tokens per second
	burst   int
	idle    time.Duration // forget clients idle this long
	name    string        // identifier for logging

	stop     chan struct{}
	stopOnce sync.Once
	done     chan struct{}
}

type clientInfo struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// NewRateLimiter creates a new rate limiter
// perSecond: sustained requests per second per client
// burst: requests a client may make at once
// name: identifier for logging (e.g., "general", "analysis")
func NewRateLimiter(perSecond float64, burst int, name string) *RateLimiter {
	rl := &RateLimiter{
		clients: make(map[string]*clientInfo),
		limit:   rate.Limit(perSecond),
		burst:   burst,
		idle:    3 * time.Minute,
		name:    name,
		stop:    make(chan struct{}),
		done:    make(chan struct{}),
	}

	// Start cleanup goroutine to prevent memory leaks
	go rl.cleanup(time.Minute)

	logger.Default().Debug("rate limiter initialized",
		logger.String("name", name),
		logger.Float64("per_second", perSecond),
		logger.Int("burst", burst),
	)

	return rl
}

// Stop ends the cleanup goroutine and waits for it to exit. Safe to call
// more than once.
func (rl *RateLimiter) Stop() {
	rl.stopOnce.Do(func() { close(rl.stop) })
	<-rl.done
}

// cleanup removes stale entries periodically
func (rl *RateLimiter) cleanup(every time.Duration) {
	defer close(rl.done)
	ticker := time.NewTicker(every)
	defer ticker.Stop()

	for {
		select {
		case <-rl.stop:
			return
		case <-ticker.C:
		}

		rl.mu.Lock()
		now := time.Now()
		cleaned := 0
		for ip, info := range rl.clients {
			if now.Sub(info.lastSeen) > rl.idle {
				delete(rl.clients, ip)
				cleaned++
			}
		}
		remaining := len(rl.clients)
		rl.mu.Unlock()

		if cleaned > 0 {
			logger.Default().Debug("rate limiter cleanup completed",
				logger.String("name", rl.name),
				logger.Int("cleaned", cleaned),
				logger.Int("remaining", remaining),
			)
		}
	}
}

// reserve takes a token for ip. It reports whether the request may proceed
// and, when it may not, how long until a token is available.
func (rl *RateLimiter) reserve(ip string) (bool, time.Duration) {
	rl.mu.Lock()
	info, exists := rl.clients[ip]
	if !exists {
		info = &clientInfo{limiter: rate.NewLimiter(rl.limit, rl.burst)}
		rl.clients[ip] = info
	}
	info.lastSeen = time.Now()
	limiter := info.limiter
	rl.mu.Unlock()

	now := time.Now()
	r := limiter.ReserveN(now, 1)
	if !r.OK() {
		return false, time.Minute
	}
	delay := r.DelayFrom(now)
	if delay == 0 {
		return true, 0
	}
	r.CancelAt(now)
	return false, delay
}

// NewAnalysisRateLimiter returns the stricter limiter for full analysis runs,
// which are the most expensive endpoint
func NewAnalysisRateLimiter() *RateLimiter {
	return NewRateLimiter(1.0/6, 5, "analysis")
}

// Middleware returns a handler that limits requests per client IP.
// The owner calls Stop on shutdown.
func (rl *RateLimiter) Middleware() gin.HandlerFunc {
	return rateLimitMiddleware(rl)
}

func rateLimitMiddleware(limiter *RateLimiter) gin.HandlerFunc {
	return func(c *gin.Context) {
		// Get client IP (handles X-Forwarded-For for reverse proxies)
		ip := c.ClientIP()

		allowed, wait := limiter.reserve(ip)
		if !allowed {
			retryAfter := int(math.Ceil(wait.Seconds()))
			if retryAfter < 1 {
				retryAfter = 1
			}

			logger.Ctx(c.Request.Context()).Warn("rate limit exceeded",
				logger.String("limiter", limiter.name),
				logger.String("client_ip", ip),
				logger.Int("burst", limiter.burst),
				logger.Int("retry_after", retryAfter),
			)

			c.Header("X-RateLimit-Limit", strconv.Itoa(limiter.burst))
			c.Header("X-RateLimit-Remaining", "0")
			apierror.AbortWithProblem(c, apierror.NewRateLimitError(apierror.GetRequestID(c), retryAfter))
			return
		}

		c.Next()
	}
}
