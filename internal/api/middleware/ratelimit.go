package middleware

import (
	"context"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"

	"github.com/mpiyush15/pixels-official-sub001/internal/config"
)

type clientLimiter struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// RateLimiterMiddleware keeps one token bucket per client and route group.
type RateLimiterMiddleware struct {
	clients map[string]*clientLimiter
	mu      sync.Mutex
	cfg     *config.Config
	idleTTL time.Duration
}

// NewRateLimiterMiddleware starts a cleanup loop that runs until ctx is done.
func NewRateLimiterMiddleware(ctx context.Context, cfg *config.Config) *RateLimiterMiddleware {
	rm := &RateLimiterMiddleware{
		clients: make(map[string]*clientLimiter),
		cfg:     cfg,
		idleTTL: 30 * time.Minute,
	}
	go rm.cleanupLoop(ctx, 10*time.Minute)
	return rm
}

// clientIdentifier prefers the signed-in actor over the address.
func clientIdentifier(c *gin.Context) string {
	if id := ActorID(c); id != "" {
		return string(ActorKind(c)) + ":" + id
	}
	return "ip:" + c.ClientIP()
}

func (rm *RateLimiterMiddleware) getClientLimiter(key string, refill, burst int) *clientLimiter {
	rm.mu.Lock()
	defer rm.mu.Unlock()

	cl, ok := rm.clients[key]
	if !ok {
		cl = &clientLimiter{limiter: rate.NewLimiter(rate.Limit(refill), burst)}
		rm.clients[key] = cl
	}
	cl.lastSeen = time.Now()
	return cl
}

func (rm *RateLimiterMiddleware) cleanupLoop(ctx context.Context, every time.Duration) {
	ticker := time.NewTicker(every)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n := rm.cleanup(time.Now()); n > 0 {
				slog.Debug("rate limiter cleanup", "removed", n)
			}
		}
	}
}

func (rm *RateLimiterMiddleware) cleanup(now time.Time) int {
	rm.mu.Lock()
	defer rm.mu.Unlock()
	removed := 0
	for id, cl := range rm.clients {
		if now.Sub(cl.lastSeen) > rm.idleTTL {
			delete(rm.clients, id)
			removed++
		}
	}
	return removed
}

// Limit applies the configured default bucket.
func (rm *RateLimiterMiddleware) Limit() gin.HandlerFunc {
	return rm.LimitWith("default", rm.cfg.RateLimitRefillRate, rm.cfg.RateLimitBucketSize)
}

// LimitWith applies a separate bucket for a route group, e.g. payments.
func (rm *RateLimiterMiddleware) LimitWith(group string, refill, burst int) gin.HandlerFunc {
	return func(c *gin.Context) {
		key := group + "|" + clientIdentifier(c)
		if !rm.getClientLimiter(key, refill, burst).limiter.Allow() {
			GetLoggerFromContext(c).Warn("rate limit exceeded", "client", key)
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{"success": false, "error": "Rate limit exceeded"})
			return
		}
		c.Next()
	}
}
