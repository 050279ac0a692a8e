package middleware

import (
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"
)

// Idle limiters are evicted once the pool grows past this size.
const (
	limiterPoolHighWater = 1024
	limiterIdleEviction  = 10 * time.Minute
)

type ipLimiter struct {
	lim      *rate.Limiter
	lastSeen time.Time
}

// limiterPool holds one token bucket per client IP. Eviction is
// piggybacked on lookups instead of a background goroutine, so the
// pool needs no shutdown hook.
type limiterPool struct {
	mu    sync.Mutex
	perIP map[string]*ipLimiter
	r     rate.Limit
	b     int
}

func (p *limiterPool) get(ip string) *rate.Limiter {
	p.mu.Lock()
	defer p.mu.Unlock()

	now := time.Now()
	if len(p.perIP) > limiterPoolHighWater {
		for k, v := range p.perIP {
			if now.Sub(v.lastSeen) > limiterIdleEviction {
				delete(p.perIP, k)
			}
		}
	}

	e, ok := p.perIP[ip]
	if !ok {
		e = &ipLimiter{lim: rate.NewLimiter(p.r, p.b)}
		p.perIP[ip] = e
	}
	e.lastSeen = now
	return e.lim
}

// RateLimit applies a per-client-IP token bucket.
// r is the sustained rate in requests per second, b the burst size.
func RateLimit(r rate.Limit, b int) gin.HandlerFunc {
	pool := &limiterPool{perIP: make(map[string]*ipLimiter), r: r, b: b}
	return func(c *gin.Context) {
		if !pool.get(c.ClientIP()).Allow() {
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{"error": "too many requests"})
			return
		}
		c.Next()
	}
}
