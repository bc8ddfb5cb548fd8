package httpmiddleware

import (
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"
)

// KeyFunc picks the bucket a request is charged to.
type KeyFunc func(c *gin.Context) string

// ByIP charges requests to the client IP.
func ByIP(c *gin.Context) string {
	if ip := c.ClientIP(); ip != "" {
		return ip
	}
	return "unknown"
}

// TokenBucket is an in-memory per-key rate limiter. Each API instance keeps its own buckets.
type TokenBucket struct {
	perMinute int
	burst     int
	mu        sync.Mutex
	state     map[string]*visitor
	now       func() time.Time
}

type visitor struct {
	limiter *rate.Limiter
	seen    time.Time
}

// NewTokenBucket creates a limiter refilling perMinute tokens with the given burst.
func NewTokenBucket(perMinute, burst int) *TokenBucket {
	if burst <= 0 {
		burst = perMinute
	}
	return &TokenBucket{
		perMinute: perMinute,
		burst:     burst,
		state:     make(map[string]*visitor),
		now:       time.Now,
	}
}

// GinMiddleware returns a gin handler enforcing the limit per key.
func (l *TokenBucket) GinMiddleware(key KeyFunc) gin.HandlerFunc {
	if key == nil {
		key = ByIP
	}
	return func(c *gin.Context) {
		if l.perMinute <= 0 {
			c.Next()
			return
		}
		if !l.allow(key(c)) {
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{"error": "rate limit"})
			return
		}
		c.Next()
	}
}

func (l *TokenBucket) allow(key string) bool {
	now := l.now()
	l.mu.Lock()
	v, ok := l.state[key]
	if !ok {
		v = &visitor{limiter: rate.NewLimiter(rate.Limit(float64(l.perMinute)/60), l.burst)}
		l.state[key] = v
	}
	v.seen = now
	l.mu.Unlock()
	return v.limiter.AllowN(now, 1)
}

// Sweep forgets keys idle for longer than idle and returns how many were dropped.
func (l *TokenBucket) Sweep(idle time.Duration) int {
	cutoff := l.now().Add(-idle)
	l.mu.Lock()
	defer l.mu.Unlock()
	dropped := 0
	for k, v := range l.state {
		if v.seen.Before(cutoff) {
			delete(l.state, k)
			dropped++
		}
	}
	return dropped
}
