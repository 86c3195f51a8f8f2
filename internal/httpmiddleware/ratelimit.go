package httpmiddleware

import (
	"math"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/gin-gonic/gin"

	"campus/internal/metrics"
)

// idleAfter is how long an untouched bucket is kept before it is swept.
const idleAfter = 10 * time.Minute

// Limiter is an in-memory per-client token bucket for public write endpoints.
// Each process keeps its own buckets, so limits are per instance.
type Limiter struct {
	burst     float64
	perSecond float64

	mu        sync.Mutex
	buckets   map[string]*bucket
	lastSweep time.Time
	now       func() time.Time
}

type bucket struct {
	tokens float64
	seen   time.Time
}

// NewLimiter allows burst requests at once and refills perMinute tokens a minute.
// A non-positive burst defaults to perMinute.
func NewLimiter(burst, perMinute int) *Limiter {
	if burst <= 0 {
		burst = perMinute
	}
	return &Limiter{
		burst:     float64(burst),
		perSecond: float64(perMinute) / 60,
		buckets:   make(map[string]*bucket),
		now:       time.Now,
	}
}

// GinMiddleware keys buckets by ClientIP and the matched route.
// A non-positive rate disables limiting.
func (l *Limiter) GinMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		if l.perSecond <= 0 {
			c.Next()
			return
		}
		route := c.FullPath()
		wait, ok := l.take(ClientIP(c.Request) + " " + route)
		if !ok {
			metrics.RateLimited.WithLabelValues(route).Inc()
			c.Header("Retry-After", strconv.Itoa(int(math.Ceil(wait.Seconds()))))
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{"success": false, "message": "too many requests"})
			return
		}
		c.Next()
	}
}

// take spends one token, or reports how long until one is available.
func (l *Limiter) take(key string) (time.Duration, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	l.sweep(now)

	b, ok := l.buckets[key]
	if !ok {
		b = &bucket{tokens: l.burst, seen: now}
		l.buckets[key] = b
	}
	b.tokens = math.Min(l.burst, b.tokens+now.Sub(b.seen).Seconds()*l.perSecond)
	b.seen = now

	if b.tokens < 1 {
		return time.Duration((1 - b.tokens) / l.perSecond * float64(time.Second)), false
	}
	b.tokens--
	return 0, true
}

func (l *Limiter) sweep(now time.Time) {
	if now.Sub(l.lastSweep) < idleAfter {
		return
	}
	for k, b := range l.buckets {
		if now.Sub(b.seen) >= idleAfter {
			delete(l.buckets, k)
		}
	}
	l.lastSweep = now
}
