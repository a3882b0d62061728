package middleware

import (
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"

	"lecture-qa/internal/transport/http/response"
)

const idleLimiterTTL = 10 * time.Minute

// ClientLimiter keeps one token bucket per client key.
type ClientLimiter struct {
	mu       sync.Mutex
	limit    rate.Limit
	burst    int
	clients  map[string]*clientBucket
	lastSwept time.Time
}

type clientBucket struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

func NewClientLimiter(perSecond float64, burst int) *ClientLimiter {
	if burst <= 0 {
		burst = 1
	}
	return &ClientLimiter{
		limit:    rate.Limit(perSecond),
		burst:    burst,
		clients:  make(map[string]*clientBucket),
		lastSwept: time.Now(),
	}
}

func (l *ClientLimiter) Allow(key string) bool {
	now := time.Now()

	l.mu.Lock()
	defer l.mu.Unlock()

	if now.Sub(l.lastSwept) > idleLimiterTTL {
		for k, b := range l.clients {
			if now.Sub(b.lastSeen) > idleLimiterTTL {
				delete(l.clients, k)
			}
		}
		l.lastSwept = now
	}

	b, ok := l.clients[key]
	if !ok {
		b = &clientBucket{limiter: rate.NewLimiter(l.limit, l.burst)}
		l.clients[key] = b
	}
	b.lastSeen = now
	return b.limiter.AllowN(now, 1)
}

// RateLimit keys on the session when one is attached, else on the client IP.
// A non-positive rate disables limiting.
func RateLimit(limiter *ClientLimiter) gin.HandlerFunc {
	return func(c *gin.Context) {
		if limiter == nil || limiter.limit <= 0 {
			c.Next()
			return
		}
		key := SessionID(c)
		if key == "" {
			key = c.ClientIP()
		}
		if !limiter.Allow(key) {
			response.Abort(c, http.StatusTooManyRequests, response.CodeTooManyRequests, "too many questions, slow down")
			return
		}
		c.Next()
	}
}
