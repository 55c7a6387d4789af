package middleware

import (
	"net/http"
	"strings"
	"sync"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"

	"github.com/yungbote/travel-companion-backend/internal/observability"
	"github.com/yungbote/travel-companion-backend/internal/platform/ctxutil"
)

type RateLimitConfig struct {
	RPS   float64
	Burst int
}

type limiterPool struct {
	mu  sync.Mutex
	m   map[string]*rate.Limiter
	cfg RateLimitConfig
}

func (p *limiterPool) get(key string) *rate.Limiter {
	p.mu.Lock()
	defer p.mu.Unlock()
	if l, ok := p.m[key]; ok {
		return l
	}
	l := rate.NewLimiter(rate.Limit(p.cfg.RPS), p.cfg.Burst)
	p.m[key] = l
	return l
}

// RateLimit is a token bucket per caller: the token subject, else the
// user_id query parameter, else the client IP.
func RateLimit(cfg RateLimitConfig) gin.HandlerFunc {
	if cfg.RPS <= 0 {
		cfg.RPS = 5
	}
	if cfg.Burst <= 0 {
		cfg.Burst = 10
	}
	pool := &limiterPool{m: make(map[string]*rate.Limiter), cfg: cfg}
	return func(c *gin.Context) {
		if !pool.get(rateKey(c)).Allow() {
			route := c.FullPath()
			observability.Current().IncRateLimited(route)
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{
				"error": gin.H{"message": "too many requests", "code": "rate_limited"},
			})
			return
		}
		c.Next()
	}
}

func rateKey(c *gin.Context) string {
	if rd := ctxutil.GetRequestData(c.Request.Context()); rd != nil && rd.Subject != "" {
		return "sub:" + rd.Subject
	}
	if uid := strings.TrimSpace(c.Query("user_id")); uid != "" {
		return "user:" + uid
	}
	return "ip:" + c.ClientIP()
}
