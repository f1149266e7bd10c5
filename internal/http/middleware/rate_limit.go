package middleware

import (
	"math"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	lru "github.com/hashicorp/golang-lru/v2"
	"golang.org/x/time/rate"

	"github.com/yungbote/competency-advisor/internal/pkg/ctxutil"
)

type RateLimitConfig struct {
	PerMinute float64
	Burst     int
	// MaxKeys bounds the number of tracked callers; the least recently
	// seen caller's bucket is dropped first.
	MaxKeys int
}

// RateLimiter hands out one token bucket per caller: the employee id when
// authenticated, else the client IP.
type RateLimiter struct {
	limit   rate.Limit
	burst   int
	buckets *lru.Cache[string, *rate.Limiter]
}

func NewRateLimiter(cfg RateLimitConfig) (*RateLimiter, error) {
	if cfg.MaxKeys <= 0 {
		cfg.MaxKeys = 10000
	}
	if cfg.Burst <= 0 {
		cfg.Burst = 1
	}
	buckets, err := lru.New[string, *rate.Limiter](cfg.MaxKeys)
	if err != nil {
		return nil, err
	}
	limit := rate.Inf
	if cfg.PerMinute > 0 {
		limit = rate.Limit(cfg.PerMinute / 60)
	}
	return &RateLimiter{limit: limit, burst: cfg.Burst, buckets: buckets}, nil
}

func (rl *RateLimiter) bucket(key string) *rate.Limiter {
	if l, ok := rl.buckets.Get(key); ok {
		return l
	}
	l := rate.NewLimiter(rl.limit, rl.burst)
	if prev, ok, _ := rl.buckets.PeekOrAdd(key, l); ok {
		return prev
	}
	return l
}

func (rl *RateLimiter) Middleware() gin.HandlerFunc {
	if rl == nil || rl.limit == rate.Inf {
		return func(c *gin.Context) { c.Next() }
	}
	return func(c *gin.Context) {
		key := "ip:" + c.ClientIP()
		if id := ctxutil.EmployeeID(c.Request.Context()); id > 0 {
			key = "employee:" + strconv.FormatInt(id, 10)
		}
		r := rl.bucket(key).Reserve()
		if delay := r.Delay(); delay > 0 {
			r.Cancel()
			c.Header("Retry-After", strconv.Itoa(int(math.Ceil(delay.Seconds()))))
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{
				"error": gin.H{"message": "rate limit exceeded, retry in " + delay.Round(time.Second).String(), "code": "rate_limited"},
			})
			return
		}
		c.Next()
	}
}
