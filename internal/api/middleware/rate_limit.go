package middleware

import (
	"math"
	"strconv"
	"sync"
	"time"

	"bouquet-recommender/internal/pkg/common"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// bucket 單一用戶端的令牌桶
type bucket struct {
	tokens   float64
	lastTime time.Time
}

// RateLimiter 以用戶端 IP 區分的令牌桶限流器
type RateLimiter struct {
	mu       sync.Mutex
	capacity float64
	rate     float64
	window   time.Duration
	buckets  map[string]*bucket
	now      func() time.Time
}

// NewRateLimiter 創建限流器，每個用戶端在 window 內最多 requests 次
func NewRateLimiter(requests int, window time.Duration) *RateLimiter {
	if requests <= 0 {
		requests = 1
	}
	if window <= 0 {
		window = time.Minute
	}
	return &RateLimiter{
		capacity: float64(requests),
		rate:     float64(requests) / window.Seconds(),
		window:   window,
		buckets:  make(map[string]*bucket),
		now:      time.Now,
	}
}

// Allow 檢查用戶端是否還有可用令牌
func (rl *RateLimiter) Allow(key string) bool {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := rl.now()
	b, ok := rl.buckets[key]
	if !ok {
		b = &bucket{tokens: rl.capacity, lastTime: now}
		rl.buckets[key] = b
	}

	elapsed := now.Sub(b.lastTime).Seconds()
	b.lastTime = now
	b.tokens = math.Min(rl.capacity, b.tokens+elapsed*rl.rate)

	if b.tokens < 1 {
		return false
	}
	b.tokens--

	// 桶已補滿的用戶端不必保留
	if len(rl.buckets) > 10000 {
		for k, other := range rl.buckets {
			if k != key && now.Sub(other.lastTime) > rl.window {
				delete(rl.buckets, k)
			}
		}
	}
	return true
}

// RateLimit 限流中間件
func RateLimit(requests int, window time.Duration) gin.HandlerFunc {
	return NewRateLimiter(requests, window).Middleware()
}

// Middleware 返回使用此限流器的中間件
func (rl *RateLimiter) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		if rl.Allow(c.ClientIP()) {
			c.Next()
			return
		}

		common.LogInfo("超過請求頻率限制",
			zap.String("ip", c.ClientIP()),
			zap.String("path", c.Request.URL.Path),
		)
		c.Header("Retry-After", strconv.Itoa(int(math.Ceil(1/rl.rate))))
		common.WriteErrorResponse(c, common.ErrTooManyRequests)
	}
}
