package middleware

import (
	"net/http"
	"plan-beyond-server/internal/common/httpx"
	"plan-beyond-server/internal/config"
	"plan-beyond-server/internal/consts"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"
)

// IPRateLimiter 为每个客户端 IP 维护一个令牌桶；window 大于 0 时每个窗口开始时重建令牌桶（固定窗口）
type IPRateLimiter struct {
	ips     sync.Map
	mu      sync.Mutex
	r       rate.Limit
	b       int
	window  time.Duration
	idleTTL time.Duration
	now     func() time.Time
	stop    chan struct{}
	once    sync.Once
}

type client struct {
	limiter     *rate.Limiter
	mu          sync.Mutex
	windowStart time.Time
	lastSeen    time.Time
}

func NewIPRateLimiter(r rate.Limit, b int, idleTTL time.Duration) *IPRateLimiter {
	if idleTTL <= 0 {
		idleTTL = 3 * time.Minute
	}
	i := &IPRateLimiter{
		r:       r,
		b:       b,
		idleTTL: idleTTL,
		now:     time.Now,
		stop:    make(chan struct{}),
	}

	go i.cleanupLoop()

	return i
}

// NewFixedWindowLimiter 每个 IP 在每个 window 内最多放行 requests 次，窗口结束后配额整体恢复
func NewFixedWindowLimiter(requests int, window time.Duration) *IPRateLimiter {
	// 窗口内回填不足一个令牌，放行次数不会超过桶容量
	i := NewIPRateLimiter(rate.Every(window), requests, window)
	i.window = window
	return i
}

// NewPasswordRateLimiter 按配置构建忘记/重置密码接口的限流器（默认每 IP 15 分钟 5 次）
func NewPasswordRateLimiter(cfg config.Config) *IPRateLimiter {
	requests := cfg.RateLimit.PasswordRequests
	if requests <= 0 {
		requests = 5
	}
	window := time.Duration(cfg.RateLimit.PasswordWindowMinutes) * time.Minute
	if window <= 0 {
		window = 15 * time.Minute
	}
	return NewFixedWindowLimiter(requests, window)
}

func (i *IPRateLimiter) getClient(ip string) *client {
	if v, ok := i.ips.Load(ip); ok {
		return v.(*client)
	}

	i.mu.Lock()
	defer i.mu.Unlock()

	// Double check
	if v, ok := i.ips.Load(ip); ok {
		return v.(*client)
	}

	now := i.now()
	c := &client{limiter: rate.NewLimiter(i.r, i.b), windowStart: now, lastSeen: now}
	i.ips.Store(ip, c)

	return c
}

// Allow 消耗 ip 的一个令牌
func (i *IPRateLimiter) Allow(ip string) bool {
	c := i.getClient(ip)
	now := i.now()

	c.mu.Lock()
	defer c.mu.Unlock()
	c.lastSeen = now
	if i.window > 0 && now.Sub(c.windowStart) >= i.window {
		c.limiter = rate.NewLimiter(i.r, i.b)
		c.windowStart = now
	}
	return c.limiter.AllowN(now, 1)
}

func (i *IPRateLimiter) cleanupLoop() {
	ticker := time.NewTicker(time.Minute)
	defer ticker.Stop()
	for {
		select {
		case <-i.stop:
			return
		case <-ticker.C:
			i.sweep()
		}
	}
}

func (i *IPRateLimiter) sweep() {
	now := i.now()
	i.ips.Range(func(key, value interface{}) bool {
		c := value.(*client)
		c.mu.Lock()
		idle := now.Sub(c.lastSeen)
		c.mu.Unlock()
		if idle > i.idleTTL {
			i.ips.Delete(key)
		}
		return true
	})
}

// Stop 结束后台清理协程
func (i *IPRateLimiter) Stop() {
	i.once.Do(func() { close(i.stop) })
}

// RateLimitMiddleware 超出配额时返回 429
func RateLimitMiddleware(limiter *IPRateLimiter) gin.HandlerFunc {
	return func(c *gin.Context) {
		if !limiter.Allow(c.ClientIP()) {
			httpx.WriteError(c, http.StatusTooManyRequests, consts.MsgTooManyRequests)
			c.Abort()
			return
		}
		c.Next()
	}
}
