package middleware

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
)

// slidingWindow 按 key 记录窗口内的请求时间戳
type slidingWindow struct {
	mu          sync.Mutex
	maxAttempts int
	window      time.Duration
	store       map[string][]time.Time
}

func newSlidingWindow(maxAttempts int, window time.Duration) *slidingWindow {
	return &slidingWindow{
		maxAttempts: maxAttempts,
		window:      window,
		store:       make(map[string][]time.Time),
	}
}

// allow 记录一次请求，超过窗口内上限时返回 false
func (s *slidingWindow) allow(key string, now time.Time) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	ts := keepAfter(s.store[key], now.Add(-s.window))
	if len(ts) >= s.maxAttempts {
		s.store[key] = ts
		return false
	}
	s.store[key] = append(ts, now)
	return true
}

// prune 清理所有过期记录
func (s *slidingWindow) prune(now time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()

	cutoff := now.Add(-s.window)
	for key, ts := range s.store {
		ts = keepAfter(ts, cutoff)
		if len(ts) == 0 {
			delete(s.store, key)
		} else {
			s.store[key] = ts
		}
	}
}

// runPruner 定期清理过期数据，ctx 结束时退出
func (s *slidingWindow) runPruner(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			s.prune(now)
		}
	}
}

func keepAfter(ts []time.Time, cutoff time.Time) []time.Time {
	kept := ts[:0]
	for _, t := range ts {
		if t.After(cutoff) {
			kept = append(kept, t)
		}
	}
	return kept
}

// AuthRateLimit 登录/注册接口限流中间件
// 每 IP 在 window 内最多 maxAttempts 次尝试，超过则返回 429；maxAttempts<=0 时不限流。
// 客户端 IP 取自 c.ClientIP()，只信任 engine 配置的代理转发头。
// ctx 结束后清理协程退出。
func AuthRateLimit(ctx context.Context, maxAttempts int, window time.Duration) gin.HandlerFunc {
	if maxAttempts <= 0 {
		return func(c *gin.Context) { c.Next() }
	}

	limiter := newSlidingWindow(maxAttempts, window)
	go limiter.runPruner(ctx, time.Minute)

	return func(c *gin.Context) {
		if !limiter.allow(c.ClientIP(), time.Now()) {
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{
				"error": "Too many attempts, please try again later",
			})
			return
		}
		c.Next()
	}
}
