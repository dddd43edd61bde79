package server

import (
	"net"
	"net/http"
	"strings"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// --- 连接速率限制 ---

// RateLimiter 按 IP 限制新连接速率，超限后封禁一段时间
type RateLimiter struct {
	mu       sync.Mutex
	limiters map[string]*ipRate

	limit       rate.Limit
	burst       int
	banDuration time.Duration
}

type ipRate struct {
	limiter     *rate.Limiter
	lastSeen    time.Time
	bannedUntil time.Time
}

// NewRateLimiter 创建连接速率限制器，perSecond <= 0 时不限制
func NewRateLimiter(perSecond float64, burst int, banDuration time.Duration) *RateLimiter {
	if burst <= 0 {
		burst = 1
	}
	return &RateLimiter{
		limiters:    make(map[string]*ipRate),
		limit:       rate.Limit(perSecond),
		burst:       burst,
		banDuration: banDuration,
	}
}

// Allow 检查是否允许该 IP 建立连接
func (rl *RateLimiter) Allow(ip string) bool {
	if rl.limit <= 0 {
		return true
	}

	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := time.Now()
	r, ok := rl.limiters[ip]
	if !ok {
		r = &ipRate{limiter: rate.NewLimiter(rl.limit, rl.burst)}
		rl.limiters[ip] = r
	}
	r.lastSeen = now

	if now.Before(r.bannedUntil) {
		return false
	}
	if !r.limiter.AllowN(now, 1) {
		r.bannedUntil = now.Add(rl.banDuration)
		return false
	}
	return true
}

// IsBanned 检查 IP 是否被封禁
func (rl *RateLimiter) IsBanned(ip string) bool {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	r, ok := rl.limiters[ip]
	return ok && time.Now().Before(r.bannedUntil)
}

// Cleanup 清理长时间未出现的 IP
func (rl *RateLimiter) Cleanup(idle time.Duration) int {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := time.Now()
	removed := 0
	for ip, r := range rl.limiters {
		if now.Sub(r.lastSeen) > idle && now.After(r.bannedUntil) {
			delete(rl.limiters, ip)
			removed++
		}
	}
	return removed
}

// --- 消息速率限制 ---

// MessageLimiter 单个连接的消息速率限制（令牌桶）
type MessageLimiter struct {
	limiter  *rate.Limiter
	warnings int
}

// maxWarnings 超速次数达到后断开连接
const maxWarnings = 5

// NewMessageLimiter 创建消息限制器，perSecond <= 0 时不限制
func NewMessageLimiter(perSecond float64, burst int) *MessageLimiter {
	if perSecond <= 0 {
		return &MessageLimiter{limiter: rate.NewLimiter(rate.Inf, 0)}
	}
	if burst <= 0 {
		burst = 1
	}
	return &MessageLimiter{limiter: rate.NewLimiter(rate.Limit(perSecond), burst)}
}

// Allow 是否允许这条消息；kick 为 true 时应断开连接。只在读循环中调用。
func (ml *MessageLimiter) Allow() (allowed, kick bool) {
	if ml.limiter.Allow() {
		return true, false
	}
	ml.warnings++
	return false, ml.warnings > maxWarnings
}

// --- 来源验证 ---

// OriginChecker 来源验证器
type OriginChecker struct {
	allowedOrigins map[string]bool
	allowAll       bool
}

// NewOriginChecker 创建来源验证器
func NewOriginChecker(origins []string) *OriginChecker {
	oc := &OriginChecker{
		allowedOrigins: make(map[string]bool),
	}

	for _, origin := range origins {
		if origin == "*" {
			oc.allowAll = true
			return oc
		}
		oc.allowedOrigins[strings.ToLower(strings.TrimRight(origin, "/"))] = true
	}

	return oc
}

// Check 检查来源是否允许
func (oc *OriginChecker) Check(r *http.Request) bool {
	if oc.allowAll {
		return true
	}

	origin := r.Header.Get("Origin")
	if origin == "" {
		// 没有 Origin 头，可能是同源请求或本地客户端
		return true
	}

	return oc.allowedOrigins[strings.ToLower(origin)]
}

// --- 辅助函数 ---

// GetClientIP 获取客户端真实 IP
func GetClientIP(r *http.Request) string {
	// 检查代理头
	if forwarded := r.Header.Get("X-Forwarded-For"); forwarded != "" {
		// 取第一个 IP（最原始的客户端）
		parts := strings.Split(forwarded, ",")
		return strings.TrimSpace(parts[0])
	}

	if realIP := r.Header.Get("X-Real-IP"); realIP != "" {
		return realIP
	}

	ip, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return ip
}
