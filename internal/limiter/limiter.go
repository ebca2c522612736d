package limiter

import (
	"sync/atomic"
	"time"

	"golang.org/x/time/rate"
)

// Limiter 设备发送令牌桶
// 超出预算的发送直接拒绝，不排队等待（tick 循环不能阻塞）
type Limiter struct {
	limiter       *rate.Limiter
	ratePerSec    float64
	burst         int
	allowedCount  atomic.Int64
	rejectedCount atomic.Int64
}

// New 创建限流器
// ratePerSec: 每秒允许发送的帧数；<=0 表示不限流，返回 nil
// burst: 突发容量，<=0 时取稳定速率（至少为1）
func New(ratePerSec float64, burst int) *Limiter {
	if ratePerSec <= 0 {
		return nil
	}
	if burst <= 0 {
		burst = int(ratePerSec)
		if burst < 1 {
			burst = 1
		}
	}
	return &Limiter{
		limiter:    rate.NewLimiter(rate.Limit(ratePerSec), burst),
		ratePerSec: ratePerSec,
		burst:      burst,
	}
}

// AllowAt 按指定时刻检查是否允许发送；nil 限流器总是允许
func (l *Limiter) AllowAt(now time.Time) bool {
	if l == nil {
		return true
	}
	if l.limiter.AllowN(now, 1) {
		l.allowedCount.Add(1)
		return true
	}
	l.rejectedCount.Add(1)
	return false
}

func (l *Limiter) Allow() bool { return l.AllowAt(time.Now()) }

// Stats 获取统计信息
func (l *Limiter) Stats() Stats {
	if l == nil {
		return Stats{}
	}
	return Stats{
		RatePerSecond: l.ratePerSec,
		Burst:         l.burst,
		AllowedTotal:  l.allowedCount.Load(),
		RejectedTotal: l.rejectedCount.Load(),
	}
}

// Stats 限流器统计信息
type Stats struct {
	RatePerSecond float64 `json:"rate_per_second"`
	Burst         int     `json:"burst"`
	AllowedTotal  int64   `json:"allowed_total"`
	RejectedTotal int64   `json:"rejected_total"`
}
