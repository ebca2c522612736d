package device

import (
	"time"

	"github.com/taoyao-code/lbe-link/internal/limiter"
	"github.com/taoyao-code/lbe-link/internal/metrics"
	"github.com/taoyao-code/lbe-link/internal/protocol/wire"
	"go.uber.org/zap"
)

// Option 会话可选项
type Option func(*Session)

func WithLogger(l *zap.Logger) Option {
	return func(s *Session) {
		if l != nil {
			s.baseLog = l
		}
	}
}

func WithMetrics(m *metrics.LinkMetrics) Option {
	return func(s *Session) { s.metrics = m }
}

// WithClock 替换时钟（测试中模拟时间流逝）
func WithClock(now func() time.Time) Option {
	return func(s *Session) {
		if now != nil {
			s.now = now
		}
	}
}

// WithContract 启用通道类型约定，收发两侧都会校验
func WithContract(c *wire.Contract) Option {
	return func(s *Session) { s.contract = c }
}

// WithLimiter 覆盖按配置生成的发送限流器；传 nil 关闭限流
func WithLimiter(l *limiter.Limiter) Option {
	return func(s *Session) {
		s.limiter = l
		s.limiterSet = true
	}
}

// WithDisconnectHook 传输关闭、通道缓存清空后回调（例如清除外部镜像）
func WithDisconnectHook(fn func(name string)) Option {
	return func(s *Session) { s.onDisconnect = fn }
}
