package app

import (
	"github.com/gin-gonic/gin"

	"github.com/taoyao-code/lbe-link/internal/device"
	"github.com/taoyao-code/lbe-link/internal/health"
)

// NewHealthAggregator 创建健康检查聚合器，初始只含设备链路检查
func NewHealthAggregator(m *device.Manager) *health.Aggregator {
	return health.NewAggregator(
		health.NewDeviceChecker(func() []health.LinkState {
			sessions := m.Sessions()
			out := make([]health.LinkState, 0, len(sessions))
			for _, s := range sessions {
				out = append(out, s)
			}
			return out
		}),
	)
}

// RegisterHealthRoutes 注册健康检查HTTP路由
func RegisterHealthRoutes(r *gin.Engine, aggregator *health.Aggregator) {
	health.RegisterHTTPRoutes(r, aggregator)
}
