package app

import (
	"net/http"

	"github.com/gin-gonic/gin"

	cfgpkg "github.com/taoyao-code/lbe-link/internal/config"
	"github.com/taoyao-code/lbe-link/internal/device"
	"github.com/taoyao-code/lbe-link/internal/health"
	"github.com/taoyao-code/lbe-link/internal/httpserver"
	"github.com/taoyao-code/lbe-link/internal/rf"
)

// NewHTTPServer 创建 HTTP 服务并挂上健康检查、设备状态路由；bridge 非空时追加 /api/rf
func NewHTTPServer(cfg *cfgpkg.Config, metricsHandler http.Handler, readyFn func() bool,
	agg *health.Aggregator, mgr *device.Manager, bridge *rf.Bridge) *httpserver.Server {
	srv := httpserver.New(cfg.HTTP, cfg.Metrics.Path, metricsHandler, readyFn)
	srv.Register(func(r *gin.Engine) {
		RegisterHealthRoutes(r, agg)
		httpserver.RegisterDeviceRoutes(r, mgr)
		if bridge != nil {
			httpserver.RegisterRFRoutes(r, bridge)
		}
	})
	return srv
}
