package httpserver

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/taoyao-code/lbe-link/internal/device"
)

// DeviceSource 设备状态来源
type DeviceSource interface {
	Statuses(withChannels bool) []device.Status
	Get(name string) (*device.Session, bool)
}

// RegisterDeviceRoutes 注册设备状态接口
//
//	GET /api/devices            全部设备状态（?channels=1 附带通道缓存）
//	GET /api/devices/:name      单个设备状态及通道缓存
func RegisterDeviceRoutes(r gin.IRoutes, src DeviceSource) {
	r.GET("/api/devices", func(c *gin.Context) {
		withChannels := c.Query("channels") == "1" || c.Query("channels") == "true"
		list := src.Statuses(withChannels)
		c.JSON(http.StatusOK, gin.H{"devices": list, "count": len(list)})
	})

	r.GET("/api/devices/:name", func(c *gin.Context) {
		s, ok := src.Get(c.Param("name"))
		if !ok {
			c.JSON(http.StatusNotFound, gin.H{"error": "device not found"})
			return
		}
		c.JSON(http.StatusOK, s.Status(true))
	})
}
