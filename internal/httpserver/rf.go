package httpserver

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/taoyao-code/lbe-link/internal/rf"
)

// RFSource 遥控接收器状态来源
type RFSource interface {
	Status() rf.BridgeStatus
}

// RegisterRFRoutes GET /api/rf 接收器连接状态与转发统计
func RegisterRFRoutes(r gin.IRoutes, src RFSource) {
	r.GET("/api/rf", func(c *gin.Context) {
		c.JSON(http.StatusOK, src.Status())
	})
}
