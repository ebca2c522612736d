package health

import (
	"context"
	"fmt"
	"time"

	"github.com/taoyao-code/lbe-link/internal/device"
)

// LinkState 设备会话的只读状态
type LinkState interface {
	Name() string
	State() device.State
}

// DeviceChecker 设备链路健康检查
// 全部在线为 Healthy；部分离线/超时为 Degraded；没有任何会话打开了传输为 Unhealthy
type DeviceChecker struct {
	sessions func() []LinkState
}

func NewDeviceChecker(sessions func() []LinkState) *DeviceChecker {
	return &DeviceChecker{sessions: sessions}
}

func (c *DeviceChecker) Name() string { return "devices" }

func (c *DeviceChecker) Check(ctx context.Context) CheckResult {
	start := time.Now()
	list := c.sessions()
	if len(list) == 0 {
		return CheckResult{Status: StatusHealthy, Message: "no devices configured", Latency: time.Since(start)}
	}

	states := make(map[string]any, len(list))
	var connected, open int
	for _, s := range list {
		st := s.State()
		states[s.Name()] = st.String()
		switch st {
		case device.StateConnected:
			connected++
			open++
		case device.StateConnecting, device.StateTimedOut:
			open++
		}
	}

	status := StatusHealthy
	message := "ok"
	switch {
	case open == 0:
		status = StatusUnhealthy
		message = "no device transport open"
	case connected < len(list):
		status = StatusDegraded
		message = fmt.Sprintf("%d/%d devices connected", connected, len(list))
	}
	return CheckResult{
		Status:  status,
		Message: message,
		Details: map[string]any{
			"total":     len(list),
			"connected": connected,
			"states":    states,
		},
		Latency: time.Since(start),
	}
}
