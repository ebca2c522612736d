package app

import (
	"fmt"

	"go.uber.org/zap"

	cfgpkg "github.com/taoyao-code/lbe-link/internal/config"
	"github.com/taoyao-code/lbe-link/internal/device"
	"github.com/taoyao-code/lbe-link/internal/metrics"
	"github.com/taoyao-code/lbe-link/internal/protocol/wire"
)

// LoadContract 配置了路径则从文件加载，否则使用内置通道约定
func LoadContract(path string, logger *zap.Logger) (*wire.Contract, error) {
	if path == "" {
		return wire.DefaultContract(), nil
	}
	c, err := wire.LoadContract(path)
	if err != nil {
		return nil, err
	}
	logger.Info("channel contract loaded", zap.String("path", path), zap.Int("channels", c.Len()))
	return c, nil
}

// NewDeviceManager 按配置创建全部设备会话（未初始化）；extra 追加到每个会话
func NewDeviceManager(devices []cfgpkg.DeviceConfig, contract *wire.Contract, linkm *metrics.LinkMetrics, logger *zap.Logger, extra ...device.Option) (*device.Manager, error) {
	m := device.NewManager()
	for _, dc := range devices {
		opts := append([]device.Option{
			device.WithLogger(logger),
			device.WithMetrics(linkm),
			device.WithContract(contract),
		}, extra...)
		s := device.New(dc, opts...)
		if err := m.Add(s); err != nil {
			return nil, fmt.Errorf("device %q: %w", dc.Name, err)
		}
	}
	return m, nil
}
