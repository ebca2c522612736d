package app

import (
	"fmt"

	"go.uber.org/zap"

	cfgpkg "github.com/taoyao-code/lbe-link/internal/config"
	"github.com/taoyao-code/lbe-link/internal/device"
	"github.com/taoyao-code/lbe-link/internal/rf"
)

// NewRFBridge 打开遥控接收器并绑定转发目标；未启用时返回 nil, nil
func NewRFBridge(cfg cfgpkg.RFConfig, mgr *device.Manager, logger *zap.Logger, opts ...rf.Option) (*rf.Bridge, error) {
	if !cfg.Enabled {
		logger.Info("rf receiver is disabled, skipping initialization")
		return nil, nil
	}

	sinks := make([]rf.Sink, 0, len(cfg.ForwardTo))
	for _, name := range cfg.ForwardTo {
		s, ok := mgr.Get(name)
		if !ok {
			return nil, fmt.Errorf("rf forwardTo: unknown device %q", name)
		}
		sinks = append(sinks, s)
	}

	recv, err := rf.New(rf.Config{
		Backend:       rf.Backend(cfg.Backend),
		Device:        cfg.Device,
		Baud:          cfg.Baud,
		ReadTimeout:   cfg.ReadTimeout,
		RollingWindow: cfg.RollingWindow,
	}, append([]rf.Option{rf.WithLogger(logger)}, opts...)...)
	if err != nil {
		return nil, err
	}
	// 先设学习模式，读协程一启动就可能收到事件
	recv.SetLearning(cfg.Learning)
	if err := recv.Initialize(); err != nil {
		return nil, err
	}

	logger.Info("rf receiver initialized",
		zap.String("backend", cfg.Backend),
		zap.String("device", cfg.Device),
		zap.Strings("forward_to", cfg.ForwardTo))
	return rf.NewBridge(recv, sinks, logger), nil
}
