package bootstrap

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/taoyao-code/lbe-link/internal/app"
	cfgpkg "github.com/taoyao-code/lbe-link/internal/config"
	"github.com/taoyao-code/lbe-link/internal/device"
	"github.com/taoyao-code/lbe-link/internal/health"
	"github.com/taoyao-code/lbe-link/internal/metrics"
)

const defaultTickInterval = 10 * time.Millisecond

// Run 统一启动流程：阻塞直到收到 SIGINT/SIGTERM
func Run(cfg *cfgpkg.Config, log *zap.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	return RunContext(ctx, cfg, log)
}

// RunContext 启动全部组件，ctx 取消后优雅关闭
func RunContext(ctx context.Context, cfg *cfgpkg.Config, log *zap.Logger) error {
	log.Info("starting lbe-link", zap.String("env", cfg.App.Env), zap.Int("devices", len(cfg.Devices)))

	// ========== 阶段1: 基础组件 ==========
	reg, linkm := app.NewMetrics()
	var metricsHandler http.Handler
	if cfg.Metrics.Enable {
		metricsHandler = metrics.Handler(reg)
	}
	ready := health.New()

	contract, err := app.LoadContract(cfg.Link.ContractPath, log)
	if err != nil {
		log.Error("load channel contract failed", zap.Error(err))
		return err
	}

	// ========== 阶段2: Redis 镜像（可选，失败不阻断链路）==========
	redisClient, mir, err := app.NewChannelMirror(cfg.Redis, linkm, log)
	if err != nil {
		log.Warn("redis unavailable, channel mirror disabled", zap.Error(err))
	}
	var sessionOpts []device.Option
	if mir != nil {
		defer redisClient.Close()
		// 断开的设备不再保留过期镜像
		sessionOpts = append(sessionOpts, device.WithDisconnectHook(func(name string) { mir.ClearDevice(name) }))
	}

	// ========== 阶段3: 设备会话 ==========
	mgr, err := app.NewDeviceManager(cfg.Devices, contract, linkm, log, sessionOpts...)
	if err != nil {
		return err
	}
	healthAgg := app.NewHealthAggregator(mgr)
	if mir != nil {
		for _, s := range mgr.Sessions() {
			defer mir.Attach(s)()
		}
		mir.Start(ctx)
		// 在 DisconnectAll 之后执行，把清理操作一并写完
		defer mir.Stop()
		app.AddRedisChecker(healthAgg, redisClient, mir)
		log.Info("channel mirror started", zap.String("prefix", cfg.Redis.KeyPrefix))
	}

	bridge, err := app.NewRFBridge(cfg.RF, mgr, log)
	if err != nil {
		log.Warn("rf receiver unavailable", zap.Error(err))
		bridge = nil
	}
	if bridge != nil {
		defer bridge.Shutdown()
	}

	// ========== 阶段4: HTTP ==========
	httpSrv := app.NewHTTPServer(cfg, metricsHandler, ready.Ready, healthAgg, mgr, bridge)
	httpErr := make(chan error, 1)
	go func() {
		if err := httpSrv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("http server error", zap.Error(err))
			httpErr <- err
		}
	}()
	ready.SetHTTPReady(true)
	log.Info("http server started", zap.String("addr", cfg.HTTP.Addr))

	// ========== 阶段5: 打开设备链路 ==========
	// 单个设备失败只记录，其余设备继续
	for name, e := range mgr.InitializeAll() {
		log.Warn("device initialize failed", zap.String("device", name), zap.Error(e))
	}
	ready.SetLinkReady(true)
	log.Info("device links opened", zap.Int("devices", mgr.Len()))

	// ========== 阶段6: tick 循环 ==========
	interval := cfg.Link.TickInterval
	if interval <= 0 {
		interval = defaultTickInterval
	}
	tick := mgr.TickAll
	if bridge != nil {
		tick = func() {
			bridge.Poll()
			mgr.TickAll()
		}
	}
	runErr := tickLoop(ctx, tick, interval, httpErr)

	// ========== 阶段7: 关闭 ==========
	log.Info("shutting down...")
	ready.SetLinkReady(false)
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	_ = httpSrv.Shutdown(shutdownCtx)
	log.Info("http server stopped")

	if err := mgr.DisconnectAll(); err != nil {
		log.Warn("device disconnect", zap.Error(err))
	}
	log.Info("shutdown complete")
	return runErr
}

// tickLoop 所有会话的 Poll、超时检测与遥控事件转发都在这一个协程里进行
func tickLoop(ctx context.Context, tick func(), interval time.Duration, httpErr <-chan error) error {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case err := <-httpErr:
			return err
		case <-ticker.C:
			tick()
		}
	}
}
