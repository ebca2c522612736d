package app

import (
	"errors"

	"go.uber.org/zap"

	cfgpkg "github.com/taoyao-code/lbe-link/internal/config"
	"github.com/taoyao-code/lbe-link/internal/health"
	"github.com/taoyao-code/lbe-link/internal/metrics"
	"github.com/taoyao-code/lbe-link/internal/mirror"
	redisstorage "github.com/taoyao-code/lbe-link/internal/storage/redis"
)

// NewChannelMirror 连接 Redis 并创建通道镜像（未启动）；未启用时返回 nil, nil, nil
func NewChannelMirror(cfg cfgpkg.RedisConfig, linkm *metrics.LinkMetrics, logger *zap.Logger) (*redisstorage.Client, *mirror.Mirror, error) {
	client, err := redisstorage.Dial(cfg)
	if errors.Is(err, redisstorage.ErrDisabled) {
		logger.Info("redis is disabled, channel mirror off")
		return nil, nil, nil
	}
	if err != nil {
		return nil, nil, err
	}

	logger.Info("redis client initialized",
		zap.String("addr", cfg.Addr),
		zap.String("prefix", cfg.KeyPrefix),
		zap.Int("queue_size", client.QueueSize()))
	return client, mirror.New(client.Channels(), client.QueueSize(), linkm.MirrorDropped, logger), nil
}

// AddRedisChecker 添加Redis检查器到聚合器
func AddRedisChecker(aggregator *health.Aggregator, client *redisstorage.Client, m *mirror.Mirror) {
	if client != nil {
		aggregator.AddChecker(health.NewRedisChecker(client, m))
	}
}
