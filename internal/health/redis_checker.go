package health

import (
	"context"
	"fmt"

	"github.com/taoyao-code/lbe-link/internal/mirror"
	redisstorage "github.com/taoyao-code/lbe-link/internal/storage/redis"
)

// RedisChecker 通道镜像 Redis 健康检查；Redis 不可用只影响镜像，报告为 Degraded
type RedisChecker struct {
	client *redisstorage.Client
	mirror *mirror.Mirror
}

// NewRedisChecker m 可为 nil
func NewRedisChecker(client *redisstorage.Client, m *mirror.Mirror) *RedisChecker {
	return &RedisChecker{client: client, mirror: m}
}

func (c *RedisChecker) Name() string {
	return "redis"
}

func (c *RedisChecker) Check(ctx context.Context) CheckResult {
	rtt, err := c.client.Ping(ctx)
	if err != nil {
		return CheckResult{
			Status:  StatusDegraded,
			Message: fmt.Sprintf("ping failed: %v", err),
			Latency: rtt,
		}
	}

	pool := c.client.Pool()
	status := StatusHealthy
	message := "ok"
	if pool.Utilization > 0.9 {
		status = StatusDegraded
		message = "connection pool near limit"
	}

	details := map[string]any{
		"total_conns": pool.TotalConns,
		"idle_conns":  pool.IdleConns,
		"timeouts":    pool.Timeouts,
		"utilization": fmt.Sprintf("%.1f%%", pool.Utilization*100),
	}
	if c.mirror != nil {
		ms := c.mirror.Stats()
		details["mirror_written"] = ms.Written
		details["mirror_failed"] = ms.Failed
		details["mirror_dropped"] = ms.Dropped
		details["mirror_queued"] = ms.Queued
	}
	return CheckResult{
		Status:  status,
		Message: message,
		Details: details,
		Latency: rtt,
	}
}
