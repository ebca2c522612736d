package redis

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	cfgpkg "github.com/taoyao-code/lbe-link/internal/config"
)

var ErrDisabled = errors.New("redis mirror disabled")

const (
	dialPingTimeout  = 5 * time.Second
	defaultQueueSize = 1024
)

// Client 通道镜像使用的 Redis 连接，携带键前缀与镜像队列长度
// Addr 支持逗号分隔的多个地址（集群 / 哨兵由 UniversalClient 识别）
type Client struct {
	rdb       redis.UniversalClient
	prefix    string
	queueSize int
}

// Dial 按配置建立连接并 PING 一次；未启用时返回 ErrDisabled
func Dial(cfg cfgpkg.RedisConfig) (*Client, error) {
	if !cfg.Enabled {
		return nil, ErrDisabled
	}
	rdb := redis.NewUniversalClient(&redis.UniversalOptions{
		Addrs:        splitAddrs(cfg.Addr),
		Password:     cfg.Password,
		DB:           cfg.DB,
		PoolSize:     cfg.PoolSize,
		MinIdleConns: cfg.MinIdleConns,
		DialTimeout:  cfg.DialTimeout,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
	})

	ctx, cancel := context.WithTimeout(context.Background(), dialPingTimeout)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("redis ping %s: %w", cfg.Addr, err)
	}

	c := &Client{rdb: rdb, prefix: cfg.KeyPrefix, queueSize: cfg.QueueSize}
	if c.queueSize <= 0 {
		c.queueSize = defaultQueueSize
	}
	return c, nil
}

func splitAddrs(s string) []string {
	var out []string
	for _, a := range strings.Split(s, ",") {
		if a = strings.TrimSpace(a); a != "" {
			out = append(out, a)
		}
	}
	return out
}

// Channels 以配置的前缀访问通道值镜像
func (c *Client) Channels() *ChannelStore { return NewChannelStore(c.rdb, c.prefix) }

// QueueSize 镜像写队列长度
func (c *Client) QueueSize() int { return c.queueSize }

func (c *Client) Close() error {
	if c == nil || c.rdb == nil {
		return nil
	}
	return c.rdb.Close()
}

// Ping 返回往返耗时
func (c *Client) Ping(ctx context.Context) (time.Duration, error) {
	start := time.Now()
	err := c.rdb.Ping(ctx).Err()
	return time.Since(start), err
}

// PoolSnapshot 连接池占用情况
type PoolSnapshot struct {
	TotalConns  uint32
	IdleConns   uint32
	Timeouts    uint32
	Utilization float64 // 0..1，被占用连接比例
}

func (c *Client) Pool() PoolSnapshot {
	st := c.rdb.PoolStats()
	p := PoolSnapshot{TotalConns: st.TotalConns, IdleConns: st.IdleConns, Timeouts: st.Timeouts}
	if st.TotalConns > 0 {
		p.Utilization = float64(st.TotalConns-st.IdleConns) / float64(st.TotalConns)
	}
	return p
}
